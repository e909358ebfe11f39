/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Package table implements the concurrent intern table: a handle keyed map
// with lock-free reads, serialized writes and idempotent insertion.
package table

import (
	"errors"
	"fmt"
	"iter"
	"sync"
	"weak"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
)

// ErrNotInterned is returned by Get when a handle has no value.
var ErrNotInterned = errors.New("runir(table): not interned")

// Observer receives table events. Implementations must be safe for
// concurrent use.
type Observer interface {
	Assigned(table string)
	Skipped(table string)
	Replaced(table string)
	Missed(table string)
}

// Cloner is implemented by values that need a deep copy in Clone.
type Cloner[T any] interface {
	Clone() T
}

// Option configures a Table.
type Option func(*options)

type options struct {
	log *zap.Logger
	obs Observer
}

// WithLogger sets the logger. Nil means zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithObserver sets the event observer.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		o.obs = obs
	}
}

// Table maps handles to values of T. The table holds the only strong
// reference to every value; readers receive weak pointers.
type Table[T any] struct {
	name string
	log  *zap.Logger
	obs  Observer

	// mu serializes writers and guards count.
	mu sync.Mutex
	// m maps handle.Handle to *T.
	m     sync.Map
	count int
}

// Ensure Table implements apis.Exporter.
var _ apis.Exporter = (*Table[int])(nil)

// encMode is deterministic so exports of equal values are byte-equal.
var encMode, _ = cbor.CoreDetEncOptions().EncMode()

// New returns an empty table called name.
func New[T any](name string, opts ...Option) *Table[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return &Table[T]{
		name: name,
		log:  o.log.With(zap.String("table", name)),
		obs:  o.obs,
	}
}

// Name returns the table name.
func (t *Table[T]) Name() string {
	return t.name
}

// Assign stores v under h unless h already has a value, in which case the
// existing value wins and the call is a no-op.
func (t *Table[T]) Assign(h handle.Handle, v T) error {
	// Fast read path.
	if _, ok := t.m.Load(h); ok {
		t.skipped(h)
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if _, ok := t.m.Load(h); ok {
		t.skipped(h)
		return nil
	}
	t.m.Store(h, &v)
	t.count++
	if t.obs != nil {
		t.obs.Assigned(t.name)
	}
	return nil
}

// Replace stores v under h, overwriting any existing value. Overwrites are
// logged as warnings since they mean a handle was reused for other data.
func (t *Table[T]) Replace(h handle.Handle, v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, loaded := t.m.Swap(h, &v); loaded {
		t.log.Warn("replacing intern handle",
			zap.Stringer("level", h.LevelFlags()),
			zap.Stringer("handle", h),
		)
		if t.obs != nil {
			t.obs.Replaced(t.name)
		}
		return
	}
	t.count++
	if t.obs != nil {
		t.obs.Assigned(t.name)
	}
}

func (t *Table[T]) skipped(h handle.Handle) {
	t.log.Debug("skipping intern, already assigned", zap.Stringer("handle", h))
	if t.obs != nil {
		t.obs.Skipped(t.name)
	}
}

// Get returns a weak pointer to the value stored under h.
func (t *Table[T]) Get(h handle.Handle) (weak.Pointer[T], error) {
	v, ok := t.m.Load(h)
	if !ok {
		if t.obs != nil {
			t.obs.Missed(t.name)
		}
		return weak.Pointer[T]{}, fmt.Errorf("%w: %s %v", ErrNotInterned, t.name, h)
	}
	return weak.Make(v.(*T)), nil
}

// StrongRef returns the stored value itself. Callers must not mutate it.
func (t *Table[T]) StrongRef(h handle.Handle) (*T, bool) {
	wp, err := t.Get(h)
	if err != nil {
		return nil, false
	}
	p := wp.Value()
	return p, p != nil
}

// Copy returns a shallow copy of the value stored under h.
func (t *Table[T]) Copy(h handle.Handle) (T, bool) {
	p, ok := t.StrongRef(h)
	if !ok {
		var zero T
		return zero, false
	}
	return *p, true
}

// Clone returns a deep copy when T implements Cloner, otherwise a shallow copy.
func (t *Table[T]) Clone(h handle.Handle) (T, bool) {
	v, ok := t.Copy(h)
	if !ok {
		return v, false
	}
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone(), true
	}
	return v, true
}

// Len returns the number of entries.
func (t *Table[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Entries yields every entry with a weak pointer to its value (order is unspecified).
func (t *Table[T]) Entries() iter.Seq2[handle.Handle, weak.Pointer[T]] {
	return func(yield func(handle.Handle, weak.Pointer[T]) bool) {
		t.m.Range(func(k, v any) bool {
			return yield(k.(handle.Handle), weak.Make(v.(*T)))
		})
	}
}

// Export yields (wire identity, cbor bytes) for every live entry whose value
// can be encoded. Other entries are skipped.
func (t *Table[T]) Export() iter.Seq2[uuid.UUID, []byte] {
	return func(yield func(uuid.UUID, []byte) bool) {
		for h, wp := range t.Entries() {
			p := wp.Value()
			if p == nil {
				continue
			}
			b, err := encMode.Marshal(p)
			if err != nil {
				t.log.Debug("skipping export", zap.Stringer("handle", h), zap.Error(err))
				continue
			}
			if !yield(h.Wire(), b) {
				return
			}
		}
	}
}

// Import decodes data and assigns it to the handle encoded by id.
func (t *Table[T]) Import(id uuid.UUID, data []byte) error {
	var v T
	if err := cbor.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("import %s %s: %w", t.name, id, err)
	}
	return t.Assign(handle.FromWire(id), v)
}

// Reset clears all entries.
func (t *Table[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m.Clear()
	t.count = 0
}
