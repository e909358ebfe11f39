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

// Package registry provides the explicitly constructed context that owns
// every named intern table, the chain store linking levels together and
// the entity counter.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/config"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/table"
)

const (
	// HandlesTable names the chain store.
	HandlesTable = "runir.handles"
	// EntitiesTable names the entity table.
	EntitiesTable = "runir.entities"
)

var (
	// ErrEmptyName is returned when an empty table name is provided.
	ErrEmptyName = errors.New("runir(registry): empty table name provided")
	// ErrConflictingRegistration indicates an attempt to define an existing
	// table name with a different value type.
	ErrConflictingRegistration = errors.New("runir(registry): conflicting table registration")
)

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. Nil means zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics registers intern table metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(r *Registry) {
		r.metrics = NewMetrics(reg)
	}
}

// WithSharedMetrics reuses collectors that are already registered, e.g. by
// the registry being migrated from.
func WithSharedMetrics(m *Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// Registry owns the intern tables of one independent identity space.
// Two registries never share values, which keeps tests isolated.
type Registry struct {
	// cfg is the configuration the registry was built with.
	cfg apis.Config
	// log is shared with every table.
	log *zap.Logger
	// metrics observes every table, may be nil.
	metrics *Metrics

	// mu serializes table creation and guards count.
	mu sync.Mutex
	// tables maps a table name to *entry.
	tables sync.Map
	// count tracks the number of defined tables.
	count int

	// entity is the last entity id handed out.
	entity atomic.Uint64

	handles  *table.Table[handle.Handle]
	entities *table.Table[uint64]
}

// entry is one defined table.
type entry struct {
	typ   reflect.Type
	table apis.Exporter
	// define creates the same table in another registry.
	define func(*Registry) (apis.Exporter, error)
}

// New constructs an empty Registry.
func New(cfg apis.Config, opts ...Option) *Registry {
	if cfg.MaxUnwrap <= 0 {
		cfg.MaxUnwrap = config.DefaultMaxUnwrap
	}
	r := &Registry{cfg: cfg, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	r.entity.Store(cfg.EntityStart)
	r.handles = MustDefine[handle.Handle](r, HandlesTable)
	r.entities = MustDefine[uint64](r, EntitiesTable)
	return r
}

// Define returns the table called name, creating it on first use.
// Exactly one table exists per name; asking for it with a different value
// type fails with ErrConflictingRegistration.
func Define[T any](r *Registry, name string) (*table.Table[T], error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	typ := reflect.TypeFor[T]()

	// Fast read path.
	if v, ok := r.tables.Load(name); ok {
		return lookup[T](v.(*entry), name, typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if v, ok := r.tables.Load(name); ok {
		return lookup[T](v.(*entry), name, typ)
	}

	opts := []table.Option{table.WithLogger(r.log)}
	if r.metrics != nil {
		opts = append(opts, table.WithObserver(r.metrics))
	}
	t := table.New[T](name, opts...)
	r.tables.Store(name, &entry{
		typ:   typ,
		table: t,
		define: func(dst *Registry) (apis.Exporter, error) {
			return Define[T](dst, name)
		},
	})
	r.count++
	r.log.Debug("defined intern table", zap.String("table", name), zap.Stringer("type", typ))
	return t, nil
}

func lookup[T any](e *entry, name string, typ reflect.Type) (*table.Table[T], error) {
	if e.typ != typ {
		return nil, fmt.Errorf("%w: %s holds %v, not %v", ErrConflictingRegistration, name, e.typ, typ)
	}
	return e.table.(*table.Table[T]), nil
}

// MustDefine is Define that panics on error. Intended for package-level
// table declarations.
func MustDefine[T any](r *Registry, name string) *table.Table[T] {
	t, err := Define[T](r, name)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the table called name if it was defined with value type T.
// Unlike Define it never creates a table.
func Lookup[T any](r *Registry, name string) (*table.Table[T], bool) {
	v, ok := r.tables.Load(name)
	if !ok {
		return nil, false
	}
	t, ok := v.(*entry).table.(*table.Table[T])
	return t, ok
}

// Handles returns the chain store, keyed by handle.Handle.Key of each linked level.
func (r *Registry) Handles() *table.Table[handle.Handle] {
	return r.handles
}

// Entities returns the entity table, keyed by unlinked entity handles.
func (r *Registry) Entities() *table.Table[uint64] {
	return r.entities
}

// NextEntity hands out the next entity id. Zero is never returned.
func (r *Registry) NextEntity() uint64 {
	id := r.entity.Add(1)
	if id == 0 {
		// Wrapped around; zero stays reserved.
		id = r.entity.Add(1)
	}
	if r.metrics != nil {
		r.metrics.EntitiesTotal.Inc()
	}
	return id
}

// Entity reports the entity id carried by h under scope, if h was produced
// by an entity interner of this registry.
func (r *Registry) Entity(scope entropy.Scope, h handle.Handle) (uint64, bool) {
	data := h.Payload(uint64(scope))
	if data == 0 {
		return 0, false
	}
	id, ok := r.entities.Copy(h.Unlinked())
	if !ok || id != data {
		return 0, false
	}
	return id, true
}

// Tables lists every table sorted by name.
func (r *Registry) Tables() []apis.Exporter {
	out := make([]apis.Exporter, 0, r.Count())
	r.tables.Range(func(_, v any) bool {
		out = append(out, v.(*entry).table)
		return true
	})
	slices.SortFunc(out, func(a, b apis.Exporter) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// Table returns the type-erased table called name.
func (r *Registry) Table(name string) (apis.Exporter, bool) {
	v, ok := r.tables.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*entry).table, true
}

// Count returns the number of defined tables.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset clears every table and rewinds the entity counter. Table
// definitions survive so held *table.Table values stay valid.
func (r *Registry) Reset() {
	r.tables.Range(func(_, v any) bool {
		v.(*entry).table.Reset()
		return true
	})
	r.entity.Store(r.cfg.EntityStart)
}

// Migrate copies every table of prev into r through export and import,
// and advances the entity counter past prev's. Values that cannot be
// encoded are not carried over.
func (r *Registry) Migrate(prev *Registry) error {
	if prev == nil || prev == r {
		return nil
	}
	var errs error
	prev.tables.Range(func(name, v any) bool {
		src := v.(*entry)
		dst, err := src.define(r)
		if err != nil {
			errs = multierr.Append(errs, err)
			return true
		}
		for id, b := range src.table.Export() {
			errs = multierr.Append(errs, dst.Import(id, b))
		}
		return true
	})
	r.AdvanceEntity(prev.LastEntity())
	r.log.Debug("migrated registry", zap.Int("tables", prev.Count()), zap.Error(errs))
	return errs
}

// LastEntity returns the last entity id handed out, or the configured start.
func (r *Registry) LastEntity() uint64 {
	return r.entity.Load()
}

// AdvanceEntity moves the entity counter forward to at least last. It
// never moves it back.
func (r *Registry) AdvanceEntity(last uint64) {
	for {
		cur := r.entity.Load()
		if cur >= last || r.entity.CompareAndSwap(cur, last) {
			return
		}
	}
}

// Config returns the configuration the registry was built with.
func (r *Registry) Config() apis.Config {
	return r.cfg
}

// Logger returns the registry logger.
func (r *Registry) Logger() *zap.Logger {
	return r.log
}

// Metrics returns the registry metrics, nil unless WithMetrics was given.
func (r *Registry) Metrics() *Metrics {
	return r.metrics
}
