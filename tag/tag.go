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

// Package tag binds attribute values to their intern tables and implements
// the link operation that threads level handles into a chain.
package tag

import (
	"errors"
	"fmt"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/table"
)

// ErrOutOfOrder is returned by Link when to does not sit exactly one level
// above from.
var ErrOutOfOrder = errors.New("runir(tag): level out of order")

// Tag binds a value producer to the table its values are stored in.
type Tag[T any] struct {
	table *table.Table[T]
	value func() T
}

// New returns a tag that stores a freshly produced value on every Assign.
func New[T any](tbl *table.Table[T], value func() T) Tag[T] {
	return Tag[T]{table: tbl, value: value}
}

// Shared returns a tag over an existing value. When T implements
// table.Cloner each Assign stores an owned clone, so later changes to v
// do not reach the table.
func Shared[T any](tbl *table.Table[T], v T) Tag[T] {
	return Tag[T]{table: tbl, value: func() T {
		if c, ok := any(v).(table.Cloner[T]); ok {
			return c.Clone()
		}
		return v
	}}
}

// Value returns the value the tag would store.
func (t Tag[T]) Value() T {
	return t.value()
}

// Table returns the home table.
func (t Tag[T]) Table() *table.Table[T] {
	return t.table
}

// Assign stores the value under h. It is an apis.AssignFunc.
func (t Tag[T]) Assign(h handle.Handle) error {
	return t.table.Assign(h, t.value())
}

// Push hashes the tag value into in and queues its assignment.
func Push[T any](in apis.Interner, t Tag[T]) {
	in.PushTag(t.Value(), t.Assign)
}

// PushAs hashes key in place of the tag value. Use it when the value is not
// encodable or when a smaller key already identifies it.
func PushAs[T any](in apis.Interner, key any, t Tag[T]) {
	in.PushTag(key, t.Assign)
}

// Defer queues the assignment without contributing to the handle.
func Defer[T any](in apis.Interner, t Tag[T]) {
	in.Defer(t.Assign)
}

// Link points to back at from and returns the linked to. Unless from is
// zero, store maps the linked to onto from as given, payload included, so
// a walk recovers every level exactly. A zero from starts a chain and
// requires a root to; any other from must sit exactly one level below to.
func Link(store *table.Table[handle.Handle], from, to handle.Handle) (handle.Handle, error) {
	if from.IsZero() {
		if !to.IsRoot() {
			return handle.Zero, fmt.Errorf("%w: chain starts at %s", ErrOutOfOrder, to.LevelFlags())
		}
	} else if from.LevelFlags().Next() != to.LevelFlags() {
		return handle.Zero, fmt.Errorf("%w: %s cannot follow %s", ErrOutOfOrder, to.LevelFlags(), from.LevelFlags())
	}

	linked := handle.LinkTo(from, to)
	if from.IsZero() {
		return linked, nil
	}
	if err := store.Assign(linked, from); err != nil {
		return handle.Zero, err
	}
	return linked, nil
}
