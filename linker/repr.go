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

package linker

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/tag"
)

// Repr is the tail of a linked chain of levels. The rest of the chain is
// recovered on demand from the chain store of the registry it was linked in.
type Repr struct {
	Tail handle.Handle
}

// FromU64 rebuilds a Repr from AsU64. The payload is not recovered.
func FromU64(v uint64) Repr {
	return Repr{Tail: handle.FromU64(v)}
}

// AsU64 returns the tail identity as an integer.
func (r Repr) AsU64() uint64 {
	return r.Tail.AsU64()
}

// UUID returns the tail identity as a 128-bit value.
func (r Repr) UUID() uuid.UUID {
	return r.Tail.UUID()
}

// IsZero reports whether r was never linked.
func (r Repr) IsZero() bool {
	return r.Tail.IsZero()
}

// Entity returns the entity id carried by the tail, if any.
func (r Repr) Entity(reg *registry.Registry, scope entropy.Scope) (uint64, bool) {
	return reg.Entity(scope, r.Tail)
}

// Upgrade configures lvl and appends it to r in place. lvl must be the
// successor of the current tail; on error r is unchanged.
func (r *Repr) Upgrade(reg *registry.Registry, in apis.Interner, lvl Level) error {
	h, err := lvl.Configure(reg, in)
	if err != nil {
		return err
	}
	linked, err := tag.Link(reg.Handles(), r.Tail, h)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExpectedNextLevel, err)
	}
	r.Tail = linked
	return nil
}

// Downgrade returns r without its last n levels. The new tail is relinked
// against its predecessor, or returned unlinked when only the root remains.
func (r Repr) Downgrade(reg *registry.Registry, n int) (Repr, error) {
	levels := r.Levels(reg)
	end := len(levels) - n
	if n < 0 || end <= 0 {
		return Repr{}, fmt.Errorf("%w: %d levels by %d", ErrDowngrade, len(levels), n)
	}
	levels = levels[:end]
	tail := levels[end-1]
	if end == 1 {
		return Repr{Tail: tail}, nil
	}
	return Repr{Tail: handle.LinkTo(levels[end-2], tail)}, nil
}

// Levels walks the chain back from the tail and returns the unlinked level
// handles, root first. The walk stops at the first level whose predecessor
// is not in the chain store or does not match its link.
func (r Repr) Levels(reg *registry.Registry) []handle.Handle {
	if r.Tail.IsZero() {
		return nil
	}
	store := reg.Handles()
	levels := make([]handle.Handle, 0, handle.MaxLevels)
	cursor := r.Tail
	for range handle.MaxLevels {
		prevReg, ok, current := cursor.Unlink()
		levels = append(levels, current)
		if !ok {
			break
		}
		prev, found := store.Copy(cursor)
		if !found || prev.Register() != prevReg.Register() {
			break
		}
		cursor = prev
	}
	for i, j := 0, len(levels)-1; i < j; i, j = i+1, j-1 {
		levels[i], levels[j] = levels[j], levels[i]
	}
	return levels
}

// Level returns the i-th level handle, root being 0.
func (r Repr) Level(reg *registry.Registry, i int) (handle.Handle, bool) {
	levels := r.Levels(reg)
	if i < 0 || i >= len(levels) {
		return handle.Zero, false
	}
	return levels[i], true
}

// Find returns the level handle stamped with flags.
func (r Repr) Find(reg *registry.Registry, flags handle.LevelFlags) (handle.Handle, bool) {
	for _, h := range r.Levels(reg) {
		if h.LevelFlags() == flags {
			return h, true
		}
	}
	return handle.Zero, false
}

// String implements fmt.Stringer.
func (r Repr) String() string {
	return fmt.Sprintf("repr(%s)", r.Tail)
}
