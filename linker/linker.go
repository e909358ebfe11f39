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

// Package linker composes configured levels into a Repr, a single handle
// from which the whole chain of levels can be recovered.
package linker

import (
	"errors"
	"fmt"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/tag"
)

var (
	// ErrExpectedRoot is returned when the first pushed level is not a root.
	ErrExpectedRoot = errors.New("runir(linker): expected root level")
	// ErrExpectedNextLevel is returned when a level does not follow the previous one.
	ErrExpectedNextLevel = errors.New("runir(linker): expected next level")
	// ErrUnresolved is returned by Link when there is nothing to link.
	ErrUnresolved = errors.New("runir(linker): could not create representation")
	// ErrDowngrade is returned when a downgrade would remove every level.
	ErrDowngrade = errors.New("runir(linker): cannot downgrade")
)

// Level is one tier of a representation. Configure pushes the level's
// attributes into in, sets its level flag and finishes the handle.
type Level interface {
	Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error)
}

// Mounter is implemented by levels that can hand back their pending
// attributes without touching an interner.
type Mounter[V any] interface {
	Mount() V
}

// Linker collects level handles in order. It is not safe for concurrent use.
type Linker struct {
	reg    *registry.Registry
	in     apis.Interner
	levels []handle.Handle
}

// New returns an empty linker configuring levels through in.
func New(reg *registry.Registry, in apis.Interner) *Linker {
	return &Linker{reg: reg, in: in}
}

// PushLevel configures lvl and appends its handle. The first level must be
// a root and every later level must be the successor of the previous one.
// On error the linker is left unchanged.
func (l *Linker) PushLevel(lvl Level) error {
	h, err := lvl.Configure(l.reg, l.in)
	if err != nil {
		return err
	}

	if n := len(l.levels); n > 0 {
		last := l.levels[n-1].LevelFlags()
		if last.Next() != h.LevelFlags() {
			return fmt.Errorf("%w: %s after %s", ErrExpectedNextLevel, h.LevelFlags(), last)
		}
	} else if !h.IsRoot() {
		return fmt.Errorf("%w: got %s", ErrExpectedRoot, h.LevelFlags())
	}

	l.levels = append(l.levels, h)
	return nil
}

// Link threads the pushed levels together, recording every link in the
// registry chain store, and returns the tail. Calling Link again without
// pushing yields the same Repr.
func (l *Linker) Link() (Repr, error) {
	if len(l.levels) == 0 {
		return Repr{}, ErrUnresolved
	}
	tail := handle.Zero
	for _, to := range l.levels {
		linked, err := tag.Link(l.reg.Handles(), tail, to)
		if err != nil {
			return Repr{}, err
		}
		tail = linked
	}
	return Repr{Tail: tail}, nil
}

// Level returns the index of the last pushed level, -1 when empty.
func (l *Linker) Level() int {
	return len(l.levels) - 1
}

// Handles returns a copy of the pushed, unlinked level handles.
func (l *Linker) Handles() []handle.Handle {
	return append([]handle.Handle(nil), l.levels...)
}
