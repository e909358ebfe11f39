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

// Package entropy scopes handle payloads to one logical session.
//
// Two sessions generating handles concurrently in the same process (for
// example, two tests) each carry their own Scope. Payloads such as entity ids
// are stored XORed with the scope, so they only compare equal inside the
// scope that produced them. The zero Scope is the unscoped default.
package entropy

import (
	"context"
	"encoding/binary"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Scope is a salt applied to handle payloads.
type Scope uint64

// NewScope draws a fresh random scope.
func NewScope() Scope {
	id := uuid.New()
	return Scope(binary.BigEndian.Uint64(id[8:16]))
}

type scopeKey struct{}

// WithScope returns a context carrying s.
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// FromContext returns the scope carried by ctx, or the zero scope.
func FromContext(ctx context.Context) Scope {
	if ctx == nil {
		return 0
	}
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

// Runtime runs work on a bounded group of goroutines that all share the
// scope drawn when the runtime was constructed.
type Runtime struct {
	scope Scope
	ctx   context.Context
	g     *errgroup.Group
}

// NewRuntime draws one scope and returns a runtime whose workers observe it.
// workers <= 0 leaves the group unbounded.
func NewRuntime(ctx context.Context, workers int) *Runtime {
	s := NewScope()
	g, gctx := errgroup.WithContext(WithScope(ctx, s))
	if workers > 0 {
		g.SetLimit(workers)
	}
	return &Runtime{scope: s, ctx: gctx, g: g}
}

// Scope returns the scope shared by every worker.
func (r *Runtime) Scope() Scope {
	return r.scope
}

// Go schedules fn. It blocks while the worker limit is reached.
// The first error cancels the runtime context.
func (r *Runtime) Go(fn func(ctx context.Context, s Scope) error) {
	r.g.Go(func() error {
		return fn(r.ctx, r.scope)
	})
}

// Wait blocks until every scheduled function returns and reports the first error.
func (r *Runtime) Wait() error {
	return r.g.Wait()
}
