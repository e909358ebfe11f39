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

// Package resolver derives a human-readable name for a representation by
// running an ordered chain of strategies.
package resolver

import (
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
)

// Strategy is a pluggable resolution step. A Resolver chains strategies in
// order (e.g., Label -> Schema -> TypeName -> UUID).
type Strategy interface {
	// TryResolve returns (name, true) if handled; otherwise ("", false) to
	// fall through.
	TryResolve(reg *registry.Registry, r linker.Repr) (name string, handled bool)
}

// Resolver coordinates strategies to resolve names for representations.
type Resolver interface {
	// Resolve returns a stable name for r, or "" if none can be determined.
	Resolve(reg *registry.Registry, r linker.Repr) string
}

// New constructs a Resolver that tries the given strategies in order.
// Nil strategies are ignored. The returned resolver is safe for concurrent use
// provided strategies themselves are safe for concurrent TryResolve calls.
func New(strategies ...Strategy) Resolver {
	// Filter out nils to avoid nil-interface panics on call sites.
	out := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		if s != nil {
			out = append(out, s)
		}
	}
	return &chain{strats: out}
}

// Default returns the standard chain: labels, schema attributes, the
// resource type name and finally the handle uuid.
func Default() Resolver {
	return New(NewLabelStrategy(), NewSchemaStrategy(), NewTypeNameStrategy(), NewUUIDStrategy())
}

// chain is an immutable, order-preserving resolver over a set of strategies.
type chain struct {
	strats []Strategy
}

// Resolve runs strategies in order until one handles the representation.
// Returns an empty string if no strategy produced a name.
func (r *chain) Resolve(reg *registry.Registry, repr linker.Repr) string {
	if reg == nil || repr.IsZero() {
		return ""
	}
	for _, s := range r.strats {
		if name, ok := s.TryResolve(reg, repr); ok {
			return name
		}
	}
	return ""
}
