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

package resolver

import (
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/schema"
	uref "github.com/runplat/runir/utils/reflect"
)

// NewSchemaStrategy creates a Strategy that names r after the most specific
// schema attribute it carries: host address, node symbol, node path, field
// name, receiver symbol or dependency name.
func NewSchemaStrategy() Strategy {
	return schemaStrategy{}
}

type schemaStrategy struct{}

var _ Strategy = schemaStrategy{}

// TryResolve walks the levels from the top down.
func (schemaStrategy) TryResolve(reg *registry.Registry, r linker.Repr) (string, bool) {
	if h, ok := schema.AsHost(reg, r); ok {
		if addr, ok := h.Address(); ok && addr != "" {
			return addr, true
		}
	}
	if n, ok := schema.AsNode(reg, r); ok {
		if s, ok := n.Symbol(); ok && s != "" {
			return s, true
		}
		if p, ok := n.Path(); ok && p != "" {
			return p, true
		}
	}
	if f, ok := schema.AsField(reg, r); ok {
		if name, ok := f.Name(); ok {
			if owner, ok := f.OwnerName(); ok {
				return uref.ShortName(owner) + "." + name, true
			}
			return name, true
		}
	}
	if rv, ok := schema.AsRecv(reg, r); ok {
		if name, ok := rv.Name(); ok {
			return name, true
		}
	}
	if d, ok := schema.AsDependency(reg, r); ok {
		if name, ok := d.Name(); ok {
			return name, true
		}
	}
	return "", false
}

// NewTypeNameStrategy creates a Strategy that names r after its resource
// type as "pkg.Type", with generic parameters stripped.
func NewTypeNameStrategy() Strategy {
	return typeNameStrategy{}
}

type typeNameStrategy struct{}

var _ Strategy = typeNameStrategy{}

// TryResolve reads the resource type name.
func (typeNameStrategy) TryResolve(reg *registry.Registry, r linker.Repr) (string, bool) {
	res, ok := schema.AsResource(reg, r)
	if !ok {
		return "", false
	}
	name, ok := res.TypeName()
	if !ok || name == "" {
		return "", false
	}
	return uref.ShortName(name), true
}

// NewUUIDStrategy creates the universal fallback that renders the tail
// handle as a uuid.
func NewUUIDStrategy() Strategy {
	return uuidStrategy{}
}

type uuidStrategy struct{}

var _ Strategy = uuidStrategy{}

// TryResolve always handles a non-zero representation.
func (uuidStrategy) TryResolve(_ *registry.Registry, r linker.Repr) (string, bool) {
	if r.IsZero() {
		return "", false
	}
	return r.UUID().String(), true
}
