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

package schema

import (
	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
)

// DependencyLevel names a dependency of a resource and optionally the
// representation that depends on it.
type DependencyLevel struct {
	name   string
	parent *linker.Repr
}

var _ linker.Level = (*DependencyLevel)(nil)

// NewDependency returns a dependency level named name.
func NewDependency(name string) *DependencyLevel {
	return &DependencyLevel{name: name}
}

// WithParent sets the representation that owns the dependency.
func (d *DependencyLevel) WithParent(parent linker.Repr) *DependencyLevel {
	d.parent = &parent
	return d
}

// Configure pushes the parent, when set, and the name at Level1.
func (d *DependencyLevel) Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error) {
	p := newPusher(reg, in)
	if d.parent != nil {
		push(p, DependencyParentTable, *d.parent)
	}
	push(p, DependencyNameTable, d.name)
	return p.intern(handle.Level1)
}

// DependencyView reads the dependency attributes of a representation.
type DependencyView struct {
	reg *registry.Registry
	h   handle.Handle
}

// AsDependency returns the Level1 handle of r read as a dependency.
func AsDependency(reg *registry.Registry, r linker.Repr) (DependencyView, bool) {
	h, ok := r.Find(reg, handle.Level1)
	if !ok {
		return DependencyView{}, false
	}
	return DependencyView{reg: reg, h: h}, true
}

// Handle returns the level handle.
func (v DependencyView) Handle() handle.Handle { return v.h }

// Name returns the dependency name.
func (v DependencyView) Name() (string, bool) {
	return get[string](v.reg, DependencyNameTable, v.h)
}

// Parent returns the representation that owns the dependency.
func (v DependencyView) Parent() (linker.Repr, bool) {
	return get[linker.Repr](v.reg, DependencyParentTable, v.h)
}
