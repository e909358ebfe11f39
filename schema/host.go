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

// HostLevel is the top of a representation. It assigns the address the
// resource is reachable at and lists the extensions mounted under it.
type HostLevel struct {
	address    string
	extensions Reprs
}

var _ linker.Level = (*HostLevel)(nil)

// NewHost returns a host level at address.
func NewHost(address string) *HostLevel {
	return &HostLevel{address: address}
}

// WithExtensions sets the extensions of the host.
func (h *HostLevel) WithExtensions(ext ...linker.Repr) *HostLevel {
	h.extensions = Reprs(ext).Clone()
	return h
}

// Configure pushes the address and extensions at Level3.
func (h *HostLevel) Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error) {
	p := newPusher(reg, in)
	push(p, AddressTable, h.address)
	if h.extensions != nil {
		push(p, ExtensionsTable, h.extensions)
	}
	return p.intern(handle.Level3)
}

// HostView reads the host attributes of a representation.
type HostView struct {
	reg *registry.Registry
	h   handle.Handle
}

// AsHost returns the Level3 handle of r read as a host.
func AsHost(reg *registry.Registry, r linker.Repr) (HostView, bool) {
	h, ok := r.Find(reg, handle.Level3)
	if !ok {
		return HostView{}, false
	}
	return HostView{reg: reg, h: h}, true
}

// Handle returns the level handle.
func (v HostView) Handle() handle.Handle { return v.h }

// Address returns the host address.
func (v HostView) Address() (string, bool) { return get[string](v.reg, AddressTable, v.h) }

// Extensions returns the extensions mounted under the host.
func (v HostView) Extensions() (Reprs, bool) { return get[Reprs](v.reg, ExtensionsTable, v.h) }

// FindExtension returns the extension whose receiver is named name.
func (v HostView) FindExtension(name string) (linker.Repr, bool) {
	ext, _ := v.Extensions()
	for _, e := range ext {
		rv, ok := AsRecv(v.reg, e)
		if !ok {
			continue
		}
		if n, ok := rv.Name(); ok && n == name {
			return e, true
		}
	}
	return linker.Repr{}, false
}
