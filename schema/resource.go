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
	"fmt"
	"reflect"

	"github.com/cespare/xxhash/v2"
	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
	uref "github.com/runplat/runir/utils/reflect"
)

// ResourceLevel is the root of every representation. It records the
// identity of the resource type and optionally the type it is parsed from
// and its FFI.
type ResourceLevel struct {
	typeID    uint64
	typeName  string
	typeSize  uint64
	parseType *string
	ffi       *FFI
}

// ResourceMount is the pending state of a ResourceLevel.
type ResourceMount struct {
	TypeID   uint64
	TypeName string
	TypeSize uint64
}

// Ensure ResourceLevel implements the level contracts.
var (
	_ linker.Level                  = (*ResourceLevel)(nil)
	_ linker.Mounter[ResourceMount] = (*ResourceLevel)(nil)
)

// NewResource describes T.
func NewResource[T any]() *ResourceLevel {
	return ResourceOf(reflect.TypeFor[T]())
}

// ResourceOf describes t.
func ResourceOf(t reflect.Type) *ResourceLevel {
	return &ResourceLevel{
		typeID:   uref.TypeID(t),
		typeName: uref.TypeName(t),
		typeSize: uref.TypeSize(t),
	}
}

// NewNamedResource describes a resource known only by name, e.g. one read
// from a manifest. Its type id is derived from the name.
func NewNamedResource(name string, size uint64) *ResourceLevel {
	return &ResourceLevel{
		typeID:   typeIDOf(name),
		typeName: name,
		typeSize: size,
	}
}

// SetParseType records the type resource values are parsed from.
func (r *ResourceLevel) SetParseType(t reflect.Type) *ResourceLevel {
	return r.SetParseTypeName(uref.TypeName(t))
}

// SetParseTypeName is SetParseType by name.
func (r *ResourceLevel) SetParseTypeName(name string) *ResourceLevel {
	r.parseType = &name
	return r
}

// SetFFI records how the resource crosses process boundaries.
func (r *ResourceLevel) SetFFI(f FFI) *ResourceLevel {
	r.ffi = &f
	return r
}

// Configure pushes the resource attributes as a root level.
func (r *ResourceLevel) Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error) {
	p := newPusher(reg, in)
	push(p, TypeIDTable, r.typeID)
	push(p, TypeSizeTable, r.typeSize)
	push(p, TypeNameTable, r.typeName)
	if r.parseType != nil {
		push(p, ParseTypeNameTable, *r.parseType)
	}
	if r.ffi != nil {
		push(p, FFITypeNameTable, r.ffi.TypeName)
		if r.ffi.Parser != nil {
			pushAs(p, FFIValueParserTable, r.typeName+"_value_parser", r.ffi.Parser)
		}
	}
	return p.intern(handle.Root)
}

// Mount returns the identity attributes.
func (r *ResourceLevel) Mount() ResourceMount {
	return ResourceMount{TypeID: r.typeID, TypeName: r.typeName, TypeSize: r.typeSize}
}

// Describe returns a linker whose root describes T.
func Describe[T any](reg *registry.Registry, in apis.Interner) (*linker.Linker, error) {
	l := linker.New(reg, in)
	if err := l.PushLevel(NewResource[T]()); err != nil {
		return nil, fmt.Errorf("describe %s: %w", uref.TypeName(reflect.TypeFor[T]()), err)
	}
	return l, nil
}

// ResourceView reads the resource attributes of a representation.
type ResourceView struct {
	reg *registry.Registry
	h   handle.Handle
}

// AsResource returns the resource level of r.
func AsResource(reg *registry.Registry, r linker.Repr) (ResourceView, bool) {
	h, ok := r.Find(reg, handle.Root)
	if !ok {
		return ResourceView{}, false
	}
	return ResourceView{reg: reg, h: h}, true
}

// Handle returns the level handle.
func (v ResourceView) Handle() handle.Handle { return v.h }

// TypeID returns the resource type id.
func (v ResourceView) TypeID() (uint64, bool) { return get[uint64](v.reg, TypeIDTable, v.h) }

// TypeName returns the resource type name.
func (v ResourceView) TypeName() (string, bool) { return get[string](v.reg, TypeNameTable, v.h) }

// TypeSize returns the resource type size in bytes.
func (v ResourceView) TypeSize() (uint64, bool) { return get[uint64](v.reg, TypeSizeTable, v.h) }

// ParseTypeName returns the parse type name, if one was set.
func (v ResourceView) ParseTypeName() (string, bool) {
	return get[string](v.reg, ParseTypeNameTable, v.h)
}

// FFITypeName returns the FFI type name, if one was set.
func (v ResourceView) FFITypeName() (string, bool) {
	return get[string](v.reg, FFITypeNameTable, v.h)
}

// FFIValueParser returns the FFI parser, if one was set.
func (v ResourceView) FFIValueParser() (Parser, bool) {
	return get[Parser](v.reg, FFIValueParserTable, v.h)
}

// IsType reports whether v describes T.
func IsType[T any](v ResourceView) bool {
	t := reflect.TypeFor[T]()
	name, ok := v.TypeName()
	if !ok || name != uref.TypeName(t) {
		return false
	}
	id, ok := v.TypeID()
	return ok && id == uref.TypeID(t)
}

// IsParseType reports whether v is parsed from T.
func IsParseType[T any](v ResourceView) bool {
	name, ok := v.ParseTypeName()
	return ok && name == uref.TypeName(reflect.TypeFor[T]())
}

// IsFFIType reports whether v crosses boundaries as T does.
func IsFFIType[T any](v ResourceView) bool {
	f, ok := FFIOf[T]()
	if !ok {
		return false
	}
	name, ok := v.FFITypeName()
	return ok && name == f.TypeName
}

// typeIDOf derives a type id from a type name the same way uref.TypeID does.
func typeIDOf(name string) uint64 {
	return xxhash.Sum64String(name)
}
