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
	"errors"
	"fmt"
	"reflect"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
	uref "github.com/runplat/runir/utils/reflect"
)

var (
	// ErrNotStruct is returned when a field owner is not a struct type.
	ErrNotStruct = errors.New("runir(schema): field owner is not a struct")
	// ErrNoField is returned when the owner has no field with the given name.
	ErrNoField = errors.New("runir(schema): no such field")
)

// FieldLevel asserts that an owning type has a field with a given name at a
// given offset.
type FieldLevel struct {
	ownerID   uint64
	ownerName string
	ownerSize uint64
	offset    uint64
	name      string
}

// FieldMount is the pending state of a FieldLevel.
type FieldMount struct {
	OwnerID   uint64
	OwnerName string
	OwnerSize uint64
	Offset    uint64
	Name      string
}

var (
	_ linker.Level               = (*FieldLevel)(nil)
	_ linker.Mounter[FieldMount] = (*FieldLevel)(nil)
)

// NewField describes the field of Owner at offset named name.
func NewField[Owner any](offset uintptr, name string) *FieldLevel {
	t := reflect.TypeFor[Owner]()
	return &FieldLevel{
		ownerID:   uref.TypeID(t),
		ownerName: uref.TypeName(t),
		ownerSize: uref.TypeSize(t),
		offset:    uint64(offset),
		name:      name,
	}
}

// NewNamedField describes a field of an owner known only by name. The
// owner id is derived from the name.
func NewNamedField(owner string, ownerSize uint64, offset uint64, name string) *FieldLevel {
	return &FieldLevel{
		ownerID:   typeIDOf(owner),
		ownerName: owner,
		ownerSize: ownerSize,
		offset:    offset,
		name:      name,
	}
}

// Configure pushes the owner and field attributes at Level1.
func (f *FieldLevel) Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error) {
	p := newPusher(reg, in)
	push(p, OwnerIDTable, f.ownerID)
	push(p, OwnerNameTable, f.ownerName)
	push(p, OwnerSizeTable, f.ownerSize)
	push(p, FieldOffsetTable, f.offset)
	push(p, FieldNameTable, f.name)
	return p.intern(handle.Level1)
}

// Mount returns the owner and field attributes.
func (f *FieldLevel) Mount() FieldMount {
	return FieldMount{
		OwnerID:   f.ownerID,
		OwnerName: f.ownerName,
		OwnerSize: f.ownerSize,
		Offset:    f.offset,
		Name:      f.name,
	}
}

// Field describes a struct field together with the types a value of the
// field is projected as, parsed from, and exchanged as.
type Field struct {
	Owner  reflect.Type
	Name   string
	Offset uintptr
	// Projected is the field's own type.
	Projected reflect.Type
	// Parse is the type values are parsed from. Defaults to Projected.
	Parse reflect.Type
	// FFIType is the type whose FFI is used across boundaries. Defaults
	// to Projected when it has an FFI, otherwise Unit.
	FFIType reflect.Type
}

// FieldOf looks up the named field of Owner.
func FieldOf[Owner any](name string) (Field, error) {
	t := reflect.TypeFor[Owner]()
	if t.Kind() != reflect.Struct {
		return Field{}, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}
	sf, ok := t.FieldByName(name)
	if !ok || len(sf.Index) != 1 {
		return Field{}, fmt.Errorf("%w: %s.%s", ErrNoField, uref.TypeName(t), name)
	}
	ffi := sf.Type
	if !hasValueFFI(ffi) {
		ffi = reflect.TypeFor[Unit]()
	}
	return Field{
		Owner:     t,
		Name:      sf.Name,
		Offset:    sf.Offset,
		Projected: sf.Type,
		Parse:     sf.Type,
		FFIType:   ffi,
	}, nil
}

// hasValueFFI reports whether a parsed flag value can stand for a field of
// type t. Channels, funcs and raw pointers only match an exact registration;
// other containers resolve through their element type.
func hasValueFFI(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		_, ok := ffis.Load(t)
		return ok
	}
	_, ok := FFIFor(t)
	return ok
}

// Level returns the field level.
func (f Field) Level() *FieldLevel {
	return &FieldLevel{
		ownerID:   uref.TypeID(f.Owner),
		ownerName: uref.TypeName(f.Owner),
		ownerSize: uref.TypeSize(f.Owner),
		offset:    uint64(f.Offset),
		name:      f.Name,
	}
}

// Resource returns the resource level of the projected type.
func (f Field) Resource() *ResourceLevel {
	r := ResourceOf(f.Projected)
	if f.Parse != nil {
		r.SetParseType(f.Parse)
	}
	if ffi, ok := FFIFor(f.FFIType); ok {
		r.SetFFI(ffi)
	}
	return r
}

// Linker returns a linker holding the resource and field levels.
func (f Field) Linker(reg *registry.Registry, in apis.Interner) (*linker.Linker, error) {
	l := linker.New(reg, in)
	if err := l.PushLevel(f.Resource()); err != nil {
		return nil, err
	}
	if err := l.PushLevel(f.Level()); err != nil {
		return nil, err
	}
	return l, nil
}

// FieldView reads the field attributes of a representation.
type FieldView struct {
	reg *registry.Registry
	h   handle.Handle
}

// AsField returns the Level1 handle of r read as a field.
func AsField(reg *registry.Registry, r linker.Repr) (FieldView, bool) {
	h, ok := r.Find(reg, handle.Level1)
	if !ok {
		return FieldView{}, false
	}
	return FieldView{reg: reg, h: h}, true
}

// Handle returns the level handle.
func (v FieldView) Handle() handle.Handle { return v.h }

// Name returns the field name.
func (v FieldView) Name() (string, bool) { return get[string](v.reg, FieldNameTable, v.h) }

// Offset returns the field offset.
func (v FieldView) Offset() (uint64, bool) { return get[uint64](v.reg, FieldOffsetTable, v.h) }

// OwnerName returns the owner type name.
func (v FieldView) OwnerName() (string, bool) { return get[string](v.reg, OwnerNameTable, v.h) }

// OwnerSize returns the owner type size.
func (v FieldView) OwnerSize() (uint64, bool) { return get[uint64](v.reg, OwnerSizeTable, v.h) }

// OwnerID returns the owner type id.
func (v FieldView) OwnerID() (uint64, bool) { return get[uint64](v.reg, OwnerIDTable, v.h) }
