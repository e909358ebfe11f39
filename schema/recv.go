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
	"reflect"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
)

// Recv is implemented by types that receive nodes. The symbol is read from
// the zero value.
type Recv interface {
	Symbol() string
}

// RecvLevel names a receiver and lists the field representations it owns.
type RecvLevel struct {
	name   string
	fields Reprs
}

var _ linker.Level = (*RecvLevel)(nil)

// NewRecv returns a receiver level.
func NewRecv(symbol string, fields []linker.Repr) *RecvLevel {
	return &RecvLevel{name: symbol, fields: Reprs(fields).Clone()}
}

// RecvFor returns the receiver level of R.
func RecvFor[R Recv](fields []linker.Repr) *RecvLevel {
	var r R
	return NewRecv(r.Symbol(), fields)
}

// Configure pushes the receiver name and fields at Level1.
func (r *RecvLevel) Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error) {
	p := newPusher(reg, in)
	push(p, RecvNameTable, r.name)
	push(p, RecvFieldsTable, r.fields)
	return p.intern(handle.Level1)
}

// LinkRecv links R as a resource, its receiver level and node.
func LinkRecv[R Recv](reg *registry.Registry, in apis.Interner, node *NodeLevel, fields []linker.Repr) (linker.Repr, error) {
	return linkLevels(reg, in, ResourceOf(reflect.TypeFor[R]()), RecvFor[R](fields), node)
}

// LinkField links a node to a field of a resource.
func LinkField(reg *registry.Registry, in apis.Interner, resource *ResourceLevel, field *FieldLevel, node *NodeLevel) (linker.Repr, error) {
	return linkLevels(reg, in, resource, field, node)
}

func linkLevels(reg *registry.Registry, in apis.Interner, levels ...linker.Level) (linker.Repr, error) {
	l := linker.New(reg, in)
	for _, lvl := range levels {
		if err := l.PushLevel(lvl); err != nil {
			return linker.Repr{}, err
		}
	}
	return l.Link()
}

// RecvView reads the receiver attributes of a representation.
type RecvView struct {
	reg *registry.Registry
	h   handle.Handle
}

// AsRecv returns the Level1 handle of r read as a receiver.
func AsRecv(reg *registry.Registry, r linker.Repr) (RecvView, bool) {
	h, ok := r.Find(reg, handle.Level1)
	if !ok {
		return RecvView{}, false
	}
	return RecvView{reg: reg, h: h}, true
}

// Handle returns the level handle.
func (v RecvView) Handle() handle.Handle { return v.h }

// Name returns the receiver symbol.
func (v RecvView) Name() (string, bool) { return get[string](v.reg, RecvNameTable, v.h) }

// Fields returns the field representations owned by the receiver.
func (v RecvView) Fields() (Reprs, bool) { return get[Reprs](v.reg, RecvFieldsTable, v.h) }

// FindField returns the owned field named name.
func (v RecvView) FindField(name string) (linker.Repr, bool) {
	fields, _ := v.Fields()
	for _, f := range fields {
		fv, ok := AsField(v.reg, f)
		if !ok {
			continue
		}
		if n, ok := fv.Name(); ok && n == name {
			return f, true
		}
	}
	return linker.Repr{}, false
}
