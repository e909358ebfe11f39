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

// Package schema defines the concrete levels a representation is built
// from (resource, field, dependency, receiver, node and host), the read
// views over their interned attributes, and the value-parser bridge used to
// expose fields as command-line flags.
//
// Every attribute kind lives in its own registry table, so unrelated levels
// that share a value (e.g. the same name) share one table entry.
package schema

import (
	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/table"
	"github.com/runplat/runir/tag"
)

// Table names, one per attribute kind.
const (
	TypeIDTable         = "resource.type_id"
	TypeNameTable       = "resource.type_name"
	TypeSizeTable       = "resource.type_size"
	ParseTypeNameTable  = "resource.parse_type_name"
	FFITypeNameTable    = "resource.ffi_type_name"
	FFIValueParserTable = "resource.ffi_value_parser"

	OwnerIDTable     = "field.owner_id"
	OwnerNameTable   = "field.owner_name"
	OwnerSizeTable   = "field.owner_size"
	FieldOffsetTable = "field.offset"
	FieldNameTable   = "field.name"

	DependencyNameTable   = "dependency.name"
	DependencyParentTable = "dependency.parent"

	RecvNameTable   = "recv.name"
	RecvFieldsTable = "recv.fields"

	SymbolTable         = "node.symbol"
	InputTable          = "node.input"
	TagTable            = "node.tag"
	PathTable           = "node.path"
	NodeIndexTable      = "node.index"
	BlockIndexTable     = "node.block_index"
	SourceTable         = "node.source"
	DocHeadersTable     = "node.doc_headers"
	AnnotationsTable    = "node.annotations"
	SourceSpanTable     = "node.source_span"
	SourceRelativeTable = "node.source_relative"

	AddressTable    = "host.address"
	ExtensionsTable = "host.extensions"
)

// pusher stages the tags of one level. Tables are resolved while staging,
// so a conflicting table surfaces before anything reaches the interner.
type pusher struct {
	reg *registry.Registry
	in  apis.Interner
	err error
	ops []func()
}

func newPusher(reg *registry.Registry, in apis.Interner) *pusher {
	return &pusher{reg: reg, in: in}
}

func define[T any](p *pusher, name string) *table.Table[T] {
	if p.err != nil {
		return nil
	}
	tbl, err := registry.Define[T](p.reg, name)
	if err != nil {
		p.err = err
		return nil
	}
	return tbl
}

// push hashes v and stores it in the named table.
func push[T any](p *pusher, name string, v T) {
	if tbl := define[T](p, name); tbl != nil {
		p.ops = append(p.ops, func() { tag.Push(p.in, tag.Shared(tbl, v)) })
	}
}

// pushAs hashes key and stores v in the named table.
func pushAs[T any](p *pusher, name string, key any, v T) {
	if tbl := define[T](p, name); tbl != nil {
		p.ops = append(p.ops, func() { tag.PushAs(p.in, key, tag.Shared(tbl, v)) })
	}
}

// record stores v in the named table without hashing it.
func record[T any](p *pusher, name string, v T) {
	if tbl := define[T](p, name); tbl != nil {
		p.ops = append(p.ops, func() { tag.Defer(p.in, tag.Shared(tbl, v)) })
	}
}

func (p *pusher) intern(flags handle.LevelFlags) (handle.Handle, error) {
	if p.err != nil {
		return handle.Zero, p.err
	}
	for _, op := range p.ops {
		op()
	}
	p.in.SetLevelFlags(flags)
	return p.in.Intern()
}

// get reads the value stored for h in the named table.
func get[T any](reg *registry.Registry, name string, h handle.Handle) (T, bool) {
	tbl, ok := registry.Lookup[T](reg, name)
	if !ok {
		var zero T
		return zero, false
	}
	return tbl.Clone(h)
}
