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
	"path/filepath"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
)

// NodeLevel records where and how a resource was declared. Every
// attribute is optional.
type NodeLevel struct {
	symbol      *string
	input       *string
	tag         *string
	path        *string
	index       *uint64
	block       *uint64
	source      *string
	docHeaders  Lines
	annotations Annotations
	span        *SourceSpan
	relative    *string
}

// NodeMount is the pending state of a NodeLevel.
type NodeMount struct {
	Symbol      string
	Input       string
	Tag         string
	Path        string
	DocHeaders  Lines
	Annotations Annotations
}

var (
	_ linker.Level              = (*NodeLevel)(nil)
	_ linker.Mounter[NodeMount] = (*NodeLevel)(nil)
)

// NewNode returns an empty node level.
func NewNode() *NodeLevel {
	return &NodeLevel{}
}

func ptr[T any](v T) *T { return &v }

// WithSymbol sets the node symbol.
func (n *NodeLevel) WithSymbol(s string) *NodeLevel {
	n.symbol = ptr(s)
	return n
}

// WithInput sets the node input expression.
func (n *NodeLevel) WithInput(s string) *NodeLevel {
	n.input = ptr(s)
	return n
}

// WithTag sets the node tag.
func (n *NodeLevel) WithTag(s string) *NodeLevel {
	n.tag = ptr(s)
	return n
}

// WithPath sets the node path.
func (n *NodeLevel) WithPath(s string) *NodeLevel {
	n.path = ptr(s)
	return n
}

// WithIndex sets the node index within its block.
func (n *NodeLevel) WithIndex(i uint64) *NodeLevel {
	n.index = ptr(i)
	return n
}

// WithBlock sets the block index. It is stored but does not contribute to
// the node handle, so the same node in two blocks interns once.
func (n *NodeLevel) WithBlock(i uint64) *NodeLevel {
	n.block = ptr(i)
	return n
}

// WithSource sets the source text.
func (n *NodeLevel) WithSource(s string) *NodeLevel {
	n.source = ptr(s)
	return n
}

// WithDocHeaders sets the doc headers.
func (n *NodeLevel) WithDocHeaders(lines ...string) *NodeLevel {
	n.docHeaders = Lines(lines).Clone()
	return n
}

// WithAnnotations sets the annotations.
func (n *NodeLevel) WithAnnotations(a map[string]string) *NodeLevel {
	n.annotations = Annotations(a).Clone()
	return n
}

// WithSourceSpan sets the source span.
func (n *NodeLevel) WithSourceSpan(start, end uint64) *NodeLevel {
	n.span = &SourceSpan{Start: start, End: end}
	return n
}

// WithSourceRelative sets the path of the source relative to its root.
func (n *NodeLevel) WithSourceRelative(rel string) *NodeLevel {
	n.relative = ptr(filepath.ToSlash(filepath.Clean(rel)))
	return n
}

// Configure pushes the present attributes at Level2.
func (n *NodeLevel) Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error) {
	p := newPusher(reg, in)
	pushOpt(p, SymbolTable, n.symbol)
	pushOpt(p, InputTable, n.input)
	pushOpt(p, TagTable, n.tag)
	pushOpt(p, PathTable, n.path)
	pushOpt(p, NodeIndexTable, n.index)
	if n.block != nil {
		record(p, BlockIndexTable, *n.block)
	}
	if n.docHeaders != nil {
		push(p, DocHeadersTable, n.docHeaders)
	}
	pushOpt(p, SourceTable, n.source)
	if n.annotations != nil {
		push(p, AnnotationsTable, n.annotations)
	}
	pushOpt(p, SourceSpanTable, n.span)
	pushOpt(p, SourceRelativeTable, n.relative)
	return p.intern(handle.Level2)
}

func pushOpt[T any](p *pusher, name string, v *T) {
	if v != nil {
		push(p, name, *v)
	}
}

// Mount returns the descriptive attributes.
func (n *NodeLevel) Mount() NodeMount {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return NodeMount{
		Symbol:      deref(n.symbol),
		Input:       deref(n.input),
		Tag:         deref(n.tag),
		Path:        deref(n.path),
		DocHeaders:  n.docHeaders.Clone(),
		Annotations: n.annotations.Clone(),
	}
}

// NodeView reads the node attributes of a representation.
type NodeView struct {
	reg *registry.Registry
	h   handle.Handle
}

// AsNode returns the Level2 handle of r read as a node.
func AsNode(reg *registry.Registry, r linker.Repr) (NodeView, bool) {
	h, ok := r.Find(reg, handle.Level2)
	if !ok {
		return NodeView{}, false
	}
	return NodeView{reg: reg, h: h}, true
}

// Handle returns the level handle.
func (v NodeView) Handle() handle.Handle { return v.h }

// Symbol returns the node symbol.
func (v NodeView) Symbol() (string, bool) { return get[string](v.reg, SymbolTable, v.h) }

// Input returns the node input.
func (v NodeView) Input() (string, bool) { return get[string](v.reg, InputTable, v.h) }

// Tag returns the node tag.
func (v NodeView) Tag() (string, bool) { return get[string](v.reg, TagTable, v.h) }

// Path returns the node path.
func (v NodeView) Path() (string, bool) { return get[string](v.reg, PathTable, v.h) }

// Index returns the node index.
func (v NodeView) Index() (uint64, bool) { return get[uint64](v.reg, NodeIndexTable, v.h) }

// Block returns the block index.
func (v NodeView) Block() (uint64, bool) { return get[uint64](v.reg, BlockIndexTable, v.h) }

// Source returns the node source.
func (v NodeView) Source() (string, bool) { return get[string](v.reg, SourceTable, v.h) }

// DocHeaders returns the node doc headers.
func (v NodeView) DocHeaders() (Lines, bool) { return get[Lines](v.reg, DocHeadersTable, v.h) }

// Annotations returns the node annotations.
func (v NodeView) Annotations() (Annotations, bool) {
	return get[Annotations](v.reg, AnnotationsTable, v.h)
}

// SourceSpan returns the node source span.
func (v NodeView) SourceSpan() (SourceSpan, bool) {
	return get[SourceSpan](v.reg, SourceSpanTable, v.h)
}

// SourceRelative returns the relative source path.
func (v NodeView) SourceRelative() (string, bool) {
	return get[string](v.reg, SourceRelativeTable, v.h)
}
