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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/runplat/runir"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/resolver"
	"github.com/runplat/runir/schema"
)

var (
	errNoType      = errors.New("resource type is required")
	errTwoLevel1   = errors.New("field and dependency are both level 1")
	errNoLevel1    = errors.New("node requires a field or dependency")
	errUnknownFFI  = errors.New("unknown ffi type")
	errUnknownExt  = errors.New("unknown extension label")
	errBadSpan     = errors.New("span must be [start, end]")
	errDuplicateID = errors.New("duplicate label")
)

// Manifest lists the resources to describe.
type Manifest struct {
	Resources []Entry `yaml:"resources"`
}

// Entry is one representation, from its resource up to an optional host.
type Entry struct {
	Label      string     `yaml:"label"`
	Type       string     `yaml:"type"`
	Size       uint64     `yaml:"size"`
	Parse      string     `yaml:"parse"`
	FFI        string     `yaml:"ffi"`
	Field      *FieldSpec `yaml:"field"`
	Dependency string     `yaml:"dependency"`
	Node       *NodeSpec  `yaml:"node"`
	Host       *HostSpec  `yaml:"host"`
}

// FieldSpec is the field level of an entry.
type FieldSpec struct {
	Owner     string `yaml:"owner"`
	OwnerSize uint64 `yaml:"owner_size"`
	Name      string `yaml:"name"`
	Offset    uint64 `yaml:"offset"`
}

// NodeSpec is the node level of an entry.
type NodeSpec struct {
	Symbol      *string           `yaml:"symbol"`
	Input       *string           `yaml:"input"`
	Tag         *string           `yaml:"tag"`
	Path        *string           `yaml:"path"`
	Index       *uint64           `yaml:"index"`
	Block       *uint64           `yaml:"block"`
	Source      *string           `yaml:"source"`
	Docs        []string          `yaml:"docs"`
	Annotations map[string]string `yaml:"annotations"`
	Span        []uint64          `yaml:"span"`
	Relative    *string           `yaml:"relative"`
}

// HostSpec is the host level of an entry. Extensions name the labels of
// other entries.
type HostSpec struct {
	Address    string   `yaml:"address"`
	Extensions []string `yaml:"extensions"`
}

// Built pairs an entry with its linked representation.
type Built struct {
	Entry Entry
	Repr  linker.Repr
}

// loadManifest reads and decodes a manifest file.
func loadManifest(path string) (Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	return parseManifest(b)
}

func parseManifest(b []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	seen := map[string]bool{}
	for i, e := range m.Resources {
		if e.Label == "" {
			continue
		}
		if seen[e.Label] {
			return Manifest{}, fmt.Errorf("resource %d: %w: %s", i, errDuplicateID, e.Label)
		}
		seen[e.Label] = true
	}
	return m, nil
}

// Build links every entry. Entries without host extensions are linked
// concurrently on one entropy runtime; the rest follow in order so their
// extensions can refer to any earlier label.
func (m Manifest) Build(ctx context.Context, workers int) ([]Built, error) {
	out := make([]Built, len(m.Resources))
	rt := entropy.NewRuntime(ctx, workers)
	var deferred []int
	for i, e := range m.Resources {
		if e.Host != nil && len(e.Host.Extensions) > 0 {
			deferred = append(deferred, i)
			continue
		}
		rt.Go(func(ctx context.Context, s entropy.Scope) error {
			r, err := buildEntry(ctx, s, e, nil)
			if err != nil {
				return fmt.Errorf("resource %d (%s): %w", i, e.Type, err)
			}
			out[i] = Built{Entry: e, Repr: r}
			return nil
		})
	}
	if err := rt.Wait(); err != nil {
		return nil, err
	}

	labels := map[string]linker.Repr{}
	for _, b := range out {
		if b.Entry.Label != "" && !b.Repr.IsZero() {
			labels[b.Entry.Label] = b.Repr
		}
	}
	for _, i := range deferred {
		e := m.Resources[i]
		r, err := buildEntry(ctx, rt.Scope(), e, labels)
		if err != nil {
			return nil, fmt.Errorf("resource %d (%s): %w", i, e.Type, err)
		}
		out[i] = Built{Entry: e, Repr: r}
		if e.Label != "" {
			labels[e.Label] = r
		}
	}
	return out, nil
}

func buildEntry(ctx context.Context, s entropy.Scope, e Entry, labels map[string]linker.Repr) (linker.Repr, error) {
	if err := ctx.Err(); err != nil {
		return linker.Repr{}, err
	}
	levels, err := e.levels(labels)
	if err != nil {
		return linker.Repr{}, err
	}
	l, err := runir.NewLinker(s)
	if err != nil {
		return linker.Repr{}, err
	}
	for _, lvl := range levels {
		if err := l.PushLevel(lvl); err != nil {
			return linker.Repr{}, err
		}
	}
	r, err := l.Link()
	if err != nil {
		return linker.Repr{}, err
	}
	if e.Label != "" {
		if err := resolver.SetLabel(runir.Registry(), r, e.Label); err != nil {
			return linker.Repr{}, err
		}
	}
	return r, nil
}

// levels converts e into its linker levels, root first.
func (e Entry) levels(labels map[string]linker.Repr) ([]linker.Level, error) {
	if e.Type == "" {
		return nil, errNoType
	}
	res := schema.NewNamedResource(e.Type, e.Size)
	if e.Parse != "" {
		res.SetParseTypeName(e.Parse)
	}
	if e.FFI != "" {
		f, ok := schema.FFIByName(e.FFI)
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownFFI, e.FFI)
		}
		res.SetFFI(f)
	}
	levels := []linker.Level{res}

	switch {
	case e.Field != nil && e.Dependency != "":
		return nil, errTwoLevel1
	case e.Field != nil:
		f := e.Field
		levels = append(levels, schema.NewNamedField(f.Owner, f.OwnerSize, f.Offset, f.Name))
	case e.Dependency != "":
		levels = append(levels, schema.NewDependency(e.Dependency))
	}

	node := e.Node
	if node == nil && e.Host != nil {
		node = &NodeSpec{}
	}
	if node != nil {
		if len(levels) < 2 {
			return nil, errNoLevel1
		}
		n, err := node.level()
		if err != nil {
			return nil, err
		}
		levels = append(levels, n)
	}

	if e.Host != nil {
		h := schema.NewHost(e.Host.Address)
		if len(e.Host.Extensions) > 0 {
			ext := make([]linker.Repr, 0, len(e.Host.Extensions))
			for _, label := range e.Host.Extensions {
				r, ok := labels[label]
				if !ok {
					return nil, fmt.Errorf("%w: %s", errUnknownExt, label)
				}
				ext = append(ext, r)
			}
			h.WithExtensions(ext...)
		}
		levels = append(levels, h)
	}
	return levels, nil
}

func (n *NodeSpec) level() (*schema.NodeLevel, error) {
	l := schema.NewNode()
	if n.Symbol != nil {
		l.WithSymbol(*n.Symbol)
	}
	if n.Input != nil {
		l.WithInput(*n.Input)
	}
	if n.Tag != nil {
		l.WithTag(*n.Tag)
	}
	if n.Path != nil {
		l.WithPath(*n.Path)
	}
	if n.Index != nil {
		l.WithIndex(*n.Index)
	}
	if n.Block != nil {
		l.WithBlock(*n.Block)
	}
	if n.Source != nil {
		l.WithSource(*n.Source)
	}
	if n.Docs != nil {
		l.WithDocHeaders(n.Docs...)
	}
	if n.Annotations != nil {
		l.WithAnnotations(n.Annotations)
	}
	if n.Span != nil {
		if len(n.Span) != 2 || n.Span[1] < n.Span[0] {
			return nil, errBadSpan
		}
		l.WithSourceSpan(n.Span[0], n.Span[1])
	}
	if n.Relative != nil {
		l.WithSourceRelative(*n.Relative)
	}
	return l, nil
}

// described is the YAML form of a built entry.
type described struct {
	Label  string   `yaml:"label,omitempty"`
	Name   string   `yaml:"name"`
	UUID   string   `yaml:"uuid"`
	Levels []string `yaml:"levels"`
}

func describe(reg *registry.Registry, res resolver.Resolver, b Built) described {
	d := described{
		Label: b.Entry.Label,
		Name:  res.Resolve(reg, b.Repr),
		UUID:  b.Repr.UUID().String(),
	}
	for _, h := range b.Repr.Levels(reg) {
		d.Levels = append(d.Levels, h.LevelFlags().String()+" "+h.UUID().String())
	}
	return d
}
