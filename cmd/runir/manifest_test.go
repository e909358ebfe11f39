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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runplat/runir"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/schema"
)

const testManifest = `
resources:
  - label: retries
    type: example.Config
    size: 8
    ffi: int
    field:
      owner: example.Config
      owner_size: 24
      name: MaxRetries
      offset: 8
    node:
      symbol: retries
      docs: ["# -- How many times to retry"]
      span: [4, 12]
  - label: cache
    type: example.Cache
    size: 16
    dependency: redis
  - label: engine
    type: example.Engine
    size: 32
    dependency: engine
    host:
      address: engine://local
      extensions: [retries, cache]
`

func TestParseManifest(t *testing.T) {
	m, err := parseManifest([]byte(testManifest))
	require.NoError(t, err)
	require.Len(t, m.Resources, 3)

	e := m.Resources[0]
	assert.Equal(t, "retries", e.Label)
	require.NotNil(t, e.Field)
	assert.Equal(t, "MaxRetries", e.Field.Name)
	assert.Equal(t, uint64(8), e.Field.Offset)
	require.NotNil(t, e.Node)
	assert.Equal(t, []uint64{4, 12}, e.Node.Span)
	require.NotNil(t, m.Resources[2].Host)
	assert.Equal(t, []string{"retries", "cache"}, m.Resources[2].Host.Extensions)
}

func TestParseManifest_DuplicateLabel(t *testing.T) {
	_, err := parseManifest([]byte("resources:\n  - {label: a, type: x}\n  - {label: a, type: y}\n"))
	assert.ErrorIs(t, err, errDuplicateID)

	_, err = parseManifest([]byte("resources: ["))
	assert.Error(t, err)
}

func TestEntryLevels_Errors(t *testing.T) {
	bad := []uint64{3}
	cases := []struct {
		name  string
		entry Entry
		want  error
	}{
		{"no type", Entry{}, errNoType},
		{"unknown ffi", Entry{Type: "x", FFI: "nope"}, errUnknownFFI},
		{"two level1", Entry{Type: "x", Field: &FieldSpec{Name: "f"}, Dependency: "d"}, errTwoLevel1},
		{"node without level1", Entry{Type: "x", Node: &NodeSpec{}}, errNoLevel1},
		{"host without level1", Entry{Type: "x", Host: &HostSpec{Address: "a"}}, errNoLevel1},
		{"bad span", Entry{Type: "x", Dependency: "d", Node: &NodeSpec{Span: bad}}, errBadSpan},
		{"unknown extension", Entry{Type: "x", Dependency: "d", Host: &HostSpec{Extensions: []string{"missing"}}}, errUnknownExt},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.entry.levels(map[string]linker.Repr{})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEntryLevels_HostImpliesNode(t *testing.T) {
	levels, err := Entry{Type: "x", Dependency: "d", Host: &HostSpec{Address: "a"}}.levels(nil)
	require.NoError(t, err)
	require.Len(t, levels, 4)
	_, ok := levels[2].(*schema.NodeLevel)
	assert.True(t, ok)
	_, ok = levels[3].(*schema.HostLevel)
	assert.True(t, ok)
}

func TestManifestBuild(t *testing.T) {
	m, err := parseManifest([]byte(testManifest))
	require.NoError(t, err)

	built, err := m.Build(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, built, 3)

	reg := runir.Registry()
	for _, b := range built {
		require.False(t, b.Repr.IsZero(), b.Entry.Label)
		assert.Equal(t, b.Entry.Label, runir.Name(b.Repr))
	}

	f, ok := schema.AsField(reg, built[0].Repr)
	require.True(t, ok)
	name, _ := f.Name()
	assert.Equal(t, "MaxRetries", name)

	d, ok := schema.AsDependency(reg, built[1].Repr)
	require.True(t, ok)
	dep, _ := d.Name()
	assert.Equal(t, "redis", dep)

	host, ok := schema.AsHost(reg, built[2].Repr)
	require.True(t, ok)
	addr, _ := host.Address()
	assert.Equal(t, "engine://local", addr)
	ext, ok := host.Extensions()
	require.True(t, ok)
	require.Len(t, ext, 2)
	assert.Equal(t, built[0].Repr, ext[0])
	assert.Equal(t, built[1].Repr, ext[1])

	again, err := m.Build(context.Background(), 0)
	require.NoError(t, err)
	// The host hashes its extensions including their payloads, so only
	// the scope-free entries are compared.
	for i := range built[:2] {
		assert.Equal(t, built[i].Repr.Tail.Register(), again[i].Repr.Tail.Register())
	}
}

func TestManifestBuild_Canceled(t *testing.T) {
	m, err := parseManifest([]byte(testManifest))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Build(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
