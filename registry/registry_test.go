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

package registry_test

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runplat/runir/config"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/registry"
)

func root(n uint16) handle.Handle {
	return handle.Handle{RegisterHi: uint16(handle.Root), RegisterLo: n}
}

func TestNew_BuiltinTables(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	require.NotNil(t, reg.Handles())
	require.NotNil(t, reg.Entities())
	assert.Equal(t, 2, reg.Count())

	var names []string
	for _, tbl := range reg.Tables() {
		names = append(names, tbl.Name())
	}
	assert.Equal(t, []string{registry.EntitiesTable, registry.HandlesTable}, names)
}

func TestDefine_OneTablePerName(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	a, err := registry.Define[string](reg, "test.name")
	require.NoError(t, err)
	b, err := registry.Define[string](reg, "test.name")
	require.NoError(t, err)
	assert.Same(t, a, b)

	_, err = registry.Define[int](reg, "test.name")
	require.ErrorIs(t, err, registry.ErrConflictingRegistration)

	_, err = registry.Define[int](reg, "")
	require.ErrorIs(t, err, registry.ErrEmptyName)

	assert.Panics(t, func() { registry.MustDefine[int](reg, "test.name") })
}

func TestLookup(t *testing.T) {
	reg := registry.New(config.DefaultConfig())

	_, ok := registry.Lookup[string](reg, "test.name")
	assert.False(t, ok)
	assert.Equal(t, 2, reg.Count(), "lookup never defines")

	tbl := registry.MustDefine[string](reg, "test.name")
	got, ok := registry.Lookup[string](reg, "test.name")
	require.True(t, ok)
	assert.Same(t, tbl, got)

	_, ok = registry.Lookup[int](reg, "test.name")
	assert.False(t, ok)
}

func TestRegistries_AreIndependent(t *testing.T) {
	r1 := registry.New(config.DefaultConfig())
	r2 := registry.New(config.DefaultConfig())

	t1 := registry.MustDefine[string](r1, "test.name")
	t2 := registry.MustDefine[string](r2, "test.name")
	require.NoError(t, t1.Assign(root(1), "one"))

	_, ok := t2.Copy(root(1))
	assert.False(t, ok)
}

func TestNextEntity_NeverZero(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	seen := map[uint64]bool{}
	for i := 0; i < 100; i++ {
		id := reg.NextEntity()
		require.NotZero(t, id)
		require.False(t, seen[id], "duplicate entity %d", id)
		seen[id] = true
	}

	reg2 := registry.New(config.NewConfig(config.WithEntityStart(41)))
	assert.Equal(t, uint64(42), reg2.NextEntity())
}

func TestEntity_ScopeAndTable(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	scope := entropy.Scope(0x1234)

	id := reg.NextEntity()
	h := root(7).WithPayload(id, uint64(scope))
	require.NoError(t, reg.Entities().Assign(h, id))

	got, ok := reg.Entity(scope, h)
	require.True(t, ok)
	assert.Equal(t, id, got)

	linked := handle.LinkTo(handle.Zero, h)
	got, ok = reg.Entity(scope, linked)
	require.True(t, ok, "entity lookup ignores the link")
	assert.Equal(t, id, got)

	_, ok = reg.Entity(entropy.Scope(0x9999), h)
	assert.False(t, ok, "a different scope sees a different payload")

	_, ok = reg.Entity(scope, root(8))
	assert.False(t, ok)
}

func TestReset_KeepsDefinitions(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	tbl := registry.MustDefine[string](reg, "test.name")
	require.NoError(t, tbl.Assign(root(1), "one"))
	reg.NextEntity()

	reg.Reset()

	assert.Zero(t, tbl.Len())
	assert.Equal(t, 3, reg.Count())
	assert.Equal(t, uint64(1), reg.NextEntity())
	again := registry.MustDefine[string](reg, "test.name")
	assert.Same(t, tbl, again)
}

func TestMigrate(t *testing.T) {
	prev := registry.New(config.DefaultConfig())
	require.NoError(t, registry.MustDefine[[]string](prev, "test.lines").Assign(root(1), []string{"a", "b"}))
	require.NoError(t, registry.MustDefine[func()](prev, "test.func").Assign(root(1), func() {}))
	for i := 0; i < 5; i++ {
		prev.NextEntity()
	}

	next := registry.New(config.DefaultConfig())
	require.NoError(t, next.Migrate(prev))

	lines, ok := registry.MustDefine[[]string](next, "test.lines").Copy(root(1))
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, lines)

	fn, ok := next.Table("test.func")
	require.True(t, ok, "the table is defined even if its values cannot move")
	assert.Zero(t, fn.Len())

	assert.Equal(t, uint64(6), next.NextEntity())
	assert.NoError(t, next.Migrate(nil))
}

func TestMetrics(t *testing.T) {
	preg := prometheus.NewRegistry()
	reg := registry.New(config.DefaultConfig(), registry.WithMetrics(preg))
	tbl := registry.MustDefine[string](reg, "test.name")

	_ = tbl.Assign(root(1), "one")
	_ = tbl.Assign(root(1), "one")
	tbl.Replace(root(1), "uno")
	_, _ = tbl.Get(root(2))
	reg.NextEntity()

	m := reg.Metrics()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AssignsTotal.WithLabelValues("test.name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SkipsTotal.WithLabelValues("test.name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReplacesTotal.WithLabelValues("test.name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MissesTotal.WithLabelValues("test.name")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntitiesTotal))

	n, err := testutil.GatherAndCount(preg, "runir_intern_assigns_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// TestConcurrentDefineAndAssign verifies that Define and NextEntity are
// race-free and consistent under concurrent use.
func TestConcurrentDefineAndAssign(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	const tables = 10

	wg := sync.WaitGroup{}
	workers := runtime.GOMAXPROCS(0) * 4
	ids := make(chan uint64, workers*100)

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				name := fmt.Sprintf("test.t%d", (i+id)%tables)
				tbl, err := registry.Define[int](reg, name)
				if err != nil {
					t.Errorf("define %s: %v", name, err)
					return
				}
				_ = tbl.Assign(root(uint16(i)), i)
				ids <- reg.NextEntity()
			}
		}(w)
	}
	wg.Wait()
	close(ids)

	if reg.Count() != tables+2 {
		t.Fatalf("count mismatch: got %d want %d", reg.Count(), tables+2)
	}
	seen := map[uint64]bool{}
	for id := range ids {
		if id == 0 || seen[id] {
			t.Fatalf("bad entity id %d", id)
		}
		seen[id] = true
	}
}
