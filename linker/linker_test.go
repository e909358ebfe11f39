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

package linker_test

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/config"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/interner"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/tag"
)

// named is a level with a single name attribute.
type named struct {
	flags handle.LevelFlags
	name  string
}

func (n named) Configure(reg *registry.Registry, in apis.Interner) (handle.Handle, error) {
	names, err := registry.Define[string](reg, "test.name")
	if err != nil {
		return handle.Zero, err
	}
	tag.Push(in, tag.Shared(names, n.name))
	in.SetLevelFlags(n.flags)
	return in.Intern()
}

func (n named) Mount() string {
	return n.name
}

var _ linker.Mounter[string] = named{}

func setup(t *testing.T) (*registry.Registry, *linker.Linker) {
	t.Helper()
	reg := registry.New(config.DefaultConfig())
	return reg, linker.New(reg, interner.New(reg))
}

func chain(t *testing.T, l *linker.Linker, depth int) linker.Repr {
	t.Helper()
	flags := handle.Root
	for i := 0; i < depth; i++ {
		require.NoError(t, l.PushLevel(named{flags: flags, name: fmt.Sprintf("level-%d", i)}))
		flags = flags.Next()
	}
	r, err := l.Link()
	require.NoError(t, err)
	return r
}

func TestPushLevel_Ordering(t *testing.T) {
	_, l := setup(t)
	require.NoError(t, l.PushLevel(named{flags: handle.Root, name: "resource"}))
	require.NoError(t, l.PushLevel(named{flags: handle.Level1, name: "field"}))

	err := l.PushLevel(named{flags: handle.Level1, name: "field"})
	require.ErrorIs(t, err, linker.ErrExpectedNextLevel)
	assert.Equal(t, 1, l.Level(), "a rejected level is not pushed")

	require.NoError(t, l.PushLevel(named{flags: handle.Level2, name: "node"}))
	require.NoError(t, l.PushLevel(named{flags: handle.Level3, name: "host"}))
	assert.Equal(t, 3, l.Level())
}

func TestPushLevel_ExpectedRoot(t *testing.T) {
	_, l := setup(t)
	err := l.PushLevel(named{flags: handle.Level1, name: "field"})
	require.ErrorIs(t, err, linker.ErrExpectedRoot)
	assert.Equal(t, -1, l.Level())
}

func TestLink_Empty(t *testing.T) {
	_, l := setup(t)
	_, err := l.Link()
	require.ErrorIs(t, err, linker.ErrUnresolved)
}

func TestLink_Repeatable(t *testing.T) {
	_, l := setup(t)
	a := chain(t, l, 3)
	b, err := l.Link()
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, handle.Level2, a.Tail.LevelFlags())
}

func TestLevels_RoundTrip(t *testing.T) {
	reg, l := setup(t)
	r := chain(t, l, 2)

	levels := r.Levels(reg)
	require.Equal(t, l.Handles(), levels)

	prev, ok, _ := r.Tail.Unlink()
	require.True(t, ok)
	assert.Equal(t, levels[0].Register(), prev.Register())

	root, ok := r.Level(reg, 0)
	require.True(t, ok)
	assert.True(t, root.IsRoot())
	_, ok = r.Level(reg, 2)
	assert.False(t, ok)

	found, ok := r.Find(reg, handle.Level1)
	require.True(t, ok)
	assert.Equal(t, levels[1], found)
}

func TestLevels_ValuesReachable(t *testing.T) {
	reg, l := setup(t)
	r := chain(t, l, 4)

	names := registry.MustDefine[string](reg, "test.name")
	var got []string
	for _, h := range r.Levels(reg) {
		v, ok := names.Copy(h)
		require.True(t, ok)
		got = append(got, v)
	}
	assert.Equal(t, []string{"level-0", "level-1", "level-2", "level-3"}, got)
}

func TestLevels_UnknownRegistry(t *testing.T) {
	_, l := setup(t)
	r := chain(t, l, 3)

	other := registry.New(config.DefaultConfig())
	levels := r.Levels(other)
	assert.Equal(t, []handle.Handle{r.Tail.Unlinked()}, levels, "the walk stops where the store ends")
}

func TestLevels_EntityChainsKeepTheirPayloads(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	link := func() (linker.Repr, []handle.Handle) {
		l := linker.New(reg, interner.NewEntity(interner.New(reg), reg))
		r := chain(t, l, 2)
		return r, l.Handles()
	}
	first, firstPushed := link()
	second, secondPushed := link()
	require.NotEqual(t, first.Tail, second.Tail)

	assert.Equal(t, firstPushed, first.Levels(reg))
	levels := second.Levels(reg)
	require.Equal(t, secondPushed, levels)

	var ids []uint64
	for _, h := range levels {
		id, ok := reg.Entity(0, h)
		require.True(t, ok)
		ids = append(ids, id)
	}
	assert.Equal(t, []uint64{3, 4}, ids)
}

func TestLevels_StopsOnMismatchedPredecessor(t *testing.T) {
	reg, l := setup(t)
	r := chain(t, l, 2)

	// A foreign entry under the tail must not be followed.
	forged := registry.New(config.DefaultConfig())
	require.NoError(t, forged.Handles().Assign(r.Tail, handle.FromRegister(uint32(handle.Root)<<16|0xbeef)))
	assert.Equal(t, []handle.Handle{r.Tail.Unlinked()}, r.Levels(forged))
	assert.Len(t, r.Levels(reg), 2)
}

func TestDowngrade(t *testing.T) {
	reg, l := setup(t)
	r := chain(t, l, 3)
	full := r.Levels(reg)

	two, err := r.Downgrade(reg, 1)
	require.NoError(t, err)
	assert.Equal(t, full[:2], two.Levels(reg))

	one, err := r.Downgrade(reg, 2)
	require.NoError(t, err)
	assert.Equal(t, full[0], one.Tail)
	assert.Equal(t, full[:1], one.Levels(reg))

	_, err = r.Downgrade(reg, 3)
	require.ErrorIs(t, err, linker.ErrDowngrade)
	_, err = r.Downgrade(reg, -1)
	require.ErrorIs(t, err, linker.ErrDowngrade)
}

func TestDowngradeThenUpgrade(t *testing.T) {
	reg, l := setup(t)
	r := chain(t, l, 3)
	full := r.Levels(reg)

	d, err := r.Downgrade(reg, 1)
	require.NoError(t, err)
	require.NoError(t, d.Upgrade(reg, interner.New(reg), named{flags: handle.Level2, name: "level-2"}))

	got := d.Levels(reg)
	require.Len(t, got, 3)
	assert.Equal(t, full[0], got[0])
	assert.Equal(t, full[1], got[1])
	assert.Equal(t, r, d, "the same attributes rebuild the same tail")
}

func TestUpgrade_OutOfOrderLeavesRepr(t *testing.T) {
	reg, l := setup(t)
	r := chain(t, l, 2)
	before := r

	err := r.Upgrade(reg, interner.New(reg), named{flags: handle.Level3, name: "skip"})
	require.ErrorIs(t, err, linker.ErrExpectedNextLevel)
	assert.Equal(t, before, r)
}

func TestRepr_Encoding(t *testing.T) {
	_, l := setup(t)
	r := chain(t, l, 2)

	back := linker.FromU64(r.AsU64())
	assert.Equal(t, r.Tail.Link, back.Tail.Link)
	assert.Equal(t, r.Tail.Register(), back.Tail.Register())
	assert.Equal(t, r.Tail.UUID(), r.UUID())
	assert.False(t, r.IsZero())
}

func TestRepr_Entity(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	scope := entropy.NewScope()
	in := interner.NewEntity(interner.New(reg, interner.WithScope(scope)), reg)

	seen := map[uint64]bool{}
	for i := 0; i < 10; i++ {
		l := linker.New(reg, in)
		require.NoError(t, l.PushLevel(named{flags: handle.Root, name: "same"}))
		r, err := l.Link()
		require.NoError(t, err)

		id, ok := r.Entity(reg, scope)
		require.True(t, ok)
		require.NotZero(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
}

// TestConcurrentLink links independent chains from many goroutines into one registry.
func TestConcurrentLink(t *testing.T) {
	reg := registry.New(config.DefaultConfig())
	workers := runtime.GOMAXPROCS(0) * 4

	wg := sync.WaitGroup{}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				l := linker.New(reg, interner.New(reg))
				flags := handle.Root
				for d := 0; d < 3; d++ {
					if err := l.PushLevel(named{flags: flags, name: fmt.Sprintf("%d-%d-%d", id%4, i, d)}); err != nil {
						t.Errorf("push: %v", err)
						return
					}
					flags = flags.Next()
				}
				r, err := l.Link()
				if err != nil {
					t.Errorf("link: %v", err)
					return
				}
				if got := len(r.Levels(reg)); got != 3 {
					t.Errorf("levels = %d, want 3", got)
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
