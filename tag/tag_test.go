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

package tag_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/table"
	"github.com/runplat/runir/tag"
)

type lines []string

func (l lines) Clone() lines { return append(lines(nil), l...) }

// recorder is a minimal apis.Interner capturing what tags push.
type recorder struct {
	values  []any
	assigns []apis.AssignFunc
}

func (r *recorder) PushTag(v any, a apis.AssignFunc) {
	r.values = append(r.values, v)
	r.assigns = append(r.assigns, a)
}
func (r *recorder) Defer(a apis.AssignFunc)         { r.assigns = append(r.assigns, a) }
func (r *recorder) SetLevelFlags(handle.LevelFlags) {}
func (r *recorder) SetData(uint64)                  {}
func (r *recorder) Intern() (handle.Handle, error) {
	h := handle.FromRegister(uint32(handle.Root) << 16)
	for _, a := range r.assigns {
		if err := a(h); err != nil {
			return handle.Zero, err
		}
	}
	return h, nil
}

func TestNew_StoresProducedValue(t *testing.T) {
	tbl := table.New[int]("test.int")
	n := 0
	tg := tag.New(tbl, func() int { n++; return 7 })

	assert.Equal(t, 7, tg.Value())
	h := handle.FromRegister(0x0100_0001)
	require.NoError(t, tg.Assign(h))
	got, ok := tbl.Copy(h)
	require.True(t, ok)
	assert.Equal(t, 7, got)
	assert.Same(t, tbl, tg.Table())
}

func TestShared_StoresClone(t *testing.T) {
	tbl := table.New[lines]("test.lines")
	src := lines{"a"}
	tg := tag.Shared(tbl, src)

	h := handle.FromRegister(0x0100_0001)
	require.NoError(t, tg.Assign(h))
	src[0] = "changed"

	got, _ := tbl.Copy(h)
	assert.Equal(t, lines{"a"}, got)
}

func TestPush_PushAs_Defer(t *testing.T) {
	tbl := table.New[string]("test.name")
	in := &recorder{}

	tag.Push(in, tag.New(tbl, func() string { return "value" }))
	tag.PushAs(in, uint64(3), tag.New(tbl, func() string { return "other" }))
	tag.Defer(in, tag.New(tbl, func() string { return "deferred" }))

	assert.Equal(t, []any{"value", uint64(3)}, in.values)
	require.Len(t, in.assigns, 3)

	h, err := in.Intern()
	require.NoError(t, err)
	got, _ := tbl.Copy(h)
	assert.Equal(t, "value", got, "first assignment wins")
}

func TestLink_RootAndNext(t *testing.T) {
	store := table.New[handle.Handle]("test.handles")
	root := handle.Handle{RegisterHi: uint16(handle.Root) | 0x12, RegisterLo: 0x3456}
	l1 := handle.Handle{RegisterHi: uint16(handle.Level1) | 0x78, RegisterLo: 0x9abc, Data: 5}

	lr, err := tag.Link(store, handle.Zero, root)
	require.NoError(t, err)
	assert.Equal(t, root.Register(), lr.Link, "linking against zero stores the register itself")

	ll, err := tag.Link(store, lr, l1)
	require.NoError(t, err)
	assert.Equal(t, lr.Register()^l1.Register(), ll.Link)
	assert.Equal(t, l1.Data, ll.Data)

	stored, ok := store.Copy(ll)
	require.True(t, ok)
	assert.Equal(t, lr, stored, "the linked handle maps onto its predecessor")
	_, ok = store.Copy(lr)
	assert.False(t, ok, "roots have no predecessor")

	prev, ok, cur := ll.Unlink()
	require.True(t, ok)
	assert.Equal(t, root.Register(), prev.Register())
	assert.Equal(t, l1, cur)
}

func TestLink_OutOfOrder(t *testing.T) {
	store := table.New[handle.Handle]("test.handles")
	root := handle.FromRegister(uint32(handle.Root)<<16 | 1)
	l1 := handle.FromRegister(uint32(handle.Level1)<<16 | 2)
	l2 := handle.FromRegister(uint32(handle.Level2)<<16 | 3)

	cases := []struct {
		name     string
		from, to handle.Handle
	}{
		{"zero_to_level1", handle.Zero, l1},
		{"root_to_level2", root, l2},
		{"level1_to_level1", l1, l1},
		{"level2_to_root", l2, root},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tag.Link(store, tc.from, tc.to)
			require.True(t, errors.Is(err, tag.ErrOutOfOrder), "err = %v", err)
		})
	}
	assert.Zero(t, store.Len(), "failed links are not recorded")
}
