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

package interner_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/runplat/runir/config"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/interner"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/strategy"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(config.DefaultConfig())
}

func TestIntern_KnownRegister(t *testing.T) {
	in := interner.New(newRegistry(t))
	in.PushTag("test", nil)
	in.SetLevelFlags(handle.Root)

	h, err := in.Intern()
	require.NoError(t, err)
	// crc24 over the cbor text string "test" is 0x3e6755.
	assert.Equal(t, handle.Handle{RegisterHi: 0x013e, RegisterLo: 0x6755}, h)
	assert.True(t, h.IsRoot())
	assert.False(t, h.IsNode())
}

func TestIntern_Deterministic(t *testing.T) {
	reg := newRegistry(t)
	build := func() handle.Handle {
		in := interner.New(reg)
		in.PushTag("owner", nil)
		in.PushTag(uint64(16), nil)
		in.SetLevelFlags(handle.Level1)
		h, err := in.Intern()
		require.NoError(t, err)
		return h
	}

	a, b := build(), build()
	assert.Equal(t, a, b)
	assert.Equal(t, handle.Level1, a.LevelFlags())
}

func TestIntern_OrderSensitive(t *testing.T) {
	in := interner.New(newRegistry(t))
	in.PushTag("a", nil)
	in.PushTag("b", nil)
	ab, err := in.Intern()
	require.NoError(t, err)

	in.PushTag("b", nil)
	in.PushTag("a", nil)
	ba, err := in.Intern()
	require.NoError(t, err)

	assert.NotEqual(t, ab.Register(), ba.Register())
}

func TestIntern_ResetsState(t *testing.T) {
	in := interner.New(newRegistry(t))
	in.PushTag("x", nil)
	in.SetLevelFlags(handle.Level2)
	in.SetData(5)
	first, err := in.Intern()
	require.NoError(t, err)
	assert.Equal(t, handle.Level2, first.LevelFlags())
	assert.Equal(t, uint64(5), first.Payload(0))

	in.PushTag("x", nil)
	second, err := in.Intern()
	require.NoError(t, err)
	assert.Equal(t, handle.Root, second.LevelFlags(), "level flags are not sticky")
	assert.Zero(t, second.Data, "data is not sticky")
	assert.Equal(t, first.RegisterLo, second.RegisterLo)
}

func TestIntern_ScopedPayload(t *testing.T) {
	reg := newRegistry(t)
	s1, s2 := entropy.Scope(0xaaaa), entropy.Scope(0x5555)

	a := interner.New(reg, interner.WithScope(s1))
	a.SetData(9)
	ha, err := a.Intern()
	require.NoError(t, err)

	b := interner.New(reg, interner.WithScope(s2))
	b.SetData(9)
	hb, err := b.Intern()
	require.NoError(t, err)

	assert.Equal(t, ha.Register(), hb.Register())
	assert.Equal(t, uint64(9), ha.Payload(uint64(s1)))
	assert.Equal(t, uint64(9), hb.Payload(uint64(s2)))
	assert.NotEqual(t, ha.Data, hb.Data)
}

func TestIntern_DigestSelection(t *testing.T) {
	crc := interner.New(newRegistry(t))
	xx := interner.New(registry.New(config.NewConfig(config.WithDigest(strategy.XXHash))))
	override := interner.New(newRegistry(t), interner.WithDigest(strategy.NewXXHash))

	var got []handle.Handle
	for _, in := range []*interner.Interner{crc, xx, override} {
		in.PushTag("same", nil)
		h, err := in.Intern()
		require.NoError(t, err)
		got = append(got, h)
	}
	assert.NotEqual(t, got[0], got[1])
	assert.Equal(t, got[1], got[2])
}

func TestIntern_UnknownDigestFallsBack(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := registry.New(config.NewConfig(config.WithDigest("md5")), registry.WithLogger(zap.New(core)))
	in := interner.New(reg)
	in.PushTag("test", nil)
	h, err := in.Intern()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x6755), h.RegisterLo)
	assert.Equal(t, 1, logs.Len())
}

func TestIntern_AssignmentsRunInOrder(t *testing.T) {
	in := interner.New(newRegistry(t))
	var order []string
	var seen handle.Handle
	in.PushTag("a", func(h handle.Handle) error { order = append(order, "a"); seen = h; return nil })
	in.Defer(func(handle.Handle) error { order = append(order, "deferred"); return nil })
	in.PushTag("b", func(handle.Handle) error { order = append(order, "b"); return nil })

	h, err := in.Intern()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "deferred", "b"}, order)
	assert.Equal(t, h, seen)
}

func TestIntern_DeferDoesNotHash(t *testing.T) {
	in := interner.New(newRegistry(t))
	in.PushTag("test", nil)
	plain, err := in.Intern()
	require.NoError(t, err)

	in.PushTag("test", nil)
	in.Defer(func(handle.Handle) error { return nil })
	deferred, err := in.Intern()
	require.NoError(t, err)

	assert.Equal(t, plain, deferred)
}

func TestIntern_FirstFailureAborts(t *testing.T) {
	reg := newRegistry(t)
	names := registry.MustDefine[string](reg, "test.name")
	boom := errors.New("boom")
	ran := false

	in := interner.New(reg)
	in.PushTag("first", func(h handle.Handle) error { return names.Assign(h, "first") })
	in.PushTag("second", func(handle.Handle) error { return boom })
	in.PushTag("third", func(handle.Handle) error { ran = true; return nil })

	h, err := in.Intern()
	require.ErrorIs(t, err, interner.ErrAssign)
	require.ErrorIs(t, err, boom)
	assert.True(t, h.IsZero())
	assert.False(t, ran, "assignments after the failure do not run")
	assert.Equal(t, 1, names.Len(), "assignments before the failure are kept")
}

func TestIntern_EncodeError(t *testing.T) {
	in := interner.New(newRegistry(t))
	in.PushTag(func() {}, nil)
	_, err := in.Intern()
	require.ErrorIs(t, err, interner.ErrEncode)

	in.PushTag("ok", nil)
	_, err = in.Intern()
	require.NoError(t, err, "the error is consumed by the failed Intern")
}

func TestIntern_InvalidLevel(t *testing.T) {
	in := interner.New(newRegistry(t))
	in.SetLevelFlags(handle.Root | handle.Level1)
	_, err := in.Intern()
	require.ErrorIs(t, err, interner.ErrLevelFlags)
}

func TestEntity_UniqueNonZero(t *testing.T) {
	reg := newRegistry(t)
	scope := entropy.NewScope()
	in := interner.NewEntity(interner.New(reg, interner.WithScope(scope)), reg)

	const n = 50
	seen := map[uint64]bool{}
	var prev handle.Handle
	for i := 0; i < n; i++ {
		in.PushTag("same", nil)
		h, err := in.Intern()
		require.NoError(t, err)
		if i > 0 {
			assert.Equal(t, prev.Register(), h.Register(), "the identity is unchanged")
		}
		prev = h

		id, ok := reg.Entity(scope, h)
		require.True(t, ok)
		require.NotZero(t, id)
		require.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestEntity_IgnoresSetData(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	reg := registry.New(config.DefaultConfig(), registry.WithLogger(zap.New(core)))
	in := interner.NewEntity(interner.New(reg), reg)

	in.SetData(1000)
	h, err := in.Intern()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), h.Payload(0))
	assert.Equal(t, 1, logs.FilterMessage("data is managed by the entity interner").Len())
}

func TestEntity_NotAnEntity(t *testing.T) {
	reg := newRegistry(t)
	in := interner.New(reg)
	in.SetData(3)
	h, err := in.Intern()
	require.NoError(t, err)

	_, ok := reg.Entity(0, h)
	assert.False(t, ok)
}
