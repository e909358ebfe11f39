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

package interner

import (
	"go.uber.org/zap"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/registry"
)

// Entity wraps an interner and stamps every handle with the next entity id
// of a registry instead of a caller payload.
type Entity struct {
	inner apis.Interner
	reg   *registry.Registry
}

// Ensure Entity implements apis.Interner.
var _ apis.Interner = (*Entity)(nil)

// NewEntity wraps inner.
func NewEntity(inner apis.Interner, reg *registry.Registry) *Entity {
	return &Entity{inner: inner, reg: reg}
}

// PushTag forwards to the wrapped interner.
func (e *Entity) PushTag(value any, assign apis.AssignFunc) {
	e.inner.PushTag(value, assign)
}

// Defer forwards to the wrapped interner.
func (e *Entity) Defer(assign apis.AssignFunc) {
	e.inner.Defer(assign)
}

// SetLevelFlags forwards to the wrapped interner.
func (e *Entity) SetLevelFlags(flags handle.LevelFlags) {
	e.inner.SetLevelFlags(flags)
}

// SetData is ignored; the payload is always the entity id.
func (e *Entity) SetData(uint64) {
	e.reg.Logger().Warn("data is managed by the entity interner")
}

// Intern stamps the next entity id and records it in the entity table.
// Entity 0 is reserved and never handed out.
func (e *Entity) Intern() (handle.Handle, error) {
	id := e.reg.NextEntity()
	e.inner.SetData(id)
	h, err := e.inner.Intern()
	if err != nil {
		return handle.Zero, err
	}
	if err := e.reg.Entities().Assign(h, id); err != nil {
		return handle.Zero, err
	}
	e.reg.Logger().Debug("assigned entity", zap.Uint64("entity", id), zap.Stringer("handle", h))
	return h, nil
}
