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

package apis

import "github.com/runplat/runir/handle"

// AssignFunc writes a value into its intern table once the handle is known.
type AssignFunc func(h handle.Handle) error

// Interner accumulates the attribute values of one level and emits a handle.
//
// Callers push tags, set the level flag and optionally a payload, then call
// Intern exactly once per level. Intern consumes the pushed state so the same
// interner can configure the next level.
type Interner interface {
	// PushTag feeds value into the checksum and queues assign.
	PushTag(value any, assign AssignFunc)
	// Defer queues assign without contributing to the checksum.
	Defer(assign AssignFunc)
	// SetLevelFlags records the level being configured.
	SetLevelFlags(flags handle.LevelFlags)
	// SetData records the payload stamped on the next handle.
	SetData(data uint64)
	// Intern finishes the handle and runs every queued assignment in order.
	// The first failing assignment aborts the rest; assignments that already
	// ran are not rolled back.
	Intern() (handle.Handle, error)
}
