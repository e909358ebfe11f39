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

// Package handle defines the packed identity value shared by every intern
// table and the bit arithmetic used to chain handles into levels.
package handle

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// Handle is a compact, copyable identity for one configured level.
//
// The identity part is (Link, RegisterHi, RegisterLo). RegisterHi carries the
// level flag in its upper byte and checksum bits in its lower byte. Data is a
// caller payload stored XORed with the entropy scope that produced it.
type Handle struct {
	// Link is the XOR back-reference to the previous level, zero if unlinked.
	Link uint32
	// RegisterHi holds the level flag (high byte) and checksum bits (low byte).
	RegisterHi uint16
	// RegisterLo holds checksum bits.
	RegisterLo uint16
	// Data is payload ^ scope.
	Data uint64
}

// Zero is the unlinked sentinel used to start a chain.
var Zero Handle

// FromRegister returns an unlinked handle with the given register.
func FromRegister(r uint32) Handle {
	return Handle{
		RegisterHi: uint16(r >> 16),
		RegisterLo: uint16(r),
	}
}

// FromUUID reads the identity fields back from a 128-bit rendering.
// Only the first eight bytes are significant.
func FromUUID(id uuid.UUID) Handle {
	return Handle{
		Link:       binary.BigEndian.Uint32(id[0:4]),
		RegisterHi: binary.BigEndian.Uint16(id[4:6]),
		RegisterLo: binary.BigEndian.Uint16(id[6:8]),
	}
}

// FromU64 is the inverse of AsU64. The payload is left zero.
func FromU64(v uint64) Handle {
	var id uuid.UUID
	binary.BigEndian.PutUint64(id[0:8], v)
	return FromUUID(id)
}

// Register packs (RegisterLo, RegisterHi) into the 32-bit quantity used for linking.
func (h Handle) Register() uint32 {
	return uint32(h.RegisterHi)<<16 | uint32(h.RegisterLo)
}

// LevelFlags returns the level flag stamped on h.
func (h Handle) LevelFlags() LevelFlags {
	return LevelFlags(h.RegisterHi) & levelMask
}

// IsRoot reports whether h is a root level handle.
func (h Handle) IsRoot() bool {
	return h.LevelFlags() == Root
}

// IsNode reports whether h carries a link to another level.
func (h Handle) IsNode() bool {
	return h.Link != 0
}

// IsZero reports whether h is the zero sentinel.
func (h Handle) IsZero() bool {
	return h == Zero
}

// Payload returns the caller payload for the given entropy scope.
func (h Handle) Payload(scope uint64) uint64 {
	return h.Data ^ scope
}

// WithPayload returns a copy of h whose payload is p under scope.
func (h Handle) WithPayload(p, scope uint64) Handle {
	h.Data = p ^ scope
	return h
}

// Unlinked returns h with the link cleared.
func (h Handle) Unlinked() Handle {
	h.Link = 0
	return h
}

// Unlink splits h into the register of the previous level and the current,
// unlinked handle. ok is false when the recovered register does not sit
// exactly one level below h, which is how a chain's root terminates.
func (h Handle) Unlink() (prev Handle, ok bool, current Handle) {
	prev = FromRegister(h.Link ^ h.Register())
	current = h.Unlinked()

	pl := prev.LevelFlags()
	if pl == 0 || pl.Next() != h.LevelFlags() {
		return Zero, false, current
	}
	return prev, true, current
}

// LinkTo returns to with its link set relative to from.
func LinkTo(from, to Handle) Handle {
	to.Link = from.Register() ^ to.Register()
	return to
}

// AsU64 returns the identity triple as one integer. The payload is excluded.
func (h Handle) AsU64() uint64 {
	id := h.UUID()
	return binary.BigEndian.Uint64(id[0:8])
}

// UUID renders the identity triple as a 128-bit value.
// The trailing eight bytes are always zero.
func (h Handle) UUID() uuid.UUID {
	var id uuid.UUID
	binary.BigEndian.PutUint32(id[0:4], h.Link)
	binary.BigEndian.PutUint16(id[4:6], h.RegisterHi)
	binary.BigEndian.PutUint16(id[6:8], h.RegisterLo)
	return id
}

// Wire renders the identity triple followed by the raw Data field, so that
// FromWire restores h exactly. Snapshots use it as the entry key.
func (h Handle) Wire() uuid.UUID {
	id := h.UUID()
	binary.BigEndian.PutUint64(id[8:16], h.Data)
	return id
}

// FromWire is the inverse of Wire.
func FromWire(id uuid.UUID) Handle {
	h := FromUUID(id)
	h.Data = binary.BigEndian.Uint64(id[8:16])
	return h
}

// String implements fmt.Stringer.
func (h Handle) String() string {
	return fmt.Sprintf("%s{link:%08x register:%08x data:%016x}", h.LevelFlags(), h.Link, h.Register(), h.Data)
}

// Compare orders handles lexicographically over (Link, RegisterHi, RegisterLo, Data).
func Compare(a, b Handle) int {
	switch {
	case a.Link != b.Link:
		return cmp(a.Link, b.Link)
	case a.RegisterHi != b.RegisterHi:
		return cmp(a.RegisterHi, b.RegisterHi)
	case a.RegisterLo != b.RegisterLo:
		return cmp(a.RegisterLo, b.RegisterLo)
	default:
		return cmp(a.Data, b.Data)
	}
}

func cmp[T uint16 | uint32 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
