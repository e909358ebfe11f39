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

package handle

import (
	"fmt"
	"math/bits"
)

// LevelFlags is a one-hot level marker occupying the high byte of RegisterHi.
type LevelFlags uint16

const (
	// Root is the lowest level of a chain.
	Root LevelFlags = 0x0100 << iota
	// Level1 follows Root.
	Level1
	// Level2 follows Level1.
	Level2
	// Level3 follows Level2.
	Level3
	// Level4 follows Level3.
	Level4
	// Level5 follows Level4.
	Level5
	// Level6 follows Level5.
	Level6
	// Level7 is the last level.
	Level7
)

// MaxLevels is the total hierarchy depth.
const MaxLevels = 8

const levelMask LevelFlags = 0xFF00

// Valid reports whether f is exactly one known level.
func (f LevelFlags) Valid() bool {
	return f != 0 && f&levelMask == f && bits.OnesCount16(uint16(f)) == 1
}

// Index returns 0 for Root through 7 for Level7, or -1 when f is not valid.
func (f LevelFlags) Index() int {
	if !f.Valid() {
		return -1
	}
	return bits.TrailingZeros16(uint16(f)) - 8
}

// Next returns the level that must follow f. Level7 has no successor.
func (f LevelFlags) Next() LevelFlags {
	return f << 1
}

// Prev returns the level that must precede f. Root has no predecessor.
func (f LevelFlags) Prev() LevelFlags {
	return (f >> 1) & levelMask
}

// String implements fmt.Stringer.
func (f LevelFlags) String() string {
	switch f {
	case 0:
		return "NONE"
	case Root:
		return "ROOT"
	}
	if i := f.Index(); i > 0 {
		return fmt.Sprintf("LEVEL_%d", i)
	}
	return fmt.Sprintf("LevelFlags(%#04x)", uint16(f))
}
