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

package strategy

import (
	"github.com/cespare/xxhash/v2"

	"github.com/runplat/runir/apis"
)

// NewXXHash returns a digest backed by xxhash64 whose sum is folded to 24 bits.
func NewXXHash() apis.Digest {
	return &xxDigest{d: xxhash.New()}
}

type xxDigest struct {
	d *xxhash.Digest
}

// Ensure xxDigest implements apis.Digest.
var _ apis.Digest = (*xxDigest)(nil)

func (x *xxDigest) Write(p []byte) (int, error) {
	return x.d.Write(p)
}

// Sum24 xors the three 24-bit lanes of the 64-bit sum together.
func (x *xxDigest) Sum24() uint32 {
	s := x.d.Sum64()
	return uint32((s ^ s>>24 ^ s>>48) & crc24Mask)
}

func (x *xxDigest) Reset() {
	x.d.Reset()
}
