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

import "github.com/runplat/runir/apis"

const (
	crc24Init = 0xB704CE
	crc24Poly = 0x1864CFB
	crc24Mask = 0xFFFFFF
)

// crc24Table is the byte-wise lookup table for CRC-24/OpenPGP.
var crc24Table = makeCRC24Table()

func makeCRC24Table() (t [256]uint32) {
	for i := range t {
		c := uint32(i) << 16
		for range 8 {
			c <<= 1
			if c&0x1000000 != 0 {
				c ^= crc24Poly
			}
		}
		t[i] = c & crc24Mask
	}
	return t
}

// NewCRC24 returns a CRC-24/OpenPGP digest (RFC 4880 section 6.1).
// Input and output are not reflected and there is no final xor.
func NewCRC24() apis.Digest {
	return &crc24{sum: crc24Init}
}

// crc24 keeps the running register in the low 24 bits.
type crc24 struct {
	sum uint32
}

// Ensure crc24 implements apis.Digest.
var _ apis.Digest = (*crc24)(nil)

// Write folds p into the register. It never fails.
func (d *crc24) Write(p []byte) (int, error) {
	s := d.sum
	for _, b := range p {
		s = (s<<8 ^ crc24Table[byte(s>>16)^b]) & crc24Mask
	}
	d.sum = s
	return len(p), nil
}

// Sum24 returns the register.
func (d *crc24) Sum24() uint32 {
	return d.sum
}

// Reset restores the initial register.
func (d *crc24) Reset() {
	d.sum = crc24Init
}
