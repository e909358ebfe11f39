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

// Digest is a running checksum over the bytes of pushed tag values.
// Order of writes is significant.
type Digest interface {
	// Write appends p to the checksum.
	Write(p []byte) (int, error)
	// Sum24 returns the current checksum truncated to 24 bits.
	Sum24() uint32
	// Reset clears the checksum so the digest can be reused.
	Reset()
}

// DigestFactory constructs a fresh Digest.
type DigestFactory func() Digest
