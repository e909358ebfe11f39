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

package schema

import (
	"maps"
	"slices"

	"github.com/runplat/runir/linker"
)

// Reprs is a list of representations stored as one attribute.
type Reprs []linker.Repr

// Clone implements table.Cloner.
func (r Reprs) Clone() Reprs { return slices.Clone(r) }

// Lines is a list of text lines stored as one attribute.
type Lines []string

// Clone implements table.Cloner.
func (l Lines) Clone() Lines { return slices.Clone(l) }

// Annotations are free-form key/value notes on a node. Keys are hashed in
// sorted order.
type Annotations map[string]string

// Clone implements table.Cloner.
func (a Annotations) Clone() Annotations { return maps.Clone(a) }

// SourceSpan is the half-open byte range a node was parsed from.
type SourceSpan struct {
	Start uint64 `cbor:"1,keyasint"`
	End   uint64 `cbor:"2,keyasint"`
}

// Len returns the number of bytes in the span.
func (s SourceSpan) Len() uint64 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}
