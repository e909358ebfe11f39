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

import (
	"iter"

	"github.com/google/uuid"
)

// Exporter is the type-erased face of an intern table, used for diagnostics
// and snapshot persistence.
type Exporter interface {
	// Name returns the table name, unique within a registry.
	Name() string
	// Len returns the number of entries.
	Len() int
	// Export yields (identity, encoded value) for every live, encodable entry.
	// The sequence is finite and can be ranged over again.
	Export() iter.Seq2[uuid.UUID, []byte]
	// Import decodes data and assigns it to the handle rendered as id.
	Import(id uuid.UUID, data []byte) error
	// Reset clears all entries.
	Reset()
}
