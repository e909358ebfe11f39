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

package resolver

import (
	"errors"

	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/table"
)

// LabelsTable holds names assigned explicitly with SetLabel.
const LabelsTable = "resolver.labels"

// ErrEmptyLabel is returned by SetLabel for an empty name.
var ErrEmptyLabel = errors.New("runir(resolver): empty label")

// SetLabel names r explicitly. The first label assigned to a representation
// wins.
func SetLabel(reg *registry.Registry, r linker.Repr, name string) error {
	if name == "" {
		return ErrEmptyLabel
	}
	labels, err := registry.Define[string](reg, LabelsTable)
	if err != nil {
		return err
	}
	return labels.Assign(r.Tail, name)
}

// NewLabelStrategy creates a Strategy that consults the labels table.
func NewLabelStrategy() Strategy {
	return &labelStrategy{}
}

// labelStrategy is a reflection-free lookup of explicitly assigned names.
type labelStrategy struct{}

// Ensure labelStrategy implements Strategy.
var _ Strategy = (*labelStrategy)(nil)

// TryResolve looks up the tail of r in the labels table.
func (*labelStrategy) TryResolve(reg *registry.Registry, r linker.Repr) (string, bool) {
	labels, ok := registry.Lookup[string](reg, LabelsTable)
	if !ok {
		return "", false
	}
	return lookup(labels, r)
}

func lookup(labels *table.Table[string], r linker.Repr) (string, bool) {
	name, ok := labels.Copy(r.Tail)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
