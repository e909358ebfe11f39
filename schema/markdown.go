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
	"fmt"
	"strings"

	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
)

// Markdown renders the attributes of every present level of r as markdown
// tables. Receiver fields and host extensions are rendered after the
// tables, one section each.
func Markdown(reg *registry.Registry, r linker.Repr) string {
	var b strings.Builder
	writeMarkdown(&b, reg, r)
	return b.String()
}

func writeMarkdown(b *strings.Builder, reg *registry.Registry, r linker.Repr) {
	node, hasNode := AsNode(reg, r)
	if hasNode {
		writeNodeDoc(b, node)
	}

	if res, ok := AsResource(reg, r); ok {
		b.WriteString("| **Resource Tags** | |\n")
		b.WriteString("| --- | --- |\n")
		if name, ok := res.TypeName(); ok {
			fmt.Fprintf(b, "| type | `%s` |\n", name)
		}
		if size, ok := res.TypeSize(); ok {
			fmt.Fprintf(b, "| size | %d bytes |\n", size)
		}
		if id, ok := res.TypeID(); ok {
			fmt.Fprintf(b, "| type-id | %#x |\n", id)
		}
		if name, ok := res.ParseTypeName(); ok {
			fmt.Fprintf(b, "| parse-type | `%s` |\n", name)
		}
		if name, ok := res.FFITypeName(); ok {
			fmt.Fprintf(b, "| ffi-type | `%s` |\n", name)
		}
		fmt.Fprintf(b, "| uuid | %s |\n", res.Handle().UUID())
	}

	if f, ok := AsField(reg, r); ok {
		if name, ok := f.Name(); ok {
			b.WriteString("| **Field Tags** | |\n")
			fmt.Fprintf(b, "| field_name | %s |\n", name)
			if off, ok := f.Offset(); ok {
				fmt.Fprintf(b, "| field_offset | %d |\n", off)
			}
			if name, ok := f.OwnerName(); ok {
				fmt.Fprintf(b, "| owner_name | `%s` |\n", name)
			}
			if size, ok := f.OwnerSize(); ok {
				fmt.Fprintf(b, "| owner_size | %d bytes |\n", size)
			}
			if id, ok := f.OwnerID(); ok {
				fmt.Fprintf(b, "| owner_type_id | %#x |\n", id)
			}
			fmt.Fprintf(b, "| uuid | %s |\n", f.Handle().UUID())
		}
	}

	if hasNode {
		if path, ok := node.Path(); ok {
			span, _ := node.SourceSpan()
			rel, _ := node.SourceRelative()
			b.WriteString("| **Node Tags** | |\n")
			fmt.Fprintf(b, "| path | %s |\n", path)
			fmt.Fprintf(b, "| uuid | %s |\n", node.Handle().UUID())
			fmt.Fprintf(b, "| span | %d..%d |\n", span.Start, span.End)
			fmt.Fprintf(b, "| relative | %q |\n", rel)
		}
	}

	host, hasHost := AsHost(reg, r)
	if hasHost {
		if addr, ok := host.Address(); ok {
			b.WriteString("| **Host Tags** | |\n")
			fmt.Fprintf(b, "| addr | %s |\n", addr)
			fmt.Fprintf(b, "| uuid | %s |\n", host.Handle().UUID())
		}
	}

	if recv, ok := AsRecv(reg, r); ok {
		if fields, ok := recv.Fields(); ok {
			b.WriteString("\n")
			for _, f := range fields {
				writeMarkdown(b, reg, f)
			}
		}
	}

	if hasHost {
		if ext, ok := host.Extensions(); ok {
			b.WriteString("\n")
			for _, e := range ext {
				writeMarkdown(b, reg, e)
			}
		}
	}
}

// writeNodeDoc renders the doc headers as a heading and body followed by
// the non-comment source lines in a fenced block.
func writeNodeDoc(b *strings.Builder, node NodeView) {
	if docs, ok := node.DocHeaders(); ok {
		for i, d := range docs {
			d = strings.TrimSpace(strings.TrimPrefix(d, "# --"))
			if i == 0 {
				b.WriteString("# ")
			}
			b.WriteString(d)
			b.WriteString("\n")
		}
	}
	if src, ok := node.Source(); ok {
		b.WriteString("```runmd\n")
		for _, line := range strings.Split(src, "\n") {
			if !strings.HasPrefix(line, "#") {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		b.WriteString("```\n")
	}
}
