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

package reflect

import (
	"reflect"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// typeNameCache caches TypeName results by reflect.Type.
var typeNameCache sync.Map // key: reflect.Type, val: string

// TypeName returns the fully qualified name of t: "import/path.Name" for
// named types with a package, t.String() otherwise. Nil yields "".
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if v, ok := typeNameCache.Load(t); ok {
		return v.(string)
	}
	name := t.String()
	if p := t.PkgPath(); p != "" && t.Name() != "" {
		name = p + "." + t.Name()
	}
	typeNameCache.Store(t, name)
	return name
}

// ShortName turns a TypeName into "pkg.Type": the import path is cut to its
// last element and generic parameters are stripped. Names of unnamed
// composite types are returned unchanged.
func ShortName(name string) string {
	base := name
	if i := strings.IndexByte(base, '['); i > 0 && strings.LastIndexByte(base[:i], '.') > 0 {
		base = stripTypeParams(base)
	}
	if strings.ContainsAny(base, "[]*( ") {
		return name
	}
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	return base
}

// TypeID returns a stable 64-bit identity for t derived from TypeName.
func TypeID(t reflect.Type) uint64 {
	return xxhash.Sum64String(TypeName(t))
}

// TypeSize returns the in-memory size of t, 0 for nil.
func TypeSize(t reflect.Type) uint64 {
	if t == nil {
		return 0
	}
	return uint64(t.Size())
}

// stripTypeParams removes generic type instantiation suffix: "T[int,string]" -> "T".
func stripTypeParams(s string) string {
	if i := strings.IndexByte(s, '['); i >= 0 {
		return s[:i]
	}
	return s
}
