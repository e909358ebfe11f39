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
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"sync"

	uref "github.com/runplat/runir/utils/reflect"
)

var (
	// ErrEmptyFFIName is returned when registering an FFI without a type name.
	ErrEmptyFFIName = errors.New("runir(schema): empty ffi type name")
	// ErrConflictingFFI indicates an attempt to register a different FFI for a type.
	ErrConflictingFFI = errors.New("runir(schema): conflicting ffi registration")
)

// Parser converts command-line text into a value of the resource type.
type Parser func(string) (any, error)

// FFI describes how a resource type crosses a process boundary: the name
// it is known by and, optionally, how to parse it from text.
type FFI struct {
	TypeName string
	Parser   Parser
}

// Path is a filesystem path resource.
type Path string

// Unit is a resource that only communicates existence.
type Unit struct{}

var (
	// ffiMu serializes writers to ffis.
	ffiMu sync.Mutex
	// ffis maps reflect.Type to FFI.
	ffis sync.Map
)

func init() {
	builtin := func(t reflect.Type, name string, p Parser) {
		ffis.Store(t, FFI{TypeName: name, Parser: p})
	}
	builtin(reflect.TypeFor[Unit](), "unit", nil)
	builtin(reflect.TypeFor[*os.File](), "file", nil)
	builtin(reflect.TypeFor[string](), "string", func(s string) (any, error) { return s, nil })
	builtin(reflect.TypeFor[Path](), "path", func(s string) (any, error) { return Path(filepath.Clean(s)), nil })
	builtin(reflect.TypeFor[bool](), "bool", func(s string) (any, error) { return strconv.ParseBool(s) })
	builtin(reflect.TypeFor[int](), "int", intParser[int](strconv.IntSize))
	builtin(reflect.TypeFor[int8](), "int8", intParser[int8](8))
	builtin(reflect.TypeFor[int16](), "int16", intParser[int16](16))
	builtin(reflect.TypeFor[int32](), "int32", intParser[int32](32))
	builtin(reflect.TypeFor[int64](), "int64", intParser[int64](64))
	builtin(reflect.TypeFor[uint](), "uint", uintParser[uint](strconv.IntSize))
	builtin(reflect.TypeFor[uint8](), "uint8", uintParser[uint8](8))
	builtin(reflect.TypeFor[uint16](), "uint16", uintParser[uint16](16))
	builtin(reflect.TypeFor[uint32](), "uint32", uintParser[uint32](32))
	builtin(reflect.TypeFor[uint64](), "uint64", uintParser[uint64](64))
	builtin(reflect.TypeFor[float32](), "float32", func(s string) (any, error) {
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	})
	builtin(reflect.TypeFor[float64](), "float64", func(s string) (any, error) { return strconv.ParseFloat(s, 64) })
}

func intParser[T int | int8 | int16 | int32 | int64](bits int) Parser {
	return func(s string) (any, error) {
		v, err := strconv.ParseInt(s, 0, bits)
		return T(v), err
	}
}

func uintParser[T uint | uint8 | uint16 | uint32 | uint64](bits int) Parser {
	return func(s string) (any, error) {
		v, err := strconv.ParseUint(s, 0, bits)
		return T(v), err
	}
}

// RegisterFFI associates f with t. Registering the same type twice with a
// different type name fails.
func RegisterFFI(t reflect.Type, f FFI) error {
	if t == nil {
		return uref.ErrReflectNilType
	}
	if f.TypeName == "" {
		return ErrEmptyFFIName
	}

	// Fast read path.
	if old, ok := ffis.Load(t); ok {
		if old.(FFI).TypeName == f.TypeName {
			return nil
		}
		return ErrConflictingFFI
	}

	ffiMu.Lock()
	defer ffiMu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if old, ok := ffis.Load(t); ok {
		if old.(FFI).TypeName == f.TypeName {
			return nil
		}
		return ErrConflictingFFI
	}
	ffis.Store(t, f)
	return nil
}

// FFIFor returns the FFI registered for t, or for the nearest named type
// inside t when t itself is a container.
func FFIFor(t reflect.Type) (FFI, bool) {
	return FFIForDepth(t, 0)
}

// FFIForDepth is FFIFor unwrapping at most maxUnwrap containers. Values <= 0
// use the default depth.
func FFIForDepth(t reflect.Type, maxUnwrap int) (FFI, bool) {
	if t == nil {
		return FFI{}, false
	}
	if v, ok := ffis.Load(t); ok {
		return v.(FFI), true
	}
	nt, err := uref.Normalize(t, maxUnwrap)
	if err != nil {
		return FFI{}, false
	}
	v, ok := ffis.Load(nt)
	if !ok {
		return FFI{}, false
	}
	return v.(FFI), true
}

// FFIOf is FFIFor for a type parameter.
func FFIOf[T any]() (FFI, bool) {
	return FFIFor(reflect.TypeFor[T]())
}

// FFIByName returns a registered FFI by its type name.
func FFIByName(name string) (FFI, bool) {
	var (
		found FFI
		ok    bool
	)
	ffis.Range(func(_, v any) bool {
		if f := v.(FFI); f.TypeName == name {
			found, ok = f, true
			return false
		}
		return true
	})
	return found, ok
}
