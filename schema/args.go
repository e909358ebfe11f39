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
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/pflag"

	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
)

// ErrNoParser is returned when a flag is set on an argument without a parser.
var ErrNoParser = errors.New("runir(schema): argument has no value parser")

// Arg is everything needed to expose a field representation as a
// command-line argument.
type Arg struct {
	Name    string
	Help    string
	FFIType string
	Parser  Parser
}

// FieldHelp returns the first doc header of the node level of r.
func FieldHelp(reg *registry.Registry, r linker.Repr) (string, bool) {
	node, ok := AsNode(reg, r)
	if !ok {
		return "", false
	}
	docs, ok := node.DocHeaders()
	if !ok || len(docs) == 0 {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(docs[0], "# --")), true
}

// SplitForArg collects the field name, help, FFI type and parser of r.
// Help is optional; the rest must be present.
func SplitForArg(reg *registry.Registry, r linker.Repr) (Arg, bool) {
	res, ok := AsResource(reg, r)
	if !ok {
		return Arg{}, false
	}
	field, ok := AsField(reg, r)
	if !ok {
		return Arg{}, false
	}
	name, ok := field.Name()
	if !ok {
		return Arg{}, false
	}
	ffi, ok := res.FFITypeName()
	if !ok {
		return Arg{}, false
	}
	parser, ok := res.FFIValueParser()
	if !ok {
		return Arg{}, false
	}
	help, _ := FieldHelp(reg, r)
	return Arg{Name: name, Help: help, FFIType: ffi, Parser: parser}, true
}

// FlagValue adapts an Arg to pflag.Value. The parsed value is kept as the
// parser returned it.
type FlagValue struct {
	arg   Arg
	raw   string
	value any
	set   bool
}

var _ pflag.Value = (*FlagValue)(nil)

// NewFlagValue returns an unset flag value for arg.
func NewFlagValue(arg Arg) *FlagValue {
	return &FlagValue{arg: arg}
}

// String implements pflag.Value.
func (v *FlagValue) String() string { return v.raw }

// Type implements pflag.Value.
func (v *FlagValue) Type() string { return v.arg.FFIType }

// Set implements pflag.Value.
func (v *FlagValue) Set(s string) error {
	if v.arg.Parser == nil {
		return fmt.Errorf("%w: %s", ErrNoParser, v.arg.Name)
	}
	val, err := v.arg.Parser(s)
	if err != nil {
		return fmt.Errorf("parse %s: %w", v.arg.Name, err)
	}
	v.raw, v.value, v.set = s, val, true
	return nil
}

// Value returns the parsed value and whether Set succeeded.
func (v *FlagValue) Value() (any, bool) { return v.value, v.set }

// AddFlag registers arg on fs under its kebab-case name.
func AddFlag(fs *pflag.FlagSet, arg Arg) *FlagValue {
	v := NewFlagValue(arg)
	fs.Var(v, FlagName(arg.Name), arg.Help)
	return v
}

// FlagName converts a field name such as MaxRetries to max-retries.
func FlagName(name string) string {
	var b strings.Builder
	rs := []rune(name)
	for i, r := range rs {
		if r == '_' {
			b.WriteByte('-')
			continue
		}
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1]))) && rs[i-1] != '_' {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
