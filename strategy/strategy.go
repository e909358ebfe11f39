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

// Package strategy holds the checksum digests interners can be configured
// with and a process-wide lookup from configuration names to constructors.
package strategy

import (
	"errors"
	"fmt"
	"sync"

	"github.com/runplat/runir/apis"
)

const (
	// CRC24 names the CRC-24/OpenPGP digest.
	CRC24 = "crc24"
	// XXHash names the folded xxhash64 digest.
	XXHash = "xxhash"
)

var (
	// ErrEmptyName is returned when registering a digest without a name.
	ErrEmptyName = errors.New("runir(strategy): empty digest name")
	// ErrNilFactory is returned when registering a nil constructor.
	ErrNilFactory = errors.New("runir(strategy): nil digest factory")
	// ErrConflictingRegistration indicates an attempt to re-register a name.
	ErrConflictingRegistration = errors.New("runir(strategy): conflicting digest registration")
	// ErrUnknownDigest is returned by Resolve for names nobody registered.
	ErrUnknownDigest = errors.New("runir(strategy): unknown digest")
)

var (
	// mu serializes writers to digests.
	mu sync.Mutex
	// digests maps a name to its apis.DigestFactory.
	digests sync.Map
)

func init() {
	digests.Store(CRC24, apis.DigestFactory(NewCRC24))
	digests.Store(XXHash, apis.DigestFactory(NewXXHash))
}

// Register makes a digest available under name.
// Registering the same name twice fails; built-ins cannot be replaced.
func Register(name string, ctor apis.DigestFactory) error {
	if name == "" {
		return ErrEmptyName
	}
	if ctor == nil {
		return ErrNilFactory
	}

	// Fast read path.
	if _, ok := digests.Load(name); ok {
		return ErrConflictingRegistration
	}

	mu.Lock()
	defer mu.Unlock()

	// Re-check under lock in case another goroutine stored meanwhile.
	if _, ok := digests.Load(name); ok {
		return ErrConflictingRegistration
	}
	digests.Store(name, ctor)
	return nil
}

// Lookup returns the constructor registered under name.
func Lookup(name string) (apis.DigestFactory, bool) {
	v, ok := digests.Load(name)
	if !ok {
		return nil, false
	}
	return v.(apis.DigestFactory), true
}

// Resolve is Lookup with an error. An empty name resolves to CRC24.
func Resolve(name string) (apis.DigestFactory, error) {
	if name == "" {
		name = CRC24
	}
	if f, ok := Lookup(name); ok {
		return f, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDigest, name)
}

// Names returns the registered digest names (order is unspecified).
func Names() []string {
	var out []string
	digests.Range(func(k, _ any) bool {
		out = append(out, k.(string))
		return true
	})
	return out
}
