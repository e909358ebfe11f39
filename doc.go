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

// Package runir provides a process-wide intermediate representation for
// resources: a compact, hashable identity for "a resource of some type, used
// as some field, declared by some node, hosted at some address".
//
// A representation (linker.Repr) is a single 128-bit handle. It is the tail
// of a chain of level handles, each of which is a checksum of the attribute
// values pushed for that level. The values themselves live in intern tables
// keyed by the level handle, so passing a Repr around is as cheap as passing
// an integer, while every attribute stays one lookup away.
//
// # Design
//
// The core of runir is a read-mostly global snapshot (state). The snapshot
// holds four things:
//
//   - Config: the digest strategy, the entity counter start, snapshot
//     settings and the like.
//
//   - Registry: the named intern tables, the chain store that links level
//     handles and the entity counter. A registry is an explicit value; the
//     global one is only a convenience.
//
//   - Resolver: turns a Repr into a human-readable name. It tries, in
//     order, an explicit label, the schema attributes (host address, node
//     symbol, field name), the resource type name and finally the uuid.
//
//   - Builder: a pluggable factory that constructs Registry, Interner and
//     Resolver instances for a given Config. Rebuilding a registry migrates
//     every table of the previous one, so representations stay valid.
//
// All of these live inside a single immutable struct called state.
// The package holds an atomic pointer to the current state. Readers load
// that pointer, use it, and never mutate it. Writers build a brand-new
// state and atomically swap it in.
//
// This means lookups are lock-free on the hot path:
//
//	l, _ := runir.NewLinker(scope)
//	_ = l.PushLevel(schema.NewResource[MyType]())
//	repr, _ := l.Link()
//	name := runir.Name(repr)
//
// and concurrent callers always see a consistent snapshot.
//
// # Levels
//
// A representation has up to eight levels, root first. The schema package
// defines the ones in use: resource (root), field/dependency/receiver
// (level 1), node (level 2) and host (level 3). Each level is configured
// by pushing tags into an interner and interning once; the linker threads
// the resulting handles into a chain by XOR-ing registers.
//
// # Global API
//
//  1. Read helpers:
//
//     Name(r linker.Repr) string
//     Describe(r linker.Repr) string
//     Registry() *registry.Registry
//     Resolver() resolver.Resolver
//
//  2. Factories:
//
//     NewInterner(scope entropy.Scope) (apis.Interner, error)
//     NewEntityInterner(scope entropy.Scope) (apis.Interner, error)
//     NewLinker(scope entropy.Scope) (*linker.Linker, error)
//
//  3. Mutation helpers:
//
//     SetConfig(cfg apis.Config) error
//     SetLogger(l *zap.Logger) error
//     SetBuilder(b builder.Builder) error
//     SetRegistry(reg *registry.Registry) error
//     SetResolver(res resolver.Resolver)
//     PinRegistry() / UnpinRegistry()
//     PinResolver() / UnpinResolver()
//     SetAll(...)
//
//     Each of these acquires an internal build lock, derives a new
//     snapshot (rebuilding or reusing Registry / Resolver as needed),
//     and then atomically publishes that snapshot. A failed rebuild
//     publishes nothing.
//
// # Pinning
//
// SetRegistry and SetResolver pin the layer they set. A pinned layer is
// not rebuilt by SetConfig, SetLogger or SetBuilder until it is unpinned.
//
// # Scope
//
// Entropy scopes make payload bits meaningful only inside the runtime that
// produced them. The scope is passed explicitly to interners; see package
// entropy for a worker group that shares one scope.
package runir
