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

package runir

import (
	"errors"
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/builder"
	"github.com/runplat/runir/config"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/linker"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/resolver"
	"github.com/runplat/runir/schema"
)

// init initializes the global state.
func init() {
	// Initialize state with default cfg, reg, and res.
	s := &state{cfg: config.DefaultConfig(), log: zap.NewNop()}
	b := builder.New()
	reg, err := b.BuildRegistry(s.cfg, nil, s.log)
	if err != nil {
		panic(err)
	}
	s.reg = reg
	s.res = b.BuildResolver(s.cfg, s.reg, nil)
	s.bld = b
	// Store the initial state atomically.
	st.Store(s)
}

var (
	// ErrNilRegistry is returned when a builder returns a nil registry.
	ErrNilRegistry = errors.New("runir: builder returned nil registry")
	// ErrNilResolver is returned when a builder returns a nil resolver.
	ErrNilResolver = errors.New("runir: builder returned nil resolver")
)

// Name resolves the name of r using the global resolver and registry.
func Name(r linker.Repr) string {
	s := st.Load()
	return s.res.Resolve(s.reg, r)
}

// Describe renders r as markdown from the global registry.
func Describe(r linker.Repr) string {
	return schema.Markdown(st.Load().reg, r)
}

// NewInterner builds an interner over the global registry stamping scope
// into every payload.
func NewInterner(scope entropy.Scope) (apis.Interner, error) {
	s := st.Load()
	return s.bld.BuildInterner(s.reg, scope)
}

// NewEntityInterner is NewInterner producing entity handles.
func NewEntityInterner(scope entropy.Scope) (apis.Interner, error) {
	s := st.Load()
	return s.bld.BuildEntityInterner(s.reg, scope)
}

// NewLinker returns a linker over the global registry.
func NewLinker(scope entropy.Scope) (*linker.Linker, error) {
	s := st.Load()
	in, err := s.bld.BuildInterner(s.reg, scope)
	if err != nil {
		return nil, err
	}
	return linker.New(s.reg, in), nil
}

// FFIFor looks up the FFI of t, unwrapping containers up to the configured
// MaxUnwrap.
func FFIFor(t reflect.Type) (schema.FFI, bool) {
	return schema.FFIForDepth(t, st.Load().cfg.MaxUnwrap)
}

// SetAll explicitly sets all global state components.
//
// Nil arguments leave the corresponding component unchanged, except that a
// nil registry or resolver is rebuilt by the builder and unpinned.
func SetAll(cfg *apis.Config, reg *registry.Registry, res resolver.Resolver, bld builder.Builder) error {
	buildMu.Lock()
	defer buildMu.Unlock()

	// Load the old state.
	old := st.Load()

	// Configuration
	ncfg := old.cfg
	if cfg != nil {
		ncfg = *cfg
	}

	// Builder
	nbld := old.bld
	if bld != nil {
		nbld = bld
	}

	// Registry
	nreg := reg
	npreg := false
	if nreg == nil {
		var err error
		if nreg, err = nbld.BuildRegistry(ncfg, old.reg, old.log); err != nil {
			return err
		}
	} else {
		npreg = true
	}

	// Resolver
	nres := res
	npres := false
	if nres == nil {
		nres = nbld.BuildResolver(ncfg, nreg, old.res)
	} else {
		npres = true
	}

	// Store the new state atomically.
	return publish(&state{
		cfg:  ncfg,
		log:  old.log,
		reg:  nreg,
		res:  nres,
		bld:  nbld,
		preg: npreg,
		pres: npres,
	})
}

// Config returns the global configuration.
func Config() apis.Config {
	return st.Load().cfg
}

// SetConfig sets the global configuration to cfg.
// It rebuilds the global registry and resolver unless they are pinned. The
// rebuilt registry carries over every table of the previous one.
func SetConfig(cfg apis.Config) error {
	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := old.with()
	next.cfg = cfg
	return rebuild(old, next)
}

// Logger returns the logger handed to rebuilt registries.
func Logger() *zap.Logger {
	return st.Load().log
}

// SetLogger sets the logger and rebuilds the unpinned registry with it.
func SetLogger(l *zap.Logger) error {
	if l == nil {
		return nil
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := old.with()
	next.log = l
	return rebuild(old, next)
}

// Registry returns the global registry.
func Registry() *registry.Registry {
	return st.Load().reg
}

// SetRegistry sets and pins the global registry.
// It uses the global configuration to rebuild the resolver unless pinned.
func SetRegistry(reg *registry.Registry) error {
	if reg == nil {
		return nil
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := old.with()
	next.reg, next.preg = reg, true
	if !old.pres {
		next.res = old.bld.BuildResolver(old.cfg, reg, old.res)
	}
	return publish(next)
}

// Resolver returns the global resolver.
func Resolver() resolver.Resolver {
	return st.Load().res
}

// SetResolver sets and pins the global resolver.
func SetResolver(res resolver.Resolver) {
	if res == nil {
		return
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	next := st.Load().with()
	next.res, next.pres = res, true
	st.Store(next)
}

// Builder returns the global builder.
func Builder() builder.Builder {
	return st.Load().bld
}

// SetBuilder sets the global builder to b and rebuilds unpinned layers.
func SetBuilder(b builder.Builder) error {
	if b == nil {
		return nil
	}

	buildMu.Lock()
	defer buildMu.Unlock()

	old := st.Load()
	next := old.with()
	next.bld = b
	return rebuild(old, next)
}

// IsRegistryPinned returns whether the global registry is pinned.
func IsRegistryPinned() bool {
	return st.Load().preg
}

// PinRegistry stops the global registry from being rebuilt.
func PinRegistry() {
	setPins(func(s *state) { s.preg = true })
}

// UnpinRegistry lets the global registry be rebuilt again.
func UnpinRegistry() {
	setPins(func(s *state) { s.preg = false })
}

// IsResolverPinned returns whether the global resolver is pinned.
func IsResolverPinned() bool {
	return st.Load().pres
}

// PinResolver stops the global resolver from being rebuilt.
func PinResolver() {
	setPins(func(s *state) { s.pres = true })
}

// UnpinResolver lets the global resolver be rebuilt again.
func UnpinResolver() {
	setPins(func(s *state) { s.pres = false })
}

func setPins(fn func(*state)) {
	buildMu.Lock()
	defer buildMu.Unlock()

	next := st.Load().with()
	fn(next)
	st.Store(next)
}

// rebuild rebuilds the unpinned layers of next from old and publishes it.
// Must be called with buildMu held.
func rebuild(old, next *state) error {
	if !old.preg {
		reg, err := next.bld.BuildRegistry(next.cfg, old.reg, next.log)
		if err != nil {
			return err
		}
		next.reg = reg
	}
	if !old.pres {
		next.res = next.bld.BuildResolver(next.cfg, next.reg, old.res)
	}
	return publish(next)
}

// publish stores s after checking its layers. Must be called with buildMu held.
func publish(s *state) error {
	if s.reg == nil {
		return ErrNilRegistry
	}
	if s.res == nil {
		return ErrNilResolver
	}
	st.Store(s)
	return nil
}

// buildMu serializes writers (reconfigurations/swaps) so we never publish
// partially-built snapshots.
var buildMu sync.Mutex

// st is the global state.
var st atomic.Pointer[state]

// state is the global state snapshot.
// Immutable snapshot published atomically via st.Store; never mutate fields
// of a published state. Writers create a new state and swap it atomically.
type state struct {
	// cfg is the global configuration.
	cfg apis.Config
	// log is handed to rebuilt registries.
	log *zap.Logger
	// reg is the global registry.
	reg *registry.Registry
	// res is the global resolver.
	res resolver.Resolver
	// bld is the global builder.
	bld builder.Builder
	// preg indicates whether the reg is pinned (immutable).
	preg bool
	// pres indicates whether the res is pinned (immutable).
	pres bool
}

// with returns an unpublished copy of s.
func (s *state) with() *state {
	c := *s
	return &c
}
