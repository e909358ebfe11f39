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

package builder

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/interner"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/resolver"
	"github.com/runplat/runir/strategy"
)

// Builder composes the services of a process from a configuration.
type Builder interface {
	// BuildRegistry builds a registry for cfg. When prev is non-nil its
	// tables and entity counter are carried over.
	BuildRegistry(cfg apis.Config, prev *registry.Registry, log *zap.Logger) (*registry.Registry, error)
	// BuildInterner builds an interner over reg using the configured digest.
	BuildInterner(reg *registry.Registry, scope entropy.Scope) (apis.Interner, error)
	// BuildEntityInterner wraps BuildInterner so every handle is an entity.
	BuildEntityInterner(reg *registry.Registry, scope entropy.Scope) (apis.Interner, error)
	// BuildResolver builds the name resolver. prev may be reused.
	BuildResolver(cfg apis.Config, reg *registry.Registry, prev resolver.Resolver) resolver.Resolver
}

// Option configures the builder.
type Option func(*builder)

// WithMetrics registers intern metrics with reg once; every registry the
// builder produces shares the collectors.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(b *builder) {
		if reg != nil {
			b.metrics = registry.NewMetrics(reg)
		}
	}
}

// New creates and returns a new Builder.
func New(opts ...Option) Builder {
	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// builder holds the collectors shared across rebuilt registries.
type builder struct {
	metrics *registry.Metrics
}

// BuildRegistry builds and returns a new registry based on the provided configuration
// and pre-existing registry. If a pre-existing registry is provided, its tables are copied
// into the new registry.
func (b *builder) BuildRegistry(cfg apis.Config, prev *registry.Registry, log *zap.Logger) (*registry.Registry, error) {
	opts := []registry.Option{registry.WithLogger(log)}
	if b.metrics != nil {
		opts = append(opts, registry.WithSharedMetrics(b.metrics))
	}
	nreg := registry.New(cfg, opts...)
	if prev != nil {
		if err := nreg.Migrate(prev); err != nil {
			return nreg, fmt.Errorf("migrate registry: %w", err)
		}
	}
	return nreg, nil
}

// BuildInterner resolves the configured digest and returns a scoped interner.
// An unknown digest name is an error here, unlike interner.New which falls
// back to the default.
func (b *builder) BuildInterner(reg *registry.Registry, scope entropy.Scope) (apis.Interner, error) {
	digest, err := strategy.Resolve(reg.Config().Digest)
	if err != nil {
		return nil, err
	}
	return interner.New(reg,
		interner.WithScope(scope),
		interner.WithDigest(digest),
		interner.WithLogger(reg.Logger()),
	), nil
}

// BuildEntityInterner returns an entity interner over BuildInterner.
func (b *builder) BuildEntityInterner(reg *registry.Registry, scope entropy.Scope) (apis.Interner, error) {
	in, err := b.BuildInterner(reg, scope)
	if err != nil {
		return nil, err
	}
	return interner.NewEntity(in, reg), nil
}

// BuildResolver builds and returns a new default resolver chain. prev is
// not carried over; callers that want to keep a resolver pin it.
func (b *builder) BuildResolver(_ apis.Config, _ *registry.Registry, _ resolver.Resolver) resolver.Resolver {
	return resolver.Default()
}
