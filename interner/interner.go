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

// Package interner turns the attribute values pushed by a level into a
// handle. The default Interner hashes canonical CBOR encodings of the
// values; Entity decorates any interner with a per-registry entity id.
package interner

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/entropy"
	"github.com/runplat/runir/handle"
	"github.com/runplat/runir/registry"
	"github.com/runplat/runir/strategy"
)

var (
	// ErrAssign wraps the first deferred assignment that failed in Intern.
	ErrAssign = errors.New("runir(interner): deferred assignment failed")
	// ErrEncode is returned by Intern when a pushed value could not be encoded.
	ErrEncode = errors.New("runir(interner): cannot encode tag value")
	// ErrLevelFlags is returned by Intern when the level flag is not one of the eight levels.
	ErrLevelFlags = errors.New("runir(interner): invalid level flags")
)

// encMode is deterministic so equal values always hash equally.
var encMode, _ = cbor.CanonicalEncOptions().EncMode()

// Option configures an Interner.
type Option func(*Interner)

// WithScope stamps payloads with s.
func WithScope(s entropy.Scope) Option {
	return func(in *Interner) {
		in.scope = s
	}
}

// WithDigest overrides the digest named by the registry configuration.
func WithDigest(f apis.DigestFactory) Option {
	return func(in *Interner) {
		if f != nil {
			in.digest = f()
		}
	}
}

// WithLogger sets the logger. By default the registry logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(in *Interner) {
		if l != nil {
			in.log = l
		}
	}
}

// Interner is the default apis.Interner. It is not safe for concurrent use;
// give every goroutine its own.
type Interner struct {
	log    *zap.Logger
	scope  entropy.Scope
	digest apis.Digest

	flags handle.LevelFlags
	data  uint64
	tags  []apis.AssignFunc
	err   error
}

// Ensure Interner implements apis.Interner.
var _ apis.Interner = (*Interner)(nil)

// New returns an interner using the digest configured on reg.
func New(reg *registry.Registry, opts ...Option) *Interner {
	in := &Interner{
		log:   reg.Logger(),
		flags: handle.Root,
	}
	for _, opt := range opts {
		opt(in)
	}
	if in.digest == nil {
		f, err := strategy.Resolve(reg.Config().Digest)
		if err != nil {
			in.log.Warn("falling back to crc24", zap.Error(err))
			f = strategy.NewCRC24
		}
		in.digest = f()
	}
	return in
}

// Scope returns the entropy scope stamped into payloads.
func (in *Interner) Scope() entropy.Scope {
	return in.scope
}

// PushTag appends the canonical encoding of value to the checksum and
// queues assign. Encoding failures are reported by the next Intern.
func (in *Interner) PushTag(value any, assign apis.AssignFunc) {
	b, err := encMode.Marshal(value)
	if err != nil {
		if in.err == nil {
			in.err = fmt.Errorf("%w %T: %w", ErrEncode, value, err)
		}
	} else {
		_, _ = in.digest.Write(b)
	}
	in.Defer(assign)
}

// Defer queues assign without touching the checksum.
func (in *Interner) Defer(assign apis.AssignFunc) {
	if assign != nil {
		in.tags = append(in.tags, assign)
	}
}

// SetLevelFlags records the level being configured.
func (in *Interner) SetLevelFlags(flags handle.LevelFlags) {
	in.flags = flags
}

// SetData records the payload of the next handle.
func (in *Interner) SetData(data uint64) {
	in.data = data
}

// Intern finishes the handle and runs the queued assignments in push order.
// The interner is reset whether or not it succeeds.
func (in *Interner) Intern() (handle.Handle, error) {
	sum := in.digest.Sum24()
	flags, data, tags, err := in.flags, in.data, in.tags, in.err
	in.digest.Reset()
	in.flags, in.data, in.tags, in.err = handle.Root, 0, nil, nil

	if err != nil {
		return handle.Zero, err
	}
	if !flags.Valid() {
		return handle.Zero, fmt.Errorf("%w: %#04x", ErrLevelFlags, uint16(flags))
	}

	// Read the checksum back as the identity triple of a 128-bit value.
	h := handle.FromU64(uint64(sum))
	h.RegisterHi |= uint16(flags)
	h = h.WithPayload(data, uint64(in.scope))

	in.log.Debug("creating handle", zap.Stringer("handle", h))
	for i, assign := range tags {
		if err := assign(h); err != nil {
			return handle.Zero, fmt.Errorf("%w: %d of %d: %w", ErrAssign, i+1, len(tags), err)
		}
	}
	return h, nil
}
