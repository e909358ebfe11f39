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

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/runplat/runir/apis"
)

const (
	// DefaultDigest is the checksum strategy used when none is configured.
	DefaultDigest = "crc24"
	// DefaultLogLevel is the log level used by command-line entry points.
	DefaultLogLevel = "info"
	// DefaultEntityStart means the first entity id handed out is 1.
	DefaultEntityStart = 0
	// DefaultMaxUnwrap represents the default for MaxUnwrap.
	// A value of 8 should be sufficient for all practical purposes.
	DefaultMaxUnwrap = 8
	// DefaultRuntimeWorkers leaves entropy runtimes unbounded.
	DefaultRuntimeWorkers = 0
)

// ErrEmptyPath is returned by Load when no path is given.
var ErrEmptyPath = errors.New("runir(config): empty config path")

// NewConfig constructs an apis.Config from the given options.
func NewConfig(opts ...Option) apis.Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return normalize(cfg)
}

// DefaultConfig is the default configuration used when none is provided.
func DefaultConfig() apis.Config {
	return apis.Config{
		Digest:         DefaultDigest,
		LogLevel:       DefaultLogLevel,
		EntityStart:    DefaultEntityStart,
		MaxUnwrap:      DefaultMaxUnwrap,
		RuntimeWorkers: DefaultRuntimeWorkers,
		Snapshot: apis.SnapshotConfig{
			InMemory: true,
		},
	}
}

// Load reads a YAML file on top of DefaultConfig and applies opts afterwards.
func Load(path string, opts ...Option) (apis.Config, error) {
	if path == "" {
		return apis.Config{}, ErrEmptyPath
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return apis.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(b, opts...)
}

// Parse decodes YAML on top of DefaultConfig and applies opts afterwards.
func Parse(b []byte, opts ...Option) (apis.Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return apis.Config{}, fmt.Errorf("parse config: %w", err)
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return normalize(cfg), nil
}

// normalize repairs values that would otherwise be invalid.
func normalize(cfg apis.Config) apis.Config {
	if cfg.Digest == "" {
		cfg.Digest = DefaultDigest
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.MaxUnwrap <= 0 {
		cfg.MaxUnwrap = DefaultMaxUnwrap
	}
	if cfg.Snapshot.Path == "" {
		cfg.Snapshot.InMemory = true
	}
	return cfg
}

// Option is a functional option that mutates an apis.Config during construction.
type Option func(*apis.Config)

// WithDigest sets the checksum strategy name.
func WithDigest(name string) Option {
	return func(c *apis.Config) {
		c.Digest = name
	}
}

// WithLogLevel sets the log level name.
func WithLogLevel(level string) Option {
	return func(c *apis.Config) {
		c.LogLevel = level
	}
}

// WithEntityStart sets the last entity id considered taken.
func WithEntityStart(start uint64) Option {
	return func(c *apis.Config) {
		c.EntityStart = start
	}
}

// WithMaxUnwrap sets the MaxUnwrap option.
// A non-positive value resets to the default.
func WithMaxUnwrap(max int) Option {
	return func(c *apis.Config) {
		if max <= 0 {
			c.MaxUnwrap = DefaultMaxUnwrap
			return
		}
		c.MaxUnwrap = max
	}
}

// WithRuntimeWorkers bounds entropy runtimes.
func WithRuntimeWorkers(n int) Option {
	return func(c *apis.Config) {
		c.RuntimeWorkers = n
	}
}

// WithSnapshotPath persists snapshots under path.
// An empty path switches the store to memory.
func WithSnapshotPath(path string) Option {
	return func(c *apis.Config) {
		c.Snapshot.Path = path
		c.Snapshot.InMemory = path == ""
	}
}

// WithSyncWrites toggles durable snapshot writes.
func WithSyncWrites(sync bool) Option {
	return func(c *apis.Config) {
		c.Snapshot.SyncWrites = sync
	}
}
