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

package apis

// Config carries read-only knobs that influence how handles are produced and
// where snapshots are written. It is passed by value and should be treated as
// immutable by implementations.
type Config struct {
	// Digest names the checksum strategy used by interners (e.g. "crc24", "xxhash").
	Digest string `yaml:"digest"`

	// LogLevel is the zap level name used by command-line entry points.
	LogLevel string `yaml:"log_level"`

	// EntityStart is the last entity id considered taken. The first id handed
	// out is EntityStart+1, so entity 0 is never assigned.
	EntityStart uint64 `yaml:"entity_start"`

	// MaxUnwrap limits container unwrapping depth when resolving the named
	// type behind a resource (ptr/slice/array/chan/map).
	MaxUnwrap int `yaml:"max_unwrap"`

	// RuntimeWorkers bounds the goroutines of an entropy runtime. <= 0 is unbounded.
	RuntimeWorkers int `yaml:"runtime_workers"`

	// Snapshot configures the persistence collaborator.
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// SnapshotConfig configures where table exports are persisted.
type SnapshotConfig struct {
	// Path is the badger directory. Ignored when InMemory is true.
	Path string `yaml:"path"`
	// InMemory keeps the snapshot store in memory.
	InMemory bool `yaml:"in_memory"`
	// SyncWrites makes every write durable before returning.
	SyncWrites bool `yaml:"sync_writes"`
}
