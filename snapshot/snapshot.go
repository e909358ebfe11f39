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

// Package snapshot persists the intern tables of a registry in badger and
// restores them into another registry.
//
// Every entry is stored under "<table>/<handle uuid>" with its CBOR
// encoding as the value. Tables are restored only into tables the target
// registry already defines, since only the definition knows the Go type.
package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/runplat/runir/apis"
	"github.com/runplat/runir/registry"
)

// lastEntityKey holds the entity counter. It has no '/' so it never
// collides with a table entry.
const lastEntityKey = "@last_entity"

var (
	// ErrNoPath is returned by Open for a persistent store without a path.
	ErrNoPath = errors.New("runir(snapshot): path is required for a persistent store")
	// ErrBadKey is returned for keys that are not "<table>/<uuid>".
	ErrBadKey = errors.New("runir(snapshot): malformed key")
)

// Store is a badger-backed snapshot store. It is safe for concurrent use.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

// Stats counts the entries of a Save or Load.
type Stats struct {
	Tables  int
	Entries int
	// Skipped counts entries of tables the target registry does not define.
	Skipped int
}

// badgerLogger adapts zap to badger's Logger interface.
type badgerLogger struct {
	*zap.SugaredLogger
}

// Warningf maps badger warnings onto zap.
func (l badgerLogger) Warningf(format string, args ...any) {
	l.Warnf(format, args...)
}

// Open opens the store described by cfg. A nil log disables badger logging.
func Open(cfg apis.SnapshotConfig, log *zap.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, ErrNoPath
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create snapshot directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)

	if log == nil {
		log = zap.NewNop()
		opts = opts.WithLogger(nil)
	} else {
		opts = opts.WithLogger(badgerLogger{log.Named("badger").Sugar()})
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Store{db: db, log: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes every table of reg and its entity counter. Tables are
// written independently; failures are aggregated.
func (s *Store) Save(ctx context.Context, reg *registry.Registry) (Stats, error) {
	var (
		stats Stats
		errs  error
	)
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for _, tbl := range reg.Tables() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n := 0
		for id, data := range tbl.Export() {
			if err := wb.Set(entryKey(tbl.Name(), id), data); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("save %s: %w", tbl.Name(), err))
				break
			}
			n++
		}
		stats.Tables++
		stats.Entries += n
		s.log.Debug("saved table", zap.String("table", tbl.Name()), zap.Int("entries", n))
	}

	var last [8]byte
	binary.BigEndian.PutUint64(last[:], reg.LastEntity())
	errs = multierr.Append(errs, wb.Set([]byte(lastEntityKey), last[:]))
	errs = multierr.Append(errs, wb.Flush())
	return stats, errs
}

// Load imports every stored entry into the matching table of reg and
// advances its entity counter. Entries of tables reg does not define are
// skipped.
func (s *Store) Load(ctx context.Context, reg *registry.Registry) (Stats, error) {
	var (
		stats Stats
		errs  error
		seen  = map[string]bool{}
	)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := string(item.Key())
			if key == lastEntityKey {
				err := item.Value(func(v []byte) error {
					if len(v) == 8 {
						reg.AdvanceEntity(binary.BigEndian.Uint64(v))
					}
					return nil
				})
				errs = multierr.Append(errs, err)
				continue
			}

			name, id, err := splitKey(key)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			tbl, ok := reg.Table(name)
			if !ok {
				stats.Skipped++
				continue
			}
			if !seen[name] {
				seen[name] = true
				stats.Tables++
			}
			err = item.Value(func(v []byte) error {
				return tbl.Import(id, v)
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("load %s: %w", name, err))
				continue
			}
			stats.Entries++
		}
		return nil
	})
	if stats.Skipped > 0 {
		s.log.Warn("skipped entries of undefined tables", zap.Int("entries", stats.Skipped))
	}
	return stats, multierr.Append(err, errs)
}

func entryKey(table string, id uuid.UUID) []byte {
	return []byte(table + "/" + id.String())
}

func splitKey(key string) (string, uuid.UUID, error) {
	i := strings.LastIndexByte(key, '/')
	if i <= 0 {
		return "", uuid.Nil, fmt.Errorf("%w: %q", ErrBadKey, key)
	}
	id, err := uuid.Parse(key[i+1:])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: %q: %w", ErrBadKey, key, err)
	}
	return key[:i], id, nil
}
