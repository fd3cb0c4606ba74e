// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package specstore owns the versioned dashboard specification document.
//
// The store holds the current document plus an append-only history of
// prior versions. It is the single serialization point of the system: a
// commit is a compare-and-swap keyed on the caller's expected version, and
// exactly one of any set of racing commits succeeds.
//
// Persistence is BadgerDB, used here the way the rest of the Aleutian
// stack uses it for warm local state: low-latency embedded KV with
// transactional writes. Layout:
//
//	spec/current            -> 8-byte big-endian current version number
//	spec/version/<v %010d>  -> JSON-encoded VersionRecord (immutable)
//
// History records are never rewritten, only appended. Rollback reads an
// old record and commits its document as a brand-new version.
package specstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// =============================================================================
// Records and Errors
// =============================================================================

// VersionRecord is one immutable historical snapshot of the document.
type VersionRecord struct {
	Version   int64          `json:"version"`
	Document  map[string]any `json:"document"`
	CreatedAt time.Time      `json:"created_at"`
	Note      string         `json:"note,omitempty"`
}

// ErrNotFound reports an unknown version or an uninitialized store.
var ErrNotFound = errors.New("version not found")

// ConflictError reports an optimistic-concurrency failure. It carries the
// actual current version so the caller can re-simulate against it.
type ConflictError struct {
	Expected int64
	Current  int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, current is %d", e.Expected, e.Current)
}

// IsConflict reports whether err is a version conflict and, if so,
// returns the store's actual version at the time of the attempt.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds store configuration.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required unless InMemory is true.
	Path string

	// InMemory runs Badger without disk persistence. Used in tests.
	InMemory bool

	// SyncWrites forces synchronous disk writes for durability.
	// Disabled automatically for in-memory stores.
	SyncWrites bool

	// Logger receives BadgerDB's internal log output.
	// If nil, Badger's logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: persistent, synchronous writes.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns a configuration for tests: no disk, no sync.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// badgerLogger adapts slog to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any)   { l.logger.Error(fmt.Sprintf(format, args...)) }
func (l *badgerLogger) Warningf(format string, args ...any) { l.logger.Warn(fmt.Sprintf(format, args...)) }
func (l *badgerLogger) Infof(format string, args ...any)    { l.logger.Debug(fmt.Sprintf(format, args...)) }
func (l *badgerLogger) Debugf(format string, args ...any)   { l.logger.Debug(fmt.Sprintf(format, args...)) }

// =============================================================================
// Store
// =============================================================================

var (
	keyCurrent       = []byte("spec/current")
	keyVersionPrefix = "spec/version/"
)

// Store is the authoritative holder of the versioned document.
//
// All methods are safe for concurrent use. Commit serializes writers with
// a store-level mutex on top of Badger's transactions, which keeps the
// compare-and-swap semantics simple and independent of Badger's conflict
// detection.
type Store struct {
	db *badger.DB

	// writeMu serializes commits; reads go straight to Badger.
	writeMu sync.Mutex
}

// Open opens (or creates) a store with the given configuration.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for a persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open spec store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSeed initializes an empty store with the given document as
// version 1. A store that already has a current version is left alone.
func (s *Store) EnsureSeed(ctx context.Context, doc map[string]any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.currentVersion()
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	record := VersionRecord{
		Version:   1,
		Document:  doc,
		CreatedAt: time.Now().UTC(),
		Note:      "initial document",
	}
	return s.writeRecord(record)
}

// Current returns the current version record. The returned document is a
// structurally independent snapshot the caller may mutate freely.
func (s *Store) Current(ctx context.Context) (*VersionRecord, error) {
	version, err := s.currentVersion()
	if err != nil {
		return nil, err
	}
	return s.Version(ctx, version)
}

// Version returns one historical record by version number.
func (s *Store) Version(ctx context.Context, version int64) (*VersionRecord, error) {
	var record VersionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(versionKey(version))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Commit performs the compare-and-swap write.
//
// The caller's expectedVersion must equal the store's current version;
// on mismatch Commit fails with a *ConflictError carrying the actual
// version and mutates nothing. On success the new document is written as
// expectedVersion+1 and becomes current.
func (s *Store) Commit(ctx context.Context, expectedVersion int64, doc map[string]any, note string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.currentVersion()
	if err != nil {
		return 0, err
	}
	if current != expectedVersion {
		return 0, &ConflictError{Expected: expectedVersion, Current: current}
	}

	record := VersionRecord{
		Version:   current + 1,
		Document:  doc,
		CreatedAt: time.Now().UTC(),
		Note:      note,
	}
	if err := s.writeRecord(record); err != nil {
		return 0, err
	}
	return record.Version, nil
}

// Rollback re-commits an old version's document as a brand-new version.
// History is never rewritten; the new record notes its rollback source.
//
// Unlike Commit, rollback restores the target on top of whatever version
// is current, so it holds the write lock across the read and the write
// instead of doing a compare-and-swap. A racing commit cannot make it
// fail with a conflict.
func (s *Store) Rollback(ctx context.Context, targetVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	target, err := s.Version(ctx, targetVersion)
	if err != nil {
		return 0, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.currentVersion()
	if err != nil {
		return 0, err
	}
	record := VersionRecord{
		Version:   current + 1,
		Document:  target.Document,
		CreatedAt: time.Now().UTC(),
		Note:      fmt.Sprintf("rollback to version %d", targetVersion),
	}
	if err := s.writeRecord(record); err != nil {
		return 0, err
	}
	return record.Version, nil
}

// History returns up to limit version records, newest first. A limit of
// zero or less returns the full history.
func (s *Store) History(ctx context.Context, limit int) ([]VersionRecord, error) {
	current, err := s.currentVersion()
	if err != nil {
		return nil, err
	}

	records := make([]VersionRecord, 0)
	for v := current; v >= 1; v-- {
		if limit > 0 && len(records) >= limit {
			break
		}
		record, err := s.Version(ctx, v)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

// currentVersion reads the version pointer.
func (s *Store) currentVersion() (int64, error) {
	var version int64
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyCurrent)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 8 {
				return fmt.Errorf("corrupt version pointer (%d bytes)", len(val))
			}
			version = int64(binary.BigEndian.Uint64(val))
			return nil
		})
	})
	return version, err
}

// writeRecord persists a record and advances the version pointer in one
// transaction. Callers hold writeMu.
func (s *Store) writeRecord(record VersionRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode version record: %w", err)
	}
	pointer := make([]byte, 8)
	binary.BigEndian.PutUint64(pointer, uint64(record.Version))

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(versionKey(record.Version), payload); err != nil {
			return err
		}
		return txn.Set(keyCurrent, pointer)
	})
}

func versionKey(version int64) []byte {
	return []byte(fmt.Sprintf("%s%010d", keyVersionPrefix, version))
}
