// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package storage

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/peerrec/internal/metrics"
	"github.com/tomtom215/peerrec/internal/recommend"
)

const (
	metaPrefix  = "snapshot/meta/"
	dataPrefix  = "snapshot/data/"
	latestKey   = "snapshot/latest"
	versionSize = 20
)

var (
	// ErrSnapshotNotFound is returned when a version does not exist.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrChecksumMismatch is returned when stored rows fail verification.
	ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("snapshot store closed")
)

// Config configures the snapshot store.
type Config struct {
	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps snapshots in memory only.
	InMemory bool

	// Retain is the number of snapshots kept. Zero keeps all.
	Retain int

	// SyncWrites forces fsync after every write.
	SyncWrites bool

	// Compression enables Snappy block compression in BadgerDB.
	Compression bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return errors.New("snapshot path is required unless in_memory is set")
	}
	if c.Retain < 0 {
		return fmt.Errorf("retain must not be negative, got %d", c.Retain)
	}
	return nil
}

// SnapshotMeta describes one stored snapshot.
type SnapshotMeta struct {
	Version        int64                   `json:"version"`
	RunID          string                  `json:"run_id"`
	Seed           int64                   `json:"seed"`
	K              int                     `json:"k"`
	Path           recommend.AttributePath `json:"path"`
	Rows           int                     `json:"rows"`
	Fallbacks      recommend.FallbackStats `json:"fallbacks"`
	DryRun         bool                    `json:"dry_run"`
	CreatedAt      time.Time               `json:"created_at"`
	Checksum       string                  `json:"checksum"`
	CompressedSize int                     `json:"compressed_size"`
}

// Snapshot is a stored run with its rows.
type Snapshot struct {
	Meta SnapshotMeta          `json:"meta"`
	Rows []recommend.ExportRow `json:"rows"`
}

// Store persists snapshots in BadgerDB. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	retain int
	logger zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Open opens or creates a snapshot store.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Open(cfg Config, logger zerolog.Logger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot config: %w", err)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{
		db:     db,
		retain: cfg.Retain,
		logger: logger.With().Str("component", "snapshots").Logger(),
	}
	s.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("retain", cfg.Retain).
		Msg("snapshot store opened")
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// OnRunFinished saves a snapshot of every run that replaced the table and
// records the version in the report. Failed and dry runs are skipped.
func (s *Store) OnRunFinished(ctx context.Context, report *recommend.RunReport) error {
	if !report.Succeeded() || report.DryRun {
		return nil
	}
	meta, err := s.Save(ctx, report)
	metrics.RecordSnapshotSave(err)
	if err != nil {
		return err
	}
	report.SnapshotVersion = meta.Version
	return nil
}

// Save stores the rows of report as a new version and prunes old versions.
func (s *Store) Save(ctx context.Context, report *recommend.RunReport) (SnapshotMeta, error) {
	if err := ctx.Err(); err != nil {
		return SnapshotMeta{}, err
	}

	raw, err := json.Marshal(report.Rows)
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("encode rows: %w", err)
	}
	hash := sha256.Sum256(raw)

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw); err != nil {
		return SnapshotMeta{}, fmt.Errorf("compress rows: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return SnapshotMeta{}, fmt.Errorf("finalize compression: %w", err)
	}

	meta := SnapshotMeta{
		RunID:          report.RunID,
		Seed:           report.Seed,
		K:              report.K,
		Path:           report.Path,
		Rows:           len(report.Rows),
		Fallbacks:      report.Fallbacks,
		DryRun:         report.DryRun,
		CreatedAt:      report.CompletedAt,
		Checksum:       hex.EncodeToString(hash[:]),
		CompressedSize: compressed.Len(),
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return SnapshotMeta{}, ErrClosed
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		latest, err := readLatest(txn)
		if err != nil {
			return err
		}
		meta.Version = latest + 1

		metaBytes, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode metadata: %w", err)
		}
		if err := txn.Set(versionKey(metaPrefix, meta.Version), metaBytes); err != nil {
			return err
		}
		if err := txn.Set(versionKey(dataPrefix, meta.Version), compressed.Bytes()); err != nil {
			return err
		}
		return txn.Set([]byte(latestKey), []byte(strconv.FormatInt(meta.Version, 10)))
	})
	if err != nil {
		return SnapshotMeta{}, fmt.Errorf("write snapshot: %w", err)
	}

	s.logger.Info().
		Int64("version", meta.Version).
		Str("run_id", meta.RunID).
		Int("rows", meta.Rows).
		Int("compressed_bytes", meta.CompressedSize).
		Msg("snapshot saved")

	if s.retain > 0 {
		if _, err := s.pruneLocked(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("snapshot prune failed")
		}
	}
	return meta, nil
}

// Load returns a snapshot by version. Version 0 loads the latest.
func (s *Store) Load(ctx context.Context, version int64) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap Snapshot
	var compressed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		if version == 0 {
			latest, err := readLatest(txn)
			if err != nil {
				return err
			}
			if latest == 0 {
				return ErrSnapshotNotFound
			}
			version = latest
		}

		if err := readJSON(txn, versionKey(metaPrefix, version), &snap.Meta); err != nil {
			return err
		}
		item, err := txn.Get(versionKey(dataPrefix, version))
		if err != nil {
			return notFound(err)
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot %d: %w", version, err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot %d: %w", version, err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // close after full read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("decompress snapshot %d: %w", version, err)
	}

	hash := sha256.Sum256(raw)
	if hex.EncodeToString(hash[:]) != snap.Meta.Checksum {
		return nil, fmt.Errorf("snapshot %d: %w", version, ErrChecksumMismatch)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&snap.Rows); err != nil {
		return nil, fmt.Errorf("decode snapshot %d: %w", version, err)
	}
	return &snap, nil
}

// List returns the metadata of all stored snapshots, newest first.
func (s *Store) List(ctx context.Context) ([]SnapshotMeta, error) {
	var metas []SnapshotMeta
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(metaPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var meta SnapshotMeta
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("skipping unreadable snapshot metadata")
				continue
			}
			metas = append(metas, meta)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	for i, j := 0, len(metas)-1; i < j; i, j = i+1, j-1 {
		metas[i], metas[j] = metas[j], metas[i]
	}
	return metas, nil
}

// Prune deletes all but the newest Retain snapshots and returns the number
// deleted.
func (s *Store) Prune(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	return s.pruneLocked(ctx)
}

func (s *Store) pruneLocked(ctx context.Context) (int, error) {
	if s.retain <= 0 {
		return 0, nil
	}

	metas, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(metas) <= s.retain {
		return 0, nil
	}

	stale := metas[s.retain:]
	err = s.db.Update(func(txn *badger.Txn) error {
		for _, meta := range stale {
			for _, prefix := range []string{metaPrefix, dataPrefix} {
				if err := txn.Delete(versionKey(prefix, meta.Version)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	s.logger.Debug().Int("deleted", len(stale)).Int("retained", s.retain).Msg("pruned snapshots")
	return len(stale), nil
}

func versionKey(prefix string, version int64) []byte {
	return fmt.Appendf(nil, "%s%0*d", prefix, versionSize, version)
}

func readLatest(txn *badger.Txn) (int64, error) {
	item, err := txn.Get([]byte(latestKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var latest int64
	err = item.Value(func(val []byte) error {
		latest, err = strconv.ParseInt(string(val), 10, 64)
		return err
	})
	return latest, err
}

func readJSON(txn *badger.Txn, key []byte, target any) error {
	item, err := txn.Get(key)
	if err != nil {
		return notFound(err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, target)
	})
}

func notFound(err error) error {
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrSnapshotNotFound
	}
	return err
}
