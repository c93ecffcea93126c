// Coursewise - Hybrid Course Recommendation Engine
// Copyright 2026 Coursewise Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/coursewise/coursewise

package recommend

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Store persists trained snapshots as a single named JSON artifact. Writes
// go through a temp file in the same directory followed by a rename, so an
// interrupted or failed save never corrupts a previously good artifact.
type Store struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

// snapshotFile is the on-disk envelope around a serialized snapshot.
type snapshotFile struct {
	// Checksum is the SHA-256 of the serialized model, hex encoded.
	Checksum string `json:"checksum"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// Model is the serialized snapshot.
	Model json.RawMessage `json:"model"`
}

// NewStore creates a snapshot store writing to the given artifact path.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "model-store").Logger(),
	}
}

// Save atomically replaces the artifact with the given snapshot. On any
// error the previous artifact, if one existed, is left untouched.
func (s *Store) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	model, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	hash := sha256.Sum256(model)
	envelope, err := json.Marshal(snapshotFile{
		Checksum: hex.EncodeToString(hash[:]),
		SavedAt:  time.Now(),
		Model:    model,
	})
	if err != nil {
		return fmt.Errorf("encode snapshot envelope: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(envelope); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}

	s.logger.Info().
		Str("path", s.path).
		Int("bytes", len(envelope)).
		Int("version", snap.Metadata.Version).
		Msg("snapshot persisted")

	return nil
}

// Load reads the artifact and reconstructs the snapshot. Returns an error
// when the artifact is missing, corrupt, fails its checksum, or is
// incomplete.
func (s *Store) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var envelope snapshotFile
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode snapshot envelope: %w", err)
	}

	hash := sha256.Sum256(envelope.Model)
	if checksum := hex.EncodeToString(hash[:]); checksum != envelope.Checksum {
		return nil, fmt.Errorf("snapshot checksum mismatch: expected %s, got %s", envelope.Checksum, checksum)
	}

	var snap Snapshot
	if err := json.Unmarshal(envelope.Model, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	if !snap.Complete() {
		return nil, fmt.Errorf("snapshot incomplete: missing index maps or matrices")
	}

	return &snap, nil
}

// IsTrained reports whether a complete snapshot can be loaded from disk.
func (s *Store) IsTrained() bool {
	snap, err := s.Load()
	return err == nil && snap.Complete()
}
