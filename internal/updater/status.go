// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// DefaultStatusHistory is the number of job records the file store keeps.
const DefaultStatusHistory = 20

// StatusStore persists job records so the outcome of a detached install or
// restore can be queried after the request that started it has returned.
// Save is an upsert keyed by job ID.
type StatusStore interface {
	Save(ctx context.Context, status *JobStatus) error
	Last(ctx context.Context) (*JobStatus, error)
	List(ctx context.Context, limit int) ([]*JobStatus, error)
	Close() error
}

// FileStatusStore keeps the most recent job records in a single JSON file,
// rewritten atomically on every save.
type FileStatusStore struct {
	path       string
	maxRecords int
	mu         sync.Mutex
}

type statusFile struct {
	Records []*JobStatus `json:"records"`
}

// NewFileStatusStore creates a store backed by path. maxRecords <= 0 uses
// DefaultStatusHistory.
func NewFileStatusStore(path string, maxRecords int) *FileStatusStore {
	if maxRecords <= 0 {
		maxRecords = DefaultStatusHistory
	}
	return &FileStatusStore{path: path, maxRecords: maxRecords}
}

// Save inserts or replaces the record with the same job ID. New records go
// to the front; the oldest records beyond the limit are dropped.
func (s *FileStatusStore) Save(_ context.Context, status *JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	replaced := false
	for i, rec := range records {
		if rec.JobID == status.JobID {
			records[i] = status
			replaced = true
			break
		}
	}
	if !replaced {
		records = append([]*JobStatus{status}, records...)
	}
	if len(records) > s.maxRecords {
		records = records[:s.maxRecords]
	}
	return s.write(records)
}

// Last returns the most recently started record, or ErrNoStatus.
func (s *FileStatusStore) Last(_ context.Context) (*JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoStatus
	}
	return records[0], nil
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *FileStatusStore) List(_ context.Context, limit int) ([]*JobStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// Close is a no-op.
func (s *FileStatusStore) Close() error {
	return nil
}

//nolint:gosec // G304: path is the configured status file
func (s *FileStatusStore) load() ([]*JobStatus, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var file statusFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode status file: %w", err)
	}
	return file.Records, nil
}

func (s *FileStatusStore) write(records []*JobStatus) error {
	data, err := json.MarshalIndent(statusFile{Records: records}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status file: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".update_status-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp status file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // No-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to write temp status file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // Best effort cleanup on error
		return fmt.Errorf("failed to sync temp status file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp status file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace status file: %w", err)
	}
	return nil
}

// Status store backends accepted by OpenStatusStore.
const (
	StatusStoreFile   = "file"
	StatusStoreBadger = "badger"
)

// OpenStatusStore opens the named backend for cfg. An empty path selects
// update_status.json next to the version marker for "file" and a
// .status directory inside the backup directory for "badger".
func OpenStatusStore(cfg Config, backend, path string) (StatusStore, error) {
	cfg = cfg.withDefaults()
	if backend == "" {
		backend = StatusStoreFile
	}
	if path == "" {
		path = cfg.defaultStatusPath(backend)
	}

	switch backend {
	case StatusStoreFile:
		return NewFileStatusStore(path, DefaultStatusHistory), nil
	case StatusStoreBadger:
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create status store directory: %w", err)
		}
		return OpenBadgerStatusStore(path)
	default:
		return nil, fmt.Errorf("unknown status store backend %q", backend)
	}
}
