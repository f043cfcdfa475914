// WACRM - WhatsApp Business CRM Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wacrm

package updater

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// Key prefix for BadgerDB storage. Keys are
// update_status:<zero-padded unix nanos>:<job id> so lexical order is start order.
const statusKeyPrefix = "update_status:"

// BadgerStatusStore implements StatusStore on BadgerDB. It keeps the full
// history.
type BadgerStatusStore struct {
	db     *badger.DB
	ownsDB bool
}

// OpenBadgerStatusStore opens (or creates) a BadgerDB at path and owns it.
func OpenBadgerStatusStore(path string) (*BadgerStatusStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open status store: %w", err)
	}
	return &BadgerStatusStore{db: db, ownsDB: true}, nil
}

// NewBadgerStatusStore wraps an already open database. Close leaves it open.
func NewBadgerStatusStore(db *badger.DB) *BadgerStatusStore {
	return &BadgerStatusStore{db: db}
}

func statusKey(status *JobStatus) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", statusKeyPrefix, status.StartedAt.UnixNano(), status.JobID))
}

// Save stores the record. Records are keyed by start time and job ID, so
// saving the same job again overwrites it.
func (s *BadgerStatusStore) Save(_ context.Context, status *JobStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(statusKey(status), data); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		return nil
	})
}

// Last returns the most recently started record, or ErrNoStatus.
func (s *BadgerStatusStore) Last(ctx context.Context) (*JobStatus, error) {
	records, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoStatus
	}
	return records[0], nil
}

// List returns up to limit records, newest first. limit <= 0 returns all.
func (s *BadgerStatusStore) List(_ context.Context, limit int) ([]*JobStatus, error) {
	var records []*JobStatus

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(statusKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode Seek lands on the last key <= the seek key.
		seek := append([]byte(statusKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			var status JobStatus
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &status)
			}); err != nil {
				return fmt.Errorf("decode status: %w", err)
			}
			records = append(records, &status)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list status: %w", err)
	}
	return records, nil
}

// Close closes the database if the store opened it.
func (s *BadgerStatusStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
