// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/snapvault/internal/models"
)

func validationKey(createdAt time.Time, id string) string {
	return fmt.Sprintf("%s%020d:%s", validationKeyPrefix, createdAt.UnixNano(), id)
}

// PutValidation appends a validation record. ID and CreatedAt are filled in
// when empty.
func (s *Store) PutValidation(_ context.Context, rec *models.ValidationRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return s.put(validationKey(rec.CreatedAt, rec.ID), rec)
}

// ListValidations returns up to limit records, newest first.
// A limit <= 0 returns every record.
func (s *Store) ListValidations(_ context.Context, limit int) ([]models.ValidationRecord, error) {
	var out []models.ValidationRecord

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(validationKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration must seek past the last key under the prefix.
		seek := append([]byte(validationKeyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var rec models.ValidationRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list validation records: %w", err)
	}
	return out, nil
}

// DeleteValidationsBefore removes validation records created before cutoff
// and returns how many were removed. It stops early, without error, when ctx
// is done; the remaining records are picked up by the next sweep.
func (s *Store) DeleteValidationsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var keys [][]byte
	bound := []byte(validationKey(cutoff, ""))

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(validationKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			if string(key) >= string(bound) {
				break
			}
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scan validation records: %w", err)
	}

	deleted := 0
	wb := s.db.NewWriteBatch()
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		if err := wb.Delete(key); err != nil {
			wb.Cancel()
			return 0, fmt.Errorf("delete validation record: %w", err)
		}
		deleted++
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush validation deletes: %w", err)
	}
	return deleted, nil
}
