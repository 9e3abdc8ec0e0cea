// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/snapvault/internal/models"
)

// UpdateFailure reads the failure record of a tenant (nil when absent),
// applies fn and writes the result back in a single transaction.
func (s *Store) UpdateFailure(_ context.Context, tenantID string, fn func(*models.FailureRecord) *models.FailureRecord) (*models.FailureRecord, error) {
	key := []byte(failureKeyPrefix + tenantID)
	var out *models.FailureRecord

	err := s.db.Update(func(txn *badger.Txn) error {
		var current *models.FailureRecord
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
		case err != nil:
			return err
		default:
			current = &models.FailureRecord{}
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, current)
			}); err != nil {
				return err
			}
		}

		out = fn(current)
		if out == nil {
			return nil
		}
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, fmt.Errorf("update failure record %s: %w", tenantID, err)
	}
	return out, nil
}

// GetFailure returns the failure record of a tenant or ErrNotFound.
func (s *Store) GetFailure(_ context.Context, tenantID string) (*models.FailureRecord, error) {
	var rec models.FailureRecord
	if err := s.get(failureKeyPrefix+tenantID, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteFailure removes the failure record of a tenant. Missing is not an error.
func (s *Store) DeleteFailure(_ context.Context, tenantID string) error {
	_, err := s.delete(failureKeyPrefix + tenantID)
	return err
}

// ListFailures returns all failure records ordered by NextRetry ascending.
func (s *Store) ListFailures(_ context.Context) ([]models.FailureRecord, error) {
	var out []models.FailureRecord
	err := s.scan(failureKeyPrefix, func(_, val []byte) error {
		var rec models.FailureRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list failure records: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].NextRetry.Before(out[j].NextRetry)
	})
	return out, nil
}
