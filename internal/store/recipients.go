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
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/snapvault/internal/models"
)

// PutRecipient inserts or replaces a notification recipient.
// ID and CreatedAt are filled in for new recipients.
func (s *Store) PutRecipient(_ context.Context, r *models.NotificationRecipient) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return s.put(recipientKeyPrefix+r.ID, r)
}

// DeleteRecipient removes a recipient; ErrNotFound when it does not exist.
func (s *Store) DeleteRecipient(_ context.Context, id string) error {
	existed, err := s.delete(recipientKeyPrefix + id)
	if err != nil {
		return err
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}

// ListRecipients returns every recipient ordered by creation time.
func (s *Store) ListRecipients(_ context.Context) ([]models.NotificationRecipient, error) {
	var out []models.NotificationRecipient
	err := s.scan(recipientKeyPrefix, func(_, val []byte) error {
		var r models.NotificationRecipient
		if err := json.Unmarshal(val, &r); err != nil {
			return err
		}
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetEmailConfig returns the persisted email configuration.
// found is false when none has been stored yet.
func (s *Store) GetEmailConfig(_ context.Context) (cfg models.EmailConfig, found bool, err error) {
	err = s.get(emailSettingsKey, &cfg)
	if errors.Is(err, ErrNotFound) {
		return models.EmailConfig{}, false, nil
	}
	if err != nil {
		return models.EmailConfig{}, false, err
	}
	return cfg, true, nil
}

// PutEmailConfig persists the email configuration.
func (s *Store) PutEmailConfig(_ context.Context, cfg models.EmailConfig) error {
	return s.put(emailSettingsKey, cfg)
}
