// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package notify

import (
	"context"
	"sync"

	"github.com/tomtom215/snapvault/internal/models"
)

// MockSender records delivered messages.
type MockSender struct {
	mu        sync.Mutex
	sent      []*Message
	sendErr   map[string]error
	verifyErr error
	verified  int
}

func NewMockSender() *MockSender {
	return &MockSender{sendErr: make(map[string]error)}
}

func (s *MockSender) Send(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.sendErr[msg.To]; err != nil {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *MockSender) Verify(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified++
	return s.verifyErr
}

func (s *MockSender) FailFor(to string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr[to] = err
}

func (s *MockSender) Sent() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Message(nil), s.sent...)
}

// To returns the messages addressed to one recipient.
func (s *MockSender) To(addr string) []*Message {
	var out []*Message
	for _, m := range s.Sent() {
		if m.To == addr {
			out = append(out, m)
		}
	}
	return out
}

// MockRecipients is a static RecipientSource.
type MockRecipients struct {
	list []models.NotificationRecipient
	err  error
}

func (r *MockRecipients) ListRecipients(_ context.Context) ([]models.NotificationRecipient, error) {
	return r.list, r.err
}

func enabledConfig() models.EmailConfig {
	return models.EmailConfig{
		Enabled:   true,
		Host:      "smtp.example.com",
		Port:      587,
		FromEmail: "backup@example.com",
		FromName:  "Backups",
	}
}

func strPtr(s string) *string { return &s }
