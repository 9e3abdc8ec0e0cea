// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/tomtom215/snapvault/internal/models"
)

// SMTPSender delivers messages over SMTP. Secure selects implicit TLS;
// otherwise STARTTLS is negotiated whenever credentials are configured.
type SMTPSender struct {
	cfg     models.EmailConfig
	timeout time.Duration
}

// NewSMTPSender creates a sender for the given transport configuration.
func NewSMTPSender(cfg models.EmailConfig) *SMTPSender {
	return &SMTPSender{
		cfg:     cfg,
		timeout: 30 * time.Second,
	}
}

// connect dials the server and returns an authenticated client.
func (s *SMTPSender) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.timeout}
	tlsConfig := &tls.Config{
		ServerName: s.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}

	var client *smtp.Client
	if s.cfg.Secure {
		conn, err := (&tls.Dialer{NetDialer: dialer, Config: tlsConfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		client = smtp.NewClient(conn)
	} else {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		if s.hasCredentials() {
			client, err = smtp.NewClientStartTLS(conn, tlsConfig)
			if err != nil {
				_ = conn.Close() //nolint:errcheck // Best effort cleanup
				return nil, fmt.Errorf("failed to start TLS: %w", err)
			}
		} else {
			client = smtp.NewClient(conn)
		}
	}
	client.CommandTimeout = s.timeout
	client.SubmissionTimeout = s.timeout

	if s.hasCredentials() {
		if err := client.Auth(sasl.NewPlainClient("", s.cfg.User, s.cfg.Password)); err != nil {
			_ = client.Close() //nolint:errcheck // Best effort cleanup
			return nil, fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	return client, nil
}

func (s *SMTPSender) hasCredentials() bool {
	return s.cfg.User != "" && s.cfg.Password != ""
}

// Verify connects, authenticates and issues a NOOP.
func (s *SMTPSender) Verify(ctx context.Context) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if err := client.Noop(); err != nil {
		return fmt.Errorf("SMTP probe failed: %w", err)
	}
	_ = client.Quit() //nolint:errcheck // Probe already succeeded
	return nil
}

// Send delivers one message.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if err := client.Mail(msg.From, nil); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(msg.To, nil); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(buildMessage(msg))); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA closes; QUIT errors are ignored.
	_ = client.Quit() //nolint:errcheck // Message already accepted
	return nil
}

// classifyError reduces a transport error to a short code for logs.
func classifyError(err error) string {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "circuit breaker"):
		return "breaker_open"
	case strings.Contains(errStr, "authentication") || strings.Contains(errStr, "auth"):
		return "auth_failed"
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline"):
		return "timeout"
	case strings.Contains(errStr, "connect") || strings.Contains(errStr, "connection"):
		return "connection_failed"
	case strings.Contains(errStr, "recipient") || strings.Contains(errStr, "mailbox"):
		return "recipient_rejected"
	default:
		return "unknown"
	}
}
