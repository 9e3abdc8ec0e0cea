// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

package notify

import (
	"context"
	"fmt"
	"mime"
	"strings"

	"github.com/google/uuid"
)

// Message is one rendered notification addressed to a single recipient.
type Message struct {
	From     string
	FromName string
	To       string
	Subject  string
	HTML     string
	Text     string
}

// Sender delivers rendered messages. Verify checks that the transport is
// reachable and accepts the configured credentials.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	Verify(ctx context.Context) error
}

// buildMessage constructs the RFC 5322 message with headers.
func buildMessage(msg *Message) string {
	var b strings.Builder

	fromName := msg.FromName
	if fromName == "" {
		fromName = "Snapvault"
	}

	b.WriteString(fmt.Sprintf("From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", fromName), msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", msg.To))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")

	hasHTML := msg.HTML != ""
	hasText := msg.Text != ""

	switch {
	case hasHTML && hasText:
		boundary := "snapvault_" + strings.ReplaceAll(uuid.New().String(), "-", "")
		b.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n", boundary))
		b.WriteString("\r\n")

		b.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(crlf(msg.Text))
		b.WriteString("\r\n")

		b.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(crlf(msg.HTML))
		b.WriteString("\r\n")

		b.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	case hasHTML:
		b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(crlf(msg.HTML))
	default:
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		b.WriteString("\r\n")
		b.WriteString(crlf(msg.Text))
	}

	return b.String()
}

// crlf normalizes bare line feeds to CRLF for the SMTP DATA stream.
func crlf(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}
