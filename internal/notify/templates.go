// Snapvault - Automated Tenant Backup Orchestration
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/snapvault

/*
templates.go - Notification Templates

Each event kind has one fixed HTML template and one plaintext template.
Tenant names and error messages are escaped by html/template; the
plaintext part is rendered with text/template.
*/
//nolint:staticcheck // File documentation, not package doc
package notify

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"
)

// Kind identifies a notification event.
type Kind string

const (
	KindSuccess   Kind = "success"
	KindFailure   Kind = "failure"
	KindRecovered Kind = "recovered"
)

// templateData is the view model shared by every template.
type templateData struct {
	TenantID    string
	TenantName  string
	Timestamp   time.Time
	RecordCount int
	Size        int64
	Duration    time.Duration
	Error       string
	Attempt     int
}

var funcMap = map[string]interface{}{
	"formatDateTime": func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05 MST")
	},
	"formatBytes":    formatBytes,
	"formatDuration": formatDuration,
}

const layoutHTML = `<!DOCTYPE html>
<html><body style="font-family: Arial, sans-serif; color: #222;">
<div style="max-width: 600px; margin: 0 auto; padding: 16px;">
<h2 style="color: {{template "color" .}};">{{template "title" .}}</h2>
{{template "body" .}}
<p style="color: #888; font-size: 12px;">Tenant ID {{.TenantID}} · {{formatDateTime .Timestamp}}</p>
</div>
</body></html>`

var htmlBodies = map[Kind]string{
	KindSuccess: `{{define "color"}}#2e7d32{{end}}{{define "title"}}Backup completed: {{.TenantName}}{{end}}{{define "body"}}
<table cellpadding="4">
<tr><td>Records</td><td><strong>{{.RecordCount}}</strong></td></tr>
<tr><td>Size</td><td><strong>{{formatBytes .Size}}</strong></td></tr>
<tr><td>Duration</td><td><strong>{{formatDuration .Duration}}</strong></td></tr>
</table>{{end}}`,
	KindFailure: `{{define "color"}}#c62828{{end}}{{define "title"}}Backup failed: {{.TenantName}}{{end}}{{define "body"}}
<p>Attempt <strong>{{.Attempt}}</strong> failed with:</p>
<pre style="background: #f5f5f5; padding: 8px; white-space: pre-wrap;">{{.Error}}</pre>
<p>The backup will be retried automatically until the retry limit is reached.</p>{{end}}`,
	KindRecovered: `{{define "color"}}#1565c0{{end}}{{define "title"}}Backup recovered: {{.TenantName}}{{end}}{{define "body"}}
<p>The backup succeeded on attempt <strong>{{.Attempt}}</strong> after earlier failures.</p>{{end}}`,
}

var textBodies = map[Kind]string{
	KindSuccess: `Backup completed for {{.TenantName}} (tenant {{.TenantID}})
Time:     {{formatDateTime .Timestamp}}
Records:  {{.RecordCount}}
Size:     {{formatBytes .Size}}
Duration: {{formatDuration .Duration}}
`,
	KindFailure: `Backup failed for {{.TenantName}} (tenant {{.TenantID}})
Time:    {{formatDateTime .Timestamp}}
Attempt: {{.Attempt}}
Error:   {{.Error}}

The backup will be retried automatically until the retry limit is reached.
`,
	KindRecovered: `Backup recovered for {{.TenantName}} (tenant {{.TenantID}})
Time:    {{formatDateTime .Timestamp}}
The backup succeeded on attempt {{.Attempt}} after earlier failures.
`,
}

var subjects = map[Kind]string{
	KindSuccess:   "[Snapvault] Backup completed: %s",
	KindFailure:   "[Snapvault] Backup FAILED: %s",
	KindRecovered: "[Snapvault] Backup recovered: %s",
}

type templateSet struct {
	html map[Kind]*htmltemplate.Template
	text map[Kind]*texttemplate.Template
}

// mustParseTemplates parses the fixed templates; they are constants, so a
// parse error is a programming error.
func mustParseTemplates() *templateSet {
	set := &templateSet{
		html: make(map[Kind]*htmltemplate.Template, len(htmlBodies)),
		text: make(map[Kind]*texttemplate.Template, len(textBodies)),
	}
	for kind, body := range htmlBodies {
		t := htmltemplate.Must(htmltemplate.New(string(kind)).Funcs(funcMap).Parse(layoutHTML))
		set.html[kind] = htmltemplate.Must(t.Parse(body))
	}
	for kind, body := range textBodies {
		set.text[kind] = texttemplate.Must(texttemplate.New(string(kind)).Funcs(funcMap).Parse(body))
	}
	return set
}

// render produces the subject and both bodies for one event.
func (s *templateSet) render(kind Kind, data *templateData) (subject, html, text string, err error) {
	ht, ok := s.html[kind]
	if !ok {
		return "", "", "", fmt.Errorf("unknown notification kind %q", kind)
	}

	var hb bytes.Buffer
	if err := ht.Execute(&hb, data); err != nil {
		return "", "", "", fmt.Errorf("render %s html: %w", kind, err)
	}
	var tb bytes.Buffer
	if err := s.text[kind].Execute(&tb, data); err != nil {
		return "", "", "", fmt.Errorf("render %s text: %w", kind, err)
	}
	return fmt.Sprintf(subjects[kind], data.TenantName), hb.String(), tb.String(), nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%d ms", d.Milliseconds())
	}
	return d.Round(100 * time.Millisecond).String()
}
