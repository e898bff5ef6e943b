// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mailer delivers templated studio emails over SMTP. Templates live
// in the email_templates table and use {{placeholder}} substitution.
package mailer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"studio-api/internal/config"
	"studio-api/internal/store"
)

// ErrDisabled is returned when no SMTP host is configured. Callers treat it
// like any other send failure: the triggering write still succeeds.
var ErrDisabled = errors.New("mailer: not configured")

// ErrTemplateNotFound is returned when a named template is missing or
// inactive.
var ErrTemplateNotFound = errors.New("mailer: template not found")

// Mailer sends templated email through a configured SMTP relay.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	queries  *store.Queries
}

// New creates a mailer backed by the email_templates table.
func New(cfg *config.Config, queries *store.Queries) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		queries:  queries,
	}
}

// Enabled reports whether an SMTP relay is configured.
func (m *Mailer) Enabled() bool {
	return m.host != "" && m.from != ""
}

// SendTemplate renders the named template with the given placeholder values
// and sends it to the recipient.
func (m *Mailer) SendTemplate(ctx context.Context, name, to string, data map[string]string) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	tmpl, err := m.queries.GetTemplateByName(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("mailer: load template %s: %w", name, err)
	}

	subject := Render(tmpl.Subject, data)
	body := Render(tmpl.Content, data)
	return m.Send(to, subject, body)
}

// Send delivers a single HTML email.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	msg := buildMessage(m.from, to, subject, htmlBody)
	addr := fmt.Sprintf("%s:%d", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := smtp.SendMail(addr, auth, m.from, []string{to}, msg); err != nil {
		slog.Error("mail send failed", "to", to, "subject", subject, "error", err)
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}

	slog.Info("mail sent", "to", to, "subject", subject)
	return nil
}

// Render substitutes {{key}} placeholders in s with values from data.
// Unknown placeholders are left untouched so a missing value is visible in
// the delivered mail rather than silently blank.
func Render(s string, data map[string]string) string {
	if len(data) == 0 {
		return s
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// sanitizeHeader strips CR and LF to block header injection.
func sanitizeHeader(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "")
}
