// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"studio-api/internal/auth"
	"studio-api/internal/model"
)

// AdminSeed holds the bootstrap admin credentials.
type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// Seed creates initial data: the bootstrap admin account and the default
// email templates. Every step is idempotent, keyed on unique columns.
func Seed(ctx context.Context, db *sql.DB, admin AdminSeed) error {
	queries := New(db)

	if err := seedAdmin(ctx, queries, admin); err != nil {
		return err
	}
	return seedTemplates(ctx, queries)
}

func seedAdmin(ctx context.Context, queries *Queries, admin AdminSeed) error {
	_, err := queries.GetUserByUsername(ctx, admin.Username)
	if err == nil {
		slog.Info("admin user already exists, skipping seed", "username", admin.Username)
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for admin user: %w", err)
	}

	passwordHash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	user, err := queries.CreateUser(ctx, CreateUserParams{
		Username:     admin.Username,
		Email:        admin.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user", "id", user.ID, "username", user.Username)
	return nil
}

// Default transactional templates. Content placeholders use {{name}} markers
// substituted by the mailer; these are plain HTML strings, not parsed templates.
var defaultTemplates = []CreateTemplateParams{
	{
		Name:    "contact_notification",
		Subject: "New inquiry from {{full_name}}",
		Content: `<h2>New inquiry</h2>
<p><strong>Name:</strong> {{full_name}}</p>
<p><strong>Email:</strong> {{email}}</p>
<p><strong>Phone:</strong> {{phone}}</p>
<p><strong>Service:</strong> {{service_type}}</p>
<p><strong>Budget:</strong> {{budget_range}}</p>
<p><strong>Event date:</strong> {{event_date}}</p>
<p><strong>Location:</strong> {{location}}</p>
<p><strong>Message:</strong></p>
<p>{{message}}</p>`,
	},
	{
		Name:    "contact_confirmation",
		Subject: "Thank you for reaching out, {{full_name}}",
		Content: `<p>Hi {{full_name}},</p>
<p>Thanks for getting in touch. Your message has been received and we will
reply within one business day.</p>
<p>&mdash; The studio</p>`,
	},
	{
		Name:    "newsletter_welcome",
		Subject: "Welcome to the journal",
		Content: `<p>Hi,</p>
<p>You are on the list. Expect new work, behind-the-scenes notes, and booking
openings a few times a month.</p>`,
	},
	{
		Name:    "inquiry_followup",
		Subject: "Following up on your inquiry",
		Content: `<p>Hi {{full_name}},</p>
<p>Just checking in on your inquiry. If you still have questions about rates,
availability, or the process, reply to this email and we will pick it up from
there.</p>`,
	},
}

func seedTemplates(ctx context.Context, queries *Queries) error {
	for _, tmpl := range defaultTemplates {
		_, err := queries.GetTemplateByName(ctx, tmpl.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking template %q: %w", tmpl.Name, err)
		}
		if _, err := queries.CreateTemplate(ctx, tmpl); err != nil {
			return fmt.Errorf("creating template %q: %w", tmpl.Name, err)
		}
		slog.Info("created default email template", "name", tmpl.Name)
	}
	return nil
}
