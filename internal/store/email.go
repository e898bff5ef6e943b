// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const templateColumns = `id, name, subject, content, is_active`

// GetTemplateByName returns the active email template with the given name.
func (q *Queries) GetTemplateByName(ctx context.Context, name string) (EmailTemplate, error) {
	var t EmailTemplate
	err := q.db.QueryRowContext(ctx, `
		SELECT `+templateColumns+` FROM email_templates WHERE name = ? AND is_active = 1`, name).
		Scan(&t.ID, &t.Name, &t.Subject, &t.Content, &t.IsActive)
	return t, err
}

// CreateTemplateParams holds the fields for CreateTemplate.
type CreateTemplateParams struct {
	Name    string
	Subject string
	Content string
}

// CreateTemplate inserts an email template.
func (q *Queries) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (EmailTemplate, error) {
	var t EmailTemplate
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO email_templates (name, subject, content) VALUES (?, ?, ?)
		RETURNING `+templateColumns,
		arg.Name, arg.Subject, arg.Content).
		Scan(&t.ID, &t.Name, &t.Subject, &t.Content, &t.IsActive)
	return t, err
}

const sequenceColumns = `id, contact_id, sequence_type, step_number, email_template, scheduled_for, sent_at, status`

// CreateSequenceStepParams holds the fields for CreateSequenceStep.
type CreateSequenceStepParams struct {
	ContactID     int64
	SequenceType  string
	StepNumber    int64
	EmailTemplate string
	ScheduledFor  time.Time
}

// CreateSequenceStep enqueues one pending drip-campaign step.
func (q *Queries) CreateSequenceStep(ctx context.Context, arg CreateSequenceStepParams) (EmailSequence, error) {
	var s EmailSequence
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO email_sequences (contact_id, sequence_type, step_number, email_template, scheduled_for)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+sequenceColumns,
		arg.ContactID, arg.SequenceType, arg.StepNumber, arg.EmailTemplate, arg.ScheduledFor).
		Scan(&s.ID, &s.ContactID, &s.SequenceType, &s.StepNumber, &s.EmailTemplate,
			&s.ScheduledFor, &s.SentAt, &s.Status)
	return s, err
}

// ListDueSequenceSteps returns pending steps scheduled at or before now.
func (q *Queries) ListDueSequenceSteps(ctx context.Context, now time.Time, limit int) ([]EmailSequence, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+sequenceColumns+`
		FROM email_sequences
		WHERE status = 'pending' AND scheduled_for <= ?
		ORDER BY scheduled_for ASC
		LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []EmailSequence
	for rows.Next() {
		var s EmailSequence
		if err := rows.Scan(&s.ID, &s.ContactID, &s.SequenceType, &s.StepNumber, &s.EmailTemplate,
			&s.ScheduledFor, &s.SentAt, &s.Status); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

// MarkSequenceStepSent marks a step as sent at the given time.
func (q *Queries) MarkSequenceStepSent(ctx context.Context, id int64, sentAt time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE email_sequences SET status = 'sent', sent_at = ? WHERE id = ?`,
		sql.NullTime{Time: sentAt, Valid: true}, id)
	return err
}

// MarkSequenceStepFailed marks a step as failed.
func (q *Queries) MarkSequenceStepFailed(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE email_sequences SET status = 'failed' WHERE id = ?`, id)
	return err
}

// CountPendingSequenceSteps returns the number of steps awaiting dispatch.
func (q *Queries) CountPendingSequenceSteps(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_sequences WHERE status = 'pending'`).Scan(&count)
	return count, err
}
