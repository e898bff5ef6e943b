// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const contactColumns = `id, full_name, email, phone, message, service_type, budget_range,
	event_date, location, status, notes, created_at, updated_at`

func scanContact(row *sql.Row) (Contact, error) {
	var c Contact
	err := row.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Message, &c.ServiceType,
		&c.BudgetRange, &c.EventDate, &c.Location, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanContactRows(rows *sql.Rows) ([]Contact, error) {
	defer func() { _ = rows.Close() }()
	var items []Contact
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Message, &c.ServiceType,
			&c.BudgetRange, &c.EventDate, &c.Location, &c.Status, &c.Notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// CreateContactParams holds the fields for CreateContact. Status is not a
// parameter: new contacts always enter the pipeline as "new".
type CreateContactParams struct {
	FullName    string
	Email       string
	Phone       sql.NullString
	Message     string
	ServiceType sql.NullString
	BudgetRange sql.NullString
	EventDate   sql.NullString
	Location    sql.NullString
}

// CreateContact inserts a contact and returns the stored row.
func (q *Queries) CreateContact(ctx context.Context, arg CreateContactParams) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO contacts (full_name, email, phone, message, service_type, budget_range, event_date, location)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+contactColumns,
		arg.FullName, arg.Email, arg.Phone, arg.Message,
		arg.ServiceType, arg.BudgetRange, arg.EventDate, arg.Location,
	)
	return scanContact(row)
}

// GetContactByID returns the contact with the given id.
func (q *Queries) GetContactByID(ctx context.Context, id int64) (Contact, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+contactColumns+` FROM contacts WHERE id = ?`, id)
	return scanContact(row)
}

// ListContacts returns one page of contacts matching the filter, newest first.
func (q *Queries) ListContacts(ctx context.Context, f *Filter, limit, offset int) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contactColumns+`
		FROM contacts `+f.Where()+`
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`,
		f.ArgsWith(limit, offset)...,
	)
	if err != nil {
		return nil, err
	}
	return scanContactRows(rows)
}

// CountContacts returns the number of contacts matching the filter.
func (q *Queries) CountContacts(ctx context.Context, f *Filter) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts `+f.Where(), f.Args()...).Scan(&count)
	return count, err
}

// UpdateContactParams holds the mutable contact fields. Nil fields are left
// untouched; contacts are immutable apart from status and notes.
type UpdateContactParams struct {
	ID     int64
	Status *string
	Notes  *string
}

// UpdateContact applies a partial update and returns the stored row.
func (q *Queries) UpdateContact(ctx context.Context, arg UpdateContactParams) (Contact, error) {
	var sc setClause
	if arg.Status != nil {
		sc.set("status", *arg.Status)
	}
	if arg.Notes != nil {
		sc.set("notes", *arg.Notes)
	}
	// Empty payload is a no-op; do not bump updated_at.
	if sc.empty() {
		return q.GetContactByID(ctx, arg.ID)
	}
	set, args := sc.build(arg.ID)
	if _, err := q.db.ExecContext(ctx, `UPDATE contacts `+set+` WHERE id = ?`, args...); err != nil {
		return Contact{}, err
	}
	return q.GetContactByID(ctx, arg.ID)
}

// DeleteContact removes a contact. Rows in email_sequences cascade.
func (q *Queries) DeleteContact(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	return err
}

// StatusCount is a rollup row for counts grouped by status.
type StatusCount struct {
	Status string
	Count  int64
}

// CountContactsByStatus returns contact counts grouped by pipeline status.
func (q *Queries) CountContactsByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM contacts GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		items = append(items, sc)
	}
	return items, rows.Err()
}

// MonthCount is a rollup row for counts grouped by calendar month.
type MonthCount struct {
	Month string // YYYY-MM
	Count int64
}

// CountContactsByMonth returns contact counts per month since the cutoff.
func (q *Queries) CountContactsByMonth(ctx context.Context, since time.Time) ([]MonthCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m', created_at) AS month, COUNT(*)
		FROM contacts
		WHERE created_at >= ?
		GROUP BY month
		ORDER BY month`, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []MonthCount
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		items = append(items, mc)
	}
	return items, rows.Err()
}

// ListRecentContacts returns the most recent contacts for the dashboard.
func (q *Queries) ListRecentContacts(ctx context.Context, limit int) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanContactRows(rows)
}

// ListAllContacts returns every contact, oldest first, for CSV export.
func (q *Queries) ListAllContacts(ctx context.Context) ([]Contact, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+contactColumns+` FROM contacts ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	return scanContactRows(rows)
}
