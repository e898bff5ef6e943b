// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"studio-api/internal/model"
)

const analyticsColumns = `id, event_type, event_data, user_agent, ip_address, referrer, created_at`

// CreateEventParams holds the fields for CreateEvent.
type CreateEventParams struct {
	EventType string
	EventData model.Document
	UserAgent sql.NullString
	IPAddress sql.NullString
	Referrer  sql.NullString
}

// CreateEvent appends one analytics event. Events are never updated.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) (AnalyticsEvent, error) {
	var e AnalyticsEvent
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO analytics (event_type, event_data, user_agent, ip_address, referrer)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+analyticsColumns,
		arg.EventType, arg.EventData, arg.UserAgent, arg.IPAddress, arg.Referrer).
		Scan(&e.ID, &e.EventType, &e.EventData, &e.UserAgent, &e.IPAddress, &e.Referrer, &e.CreatedAt)
	return e, err
}

// TypeCount is a rollup row for event counts grouped by type.
type TypeCount struct {
	EventType string
	Count     int64
}

// CountEventsByType returns event counts grouped by type since the cutoff.
func (q *Queries) CountEventsByType(ctx context.Context, since time.Time) ([]TypeCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) FROM analytics
		WHERE created_at >= ?
		GROUP BY event_type
		ORDER BY COUNT(*) DESC`, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.EventType, &tc.Count); err != nil {
			return nil, err
		}
		items = append(items, tc)
	}
	return items, rows.Err()
}

// DayCount is a rollup row for event counts grouped by calendar day.
type DayCount struct {
	Day   string // YYYY-MM-DD
	Count int64
}

// CountEventsByDay returns event counts per day since the cutoff.
func (q *Queries) CountEventsByDay(ctx context.Context, since time.Time) ([]DayCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT strftime('%Y-%m-%d', created_at) AS day, COUNT(*)
		FROM analytics
		WHERE created_at >= ?
		GROUP BY day
		ORDER BY day`, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, err
		}
		items = append(items, dc)
	}
	return items, rows.Err()
}

// DeleteEventsBefore removes analytics rows older than the cutoff and
// returns the number deleted. Used by the retention sweep.
func (q *Queries) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM analytics WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
