// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"studio-api/internal/testutil"
)

func TestSystemLogHandler_MirrorsWarnings(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewSystemLogHandler(inner, db))

	logger.Info("routine startup", "port", 8080)
	logger.Warn("disk space low", "free_mb", 120)
	logger.Error("backup failed", "error", "disk full")

	rows, err := db.Query(
		`SELECT event_data FROM analytics WHERE event_type = ? ORDER BY id`, SystemLogEventType)
	if err != nil {
		t.Fatalf("querying events: %v", err)
	}
	defer func() { _ = rows.Close() }()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			t.Fatalf("scanning event: %v", err)
		}
		bodies = append(bodies, body)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterating events: %v", err)
	}

	// INFO stays out of the database; WARN and ERROR are mirrored.
	if len(bodies) != 2 {
		t.Fatalf("persisted events = %d, want 2", len(bodies))
	}
	if !strings.Contains(bodies[0], `"message":"disk space low"`) || !strings.Contains(bodies[0], `"free_mb":"120"`) {
		t.Errorf("warn event = %s", bodies[0])
	}
	if !strings.Contains(bodies[1], `"level":"ERROR"`) {
		t.Errorf("error event = %s", bodies[1])
	}
}

func TestSystemLogHandler_WithAttrsKeepsMirroring(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := slog.New(NewSystemLogHandler(inner, db)).With("component", "scheduler")

	logger.Warn("job overran")

	var count int64
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM analytics WHERE event_type = ?`, SystemLogEventType).Scan(&count); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if count != 1 {
		t.Errorf("persisted events = %d, want 1", count)
	}
}
