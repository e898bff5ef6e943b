// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that mirrors WARN and ERROR
// records into the analytics table as system_log events, so operational
// problems show up in the same admin views as visitor activity.
package logging

import (
	"context"
	"database/sql"
	"log/slog"

	"studio-api/internal/model"
	"studio-api/internal/store"
)

// SystemLogEventType is the analytics event type used for mirrored logs.
const SystemLogEventType = "system_log"

// SystemLogHandler wraps another slog.Handler and additionally persists
// records at or above its threshold level.
type SystemLogHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
}

// NewSystemLogHandler wraps inner with database mirroring at WARN and above.
func NewSystemLogHandler(inner slog.Handler, db *sql.DB) *SystemLogHandler {
	return &SystemLogHandler{
		inner:   inner,
		queries: store.New(db),
		level:   slog.LevelWarn,
	}
}

// Enabled implements slog.Handler.
func (h *SystemLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *SystemLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.inner.Handle(ctx, r); err != nil {
		return err
	}
	if r.Level >= h.level {
		h.persist(r)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *SystemLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SystemLogHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
	}
}

// WithGroup implements slog.Handler.
func (h *SystemLogHandler) WithGroup(name string) slog.Handler {
	return &SystemLogHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
	}
}

// persist writes the record as an analytics event. A background context is
// used so a cancelled request cannot drop the log entry, and the write
// itself is best effort: a broken database must not take down logging.
func (h *SystemLogHandler) persist(r slog.Record) {
	data := model.Document{
		"level":   r.Level.String(),
		"message": r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		data[a.Key] = a.Value.String()
		return true
	})

	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		EventType: SystemLogEventType,
		EventData: data,
	})
}
