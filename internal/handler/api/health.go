// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"
)

// Health handles GET /health (public). Reports liveness plus a database
// ping so load balancers catch a wedged SQLite file.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime).Round(time.Second).String()

	if err := h.db.PingContext(r.Context()); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, Envelope{
			Success: false,
			Message: "Database unavailable",
			Data: map[string]any{
				"status":   "degraded",
				"uptime":   uptime,
				"database": "unreachable",
			},
		})
		return
	}

	WriteSuccess(w, map[string]any{
		"status":   "ok",
		"uptime":   uptime,
		"database": "ok",
	})
}
