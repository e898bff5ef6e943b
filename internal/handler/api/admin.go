// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"studio-api/internal/util"
	"studio-api/internal/version"
)

// analyticsRetention is how long raw analytics events are kept.
const analyticsRetention = 365 * 24 * time.Hour

// SetVersionInfo attaches build metadata for the system endpoint.
func (h *Handler) SetVersionInfo(v version.Info) {
	h.ver = v
}

// Dashboard handles GET /admin/dashboard. One call returns the rollups the
// admin UI needs for its landing page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	contactsByStatus, err := h.queries.CountContactsByStatus(ctx)
	if err != nil {
		h.internalError(w, "Failed to load dashboard", err)
		return
	}
	statusCounts := make(map[string]int64, len(contactsByStatus))
	var totalContacts int64
	for _, sc := range contactsByStatus {
		statusCounts[sc.Status] = sc.Count
		totalContacts += sc.Count
	}

	postsByStatus, err := h.queries.CountPostsByStatus(ctx)
	if err != nil {
		h.internalError(w, "Failed to load dashboard", err)
		return
	}
	postCounts := make(map[string]int64, len(postsByStatus))
	var totalPosts int64
	for _, sc := range postsByStatus {
		postCounts[sc.Status] = sc.Count
		totalPosts += sc.Count
	}

	imagesByCategory, err := h.queries.CountImagesByCategory(ctx)
	if err != nil {
		h.internalError(w, "Failed to load dashboard", err)
		return
	}
	categoryCounts := make(map[string]int64, len(imagesByCategory))
	var totalImages int64
	for _, cc := range imagesByCategory {
		categoryCounts[cc.Category] = cc.Count
		totalImages += cc.Count
	}

	recent, err := h.queries.ListRecentContacts(ctx, 5)
	if err != nil {
		h.internalError(w, "Failed to load dashboard", err)
		return
	}

	pendingSteps, err := h.queries.CountPendingSequenceSteps(ctx)
	if err != nil {
		h.internalError(w, "Failed to load dashboard", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"contacts": map[string]any{
			"total":     totalContacts,
			"by_status": statusCounts,
		},
		"posts": map[string]any{
			"total":     totalPosts,
			"by_status": postCounts,
		},
		"portfolio": map[string]any{
			"total":       totalImages,
			"by_category": categoryCounts,
		},
		"email": map[string]any{
			"pending_sequence_steps": pendingSteps,
		},
		"recent_contacts": contactsToResponses(recent),
	})
}

// AdminAnalytics handles GET /admin/analytics?days=N (default 30, max 365).
func (h *Handler) AdminAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days := ParseIntParam(r, "days", 30, 1, 365)
	since := time.Now().AddDate(0, 0, -days)

	byType, err := h.queries.CountEventsByType(ctx, since)
	if err != nil {
		h.internalError(w, "Failed to load analytics", err)
		return
	}
	typeCounts := make(map[string]int64, len(byType))
	var total int64
	for _, tc := range byType {
		typeCounts[tc.EventType] = tc.Count
		total += tc.Count
	}

	byDay, err := h.queries.CountEventsByDay(ctx, since)
	if err != nil {
		h.internalError(w, "Failed to load analytics", err)
		return
	}
	dayCounts := make([]map[string]any, 0, len(byDay))
	for _, dc := range byDay {
		dayCounts = append(dayCounts, map[string]any{"day": dc.Day, "count": dc.Count})
	}

	WriteSuccess(w, map[string]any{
		"days":    days,
		"total":   total,
		"by_type": typeCounts,
		"by_day":  dayCounts,
	})
}

// exportColumns is the fixed CSV header for contact exports.
var exportColumns = []string{
	"id", "full_name", "email", "phone", "message", "service_type",
	"budget_range", "event_date", "location", "status", "notes",
	"created_at", "updated_at",
}

// ExportContacts handles GET /admin/export/contacts. Streams every contact
// as CSV, oldest first. Every field is quoted; absent optionals export as "".
func (h *Handler) ExportContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.queries.ListAllContacts(r.Context())
	if err != nil {
		// The query runs before any CSV bytes go out, so a failure is still
		// reported as a JSON error.
		h.internalError(w, "Failed to export contacts", err)
		return
	}

	filename := "contacts-" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	writeCSVLine(w, exportColumns)
	for _, c := range contacts {
		writeCSVLine(w, []string{
			fmt.Sprintf("%d", c.ID),
			c.FullName,
			c.Email,
			util.StringOrEmpty(c.Phone),
			c.Message,
			util.StringOrEmpty(c.ServiceType),
			util.StringOrEmpty(c.BudgetRange),
			util.StringOrEmpty(c.EventDate),
			util.StringOrEmpty(c.Location),
			c.Status,
			util.StringOrEmpty(c.Notes),
			c.CreatedAt.Format(time.RFC3339),
			c.UpdatedAt.Format(time.RFC3339),
		})
	}
}

// writeCSVLine writes one CSV record with every field quoted. encoding/csv
// only quotes when forced to, and the export format quotes unconditionally,
// so the quoting is done by hand.
func writeCSVLine(w http.ResponseWriter, fields []string) {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	fmt.Fprint(w, strings.Join(quoted, ",")+"\r\n")
}

// System handles GET /admin/system.
func (h *Handler) System(w http.ResponseWriter, r *http.Request) {
	var dbSize int64
	if info, err := os.Stat(h.cfg.DBPath); err == nil {
		dbSize = info.Size()
	}

	WriteSuccess(w, map[string]any{
		"version":     h.ver.Version,
		"git_commit":  h.ver.GitCommit,
		"build_time":  h.ver.BuildTime,
		"go_version":  runtime.Version(),
		"environment": h.cfg.Env,
		"uptime":      time.Since(h.startTime).Round(time.Second).String(),
		"db_path":     h.cfg.DBPath,
		"db_size":     dbSize,
		"mail":        h.mail.Enabled(),
		"geoip":       h.geo.Enabled(),
	})
}

// Backup handles POST /admin/backup. VACUUM INTO produces a consistent
// snapshot without blocking writers.
func (h *Handler) Backup(w http.ResponseWriter, r *http.Request) {
	if err := os.MkdirAll(h.cfg.BackupsDir, 0o755); err != nil {
		h.internalError(w, "Failed to create backup directory", err)
		return
	}

	filename := "studio-" + time.Now().Format("20060102-150405") + ".db"
	target := filepath.Join(h.cfg.BackupsDir, filename)

	if _, err := h.db.ExecContext(r.Context(), `VACUUM INTO ?`, target); err != nil {
		h.internalError(w, "Backup failed", err)
		return
	}

	var size int64
	if info, err := os.Stat(target); err == nil {
		size = info.Size()
	}

	WriteSuccessMessage(w, "Backup created", map[string]any{
		"file": filename,
		"size": size,
	})
}

// CleanupAnalytics handles POST /admin/analytics/cleanup. Deletes events
// older than the retention window and reports how many went.
func (h *Handler) CleanupAnalytics(w http.ResponseWriter, r *http.Request) {
	cutoff := time.Now().Add(-analyticsRetention)
	deleted, err := h.queries.DeleteEventsBefore(r.Context(), cutoff)
	if err != nil {
		h.internalError(w, "Cleanup failed", err)
		return
	}

	WriteSuccessMessage(w, "Analytics cleanup complete", map[string]any{
		"deleted": deleted,
		"cutoff":  cutoff.Format(time.RFC3339),
	})
}
