// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"
	"testing"

	"studio-api/internal/model"
)

func TestExportContacts_CSVFormat(t *testing.T) {
	db, h := testSetup(t)
	createTestContact(t, db, "Quote \"Me\"", "quoted@example.com")
	createTestContact(t, db, "Plain", "plain@example.com")

	req := newGetRequest(t, "/api/v1/admin/export/contacts", nil)
	w := executeHandler(t, h.ExportContacts, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}

	lines := strings.Split(strings.TrimRight(w.Body.String(), "\r\n"), "\r\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3 (header + 2 contacts)", len(lines))
	}

	wantHeader := `"id","full_name","email","phone","message","service_type","budget_range","event_date","location","status","notes","created_at","updated_at"`
	if lines[0] != wantHeader {
		t.Errorf("header = %q, want %q", lines[0], wantHeader)
	}

	// Oldest first; every field quoted, absent optionals as ""
	if !strings.Contains(lines[1], `"Quote ""Me"""`) {
		t.Errorf("line 1 = %q, want escaped quoted name", lines[1])
	}
	if !strings.Contains(lines[1], `"",`) {
		t.Errorf("line 1 = %q, want empty quoted field for null phone", lines[1])
	}
	if !strings.Contains(lines[2], `"plain@example.com"`) {
		t.Errorf("line 2 = %q, want second contact", lines[2])
	}
}

func TestExportContacts_Empty(t *testing.T) {
	_, h := testSetup(t)

	req := newGetRequest(t, "/api/v1/admin/export/contacts", nil)
	w := executeHandler(t, h.ExportContacts, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	lines := strings.Split(strings.TrimRight(w.Body.String(), "\r\n"), "\r\n")
	if len(lines) != 1 {
		t.Errorf("lines = %d, want 1 (header only)", len(lines))
	}
}

func TestDashboard(t *testing.T) {
	db, h := testSetup(t)
	authorID := createTestUser(t, db, "author")
	createTestContact(t, db, "Lead", "lead@example.com")
	createTestPost(t, db, authorID, "Post", "post", model.PostStatusPublished)
	createTestImage(t, db, "img", model.PortfolioCategoryBeauty)

	req := newGetRequest(t, "/api/v1/admin/dashboard", nil)
	w := executeHandler(t, h.Dashboard, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	data := decodeData[struct {
		Contacts struct {
			Total    int64            `json:"total"`
			ByStatus map[string]int64 `json:"by_status"`
		} `json:"contacts"`
		Posts struct {
			Total int64 `json:"total"`
		} `json:"posts"`
		Portfolio struct {
			Total int64 `json:"total"`
		} `json:"portfolio"`
		RecentContacts []ContactResponse `json:"recent_contacts"`
	}](t, w)

	if data.Contacts.Total != 1 {
		t.Errorf("contacts total = %d, want 1", data.Contacts.Total)
	}
	if data.Posts.Total != 1 {
		t.Errorf("posts total = %d, want 1", data.Posts.Total)
	}
	if data.Portfolio.Total != 1 {
		t.Errorf("portfolio total = %d, want 1", data.Portfolio.Total)
	}
	if len(data.RecentContacts) != 1 {
		t.Errorf("recent contacts = %d, want 1", len(data.RecentContacts))
	}
}

func TestAdminAnalytics(t *testing.T) {
	db, h := testSetup(t)
	if _, err := db.Exec(
		`INSERT INTO analytics (event_type) VALUES ('page_view'), ('page_view'), ('contact_form')`); err != nil {
		t.Fatalf("seeding events: %v", err)
	}

	req := newGetRequest(t, "/api/v1/admin/analytics?days=7", nil)
	w := executeHandler(t, h.AdminAnalytics, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	data := decodeData[struct {
		Days   int              `json:"days"`
		Total  int64            `json:"total"`
		ByType map[string]int64 `json:"by_type"`
	}](t, w)

	if data.Days != 7 {
		t.Errorf("days = %d, want 7", data.Days)
	}
	if data.Total != 3 {
		t.Errorf("total = %d, want 3", data.Total)
	}
	if data.ByType["page_view"] != 2 {
		t.Errorf("page_view = %d, want 2", data.ByType["page_view"])
	}
}

func TestCleanupAnalytics(t *testing.T) {
	db, h := testSetup(t)
	if _, err := db.Exec(`
		INSERT INTO analytics (event_type, created_at) VALUES
		('old_event', datetime('now', '-2 years')),
		('fresh_event', datetime('now'))`); err != nil {
		t.Fatalf("seeding events: %v", err)
	}

	req := newJSONRequest(t, http.MethodDelete, "/api/v1/admin/analytics/cleanup", "", nil)
	w := executeHandler(t, h.CleanupAnalytics, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	data := decodeData[struct {
		Deleted int64 `json:"deleted"`
	}](t, w)
	if data.Deleted != 1 {
		t.Errorf("deleted = %d, want 1", data.Deleted)
	}

	var remaining int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM analytics`).Scan(&remaining); err != nil {
		t.Fatalf("counting events: %v", err)
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}
}

func TestTrackEvent(t *testing.T) {
	db, h := testSetup(t)

	body := `{"event_type": "page_view", "event_data": {"path": "/portfolio"}}`
	req := newJSONRequest(t, http.MethodPost, "/api/v1/analytics/track", body, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	w := executeHandler(t, h.TrackEvent, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var eventData string
	if err := db.QueryRow(`SELECT event_data FROM analytics WHERE event_type = 'page_view'`).Scan(&eventData); err != nil {
		t.Fatalf("reading event: %v", err)
	}
	if !strings.Contains(eventData, `"path":"/portfolio"`) {
		t.Errorf("event_data = %q, want client path preserved", eventData)
	}
	if !strings.Contains(eventData, `"device":"mobile"`) {
		t.Errorf("event_data = %q, want server-derived device annotation", eventData)
	}
}

func TestTrackEvent_RequiresType(t *testing.T) {
	_, h := testSetup(t)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/analytics/track", `{"event_data": {}}`, nil)
	w := executeHandler(t, h.TrackEvent, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
