// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"studio-api/internal/config"
	"studio-api/internal/geoip"
	"studio-api/internal/imaging"
	"studio-api/internal/mailer"
	"studio-api/internal/middleware"
	"studio-api/internal/model"
	"studio-api/internal/store"
)

// testDB creates an in-memory SQLite database with the studio schema.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'admin',
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			full_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			message TEXT NOT NULL,
			service_type TEXT,
			budget_range TEXT,
			event_date TEXT,
			location TEXT,
			status TEXT NOT NULL DEFAULT 'new',
			notes TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE blog_posts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			excerpt TEXT,
			featured_image_url TEXT,
			author_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			published_at DATETIME,
			tags TEXT NOT NULL DEFAULT '[]',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (author_id) REFERENCES users(id)
		);

		CREATE TABLE portfolio_images (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			image_url TEXT NOT NULL,
			thumbnail_url TEXT,
			category TEXT NOT NULL,
			is_featured BOOLEAN NOT NULL DEFAULT 0,
			sort_order INTEGER NOT NULL DEFAULT 0,
			tags TEXT NOT NULL DEFAULT '[]',
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE email_templates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			subject TEXT NOT NULL,
			content TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1
		);

		CREATE TABLE email_sequences (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			contact_id INTEGER NOT NULL,
			sequence_type TEXT NOT NULL,
			step_number INTEGER NOT NULL,
			email_template TEXT NOT NULL,
			scheduled_for DATETIME NOT NULL,
			sent_at DATETIME,
			status TEXT NOT NULL DEFAULT 'pending',
			FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
		);

		CREATE TABLE analytics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			event_data TEXT NOT NULL DEFAULT '{}',
			user_agent TEXT,
			ip_address TEXT,
			referrer TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// testSetup creates a test database and API handler. The mailer carries no
// SMTP host and the GeoIP reader no database, so both are disabled.
func testSetup(t *testing.T) (*sql.DB, *Handler) {
	t.Helper()
	db := testDB(t)

	cfg := &config.Config{
		Env:        "development",
		DBPath:     ":memory:",
		OwnerEmail: "owner@example.com",
	}
	mail := mailer.New(cfg, store.New(db))
	geo, _ := geoip.Open("")
	images := imaging.NewProcessor(t.TempDir(), "/uploads")

	return db, NewHandler(db, cfg, mail, geo, images)
}

// createTestUser inserts a user and returns its id.
func createTestUser(t *testing.T, db *sql.DB, username string) int64 {
	t.Helper()
	result, err := db.Exec(
		`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, 'x', 'admin')`,
		username, username+"@example.com",
	)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	id, _ := result.LastInsertId()
	return id
}

// createTestContact inserts a contact and returns the stored row.
func createTestContact(t *testing.T, db *sql.DB, fullName, email string) store.Contact {
	t.Helper()
	contact, err := store.New(db).CreateContact(context.Background(), store.CreateContactParams{
		FullName: fullName,
		Email:    email,
		Message:  "Interested in a session.",
	})
	if err != nil {
		t.Fatalf("failed to create test contact: %v", err)
	}
	return contact
}

// createTestPost inserts a blog post and returns the stored row.
func createTestPost(t *testing.T, db *sql.DB, authorID int64, title, slug, status string) store.BlogPost {
	t.Helper()
	params := store.CreatePostParams{
		Title:    title,
		Slug:     slug,
		Content:  "Some *markdown* content.",
		AuthorID: authorID,
		Status:   status,
	}
	if status == model.PostStatusPublished {
		params.PublishedAt = sql.NullTime{Time: time.Now(), Valid: true}
	}
	post, err := store.New(db).CreatePost(context.Background(), params)
	if err != nil {
		t.Fatalf("failed to create test post: %v", err)
	}
	return post
}

// createTestImage inserts a portfolio image and returns the stored row.
func createTestImage(t *testing.T, db *sql.DB, title, category string) store.PortfolioImage {
	t.Helper()
	img, err := store.New(db).CreateImage(context.Background(), store.CreateImageParams{
		Title:    title,
		ImageURL: "/uploads/originals/x/" + title + ".jpg",
		Category: category,
	})
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	return img
}

// withPrincipal attaches an authenticated admin principal to the request.
func withPrincipal(r *http.Request, userID int64) *http.Request {
	principal := model.Principal{UserID: userID, Username: "admin", Role: model.RoleAdmin}
	ctx := context.WithValue(r.Context(), middleware.ContextKeyPrincipal, principal)
	return r.WithContext(ctx)
}

// requestWithURLParams adds chi URL parameters to a request.
func requestWithURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// newJSONRequest creates an HTTP request with a JSON body and optional URL params.
func newJSONRequest(t *testing.T, method, path, body string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// newGetRequest creates an HTTP GET request with optional URL params.
func newGetRequest(t *testing.T, path string, params map[string]string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if len(params) > 0 {
		req = requestWithURLParams(req, params)
	}
	return req
}

// executeHandler executes a handler and returns the response recorder.
func executeHandler(t *testing.T, handler func(http.ResponseWriter, *http.Request), req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

// envelope mirrors Envelope with raw data for per-test decoding.
type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

// decodeEnvelope unmarshals the response envelope.
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var resp envelope
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v (body: %s)", err, w.Body.String())
	}
	return resp
}

// decodeData unmarshals the envelope's data field into T.
func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	resp := decodeEnvelope(t, w)
	var out T
	if err := json.Unmarshal(resp.Data, &out); err != nil {
		t.Fatalf("failed to unmarshal data: %v (data: %s)", err, string(resp.Data))
	}
	return out
}

// pagedBody is the decoded shape of a list response.
type pagedBody[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
