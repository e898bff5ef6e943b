// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studio-api/internal/auth"
	"studio-api/internal/model"
	"studio-api/internal/store"
	"studio-api/internal/testutil"
)

func authFixture(t *testing.T) (*sql.DB, *auth.Issuer, store.User) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: "x",
		Role:         model.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return db, auth.NewIssuer("test-secret"), user
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal, ok := GetPrincipal(r); ok {
			w.Header().Set("X-Principal", principal.Username)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	db, issuer, user := authFixture(t)
	handler := RequireAuth(issuer, db)(principalEcho())

	token, err := issuer.Issue(user.ID, user.Username, user.Role, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token " + token, http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.token", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRequireAuth_InactiveAccount(t *testing.T) {
	db, issuer, user := authFixture(t)
	handler := RequireAuth(issuer, db)(principalEcho())

	token, err := issuer.Issue(user.ID, user.Username, user.Role, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, user.ID); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/contacts", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	// An otherwise valid token stops working the moment the account is
	// deactivated.
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestOptionalAuth(t *testing.T) {
	db, issuer, user := authFixture(t)
	handler := OptionalAuth(issuer, db)(principalEcho())

	token, err := issuer.Issue(user.ID, user.Username, user.Role, time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/blog", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("anonymous status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("X-Principal") != "" {
		t.Error("anonymous request carried a principal")
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/blog", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("X-Principal") != "admin" {
		t.Errorf("principal = %q, want admin", w.Header().Get("X-Principal"))
	}
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(model.RoleAdmin)(principalEcho())

	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no principal: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	ctx := context.WithValue(r.Context(), ContextKeyPrincipal, model.Principal{UserID: 1, Role: "editor"})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r.WithContext(ctx))
	if w.Code != http.StatusForbidden {
		t.Errorf("wrong role: status = %d, want %d", w.Code, http.StatusForbidden)
	}

	ctx = context.WithValue(r.Context(), ContextKeyPrincipal, model.Principal{UserID: 1, Role: model.RoleAdmin})
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r.WithContext(ctx))
	if w.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestPublicRateLimiter(t *testing.T) {
	rl := NewPublicRateLimiter(1, 2)
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/contacts", nil)
		r.RemoteAddr = ip + ":12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	if code := send("203.0.113.1"); code != http.StatusOK {
		t.Errorf("request 1 = %d, want 200", code)
	}
	if code := send("203.0.113.1"); code != http.StatusOK {
		t.Errorf("request 2 = %d, want 200", code)
	}
	if code := send("203.0.113.1"); code != http.StatusTooManyRequests {
		t.Errorf("request 3 = %d, want 429", code)
	}

	// A different client is unaffected.
	if code := send("203.0.113.2"); code != http.StatusOK {
		t.Errorf("other client = %d, want 200", code)
	}
}
