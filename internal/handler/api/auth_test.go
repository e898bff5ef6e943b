// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"studio-api/internal/auth"
	"studio-api/internal/model"
	"studio-api/internal/store"
)

func testAuthSetup(t *testing.T) (*sql.DB, *AuthHandler) {
	t.Helper()
	db, h := testSetup(t)
	return db, NewAuthHandler(h, auth.NewIssuer("test-secret"))
}

func createLoginUser(t *testing.T, db *sql.DB, username, password string) store.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	user, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func TestLogin(t *testing.T) {
	db, a := testAuthSetup(t)
	createLoginUser(t, db, "admin", "hunter2hunter2")

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		`{"username": "admin", "password": "hunter2hunter2"}`, nil)
	w := executeHandler(t, a.Login, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", w.Code, http.StatusOK, w.Body.String())
	}
	data := decodeData[struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
		User      struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}](t, w)

	if data.Token == "" {
		t.Error("token is empty")
	}
	if data.ExpiresIn != int(auth.TokenTTL.Seconds()) {
		t.Errorf("expires_in = %d, want %d", data.ExpiresIn, int(auth.TokenTTL.Seconds()))
	}
	if data.User.Role != model.RoleAdmin {
		t.Errorf("role = %q, want %q", data.User.Role, model.RoleAdmin)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	db, a := testAuthSetup(t)
	createLoginUser(t, db, "admin", "hunter2hunter2")

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		`{"username": "admin", "password": "wrong"}`, nil)
	w := executeHandler(t, a.Login, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	_, a := testAuthSetup(t)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		`{"username": "ghost", "password": "whatever"}`, nil)
	w := executeHandler(t, a.Login, req)

	// Same response as a wrong password so usernames cannot be probed.
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	db, a := testAuthSetup(t)
	user := createLoginUser(t, db, "admin", "hunter2hunter2")
	if _, err := db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, user.ID); err != nil {
		t.Fatalf("deactivating user: %v", err)
	}

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/login",
		`{"username": "admin", "password": "hunter2hunter2"}`, nil)
	w := executeHandler(t, a.Login, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	_, a := testAuthSetup(t)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/auth/login", `{}`, nil)
	w := executeHandler(t, a.Login, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := decodeEnvelope(t, w)
	if resp.Errors["username"] == "" || resp.Errors["password"] == "" {
		t.Errorf("errors = %v, want username and password entries", resp.Errors)
	}
}
