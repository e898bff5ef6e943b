// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"studio-api/internal/auth"
	"studio-api/internal/util"
)

// AuthHandler handles login for the back office.
type AuthHandler struct {
	h      *Handler
	issuer *auth.Issuer
}

// NewAuthHandler creates the auth handler.
func NewAuthHandler(h *Handler, issuer *auth.Issuer) *AuthHandler {
	return &AuthHandler{h: h, issuer: issuer}
}

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /auth/login. A failed lookup and a failed password
// check produce the same response.
func (a *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	fieldErrors := make(map[string]string)
	if req.Username == "" {
		fieldErrors["username"] = "Username is required"
	}
	if req.Password == "" {
		fieldErrors["password"] = "Password is required"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	user, err := a.h.queries.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteUnauthorized(w, "Invalid credentials")
		} else {
			a.h.internalError(w, "Failed to look up user", err)
		}
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil {
		a.h.internalError(w, "Failed to verify credentials", err)
		return
	}
	if !ok || !user.IsActive {
		slog.Warn("failed login attempt", "username", req.Username, "ip", util.ClientIP(r))
		WriteUnauthorized(w, "Invalid credentials")
		return
	}

	token, err := a.issuer.Issue(user.ID, user.Username, user.Role, time.Now())
	if err != nil {
		a.h.internalError(w, "Failed to issue token", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"token":      token,
		"expires_in": int(auth.TokenTTL.Seconds()),
		"user": map[string]any{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		},
	})
}
