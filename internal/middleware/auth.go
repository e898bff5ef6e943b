// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request throttling.
package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"studio-api/internal/auth"
	"studio-api/internal/model"
	"studio-api/internal/store"
)

// ContextKey is the type used for request context keys in this package.
type ContextKey string

// ContextKeyPrincipal is the context key for the authenticated principal.
const ContextKeyPrincipal ContextKey = "principal"

// writeAuthError writes an error in the standard response envelope.
func writeAuthError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}

// bearerToken extracts the token from an Authorization header.
// Returns "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// resolvePrincipal verifies the bearer token and confirms the account is
// still active. Token claims alone are not trusted for account state.
func resolvePrincipal(r *http.Request, issuer *auth.Issuer, queries *store.Queries) (model.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return model.Principal{}, errors.New("missing bearer token")
	}

	principal, err := issuer.Verify(token)
	if err != nil {
		return model.Principal{}, err
	}

	user, err := queries.GetUserByID(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Principal{}, errors.New("unknown user")
		}
		return model.Principal{}, err
	}
	if !user.IsActive {
		return model.Principal{}, errors.New("account is inactive")
	}

	// Role comes from the database, not the token, so demotions take
	// effect before the token expires.
	principal.Role = user.Role
	principal.Username = user.Username
	return principal, nil
}

// RequireAuth creates middleware that rejects requests without a valid
// bearer token.
func RequireAuth(issuer *auth.Issuer, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolvePrincipal(r, issuer, queries)
			if err != nil {
				slog.Debug("authentication failed", "error", err, "path", r.URL.Path)
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth creates middleware that adds the principal to context when a
// valid bearer token is present, and passes the request through otherwise.
// Used on endpoints whose response shape depends on who is asking.
func OptionalAuth(issuer *auth.Issuer, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := resolvePrincipal(r, issuer, queries)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole creates middleware that requires an authenticated principal
// with the given role. Must run after RequireAuth.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r)
			if !ok {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if principal.Role != role {
				writeAuthError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal retrieves the authenticated principal from request context.
func GetPrincipal(r *http.Request) (model.Principal, bool) {
	principal, ok := r.Context().Value(ContextKeyPrincipal).(model.Principal)
	return principal, ok
}
