// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"net/http/httptest"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Hello World", "hello-world"},
		{"accented", "Café au Lait", "cafe-au-lait"},
		{"punctuation", "What's New? (2026 Edition)", "whats-new-2026-edition"},
		{"multiple spaces", "too   many   spaces", "too-many-spaces"},
		{"leading and trailing", "  -- trimmed --  ", "trimmed"},
		{"cyrillic", "Привет мир", "privet-mir"},
		{"already a slug", "already-a-slug", "already-a-slug"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"hello-world", true},
		{"a", true},
		{"with-123-numbers", true},
		{"", false},
		{"Hello", false},
		{"-leading", false},
		{"trailing-", false},
		{"double--hyphen", false},
		{"with space", false},
	}
	for _, tt := range tests {
		if got := IsValidSlug(tt.in); got != tt.want {
			t.Errorf("IsValidSlug(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.7:54321",
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip wins",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Real-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "first forwarded-for entry",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.2, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.7",
			want:       "203.0.113.7",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNullStringHelpers(t *testing.T) {
	if ns := NullStringFromValue(""); ns.Valid {
		t.Error("NullStringFromValue(\"\") should be invalid")
	}
	if ns := NullStringFromValue("x"); !ns.Valid || ns.String != "x" {
		t.Errorf("NullStringFromValue(\"x\") = %+v", ns)
	}

	if ns := NullStringFromPtr(nil); ns.Valid {
		t.Error("NullStringFromPtr(nil) should be invalid")
	}
	s := "y"
	if ns := NullStringFromPtr(&s); !ns.Valid || ns.String != "y" {
		t.Errorf("NullStringFromPtr(&y) = %+v", ns)
	}

	if got := StringOrEmpty(NullStringFromValue("z")); got != "z" {
		t.Errorf("StringOrEmpty(valid) = %q", got)
	}
	if got := StringOrEmpty(NullStringFromPtr(nil)); got != "" {
		t.Errorf("StringOrEmpty(invalid) = %q", got)
	}
	if got := StringPtr(NullStringFromPtr(nil)); got != nil {
		t.Errorf("StringPtr(invalid) = %v, want nil", got)
	}
}
