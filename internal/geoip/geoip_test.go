// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"testing"
)

func TestOpen_EmptyPathDisabled(t *testing.T) {
	r, err := Open("")
	if err != nil {
		t.Fatalf("Open(\"\"): %v", err)
	}
	if r.Enabled() {
		t.Error("Enabled() = true without a database")
	}
	if got := r.CountryCode("8.8.8.8"); got != "" {
		t.Errorf("CountryCode = %q, want empty when disabled", got)
	}
	if err := r.Reload(); err != nil {
		t.Errorf("Reload on disabled reader: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	r, err := Open("/nonexistent/GeoLite2-Country.mmdb")
	if err == nil {
		t.Fatal("Open(missing file) error = nil")
	}
	// The reader is still usable, just disabled.
	if r.Enabled() {
		t.Error("Enabled() = true after failed open")
	}
	if got := r.CountryCode("8.8.8.8"); got != "" {
		t.Errorf("CountryCode = %q, want empty", got)
	}
}

func TestCountryCode_LocalAddresses(t *testing.T) {
	r, _ := Open("")

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", "LOCAL"},
		{"::1", "LOCAL"},
		{"10.1.2.3", "LOCAL"},
		{"172.16.0.1", "LOCAL"},
		{"192.168.1.50", "LOCAL"},
		{"fe80::1", "LOCAL"},
		{"fd00::1", "LOCAL"},
		{"not-an-ip", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := r.CountryCode(tt.ip); got != tt.want {
			t.Errorf("CountryCode(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestCountryCode_NilReader(t *testing.T) {
	var r *Reader
	if got := r.CountryCode("127.0.0.1"); got != "" {
		t.Errorf("nil reader CountryCode = %q, want empty", got)
	}
	if r.Enabled() {
		t.Error("nil reader Enabled() = true")
	}
	if err := r.Close(); err != nil {
		t.Errorf("nil reader Close: %v", err)
	}
}
