// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves visitor IPs to country codes using a MaxMind
// GeoLite2-Country database. Lookups degrade to an empty code when no
// database is configured.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"
)

var privateCIDRs []*net.IPNet

func init() {
	blocks := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"fc00::/7",
		"fe80::/10",
	}
	for _, block := range blocks {
		_, cidr, err := net.ParseCIDR(block)
		if err == nil {
			privateCIDRs = append(privateCIDRs, cidr)
		}
	}
}

// Reader wraps a MaxMind database handle. The disabled state (empty path)
// is valid and answers every lookup with "".
type Reader struct {
	db        *maxminddb.Reader
	dbPath    string
	dbModTime time.Time
	enabled   bool
	mu        sync.RWMutex
}

type geoRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open creates a Reader for the database at path. An empty path disables
// lookups without error; a missing or unreadable file is reported so the
// caller can log it and continue disabled.
func Open(path string) (*Reader, error) {
	r := &Reader{dbPath: path}
	if path == "" {
		return r, nil
	}
	if err := r.load(); err != nil {
		return r, err
	}
	return r, nil
}

// load opens or reopens the database file. Reload holds the write lock;
// Open calls it before the Reader is shared.
func (r *Reader) load() error {
	info, err := os.Stat(r.dbPath)
	if err != nil {
		r.enabled = false
		if os.IsNotExist(err) {
			return fmt.Errorf("geoip database not found: %s", r.dbPath)
		}
		return fmt.Errorf("geoip database stat: %w", err)
	}

	if r.db != nil && info.ModTime().Equal(r.dbModTime) {
		return nil
	}
	if r.db != nil {
		_ = r.db.Close()
		r.db = nil
	}

	db, err := maxminddb.Open(r.dbPath)
	if err != nil {
		r.enabled = false
		return fmt.Errorf("geoip database open: %w", err)
	}

	r.db = db
	r.dbModTime = info.ModTime()
	r.enabled = true
	return nil
}

// Reload reopens the database if the file changed. Safe to call from a cron
// job.
func (r *Reader) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dbPath == "" {
		return nil
	}
	return r.load()
}

// CountryCode returns the two-letter ISO country code for an IP, "LOCAL"
// for private and loopback addresses, or "" when it cannot be determined.
func (r *Reader) CountryCode(ip string) string {
	if r == nil {
		return ""
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || isPrivateIP(parsed) {
		return "LOCAL"
	}
	if !r.enabled || r.db == nil {
		return ""
	}

	var record geoRecord
	if err := r.db.Lookup(parsed, &record); err != nil {
		return ""
	}
	return record.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (r *Reader) Enabled() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// Close releases the database handle.
func (r *Reader) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		r.enabled = false
		return err
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
