// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"STUDIO_DB_PATH" envDefault:"./data/studio.db"`
	AuthSecret string `env:"STUDIO_AUTH_SECRET,required"`
	ServerHost string `env:"STUDIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"STUDIO_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"STUDIO_ENV" envDefault:"development"`
	LogLevel   string `env:"STUDIO_LOG_LEVEL" envDefault:"info"`

	UploadsDir string `env:"STUDIO_UPLOADS_DIR" envDefault:"./uploads"`
	BackupsDir string `env:"STUDIO_BACKUPS_DIR" envDefault:"./backups"`

	// Bootstrap admin, created on first start only.
	AdminUsername string `env:"STUDIO_ADMIN_USERNAME" envDefault:"admin"`
	AdminEmail    string `env:"STUDIO_ADMIN_EMAIL" envDefault:"studio@example.com"`
	AdminPassword string `env:"STUDIO_ADMIN_PASSWORD" envDefault:"changeme"`

	// SMTP configuration. Email sending is disabled when the host is empty.
	SMTPHost     string `env:"STUDIO_SMTP_HOST"`
	SMTPPort     int    `env:"STUDIO_SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"STUDIO_SMTP_USERNAME"`
	SMTPPassword string `env:"STUDIO_SMTP_PASSWORD"`
	SMTPFrom     string `env:"STUDIO_SMTP_FROM" envDefault:"noreply@example.com"`
	OwnerEmail   string `env:"STUDIO_OWNER_EMAIL" envDefault:"studio@example.com"`

	// GeoIP configuration
	GeoIPDBPath string `env:"STUDIO_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Rate limiting for public form endpoints, per client IP.
	PublicRateRPS   float64 `env:"STUDIO_PUBLIC_RATE_RPS" envDefault:"2"`
	PublicRateBurst int     `env:"STUDIO_PUBLIC_RATE_BURST" envDefault:"5"`
}

// MinAuthSecretLength is the minimum required length for the token signing secret.
const MinAuthSecretLength = 32

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MailEnabled returns true if SMTP sending is configured.
func (c Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

// GeoIPEnabled returns true if a GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.AuthSecret) < MinAuthSecretLength {
		return nil, fmt.Errorf("STUDIO_AUTH_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinAuthSecretLength, len(cfg.AuthSecret))
	}

	return cfg, nil
}
