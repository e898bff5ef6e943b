// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"

	"studio-api/internal/model"
)

// User is a back-office account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contact is an inquiry submitted through the public contact form.
// Everything except Status and Notes is immutable after creation.
type Contact struct {
	ID          int64
	FullName    string
	Email       string
	Phone       sql.NullString
	Message     string
	ServiceType sql.NullString
	BudgetRange sql.NullString
	EventDate   sql.NullString
	Location    sql.NullString
	Status      string
	Notes       sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BlogPost is a journal entry. Content is stored as raw markdown and
// rendered to sanitized HTML when served publicly.
type BlogPost struct {
	ID               int64
	Title            string
	Slug             string
	Content          string
	Excerpt          sql.NullString
	FeaturedImageURL sql.NullString
	AuthorID         int64
	Status           string
	PublishedAt      sql.NullTime
	Tags             model.StringList
	Metadata         model.Document
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PortfolioImage is a gallery entry ordered by (sort_order asc, created_at desc).
type PortfolioImage struct {
	ID           int64
	Title        string
	Description  sql.NullString
	ImageURL     string
	ThumbnailURL sql.NullString
	Category     string
	IsFeatured   bool
	SortOrder    int64
	Tags         model.StringList
	Metadata     model.Document
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// EmailTemplate holds a transactional email body with {{placeholder}} markers.
type EmailTemplate struct {
	ID       int64
	Name     string
	Subject  string
	Content  string
	IsActive bool
}

// EmailSequence is one scheduled step of a drip campaign.
type EmailSequence struct {
	ID            int64
	ContactID     int64
	SequenceType  string
	StepNumber    int64
	EmailTemplate string
	ScheduledFor  time.Time
	SentAt        sql.NullTime
	Status        string
}

// AnalyticsEvent is an append-only tracking record.
type AnalyticsEvent struct {
	ID        int64
	EventType string
	EventData model.Document
	UserAgent sql.NullString
	IPAddress sql.NullString
	Referrer  sql.NullString
	CreatedAt time.Time
}
