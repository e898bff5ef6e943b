// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and value types shared across the
// application: entity status enumerations and the JSON-backed column types
// used for tags and metadata.
package model

// RoleAdmin is the admin user role.
const RoleAdmin = "admin"

// Contact statuses represent the booking pipeline.
const (
	ContactStatusNew       = "new"
	ContactStatusContacted = "contacted"
	ContactStatusQualified = "qualified"
	ContactStatusBooked    = "booked"
	ContactStatusCompleted = "completed"
)

// ContactStatuses lists all valid contact statuses in pipeline order.
var ContactStatuses = []string{
	ContactStatusNew,
	ContactStatusContacted,
	ContactStatusQualified,
	ContactStatusBooked,
	ContactStatusCompleted,
}

// IsValidContactStatus reports whether s is a recognized contact status.
func IsValidContactStatus(s string) bool {
	for _, v := range ContactStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Blog post statuses.
const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// IsValidPostStatus reports whether s is a recognized post status.
func IsValidPostStatus(s string) bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Gallery categories.
const (
	PortfolioCategoryBeauty    = "beauty"
	PortfolioCategoryFashion   = "fashion"
	PortfolioCategoryGlamour   = "glamour"
	PortfolioCategoryEditorial = "editorial"
	PortfolioCategoryLifestyle = "lifestyle"
	PortfolioCategoryMotion    = "motion"
)

// PortfolioCategories are the gallery categories accepted by list filters.
// Creation accepts free-form values; filtering validates against this set so
// a typo in a query string fails loudly instead of returning an empty page.
var PortfolioCategories = []string{
	PortfolioCategoryBeauty,
	PortfolioCategoryFashion,
	PortfolioCategoryGlamour,
	PortfolioCategoryEditorial,
	PortfolioCategoryLifestyle,
	PortfolioCategoryMotion,
}

// IsValidPortfolioCategory reports whether c is a recognized gallery category.
func IsValidPortfolioCategory(c string) bool {
	for _, v := range PortfolioCategories {
		if c == v {
			return true
		}
	}
	return false
}

// Email sequence step statuses.
const (
	SequenceStatusPending = "pending"
	SequenceStatusSent    = "sent"
	SequenceStatusFailed  = "failed"
)

// SequenceTypeNewInquiry is the drip campaign enqueued for new contacts.
const SequenceTypeNewInquiry = "new_inquiry"

// Principal is the authenticated identity carried in request context after
// the auth gate has run.
type Principal struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin returns true if the principal has the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
