// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"time"

	"studio-api/internal/mailer"
	"studio-api/internal/model"
	"studio-api/internal/store"
	"studio-api/internal/util"
)

// Follow-up schedule for new inquiries. Offsets are from submission time.
var inquiryFollowups = []struct {
	step     int64
	template string
	after    time.Duration
}{
	{step: 1, template: "inquiry_followup", after: 48 * time.Hour},
	{step: 2, template: "inquiry_followup", after: 7 * 24 * time.Hour},
}

// submitContact persists an inquiry and runs its side effects: the follow-up
// drip steps, an analytics event, and the two transactional emails (owner
// notification, submitter confirmation). Only the initial insert can fail the
// submission; every later step logs and degrades, with the email outcome
// surfaced through the second return value.
func (h *Handler) submitContact(r *http.Request, req CreateContactRequest) (store.Contact, bool, error) {
	ctx := r.Context()

	contact, err := h.queries.CreateContact(ctx, store.CreateContactParams{
		FullName:    req.FullName,
		Email:       req.Email,
		Phone:       util.NullStringFromPtr(req.Phone),
		Message:     req.Message,
		ServiceType: util.NullStringFromPtr(req.ServiceType),
		BudgetRange: util.NullStringFromPtr(req.BudgetRange),
		EventDate:   util.NullStringFromPtr(req.EventDate),
		Location:    util.NullStringFromPtr(req.Location),
	})
	if err != nil {
		return store.Contact{}, false, err
	}

	now := time.Now()
	for _, fu := range inquiryFollowups {
		_, err := h.queries.CreateSequenceStep(ctx, store.CreateSequenceStepParams{
			ContactID:     contact.ID,
			SequenceType:  model.SequenceTypeNewInquiry,
			StepNumber:    fu.step,
			EmailTemplate: fu.template,
			ScheduledFor:  now.Add(fu.after),
		})
		if err != nil {
			slog.Error("failed to enqueue follow-up step", "contact_id", contact.ID, "step", fu.step, "error", err)
		}
	}

	h.recordEvent(r, "contact_form", model.Document{
		"contact_id":   contact.ID,
		"service_type": util.StringOrEmpty(contact.ServiceType),
	})

	emailSent := h.sendContactEmails(ctx, contact)
	return contact, emailSent, nil
}

// sendContactEmails delivers the owner notification and the submitter
// confirmation. Both must succeed for the submission to count as emailed.
func (h *Handler) sendContactEmails(ctx context.Context, contact store.Contact) bool {
	if !h.mail.Enabled() {
		return false
	}

	data := map[string]string{
		"full_name":    contact.FullName,
		"email":        contact.Email,
		"phone":        util.StringOrEmpty(contact.Phone),
		"message":      contact.Message,
		"service_type": util.StringOrEmpty(contact.ServiceType),
		"budget_range": util.StringOrEmpty(contact.BudgetRange),
		"event_date":   util.StringOrEmpty(contact.EventDate),
		"location":     util.StringOrEmpty(contact.Location),
	}

	sent := true
	if h.cfg.OwnerEmail != "" {
		if err := h.mail.SendTemplate(ctx, "contact_notification", h.cfg.OwnerEmail, data); err != nil {
			slog.Error("owner notification failed", "contact_id", contact.ID, "error", err)
			sent = false
		}
	}
	if err := h.mail.SendTemplate(ctx, "contact_confirmation", contact.Email, data); err != nil {
		slog.Error("contact confirmation failed", "contact_id", contact.ID, "error", err)
		sent = false
	}
	return sent
}

// SendContactEmail handles POST /email/contact (public). Same pipeline as
// POST /contacts, kept as a separate route for form integrations.
func (h *Handler) SendContactEmail(w http.ResponseWriter, r *http.Request) {
	h.CreateContact(w, r)
}

// NewsletterSignupRequest is the request body for POST /email/newsletter.
type NewsletterSignupRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewsletterSignup handles POST /email/newsletter (public). The signup is
// recorded as an analytics event and answered with the welcome template.
func (h *Handler) NewsletterSignup(w http.ResponseWriter, r *http.Request) {
	var req NewsletterSignupRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" {
		WriteValidationError(w, map[string]string{"email": "Email is required"})
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		WriteValidationError(w, map[string]string{"email": "Email is not a valid address"})
		return
	}

	h.recordEvent(r, "newsletter_signup", model.Document{"email": req.Email, "name": req.Name})

	emailSent := false
	if err := h.mail.SendTemplate(r.Context(), "newsletter_welcome", req.Email, map[string]string{"name": req.Name}); err != nil {
		if !errors.Is(err, mailer.ErrDisabled) {
			slog.Error("newsletter welcome failed", "email", req.Email, "error", err)
		}
	} else {
		emailSent = true
	}

	WriteSuccessMessage(w, "You are on the list.", map[string]any{"email_sent": emailSent})
}

// TestEmailRequest is the request body for POST /email/test.
type TestEmailRequest struct {
	To string `json:"to"`
}

// TestEmail handles POST /email/test (admin). Verifies SMTP configuration
// end to end.
func (h *Handler) TestEmail(w http.ResponseWriter, r *http.Request) {
	var req TestEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}
	to := req.To
	if to == "" {
		to = h.cfg.OwnerEmail
	}
	if to == "" {
		WriteValidationError(w, map[string]string{"to": "Recipient is required"})
		return
	}

	if !h.mail.Enabled() {
		WriteError(w, http.StatusServiceUnavailable, "SMTP is not configured")
		return
	}

	if err := h.mail.Send(to, "Studio API test message", "<p>SMTP delivery is working.</p>"); err != nil {
		WriteError(w, http.StatusBadGateway, "Test email failed: "+err.Error())
		return
	}

	WriteSuccessMessage(w, "Test email sent to "+to, nil)
}
