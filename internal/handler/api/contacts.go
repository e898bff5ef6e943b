// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"net/mail"
	"time"

	"studio-api/internal/model"
	"studio-api/internal/store"
	"studio-api/internal/util"
)

// ContactResponse represents a contact in API responses. Absent optional
// fields are rendered as null.
type ContactResponse struct {
	ID          int64     `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone"`
	Message     string    `json:"message"`
	ServiceType *string   `json:"service_type"`
	BudgetRange *string   `json:"budget_range"`
	EventDate   *string   `json:"event_date"`
	Location    *string   `json:"location"`
	Status      string    `json:"status"`
	Notes       *string   `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func contactToResponse(c store.Contact) ContactResponse {
	return ContactResponse{
		ID:          c.ID,
		FullName:    c.FullName,
		Email:       c.Email,
		Phone:       util.StringPtr(c.Phone),
		Message:     c.Message,
		ServiceType: util.StringPtr(c.ServiceType),
		BudgetRange: util.StringPtr(c.BudgetRange),
		EventDate:   util.StringPtr(c.EventDate),
		Location:    util.StringPtr(c.Location),
		Status:      c.Status,
		Notes:       util.StringPtr(c.Notes),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func contactsToResponses(contacts []store.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, contactToResponse(c))
	}
	return out
}

// contactFilter builds the shared WHERE clause for the contact list and its
// count query from the request's query string.
func contactFilter(r *http.Request) (*store.Filter, map[string]string) {
	f := store.NewFilter()

	if status := r.URL.Query().Get("status"); status != "" {
		if !model.IsValidContactStatus(status) {
			return nil, map[string]string{"status": "Unknown status: " + status}
		}
		f.Equal("status", status)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		f.Search(search, "full_name", "email", "message")
	}

	return f, nil
}

// ListContacts handles GET /contacts (admin).
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, fieldErrors := contactFilter(r)
	if fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	page := ParsePageParam(r)
	limit := ParseLimitParam(r, 20, 100)

	contacts, err := h.queries.ListContacts(ctx, f, limit, store.Offset(page, limit))
	if err != nil {
		h.internalError(w, "Failed to list contacts", err)
		return
	}
	total, err := h.queries.CountContacts(ctx, f)
	if err != nil {
		h.internalError(w, "Failed to count contacts", err)
		return
	}

	WriteSuccess(w, PagedData{
		Items:      contactsToResponses(contacts),
		Pagination: NewPagination(page, limit, total),
	})
}

// GetContact handles GET /contacts/{id} (admin).
func (h *Handler) GetContact(w http.ResponseWriter, r *http.Request) {
	contact, ok := requireEntityByID(h, w, r, "contact", func(id int64) (store.Contact, error) {
		return h.queries.GetContactByID(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteSuccess(w, map[string]any{"contact": contactToResponse(contact)})
}

// CreateContactRequest is the request body for POST /contacts. A status
// field supplied by the caller is ignored: new inquiries always start at "new".
type CreateContactRequest struct {
	FullName    string  `json:"full_name"`
	Email       string  `json:"email"`
	Phone       *string `json:"phone,omitempty"`
	Message     string  `json:"message"`
	ServiceType *string `json:"service_type,omitempty"`
	BudgetRange *string `json:"budget_range,omitempty"`
	EventDate   *string `json:"event_date,omitempty"`
	Location    *string `json:"location,omitempty"`
}

func (req CreateContactRequest) validate() map[string]string {
	fieldErrors := make(map[string]string)
	if req.FullName == "" {
		fieldErrors["full_name"] = "Full name is required"
	}
	if req.Email == "" {
		fieldErrors["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		fieldErrors["email"] = "Email is not a valid address"
	}
	if req.Message == "" {
		fieldErrors["message"] = "Message is required"
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// CreateContact handles POST /contacts (public). Persists the inquiry,
// enqueues the follow-up drip sequence, and asks the mailer for the owner
// notification and submitter confirmation. Email failure does not roll back
// the stored contact; it is reported separately in the response.
func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fieldErrors := req.validate(); fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	contact, emailSent, err := h.submitContact(r, req)
	if err != nil {
		h.internalError(w, "Failed to create contact", err)
		return
	}

	message := "Thank you for your inquiry. We will get back to you shortly."
	if !emailSent {
		message = "Your inquiry was saved, but the confirmation email could not be sent."
	}
	WriteCreated(w, message, map[string]any{
		"contact":    contactToResponse(contact),
		"email_sent": emailSent,
	})
}

// UpdateContactRequest is the request body for PUT /contacts/{id}. Contacts
// are immutable except for pipeline status and notes.
type UpdateContactRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// UpdateContact handles PUT /contacts/{id} (admin).
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(h, w, r, "contact", func(id int64) (store.Contact, error) {
		return h.queries.GetContactByID(r.Context(), id)
	})
	if !ok {
		return
	}

	var req UpdateContactRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Status == nil && req.Notes == nil {
		WriteBadRequest(w, "Provide at least one of: status, notes")
		return
	}
	if req.Status != nil && !model.IsValidContactStatus(*req.Status) {
		WriteValidationError(w, map[string]string{"status": "Unknown status: " + *req.Status})
		return
	}

	contact, err := h.queries.UpdateContact(r.Context(), store.UpdateContactParams{
		ID:     existing.ID,
		Status: req.Status,
		Notes:  req.Notes,
	})
	if err != nil {
		h.internalError(w, "Failed to update contact", err)
		return
	}

	WriteSuccess(w, map[string]any{"contact": contactToResponse(contact)})
}

// DeleteContact handles DELETE /contacts/{id} (admin). Deleting an id that
// is already gone yields 404, not a silent success.
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	contact, ok := requireEntityByID(h, w, r, "contact", func(id int64) (store.Contact, error) {
		return h.queries.GetContactByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteContact(r.Context(), contact.ID); err != nil {
		h.internalError(w, "Failed to delete contact", err)
		return
	}

	WriteSuccessMessage(w, "Contact deleted", nil)
}

// ContactStats handles GET /contacts/stats/overview (admin).
func (h *Handler) ContactStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	byStatus, err := h.queries.CountContactsByStatus(ctx)
	if err != nil {
		h.internalError(w, "Failed to load contact stats", err)
		return
	}

	statusCounts := make(map[string]int64, len(byStatus))
	var total int64
	for _, sc := range byStatus {
		statusCounts[sc.Status] = sc.Count
		total += sc.Count
	}

	sixMonthsAgo := time.Now().AddDate(0, -6, 0)
	byMonth, err := h.queries.CountContactsByMonth(ctx, sixMonthsAgo)
	if err != nil {
		h.internalError(w, "Failed to load contact stats", err)
		return
	}

	monthCounts := make([]map[string]any, 0, len(byMonth))
	for _, mc := range byMonth {
		monthCounts = append(monthCounts, map[string]any{"month": mc.Month, "count": mc.Count})
	}

	WriteSuccess(w, map[string]any{
		"total":     total,
		"by_status": statusCounts,
		"by_month":  monthCounts,
	})
}
