// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"log/slog"
	"net/http"

	"github.com/mileusna/useragent"

	"studio-api/internal/model"
	"studio-api/internal/store"
	"studio-api/internal/util"
)

// recordEvent appends an analytics event annotated with the request's
// client IP, parsed user agent, and GeoIP country. Failures are logged and
// swallowed; analytics must never fail the triggering operation.
func (h *Handler) recordEvent(r *http.Request, eventType string, data model.Document) {
	if data == nil {
		data = model.Document{}
	}

	ip := util.ClientIP(r)
	if ua := r.UserAgent(); ua != "" {
		parsed := useragent.Parse(ua)
		data["browser"] = parsed.Name
		data["os"] = parsed.OS
		data["device"] = deviceKind(parsed)
	}
	if country := h.geo.CountryCode(ip); country != "" {
		data["country"] = country
	}

	_, err := h.queries.CreateEvent(r.Context(), store.CreateEventParams{
		EventType: eventType,
		EventData: data,
		UserAgent: util.NullStringFromValue(r.UserAgent()),
		IPAddress: util.NullStringFromValue(ip),
		Referrer:  util.NullStringFromValue(r.Referer()),
	})
	if err != nil {
		slog.Error("failed to record analytics event", "event_type", eventType, "error", err)
	}
}

func deviceKind(ua useragent.UserAgent) string {
	switch {
	case ua.Bot:
		return "bot"
	case ua.Mobile:
		return "mobile"
	case ua.Tablet:
		return "tablet"
	default:
		return "desktop"
	}
}

// TrackEventRequest is the request body for POST /analytics/track.
type TrackEventRequest struct {
	EventType string         `json:"event_type"`
	EventData model.Document `json:"event_data,omitempty"`
}

// TrackEvent handles POST /analytics/track (public). Client-reported fields
// land in event_data as-is; the server adds its own annotations on top, so
// a client cannot spoof browser, device, or country.
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var req TrackEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.EventType == "" {
		WriteValidationError(w, map[string]string{"event_type": "Event type is required"})
		return
	}

	h.recordEvent(r, req.EventType, req.EventData)
	WriteSuccessMessage(w, "Event recorded", nil)
}
