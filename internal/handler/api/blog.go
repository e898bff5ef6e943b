// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"studio-api/internal/middleware"
	"studio-api/internal/model"
	"studio-api/internal/store"
	"studio-api/internal/util"
)

// markdown renders journal content for public reads. Unsafe raw HTML is let
// through here and stripped by the sanitizer afterwards.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithRendererOptions(html.WithUnsafe()),
)

// contentPolicy strips anything dangerous from rendered journal HTML.
var contentPolicy = bluemonday.UGCPolicy()

// renderContentHTML converts stored markdown to sanitized HTML.
func renderContentHTML(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		// Degrade to the raw text run through the sanitizer.
		return string(contentPolicy.SanitizeBytes([]byte(content)))
	}
	return string(contentPolicy.SanitizeBytes(buf.Bytes()))
}

// PostResponse represents a journal post in API responses.
type PostResponse struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Content          string           `json:"content"`
	ContentHTML      string           `json:"content_html,omitempty"`
	Excerpt          *string          `json:"excerpt"`
	FeaturedImageURL *string          `json:"featured_image_url"`
	AuthorID         int64            `json:"author_id"`
	Status           string           `json:"status"`
	PublishedAt      *time.Time       `json:"published_at"`
	Tags             model.StringList `json:"tags"`
	Metadata         model.Document   `json:"metadata"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func postToResponse(p store.BlogPost) PostResponse {
	resp := PostResponse{
		ID:               p.ID,
		Title:            p.Title,
		Slug:             p.Slug,
		Content:          p.Content,
		Excerpt:          util.StringPtr(p.Excerpt),
		FeaturedImageURL: util.StringPtr(p.FeaturedImageURL),
		AuthorID:         p.AuthorID,
		Status:           p.Status,
		Tags:             p.Tags,
		Metadata:         p.Metadata,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.PublishedAt.Valid {
		resp.PublishedAt = &p.PublishedAt.Time
	}
	return resp
}

// ListPosts handles GET /blog.
// Public callers see published posts only; an authenticated admin may filter
// by any status or list everything with status=all.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := r.URL.Query().Get("status")
	principal, authenticated := middleware.GetPrincipal(r)
	isAdmin := authenticated && principal.IsAdmin()

	if !isAdmin && status != "" && status != model.PostStatusPublished {
		WriteForbidden(w, "Authentication required to view non-published posts")
		return
	}
	// The public listing must never leak drafts.
	if !isAdmin && status == "" {
		status = model.PostStatusPublished
	}

	f := store.NewFilter()
	switch status {
	case "", "all":
		// No status clause: admin asked for everything.
	case model.PostStatusDraft, model.PostStatusPublished:
		f.Equal("status", status)
	default:
		WriteValidationError(w, map[string]string{"status": "Unknown status: " + status})
		return
	}
	if search := r.URL.Query().Get("search"); search != "" {
		f.Search(search, "title", "excerpt", "content")
	}

	page := ParsePageParam(r)
	limit := ParseLimitParam(r, 10, 50)

	posts, err := h.queries.ListPosts(ctx, f, limit, store.Offset(page, limit))
	if err != nil {
		h.internalError(w, "Failed to list posts", err)
		return
	}
	total, err := h.queries.CountPosts(ctx, f)
	if err != nil {
		h.internalError(w, "Failed to count posts", err)
		return
	}

	items := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		items = append(items, postToResponse(p))
	}

	WriteSuccess(w, PagedData{
		Items:      items,
		Pagination: NewPagination(page, limit, total),
	})
}

// GetPost handles GET /blog/{id} (admin). No status restriction.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, ok := requireEntityByID(h, w, r, "post", func(id int64) (store.BlogPost, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteSuccess(w, map[string]any{"post": postToResponse(post)})
}

// GetPostBySlug handles GET /blog/slug/{slug} (public). Drafts are invisible
// here; the response includes the rendered HTML body.
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		WriteBadRequest(w, "Slug is required")
		return
	}

	post, err := h.queries.GetPublishedPostBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Post not found")
		} else {
			h.internalError(w, "Failed to retrieve post", err)
		}
		return
	}

	resp := postToResponse(post)
	resp.ContentHTML = renderContentHTML(post.Content)
	WriteSuccess(w, map[string]any{"post": resp})
}

// CreatePostRequest is the request body for POST /blog.
type CreatePostRequest struct {
	Title            string           `json:"title"`
	Slug             string           `json:"slug"`
	Content          string           `json:"content"`
	Excerpt          *string          `json:"excerpt,omitempty"`
	FeaturedImageURL *string          `json:"featured_image_url,omitempty"`
	Status           string           `json:"status"`
	Tags             model.StringList `json:"tags,omitempty"`
	Metadata         model.Document   `json:"metadata,omitempty"`
}

// CreatePost handles POST /blog (admin).
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreatePostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	fieldErrors := make(map[string]string)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if req.Content == "" {
		fieldErrors["content"] = "Content is required"
	}
	if req.Status == "" {
		req.Status = model.PostStatusDraft
	}
	if !model.IsValidPostStatus(req.Status) {
		fieldErrors["status"] = "Status must be 'draft' or 'published'"
	}
	if req.Slug == "" {
		req.Slug = util.Slugify(req.Title)
	}
	if !util.IsValidSlug(req.Slug) {
		fieldErrors["slug"] = "Invalid slug format (use lowercase letters, numbers, and hyphens)"
	}
	if len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	// Pre-check so the caller gets a domain-specific message instead of a
	// bare constraint violation. The unique index remains the backstop for
	// concurrent inserts.
	exists, err := h.queries.SlugExists(ctx, req.Slug)
	if err != nil {
		h.internalError(w, "Failed to check slug", err)
		return
	}
	if exists {
		WriteValidationError(w, map[string]string{"slug": "Slug already exists"})
		return
	}

	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		WriteUnauthorized(w, "Authentication required")
		return
	}

	params := store.CreatePostParams{
		Title:            req.Title,
		Slug:             req.Slug,
		Content:          req.Content,
		Excerpt:          util.NullStringFromPtr(req.Excerpt),
		FeaturedImageURL: util.NullStringFromPtr(req.FeaturedImageURL),
		AuthorID:         principal.UserID,
		Status:           req.Status,
		Tags:             req.Tags,
		Metadata:         req.Metadata,
	}
	// published_at is stamped once, at the moment a post first goes live.
	if req.Status == model.PostStatusPublished {
		params.PublishedAt.Time = time.Now()
		params.PublishedAt.Valid = true
	}

	post, err := h.queries.CreatePost(ctx, params)
	if err != nil {
		h.internalError(w, "Failed to create post", err)
		return
	}

	WriteCreated(w, "Post created", map[string]any{"post": postToResponse(post)})
}

// UpdatePostRequest is the request body for PUT /blog/{id}. Only fields
// present in the payload are written.
type UpdatePostRequest struct {
	Title            *string           `json:"title,omitempty"`
	Slug             *string           `json:"slug,omitempty"`
	Content          *string           `json:"content,omitempty"`
	Excerpt          *string           `json:"excerpt,omitempty"`
	FeaturedImageURL *string           `json:"featured_image_url,omitempty"`
	Status           *string           `json:"status,omitempty"`
	Tags             *model.StringList `json:"tags,omitempty"`
	Metadata         *model.Document   `json:"metadata,omitempty"`
}

// UpdatePost handles PUT /blog/{id} (admin).
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	existing, ok := requireEntityByID(h, w, r, "post", func(id int64) (store.BlogPost, error) {
		return h.queries.GetPostByID(ctx, id)
	})
	if !ok {
		return
	}

	var req UpdatePostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Slug != nil && *req.Slug != existing.Slug {
		if !util.IsValidSlug(*req.Slug) {
			WriteValidationError(w, map[string]string{"slug": "Invalid slug format (use lowercase letters, numbers, and hyphens)"})
			return
		}
		exists, err := h.queries.SlugExistsExcluding(ctx, *req.Slug, existing.ID)
		if err != nil {
			h.internalError(w, "Failed to check slug", err)
			return
		}
		if exists {
			WriteValidationError(w, map[string]string{"slug": "Slug already exists"})
			return
		}
	}

	params := store.UpdatePostParams{
		ID:               existing.ID,
		Title:            req.Title,
		Slug:             req.Slug,
		Content:          req.Content,
		Excerpt:          req.Excerpt,
		FeaturedImageURL: req.FeaturedImageURL,
		Tags:             req.Tags,
		Metadata:         req.Metadata,
	}

	if req.Status != nil {
		if !model.IsValidPostStatus(*req.Status) {
			WriteValidationError(w, map[string]string{"status": "Status must be 'draft' or 'published'"})
			return
		}
		params.Status = req.Status

		// Stamp published_at on the draft-to-published transition even
		// though the caller did not ask for it. It is never re-stamped or
		// cleared on later edits.
		if existing.Status == model.PostStatusDraft &&
			*req.Status == model.PostStatusPublished &&
			!existing.PublishedAt.Valid {
			now := time.Now()
			params.PublishedAt = &now
		}
	}

	post, err := h.queries.UpdatePost(ctx, params)
	if err != nil {
		h.internalError(w, "Failed to update post", err)
		return
	}

	WriteSuccess(w, map[string]any{"post": postToResponse(post)})
}

// DeletePost handles DELETE /blog/{id} (admin).
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	post, ok := requireEntityByID(h, w, r, "post", func(id int64) (store.BlogPost, error) {
		return h.queries.GetPostByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeletePost(r.Context(), post.ID); err != nil {
		h.internalError(w, "Failed to delete post", err)
		return
	}

	WriteSuccessMessage(w, "Post deleted", nil)
}
