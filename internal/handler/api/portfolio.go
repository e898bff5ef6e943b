// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"studio-api/internal/imaging"
	"studio-api/internal/model"
	"studio-api/internal/store"
	"studio-api/internal/util"
)

// ImageResponse represents a portfolio image in API responses.
type ImageResponse struct {
	ID           int64            `json:"id"`
	Title        string           `json:"title"`
	Description  *string          `json:"description"`
	ImageURL     string           `json:"image_url"`
	ThumbnailURL *string          `json:"thumbnail_url"`
	Category     string           `json:"category"`
	IsFeatured   bool             `json:"is_featured"`
	SortOrder    int64            `json:"sort_order"`
	Tags         model.StringList `json:"tags"`
	Metadata     model.Document   `json:"metadata"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func imageToResponse(img store.PortfolioImage) ImageResponse {
	return ImageResponse{
		ID:           img.ID,
		Title:        img.Title,
		Description:  util.StringPtr(img.Description),
		ImageURL:     img.ImageURL,
		ThumbnailURL: util.StringPtr(img.ThumbnailURL),
		Category:     img.Category,
		IsFeatured:   img.IsFeatured,
		SortOrder:    img.SortOrder,
		Tags:         img.Tags,
		Metadata:     img.Metadata,
		CreatedAt:    img.CreatedAt,
		UpdatedAt:    img.UpdatedAt,
	}
}

func imagesToResponses(images []store.PortfolioImage) []ImageResponse {
	items := make([]ImageResponse, 0, len(images))
	for _, img := range images {
		items = append(items, imageToResponse(img))
	}
	return items
}

// ListImages handles GET /portfolio (public).
func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f := store.NewFilter()
	if category := r.URL.Query().Get("category"); category != "" {
		if !model.IsValidPortfolioCategory(category) {
			WriteValidationError(w, map[string]string{"category": "Unknown category: " + category})
			return
		}
		f.Equal("category", category)
	}
	if featured := r.URL.Query().Get("featured"); featured == "true" {
		f.Equal("is_featured", 1)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		f.Search(search, "title", "description")
	}

	page := ParsePageParam(r)
	limit := ParseLimitParam(r, 20, 100)

	images, err := h.queries.ListImages(ctx, f, limit, store.Offset(page, limit))
	if err != nil {
		h.internalError(w, "Failed to list images", err)
		return
	}
	total, err := h.queries.CountImages(ctx, f)
	if err != nil {
		h.internalError(w, "Failed to count images", err)
		return
	}

	WriteSuccess(w, PagedData{
		Items:      imagesToResponses(images),
		Pagination: NewPagination(page, limit, total),
	})
}

// ListImagesByCategory handles GET /portfolio/category/{category} (public).
func (h *Handler) ListImagesByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if !model.IsValidPortfolioCategory(category) {
		WriteNotFound(w, "Category not found")
		return
	}

	f := store.NewFilter()
	f.Equal("category", category)

	page := ParsePageParam(r)
	limit := ParseLimitParam(r, 20, 100)

	images, err := h.queries.ListImages(r.Context(), f, limit, store.Offset(page, limit))
	if err != nil {
		h.internalError(w, "Failed to list images", err)
		return
	}
	total, err := h.queries.CountImages(r.Context(), f)
	if err != nil {
		h.internalError(w, "Failed to count images", err)
		return
	}

	WriteSuccess(w, PagedData{
		Items:      imagesToResponses(images),
		Pagination: NewPagination(page, limit, total),
	})
}

// ListFeaturedImages handles GET /portfolio/featured (public).
func (h *Handler) ListFeaturedImages(w http.ResponseWriter, r *http.Request) {
	limit := ParseLimitParam(r, 12, 50)
	images, err := h.queries.ListFeaturedImages(r.Context(), limit)
	if err != nil {
		h.internalError(w, "Failed to list featured images", err)
		return
	}
	WriteSuccess(w, map[string]any{"images": imagesToResponses(images)})
}

// ListCategories handles GET /portfolio/categories (public). Returns the
// known categories with their image counts.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	counts, err := h.queries.CountImagesByCategory(r.Context())
	if err != nil {
		h.internalError(w, "Failed to count categories", err)
		return
	}

	byCategory := make(map[string]int64, len(counts))
	for _, cc := range counts {
		byCategory[cc.Category] = cc.Count
	}

	type categoryInfo struct {
		Name  string `json:"name"`
		Count int64  `json:"count"`
	}
	categories := make([]categoryInfo, 0, len(model.PortfolioCategories))
	for _, name := range model.PortfolioCategories {
		categories = append(categories, categoryInfo{Name: name, Count: byCategory[name]})
	}

	WriteSuccess(w, map[string]any{"categories": categories})
}

// GetImage handles GET /portfolio/{id} (admin).
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	img, ok := requireEntityByID(h, w, r, "image", func(id int64) (store.PortfolioImage, error) {
		return h.queries.GetImageByID(r.Context(), id)
	})
	if !ok {
		return
	}
	WriteSuccess(w, map[string]any{"image": imageToResponse(img)})
}

// CreateImageRequest is the request body for POST /portfolio.
type CreateImageRequest struct {
	Title        string           `json:"title"`
	Description  *string          `json:"description,omitempty"`
	ImageURL     string           `json:"image_url"`
	ThumbnailURL *string          `json:"thumbnail_url,omitempty"`
	Category     string           `json:"category"`
	IsFeatured   bool             `json:"is_featured"`
	SortOrder    int64            `json:"sort_order"`
	Tags         model.StringList `json:"tags,omitempty"`
	Metadata     model.Document   `json:"metadata,omitempty"`
}

func (req *CreateImageRequest) validate() map[string]string {
	fieldErrors := make(map[string]string)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if req.ImageURL == "" {
		fieldErrors["image_url"] = "Image URL is required"
	}
	if req.Category == "" {
		fieldErrors["category"] = "Category is required"
	}
	return fieldErrors
}

// CreateImage handles POST /portfolio (admin).
func (h *Handler) CreateImage(w http.ResponseWriter, r *http.Request) {
	var req CreateImageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fieldErrors := req.validate(); len(fieldErrors) > 0 {
		WriteValidationError(w, fieldErrors)
		return
	}

	img, err := h.queries.CreateImage(r.Context(), store.CreateImageParams{
		Title:        req.Title,
		Description:  util.NullStringFromPtr(req.Description),
		ImageURL:     req.ImageURL,
		ThumbnailURL: util.NullStringFromPtr(req.ThumbnailURL),
		Category:     req.Category,
		IsFeatured:   req.IsFeatured,
		SortOrder:    req.SortOrder,
		Tags:         req.Tags,
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.internalError(w, "Failed to create image", err)
		return
	}

	WriteCreated(w, "Image created", map[string]any{"image": imageToResponse(img)})
}

// UploadImage handles POST /portfolio/upload (admin). The multipart form
// carries the file plus optional title, description, and category fields;
// EXIF shooting data lands in the image metadata.
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		WriteBadRequest(w, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteValidationError(w, map[string]string{"file": "Image file is required"})
		return
	}
	defer func() { _ = file.Close() }()

	category := r.FormValue("category")
	if category == "" {
		category = model.PortfolioCategoryLifestyle
	}

	result, err := h.images.Process(file, header.Filename)
	if err != nil {
		WriteBadRequest(w, "Failed to process image: "+err.Error())
		return
	}

	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}

	metadata := result.Exif
	if metadata == nil {
		metadata = model.Document{}
	}
	metadata["width"] = result.Width
	metadata["height"] = result.Height
	metadata["size_bytes"] = result.Size

	img, err := h.queries.CreateImage(r.Context(), store.CreateImageParams{
		Title:        title,
		Description:  util.NullStringFromValue(r.FormValue("description")),
		ImageURL:     result.ImageURL,
		ThumbnailURL: util.NullStringFromValue(result.ThumbnailURL),
		Category:     category,
		Metadata:     metadata,
	})
	if err != nil {
		h.internalError(w, "Failed to create image", err)
		return
	}

	WriteCreated(w, "Image uploaded", map[string]any{"image": imageToResponse(img)})
}

// UpdateImageRequest is the request body for PUT /portfolio/{id}. Only
// fields present in the payload are written.
type UpdateImageRequest struct {
	Title        *string           `json:"title,omitempty"`
	Description  *string           `json:"description,omitempty"`
	ImageURL     *string           `json:"image_url,omitempty"`
	ThumbnailURL *string           `json:"thumbnail_url,omitempty"`
	Category     *string           `json:"category,omitempty"`
	IsFeatured   *bool             `json:"is_featured,omitempty"`
	SortOrder    *int64            `json:"sort_order,omitempty"`
	Tags         *model.StringList `json:"tags,omitempty"`
	Metadata     *model.Document   `json:"metadata,omitempty"`
}

// UpdateImage handles PUT /portfolio/{id} (admin).
func (h *Handler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(h, w, r, "image", func(id int64) (store.PortfolioImage, error) {
		return h.queries.GetImageByID(r.Context(), id)
	})
	if !ok {
		return
	}

	var req UpdateImageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	img, err := h.queries.UpdateImage(r.Context(), store.UpdateImageParams{
		ID:           existing.ID,
		Title:        req.Title,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		ThumbnailURL: req.ThumbnailURL,
		Category:     req.Category,
		IsFeatured:   req.IsFeatured,
		SortOrder:    req.SortOrder,
		Tags:         req.Tags,
		Metadata:     req.Metadata,
	})
	if err != nil {
		h.internalError(w, "Failed to update image", err)
		return
	}

	WriteSuccess(w, map[string]any{"image": imageToResponse(img)})
}

// DeleteImage handles DELETE /portfolio/{id} (admin).
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	img, ok := requireEntityByID(h, w, r, "image", func(id int64) (store.PortfolioImage, error) {
		return h.queries.GetImageByID(r.Context(), id)
	})
	if !ok {
		return
	}

	if err := h.queries.DeleteImage(r.Context(), img.ID); err != nil {
		h.internalError(w, "Failed to delete image", err)
		return
	}

	WriteSuccessMessage(w, "Image deleted", nil)
}
