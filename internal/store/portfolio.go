// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"

	"studio-api/internal/model"
)

const portfolioColumns = `id, title, description, image_url, thumbnail_url, category,
	is_featured, sort_order, tags, metadata, created_at, updated_at`

func scanImage(row *sql.Row) (PortfolioImage, error) {
	var img PortfolioImage
	err := row.Scan(&img.ID, &img.Title, &img.Description, &img.ImageURL, &img.ThumbnailURL,
		&img.Category, &img.IsFeatured, &img.SortOrder, &img.Tags, &img.Metadata,
		&img.CreatedAt, &img.UpdatedAt)
	return img, err
}

func scanImageRows(rows *sql.Rows) ([]PortfolioImage, error) {
	defer func() { _ = rows.Close() }()
	var items []PortfolioImage
	for rows.Next() {
		var img PortfolioImage
		if err := rows.Scan(&img.ID, &img.Title, &img.Description, &img.ImageURL, &img.ThumbnailURL,
			&img.Category, &img.IsFeatured, &img.SortOrder, &img.Tags, &img.Metadata,
			&img.CreatedAt, &img.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, img)
	}
	return items, rows.Err()
}

// CreateImageParams holds the fields for CreateImage.
type CreateImageParams struct {
	Title        string
	Description  sql.NullString
	ImageURL     string
	ThumbnailURL sql.NullString
	Category     string
	IsFeatured   bool
	SortOrder    int64
	Tags         model.StringList
	Metadata     model.Document
}

// CreateImage inserts a portfolio image and returns the stored row.
func (q *Queries) CreateImage(ctx context.Context, arg CreateImageParams) (PortfolioImage, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO portfolio_images (title, description, image_url, thumbnail_url, category, is_featured, sort_order, tags, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+portfolioColumns,
		arg.Title, arg.Description, arg.ImageURL, arg.ThumbnailURL, arg.Category,
		arg.IsFeatured, arg.SortOrder, arg.Tags, arg.Metadata,
	)
	return scanImage(row)
}

// GetImageByID returns the portfolio image with the given id.
func (q *Queries) GetImageByID(ctx context.Context, id int64) (PortfolioImage, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+portfolioColumns+` FROM portfolio_images WHERE id = ?`, id)
	return scanImage(row)
}

// ListImages returns one page of images matching the filter in display order
// (sort_order ascending, then newest first).
func (q *Queries) ListImages(ctx context.Context, f *Filter, limit, offset int) ([]PortfolioImage, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+portfolioColumns+`
		FROM portfolio_images `+f.Where()+`
		ORDER BY sort_order ASC, created_at DESC
		LIMIT ? OFFSET ?`,
		f.ArgsWith(limit, offset)...,
	)
	if err != nil {
		return nil, err
	}
	return scanImageRows(rows)
}

// CountImages returns the number of images matching the filter.
func (q *Queries) CountImages(ctx context.Context, f *Filter) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM portfolio_images `+f.Where(), f.Args()...).Scan(&count)
	return count, err
}

// ListFeaturedImages returns featured images in display order.
func (q *Queries) ListFeaturedImages(ctx context.Context, limit int) ([]PortfolioImage, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+portfolioColumns+`
		FROM portfolio_images
		WHERE is_featured = 1
		ORDER BY sort_order ASC, created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanImageRows(rows)
}

// CategoryCount is a rollup row for image counts grouped by category.
type CategoryCount struct {
	Category string
	Count    int64
}

// CountImagesByCategory returns image counts grouped by category.
func (q *Queries) CountImagesByCategory(ctx context.Context) ([]CategoryCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM portfolio_images GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []CategoryCount
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		items = append(items, cc)
	}
	return items, rows.Err()
}

// UpdateImageParams holds the mutable image fields. Nil fields keep their
// stored values.
type UpdateImageParams struct {
	ID           int64
	Title        *string
	Description  *string
	ImageURL     *string
	ThumbnailURL *string
	Category     *string
	IsFeatured   *bool
	SortOrder    *int64
	Tags         *model.StringList
	Metadata     *model.Document
}

// UpdateImage applies a partial update and returns the stored row.
func (q *Queries) UpdateImage(ctx context.Context, arg UpdateImageParams) (PortfolioImage, error) {
	var sc setClause
	if arg.Title != nil {
		sc.set("title", *arg.Title)
	}
	if arg.Description != nil {
		sc.set("description", *arg.Description)
	}
	if arg.ImageURL != nil {
		sc.set("image_url", *arg.ImageURL)
	}
	if arg.ThumbnailURL != nil {
		sc.set("thumbnail_url", *arg.ThumbnailURL)
	}
	if arg.Category != nil {
		sc.set("category", *arg.Category)
	}
	if arg.IsFeatured != nil {
		sc.set("is_featured", *arg.IsFeatured)
	}
	if arg.SortOrder != nil {
		sc.set("sort_order", *arg.SortOrder)
	}
	if arg.Tags != nil {
		sc.set("tags", *arg.Tags)
	}
	if arg.Metadata != nil {
		sc.set("metadata", *arg.Metadata)
	}
	// Empty payload is a no-op; do not bump updated_at.
	if sc.empty() {
		return q.GetImageByID(ctx, arg.ID)
	}
	set, args := sc.build(arg.ID)
	if _, err := q.db.ExecContext(ctx, `UPDATE portfolio_images `+set+` WHERE id = ?`, args...); err != nil {
		return PortfolioImage{}, err
	}
	return q.GetImageByID(ctx, arg.ID)
}

// DeleteImage removes a portfolio image.
func (q *Queries) DeleteImage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM portfolio_images WHERE id = ?`, id)
	return err
}
