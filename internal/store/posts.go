// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"studio-api/internal/model"
)

const postColumns = `id, title, slug, content, excerpt, featured_image_url, author_id,
	status, published_at, tags, metadata, created_at, updated_at`

func scanPost(row *sql.Row) (BlogPost, error) {
	var p BlogPost
	err := row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.FeaturedImageURL,
		&p.AuthorID, &p.Status, &p.PublishedAt, &p.Tags, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanPostRows(rows *sql.Rows) ([]BlogPost, error) {
	defer func() { _ = rows.Close() }()
	var items []BlogPost
	for rows.Next() {
		var p BlogPost
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &p.FeaturedImageURL,
			&p.AuthorID, &p.Status, &p.PublishedAt, &p.Tags, &p.Metadata, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

// CreatePostParams holds the fields for CreatePost.
type CreatePostParams struct {
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
}

// CreatePost inserts a blog post and returns the stored row.
func (q *Queries) CreatePost(ctx context.Context, arg CreatePostParams) (BlogPost, error) {
	row := q.db.QueryRowContext(ctx, `
		INSERT INTO blog_posts (title, slug, content, excerpt, featured_image_url, author_id, status, published_at, tags, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+postColumns,
		arg.Title, arg.Slug, arg.Content, arg.Excerpt, arg.FeaturedImageURL,
		arg.AuthorID, arg.Status, arg.PublishedAt, arg.Tags, arg.Metadata,
	)
	return scanPost(row)
}

// GetPostByID returns the blog post with the given id regardless of status.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (BlogPost, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id)
	return scanPost(row)
}

// GetPublishedPostBySlug returns a published post by slug. Drafts are
// invisible through this accessor.
func (q *Queries) GetPublishedPostBySlug(ctx context.Context, slug string) (BlogPost, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+postColumns+` FROM blog_posts WHERE slug = ? AND status = ?`,
		slug, model.PostStatusPublished)
	return scanPost(row)
}

// SlugExists reports whether any post uses the given slug.
func (q *Queries) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts WHERE slug = ?`, slug).Scan(&count)
	return count > 0, err
}

// SlugExistsExcluding reports whether any post other than id uses the slug.
func (q *Queries) SlugExistsExcluding(ctx context.Context, slug string, id int64) (bool, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts WHERE slug = ? AND id != ?`, slug, id).Scan(&count)
	return count > 0, err
}

// ListPosts returns one page of posts matching the filter, ordered by
// published_at then created_at, newest first.
func (q *Queries) ListPosts(ctx context.Context, f *Filter, limit, offset int) ([]BlogPost, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM blog_posts `+f.Where()+`
		ORDER BY published_at DESC, created_at DESC
		LIMIT ? OFFSET ?`,
		f.ArgsWith(limit, offset)...,
	)
	if err != nil {
		return nil, err
	}
	return scanPostRows(rows)
}

// CountPosts returns the number of posts matching the filter.
func (q *Queries) CountPosts(ctx context.Context, f *Filter) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts `+f.Where(), f.Args()...).Scan(&count)
	return count, err
}

// UpdatePostParams holds the mutable post fields. Nil fields keep their
// stored values.
type UpdatePostParams struct {
	ID               int64
	Title            *string
	Slug             *string
	Content          *string
	Excerpt          *string
	FeaturedImageURL *string
	Status           *string
	PublishedAt      *time.Time
	Tags             *model.StringList
	Metadata         *model.Document
}

// UpdatePost applies a partial update and returns the stored row. The caller
// decides whether PublishedAt is set; it is never cleared here.
func (q *Queries) UpdatePost(ctx context.Context, arg UpdatePostParams) (BlogPost, error) {
	var sc setClause
	if arg.Title != nil {
		sc.set("title", *arg.Title)
	}
	if arg.Slug != nil {
		sc.set("slug", *arg.Slug)
	}
	if arg.Content != nil {
		sc.set("content", *arg.Content)
	}
	if arg.Excerpt != nil {
		sc.set("excerpt", *arg.Excerpt)
	}
	if arg.FeaturedImageURL != nil {
		sc.set("featured_image_url", *arg.FeaturedImageURL)
	}
	if arg.Status != nil {
		sc.set("status", *arg.Status)
	}
	if arg.PublishedAt != nil {
		sc.set("published_at", *arg.PublishedAt)
	}
	if arg.Tags != nil {
		sc.set("tags", *arg.Tags)
	}
	if arg.Metadata != nil {
		sc.set("metadata", *arg.Metadata)
	}
	// Empty payload is a no-op; do not bump updated_at.
	if sc.empty() {
		return q.GetPostByID(ctx, arg.ID)
	}
	set, args := sc.build(arg.ID)
	if _, err := q.db.ExecContext(ctx, `UPDATE blog_posts `+set+` WHERE id = ?`, args...); err != nil {
		return BlogPost{}, err
	}
	return q.GetPostByID(ctx, arg.ID)
}

// DeletePost removes a blog post.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM blog_posts WHERE id = ?`, id)
	return err
}

// CountPostsByStatus returns post counts grouped by status.
func (q *Queries) CountPostsByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM blog_posts GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var items []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		items = append(items, sc)
	}
	return items, rows.Err()
}
