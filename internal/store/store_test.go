// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-api/internal/model"
	"studio-api/internal/store"
	"studio-api/internal/testutil"
)

func newTestQueries(t *testing.T) (*store.Queries, *sql.DB) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return store.New(db), db
}

func seedContact(t *testing.T, q *store.Queries, name, email string) store.Contact {
	t.Helper()
	c, err := q.CreateContact(context.Background(), store.CreateContactParams{
		FullName: name,
		Email:    email,
		Message:  "Looking to book a session.",
	})
	require.NoError(t, err)
	return c
}

func seedUser(t *testing.T, q *store.Queries, username string) store.User {
	t.Helper()
	u, err := q.CreateUser(context.Background(), store.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         model.RoleAdmin,
	})
	require.NoError(t, err)
	return u
}

func TestCreateContact_Defaults(t *testing.T) {
	q, _ := newTestQueries(t)

	c := seedContact(t, q, "Ada Lovelace", "ada@example.com")

	assert.NotZero(t, c.ID)
	assert.Equal(t, model.ContactStatusNew, c.Status)
	assert.False(t, c.Phone.Valid, "phone should be NULL when not provided")
	assert.False(t, c.CreatedAt.IsZero())
}

func TestUpdateContact_PartialUpdate(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()
	c := seedContact(t, q, "Ada", "ada@example.com")

	status := model.ContactStatusContacted
	updated, err := q.UpdateContact(ctx, store.UpdateContactParams{ID: c.ID, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, model.ContactStatusContacted, updated.Status)
	assert.Equal(t, "Ada", updated.FullName)

	notes := "left a voicemail"
	updated, err = q.UpdateContact(ctx, store.UpdateContactParams{ID: c.ID, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes.String)
	assert.Equal(t, model.ContactStatusContacted, updated.Status, "notes-only update must not reset status")
}

func TestUpdateContact_EmptyPayloadIsNoOp(t *testing.T) {
	q, db := newTestQueries(t)
	ctx := context.Background()
	c := seedContact(t, q, "Ada", "ada@example.com")

	_, err := db.ExecContext(ctx, `UPDATE contacts SET updated_at = '2020-01-01 00:00:00' WHERE id = ?`, c.ID)
	require.NoError(t, err)

	updated, err := q.UpdateContact(ctx, store.UpdateContactParams{ID: c.ID})
	require.NoError(t, err)
	assert.Equal(t, c.FullName, updated.FullName)
	assert.Equal(t, 2020, updated.UpdatedAt.Year(), "no-op update must not touch updated_at")

	status := model.ContactStatusContacted
	updated, err = q.UpdateContact(ctx, store.UpdateContactParams{ID: c.ID, Status: &status})
	require.NoError(t, err)
	assert.NotEqual(t, 2020, updated.UpdatedAt.Year(), "real update bumps updated_at")
}

func TestContactFilter(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()

	seedContact(t, q, "Wedding Client", "wedding@example.com")
	booked := seedContact(t, q, "Booked Client", "booked@example.com")
	status := model.ContactStatusBooked
	_, err := q.UpdateContact(ctx, store.UpdateContactParams{ID: booked.ID, Status: &status})
	require.NoError(t, err)

	items, err := q.ListContacts(ctx, store.NewFilter().Equal("status", model.ContactStatusBooked), 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, booked.ID, items[0].ID)

	items, err = q.ListContacts(ctx, store.NewFilter().Search("wedding", "full_name", "email", "message"), 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Wedding Client", items[0].FullName)

	count, err := q.CountContacts(ctx, store.NewFilter())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDeleteContact_CascadesSequenceSteps(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()
	c := seedContact(t, q, "Ada", "ada@example.com")

	_, err := q.CreateSequenceStep(ctx, store.CreateSequenceStepParams{
		ContactID:     c.ID,
		SequenceType:  "inquiry_followup",
		StepNumber:    1,
		EmailTemplate: "inquiry_followup",
		ScheduledFor:  time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, q.DeleteContact(ctx, c.ID))

	pending, err := q.CountPendingSequenceSteps(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending, "steps must cascade with their contact")
}

func TestSlugExists(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()
	author := seedUser(t, q, "author")

	post, err := q.CreatePost(ctx, store.CreatePostParams{
		Title:    "First Light",
		Slug:     "first-light",
		Content:  "Golden hour notes.",
		AuthorID: author.ID,
		Status:   model.PostStatusDraft,
	})
	require.NoError(t, err)

	exists, err := q.SlugExists(ctx, "first-light")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = q.SlugExistsExcluding(ctx, "first-light", post.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a post keeping its own slug is not a conflict")

	exists, err = q.SlugExistsExcluding(ctx, "first-light", post.ID+1)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGetPublishedPostBySlug_HidesDrafts(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()
	author := seedUser(t, q, "author")

	_, err := q.CreatePost(ctx, store.CreatePostParams{
		Title:    "Draft Notes",
		Slug:     "draft-notes",
		Content:  "Not ready.",
		AuthorID: author.ID,
		Status:   model.PostStatusDraft,
	})
	require.NoError(t, err)

	_, err = q.GetPublishedPostBySlug(ctx, "draft-notes")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPostTagsRoundTrip(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()
	author := seedUser(t, q, "author")

	created, err := q.CreatePost(ctx, store.CreatePostParams{
		Title:    "Tagged",
		Slug:     "tagged",
		Content:  "Body.",
		AuthorID: author.ID,
		Status:   model.PostStatusDraft,
		Tags:     model.StringList{"editorial", "bts"},
		Metadata: model.Document{"camera": "GFX 100"},
	})
	require.NoError(t, err)

	got, err := q.GetPostByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StringList{"editorial", "bts"}, got.Tags)
	assert.Equal(t, "GFX 100", got.Metadata.GetString("camera"))
}

func TestListDueSequenceSteps(t *testing.T) {
	q, _ := newTestQueries(t)
	ctx := context.Background()
	c := seedContact(t, q, "Ada", "ada@example.com")

	due, err := q.CreateSequenceStep(ctx, store.CreateSequenceStepParams{
		ContactID:     c.ID,
		SequenceType:  "inquiry_followup",
		StepNumber:    1,
		EmailTemplate: "inquiry_followup",
		ScheduledFor:  time.Now().Add(-time.Hour),
	})
	require.NoError(t, err)
	_, err = q.CreateSequenceStep(ctx, store.CreateSequenceStepParams{
		ContactID:     c.ID,
		SequenceType:  "inquiry_followup",
		StepNumber:    2,
		EmailTemplate: "inquiry_followup",
		ScheduledFor:  time.Now().Add(7 * 24 * time.Hour),
	})
	require.NoError(t, err)

	steps, err := q.ListDueSequenceSteps(ctx, time.Now(), 50)
	require.NoError(t, err)
	require.Len(t, steps, 1, "only the overdue step is due")
	assert.Equal(t, due.ID, steps[0].ID)

	require.NoError(t, q.MarkSequenceStepSent(ctx, due.ID, time.Now()))

	steps, err = q.ListDueSequenceSteps(ctx, time.Now(), 50)
	require.NoError(t, err)
	assert.Empty(t, steps, "a sent step must not be dispatched again")
}

func TestDeleteEventsBefore(t *testing.T) {
	q, db := newTestQueries(t)

	_, err := db.Exec(`
		INSERT INTO analytics (event_type, created_at) VALUES
		('page_view', datetime('now', '-400 days')),
		('page_view', datetime('now'))`)
	require.NoError(t, err)

	deleted, err := q.DeleteEventsBefore(context.Background(), time.Now().AddDate(0, 0, -365))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSeed_Idempotent(t *testing.T) {
	_, db := newTestQueries(t)
	ctx := context.Background()
	admin := store.AdminSeed{Username: "admin", Email: "admin@example.com", Password: "change-me-now"}

	require.NoError(t, store.Seed(ctx, db, admin))
	require.NoError(t, store.Seed(ctx, db, admin))

	var users, templates int64
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM email_templates`).Scan(&templates))
	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(4), templates)
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	q, _ := newTestQueries(t)

	_, err := q.GetUserByUsername(context.Background(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
