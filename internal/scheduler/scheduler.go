// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the background jobs: drip-sequence dispatch,
// analytics retention, and GeoIP database refresh.
package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"studio-api/internal/geoip"
	"studio-api/internal/mailer"
	"studio-api/internal/store"
	"studio-api/internal/util"
)

// dispatchBatchSize caps how many due steps one tick processes.
const dispatchBatchSize = 50

// analyticsRetention mirrors the admin cleanup endpoint: events older than
// one year are swept.
const analyticsRetention = 365 * 24 * time.Hour

// Scheduler owns the cron loop for background jobs.
type Scheduler struct {
	db     *sql.DB
	mail   *mailer.Mailer
	geo    *geoip.Reader
	cron   *cron.Cron
	logger *slog.Logger
}

// New creates a scheduler. geo may be nil-equivalent (disabled reader).
func New(db *sql.DB, mail *mailer.Mailer, geo *geoip.Reader, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		mail:   mail,
		geo:    geo,
		cron:   cron.New(),
		logger: logger,
	}
}

// Start registers the jobs and begins the cron loop.
// Sequence dispatch runs every minute; the analytics sweep and GeoIP
// refresh run nightly at 03:00.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", func() {
		if err := s.dispatchSequences(); err != nil {
			s.logger.Error("sequence dispatch failed", "error", err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("0 3 * * *", func() {
		if err := s.sweepAnalytics(); err != nil {
			s.logger.Error("analytics sweep failed", "error", err)
		}
		if err := s.geo.Reload(); err != nil {
			s.logger.Warn("geoip reload failed", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// dispatchSequences sends every due pending drip step. Steps whose contact
// is gone or whose send fails are marked failed and never retried; with no
// SMTP relay configured, due steps stay pending until one appears.
func (s *Scheduler) dispatchSequences() error {
	if !s.mail.Enabled() {
		return nil
	}

	ctx := context.Background()
	queries := store.New(s.db)

	now := time.Now()
	steps, err := queries.ListDueSequenceSteps(ctx, now, dispatchBatchSize)
	if err != nil {
		return err
	}
	if len(steps) == 0 {
		return nil
	}

	s.logger.Info("dispatching sequence steps", "count", len(steps))

	for _, step := range steps {
		if err := s.sendStep(ctx, queries, step); err != nil {
			s.logger.Error("sequence step failed",
				"step_id", step.ID,
				"contact_id", step.ContactID,
				"template", step.EmailTemplate,
				"error", err,
			)
			if err := queries.MarkSequenceStepFailed(ctx, step.ID); err != nil {
				s.logger.Error("failed to mark step failed", "step_id", step.ID, "error", err)
			}
			continue
		}
		if err := queries.MarkSequenceStepSent(ctx, step.ID, time.Now()); err != nil {
			s.logger.Error("failed to mark step sent", "step_id", step.ID, "error", err)
		}
	}

	return nil
}

func (s *Scheduler) sendStep(ctx context.Context, queries *store.Queries, step store.EmailSequence) error {
	contact, err := queries.GetContactByID(ctx, step.ContactID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return errors.New("contact no longer exists")
		}
		return err
	}

	data := map[string]string{
		"full_name":    contact.FullName,
		"email":        contact.Email,
		"service_type": util.StringOrEmpty(contact.ServiceType),
	}
	return s.mail.SendTemplate(ctx, step.EmailTemplate, contact.Email, data)
}

// sweepAnalytics enforces the one-year retention window.
func (s *Scheduler) sweepAnalytics() error {
	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().Add(-analyticsRetention)
	deleted, err := queries.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("analytics events swept", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
