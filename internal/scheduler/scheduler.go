// Package scheduler runs periodic background jobs, currently the
// upcoming-event reminder sweep.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/saif-byte/event-website/internal/notify"
	"github.com/saif-byte/event-website/internal/store"
)

// reminderWindow is how far ahead the reminder job looks for events.
const reminderWindow = 24 * time.Hour

// Scheduler owns the cron runner and its jobs.
type Scheduler struct {
	cron    *cron.Cron
	queries *store.Queries
	mailer  *notify.Mailer
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Scheduler backed by the given database and mailer.
func New(db *sql.DB, mailer *notify.Mailer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		queries: store.New(db),
		mailer:  mailer,
		logger:  logger,
		now:     time.Now,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@hourly", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunReminders(ctx)
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop stops the cron runner and waits for running jobs to complete.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// RunReminders enqueues a reminder email to every registrant of events
// starting within the reminder window, then marks each event so the
// reminder is sent at most once. Exported so tests and operators can
// trigger a sweep directly.
func (s *Scheduler) RunReminders(ctx context.Context) {
	now := s.now()
	events, err := s.queries.ListEventsNeedingReminder(ctx, now, now.Add(reminderWindow))
	if err != nil {
		s.logger.Error("listing events for reminders", "error", err)
		return
	}

	for _, event := range events {
		regs, err := s.queries.ListRegistrationsWithUsers(ctx, event.ID)
		if err != nil {
			s.logger.Error("listing registrants for reminder",
				"event_id", event.ID, "error", err)
			continue
		}

		for _, reg := range regs {
			s.mailer.EnqueueEventReminder(reg.UserEmail, reg.UserName, event)
		}

		if err := s.queries.MarkReminderSent(ctx, event.ID, now); err != nil {
			s.logger.Error("marking reminder sent", "event_id", event.ID, "error", err)
			continue
		}

		s.logger.Info("event reminder queued",
			"event_id", event.ID,
			"event_name", event.Name,
			"registrants", len(regs))
	}
}
