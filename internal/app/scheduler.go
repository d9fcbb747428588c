/**
 * @description
 * Cron scheduler for the periodic credential expiry check. The upstream
 * credential is static for the life of the process, so the only thing that
 * changes between runs is the clock.
 */
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the credential expiry check on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	token    string
	logger   *slog.Logger
	observe  func(remaining time.Duration)
	now      func() time.Time
}

// NewScheduler creates a scheduler. observe is called after every check with
// the time left on the credential; it is not called for credentials without expiry.
func NewScheduler(schedule, token string, logger *slog.Logger, observe func(remaining time.Duration)) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		token:    token,
		logger:   logger,
		observe:  observe,
		now:      time.Now,
	}
}

// Start registers the credential check and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.CheckCredential); err != nil {
		s.logger.Error("failed to schedule credential check", "error", err, "schedule", s.schedule)
		return err
	}
	s.logger.Info("scheduled credential check", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop stops the scheduler; the returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// CheckCredential inspects the credential once.
func (s *Scheduler) CheckCredential() {
	now := s.now()
	status := InspectCredential(s.token)

	for _, warning := range status.Warnings(now) {
		s.logger.Warn("credential check", "warning", warning, "expires_at", formatExpiry(status.ExpiresAt))
	}

	if remaining, ok := status.ExpiresIn(now); ok && s.observe != nil {
		s.observe(remaining)
	}
}
