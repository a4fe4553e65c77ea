package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"streamvault/internal/notify"
	"streamvault/internal/repository"
	"streamvault/internal/service"
)

// reminderWindow is how far ahead the expiry reminder job looks.
const reminderWindow = 3 * 24 * time.Hour

// Scheduler manages all cron jobs.
type Scheduler struct {
	cron     *cron.Cron
	repos    *CronRepos
	mailer   service.Mailer
	notifier *notify.TelegramNotifier
	logger   *zap.Logger
}

// CronRepos bundles the repositories needed by cron jobs.
type CronRepos struct {
	User       *repository.UserRepository
	Order      *repository.OrderRepository
	Credential *repository.CredentialRepository
}

// New creates a new cron scheduler. notifier may be nil.
func New(repos *CronRepos, mailer service.Mailer, notifier *notify.TelegramNotifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		repos:    repos,
		mailer:   mailer,
		notifier: notifier,
		logger:   logger,
	}
}

// Start registers and starts all cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Deactivate expired credentials - every 10 minutes
	s.cron.AddFunc("0 */10 * * * *", func() {
		s.logger.Debug("Running: expire credentials")
		s.expireCredentials()
	})

	// Expiry reminder emails - daily at 09:00
	s.cron.AddFunc("0 0 9 * * *", func() {
		s.logger.Debug("Running: expiry reminders")
		s.expiryReminders()
	})

	// Daily sales report - at 23:45
	s.cron.AddFunc("0 45 23 * * *", func() {
		s.logger.Debug("Running: daily sales report")
		s.dailySalesReport()
	})

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// ── Expire credentials ────────────────────────────────────────────────

func (s *Scheduler) expireCredentials() {
	defer s.recoverFromPanic("expireCredentials")

	n, err := s.repos.Credential.DeactivateExpired(time.Now())
	if err != nil {
		s.logger.Error("Credential expiry sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Deactivated expired credentials", zap.Int64("count", n))
	}
}

// ── Expiry reminder emails ────────────────────────────────────────────

func (s *Scheduler) expiryReminders() {
	defer s.recoverFromPanic("expiryReminders")

	now := time.Now()
	creds, err := s.repos.Credential.FindExpiringBetween(now, now.Add(reminderWindow))
	if err != nil {
		s.logger.Error("Expiry reminder lookup failed", zap.Error(err))
		return
	}

	sent := 0
	for _, cred := range creds {
		user, err := s.repos.User.FindByID(cred.UserID)
		if err != nil {
			s.logger.Warn("Expiry reminder: user lookup failed",
				zap.Uint("credential_id", cred.ID), zap.Uint("user_id", cred.UserID), zap.Error(err))
			continue
		}
		c := cred
		if err := s.mailer.SendExpiryReminder(user.Email, &c); err != nil {
			s.logger.Warn("Expiry reminder email failed",
				zap.Uint("credential_id", cred.ID), zap.Error(err))
			continue
		}
		sent++
	}

	s.logger.Debug("Expiry reminders completed", zap.Int("candidates", len(creds)), zap.Int("sent", sent))
}

// ── Daily sales report ────────────────────────────────────────────────

func (s *Scheduler) dailySalesReport() {
	defer s.recoverFromPanic("dailySalesReport")

	if s.notifier == nil {
		return
	}

	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	created, err := s.repos.Order.CountCreatedSince(startOfDay)
	if err != nil {
		s.logger.Error("Daily report: created count failed", zap.Error(err))
		return
	}
	verified, err := s.repos.Order.CountVerifiedSince(startOfDay)
	if err != nil {
		s.logger.Error("Daily report: verified count failed", zap.Error(err))
		return
	}

	if err := s.notifier.DailyReport(created, verified); err != nil {
		s.logger.Error("Daily report delivery failed", zap.Error(err))
	}
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
