package reminders

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-trip-engine/internal/observability/metrics"
	"github.com/FACorreiaa/loci-trip-engine/internal/pkg/config"
)

const dateLayout = "2006-01-02"

// Reminder kinds drive the notification template.
const (
	KindSameDay      = "same_day"
	KindTripUpcoming = "trip_upcoming"
)

const dispatchTimeout = 10 * time.Second

// Scheduler scans persisted activities once per trigger and dispatches
// each qualifying notification at most once. Each (activity, date,
// offset) pair moves NOT_DUE -> DUE_UNSENT -> SENT; the durable claim in
// reminder_log is what flips it to SENT, so overlapping triggers and
// crash-replays cannot double-send.
type Scheduler struct {
	repo   Repository
	mailer Mailer
	cfg    config.ReminderConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewScheduler(repo Repository, mailer Mailer, cfg config.ReminderConfig, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		repo:   repo,
		mailer: mailer,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// NewSchedulerWithClock injects the wall clock (tests).
func NewSchedulerWithClock(repo Repository, mailer Mailer, cfg config.ReminderConfig, logger *zap.Logger, clock func() time.Time) *Scheduler {
	s := NewScheduler(repo, mailer, cfg, logger)
	s.now = clock
	return s
}

// Run triggers RunOnce on a fixed cadence until the context is canceled.
// Overlapping or repeated triggers are safe; idempotency lives in the
// durable claims, not in this loop.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Reminder scheduler started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx, s.now()); err != nil {
				s.logger.Error("Reminder scan failed", zap.Error(err))
			}
		}
	}
}

// RunOnce performs a single scan. It returns the number of notifications
// dispatched by this run; zero outside the dispatch window or when the
// day already completed.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) (int, error) {
	if !s.inWindow(now) {
		return 0, nil
	}

	today := now.Format(dateLayout)

	ran, err := s.repo.AlreadyRan(ctx, today)
	if err != nil {
		return 0, err
	}
	if ran {
		return 0, nil
	}

	upcoming := now.AddDate(0, 0, s.cfg.TripOffsetDays).Format(dateLayout)
	activities, err := s.repo.ActivitiesOn(ctx, []string{today, upcoming})
	if err != nil {
		return 0, err
	}

	sent := 0
	failures := 0
	for _, activity := range activities {
		kind := KindSameDay
		offset := 0
		if activity.ActivityDate == upcoming && upcoming != today {
			kind = KindTripUpcoming
			offset = s.cfg.TripOffsetDays
		}

		// Claim before dispatch: at-most-once even across crashes.
		claimed, err := s.repo.ClaimReminder(ctx, activity.ID, today, offset)
		if err != nil {
			return sent, err
		}
		if !claimed {
			continue
		}

		subject, body := composeNotification(kind, activity.Title, activity.ActivityDate, offset)

		sendCtx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		err = s.mailer.Send(sendCtx, activity.Email, subject, body)
		cancel()
		if err != nil {
			// The claim stands; at-most-once means a failed dispatch is
			// logged, not retried into a possible duplicate.
			failures++
			s.logger.Error("Reminder dispatch failed",
				zap.String("activity_id", activity.ID.String()),
				zap.String("kind", kind),
				zap.Error(err))
			continue
		}

		metrics.RemindersSent.WithLabelValues(kind).Inc()
		sent++
	}

	// Only a fully dispatched day short-circuits future scans.
	if failures == 0 {
		if err := s.repo.MarkRan(ctx, today); err != nil {
			return sent, err
		}
	}

	s.logger.Info("Reminder scan completed",
		zap.String("date", today),
		zap.Int("sent", sent),
		zap.Int("failures", failures),
		zap.Int("scanned", len(activities)))
	return sent, nil
}

// inWindow reports whether now falls inside the daily dispatch band.
func (s *Scheduler) inWindow(now time.Time) bool {
	return now.Hour() == s.cfg.DispatchHour && now.Minute() < s.cfg.WindowMinutes
}

func composeNotification(kind, title, date string, offset int) (subject, body string) {
	switch kind {
	case KindTripUpcoming:
		subject = fmt.Sprintf("Your trip is %d days away", offset)
		body = fmt.Sprintf("Reminder: %q starts on %s. Time to pack!", title, date)
	default:
		subject = "Today's activity reminder"
		body = fmt.Sprintf("Reminder: %q is scheduled for today (%s). Enjoy!", title, date)
	}
	return subject, body
}
