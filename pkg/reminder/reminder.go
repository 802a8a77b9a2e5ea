package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/korjavin/preacherbot/pkg/logger"
	"github.com/korjavin/preacherbot/pkg/schedule"
)

// Lister provides the schedule snapshot a pass works on
type Lister interface {
	ListAll() (schedule.Schedule, error)
}

// Notifier delivers a text to a chat
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Texter composes the reminder text for one date
type Texter interface {
	ReminderText(ctx context.Context, date string, preachers []string, daysLeft int) string
}

// Options configures when and where reminders go
type Options struct {
	ChatID   int64
	LeadDays int
	// Hour and Minute of the daily pass in Location
	Hour, Minute int
	// PollInterval > 0 replaces the daily pass with a fixed period
	PollInterval time.Duration
	Location     *time.Location
}

// Scheduler runs reminder passes over the schedule
type Scheduler struct {
	store    Lister
	notifier Notifier
	texts    Texter
	marker   Marker
	opts     Options
	now      func() time.Time
	logger   *logger.Logger
}

// New creates a reminder scheduler. marker may be nil, in which case a date
// can be announced more than once while it stays at the lead distance.
func New(store Lister, notifier Notifier, texts Texter, marker Marker, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Scheduler{
		store:    store,
		notifier: notifier,
		texts:    texts,
		marker:   marker,
		opts:     opts,
		now:      time.Now,
		logger:   logger.New("reminder"),
	}
}

// Start runs passes in the background until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	if s.opts.PollInterval > 0 {
		s.logger.Info("Starting reminder scheduler, polling every %v, lead %d days", s.opts.PollInterval, s.opts.LeadDays)
		go s.runPolling(ctx)
		return
	}
	s.logger.Info("Starting reminder scheduler, daily at %02d:%02d %s, lead %d days",
		s.opts.Hour, s.opts.Minute, s.opts.Location, s.opts.LeadDays)
	go s.runDaily(ctx)
}

func (s *Scheduler) runDaily(ctx context.Context) {
	for {
		now := s.now()
		next := s.NextRun(now)
		s.logger.Debug("Next reminder pass at %s", next.Format(time.RFC3339))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Stopping reminder scheduler")
			return
		case <-timer.C:
			s.RunOnce(ctx, s.now())
		}
	}
}

func (s *Scheduler) runPolling(ctx context.Context) {
	ticker := time.NewTicker(s.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping reminder scheduler")
			return
		case <-ticker.C:
			s.RunOnce(ctx, s.now())
		}
	}
}

// NextRun returns the first daily pass time strictly after now
func (s *Scheduler) NextRun(now time.Time) time.Time {
	local := now.In(s.opts.Location)
	y, m, d := local.Date()
	next := time.Date(y, m, d, s.opts.Hour, s.opts.Minute, 0, 0, s.opts.Location)
	if !next.After(local) {
		next = time.Date(y, m, d+1, s.opts.Hour, s.opts.Minute, 0, 0, s.opts.Location)
	}
	return next
}

// RunOnce announces every date exactly LeadDays calendar days after now and
// returns how many notifications were delivered. Failures are logged per
// date and never stop the pass.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) int {
	sched, err := s.store.ListAll()
	if err != nil {
		s.logger.Error("Failed to list schedule: %v", err)
		return 0
	}

	if s.marker != nil {
		if n, err := s.marker.Prune(sched); err != nil {
			s.logger.Warn("Failed to prune reminder marks: %v", err)
		} else if n > 0 {
			s.logger.Debug("Pruned %d stale reminder marks", n)
		}
	}

	local := now.In(s.opts.Location)
	sent := 0
	for _, date := range sched.Dates() {
		days, err := schedule.DaysUntil(local, date)
		if err != nil {
			s.logger.Error("Skipping unparseable date %q: %v", date, err)
			continue
		}
		if days != s.opts.LeadDays {
			continue
		}
		ok, err := s.notifyDate(ctx, date, sched[date])
		if err != nil {
			s.logger.Error("Failed to send reminder for %s: %v", date, err)
			continue
		}
		if ok {
			sent++
		}
	}
	s.logger.Info("Reminder pass done: %d sent", sent)
	return sent
}

// notifyDate reports false without error when the same preachers were
// already announced for date
func (s *Scheduler) notifyDate(ctx context.Context, date string, preachers []string) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	if s.marker != nil {
		marked, err := s.marker.Marked(date, s.opts.LeadDays, preachers)
		if err != nil {
			s.logger.Warn("Could not read reminder mark of %s, sending anyway: %v", date, err)
		} else if marked {
			s.logger.Debug("Reminder for %s already sent", date)
			return false, nil
		}
	}

	text := s.texts.ReminderText(ctx, date, preachers, s.opts.LeadDays)
	if err := s.notifier.Notify(ctx, s.opts.ChatID, text); err != nil {
		return false, err
	}
	s.logger.Info("Sent reminder for %s to chat %d", date, s.opts.ChatID)

	if s.marker != nil {
		if err := s.marker.Mark(date, s.opts.LeadDays, preachers); err != nil {
			s.logger.Error("Failed to mark reminder of %s: %v", date, err)
		}
	}
	return true, nil
}
