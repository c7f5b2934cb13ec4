// Package scheduler runs the recurring reminder delivery cycle.
//
// Delivery is at-least-once: a reminder is marked sent only after its
// notifier succeeds, so a crash between the two renotifies on the next cycle.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"openclaw/internal/model"
	"openclaw/internal/notifier"
)

// ReminderStore is the reminder persistence the scheduler needs.
type ReminderStore interface {
	ListDueAfter(ctx context.Context, now time.Time, after *model.DueCursor, limit int) ([]model.Reminder, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
}

type Config struct {
	// Interval between delivery cycles.
	Interval time.Duration
	// BatchSize is the page size of the due scan. A cycle keeps paging until
	// the due set is exhausted. Zero reads it in one query.
	BatchSize int
	// CycleTimeout bounds a single cycle. Zero or anything above Interval
	// means Interval.
	CycleTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{Interval: time.Minute}
}

// CycleReport summarises one delivery cycle.
type CycleReport struct {
	Due       int
	Delivered int
	Failed    int
	Skipped   int
	// Locked is set when another instance held the cycle lock.
	Locked bool
}

type Option func(*ReminderScheduler)

// WithClock overrides the wall clock used to select due reminders.
func WithClock(now func() time.Time) Option {
	return func(s *ReminderScheduler) { s.now = now }
}

// WithLock makes each cycle run only while holding lock.
func WithLock(lock CycleLock) Option {
	return func(s *ReminderScheduler) { s.lock = lock }
}

// ReminderScheduler periodically delivers due reminders. Cycles never overlap:
// a tick that fires while the previous cycle still runs is skipped.
type ReminderScheduler struct {
	store    ReminderStore
	notifier notifier.Notifier
	lock     CycleLock
	cfg      Config
	logger   zerolog.Logger
	now      func() time.Time

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	// stopped is done once the cycle in flight at the last Stop has ended.
	stopped context.Context
}

func New(store ReminderStore, n notifier.Notifier, cfg Config, logger zerolog.Logger, opts ...Option) *ReminderScheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	s := &ReminderScheduler{
		store:    store,
		notifier: n,
		lock:     noopLock{},
		cfg:      cfg,
		logger:   logger.With().Str("component", "reminder_scheduler").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins firing delivery cycles every interval. Calling Start on a
// running scheduler does nothing. After a Stop, Start blocks until the cycle
// that was in flight has finished.
func (s *ReminderScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.stopped != nil {
		<-s.stopped.Done()
		s.stopped = nil
	}

	cronLog := cronLogger{logger: s.logger}
	c := cron.New(cron.WithLocation(time.UTC), cron.WithLogger(cronLog))
	job := cron.NewChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)).
		Then(cron.FuncJob(s.tick))
	c.Schedule(cron.Every(s.cfg.Interval), job)
	c.Start()

	s.cron = c
	s.running = true
	s.logger.Info().Dur("interval", s.cfg.Interval).Int("batch_size", s.cfg.BatchSize).Msg("reminder scheduler started")
	return nil
}

// Stop prevents future cycles. The returned context is done once an
// in-flight cycle, if any, has finished. Stopping a stopped scheduler
// returns an already done context.
func (s *ReminderScheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	ctx := s.cron.Stop()
	s.stopped = ctx
	s.cron = nil
	s.running = false
	s.logger.Info().Msg("reminder scheduler stopped")
	return ctx
}

func (s *ReminderScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ReminderScheduler) cycleTimeout() time.Duration {
	if s.cfg.CycleTimeout > 0 && s.cfg.CycleTimeout < s.cfg.Interval {
		return s.cfg.CycleTimeout
	}
	return s.cfg.Interval
}

func (s *ReminderScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout())
	defer cancel()

	if _, err := s.RunCycle(ctx); err != nil {
		s.logger.Error().Err(err).Msg("reminder cycle failed")
	}
}

// RunCycle delivers every reminder due now. Each reminder is notified and
// marked sent independently; a failure on one does not stop the others.
// The returned error covers cycle-level faults such as an unreachable store.
func (s *ReminderScheduler) RunCycle(ctx context.Context) (CycleReport, error) {
	var report CycleReport

	acquired, err := s.lock.TryLock(ctx)
	if err != nil {
		return report, fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !acquired {
		report.Locked = true
		s.logger.Debug().Msg("reminder cycle held by another instance")
		return report, nil
	}
	defer func() {
		if err := s.lock.Unlock(context.Background()); err != nil {
			s.logger.Warn().Err(err).Msg("release cycle lock")
		}
	}()

	now := s.now().UTC()
	var cursor *model.DueCursor
	for {
		page, err := s.store.ListDueAfter(ctx, now, cursor, s.cfg.BatchSize)
		if err != nil {
			return report, err
		}
		report.Due += len(page)
		if len(page) > 0 {
			s.logger.Info().Int("count", len(page)).Msg("found pending reminders")
		}

		if err := s.deliverAll(ctx, page, &report); err != nil {
			return report, err
		}

		if s.cfg.BatchSize <= 0 || len(page) < s.cfg.BatchSize {
			break
		}
		next := page[len(page)-1].Cursor()
		cursor = &next
	}

	if report.Due == 0 {
		s.logger.Debug().Time("now", now).Msg("no pending reminders")
	}
	return report, nil
}

// deliverAll handles one page. Failures are counted and logged; only a
// cancelled context stops the page early.
func (s *ReminderScheduler) deliverAll(ctx context.Context, page []model.Reminder, report *CycleReport) error {
	for _, reminder := range page {
		if err := ctx.Err(); err != nil {
			return err
		}

		log := s.logger.With().
			Str("reminder_id", reminder.ID.String()).
			Str("task_id", reminder.TaskID.String()).
			Str("channel", string(reminder.Channel)).
			Time("remind_at", reminder.RemindAt).
			Logger()

		if reminder.Task == nil {
			// Task deleted after the scan; the cascade took the reminder with it.
			report.Skipped++
			log.Warn().Msg("reminder has no task, skipping")
			continue
		}

		if err := s.deliver(ctx, reminder); err != nil {
			report.Failed++
			log.Error().Err(err).Msg("reminder delivery failed")
			continue
		}
		report.Delivered++
		log.Info().Msg("reminder delivered")
	}
	return nil
}

func (s *ReminderScheduler) deliver(ctx context.Context, reminder model.Reminder) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()

	if err := s.notifier.Notify(ctx, reminder, *reminder.Task); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := s.store.MarkSent(ctx, reminder.ID); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
