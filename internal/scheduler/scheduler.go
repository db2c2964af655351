// Package scheduler runs recurring maintenance for supervideo.
// View records that have not been seen within the retention window are
// pruned on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jmylchreest/supervideo/internal/observability"
)

// Pruner deletes view records last seen longer ago than maxAge.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// RunResult describes a single retention run.
type RunResult struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Removed   int64         `json:"removed"`
	Error     string        `json:"error,omitempty"`
}

// Scheduler triggers retention runs according to a cron expression.
type Scheduler struct {
	mu sync.RWMutex

	pruner Pruner
	logger *slog.Logger

	// cron parser for validating/parsing cron expressions
	parser   cron.Parser
	schedule cron.Schedule
	expr     string
	maxAge   time.Duration

	// now is overridable for tests.
	now func() time.Time

	// Running state
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// runMu serialises runs; lastMu only guards lastRun.
	runMu   sync.Mutex
	lastMu  sync.RWMutex
	lastRun *RunResult
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	// Schedule is a 5-field cron expression. Empty disables the scheduler.
	Schedule string

	// MaxAge is the retention window handed to the pruner.
	MaxAge time.Duration
}

// ErrDisabled is returned by Start when no schedule is configured.
var ErrDisabled = errors.New("retention schedule disabled")

// NewScheduler creates a new scheduler.
func NewScheduler(pruner Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		logger: slog.Default(),
		parser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
		now:    time.Now,
	}
}

// WithLogger sets a custom logger.
func (s *Scheduler) WithLogger(logger *slog.Logger) *Scheduler {
	s.logger = logger
	return s
}

// WithConfig applies configuration to the scheduler.
func (s *Scheduler) WithConfig(config SchedulerConfig) (*Scheduler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxAge = config.MaxAge
	s.expr = config.Schedule
	s.schedule = nil
	if config.Schedule == "" {
		return s, nil
	}

	schedule, err := s.parser.Parse(config.Schedule)
	if err != nil {
		return s, fmt.Errorf("invalid cron expression: %w", err)
	}
	s.schedule = schedule
	return s, nil
}

// Start begins the scheduler's background loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx != nil {
		return fmt.Errorf("scheduler already started")
	}
	if s.schedule == nil {
		return ErrDisabled
	}
	if s.maxAge <= 0 {
		return fmt.Errorf("retention max age must be positive")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop(s.ctx, s.schedule)

	s.logger.Info("retention scheduler started",
		slog.String("schedule", s.expr),
		slog.Duration("max_age", s.maxAge),
		slog.Time("next_run", s.schedule.Next(s.now())))

	return nil
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.mu.Lock()
	s.ctx = nil
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info("retention scheduler stopped")
}

// Running reports whether the background loop is active.
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx != nil
}

func (s *Scheduler) loop(ctx context.Context, schedule cron.Schedule) {
	defer s.wg.Done()

	for {
		wait := schedule.Next(s.now()).Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunNow(ctx)
		}
	}
}

// RunNow performs a retention run immediately. Runs never overlap.
func (s *Scheduler) RunNow(ctx context.Context) RunResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.RLock()
	maxAge := s.maxAge
	s.mu.RUnlock()

	logger := observability.WithOperation(s.logger, "retention")
	result := RunResult{StartedAt: s.now()}
	start := time.Now()

	removed, err := s.pruner.Prune(ctx, maxAge)
	result.Duration = time.Since(start)
	result.Removed = removed

	if err != nil {
		result.Error = err.Error()
		observability.WithError(logger, err).ErrorContext(ctx, "retention run failed",
			slog.Duration("max_age", maxAge))
	} else {
		logger.InfoContext(ctx, "retention run completed",
			slog.Int64("removed", removed),
			slog.Duration("max_age", maxAge),
			slog.Duration("duration", result.Duration))
	}

	s.lastMu.Lock()
	s.lastRun = &result
	s.lastMu.Unlock()
	return result
}

// LastRun returns the most recent completed run, or nil if none has
// finished. It does not wait for a run in progress.
func (s *Scheduler) LastRun() *RunResult {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	r := *s.lastRun
	return &r
}

// NextRun returns the next scheduled run time, or the zero time when disabled.
func (s *Scheduler) NextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.schedule == nil {
		return time.Time{}
	}
	return s.schedule.Next(s.now())
}

// ParseCron validates a cron expression and returns the next run time.
func (s *Scheduler) ParseCron(expr string) (time.Time, error) {
	schedule, err := s.parser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule.Next(s.now()), nil
}
