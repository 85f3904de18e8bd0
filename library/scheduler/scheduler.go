package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AntonStoeckl/book-reservations-go/library/features/command/expirereservations"
	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

const (
	// DefaultSpec runs the sweep every day at midnight.
	DefaultSpec = "0 0 * * *"

	// DefaultRunTimeout bounds one sweep run.
	DefaultRunTimeout = 10 * time.Minute

	logMsgCronPrefix     = "cron: "
	logMsgScheduled      = "expiry sweep scheduled"
	logMsgRunFailed      = "scheduled expiry sweep failed"
	logMsgRunFinished    = "scheduled expiry sweep finished"
	logMsgStopped        = "expiry sweep scheduler stopped"
	logAttrError         = "error"
	logAttrSpec          = "spec"
	logAttrNextRun       = "next_run"
	logAttrExpired       = "expired"
	logAttrFailed        = "failed"
	logAttrNoOp          = "no_op"
	logAttrRetryAttempts = "retry_attempts"
	logAttrRunDurationMS = "duration_ms"
)

var (
	// ErrInvalidSpec is returned when the cron spec cannot be parsed.
	ErrInvalidSpec = errors.New("invalid cron spec")

	// ErrInvalidRunTimeout is returned when WithRunTimeout is called with a non-positive duration.
	ErrInvalidRunTimeout = errors.New("run timeout must be positive")

	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Sweeper runs one expiry sweep.
type Sweeper = shell.CommandHandler[expirereservations.Command, expirereservations.SweepReport]

// Option defines a functional option for configuring a Scheduler.
type Option func(*Scheduler) error

// WithSpec replaces the default schedule. The spec uses the standard five field cron format
// and accepts descriptors like "@daily" or "@every 1h".
func WithSpec(spec string) Option {
	return func(s *Scheduler) error {
		if _, err := cron.ParseStandard(spec); err != nil {
			return errors.Join(ErrInvalidSpec, err)
		}

		s.spec = spec

		return nil
	}
}

// WithRunTimeout bounds every sweep run.
func WithRunTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) error {
		if timeout <= 0 {
			return ErrInvalidRunTimeout
		}

		s.runTimeout = timeout

		return nil
	}
}

// WithLocation sets the time zone the schedule is evaluated in. Default is UTC.
func WithLocation(location *time.Location) Option {
	return func(s *Scheduler) error {
		s.location = location
		return nil
	}
}

// WithClock sets the time source passed to the sweep as "now".
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) error {
		s.clock = clock
		return nil
	}
}

// WithLogger sets the logger for scheduling events and run outcomes.
func WithLogger(logger reservations.Logger) Option {
	return func(s *Scheduler) error {
		s.logger = logger
		return nil
	}
}

// Scheduler runs the expiry sweep on a cron schedule.
type Scheduler struct {
	sweeper    Sweeper
	spec       string
	runTimeout time.Duration
	location   *time.Location
	clock      func() time.Time
	logger     reservations.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
}

// New creates a Scheduler. It does not start running until Start is called.
func New(sweeper Sweeper, opts ...Option) (*Scheduler, error) {
	s := &Scheduler{
		sweeper:    sweeper,
		spec:       DefaultSpec,
		runTimeout: DefaultRunTimeout,
		location:   time.UTC,
		clock:      time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Start registers the sweep and starts the cron loop in its own goroutine.
// Runs derive their context from ctx, so canceling ctx aborts a run in progress.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return ErrAlreadyStarted
	}

	logger := cronLogger{logger: s.logger}

	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	entryID, err := c.AddFunc(s.spec, func() {
		_ = s.RunOnce(ctx) //nolint:errcheck // outcome is logged
	})
	if err != nil {
		return errors.Join(ErrInvalidSpec, err)
	}

	c.Start()

	s.cron = c
	s.entryID = entryID

	s.logInfo(logMsgScheduled, logAttrSpec, s.spec, logAttrNextRun, c.Entry(entryID).Next.Format(time.RFC3339))

	return nil
}

// Stop stops scheduling new runs. The returned context is done once a run in progress has finished.
func (s *Scheduler) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		return ctx
	}

	done := s.cron.Stop()
	s.cron = nil

	s.logInfo(logMsgStopped)

	return done
}

// NextRun returns the time of the next scheduled run, or the zero time if the scheduler is not running.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return time.Time{}
	}

	return s.cron.Entry(s.entryID).Next
}

// RunOnce runs one sweep bounded by the run timeout.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	start := time.Now()

	report, result, err := s.sweeper.Handle(runCtx, expirereservations.BuildCommand(s.clock()))
	if err != nil {
		s.logError(logMsgRunFailed, logAttrError, err.Error(), logAttrRetryAttempts, result.RetryAttempts)
		return fmt.Errorf("expiry sweep: %w", err)
	}

	s.logInfo(logMsgRunFinished,
		logAttrExpired, report.ExpiredCount(),
		logAttrFailed, report.FailedCount(),
		logAttrNoOp, report.NoOp,
		logAttrRunDurationMS, shell.ToMilliseconds(time.Since(start)),
	)

	return nil
}

func (s *Scheduler) logInfo(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Scheduler) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}
