package expirereservations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/book-reservations-go/library/shared/shell"
	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/lifecycle"
)

// ErrInvalidHoldPeriod is returned when WithHoldPeriod is called with a non-positive duration.
var ErrInvalidHoldPeriod = errors.New("hold period must be positive")

// Store defines the interface needed by the CommandHandler for store operations.
type Store interface {
	FindActiveReservationsCreatedBefore(ctx context.Context, cutoff time.Time) (reservations.Reservations, error)
	WithinTx(ctx context.Context, fn reservations.TxFunc) error
}

// CommandHandler runs the expiry sweep.
type CommandHandler struct {
	store            Store
	machine          lifecycle.StateMachine
	holdPeriod       time.Duration
	retryOptions     []shell.RetryOption
	logger           reservations.Logger
	contextualLogger reservations.ContextualLogger
	metricsCollector reservations.MetricsCollector
}

// Option configures a CommandHandler.
type Option func(*CommandHandler) error

// WithHoldPeriod overrides how long an ACTIVE reservation is kept, reservations.HoldPeriod by default.
func WithHoldPeriod(holdPeriod time.Duration) Option {
	return func(h *CommandHandler) error {
		if holdPeriod <= 0 {
			return ErrInvalidHoldPeriod
		}

		h.holdPeriod = holdPeriod

		return nil
	}
}

// WithRetryOptions sets a custom retry configuration for the scan and for every single expiry.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) error {
		h.retryOptions = opts
		return nil
	}
}

// WithLogger sets the logger for per-reservation outcomes.
func WithLogger(logger reservations.Logger) Option {
	return func(h *CommandHandler) error {
		h.logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for per-reservation outcomes.
func WithContextualLogger(logger reservations.ContextualLogger) Option {
	return func(h *CommandHandler) error {
		h.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the sweep counters.
func WithMetrics(collector reservations.MetricsCollector) Option {
	return func(h *CommandHandler) error {
		h.metricsCollector = collector
		return nil
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(store Store, machine lifecycle.StateMachine, opts ...Option) (CommandHandler, error) {
	handler := CommandHandler{
		store:      store,
		machine:    machine,
		holdPeriod: reservations.HoldPeriod,
	}

	for _, opt := range opts {
		if err := opt(&handler); err != nil {
			return CommandHandler{}, err
		}
	}

	return handler, nil
}

// Handle runs one sweep as of command.Now.
// It fails only when the scan fails or the context ends, the report then holds the progress made so far.
func (h CommandHandler) Handle(ctx context.Context, command Command) (SweepReport, shell.HandlerResult, error) {
	ctx = reservations.WithStrongConsistency(ctx)
	report := SweepReport{
		Cutoff:  command.Now.Add(-h.holdPeriod),
		Expired: []uuid.UUID{},
		Skipped: []uuid.UUID{},
		Failed:  []uuid.UUID{},
	}

	var expirable reservations.Reservations

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		var scanErr error
		expirable, scanErr = h.store.FindActiveReservationsCreatedBefore(retryCtx, report.Cutoff)

		return scanErr
	}, h.retryOptions...)

	if err != nil {
		h.logError(ctx, logMsgScanFailed, logAttrCutoff, report.Cutoff, logAttrError, err.Error())
		h.countRun(ctx, statusError)

		return report, shell.NewErrorResult(retryMetrics), err
	}

	report.Found = len(expirable)

	if report.Found == 0 {
		report.NoOp = true
		h.logInfo(ctx, logMsgNoOp, logAttrCutoff, report.Cutoff)
		h.countRun(ctx, statusNoOp)

		return report, shell.NewIdempotentResult(retryMetrics), nil
	}

	for _, reservation := range expirable {
		if ctxErr := ctx.Err(); ctxErr != nil {
			h.countRun(ctx, statusError)
			return report, shell.NewErrorResult(retryMetrics), ctxErr
		}

		h.expireOne(ctx, reservation, &report)
	}

	h.logInfo(ctx, logMsgSweepFinished,
		logAttrCutoff, report.Cutoff,
		logAttrFound, report.Found,
		logAttrExpired, report.ExpiredCount(),
		logAttrSkipped, report.SkippedCount(),
		logAttrFailed, report.FailedCount(),
	)
	if report.FailedCount() > 0 {
		h.countRun(ctx, statusPartial)
	} else {
		h.countRun(ctx, statusSuccess)
	}

	return report, shell.NewSuccessResult(retryMetrics), nil
}

// expireOne expires a single reservation in its own transaction and records the outcome in report.
func (h CommandHandler) expireOne(ctx context.Context, reservation reservations.Reservation, report *SweepReport) {
	_, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		return h.store.WithinTx(retryCtx, func(txCtx context.Context, tx reservations.Tx) error {
			_, expireErr := h.machine.Expire(txCtx, tx, reservation.ID)
			return expireErr
		})
	}, h.retryOptions...)

	switch {
	case err == nil:
		report.Expired = append(report.Expired, reservation.ID)
		reservations.IncrementCounter(ctx, h.metricsCollector, MetricExpired, nil)

	case errors.Is(err, reservations.ErrInvalidTransition):
		report.Skipped = append(report.Skipped, reservation.ID)
		reservations.IncrementCounter(ctx, h.metricsCollector, MetricSkipped, nil)
		h.logWarn(ctx, logMsgSkipped, logAttrReservationID, reservation.ID.String())

	default:
		report.Failed = append(report.Failed, reservation.ID)
		reservations.IncrementCounter(ctx, h.metricsCollector, MetricFailed, nil)
		h.logError(ctx, logMsgExpireFailed, logAttrReservationID, reservation.ID.String(), logAttrError, err.Error())
	}
}

func (h CommandHandler) countRun(ctx context.Context, status string) {
	reservations.IncrementCounter(ctx, h.metricsCollector, MetricRuns, map[string]string{labelStatus: status})
}
