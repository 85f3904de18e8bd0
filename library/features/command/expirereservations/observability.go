package expirereservations

import (
	"context"
)

const (
	// MetricRuns counts sweeps by status (success, partial, noop, error).
	MetricRuns = "sweeper_runs_total"

	// MetricExpired counts reservations moved to EXPIRED.
	MetricExpired = "sweeper_reservations_expired_total"

	// MetricSkipped counts reservations skipped because they were no longer ACTIVE.
	MetricSkipped = "sweeper_reservations_skipped_total"

	// MetricFailed counts reservations that could not be expired.
	MetricFailed = "sweeper_reservations_failed_total"

	statusSuccess = "success"
	statusPartial = "partial"
	statusNoOp    = "noop"
	statusError   = "error"
	labelStatus   = "status"

	logMsgNoOp          = "no old reservations to expire"
	logMsgSkipped       = "reservation is no longer active, skipping"
	logMsgExpireFailed  = "expiring reservation failed, continuing sweep"
	logMsgSweepFinished = "expiry sweep finished"
	logMsgScanFailed    = "expiry sweep scan failed"

	logAttrReservationID = "reservation_id"
	logAttrCutoff        = "cutoff"
	logAttrFound         = "found"
	logAttrExpired       = "expired"
	logAttrSkipped       = "skipped"
	logAttrFailed        = "failed"
	logAttrError         = "error"
)

func (h CommandHandler) logInfo(ctx context.Context, msg string, args ...any) {
	if h.contextualLogger != nil {
		h.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if h.logger != nil {
		h.logger.Info(msg, args...)
	}
}

func (h CommandHandler) logWarn(ctx context.Context, msg string, args ...any) {
	if h.contextualLogger != nil {
		h.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if h.logger != nil {
		h.logger.Warn(msg, args...)
	}
}

func (h CommandHandler) logError(ctx context.Context, msg string, args ...any) {
	if h.contextualLogger != nil {
		h.contextualLogger.ErrorContext(ctx, msg, args...)
		return
	}

	if h.logger != nil {
		h.logger.Error(msg, args...)
	}
}
