package postgresengine

import (
	"context"
	"math"
	"time"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
	"github.com/AntonStoeckl/book-reservations-go/reservations/postgresengine/internal/adapters"
)

const (
	// MetricQueryDuration records the duration of every successful statement, labeled by operation.
	MetricQueryDuration = "reservationstore_query_duration_seconds"

	// MetricTxDuration records the duration of every transaction, labeled by status (success, rolled_back).
	MetricTxDuration = "reservationstore_tx_duration_seconds"

	// MetricDatabaseErrors counts failed statements and transaction control calls, labeled by operation.
	MetricDatabaseErrors = "reservationstore_database_errors_total"

	logMsgBuildQueryFailed   = "failed to build sql query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database statement execution failed"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgBeginTxFailed      = "failed to begin transaction"
	logMsgCommitFailed       = "failed to commit transaction"
	logMsgRollbackFailed     = "failed to roll back transaction"
	logMsgMigrationFailed    = "schema migration failed"
	logMsgMigrated           = "schema migrated"
	logMsgTxCommitted        = "transaction committed"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "reservationstore operation: "
	logAttrError             = "error"
	logAttrQuery             = "query"
	logAttrDurationMS        = "duration_ms"

	operationGetBook           = "get_book"
	operationListBooks         = "list_books"
	operationGetUser           = "get_user"
	operationListUsers         = "list_users"
	operationGetReservation    = "get_reservation"
	operationListReservations  = "list_reservations"
	operationFindExpirable     = "find_active_created_before"
	operationFindByUser        = "find_by_user"
	operationInsertBook        = "insert_book"
	operationInsertUser        = "insert_user"
	operationInsertReservation = "insert_reservation"
	operationDecrement         = "decrement_available_copies"
	operationIncrement         = "increment_available_copies"
	operationCompareAndSet     = "compare_and_set_status"
	operationBeginTx           = "begin_tx"
	operationCommit            = "commit"
	operationTx                = "tx"

	statusSuccess    = "success"
	statusError      = "error"
	statusRolledBack = "rolled_back"

	labelOperation = "operation"
	labelStatus    = "status"

	spanNameTx        = "reservationstore.tx"
	spanAttrErrorType = "error_type"
	errorTypeBeginTx  = "begin_tx_error"
	errorTypeCommit   = "commit_error"
)

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (s *Store) logQueryWithDuration(ctx context.Context, sqlQuery string, operation string, duration time.Duration) {
	args := []any{logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery}

	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+operation, args...)
		return
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+operation, args...)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s *Store) logOperation(ctx context.Context, action string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+action, args...)
		return
	}

	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

func (s *Store) logWarn(ctx context.Context, message string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, message, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(message, args...)
	}
}

// logError logs error information at the error level if a logger is configured.
func (s *Store) logError(ctx context.Context, message string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, message, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(message, allArgs...)
	}
}

// buildFailed logs a query builder failure and passes the error through.
func (s *Store) buildFailed(ctx context.Context, err error) error {
	s.logError(ctx, logMsgBuildQueryFailed, err)
	return err
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(ctx, logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

func (s *Store) recordErrorMetrics(ctx context.Context, operation string) {
	reservations.IncrementCounter(ctx, s.metricsCollector, MetricDatabaseErrors, map[string]string{
		labelOperation: operation,
		labelStatus:    statusError,
	})
}

func (s *Store) recordDurationMetrics(
	ctx context.Context,
	metric string,
	duration time.Duration,
	operation string,
	status string,
) {
	reservations.RecordDuration(ctx, s.metricsCollector, metric, duration, map[string]string{
		labelOperation: operation,
		labelStatus:    status,
	})
}

// startTraceSpan starts a tracing span if the tracing collector is configured.
func (s *Store) startTraceSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, reservations.SpanContext) {
	if s.tracingCollector != nil {
		return s.tracingCollector.StartSpan(ctx, name, attrs)
	}

	return ctx, nil
}

// finishTraceSpan finishes a tracing span if the tracing collector is configured.
func (s *Store) finishTraceSpan(span reservations.SpanContext, status string, attrs map[string]string) {
	if s.tracingCollector != nil && span != nil {
		s.tracingCollector.FinishSpan(span, status, attrs)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
