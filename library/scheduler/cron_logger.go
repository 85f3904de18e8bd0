package scheduler

import (
	"github.com/robfig/cron/v3"

	"github.com/AntonStoeckl/book-reservations-go/reservations"
)

// cronLogger adapts reservations.Logger to the logger interface cron uses for its own events.
type cronLogger struct {
	logger reservations.Logger
}

var _ cron.Logger = cronLogger{}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	if l.logger != nil {
		l.logger.Debug(logMsgCronPrefix+msg, keysAndValues...)
	}
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	if l.logger != nil {
		l.logger.Error(logMsgCronPrefix+msg, append([]any{logAttrError, err.Error()}, keysAndValues...)...)
	}
}
