package expirereservations

import (
	"time"

	"github.com/google/uuid"
)

// SweepReport summarizes one sweep.
type SweepReport struct {
	Cutoff  time.Time   `json:"cutoff"`
	Found   int         `json:"found"`
	Expired []uuid.UUID `json:"expired"`
	Skipped []uuid.UUID `json:"skipped"`
	Failed  []uuid.UUID `json:"failed"`
	NoOp    bool        `json:"noOp"`
}

// ExpiredCount returns the number of reservations moved to EXPIRED.
func (r SweepReport) ExpiredCount() int {
	return len(r.Expired)
}

// SkippedCount returns the number of reservations that were no longer ACTIVE.
func (r SweepReport) SkippedCount() int {
	return len(r.Skipped)
}

// FailedCount returns the number of reservations that could not be expired.
func (r SweepReport) FailedCount() int {
	return len(r.Failed)
}
