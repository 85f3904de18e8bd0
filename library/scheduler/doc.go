// Package scheduler triggers the expiry sweep on a cron schedule.
//
// By default the sweep runs daily at midnight. A run that is still busy when the next one is due makes the
// next one skip, and every run is bounded by a timeout.
package scheduler
