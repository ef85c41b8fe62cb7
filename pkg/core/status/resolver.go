// Package status holds the pure lifecycle logic shared by every status write path:
// the date-window resolver and the transition guard. No I/O.
package status

import (
	"time"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// Resolve maps the current time and an operation window to a lifecycle status.
//
//   - missing start or end       -> draft
//   - start >= end               -> draft (invalid window)
//   - now < start                -> confirmed
//   - start <= now <= end        -> in_progress
//   - now > end                  -> completed
//
// Cancelled is never produced here; it is only reachable through a guarded manual transition.
func Resolve(now time.Time, start, end *time.Time) model.Status {
	if start == nil || end == nil || start.IsZero() || end.IsZero() {
		return model.StatusDraft
	}
	if !start.Before(*end) {
		return model.StatusDraft
	}
	if now.Before(*start) {
		return model.StatusConfirmed
	}
	if !now.After(*end) {
		return model.StatusInProgress
	}
	return model.StatusCompleted
}

// ValidWindow reports whether start and end form a usable operation window
func ValidWindow(start, end *time.Time) bool {
	return start != nil && end != nil && !start.IsZero() && !end.IsZero() && start.Before(*end)
}
