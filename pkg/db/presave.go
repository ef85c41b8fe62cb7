package db

import (
	"fmt"
	"time"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/schedule"
)

// PrepareRosterForSave applies the bookkeeping every store performs before writing
// a roster document: defaults, audit fields, derived counts and the schedule guard.
// existing is the currently stored version, or nil on creation.
// The roster is modified in place.
func PrepareRosterForSave(roster *model.SamplingRoster, existing *model.SamplingRoster, now time.Time) error {
	if roster == nil {
		return fmt.Errorf("roster is required")
	}

	if roster.Status == "" {
		roster.Status = model.StatusDraft
	}
	roster.RecomputeTotals()

	if err := schedule.ValidateForSave(roster); err != nil {
		return err
	}

	if existing == nil {
		roster.Version = 1
		if roster.CreatedAt.IsZero() {
			roster.CreatedAt = now
		}
	} else {
		// Version is audit-only; it is never compared for conflict detection
		roster.Version = existing.Version + 1
		roster.CreatedAt = existing.CreatedAt
		roster.CreatedBy = existing.CreatedBy
	}
	roster.UpdatedAt = now

	return nil
}

// PrepareNominationForSave validates and stamps a nomination before it is written
func PrepareNominationForSave(nomination *model.ShipNomination, existing *model.ShipNomination, now time.Time) error {
	if nomination == nil {
		return fmt.Errorf("nomination is required")
	}

	if nomination.Status == "" {
		nomination.Status = model.StatusDraft
	}

	verr := &model.ValidationError{Message: "nomination failed validation"}
	if !nomination.Status.IsValid() {
		verr.Add("status", fmt.Sprintf("unknown status %q", nomination.Status))
	}
	if nomination.ETB != nil && nomination.ETC != nil && !nomination.ETC.After(*nomination.ETB) {
		verr.Add("etc", "must be after etb")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if existing == nil {
		if nomination.CreatedAt.IsZero() {
			nomination.CreatedAt = now
		}
	} else {
		nomination.CreatedAt = existing.CreatedAt
	}
	nomination.UpdatedAt = now

	return nil
}
