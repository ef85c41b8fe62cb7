package schedule

import (
	"errors"
	"fmt"
	"math"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// hoursTolerance absorbs float drift in durations derived from timestamps
const hoursTolerance = 0.01

// ValidateForSave is the persistence-boundary guard run by every store before a
// roster document is written. It returns a *model.ValidationError listing every
// offending field, or nil.
func ValidateForSave(roster *model.SamplingRoster) error {
	verr := &model.ValidationError{Message: "roster failed validation"}
	if roster == nil {
		verr.Add("roster", "is required")
		return verr
	}

	if roster.NominationID == "" {
		verr.Add("nominationId", "is required")
	}
	if !roster.Status.IsValid() {
		verr.Add("status", fmt.Sprintf("unknown status %q", roster.Status))
	}

	switch {
	case roster.StartDischarge == nil:
		verr.Add("startDischarge", "is required")
	case roster.EtcTime == nil:
		verr.Add("etcTime", "is required")
	case !roster.EtcTime.After(*roster.StartDischarge):
		verr.Add("etcTime", "must be after startDischarge")
	}

	if roster.DischargeTimeHours <= model.OfficeSamplingHours {
		verr.Add("dischargeTimeHours", fmt.Sprintf("must exceed %d hours, got %.2f", model.OfficeSamplingHours, roster.DischargeTimeHours))
	}

	if office := roster.OfficeSampling; office != nil {
		if office.Sampler.IsZero() {
			verr.Add("officeSampling.sampler", "is required")
		}
		if !office.Finish.After(office.Start) {
			verr.Add("officeSampling.finish", "must be after start")
		}
		if math.Abs(office.Hours-model.OfficeSamplingHours) > hoursTolerance {
			verr.Add("officeSampling.hours", fmt.Sprintf("must equal %d, got %.2f", model.OfficeSamplingHours, office.Hours))
		}
	}

	for i, turn := range roster.LineSampling {
		field := fmt.Sprintf("lineSampling[%d]", i)
		if turn.Sampler.IsZero() {
			verr.Add(field+".sampler", "is required")
		}
		if turn.Hours < model.MinTurnHours || turn.Hours > model.MaxTurnHours {
			verr.Add(field+".hours", fmt.Sprintf("must be between %d and %d, got %.2f", model.MinTurnHours, model.MaxTurnHours, turn.Hours))
		}
		if !turn.BlockType.IsValid() {
			verr.Add(field+".blockType", fmt.Sprintf("must be day or night, got %q", turn.BlockType))
		}
		if !turn.Finish.After(turn.Start) {
			verr.Add(field+".finish", "must be after start")
		}
		if i > 0 && turn.TurnOrder <= roster.LineSampling[i-1].TurnOrder {
			verr.Add(field+".turnOrder", "turns must be ordered by turnOrder")
		}
	}

	if err := ValidateNoOverlap(roster.LineSampling); err != nil {
		var overlap *OverlapError
		if errors.As(err, &overlap) {
			verr.Add(fmt.Sprintf("lineSampling[%d]", overlap.Index), overlap.Error())
		}
	}

	return verr.OrNil()
}
