// Package schedule checks that a roster's office and line sampling blocks form a
// consistent schedule. Every rule lives here once and is called both from the
// store pre-save guard and from the services.
package schedule

import (
	"fmt"
	"time"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// MaxGap is the largest gap between consecutive turns before an optimisation is suggested
const MaxGap = 2 * time.Hour

// OverlapError reports that a turn finishes after the next one starts
type OverlapError struct {
	Index     int
	Finish    time.Time
	NextStart time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("turn %d finishes at %s after turn %d starts at %s",
		e.Index+1, e.Finish.Format(time.RFC3339), e.Index+2, e.NextStart.Format(time.RFC3339))
}

// SequenceResult holds the outcome of a logical sequence check
type SequenceResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// HasErrors returns true if any hard error was found
func (r SequenceResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// PersonHours is the total time attributed to one sampler across a roster
type PersonHours struct {
	SamplerID  string  `json:"samplerId"`
	IsValid    bool    `json:"isValid"`
	TotalHours float64 `json:"totalHours"`
}

// ValidateNoOverlap checks adjacent turns in slice order (callers supply turns
// already ordered by intended sequence). Back-to-back turns are allowed.
// Turns with missing times are skipped.
func ValidateNoOverlap(turns []model.Turn) error {
	for i := 0; i+1 < len(turns); i++ {
		finish := turns[i].Finish
		nextStart := turns[i+1].Start
		if finish.IsZero() || nextStart.IsZero() {
			continue
		}
		if finish.After(nextStart) {
			return &OverlapError{Index: i, Finish: finish, NextStart: nextStart}
		}
	}
	return nil
}

// ValidateLogicalSequence checks block ordering and window containment.
// Ordering problems are errors; blocks outside [StartDischarge, EtcTime] are warnings.
func ValidateLogicalSequence(roster *model.SamplingRoster) SequenceResult {
	result := SequenceResult{Errors: []string{}, Warnings: []string{}}
	if roster == nil {
		return result
	}

	office := roster.OfficeSampling
	turns := roster.LineSampling

	if office != nil && len(turns) > 0 && !office.Start.IsZero() && !turns[0].Start.IsZero() {
		if !office.Start.Before(turns[0].Start) {
			result.Errors = append(result.Errors, "Office sampling must start before line sampling")
		}
	}

	for i := 0; i+1 < len(turns); i++ {
		currentEnd := turns[i].Finish
		nextStart := turns[i+1].Start
		if currentEnd.IsZero() || nextStart.IsZero() {
			continue
		}
		if currentEnd.After(nextStart) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Line sampling turn %d ends after turn %d starts", i+1, i+2))
		}
	}

	if roster.StartDischarge == nil || roster.EtcTime == nil {
		return result
	}
	windowStart := *roster.StartDischarge
	windowEnd := *roster.EtcTime

	if office != nil && !outsideCheckSkipped(office.Start, office.Finish) {
		if office.Start.Before(windowStart) || office.Finish.After(windowEnd) {
			result.Warnings = append(result.Warnings, "Office sampling falls outside the discharge window")
		}
	}
	for i, turn := range turns {
		if outsideCheckSkipped(turn.Start, turn.Finish) {
			continue
		}
		if turn.Start.Before(windowStart) || turn.Finish.After(windowEnd) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("Line sampling turn %d falls outside the discharge window", i+1))
		}
	}

	return result
}

func outsideCheckSkipped(start, finish time.Time) bool {
	return start.IsZero() || finish.IsZero()
}

// ValidatePersonHours sums the office and line hours attributed to one sampler
func ValidatePersonHours(samplerID string, roster *model.SamplingRoster) PersonHours {
	total := 0.0
	if roster != nil {
		if roster.OfficeSampling != nil && roster.OfficeSampling.Sampler.ID == samplerID {
			total += roster.OfficeSampling.Hours
		}
		for _, turn := range roster.LineSampling {
			if turn.Sampler.ID == samplerID {
				total += turn.Hours
			}
		}
	}
	return PersonHours{
		SamplerID:  samplerID,
		IsValid:    total <= model.MaxHoursPerSampler,
		TotalHours: total,
	}
}

// HoursBySampler runs ValidatePersonHours for every sampler on the roster,
// in order of first appearance
func HoursBySampler(roster *model.SamplingRoster) []PersonHours {
	if roster == nil {
		return nil
	}
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if roster.OfficeSampling != nil {
		add(roster.OfficeSampling.Sampler.ID)
	}
	for _, turn := range roster.LineSampling {
		add(turn.Sampler.ID)
	}

	hours := make([]PersonHours, 0, len(ids))
	for _, id := range ids {
		hours = append(hours, ValidatePersonHours(id, roster))
	}
	return hours
}

// HasTimeGaps reports whether any two adjacent turns are separated by more than MaxGap
func HasTimeGaps(turns []model.Turn) bool {
	for i := 0; i+1 < len(turns); i++ {
		finish := turns[i].Finish
		nextStart := turns[i+1].Start
		if finish.IsZero() || nextStart.IsZero() {
			continue
		}
		if nextStart.Sub(finish) > MaxGap {
			return true
		}
	}
	return false
}
