// Package generator builds a sampling roster schedule from a discharge window.
package generator

import (
	"fmt"
	"time"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

const (
	dayStartHour   = 6
	nightStartHour = 18
)

// GenerationConfig contains the inputs for generating a roster
type GenerationConfig struct {
	Nomination model.ShipNomination

	// Start and End override the nomination's ETB/ETC when set
	Start *time.Time
	End   *time.Time

	// Samplers is the pool to draw from, in rotation order.
	// The first sampler takes the office block.
	Samplers []model.Sampler
}

// GenerationOutcome represents the result of a roster generation
type GenerationOutcome struct {
	Roster *model.SamplingRoster

	// HoursBySampler is the total assigned to each sampler, office included
	HoursBySampler map[string]float64

	// UnusedSamplers were in the pool but received no blocks
	UnusedSamplers []model.Sampler
}

// generationState tracks hours and rotation position while turns are assigned
type generationState struct {
	samplers []model.Sampler
	hours    map[string]float64
	next     int
}

// Generate builds the office block and the line sampling turns for the window.
// Turns are split at 06:00 and 18:00 in the window's location and samplers are
// rotated round-robin, skipping anyone who would exceed the per-roster cap.
func Generate(config GenerationConfig) (*GenerationOutcome, error) {
	start, end, err := resolveWindow(config)
	if err != nil {
		return nil, err
	}
	if len(config.Samplers) == 0 {
		verr := &model.ValidationError{Message: "cannot generate roster"}
		verr.Add("samplers", "at least one sampler is required")
		return nil, verr
	}

	state := &generationState{
		samplers: config.Samplers,
		hours:    make(map[string]float64),
		next:     1 % len(config.Samplers),
	}

	officeSampler := config.Samplers[0]
	officeFinish := start.Add(model.OfficeSamplingHours * time.Hour)
	state.hours[officeSampler.ID] = model.OfficeSamplingHours

	segments, err := splitIntoSegments(officeFinish, end)
	if err != nil {
		return nil, err
	}

	turns := make([]model.Turn, 0, len(segments))
	for i, seg := range segments {
		sampler, ok := state.pick(seg.hours())
		if !ok {
			verr := &model.ValidationError{Message: "cannot generate roster"}
			verr.Add("samplers", fmt.Sprintf("insufficient samplers: no one can take turn %d (%.2fh) without exceeding %d hours",
				i+1, seg.hours(), model.MaxHoursPerSampler))
			return nil, verr
		}
		turns = append(turns, model.Turn{
			Sampler:   sampler.Ref(),
			Start:     seg.start,
			Finish:    seg.finish,
			Hours:     seg.hours(),
			BlockType: blockTypeFor(seg.start),
			TurnOrder: i + 1,
		})
	}

	nomination := config.Nomination
	roster := &model.SamplingRoster{
		NominationID:   nomination.ID,
		VesselName:     nomination.VesselName,
		Reference:      nomination.Reference,
		StartDischarge: &start,
		EtcTime:        &end,
		OfficeSampling: &model.OfficeSampling{
			Sampler: officeSampler.Ref(),
			Start:   start,
			Finish:  officeFinish,
			Hours:   model.OfficeSamplingHours,
		},
		LineSampling: turns,
		Status:       model.StatusDraft,
	}
	roster.StartDischargeCustom = config.Start != nil
	roster.EtcTimeCustom = config.End != nil
	roster.RecomputeTotals()

	return state.buildOutcome(roster), nil
}

func resolveWindow(config GenerationConfig) (time.Time, time.Time, error) {
	startPtr := config.Nomination.ETB
	if config.Start != nil {
		startPtr = config.Start
	}
	endPtr := config.Nomination.ETC
	if config.End != nil {
		endPtr = config.End
	}

	verr := &model.ValidationError{Message: "cannot generate roster"}
	if startPtr == nil {
		verr.Add("startDischarge", "is required")
	}
	if endPtr == nil {
		verr.Add("etcTime", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return time.Time{}, time.Time{}, err
	}

	start, end := *startPtr, *endPtr
	if !end.After(start) {
		verr.Add("etcTime", "must be after startDischarge")
		return time.Time{}, time.Time{}, verr
	}
	if hours := end.Sub(start).Hours(); hours <= model.OfficeSamplingHours {
		verr.Add("dischargeTimeHours", fmt.Sprintf("must exceed %d hours, got %.2f", model.OfficeSamplingHours, hours))
		return time.Time{}, time.Time{}, verr
	}
	return start, end, nil
}

// pick returns the next sampler in rotation who can take the given hours
func (s *generationState) pick(hours float64) (model.Sampler, bool) {
	for tried := 0; tried < len(s.samplers); tried++ {
		idx := (s.next + tried) % len(s.samplers)
		candidate := s.samplers[idx]
		if s.hours[candidate.ID]+hours > model.MaxHoursPerSampler {
			continue
		}
		s.hours[candidate.ID] += hours
		s.next = (idx + 1) % len(s.samplers)
		return candidate, true
	}
	return model.Sampler{}, false
}

func (s *generationState) buildOutcome(roster *model.SamplingRoster) *GenerationOutcome {
	outcome := &GenerationOutcome{
		Roster:         roster,
		HoursBySampler: s.hours,
		UnusedSamplers: make([]model.Sampler, 0),
	}
	for _, sampler := range s.samplers {
		if s.hours[sampler.ID] == 0 {
			outcome.UnusedSamplers = append(outcome.UnusedSamplers, sampler)
		}
	}
	return outcome
}

func blockTypeFor(t time.Time) model.BlockType {
	if h := t.Hour(); h >= dayStartHour && h < nightStartHour {
		return model.BlockDay
	}
	return model.BlockNight
}
