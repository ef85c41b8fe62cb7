package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/schedule"
	"github.com/portsampling/sampling-rosters/pkg/core/status"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

// Recommendation types
const (
	RecommendAutomaticUpdate = "automatic_update"
	RecommendFixErrors       = "fix_errors"
	RecommendReviewWarnings  = "review_warnings"
	RecommendOptimize        = "optimize_schedule"
	RecommendRebalanceHours  = "rebalance_hours"
)

// Recommendation priorities
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Recommendation is advisory and never blocks a write
type Recommendation struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

// RosterValidation is the per-roster entry of a validation report
type RosterValidation struct {
	RosterID          string                 `json:"rosterId"`
	VesselName        string                 `json:"vesselName"`
	Reference         string                 `json:"reference"`
	CurrentStatus     model.Status           `json:"currentStatus"`
	ResolvedStatus    model.Status           `json:"resolvedStatus"`
	IntelligentStatus model.Status           `json:"intelligentStatus"`
	IsValid           bool                   `json:"isValid"`
	Errors            []string               `json:"errors"`
	Warnings          []string               `json:"warnings"`
	SamplerHours      []schedule.PersonHours `json:"samplerHours"`
	Recommendations   []Recommendation       `json:"recommendations"`
}

// ReportSummary aggregates a validation report
type ReportSummary struct {
	Total        int                  `json:"total"`
	Valid        int                  `json:"valid"`
	WarningsOnly int                  `json:"warningsOnly"`
	HasErrors    int                  `json:"hasErrors"`
	StatusCounts map[model.Status]int `json:"statusCounts"`
}

// ValidationReport is the read-only fleet-wide validation result
type ValidationReport struct {
	GeneratedAt time.Time          `json:"generatedAt"`
	Summary     ReportSummary      `json:"summary"`
	Rosters     []RosterValidation `json:"rosters"`
}

// GenerateValidationReport validates every roster without writing anything
func (s *RosterStatusService) GenerateValidationReport(ctx context.Context) (*ValidationReport, error) {
	rosters, err := s.store.FindAll(ctx, db.RosterFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rosters: %w", err)
	}

	now := s.now()
	report := &ValidationReport{
		GeneratedAt: now,
		Summary: ReportSummary{
			Total:        len(rosters),
			StatusCounts: make(map[model.Status]int, len(model.AllStatuses)),
		},
		Rosters: make([]RosterValidation, 0, len(rosters)),
	}
	for _, st := range model.AllStatuses {
		report.Summary.StatusCounts[st] = 0
	}

	for i := range rosters {
		entry := s.validate(&rosters[i], now)
		report.Rosters = append(report.Rosters, entry)
		report.Summary.StatusCounts[entry.CurrentStatus]++

		switch {
		case len(entry.Errors) > 0:
			report.Summary.HasErrors++
		case len(entry.Warnings) > 0:
			report.Summary.WarningsOnly++
		default:
			report.Summary.Valid++
		}
	}

	s.logger.Debug("Generated validation report",
		zap.Int("total", report.Summary.Total),
		zap.Int("valid", report.Summary.Valid),
		zap.Int("has_errors", report.Summary.HasErrors))

	return report, nil
}

// ValidateRoster is the single-roster form of GenerateValidationReport
func (s *RosterStatusService) ValidateRoster(ctx context.Context, rosterID string) (*RosterValidation, error) {
	roster, err := s.store.FindByID(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	if roster == nil {
		return nil, &model.NotFoundError{Entity: "roster", ID: rosterID}
	}

	entry := s.validate(roster, s.now())
	return &entry, nil
}

func (s *RosterStatusService) validate(roster *model.SamplingRoster, now time.Time) RosterValidation {
	current := roster.Status
	if current == "" {
		current = model.StatusDraft
	}

	seq := schedule.ValidateLogicalSequence(roster)
	resolved := status.Resolve(now, roster.StartDischarge, roster.EtcTime)

	intelligent := current
	if current == model.StatusDraft {
		intelligent = resolved
	}

	return RosterValidation{
		RosterID:          roster.ID,
		VesselName:        roster.VesselName,
		Reference:         roster.Reference,
		CurrentStatus:     current,
		ResolvedStatus:    resolved,
		IntelligentStatus: intelligent,
		IsValid:           !seq.HasErrors(),
		Errors:            seq.Errors,
		Warnings:          seq.Warnings,
		SamplerHours:      schedule.HoursBySampler(roster),
		Recommendations:   recommendationsFor(roster, current, resolved, seq),
	}
}

func recommendationsFor(roster *model.SamplingRoster, current, resolved model.Status, seq schedule.SequenceResult) []Recommendation {
	recs := make([]Recommendation, 0)

	if current == model.StatusDraft && resolved != model.StatusDraft {
		recs = append(recs, Recommendation{
			Type:     RecommendAutomaticUpdate,
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("Status can be updated automatically to %s", resolved.DisplayName()),
		})
	}
	if len(seq.Errors) > 0 {
		recs = append(recs, Recommendation{
			Type:     RecommendFixErrors,
			Priority: PriorityCritical,
			Message:  fmt.Sprintf("Fix %d validation error(s) before confirming the roster", len(seq.Errors)),
		})
	}
	if len(seq.Warnings) > 0 {
		recs = append(recs, Recommendation{
			Type:     RecommendReviewWarnings,
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("Review %d warning(s)", len(seq.Warnings)),
		})
	}
	if schedule.HasTimeGaps(roster.LineSampling) {
		recs = append(recs, Recommendation{
			Type:     RecommendOptimize,
			Priority: PriorityLow,
			Message:  "Line sampling has gaps longer than 2 hours",
		})
	}
	for _, over := range hoursOverCap(roster) {
		recs = append(recs, Recommendation{
			Type:     RecommendRebalanceHours,
			Priority: PriorityCritical,
			Message: fmt.Sprintf("Sampler %s is assigned %.1f hours, over the %d hour limit",
				over.SamplerID, over.TotalHours, model.MaxHoursPerSampler),
		})
	}

	return recs
}
