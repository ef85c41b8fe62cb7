package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/schedule"
	"github.com/portsampling/sampling-rosters/pkg/core/status"
	"github.com/portsampling/sampling-rosters/pkg/db"
	"github.com/portsampling/sampling-rosters/pkg/metrics"
)

// RosterStatusService reconciles date-based and manually set roster statuses
type RosterStatusService struct {
	store       db.RosterStore
	logger      *zap.Logger
	now         func() time.Time
	concurrency int
}

// RosterStatusOption configures a RosterStatusService
type RosterStatusOption func(*RosterStatusService)

// WithClock overrides the wall clock
func WithClock(now func() time.Time) RosterStatusOption {
	return func(s *RosterStatusService) { s.now = now }
}

// WithConcurrency sets how many rosters the batch processes at once
func WithConcurrency(n int) RosterStatusOption {
	return func(s *RosterStatusService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewRosterStatusService creates the service. Construct once at startup and share it.
func NewRosterStatusService(store db.RosterStore, logger *zap.Logger, opts ...RosterStatusOption) *RosterStatusService {
	s := &RosterStatusService{
		store:       store,
		logger:      logger,
		now:         time.Now,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IntelligentStatus returns the status a roster should display.
// A stored non-draft status is sticky; draft or unset falls back to the date window.
func (s *RosterStatusService) IntelligentStatus(roster *model.SamplingRoster) model.Status {
	if roster.Status != "" && roster.Status != model.StatusDraft {
		return roster.Status
	}
	return status.Resolve(s.now(), roster.StartDischarge, roster.EtcTime)
}

// StatusChange records one applied transition
type StatusChange struct {
	ID   string       `json:"id"`
	From model.Status `json:"from"`
	To   model.Status `json:"to"`
}

// BatchError records one item that failed during a batch
type BatchError struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BatchUpdateResult summarises an automatic update run
type BatchUpdateResult struct {
	UpdatedCount int            `json:"updatedCount"`
	SkippedCount int            `json:"skippedCount"`
	Changes      []StatusChange `json:"changes"`
	Errors       []BatchError   `json:"errors"`
}

func newBatchUpdateResult() *BatchUpdateResult {
	return &BatchUpdateResult{
		Changes: make([]StatusChange, 0),
		Errors:  make([]BatchError, 0),
	}
}

type rosterOutcome struct {
	change *StatusChange
	err    error
}

// UpdateAllAutomatically advances every roster whose date window calls for it.
// One roster failing does not stop the others; failures are collected in the result.
func (s *RosterStatusService) UpdateAllAutomatically(ctx context.Context) (*BatchUpdateResult, error) {
	started := time.Now()
	defer func() { metrics.ObserveBatch(metrics.SourceAutomatic, time.Since(started)) }()

	rosters, err := s.store.FindAll(ctx, db.RosterFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rosters: %w", err)
	}

	s.logger.Debug("Starting automatic status update",
		zap.Int("roster_count", len(rosters)),
		zap.Int("concurrency", s.concurrency))

	now := s.now()
	outcomes := make([]rosterOutcome, len(rosters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range rosters {
		g.Go(func() error {
			change, err := s.applyAutomatic(gctx, &rosters[i], now)
			outcomes[i] = rosterOutcome{change: change, err: err}
			return nil
		})
	}
	_ = g.Wait()

	result := newBatchUpdateResult()
	for i, outcome := range outcomes {
		switch {
		case outcome.err != nil:
			metrics.RecordUpdateError(metrics.SourceAutomatic)
			result.Errors = append(result.Errors, BatchError{ID: rosters[i].ID, Error: outcome.err.Error()})
		case outcome.change != nil:
			result.UpdatedCount++
			result.Changes = append(result.Changes, *outcome.change)
		default:
			result.SkippedCount++
		}
	}

	s.logger.Info("Automatic status update complete",
		zap.Int("updated", result.UpdatedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}

// applyAutomatic returns a nil change when the roster was skipped
func (s *RosterStatusService) applyAutomatic(ctx context.Context, roster *model.SamplingRoster, now time.Time) (*StatusChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decision := decideAutomatic(now, roster.Status, roster.StartDischarge, roster.EtcTime)
	if !decision.Apply {
		s.logger.Debug("Skipping roster",
			zap.String("roster_id", roster.ID),
			zap.String("current", string(decision.Current)),
			zap.String("resolved", string(decision.Resolved)),
			zap.String("reason", decision.Skip))
		return nil, nil
	}

	roster.Status = decision.Resolved
	roster.LastStatusUpdate = &now
	roster.StatusUpdateReason = ReasonAutomatic

	if _, err := s.store.Save(ctx, roster); err != nil {
		s.logger.Warn("Failed to save automatic status update",
			zap.String("roster_id", roster.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	metrics.RecordTransition(metrics.SourceAutomatic, string(decision.Current), string(decision.Resolved))
	s.logger.Info("Roster status updated",
		zap.String("roster_id", roster.ID),
		zap.String("from", string(decision.Current)),
		zap.String("to", string(decision.Resolved)))

	return &StatusChange{ID: roster.ID, From: decision.Current, To: decision.Resolved}, nil
}

// TransitionResult is returned after a successful manual transition
type TransitionResult struct {
	RosterID  string               `json:"rosterId"`
	OldStatus model.Status         `json:"oldStatus"`
	NewStatus model.Status         `json:"newStatus"`
	Roster    *model.SamplingRoster `json:"roster"`
}

// Transition moves a roster to newStatus if the guard allows it
func (s *RosterStatusService) Transition(ctx context.Context, rosterID, newStatus, reason string) (*TransitionResult, error) {
	target, err := model.ParseStatus(newStatus)
	if err != nil {
		verr := &model.ValidationError{Message: "invalid transition request"}
		verr.Add("newStatus", err.Error())
		return nil, verr
	}

	roster, err := s.store.FindByID(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	if roster == nil {
		return nil, &model.NotFoundError{Entity: "roster", ID: rosterID}
	}

	current := roster.Status
	if current == "" {
		current = model.StatusDraft
	}
	if err := status.CheckTransition(current, target); err != nil {
		s.logger.Info("Rejected status transition",
			zap.String("roster_id", rosterID),
			zap.String("from", string(current)),
			zap.String("to", string(target)))
		return nil, err
	}

	if reason == "" {
		reason = ReasonManual
	}
	now := s.now()
	roster.Status = target
	roster.LastStatusUpdate = &now
	roster.StatusUpdateReason = reason

	saved, err := s.store.Save(ctx, roster)
	if err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	metrics.RecordTransition(metrics.SourceManual, string(current), string(target))
	s.logger.Info("Roster status transitioned",
		zap.String("roster_id", rosterID),
		zap.String("from", string(current)),
		zap.String("to", string(target)),
		zap.String("reason", reason))

	return &TransitionResult{
		RosterID:  rosterID,
		OldStatus: current,
		NewStatus: target,
		Roster:    saved,
	}, nil
}

// Statistics is the fleet-wide status histogram
type Statistics struct {
	Total    int                  `json:"total"`
	ByStatus map[model.Status]int `json:"byStatus"`

	// PendingAutomaticUpdates counts draft rosters the next batch would advance
	PendingAutomaticUpdates int `json:"pendingAutomaticUpdates"`
}

// Statistics counts rosters by stored status
func (s *RosterStatusService) Statistics(ctx context.Context) (*Statistics, error) {
	rosters, err := s.store.FindAll(ctx, db.RosterFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rosters: %w", err)
	}

	stats := &Statistics{
		Total:    len(rosters),
		ByStatus: make(map[model.Status]int, len(model.AllStatuses)),
	}
	for _, st := range model.AllStatuses {
		stats.ByStatus[st] = 0
	}

	now := s.now()
	for _, roster := range rosters {
		current := roster.Status
		if current == "" {
			current = model.StatusDraft
		}
		stats.ByStatus[current]++

		if current == model.StatusDraft && decideAutomatic(now, current, roster.StartDischarge, roster.EtcTime).Apply {
			stats.PendingAutomaticUpdates++
		}
	}

	return stats, nil
}

// StatusDescriptor describes one status for clients
type StatusDescriptor struct {
	Value              model.Status   `json:"value"`
	DisplayName        string         `json:"displayName"`
	Terminal           bool           `json:"terminal"`
	AllowedTransitions []model.Status `json:"allowedTransitions"`
}

// StatusInfo is static lifecycle metadata
type StatusInfo struct {
	Statuses    []StatusDescriptor              `json:"statuses"`
	Transitions map[model.Status][]model.Status `json:"transitions"`
}

// StatusInfo returns the valid statuses, the transition table and display names
func (s *RosterStatusService) StatusInfo() StatusInfo {
	info := StatusInfo{
		Statuses:    make([]StatusDescriptor, 0, len(model.AllStatuses)),
		Transitions: status.TransitionTable(),
	}
	for _, st := range model.AllStatuses {
		info.Statuses = append(info.Statuses, StatusDescriptor{
			Value:              st,
			DisplayName:        st.DisplayName(),
			Terminal:           status.IsTerminal(st),
			AllowedTransitions: status.AllowedTransitions(st),
		})
	}
	return info
}

// hoursOverCap lists samplers whose roster total exceeds the cap
func hoursOverCap(roster *model.SamplingRoster) []schedule.PersonHours {
	var over []schedule.PersonHours
	for _, h := range schedule.HoursBySampler(roster) {
		if !h.IsValid {
			over = append(over, h)
		}
	}
	return over
}
