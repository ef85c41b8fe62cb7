package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/generator"
	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/schedule"
	"github.com/portsampling/sampling-rosters/pkg/core/status"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

// Auto-save change types
const (
	ChangeDischargeWindow = "discharge_window"
	ChangeOfficeSampling  = "office_sampling"
	ChangeLineSampling    = "line_sampling"
	ChangeSyncNomination  = "sync_nomination"
)

// RosterServiceStore defines the database operations needed for roster editing
type RosterServiceStore interface {
	db.RosterStore
	FindNominationByID(ctx context.Context, id string) (*model.ShipNomination, error)
}

// RosterService creates and edits rosters. Every save is followed by a
// best-effort status sync through the gateway.
type RosterService struct {
	store    RosterServiceStore
	gateway  *StatusUpdateGateway
	samplers []model.Sampler
	logger   *zap.Logger
}

// NewRosterService creates the service. samplers is the registry used for generation;
// gateway may be nil to disable the post-save sync.
func NewRosterService(store RosterServiceStore, gateway *StatusUpdateGateway, samplers []model.Sampler, logger *zap.Logger) *RosterService {
	return &RosterService{
		store:    store,
		gateway:  gateway,
		samplers: samplers,
		logger:   logger,
	}
}

// CreateRosterInput holds the fields accepted when creating a roster
type CreateRosterInput struct {
	NominationID   string     `json:"nominationId" validate:"required"`
	StartDischarge *time.Time `json:"startDischarge,omitempty"`
	EtcTime        *time.Time `json:"etcTime,omitempty"`
	Generate       bool       `json:"generate"`
	SamplerIDs     []string   `json:"samplerIds,omitempty"`
	CreatedBy      string     `json:"createdBy,omitempty"`
}

// CreateRoster creates the single roster for a nomination. With Generate set the
// office block and line turns are built from the sampler registry; otherwise the
// roster starts with an empty schedule.
func (s *RosterService) CreateRoster(ctx context.Context, input CreateRosterInput) (*model.SamplingRoster, error) {
	if err := validateInput(input, "invalid roster request"); err != nil {
		return nil, err
	}

	nomination, err := s.store.FindNominationByID(ctx, input.NominationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nomination: %w", err)
	}
	if nomination == nil {
		return nil, &model.NotFoundError{Entity: "nomination", ID: input.NominationID}
	}

	existing, err := s.store.FindAll(ctx, db.RosterFilter{NominationID: nomination.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to check existing rosters: %w", err)
	}
	if len(existing) > 0 {
		return nil, &model.DuplicateError{Entity: "roster", Field: "nominationId", Value: nomination.ID}
	}

	var roster *model.SamplingRoster
	if input.Generate {
		samplers, err := s.selectSamplers(input.SamplerIDs)
		if err != nil {
			return nil, err
		}
		outcome, err := generator.Generate(generator.GenerationConfig{
			Nomination: *nomination,
			Start:      input.StartDischarge,
			End:        input.EtcTime,
			Samplers:   samplers,
		})
		if err != nil {
			return nil, err
		}
		roster = outcome.Roster
		s.logger.Debug("Generated roster schedule",
			zap.String("nomination_id", nomination.ID),
			zap.Int("turns", len(roster.LineSampling)),
			zap.Int("unused_samplers", len(outcome.UnusedSamplers)))
	} else {
		roster = &model.SamplingRoster{
			NominationID:         nomination.ID,
			VesselName:           nomination.VesselName,
			Reference:            nomination.Reference,
			StartDischarge:       nomination.ETB,
			EtcTime:              nomination.ETC,
			StartDischargeCustom: input.StartDischarge != nil,
			EtcTimeCustom:        input.EtcTime != nil,
			LineSampling:         make([]model.Turn, 0),
			Status:               model.StatusDraft,
		}
		if input.StartDischarge != nil {
			roster.StartDischarge = input.StartDischarge
		}
		if input.EtcTime != nil {
			roster.EtcTime = input.EtcTime
		}
		if err := checkWindow(roster.StartDischarge, roster.EtcTime); err != nil {
			return nil, err
		}
	}

	roster.Status = model.StatusDraft
	roster.CreatedBy = input.CreatedBy
	roster.LastModifiedBy = input.CreatedBy
	roster.RecomputeTotals()

	saved, err := s.store.Save(ctx, roster)
	if err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	s.logger.Info("Roster created",
		zap.String("roster_id", saved.ID),
		zap.String("nomination_id", saved.NominationID),
		zap.Bool("generated", input.Generate))

	return saved, nil
}

// GetRoster returns a roster or a NotFoundError
func (s *RosterService) GetRoster(ctx context.Context, rosterID string) (*model.SamplingRoster, error) {
	roster, err := s.store.FindByID(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	if roster == nil {
		return nil, &model.NotFoundError{Entity: "roster", ID: rosterID}
	}
	return roster, nil
}

// ListRosters returns rosters matching the filter in creation order
func (s *RosterService) ListRosters(ctx context.Context, filter db.RosterFilter) ([]model.SamplingRoster, error) {
	rosters, err := s.store.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rosters: %w", err)
	}
	return rosters, nil
}

// AutoSaveChange is a partial roster update keyed by its change type
type AutoSaveChange struct {
	Type           string                `json:"changeType" validate:"required,oneof=discharge_window office_sampling line_sampling sync_nomination"`
	StartDischarge *time.Time            `json:"startDischarge,omitempty"`
	EtcTime        *time.Time            `json:"etcTime,omitempty"`
	OfficeSampling *model.OfficeSampling `json:"officeSampling,omitempty"`
	LineSampling   []model.Turn          `json:"lineSampling,omitempty"`
	ModifiedBy     string                `json:"modifiedBy,omitempty"`
}

// AutoSaveResult carries the saved roster and the outcome of the post-save status sync
type AutoSaveResult struct {
	Roster     *model.SamplingRoster `json:"roster"`
	StatusSync GatewayResult         `json:"statusSync"`
}

// AutoSaveRoster applies a partial update, saves the roster and then syncs its status.
// A failed sync is reported in the result and does not fail the save.
func (s *RosterService) AutoSaveRoster(ctx context.Context, rosterID string, change AutoSaveChange) (*AutoSaveResult, error) {
	if err := validateInput(change, "invalid auto-save request"); err != nil {
		return nil, err
	}

	roster, err := s.GetRoster(ctx, rosterID)
	if err != nil {
		return nil, err
	}

	switch change.Type {
	case ChangeDischargeWindow:
		err = applyDischargeWindow(roster, change)
	case ChangeOfficeSampling:
		err = applyOfficeSampling(roster, change)
	case ChangeLineSampling:
		err = applyLineSampling(roster, change)
	case ChangeSyncNomination:
		err = s.applySyncNomination(ctx, roster)
	}
	if err != nil {
		return nil, err
	}

	roster.RecomputeTotals()
	if err := preflight(roster); err != nil {
		return nil, err
	}
	if change.ModifiedBy != "" {
		roster.LastModifiedBy = change.ModifiedBy
	}

	saved, err := s.store.Save(ctx, roster)
	if err != nil {
		return nil, fmt.Errorf("failed to save roster: %w", err)
	}

	s.logger.Debug("Roster auto-saved",
		zap.String("roster_id", saved.ID),
		zap.String("change_type", change.Type),
		zap.Int("version", saved.Version))

	result := &AutoSaveResult{Roster: saved}
	if s.gateway == nil {
		return result, nil
	}

	result.StatusSync = s.gateway.Sync(ctx, saved)
	if result.StatusSync.Updated {
		refreshed, err := s.store.FindByID(ctx, saved.ID)
		if err != nil || refreshed == nil {
			saved.Status = result.StatusSync.NewStatus
		} else {
			result.Roster = refreshed
		}
	}

	return result, nil
}

// DeleteRoster removes a roster unless sampling is underway
func (s *RosterService) DeleteRoster(ctx context.Context, rosterID string) error {
	roster, err := s.GetRoster(ctx, rosterID)
	if err != nil {
		return err
	}

	if guard := status.CanDeleteRoster(rosterID, roster.Status); !guard.Allowed {
		verr := &model.ValidationError{Message: guard.Reason}
		verr.Add("status", guard.Reason)
		return verr
	}

	if err := s.store.DeleteByID(ctx, rosterID); err != nil {
		return fmt.Errorf("failed to delete roster: %w", err)
	}

	s.logger.Info("Roster deleted", zap.String("roster_id", rosterID))
	return nil
}

func applyDischargeWindow(roster *model.SamplingRoster, change AutoSaveChange) error {
	if change.StartDischarge == nil && change.EtcTime == nil {
		verr := &model.ValidationError{Message: "invalid auto-save request"}
		verr.Add("startDischarge", "startDischarge or etcTime is required")
		return verr
	}
	if change.StartDischarge != nil {
		roster.StartDischarge = change.StartDischarge
		roster.StartDischargeCustom = true
	}
	if change.EtcTime != nil {
		roster.EtcTime = change.EtcTime
		roster.EtcTimeCustom = true
	}
	return checkWindow(roster.StartDischarge, roster.EtcTime)
}

func applyOfficeSampling(roster *model.SamplingRoster, change AutoSaveChange) error {
	office := change.OfficeSampling
	if office == nil {
		verr := &model.ValidationError{Message: "invalid auto-save request"}
		verr.Add("officeSampling", "is required")
		return verr
	}
	if office.Hours == 0 && office.Finish.After(office.Start) {
		office.Hours = office.Finish.Sub(office.Start).Hours()
	}
	roster.OfficeSampling = office
	return nil
}

func applyLineSampling(roster *model.SamplingRoster, change AutoSaveChange) error {
	turns := make([]model.Turn, len(change.LineSampling))
	copy(turns, change.LineSampling)

	sort.SliceStable(turns, func(i, j int) bool {
		return turns[i].TurnOrder < turns[j].TurnOrder
	})
	for i := range turns {
		if turns[i].Hours == 0 && turns[i].Finish.After(turns[i].Start) {
			turns[i].Hours = turns[i].Finish.Sub(turns[i].Start).Hours()
		}
	}

	if err := schedule.ValidateNoOverlap(turns); err != nil {
		verr := &model.ValidationError{Message: "line sampling turns overlap"}
		verr.Add("lineSampling", err.Error())
		return verr
	}

	roster.LineSampling = turns
	return nil
}

// applySyncNomination copies the nomination window into the roster, leaving
// manually overridden ends untouched
func (s *RosterService) applySyncNomination(ctx context.Context, roster *model.SamplingRoster) error {
	nomination, err := s.store.FindNominationByID(ctx, roster.NominationID)
	if err != nil {
		return fmt.Errorf("failed to fetch nomination: %w", err)
	}
	if nomination == nil {
		return &model.NotFoundError{Entity: "nomination", ID: roster.NominationID}
	}

	roster.VesselName = nomination.VesselName
	roster.Reference = nomination.Reference
	if !roster.StartDischargeCustom && nomination.ETB != nil {
		roster.StartDischarge = nomination.ETB
	}
	if !roster.EtcTimeCustom && nomination.ETC != nil {
		roster.EtcTime = nomination.ETC
	}
	return checkWindow(roster.StartDischarge, roster.EtcTime)
}

// preflight runs the service-level schedule checks before a write
func preflight(roster *model.SamplingRoster) error {
	verr := &model.ValidationError{Message: "roster schedule is invalid"}

	seq := schedule.ValidateLogicalSequence(roster)
	for _, msg := range seq.Errors {
		verr.Add("schedule", msg)
	}
	for _, over := range hoursOverCap(roster) {
		verr.Add("samplerHours", fmt.Sprintf("sampler %s is assigned %.2f hours, over the %d hour limit",
			over.SamplerID, over.TotalHours, model.MaxHoursPerSampler))
	}

	return verr.OrNil()
}

func checkWindow(start, end *time.Time) error {
	verr := &model.ValidationError{Message: "invalid discharge window"}
	switch {
	case start == nil:
		verr.Add("startDischarge", "is required")
	case end == nil:
		verr.Add("etcTime", "is required")
	case !status.ValidWindow(start, end):
		verr.Add("etcTime", "must be after startDischarge")
	case end.Sub(*start).Hours() <= model.OfficeSamplingHours:
		verr.Add("dischargeTimeHours", fmt.Sprintf("must exceed %d hours", model.OfficeSamplingHours))
	}
	return verr.OrNil()
}

func (s *RosterService) selectSamplers(ids []string) ([]model.Sampler, error) {
	if len(ids) == 0 {
		return s.samplers, nil
	}

	byID := make(map[string]model.Sampler, len(s.samplers))
	for _, sampler := range s.samplers {
		byID[sampler.ID] = sampler
	}

	selected := make([]model.Sampler, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		sampler, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, sampler)
	}
	if len(unknown) > 0 {
		verr := &model.ValidationError{Message: "invalid roster request"}
		verr.Add("samplerIds", "unknown sampler(s): "+strings.Join(unknown, ", "))
		return nil, verr
	}
	return selected, nil
}
