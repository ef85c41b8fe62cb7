package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

var testSamplers = []model.Sampler{
	{ID: "s1", Name: "Ana"},
	{ID: "s2", Name: "Bruno"},
	{ID: "s3", Name: "Carla"},
}

func newRosterService(t *testing.T, withGateway bool) (*RosterService, *db.MemoryDB) {
	t.Helper()
	store := newMemoryStore()

	var gateway *StatusUpdateGateway
	if withGateway {
		writer := NewDirectWriter(store)
		writer.now = fixedClock
		gateway = newGateway(writer)
	}
	return NewRosterService(store, gateway, testSamplers, zap.NewNop()), store
}

func TestCreateRoster_EmptySchedule(t *testing.T) {
	svc, store := newRosterService(t, false)
	nomination := seedNomination(t, store, "NOM-1", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(34)))

	roster, err := svc.CreateRoster(context.Background(), CreateRosterInput{NominationID: nomination.ID, CreatedBy: "ops"})
	require.NoError(t, err)

	assert.NotEmpty(t, roster.ID)
	assert.Equal(t, model.StatusDraft, roster.Status)
	assert.Equal(t, 1, roster.Version)
	assert.Equal(t, "MV NOM-1", roster.VesselName)
	assert.Equal(t, "NOM-1", roster.Reference)
	assert.InDelta(t, 10.0, roster.DischargeTimeHours, 0.001)
	assert.False(t, roster.StartDischargeCustom)
	assert.Empty(t, roster.LineSampling)
	assert.Equal(t, "ops", roster.CreatedBy)
}

func TestCreateRoster_Generated(t *testing.T) {
	svc, store := newRosterService(t, false)
	nomination := seedNomination(t, store, "NOM-1", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(44)))

	roster, err := svc.CreateRoster(context.Background(), CreateRosterInput{NominationID: nomination.ID, Generate: true})
	require.NoError(t, err)

	require.NotNil(t, roster.OfficeSampling)
	assert.Equal(t, "s1", roster.OfficeSampling.Sampler.ID)
	assert.NotEmpty(t, roster.LineSampling)
	assert.Equal(t, len(roster.LineSampling), roster.TotalTurns)
	assert.Empty(t, hoursOverCap(roster))
}

func TestCreateRoster_OverridesWindow(t *testing.T) {
	svc, store := newRosterService(t, false)
	nomination := seedNomination(t, store, "NOM-1", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(34)))

	roster, err := svc.CreateRoster(context.Background(), CreateRosterInput{
		NominationID: nomination.ID,
		EtcTime:      timePtr(hoursFromNow(40)),
	})
	require.NoError(t, err)

	assert.True(t, roster.EtcTimeCustom)
	assert.False(t, roster.StartDischargeCustom)
	assert.InDelta(t, 16.0, roster.DischargeTimeHours, 0.001)
}

func TestCreateRoster_Errors(t *testing.T) {
	ctx := context.Background()
	svc, store := newRosterService(t, false)
	nomination := seedNomination(t, store, "NOM-1", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(34)))
	short := seedNomination(t, store, "NOM-2", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(29)))

	_, err := svc.CreateRoster(ctx, CreateRosterInput{})
	assert.Equal(t, []string{"nominationId"}, fieldNames(t, err))

	_, err = svc.CreateRoster(ctx, CreateRosterInput{NominationID: "missing"})
	var notFound *model.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = svc.CreateRoster(ctx, CreateRosterInput{NominationID: short.ID})
	assert.Equal(t, []string{"dischargeTimeHours"}, fieldNames(t, err))

	_, err = svc.CreateRoster(ctx, CreateRosterInput{NominationID: nomination.ID, Generate: true, SamplerIDs: []string{"s1", "nobody"}})
	assert.Equal(t, []string{"samplerIds"}, fieldNames(t, err))

	_, err = svc.CreateRoster(ctx, CreateRosterInput{NominationID: nomination.ID})
	require.NoError(t, err)
	_, err = svc.CreateRoster(ctx, CreateRosterInput{NominationID: nomination.ID})
	var duplicate *model.DuplicateError
	assert.ErrorAs(t, err, &duplicate)
}

func createTestRoster(t *testing.T, svc *RosterService, store *db.MemoryDB) *model.SamplingRoster {
	t.Helper()
	nomination := seedNomination(t, store, "NOM-1", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(34)))
	roster, err := svc.CreateRoster(context.Background(), CreateRosterInput{NominationID: nomination.ID})
	require.NoError(t, err)
	return roster
}

func TestAutoSaveRoster_DischargeWindowSyncsStatus(t *testing.T) {
	ctx := context.Background()
	svc, store := newRosterService(t, true)
	roster := createTestRoster(t, svc, store)

	result, err := svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{
		Type:       ChangeDischargeWindow,
		EtcTime:    timePtr(hoursFromNow(38)),
		ModifiedBy: "planner",
	})
	require.NoError(t, err)

	assert.Equal(t, GatewayResult{Updated: true, OldStatus: model.StatusDraft, NewStatus: model.StatusConfirmed}, result.StatusSync)
	assert.Equal(t, model.StatusConfirmed, result.Roster.Status)
	assert.Equal(t, 3, result.Roster.Version)
	assert.True(t, result.Roster.EtcTimeCustom)
	assert.False(t, result.Roster.StartDischargeCustom)
	assert.InDelta(t, 14.0, result.Roster.DischargeTimeHours, 0.001)
	assert.Equal(t, "planner", result.Roster.LastModifiedBy)
}

func TestAutoSaveRoster_WithoutGateway(t *testing.T) {
	svc, store := newRosterService(t, false)
	roster := createTestRoster(t, svc, store)

	result, err := svc.AutoSaveRoster(context.Background(), roster.ID, AutoSaveChange{
		Type:           ChangeDischargeWindow,
		StartDischarge: timePtr(hoursFromNow(23)),
	})
	require.NoError(t, err)

	assert.Equal(t, GatewayResult{}, result.StatusSync)
	assert.Equal(t, model.StatusDraft, result.Roster.Status)
	assert.Equal(t, 2, result.Roster.Version)
}

func TestAutoSaveRoster_DischargeWindowErrors(t *testing.T) {
	ctx := context.Background()
	svc, store := newRosterService(t, true)
	roster := createTestRoster(t, svc, store)

	_, err := svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{Type: ChangeDischargeWindow})
	assert.Equal(t, []string{"startDischarge"}, fieldNames(t, err))

	_, err = svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{Type: ChangeDischargeWindow, EtcTime: timePtr(hoursFromNow(20))})
	assert.Equal(t, []string{"etcTime"}, fieldNames(t, err))

	_, err = svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{Type: ChangeDischargeWindow, EtcTime: timePtr(hoursFromNow(29))})
	assert.Equal(t, []string{"dischargeTimeHours"}, fieldNames(t, err))
}

func TestAutoSaveRoster_SchedulesSortedAndSaved(t *testing.T) {
	ctx := context.Background()
	svc, store := newRosterService(t, false)
	roster := createTestRoster(t, svc, store)

	_, err := svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{
		Type: ChangeOfficeSampling,
		OfficeSampling: &model.OfficeSampling{
			Sampler: model.RoleRef{ID: "s1", Name: "Ana"},
			Start:   hoursFromNow(24),
			Finish:  hoursFromNow(30),
		},
	})
	require.NoError(t, err)

	result, err := svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{
		Type: ChangeLineSampling,
		LineSampling: []model.Turn{
			{Sampler: model.RoleRef{ID: "s3"}, Start: hoursFromNow(32), Finish: hoursFromNow(34), BlockType: model.BlockNight, TurnOrder: 2},
			{Sampler: model.RoleRef{ID: "s2"}, Start: hoursFromNow(30), Finish: hoursFromNow(32), BlockType: model.BlockDay, TurnOrder: 1},
		},
	})
	require.NoError(t, err)

	saved := result.Roster
	assert.InDelta(t, 6.0, saved.OfficeSampling.Hours, 0.001)
	require.Len(t, saved.LineSampling, 2)
	assert.Equal(t, "s2", saved.LineSampling[0].Sampler.ID)
	assert.InDelta(t, 2.0, saved.LineSampling[0].Hours, 0.001)
	assert.Equal(t, 3, saved.TotalSamplers)
	assert.Equal(t, 2, saved.TotalTurns)
}

func TestAutoSaveRoster_ScheduleRejected(t *testing.T) {
	ctx := context.Background()
	svc, store := newRosterService(t, false)
	roster := createTestRoster(t, svc, store)

	_, err := svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{Type: ChangeOfficeSampling})
	assert.Equal(t, []string{"officeSampling"}, fieldNames(t, err))

	// one minute of overlap
	_, err = svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{
		Type: ChangeLineSampling,
		LineSampling: []model.Turn{
			{Sampler: model.RoleRef{ID: "s2"}, Start: hoursFromNow(24), Finish: hoursFromNow(30), BlockType: model.BlockDay, TurnOrder: 1},
			{Sampler: model.RoleRef{ID: "s3"}, Start: hoursFromNow(30).Add(-time.Minute), Finish: hoursFromNow(34), BlockType: model.BlockNight, TurnOrder: 2},
		},
	})
	assert.Equal(t, []string{"lineSampling"}, fieldNames(t, err))

	// 7h + 6h for the same sampler
	_, err = svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{
		Type: ChangeLineSampling,
		LineSampling: []model.Turn{
			{Sampler: model.RoleRef{ID: "s2"}, Start: hoursFromNow(24), Finish: hoursFromNow(31), BlockType: model.BlockDay, TurnOrder: 1},
			{Sampler: model.RoleRef{ID: "s2"}, Start: hoursFromNow(31), Finish: hoursFromNow(37), BlockType: model.BlockNight, TurnOrder: 2},
		},
	})
	assert.Equal(t, []string{"samplerHours"}, fieldNames(t, err))

	_, err = svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{
		Type: ChangeOfficeSampling,
		OfficeSampling: &model.OfficeSampling{
			Sampler: model.RoleRef{ID: "s1", Name: "Ana"},
			Start:   hoursFromNow(24),
			Finish:  hoursFromNow(27),
		},
	})
	assert.Equal(t, []string{"officeSampling.hours"}, fieldNames(t, err))

	_, err = svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{Type: "rename"})
	assert.Equal(t, []string{"changeType"}, fieldNames(t, err))

	stored, err := store.FindByID(ctx, roster.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)
	assert.Empty(t, stored.LineSampling)
}

func TestAutoSaveRoster_SyncNominationKeepsCustomEnds(t *testing.T) {
	ctx := context.Background()
	svc, store := newRosterService(t, false)
	nomination := seedNomination(t, store, "NOM-1", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(34)))
	roster, err := svc.CreateRoster(ctx, CreateRosterInput{NominationID: nomination.ID, EtcTime: timePtr(hoursFromNow(36))})
	require.NoError(t, err)

	nomination.VesselName = "MV Renamed"
	nomination.ETB = timePtr(hoursFromNow(26))
	nomination.ETC = timePtr(hoursFromNow(40))
	_, err = store.SaveNomination(ctx, nomination)
	require.NoError(t, err)

	result, err := svc.AutoSaveRoster(ctx, roster.ID, AutoSaveChange{Type: ChangeSyncNomination})
	require.NoError(t, err)

	assert.Equal(t, "MV Renamed", result.Roster.VesselName)
	assert.True(t, result.Roster.StartDischarge.Equal(hoursFromNow(26)))
	assert.True(t, result.Roster.EtcTime.Equal(hoursFromNow(36)))
	assert.InDelta(t, 10.0, result.Roster.DischargeTimeHours, 0.001)
}

func TestAutoSaveRoster_NotFound(t *testing.T) {
	svc, _ := newRosterService(t, false)

	_, err := svc.AutoSaveRoster(context.Background(), "missing", AutoSaveChange{Type: ChangeSyncNomination})
	var notFound *model.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteRoster(t *testing.T) {
	ctx := context.Background()
	svc, store := newRosterService(t, false)

	inProgress := seedRoster(t, store, buildRoster("busy", hoursFromNow(-2), 10, model.StatusInProgress))
	err := svc.DeleteRoster(ctx, inProgress.ID)
	assert.Equal(t, []string{"status"}, fieldNames(t, err))
	assert.Contains(t, err.Error(), "while sampling is in progress")

	draft := seedRoster(t, store, buildRoster("idle", hoursFromNow(24), 10, model.StatusDraft))
	require.NoError(t, svc.DeleteRoster(ctx, draft.ID))

	_, err = svc.GetRoster(ctx, draft.ID)
	var notFound *model.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	err = svc.DeleteRoster(ctx, draft.ID)
	assert.ErrorAs(t, err, &notFound)
}
