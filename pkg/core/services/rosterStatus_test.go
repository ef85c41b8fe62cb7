package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

func newStatusService(store *failingStore, opts ...RosterStatusOption) *RosterStatusService {
	opts = append([]RosterStatusOption{WithClock(fixedClock)}, opts...)
	return NewRosterStatusService(store, zap.NewNop(), opts...)
}

func TestIntelligentStatus(t *testing.T) {
	svc := newStatusService(newFailingStore())

	// A stored non-draft status wins over the dates
	confirmedPast := buildRoster("n1", hoursFromNow(-30), 10, model.StatusConfirmed)
	assert.Equal(t, model.StatusConfirmed, svc.IntelligentStatus(confirmedPast))

	draftFuture := buildRoster("n2", hoursFromNow(24), 10, model.StatusDraft)
	assert.Equal(t, model.StatusConfirmed, svc.IntelligentStatus(draftFuture))

	draftOngoing := buildRoster("n3", hoursFromNow(-2), 10, "")
	assert.Equal(t, model.StatusInProgress, svc.IntelligentStatus(draftOngoing))

	assert.Equal(t, model.StatusDraft, svc.IntelligentStatus(&model.SamplingRoster{Status: model.StatusDraft}))
}

func TestUpdateAllAutomatically(t *testing.T) {
	ctx := context.Background()

	for _, concurrency := range []int{1, 4} {
		store := newFailingStore()
		toConfirm := seedRoster(t, store, buildRoster("a", hoursFromNow(24), 10, model.StatusDraft))
		seedRoster(t, store, buildRoster("b", hoursFromNow(-2), 10, model.StatusDraft))
		toStart := seedRoster(t, store, buildRoster("c", hoursFromNow(-2), 10, model.StatusConfirmed))
		toComplete := seedRoster(t, store, buildRoster("d", hoursFromNow(-30), 10, model.StatusInProgress))
		seedRoster(t, store, buildRoster("e", hoursFromNow(-30), 10, model.StatusCancelled))
		broken := seedRoster(t, store, buildRoster("f", hoursFromNow(-2), 10, model.StatusConfirmed))
		store.failSave[broken.ID] = true

		svc := newStatusService(store, WithConcurrency(concurrency))
		result, err := svc.UpdateAllAutomatically(ctx)
		require.NoError(t, err)

		assert.Equal(t, 3, result.UpdatedCount)
		assert.Equal(t, 2, result.SkippedCount)
		assert.ElementsMatch(t, []StatusChange{
			{ID: toConfirm.ID, From: model.StatusDraft, To: model.StatusConfirmed},
			{ID: toStart.ID, From: model.StatusConfirmed, To: model.StatusInProgress},
			{ID: toComplete.ID, From: model.StatusInProgress, To: model.StatusCompleted},
		}, result.Changes)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, broken.ID, result.Errors[0].ID)
		assert.Contains(t, result.Errors[0].Error, "disk full")

		stored, err := store.FindByID(ctx, toStart.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, stored.Status)
		assert.Equal(t, ReasonAutomatic, stored.StatusUpdateReason)
		require.NotNil(t, stored.LastStatusUpdate)
		assert.True(t, stored.LastStatusUpdate.Equal(testNow))
		assert.Equal(t, 2, stored.Version)

		stored, err = store.FindByID(ctx, broken.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConfirmed, stored.Status)
	}
}

func TestUpdateAllAutomatically_SkipsRostersWithoutWindow(t *testing.T) {
	store := newFailingStore()
	store.Import([]model.SamplingRoster{{ID: "legacy", NominationID: "n", Status: model.StatusDraft}}, nil)

	result, err := newStatusService(store).UpdateAllAutomatically(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.UpdatedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.Empty(t, result.Errors)
	assert.NotNil(t, result.Changes)
}

func TestUpdateAllAutomatically_FetchError(t *testing.T) {
	store := newFailingStore()
	store.findErr = errors.New("connection refused")

	_, err := newStatusService(store).UpdateAllAutomatically(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch rosters")
}

func TestTransition_Success(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	roster := seedRoster(t, store, buildRoster("a", hoursFromNow(-2), 10, model.StatusConfirmed))

	result, err := newStatusService(store).Transition(ctx, roster.ID, "in_progress", "")
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, result.OldStatus)
	assert.Equal(t, model.StatusInProgress, result.NewStatus)
	assert.Equal(t, model.StatusInProgress, result.Roster.Status)
	assert.Equal(t, ReasonManual, result.Roster.StatusUpdateReason)
	assert.Equal(t, 2, result.Roster.Version)
}

func TestTransition_CancelKeepsReason(t *testing.T) {
	store := newFailingStore()
	roster := seedRoster(t, store, buildRoster("a", hoursFromNow(24), 10, model.StatusDraft))

	result, err := newStatusService(store).Transition(context.Background(), roster.ID, "cancelled", "vessel diverted")
	require.NoError(t, err)
	assert.Equal(t, "vessel diverted", result.Roster.StatusUpdateReason)
}

func TestTransition_CompletedToInProgressRejected(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()
	roster := seedRoster(t, store, buildRoster("a", hoursFromNow(-30), 10, model.StatusCompleted))

	_, err := newStatusService(store).Transition(ctx, roster.ID, "in_progress", "")

	var illegal *model.IllegalTransitionError
	require.ErrorAs(t, err, &illegal)
	assert.Equal(t, model.StatusCompleted, illegal.From)
	assert.Equal(t, model.StatusInProgress, illegal.To)
	assert.NotNil(t, illegal.Allowed)
	assert.Empty(t, illegal.Allowed)

	stored, err := store.FindByID(ctx, roster.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.Version)
}

func TestTransition_UnknownStatus(t *testing.T) {
	_, err := newStatusService(newFailingStore()).Transition(context.Background(), "any", "shipped", "")
	assert.Equal(t, []string{"newStatus"}, fieldNames(t, err))
}

func TestTransition_NotFound(t *testing.T) {
	_, err := newStatusService(newFailingStore()).Transition(context.Background(), "missing", "confirmed", "")

	var notFound *model.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing", notFound.ID)
}

func TestStatistics(t *testing.T) {
	store := newFailingStore()
	seedRoster(t, store, buildRoster("a", hoursFromNow(24), 10, model.StatusDraft))
	seedRoster(t, store, buildRoster("b", hoursFromNow(-2), 10, model.StatusDraft))
	seedRoster(t, store, buildRoster("c", hoursFromNow(-2), 10, model.StatusInProgress))
	seedRoster(t, store, buildRoster("d", hoursFromNow(-30), 10, model.StatusCancelled))

	stats, err := newStatusService(store).Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[model.StatusDraft])
	assert.Equal(t, 1, stats.ByStatus[model.StatusInProgress])
	assert.Equal(t, 1, stats.ByStatus[model.StatusCancelled])
	assert.Equal(t, 0, stats.ByStatus[model.StatusCompleted])
	assert.Len(t, stats.ByStatus, len(model.AllStatuses))
	assert.Equal(t, 1, stats.PendingAutomaticUpdates)
}

func TestStatusInfo(t *testing.T) {
	info := newStatusService(newFailingStore()).StatusInfo()

	require.Len(t, info.Statuses, 5)
	assert.Equal(t, model.StatusDraft, info.Statuses[0].Value)
	assert.Equal(t, "In Progress", info.Statuses[2].DisplayName)
	assert.True(t, info.Statuses[3].Terminal)
	assert.Empty(t, info.Statuses[4].AllowedTransitions)
	assert.Equal(t, []model.Status{model.StatusConfirmed, model.StatusCancelled}, info.Transitions[model.StatusDraft])
}
