package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

func validNomination(reference string) model.ShipNomination {
	return model.ShipNomination{
		VesselName:   "MV Aurora",
		Reference:    reference,
		Clients:      []model.RoleRef{{ID: "c1", Name: "Client"}},
		ProductTypes: []model.RoleRef{{ID: "p1", Name: "Gasoil"}},
		ETB:          timePtr(hoursFromNow(24)),
		ETC:          timePtr(hoursFromNow(40)),
		Status:       model.StatusCompleted,
	}
}

func TestCreateNomination(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	created, err := CreateNomination(ctx, store, zap.NewNop(), validNomination("NOM-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusDraft, created.Status)
	assert.True(t, created.CreatedAt.Equal(testNow))

	_, err = CreateNomination(ctx, store, zap.NewNop(), validNomination("NOM-1"))
	var duplicate *model.DuplicateError
	assert.ErrorAs(t, err, &duplicate)
}

func TestCreateNomination_Invalid(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	missing := validNomination("NOM-1")
	missing.VesselName = ""
	missing.Clients = nil
	_, err := CreateNomination(ctx, store, zap.NewNop(), missing)
	assert.ElementsMatch(t, []string{"vesselName", "clients"}, fieldNames(t, err))

	backwards := validNomination("NOM-2")
	backwards.ETC = timePtr(hoursFromNow(10))
	_, err = CreateNomination(ctx, store, zap.NewNop(), backwards)
	assert.Equal(t, []string{"etc"}, fieldNames(t, err))
}

func TestUpdateNominationStatuses(t *testing.T) {
	ctx := context.Background()
	store := newFailingStore()

	upcoming := seedNomination(t, store, "UP", timePtr(hoursFromNow(24)), timePtr(hoursFromNow(40)))
	unscheduled := seedNomination(t, store, "TBA", nil, nil)

	berthed := seedNomination(t, store, "BERTH", timePtr(hoursFromNow(-4)), timePtr(hoursFromNow(8)))
	berthed.Status = model.StatusConfirmed
	berthed, err := store.SaveNomination(ctx, berthed)
	require.NoError(t, err)

	stuck := seedNomination(t, store, "STUCK", timePtr(hoursFromNow(12)), timePtr(hoursFromNow(20)))
	store.failSave[stuck.ID] = true

	result, err := UpdateNominationStatuses(ctx, store, zap.NewNop(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 2, result.UpdatedCount)
	assert.Equal(t, 1, result.SkippedCount)
	assert.ElementsMatch(t, []StatusChange{
		{ID: upcoming.ID, From: model.StatusDraft, To: model.StatusConfirmed},
		{ID: berthed.ID, From: model.StatusConfirmed, To: model.StatusInProgress},
	}, result.Changes)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, stuck.ID, result.Errors[0].ID)

	stored, err := store.FindNominationByID(ctx, unscheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, stored.Status)
}
