package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func hoursFromNow(h float64) time.Time {
	return testNow.Add(time.Duration(h * float64(time.Hour)))
}

func timePtr(t time.Time) *time.Time { return &t }

func newMemoryStore() *db.MemoryDB {
	m := db.NewMemoryDB()
	m.SetClock(fixedClock)
	return m
}

// buildRoster returns a saveable roster: a 6h office block for s1 followed by a
// single line turn for s2 covering the rest of the window
func buildRoster(nominationID string, start time.Time, windowHours float64, st model.Status) *model.SamplingRoster {
	end := start.Add(time.Duration(windowHours * float64(time.Hour)))
	officeEnd := start.Add(model.OfficeSamplingHours * time.Hour)
	return &model.SamplingRoster{
		NominationID:   nominationID,
		VesselName:     "MV " + nominationID,
		Reference:      "REF-" + nominationID,
		StartDischarge: timePtr(start),
		EtcTime:        timePtr(end),
		Status:         st,
		OfficeSampling: &model.OfficeSampling{
			Sampler: model.RoleRef{ID: "s1", Name: "Ana"},
			Start:   start,
			Finish:  officeEnd,
			Hours:   model.OfficeSamplingHours,
		},
		LineSampling: []model.Turn{{
			Sampler:   model.RoleRef{ID: "s2", Name: "Bruno"},
			Start:     officeEnd,
			Finish:    end,
			Hours:     end.Sub(officeEnd).Hours(),
			BlockType: model.BlockDay,
			TurnOrder: 1,
		}},
	}
}

func seedRoster(t *testing.T, store db.RosterStore, roster *model.SamplingRoster) *model.SamplingRoster {
	t.Helper()
	saved, err := store.Save(context.Background(), roster)
	require.NoError(t, err)
	return saved
}

func seedNomination(t *testing.T, store db.NominationStore, reference string, etb, etc *time.Time) *model.ShipNomination {
	t.Helper()
	saved, err := store.SaveNomination(context.Background(), &model.ShipNomination{
		VesselName:   "MV " + reference,
		Reference:    reference,
		Clients:      []model.RoleRef{{ID: "c1", Name: "Client"}},
		ProductTypes: []model.RoleRef{{ID: "p1", Name: "Diesel"}},
		ETB:          etb,
		ETC:          etc,
	})
	require.NoError(t, err)
	return saved
}

var errSaveFailed = errors.New("disk full")

// failingStore wraps the memory store and fails saves for selected ids
type failingStore struct {
	*db.MemoryDB
	failSave map[string]bool
	findErr  error
}

func newFailingStore() *failingStore {
	return &failingStore{MemoryDB: newMemoryStore(), failSave: make(map[string]bool)}
}

func (f *failingStore) Save(ctx context.Context, roster *model.SamplingRoster) (*model.SamplingRoster, error) {
	if f.failSave[roster.ID] {
		return nil, errSaveFailed
	}
	return f.MemoryDB.Save(ctx, roster)
}

func (f *failingStore) FindAll(ctx context.Context, filter db.RosterFilter) ([]model.SamplingRoster, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.MemoryDB.FindAll(ctx, filter)
}

func (f *failingStore) SaveNomination(ctx context.Context, nomination *model.ShipNomination) (*model.ShipNomination, error) {
	if f.failSave[nomination.ID] {
		return nil, errSaveFailed
	}
	return f.MemoryDB.SaveNomination(ctx, nomination)
}

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}
