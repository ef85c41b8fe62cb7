package db

import (
	"context"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// RosterFilter narrows FindAll results. Zero values match everything.
type RosterFilter struct {
	NominationID string
	Statuses     []model.Status
}

// RosterStore defines the document-store operations for sampling rosters
type RosterStore interface {
	FindAll(ctx context.Context, filter RosterFilter) ([]model.SamplingRoster, error)
	// FindByID returns nil, nil when the roster does not exist
	FindByID(ctx context.Context, id string) (*model.SamplingRoster, error)
	// Save inserts or replaces the roster after running the schedule pre-save guard
	Save(ctx context.Context, roster *model.SamplingRoster) (*model.SamplingRoster, error)
	DeleteByID(ctx context.Context, id string) error
}

// NominationStore defines the operations for ship nominations
type NominationStore interface {
	FindAllNominations(ctx context.Context) ([]model.ShipNomination, error)
	// FindNominationByID returns nil, nil when the nomination does not exist
	FindNominationByID(ctx context.Context, id string) (*model.ShipNomination, error)
	SaveNomination(ctx context.Context, nomination *model.ShipNomination) (*model.ShipNomination, error)
}

// Database defines the interface for all database operations.
// The in-memory MemoryDB, postgres.DB and sqlite.DB implement this interface.
type Database interface {
	RosterStore
	NominationStore
	Close()
}

// Matches reports whether the roster satisfies the filter
func (f RosterFilter) Matches(roster *model.SamplingRoster) bool {
	if f.NominationID != "" && roster.NominationID != f.NominationID {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if roster.Status == s {
			return true
		}
	}
	return false
}
