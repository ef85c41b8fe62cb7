package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// MemoryDB is an in-process Database used for local runs and tests.
// Documents are deep-copied on the way in and out so callers never share state with the store.
type MemoryDB struct {
	mu          sync.RWMutex
	rosters     map[string]model.SamplingRoster
	nominations map[string]model.ShipNomination
	now         func() time.Time
}

var _ Database = (*MemoryDB)(nil)

// NewMemoryDB creates an empty in-memory database
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		rosters:     make(map[string]model.SamplingRoster),
		nominations: make(map[string]model.ShipNomination),
		now:         time.Now,
	}
}

// SetClock overrides the clock used for audit timestamps
func (m *MemoryDB) SetClock(now func() time.Time) {
	m.now = now
}

func (m *MemoryDB) Close() {}

func (m *MemoryDB) FindAll(ctx context.Context, filter RosterFilter) ([]model.SamplingRoster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.SamplingRoster, 0, len(m.rosters))
	for _, roster := range m.rosters {
		if !filter.Matches(&roster) {
			continue
		}
		copied, err := cloneRoster(&roster)
		if err != nil {
			return nil, err
		}
		result = append(result, *copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (m *MemoryDB) FindByID(ctx context.Context, id string) (*model.SamplingRoster, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	roster, ok := m.rosters[id]
	if !ok {
		return nil, nil
	}
	return cloneRoster(&roster)
}

func (m *MemoryDB) Save(ctx context.Context, roster *model.SamplingRoster) (*model.SamplingRoster, error) {
	return m.SaveWith(ctx, roster, nil)
}

// SaveWith prepares the roster and calls persist before committing it to memory.
// If persist fails the stored document is left untouched.
func (m *MemoryDB) SaveWith(
	ctx context.Context,
	roster *model.SamplingRoster,
	persist func(ctx context.Context, roster *model.SamplingRoster) error,
) (*model.SamplingRoster, error) {
	if roster == nil {
		return nil, fmt.Errorf("roster is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := cloneRoster(roster)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	for id, other := range m.rosters {
		if id != doc.ID && other.NominationID == doc.NominationID {
			return nil, &model.DuplicateError{Entity: "roster", Field: "nominationId", Value: doc.NominationID}
		}
	}

	var existing *model.SamplingRoster
	if stored, ok := m.rosters[doc.ID]; ok {
		existing = &stored
	}
	if err := PrepareRosterForSave(doc, existing, m.now()); err != nil {
		return nil, err
	}
	if persist != nil {
		if err := persist(ctx, doc); err != nil {
			return nil, err
		}
	}

	m.rosters[doc.ID] = *doc
	return cloneRoster(doc)
}

func (m *MemoryDB) DeleteByID(ctx context.Context, id string) error {
	return m.DeleteWith(ctx, id, nil)
}

// DeleteWith calls remove before dropping the roster from memory; a failed
// remove keeps the roster
func (m *MemoryDB) DeleteWith(ctx context.Context, id string, remove func(ctx context.Context, id string) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rosters[id]; !ok {
		return &model.NotFoundError{Entity: "roster", ID: id}
	}
	if remove != nil {
		if err := remove(ctx, id); err != nil {
			return err
		}
	}
	delete(m.rosters, id)
	return nil
}

func (m *MemoryDB) FindAllNominations(ctx context.Context) ([]model.ShipNomination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.ShipNomination, 0, len(m.nominations))
	for _, nomination := range m.nominations {
		copied, err := cloneNomination(&nomination)
		if err != nil {
			return nil, err
		}
		result = append(result, *copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (m *MemoryDB) FindNominationByID(ctx context.Context, id string) (*model.ShipNomination, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	nomination, ok := m.nominations[id]
	if !ok {
		return nil, nil
	}
	return cloneNomination(&nomination)
}

func (m *MemoryDB) SaveNomination(ctx context.Context, nomination *model.ShipNomination) (*model.ShipNomination, error) {
	return m.SaveNominationWith(ctx, nomination, nil)
}

// SaveNominationWith is SaveWith for nominations
func (m *MemoryDB) SaveNominationWith(
	ctx context.Context,
	nomination *model.ShipNomination,
	persist func(ctx context.Context, nomination *model.ShipNomination) error,
) (*model.ShipNomination, error) {
	if nomination == nil {
		return nil, fmt.Errorf("nomination is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := cloneNomination(nomination)
	if err != nil {
		return nil, err
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	for id, other := range m.nominations {
		if id != doc.ID && other.Reference == doc.Reference {
			return nil, &model.DuplicateError{Entity: "nomination", Field: "reference", Value: doc.Reference}
		}
	}

	var existing *model.ShipNomination
	if stored, ok := m.nominations[doc.ID]; ok {
		existing = &stored
	}
	if err := PrepareNominationForSave(doc, existing, m.now()); err != nil {
		return nil, err
	}
	if persist != nil {
		if err := persist(ctx, doc); err != nil {
			return nil, err
		}
	}

	m.nominations[doc.ID] = *doc
	return cloneNomination(doc)
}

// cloneRoster round-trips through JSON, the same encoding the SQL stores persist
func cloneRoster(roster *model.SamplingRoster) (*model.SamplingRoster, error) {
	data, err := json.Marshal(roster)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster: %w", err)
	}
	var out model.SamplingRoster
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	return &out, nil
}

func cloneNomination(nomination *model.ShipNomination) (*model.ShipNomination, error) {
	data, err := json.Marshal(nomination)
	if err != nil {
		return nil, fmt.Errorf("failed to encode nomination: %w", err)
	}
	var out model.ShipNomination
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode nomination: %w", err)
	}
	return &out, nil
}

// Import replaces the store's contents with previously persisted documents,
// bypassing the pre-save bookkeeping
func (m *MemoryDB) Import(rosters []model.SamplingRoster, nominations []model.ShipNomination) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rosters = make(map[string]model.SamplingRoster, len(rosters))
	for _, r := range rosters {
		m.rosters[r.ID] = r
	}
	m.nominations = make(map[string]model.ShipNomination, len(nominations))
	for _, n := range nominations {
		m.nominations[n.ID] = n
	}
}
