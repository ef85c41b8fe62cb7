package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

var _ db.Database = (*DB)(nil)

// FindAll retrieves roster documents matching the filter, oldest first
func (d *DB) FindAll(ctx context.Context, filter db.RosterFilter) ([]model.SamplingRoster, error) {
	query, args := rosterQuery(filter)

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rosters: %w", err)
	}
	defer rows.Close()

	rosters := make([]model.SamplingRoster, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan roster: %w", err)
		}
		var roster model.SamplingRoster
		if err := json.Unmarshal(data, &roster); err != nil {
			return nil, fmt.Errorf("failed to decode roster: %w", err)
		}
		rosters = append(rosters, roster)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rosters: %w", err)
	}

	return rosters, nil
}

// rosterQuery builds the FindAll statement and its positional arguments
func rosterQuery(filter db.RosterFilter) (string, []any) {
	var where []string
	var args []any

	if filter.NominationID != "" {
		args = append(args, filter.NominationID)
		where = append(where, fmt.Sprintf("nomination_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := "SELECT document FROM sampling_rosters"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	return query, args
}

// FindByID returns nil, nil when no roster has the given id
func (d *DB) FindByID(ctx context.Context, id string) (*model.SamplingRoster, error) {
	return findRoster(d.pool.QueryRow(ctx, `SELECT document FROM sampling_rosters WHERE id = $1`, id))
}

func findRoster(row pgx.Row) (*model.SamplingRoster, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}

	var roster model.SamplingRoster
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	return &roster, nil
}

// Save upserts the roster document inside a transaction so the version bump
// reads and writes the same row
func (d *DB) Save(ctx context.Context, roster *model.SamplingRoster) (*model.SamplingRoster, error) {
	if roster == nil {
		return nil, fmt.Errorf("roster is required")
	}

	doc := *roster
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := findRoster(tx.QueryRow(ctx,
		`SELECT document FROM sampling_rosters WHERE id = $1 FOR UPDATE`, doc.ID))
	if err != nil {
		return nil, err
	}

	if err := db.PrepareRosterForSave(&doc, existing, d.now()); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO sampling_rosters (id, nomination_id, status, version, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			nomination_id = EXCLUDED.nomination_id,
			status = EXCLUDED.status,
			version = EXCLUDED.version,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, doc.ID, doc.NominationID, string(doc.Status), doc.Version, data, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return nil, upsertError(err, &model.DuplicateError{Entity: "roster", Field: "nominationId", Value: doc.NominationID})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit roster: %w", err)
	}

	return &doc, nil
}

// upsertError maps a unique-index violation to dup
func upsertError(err error, dup *model.DuplicateError) error {
	if isUniqueViolation(err) {
		return dup
	}
	return fmt.Errorf("failed to save %s: %w", dup.Entity, err)
}

// DeleteByID removes the roster, returning a NotFoundError when nothing was deleted
func (d *DB) DeleteByID(ctx context.Context, id string) error {
	tag, err := d.pool.Exec(ctx, `DELETE FROM sampling_rosters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete roster: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "roster", ID: id}
	}
	return nil
}
