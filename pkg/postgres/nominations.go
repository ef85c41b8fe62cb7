package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

// FindAllNominations retrieves every nomination document, oldest first
func (d *DB) FindAllNominations(ctx context.Context) ([]model.ShipNomination, error) {
	rows, err := d.pool.Query(ctx, `SELECT document FROM ship_nominations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query nominations: %w", err)
	}
	defer rows.Close()

	nominations := make([]model.ShipNomination, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan nomination: %w", err)
		}
		var n model.ShipNomination
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, fmt.Errorf("failed to decode nomination: %w", err)
		}
		nominations = append(nominations, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating nominations: %w", err)
	}

	return nominations, nil
}

func (d *DB) FindNominationByID(ctx context.Context, id string) (*model.ShipNomination, error) {
	return findNomination(d.pool.QueryRow(ctx, `SELECT document FROM ship_nominations WHERE id = $1`, id))
}

func findNomination(row pgx.Row) (*model.ShipNomination, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query nomination: %w", err)
	}

	var n model.ShipNomination
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to decode nomination: %w", err)
	}
	return &n, nil
}

// SaveNomination upserts the nomination document
func (d *DB) SaveNomination(ctx context.Context, nomination *model.ShipNomination) (*model.ShipNomination, error) {
	if nomination == nil {
		return nil, fmt.Errorf("nomination is required")
	}

	doc := *nomination
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := findNomination(tx.QueryRow(ctx,
		`SELECT document FROM ship_nominations WHERE id = $1 FOR UPDATE`, doc.ID))
	if err != nil {
		return nil, err
	}

	if err := db.PrepareNominationForSave(&doc, existing, d.now()); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode nomination: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO ship_nominations (id, reference, status, document, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			reference = EXCLUDED.reference,
			status = EXCLUDED.status,
			document = EXCLUDED.document,
			updated_at = EXCLUDED.updated_at
	`, doc.ID, doc.Reference, string(doc.Status), data, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return nil, upsertError(err, &model.DuplicateError{Entity: "nomination", Field: "reference", Value: doc.Reference})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit nomination: %w", err)
	}

	return &doc, nil
}
