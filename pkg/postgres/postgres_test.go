package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

func TestIsUniqueViolation(t *testing.T) {
	unique := &pgconn.PgError{Code: "23505", ConstraintName: "sampling_rosters_nomination_id_key"}

	assert.True(t, isUniqueViolation(unique))
	assert.True(t, isUniqueViolation(fmt.Errorf("exec: %w", unique)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("duplicate key value violates unique constraint")))
	assert.False(t, isUniqueViolation(nil))
}

func TestUpsertError(t *testing.T) {
	dup := &model.DuplicateError{Entity: "roster", Field: "nominationId", Value: "nom-1"}

	err := upsertError(&pgconn.PgError{Code: "23505"}, dup)
	var got *model.DuplicateError
	assert.True(t, errors.As(err, &got))
	assert.Equal(t, "nom-1", got.Value)

	cause := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
	err = upsertError(cause, dup)
	assert.False(t, errors.As(err, &got))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to save roster")
}
