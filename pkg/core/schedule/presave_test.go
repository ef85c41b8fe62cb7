package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

func fieldNames(t *testing.T, err error) []string {
	t.Helper()
	var verr *model.ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	names := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		names = append(names, f.Field)
	}
	return names
}

func TestValidateForSave_Valid(t *testing.T) {
	assert.NoError(t, ValidateForSave(validRoster()))
}

func TestValidateForSave_Nil(t *testing.T) {
	assert.Error(t, ValidateForSave(nil))
}

func TestValidateForSave_Overlap(t *testing.T) {
	roster := validRoster()
	roster.LineSampling[1].Start = at(17)
	roster.LineSampling[1].Hours = 11

	err := ValidateForSave(roster)
	require.Error(t, err)
	assert.Contains(t, fieldNames(t, err), "lineSampling[0]")
}

func TestValidateForSave_WindowAndDuration(t *testing.T) {
	roster := validRoster()
	end := at(-1)
	roster.EtcTime = &end
	roster.DischargeTimeHours = 6

	names := fieldNames(t, ValidateForSave(roster))
	assert.Contains(t, names, "etcTime")
	assert.Contains(t, names, "dischargeTimeHours")
}

func TestValidateForSave_TurnFields(t *testing.T) {
	roster := validRoster()
	roster.LineSampling[0].Hours = 13
	roster.LineSampling[1].BlockType = "evening"
	roster.LineSampling[2].TurnOrder = 1
	roster.LineSampling[2].Sampler = model.RoleRef{}

	names := fieldNames(t, ValidateForSave(roster))
	assert.Contains(t, names, "lineSampling[0].hours")
	assert.Contains(t, names, "lineSampling[1].blockType")
	assert.Contains(t, names, "lineSampling[2].turnOrder")
	assert.Contains(t, names, "lineSampling[2].sampler")
}

func TestValidateForSave_MissingIdentifiers(t *testing.T) {
	roster := validRoster()
	roster.NominationID = ""
	roster.Status = "archived"
	roster.StartDischarge = nil

	names := fieldNames(t, ValidateForSave(roster))
	assert.Contains(t, names, "nominationId")
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "startDischarge")
}

func TestValidateForSave_OfficeBlockMustBeSixHours(t *testing.T) {
	roster := validRoster()
	roster.OfficeSampling.Finish = at(3)
	roster.OfficeSampling.Hours = 3

	err := ValidateForSave(roster)
	require.Error(t, err)
	assert.Equal(t, []string{"officeSampling.hours"}, fieldNames(t, err))
	assert.Contains(t, err.Error(), "must equal 6, got 3.00")
}
