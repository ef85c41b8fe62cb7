package sheetsclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

func at(day, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func publishedRoster() *model.SamplingRoster {
	start, etc := at(10, 8), at(10, 20)
	return &model.SamplingRoster{
		ID:                 "r1",
		VesselName:         "MV Aurora",
		Reference:          "NOM-001",
		StartDischarge:     &start,
		EtcTime:            &etc,
		DischargeTimeHours: 12,
		Status:             model.StatusConfirmed,
		OfficeSampling: &model.OfficeSampling{
			Sampler: model.RoleRef{ID: "s1", Name: "Ana"},
			Start:   at(10, 8), Finish: at(10, 14), Hours: 6,
		},
		LineSampling: []model.Turn{
			{Sampler: model.RoleRef{ID: "s2", Name: "Bruno"}, Start: at(10, 14), Finish: at(10, 18), Hours: 4, BlockType: model.BlockDay, TurnOrder: 1},
			{Sampler: model.RoleRef{ID: "s1", Name: "Ana"}, Start: at(10, 18), Finish: at(10, 20), Hours: 2, BlockType: model.BlockNight, TurnOrder: 2},
		},
	}
}

func TestTabTitle(t *testing.T) {
	assert.Equal(t, "MV Aurora - NOM-001", TabTitle(publishedRoster()))
	assert.Equal(t, "Roster", TabTitle(&model.SamplingRoster{}))
	assert.Equal(t, "MV Aurora", TabTitle(&model.SamplingRoster{VesselName: " MV Aurora "}))
}

func TestBuildRosterRows_NewTab(t *testing.T) {
	rows := BuildRosterRows(publishedRoster(), nil)

	require.Len(t, rows, 6)
	assert.Equal(t, []interface{}{"Vessel", "MV Aurora", "Reference", "NOM-001", "Status", "Confirmed"}, rows[0])
	assert.Equal(t, "Sun 10 Mar 2024 08:00", rows[1][1])
	assert.Equal(t, rosterColumns, rows[2])
	assert.Equal(t, []interface{}{"Office", "Ana", "Sun 10 Mar 2024 08:00", "Sun 10 Mar 2024 14:00", 6.0, ""}, rows[3])
	assert.Equal(t, []interface{}{"Line 1", "Bruno", "Sun 10 Mar 2024 14:00", "Sun 10 Mar 2024 18:00", 4.0, "day"}, rows[4])
	assert.Equal(t, "night", rows[5][5])
}

func TestBuildRosterRows_PreservesExtraColumns(t *testing.T) {
	existing := [][]interface{}{
		{"Vessel", "MV Aurora"},
		{},
		{"Block", "Sampler", "Start", "Finish", "Hours", "Shift", "Notes"},
		{"Office", "Old", "", "", "", "", "bring bottles"},
		{"Line 1", "Old"},
	}

	rows := BuildRosterRows(publishedRoster(), existing)

	assert.Equal(t, "Notes", rows[2][6])
	assert.Equal(t, "bring bottles", rows[3][6])
	assert.Equal(t, "", rows[4][6])
	assert.Len(t, rows[5], 6)
}

func TestBuildRosterRows_EmptyRoster(t *testing.T) {
	rows := BuildRosterRows(&model.SamplingRoster{Status: model.StatusDraft}, nil)

	require.Len(t, rows, 3)
	assert.Equal(t, "", rows[1][1])
	assert.Equal(t, "Draft", rows[0][5])
}
