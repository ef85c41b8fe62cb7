package sheetsclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

const (
	sheetTimeLayout = "Mon 02 Jan 2006 15:04"
	headerRowIndex  = 2 // rows 1-2 hold the roster summary
)

// rosterColumns are the columns owned by publishing; anything to their right
// is left for people to annotate and is carried over on republish.
var rosterColumns = []interface{}{"Block", "Sampler", "Start", "Finish", "Hours", "Shift"}

// PublishRoster writes the roster to a tab named after the vessel and reference.
// The tab is created if missing, otherwise its roster columns are rewritten.
func (c *Client) PublishRoster(ctx context.Context, spreadsheetID string, roster *model.SamplingRoster) error {
	title := TabTitle(roster)

	exists, err := c.HasSheet(ctx, spreadsheetID, title)
	if err != nil {
		return err
	}

	var existing [][]interface{}
	if exists {
		existing, err = c.GetValues(ctx, spreadsheetID, fmt.Sprintf("'%s'!A1:ZZ", title))
		if err != nil {
			return fmt.Errorf("failed to read existing tab: %w", err)
		}
		if err := c.ClearValues(ctx, spreadsheetID, fmt.Sprintf("'%s'!A1:ZZ", title)); err != nil {
			return err
		}
	} else {
		if _, err := c.CreateSheet(ctx, spreadsheetID, title); err != nil {
			return fmt.Errorf("failed to create tab: %w", err)
		}
	}

	rows := BuildRosterRows(roster, existing)
	if err := c.WriteValues(ctx, spreadsheetID, fmt.Sprintf("'%s'!A1", title), rows); err != nil {
		return err
	}

	c.logger.Info("Roster published",
		zap.String("roster_id", roster.ID),
		zap.String("tab", title),
		zap.Bool("created_tab", !exists),
		zap.Int("rows", len(rows)))
	return nil
}

// TabTitle names the sheet tab for a roster, e.g. "MV Aurora - NOM-001"
func TabTitle(roster *model.SamplingRoster) string {
	name := strings.TrimSpace(roster.VesselName)
	if name == "" {
		name = "Roster"
	}
	if roster.Reference == "" {
		return name
	}
	return name + " - " + roster.Reference
}

// BuildRosterRows lays the roster out as sheet rows. existing is the tab's
// current content (nil for a new tab); extra columns right of the roster
// columns are preserved row by row.
func BuildRosterRows(roster *model.SamplingRoster, existing [][]interface{}) [][]interface{} {
	extraHeader, extraRows := extraColumns(existing)

	header := append(append([]interface{}{}, rosterColumns...), extraHeader...)
	rows := [][]interface{}{
		{"Vessel", roster.VesselName, "Reference", roster.Reference, "Status", roster.Status.DisplayName()},
		{"Start discharge", formatTime(roster.StartDischarge), "ETC", formatTime(roster.EtcTime), "Discharge hours", roster.DischargeTimeHours},
		header,
	}

	var body [][]interface{}
	if office := roster.OfficeSampling; office != nil {
		body = append(body, []interface{}{
			"Office", office.Sampler.Name, formatTime(&office.Start), formatTime(&office.Finish), office.Hours, "",
		})
	}
	for _, turn := range roster.LineSampling {
		body = append(body, []interface{}{
			fmt.Sprintf("Line %d", turn.TurnOrder), turn.Sampler.Name,
			formatTime(&turn.Start), formatTime(&turn.Finish), turn.Hours, string(turn.BlockType),
		})
	}

	for i, row := range body {
		if i < len(extraRows) {
			row = append(row, extraRows[i]...)
		}
		rows = append(rows, row)
	}

	return rows
}

// extraColumns returns the header and per-row values of columns beyond the
// roster columns in an existing tab
func extraColumns(existing [][]interface{}) ([]interface{}, [][]interface{}) {
	if len(existing) <= headerRowIndex {
		return nil, nil
	}
	width := len(rosterColumns)

	header := existing[headerRowIndex]
	if len(header) <= width {
		return nil, nil
	}
	extraHeader := append([]interface{}{}, header[width:]...)

	var extraRows [][]interface{}
	for _, row := range existing[headerRowIndex+1:] {
		values := make([]interface{}, len(extraHeader))
		for i := range values {
			if width+i < len(row) {
				values[i] = row[width+i]
			} else {
				values[i] = ""
			}
		}
		extraRows = append(extraRows, values)
	}

	return extraHeader, extraRows
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(sheetTimeLayout)
}
