package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/db"
)

// RosterPublisher writes a roster to an external spreadsheet
type RosterPublisher interface {
	PublishRoster(ctx context.Context, spreadsheetID string, roster *model.SamplingRoster) error
}

// PublishRoster sends one roster to the configured spreadsheet. Cancelled rosters
// are refused; any other status is published as-is.
func PublishRoster(
	ctx context.Context,
	store db.RosterStore,
	publisher RosterPublisher,
	logger *zap.Logger,
	spreadsheetID string,
	rosterID string,
) (*model.SamplingRoster, error) {
	logger.Debug("Starting publishRoster", zap.String("roster_id", rosterID))

	if spreadsheetID == "" {
		verr := &model.ValidationError{Message: "publishing is not configured"}
		verr.Add("publish.rosterSheetID", "is required")
		return nil, verr
	}

	roster, err := store.FindByID(ctx, rosterID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}
	if roster == nil {
		return nil, &model.NotFoundError{Entity: "roster", ID: rosterID}
	}

	if roster.Status == model.StatusCancelled {
		verr := &model.ValidationError{Message: "cannot publish roster"}
		verr.Add("status", "roster is cancelled")
		return nil, verr
	}

	if err := publisher.PublishRoster(ctx, spreadsheetID, roster); err != nil {
		return nil, fmt.Errorf("failed to publish roster: %w", err)
	}

	logger.Info("Published roster",
		zap.String("roster_id", roster.ID),
		zap.String("reference", roster.Reference),
		zap.Int("turns", roster.TotalTurns))

	return roster, nil
}
