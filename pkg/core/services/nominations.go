package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/db"
	"github.com/portsampling/sampling-rosters/pkg/metrics"
)

// CreateNomination validates and stores a new ship nomination
func CreateNomination(ctx context.Context, store db.NominationStore, logger *zap.Logger, nomination model.ShipNomination) (*model.ShipNomination, error) {
	if err := validateInput(nomination, "invalid nomination"); err != nil {
		return nil, err
	}
	if nomination.ETB != nil && nomination.ETC != nil && !nomination.ETC.After(*nomination.ETB) {
		verr := &model.ValidationError{Message: "invalid nomination"}
		verr.Add("etc", "must be after etb")
		return nil, verr
	}

	existing, err := store.FindAllNominations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nominations: %w", err)
	}
	for _, n := range existing {
		if n.Reference == nomination.Reference {
			return nil, &model.DuplicateError{Entity: "nomination", Field: "reference", Value: nomination.Reference}
		}
	}

	nomination.ID = ""
	nomination.Status = model.StatusDraft

	saved, err := store.SaveNomination(ctx, &nomination)
	if err != nil {
		return nil, fmt.Errorf("failed to save nomination: %w", err)
	}

	logger.Info("Nomination created",
		zap.String("nomination_id", saved.ID),
		zap.String("reference", saved.Reference),
		zap.String("vessel", saved.VesselName))

	return saved, nil
}

// UpdateNominationStatuses applies the date-based status rule to every nomination
// using its ETB/ETC window. Failures are collected and the batch continues.
func UpdateNominationStatuses(ctx context.Context, store db.NominationStore, logger *zap.Logger, now time.Time) (*BatchUpdateResult, error) {
	started := time.Now()
	defer func() { metrics.ObserveBatch(metrics.SourceNomination, time.Since(started)) }()

	nominations, err := store.FindAllNominations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nominations: %w", err)
	}

	logger.Debug("Updating nomination statuses", zap.Int("count", len(nominations)))

	result := newBatchUpdateResult()
	for i := range nominations {
		nomination := &nominations[i]

		decision := decideAutomatic(now, nomination.Status, nomination.ETB, nomination.ETC)
		if !decision.Apply {
			result.SkippedCount++
			logger.Debug("Skipping nomination",
				zap.String("nomination_id", nomination.ID),
				zap.String("reason", decision.Skip))
			continue
		}

		nomination.Status = decision.Resolved
		if _, err := store.SaveNomination(ctx, nomination); err != nil {
			metrics.RecordUpdateError(metrics.SourceNomination)
			logger.Warn("Failed to update nomination status",
				zap.String("nomination_id", nomination.ID),
				zap.Error(err))
			result.Errors = append(result.Errors, BatchError{ID: nomination.ID, Error: err.Error()})
			continue
		}

		metrics.RecordTransition(metrics.SourceNomination, string(decision.Current), string(decision.Resolved))
		result.UpdatedCount++
		result.Changes = append(result.Changes, StatusChange{
			ID:   nomination.ID,
			From: decision.Current,
			To:   decision.Resolved,
		})
	}

	logger.Info("Nomination status update complete",
		zap.Int("updated", result.UpdatedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", len(result.Errors)))

	return result, nil
}
