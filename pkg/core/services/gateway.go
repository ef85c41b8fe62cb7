package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/status"
	"github.com/portsampling/sampling-rosters/pkg/db"
	"github.com/portsampling/sampling-rosters/pkg/metrics"
)

// RosterWriter persists a status change decided by the gateway
type RosterWriter interface {
	WriteStatus(ctx context.Context, rosterID string, to model.Status, reason string) error
}

// DirectWriter writes through the roster store, applying the transition guard
type DirectWriter struct {
	store db.RosterStore
	now   func() time.Time
}

func NewDirectWriter(store db.RosterStore) *DirectWriter {
	return &DirectWriter{store: store, now: time.Now}
}

func (w *DirectWriter) WriteStatus(ctx context.Context, rosterID string, to model.Status, reason string) error {
	roster, err := w.store.FindByID(ctx, rosterID)
	if err != nil {
		return fmt.Errorf("failed to fetch roster: %w", err)
	}
	if roster == nil {
		return &model.NotFoundError{Entity: "roster", ID: rosterID}
	}

	current := roster.Status
	if current == "" {
		current = model.StatusDraft
	}
	if err := status.CheckTransition(current, to); err != nil {
		return err
	}

	now := w.now()
	roster.Status = to
	roster.LastStatusUpdate = &now
	roster.StatusUpdateReason = reason

	if _, err := w.store.Save(ctx, roster); err != nil {
		return fmt.Errorf("failed to save roster: %w", err)
	}
	return nil
}

// TransitionClient is the remote transition endpoint, satisfied by statusclient.Client
type TransitionClient interface {
	Transition(ctx context.Context, rosterID, newStatus, reason string) error
}

// RemoteWriter asks a running server to apply the transition over HTTP
type RemoteWriter struct {
	client TransitionClient
}

func NewRemoteWriter(client TransitionClient) *RemoteWriter {
	return &RemoteWriter{client: client}
}

func (w *RemoteWriter) WriteStatus(ctx context.Context, rosterID string, to model.Status, reason string) error {
	if err := w.client.Transition(ctx, rosterID, string(to), reason); err != nil {
		return fmt.Errorf("remote transition failed: %w", err)
	}
	return nil
}

// GatewayResult reports the outcome of a post-save status sync
type GatewayResult struct {
	Updated   bool         `json:"updated"`
	OldStatus model.Status `json:"oldStatus,omitempty"`
	NewStatus model.Status `json:"newStatus,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// StatusUpdateGateway recomputes the date-based status of a single roster right after
// it is saved and persists any change through its RosterWriter
type StatusUpdateGateway struct {
	writer RosterWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewStatusUpdateGateway(writer RosterWriter, logger *zap.Logger) *StatusUpdateGateway {
	return &StatusUpdateGateway{writer: writer, logger: logger, now: time.Now}
}

// WithClock overrides the wall clock, returning the gateway for chaining
func (g *StatusUpdateGateway) WithClock(now func() time.Time) *StatusUpdateGateway {
	g.now = now
	return g
}

// Sync resolves the status of the given in-memory roster using the same rule as the
// automatic batch, so a roster the batch would skip is skipped here too. It never
// returns an error: failures are reported in the result so the caller's save is not blocked.
func (g *StatusUpdateGateway) Sync(ctx context.Context, roster *model.SamplingRoster) GatewayResult {
	if roster == nil || roster.ID == "" {
		metrics.RecordGatewayOutcome("failed")
		return GatewayResult{Error: "roster id is required"}
	}

	decision := decideAutomatic(g.now(), roster.Status, roster.StartDischarge, roster.EtcTime)
	old, resolved := decision.Current, decision.Resolved

	if !decision.Apply {
		outcome := "skipped"
		if resolved == old {
			outcome = "unchanged"
		}
		metrics.RecordGatewayOutcome(outcome)
		g.logger.Debug("Post-save status sync skipped",
			zap.String("roster_id", roster.ID),
			zap.String("status", string(old)),
			zap.String("resolved", string(resolved)),
			zap.String("reason", decision.Skip))
		return GatewayResult{Updated: false, OldStatus: old, NewStatus: old, Reason: decision.Skip}
	}

	// The writer re-checks the guard against the stored roster, which may have moved on
	if err := g.writer.WriteStatus(ctx, roster.ID, resolved, ReasonWebhook); err != nil {
		metrics.RecordGatewayOutcome("failed")
		g.logger.Warn("Post-save status sync failed",
			zap.String("roster_id", roster.ID),
			zap.String("from", string(old)),
			zap.String("to", string(resolved)),
			zap.Error(err))
		return GatewayResult{Updated: false, OldStatus: old, NewStatus: resolved, Error: err.Error()}
	}

	metrics.RecordGatewayOutcome("updated")
	metrics.RecordTransition(metrics.SourceWebhook, string(old), string(resolved))
	g.logger.Info("Post-save status sync applied",
		zap.String("roster_id", roster.ID),
		zap.String("from", string(old)),
		zap.String("to", string(resolved)))

	return GatewayResult{Updated: true, OldStatus: old, NewStatus: resolved}
}
