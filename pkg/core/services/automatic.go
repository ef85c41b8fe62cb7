package services

import (
	"time"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/status"
)

// Reasons recorded in StatusUpdateReason
const (
	ReasonAutomatic = "automatic_date_based"
	ReasonManual    = "manual_transition"
	ReasonWebhook   = "webhook_date_based"
)

// automaticDecision is the outcome of comparing a stored status with the date-resolved one
type automaticDecision struct {
	Current  model.Status
	Resolved model.Status
	Apply    bool
	Skip     string
}

// decideAutomatic applies the batch rule shared by rosters and nominations:
// write only when the resolved status differs, is not draft, and the guard allows it
func decideAutomatic(now time.Time, current model.Status, start, end *time.Time) automaticDecision {
	if current == "" {
		current = model.StatusDraft
	}
	d := automaticDecision{
		Current:  current,
		Resolved: status.Resolve(now, start, end),
	}

	switch {
	case d.Resolved == d.Current:
		d.Skip = "status already current"
	case d.Resolved == model.StatusDraft:
		d.Skip = "no valid operation window"
	case !status.CanTransition(d.Current, d.Resolved):
		d.Skip = "transition not allowed from " + string(d.Current) + " to " + string(d.Resolved)
	default:
		d.Apply = true
	}
	return d
}
