package status

import (
	"fmt"
	"slices"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
)

// validTransitions lists every allowed (from -> to) pair.
//
//	draft ──► confirmed ──► in_progress ──► completed
//	  │           │              │
//	  └───────────┴──────────────┴──► cancelled
//
// completed and cancelled are terminal.
var validTransitions = map[model.Status][]model.Status{
	model.StatusDraft:      {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed:  {model.StatusInProgress, model.StatusCancelled},
	model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled},
	model.StatusCompleted:  {},
	model.StatusCancelled:  {},
}

// AllowedTransitions returns the targets reachable from the given status.
// Unknown statuses have no outgoing transitions.
func AllowedTransitions(from model.Status) []model.Status {
	return slices.Clone(validTransitions[from])
}

// TransitionTable returns a copy of the full transition table
func TransitionTable() map[model.Status][]model.Status {
	table := make(map[model.Status][]model.Status, len(validTransitions))
	for from, targets := range validTransitions {
		table[from] = slices.Clone(targets)
	}
	return table
}

// CanTransition returns true when moving from -> to is permitted
func CanTransition(from, to model.Status) bool {
	return slices.Contains(validTransitions[from], to)
}

// CheckTransition returns an IllegalTransitionError when from -> to is not permitted
func CheckTransition(from, to model.Status) error {
	if CanTransition(from, to) {
		return nil
	}
	return &model.IllegalTransitionError{
		From:    from,
		To:      to,
		Allowed: AllowedTransitions(from),
	}
}

// IsTerminal returns true for statuses with no outgoing transitions
func IsTerminal(s model.Status) bool {
	targets, ok := validTransitions[s]
	return ok && len(targets) == 0
}

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string // populated when not allowed
}

// Error returns the guard result as an error if not allowed, nil otherwise.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanDeleteRoster evaluates whether a roster may be removed.
// Rule: rosters whose sampling is underway cannot be deleted.
func CanDeleteRoster(rosterID string, current model.Status) GuardResult {
	if current == model.StatusInProgress {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("Cannot delete roster %s while sampling is in progress. Complete or cancel it first", rosterID),
		}
	}
	return GuardResult{Allowed: true}
}
