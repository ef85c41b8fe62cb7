package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
)

// UpdateStatusesCmd runs the automatic roster status batch once
func UpdateStatusesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "updateStatuses",
		Short: "Advance roster statuses from their discharge windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.Status.UpdateAllAutomatically(app.Ctx)
			if err != nil {
				return err
			}
			printBatchResult(cmd.OutOrStdout(), "Roster", result)
			return nil
		},
	}
}

// UpdateNominationStatusesCmd runs the nomination status batch once
func UpdateNominationStatusesCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "updateNominationStatuses",
		Short: "Advance nomination statuses from their ETB/ETC windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := services.UpdateNominationStatuses(app.Ctx, app.Database, app.Logger, time.Now())
			if err != nil {
				return err
			}
			printBatchResult(cmd.OutOrStdout(), "Nomination", result)
			return nil
		},
	}
}

// TransitionCmd applies a manual status change
func TransitionCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transition <roster_id> <new_status>",
		Short: "Move a roster to a new status if the lifecycle allows it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reason, _ := cmd.Flags().GetString("reason")

			result, err := app.Status.Transition(app.Ctx, args[0], args[1], reason)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Roster %s: %s → %s\n\n",
				color.New(color.FgGreen).Sprint("✓"),
				result.RosterID,
				result.OldStatus.DisplayName(),
				result.NewStatus.DisplayName())
			return nil
		},
	}

	cmd.Flags().String("reason", "", "Reason recorded with the change")
	return cmd
}

// StatusInfoCmd prints the lifecycle table
func StatusInfoCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "statusInfo",
		Short: "Show roster statuses and their allowed transitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printStatusInfo(cmd.OutOrStdout(), app.Status.StatusInfo())
			return nil
		},
	}
}

func printBatchResult(w io.Writer, label string, result *services.BatchUpdateResult) {
	fmt.Fprintf(w, "\n%s status update complete\n\n", label)
	fmt.Fprintf(w, "  Updated: %s\n", color.New(color.FgGreen).Sprint(result.UpdatedCount))
	fmt.Fprintf(w, "  Skipped: %d\n", result.SkippedCount)

	errCount := fmt.Sprint(len(result.Errors))
	if len(result.Errors) > 0 {
		errCount = color.New(color.FgRed).Sprint(len(result.Errors))
	}
	fmt.Fprintf(w, "  Errors:  %s\n", errCount)

	if len(result.Changes) > 0 {
		fmt.Fprintln(w, "\nChanges:")
		for _, c := range result.Changes {
			fmt.Fprintf(w, "  %s  %s → %s\n", c.ID, c.From, c.To)
		}
	}
	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s %s: %s\n", color.New(color.FgRed).Sprint("✗"), e.ID, e.Error)
		}
	}
	fmt.Fprintln(w)
}

func printStatusInfo(w io.Writer, info services.StatusInfo) {
	fmt.Fprintln(w, "\nRoster statuses:")
	for _, st := range info.Statuses {
		next := "none (terminal)"
		if len(st.AllowedTransitions) > 0 {
			next = joinStatuses(st.AllowedTransitions)
		}
		fmt.Fprintf(w, "  %-12s %-12s → %s\n", st.Value, st.DisplayName, next)
	}
	fmt.Fprintln(w)
}

func joinStatuses(statuses []model.Status) string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
