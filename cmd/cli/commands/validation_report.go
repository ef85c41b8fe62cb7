package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/portsampling/sampling-rosters/pkg/core/services"
)

// ValidationReportCmd prints the read-only validation report
func ValidationReportCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validationReport",
		Short: "Validate every roster's schedule and status without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rosterID, _ := cmd.Flags().GetString("roster")
			out := cmd.OutOrStdout()

			if rosterID != "" {
				entry, err := app.Status.ValidateRoster(app.Ctx, rosterID)
				if err != nil {
					return err
				}
				printRosterValidation(out, *entry)
				return nil
			}

			report, err := app.Status.GenerateValidationReport(app.Ctx)
			if err != nil {
				return err
			}
			printValidationReport(out, report)
			return nil
		},
	}

	cmd.Flags().String("roster", "", "Validate a single roster by ID")
	return cmd
}

func printValidationReport(w io.Writer, report *services.ValidationReport) {
	s := report.Summary
	fmt.Fprintf(w, "\nValidation report (%s)\n\n", report.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "  Rosters:       %d\n", s.Total)
	fmt.Fprintf(w, "  Valid:         %s\n", color.New(color.FgGreen).Sprint(s.Valid))
	fmt.Fprintf(w, "  Warnings only: %s\n", color.New(color.FgYellow).Sprint(s.WarningsOnly))
	fmt.Fprintf(w, "  With errors:   %s\n", color.New(color.FgRed).Sprint(s.HasErrors))

	for _, entry := range report.Rosters {
		printRosterValidation(w, entry)
	}
	fmt.Fprintln(w)
}

func printRosterValidation(w io.Writer, entry services.RosterValidation) {
	icon := color.New(color.FgGreen).Sprint("✓")
	switch {
	case !entry.IsValid:
		icon = color.New(color.FgRed).Sprint("✗")
	case len(entry.Warnings) > 0:
		icon = color.New(color.FgYellow).Sprint("!")
	}

	fmt.Fprintf(w, "\n%s %s %s (%s)\n", icon, entry.VesselName, entry.Reference, entry.RosterID)
	fmt.Fprintf(w, "    status: %s", entry.CurrentStatus)
	if entry.ResolvedStatus != entry.CurrentStatus {
		fmt.Fprintf(w, "  (dates say %s)", entry.ResolvedStatus)
	}
	fmt.Fprintln(w)

	for _, e := range entry.Errors {
		fmt.Fprintf(w, "    %s %s\n", color.New(color.FgRed).Sprint("error:"), e)
	}
	for _, warn := range entry.Warnings {
		fmt.Fprintf(w, "    %s %s\n", color.New(color.FgYellow).Sprint("warning:"), warn)
	}
	for _, r := range entry.Recommendations {
		fmt.Fprintf(w, "    [%s] %s\n", r.Priority, r.Message)
	}
}
