package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/portsampling/sampling-rosters/pkg/core/generator"
	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
)

const scheduleTimeLayout = "Mon 02 Jan 15:04"

// GenerateRosterCmd builds a roster for a nomination from the sampler registry
func GenerateRosterCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generateRoster <nomination_id>",
		Short: "Generate the office block and line turns for a nomination",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samplerIDs, _ := cmd.Flags().GetStringSlice("samplers")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			out := cmd.OutOrStdout()

			if dryRun {
				outcome, err := previewRoster(app, args[0], samplerIDs)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, color.New(color.FgYellow).Sprint("\nDRY RUN - roster not saved"))
				printRoster(out, outcome.Roster)
				printSamplerHours(out, outcome)
				return nil
			}

			roster, err := app.Rosters.CreateRoster(app.Ctx, services.CreateRosterInput{
				NominationID: args[0],
				Generate:     true,
				SamplerIDs:   samplerIDs,
				CreatedBy:    "cli",
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\n%s Roster created: %s\n", color.New(color.FgGreen).Sprint("✓"), roster.ID)
			printRoster(out, roster)
			return nil
		},
	}

	cmd.Flags().StringSlice("samplers", nil, "Sampler IDs to draw from, in rotation order (default: whole registry)")
	cmd.Flags().Bool("dry-run", false, "Show the generated schedule without saving it")
	return cmd
}

func previewRoster(app *AppContext, nominationID string, samplerIDs []string) (*generator.GenerationOutcome, error) {
	nomination, err := app.Database.FindNominationByID(app.Ctx, nominationID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch nomination: %w", err)
	}
	if nomination == nil {
		return nil, &model.NotFoundError{Entity: "nomination", ID: nominationID}
	}

	pool := app.Cfg.SamplerRegistry()
	if len(samplerIDs) > 0 {
		pool, err = pickSamplers(pool, samplerIDs)
		if err != nil {
			return nil, err
		}
	}

	return generator.Generate(generator.GenerationConfig{
		Nomination: *nomination,
		Samplers:   pool,
	})
}

// pickSamplers returns the registry entries for ids, in the order given
func pickSamplers(registry []model.Sampler, ids []string) ([]model.Sampler, error) {
	byID := make(map[string]model.Sampler, len(registry))
	for _, s := range registry {
		byID[s.ID] = s
	}

	picked := make([]model.Sampler, 0, len(ids))
	var unknown []string
	for _, id := range ids {
		s, ok := byID[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		picked = append(picked, s)
	}
	if len(unknown) > 0 {
		verr := &model.ValidationError{Message: "unknown samplers"}
		verr.Add("samplers", strings.Join(unknown, ", "))
		return nil, verr
	}
	return picked, nil
}

func printRoster(w io.Writer, roster *model.SamplingRoster) {
	fmt.Fprintf(w, "\n%s %s  [%s]\n", roster.VesselName, roster.Reference, roster.Status.DisplayName())
	if roster.StartDischarge != nil && roster.EtcTime != nil {
		fmt.Fprintf(w, "Discharge: %s → %s (%.1fh)\n",
			roster.StartDischarge.Format(scheduleTimeLayout),
			roster.EtcTime.Format(scheduleTimeLayout),
			roster.DischargeTimeHours)
	}

	if office := roster.OfficeSampling; office != nil {
		fmt.Fprintf(w, "\n  Office  %-16s %s → %s  %5.1fh\n",
			office.Sampler.Name,
			office.Start.Format(scheduleTimeLayout),
			office.Finish.Format(scheduleTimeLayout),
			office.Hours)
	}
	for _, turn := range roster.LineSampling {
		fmt.Fprintf(w, "  Line %-2d %-16s %s → %s  %5.1fh  %s\n",
			turn.TurnOrder,
			turn.Sampler.Name,
			turn.Start.Format(scheduleTimeLayout),
			turn.Finish.Format(scheduleTimeLayout),
			turn.Hours,
			turn.BlockType)
	}
	fmt.Fprintln(w)
}

func printSamplerHours(w io.Writer, outcome *generator.GenerationOutcome) {
	fmt.Fprintln(w, "Hours by sampler:")
	for _, id := range slices.Sorted(maps.Keys(outcome.HoursBySampler)) {
		fmt.Fprintf(w, "  %-10s %5.1fh\n", id, outcome.HoursBySampler[id])
	}
	for _, s := range outcome.UnusedSamplers {
		fmt.Fprintf(w, "  %-10s %s\n", s.ID, color.New(color.FgYellow).Sprint("unused"))
	}
	fmt.Fprintln(w)
}
