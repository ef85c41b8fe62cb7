package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/portsampling/sampling-rosters/internal/config"
	"github.com/portsampling/sampling-rosters/pkg/clients/sheetsclient"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
)

// PublishRosterCmd writes a roster to the configured Google Sheet
func PublishRosterCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publishRoster <roster_id>",
		Short: "Publish a roster to the roster spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oauthCfg, err := config.LoadOAuthClientWithEnv(app.Env)
			if err != nil {
				return fmt.Errorf("failed to load OAuth client config: %w", err)
			}

			client, err := sheetsclient.NewClient(app.Ctx, oauthCfg, app.Env, app.Logger)
			if err != nil {
				return fmt.Errorf("failed to create sheets client: %w", err)
			}

			roster, err := services.PublishRoster(app.Ctx, app.Database, client, app.Logger,
				app.Cfg.Publish.RosterSheetID, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Published %s to tab %q\n\n",
				color.New(color.FgGreen).Sprint("✓"),
				roster.ID,
				sheetsclient.TabTitle(roster))
			return nil
		},
	}
}
