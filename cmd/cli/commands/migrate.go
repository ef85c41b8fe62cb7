package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd applies pending postgres migrations
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations (postgres only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Postgres == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Driver %q needs no migrations\n", app.Cfg.Database.Driver)
				return nil
			}
			if err := app.Postgres.RunMigrations(app.Ctx, app.Logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
			return nil
		},
	}
}
