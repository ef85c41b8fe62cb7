package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/portsampling/sampling-rosters/cmd/cli/commands"
)

var (
	env     string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &commands.AppContext{}

	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Sampling rosters - roster status engine for port sampling operations",
		Long: `A CLI and HTTP service for sampling rosters: automatic status updates,
manual transitions, validation reports and roster publishing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return commands.InitApp(ctx, app, env, verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.Close()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: dev, test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to the console")
	_ = rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.ServeCmd(app))
	rootCmd.AddCommand(commands.UpdateStatusesCmd(app))
	rootCmd.AddCommand(commands.UpdateNominationStatusesCmd(app))
	rootCmd.AddCommand(commands.ValidationReportCmd(app))
	rootCmd.AddCommand(commands.TransitionCmd(app))
	rootCmd.AddCommand(commands.StatusInfoCmd(app))
	rootCmd.AddCommand(commands.GenerateRosterCmd(app))
	rootCmd.AddCommand(commands.PublishRosterCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		stop()
		os.Exit(1)
	}
}
