package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/portsampling/sampling-rosters/pkg/api"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
	"github.com/portsampling/sampling-rosters/pkg/scheduler"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd runs the HTTP API and, when a schedule is configured, the automatic updater
func ServeCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the roster HTTP API and scheduled status updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Cfg.Server.Addr
			}

			router := api.NewRouter(api.Dependencies{
				Status:         app.Status,
				Gateway:        app.Gateway,
				Rosters:        app.Rosters,
				Nominations:    app.Database,
				AllowedOrigins: app.Cfg.Server.AllowedOrigins,
				Logger:         app.Logger,
			})
			server := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, ctx := errgroup.WithContext(app.Ctx)

			g.Go(func() error {
				app.Logger.Info("HTTP server listening", zap.String("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server failed: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				app.Logger.Info("Shutting down HTTP server")
				return server.Shutdown(shutdownCtx)
			})

			if app.Cfg.Status.UpdateSchedule != "" {
				sched, err := scheduler.New(app.Cfg.Status.UpdateSchedule, app.Logger, statusJobs(app)...)
				if err != nil {
					return err
				}
				g.Go(func() error { return sched.Run(ctx) })
			} else {
				app.Logger.Info("No update schedule configured; automatic updates run only on request")
			}

			return g.Wait()
		},
	}

	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// statusJobs are the scheduled batch updates for rosters and nominations
func statusJobs(app *AppContext) []scheduler.Job {
	return []scheduler.Job{
		{
			Name: "roster-status-update",
			Run: func(ctx context.Context) error {
				_, err := app.Status.UpdateAllAutomatically(ctx)
				return err
			},
		},
		{
			Name: "nomination-status-update",
			Run: func(ctx context.Context) error {
				_, err := services.UpdateNominationStatuses(ctx, app.Database, app.Logger, time.Now())
				return err
			},
		},
	}
}
