package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/portsampling/sampling-rosters/internal/config"
	"github.com/portsampling/sampling-rosters/pkg/core/model"
	"github.com/portsampling/sampling-rosters/pkg/core/services"
	"github.com/portsampling/sampling-rosters/pkg/db"
	"github.com/portsampling/sampling-rosters/pkg/sqlite"
)

func init() {
	color.NoColor = true
}

func newTestApp(t *testing.T, dbCfg config.DatabaseConfig) *AppContext {
	t.Helper()
	app := &AppContext{
		Env:    "test",
		Ctx:    context.Background(),
		Logger: zap.NewNop(),
		Cfg: &config.Config{
			Database: dbCfg,
			Status:   config.StatusConfig{Concurrency: 2, GatewayMode: "direct"},
			Samplers: []config.SamplerConfig{{ID: "s1", Name: "Ana"}, {ID: "s2", Name: "Bruno"}},
		},
	}
	require.NoError(t, app.openDatabase(app.Ctx))
	app.buildServices()
	t.Cleanup(app.Close)
	return app
}

func TestOpenDatabase_Memory(t *testing.T) {
	app := newTestApp(t, config.DatabaseConfig{Driver: "memory"})

	assert.IsType(t, &db.MemoryDB{}, app.Database)
	assert.Nil(t, app.Postgres)
	assert.NotNil(t, app.Status)
	assert.NotNil(t, app.Rosters)
	assert.NotNil(t, app.Gateway)
}

func TestOpenDatabase_Sqlite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rosters.db")
	app := newTestApp(t, config.DatabaseConfig{Driver: "sqlite", URL: path})

	store, ok := app.Database.(*sqlite.DB)
	require.True(t, ok)
	assert.Equal(t, path, store.Path())
}

func TestNewRosterWriter(t *testing.T) {
	store := db.NewMemoryDB()

	direct := newRosterWriter(config.StatusConfig{GatewayMode: "direct"}, store)
	assert.IsType(t, &services.DirectWriter{}, direct)

	remote := newRosterWriter(config.StatusConfig{GatewayMode: "remote", RemoteBaseURL: "http://localhost:8080"}, store)
	assert.IsType(t, &services.RemoteWriter{}, remote)
}

func TestStatusJobs(t *testing.T) {
	app := newTestApp(t, config.DatabaseConfig{Driver: "memory"})

	jobs := statusJobs(app)
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		assert.NoError(t, job.Run(context.Background()), job.Name)
	}
}

func TestPickSamplers(t *testing.T) {
	registry := []model.Sampler{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}}

	picked, err := pickSamplers(registry, []string{"s3", "s1"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "s3", picked[0].ID)
	assert.Equal(t, "s1", picked[1].ID)

	_, err = pickSamplers(registry, []string{"s1", "s9"})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "s9", verr.Fields[0].Message)
}

func TestPrintBatchResult(t *testing.T) {
	var buf bytes.Buffer
	printBatchResult(&buf, "Roster", &services.BatchUpdateResult{
		UpdatedCount: 1,
		SkippedCount: 2,
		Changes:      []services.StatusChange{{ID: "r1", From: model.StatusConfirmed, To: model.StatusInProgress}},
		Errors:       []services.BatchError{{ID: "r2", Error: "disk full"}},
	})

	out := buf.String()
	assert.Contains(t, out, "Roster status update complete")
	assert.Contains(t, out, "Updated: 1")
	assert.Contains(t, out, "Skipped: 2")
	assert.Contains(t, out, "r1  confirmed → in_progress")
	assert.Contains(t, out, "r2: disk full")
}

func TestPrintStatusInfo(t *testing.T) {
	app := newTestApp(t, config.DatabaseConfig{Driver: "memory"})

	var buf bytes.Buffer
	printStatusInfo(&buf, app.Status.StatusInfo())

	out := buf.String()
	assert.Contains(t, out, "In Progress")
	assert.Contains(t, out, "none (terminal)")
}

func TestPrintRosterValidation(t *testing.T) {
	var buf bytes.Buffer
	printRosterValidation(&buf, services.RosterValidation{
		RosterID:       "r1",
		VesselName:     "MV Aurora",
		Reference:      "REF-1",
		CurrentStatus:  model.StatusDraft,
		ResolvedStatus: model.StatusConfirmed,
		Errors:         []string{"office sampling missing"},
	})

	out := buf.String()
	assert.Contains(t, out, "✗ MV Aurora REF-1 (r1)")
	assert.Contains(t, out, "dates say confirmed")
	assert.Contains(t, out, "error: office sampling missing")
}

func TestRunSession(t *testing.T) {
	root := &cobra.Command{Use: "cli"}
	var echoed []string
	root.AddCommand(&cobra.Command{
		Use:   "echo <words...>",
		Short: "Echo words",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			echoed = append(echoed, strings.Join(args, " "))
			return nil
		},
	})
	session := InteractiveCmd(&AppContext{})
	root.AddCommand(session)

	var out bytes.Buffer
	session.SetOut(&out)

	input := strings.NewReader("echo hello there\n\nhelp\nnope\necho\nquit\necho never\n")
	require.NoError(t, runSession(session, input))

	assert.Equal(t, []string{"hello there"}, echoed)
	assert.Contains(t, out.String(), "Available commands:")
	assert.Contains(t, out.String(), `unknown command "nope"`)
	assert.Contains(t, out.String(), "requires at least 1 arg(s)")
	assert.NotContains(t, out.String(), "interactive ")
}
