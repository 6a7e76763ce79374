package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pigeonworks-llc/club-billing/pkg/app"
	"github.com/pigeonworks-llc/club-billing/pkg/config"
	"github.com/pigeonworks-llc/club-billing/pkg/db"
	"github.com/pigeonworks-llc/club-billing/pkg/pathutil"
	"github.com/pigeonworks-llc/club-billing/pkg/store"
)

// environment is everything a command needs: configuration, paths and a
// loaded service.
type environment struct {
	cfg      *config.Config
	settings config.Settings
	paths    *pathutil.PathResolver
	svc      *app.Service
	activity *db.ActivityLog
	closers  []func() error
}

// openEnvironment loads the configuration, opens the configured store and
// loads the state.
func openEnvironment(ctx context.Context) (*environment, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate("store.dataDir"); err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		return nil, err
	}

	env := &environment{
		cfg:      cfg,
		settings: settings,
		paths: pathutil.New(pathutil.Config{
			DataDir:      cfg.Store.DataDir,
			DatabasePath: cfg.Store.DBPath,
			LedgerDir:    cfg.Store.LedgerDir,
			ExportDir:    cfg.Store.ExportDir,
			BackupDir:    cfg.Store.BackupDir,
		}),
	}

	st, err := env.openStore()
	if err != nil {
		return nil, err
	}

	opts := []app.ServiceOption{app.WithLogger(slog.Default())}
	if env.activity != nil {
		opts = append(opts, app.WithRecorder(env.activity))
	}
	env.svc = app.NewService(st, opts...)

	if err := env.svc.Load(ctx); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

func (e *environment) openStore() (store.Store, error) {
	switch e.cfg.Store.Driver {
	case config.DriverBolt:
		path := e.paths.BoltPath()
		slog.Debug("Opening bolt store", "path", path)
		st, err := store.OpenBolt(path)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, st.Close)
		return st, nil
	default:
		path := e.paths.DatabasePath()
		slog.Debug("Opening database", "path", path)
		conn, err := db.Open(path)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, conn.Close)
		e.activity = db.NewActivityLog(conn)
		return db.NewCollectionStore(conn), nil
	}
}

// Close releases the store.
func (e *environment) Close() {
	for _, c := range e.closers {
		if err := c(); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
	e.closers = nil
}

func (e *environment) location() *time.Location {
	return time.Local
}

// mustOpen opens the environment or exits.
func mustOpen(ctx context.Context) *environment {
	env, err := openEnvironment(ctx)
	exitOnError(err, "failed to open data")
	return env
}

// apply runs a command against the service, exiting on error.
func (e *environment) apply(ctx context.Context, cmd app.Command) app.Effect {
	eff, err := e.svc.Apply(ctx, cmd)
	exitOnError(err, cmd.Name()+" failed")
	slog.Info("Command applied", "command", cmd.Name(), "summary", eff.Summary)
	return eff
}
