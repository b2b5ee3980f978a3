// Package cmd implements the CLI subcommands.
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	_ "modernc.org/sqlite"

	"grimm.is/burrow/internal/api"
	"grimm.is/burrow/internal/brand"
	"grimm.is/burrow/internal/config"
	"grimm.is/burrow/internal/events"
	"grimm.is/burrow/internal/logging"
	"grimm.is/burrow/internal/netstate"
)

// RunServe starts the daemon: the kernel-state manager, the event hub
// and history, the kernel change watcher, and the unix-socket API.
func RunServe(configFile string) error {
	cfg, err := config.LoadFile(configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.SetDefault(logging.New(logging.Config{
		Level: cfg.LogLevel(),
		JSON:  cfg.Log.JSON,
	}))
	log := logging.WithComponent("serve")

	mgr, err := netstate.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize manager: %w", err)
	}
	defer mgr.Close()

	hub := events.NewHub()

	// Event history lives in the state directory; losing it only loses
	// the audit trail, so a failure here is not fatal.
	var history *events.History
	stateDir := brand.GetStateDir()
	if err := os.MkdirAll(stateDir, 0o750); err == nil {
		db, err := sql.Open("sqlite", filepath.Join(stateDir, "events.db"))
		if err == nil {
			history, err = events.NewHistory(db, hub, events.DefaultHistoryConfig())
			if err != nil {
				log.Warn("event history disabled", "error", err)
				db.Close()
				history = nil
			}
		}
	}
	if history != nil {
		history.Start()
		defer history.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := events.NewKernelWatcher(hub, mgr)
	go watcher.Run(ctx)

	srv, err := api.NewServer(api.ServerOptions{
		Config:  cfg,
		Manager: mgr,
		Hub:     hub,
		History: history,
	})
	if err != nil {
		return err
	}

	log.Info("daemon starting", "version", brand.Version, "config", configFile)
	return srv.Serve(ctx)
}
