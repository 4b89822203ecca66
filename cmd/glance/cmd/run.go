package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/brianly1003/glance/internal/app"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// runCmd runs the registry without a UI.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the session registry headless",
	Long: `Run the session registry in the foreground without a UI.

Every change to the live session set is logged. The registry watches the
session directory, sweeps dead sessions periodically, removes sessions as soon
as their process exits, and reloads everything after the machine wakes.

Send SIGUSR1 to force a full reload. SIGINT or SIGTERM stops the registry.

Example:
  glance run
  glance run -v                 # debug logging
  GLANCE_SESSIONS_DIR=/tmp/s glance run`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	closer := setupLogging(cfg, false)
	defer closer.Close()

	log.Info().
		Str("version", version).
		Str("dir", cfg.Sessions.Dir).
		Str("config", cfg.File()).
		Msg("starting glance")

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	log.Info().Msg("glance stopped")
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
