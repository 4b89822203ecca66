package cmd

import (
	"fmt"

	"github.com/brianly1003/glance/internal/app"
	"github.com/brianly1003/glance/internal/domain/events"
	"github.com/brianly1003/glance/internal/hub"
	"github.com/brianly1003/glance/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const tuiEventBuffer = 64

// watchCmd runs the registry behind the terminal dashboard.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live dashboard of all sessions",
	Long: `Show a live dashboard of all Claude Code sessions.

The top line summarizes how many sessions are in each status. Below it, every
live session is listed with its status and context usage. Select a session and
press enter to bring its terminal to the front (iTerm2 or tmux).

Logs go to logging.file only, never to the screen.

Keys:
  ↑/k ↓/j   select
  enter     focus terminal
  r         reload
  ?         help
  q         quit`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	closer := setupLogging(cfg, true)
	defer closer.Close()

	application, err := app.New(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	updates := hub.NewChannelSubscriber("tui", tuiEventBuffer)
	application.Hub().Subscribe(hub.NewFilteredSubscriber(updates, events.EventTypeSessionsChanged))

	ctx, cancel := signalContext()
	defer cancel()

	program := tea.NewProgram(
		tui.New(ctx, application.Registry(), updates.Events()),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	startErr := make(chan error, 1)
	go func() {
		err := application.Start(ctx)
		startErr <- err
		if err != nil {
			program.Quit()
		}
	}()

	_, runErr := program.Run()
	interrupted := ctx.Err() != nil
	cancel()

	if err := <-startErr; err != nil {
		return fmt.Errorf("application error: %w", err)
	}
	if runErr != nil && !interrupted {
		return fmt.Errorf("dashboard error: %w", runErr)
	}

	log.Info().Msg("glance stopped")
	return nil
}
