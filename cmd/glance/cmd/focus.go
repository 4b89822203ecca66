package cmd

import (
	"fmt"

	"github.com/brianly1003/glance/internal/app"
	"github.com/spf13/cobra"
)

// focusCmd brings a terminal to the front.
var focusCmd = &cobra.Command{
	Use:   "focus <tty>",
	Short: "Bring the terminal of a session to the front",
	Long: `Bring the terminal whose device is /dev/<tty> to the front.

The backend is chosen by focus.terminal (auto, iterm2, tmux, none).

Examples:
  glance focus ttys003
  glance focus pts/4`,
	Args: cobra.ExactArgs(1),
	RunE: runFocus,
}

func runFocus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	closer := setupLogging(cfg, false)
	defer closer.Close()

	focuser := app.NewFocuser(cmd.Context(), cfg.Focus)
	if err := focuser.FocusTerminal(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Printf("Focused %s via %s\n", args[0], focuser.Backend())
	return nil
}
