package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brianly1003/glance/internal/config"
	"github.com/spf13/cobra"
)

var (
	configInitLocal bool
	configInitForce bool
	configFormat    string
)

// configCmd displays or manages configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Display and manage configuration",
	Long: `Display and manage glance configuration.

Without subcommands, shows the current effective configuration.

Examples:
  glance config                     # Show current config
  glance config show --format toml  # Show current config as TOML
  glance config init                # Create config file with defaults
  glance config path                # Show config file location
  glance config get <key>           # Get a config value`,
	RunE: runConfigShow,
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the effective configuration after defaults, config file and
GLANCE_* environment variables have been applied.

Examples:
  glance config show
  glance config show --format json`,
	RunE: runConfigShow,
}

// configInitCmd creates a config file with defaults.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with default settings",
	Long: `Create a config file with default settings.

By default, creates ~/.claude-glance/config.yaml.
Use --local to create ./config.yaml in the current directory.

Examples:
  glance config init          # Create ~/.claude-glance/config.yaml
  glance config init --local  # Create ./config.yaml
  glance config init --force  # Overwrite existing file`,
	RunE: runConfigInit,
}

// configPathCmd shows config file location.
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show config file location",
	Long: `Show where the config file is searched for and whether it exists.

Examples:
  glance config path`,
	Run: runConfigPath,
}

// configGetCmd gets a config value.
var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a configuration value by key.

Keys use dot notation to access nested values.

Examples:
  glance config get sessions.dir
  glance config get logging.level
  glance config get focus.terminal`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configGetCmd)

	configCmd.PersistentFlags().StringVar(&configFormat, "format", "yaml", "output format: yaml, toml, json")

	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create config in current directory instead of ~/.claude-glance/")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out, err := config.Render(cfg.Settings(), configFormat)
	if err != nil {
		return err
	}

	if file := cfg.File(); file != "" {
		fmt.Fprintf(os.Stderr, "# loaded from %s\n", file)
	}
	_, err = os.Stdout.Write(out)
	return err
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	var configPath string

	if configInitLocal {
		configPath = "config.yaml"
	} else {
		configDir, err := config.EnsureConfigDir()
		if err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		configPath = filepath.Join(configDir, "config.yaml")
	}

	if err := writeDefaultConfig(configPath, configInitForce); err != nil {
		return err
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Edit this file to customize glance behavior.")
	return nil
}

func writeDefaultConfig(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config file already exists: %s\nUse --force to overwrite", path)
	}

	content, err := config.Render(config.DefaultSettings(), "yaml")
	if err != nil {
		return fmt.Errorf("failed to render defaults: %w", err)
	}

	header := []byte("# glance configuration\n# Every key can be overridden with GLANCE_<SECTION>_<KEY>, e.g. GLANCE_SESSIONS_DIR.\n\n")
	if err := os.WriteFile(path, append(header, content...), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) {
	configDir, err := config.GetConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting config dir: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Config search paths (in order):")
	for i, loc := range configSearchPaths(cfgFile) {
		exists := "not found"
		if _, err := os.Stat(loc); err == nil {
			exists = "exists"
		}
		fmt.Printf("  %d. %s (%s)\n", i+1, loc, exists)
	}

	fmt.Printf("\nConfig directory: %s\n", configDir)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	value, ok := cfg.Get(key)
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	fmt.Println(value)
	return nil
}
