package main

import (
	"fmt"
	"os"

	"gfmapdl/pkg/config"
	"gfmapdl/pkg/ui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage gfmapdl configuration files.

Configuration is merged from, highest priority first:
  - Command line flags
  - Environment variables (GFMAPDL_*)
  - .env files
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is written to 'gfmapdl.yaml' in the current directory unless a
different path is given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# gfmapdl configuration file
#
# Environment variables prefixed with GFMAPDL_ override these values,
# for example GFMAPDL_WAIT, GFMAPDL_DLCOUNT or GFMAPDL_SAVE_DIR.

gamefaqs:
  base_url: "https://gamefaqs.gamespot.com"
  # Uncomment to send a fixed user agent instead of a random browser one
  # user_agent: "Mozilla/5.0 ..."
  accept_language: "en-US,en;q=0.9"
  timeout: 60s

# Pause for wait after every request_threshold requests.
# A threshold of 0 never pauses.
throttle:
  request_threshold: 150
  wait: 30s
  # How often a pause checks for ctrl+c
  slice: 1s

download:
  overwrite: false
  # 0 sends requests as fast as the server answers
  requests_per_second: 0

# Retries apply to network errors, 429 and 5xx responses that sent no data.
# max_attempts: 1 disables retries.
retry:
  max_attempts: 1
  initial_backoff: 2s
  max_backoff: 30s
  multiplier: 2.0

output:
  # Maps are saved to <base_directory>/<profile name>
  base_directory: "maps"
  # Set to save every profile into one fixed directory instead
  directory: ""

logging:
  # Empty disables logging. One of debug, info, warn, error, critical
  level: ""
  # Also write logs to this file
  file: ""

ui:
  progress_enabled: true
  color_enabled: true
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = "gfmapdl.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		ui.PrintError("Configuration file already exists", path)
		return errReported
	}

	if err := os.WriteFile(path, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, collectFlags(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return errReported
	}

	ui.PrintSuccess("Configuration is valid")
	ui.PrintInfo("Save directory", saveDirDescription(cfg))
	ui.PrintInfo("Throttle", fmt.Sprintf("wait %s every %d requests", cfg.Throttle.Wait, cfg.Throttle.RequestThreshold))
	ui.PrintInfo("Retry attempts", fmt.Sprintf("%d", cfg.Retry.MaxAttempts))
	return nil
}

func saveDirDescription(cfg *config.Config) string {
	if cfg.Output.Directory != "" {
		return cfg.Output.Directory
	}
	return cfg.Output.BaseDirectory + string(os.PathSeparator) + "<profile name>"
}
