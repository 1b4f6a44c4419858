package main

import (
	"context"
	"errors"
	"os"

	"gfmapdl/pkg/ui"
	"github.com/spf13/cobra"
)

// version is printed by --version
var version = "Release date 2024-05-18"

// errReported marks failures already shown to the user
var errReported = errors.New("reported")

var (
	// Global flags
	configFile string
	noColor    bool

	// Download flags
	savePath   string
	waitSecs   int
	dlCount    int
	overwrite  bool
	verbosity  string
	timeout    int
	noProgress bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gfmapdl [user]",
	Short: "Supply a GameFAQs username to download all maps and charts",
	Long: `gfmapdl downloads every map and chart a GameFAQs contributor has published.

Files are saved as "<game> - <console> - <map>" with an extension matching the
image format. Existing non-empty files are skipped unless --overwrite is given.
After every --dlcount requests the downloader pauses for --wait seconds.
Press ctrl+c to end early; the run still finishes with a report.`,
	Example: `  # Download into maps/<profile name>
  gfmapdl someuser

  # Download into a specific directory, pausing 60s every 100 requests
  gfmapdl someuser --path ./charts --wait 60 --dlcount 100

  # Show warnings and errors on stderr
  gfmapdl someuser --verbose`,
	Args:          cobra.MaximumNArgs(1),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDownload,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.SetOutput(cmd.OutOrStdout(), !noColor)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errReported) {
			ui.PrintError("Error", err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.gfmapdl.yaml or $HOME/.config/gfmapdl/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	flags := rootCmd.Flags()
	flags.StringVarP(&savePath, "path", "p", "", "save directory to download to (default: maps/<user>)")
	flags.IntVar(&waitSecs, "wait", 30, "seconds to wait after every --dlcount requests")
	flags.IntVar(&dlCount, "dlcount", 150, "how many requests before waiting")
	flags.BoolVar(&overwrite, "overwrite", false, "overwrite existing files")
	flags.StringVar(&verbosity, "verbose", "", "print detailed information to stderr (debug, info, warn, error, critical)")
	flags.Lookup("verbose").NoOptDefVal = "warn"
	flags.IntVar(&timeout, "timeout", 60, "request timeout in seconds")
	flags.BoolVar(&noProgress, "no-progress", false, "print plain lines instead of a progress bar")

	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// collectFlags returns the flags the user set explicitly, keyed the way
// config.MergeCommandLineFlags expects.
func collectFlags(cmd *cobra.Command) map[string]interface{} {
	set := cmd.Flags().Changed
	flags := make(map[string]interface{})

	if set("path") {
		flags["path"] = savePath
	}
	if set("wait") {
		flags["wait"] = waitSecs
	}
	if set("dlcount") {
		flags["dlcount"] = dlCount
	}
	if set("overwrite") {
		flags["overwrite"] = overwrite
	}
	if set("verbose") {
		flags["log-level"] = verbosity
	}
	if set("timeout") {
		flags["timeout"] = timeout
	}
	if set("no-progress") {
		flags["progress"] = !noProgress
	}
	if set("no-color") {
		flags["color"] = !noColor
	}
	return flags
}
