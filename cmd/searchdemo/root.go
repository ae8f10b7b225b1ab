package main

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags.
	configPath string
	verbose    bool
)

// rootCmd drives the whole demo: there are no subcommands.
var rootCmd = &cobra.Command{
	Use:   "searchdemo",
	Short: "An interactive typeahead search over a small corpus",
	Long: `searchdemo reads queries from stdin, one per line, and searches a
corpus after a configurable debounce. Every new line supersedes the
search still in flight, so only the newest query ever produces
results. An empty line clears the screen state and cancels the
pending search outright.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		return run(cmd.Context(), cfg)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
