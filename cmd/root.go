package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gido-dev/gido/internal/app"
	"github.com/gido-dev/gido/internal/config"
	"github.com/gido-dev/gido/internal/logging"
)

var (
	verbose    bool
	jsonOutput bool
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "gido",
	Short: "Chat proxy and maintenance page monitor",
	Long: `gido bundles two small services:

  proxy    an HTTP proxy that forwards chat requests to OpenRouter with a
           server-held API key, so browser clients never see it
  monitor  a poller that watches a web page for a maintenance banner and
           sends an email when the page comes back online

Configuration is read from /etc/gido/config.toml (or --config), then
overridden by environment variables, optionally loaded from a .env file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Setup(verbose, jsonOutput, os.Stderr)

		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		if err := config.LoadDotEnv(files...); err != nil {
			return err
		}

		return app.Default.LoadConfig(configPath)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default /etc/gido/config.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file (default .env if present)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)
