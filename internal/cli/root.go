// internal/cli/root.go
package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/speedsheet/speedsheet/internal/app"
	"github.com/speedsheet/speedsheet/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "speedsheet",
	Short:   "Capture speedtest.net results into spreadsheet reports",
	Long:    `Speedsheet screenshots speedtest.net result pages with a headless browser and assembles them into an xlsx report, either from the command line or behind an HTTP API.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Application is initialized lazily in PersistentPreRunE
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd)

	// Lazily initialize the application before running commands (avoid starting app for -h/help)
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if GetApp() != nil {
			return nil
		}

		cfg, err := config.Load(rootCmd)
		if err != nil {
			return err
		}

		appCtx, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		SetApp(appCtx)
		return nil
	}

	// Ensure app is closed after command runs
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		appCtx := GetApp()
		if appCtx == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), appCtx.Config.NavigationTimeout)
		defer cancel()
		_ = appCtx.Close(ctx)
		SetApp(nil)
	}

	// Disable the default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
