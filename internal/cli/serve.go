// internal/cli/serve.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/speedsheet/speedsheet/internal/server"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Starts the HTTP API that accepts batches of speedtest.net result URLs,
captures each one, and serves the assembled xlsx reports for download.`,
	Example: `  # Serve on the default address
  speedsheet serve

  # Serve on a custom port with JSON logs
  speedsheet serve --listen :9000 --json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a := GetApp()

	handler := &server.Handler{
		Processor:  a.Pipeline,
		Reports:    a.Assembler,
		Status:     a.Store,
		ReportsDir: a.Config.ReportsDir,
	}
	srv := server.New(a.Config, handler)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
