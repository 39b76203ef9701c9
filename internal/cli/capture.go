// internal/cli/capture.go
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/speedsheet/speedsheet/internal/ui"
	"github.com/speedsheet/speedsheet/internal/validate"
)

// captureCmd represents the capture command
var captureCmd = &cobra.Command{
	Use:   "capture <url>...",
	Short: "Capture result pages into a spreadsheet report",
	Long: `Validates the given speedtest.net result URLs, screenshots each one in a
fresh headless browser, and assembles the screenshots into an xlsx report.`,
	Example: `  # Capture a single result
  speedsheet capture https://www.speedtest.net/my-result/a/1234567890

  # Capture several results into one report
  speedsheet capture \
    https://www.speedtest.net/my-result/a/1234567890 \
    https://www.speedtest.net/my-result/d/9876543210

  # Write the report somewhere else
  speedsheet capture --reports-dir /tmp/reports https://www.speedtest.net/my-result/i/42`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	a := GetApp()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	valid, _ := validate.Partition(args)

	var bar *progressbar.ProgressBar
	if len(valid) > 0 {
		bar = progressbar.NewOptions(len(valid),
			progressbar.OptionSetDescription("Capturing"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		a.Pipeline.Progress = func(url string, ok bool) {
			_ = bar.Add(1)
		}
		defer func() { a.Pipeline.Progress = nil }()
	}

	result, err := a.Pipeline.Process(ctx, args)
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	path, err := a.Assembler.Assemble(result.Shots)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s %d of %d screenshots captured\n",
		ui.Success("✓"), len(result.Shots), len(valid))
	fmt.Printf("%s %s\n", ui.Bold("Report:"), path)

	if len(result.Errors) > 0 {
		fmt.Printf("\n%s\n", ui.Bold("Problems:"))
		for _, msg := range result.Errors {
			fmt.Printf("  %s %s\n", ui.Error("✗"), msg)
		}
	}

	return nil
}
