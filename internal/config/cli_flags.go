package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress all output except errors")
	cmd.PersistentFlags().Bool("json", false, "Log in JSON format")
	cmd.PersistentFlags().String("listen", "", "HTTP listen address (e.g., :8001)")
	cmd.PersistentFlags().String("reports-dir", "", "Directory for generated reports")
	cmd.PersistentFlags().String("data-dir", "", "Directory for the service database")
	cmd.PersistentFlags().String("user-agent", "", "Custom browser user agent string")
	cmd.PersistentFlags().String("chrome-path", "", "Path to the Chrome/Chromium binary")
}
