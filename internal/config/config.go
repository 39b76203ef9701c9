package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP service
	ListenAddr  string
	CORSOrigins []string

	// Capture
	UserAgent         string
	ChromePath        string
	ViewportWidth     int64
	ViewportHeight    int64
	NavigationTimeout time.Duration
	PrimaryWait       time.Duration
	SecondaryWait     time.Duration
	FallbackDelay     time.Duration
	SettleDelay       time.Duration

	// Capture pacing
	CaptureRPS   float64
	CaptureBurst int

	// Paths
	ReportsDir string
	DataDir    string
}

// Load builds a Config by combining defaults, an optional .env file,
// environment variables, and CLI flags. Caller should pass the root
// *cobra.Command so flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	// A missing .env file is fine; explicit env vars still apply.
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel:          DefaultLogLevel,
		JSONLog:           DefaultJSONLog,
		ListenAddr:        DefaultListenAddr,
		CORSOrigins:       splitOrigins(DefaultCORSOrigins),
		UserAgent:         DefaultUserAgent,
		ViewportWidth:     DefaultViewportWidth,
		ViewportHeight:    DefaultViewportHeight,
		NavigationTimeout: DefaultNavigationTimeout,
		PrimaryWait:       DefaultPrimaryWait,
		SecondaryWait:     DefaultSecondaryWait,
		FallbackDelay:     DefaultFallbackDelay,
		SettleDelay:       DefaultSettleDelay,
		CaptureRPS:        DefaultCaptureRPS,
		CaptureBurst:      DefaultCaptureBurst,
		ReportsDir:        DefaultReportsDir,
		DataDir:           DefaultDataDir,
	}

	// Override from environment variables (simple helpers)
	if v := os.Getenv("SPEEDSHEET_LISTEN"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("SPEEDSHEET_REPORTS_DIR"); v != "" {
		cfg.ReportsDir = v
	}
	if v := os.Getenv("SPEEDSHEET_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("SPEEDSHEET_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("SPEEDSHEET_NAV_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.NavigationTimeout = d
		}
	}
	if v := os.Getenv("SPEEDSHEET_CAPTURE_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.CaptureRPS = f
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitOrigins(v)
	}
	if v := os.Getenv("CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}

	// Read CLI flags if provided
	if cmd != nil {
		if f := cmd.Flags().Lookup("listen"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ListenAddr = s
			}
		}
		if f := cmd.Flags().Lookup("reports-dir"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ReportsDir = s
			}
		}
		if f := cmd.Flags().Lookup("data-dir"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.DataDir = s
			}
		}
		if f := cmd.Flags().Lookup("user-agent"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.UserAgent = s
			}
		}
		if f := cmd.Flags().Lookup("chrome-path"); f != nil {
			if s := f.Value.String(); s != "" {
				cfg.ChromePath = s
			}
		}
		if f := cmd.Flags().Lookup("json"); f != nil {
			if f.Value.String() == "true" {
				cfg.JSONLog = true
			}
		}
		if f := cmd.Flags().Lookup("verbose"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "debug"
			}
		}
		if f := cmd.Flags().Lookup("quiet"); f != nil {
			if f.Value.String() == "true" {
				cfg.LogLevel = "error"
			}
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// splitOrigins parses a comma-separated origin list, trimming whitespace and
// dropping empty entries
func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
