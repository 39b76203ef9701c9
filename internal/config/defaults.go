package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel   = "info"
	DefaultJSONLog    = false
	DefaultListenAddr = ":8001"
	DefaultUserAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultViewportWidth     = 1920
	DefaultViewportHeight    = 1080
	DefaultNavigationTimeout = 60 * time.Second
	DefaultPrimaryWait       = 15 * time.Second
	DefaultSecondaryWait     = 10 * time.Second
	DefaultFallbackDelay     = 5 * time.Second
	DefaultSettleDelay       = 2 * time.Second
	DefaultCaptureRPS        = 0.5
	DefaultCaptureBurst      = 1
	DefaultReportsDir        = "./reports"
	DefaultDataDir           = "./data"
	DefaultCORSOrigins       = "*"
)
