package config

import "fmt"

func validate(c *Config) error {
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if c.PrimaryWait <= 0 || c.SecondaryWait <= 0 {
		return fmt.Errorf("readiness waits must be > 0")
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be > 0")
	}
	if c.CaptureRPS <= 0 {
		return fmt.Errorf("capture rate must be > 0")
	}
	if c.ReportsDir == "" {
		return fmt.Errorf("reports dir must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data dir must not be empty")
	}
	if len(c.CORSOrigins) == 0 {
		return fmt.Errorf("at least one CORS origin is required")
	}
	return nil
}
