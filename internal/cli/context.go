// Package cli provides the command-line interface for the speedsheet application.
package cli

import (
	"github.com/speedsheet/speedsheet/internal/app"
)

// Global reference shared between root lifecycle hooks and commands
var globalApp *app.Application

// SetApp stores the Application for commands to access
func SetApp(a *app.Application) {
	globalApp = a
}

// GetApp retrieves the Application
func GetApp() *app.Application {
	return globalApp
}
