// cmd/speedsheet/main.go
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/speedsheet/speedsheet/internal/cli"
)

func main() {
	// Setup signal handling for graceful shutdown; serve and capture install
	// their own handlers, this covers everything else.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		<-sigCh
		log.Warn().Msg("Second interrupt received, exiting immediately")
		os.Exit(1)
	}()

	// Execute CLI (app initialization happens inside cli.Execute)
	cli.Execute()
}
