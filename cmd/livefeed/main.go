// Package main provides the entry point for the livefeed server.
package main

import (
	"context"
	"os"

	"github.com/tcec-chess/livefeed/cmd/livefeed/app"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	application, err := app.New(version, commit, date, builtBy)
	if err != nil {
		app.ExitOnError(err)
	}

	ctx, cancel := app.ContextWithSignals(context.Background())
	defer cancel()

	if err := application.Execute(ctx, os.Args[1:]); err != nil {
		application.Logger().Error().Err(err).Msg("Command failed")
		cancel()
		app.ExitOnError(err)
	}
}
