// Package main is the entry point for the quarry package manager.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"

	"github.com/quarrypkg/quarry/cmd/quarry/commands"
	"github.com/quarrypkg/quarry/internal/app"
	"github.com/quarrypkg/quarry/internal/core/domain"
	_ "github.com/quarrypkg/quarry/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// Logger is not available yet if initialization failed.
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = components.Close() }()

	cli := commands.New(components.App)

	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, domain.ErrInstallFailed) {
			// Per-package failures were already reported.
			return 1
		}
		components.Logger.Error(err)
		return 1
	}
	return 0
}
