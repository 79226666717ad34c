package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/btvault/bt/cmd/bt/commands"
)

// Build-time variables injected via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := commands.GetRootCmd().ExecuteContext(ctx); err != nil {
		commands.Exit("%v", err)
	}
	os.Exit(0)
}
