// Command baasflow plans service paths through a function catalog, composes
// them into choreographies, and optionally deploys them.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
