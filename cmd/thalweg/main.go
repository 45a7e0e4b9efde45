// Command thalweg samples upstream elevation profiles along watercourse
// centerlines.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/thalweg-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/thalweg-cli/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		logger.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
