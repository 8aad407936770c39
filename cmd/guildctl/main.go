// Command guildctl replays scripted guild events through a frame sink and
// decodes frames on the receiving side.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/guildwire/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger := logging.Logger("guildctl")
		logger.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "guildctl: %v\n", err)
		os.Exit(1)
	}
}
