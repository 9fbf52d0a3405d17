// Command fr0gg composes ceramic frog souvenir prompts and serves them, with
// the gallery of published frogs, over HTTP and MCP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "fr0gg:", err)
		stop()
		os.Exit(1)
	}
}
