// Package main provides the dwb-ipcd headless endpoint entrypoint.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/rbright/dwbremote/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Prompts are only answered from an interactive terminal.
	var stdin io.Reader
	if isatty.IsTerminal(os.Stdin.Fd()) {
		stdin = os.Stdin
	}

	exitCode := app.ExecuteHost(ctx, os.Args[1:], stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode)
}
