package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/thenoetrevino/storyboard/cmd"
	"github.com/thenoetrevino/storyboard/internal/cli"
	"github.com/thenoetrevino/storyboard/internal/cli/styles"
	"github.com/thenoetrevino/storyboard/internal/config"
	"github.com/thenoetrevino/storyboard/internal/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		cfg = config.Defaults()
	}

	// Logs go to a file so they never mix with command output or the board
	if logFile, err := logging.Init("storyboard", logging.ParseLevel(cfg.LogLevel)); err == nil {
		defer func() { _ = logFile.Close() }()
	}
	styles.Init(cfg.ColorScheme)

	err = cmd.Execute(ctx)
	var cmdErr *cli.CommandError
	if err != nil && !errors.As(err, &cmdErr) {
		// Commands report their own failures; this covers flag and argument errors
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return cli.ExitCode(err)
}
