package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Makepad-fr/tada/internal/cli"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
)

func main() {
	// Root flags (apply to every subcommand) are registered by config.Load.
	cfg, args, err := config.Load(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "todo:", err)
		os.Exit(2)
	}
	logger, err := logging.Setup(os.Stderr, cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "todo:", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.Run(ctx, args, cli.Options{Config: cfg, Logger: logger})
	stop()

	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	os.Exit(code)
}
