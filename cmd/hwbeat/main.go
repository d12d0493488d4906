// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Command hwbeat is the operator CLI for hwbeatd. It connects to the
// agent's control socket; run `hwbeat --help` for the command tree.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/commands"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Ctrl-C cancels in-flight socket calls and stops the watch TUI
	// instead of killing the process mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.Root().Execute(ctx, os.Args[1:])
}
