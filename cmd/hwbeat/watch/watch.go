// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package watch implements "hwbeat watch", a full-screen terminal
// table of live sensor readings with fuzzy filtering. It is the only
// CLI package that pulls in the terminal UI stack (bubbletea, bubbles,
// fzf), which is why it lives apart from the line-oriented commands.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/cli"
)

// minInterval rejects refresh intervals fast enough to keep the agent
// busy answering the TUI instead of polling hardware.
const minInterval = 100 * time.Millisecond

type watchParams struct {
	cli.AgentConnection
	Interval time.Duration
}

// Command returns the "watch" subcommand.
func Command() *cli.Command {
	var params watchParams

	return &cli.Command{
		Name:    "watch",
		Summary: "Live sensor table",
		Description: `Show a full-screen table of the agent's hardware tree with live
sensor values, refreshed on an interval. Type / to fuzzy-filter by
sensor, hardware, class, or type name; p pauses refreshing; q quits.

The table mirrors what the agent last read, it does not poll
hardware itself. For scripted output use 'hwbeat metrics' instead.`,
		Usage: "hwbeat watch [flags]",
		Examples: []cli.Example{
			{
				Description: "Watch all sensors, refreshing every second",
				Command:     "hwbeat watch",
			},
			{
				Description: "Slow the refresh down on a battery-powered machine",
				Command:     "hwbeat watch --interval 5s",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			params.AgentConnection.AddFlags(flagSet)
			flagSet.DurationVar(&params.Interval, "interval", time.Second,
				"table refresh interval")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Interval < minInterval {
				return fmt.Errorf("refresh interval %s is below the %s minimum",
					params.Interval, minInterval)
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("watch needs a terminal (use 'hwbeat metrics' for scripted output)")
			}

			model := newModel(ctx, params.AgentConnection, params.Interval)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
			if _, err := program.Run(); err != nil {
				// Ctrl-C and SIGTERM cancel ctx; bubbletea reports that
				// as a kill, but for us it is a clean shutdown.
				if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("running watch UI: %w", err)
			}
			return nil
		},
	}
}
