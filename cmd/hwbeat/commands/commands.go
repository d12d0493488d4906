// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete hwbeat CLI command tree. Every
// command talks to a running hwbeatd over its control socket; nothing
// here reads hardware directly.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/cli"
	"github.com/hwbeat/hwbeat/cmd/hwbeat/watch"
	"github.com/hwbeat/hwbeat/lib/version"
)

// Root builds and returns the complete hwbeat CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "hwbeat",
		Description: `hwbeat: hardware sensor telemetry.

Inspect the hardware tree, current sensor readings, and stored
metric history of a running hwbeatd agent.`,
		Subcommands: []*cli.Command{
			statusCommand(),
			hardwareCommand(),
			metricsCommand(),
			historyCommand(),
			watch.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					fmt.Printf("hwbeat %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check that the agent is up and exporting",
				Command:     "hwbeat status",
			},
			{
				Description: "See every device and sensor the agent found",
				Command:     "hwbeat hardware",
			},
			{
				Description: "Watch sensor values live",
				Command:     "hwbeat watch",
			},
			{
				Description: "Battery charge over the last day",
				Command:     "hwbeat history hardware.battery.charge --since 1d",
			},
		},
	}
}
