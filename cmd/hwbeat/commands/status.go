// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/cli"
	"github.com/hwbeat/hwbeat/lib/healthfile"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

// defaultHealthFile is where a stock install writes the liveness file.
// Must match the agent's health_file config for --health to work.
const defaultHealthFile = "/run/hwbeat/hwbeatd.health"

type statusParams struct {
	cli.AgentConnection
	cli.JSONOutput
	Health     bool
	HealthFile string
	MaxAge     time.Duration
}

func statusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Show agent health and pipeline counters",
		Description: `Display the agent's runtime state: uptime, hardware refresh
counters, registered instruments, and export pipeline counters
(shipped, dropped, spooled batches). When the local history store
is enabled, its partition and size summary is included.

With --health, the agent is not queried at all: the health file it
rewrites after every refresh is checked instead. This works from
init scripts and monitors that must not block on a wedged agent,
and exits non-zero when the file is missing or stale.`,
		Usage: "hwbeat status [flags]",
		Examples: []cli.Example{
			{
				Description: "Show agent status",
				Command:     "hwbeat status",
			},
			{
				Description: "JSON output for scripting",
				Command:     "hwbeat status --json",
			},
			{
				Description: "Liveness probe against the health file",
				Command:     "hwbeat status --health --max-age 30s",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			params.AgentConnection.AddFlags(flagSet)
			params.JSONOutput.AddFlags(flagSet)
			flagSet.BoolVar(&params.Health, "health", false,
				"check the health file instead of querying the agent")
			flagSet.StringVar(&params.HealthFile, "health-file", defaultHealthFile,
				"health file path (must match the agent's health_file config)")
			flagSet.DurationVar(&params.MaxAge, "max-age", time.Minute,
				"maximum health file age before the agent counts as dead")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if params.Health {
				return runHealthCheck(params)
			}

			ctx, cancel := callContext(ctx)
			defer cancel()

			var status agent.Status
			if err := params.Call(ctx, "status", nil, &status); err != nil {
				return err
			}

			if done, err := params.EmitJSON(status); done {
				return err
			}

			renderStatus(os.Stdout, status, time.Now())
			return nil
		},
	}
}

// runHealthCheck evaluates the agent's health file without touching
// the socket. Prints one line and returns an error (non-zero exit)
// when the agent is dead or stale.
func runHealthCheck(params statusParams) error {
	state, alive, err := healthfile.Check(params.HealthFile, params.MaxAge)
	if err != nil {
		return fmt.Errorf("reading health file: %w", err)
	}
	if !alive {
		return fmt.Errorf("agent is not healthy: %s missing or older than %s", params.HealthFile, params.MaxAge)
	}

	if done, err := params.EmitJSON(state); done {
		return err
	}

	fmt.Printf("healthy: pid %d on %s, %d refreshes, updated %s ago\n",
		state.PID, state.Machine, state.RefreshCount,
		formatDuration(int64(time.Since(state.UpdatedAt))))
	return nil
}

// renderStatus writes the human-readable status block. Styles go
// through a lipgloss renderer bound to w, so terminal output gets a
// faint label column and bold section headers while pipes and tests
// get plain text (non-TTY writers degrade to the Ascii profile).
func renderStatus(w io.Writer, status agent.Status, now time.Time) {
	renderer := lipgloss.NewRenderer(w)
	label := renderer.NewStyle().Faint(true).Width(16)
	section := renderer.NewStyle().Bold(true)

	row := func(name string, format string, args ...any) {
		fmt.Fprintf(w, "%s%s\n", label.Render(name+":"), fmt.Sprintf(format, args...))
	}

	row("Machine", "%s", status.Machine)
	row("Version", "%s", status.Version)
	row("Uptime", "%s", formatUptime(now.Sub(time.Unix(0, status.StartedAt))))
	row("Poll interval", "%s", formatDuration(status.PollInterval*int64(time.Millisecond)))
	row("Refreshes", "%d (last took %s)", status.RefreshCount, formatDuration(status.LastRefreshNanos))
	row("Instruments", "%d", status.InstrumentCount)
	row("Hardware", "%d nodes, %d sensors", status.HardwareCount, status.SensorCount)

	fmt.Fprintf(w, "\n%s\n", section.Render("Export"))
	row("  Shipped", "%d", status.ShippedBatches)
	row("  Dropped", "%d", status.DroppedBatches)
	row("  Spooled", "%d", status.SpooledBatches)

	if status.History != nil {
		history := status.History
		fmt.Fprintf(w, "\n%s\n", section.Render("History"))
		if history.OldestPartition != "" {
			row("  Partitions", "%d (%s - %s)",
				history.PartitionCount, history.OldestPartition, history.NewestPartition)
		} else {
			row("  Partitions", "%d", history.PartitionCount)
		}
		row("  Points", "%d", history.PointCount)
		row("  Database", "%s", formatBytes(history.DatabaseSizeBytes))
	}
}
