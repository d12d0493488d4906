// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/cli"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
)

type metricsParams struct {
	cli.AgentConnection
	cli.JSONOutput
}

func metricsCommand() *cli.Command {
	var params metricsParams

	return &cli.Command{
		Name:    "metrics",
		Summary: "Collect every instrument once and print the points",
		Description: `Trigger a one-shot collection over all registered instruments and
print the resulting points as name{labels} value lines, sorted by
name. The collection reads the agent's cached sensor values; it does
not force a hardware refresh and does not feed the export pipeline.

An optional positional name restricts output to one metric.`,
		Usage: "hwbeat metrics [name] [flags]",
		Examples: []cli.Example{
			{
				Description: "All current metric values",
				Command:     "hwbeat metrics",
			},
			{
				Description: "One metric across all devices",
				Command:     "hwbeat metrics hardware.battery.charge",
			},
			{
				Description: "JSON output for scripting",
				Command:     "hwbeat metrics --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("metrics", pflag.ContinueOnError)
			params.AgentConnection.AddFlags(flagSet)
			params.JSONOutput.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one positional argument, got %d", len(args))
			}

			ctx, cancel := callContext(ctx)
			defer cancel()

			var response agent.MetricsResponse
			if err := params.Call(ctx, "metrics", nil, &response); err != nil {
				return err
			}

			points := response.Points
			if len(args) == 1 {
				points = filterByMetricName(points, args[0])
			}

			if done, err := params.EmitJSON(points); done {
				return err
			}

			if len(points) == 0 {
				logger.Info("no metric points collected")
				return nil
			}

			lines := make([]string, len(points))
			for index, point := range points {
				lines[index] = expositionLine(point)
			}
			sort.Strings(lines)
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}
}

func filterByMetricName(points []telemetry.MetricPoint, name string) []telemetry.MetricPoint {
	filtered := make([]telemetry.MetricPoint, 0, len(points))
	for _, point := range points {
		if point.Name == name {
			filtered = append(filtered, point)
		}
	}
	return filtered
}

// expositionLine renders a point as name{key="value"} value with
// sorted label keys, the line format scrape endpoints made universal.
func expositionLine(point telemetry.MetricPoint) string {
	var line strings.Builder
	line.WriteString(point.Name)

	if len(point.Labels) > 0 {
		keys := make([]string, 0, len(point.Labels))
		for key := range point.Labels {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		line.WriteByte('{')
		for index, key := range keys {
			if index > 0 {
				line.WriteByte(',')
			}
			fmt.Fprintf(&line, "%s=%q", key, point.Labels[key])
		}
		line.WriteByte('}')
	}

	line.WriteByte(' ')
	line.WriteString(strconv.FormatFloat(point.Value, 'g', -1, 64))
	return line.String()
}
