// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/cli"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

type historyParams struct {
	cli.AgentConnection
	cli.JSONOutput
	Name   string
	Labels []string
	Since  string
	Until  string
	Limit  int
}

func historyCommand() *cli.Command {
	var params historyParams

	return &cli.Command{
		Name:    "history",
		Summary: "Query stored metric points from the local history",
		Description: `Retrieve stored observations for a named metric from the agent's
local history database. The metric name is required and must be an
exact match (e.g., "hardware.battery.charge").

Labels can be filtered with repeatable --label flags using key=value
syntax. All specified labels must match.

Time ranges use --since and --until, which accept Go durations (1h,
30m), day suffixes (7d), or timestamps (RFC3339 or YYYY-MM-DD).
Defaults to the last hour. Points print newest first.`,
		Usage: "hwbeat history <name> [flags]",
		Examples: []cli.Example{
			{
				Description: "Battery charge over the last hour",
				Command:     "hwbeat history hardware.battery.charge",
			},
			{
				Description: "One device over the last day",
				Command:     "hwbeat history hardware.storage.temperature --label \"hardware=Samsung SSD 990\" --since 1d",
			},
			{
				Description: "JSON output for scripting",
				Command:     "hwbeat history hardware.memory.used --since 15m --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			params.AgentConnection.AddFlags(flagSet)
			params.JSONOutput.AddFlags(flagSet)
			flagSet.StringVar(&params.Name, "name", "", "metric name to query (exact match)")
			flagSet.StringArrayVar(&params.Labels, "label", nil, "filter by label (key=value, repeatable)")
			flagSet.StringVar(&params.Since, "since", "1h", "start of time range (duration or timestamp)")
			flagSet.StringVar(&params.Until, "until", "", "end of time range (duration or timestamp)")
			flagSet.IntVar(&params.Limit, "limit", 1000, "maximum number of points to return")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) == 1 {
				params.Name = args[0]
			} else if len(args) > 1 {
				return fmt.Errorf("expected 1 positional argument, got %d", len(args))
			}
			if params.Name == "" {
				return fmt.Errorf("metric name is required\n\nUsage: hwbeat history <name>")
			}

			fields := map[string]any{"name": params.Name}

			if len(params.Labels) > 0 {
				labels := make(map[string]string, len(params.Labels))
				for _, label := range params.Labels {
					key, value, ok := strings.Cut(label, "=")
					if !ok {
						return fmt.Errorf("invalid label %q: expected key=value format", label)
					}
					labels[key] = value
				}
				fields["labels"] = labels
			}

			if params.Since != "" {
				start, err := parseTimeFlag(params.Since)
				if err != nil {
					return fmt.Errorf("--since: %w", err)
				}
				fields["start"] = start
			}

			if params.Until != "" {
				end, err := parseTimeFlag(params.Until)
				if err != nil {
					return fmt.Errorf("--until: %w", err)
				}
				fields["end"] = end
			}

			if params.Limit > 0 {
				fields["limit"] = params.Limit
			}

			ctx, cancel := callContext(ctx)
			defer cancel()

			var response agent.HistoryResponse
			if err := params.Call(ctx, "history", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response.Points); done {
				return err
			}

			if len(response.Points) == 0 {
				logger.Info("no stored points in the requested range", "name", params.Name)
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "TIMESTAMP\tVALUE\tLABELS\n")
			for _, point := range response.Points {
				fmt.Fprintf(writer, "%s\t%.4g\t%s\n",
					formatTimestamp(point.Timestamp),
					point.Value,
					truncate(formatLabels(point.Labels), 80),
				)
			}
			return writer.Flush()
		},
	}
}
