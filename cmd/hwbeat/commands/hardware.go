// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/cli"
	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

type hardwareParams struct {
	cli.AgentConnection
	cli.JSONOutput
	Class string
}

func hardwareCommand() *cli.Command {
	var params hardwareParams

	return &cli.Command{
		Name:    "hardware",
		Summary: "Show the hardware tree with current sensor values",
		Description: `Display the agent's hardware tree: every probed device, its
nested sub-hardware, and each sensor's most recent reading. Values
come from the last completed refresh, so the snapshot is internally
consistent.

Rate sensors (read/write throughput, network speeds) show "-" until
the agent's second refresh establishes a delta.`,
		Usage: "hwbeat hardware [flags]",
		Examples: []cli.Example{
			{
				Description: "Show all hardware",
				Command:     "hwbeat hardware",
			},
			{
				Description: "Only battery devices",
				Command:     "hwbeat hardware --class battery",
			},
			{
				Description: "JSON output for scripting",
				Command:     "hwbeat hardware --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("hardware", pflag.ContinueOnError)
			params.AgentConnection.AddFlags(flagSet)
			params.JSONOutput.AddFlags(flagSet)
			flagSet.StringVar(&params.Class, "class", "",
				"only show devices of this class (battery, storage, network, ...)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			ctx, cancel := callContext(ctx)
			defer cancel()

			var response agent.HardwareResponse
			if err := params.Call(ctx, "hardware", nil, &response); err != nil {
				return err
			}

			nodes := response.Nodes
			if params.Class != "" {
				nodes = filterByClass(nodes, params.Class)
			}

			if done, err := params.EmitJSON(nodes); done {
				return err
			}

			if len(nodes) == 0 {
				if params.Class != "" {
					logger.Info("no hardware of requested class", "class", params.Class)
				} else {
					logger.Info("no hardware found (agent may still be probing)")
				}
				return nil
			}

			renderHardware(os.Stdout, nodes)
			return nil
		},
	}
}

// filterByClass keeps top-level nodes whose class matches. Nested
// sub-hardware is never split from its parent.
func filterByClass(nodes []agent.HardwareNode, class string) []agent.HardwareNode {
	filtered := make([]agent.HardwareNode, 0, len(nodes))
	for _, node := range nodes {
		if node.Class == class {
			filtered = append(filtered, node)
		}
	}
	return filtered
}

// renderHardware writes the tree as indented device blocks with an
// aligned sensor column layout. Column widths are computed over the
// whole tree so sensor rows align across devices. Padding happens
// before styling: styled text carries ANSI sequences that would break
// printf width math.
func renderHardware(w io.Writer, nodes []agent.HardwareNode) {
	renderer := lipgloss.NewRenderer(w)
	classStyle := renderer.NewStyle().Faint(true)
	nameStyle := renderer.NewStyle().Bold(true)

	typeWidth, nameWidth := sensorColumnWidths(nodes, 0)

	for index, node := range nodes {
		if index > 0 {
			fmt.Fprintln(w)
		}
		renderNode(w, node, 0, typeWidth, nameWidth, classStyle, nameStyle)
	}
}

// sensorColumnWidths returns the width of the sensor type and name
// columns over the whole tree, accounting for per-depth indentation.
func sensorColumnWidths(nodes []agent.HardwareNode, depth int) (typeWidth, nameWidth int) {
	for _, node := range nodes {
		for _, sensor := range node.Sensors {
			indent := (depth + 1) * 2
			if width := indent + len(sensor.Type); width > typeWidth {
				typeWidth = width
			}
			if len(sensor.Name) > nameWidth {
				nameWidth = len(sensor.Name)
			}
		}
		subTypeWidth, subNameWidth := sensorColumnWidths(node.SubHardware, depth+1)
		if subTypeWidth > typeWidth {
			typeWidth = subTypeWidth
		}
		if subNameWidth > nameWidth {
			nameWidth = subNameWidth
		}
	}
	return typeWidth, nameWidth
}

func renderNode(w io.Writer, node agent.HardwareNode, depth, typeWidth, nameWidth int, classStyle, nameStyle lipgloss.Style) {
	indent := depth * 2
	fmt.Fprintf(w, "%*s%s  %s\n", indent, "",
		classStyle.Render(fmt.Sprintf("[%s]", node.Class)),
		nameStyle.Render(node.Name))

	for _, sensor := range node.Sensors {
		typeCell := fmt.Sprintf("%*s%s", indent+2, "", sensor.Type)
		fmt.Fprintf(w, "%-*s  %-*s  %s\n",
			typeWidth, typeCell,
			nameWidth, sensor.Name,
			formatSensorValue(sensor.Type, sensor.Value))
	}

	for _, sub := range node.SubHardware {
		renderNode(w, sub, depth+1, typeWidth, nameWidth, classStyle, nameStyle)
	}
}

// formatSensorValue renders a wire-format sensor reading with its
// unit. Unknown types (a newer agent than CLI) fall back to the bare
// number.
func formatSensorValue(typeName string, value *float64) string {
	if value == nil {
		return "-"
	}
	if sensorType, ok := hwtree.ParseSensorType(typeName); ok {
		return sensorType.FormatValue(*value)
	}
	return strconv.FormatFloat(*value, 'g', -1, 64)
}
