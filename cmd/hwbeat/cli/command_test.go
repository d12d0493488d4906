// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/spf13/pflag"
)

func TestCommand_Execute_DispatchesToSubcommand(t *testing.T) {
	var called string

	root := &Command{
		Name: "hwbeat",
		Subcommands: []*Command{
			{
				Name: "version",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "version"
					return nil
				},
			},
			{
				Name: "status",
				Run: func(_ context.Context, args []string, _ *slog.Logger) error {
					called = "status"
					return nil
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"status"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "status" {
		t.Errorf("dispatched to %q, want %q", called, "status")
	}
}

func TestCommand_Execute_NestedSubcommands(t *testing.T) {
	var called string
	var receivedArgs []string

	root := &Command{
		Name: "hwbeat",
		Subcommands: []*Command{
			{
				Name: "history",
				Subcommands: []*Command{
					{
						Name: "prune",
						Run: func(_ context.Context, args []string, _ *slog.Logger) error {
							called = "history prune"
							receivedArgs = args
							return nil
						},
					},
				},
			},
		},
	}

	if err := root.Execute(context.Background(), []string{"history", "prune", "extra-arg"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if called != "history prune" {
		t.Errorf("dispatched to %q, want %q", called, "history prune")
	}
	if len(receivedArgs) != 1 || receivedArgs[0] != "extra-arg" {
		t.Errorf("args = %v, want [extra-arg]", receivedArgs)
	}
}

func TestCommand_Execute_FlagParsing(t *testing.T) {
	var socketPath string
	var target string

	command := &Command{
		Name: "history",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flagSet.StringVar(&socketPath, "socket", "/default.sock", "socket path")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error {
			if len(args) > 0 {
				target = args[0]
			}
			return nil
		},
	}

	if err := command.Execute(context.Background(), []string{"--socket", "/custom.sock", "hardware.battery.charge"}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if socketPath != "/custom.sock" {
		t.Errorf("socketPath = %q, want %q", socketPath, "/custom.sock")
	}
	if target != "hardware.battery.charge" {
		t.Errorf("target = %q, want %q", target, "hardware.battery.charge")
	}
}

func TestCommand_Execute_ContextReachesRun(t *testing.T) {
	type contextKey string
	const key contextKey = "marker"

	var seen any
	command := &Command{
		Name: "status",
		Run: func(ctx context.Context, _ []string, _ *slog.Logger) error {
			seen = ctx.Value(key)
			return nil
		},
	}

	ctx := context.WithValue(context.Background(), key, "present")
	if err := command.Execute(ctx, nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if seen != "present" {
		t.Errorf("context value = %v, want %q", seen, "present")
	}
}

func TestCommand_Execute_UnknownFlagSuggestion(t *testing.T) {
	command := &Command{
		Name: "watch",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			flagSet.Bool("paused", false, "start paused")
			flagSet.String("socket", "/default.sock", "socket path")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--pasued"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "did you mean --paused") {
		t.Errorf("error = %q, want suggestion for '--paused'", errStr)
	}
	// Suggestion should be on the same line as the error, not buried.
	if !strings.Contains(errStr, "pasued") {
		t.Errorf("error = %q, should mention the bad flag", errStr)
	}
	// Should include a pointer to --help.
	if !strings.Contains(errStr, "--help") {
		t.Errorf("error = %q, should point to --help", errStr)
	}
}

func TestCommand_Execute_UnknownFlagNoSuggestion(t *testing.T) {
	command := &Command{
		Name: "watch",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			flagSet.Bool("paused", false, "start paused")
			return flagSet
		},
		Run: func(_ context.Context, args []string, _ *slog.Logger) error { return nil },
	}

	err := command.Execute(context.Background(), []string{"--zzzzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown flag")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not suggest for distant flag", err.Error())
	}
	if !strings.Contains(err.Error(), "--help") {
		t.Errorf("error = %q, should point to --help", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandSuggestion(t *testing.T) {
	root := &Command{
		Name: "hwbeat",
		Subcommands: []*Command{
			{Name: "status"},
			{Name: "metrics"},
			{Name: "version"},
		},
	}

	err := root.Execute(context.Background(), []string{"metrcs"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if !strings.Contains(err.Error(), "did you mean \"metrics\"") {
		t.Errorf("error = %q, want suggestion for 'metrics'", err.Error())
	}
}

func TestCommand_Execute_UnknownSubcommandNoSuggestion(t *testing.T) {
	root := &Command{
		Name: "hwbeat",
		Subcommands: []*Command{
			{Name: "status"},
			{Name: "metrics"},
		},
	}

	err := root.Execute(context.Background(), []string{"zzzzzzz"})
	if err == nil {
		t.Fatal("Execute() = nil, want error for unknown subcommand")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("error = %q, should not contain suggestion for distant input", err.Error())
	}
}

func TestCommand_Execute_HelpFlag(t *testing.T) {
	for _, helpArg := range []string{"-h", "--help", "help"} {
		t.Run(helpArg, func(t *testing.T) {
			root := &Command{
				Name:    "hwbeat",
				Summary: "Hardware sensor agent CLI",
				Subcommands: []*Command{
					{Name: "status", Summary: "Agent status"},
				},
			}

			err := root.Execute(context.Background(), []string{helpArg})
			if err != nil {
				t.Errorf("Execute(%q) error: %v", helpArg, err)
			}
		})
	}
}

func TestCommand_Execute_NoArgsShowsHelp(t *testing.T) {
	root := &Command{
		Name: "hwbeat",
		Subcommands: []*Command{
			{Name: "status", Summary: "Agent status"},
		},
	}

	err := root.Execute(context.Background(), []string{})
	if err == nil {
		t.Fatal("Execute() = nil, want error for missing subcommand")
	}
	if !strings.Contains(err.Error(), "subcommand required") {
		t.Errorf("error = %q, want 'subcommand required'", err.Error())
	}
}

func TestCommand_PrintHelp(t *testing.T) {
	command := &Command{
		Name:        "hwbeat",
		Description: "Hardware sensor telemetry agent CLI.",
		Subcommands: []*Command{
			{Name: "status", Summary: "Show agent health"},
			{Name: "hardware", Summary: "Show the hardware tree"},
			{Name: "version", Summary: "Print version information"},
		},
		Examples: []Example{
			{
				Description: "Check the agent",
				Command:     "hwbeat status",
			},
			{
				Description: "Query battery charge history",
				Command:     "hwbeat history hardware.battery.charge --since 24h",
			},
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	// Verify structural elements are present.
	for _, want := range []string{
		"Hardware sensor telemetry agent CLI.",
		"Usage:",
		"hwbeat <command> [flags]",
		"Commands:",
		"status",
		"Show agent health",
		"hardware",
		"Show the hardware tree",
		"Examples:",
		"hwbeat status",
		"hwbeat history hardware.battery.charge",
		"Run 'hwbeat <command> --help'",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_PrintHelp_WithFlags(t *testing.T) {
	command := &Command{
		Name:    "history",
		Summary: "Query stored metric points",
		Usage:   "hwbeat history <name> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			flagSet.String("socket", "/run/hwbeat/hwbeatd.sock", "agent control socket")
			flagSet.String("since", "1h", "start of time range")
			return flagSet
		},
	}

	var buffer bytes.Buffer
	command.PrintHelp(&buffer)
	output := buffer.String()

	for _, want := range []string{
		"hwbeat history <name> [flags]",
		"Flags:",
		"socket",
		"since",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("help output missing %q\n\nFull output:\n%s", want, output)
		}
	}
}

func TestCommand_FullName(t *testing.T) {
	root := &Command{Name: "hwbeat"}
	history := &Command{Name: "history", parent: root}
	prune := &Command{Name: "prune", parent: history}

	if got := root.fullName(); got != "hwbeat" {
		t.Errorf("root.fullName() = %q, want %q", got, "hwbeat")
	}
	if got := history.fullName(); got != "hwbeat history" {
		t.Errorf("history.fullName() = %q, want %q", got, "hwbeat history")
	}
	if got := prune.fullName(); got != "hwbeat history prune" {
		t.Errorf("prune.fullName() = %q, want %q", got, "hwbeat history prune")
	}
}
