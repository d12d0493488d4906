// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/hwbeat/hwbeat/lib/service"
)

// Socket resolution order: --socket flag, HWBEAT_SOCKET environment
// variable, compiled-in default. The default matches the daemon's
// config default so a stock install needs no flags.
const (
	// SocketEnvVar overrides the default socket path when set.
	SocketEnvVar = "HWBEAT_SOCKET"

	// DefaultSocketPath is where hwbeatd listens by default.
	DefaultSocketPath = "/run/hwbeat/hwbeatd.sock"
)

// AgentConnection manages the --socket flag shared by every command
// that talks to the hwbeatd control socket. Embed it in a command's
// parameter struct and register it with AddFlags.
type AgentConnection struct {
	// SocketPath is the hwbeatd control socket path.
	SocketPath string
}

// AddFlags registers the --socket flag on the given flag set.
func (c *AgentConnection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.SocketPath, "socket", defaultSocket(), "path to the hwbeatd control socket")
}

// defaultSocket resolves the socket path from the environment,
// falling back to the compiled-in default.
func defaultSocket() string {
	if path := os.Getenv(SocketEnvVar); path != "" {
		return path
	}
	return DefaultSocketPath
}

// Client creates a service client for the configured socket. No
// connection is made until the first Call.
func (c *AgentConnection) Client() *service.ServiceClient {
	return service.NewServiceClient(c.SocketPath)
}

// Call sends one action to the agent and decodes the response into
// result. Connection failures (socket missing, nothing listening) are
// wrapped with a hint, since "is the daemon running" is the first
// question on every support path.
func (c *AgentConnection) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	err := c.Client().Call(ctx, action, fields, result)
	if err == nil {
		return nil
	}

	var serviceError *service.ServiceError
	if errors.As(err, &serviceError) {
		return err
	}

	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w\n\nIs hwbeatd running? Check the socket path with --socket or %s.", err, SocketEnvVar)
	}
	return err
}
