// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for the hwbeat
// agent and CLI.
//
// Configuration is loaded from a single file specified by either the
// HWBEAT_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This keeps configuration deterministic
// and auditable with no hidden overrides.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${HWBEAT_STATE}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Key exports:
//
//   - [Config] -- master struct with Hardware, Telemetry, History, Log
//   - [Default] -- returns a Config with agent defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other hwbeat packages.
package config
