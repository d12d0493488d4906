// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Hwbeatd is the hardware telemetry agent. It probes the machine's
// sensors once at startup (batteries, super I/O chips, memory, block
// devices, network interfaces), registers a metric instrument for
// every reading the hardware actually exposes, and then refreshes the
// sensor values on a fixed poll interval.
//
// Data flow:
//
//	sysfs provider → collector refresh loop → meter callbacks → accumulator → buffer → shipper → sink "ingest"
//
// Collected points are batched on the export interval. Each batch is
// written to the local SQLite history store (when configured) and
// CBOR-encoded into the ship buffer. The buffer is bounded: when the
// shipper falls behind, the oldest batch is moved to the on-disk spool
// (or dropped when spooling is off) rather than exhausting memory. The
// shipper retries with exponential backoff (1s → 30s cap) and drains
// the spool once the sink recovers.
//
// The control socket serves the operator CLI: "ping", "status",
// "hardware" (tree snapshot), "metrics" (one-shot collection), and
// "history" (query the store). All actions are one CBOR request and
// one CBOR response per connection.
//
// Configuration comes from a YAML file named by --config or the
// HWBEAT_CONFIG environment variable; see lib/config.
package main
