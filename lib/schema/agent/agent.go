// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent defines the request and response payloads of the
// hwbeatd control socket. These types cross the socket as CBOR; the
// CLI is the primary consumer.
package agent

import "github.com/hwbeat/hwbeat/lib/schema/telemetry"

// Status is the response payload of the "status" action: one
// self-describing snapshot of agent health.
type Status struct {
	// Version is the agent build version string.
	Version string `cbor:"version" json:"version"`

	// Machine is the agent's hostname.
	Machine string `cbor:"machine" json:"machine"`

	// StartedAt is when the agent process started, Unix nanoseconds.
	StartedAt int64 `cbor:"started_at" json:"started_at"`

	// PollInterval is the refresh interval in milliseconds.
	PollInterval int64 `cbor:"poll_interval_ms" json:"poll_interval_ms"`

	// RefreshCount is the number of completed hardware refreshes.
	RefreshCount uint64 `cbor:"refresh_count" json:"refresh_count"`

	// LastRefreshNanos is the duration of the most recent refresh.
	LastRefreshNanos int64 `cbor:"last_refresh_nanos" json:"last_refresh_nanos"`

	// InstrumentCount is the number of registered metric instruments.
	InstrumentCount int `cbor:"instrument_count" json:"instrument_count"`

	// HardwareCount is the number of hardware nodes in the tree,
	// including nested sub-hardware.
	HardwareCount int `cbor:"hardware_count" json:"hardware_count"`

	// SensorCount is the number of sensors in the tree.
	SensorCount int `cbor:"sensor_count" json:"sensor_count"`

	// ShippedBatches is the number of batches delivered to the sink.
	ShippedBatches uint64 `cbor:"shipped_batches" json:"shipped_batches"`

	// DroppedBatches is the number of batches discarded on buffer
	// overflow (before spooling existed for them).
	DroppedBatches uint64 `cbor:"dropped_batches" json:"dropped_batches"`

	// SpooledBatches is the number of batches currently spooled on
	// disk awaiting re-delivery.
	SpooledBatches int `cbor:"spooled_batches" json:"spooled_batches"`

	// History summarizes the local history store. Nil when history is
	// disabled.
	History *HistoryStats `cbor:"history,omitempty" json:"history,omitempty"`
}

// HistoryStats summarizes the on-disk history store for the status
// response.
type HistoryStats struct {
	// PartitionCount is the number of day partitions present.
	PartitionCount int `cbor:"partition_count" json:"partition_count"`

	// OldestPartition and NewestPartition are YYYYMMDD suffixes.
	// Empty when no partitions exist.
	OldestPartition string `cbor:"oldest_partition,omitempty" json:"oldest_partition,omitempty"`
	NewestPartition string `cbor:"newest_partition,omitempty" json:"newest_partition,omitempty"`

	// PointCount is the total number of stored metric points.
	PointCount int64 `cbor:"point_count" json:"point_count"`

	// DatabaseSizeBytes is the SQLite file size (page_count ×
	// page_size).
	DatabaseSizeBytes int64 `cbor:"database_size_bytes" json:"database_size_bytes"`
}

// HardwareResponse is the response payload of the "hardware" action.
type HardwareResponse struct {
	Nodes []HardwareNode `cbor:"nodes" json:"nodes"`
}

// HardwareNode is one node of the hardware tree snapshot returned by
// the "hardware" action. Values are read under the agent's refresh
// lock, so a snapshot is internally consistent.
type HardwareNode struct {
	// Class is the hardware class name (battery, storage, superio...).
	Class string `cbor:"class" json:"class"`

	// Name is the hardware display name.
	Name string `cbor:"name" json:"name"`

	// SubHardware lists nested nodes in provider order.
	SubHardware []HardwareNode `cbor:"sub_hardware,omitempty" json:"sub_hardware,omitempty"`

	// Sensors lists the node's own sensors in provider order.
	Sensors []SensorValue `cbor:"sensors,omitempty" json:"sensors,omitempty"`
}

// SensorValue is one sensor within a hardware tree snapshot.
type SensorValue struct {
	// Type is the sensor type name (voltage, temperature, load...).
	Type string `cbor:"type" json:"type"`

	// Name is the sensor display name ("Charge Level", "Read Rate").
	Name string `cbor:"name" json:"name"`

	// Value is the current reading. Nil when the sensor has no value
	// yet (rate sensors before their second refresh).
	Value *float64 `cbor:"value" json:"value"`
}

// HistoryRequest is the request payload of the "history" action.
// Zero-valued fields are not applied as filters.
type HistoryRequest struct {
	// Name is the metric name to query. Required.
	Name string `cbor:"name" json:"name"`

	// Labels that must all match, compared by exact value.
	Labels map[string]string `cbor:"labels,omitempty" json:"labels,omitempty"`

	// Start and End bound the timestamp range, Unix nanoseconds.
	// Zero means unbounded on that side.
	Start int64 `cbor:"start,omitempty" json:"start,omitempty"`
	End   int64 `cbor:"end,omitempty" json:"end,omitempty"`

	// Limit caps the number of returned points (default 1000).
	Limit int `cbor:"limit,omitempty" json:"limit,omitempty"`
}

// HistoryResponse is the response payload of the "history" action.
// Points are ordered newest first.
type HistoryResponse struct {
	Points []telemetry.MetricPoint `cbor:"points" json:"points"`
}

// MetricsResponse is the response payload of the "metrics" action: a
// one-shot collection over all registered instruments.
type MetricsResponse struct {
	Points []telemetry.MetricPoint `cbor:"points" json:"points"`
}
