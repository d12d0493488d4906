// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry defines the wire types for hwbeat metric data:
// the observations produced by instrument callbacks, and the batches
// the agent ships to a collector endpoint and spools to disk. Both
// JSON (CLI --json output) and CBOR (socket, shipping, spool) use the
// same json struct tags, relying on the CBOR codec's json-tag
// fallback.
package telemetry

// MetricKind distinguishes how a metric's value is interpreted over
// time.
type MetricKind uint8

const (
	// MetricKindGauge is an instantaneous value that can go up or
	// down (temperature, charge level, used space).
	MetricKindGauge MetricKind = 0

	// MetricKindCounter is a monotonically increasing value (total
	// bytes read, total bytes downloaded). Resets are detected by the
	// consumer.
	MetricKindCounter MetricKind = 1
)

// String returns the lowercase kind name used in CLI output and logs.
func (k MetricKind) String() string {
	switch k {
	case MetricKindGauge:
		return "gauge"
	case MetricKindCounter:
		return "counter"
	default:
		return "unknown"
	}
}

// MetricPoint is one labeled observation of one metric at one instant.
// A single instrument may produce several points per collection, one
// per backing sensor, distinguished by labels.
type MetricPoint struct {
	// Name is the metric name, dot-separated by domain:
	// hardware.battery.charge, hardware.storage.temperature.
	Name string `json:"name"`

	// Labels are the observation's dimensions. Standard labels are
	// "name" (device or sensor display name) and "type" (a per-metric
	// discriminator such as read/write or physical/virtual).
	Labels map[string]string `json:"labels,omitempty"`

	// Kind distinguishes gauge (0) from counter (1).
	Kind MetricKind `json:"kind"`

	// Timestamp is when this observation was collected, as Unix
	// nanoseconds.
	Timestamp int64 `json:"timestamp"`

	// Value is the observed value. Zero is a valid measurement (a
	// fully drained battery reports 0), so this field is always
	// serialized.
	Value float64 `json:"value"`
}

// MetricBatch groups the points from one collection flush for
// shipping. One batch is one CBOR document on the wire and one spool
// file on disk.
type MetricBatch struct {
	// Machine is the hostname of the machine the points were sampled
	// on.
	Machine string `json:"machine"`

	// BootID is the kernel boot identifier, when known. Consumers use
	// it to distinguish a counter reset caused by reboot from one
	// caused by agent restart.
	BootID string `json:"boot_id,omitempty"`

	// SequenceNumber increases monotonically per agent run. The
	// receiving end uses it to detect gaps (batches dropped on buffer
	// overflow) and duplicates (retry after a shipping timeout).
	SequenceNumber uint64 `json:"sequence_number"`

	// Points are the observations collected since the last flush.
	Points []MetricPoint `json:"points"`
}
