// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"sync"

	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
)

// Accumulator collects metric points between export flushes and
// produces MetricBatch values on demand. It stamps every batch with
// the agent's machine identity, boot ID, and a per-run sequence number
// so the receiving end can detect gaps and duplicates.
//
// Thread-safe: the flush loop and the shutdown path both call
// AddPoints and Flush, and the status handler reads SequenceNumber
// concurrently.
type Accumulator struct {
	mu             sync.Mutex
	points         []telemetry.MetricPoint
	sequenceNumber uint64
	machine        string
	bootID         string
}

// NewAccumulator creates an Accumulator that stamps every flushed
// batch with the given machine hostname and kernel boot ID. The boot
// ID may be empty when /proc is unreadable.
func NewAccumulator(machine, bootID string) *Accumulator {
	return &Accumulator{
		machine: machine,
		bootID:  bootID,
	}
}

// AddPoints appends metric points to the accumulator. A nil or empty
// slice is a no-op.
func (a *Accumulator) AddPoints(points []telemetry.MetricPoint) {
	if len(points) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.points = append(a.points, points...)
}

// Flush atomically drains the accumulated points into a MetricBatch.
// Returns nil if no points have been accumulated since the last flush.
// Each non-nil flush increments the sequence number.
func (a *Accumulator) Flush() *telemetry.MetricBatch {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.points) == 0 {
		return nil
	}

	batch := &telemetry.MetricBatch{
		Machine:        a.machine,
		BootID:         a.bootID,
		SequenceNumber: a.sequenceNumber,
		Points:         a.points,
	}

	a.points = nil
	a.sequenceNumber++

	return batch
}

// PointCount returns the number of points currently accumulated.
func (a *Accumulator) PointCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.points)
}

// SequenceNumber returns the sequence number that will be assigned to
// the next flushed batch.
func (a *Accumulator) SequenceNumber() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sequenceNumber
}
