// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package metric is hwbeat's observable-instrument registry. Domains
// register named instruments with observation callbacks once at
// startup; the export loop calls Collect periodically, which invokes
// every callback in registration order and flattens the observations
// into telemetry points.
package metric

import (
	"fmt"
	"sync"
	"time"

	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
)

// Observation is one labeled value produced by an instrument
// callback.
type Observation struct {
	Value  float64
	Labels map[string]string
}

// ObserveFunc reads an instrument's current observations. Called
// under the meter lock on every Collect; the returned labels belong
// to the meter afterwards.
type ObserveFunc func() []Observation

// Instrument describes a registered metric.
type Instrument struct {
	Name        string
	Description string
	Kind        telemetry.MetricKind
}

type instrument struct {
	Instrument
	observe ObserveFunc
}

// Meter holds a set of observable instruments in registration order.
// Registration and collection are safe for concurrent use.
type Meter struct {
	name string

	mu          sync.Mutex
	instruments []instrument
	names       map[string]bool
}

// NewMeter creates an empty meter. The name identifies the
// instrumentation scope in status output.
func NewMeter(name string) *Meter {
	return &Meter{
		name:  name,
		names: make(map[string]bool),
	}
}

// Name returns the meter's instrumentation scope name.
func (m *Meter) Name() string {
	return m.name
}

// Gauge registers an observable gauge. Panics on a duplicate name or
// nil callback: both are programmer errors in domain setup.
func (m *Meter) Gauge(name, description string, observe ObserveFunc) {
	m.register(telemetry.MetricKindGauge, name, description, observe)
}

// Counter registers an observable cumulative counter. Same panics as
// Gauge.
func (m *Meter) Counter(name, description string, observe ObserveFunc) {
	m.register(telemetry.MetricKindCounter, name, description, observe)
}

func (m *Meter) register(kind telemetry.MetricKind, name, description string, observe ObserveFunc) {
	if observe == nil {
		panic(fmt.Sprintf("metric: instrument %q registered with nil callback", name))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.names[name] {
		panic(fmt.Sprintf("metric: duplicate instrument name %q", name))
	}
	m.names[name] = true
	m.instruments = append(m.instruments, instrument{
		Instrument: Instrument{Name: name, Description: description, Kind: kind},
		observe:    observe,
	})
}

// Has reports whether an instrument with the given name is
// registered.
func (m *Meter) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.names[name]
}

// Instruments returns descriptions of every registered instrument in
// registration order.
func (m *Meter) Instruments() []Instrument {
	m.mu.Lock()
	defer m.mu.Unlock()
	instruments := make([]Instrument, len(m.instruments))
	for i, registered := range m.instruments {
		instruments[i] = registered.Instrument
	}
	return instruments
}

// Collect invokes every instrument callback in registration order and
// returns the flattened points, all stamped with now. Returns nil
// when no callback produced observations.
func (m *Meter) Collect(now time.Time) []telemetry.MetricPoint {
	m.mu.Lock()
	defer m.mu.Unlock()

	timestamp := now.UnixNano()
	var points []telemetry.MetricPoint
	for _, registered := range m.instruments {
		for _, observation := range registered.observe() {
			points = append(points, telemetry.MetricPoint{
				Name:      registered.Name,
				Labels:    observation.Labels,
				Kind:      registered.Kind,
				Timestamp: timestamp,
				Value:     observation.Value,
			})
		}
	}
	return points
}
