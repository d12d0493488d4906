// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package collector turns a hardware sensor tree into observable
// metric instruments and keeps the readings fresh.
//
// A Collector is built once from a provider's probed tree: it indexes
// every sensor, then registers gauges on a meter for each enabled
// hardware domain. Registration is skipped for any metric whose
// selection rule matches zero sensors, so a machine without a battery
// simply has no battery instruments.
//
// After construction the tree's shape never changes. Run refreshes
// sensor values on a fixed interval, and the meter's collection
// callbacks read them. Both sides share one mutex: a refresh holds it
// for the whole provider pass, and each callback holds it while
// reading its own sensors, so a collection never observes a tree that
// is half old and half new.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hwbeat/hwbeat/lib/clock"
	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/metric"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

// Domains selects which hardware classes publish metrics. The
// provider probes everything it can regardless; these switches only
// gate instrument registration.
type Domains struct {
	Battery     bool
	Controller  bool
	CPU         bool
	GPU         bool
	Memory      bool
	Motherboard bool
	Network     bool
	Storage     bool
}

// AllDomains enables every hardware class.
func AllDomains() Domains {
	return Domains{
		Battery:     true,
		Controller:  true,
		CPU:         true,
		GPU:         true,
		Memory:      true,
		Motherboard: true,
		Network:     true,
		Storage:     true,
	}
}

// Options configures a Collector.
type Options struct {
	// Provider supplies the probed hardware tree and refreshes its
	// sensor values in place. Required.
	Provider hwtree.Provider

	// Meter receives the instruments. Required.
	Meter *metric.Meter

	// PollInterval is the delay between refreshes. Required, positive.
	PollInterval time.Duration

	// Domains gates which hardware classes register instruments.
	Domains Domains

	// Clock drives the refresh timer. Defaults to the real clock.
	Clock clock.Clock

	// Log receives refresh failures. Defaults to slog.Default.
	Log *slog.Logger
}

// Stats reports refresh progress, for status reporting.
type Stats struct {
	RefreshCount uint64
	LastRefresh  time.Time
	LastDuration time.Duration
}

// Collector owns a hardware provider and republishes its sensor
// values as metrics.
type Collector struct {
	provider     hwtree.Provider
	meter        *metric.Meter
	clock        clock.Clock
	log          *slog.Logger
	pollInterval time.Duration

	// mu is the shared lock: Refresh mutates every sensor value under
	// it, and every instrument callback reads under it.
	mu           sync.Mutex
	index        *hwtree.Index
	refreshCount uint64
	lastRefresh  time.Time
	lastDuration time.Duration
	closed       bool

	closeOnce sync.Once
}

// New builds the sensor index and registers instruments for every
// enabled domain. The provider must already be probed; New never
// refreshes.
func New(options Options) (*Collector, error) {
	if options.Provider == nil {
		return nil, errors.New("collector: provider is required")
	}
	if options.Meter == nil {
		return nil, errors.New("collector: meter is required")
	}
	if options.PollInterval <= 0 {
		return nil, errors.New("collector: poll interval must be positive")
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}
	if options.Log == nil {
		options.Log = slog.Default()
	}

	c := &Collector{
		provider:     options.Provider,
		meter:        options.Meter,
		clock:        options.Clock,
		log:          options.Log,
		pollInterval: options.PollInterval,
		index:        hwtree.NewIndex(options.Provider.Hardware()),
	}

	// The controller switch exists for configuration parity but no
	// controller metrics are published yet, so nothing consumes it.
	domains := []struct {
		enabled bool
		setup   func(*Collector)
	}{
		{options.Domains.Battery, setupBattery},
		{options.Domains.CPU, setupCPU},
		{options.Domains.GPU, setupGPU},
		{options.Domains.Memory, setupMemory},
		{options.Domains.Motherboard, setupSuperIO},
		{options.Domains.Network, setupNetwork},
		{options.Domains.Storage, setupStorage},
	}
	for _, domain := range domains {
		if domain.enabled {
			domain.setup(c)
		}
	}
	return c, nil
}

// Run refreshes immediately, then on every tick of the poll interval
// until ctx is canceled. A failed refresh is logged and its tick
// skipped; the loop keeps going.
func (c *Collector) Run(ctx context.Context) {
	c.refresh()
	ticker := c.clock.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refresh()
		}
	}
}

func (c *Collector) refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	start := c.clock.Now()
	if err := c.provider.Refresh(); err != nil {
		c.log.Error("hardware refresh failed", "error", err)
		return
	}
	c.refreshCount++
	c.lastRefresh = start
	c.lastDuration = c.clock.Now().Sub(start)
}

// Close stops accepting refreshes and closes the provider. Safe to
// call more than once; only the first call releases anything or can
// return an error.
func (c *Collector) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		err = c.provider.Close()
	})
	return err
}

// Stats returns refresh progress under the shared lock.
func (c *Collector) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		RefreshCount: c.refreshCount,
		LastRefresh:  c.lastRefresh,
		LastDuration: c.lastDuration,
	}
}

// SensorCount reports how many sensors the provider probed.
func (c *Collector) SensorCount() int {
	return c.index.Len()
}

// HardwareCount reports how many hardware nodes the provider probed,
// sub-hardware included.
func (c *Collector) HardwareCount() int {
	return len(hwtree.Nodes(c.provider.Hardware()))
}

// Snapshot copies the hardware tree with its current sensor values,
// taken atomically under the shared lock.
func (c *Collector) Snapshot() []agent.HardwareNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshotNodes(c.provider.Hardware())
}

func snapshotNodes(roots []*hwtree.Hardware) []agent.HardwareNode {
	if len(roots) == 0 {
		return nil
	}
	nodes := make([]agent.HardwareNode, 0, len(roots))
	for _, root := range roots {
		node := agent.HardwareNode{
			Class:       root.Class.String(),
			Name:        root.Name,
			SubHardware: snapshotNodes(root.SubHardware),
		}
		for _, sensor := range root.Sensors {
			value := agent.SensorValue{
				Type: sensor.Type.String(),
				Name: sensor.Name,
			}
			if sensor.Value != nil {
				reading := *sensor.Value
				value.Value = &reading
			}
			node.Sensors = append(node.Sensors, value)
		}
		nodes = append(nodes, node)
	}
	return nodes
}
