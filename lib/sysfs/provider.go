// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/hwbeat/hwbeat/lib/clock"
	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/quirkdef"
)

// errClosed is returned by Refresh after Close.
var errClosed = errors.New("sysfs: provider is closed")

// Options configures a Provider.
type Options struct {
	// Quirks rewrites the discovered tree before indexing: renames,
	// hides, and per-refresh scale corrections.
	Quirks *quirkdef.Definition

	// Clock times throughput deltas. Nil means the real clock.
	Clock clock.Clock
}

// Provider implements hwtree.Provider over /proc and /sys.
type Provider struct {
	procRoot string
	sysRoot  string
	clock    clock.Clock

	roots   []*hwtree.Hardware
	updates []func(elapsed float64)
	scaled  []quirkdef.ScaledSensor

	lastRefresh time.Time
	closed      bool
}

// New probes /proc and /sys and returns a provider with the full
// hardware tree discovered.
func New(options Options) (*Provider, error) {
	return newFromRoots("/proc", "/sys", options)
}

// newFromRoots is the testable implementation of New. It accepts root
// paths for /proc and /sys so tests can point at synthetic
// filesystems.
func newFromRoots(procRoot, sysRoot string, options Options) (*Provider, error) {
	provider := &Provider{
		procRoot: procRoot,
		sysRoot:  sysRoot,
		clock:    options.Clock,
	}
	if provider.clock == nil {
		provider.clock = clock.Real()
	}

	provider.probeBatteries()
	provider.probeHwmon()
	provider.probeMemory()
	provider.probeBlock()
	provider.probeNetwork()

	if options.Quirks != nil {
		if issues := quirkdef.Validate(options.Quirks); len(issues) > 0 {
			return nil, fmt.Errorf("sysfs: invalid quirks: %s", strings.Join(issues, "; "))
		}
		provider.scaled = quirkdef.Apply(provider.roots, options.Quirks)
	}

	return provider, nil
}

// Hardware returns the root hardware nodes in discovery order.
func (p *Provider) Hardware() []*hwtree.Hardware {
	return p.roots
}

// BootID returns the kernel boot identifier, or "" when unreadable.
// Consumers use it to tell a counter reset caused by reboot from one
// caused by agent restart.
func (p *Provider) BootID() string {
	return readString(filepath.Join(p.procRoot, "sys/kernel/random/boot_id"))
}

// Refresh re-reads every sensor source and writes values in place.
// Individual attributes that have gone away clear their sensors; an
// error is returned only when the provider itself is unusable.
func (p *Provider) Refresh() error {
	if p.closed {
		return errClosed
	}

	now := p.clock.Now()
	var elapsed float64
	if !p.lastRefresh.IsZero() {
		elapsed = now.Sub(p.lastRefresh).Seconds()
	}
	p.lastRefresh = now

	for _, update := range p.updates {
		update(elapsed)
	}
	for _, binding := range p.scaled {
		if binding.Sensor.Value != nil {
			binding.Sensor.SetValue(binding.Sensor.Reading() * binding.Factor)
		}
	}
	return nil
}

// Close marks the provider unusable. Safe to call repeatedly.
func (p *Provider) Close() error {
	p.closed = true
	return nil
}
