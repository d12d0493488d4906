// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

// setupCPU is wired into the domain table but registers nothing yet.
//
// TODO: settle the CPU selection rules before registering anything:
// per-core clocks and loads need a name label scheme that survives
// hybrid core layouts, and package temperature differs between
// coretemp (per-die "Package id N") and k10temp ("Tctl"/"Tdie"). The
// sysfs provider deliberately leaves those hwmon chips unclaimed
// until then.
func setupCPU(c *Collector) {}
