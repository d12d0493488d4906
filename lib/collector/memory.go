// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import "github.com/hwbeat/hwbeat/lib/hwtree"

// setupMemory registers memory instruments. Each metric pairs a
// physical sensor with its virtual (physical plus swap) counterpart,
// distinguished by a type label.
func setupMemory(c *Collector) {
	metrics := []struct {
		name       string
		desc       string
		sensorType hwtree.SensorType
		physical   string
		virtual    string
	}{
		{"hardware.memory.used", "Memory in use in gigabytes.",
			hwtree.SensorData, "Memory Used", "Virtual Memory Used"},
		{"hardware.memory.available", "Memory available in gigabytes.",
			hwtree.SensorData, "Memory Available", "Virtual Memory Available"},
		{"hardware.memory.load", "Memory in use as a percentage of the total.",
			hwtree.SensorLoad, "Memory", "Virtual Memory"},
	}
	for _, m := range metrics {
		variants := presentVariants([]variant{
			{c.index.FirstNamed(hwtree.ClassMemory, m.sensorType, m.physical), "physical"},
			{c.index.FirstNamed(hwtree.ClassMemory, m.sensorType, m.virtual), "virtual"},
		})
		if len(variants) == 0 {
			continue
		}
		c.meter.Gauge(m.name, m.desc, c.observeVariants("type", variants))
	}
}
