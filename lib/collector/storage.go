// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/metric"
)

// setupStorage registers storage instruments. Every metric here spans
// all drives, labeled by drive name; the byte and throughput metrics
// additionally pair each drive's read and write sensors positionally.
func setupStorage(c *Collector) {
	if sensors := c.index.Named(hwtree.ClassStorage, hwtree.SensorLoad, "Used Space"); len(sensors) > 0 {
		c.meter.Gauge("hardware.storage.used",
			"Filesystem space in use as a percentage of the drive.",
			c.observeByHardwareName(sensors))
	}

	reads := c.index.Named(hwtree.ClassStorage, hwtree.SensorData, "Data Read")
	writes := c.index.Named(hwtree.ClassStorage, hwtree.SensorData, "Data Written")
	if pairCount(reads, writes) > 0 {
		c.meter.Gauge("hardware.storage.bytes",
			"Data read and written since boot in gigabytes.",
			c.observePairs(reads, writes, "type", "read", "write"))
	}

	readRates := c.index.Named(hwtree.ClassStorage, hwtree.SensorThroughput, "Read Rate")
	writeRates := c.index.Named(hwtree.ClassStorage, hwtree.SensorThroughput, "Write Rate")
	if pairCount(readRates, writeRates) > 0 {
		c.meter.Gauge("hardware.storage.speed",
			"Drive read and write throughput in bytes per second.",
			c.observePairs(readRates, writeRates, "type", "read", "write"))
	}

	if sensors := c.index.Sensors(hwtree.ClassStorage, hwtree.SensorTemperature); len(sensors) > 0 {
		c.meter.Gauge("hardware.storage.temperature",
			"Drive temperature in degrees Celsius.",
			c.observeByHardwareName(sensors))
	}

	setupStorageLife(c)

	if sensors := c.index.Named(hwtree.ClassStorage, hwtree.SensorFactor, "Write Amplification"); len(sensors) > 0 {
		c.meter.Gauge("hardware.storage.amplification",
			"SSD write amplification factor.",
			c.observeByHardwareName(sensors))
	}
	if sensors := c.index.Named(hwtree.ClassStorage, hwtree.SensorLevel, "Available Spare"); len(sensors) > 0 {
		c.meter.Gauge("hardware.storage.spare",
			"NVMe spare capacity remaining in percent.",
			c.observeByHardwareName(sensors))
	}
}

// setupStorageLife registers the drive life metric. Drives report
// endurance two ways: NVMe exposes wear spent ("Percentage Used",
// inverted here so the metric always means life left) and SATA SSDs
// expose life remaining directly.
func setupStorageLife(c *Collector) {
	spent := c.index.Named(hwtree.ClassStorage, hwtree.SensorLevel, "Percentage Used")
	left := c.index.Named(hwtree.ClassStorage, hwtree.SensorLevel, "Remaining Life")
	if len(spent)+len(left) == 0 {
		return
	}
	c.meter.Gauge("hardware.storage.life",
		"Estimated drive endurance remaining in percent.",
		func() []metric.Observation {
			c.mu.Lock()
			defer c.mu.Unlock()
			observations := make([]metric.Observation, 0, len(spent)+len(left))
			for _, sensor := range spent {
				observations = append(observations, metric.Observation{
					Value:  100 - sensor.Reading(),
					Labels: map[string]string{"name": sensor.Hardware.Name},
				})
			}
			for _, sensor := range left {
				observations = append(observations, metric.Observation{
					Value:  sensor.Reading(),
					Labels: map[string]string{"name": sensor.Hardware.Name},
				})
			}
			return observations
		})
}
