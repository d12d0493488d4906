// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import "github.com/hwbeat/hwbeat/lib/hwtree"

// setupNetwork registers network instruments across all interfaces,
// labeled by interface name. Download and upload sensors are paired
// positionally per interface.
func setupNetwork(c *Collector) {
	downloaded := c.index.Named(hwtree.ClassNetwork, hwtree.SensorData, "Data Downloaded")
	uploaded := c.index.Named(hwtree.ClassNetwork, hwtree.SensorData, "Data Uploaded")
	if pairCount(downloaded, uploaded) > 0 {
		c.meter.Gauge("hardware.network.bytes",
			"Data transferred since boot in gigabytes.",
			c.observePairs(downloaded, uploaded, "type", "download", "upload"))
	}

	downRates := c.index.Named(hwtree.ClassNetwork, hwtree.SensorThroughput, "Download Speed")
	upRates := c.index.Named(hwtree.ClassNetwork, hwtree.SensorThroughput, "Upload Speed")
	if pairCount(downRates, upRates) > 0 {
		c.meter.Gauge("hardware.network.speed",
			"Interface throughput in bytes per second.",
			c.observePairs(downRates, upRates, "type", "download", "upload"))
	}

	if sensors := c.index.Sensors(hwtree.ClassNetwork, hwtree.SensorLoad); len(sensors) > 0 {
		c.meter.Gauge("hardware.network.load",
			"Interface utilization as a percentage of link speed.",
			c.observeByHardwareName(sensors))
	}
}
