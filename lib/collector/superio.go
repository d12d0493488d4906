// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import "github.com/hwbeat/hwbeat/lib/hwtree"

// setupSuperIO registers the motherboard's super I/O instruments.
// Each metric covers every matching sensor on every super I/O chip,
// labeled by sensor name, since boards expose arbitrary counts of
// fan headers, thermistors, and voltage rails.
func setupSuperIO(c *Collector) {
	metrics := []struct {
		name       string
		desc       string
		sensorType hwtree.SensorType
	}{
		{"hardware.io.control", "Fan duty cycle in percent.", hwtree.SensorControl},
		{"hardware.io.fan", "Fan speed in revolutions per minute.", hwtree.SensorFan},
		{"hardware.io.temperature", "Board temperature in degrees Celsius.", hwtree.SensorTemperature},
		{"hardware.io.voltage", "Board voltage rail in volts.", hwtree.SensorVoltage},
	}
	for _, m := range metrics {
		sensors := c.index.Sensors(hwtree.ClassSuperIO, m.sensorType)
		if len(sensors) == 0 {
			continue
		}
		c.meter.Gauge(m.name, m.desc, c.observeBySensorName(sensors))
	}
}
