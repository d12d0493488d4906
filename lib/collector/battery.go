// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import "github.com/hwbeat/hwbeat/lib/hwtree"

// setupBattery registers battery instruments. Battery metrics are
// unlabeled singletons except capacity, which reports its three
// stages under a type label; on a machine with several batteries the
// first matching sensor wins.
func setupBattery(c *Collector) {
	if sensor := c.index.FirstNamed(hwtree.ClassBattery, hwtree.SensorVoltage, "Charge Level"); sensor != nil {
		c.meter.Gauge("hardware.battery.charge",
			"Battery charge as a percentage of its full capacity.",
			c.observeSensor(sensor))
	}
	if sensor := c.index.FirstNamed(hwtree.ClassBattery, hwtree.SensorVoltage, "Degradation Level"); sensor != nil {
		c.meter.Gauge("hardware.battery.degradation",
			"Permanent battery capacity loss in percent.",
			c.observeSensor(sensor))
	}
	if sensor := c.index.First(hwtree.ClassBattery, hwtree.SensorVoltage); sensor != nil {
		c.meter.Gauge("hardware.battery.voltage",
			"Battery terminal voltage in volts.",
			c.observeSensor(sensor))
	}
	if sensor := c.index.First(hwtree.ClassBattery, hwtree.SensorCurrent); sensor != nil {
		c.meter.Gauge("hardware.battery.current",
			"Battery charge or discharge current in amperes.",
			c.observeSensor(sensor))
	}

	capacities := presentVariants([]variant{
		{c.index.FirstNamed(hwtree.ClassBattery, hwtree.SensorEnergy, "Designed Capacity"), "designed"},
		{c.index.FirstNamed(hwtree.ClassBattery, hwtree.SensorEnergy, "Full Charged Capacity"), "full"},
		{c.index.FirstNamed(hwtree.ClassBattery, hwtree.SensorEnergy, "Remaining Capacity"), "remaining"},
	})
	if len(capacities) > 0 {
		c.meter.Gauge("hardware.battery.capacity",
			"Battery capacity in milliwatt-hours, by lifecycle stage.",
			c.observeVariants("type", capacities))
	}

	if sensor := c.index.First(hwtree.ClassBattery, hwtree.SensorPower); sensor != nil {
		c.meter.Gauge("hardware.battery.rate",
			"Battery charge or discharge rate in watts.",
			c.observeSensor(sensor))
	}
	if sensor := c.index.First(hwtree.ClassBattery, hwtree.SensorTimeSpan); sensor != nil {
		c.meter.Gauge("hardware.battery.remaining",
			"Estimated seconds until the battery is empty.",
			c.observeSensor(sensor))
	}
}
