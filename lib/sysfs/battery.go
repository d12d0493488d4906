// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hwbeat/hwbeat/lib/hwtree"
)

// probeBatteries discovers /sys/class/power_supply/BAT* supplies.
func (p *Provider) probeBatteries() {
	base := filepath.Join(p.sysRoot, "class/power_supply")
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "BAT") {
			continue
		}
		p.addBattery(filepath.Join(base, entry.Name()), entry.Name())
	}
}

// batterySource reads one power_supply directory. Supplies report
// either energy_* (µWh) or charge_* (µAh) attributes; charge values
// are converted using the design voltage, the same convention upower
// uses.
type batterySource struct {
	dir string
}

func (b batterySource) attribute(name string) string {
	return filepath.Join(b.dir, name)
}

// energy returns the µWh value of energy_<field>, falling back to
// charge_<field> × voltage_min_design on charge-reporting supplies.
func (b batterySource) energy(field string) (float64, bool) {
	if value, ok := readFloat(b.attribute("energy_" + field)); ok {
		return value, true
	}
	charge, ok := readFloat(b.attribute("charge_" + field))
	if !ok {
		return 0, false
	}
	voltage, ok := readFloat(b.attribute("voltage_min_design"))
	if !ok {
		return 0, false
	}
	// µAh × µV / 1e6 = µWh.
	return charge * voltage / 1e6, true
}

func (b batterySource) hasEnergy(field string) bool {
	return fileExists(b.attribute("energy_"+field)) ||
		(fileExists(b.attribute("charge_"+field)) && fileExists(b.attribute("voltage_min_design")))
}

// power returns the µW drain/charge rate from power_now, falling back
// to voltage_now × current_now.
func (b batterySource) power() (float64, bool) {
	if value, ok := readFloat(b.attribute("power_now")); ok {
		return value, true
	}
	voltage, ok := readFloat(b.attribute("voltage_now"))
	if !ok {
		return 0, false
	}
	current, ok := readFloat(b.attribute("current_now"))
	if !ok {
		return 0, false
	}
	// µV × µA / 1e6 = µW.
	return voltage * current / 1e6, true
}

func (b batterySource) hasPower() bool {
	return fileExists(b.attribute("power_now")) ||
		(fileExists(b.attribute("voltage_now")) && fileExists(b.attribute("current_now")))
}

func (p *Provider) addBattery(dir, fallbackName string) {
	source := batterySource{dir: dir}

	name := readString(source.attribute("model_name"))
	if name == "" {
		name = fallbackName
	}
	node := &hwtree.Hardware{Class: hwtree.ClassBattery, Name: name}

	// The plain voltage sensor comes first: battery metrics select
	// "the first voltage sensor" for the voltage reading, while the
	// charge and degradation percentages ride on the same sensor type
	// selected by name.
	var charge, degradation, voltage *hwtree.Sensor
	if fileExists(source.attribute("voltage_now")) {
		voltage = node.AddSensor(hwtree.SensorVoltage, "Voltage")
	}
	if fileExists(source.attribute("capacity")) || source.hasEnergy("now") {
		charge = node.AddSensor(hwtree.SensorVoltage, "Charge Level")
	}
	if source.hasEnergy("full") && source.hasEnergy("full_design") {
		degradation = node.AddSensor(hwtree.SensorVoltage, "Degradation Level")
	}

	var current *hwtree.Sensor
	if fileExists(source.attribute("current_now")) {
		current = node.AddSensor(hwtree.SensorCurrent, "Current")
	}

	var designed, full, remaining *hwtree.Sensor
	if source.hasEnergy("full_design") {
		designed = node.AddSensor(hwtree.SensorEnergy, "Designed Capacity")
	}
	if source.hasEnergy("full") {
		full = node.AddSensor(hwtree.SensorEnergy, "Full Charged Capacity")
	}
	if source.hasEnergy("now") {
		remaining = node.AddSensor(hwtree.SensorEnergy, "Remaining Capacity")
	}

	var rate *hwtree.Sensor
	if source.hasPower() {
		rate = node.AddSensor(hwtree.SensorPower, "Charge/Discharge Rate")
	}
	var timeLeft *hwtree.Sensor
	if source.hasEnergy("now") && source.hasPower() {
		timeLeft = node.AddSensor(hwtree.SensorTimeSpan, "Remaining Time")
	}

	if len(node.Sensors) == 0 {
		return
	}
	p.roots = append(p.roots, node)

	setOrClear := func(sensor *hwtree.Sensor, value float64, ok bool) {
		if sensor == nil {
			return
		}
		if ok {
			sensor.SetValue(value)
		} else {
			sensor.ClearValue()
		}
	}

	p.updates = append(p.updates, func(elapsed float64) {
		if charge != nil {
			if percent, ok := readFloat(source.attribute("capacity")); ok {
				charge.SetValue(percent)
			} else if now, okNow := source.energy("now"); okNow {
				if fullEnergy, okFull := source.energy("full"); okFull && fullEnergy > 0 {
					charge.SetValue(now / fullEnergy * 100)
				} else {
					charge.ClearValue()
				}
			} else {
				charge.ClearValue()
			}
		}

		if degradation != nil {
			fullEnergy, okFull := source.energy("full")
			design, okDesign := source.energy("full_design")
			if okFull && okDesign && design > 0 {
				loss := 100 - fullEnergy/design*100
				if loss < 0 {
					loss = 0
				}
				degradation.SetValue(loss)
			} else {
				degradation.ClearValue()
			}
		}

		if voltage != nil {
			microvolts, ok := readFloat(source.attribute("voltage_now"))
			setOrClear(voltage, microvolts/1e6, ok)
		}
		if current != nil {
			microamps, ok := readFloat(source.attribute("current_now"))
			setOrClear(current, microamps/1e6, ok)
		}

		// Capacities are reported in mWh.
		if designed != nil {
			microwattHours, ok := source.energy("full_design")
			setOrClear(designed, microwattHours/1000, ok)
		}
		if full != nil {
			microwattHours, ok := source.energy("full")
			setOrClear(full, microwattHours/1000, ok)
		}
		if remaining != nil {
			microwattHours, ok := source.energy("now")
			setOrClear(remaining, microwattHours/1000, ok)
		}

		drain, drainOK := source.power()
		if rate != nil {
			setOrClear(rate, drain/1e6, drainOK)
		}

		if timeLeft != nil {
			status := readString(source.attribute("status"))
			now, okNow := source.energy("now")
			if status == "Discharging" && drainOK && drain > 0 && okNow {
				timeLeft.SetValue(now / drain * 3600)
			} else {
				timeLeft.ClearValue()
			}
		}
	})
}
