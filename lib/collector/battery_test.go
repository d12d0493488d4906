// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"testing"

	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
)

func fullBatteryTree() []*hwtree.Hardware {
	battery := &hwtree.Hardware{Class: hwtree.ClassBattery, Name: "BAT0"}
	addValue(battery, hwtree.SensorVoltage, "Voltage", 12.1)
	addValue(battery, hwtree.SensorVoltage, "Charge Level", 87)
	addValue(battery, hwtree.SensorVoltage, "Degradation Level", 5.5)
	addValue(battery, hwtree.SensorCurrent, "Current", 1.5)
	addValue(battery, hwtree.SensorEnergy, "Designed Capacity", 100)
	addValue(battery, hwtree.SensorEnergy, "Full Charged Capacity", 90)
	addValue(battery, hwtree.SensorEnergy, "Remaining Capacity", 60)
	addValue(battery, hwtree.SensorPower, "Discharge Rate", 18.2)
	addValue(battery, hwtree.SensorTimeSpan, "Remaining Time", 7200)
	return []*hwtree.Hardware{battery}
}

func TestBatterySingletons(t *testing.T) {
	provider := &stubProvider{roots: fullBatteryTree()}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := meter.Collect(collectTime)
	singletons := map[string]float64{
		"hardware.battery.charge":      87,
		"hardware.battery.degradation": 5.5,
		"hardware.battery.voltage":     12.1,
		"hardware.battery.current":     1.5,
		"hardware.battery.rate":        18.2,
		"hardware.battery.remaining":   7200,
	}
	for name, want := range singletons {
		matched := pointsFor(points, name)
		if len(matched) != 1 {
			t.Fatalf("%s: observations = %d, want 1", name, len(matched))
		}
		if matched[0].Value != want {
			t.Errorf("%s = %v, want %v", name, matched[0].Value, want)
		}
		if len(matched[0].Labels) != 0 {
			t.Errorf("%s carries labels %v, want none", name, matched[0].Labels)
		}
	}
}

// The plain voltage sensor sits before the percentage sensors that
// share its type, so the first-match rule must land on it.
func TestBatteryVoltageSelectsFirstSensor(t *testing.T) {
	provider := &stubProvider{roots: fullBatteryTree()}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := pointsFor(meter.Collect(collectTime), "hardware.battery.voltage")
	if len(points) != 1 || points[0].Value != 12.1 {
		t.Fatalf("voltage = %+v, want single observation of 12.1", points)
	}
}

func TestBatteryCapacityStages(t *testing.T) {
	provider := &stubProvider{roots: fullBatteryTree()}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := pointsFor(meter.Collect(collectTime), "hardware.battery.capacity")
	if len(points) != 3 {
		t.Fatalf("capacity observations = %d, want 3", len(points))
	}
	want := map[string]float64{"designed": 100, "full": 90, "remaining": 60}
	for _, point := range points {
		stage := point.Labels["type"]
		wantValue, ok := want[stage]
		if !ok {
			t.Fatalf("unexpected capacity stage %q", stage)
		}
		if point.Value != wantValue {
			t.Errorf("capacity[%s] = %v, want %v", stage, point.Value, wantValue)
		}
		delete(want, stage)
	}
	if len(want) != 0 {
		t.Fatalf("missing capacity stages: %v", want)
	}
}

func TestBatteryPartialCapacity(t *testing.T) {
	battery := &hwtree.Hardware{Class: hwtree.ClassBattery, Name: "BAT0"}
	addValue(battery, hwtree.SensorEnergy, "Remaining Capacity", 41)

	provider := &stubProvider{roots: []*hwtree.Hardware{battery}}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := pointsFor(meter.Collect(collectTime), "hardware.battery.capacity")
	if len(points) != 1 {
		t.Fatalf("capacity observations = %d, want 1", len(points))
	}
	if points[0].Labels["type"] != "remaining" || points[0].Value != 41 {
		t.Fatalf("capacity = %+v, want remaining=41", points[0])
	}
}

func TestBatteryWithoutSensorsRegistersNothing(t *testing.T) {
	battery := &hwtree.Hardware{Class: hwtree.ClassBattery, Name: "BAT0"}
	provider := &stubProvider{roots: []*hwtree.Hardware{battery}}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	for _, instrument := range meter.Instruments() {
		t.Errorf("unexpected instrument %q on a sensorless battery", instrument.Name)
	}
}

func TestBatteryKindsAreGauges(t *testing.T) {
	provider := &stubProvider{roots: fullBatteryTree()}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	for _, point := range meter.Collect(collectTime) {
		if point.Kind != telemetry.MetricKindGauge {
			t.Errorf("%s kind = %v, want gauge", point.Name, point.Kind)
		}
	}
}
