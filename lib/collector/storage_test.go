// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package collector

import (
	"testing"

	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
)

func storageTree() []*hwtree.Hardware {
	nvme := &hwtree.Hardware{Class: hwtree.ClassStorage, Name: "nvme0n1"}
	addValue(nvme, hwtree.SensorData, "Data Read", 1)
	addValue(nvme, hwtree.SensorData, "Data Written", 2)
	addValue(nvme, hwtree.SensorThroughput, "Read Rate", 100)
	addValue(nvme, hwtree.SensorThroughput, "Write Rate", 200)
	addValue(nvme, hwtree.SensorTemperature, "Temperature", 38)
	addValue(nvme, hwtree.SensorLevel, "Percentage Used", 3)
	addValue(nvme, hwtree.SensorLevel, "Available Spare", 100)
	addValue(nvme, hwtree.SensorFactor, "Write Amplification", 1.4)
	addValue(nvme, hwtree.SensorLoad, "Used Space", 61)

	sata := &hwtree.Hardware{Class: hwtree.ClassStorage, Name: "sda"}
	addValue(sata, hwtree.SensorData, "Data Read", 3)
	addValue(sata, hwtree.SensorData, "Data Written", 4)
	addValue(sata, hwtree.SensorThroughput, "Read Rate", 300)
	addValue(sata, hwtree.SensorThroughput, "Write Rate", 400)
	addValue(sata, hwtree.SensorTemperature, "Temperature", 31)
	addValue(sata, hwtree.SensorLevel, "Remaining Life", 88)

	return []*hwtree.Hardware{nvme, sata}
}

// pairKey identifies one observation of a paired metric.
type pairKey struct {
	name string
	kind string
}

func pairValues(t *testing.T, points []telemetry.MetricPoint) map[pairKey]float64 {
	t.Helper()
	values := make(map[pairKey]float64, len(points))
	for _, point := range points {
		key := pairKey{point.Labels["name"], point.Labels["type"]}
		if _, dup := values[key]; dup {
			t.Fatalf("duplicate observation for %+v", key)
		}
		values[key] = point.Value
	}
	return values
}

// Two drives with read and write sensors yield four observations,
// each read paired with its own drive's write.
func TestStoragePairsPerDevice(t *testing.T) {
	provider := &stubProvider{roots: storageTree()}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := meter.Collect(collectTime)

	bytes := pointsFor(points, "hardware.storage.bytes")
	if len(bytes) != 4 {
		t.Fatalf("bytes observations = %d, want 4", len(bytes))
	}
	want := map[pairKey]float64{
		{"nvme0n1", "read"}:  1,
		{"nvme0n1", "write"}: 2,
		{"sda", "read"}:      3,
		{"sda", "write"}:     4,
	}
	got := pairValues(t, bytes)
	for key, wantValue := range want {
		if got[key] != wantValue {
			t.Errorf("bytes[%+v] = %v, want %v", key, got[key], wantValue)
		}
	}

	speed := pairValues(t, pointsFor(points, "hardware.storage.speed"))
	if len(speed) != 4 {
		t.Fatalf("speed observations = %d, want 4", len(speed))
	}
	if speed[pairKey{"sda", "write"}] != 400 {
		t.Errorf("speed[sda write] = %v, want 400", speed[pairKey{"sda", "write"}])
	}
}

// Wear-spent drives are inverted to life-left; life-left drives pass
// through. Both shapes land in the same metric.
func TestStorageLifeInversion(t *testing.T) {
	provider := &stubProvider{roots: storageTree()}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := pointsFor(meter.Collect(collectTime), "hardware.storage.life")
	if len(points) != 2 {
		t.Fatalf("life observations = %d, want 2", len(points))
	}
	want := map[string]float64{"nvme0n1": 97, "sda": 88}
	for _, point := range points {
		name := point.Labels["name"]
		if point.Value != want[name] {
			t.Errorf("life[%s] = %v, want %v", name, point.Value, want[name])
		}
		delete(want, name)
	}
	if len(want) != 0 {
		t.Fatalf("missing life observations: %v", want)
	}
}

func TestStoragePerDeviceSingles(t *testing.T) {
	provider := &stubProvider{roots: storageTree()}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := meter.Collect(collectTime)

	if used := pointsFor(points, "hardware.storage.used"); len(used) != 1 ||
		used[0].Labels["name"] != "nvme0n1" || used[0].Value != 61 {
		t.Fatalf("used = %+v, want nvme0n1=61", used)
	}

	temps := pointsFor(points, "hardware.storage.temperature")
	if len(temps) != 2 {
		t.Fatalf("temperature observations = %d, want 2", len(temps))
	}

	if spare := pointsFor(points, "hardware.storage.spare"); len(spare) != 1 ||
		spare[0].Value != 100 {
		t.Fatalf("spare = %+v, want one observation of 100", spare)
	}
	if amp := pointsFor(points, "hardware.storage.amplification"); len(amp) != 1 ||
		amp[0].Value != 1.4 {
		t.Fatalf("amplification = %+v, want one observation of 1.4", amp)
	}
}

// When one drive lacks a write sensor the lists zip to the shorter
// length rather than mispairing across drives.
func TestStorageUnevenPairsZipShorter(t *testing.T) {
	complete := &hwtree.Hardware{Class: hwtree.ClassStorage, Name: "nvme0n1"}
	addValue(complete, hwtree.SensorData, "Data Read", 1)
	addValue(complete, hwtree.SensorData, "Data Written", 2)
	readOnly := &hwtree.Hardware{Class: hwtree.ClassStorage, Name: "sr0"}
	addValue(readOnly, hwtree.SensorData, "Data Read", 9)

	provider := &stubProvider{roots: []*hwtree.Hardware{complete, readOnly}}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	points := pointsFor(meter.Collect(collectTime), "hardware.storage.bytes")
	if len(points) != 2 {
		t.Fatalf("bytes observations = %d, want 2", len(points))
	}
	for _, point := range points {
		if point.Labels["name"] != "nvme0n1" {
			t.Errorf("observation escaped the paired prefix: %+v", point)
		}
	}
}

func TestStorageWithoutHealthSensors(t *testing.T) {
	disk := &hwtree.Hardware{Class: hwtree.ClassStorage, Name: "sdb"}
	addValue(disk, hwtree.SensorData, "Data Read", 1)
	addValue(disk, hwtree.SensorData, "Data Written", 1)

	provider := &stubProvider{roots: []*hwtree.Hardware{disk}}
	_, meter, _ := newTestCollector(t, provider, AllDomains())

	for _, name := range []string{
		"hardware.storage.life",
		"hardware.storage.spare",
		"hardware.storage.amplification",
		"hardware.storage.used",
		"hardware.storage.temperature",
	} {
		if meter.Has(name) {
			t.Errorf("%s registered with zero matching sensors", name)
		}
	}
}
