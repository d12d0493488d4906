// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package hwtree

// Index is a flat, ordered view over a hardware tree, computed once
// at startup. Collectors select sensors by hardware class and sensor
// type (optionally by name) instead of walking the tree themselves.
//
// Order matters: sensors appear in tree index order (sub-hardware
// before own sensors, roots in provider order), so positionally
// paired queries — storage read/write throughput, for example — line
// up the way the provider enumerated the devices.
type Index struct {
	sensors []*Sensor
}

// NewIndex flattens roots into an index. The index holds pointers
// into the live tree: sensor values observed through it reflect the
// most recent refresh.
func NewIndex(roots []*Hardware) *Index {
	return &Index{sensors: Flatten(roots)}
}

// All returns every indexed sensor in index order. The returned slice
// is shared; callers must not modify it.
func (ix *Index) All() []*Sensor {
	return ix.sensors
}

// Len returns the number of indexed sensors.
func (ix *Index) Len() int {
	return len(ix.sensors)
}

// Sensors returns, in index order, every sensor of the given type
// owned by hardware of the given class.
func (ix *Index) Sensors(class Class, sensorType SensorType) []*Sensor {
	var out []*Sensor
	for _, s := range ix.sensors {
		if s.Hardware.Class == class && s.Type == sensorType {
			out = append(out, s)
		}
	}
	return out
}

// Named returns, in index order, every sensor of the given type owned
// by hardware of the given class whose name matches exactly.
func (ix *Index) Named(class Class, sensorType SensorType, name string) []*Sensor {
	var out []*Sensor
	for _, s := range ix.sensors {
		if s.Hardware.Class == class && s.Type == sensorType && s.Name == name {
			out = append(out, s)
		}
	}
	return out
}

// First returns the first sensor of the given class and type, or nil
// when none exists.
func (ix *Index) First(class Class, sensorType SensorType) *Sensor {
	for _, s := range ix.sensors {
		if s.Hardware.Class == class && s.Type == sensorType {
			return s
		}
	}
	return nil
}

// FirstNamed returns the first sensor of the given class, type, and
// exact name, or nil when none exists.
func (ix *Index) FirstNamed(class Class, sensorType SensorType, name string) *Sensor {
	for _, s := range ix.sensors {
		if s.Hardware.Class == class && s.Type == sensorType && s.Name == name {
			return s
		}
	}
	return nil
}
