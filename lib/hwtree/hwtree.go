// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package hwtree

// Class identifies the kind of device a hardware node represents.
type Class uint8

const (
	ClassBattery Class = iota
	ClassController
	ClassCPU
	ClassGPU
	ClassMemory
	ClassMotherboard
	ClassNetwork
	ClassStorage
	ClassSuperIO
)

var classNames = [...]string{
	ClassBattery:     "battery",
	ClassController:  "controller",
	ClassCPU:         "cpu",
	ClassGPU:         "gpu",
	ClassMemory:      "memory",
	ClassMotherboard: "motherboard",
	ClassNetwork:     "network",
	ClassStorage:     "storage",
	ClassSuperIO:     "superio",
}

// String returns the lowercase class name used in config keys, logs,
// and socket snapshots.
func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "unknown"
}

// ParseClass returns the class with the given lowercase name.
func ParseClass(name string) (Class, bool) {
	for i, n := range classNames {
		if n == name {
			return Class(i), true
		}
	}
	return 0, false
}

// SensorType identifies what a sensor measures and in which unit.
type SensorType uint8

const (
	// SensorVoltage measures volts.
	SensorVoltage SensorType = iota
	// SensorCurrent measures amperes.
	SensorCurrent
	// SensorPower measures watts.
	SensorPower
	// SensorEnergy measures milliwatt-hours.
	SensorEnergy
	// SensorData measures gigabytes.
	SensorData
	// SensorLoad measures percent.
	SensorLoad
	// SensorFan measures revolutions per minute.
	SensorFan
	// SensorControl measures percent (fan or pump duty).
	SensorControl
	// SensorTemperature measures degrees Celsius.
	SensorTemperature
	// SensorThroughput measures bytes per second.
	SensorThroughput
	// SensorLevel measures percent.
	SensorLevel
	// SensorFactor measures a dimensionless ratio.
	SensorFactor
	// SensorTimeSpan measures seconds.
	SensorTimeSpan
)

var sensorTypeNames = [...]string{
	SensorVoltage:     "voltage",
	SensorCurrent:     "current",
	SensorPower:       "power",
	SensorEnergy:      "energy",
	SensorData:        "data",
	SensorLoad:        "load",
	SensorFan:         "fan",
	SensorControl:     "control",
	SensorTemperature: "temperature",
	SensorThroughput:  "throughput",
	SensorLevel:       "level",
	SensorFactor:      "factor",
	SensorTimeSpan:    "timespan",
}

// String returns the lowercase sensor type name.
func (t SensorType) String() string {
	if int(t) < len(sensorTypeNames) {
		return sensorTypeNames[t]
	}
	return "unknown"
}

// ParseSensorType returns the sensor type with the given lowercase
// name.
func ParseSensorType(name string) (SensorType, bool) {
	for i, n := range sensorTypeNames {
		if n == name {
			return SensorType(i), true
		}
	}
	return 0, false
}

// Hardware is one node of the hardware tree: a device or sub-device
// with its own sensors and optional nested sub-hardware. Nodes are
// created and owned by the Provider for the life of the process;
// consumers only read them.
type Hardware struct {
	Class Class
	Name  string

	// SubHardware lists nested nodes in provider order.
	SubHardware []*Hardware

	// Sensors lists the node's own sensors in provider order.
	Sensors []*Sensor
}

// AddSensor appends a sensor with no value to the node and returns it.
// The sensor's owner back-pointer is set to the node.
func (h *Hardware) AddSensor(sensorType SensorType, name string) *Sensor {
	sensor := &Sensor{
		Type:     sensorType,
		Name:     name,
		Hardware: h,
	}
	h.Sensors = append(h.Sensors, sensor)
	return sensor
}

// Sensor is a single numeric measurement source. Its value is mutated
// in place by the provider's Refresh; everything else is fixed at
// discovery.
type Sensor struct {
	Type SensorType

	// Name is the display name used as a semantic sub-key in metric
	// selection ("Charge Level", "Data Read", "Used Space").
	Name string

	// Hardware is the owning node.
	Hardware *Hardware

	// Value is the current reading. Nil means no value yet: rate
	// sensors need two refreshes, and some sources go away at
	// runtime.
	Value *float64
}

// Reading returns the current value, or 0 when the sensor has none.
func (s *Sensor) Reading() float64 {
	if s.Value == nil {
		return 0
	}
	return *s.Value
}

// SetValue updates the sensor's value in place.
func (s *Sensor) SetValue(v float64) {
	if s.Value == nil {
		s.Value = new(float64)
	}
	*s.Value = v
}

// ClearValue marks the sensor as having no current value.
func (s *Sensor) ClearValue() {
	s.Value = nil
}

// Provider is the contract a sensor backend implements. The tree it
// exposes is fixed after the first Hardware call; Refresh mutates
// sensor values in place.
//
// Providers are not safe for concurrent use by themselves — hwbeat
// serializes Refresh against all value reads with one lock.
type Provider interface {
	// Hardware returns the root hardware nodes in the provider's
	// enumeration order.
	Hardware() []*Hardware

	// Refresh re-reads every sensor value in place. An error means
	// the whole refresh pass failed; individual missing sources just
	// clear their sensors.
	Refresh() error

	// Close releases the provider's resources. Implementations must
	// tolerate repeated calls.
	Close() error
}

// Flatten returns every sensor reachable from roots in index order:
// for each node, the sensors of its sub-hardware (recursively, in
// order) come before the node's own sensors.
func Flatten(roots []*Hardware) []*Sensor {
	var sensors []*Sensor
	for _, root := range roots {
		sensors = appendSensors(sensors, root)
	}
	return sensors
}

func appendSensors(sensors []*Sensor, node *Hardware) []*Sensor {
	for _, sub := range node.SubHardware {
		sensors = appendSensors(sensors, sub)
	}
	return append(sensors, node.Sensors...)
}

// Nodes returns every hardware node reachable from roots, parents
// before their sub-hardware, in provider order.
func Nodes(roots []*Hardware) []*Hardware {
	var nodes []*Hardware
	var walk func(*Hardware)
	walk = func(node *Hardware) {
		nodes = append(nodes, node)
		for _, sub := range node.SubHardware {
			walk(sub)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return nodes
}
