// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

func float64Pointer(value float64) *float64 {
	return &value
}

func testTree() []agent.HardwareNode {
	return []agent.HardwareNode{
		{
			Class: "battery",
			Name:  "BAT0",
			Sensors: []agent.SensorValue{
				{Type: "level", Name: "Charge Level", Value: float64Pointer(87.5)},
			},
		},
		{
			Class: "storage",
			Name:  "Samsung SSD 990",
			Sensors: []agent.SensorValue{
				{Type: "temperature", Name: "Temperature", Value: float64Pointer(41.0)},
				{Type: "throughput", Name: "Read Rate", Value: nil},
			},
			SubHardware: []agent.HardwareNode{
				{
					Class: "storage",
					Name:  "NVMe Controller",
					Sensors: []agent.SensorValue{
						{Type: "data", Name: "Data Written", Value: float64Pointer(812.5)},
					},
				},
			},
		},
	}
}

func TestFilterByClass(t *testing.T) {
	nodes := filterByClass(testTree(), "battery")
	if len(nodes) != 1 {
		t.Fatalf("expected 1 battery node, got %d", len(nodes))
	}
	if nodes[0].Name != "BAT0" {
		t.Errorf("expected BAT0, got %q", nodes[0].Name)
	}

	if nodes := filterByClass(testTree(), "gpu"); len(nodes) != 0 {
		t.Errorf("expected no gpu nodes, got %d", len(nodes))
	}
}

func TestSensorColumnWidths(t *testing.T) {
	typeWidth, nameWidth := sensorColumnWidths(testTree(), 0)

	// Deepest type is "data" at depth 1 (indent 4), but the widest is
	// "temperature" at depth 0 (indent 2): 2+11 = 13.
	if typeWidth != 13 {
		t.Errorf("expected type width 13, got %d", typeWidth)
	}
	// "Data Written" and "Charge Level" tie at 12.
	if nameWidth != 12 {
		t.Errorf("expected name width 12, got %d", nameWidth)
	}
}

func TestRenderHardware(t *testing.T) {
	var buffer bytes.Buffer
	renderHardware(&buffer, testTree())
	output := buffer.String()

	for _, want := range []string{
		"[battery]  BAT0",
		"Charge Level",
		"87.5 %",
		"[storage]  Samsung SSD 990",
		"41.0 °C",
		// Rate sensor with no reading yet.
		"-",
		// Nested sub-hardware is indented under its parent.
		"  [storage]  NVMe Controller",
		"812.5 GB",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("hardware output missing %q:\n%s", want, output)
		}
	}

	// Top-level devices are separated by a blank line.
	if !strings.Contains(output, "\n\n") {
		t.Errorf("expected blank line between devices:\n%s", output)
	}
}

func TestFormatSensorValue(t *testing.T) {
	if got := formatSensorValue("throughput", nil); got != "-" {
		t.Errorf("expected placeholder for nil value, got %q", got)
	}
	if got := formatSensorValue("level", float64Pointer(87.5)); got != "87.5 %" {
		t.Errorf("expected unit formatting, got %q", got)
	}
	if got := formatSensorValue("quux", float64Pointer(3.5)); got != "3.5" {
		t.Errorf("expected bare number for unknown type, got %q", got)
	}
}
