// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/hwbeat/hwbeat/lib/hwtree"
)

// claimedChipNames lists hwmon chips that belong to other hardware
// classes and must not surface as Super I/O chips: disk temperature
// drivers are folded into storage nodes, CPU and GPU thermal drivers
// belong to the (not yet implemented) cpu and gpu domains, and
// power_supply registers a shadow hwmon per battery.
var claimedChipNames = map[string]bool{
	"drivetemp":   true,
	"nvme":        true,
	"coretemp":    true,
	"k10temp":     true,
	"zenpower":    true,
	"cpu_thermal": true,
	"amdgpu":      true,
	"nouveau":     true,
}

func chipClaimed(name string) bool {
	return claimedChipNames[name] || strings.HasPrefix(name, "BAT")
}

// hwmonAttribute describes one hwmon attribute family (fans, temps,
// voltages, PWM outputs) and how its raw values convert to sensor
// units.
type hwmonAttribute struct {
	sensorType  hwtree.SensorType
	file        string // attribute file, formatted with the index
	label       string // optional label file, "" when the family has none
	defaultName string // display name when no label file exists
	convert     func(float64) float64
}

var hwmonAttributes = []hwmonAttribute{
	{
		sensorType:  hwtree.SensorFan,
		file:        "fan%d_input",
		label:       "fan%d_label",
		defaultName: "Fan #%d",
		convert:     func(v float64) float64 { return v },
	},
	{
		sensorType:  hwtree.SensorTemperature,
		file:        "temp%d_input",
		label:       "temp%d_label",
		defaultName: "Temperature #%d",
		convert:     func(v float64) float64 { return v / 1000 }, // millidegrees
	},
	{
		sensorType:  hwtree.SensorVoltage,
		file:        "in%d_input",
		label:       "in%d_label",
		defaultName: "Voltage #%d",
		convert:     func(v float64) float64 { return v / 1000 }, // millivolts
	},
	{
		sensorType:  hwtree.SensorControl,
		file:        "pwm%d",
		label:       "",
		defaultName: "Fan Control #%d",
		convert:     func(v float64) float64 { return v * 100 / 255 },
	},
}

// probeHwmon discovers /sys/class/hwmon chips and groups the
// unclaimed ones as Super I/O children of a single motherboard node.
func (p *Provider) probeHwmon() {
	base := filepath.Join(p.sysRoot, "class/hwmon")
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}

	board := &hwtree.Hardware{Class: hwtree.ClassMotherboard, Name: p.boardName()}
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "hwmon") {
			continue
		}
		dir := filepath.Join(base, entry.Name())
		chipName := readString(filepath.Join(dir, "name"))
		if chipName == "" || chipClaimed(chipName) {
			continue
		}
		if chip := p.addChip(dir, chipName); chip != nil {
			board.SubHardware = append(board.SubHardware, chip)
		}
	}
	if len(board.SubHardware) > 0 {
		p.roots = append(p.roots, board)
	}
}

// boardName reads the DMI board identity, falling back to a generic
// name on headless or virtual machines with no DMI.
func (p *Provider) boardName() string {
	name := readString(filepath.Join(p.sysRoot, "class/dmi/id/board_name"))
	if name == "" {
		return "Motherboard"
	}
	if vendor := readString(filepath.Join(p.sysRoot, "class/dmi/id/board_vendor")); vendor != "" {
		return vendor + " " + name
	}
	return name
}

// addChip builds one Super I/O node from a hwmon directory, with a
// sensor per present attribute in ascending index order.
func (p *Provider) addChip(dir, chipName string) *hwtree.Hardware {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	names := make(map[string]bool, len(entries))
	for _, entry := range entries {
		names[entry.Name()] = true
	}

	chip := &hwtree.Hardware{Class: hwtree.ClassSuperIO, Name: chipName}
	for _, attribute := range hwmonAttributes {
		for _, index := range attributeIndices(names, attribute.file) {
			p.addChipSensor(chip, dir, attribute, index)
		}
	}
	if len(chip.Sensors) == 0 {
		return nil
	}
	return chip
}

// attributeIndices returns the sorted indices N for which the
// formatted attribute file (e.g. "fan%d_input") exists in names.
func attributeIndices(names map[string]bool, format string) []int {
	prefix, suffix, _ := strings.Cut(format, "%d")
	var indices []int
	for name := range names {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		middle := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		index, err := strconv.Atoi(middle)
		if err != nil || index < 0 {
			continue
		}
		indices = append(indices, index)
	}
	sort.Ints(indices)
	return indices
}

func (p *Provider) addChipSensor(chip *hwtree.Hardware, dir string, attribute hwmonAttribute, index int) {
	path := filepath.Join(dir, fmt.Sprintf(attribute.file, index))

	name := ""
	if attribute.label != "" {
		name = readString(filepath.Join(dir, fmt.Sprintf(attribute.label, index)))
	}
	if name == "" {
		name = fmt.Sprintf(attribute.defaultName, index)
	}

	sensor := chip.AddSensor(attribute.sensorType, name)
	convert := attribute.convert
	p.updates = append(p.updates, func(elapsed float64) {
		// Faulted chips fail reads at runtime even though the
		// attribute file exists.
		if value, ok := readFloat(path); ok {
			sensor.SetValue(convert(value))
		} else {
			sensor.ClearValue()
		}
	})
}
