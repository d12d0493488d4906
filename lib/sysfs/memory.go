// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hwbeat/hwbeat/lib/hwtree"
)

// probeMemory builds the memory node from /proc/meminfo. Virtual
// memory is the physical + swap total, the closest Linux analog to a
// commit charge.
func (p *Provider) probeMemory() {
	path := filepath.Join(p.procRoot, "meminfo")
	values, ok := readMeminfo(path)
	if !ok || values["MemTotal"] == 0 {
		return
	}

	node := &hwtree.Hardware{Class: hwtree.ClassMemory, Name: "Memory"}
	used := node.AddSensor(hwtree.SensorData, "Memory Used")
	available := node.AddSensor(hwtree.SensorData, "Memory Available")
	virtualUsed := node.AddSensor(hwtree.SensorData, "Virtual Memory Used")
	virtualAvailable := node.AddSensor(hwtree.SensorData, "Virtual Memory Available")
	load := node.AddSensor(hwtree.SensorLoad, "Memory")
	virtualLoad := node.AddSensor(hwtree.SensorLoad, "Virtual Memory")
	p.roots = append(p.roots, node)

	// meminfo reports kB; Data sensors report GB.
	const kbPerGB = 1 << 20

	p.updates = append(p.updates, func(elapsed float64) {
		values, ok := readMeminfo(path)
		total := values["MemTotal"]
		if !ok || total == 0 {
			for _, sensor := range node.Sensors {
				sensor.ClearValue()
			}
			return
		}
		availableKB := values["MemAvailable"]
		usedKB := total - availableKB

		used.SetValue(usedKB / kbPerGB)
		available.SetValue(availableKB / kbPerGB)
		load.SetValue(usedKB / total * 100)

		virtualTotal := total + values["SwapTotal"]
		virtualAvailableKB := availableKB + values["SwapFree"]
		virtualUsedKB := virtualTotal - virtualAvailableKB

		virtualUsed.SetValue(virtualUsedKB / kbPerGB)
		virtualAvailable.SetValue(virtualAvailableKB / kbPerGB)
		virtualLoad.SetValue(virtualUsedKB / virtualTotal * 100)
	})
}

// readMeminfo parses /proc/meminfo lines ("MemTotal:  32657544 kB")
// into a map of kB values.
func readMeminfo(path string) (map[string]float64, bool) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false
	}
	defer file.Close()

	values := make(map[string]float64)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, rest, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		value, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}
		values[key] = value
	}
	return values, scanner.Err() == nil
}
