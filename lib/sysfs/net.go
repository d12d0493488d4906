// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"os"
	"path/filepath"

	"github.com/hwbeat/hwbeat/lib/hwtree"
)

// probeNetwork discovers /sys/class/net interfaces. The loopback
// device is noise and is skipped.
func (p *Provider) probeNetwork() {
	base := filepath.Join(p.sysRoot, "class/net")
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.Name() == "lo" {
			continue
		}
		p.addInterface(filepath.Join(base, entry.Name()), entry.Name())
	}
}

func (p *Provider) addInterface(dir, name string) {
	receivePath := filepath.Join(dir, "statistics/rx_bytes")
	transmitPath := filepath.Join(dir, "statistics/tx_bytes")
	if !fileExists(receivePath) || !fileExists(transmitPath) {
		return
	}

	node := &hwtree.Hardware{Class: hwtree.ClassNetwork, Name: name}
	downloaded := node.AddSensor(hwtree.SensorData, "Data Downloaded")
	uploaded := node.AddSensor(hwtree.SensorData, "Data Uploaded")
	downloadSpeed := node.AddSensor(hwtree.SensorThroughput, "Download Speed")
	uploadSpeed := node.AddSensor(hwtree.SensorThroughput, "Upload Speed")

	// Link speed is only meaningful on interfaces that report it;
	// the attribute reads -1 while the link is down.
	var utilization *hwtree.Sensor
	speedPath := filepath.Join(dir, "speed")
	if fileExists(speedPath) {
		utilization = node.AddSensor(hwtree.SensorLoad, "Network Utilization")
	}

	p.roots = append(p.roots, node)

	var receiveTracker, transmitTracker rateTracker
	p.updates = append(p.updates, func(elapsed float64) {
		receiveBytes, receiveOK := readUint(receivePath)
		transmitBytes, transmitOK := readUint(transmitPath)
		if !receiveOK || !transmitOK {
			for _, sensor := range node.Sensors {
				sensor.ClearValue()
			}
			receiveTracker.reset()
			transmitTracker.reset()
			return
		}

		downloaded.SetValue(float64(receiveBytes) / bytesPerGB)
		uploaded.SetValue(float64(transmitBytes) / bytesPerGB)
		setRate(downloadSpeed, &receiveTracker, receiveBytes, elapsed)
		setRate(uploadSpeed, &transmitTracker, transmitBytes, elapsed)

		if utilization != nil {
			updateUtilization(utilization, speedPath, downloadSpeed, uploadSpeed)
		}
	})
}

// updateUtilization computes the busier direction's share of the link
// speed. The speed attribute reports megabits per second.
func updateUtilization(sensor *hwtree.Sensor, speedPath string, downloadSpeed, uploadSpeed *hwtree.Sensor) {
	megabits, ok := readFloat(speedPath)
	if !ok || megabits <= 0 || downloadSpeed.Value == nil || uploadSpeed.Value == nil {
		sensor.ClearValue()
		return
	}
	busiest := downloadSpeed.Reading()
	if uploadSpeed.Reading() > busiest {
		busiest = uploadSpeed.Reading()
	}
	sensor.SetValue(busiest * 8 / (megabits * 1e6) * 100)
}
