// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/hwbeat/hwbeat/lib/hwtree"
)

// skipBlockPrefixes lists pseudo and composite block devices that are
// not physical disks.
var skipBlockPrefixes = []string{"loop", "ram", "zram", "dm-", "md", "fd", "sr"}

func skippedBlockDevice(name string) bool {
	for _, prefix := range skipBlockPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// probeBlock discovers /sys/block disks.
func (p *Provider) probeBlock() {
	base := filepath.Join(p.sysRoot, "block")
	entries, err := os.ReadDir(base)
	if err != nil {
		return
	}
	mounts := readMounts(filepath.Join(p.procRoot, "mounts"))
	for _, entry := range entries {
		if skippedBlockDevice(entry.Name()) {
			continue
		}
		p.addDisk(base, entry.Name(), mounts)
	}
}

// mountEntry is one /proc/mounts line reduced to the block device
// name and its mountpoint.
type mountEntry struct {
	device     string // "nvme0n1p1", no /dev/ prefix
	mountpoint string
}

// readMounts returns the /dev/-backed mounts from /proc/mounts, first
// mount per device.
func readMounts(path string) []mountEntry {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	seen := make(map[string]bool)
	var mounts []mountEntry
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || !strings.HasPrefix(fields[0], "/dev/") {
			continue
		}
		device := strings.TrimPrefix(fields[0], "/dev/")
		if seen[device] {
			continue
		}
		seen[device] = true
		mounts = append(mounts, mountEntry{device: device, mountpoint: fields[1]})
	}
	return mounts
}

// diskMountpoints returns the mountpoints of filesystems backed by
// the disk: the whole device, or partitions, which sysfs lists as
// subdirectories of the disk directory.
func diskMountpoints(base, deviceName string, mounts []mountEntry) []string {
	var mountpoints []string
	for _, mount := range mounts {
		if mount.device == deviceName ||
			fileExists(filepath.Join(base, deviceName, mount.device)) {
			mountpoints = append(mountpoints, mount.mountpoint)
		}
	}
	return mountpoints
}

func (p *Provider) addDisk(base, deviceName string, mounts []mountEntry) {
	dir := filepath.Join(base, deviceName)
	statPath := filepath.Join(dir, "stat")
	if !fileExists(statPath) {
		return
	}

	node := &hwtree.Hardware{Class: hwtree.ClassStorage, Name: deviceName}

	dataRead := node.AddSensor(hwtree.SensorData, "Data Read")
	dataWritten := node.AddSensor(hwtree.SensorData, "Data Written")
	readRate := node.AddSensor(hwtree.SensorThroughput, "Read Rate")
	writeRate := node.AddSensor(hwtree.SensorThroughput, "Write Rate")

	var temperature *hwtree.Sensor
	temperaturePath := findDiskTemperature(dir)
	if temperaturePath != "" {
		temperature = node.AddSensor(hwtree.SensorTemperature, "Temperature")
	}

	// Health attributes appear when the NVMe driver exports them;
	// stock kernels mostly do not.
	health := []struct {
		file       string
		sensorType hwtree.SensorType
		name       string
		sensor     *hwtree.Sensor
	}{
		{file: "device/percentage_used", sensorType: hwtree.SensorLevel, name: "Percentage Used"},
		{file: "device/available_spare", sensorType: hwtree.SensorLevel, name: "Available Spare"},
		{file: "device/write_amplification", sensorType: hwtree.SensorFactor, name: "Write Amplification"},
	}
	for i := range health {
		if fileExists(filepath.Join(dir, health[i].file)) {
			health[i].sensor = node.AddSensor(health[i].sensorType, health[i].name)
		}
	}

	var usedSpace *hwtree.Sensor
	mountpoints := diskMountpoints(base, deviceName, mounts)
	if len(mountpoints) > 0 {
		usedSpace = node.AddSensor(hwtree.SensorLoad, "Used Space")
	}

	p.roots = append(p.roots, node)

	var readTracker, writeTracker rateTracker
	p.updates = append(p.updates, func(elapsed float64) {
		readSectors, writeSectors, ok := readDiskStat(statPath)
		if !ok {
			dataRead.ClearValue()
			dataWritten.ClearValue()
			readRate.ClearValue()
			writeRate.ClearValue()
			readTracker.reset()
			writeTracker.reset()
		} else {
			readBytes := readSectors * 512
			writeBytes := writeSectors * 512
			dataRead.SetValue(float64(readBytes) / bytesPerGB)
			dataWritten.SetValue(float64(writeBytes) / bytesPerGB)
			setRate(readRate, &readTracker, readBytes, elapsed)
			setRate(writeRate, &writeTracker, writeBytes, elapsed)
		}

		if temperature != nil {
			// Millidegrees, the hwmon convention.
			if value, ok := readFloat(temperaturePath); ok {
				temperature.SetValue(value / 1000)
			} else {
				temperature.ClearValue()
			}
		}

		for _, attribute := range health {
			if attribute.sensor == nil {
				continue
			}
			if value, ok := readFloat(filepath.Join(dir, attribute.file)); ok {
				attribute.sensor.SetValue(value)
			} else {
				attribute.sensor.ClearValue()
			}
		}

		if usedSpace != nil {
			updateUsedSpace(usedSpace, mountpoints)
		}
	})
}

// setRate writes a counter-delta rate into a throughput sensor,
// clearing it while no delta exists.
func setRate(sensor *hwtree.Sensor, tracker *rateTracker, current uint64, elapsed float64) {
	if rate, ok := tracker.rate(current, elapsed); ok {
		sensor.SetValue(rate)
	} else {
		sensor.ClearValue()
	}
}

// readDiskStat reads cumulative read and write sector counts from a
// block device stat file. Field layout per the kernel's
// Documentation/admin-guide/iostats.rst: sectors read is field 3,
// sectors written is field 7 (1-based).
func readDiskStat(path string) (readSectors, writeSectors uint64, ok bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, false
	}
	fields := strings.Fields(string(data))
	if len(fields) < 7 {
		return 0, 0, false
	}
	readSectors, errRead := strconv.ParseUint(fields[2], 10, 64)
	writeSectors, errWrite := strconv.ParseUint(fields[6], 10, 64)
	if errRead != nil || errWrite != nil {
		return 0, 0, false
	}
	return readSectors, writeSectors, true
}

// findDiskTemperature locates the disk's hwmon temp1_input. The SATA
// drivetemp driver nests a hwmon/ directory under the SCSI device;
// NVMe places hwmon* directly in the controller directory.
func findDiskTemperature(dir string) string {
	for _, pattern := range []string{"device/hwmon/hwmon*", "device/hwmon*"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			path := filepath.Join(match, "temp1_input")
			if fileExists(path) {
				return path
			}
		}
	}
	return ""
}

// updateUsedSpace aggregates filesystem usage across the disk's
// mountpoints into a percentage. Matches df arithmetic: root-reserved
// blocks count as used capacity.
func updateUsedSpace(sensor *hwtree.Sensor, mountpoints []string) {
	var used, total float64
	sampled := false
	for _, mountpoint := range mountpoints {
		var stat unix.Statfs_t
		if err := unix.Statfs(mountpoint, &stat); err != nil {
			continue
		}
		blockSize := float64(stat.Bsize)
		usedBlocks := float64(stat.Blocks - stat.Bfree)
		used += usedBlocks * blockSize
		total += (usedBlocks + float64(stat.Bavail)) * blockSize
		sampled = true
	}
	if !sampled || total <= 0 {
		sensor.ClearValue()
		return
	}
	sensor.SetValue(used / total * 100)
}
