// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"os"
	"strconv"
	"strings"
)

// bytesPerGB converts byte counts to the gigabytes reported by Data
// sensors.
const bytesPerGB = 1 << 30

// readString reads a single-line sysfs file and returns its trimmed
// content. Returns "" on any error.
func readString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readFloat reads a numeric sysfs file. The second return is false on
// any read or parse error.
func readFloat(path string) (float64, bool) {
	value := readString(path)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// readUint reads an unsigned counter from a sysfs file. The second
// return is false on any read or parse error.
func readUint(path string) (uint64, bool) {
	value := readString(path)
	if value == "" {
		return 0, false
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// fileExists reports whether a sysfs attribute is present. Probes use
// it to decide which sensors a node gets.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// rateTracker converts a cumulative byte counter into a rate across
// refreshes.
type rateTracker struct {
	previous    uint64
	hasPrevious bool
}

// rate returns the per-second delta given the current counter value
// and the seconds since the previous refresh. The second return is
// false when no rate can be computed yet: first refresh, zero
// elapsed, or a counter that went backwards (device reset).
func (r *rateTracker) rate(current uint64, elapsed float64) (float64, bool) {
	previous, had := r.previous, r.hasPrevious
	r.previous, r.hasPrevious = current, true
	if !had || elapsed <= 0 || current < previous {
		return 0, false
	}
	return float64(current-previous) / elapsed, true
}

// reset discards the tracked counter so the next reading starts a new
// delta baseline.
func (r *rateTracker) reset() {
	r.hasPrevious = false
}
