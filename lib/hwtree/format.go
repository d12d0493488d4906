// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package hwtree

import (
	"fmt"
	"strconv"
)

// FormatValue renders a sensor reading with the unit implied by the
// sensor type, at a precision that suits the quantity. Display only;
// exported metric values are never rounded.
func (t SensorType) FormatValue(value float64) string {
	switch t {
	case SensorVoltage:
		return fmt.Sprintf("%.3f V", value)
	case SensorCurrent:
		return fmt.Sprintf("%.3f A", value)
	case SensorPower:
		return fmt.Sprintf("%.2f W", value)
	case SensorEnergy:
		return fmt.Sprintf("%.0f mWh", value)
	case SensorData:
		return fmt.Sprintf("%.1f GB", value)
	case SensorLoad, SensorControl, SensorLevel:
		return fmt.Sprintf("%.1f %%", value)
	case SensorFan:
		return fmt.Sprintf("%.0f RPM", value)
	case SensorTemperature:
		return fmt.Sprintf("%.1f °C", value)
	case SensorThroughput:
		return formatRate(value)
	case SensorTimeSpan:
		return formatSeconds(value)
	case SensorFactor:
		return fmt.Sprintf("%.3f", value)
	default:
		return strconv.FormatFloat(value, 'g', -1, 64)
	}
}

// formatRate renders bytes per second with a binary-scaled unit.
func formatRate(bytesPerSecond float64) string {
	switch {
	case bytesPerSecond >= 1<<30:
		return fmt.Sprintf("%.1f GB/s", bytesPerSecond/float64(1<<30))
	case bytesPerSecond >= 1<<20:
		return fmt.Sprintf("%.1f MB/s", bytesPerSecond/float64(1<<20))
	case bytesPerSecond >= 1<<10:
		return fmt.Sprintf("%.1f KB/s", bytesPerSecond/float64(1<<10))
	default:
		return fmt.Sprintf("%.0f B/s", bytesPerSecond)
	}
}

// formatSeconds renders a timespan reading (seconds) as hours and
// minutes, the granularity that matters for battery estimates.
func formatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMinutes := int(seconds) / 60
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
