// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// callTimeout bounds every socket call made by a one-shot command. The
// agent answers from in-memory state (history queries hit local SQLite),
// so anything slower than this means a wedged agent.
const callTimeout = 30 * time.Second

// callContext derives a bounded context for a single agent call.
func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, callTimeout)
}

// parseTimeFlag parses a point in time from a CLI flag value.
// Accepts three formats:
//   - Go duration strings: "1h", "30m", "2h30m" — resolved relative to now
//   - Day suffixes: "7d", "30d" — shorthand for multiples of 24h
//   - Timestamps: RFC3339 ("2026-03-01T12:00:00Z") or date-only ("2026-03-01")
//
// Returns Unix nanoseconds. Duration-based values are subtracted from
// the current time (i.e., "1h" means "1 hour ago").
func parseTimeFlag(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}

	// Try day suffix first (not handled by time.ParseDuration).
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err == nil && days > 0 {
			return time.Now().Add(-time.Duration(days) * 24 * time.Hour).UnixNano(), nil
		}
	}

	// Try Go duration.
	duration, err := time.ParseDuration(value)
	if err == nil {
		return time.Now().Add(-duration).UnixNano(), nil
	}

	// Try RFC3339 timestamp.
	timestamp, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return timestamp.UnixNano(), nil
	}

	// Try date-only (YYYY-MM-DD), interpreted as midnight UTC.
	timestamp, err = time.Parse("2006-01-02", value)
	if err == nil {
		return timestamp.UnixNano(), nil
	}

	return 0, fmt.Errorf("invalid time %q: expected duration (1h, 7d), RFC3339 timestamp, or date (2006-01-02)", value)
}

// formatDuration formats nanoseconds as a human-readable duration.
// Uses the largest appropriate unit: ns, µs, ms, s, or compound
// minutes+seconds / hours+minutes for longer durations.
func formatDuration(nanoseconds int64) string {
	if nanoseconds < 0 {
		return fmt.Sprintf("-%s", formatDuration(-nanoseconds))
	}
	duration := time.Duration(nanoseconds)
	switch {
	case duration < time.Microsecond:
		return fmt.Sprintf("%dns", nanoseconds)
	case duration < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(nanoseconds)/float64(time.Microsecond))
	case duration < time.Second:
		return fmt.Sprintf("%.1fms", float64(nanoseconds)/float64(time.Millisecond))
	case duration < time.Minute:
		return fmt.Sprintf("%.2fs", float64(nanoseconds)/float64(time.Second))
	case duration < time.Hour:
		minutes := int(duration / time.Minute)
		seconds := int((duration % time.Minute) / time.Second)
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		hours := int(duration / time.Hour)
		minutes := int((duration % time.Hour) / time.Minute)
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}

// formatTimestamp formats Unix nanoseconds as a local-time string.
// Uses RFC3339 with second precision for absolute display.
func formatTimestamp(nanoseconds int64) string {
	if nanoseconds == 0 {
		return "-"
	}
	return time.Unix(0, nanoseconds).Local().Format("2006-01-02T15:04:05")
}

// formatUptime formats a process uptime. Agents run for weeks, so the
// largest unit is days rather than hours.
func formatUptime(uptime time.Duration) string {
	if uptime < 0 {
		uptime = 0
	}
	days := int(uptime / (24 * time.Hour))
	hours := int((uptime % (24 * time.Hour)) / time.Hour)
	minutes := int((uptime % time.Hour) / time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(bytes int64) string {
	switch {
	case bytes >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(1<<30))
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatLabels formats a label map as a compact "key=value, ..."
// string for tabular display. Keys are sorted so output is stable.
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for key := range labels {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+labels[key])
	}
	return strings.Join(parts, ", ")
}

// truncate shortens a string to maxLength, appending "..." if truncated.
func truncate(value string, maxLength int) string {
	if len(value) <= maxLength {
		return value
	}
	if maxLength <= 3 {
		return value[:maxLength]
	}
	return value[:maxLength-3] + "..."
}
