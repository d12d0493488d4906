// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"strings"
	"testing"
	"time"
)

func TestParseTimeFlagEmpty(t *testing.T) {
	nanoseconds, err := parseTimeFlag("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nanoseconds != 0 {
		t.Errorf("expected 0 for empty value, got %d", nanoseconds)
	}
}

func TestParseTimeFlagDuration(t *testing.T) {
	before := time.Now().Add(-time.Hour).UnixNano()
	nanoseconds, err := parseTimeFlag("1h")
	after := time.Now().Add(-time.Hour).UnixNano()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nanoseconds < before || nanoseconds > after {
		t.Errorf("1h should resolve to about an hour ago, got %d", nanoseconds)
	}
}

func TestParseTimeFlagDays(t *testing.T) {
	before := time.Now().Add(-7 * 24 * time.Hour).UnixNano()
	nanoseconds, err := parseTimeFlag("7d")
	after := time.Now().Add(-7 * 24 * time.Hour).UnixNano()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nanoseconds < before || nanoseconds > after {
		t.Errorf("7d should resolve to about a week ago, got %d", nanoseconds)
	}
}

func TestParseTimeFlagRFC3339(t *testing.T) {
	nanoseconds, err := parseTimeFlag("2026-03-01T12:00:00Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixNano()
	if nanoseconds != want {
		t.Errorf("expected %d, got %d", want, nanoseconds)
	}
}

func TestParseTimeFlagDateOnly(t *testing.T) {
	nanoseconds, err := parseTimeFlag("2026-03-01")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).UnixNano()
	if nanoseconds != want {
		t.Errorf("expected midnight UTC %d, got %d", want, nanoseconds)
	}
}

func TestParseTimeFlagInvalid(t *testing.T) {
	_, err := parseTimeFlag("last tuesday")
	if err == nil {
		t.Fatal("expected error for unparseable value")
	}
	if !strings.Contains(err.Error(), "invalid time") {
		t.Errorf("expected invalid time error, got: %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		nanoseconds int64
		want        string
	}{
		{500, "500ns"},
		{1500, "1.5µs"},
		{2_500_000, "2.5ms"},
		{1_340_000_000, "1.34s"},
		{90_000_000_000, "1m 30s"},
		{120_000_000_000, "2m"},
		{int64(2*time.Hour + 30*time.Minute), "2h 30m"},
		{int64(2 * time.Hour), "2h"},
		{-1500, "-1.5µs"},
	}
	for _, test := range tests {
		if got := formatDuration(test.nanoseconds); got != test.want {
			t.Errorf("formatDuration(%d) = %q, want %q", test.nanoseconds, got, test.want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	if got := formatTimestamp(0); got != "-" {
		t.Errorf("expected placeholder for zero timestamp, got %q", got)
	}

	// Non-zero renders in local time with second precision.
	got := formatTimestamp(time.Date(2026, 8, 20, 14, 30, 0, 0, time.Local).UnixNano())
	if got != "2026-08-20T14:30:00" {
		t.Errorf("expected local timestamp, got %q", got)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		uptime time.Duration
		want   string
	}{
		{0, "0m"},
		{-time.Minute, "0m"},
		{5 * time.Minute, "5m"},
		{3*time.Hour + 25*time.Minute, "3h 25m"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, test := range tests {
		if got := formatUptime(test.uptime); got != test.want {
			t.Errorf("formatUptime(%s) = %q, want %q", test.uptime, got, test.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 << 20, "5.0 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, test := range tests {
		if got := formatBytes(test.bytes); got != test.want {
			t.Errorf("formatBytes(%d) = %q, want %q", test.bytes, got, test.want)
		}
	}
}

func TestFormatLabels(t *testing.T) {
	if got := formatLabels(nil); got != "" {
		t.Errorf("expected empty string for nil labels, got %q", got)
	}

	labels := map[string]string{
		"sensor":   "Temperature",
		"hardware": "Samsung SSD 990",
		"class":    "storage",
	}
	want := "class=storage, hardware=Samsung SSD 990, sensor=Temperature"
	if got := formatLabels(labels); got != want {
		t.Errorf("expected sorted keys %q, got %q", want, got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected short string unchanged, got %q", got)
	}
	if got := truncate("a longer string here", 10); got != "a longe..." {
		t.Errorf("expected truncation with ellipsis, got %q", got)
	}
	if got := truncate("abcdef", 3); got != "abc" {
		t.Errorf("expected raw cut at tiny width, got %q", got)
	}
}
