// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hwbeat/hwbeat/lib/healthfile"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

func TestRenderStatus(t *testing.T) {
	now := time.Now()
	status := agent.Status{
		Version:          "1.2.3",
		Machine:          "workbench",
		StartedAt:        now.Add(-50 * time.Hour).UnixNano(),
		PollInterval:     1000,
		RefreshCount:     42,
		LastRefreshNanos: 12_000_000,
		InstrumentCount:  17,
		HardwareCount:    3,
		SensorCount:      21,
		ShippedBatches:   400,
		DroppedBatches:   2,
		SpooledBatches:   1,
		History: &agent.HistoryStats{
			PartitionCount:    3,
			OldestPartition:   "20260820",
			NewestPartition:   "20260822",
			PointCount:        123456,
			DatabaseSizeBytes: 3 << 20,
		},
	}

	var buffer bytes.Buffer
	renderStatus(&buffer, status, now)
	output := buffer.String()

	// Non-terminal writers get plain text, so the assertions see the
	// rendered values directly.
	for _, want := range []string{
		"workbench",
		"1.2.3",
		"2d 2h",
		"1.00s",
		"42 (last took 12.0ms)",
		"3 nodes, 21 sensors",
		"Export",
		"Shipped",
		"400",
		"History",
		"3 (20260820 - 20260822)",
		"123456",
		"3.0 MB",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("status output missing %q:\n%s", want, output)
		}
	}
}

func TestRenderStatusWithoutHistory(t *testing.T) {
	var buffer bytes.Buffer
	renderStatus(&buffer, agent.Status{Machine: "workbench"}, time.Now())

	if strings.Contains(buffer.String(), "History") {
		t.Errorf("expected no history section when history is disabled:\n%s", buffer.String())
	}
}

func TestRunHealthCheckHealthy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwbeatd.health")
	state := healthfile.State{
		PID:          1234,
		Machine:      "workbench",
		StartedAt:    time.Now().Add(-time.Hour),
		UpdatedAt:    time.Now(),
		RefreshCount: 360,
		SensorCount:  21,
	}
	if err := healthfile.Write(path, state); err != nil {
		t.Fatalf("writing health file: %v", err)
	}

	params := statusParams{HealthFile: path, MaxAge: time.Minute}
	if err := runHealthCheck(params); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}
}

func TestRunHealthCheckStale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hwbeatd.health")
	state := healthfile.State{
		PID:       1234,
		Machine:   "workbench",
		UpdatedAt: time.Now().Add(-10 * time.Minute),
	}
	if err := healthfile.Write(path, state); err != nil {
		t.Fatalf("writing health file: %v", err)
	}

	params := statusParams{HealthFile: path, MaxAge: time.Minute}
	err := runHealthCheck(params)
	if err == nil {
		t.Fatal("expected error for stale health file")
	}
	if !strings.Contains(err.Error(), "not healthy") {
		t.Errorf("expected not-healthy error, got: %v", err)
	}
}

func TestRunHealthCheckMissing(t *testing.T) {
	params := statusParams{
		HealthFile: filepath.Join(t.TempDir(), "missing.health"),
		MaxAge:     time.Minute,
	}
	if err := runHealthCheck(params); err == nil {
		t.Fatal("expected error for missing health file")
	}
}
