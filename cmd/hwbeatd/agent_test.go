// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hwbeat/hwbeat/lib/clock"
	"github.com/hwbeat/hwbeat/lib/codec"
	"github.com/hwbeat/hwbeat/lib/collector"
	"github.com/hwbeat/hwbeat/lib/healthfile"
	"github.com/hwbeat/hwbeat/lib/metric"
	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
)

// newFlushAgent builds an agent over the battery test tree, without a
// socket server, for exercising the flush and loop plumbing directly.
func newFlushAgent(t *testing.T, buffer *Buffer, spool *Spool, store *Store) (*Agent, *clock.FakeClock) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fakeClock := clock.Fake(actionTestEpoch)

	meter := metric.NewMeter("hwbeat-test")
	col, err := collector.New(collector.Options{
		Provider:     &fixedProvider{roots: testHardwareTree()},
		Meter:        meter,
		PollInterval: time.Second,
		Domains:      collector.Domains{Battery: true},
		Clock:        fakeClock,
		Log:          logger,
	})
	if err != nil {
		t.Fatalf("collector.New: %v", err)
	}
	t.Cleanup(func() { col.Close() })

	return &Agent{
		collector:   col,
		meter:       meter,
		accumulator: NewAccumulator("edge-07", "boot-1"),
		buffer:      buffer,
		spool:       spool,
		store:       store,
		clock:       fakeClock,
		machine:     "edge-07",
		startedAt:   actionTestEpoch,
		logger:      logger,
	}, fakeClock
}

func decodeBatch(t *testing.T, data []byte) *telemetry.MetricBatch {
	t.Helper()
	var batch telemetry.MetricBatch
	if err := codec.Unmarshal(data, &batch); err != nil {
		t.Fatalf("decoding batch: %v", err)
	}
	return &batch
}

func TestCollectAndFlushFansOut(t *testing.T) {
	buffer := NewBuffer(4)
	store, _ := openTestStore(t)
	flushAgent, _ := newFlushAgent(t, buffer, nil, store)

	flushAgent.collectAndFlush(context.Background())

	// The batch went to the ship buffer...
	if buffer.Len() != 1 {
		t.Fatalf("expected 1 buffered batch, got %d", buffer.Len())
	}
	batch := decodeBatch(t, buffer.Peek())
	if batch.Machine != "edge-07" || batch.BootID != "boot-1" {
		t.Errorf("batch identity = %s/%s", batch.Machine, batch.BootID)
	}
	if batch.SequenceNumber != 0 {
		t.Errorf("SequenceNumber = %d, want 0", batch.SequenceNumber)
	}
	var charge *telemetry.MetricPoint
	for i := range batch.Points {
		if batch.Points[i].Name == "hardware.battery.charge" {
			charge = &batch.Points[i]
		}
	}
	if charge == nil {
		t.Fatalf("no battery charge point in batch of %d points", len(batch.Points))
	}
	if charge.Value != 87 {
		t.Errorf("charge = %v, want 87", charge.Value)
	}

	// ...and to the history store.
	points, err := store.QueryPoints(context.Background(), PointFilter{Name: "hardware.battery.charge"})
	if err != nil {
		t.Fatalf("QueryPoints: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 stored point, got %d", len(points))
	}

	// A second flush with no new observations between collections
	// still collects fresh points (gauges re-read the cached sensor).
	flushAgent.collectAndFlush(context.Background())
	if buffer.Len() != 2 {
		t.Fatalf("expected 2 buffered batches, got %d", buffer.Len())
	}
	buffer.Pop()
	second := decodeBatch(t, buffer.Peek())
	if second.SequenceNumber != 1 {
		t.Errorf("second SequenceNumber = %d, want 1", second.SequenceNumber)
	}
}

func TestCollectAndFlushNoInstrumentsIsNoOp(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fakeClock := clock.Fake(actionTestEpoch)

	meter := metric.NewMeter("hwbeat-test")
	col, err := collector.New(collector.Options{
		Provider:     &fixedProvider{},
		Meter:        meter,
		PollInterval: time.Second,
		Domains:      collector.Domains{Battery: true},
		Clock:        fakeClock,
		Log:          logger,
	})
	if err != nil {
		t.Fatalf("collector.New: %v", err)
	}
	t.Cleanup(func() { col.Close() })

	buffer := NewBuffer(4)
	emptyAgent := &Agent{
		collector:   col,
		meter:       meter,
		accumulator: NewAccumulator("edge-07", "boot-1"),
		buffer:      buffer,
		clock:       fakeClock,
		machine:     "edge-07",
		startedAt:   actionTestEpoch,
		logger:      logger,
	}

	emptyAgent.collectAndFlush(context.Background())

	if buffer.Len() != 0 {
		t.Fatalf("expected empty buffer, got %d entries", buffer.Len())
	}
	if emptyAgent.accumulator.SequenceNumber() != 0 {
		t.Fatal("sequence number should not advance on empty collections")
	}
}

func TestPushToBufferSpoolsEvicted(t *testing.T) {
	buffer := NewBuffer(1)
	spool, _ := openTestSpool(t, 0)
	flushAgent, _ := newFlushAgent(t, buffer, spool, nil)

	first := &telemetry.MetricBatch{
		Machine:        "edge-07",
		SequenceNumber: 0,
		Points:         []telemetry.MetricPoint{testPoint("battery.capacity", 90)},
	}
	second := &telemetry.MetricBatch{
		Machine:        "edge-07",
		SequenceNumber: 1,
		Points:         []telemetry.MetricPoint{testPoint("battery.capacity", 60)},
	}

	flushAgent.pushToBuffer(first)
	flushAgent.pushToBuffer(second)

	if buffer.Len() != 1 {
		t.Fatalf("expected 1 buffered batch, got %d", buffer.Len())
	}
	if spool.Count() != 1 {
		t.Fatalf("expected 1 spooled batch, got %d", spool.Count())
	}
	if flushAgent.dropped.Load() != 0 {
		t.Fatalf("spooled batches must not count as dropped, got %d", flushAgent.dropped.Load())
	}

	// The evicted batch (the older one) is the spooled one.
	_, data, err := spool.Oldest()
	if err != nil {
		t.Fatalf("Oldest: %v", err)
	}
	if batch := decodeBatch(t, data); batch.SequenceNumber != 0 {
		t.Errorf("spooled SequenceNumber = %d, want 0 (the evicted oldest)", batch.SequenceNumber)
	}

	// The buffered batch is the newer one.
	if batch := decodeBatch(t, buffer.Peek()); batch.SequenceNumber != 1 {
		t.Errorf("buffered SequenceNumber = %d, want 1", batch.SequenceNumber)
	}
}

func TestPushToBufferDropsWithoutSpool(t *testing.T) {
	buffer := NewBuffer(1)
	flushAgent, _ := newFlushAgent(t, buffer, nil, nil)

	for sequence := uint64(0); sequence < 3; sequence++ {
		flushAgent.pushToBuffer(&telemetry.MetricBatch{
			Machine:        "edge-07",
			SequenceNumber: sequence,
			Points:         []telemetry.MetricPoint{testPoint("memory.used", 1)},
		})
	}

	if buffer.Len() != 1 {
		t.Fatalf("expected 1 buffered batch, got %d", buffer.Len())
	}
	if flushAgent.dropped.Load() != 2 {
		t.Fatalf("expected 2 dropped batches, got %d", flushAgent.dropped.Load())
	}
}

func TestRunFlushLoopFlushesOnTick(t *testing.T) {
	buffer := NewBuffer(4)
	flushAgent, fakeClock := newFlushAgent(t, buffer, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		flushAgent.runFlushLoop(ctx, 30*time.Second)
		close(done)
	}()

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(30 * time.Second)

	deadline := time.Now().Add(5 * time.Second)
	for buffer.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("flush never happened after the export tick")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	batch := decodeBatch(t, buffer.Peek())
	if len(batch.Points) == 0 {
		t.Fatal("flushed batch has no points")
	}
}

func TestRunRetentionLoopDropsOnStartup(t *testing.T) {
	store, _ := openTestStore(t)
	flushAgent, _ := newFlushAgent(t, nil, nil, store)

	// Seed an expired partition (10 days before the store clock).
	oldTime := storeTestClockEpoch.Add(-10 * 24 * time.Hour).UnixNano()
	batch := &telemetry.MetricBatch{
		Machine: "edge-07",
		Points: []telemetry.MetricPoint{
			{Name: "battery.capacity", Kind: telemetry.MetricKindGauge, Timestamp: oldTime, Value: 99},
			{Name: "battery.capacity", Kind: telemetry.MetricKindGauge, Timestamp: storeTestClockEpoch.UnixNano(), Value: 87},
		},
	}
	if err := store.WriteBatch(context.Background(), batch); err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		flushAgent.runRetentionLoop(ctx, 7*24*time.Hour)
		close(done)
	}()

	// The loop runs one retention pass before its first tick.
	deadline := time.Now().Add(5 * time.Second)
	for len(store.activePartitions()) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("startup retention never dropped the old partition: %v", store.activePartitions())
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done
}

// refreshNotifyProvider signals after every Refresh so tests can wait
// for the collector's immediate refresh in Run.
type refreshNotifyProvider struct {
	fixedProvider
	refreshed chan struct{}
}

func (p *refreshNotifyProvider) Refresh() error {
	p.refreshed <- struct{}{}
	return nil
}

func TestRunHealthLoopWritesAfterRefresh(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fakeClock := clock.Fake(actionTestEpoch)

	provider := &refreshNotifyProvider{
		fixedProvider: fixedProvider{roots: testHardwareTree()},
		refreshed:     make(chan struct{}, 1),
	}
	meter := metric.NewMeter("hwbeat-test")
	col, err := collector.New(collector.Options{
		Provider:     provider,
		Meter:        meter,
		PollInterval: time.Second,
		Domains:      collector.Domains{Battery: true},
		Clock:        fakeClock,
		Log:          logger,
	})
	if err != nil {
		t.Fatalf("collector.New: %v", err)
	}
	t.Cleanup(func() { col.Close() })

	healthAgent := &Agent{
		collector: col,
		meter:     meter,
		clock:     fakeClock,
		machine:   "edge-07",
		startedAt: actionTestEpoch,
		logger:    logger,
	}

	// Run refreshes once immediately; stop it right after so the
	// refresh count stays at exactly 1.
	runCtx, stopRun := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		col.Run(runCtx)
		close(runDone)
	}()
	<-provider.refreshed
	stopRun()
	<-runDone

	path := filepath.Join(t.TempDir(), "health.json")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		healthAgent.runHealthLoop(ctx, path, time.Second)
		close(done)
	}()

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Second)

	deadline := time.Now().Add(5 * time.Second)
	var state healthfile.State
	for {
		state, err = healthfile.Read(path)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("health file never appeared after a completed refresh")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	<-done

	if state.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", state.PID, os.Getpid())
	}
	if state.Machine != "edge-07" {
		t.Errorf("Machine = %q, want edge-07", state.Machine)
	}
	if state.RefreshCount != 1 {
		t.Errorf("RefreshCount = %d, want 1", state.RefreshCount)
	}
	if state.SensorCount != 1 {
		t.Errorf("SensorCount = %d, want 1", state.SensorCount)
	}
	if !state.StartedAt.Equal(actionTestEpoch) {
		t.Errorf("StartedAt = %v, want %v", state.StartedAt, actionTestEpoch)
	}
}
