// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hwbeat/hwbeat/lib/clock"
	"github.com/hwbeat/hwbeat/lib/codec"
	"github.com/hwbeat/hwbeat/lib/collector"
	"github.com/hwbeat/hwbeat/lib/config"
	"github.com/hwbeat/hwbeat/lib/healthfile"
	"github.com/hwbeat/hwbeat/lib/metric"
	"github.com/hwbeat/hwbeat/lib/quirkdef"
	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
	"github.com/hwbeat/hwbeat/lib/service"
	"github.com/hwbeat/hwbeat/lib/sysfs"
	"github.com/hwbeat/hwbeat/lib/version"
)

// retentionCheckInterval is how often the history retention pass runs.
// Partitions are whole days, so anything finer buys nothing.
const retentionCheckInterval = time.Hour

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "",
		"path to the hwbeat.yaml config file (overrides HWBEAT_CONFIG)")
	socketPath := flag.String("socket", "",
		"control socket path (overrides socket_path from the config)")
	showVersion := flag.Bool("version", false,
		"print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hwbeatd %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Validate already rejected unknown level names.
	level, _ := cfg.Log.SlogLevel()
	logger := service.NewLogger(level)

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var quirks *quirkdef.Definition
	if cfg.QuirksFile != "" {
		quirks, err = quirkdef.ParseFile(cfg.QuirksFile)
		if err != nil {
			return fmt.Errorf("loading quirks: %w", err)
		}
	}

	clk := clock.Real()

	provider, err := sysfs.New(sysfs.Options{Quirks: quirks, Clock: clk})
	if err != nil {
		return fmt.Errorf("probing hardware: %w", err)
	}

	meter := metric.NewMeter("hwbeat")
	col, err := collector.New(collector.Options{
		Provider:     provider,
		Meter:        meter,
		PollInterval: cfg.PollInterval(),
		Domains: collector.Domains{
			Battery:     cfg.Hardware.Battery,
			Controller:  cfg.Hardware.Controller,
			CPU:         cfg.Hardware.CPU,
			GPU:         cfg.Hardware.GPU,
			Memory:      cfg.Hardware.Memory,
			Motherboard: cfg.Hardware.Motherboard,
			Network:     cfg.Hardware.Network,
			Storage:     cfg.Hardware.Storage,
		},
		Clock: clk,
		Log:   logger,
	})
	if err != nil {
		return err
	}

	machine, err := os.Hostname()
	if err != nil {
		machine = "unknown"
	}

	agent := &Agent{
		config:      cfg,
		collector:   col,
		meter:       meter,
		accumulator: NewAccumulator(machine, provider.BootID()),
		clock:       clk,
		machine:     machine,
		startedAt:   clk.Now(),
		logger:      logger,
	}

	if cfg.History.Path != "" {
		store, err := OpenStore(StoreConfig{
			Path:   cfg.History.Path,
			Clock:  clk,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		agent.store = store
	}

	shipperDone := make(chan struct{})
	if cfg.Telemetry.SinkSocket != "" {
		agent.buffer = NewBuffer(cfg.Telemetry.BufferBatches)
		if cfg.Telemetry.SpoolDir != "" {
			spool, err := OpenSpool(SpoolConfig{
				Dir:      cfg.Telemetry.SpoolDir,
				MaxBytes: cfg.Telemetry.SpoolMaxBytes,
				Clock:    clk,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			agent.spool = spool
		}
		shipper := newSocketShipper(cfg.Telemetry.SinkSocket)
		go func() {
			runShipper(ctx, agent.buffer, agent.spool, shipper, clk, &agent.shipped, logger)
			close(shipperDone)
		}()
	} else {
		close(shipperDone)
	}

	socketServer := service.NewSocketServer(cfg.SocketPath, logger)
	agent.registerActions(socketServer)
	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	go col.Run(ctx)

	if agent.buffer != nil || agent.store != nil {
		go agent.runFlushLoop(ctx, cfg.ExportInterval())
	}
	if agent.store != nil {
		go agent.runRetentionLoop(ctx, cfg.Retention())
	}
	if cfg.HealthFile != "" {
		go agent.runHealthLoop(ctx, cfg.HealthFile, cfg.PollInterval())
	}

	logger.Info("hwbeat agent running",
		"version", version.Short(),
		"machine", machine,
		"socket", cfg.SocketPath,
		"poll_interval", cfg.PollInterval(),
		"hardware_nodes", col.HardwareCount(),
		"sensors", col.SensorCount(),
		"instruments", len(meter.Instruments()),
		"sink", cfg.Telemetry.SinkSocket,
		"history", cfg.History.Path,
	)

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for the socket server to drain active connections.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}

	// Final flush: batch whatever collected since the last tick. The
	// shipper's drain pass (triggered by ctx cancellation) ships it or
	// spools it.
	if agent.buffer != nil || agent.store != nil {
		flushContext, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		agent.collectAndFlush(flushContext)
		cancel()
	}
	<-shipperDone

	if agent.store != nil {
		if err := agent.store.Close(); err != nil {
			logger.Error("history store close error", "error", err)
		}
	}
	if err := col.Close(); err != nil {
		logger.Error("collector close error", "error", err)
	}
	if cfg.HealthFile != "" {
		if err := healthfile.Clear(cfg.HealthFile); err != nil {
			logger.Error("health file clear error", "error", err)
		}
	}

	return nil
}

// Agent holds the daemon's runtime state, shared between the socket
// handlers, the flush loop, and the shipper goroutine. buffer, spool,
// and store are nil when their feature is disabled in the config.
type Agent struct {
	config      *config.Config
	collector   *collector.Collector
	meter       *metric.Meter
	accumulator *Accumulator
	buffer      *Buffer
	spool       *Spool
	store       *Store
	clock       clock.Clock
	machine     string
	startedAt   time.Time
	logger      *slog.Logger

	// shipped is written by the shipper goroutine and read by the
	// status handler. dropped counts batches lost for good: buffer
	// evictions with no spool, and spool write failures.
	shipped atomic.Uint64
	dropped atomic.Uint64
}

// collectAndFlush reads every instrument, drains the accumulator into
// a batch, and fans the batch out to the history store and the ship
// buffer. No-op when nothing was observed.
func (a *Agent) collectAndFlush(ctx context.Context) {
	a.accumulator.AddPoints(a.meter.Collect(a.clock.Now()))
	batch := a.accumulator.Flush()
	if batch == nil {
		return
	}

	if a.store != nil {
		if err := a.store.WriteBatch(ctx, batch); err != nil {
			a.logger.Error("history write failed",
				"error", err,
				"sequence_number", batch.SequenceNumber,
				"points", len(batch.Points),
			)
		}
	}

	if a.buffer != nil {
		a.pushToBuffer(batch)
	}
}

// pushToBuffer CBOR-encodes a batch and queues it for shipping. When
// the buffer is full the oldest batch is evicted into the spool, or
// counted as dropped when spooling is off.
func (a *Agent) pushToBuffer(batch *telemetry.MetricBatch) {
	data, err := codec.Marshal(batch)
	if err != nil {
		a.logger.Error("failed to marshal metric batch",
			"error", err,
			"sequence_number", batch.SequenceNumber,
		)
		return
	}

	evicted := a.buffer.Push(data)
	if evicted == nil {
		return
	}
	if a.spool == nil {
		a.dropped.Add(1)
		a.logger.Warn("ship buffer full, dropping oldest batch",
			"buffer_entries", a.buffer.Len(),
		)
		return
	}
	if err := a.spool.Put(evicted); err != nil {
		a.dropped.Add(1)
		a.logger.Error("failed to spool evicted batch", "error", err)
	}
}

// runFlushLoop drives collectAndFlush on the export interval until the
// context is cancelled. The final flush on shutdown happens in run(),
// after the socket server has drained.
func (a *Agent) runFlushLoop(ctx context.Context, interval time.Duration) {
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.collectAndFlush(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// runRetentionLoop drops expired history partitions, once at startup
// and then hourly.
func (a *Agent) runRetentionLoop(ctx context.Context, retention time.Duration) {
	if err := a.store.RunRetention(ctx, retention); err != nil {
		a.logger.Error("history retention failed", "error", err)
	}

	ticker := a.clock.NewTicker(retentionCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := a.store.RunRetention(ctx, retention); err != nil {
				a.logger.Error("history retention failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// runHealthLoop rewrites the liveness file whenever a refresh has
// completed since the last write. The loop ticks at the poll interval,
// so the file advances once per refresh; a wedged refresh loop stops
// advancing RefreshCount and the file goes stale for monitors.
func (a *Agent) runHealthLoop(ctx context.Context, path string, interval time.Duration) {
	ticker := a.clock.NewTicker(interval)
	defer ticker.Stop()

	var lastWritten uint64
	for {
		select {
		case <-ticker.C:
			stats := a.collector.Stats()
			if stats.RefreshCount == lastWritten {
				continue
			}
			state := healthfile.State{
				PID:          os.Getpid(),
				Machine:      a.machine,
				StartedAt:    a.startedAt,
				UpdatedAt:    a.clock.Now(),
				RefreshCount: stats.RefreshCount,
				SensorCount:  a.collector.SensorCount(),
			}
			if err := healthfile.Write(path, state); err != nil {
				a.logger.Warn("health file write failed", "error", err)
				continue
			}
			lastWritten = stats.RefreshCount
		case <-ctx.Done():
			return
		}
	}
}
