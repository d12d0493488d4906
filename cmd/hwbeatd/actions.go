// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/hwbeat/hwbeat/lib/codec"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
	"github.com/hwbeat/hwbeat/lib/service"
	"github.com/hwbeat/hwbeat/lib/version"
)

// registerActions wires the control socket actions. The socket is
// local-only (filesystem permissions are the access control), so
// handlers take no credentials.
func (a *Agent) registerActions(server *service.SocketServer) {
	server.Handle("ping", a.handlePing)
	server.Handle("status", a.handleStatus)
	server.Handle("hardware", a.handleHardware)
	server.Handle("metrics", a.handleMetrics)
	server.Handle("history", a.handleHistory)
}

// handlePing returns an empty success response. Used by monitoring to
// check that the agent's socket is alive.
func (a *Agent) handlePing(ctx context.Context, raw []byte) (any, error) {
	return nil, nil
}

// handleStatus returns a snapshot of the agent's runtime counters.
func (a *Agent) handleStatus(ctx context.Context, raw []byte) (any, error) {
	stats := a.collector.Stats()

	status := agent.Status{
		Version:          version.Info(),
		Machine:          a.machine,
		StartedAt:        a.startedAt.UnixNano(),
		PollInterval:     int64(a.config.PollIntervalMS),
		RefreshCount:     stats.RefreshCount,
		LastRefreshNanos: stats.LastDuration.Nanoseconds(),
		InstrumentCount:  len(a.meter.Instruments()),
		HardwareCount:    a.collector.HardwareCount(),
		SensorCount:      a.collector.SensorCount(),
		ShippedBatches:   a.shipped.Load(),
		DroppedBatches:   a.dropped.Load(),
	}

	if a.spool != nil {
		status.DroppedBatches += a.spool.Evicted()
		status.SpooledBatches = a.spool.Count()
	}

	if a.store != nil {
		historyStats, err := a.store.Stats(ctx)
		if err != nil {
			// Status should not fail because the history database is
			// briefly unavailable. Report what we have.
			a.logger.Warn("history stats failed", "error", err)
		} else {
			status.History = historyStats
		}
	}

	return status, nil
}

// handleHardware returns the hardware tree from the most recent
// refresh.
func (a *Agent) handleHardware(ctx context.Context, raw []byte) (any, error) {
	nodes := a.collector.Snapshot()
	if nodes == nil {
		nodes = []agent.HardwareNode{}
	}
	return agent.HardwareResponse{Nodes: nodes}, nil
}

// handleMetrics collects every registered instrument right now and
// returns the points. This reads the provider's cached sensor values;
// it does not trigger a hardware refresh and does not feed the export
// pipeline.
func (a *Agent) handleMetrics(ctx context.Context, raw []byte) (any, error) {
	points := a.meter.Collect(a.clock.Now())
	if points == nil {
		points = []telemetry.MetricPoint{}
	}
	return agent.MetricsResponse{Points: points}, nil
}

// handleHistory returns stored metric points matching the request
// filters. Name is required.
func (a *Agent) handleHistory(ctx context.Context, raw []byte) (any, error) {
	if a.store == nil {
		return nil, fmt.Errorf("history is disabled (no history.path configured)")
	}

	var request agent.HistoryRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding history request: %w", err)
	}

	if request.Name == "" {
		return nil, fmt.Errorf("metric name is required")
	}

	points, err := a.store.QueryPoints(ctx, PointFilter{
		Name:   request.Name,
		Labels: request.Labels,
		Start:  request.Start,
		End:    request.End,
		Limit:  request.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}

	if points == nil {
		points = []telemetry.MetricPoint{}
	}

	return agent.HistoryResponse{Points: points}, nil
}
