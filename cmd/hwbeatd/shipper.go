// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hwbeat/hwbeat/lib/clock"
	"github.com/hwbeat/hwbeat/lib/codec"
	"github.com/hwbeat/hwbeat/lib/service"
)

// BatchShipper sends a CBOR-encoded metric batch to the sink. The
// agent uses this interface so tests can substitute a fake
// implementation without a real sink socket.
type BatchShipper interface {
	Ship(ctx context.Context, data []byte) error
}

// socketShipper ships batches to the sink's "ingest" action over its
// unix socket.
type socketShipper struct {
	client *service.ServiceClient
}

// newSocketShipper creates a BatchShipper for the sink socket at the
// given path.
func newSocketShipper(socketPath string) BatchShipper {
	return &socketShipper{client: service.NewServiceClient(socketPath)}
}

// Ship sends a pre-encoded CBOR batch to the sink's "ingest" action.
// The batch is sent as a codec.RawMessage so the sink receives the
// original bytes without double-encoding.
func (s *socketShipper) Ship(ctx context.Context, data []byte) error {
	return s.client.Call(ctx, "ingest", map[string]any{
		"batch": codec.RawMessage(data),
	}, nil)
}

// Backoff constants for the shipper retry loop. Starts at
// initialBackoff and doubles on each consecutive failure, capped at
// maxBackoff. Resets to initialBackoff on success.
const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
)

// runShipper drains the buffer by shipping batches to the sink. It
// runs in its own goroutine for the agent's lifetime. spool may be nil
// when spooling is disabled.
//
// The loop peeks at the oldest entry, attempts to ship it, and pops it
// on success. On failure it backs off exponentially (1s → 2s → 4s →
// ... → 30s cap). Once the buffer is empty it re-ships spooled batches
// from earlier outages; a spool failure just waits for the next cycle
// rather than spinning. When the context is cancelled, it makes one
// final drain attempt with a short timeout, spooling whatever still
// cannot be delivered.
func runShipper(ctx context.Context, buffer *Buffer, spool *Spool, shipper BatchShipper, clk clock.Clock, shipped *atomic.Uint64, logger *slog.Logger) {
	backoff := initialBackoff

	for {
		// Wait for data or shutdown.
		select {
		case <-buffer.Notify():
		case <-ctx.Done():
			drainBuffer(buffer, spool, shipper, shipped, logger)
			return
		}

		// Drain all available entries.
		for {
			data := buffer.Peek()
			if data == nil {
				break
			}

			if err := shipper.Ship(ctx, data); err != nil {
				if ctx.Err() != nil {
					drainBuffer(buffer, spool, shipper, shipped, logger)
					return
				}
				logger.Warn("batch ship failed, will retry",
					"error", err,
					"backoff", backoff,
					"buffer_entries", buffer.Len(),
				)
				select {
				case <-clk.After(backoff):
				case <-ctx.Done():
					drainBuffer(buffer, spool, shipper, shipped, logger)
					return
				}
				backoff = backoff * 2
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				continue
			}

			buffer.Pop()
			shipped.Add(1)
			backoff = initialBackoff
		}

		// The sink just accepted the live batches, so it is a good
		// moment to retry anything spooled during an earlier outage.
		drainSpool(ctx, spool, shipper, shipped, logger)
	}
}

// drainSpool re-ships spooled batches oldest-first until the spool is
// empty, a ship fails, or the context ends. Unreadable entries are
// logged and deleted so one corrupt file cannot wedge the drain.
func drainSpool(ctx context.Context, spool *Spool, shipper BatchShipper, shipped *atomic.Uint64, logger *slog.Logger) {
	if spool == nil {
		return
	}

	for ctx.Err() == nil {
		name, data, err := spool.Oldest()
		if err != nil {
			logger.Warn("unreadable spool entry, removing",
				"name", name,
				"error", err,
			)
			spool.Remove(name)
			continue
		}
		if name == "" {
			return
		}

		if err := shipper.Ship(ctx, data); err != nil {
			logger.Warn("spooled batch ship failed, keeping spooled",
				"name", name,
				"error", err,
				"spool_entries", spool.Count(),
			)
			return
		}

		spool.Remove(name)
		shipped.Add(1)
	}
}

// drainBuffer makes one best-effort pass through the buffer after
// shutdown, using a short timeout per run. Batches that still cannot
// ship are spooled for the next agent run (or abandoned when spooling
// is off).
func drainBuffer(buffer *Buffer, spool *Spool, shipper BatchShipper, shipped *atomic.Uint64, logger *slog.Logger) {
	const drainTimeout = 5 * time.Second
	drainContext, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		data := buffer.Peek()
		if data == nil {
			return
		}
		if err := shipper.Ship(drainContext, data); err != nil {
			spoolRemaining(buffer, spool, logger, err)
			return
		}
		buffer.Pop()
		shipped.Add(1)
	}
}

// spoolRemaining moves every batch still in the buffer to the spool
// after a failed shutdown drain.
func spoolRemaining(buffer *Buffer, spool *Spool, logger *slog.Logger, shipError error) {
	if spool == nil {
		logger.Warn("drain: batch ship failed, abandoning remaining",
			"error", shipError,
			"remaining", buffer.Len(),
		)
		return
	}

	count := 0
	for {
		data := buffer.Peek()
		if data == nil {
			break
		}
		if err := spool.Put(data); err != nil {
			logger.Error("drain: spooling batch failed, abandoning remaining",
				"error", err,
				"remaining", buffer.Len(),
			)
			return
		}
		buffer.Pop()
		count++
	}
	logger.Info("drain: spooled undelivered batches",
		"count", count,
		"ship_error", shipError,
	)
}
