// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"sync"
)

// Buffer is a bounded FIFO queue of CBOR-encoded metric batches
// awaiting shipment. When a Push would exceed the entry capacity, the
// oldest entry is evicted and handed back to the caller, which spools
// or drops it. This provides backpressure when the shipper can't keep
// up: the agent sheds old data rather than exhausting memory.
//
// The notify channel (capacity 1) signals the shipper goroutine when
// new data is available. The shipper selects on Notify() alongside
// context cancellation.
//
// Thread-safe: all methods may be called concurrently.
type Buffer struct {
	mu        sync.Mutex
	entries   [][]byte
	totalSize int
	capacity  int
	notify    chan struct{}
}

// NewBuffer creates a Buffer holding at most capacity batches. The
// capacity must be positive.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		panic(fmt.Sprintf("buffer: capacity must be positive, got %d", capacity))
	}
	return &Buffer{
		capacity: capacity,
		notify:   make(chan struct{}, 1),
	}
}

// Push appends a CBOR-encoded batch. When the buffer is full, the
// oldest entry is evicted and returned so the caller can spool it;
// otherwise Push returns nil.
func (b *Buffer) Push(data []byte) (evicted []byte) {
	b.mu.Lock()

	if len(b.entries) >= b.capacity {
		evicted = b.entries[0]
		b.entries[0] = nil // release for GC
		b.entries = b.entries[1:]
		b.totalSize -= len(evicted)
	}

	b.entries = append(b.entries, data)
	b.totalSize += len(data)

	b.mu.Unlock()

	// Non-blocking signal to the shipper.
	select {
	case b.notify <- struct{}{}:
	default:
	}

	return evicted
}

// Peek returns the oldest entry without removing it. Returns nil if
// the buffer is empty.
func (b *Buffer) Peek() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return nil
	}
	return b.entries[0]
}

// Pop removes the oldest entry. No-op if the buffer is empty.
func (b *Buffer) Pop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.entries) == 0 {
		return
	}
	b.totalSize -= len(b.entries[0])
	b.entries[0] = nil // release for GC
	b.entries = b.entries[1:]
}

// Len returns the number of entries in the buffer.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// SizeBytes returns the total byte size of all entries in the buffer.
func (b *Buffer) SizeBytes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalSize
}

// Notify returns a channel that receives a signal (at most once per
// Push) when new data is available. The shipper goroutine selects on
// this channel alongside its context to wake up for shipping.
func (b *Buffer) Notify() <-chan struct{} {
	return b.notify
}
