// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/hwbeat/hwbeat/lib/clock"
)

// Spool is the on-disk overflow queue for metric batches that could
// not ship: buffer evictions while the sink is down, and undelivered
// batches at shutdown. Entries are compressed, written atomically
// (temporary file, rename), and drained oldest-first once the sink
// recovers.
//
// File names are "<nanos>-<hash>.<ext>": a zero-padded Unix nanosecond
// timestamp so lexicographic order is arrival order, the first six
// bytes of the batch's BLAKE3 hash for integrity spot checks and
// collision-free names, and the compression extension. The hash covers
// the uncompressed CBOR so it stays stable across compression choices.
//
// Thread-safe: the flush path Puts while the shipper drains.
type Spool struct {
	dir      string
	maxBytes int64
	clock    clock.Clock
	logger   *slog.Logger

	mu        sync.Mutex
	entries   []spoolEntry // sorted by name, oldest first
	totalSize int64
	evicted   uint64
}

// spoolEntry is one spool file with its size cached for O(1)
// accounting.
type spoolEntry struct {
	name string
	size int64
}

// SpoolConfig holds the parameters for opening a spool directory.
type SpoolConfig struct {
	// Dir is the spool directory. Created if missing.
	Dir string

	// MaxBytes caps the directory's total size; the oldest entries are
	// evicted to stay under it. Zero means uncapped.
	MaxBytes int64

	// Clock provides entry timestamps. Defaults to the real clock.
	Clock clock.Clock

	// Logger receives operational messages. Defaults to slog.Default.
	Logger *slog.Logger
}

// OpenSpool opens a spool directory, discovering entries left by a
// previous run and deleting stale temporary files from interrupted
// writes.
func OpenSpool(cfg SpoolConfig) (*Spool, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("spool: Dir is required")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("spool: creating %s: %w", cfg.Dir, err)
	}

	spool := &Spool{
		dir:      cfg.Dir,
		maxBytes: cfg.MaxBytes,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
	if err := spool.scan(); err != nil {
		return nil, err
	}

	if len(spool.entries) > 0 {
		spool.logger.Info("spool entries recovered from previous run",
			"count", len(spool.entries),
			"bytes", spool.totalSize,
		)
	}
	return spool, nil
}

// scan builds the in-memory index from the directory contents.
func (s *Spool) scan() error {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("spool: reading %s: %w", s.dir, err)
	}

	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		name := dirEntry.Name()

		// Interrupted writes leave .tmp files behind; they are
		// incomplete by definition.
		if strings.HasSuffix(name, ".tmp") {
			os.Remove(filepath.Join(s.dir, name))
			continue
		}

		switch filepath.Ext(name) {
		case extensionZstd, extensionLZ4, extensionRaw:
		default:
			continue
		}

		info, err := dirEntry.Info()
		if err != nil {
			continue
		}
		s.entries = append(s.entries, spoolEntry{name: name, size: info.Size()})
		s.totalSize += info.Size()
	}

	sort.Slice(s.entries, func(i, j int) bool {
		return s.entries[i].name < s.entries[j].name
	})
	return nil
}

// Put compresses and spools one CBOR-encoded batch, evicting the
// oldest entries if the directory would exceed its size cap. Returns
// an error when the entry cannot be written or is larger than the
// entire cap.
func (s *Spool) Put(data []byte) error {
	payload, extension := compressBatch(data)
	if s.maxBytes > 0 && int64(len(payload)) > s.maxBytes {
		return fmt.Errorf("spool: batch of %d bytes exceeds spool cap %d", len(payload), s.maxBytes)
	}

	hash := blake3.Sum256(data)
	name := fmt.Sprintf("%020d-%s%s",
		s.clock.Now().UnixNano(),
		hex.EncodeToString(hash[:6]),
		extension,
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, name)
	temporaryPath := path + ".tmp"
	if err := os.WriteFile(temporaryPath, payload, 0o600); err != nil {
		return fmt.Errorf("spool: writing %s: %w", name, err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("spool: renaming %s into place: %w", name, err)
	}

	s.entries = append(s.entries, spoolEntry{name: name, size: int64(len(payload))})
	s.totalSize += int64(len(payload))

	// Evict oldest entries until back under the cap. The entry just
	// written can survive only if older ones go first.
	for s.maxBytes > 0 && s.totalSize > s.maxBytes && len(s.entries) > 1 {
		oldest := s.entries[0]
		os.Remove(filepath.Join(s.dir, oldest.name))
		s.entries = s.entries[1:]
		s.totalSize -= oldest.size
		s.evicted++
		s.logger.Warn("spool over size cap, evicted oldest batch",
			"name", oldest.name,
			"spool_bytes", s.totalSize,
		)
	}

	return nil
}

// Oldest returns the oldest spooled batch, decompressed back to its
// CBOR encoding. Returns ("", nil, nil) when the spool is empty. A
// non-nil error carries the entry name so the caller can Remove the
// unreadable file and move on.
func (s *Spool) Oldest() (string, []byte, error) {
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return "", nil, nil
	}
	name := s.entries[0].name
	s.mu.Unlock()

	payload, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return name, nil, fmt.Errorf("spool: reading %s: %w", name, err)
	}
	data, err := decompressBatch(payload, filepath.Ext(name))
	if err != nil {
		return name, nil, fmt.Errorf("spool: %s: %w", name, err)
	}
	return name, data, nil
}

// Remove deletes a spooled entry by name. Idempotent: removing an
// entry that is already gone is a no-op.
func (s *Spool) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, entry := range s.entries {
		if entry.name != name {
			continue
		}
		s.entries = append(s.entries[:i], s.entries[i+1:]...)
		s.totalSize -= entry.size
		break
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("spool entry remove failed", "name", name, "error", err)
	}
}

// Count returns the number of spooled batches.
func (s *Spool) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SizeBytes returns the total on-disk size of all spooled batches.
func (s *Spool) SizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalSize
}

// Evicted returns the number of batches deleted to keep the spool
// under its size cap since the spool was opened.
func (s *Spool) Evicted() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evicted
}
