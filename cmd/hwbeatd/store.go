// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/hwbeat/hwbeat/lib/clock"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
	"github.com/hwbeat/hwbeat/lib/schema/telemetry"
	"github.com/hwbeat/hwbeat/lib/sqlitepool"
)

// Store manages the local metric history in SQLite. It handles
// time-partitioned tables (one per day), batch writes, and
// retention-based cleanup. The partition scheme is an internal detail
// invisible to query callers.
//
// Write path: the flush loop calls WriteBatch for each flushed
// MetricBatch. WriteBatch inserts all points in a single IMMEDIATE
// transaction, creating the day's partition table on first write.
//
// Read path: QueryPoints searches across all partitions overlapping
// the requested time range, newest first. Callers see a flat result
// set with no partition boundaries.
//
// Retention: RunRetention drops partition tables older than the
// configured retention period. Called by a background ticker.
type Store struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger

	// partitionMu serializes partition table creation and guards
	// knownPartitions.
	partitionMu     sync.Mutex
	knownPartitions map[string]bool // partition suffix → exists
}

// StoreConfig holds the parameters for creating a history store.
type StoreConfig struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string

	// PoolSize is the number of connections in the pool. Defaults to
	// 4 if zero or negative.
	PoolSize int

	// Clock provides the current time for retention decisions.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// OpenStore creates a new history store backed by SQLite. The database
// file is created if it does not exist. On open, the store discovers
// existing partition tables so that writes and queries include them
// immediately.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.Clock == nil {
		return nil, fmt.Errorf("history store: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("history store: Logger is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	store := &Store{
		pool:            pool,
		clock:           cfg.Clock,
		logger:          cfg.Logger,
		knownPartitions: make(map[string]bool),
	}

	// Discover existing partitions from a previous run.
	if err := store.discoverPartitions(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("history store: discovering partitions: %w", err)
	}

	return store, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// WriteBatch inserts all points from a metric batch into the
// appropriate day partition tables. Creates partition tables on first
// write to a new day. The entire batch is written in a single
// IMMEDIATE transaction.
func (s *Store) WriteBatch(ctx context.Context, batch *telemetry.MetricBatch) error {
	if len(batch.Points) == 0 {
		return nil
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("history store: write batch: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("history store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	// Ensure all needed partitions exist. Most batches touch exactly
	// one partition (today's). Cross-midnight batches may touch two.
	for _, partition := range s.collectPartitions(batch) {
		if err := s.ensurePartition(conn, partition); err != nil {
			return err
		}
	}

	for i := range batch.Points {
		if err := s.insertPoint(conn, batch.Machine, &batch.Points[i]); err != nil {
			return err
		}
	}

	return nil
}

// partitionSuffix returns the YYYYMMDD suffix for a Unix nanosecond
// timestamp.
func partitionSuffix(unixNanos int64) string {
	t := time.Unix(0, unixNanos).UTC()
	return t.Format("20060102")
}

// collectPartitions returns the unique partition suffixes needed by a
// batch. Most batches produce exactly one suffix.
func (s *Store) collectPartitions(batch *telemetry.MetricBatch) []string {
	seen := make(map[string]struct{}, 2)
	for i := range batch.Points {
		seen[partitionSuffix(batch.Points[i].Timestamp)] = struct{}{}
	}

	partitions := make([]string, 0, len(seen))
	for suffix := range seen {
		partitions = append(partitions, suffix)
	}
	return partitions
}

// ensurePartition creates the day's partition table if it doesn't
// exist. Safe to call concurrently — only one goroutine creates tables
// at a time.
func (s *Store) ensurePartition(conn *sqlite.Conn, suffix string) error {
	s.partitionMu.Lock()
	defer s.partitionMu.Unlock()

	if s.knownPartitions[suffix] {
		return nil
	}

	schema := partitionSchema(suffix)
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		return fmt.Errorf("history store: creating partition %s: %w", suffix, err)
	}

	s.knownPartitions[suffix] = true
	s.logger.Info("history partition created", "suffix", suffix)
	return nil
}

// partitionSchema returns the CREATE TABLE and CREATE INDEX statements
// for a day partition.
func partitionSchema(suffix string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS metrics_%[1]s (
			machine   TEXT NOT NULL,
			name      TEXT NOT NULL,
			labels    TEXT,
			kind      INTEGER NOT NULL,
			timestamp INTEGER NOT NULL,
			value     REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_metrics_%[1]s_time ON metrics_%[1]s(timestamp);
		CREATE INDEX IF NOT EXISTS idx_metrics_%[1]s_name ON metrics_%[1]s(name, timestamp);
	`, suffix)
}

// insertPoint inserts a single metric point into its day partition.
func (s *Store) insertPoint(conn *sqlite.Conn, machine string, point *telemetry.MetricPoint) error {
	suffix := partitionSuffix(point.Timestamp)

	var labelsJSON any
	if len(point.Labels) > 0 {
		data, err := json.Marshal(point.Labels)
		if err != nil {
			return fmt.Errorf("history store: marshal labels: %w", err)
		}
		labelsJSON = string(data)
	}

	query := fmt.Sprintf(`INSERT INTO metrics_%s
		(machine, name, labels, kind, timestamp, value)
		VALUES (?, ?, ?, ?, ?, ?)`, suffix)

	return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: []any{
			machine,
			point.Name,
			labelsJSON,
			int(point.Kind),
			point.Timestamp,
			point.Value,
		},
	})
}

// discoverPartitions finds existing partition tables from a previous
// run. Called once during OpenStore.
func (s *Store) discoverPartitions() error {
	conn, err := s.pool.Take(context.Background())
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		"SELECT name FROM sqlite_master WHERE type='table' AND name LIKE 'metrics_%'",
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tableName := stmt.ColumnText(0)
				suffix := strings.TrimPrefix(tableName, "metrics_")
				s.knownPartitions[suffix] = true
				return nil
			},
		})
	if err != nil {
		return err
	}

	if len(s.knownPartitions) > 0 {
		s.logger.Info("discovered existing history partitions",
			"count", len(s.knownPartitions),
		)
	}

	return nil
}

// RunRetention drops partition tables older than the retention period.
// Safe to call from a background ticker.
//
// The +24h accounts for the fact that a partition covers an entire
// day: a partition dated 2026-02-21 contains data from 00:00 to
// 23:59:59 UTC, so it shouldn't be dropped until retention + 24h after
// its date.
func (s *Store) RunRetention(ctx context.Context, retention time.Duration) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("history store: retention: %w", err)
	}
	defer s.pool.Put(conn)

	now := s.clock.Now().UTC()

	s.partitionMu.Lock()
	defer s.partitionMu.Unlock()

	for suffix := range s.knownPartitions {
		partitionDate, err := time.Parse("20060102", suffix)
		if err != nil {
			s.logger.Warn("retention: unparseable partition suffix",
				"suffix", suffix,
				"error", err,
			)
			continue
		}

		age := now.Sub(partitionDate)
		if age <= retention+24*time.Hour {
			continue
		}

		dropQuery := "DROP TABLE IF EXISTS metrics_" + suffix
		if err := sqlitex.ExecuteTransient(conn, dropQuery, nil); err != nil {
			s.logger.Error("retention: failed to drop partition",
				"suffix", suffix,
				"error", err,
			)
			continue
		}

		delete(s.knownPartitions, suffix)
		s.logger.Info("history partition dropped by retention",
			"suffix", suffix,
			"age", age.Round(time.Hour),
		)
	}

	return nil
}

// activePartitions returns the known partition suffixes sorted newest
// first. Used by query methods to iterate partitions.
func (s *Store) activePartitions() []string {
	s.partitionMu.Lock()
	partitions := make([]string, 0, len(s.knownPartitions))
	for suffix := range s.knownPartitions {
		partitions = append(partitions, suffix)
	}
	s.partitionMu.Unlock()

	// Sort descending (newest first) so queries return recent data
	// first.
	sort.Sort(sort.Reverse(sort.StringSlice(partitions)))
	return partitions
}

// partitionsInRange returns partition suffixes that overlap with the
// given time range. If start or end is zero, that bound is open.
func (s *Store) partitionsInRange(startNanos, endNanos int64) []string {
	all := s.activePartitions()
	if startNanos == 0 && endNanos == 0 {
		return all
	}

	var filtered []string
	for _, suffix := range all {
		partitionDate, err := time.Parse("20060102", suffix)
		if err != nil {
			continue
		}
		// The partition covers [partitionDate 00:00:00, partitionDate+24h).
		partitionStart := partitionDate.UnixNano()
		partitionEnd := partitionDate.Add(24 * time.Hour).UnixNano()

		if startNanos != 0 && partitionEnd <= startNanos {
			continue // Partition is entirely before the range.
		}
		if endNanos != 0 && partitionStart >= endNanos {
			continue // Partition is entirely after the range.
		}
		filtered = append(filtered, suffix)
	}
	return filtered
}

// PointFilter specifies the criteria for querying history points.
type PointFilter struct {
	Name   string            // Required. Exact match on metric name.
	Labels map[string]string // All specified labels must match.
	Start  int64             // Earliest timestamp (Unix nanos).
	End    int64             // Latest timestamp (Unix nanos).
	Limit  int               // Maximum points to return (default 1000).
}

// QueryPoints returns metric points matching the filter, searching
// across all partitions overlapping the time range. Results are sorted
// by timestamp descending (newest first).
func (s *Store) QueryPoints(ctx context.Context, filter PointFilter) ([]telemetry.MetricPoint, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("history store: query points: %w", err)
	}
	defer s.pool.Put(conn)

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}

	partitions := s.partitionsInRange(filter.Start, filter.End)
	if len(partitions) == 0 {
		return nil, nil
	}

	var results []telemetry.MetricPoint

	for _, suffix := range partitions {
		if len(results) >= limit {
			break
		}

		remaining := limit - len(results)
		points, err := s.queryPartition(conn, suffix, filter, remaining)
		if err != nil {
			return nil, err
		}
		results = append(results, points...)
	}

	return results, nil
}

func (s *Store) queryPartition(conn *sqlite.Conn, suffix string, filter PointFilter, limit int) ([]telemetry.MetricPoint, error) {
	var conditions []string
	var args []any

	if filter.Name != "" {
		conditions = append(conditions, "name = ?")
		args = append(args, filter.Name)
	}
	if filter.Start > 0 {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.Start)
	}
	if filter.End > 0 {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.End)
	}
	// Label filtering via json_extract: each specified label must
	// match.
	for key, value := range filter.Labels {
		conditions = append(conditions, "json_extract(labels, ?) = ?")
		args = append(args, "$."+key, value)
	}

	query := "SELECT name, labels, kind, timestamp, value FROM metrics_" + suffix
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	var points []telemetry.MetricPoint
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			point, err := scanPoint(stmt)
			if err != nil {
				return err
			}
			points = append(points, point)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history store: query metrics_%s: %w", suffix, err)
	}
	return points, nil
}

func scanPoint(stmt *sqlite.Stmt) (telemetry.MetricPoint, error) {
	// Columns: name(0), labels(1), kind(2), timestamp(3), value(4)
	point := telemetry.MetricPoint{
		Name:      stmt.ColumnText(0),
		Kind:      telemetry.MetricKind(stmt.ColumnInt(2)),
		Timestamp: stmt.ColumnInt64(3),
		Value:     stmt.ColumnFloat(4),
	}

	if !stmt.ColumnIsNull(1) {
		labelsJSON := stmt.ColumnText(1)
		if err := json.Unmarshal([]byte(labelsJSON), &point.Labels); err != nil {
			return point, fmt.Errorf("unmarshal point labels: %w", err)
		}
	}

	return point, nil
}

// Stats returns current storage statistics for inclusion in the agent
// status response.
func (s *Store) Stats(ctx context.Context) (*agent.HistoryStats, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("history store: stats: %w", err)
	}
	defer s.pool.Put(conn)

	partitions := s.activePartitions()

	stats := &agent.HistoryStats{
		PartitionCount: len(partitions),
	}
	if len(partitions) > 0 {
		stats.NewestPartition = partitions[0]
		stats.OldestPartition = partitions[len(partitions)-1]
	}

	// Database size via page_count * page_size.
	err = sqlitex.Execute(conn, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			stats.DatabaseSizeBytes = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("history store: database size: %w", err)
	}

	for _, suffix := range partitions {
		count, err := tableRowCount(conn, "metrics_"+suffix)
		if err != nil {
			return nil, err
		}
		stats.PointCount += count
	}

	return stats, nil
}

func tableRowCount(conn *sqlite.Conn, tableName string) (int64, error) {
	var count int64
	query := "SELECT COUNT(*) FROM " + tableName
	err := sqlitex.ExecuteTransient(conn, query, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			count = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("history store: count %s: %w", tableName, err)
	}
	return count, nil
}
