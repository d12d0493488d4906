// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package healthfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// State is the agent liveness record. Written after every successful
// hardware refresh and read by external monitors.
type State struct {
	// PID is the process ID of the running agent. Monitors can use it
	// to cross-check against the process table.
	PID int `json:"pid"`

	// Machine is the hostname the agent runs on.
	Machine string `json:"machine"`

	// StartedAt is when the agent process started.
	StartedAt time.Time `json:"started_at"`

	// UpdatedAt is when this file was last written. Check compares it
	// against a maximum age to detect an agent that is dead or wedged.
	UpdatedAt time.Time `json:"updated_at"`

	// RefreshCount is the number of successful hardware refreshes
	// since the agent started.
	RefreshCount uint64 `json:"refresh_count"`

	// SensorCount is the number of sensors currently indexed.
	SensorCount int `json:"sensor_count"`
}

// Write atomically writes a health state file. The file is written to a
// temporary location in the same directory, fsynced for durability, and
// renamed into place. Readers never see a partial write.
//
// The file is created with mode 0644 (world-readable: the whole point
// is that unprivileged monitors can check it). The parent directory
// must already exist.
func Write(path string, state State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling health state: %w", err)
	}
	// Trailing newline for clean file content.
	data = append(data, '\n')

	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating temporary health file: %w", err)
	}

	// Write, sync, close, in that order. If any step fails, remove the
	// temporary file and report the first error.
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary health file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary health file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary health file: %w", err)
	}

	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming health file into place: %w", err)
	}

	// Sync the parent directory to ensure the rename is durable. This
	// matters when the machine loses power between rename and the OS
	// flushing directory metadata.
	parentDirectory, err := os.Open(filepath.Dir(path))
	if err == nil {
		parentDirectory.Sync()
		parentDirectory.Close()
	}

	return nil
}

// Read reads and parses a health state file. Returns the state or an
// error. When the file does not exist, the returned error wraps
// os.ErrNotExist (testable with errors.Is).
func Read(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parsing health file %s: %w", path, err)
	}
	return state, nil
}

// Check reads a health state file and verifies it was written recently
// enough for the agent to count as alive. Returns the state and true
// when the file exists and its UpdatedAt is within maxAge of now.
// Returns a zero State and false when the file does not exist or is
// older than maxAge.
//
// Any other error (permission denied, corrupt JSON) is returned as-is
// so the caller can distinguish "agent not running" from "health file
// exists but unreadable."
func Check(path string, maxAge time.Duration) (State, bool, error) {
	state, err := Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, err
	}

	if time.Since(state.UpdatedAt) > maxAge {
		return State{}, false, nil
	}

	return state, true, nil
}

// Clear removes a health state file. Idempotent: returns nil when the
// file does not exist. The agent calls this during graceful shutdown so
// monitors see a clean stop instead of a stale file aging out.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing health file: %w", err)
	}
	return nil
}
