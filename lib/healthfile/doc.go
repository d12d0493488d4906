// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package healthfile provides atomic liveness file operations for the
// hwbeat agent. The agent calls [Write] after every successful hardware
// refresh; external monitors (init systems, cron jobs, `hwbeat status
// --health`) call [Check] to decide whether the agent is alive without
// needing the control socket.
//
// The file is written atomically (write to temporary file, fsync,
// rename into place, fsync parent directory) so readers never see a
// partial or corrupt state. [Check] includes staleness detection: a
// file whose UpdatedAt is older than a configurable maximum age counts
// as dead, which catches an agent that is running but wedged as well as
// one that crashed without cleanup.
//
// The [State] struct records the agent's PID, machine name, start time,
// last update time, and refresh progress. It is serialized as JSON so
// shell scripts can consume it with jq.
//
// This package has no dependencies on other hwbeat packages.
package healthfile
