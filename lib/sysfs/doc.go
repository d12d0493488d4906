// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package sysfs implements the hwtree.Provider contract for Linux by
// probing /sys and /proc. Discovery runs once at construction: each
// probe walks its sysfs class directory, builds hardware nodes with
// the sensors whose backing attribute files exist, and records an
// update closure. Refresh runs the closures, re-reading every
// attribute in place.
//
// Sources:
//
//   - /sys/class/power_supply/BAT*  batteries
//   - /sys/class/hwmon/hwmon*       motherboard Super I/O chips
//   - /proc/meminfo                 physical and virtual memory
//   - /sys/block/*                  disks (plus /proc/mounts for
//     filesystem usage and the disk's own hwmon for temperature)
//   - /sys/class/net/*              network interfaces
//
// A file that disappears at runtime clears its sensor's value rather
// than failing the refresh. Throughput sensors hold no value until
// the second refresh establishes a counter delta.
package sysfs
