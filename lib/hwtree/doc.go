// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package hwtree defines the hardware tree hwbeat samples from: typed
// hardware nodes with nested sub-hardware, typed sensors with display
// names and optional current values, and the Provider contract a
// sensor backend implements.
//
// The package also builds the sensor index: a flat, ordered view over
// the tree computed once at startup. Traversal is depth-first with a
// node's sub-hardware sensors listed before the node's own sensors,
// and root order following the provider's enumeration. Metric setup
// routines filter the index by (hardware class, sensor type, display
// name) to select backing sensors; the traversal order is what makes
// positional pairing of sibling sensor lists (the i-th "Read Rate"
// with the i-th "Write Rate") line up per device.
package hwtree
