// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

// Package quirkdef provides parsing, validation, and application of
// sensor quirk definitions. Quirks patch over firmware and driver
// noise: a board that reports its CPU fan as "fan2", an NVMe drive
// whose temperature register is off by a fixed factor, a sensor that
// reads garbage and should not be exported at all.
//
// Quirk files are authored as JSONC (JSON extended with comments and
// trailing commas). Each rule matches part of the hardware tree
// (class, hardware name glob, sensor name glob, optional sensor type)
// and carries exactly one action: rename, scale, or hide.
//
// The typical flow:
//
//  1. ParseFile or Parse: JSONC bytes → Definition
//  2. Validate: structural checks (known class, exactly one action, ...)
//  3. Apply: rewrite the discovered tree; returns scale bindings the
//     provider re-applies after every refresh
package quirkdef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// Rule is one quirk: a match over the hardware tree plus an action.
// Rules apply in file order; a rename changes the name later rules
// see.
type Rule struct {
	// Class is the hardware class the rule applies to ("storage",
	// "superio", ...). Required.
	Class string `json:"class"`

	// Hardware globs over the hardware node name ("nvme*"). Empty
	// matches every node of the class.
	Hardware string `json:"hardware,omitempty"`

	// Sensor globs over the sensor name ("Temperature #*"). Required.
	Sensor string `json:"sensor"`

	// Type restricts the match to one sensor type ("temperature").
	// Empty matches any type.
	Type string `json:"type,omitempty"`

	// Rename replaces the sensor's name.
	Rename string `json:"rename,omitempty"`

	// Scale multiplies the sensor's value after every refresh.
	Scale *float64 `json:"scale,omitempty"`

	// Hide drops the sensor from the tree before indexing.
	Hide bool `json:"hide,omitempty"`
}

// Definition is a parsed quirk file.
type Definition struct {
	// Description says what machine or device family the file covers.
	Description string `json:"description,omitempty"`

	Rules []Rule `json:"rules"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Definition. Unknown fields are
// rejected: a typoed action name must fail loudly, not silently leave
// a sensor unpatched.
func Parse(data []byte) (*Definition, error) {
	stripped := jsonc.ToJSON(data)

	decoder := json.NewDecoder(bytes.NewReader(stripped))
	decoder.DisallowUnknownFields()

	var definition Definition
	if err := decoder.Decode(&definition); err != nil {
		return nil, fmt.Errorf("parsing quirks: %w", err)
	}

	return &definition, nil
}

// ParseFile reads a JSONC quirk file from disk and parses it into a
// Definition. Returns a descriptive error if the file cannot be read
// or the JSON is malformed.
func ParseFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	definition, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return definition, nil
}
