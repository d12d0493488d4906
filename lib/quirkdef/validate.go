// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package quirkdef

import (
	"fmt"
	"path"

	"github.com/hwbeat/hwbeat/lib/hwtree"
)

// Validate checks a Definition for structural issues. Returns a list
// of human-readable issue descriptions. An empty list means the
// definition is valid.
//
// Structural checks include:
//   - Each rule must name a known hardware class
//   - Each rule must have a non-empty sensor pattern
//   - Hardware and sensor globs must be well-formed patterns
//   - Type (when present) must be a known sensor type
//   - Each rule must set exactly one of rename, scale, or hide
//   - Scale (when present) must be non-zero
func Validate(definition *Definition) []string {
	var issues []string

	for index, rule := range definition.Rules {
		prefix := fmt.Sprintf("rules[%d]", index)

		if rule.Class == "" {
			issues = append(issues, fmt.Sprintf("%s: class is required", prefix))
		} else if _, ok := hwtree.ParseClass(rule.Class); !ok {
			issues = append(issues, fmt.Sprintf("%s: unknown class %q", prefix, rule.Class))
		}

		if rule.Sensor == "" {
			issues = append(issues, fmt.Sprintf("%s: sensor is required", prefix))
		} else if _, err := path.Match(rule.Sensor, ""); err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid sensor pattern %q", prefix, rule.Sensor))
		}

		if rule.Hardware != "" {
			if _, err := path.Match(rule.Hardware, ""); err != nil {
				issues = append(issues, fmt.Sprintf("%s: invalid hardware pattern %q", prefix, rule.Hardware))
			}
		}

		if rule.Type != "" {
			if _, ok := hwtree.ParseSensorType(rule.Type); !ok {
				issues = append(issues, fmt.Sprintf("%s: unknown sensor type %q", prefix, rule.Type))
			}
		}

		actionCount := 0
		if rule.Rename != "" {
			actionCount++
		}
		if rule.Scale != nil {
			actionCount++
		}
		if rule.Hide {
			actionCount++
		}
		switch {
		case actionCount > 1:
			issues = append(issues, fmt.Sprintf("%s: rename, scale, and hide are mutually exclusive (set exactly one)", prefix))
		case actionCount == 0:
			issues = append(issues, fmt.Sprintf("%s: must set exactly one of rename, scale, or hide", prefix))
		}

		if rule.Scale != nil && *rule.Scale == 0 {
			issues = append(issues, fmt.Sprintf("%s: scale must be non-zero", prefix))
		}
	}

	return issues
}
