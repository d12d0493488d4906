// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package quirkdef

import (
	"path"

	"github.com/hwbeat/hwbeat/lib/hwtree"
)

// ScaledSensor binds a matched sensor to its scale factor. Scaling
// cannot be a one-shot tree rewrite: the provider overwrites sensor
// values on every refresh, so the factor must be re-applied after
// each pass.
type ScaledSensor struct {
	Sensor *hwtree.Sensor
	Factor float64
}

// Apply rewrites the hardware tree according to the definition's
// rules: renames matched sensors, removes hidden sensors from their
// nodes, and collects scale bindings for the provider to re-apply
// after every refresh. Rules apply in file order against the tree as
// rewritten so far.
//
// Apply assumes a validated definition; call Validate first.
func Apply(roots []*hwtree.Hardware, definition *Definition) []ScaledSensor {
	var scaled []ScaledSensor
	for _, rule := range definition.Rules {
		class, ok := hwtree.ParseClass(rule.Class)
		if !ok {
			continue
		}
		for _, node := range hwtree.Nodes(roots) {
			if node.Class != class {
				continue
			}
			if rule.Hardware != "" && !globMatch(rule.Hardware, node.Name) {
				continue
			}
			scaled = applyToNode(node, rule, scaled)
		}
	}
	return scaled
}

func applyToNode(node *hwtree.Hardware, rule Rule, scaled []ScaledSensor) []ScaledSensor {
	kept := node.Sensors[:0]
	for _, sensor := range node.Sensors {
		if !sensorMatches(sensor, rule) {
			kept = append(kept, sensor)
			continue
		}
		switch {
		case rule.Hide:
			continue // drop from kept
		case rule.Rename != "":
			sensor.Name = rule.Rename
		case rule.Scale != nil:
			scaled = append(scaled, ScaledSensor{Sensor: sensor, Factor: *rule.Scale})
		}
		kept = append(kept, sensor)
	}
	node.Sensors = kept
	return scaled
}

func sensorMatches(sensor *hwtree.Sensor, rule Rule) bool {
	if rule.Type != "" {
		sensorType, ok := hwtree.ParseSensorType(rule.Type)
		if !ok || sensor.Type != sensorType {
			return false
		}
	}
	return globMatch(rule.Sensor, sensor.Name)
}

// globMatch wraps path.Match for patterns already checked by
// Validate; a malformed pattern matches nothing.
func globMatch(pattern, name string) bool {
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
