// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"sort"

	"github.com/junegunn/fzf/src/util"

	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

// sensorRow is one flattened sensor with its owning-device context.
// The table shows rows, not the tree: a live view sorts and filters
// better flat.
type sensorRow struct {
	Hardware string
	Class    string
	Type     string
	Sensor   string
	Value    *float64
}

// flattenNodes walks the hardware tree depth-first and emits one row
// per sensor. Provider order is preserved, so unfiltered rows keep a
// stable layout across refreshes.
func flattenNodes(nodes []agent.HardwareNode) []sensorRow {
	var rows []sensorRow
	for _, node := range nodes {
		rows = appendNodeRows(rows, node)
	}
	return rows
}

func appendNodeRows(rows []sensorRow, node agent.HardwareNode) []sensorRow {
	for _, sensor := range node.Sensors {
		rows = append(rows, sensorRow{
			Hardware: node.Name,
			Class:    node.Class,
			Type:     sensor.Type,
			Sensor:   sensor.Name,
			Value:    sensor.Value,
		})
	}
	for _, sub := range node.SubHardware {
		rows = appendNodeRows(rows, sub)
	}
	return rows
}

// rowMatch pairs a row with its fuzzy relevance.
type rowMatch struct {
	Row   sensorRow
	Score int

	// Positions are matched rune indices in the sensor name, set only
	// when the name itself matched (not just the device fields). They
	// drive the detail-line highlight.
	Positions []int
}

// filterRows scores every row against the filter text and returns the
// matches sorted by score descending, stable over provider order. The
// sensor name is the primary target; hardware name, class, and sensor
// type also count, so queries like "battery" or "temp" narrow by
// device kind. An empty filter returns all rows unscored.
func filterRows(rows []sensorRow, input string, slab *util.Slab) []rowMatch {
	if input == "" {
		matches := make([]rowMatch, len(rows))
		for index, row := range rows {
			matches[index] = rowMatch{Row: row}
		}
		return matches
	}

	pattern := []rune(input)
	var matches []rowMatch
	for _, row := range rows {
		nameResult := fuzzyMatch(row.Sensor, pattern, slab)
		best := nameResult.Score
		for _, field := range [...]string{row.Hardware, row.Class, row.Type} {
			if result := fuzzyMatch(field, pattern, slab); result.Score > best {
				best = result.Score
			}
		}
		if best <= 0 {
			continue
		}

		match := rowMatch{Row: row, Score: best}
		if nameResult.Score > 0 {
			match.Positions = nameResult.Positions
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
