// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

// FilterModel holds the fuzzy filter query and its focus state. The
// matching itself happens in filterRows; this is just the input line.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the filter input has keyboard focus (the
	// user pressed / to start typing).
	Active bool
}

// HandleRune appends a typed character to the filter input.
func (filter *FilterModel) HandleRune(character rune) {
	filter.Input += string(character)
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// Visible reports whether the filter bar occupies a screen line:
// while typing, or while an applied filter narrows the table.
func (filter *FilterModel) Visible() bool {
	return filter.Active || filter.Input != ""
}
