// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the application-level key bindings for the watch
// TUI. Table navigation (j/k, page up/down, g/G) is handled by the
// bubbles table component's own key map; these are the bindings the
// model routes itself.
type KeyMap struct {
	// FilterActivate enters filter mode; typed characters then edit
	// the query.
	FilterActivate key.Binding

	// FilterClear clears the filter and leaves filter mode.
	FilterClear key.Binding

	// Pause freezes the display: ticks keep arriving but fetches are
	// skipped until pressed again.
	Pause key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	FilterActivate: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	FilterClear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear filter"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
