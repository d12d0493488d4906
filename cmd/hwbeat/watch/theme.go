// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the watch TUI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected table row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	HelpText         lipgloss.Color
	ErrorText        lipgloss.Color
	PausedText       lipgloss.Color

	// Background tint for filter-matched characters in the detail line.
	MatchBackground lipgloss.Color

	// Accent per hardware class, used in the detail line.
	ClassColors map[string]lipgloss.Color
}

// ClassColor returns the accent color for a hardware class name.
// Unknown classes get FaintText.
func (theme Theme) ClassColor(class string) lipgloss.Color {
	if color, ok := theme.ClassColors[class]; ok {
		return color
	}
	return theme.FaintText
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("255"),
	HelpText:         lipgloss.Color("241"),
	ErrorText:        lipgloss.Color("196"),
	PausedText:       lipgloss.Color("220"),

	MatchBackground: lipgloss.Color("58"),

	ClassColors: map[string]lipgloss.Color{
		"battery":     lipgloss.Color("114"), // green
		"storage":     lipgloss.Color("75"),  // blue
		"network":     lipgloss.Color("141"), // light purple
		"memory":      lipgloss.Color("220"), // amber
		"superio":     lipgloss.Color("208"), // orange
		"motherboard": lipgloss.Color("208"), // orange (hosts the superio chip)
		"controller":  lipgloss.Color("75"),  // blue (storage-adjacent)
		"cpu":         lipgloss.Color("203"), // soft red
		"gpu":         lipgloss.Color("203"), // soft red
	},
}
