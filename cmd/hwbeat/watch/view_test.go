// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// testRenderer forces a color profile so styles emit escape sequences
// even without a terminal, same as the model's own renderer.
func testRenderer() *lipgloss.Renderer {
	renderer := lipgloss.NewRenderer(io.Discard, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)
	return renderer
}

func TestHighlightMatchesPreservesText(t *testing.T) {
	renderer := testRenderer()
	base := renderer.NewStyle()
	highlight := renderer.NewStyle().Background(lipgloss.Color("58"))

	tests := []struct {
		text      string
		positions []int
	}{
		{"Charge Level", nil},
		{"Charge Level", []int{0, 1, 2}},
		{"Charge Level", []int{0, 2, 4, 11}},
		{"Température", []int{1, 2}},
	}
	for _, test := range tests {
		got := ansi.Strip(highlightMatches(test.text, test.positions, base, highlight))
		if got != test.text {
			t.Errorf("highlightMatches(%q, %v) mangled text: got %q", test.text, test.positions, got)
		}
	}
}

func TestHighlightMatchesStylesMatchedRunes(t *testing.T) {
	renderer := testRenderer()
	base := renderer.NewStyle()
	highlight := renderer.NewStyle().Background(lipgloss.Color("58"))

	plain := highlightMatches("abc", nil, base, base)
	styled := highlightMatches("abc", []int{1}, base, highlight)
	if styled == plain {
		t.Error("expected highlighted positions to change the rendered output")
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		milliseconds int64
		want         string
	}{
		{0, "?"},
		{-5, "?"},
		{250, "250ms"},
		{1000, "1s"},
		{1500, "1500ms"},
		{5000, "5s"},
	}
	for _, test := range tests {
		if got := formatInterval(test.milliseconds); got != test.want {
			t.Errorf("formatInterval(%d) = %q, want %q", test.milliseconds, got, test.want)
		}
	}
}

func TestDetailLineShowsSelectedRow(t *testing.T) {
	model := snapshotModel(t)

	view := ansi.Strip(model.View())
	if !strings.Contains(view, "[battery] BAT0") {
		t.Errorf("expected detail line for the selected row:\n%s", view)
	}
}

func TestDetailLinePlaceholders(t *testing.T) {
	model := testModel(t)

	// Before any snapshot arrives there is nothing to detail.
	if view := ansi.Strip(model.View()); !strings.Contains(view, "waiting for hardware snapshot") {
		t.Errorf("expected waiting placeholder:\n%s", view)
	}

	// A filter that matches nothing says so instead of going blank.
	model = updateModel(t, model, snapshotMsg{status: testStatus(), rows: flattenNodes(testNodes())})
	model = updateModel(t, model, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	model = typeText(t, model, "zzz")
	if view := ansi.Strip(model.View()); !strings.Contains(view, "no sensors match the filter") {
		t.Errorf("expected no-match placeholder:\n%s", view)
	}
}
