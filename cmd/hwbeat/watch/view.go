// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// styleSet holds the prebuilt lipgloss styles for the chrome around
// the table. Built once from the renderer so every style shares the
// forced color profile.
type styleSet struct {
	header       lipgloss.Style
	pausedTag    lipgloss.Style
	filterBar    lipgloss.Style
	filterCursor lipgloss.Style
	filterDim    lipgloss.Style
	detail       lipgloss.Style
	faint        lipgloss.Style
	highlight    lipgloss.Style
	help         lipgloss.Style
	errorText    lipgloss.Style
}

func newStyleSet(renderer *lipgloss.Renderer, theme Theme) styleSet {
	return styleSet{
		header:       renderer.NewStyle().Bold(true).Foreground(theme.HeaderForeground),
		pausedTag:    renderer.NewStyle().Bold(true).Foreground(theme.PausedText),
		filterBar:    renderer.NewStyle().Foreground(theme.NormalText),
		filterCursor: renderer.NewStyle().Bold(true).Foreground(theme.HeaderForeground),
		filterDim:    renderer.NewStyle().Foreground(theme.FaintText),
		detail:       renderer.NewStyle().Foreground(theme.NormalText),
		faint:        renderer.NewStyle().Foreground(theme.FaintText),
		highlight:    renderer.NewStyle().Foreground(theme.NormalText).Background(theme.MatchBackground),
		help:         renderer.NewStyle().Foreground(theme.HelpText),
		errorText:    renderer.NewStyle().Foreground(theme.ErrorText),
	}
}

func (m Model) View() string {
	if !m.ready {
		return " connecting to hwbeatd..."
	}

	sections := make([]string, 0, 5)
	sections = append(sections, m.renderHeader())
	if m.filter.Visible() {
		sections = append(sections, m.renderFilterBar())
	}
	sections = append(sections, m.table.View())
	sections = append(sections, m.renderDetailLine())
	sections = append(sections, m.renderStatusBar())
	return strings.Join(sections, "\n")
}

// renderHeader shows which agent the table mirrors and how fresh it
// is. Before the first snapshot only the title renders.
func (m Model) renderHeader() string {
	title := " hwbeat watch"
	info := ""
	if m.status.Machine != "" {
		info = fmt.Sprintf("  %s · poll %s · refresh #%d",
			m.status.Machine,
			formatInterval(m.status.PollInterval),
			m.status.RefreshCount)
	}

	line := m.styles.header.Render(title) + m.styles.faint.Render(info)
	if m.paused {
		tag := m.styles.pausedTag.Render("PAUSED ")
		gap := m.width - lipgloss.Width(line) - lipgloss.Width(tag)
		if gap < 1 {
			gap = 1
		}
		line += strings.Repeat(" ", gap) + tag
	}
	return ansi.Truncate(line, m.width, "")
}

// renderFilterBar mirrors the filter state: an input line with a
// cursor while typing, a dim reminder while a confirmed query is
// narrowing the table.
func (m Model) renderFilterBar() string {
	if m.filter.Active {
		cursor := m.styles.filterCursor.Render("▎")
		return m.styles.filterBar.Render(" / " + m.filter.Input + cursor)
	}
	return m.styles.filterDim.Render(" filter: " + m.filter.Input)
}

// renderDetailLine shows the selected sensor spelled out in full (the
// table truncates long names), with the fuzzy-matched characters
// tinted. Fetch errors take over the line until a fetch succeeds.
func (m Model) renderDetailLine() string {
	if m.err != nil {
		return ansi.Truncate(m.styles.errorText.Render(" error: "+m.err.Error()), m.width, "…")
	}

	if len(m.matches) == 0 {
		if m.filter.Input != "" {
			return m.styles.faint.Render(" no sensors match the filter")
		}
		return m.styles.faint.Render(" waiting for hardware snapshot...")
	}

	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.matches) {
		cursor = 0
	}
	match := m.matches[cursor]
	row := match.Row

	classTag := m.renderer.NewStyle().
		Foreground(m.theme.ClassColor(row.Class)).
		Render("[" + row.Class + "]")
	name := highlightMatches(row.Sensor, match.Positions, m.styles.detail, m.styles.highlight)

	line := " " + classTag + " " + m.styles.detail.Render(row.Hardware) + m.styles.faint.Render(" · ") +
		name + m.styles.faint.Render(" · ") + m.styles.detail.Render(formatValue(row))
	return ansi.Truncate(line, m.width, "…")
}

// renderStatusBar shows the key hints on the left and the visible row
// count plus refresh interval on the right.
func (m Model) renderStatusBar() string {
	help := " / filter · p pause · q quit"
	count := fmt.Sprintf("%d/%d sensors · %s ", len(m.matches), len(m.rows), m.interval)

	gap := m.width - lipgloss.Width(help) - lipgloss.Width(count)
	if gap < 1 {
		gap = 1
	}
	return m.styles.help.Render(help + strings.Repeat(" ", gap) + count)
}

// formatInterval renders the agent's poll interval (milliseconds).
func formatInterval(milliseconds int64) string {
	if milliseconds <= 0 {
		return "?"
	}
	if milliseconds%1000 == 0 {
		return fmt.Sprintf("%ds", milliseconds/1000)
	}
	return fmt.Sprintf("%dms", milliseconds)
}

// highlightMatches renders text with the matched rune positions
// tinted. Contiguous runs share one style call to keep the escape
// sequence count down.
func highlightMatches(text string, positions []int, base, highlight lipgloss.Style) string {
	if len(positions) == 0 {
		return base.Render(text)
	}

	matched := make(map[int]bool, len(positions))
	for _, position := range positions {
		matched[position] = true
	}

	runes := []rune(text)
	var out strings.Builder
	for start := 0; start < len(runes); {
		end := start
		for end < len(runes) && matched[end] == matched[start] {
			end++
		}
		segment := string(runes[start:end])
		if matched[start] {
			out.WriteString(highlight.Render(segment))
		} else {
			out.WriteString(base.Render(segment))
		}
		start = end
	}
	return out.String()
}
