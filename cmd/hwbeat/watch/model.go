// Copyright 2026 The Hwbeat Authors
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"
	"github.com/muesli/termenv"

	"github.com/hwbeat/hwbeat/cmd/hwbeat/cli"
	"github.com/hwbeat/hwbeat/lib/hwtree"
	"github.com/hwbeat/hwbeat/lib/schema/agent"
)

// fetchTimeout bounds one snapshot round-trip. The agent answers from
// memory, so this only trips when the agent is wedged.
const fetchTimeout = 5 * time.Second

// Messages produced by commands and routed through Update.
type (
	// tickMsg fires on the refresh interval.
	tickMsg time.Time

	// snapshotMsg carries one consistent agent snapshot: status
	// counters plus the flattened hardware tree.
	snapshotMsg struct {
		status agent.Status
		rows   []sensorRow
	}

	// fetchErrorMsg reports a failed snapshot fetch. The previous
	// snapshot stays on screen; the error shows in the detail line
	// until a fetch succeeds.
	fetchErrorMsg struct {
		err error
	}
)

// Model is the bubbletea model for the live sensor table.
type Model struct {
	ctx        context.Context
	connection cli.AgentConnection
	interval   time.Duration

	keys     KeyMap
	theme    Theme
	renderer *lipgloss.Renderer
	styles   styleSet
	slab     *util.Slab

	table  table.Model
	filter FilterModel

	// rows is the full flattened snapshot; matches is the filtered,
	// score-ordered view the table currently shows.
	rows    []sensorRow
	matches []rowMatch

	status agent.Status
	err    error
	paused bool

	width  int
	height int
	ready  bool
}

// newModel builds the initial model. No I/O happens here; the first
// snapshot fetch is issued by Init.
func newModel(ctx context.Context, connection cli.AgentConnection, interval time.Duration) Model {
	// Force the ANSI256 profile instead of auto-detection: the watch
	// command has already verified stdout is a terminal, and detection
	// inside the altscreen session is unreliable under tmux and CI
	// pseudo-terminals.
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.ANSI256))
	renderer.SetColorProfile(termenv.ANSI256)

	theme := DefaultTheme
	styles := newStyleSet(renderer, theme)

	sensorTable := table.New(
		table.WithColumns(layoutColumns(defaultWidth)),
		table.WithFocused(true),
		table.WithStyles(table.Styles{
			Header:   renderer.NewStyle().Bold(true).Foreground(theme.HeaderForeground).Padding(0, 1),
			Cell:     renderer.NewStyle().Foreground(theme.NormalText).Padding(0, 1),
			Selected: renderer.NewStyle().Foreground(theme.SelectedForeground).Background(theme.SelectedBackground),
		}),
	)

	return Model{
		ctx:        ctx,
		connection: connection,
		interval:   interval,
		keys:       DefaultKeyMap,
		theme:      theme,
		renderer:   renderer,
		styles:     styles,
		slab:       newSlab(),
		table:      sensorTable,
	}
}

// Init issues the first fetch and starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchSnapshot, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchSnapshot queries the agent for status and the hardware tree.
// Runs on a command goroutine; the result comes back as a message.
func (m Model) fetchSnapshot() tea.Msg {
	ctx, cancel := context.WithTimeout(m.ctx, fetchTimeout)
	defer cancel()

	var status agent.Status
	if err := m.connection.Call(ctx, "status", nil, &status); err != nil {
		return fetchErrorMsg{err: err}
	}

	var response agent.HardwareResponse
	if err := m.connection.Call(ctx, "hardware", nil, &response); err != nil {
		return fetchErrorMsg{err: err}
	}

	return snapshotMsg{status: status, rows: flattenNodes(response.Nodes)}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		if m.paused {
			return m, m.tick()
		}
		return m, tea.Batch(m.fetchSnapshot, m.tick())

	case snapshotMsg:
		m.status = msg.status
		m.rows = msg.rows
		m.err = nil
		m.applyFilter()
		return m, nil

	case fetchErrorMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey routes keys by focus: filter editing captures everything
// while active; otherwise app-level bindings run first and the rest
// goes to the table's own navigation key map.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filter.Active {
		switch msg.Type {
		case tea.KeyEscape:
			m.filter.Clear()
			m.applyFilter()
			m.resize()
		case tea.KeyEnter:
			// Confirm: keep the query, return keys to the table.
			m.filter.Active = false
			m.resize()
		case tea.KeyBackspace:
			if m.filter.HandleBackspace() {
				m.applyFilter()
			}
		case tea.KeySpace:
			m.filter.HandleRune(' ')
			m.applyFilter()
		case tea.KeyRunes:
			for _, character := range msg.Runes {
				m.filter.HandleRune(character)
			}
			m.applyFilter()
		case tea.KeyCtrlC:
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.FilterActivate):
		m.filter.Active = true
		m.resize()
		return m, nil

	case key.Matches(msg, m.keys.FilterClear):
		if m.filter.Visible() {
			m.filter.Clear()
			m.applyFilter()
			m.resize()
		}
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		m.paused = !m.paused
		if !m.paused {
			// Catch up immediately instead of waiting out the tick.
			return m, m.fetchSnapshot
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// applyFilter recomputes the filtered view and pushes it into the
// table, clamping the cursor when the view shrinks.
func (m *Model) applyFilter() {
	m.matches = filterRows(m.rows, m.filter.Input, m.slab)
	m.table.SetRows(tableRows(m.matches))
	if cursor := m.table.Cursor(); cursor >= len(m.matches) {
		if len(m.matches) == 0 {
			m.table.SetCursor(0)
		} else {
			m.table.SetCursor(len(m.matches) - 1)
		}
	}
}

// resize recomputes the table geometry from the window size and the
// current chrome (the filter bar comes and goes).
func (m *Model) resize() {
	if !m.ready {
		return
	}
	m.table.SetColumns(layoutColumns(m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(m.tableHeight())
}

// tableHeight is the window height minus the fixed chrome: header,
// optional filter bar, detail line, status bar.
func (m *Model) tableHeight() int {
	chrome := 3
	if m.filter.Visible() {
		chrome++
	}
	height := m.height - chrome
	if height < 4 {
		height = 4
	}
	return height
}

// defaultWidth sizes the table before the first WindowSizeMsg.
const defaultWidth = 80

// layoutColumns distributes the window width over the five columns.
// Class, type, and value are fixed; hardware and sensor name split
// the rest 2:3. Every column costs two extra cells of padding.
func layoutColumns(width int) []table.Column {
	const (
		classWidth = 11
		typeWidth  = 11
		valueWidth = 13
		padding    = 2
	)
	remaining := width - (classWidth + typeWidth + valueWidth + 5*padding)
	if remaining < 20 {
		remaining = 20
	}
	hardwareWidth := remaining * 2 / 5
	sensorWidth := remaining - hardwareWidth

	return []table.Column{
		{Title: "CLASS", Width: classWidth},
		{Title: "HARDWARE", Width: hardwareWidth},
		{Title: "SENSOR", Width: sensorWidth},
		{Title: "TYPE", Width: typeWidth},
		{Title: "VALUE", Width: valueWidth},
	}
}

// tableRows converts the filtered matches into display rows.
func tableRows(matches []rowMatch) []table.Row {
	rows := make([]table.Row, len(matches))
	for index, match := range matches {
		row := match.Row
		rows[index] = table.Row{row.Class, row.Hardware, row.Sensor, row.Type, formatValue(row)}
	}
	return rows
}

// formatValue renders a row's reading with its unit, or "-" while the
// sensor has no value (rate sensors before their second refresh).
func formatValue(row sensorRow) string {
	if row.Value == nil {
		return "-"
	}
	if sensorType, ok := hwtree.ParseSensorType(row.Type); ok {
		return sensorType.FormatValue(*row.Value)
	}
	return strconv.FormatFloat(*row.Value, 'g', -1, 64)
}
