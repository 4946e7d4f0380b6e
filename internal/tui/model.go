// Copyright 2019 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tui renders the association table in a terminal.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tbl "github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/mutex/internal/association"
	"github.com/googlegenomics/mutex/internal/grid"
	"github.com/googlegenomics/mutex/internal/mutex"
	"github.com/googlegenomics/mutex/internal/table"
)

// chrome is the number of lines around the table: checkboxes, summary,
// info footer and key help.
const chrome = 6

var (
	highlight = lipgloss.Color(table.Highlight)

	titleStyle   = lipgloss.NewStyle().Bold(true)
	checkedStyle = lipgloss.NewStyle().Foreground(highlight).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CC3333"))
	helpStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(highlight).Padding(0, 1)
)

// loadedMsg reports the end of view initialization.
type loadedMsg struct {
	err error
}

// readyMsg reports that the view can be resized to width cells.
type readyMsg struct {
	width int
	err   error
}

// Model is the bubbletea model of the association table.  Must be created
// with New.
type Model struct {
	ctx  context.Context
	src  association.Source
	view *mutex.View

	table   tbl.Model
	spinner spinner.Model
	search  textinput.Model
	keys    keyMap

	loading   bool
	searching bool
	help      bool
	err       error
	status    string

	width, height int
}

// New returns a model that loads the associations from src when started.
func New(ctx context.Context, src association.Source, options ...mutex.Option) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(highlight)

	search := textinput.New()
	search.Placeholder = "Search Gene"
	search.Prompt = "/ "
	search.CharLimit = 100

	styles := tbl.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderForeground(highlight)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#FFFFFF")).Background(highlight)

	return &Model{
		ctx:     ctx,
		src:     src,
		view:    mutex.New(options...),
		table:   tbl.New(tbl.WithFocused(true), tbl.WithStyles(styles)),
		spinner: s,
		search:  search,
		keys:    defaultKeyMap(),
		loading: true,
	}
}

// Init starts loading the associations.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load)
}

func (m *Model) load() tea.Msg {
	return loadedMsg{m.view.Init(m.ctx, m.src)}
}

// waitReady returns a command that waits for the view to be initialized
// before reporting the new width.  Only the ready channel is touched off the
// UI goroutine.
func (m *Model) waitReady(width int) tea.Cmd {
	return func() tea.Msg {
		return readyMsg{width, m.view.WaitReady(m.ctx)}
	}
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		log.WithField("records", m.view.Records()).Debug("Loaded associations")
		m.resize()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, m.waitReady(msg.Width)

	case readyMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("resize skipped: %v", msg.err)
			return m, nil
		}
		if msg.width == m.width {
			m.resize()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch msg.Type {
		case tea.KeyEnter:
			m.searching = false
			m.search.Blur()
			m.view.Search(m.search.Value())
			m.refresh()
			return m, nil
		case tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			m.search.SetValue("")
			m.view.Search("")
			m.refresh()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.loading || m.err != nil {
		return m, nil
	}

	filter := m.view.Filter()
	switch {
	case key.Matches(msg, m.keys.Mutex):
		filter.ShowMutex = !filter.ShowMutex
		m.setFilter(filter)
		return m, nil
	case key.Matches(msg, m.keys.CoOc):
		filter.ShowCoOc = !filter.ShowCoOc
		m.setFilter(filter)
		return m, nil
	case key.Matches(msg, m.keys.Significant):
		filter.SignificantOnly = !filter.SignificantOnly
		m.setFilter(filter)
		return m, nil
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Help):
		m.help = !m.help
		return m, nil
	}
	for _, sort := range m.keys.Sort {
		if key.Matches(msg, sort.Binding) {
			m.sortBy(sort.column)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) setFilter(state table.FilterState) {
	m.view.SetFilter(state)
	log.WithField("state", state.Label()).Debug("Filter changed")
	m.resize()
}

// sortBy orders by column, flipping the direction when it is already the
// sort column.
func (m *Model) sortBy(column string) {
	dir := grid.Ascending
	if current, currentDir := m.view.Order(); current == column && currentDir == grid.Ascending {
		dir = grid.Descending
	}
	if err := m.view.SortBy(column, dir); err != nil {
		m.status = err.Error()
		return
	}
	m.refresh()
}

// resize fits the columns to the terminal width and refreshes the rows.
// Must only be called once the view is initialized.
func (m *Model) resize() {
	columns := len(table.Columns())
	padding := 2 * columns
	if _, err := m.view.Resize(m.ctx, m.width-padding); err != nil {
		m.status = err.Error()
		return
	}
	m.status = ""
	if m.height > chrome+2 {
		m.table.SetHeight(m.height - chrome - 2)
	}
	m.refresh()
}

// refresh copies the visible rows and the current widths into the table.
func (m *Model) refresh() {
	widths := m.view.Widths()
	sortKey, dir := m.view.Order()

	var columns []tbl.Column
	for i, header := range m.view.Headers() {
		title := header.Title
		if header.Key == sortKey {
			if dir == grid.Descending {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		columns = append(columns, tbl.Column{Title: title, Width: widths[i]})
	}

	var rows []tbl.Row
	for _, row := range m.view.Visible() {
		rows = append(rows, tbl.Row(row.Strings()))
	}

	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	// An empty table would move the cursor before the first row.
	if len(rows) > 0 {
		m.table.SetCursor(0)
	}
}

// View renders the model.
func (m *Model) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Failed to load associations: %v", m.err)) + "\n"
	}
	if m.loading {
		return fmt.Sprintf("%s Loading associations...\n", m.spinner.View())
	}

	var b strings.Builder
	b.WriteString(m.checkboxes() + "\n")
	b.WriteString(m.summary() + "\n")
	b.WriteString(m.table.View() + "\n")
	b.WriteString(dimStyle.Render(m.view.Info().String()))
	if m.status != "" {
		b.WriteString("  " + errorStyle.Render(m.status))
	}
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View() + "\n")
	}
	if m.help {
		b.WriteString(m.tooltips() + "\n")
	}
	b.WriteString(dimStyle.Render(m.footer()))
	return b.String()
}

func (m *Model) checkboxes() string {
	filter := m.view.Filter()
	box := func(checked bool, label string) string {
		if checked {
			return checkedStyle.Render("[x] " + label)
		}
		return "[ ] " + label
	}
	return strings.Join([]string{
		box(filter.ShowMutex, "Mutual exclusive"),
		box(filter.ShowCoOc, "Co-occurrence"),
		box(filter.SignificantOnly, "Significant pairs"),
	}, "   ")
}

func (m *Model) summary() string {
	var parts []string
	for _, slot := range m.view.Summary().Slots() {
		parts = append(parts, fmt.Sprintf("%s: %s", slot.Label, titleStyle.Render(slot.Value)))
	}
	return strings.Join(parts, " | ")
}

func (m *Model) tooltips() string {
	var sections []string
	for _, header := range m.view.Headers() {
		if header.Tooltip == nil {
			continue
		}
		sections = append(sections, titleStyle.Render(header.Title)+"\n"+strings.Join(header.Tooltip.Lines(), "\n"))
	}
	return helpStyle.Render(strings.Join(sections, "\n\n"))
}

func (m *Model) footer() string {
	var parts []string
	for _, binding := range m.keys.bindings() {
		help := binding.Help()
		parts = append(parts, help.Key+" "+help.Desc)
	}
	return strings.Join(parts, " • ")
}
