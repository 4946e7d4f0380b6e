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

// Package grid provides a sortable and filterable data grid over rows of any
// type.
//
// Ordering is supplied per column at construction time, so a grid never
// consults shared state to decide how a column sorts.  A Grid is not safe for
// concurrent use.
package grid

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Direction is a sort direction.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

// ParseDirection parses "asc" or "desc".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "asc":
		return Ascending, nil
	case "desc":
		return Descending, nil
	}
	return Ascending, fmt.Errorf("unknown sort direction %q", s)
}

// Compare returns a negative number when a sorts before b, a positive number
// when it sorts after and zero when they tie.
type Compare[T any] func(a, b T) int

// Filter reports whether a row should remain visible.
type Filter[T any] func(T) bool

// Column describes one grid column.
type Column[T any] struct {
	// Key identifies the column in queries, e.g. "pValue".
	Key   string
	Title string
	// Width is the preferred display width.  Character-cell renderers use it
	// as a relative weight when distributing spare space.
	Width int
	// Searchable columns take part in Search.
	Searchable bool
	// Text renders the cell for display and search.
	Text func(T) string
	// Ascending and Descending order the column.  When nil, rows are ordered
	// by a case-insensitive comparison of Text.
	Ascending, Descending Compare[T]
}

// Info summarizes the visible portion of the grid.
type Info struct {
	Shown int `json:"shown"`
	Total int `json:"total"`
}

func (info Info) String() string {
	if info.Shown == info.Total {
		return fmt.Sprintf("Showing %d entries", info.Total)
	}
	return fmt.Sprintf("Showing %d of %d entries", info.Shown, info.Total)
}

// Grid holds rows bound to a column configuration.  Must be created with New.
type Grid[T any] struct {
	columns []Column[T]
	rows    []T
	filters []Filter[T]
	search  []string
	sortCol int
	sortDir Direction
	widths  []int
}

type options struct {
	sortCol int
	sortDir Direction
	sorted  bool
}

// Option configures a Grid at construction.
type Option func(*options)

// WithOrder sorts the grid by column col in direction dir once rows are bound.
func WithOrder(col int, dir Direction) Option {
	return func(o *options) {
		o.sortCol, o.sortDir, o.sorted = col, dir, true
	}
}

// New returns a grid over a copy of rows.  It panics if columns is empty or an
// ordering option names a column that does not exist.
func New[T any](columns []Column[T], rows []T, opts ...Option) *Grid[T] {
	if len(columns) == 0 {
		panic("grid: no columns")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g := &Grid[T]{
		columns: columns,
		rows:    append([]T(nil), rows...),
		filters: make([]Filter[T], len(columns)),
		sortCol: -1,
	}
	if o.sorted {
		if err := g.SortBy(o.sortCol, o.sortDir); err != nil {
			panic(fmt.Sprintf("grid: %v", err))
		}
	}
	g.AdjustColumnSizing(0)
	return g
}

// Columns returns the column configuration.
func (g *Grid[T]) Columns() []Column[T] {
	return g.columns
}

// ColumnIndex returns the index of the column with key, or -1.
func (g *Grid[T]) ColumnIndex(key string) int {
	for i, column := range g.columns {
		if column.Key == key {
			return i
		}
	}
	return -1
}

// SetFilter replaces the filter on column col.  A nil filter clears it.
func (g *Grid[T]) SetFilter(col int, filter Filter[T]) error {
	if err := g.check(col); err != nil {
		return err
	}
	g.filters[col] = filter
	return nil
}

// ClearFilter removes the filter on column col.
func (g *Grid[T]) ClearFilter(col int) error {
	return g.SetFilter(col, nil)
}

// ClearFilters removes every column filter.  The search text is kept.
func (g *Grid[T]) ClearFilters() {
	for i := range g.filters {
		g.filters[i] = nil
	}
}

// Search keeps rows where every whitespace separated word of text appears,
// ignoring case, in at least one searchable column.  An empty text clears the
// search.
func (g *Grid[T]) Search(text string) {
	g.search = strings.Fields(strings.ToLower(text))
}

// SortBy orders the rows by column col.  The sort is stable, so ties keep
// their previous relative order.
func (g *Grid[T]) SortBy(col int, dir Direction) error {
	if err := g.check(col); err != nil {
		return err
	}
	cmp := g.comparator(col, dir)
	sort.SliceStable(g.rows, func(i, j int) bool {
		return cmp(g.rows[i], g.rows[j]) < 0
	})
	g.sortCol, g.sortDir = col, dir
	return nil
}

// Order returns the current sort column and direction.  The column is -1 if
// the grid was never sorted.
func (g *Grid[T]) Order() (int, Direction) {
	return g.sortCol, g.sortDir
}

// Visible returns the rows passing every column filter and the search, in
// sort order.
func (g *Grid[T]) Visible() []T {
	visible := make([]T, 0, len(g.rows))
	for _, row := range g.rows {
		if g.keep(row) {
			visible = append(visible, row)
		}
	}
	return visible
}

// Info returns the number of visible rows and the total number of rows.
func (g *Grid[T]) Info() Info {
	var shown int
	for _, row := range g.rows {
		if g.keep(row) {
			shown++
		}
	}
	return Info{Shown: shown, Total: len(g.rows)}
}

// Widths returns the widths computed by the last AdjustColumnSizing call.
func (g *Grid[T]) Widths() []int {
	return append([]int(nil), g.widths...)
}

// AdjustColumnSizing recomputes column widths from the titles and the visible
// cells.  When total is positive the widths are stretched or shrunk to sum to
// total; spare space is shared in proportion to each column's preferred Width
// and shrinking takes from the widest columns first, never going below the
// title width.
func (g *Grid[T]) AdjustColumnSizing(total int) []int {
	widths := make([]int, len(g.columns))
	minimums := make([]int, len(g.columns))
	for i, column := range g.columns {
		minimums[i] = runewidth.StringWidth(column.Title)
		widths[i] = minimums[i]
	}
	for _, row := range g.Visible() {
		for i, column := range g.columns {
			if w := runewidth.StringWidth(column.Text(row)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	if total > 0 {
		sum := 0
		for _, w := range widths {
			sum += w
		}
		switch {
		case sum < total:
			g.stretch(widths, total-sum)
		case sum > total:
			shrink(widths, minimums, sum-total)
		}
	}

	g.widths = widths
	return append([]int(nil), widths...)
}

func (g *Grid[T]) stretch(widths []int, extra int) {
	weight := 0
	for _, column := range g.columns {
		weight += column.Width
	}
	if weight <= 0 {
		widths[len(widths)-1] += extra
		return
	}
	// extra*Width/weight split so that no intermediate product overflows.
	quotient, remainder := extra/weight, extra%weight
	given := 0
	for i, column := range g.columns {
		share := quotient*column.Width + remainder*column.Width/weight
		widths[i] += share
		given += share
	}
	widths[len(widths)-1] += extra - given
}

func shrink(widths, minimums []int, excess int) {
	for excess > 0 {
		widest := -1
		for i := range widths {
			if widths[i] > minimums[i] && (widest < 0 || widths[i] > widths[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			return
		}
		widths[widest]--
		excess--
	}
}

func (g *Grid[T]) keep(row T) bool {
	for _, filter := range g.filters {
		if filter != nil && !filter(row) {
			return false
		}
	}
	for _, word := range g.search {
		if !g.mentions(row, word) {
			return false
		}
	}
	return true
}

func (g *Grid[T]) mentions(row T, word string) bool {
	for _, column := range g.columns {
		if column.Searchable && strings.Contains(strings.ToLower(column.Text(row)), word) {
			return true
		}
	}
	return false
}

func (g *Grid[T]) comparator(col int, dir Direction) Compare[T] {
	column := g.columns[col]
	if dir == Descending && column.Descending != nil {
		return column.Descending
	}
	if dir == Ascending && column.Ascending != nil {
		return column.Ascending
	}
	text := func(a, b T) int {
		return strings.Compare(strings.ToLower(column.Text(a)), strings.ToLower(column.Text(b)))
	}
	if dir == Descending {
		return func(a, b T) int { return text(b, a) }
	}
	return text
}

func (g *Grid[T]) check(col int) error {
	if col < 0 || col >= len(g.columns) {
		return fmt.Errorf("column %d out of range [0, %d)", col, len(g.columns))
	}
	return nil
}
