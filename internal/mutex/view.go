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

// Package mutex implements the mutual exclusivity / co-occurrence table view:
// it binds association records to a grid, applies the checkbox filters and
// exposes the summary panel and header help.
package mutex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/googlegenomics/mutex/internal/association"
	"github.com/googlegenomics/mutex/internal/grid"
	"github.com/googlegenomics/mutex/internal/table"
)

// DefaultResizeTimeout bounds how long Resize waits for the view to be
// initialized.
const DefaultResizeTimeout = 3 * time.Second

// ErrGridNotReady is returned by Resize and WaitReady when the view was not
// initialized in time.
var ErrGridNotReady = errors.New("grid not initialized")

// View is the association table.  Must be created with New and initialized
// with Init before use; Open does both.
//
// A View is owned by a single goroutine, except that WaitReady may be called
// from any goroutine.
type View struct {
	grid          *grid.Grid[table.Row]
	rows          []table.Row
	records       int
	summary       Summary
	filter        table.FilterState
	ready         chan struct{}
	resizeTimeout time.Duration
}

// Option configures a View.
type Option func(*View)

// WithResizeTimeout overrides DefaultResizeTimeout.
func WithResizeTimeout(d time.Duration) Option {
	return func(v *View) {
		v.resizeTimeout = d
	}
}

// New returns an uninitialized view.
func New(opts ...Option) *View {
	v := &View{
		ready:         make(chan struct{}),
		resizeTimeout: DefaultResizeTimeout,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Open returns a view initialized from src.
func Open(ctx context.Context, src association.Source, opts ...Option) (*View, error) {
	v := New(opts...)
	if err := v.Init(ctx, src); err != nil {
		return nil, err
	}
	return v, nil
}

// Init loads records and stats from src, builds the grid sorted by ascending
// p-value, applies the default filter and renders the summary.  Errors from
// src are returned unchanged apart from added context; the view stays
// uninitialized.
func (v *View) Init(ctx context.Context, src association.Source) error {
	select {
	case <-v.ready:
		return errors.New("view already initialized")
	default:
	}

	dataset, err := association.Load(ctx, src)
	if err != nil {
		return fmt.Errorf("loading associations: %w", err)
	}
	records, _ := dataset.Records(ctx)
	stats, _ := dataset.Stats(ctx)

	v.records = len(records)
	v.rows = table.Convert(records)
	v.grid = grid.New(table.Columns(), v.rows, grid.WithOrder(table.PValue, grid.Ascending))
	v.SetFilter(table.DefaultFilter)
	v.summary = NewSummary(stats)
	v.grid.AdjustColumnSizing(0)

	close(v.ready)
	return nil
}

// Ready returns a channel that is closed once Init has completed.
func (v *View) Ready() <-chan struct{} {
	return v.ready
}

// WaitReady blocks until the view is initialized, ctx is done or the resize
// timeout elapses.
func (v *View) WaitReady(ctx context.Context) error {
	select {
	case <-v.ready:
		return nil
	default:
	}

	timer := time.NewTimer(v.resizeTimeout)
	defer timer.Stop()
	select {
	case <-v.ready:
		return nil
	case <-timer.C:
		return ErrGridNotReady
	case <-ctx.Done():
		return fmt.Errorf("%v: %w", ErrGridNotReady, ctx.Err())
	}
}

// Resize waits for initialization and then recomputes the column widths to
// fit total cells, or to the natural content widths when total is not
// positive.
func (v *View) Resize(ctx context.Context, total int) ([]int, error) {
	if err := v.WaitReady(ctx); err != nil {
		return nil, err
	}
	return v.grid.AdjustColumnSizing(total), nil
}

// SetFilter clears both column filters and applies the pair for state.
// A nil filter in the pair leaves its column unfiltered.
func (v *View) SetFilter(state table.FilterState) {
	filters := state.Columns()
	v.setColumnFilter(table.OddsRatio, filters.OddsRatio)
	v.setColumnFilter(table.Association, filters.Association)
	v.filter = state
}

// setColumnFilter replaces the filter of col, one of the table.Columns
// indices the grid was built with.
func (v *View) setColumnFilter(col int, filter grid.Filter[table.Row]) {
	if err := v.grid.SetFilter(col, filter); err != nil {
		panic(fmt.Sprintf("mutex: %v", err))
	}
}

// Filter returns the current filter state.
func (v *View) Filter() table.FilterState {
	return v.filter
}

// Search restricts the rows to gene pairs mentioning every word of text.
func (v *View) Search(text string) {
	v.grid.Search(text)
}

// SortBy orders the table by the column with key.
func (v *View) SortBy(key string, dir grid.Direction) error {
	col := v.grid.ColumnIndex(key)
	if col < 0 {
		return fmt.Errorf("unknown column %q", key)
	}
	return v.grid.SortBy(col, dir)
}

// Order returns the key and direction of the current sort column.
func (v *View) Order() (string, grid.Direction) {
	col, dir := v.grid.Order()
	return v.grid.Columns()[col].Key, dir
}

// Visible returns the rows that pass the current filter and search in sort
// order.
func (v *View) Visible() []table.Row {
	return v.grid.Visible()
}

// Info returns the visible and total row counts.
func (v *View) Info() grid.Info {
	return v.grid.Info()
}

// Widths returns the column widths from the last resize.
func (v *View) Widths() []int {
	return v.grid.Widths()
}

// Records returns the number of records read from the source, including
// those without a computed odds ratio.
func (v *View) Records() int {
	return v.records
}

// Summary returns the summary panel rendered at initialization.
func (v *View) Summary() Summary {
	return v.summary
}

// Header is a table column heading.
type Header struct {
	Key     string   `json:"key"`
	Title   string   `json:"title"`
	Width   int      `json:"width"`
	Tooltip *Tooltip `json:"tooltip,omitempty"`
}

// Headers returns the column headings with their help tooltips attached.
func (v *View) Headers() []Header {
	tips := make(map[int]*Tooltip)
	for _, tip := range Tooltips() {
		tip := tip
		tips[tip.Column] = &tip
	}

	var headers []Header
	for i, column := range table.Columns() {
		headers = append(headers, Header{
			Key:     column.Key,
			Title:   column.Title,
			Width:   column.Width,
			Tooltip: tips[i],
		})
	}
	return headers
}
