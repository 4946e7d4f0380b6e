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

package table

import (
	"strings"

	"github.com/googlegenomics/mutex/internal/grid"
)

// significantMarker is the substring upstream puts in the association label
// of pairs with a significant p-value.
const significantMarker = "Significant"

// FilterState is the combination of the three filter checkboxes.
type FilterState struct {
	ShowMutex       bool
	ShowCoOc        bool
	SignificantOnly bool
}

// DefaultFilter is the state the checkboxes start in.
var DefaultFilter = FilterState{ShowMutex: true, ShowCoOc: true}

// ColumnFilters is the pair of filters a FilterState places on the grid.  A
// nil filter leaves its column unfiltered.
type ColumnFilters struct {
	OddsRatio   grid.Filter[Row]
	Association grid.Filter[Row]
}

// Columns returns the column filters for the state.
//
// With both directions hidden nothing can match, whatever SignificantOnly
// says; pairs without any association are never selectable by direction.
func (s FilterState) Columns() ColumnFilters {
	var filters ColumnFilters
	switch {
	case s.ShowMutex && s.ShowCoOc:
	case s.ShowMutex:
		filters.OddsRatio = Negative
	case s.ShowCoOc:
		filters.OddsRatio = Positive
	default:
		filters.OddsRatio = matchNothing
		return filters
	}
	if s.SignificantOnly {
		filters.Association = Significant
	}
	return filters
}

// Match reports whether r is visible in state s.
func (s FilterState) Match(r Row) bool {
	filters := s.Columns()
	if filters.OddsRatio != nil && !filters.OddsRatio(r) {
		return false
	}
	if filters.Association != nil && !filters.Association(r) {
		return false
	}
	return true
}

// Label names the state, e.g. "mutex+co-occurrence" or "co-occurrence,
// significant".
func (s FilterState) Label() string {
	var shown []string
	if s.ShowMutex {
		shown = append(shown, "mutex")
	}
	if s.ShowCoOc {
		shown = append(shown, "co-occurrence")
	}
	label := strings.Join(shown, "+")
	if label == "" {
		label = "none"
	}
	if s.SignificantOnly {
		label += ", significant"
	}
	return label
}

// Negative keeps pairs leaning towards mutual exclusivity, including "<-3".
func Negative(r Row) bool {
	return r.OddsRatio.Value < 0
}

// Positive keeps pairs leaning towards co-occurrence, including ">3".
func Positive(r Row) bool {
	return r.OddsRatio.Value > 0
}

// Significant keeps pairs whose association label marks them significant.
func Significant(r Row) bool {
	return strings.Contains(r.Association, significantMarker)
}

func matchNothing(Row) bool {
	return false
}
