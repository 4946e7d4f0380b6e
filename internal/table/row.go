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

// Package table turns association records into display rows and defines how
// the association table sorts and filters them.
package table

import (
	"strconv"

	"github.com/googlegenomics/mutex/internal/association"
)

// Display tokens standing in for values outside the displayable range.
const (
	PValueBelow     = "<0.001"
	OddsRatioAbove  = ">3"
	OddsRatioBelow  = "<-3"
	pValueThreshold = 0.001
)

// Cell is a numeric cell that remembers the value it was rendered from.
type Cell struct {
	Value float64
	Text  string
}

// Literal reports whether the cell text is the plain rendering of its value
// rather than a sentinel token.
func (c Cell) Literal() bool {
	return c.Text != PValueBelow && c.Text != OddsRatioAbove && c.Text != OddsRatioBelow
}

// Data returns the cell as the grid data it stands for: a number for
// literal cells and the token otherwise.
func (c Cell) Data() interface{} {
	if c.Literal() {
		return c.Value
	}
	return c.Text
}

func (c Cell) String() string {
	return c.Text
}

// Row is one displayed gene pair.
type Row struct {
	GeneA       string
	GeneB       string
	PValue      Cell
	OddsRatio   Cell
	Association string
}

// Data returns the row as grid data in column order.
func (r Row) Data() []interface{} {
	return []interface{}{r.GeneA, r.GeneB, r.PValue.Data(), r.OddsRatio.Data(), r.Association}
}

// Strings returns the row as display text in column order.
func (r Row) Strings() []string {
	return []string{r.GeneA, r.GeneB, r.PValue.Text, r.OddsRatio.Text, r.Association}
}

// Convert returns one row per record whose log odds ratio was computed, in
// record order.
func Convert(records []association.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, record := range records {
		if !record.LogOddsRatio.Computed {
			continue
		}
		rows = append(rows, Row{
			GeneA:       record.GeneA,
			GeneB:       record.GeneB,
			PValue:      FormatPValue(record.PValue),
			OddsRatio:   FormatOddsRatio(record.LogOddsRatio.Value),
			Association: record.Association,
		})
	}
	return rows
}

// FormatPValue renders p-values below 0.001 as "<0.001".
func FormatPValue(p float64) Cell {
	if p < pValueThreshold {
		return Cell{Value: p, Text: PValueBelow}
	}
	return Cell{Value: p, Text: formatFloat(p)}
}

// FormatOddsRatio renders the saturation sentinels as ">3" and "<-3".
func FormatOddsRatio(v float64) Cell {
	saturated, sign := association.Ratio(v).Saturated()
	switch {
	case saturated && sign > 0:
		return Cell{Value: v, Text: OddsRatioAbove}
	case saturated:
		return Cell{Value: v, Text: OddsRatioBelow}
	}
	return Cell{Value: v, Text: formatFloat(v)}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
