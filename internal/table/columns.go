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

import "github.com/googlegenomics/mutex/internal/grid"

// Column positions in the association table.
const (
	GeneA int = iota
	GeneB
	PValue
	OddsRatio
	Association
)

// Column keys accepted in sort queries.
const (
	KeyGeneA       = "geneA"
	KeyGeneB       = "geneB"
	KeyPValue      = "pValue"
	KeyOddsRatio   = "oddsRatio"
	KeyAssociation = "association"
)

// Columns returns the grid configuration of the association table.  Only the
// gene columns are searchable; the p-value and odds ratio columns order by
// their sort keys rather than their text.
func Columns() []grid.Column[Row] {
	return []grid.Column[Row]{
		GeneA: {
			Key:        KeyGeneA,
			Title:      "Gene A",
			Width:      100,
			Searchable: true,
			Text:       func(r Row) string { return r.GeneA },
		},
		GeneB: {
			Key:        KeyGeneB,
			Title:      "Gene B",
			Width:      100,
			Searchable: true,
			Text:       func(r Row) string { return r.GeneB },
		},
		PValue: {
			Key:   KeyPValue,
			Title: "p-Value",
			Width: 150,
			Text:  func(r Row) string { return r.PValue.Text },
			Ascending: func(a, b Row) int {
				return ComparePValues(a.PValue, b.PValue)
			},
			Descending: func(a, b Row) int {
				return Reverse(ComparePValues)(a.PValue, b.PValue)
			},
		},
		OddsRatio: {
			Key:   KeyOddsRatio,
			Title: "Log Odds Ratio",
			Width: 150,
			Text:  func(r Row) string { return r.OddsRatio.Text },
			Ascending: func(a, b Row) int {
				return CompareOddsRatios(a.OddsRatio, b.OddsRatio)
			},
			Descending: func(a, b Row) int {
				return Reverse(CompareOddsRatios)(a.OddsRatio, b.OddsRatio)
			},
		},
		Association: {
			Key:   KeyAssociation,
			Title: "Association",
			Width: 500,
			Text:  func(r Row) string { return r.Association },
		},
	}
}

// Headers returns the column titles in order.
func Headers() []string {
	columns := Columns()
	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = column.Title
	}
	return headers
}

// Highlight is the color of the p-value and odds ratio cells.
const Highlight = "#296CCF"

// Style describes how a row is emphasized.
type Style struct {
	BoldGenes      bool   `json:"boldGenes"`
	BoldPValue     bool   `json:"boldPValue"`
	PValueColor    string `json:"pValueColor"`
	OddsRatioColor string `json:"oddsRatioColor"`
}

// StyleOf returns the style of r: gene names are bold, the numeric cells are
// highlighted and the p-value of a significant pair is bold as well.
func StyleOf(r Row) Style {
	return Style{
		BoldGenes:      true,
		BoldPValue:     Significant(r),
		PValueColor:    Highlight,
		OddsRatioColor: Highlight,
	}
}
