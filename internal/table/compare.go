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

// pValueBelowKey sorts "<0.001" under every literal p-value that can be
// displayed, all of which are at least 0.001.
const pValueBelowKey = 0.0009

// OddsRatioKey is the sort key of an odds ratio cell: -3 for "<-3", 3 for
// ">3" and the value otherwise.
func OddsRatioKey(c Cell) float64 {
	switch c.Text {
	case OddsRatioBelow:
		return -3
	case OddsRatioAbove:
		return 3
	}
	return c.Value
}

// PValueKey is the sort key of a p-value cell: 0.0009 for "<0.001" and the
// value otherwise.
func PValueKey(c Cell) float64 {
	if c.Text == PValueBelow {
		return pValueBelowKey
	}
	return c.Value
}

// CompareOddsRatios orders odds ratio cells ascending by OddsRatioKey.
func CompareOddsRatios(a, b Cell) int {
	return compareKeys(OddsRatioKey(a), OddsRatioKey(b))
}

// ComparePValues orders p-value cells ascending by PValueKey.
func ComparePValues(a, b Cell) int {
	return compareKeys(PValueKey(a), PValueKey(b))
}

// Reverse mirrors an ascending cell comparison into a descending one.
func Reverse(cmp func(a, b Cell) int) func(a, b Cell) int {
	return func(a, b Cell) int {
		return cmp(b, a)
	}
}

func compareKeys(x, y float64) int {
	switch {
	case x > y:
		return 1
	case x < y:
		return -1
	}
	return 0
}
