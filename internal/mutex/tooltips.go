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

package mutex

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"

	"github.com/googlegenomics/mutex/internal/table"
)

// Position anchors a tooltip: the My corner of the tooltip is placed on the
// At corner of its icon.
type Position struct {
	My string `json:"my"`
	At string `json:"at"`
}

// Tooltip is the help shown when hovering the icon in a column header.
type Tooltip struct {
	// Target is the id of the help icon.
	Target string `json:"target"`
	Column int    `json:"column"`
	// Text is Markdown.
	Text      string `json:"text"`
	Wide      bool   `json:"wide"`
	ShowOn    string `json:"showOn"`
	HideOn    string `json:"hideOn"`
	HideDelay Delay  `json:"hideDelay"`
	// Fixed keeps the tooltip open while the pointer is over it.
	Fixed    bool     `json:"fixed"`
	Position Position `json:"position"`
}

// Delay is a tooltip delay.  It is encoded in JSON as whole milliseconds.
type Delay time.Duration

// MarshalJSON implements json.Marshaler.
func (d Delay) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(time.Duration(d).Milliseconds(), 10)), nil
}

var anchor = Position{My: "left bottom", At: "top right"}

// Tooltips returns the header help for the p-value, odds ratio and
// association columns.
func Tooltips() []Tooltip {
	tips := []Tooltip{
		{
			Target: "p-value-help",
			Column: table.PValue,
			Text:   "Derived from Fisher Exact Test",
			Wide:   true,
		},
		{
			Target: "odds-ratio-help",
			Column: table.OddsRatio,
			Text: "Quantifies how strongly the presence or absence of alterations in gene A " +
				"are associated with the presence or absence of alterations in gene B in the selected tumors.",
		},
		{
			Target: "association-help",
			Column: table.Association,
			Text: "- Log odds ratio > 0: Association towards co-occurrence\n" +
				"- Log odds ratio <= 0: Association towards mutual exclusivity\n" +
				"- p-Value < 0.05: Significant association\n",
			Wide: true,
		},
	}
	for i := range tips {
		tips[i].ShowOn = "mouseover"
		tips[i].HideOn = "mouseout"
		tips[i].HideDelay = Delay(100 * time.Millisecond)
		tips[i].Fixed = true
		tips[i].Position = anchor
	}
	return tips
}

// HTML renders the tooltip text.
func (t Tooltip) HTML() template.HTML {
	return template.HTML(markdown.ToHTML([]byte(t.Text), nil, nil))
}

// Lines returns the tooltip text as plain lines for character-cell displays.
func (t Tooltip) Lines() []string {
	var lines []string
	for _, line := range strings.Split(strings.TrimSpace(t.Text), "\n") {
		lines = append(lines, strings.TrimPrefix(line, "- "))
	}
	return lines
}
