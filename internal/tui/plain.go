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

package tui

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/googlegenomics/mutex/internal/mutex"
	"github.com/googlegenomics/mutex/internal/table"
)

// WritePlain draws the summary and the visible rows of view to w without
// any terminal control sequences.
func WritePlain(w io.Writer, view *mutex.View) error {
	summary := tablewriter.NewWriter(w)
	summary.SetAutoWrapText(false)
	for _, slot := range view.Summary().Slots() {
		summary.Append([]string{slot.Label, slot.Value})
	}
	summary.Render()

	output := tablewriter.NewWriter(w)
	output.SetAutoFormatHeaders(false)
	output.SetAutoWrapText(false)
	output.SetHeader(table.Headers())
	for _, row := range view.Visible() {
		output.Append(row.Strings())
	}
	output.Render()

	_, err := fmt.Fprintf(w, "%s (%s)\n", view.Info(), view.Filter().Label())
	return err
}
