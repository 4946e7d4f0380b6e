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

// Package export writes association table rows as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/googlegenomics/mutex/internal/table"
)

// Sheet is the name of the worksheet holding the table.
const Sheet = "Associations"

// ContentType is the MIME type of the documents written by WriteXLSX.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WriteXLSX writes headers and rows to w as a workbook with a single sheet.
// Literal p-values and odds ratios are stored as numbers and the clamped
// ones as their display text.
func WriteXLSX(w io.Writer, headers []string, rows []table.Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return fmt.Errorf("naming sheet: %v", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %v", err)
	}
	highlight, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: table.Highlight}})
	if err != nil {
		return fmt.Errorf("creating cell style: %v", err)
	}

	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(Sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %v", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(Sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %v", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		data := row.Data()
		if err := f.SetSheetRow(Sheet, cell, &data); err != nil {
			return fmt.Errorf("writing row %d: %v", i, err)
		}
	}
	if len(rows) > 0 {
		from, _ := excelize.CoordinatesToCellName(table.PValue+1, 2)
		to, _ := excelize.CoordinatesToCellName(table.OddsRatio+1, len(rows)+1)
		if err := f.SetCellStyle(Sheet, from, to, highlight); err != nil {
			return fmt.Errorf("styling rows: %v", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %v", err)
	}
	return nil
}
