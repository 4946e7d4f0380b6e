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

package association

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"golang.org/x/sync/errgroup"
)

// Stats holds the precomputed pair counts shown next to the table.
type Stats struct {
	NumMutex         int `json:"num_of_mutex" db:"num_of_mutex"`
	NumSigMutex      int `json:"num_of_sig_mutex" db:"num_of_sig_mutex"`
	NumCoOc          int `json:"num_of_co_oc" db:"num_of_co_oc"`
	NumSigCoOc       int `json:"num_of_sig_co_oc" db:"num_of_sig_co_oc"`
	NumNoAssociation int `json:"num_of_no_association" db:"num_of_no_association"`
}

// Source is an interface to a supplier of association results.
type Source interface {
	// Records returns the association records in their source order.
	Records(ctx context.Context) ([]Record, error)
	// Stats returns the summary counts for the same result set.
	Stats(ctx context.Context) (Stats, error)
}

// Dataset is an in-memory result set.  It satisfies Source and is safe for
// concurrent use as long as it is not modified.
type Dataset struct {
	records []Record
	stats   Stats
}

// document is the JSON layout read by Decode.
type document struct {
	Records []Record `json:"records"`
	Stats   Stats    `json:"stats"`
}

// NewDataset returns a Dataset holding records and stats.
func NewDataset(records []Record, stats Stats) *Dataset {
	return &Dataset{records: records, stats: stats}
}

// Len returns the number of records in the dataset.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of the records held by the dataset.
func (d *Dataset) Records(context.Context) ([]Record, error) {
	return append([]Record(nil), d.records...), nil
}

// Stats returns the summary counts held by the dataset.
func (d *Dataset) Stats(context.Context) (Stats, error) {
	return d.stats, nil
}

// Load reads records and stats from src concurrently and returns them as a
// Dataset.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	var (
		records []Record
		stats   Stats
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if records, err = src.Records(ctx); err != nil {
			return fmt.Errorf("reading records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if stats, err = src.Stats(ctx); err != nil {
			return fmt.Errorf("reading stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewDataset(records, stats), nil
}

// Decode reads a JSON document of the form {"records": [...], "stats": {...}}
// from r and validates every record.
func Decode(r io.Reader) (*Dataset, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding dataset: %v", err)
	}
	for i, record := range doc.Records {
		if err := Validate(record); err != nil {
			return nil, fmt.Errorf("record %d: %v", i, err)
		}
	}
	return NewDataset(doc.Records, doc.Stats), nil
}

// Validate checks that record names both genes, has a p-value in [0, 1] and,
// when computed, a finite log odds ratio.
func Validate(record Record) error {
	if record.GeneA == "" || record.GeneB == "" {
		return fmt.Errorf("missing gene name in %s", record)
	}
	if math.IsNaN(record.PValue) || record.PValue < 0 || record.PValue > 1 {
		return fmt.Errorf("p-value %v out of range", record.PValue)
	}
	if record.LogOddsRatio.Computed && (math.IsNaN(record.LogOddsRatio.Value) || math.IsInf(record.LogOddsRatio.Value, 0)) {
		return fmt.Errorf("log odds ratio %v is not finite", record.LogOddsRatio.Value)
	}
	return nil
}
