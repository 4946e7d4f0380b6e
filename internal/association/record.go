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

// Package association contains definitions related to gene pair association
// (mutual exclusivity and co-occurrence) results.
package association

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	// NotComputed is the marker used upstream when no log odds ratio could be
	// computed for a gene pair.
	NotComputed = "--"

	// Saturation is the magnitude upstream assigns to log odds ratios that fall
	// outside the displayable range of [-3, 3].
	Saturation = 4
)

// Record is a single gene pair association result.
type Record struct {
	GeneA        string    `json:"geneA" db:"gene_a"`
	GeneB        string    `json:"geneB" db:"gene_b"`
	PValue       float64   `json:"p_value" db:"p_value"`
	LogOddsRatio OddsRatio `json:"log_odds_ratio" db:"log_odds_ratio"`
	Association  string    `json:"association" db:"association"`
}

func (record Record) String() string {
	return fmt.Sprintf("[%s/%s p:%v lor:%v]", record.GeneA, record.GeneB, record.PValue, record.LogOddsRatio)
}

// OddsRatio is a log odds ratio that may not have been computed.
type OddsRatio struct {
	Value    float64
	Computed bool
}

// Ratio returns a computed log odds ratio of v.
func Ratio(v float64) OddsRatio {
	return OddsRatio{Value: v, Computed: true}
}

// Saturated reports whether the ratio holds one of the saturation sentinels
// and, if so, its sign.
func (ratio OddsRatio) Saturated() (bool, int) {
	switch {
	case !ratio.Computed:
		return false, 0
	case ratio.Value == Saturation:
		return true, 1
	case ratio.Value == -Saturation:
		return true, -1
	}
	return false, 0
}

func (ratio OddsRatio) String() string {
	if !ratio.Computed {
		return NotComputed
	}
	return strconv.FormatFloat(ratio.Value, 'f', -1, 64)
}

// MarshalJSON encodes a computed ratio as a number and a missing one as the
// NotComputed marker.
func (ratio OddsRatio) MarshalJSON() ([]byte, error) {
	if !ratio.Computed {
		return json.Marshal(NotComputed)
	}
	return json.Marshal(ratio.Value)
}

// UnmarshalJSON accepts a JSON number, a numeric string or the NotComputed
// marker.  null reads as not computed, like a NULL column.
func (ratio *OddsRatio) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*ratio = OddsRatio{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return ratio.parse(s)
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("log odds ratio: %v", err)
	}
	*ratio = Ratio(v)
	return nil
}

// Scan implements sql.Scanner.  NULL is read as not computed.
func (ratio *OddsRatio) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*ratio = OddsRatio{}
	case float64:
		*ratio = Ratio(v)
	case float32:
		*ratio = Ratio(float64(v))
	case int64:
		*ratio = Ratio(float64(v))
	case int32:
		*ratio = Ratio(float64(v))
	case []byte:
		return ratio.parse(string(v))
	case string:
		return ratio.parse(v)
	default:
		return fmt.Errorf("log odds ratio: unsupported type %T", src)
	}
	return nil
}

func (ratio *OddsRatio) parse(s string) error {
	if s == NotComputed {
		*ratio = OddsRatio{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("log odds ratio %q: %v", s, err)
	}
	*ratio = Ratio(v)
	return nil
}
