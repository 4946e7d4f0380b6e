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
	"strconv"

	"github.com/googlegenomics/mutex/internal/association"
)

// Slot is one count in the summary panel.
type Slot struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Summary is the rendered summary panel.
type Summary struct {
	Mutex         Slot `json:"num_of_mutex"`
	SigMutex      Slot `json:"num_of_sig_mutex"`
	CoOc          Slot `json:"num_of_co_oc"`
	SigCoOc       Slot `json:"num_of_sig_co_oc"`
	NoAssociation Slot `json:"num_of_no_association"`
}

// NewSummary renders stats, writing "none" for zero counts.
func NewSummary(stats association.Stats) Summary {
	return Summary{
		Mutex:         Slot{"num_of_mutex", "Mutually exclusive pairs", count(stats.NumMutex)},
		SigMutex:      Slot{"num_of_sig_mutex", "Significant mutually exclusive pairs", count(stats.NumSigMutex)},
		CoOc:          Slot{"num_of_co_oc", "Co-occurrent pairs", count(stats.NumCoOc)},
		SigCoOc:       Slot{"num_of_sig_co_oc", "Significant co-occurrent pairs", count(stats.NumSigCoOc)},
		NoAssociation: Slot{"num_of_no_association", "Pairs with no association", count(stats.NumNoAssociation)},
	}
}

// Slots returns the five counts in display order.
func (s Summary) Slots() []Slot {
	return []Slot{s.Mutex, s.SigMutex, s.CoOc, s.SigCoOc, s.NoAssociation}
}

func count(n int) string {
	if n == 0 {
		return "none"
	}
	return strconv.Itoa(n)
}
