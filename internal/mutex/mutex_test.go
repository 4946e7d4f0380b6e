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
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/googlegenomics/mutex/internal/association"
	"github.com/googlegenomics/mutex/internal/grid"
	"github.com/googlegenomics/mutex/internal/table"
)

var testRecords = []association.Record{
	{GeneA: "TP53", GeneB: "MDM2", PValue: 0.2, LogOddsRatio: association.Ratio(0.4), Association: "Tendency towards co-occurrence"},
	{GeneA: "KRAS", GeneB: "NRAS", PValue: 0.0001, LogOddsRatio: association.Ratio(-4), Association: "Tendency towards mutual exclusivity (Significant)"},
	{GeneA: "EGFR", GeneB: "ERBB2", PValue: 0.01, LogOddsRatio: association.Ratio(1.3), Association: "Tendency towards co-occurrence (Significant)"},
	{GeneA: "BRAF", GeneB: "NRAS", PValue: 0.5, LogOddsRatio: association.Ratio(-0.2), Association: "Tendency towards mutual exclusivity"},
	{GeneA: "APC", GeneB: "TTN", PValue: 0.9, Association: "n/a"},
}

var testStats = association.Stats{NumMutex: 2, NumSigMutex: 1, NumCoOc: 2, NumSigCoOc: 1}

type failingSource struct{ err error }

func (f failingSource) Records(context.Context) ([]association.Record, error) { return nil, f.err }
func (f failingSource) Stats(context.Context) (association.Stats, error) {
	return association.Stats{}, nil
}

func genes(rows []table.Row) []string {
	var out []string
	for _, row := range rows {
		out = append(out, row.GeneA)
	}
	return out
}

func openTestView(t *testing.T) *View {
	t.Helper()
	v, err := Open(context.Background(), association.NewDataset(testRecords, testStats))
	require.NoError(t, err)
	return v
}

func TestOpen(t *testing.T) {
	v := openTestView(t)

	assert.Equal(t, []string{"KRAS", "EGFR", "TP53", "BRAF"}, genes(v.Visible()))
	assert.Equal(t, table.DefaultFilter, v.Filter())
	assert.Equal(t, 5, v.Records())
	assert.Equal(t, grid.Info{Shown: 4, Total: 4}, v.Info())

	key, dir := v.Order()
	assert.Equal(t, table.KeyPValue, key)
	assert.Equal(t, grid.Ascending, dir)

	select {
	case <-v.Ready():
	default:
		t.Error("Ready channel not closed after Open")
	}
}

func TestOpen_PropagatesSourceErrors(t *testing.T) {
	errBackend := errors.New("backend unavailable")
	_, err := Open(context.Background(), failingSource{errBackend})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBackend), "got %v", err)
}

func TestInit_Twice(t *testing.T) {
	v := openTestView(t)
	assert.Error(t, v.Init(context.Background(), association.NewDataset(nil, association.Stats{})))
}

func TestView_SetFilter(t *testing.T) {
	v := openTestView(t)

	testCases := []struct {
		state table.FilterState
		want  []string
	}{
		{table.FilterState{ShowMutex: true}, []string{"KRAS", "BRAF"}},
		{table.FilterState{ShowMutex: true, SignificantOnly: true}, []string{"KRAS"}},
		{table.FilterState{ShowCoOc: true, SignificantOnly: true}, []string{"EGFR"}},
		{table.FilterState{ShowMutex: true, ShowCoOc: true, SignificantOnly: true}, []string{"KRAS", "EGFR"}},
		{table.FilterState{SignificantOnly: true}, nil},
		{table.DefaultFilter, []string{"KRAS", "EGFR", "TP53", "BRAF"}},
	}
	// Transitions run in sequence so stale column filters would show up.
	for _, tc := range testCases {
		v.SetFilter(tc.state)
		assert.Equal(t, tc.want, genes(v.Visible()), tc.state.Label())
		assert.Equal(t, tc.state, v.Filter())
	}
}

func TestView_SetFilter_AllTransitions(t *testing.T) {
	var states []table.FilterState
	for i := 0; i < 8; i++ {
		states = append(states, table.FilterState{ShowMutex: i&1 != 0, ShowCoOc: i&2 != 0, SignificantOnly: i&4 != 0})
	}
	for _, from := range states {
		for _, to := range states {
			v := openTestView(t)
			v.SetFilter(from)
			require.NotPanics(t, func() { v.SetFilter(to) })

			want := openTestView(t)
			want.SetFilter(to)
			assert.Equal(t, genes(want.Visible()), genes(v.Visible()), "%s -> %s", from.Label(), to.Label())
		}
	}
}

func TestView_SortAndSearch(t *testing.T) {
	v := openTestView(t)

	require.NoError(t, v.SortBy(table.KeyOddsRatio, grid.Descending))
	assert.Equal(t, []string{"EGFR", "TP53", "BRAF", "KRAS"}, genes(v.Visible()))

	assert.Error(t, v.SortBy("nope", grid.Ascending))

	v.Search("nras")
	assert.Equal(t, []string{"BRAF", "KRAS"}, genes(v.Visible()))
	assert.Equal(t, "Showing 2 of 4 entries", v.Info().String())
}

func TestView_Resize(t *testing.T) {
	v := openTestView(t)

	natural, err := v.Resize(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, natural, len(table.Columns()))

	sum := 0
	for _, w := range natural {
		sum += w
	}
	widths, err := v.Resize(context.Background(), sum+20)
	require.NoError(t, err)
	total := 0
	for _, w := range widths {
		total += w
	}
	assert.Equal(t, sum+20, total)
	assert.Equal(t, widths, v.Widths())
}

func TestView_ResizeBeforeInit(t *testing.T) {
	v := New(WithResizeTimeout(10 * time.Millisecond))
	_, err := v.Resize(context.Background(), 80)
	assert.Equal(t, ErrGridNotReady, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v = New()
	_, err = v.Resize(ctx, 80)
	assert.True(t, errors.Is(err, ErrGridNotReady))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestView_ResizeWaitsForInit(t *testing.T) {
	v := New()
	done := make(chan error)
	go func() {
		done <- v.WaitReady(context.Background())
	}()
	require.NoError(t, v.Init(context.Background(), association.NewDataset(testRecords, testStats)))
	assert.NoError(t, <-done)
}

func TestSummary(t *testing.T) {
	summary := NewSummary(testStats)
	var values []string
	for _, slot := range summary.Slots() {
		values = append(values, slot.Value)
	}
	assert.Equal(t, []string{"2", "1", "2", "1", "none"}, values)
	assert.Equal(t, "num_of_no_association", summary.NoAssociation.ID)
}

func TestHeaders(t *testing.T) {
	headers := openTestView(t).Headers()
	require.Len(t, headers, 5)

	var helped []string
	for _, h := range headers {
		if h.Tooltip != nil {
			helped = append(helped, h.Key)
		}
	}
	assert.Equal(t, []string{table.KeyPValue, table.KeyOddsRatio, table.KeyAssociation}, helped)
	assert.Equal(t, "p-value-help", headers[table.PValue].Tooltip.Target)
}

func TestDelay_MarshalJSON(t *testing.T) {
	got, err := json.Marshal(Tooltip{HideDelay: Delay(100 * time.Millisecond)})
	require.NoError(t, err)
	assert.Contains(t, string(got), `"hideDelay":100,`)
}

func TestTooltips(t *testing.T) {
	tips := Tooltips()
	require.Len(t, tips, 3)
	for _, tip := range tips {
		assert.Equal(t, "mouseover", tip.ShowOn)
		assert.Equal(t, "mouseout", tip.HideOn)
		assert.Equal(t, Delay(100*time.Millisecond), tip.HideDelay)
		assert.True(t, tip.Fixed)
		assert.Equal(t, Position{My: "left bottom", At: "top right"}, tip.Position)
	}

	html := string(tips[2].HTML())
	assert.Equal(t, 3, strings.Count(html, "<li>"), html)
	assert.Contains(t, html, "Significant association")
	assert.Equal(t, []string{
		"Log odds ratio > 0: Association towards co-occurrence",
		"Log odds ratio <= 0: Association towards mutual exclusivity",
		"p-Value < 0.05: Significant association",
	}, tips[2].Lines())
}
