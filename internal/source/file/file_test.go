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

package file

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "associations.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSource(t *testing.T) {
	path := writeFile(t, `{
  "records": [
    {"geneA": "TP53", "geneB": "MDM2", "p_value": 0.0005, "log_odds_ratio": 2.1, "association": "Tendency towards co-occurrence (Significant)"},
    {"geneA": "A", "geneB": "B", "p_value": 1, "log_odds_ratio": "--", "association": "n/a"}
  ],
  "stats": {"num_of_mutex": 0, "num_of_sig_mutex": 0, "num_of_co_oc": 1, "num_of_sig_co_oc": 1, "num_of_no_association": 1}
}`)
	src := New(path)
	ctx := context.Background()

	records, err := src.Records(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[1].LogOddsRatio.Computed)

	// The file is only read once.
	require.NoError(t, os.Remove(path))
	stats, err := src.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NumNoAssociation)
}

func TestSource_Errors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.json")).Records(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "got %v", err)

	path := writeFile(t, `{"records": [{"geneA": "", "geneB": "B", "p_value": 0.1, "log_odds_ratio": 1}]}`)
	_, err = New(path).Stats(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0")
}
