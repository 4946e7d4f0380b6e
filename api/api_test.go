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

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	"github.com/googlegenomics/mutex/internal/association"
	"github.com/googlegenomics/mutex/internal/export"
	"github.com/googlegenomics/mutex/internal/source/gcs"
	"github.com/googlegenomics/mutex/internal/usage"
)

var testDataset = association.NewDataset([]association.Record{
	{GeneA: "TP53", GeneB: "MDM2", PValue: 0.2, LogOddsRatio: association.Ratio(0.4), Association: "Tendency towards co-occurrence"},
	{GeneA: "KRAS", GeneB: "NRAS", PValue: 0.0001, LogOddsRatio: association.Ratio(-4), Association: "Tendency towards mutual exclusivity (Significant)"},
	{GeneA: "EGFR", GeneB: "ERBB2", PValue: 0.01, LogOddsRatio: association.Ratio(1.3), Association: "Tendency towards co-occurrence (Significant)"},
	{GeneA: "BRAF", GeneB: "NRAS", PValue: 0.5, LogOddsRatio: association.Ratio(-0.2), Association: "Tendency towards mutual exclusivity"},
	{GeneA: "APC", GeneB: "TTN", PValue: 0.9, Association: "n/a"},
}, association.Stats{NumMutex: 2, NumSigMutex: 1, NumCoOc: 2, NumSigCoOc: 1})

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(newSource NewSourceFunc) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	NewServer(newSource).Export(router)
	return router
}

func testQuery(t *testing.T, handler http.Handler, url string) *http.Response {
	t.Helper()
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, url, nil))
	return w.Result()
}

func expectError(t *testing.T, name string, code int, resp *http.Response) {
	t.Helper()
	if got, want := resp.StatusCode, code; got != want {
		t.Errorf("Wrong status code: got %v, want %v", got, want)
	}
	body := make(map[string]interface{})
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Errorf("Failed to parse response: %v", err)
	}
	if got, want := body["error"], name; got != want {
		t.Errorf("Wrong 'error' field value: got %v, want %v", got, want)
	}
}

type tableBody struct {
	Headers []struct {
		Key     string `json:"key"`
		Tooltip *struct {
			Target string `json:"target"`
		} `json:"tooltip"`
	} `json:"headers"`
	Data   [][]interface{} `json:"data"`
	Styles []struct {
		BoldPValue bool `json:"boldPValue"`
	} `json:"styles"`
	Info struct {
		Shown int `json:"shown"`
		Total int `json:"total"`
	} `json:"info"`
	Filter string `json:"filter"`
	Widths []int  `json:"widths"`
	Order  struct {
		Key string `json:"key"`
		Dir string `json:"dir"`
	} `json:"order"`
}

func queryTable(t *testing.T, url string) tableBody {
	t.Helper()
	resp := testQuery(t, newRouter(StaticSource(testDataset)), url)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body tableBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func genes(body tableBody) []string {
	var out []string
	for _, row := range body.Data {
		out = append(out, row[0].(string))
	}
	return out
}

func TestTable_Defaults(t *testing.T) {
	body := queryTable(t, "/mutex/table")

	assert.Equal(t, []string{"KRAS", "EGFR", "TP53", "BRAF"}, genes(body))
	assert.Equal(t, "mutex+co-occurrence", body.Filter)
	assert.Equal(t, 4, body.Info.Shown)
	assert.Equal(t, 4, body.Info.Total)
	assert.Equal(t, "pValue", body.Order.Key)
	assert.Equal(t, "asc", body.Order.Dir)
	assert.Len(t, body.Widths, 5)
	require.Len(t, body.Headers, 5)
	assert.Nil(t, body.Headers[0].Tooltip)
	assert.Equal(t, "odds-ratio-help", body.Headers[3].Tooltip.Target)

	// Clamped cells are sent as their tokens, literal ones as numbers.
	assert.Equal(t, []interface{}{"KRAS", "NRAS", "<0.001", "<-3", "Tendency towards mutual exclusivity (Significant)"}, body.Data[0])
	assert.Equal(t, 0.01, body.Data[1][2])
	assert.True(t, body.Styles[0].BoldPValue)
	assert.False(t, body.Styles[2].BoldPValue)
}

func TestTable_Filters(t *testing.T) {
	testCases := []struct {
		name, url string
		want      []string
		filter    string
	}{
		{"mutex only", "/mutex/table?co_oc=false", []string{"KRAS", "BRAF"}, "mutex"},
		{"co-occurrence only", "/mutex/table?mutex=false", []string{"EGFR", "TP53"}, "co-occurrence"},
		{"significant", "/mutex/table?sig_only=true", []string{"KRAS", "EGFR"}, "mutex+co-occurrence, significant"},
		{"nothing", "/mutex/table?mutex=false&co_oc=false&sig_only=true", nil, "none, significant"},
		{"form checkbox checked", "/mutex/table?mutex=false&mutex=true&co_oc=false", []string{"KRAS", "BRAF"}, "mutex"},
		{"search", "/mutex/table?search=nras", []string{"KRAS", "BRAF"}, "mutex+co-occurrence"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body := queryTable(t, tc.url)
			assert.Equal(t, tc.want, genes(body))
			assert.Equal(t, tc.filter, body.Filter)
		})
	}
}

func TestTable_Sort(t *testing.T) {
	body := queryTable(t, "/mutex/table?sort=oddsRatio&dir=desc")
	assert.Equal(t, []string{"EGFR", "TP53", "BRAF", "KRAS"}, genes(body))
	assert.Equal(t, "oddsRatio", body.Order.Key)
	assert.Equal(t, "desc", body.Order.Dir)

	body = queryTable(t, "/mutex/table?sort=geneA")
	assert.Equal(t, []string{"BRAF", "EGFR", "KRAS", "TP53"}, genes(body))
}

func TestTable_Width(t *testing.T) {
	body := queryTable(t, "/mutex/table?width=200")
	total := 0
	for _, w := range body.Widths {
		total += w
	}
	assert.Equal(t, 200, total)

	body = queryTable(t, "/mutex/table?width=10000")
	total = 0
	for _, w := range body.Widths {
		assert.Positive(t, w)
		total += w
	}
	assert.Equal(t, 10000, total)
}

func TestInvalidInputs(t *testing.T) {
	testCases := []struct{ name, url string }{
		{"bad boolean", "/mutex/table?mutex=maybe"},
		{"unknown sort column", "/mutex/table?sort=nope"},
		{"bad direction", "/mutex/table?sort=pValue&dir=up"},
		{"negative width", "/mutex/table?width=-1"},
		{"huge width", "/mutex/table?width=9223372036854775807"},
		{"width above limit", "/mutex/table?width=10001"},
		{"bad export query", "/mutex/export?sig_only=x"},
		{"bad page query", "/mutex?co_oc=2x"},
	}
	router := newRouter(StaticSource(testDataset))
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "InvalidInput", http.StatusBadRequest, testQuery(t, router, tc.url))
		})
	}
}

func TestSummary(t *testing.T) {
	resp := testQuery(t, newRouter(StaticSource(testDataset)), "/mutex/summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var slots []struct{ ID, Label, Value string }
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&slots))
	require.Len(t, slots, 5)
	assert.Equal(t, "num_of_mutex", slots[0].ID)
	assert.Equal(t, "2", slots[0].Value)
	assert.Equal(t, "none", slots[4].Value)
}

func TestTooltips(t *testing.T) {
	resp := testQuery(t, newRouter(StaticSource(testDataset)), "/mutex/tooltips")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tips []struct {
		Target    string `json:"target"`
		HTML      string `json:"html"`
		ShowOn    string `json:"showOn"`
		HideDelay int    `json:"hideDelay"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tips))
	require.Len(t, tips, 3)
	assert.Equal(t, "p-value-help", tips[0].Target)
	assert.Contains(t, tips[0].HTML, "Fisher Exact Test")
	assert.Contains(t, tips[2].HTML, "<li>")
	assert.Equal(t, "mouseover", tips[1].ShowOn)
	// Delays are sent in milliseconds.
	assert.Equal(t, 100, tips[1].HideDelay)
}

func TestPage(t *testing.T) {
	resp := testQuery(t, newRouter(StaticSource(testDataset)), "/mutex?sig_only=false&sig_only=true")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(body)
	assert.Contains(t, page, `id="association-help"`)
	assert.Contains(t, page, `id="num_of_no_association">none<`)
	assert.Contains(t, page, "<b>KRAS</b>")
	assert.Contains(t, page, "<b>&lt;0.001</b>")
	assert.Contains(t, page, "Showing 2 of 4 entries")
	assert.NotContains(t, page, "TP53")
	assert.Contains(t, page, `name="sig_only" value="true" checked`)
}

func readPage(t *testing.T, handler http.Handler, url string) string {
	t.Helper()
	resp := testQuery(t, handler, url)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// sortLink returns the target of the header link sorting by key.
func sortLink(t *testing.T, page, key string) string {
	t.Helper()
	match := regexp.MustCompile(`href="(/mutex\?[^"]*sort=` + key + `[^"]*)"`).FindStringSubmatch(page)
	require.NotNil(t, match, "no sort link for %s", key)
	return html.UnescapeString(match[1])
}

func TestPage_SortLinks(t *testing.T) {
	router := newRouter(StaticSource(testDataset))

	page := readPage(t, router, "/mutex?co_oc=false&co_oc=false")
	link := sortLink(t, page, "oddsRatio")
	assert.Contains(t, link, "dir=asc")
	assert.Contains(t, link, "co_oc=false")

	page = readPage(t, router, link)
	assert.Contains(t, page, "Log Odds Ratio ▲")
	assert.NotContains(t, page, "TP53")
	assert.Less(t, strings.Index(page, "KRAS"), strings.Index(page, "BRAF"))
	assert.Contains(t, page, `name="sort" value="oddsRatio"`)

	// Following the link of the ascending column flips it.
	link = sortLink(t, page, "oddsRatio")
	assert.Contains(t, link, "dir=desc")
	page = readPage(t, router, link)
	assert.Contains(t, page, "Log Odds Ratio ▼")
	assert.Less(t, strings.Index(page, "BRAF"), strings.Index(page, "KRAS"))
	assert.Contains(t, page, `id="loading" hidden`)
}

func TestExport(t *testing.T) {
	resp := testQuery(t, newRouter(StaticSource(testDataset)), "/mutex/export?mutex=false")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.ContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "mutex.xlsx")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(export.Sheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "EGFR", rows[1][0])
	assert.Equal(t, "TP53", rows[2][0])
}

func TestHealthcheck(t *testing.T) {
	resp := testQuery(t, newRouter(StaticSource(testDataset)), "/healthcheck")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
}

func TestForwardOriginAndRequestID(t *testing.T) {
	router := newRouter(StaticSource(testDataset))

	req := httptest.NewRequest(http.MethodGet, "/mutex/tooltips", nil)
	req.Header.Set("Origin", "https://example.org")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://example.org", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	req.Header.Set(requestIDHeader, "abc")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(requestIDHeader))
}

func TestSourceErrors(t *testing.T) {
	missing := errors.New("connection refused")
	testCases := []struct {
		name       string
		newSource  NewSourceFunc
		errorName  string
		statusCode int
	}{
		{"missing token", func(*http.Request) (association.Source, error) {
			return nil, gcs.ErrMissingOrInvalidToken
		}, "PermissionDenied", http.StatusForbidden},
		{"unavailable backend", func(*http.Request) (association.Source, error) {
			return nil, missing
		}, "", http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp := testQuery(t, newRouter(tc.newSource), "/mutex/table")
			if tc.errorName == "" {
				assert.Equal(t, tc.statusCode, resp.StatusCode)
				return
			}
			expectError(t, tc.errorName, tc.statusCode, resp)
		})
	}
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Body:       http.NoBody,
	}, nil
}

func TestGoogleAPIInternalErrors(t *testing.T) {
	testCases := []struct {
		name       string
		transport  http.RoundTripper
		errorName  string
		statusCode int
	}{
		{"unauthorized", fixedStatus(http.StatusUnauthorized), "InvalidAuthentication", http.StatusUnauthorized},
		{"forbidden", fixedStatus(http.StatusForbidden), "PermissionDenied", http.StatusForbidden},
		{"not found", fixedStatus(http.StatusNotFound), "NotFound", http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := storage.NewClient(context.Background(),
				option.WithHTTPClient(&http.Client{Transport: tc.transport}))
			require.NoError(t, err)
			newClient := func(*http.Request) (gcs.Client, error) { return gcs.GCSClient{Client: client}, nil }
			newSource := gcs.NewSourceFunc(newClient, "testdata", "associations.json")

			resp := testQuery(t, newRouter(func(req *http.Request) (association.Source, error) {
				return newSource(req)
			}), "/mutex/table")
			expectError(t, tc.errorName, tc.statusCode, resp)
		})
	}
}

func TestUsageTracking(t *testing.T) {
	var hits []usage.Hit
	handler := usage.TrackingHandler(newRouter(StaticSource(testDataset)), func(h []usage.Hit) {
		hits = append(hits, h...)
	})

	testQuery(t, handler, "/mutex/table?sort=pValue&dir=desc&search=kras")
	testQuery(t, handler, "/mutex/export")

	var actions []string
	for _, hit := range hits {
		actions = append(actions, hit["ea"])
	}
	assert.Equal(t, []string{"Searched", "Sorted", "Table Requested", "Exported"}, actions)
}
