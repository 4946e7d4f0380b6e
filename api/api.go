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

// Package api serves the mutual exclusivity / co-occurrence table over HTTP:
// an HTML page, the table as JSON and a spreadsheet export.
package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"

	"github.com/googlegenomics/mutex/internal/association"
	"github.com/googlegenomics/mutex/internal/export"
	"github.com/googlegenomics/mutex/internal/grid"
	"github.com/googlegenomics/mutex/internal/mutex"
	"github.com/googlegenomics/mutex/internal/source/gcs"
	"github.com/googlegenomics/mutex/internal/table"
	"github.com/googlegenomics/mutex/internal/usage"
)

const (
	mutexPath = "/mutex"

	requestIDHeader = "X-Request-Id"

	// maxWidth bounds the width query parameter, in cells or pixels.
	maxWidth = 10000
)

//go:embed templates/*.html
var templates embed.FS

var page = template.Must(template.ParseFS(templates, "templates/mutex.html"))

// NewSourceFunc is the type of function that returns the association source
// to satisfy the incoming request.
type NewSourceFunc func(*http.Request) (association.Source, error)

// StaticSource returns a NewSourceFunc that serves src to every request.
func StaticSource(src association.Source) NewSourceFunc {
	return func(*http.Request) (association.Source, error) {
		return src, nil
	}
}

// Server serves the association table.  Must be created with NewServer.
type Server struct {
	newSource NewSourceFunc
	options   []mutex.Option
}

// NewServer returns a new Server that calls newSource on each request to
// determine where the associations are read from.  options configure the
// view built for each request.
func NewServer(newSource NewSourceFunc, options ...mutex.Option) *Server {
	return &Server{newSource, options}
}

// Export registers the table endpoints with router.
func (server *Server) Export(router gin.IRouter) {
	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	group := router.Group(mutexPath, forwardOrigin)
	group.GET("", server.servePage)
	group.GET("/table", server.serveTable)
	group.GET("/summary", server.serveSummary)
	group.GET("/tooltips", server.serveTooltips)
	group.GET("/export", server.serveExport)
}

// RequestID tags each request with a random ID, echoed in the X-Request-Id
// response header unless the client supplied one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// tableQuery holds the view state requested by a client.
type tableQuery struct {
	filter table.FilterState
	search string
	sort   string
	dir    grid.Direction
	width  int
}

func parseQuery(query url.Values) (tableQuery, error) {
	q := tableQuery{filter: table.DefaultFilter, search: query.Get("search")}

	checkboxes := []struct {
		name  string
		value *bool
	}{
		{"mutex", &q.filter.ShowMutex},
		{"co_oc", &q.filter.ShowCoOc},
		{"sig_only", &q.filter.SignificantOnly},
	}
	for _, checkbox := range checkboxes {
		// Forms send a hidden "false" followed by the checkbox value, so the
		// last value wins.
		values := query[checkbox.name]
		if len(values) == 0 {
			continue
		}
		b, err := strconv.ParseBool(values[len(values)-1])
		if err != nil {
			return tableQuery{}, fmt.Errorf("parsing %s: %v", checkbox.name, err)
		}
		*checkbox.value = b
	}

	if q.sort = query.Get("sort"); q.sort != "" {
		known := false
		for _, column := range table.Columns() {
			known = known || column.Key == q.sort
		}
		if !known {
			return tableQuery{}, fmt.Errorf("unknown sort column %q", q.sort)
		}
	}
	if dir := query.Get("dir"); dir != "" {
		d, err := grid.ParseDirection(dir)
		if err != nil {
			return tableQuery{}, err
		}
		q.dir = d
	}
	if width := query.Get("width"); width != "" {
		n, err := strconv.Atoi(width)
		if err != nil || n < 0 || n > maxWidth {
			return tableQuery{}, fmt.Errorf("invalid width %q", width)
		}
		q.width = n
	}
	return q, nil
}

// openView builds the view for the request and applies q to it.
func (server *Server) openView(c *gin.Context, q tableQuery) (*mutex.View, error) {
	ctx := c.Request.Context()
	track := usage.TrackerFromContext(ctx)

	src, err := server.newSource(c.Request)
	if err != nil {
		return nil, newStorageError("creating source", err)
	}
	view, err := mutex.Open(ctx, src, server.options...)
	if err != nil {
		return nil, newStorageError("loading associations", err)
	}

	view.SetFilter(q.filter)
	if q.search != "" {
		view.Search(q.search)
		track(usage.Searched())
	}
	if q.sort != "" {
		if err := view.SortBy(q.sort, q.dir); err != nil {
			return nil, newInvalidInputError("sorting", err)
		}
		track(usage.Sorted(q.sort, q.dir.String()))
	}
	if _, err := view.Resize(ctx, q.width); err != nil {
		return nil, newUnavailableError("sizing columns", err)
	}
	return view, nil
}

type tableResponse struct {
	Headers []mutex.Header  `json:"headers"`
	Data    [][]interface{} `json:"data"`
	Styles  []table.Style   `json:"styles"`
	Info    grid.Info       `json:"info"`
	Filter  string          `json:"filter"`
	Widths  []int           `json:"widths"`
	Order   order           `json:"order"`
}

type order struct {
	Key string `json:"key"`
	Dir string `json:"dir"`
}

func newTableResponse(view *mutex.View) tableResponse {
	rows := view.Visible()
	response := tableResponse{
		Headers: view.Headers(),
		Data:    make([][]interface{}, 0, len(rows)),
		Styles:  make([]table.Style, 0, len(rows)),
		Info:    view.Info(),
		Filter:  view.Filter().Label(),
		Widths:  view.Widths(),
	}
	for _, row := range rows {
		response.Data = append(response.Data, row.Data())
		response.Styles = append(response.Styles, table.StyleOf(row))
	}
	key, dir := view.Order()
	response.Order = order{key, dir.String()}
	return response
}

func (server *Server) serveTable(c *gin.Context) {
	q, err := parseQuery(c.Request.URL.Query())
	if err != nil {
		writeError(c, newInvalidInputError("parsing query", err))
		return
	}
	view, err := server.openView(c, q)
	if err != nil {
		writeError(c, err)
		return
	}

	response := newTableResponse(view)
	usage.TrackerFromContext(c.Request.Context())(usage.TableRequested(response.Filter, len(response.Data)))
	c.JSON(http.StatusOK, response)
}

func (server *Server) serveSummary(c *gin.Context) {
	view, err := server.openView(c, tableQuery{filter: table.DefaultFilter})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view.Summary().Slots())
}

type tooltipResponse struct {
	mutex.Tooltip
	HTML template.HTML `json:"html"`
}

func (server *Server) serveTooltips(c *gin.Context) {
	var response []tooltipResponse
	for _, tip := range mutex.Tooltips() {
		response = append(response, tooltipResponse{tip, tip.HTML()})
	}
	c.JSON(http.StatusOK, response)
}

func (server *Server) serveExport(c *gin.Context) {
	q, err := parseQuery(c.Request.URL.Query())
	if err != nil {
		writeError(c, newInvalidInputError("parsing query", err))
		return
	}
	view, err := server.openView(c, q)
	if err != nil {
		writeError(c, err)
		return
	}

	rows := view.Visible()
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, table.Headers(), rows); err != nil {
		writeError(c, err)
		return
	}
	usage.TrackerFromContext(c.Request.Context())(usage.Exported(len(rows)))
	c.Header("Content-Disposition", `attachment; filename="mutex.xlsx"`)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

type pageData struct {
	Filter  table.FilterState
	Search  string
	Sort    string
	Dir     string
	Summary []mutex.Slot
	Headers []pageHeader
	Rows    []pageRow
	Info    string
	Export  string
}

// pageHeader is a column heading linking to the page sorted by its column.
type pageHeader struct {
	mutex.Header
	Sort   string
	Marker string
}

// pageHeaders links each heading to the current query sorted by its column,
// flipping the direction of the current ascending sort column.
func pageHeaders(view *mutex.View, query url.Values) []pageHeader {
	key, dir := view.Order()
	var headers []pageHeader
	for _, h := range view.Headers() {
		header := pageHeader{Header: h}
		next := grid.Ascending
		if h.Key == key {
			header.Marker = " ▲"
			if dir == grid.Descending {
				header.Marker = " ▼"
			} else {
				next = grid.Descending
			}
		}

		sorted := url.Values{}
		for name, values := range query {
			sorted[name] = values
		}
		sorted.Set("sort", h.Key)
		sorted.Set("dir", next.String())
		header.Sort = mutexPath + "?" + sorted.Encode()
		headers = append(headers, header)
	}
	return headers
}

type pageRow struct {
	Cells []string
	Style table.Style
}

func (server *Server) servePage(c *gin.Context) {
	q, err := parseQuery(c.Request.URL.Query())
	if err != nil {
		writeError(c, newInvalidInputError("parsing query", err))
		return
	}
	view, err := server.openView(c, q)
	if err != nil {
		writeError(c, err)
		return
	}

	data := pageData{
		Filter:  view.Filter(),
		Search:  q.search,
		Summary: view.Summary().Slots(),
		Headers: pageHeaders(view, c.Request.URL.Query()),
		Info:    view.Info().String(),
		Export:  mutexPath + "/export?" + c.Request.URL.RawQuery,
	}
	if q.sort != "" {
		data.Sort, data.Dir = q.sort, q.dir.String()
	}
	for _, row := range view.Visible() {
		data.Rows = append(data.Rows, pageRow{row.Strings(), table.StyleOf(row)})
	}
	c.Render(http.StatusOK, render.HTML{Template: page, Name: "mutex.html", Data: data})
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Unwrap() error {
	return err.cause
}

func newAPIError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %w", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newAPIError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newAPIError("InvalidInput", http.StatusBadRequest, context, err)
}

func newPermissionDeniedError(context string, err error) error {
	return newAPIError("PermissionDenied", http.StatusForbidden, context, err)
}

func newNotFoundError(context string, err error) error {
	return newAPIError("NotFound", http.StatusNotFound, context, err)
}

func newUnavailableError(context string, err error) error {
	return newAPIError("Unavailable", http.StatusServiceUnavailable, context, err)
}

func newStorageError(context string, err error) error {
	if errors.Is(err, gcs.ErrMissingOrInvalidToken) {
		return newPermissionDeniedError(context, err)
	}
	if errors.Is(err, storage.ErrObjectNotExist) {
		return newNotFoundError("object does not exist", err)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return newNotFoundError("association file does not exist", err)
	}
	if errors.Is(err, mutex.ErrGridNotReady) {
		return newUnavailableError(context, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		}
	}
	return err
}

// writeError writes either a JSON object or bare HTTP error describing err.
// A JSON object is written only when the error has a name and code defined
// by the API.
func writeError(c *gin.Context, err error) {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.code, gin.H{
			"error":   apiErr.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(apiErr.code), apiErr.cause),
		})
		return
	}

	log.WithError(err).WithField("request_id", c.GetString(requestIDHeader)).Error("Serving table")
	c.String(http.StatusInternalServerError, "%s: %v", http.StatusText(http.StatusInternalServerError), err)
}

func forwardOrigin(c *gin.Context) {
	if origin := c.GetHeader("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
	c.Next()
}
