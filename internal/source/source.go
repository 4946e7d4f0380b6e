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

// Package source opens the association sources named in the configuration.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/googlegenomics/mutex/internal/association"
	"github.com/googlegenomics/mutex/internal/source/file"
	"github.com/googlegenomics/mutex/internal/source/gcs"
	"github.com/googlegenomics/mutex/internal/source/sqldb"
)

// Source kinds.
const (
	File     = "file"
	GCS      = "gcs"
	DuckDB   = sqldb.DuckDB
	Postgres = sqldb.Postgres
)

// Kinds lists the accepted source kinds.
var Kinds = []string{File, GCS, DuckDB, Postgres}

var errUnknownSource = errors.New("unknown source kind")

type options struct {
	newGCSClient gcs.NewClientFunc
}

// Option configures Open.
type Option func(*options)

// WithGCSClient sets the function creating the client GCS objects are read
// with, for example gcs.NewPublicClient for publicly readable objects.
func WithGCSClient(newClient gcs.NewClientFunc) Option {
	return func(o *options) {
		o.newGCSClient = newClient
	}
}

// Open returns the source of the given kind.  path is a file path for File,
// a bucket/object path for GCS and a DSN for the database kinds.  GCS objects
// are read with the application default credentials unless WithGCSClient
// says otherwise.
func Open(ctx context.Context, kind, path string, opts ...Option) (association.Source, error) {
	o := options{newGCSClient: gcs.NewDefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	switch kind {
	case File:
		return file.New(path), nil
	case GCS:
		bucket, object, err := gcs.ParseObject(path)
		if err != nil {
			return nil, err
		}
		client, err := o.newGCSClient(nil)
		if err != nil {
			return nil, err
		}
		return gcs.NewSource(client, bucket, object), nil
	case DuckDB, Postgres:
		return sqldb.Open(ctx, kind, path)
	}
	return nil, fmt.Errorf("%w %q", errUnknownSource, kind)
}

// PerRequest returns a function building a GCS source for each request from
// the bearer token the request carries.
func PerRequest(path string) (func(*http.Request) (association.Source, error), error) {
	bucket, object, err := gcs.ParseObject(path)
	if err != nil {
		return nil, err
	}
	return gcs.NewSourceFunc(gcs.NewClientFromBearerToken, bucket, object), nil
}
