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

package gcs

import (
	"context"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/mutex/internal/association"
)

// Source reads an association document from a storage object.  The object
// is fetched once, on first use.
type Source struct {
	handle         ObjectHandle
	bucket, object string

	once    sync.Once
	dataset *association.Dataset
	err     error
}

// NewSource returns a source reading bucket/object through client.
func NewSource(client Client, bucket, object string) *Source {
	return &Source{
		handle: client.NewObjectHandle(bucket, object),
		bucket: bucket,
		object: object,
	}
}

// Records implements association.Source.
func (s *Source) Records(ctx context.Context) ([]association.Record, error) {
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s.dataset.Records(ctx)
}

// Stats implements association.Source.
func (s *Source) Stats(ctx context.Context) (association.Stats, error) {
	if err := s.load(ctx); err != nil {
		return association.Stats{}, err
	}
	return s.dataset.Stats(ctx)
}

func (s *Source) load(ctx context.Context) error {
	s.once.Do(func() {
		s.dataset, s.err = s.fetch(ctx)
	})
	return s.err
}

func (s *Source) fetch(ctx context.Context) (*association.Dataset, error) {
	r, err := s.handle.NewRangeReader(ctx, 0, -1)
	if err != nil {
		return nil, errors.Wrapf(err, "opening gs://%s/%s", s.bucket, s.object)
	}
	defer r.Close()

	dataset, err := association.Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding gs://%s/%s", s.bucket, s.object)
	}
	log.WithFields(log.Fields{
		"source":  "gcs",
		"object":  s.bucket + "/" + s.object,
		"records": dataset.Len(),
	}).Debug("Loaded associations")
	return dataset, nil
}

// NewSourceFunc returns a function building a source for each request from
// the client newClient returns for it.
func NewSourceFunc(newClient NewClientFunc, bucket, object string) func(*http.Request) (association.Source, error) {
	return func(req *http.Request) (association.Source, error) {
		client, err := newClient(req)
		if err != nil {
			return nil, err
		}
		return NewSource(client, bucket, object), nil
	}
}
