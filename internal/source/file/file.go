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

// Package file reads association documents from the local filesystem.
package file

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/mutex/internal/association"
)

// Source reads an association document from a JSON file.  The file is read
// once, on first use.
type Source struct {
	path string

	once    sync.Once
	dataset *association.Dataset
	err     error
}

// New returns a source reading path.
func New(path string) *Source {
	return &Source{path: path}
}

// Records implements association.Source.
func (s *Source) Records(ctx context.Context) ([]association.Record, error) {
	if err := s.load(); err != nil {
		return nil, err
	}
	return s.dataset.Records(ctx)
}

// Stats implements association.Source.
func (s *Source) Stats(ctx context.Context) (association.Stats, error) {
	if err := s.load(); err != nil {
		return association.Stats{}, err
	}
	return s.dataset.Stats(ctx)
}

func (s *Source) load() error {
	s.once.Do(func() {
		f, err := os.Open(s.path)
		if err != nil {
			s.err = errors.Wrap(err, "opening association file")
			return
		}
		defer f.Close()

		if s.dataset, s.err = association.Decode(f); s.err != nil {
			s.err = errors.Wrapf(s.err, "decoding %s", s.path)
			return
		}
		log.WithFields(log.Fields{
			"source":  "file",
			"path":    s.path,
			"records": s.dataset.Len(),
		}).Debug("Loaded associations")
	})
	return s.err
}
