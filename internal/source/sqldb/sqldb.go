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

// Package sqldb reads association results from a SQL database.  DuckDB
// files and PostgreSQL servers are supported.
package sqldb

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/googlegenomics/mutex/internal/association"
)

// Drivers accepted by Open.
const (
	DuckDB   = "duckdb"
	Postgres = "postgres"
)

// Schema creates the tables read by Source.  Rows of associations are
// returned in position order; association_stats holds a single row.
const Schema = `
CREATE TABLE IF NOT EXISTS associations (
	position       INTEGER NOT NULL,
	gene_a         VARCHAR NOT NULL,
	gene_b         VARCHAR NOT NULL,
	p_value        DOUBLE PRECISION NOT NULL,
	log_odds_ratio DOUBLE PRECISION,
	association    VARCHAR
);
CREATE TABLE IF NOT EXISTS association_stats (
	num_of_mutex          INTEGER NOT NULL,
	num_of_sig_mutex      INTEGER NOT NULL,
	num_of_co_oc          INTEGER NOT NULL,
	num_of_sig_co_oc      INTEGER NOT NULL,
	num_of_no_association INTEGER NOT NULL
);
`

const (
	selectRecords = `SELECT gene_a, gene_b, p_value, log_odds_ratio, COALESCE(association, '') AS association
		FROM associations ORDER BY position`
	selectStats = `SELECT num_of_mutex, num_of_sig_mutex, num_of_co_oc, num_of_sig_co_oc, num_of_no_association
		FROM association_stats LIMIT 1`
	insertRecord = `INSERT INTO associations (position, gene_a, gene_b, p_value, log_odds_ratio, association)
		VALUES (?, ?, ?, ?, ?, ?)`
	insertStats = `INSERT INTO association_stats (num_of_mutex, num_of_sig_mutex, num_of_co_oc, num_of_sig_co_oc, num_of_no_association)
		VALUES (?, ?, ?, ?, ?)`
)

// Source is an association.Source backed by a database.
type Source struct {
	db *sqlx.DB
}

// New returns a source reading from db.
func New(db *sqlx.DB) *Source {
	return &Source{db: db}
}

// Open connects to the database described by dsn using driver, which is
// DuckDB or Postgres.  For DuckDB an empty dsn opens an in-memory database.
func Open(ctx context.Context, driver, dsn string) (*Source, error) {
	switch driver {
	case DuckDB, Postgres:
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to %s", driver)
	}
	return New(db), nil
}

// DB returns the underlying database handle.
func (s *Source) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *Source) Close() error {
	return s.db.Close()
}

// Records implements association.Source.
func (s *Source) Records(ctx context.Context) ([]association.Record, error) {
	var records []association.Record
	if err := s.db.SelectContext(ctx, &records, selectRecords); err != nil {
		return nil, errors.Wrap(err, "selecting associations")
	}
	for i, record := range records {
		if err := association.Validate(record); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
	}
	log.WithFields(log.Fields{"source": s.db.DriverName(), "records": len(records)}).Debug("Loaded associations")
	return records, nil
}

// Stats implements association.Source.  A missing stats row reads as zero
// counts.
func (s *Source) Stats(ctx context.Context) (association.Stats, error) {
	var stats association.Stats
	err := s.db.GetContext(ctx, &stats, selectStats)
	if err == sql.ErrNoRows {
		log.WithField("source", s.db.DriverName()).Warn("No association stats found")
		return association.Stats{}, nil
	}
	if err != nil {
		return association.Stats{}, errors.Wrap(err, "selecting association stats")
	}
	return stats, nil
}

// Store creates the schema if needed and writes dataset in a single
// transaction.
func (s *Source) Store(ctx context.Context, dataset *association.Dataset) error {
	records, _ := dataset.Records(ctx)
	stats, _ := dataset.Stats(ctx)

	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errors.Wrap(err, "creating schema")
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "starting transaction")
	}
	defer tx.Rollback()

	insert := tx.Rebind(insertRecord)
	for i, record := range records {
		ratio := sql.NullFloat64{Float64: record.LogOddsRatio.Value, Valid: record.LogOddsRatio.Computed}
		if _, err := tx.ExecContext(ctx, insert, i, record.GeneA, record.GeneB, record.PValue, ratio, record.Association); err != nil {
			return errors.Wrapf(err, "inserting record %d", i)
		}
	}
	if _, err := tx.ExecContext(ctx, tx.Rebind(insertStats),
		stats.NumMutex, stats.NumSigMutex, stats.NumCoOc, stats.NumSigCoOc, stats.NumNoAssociation); err != nil {
		return errors.Wrap(err, "inserting stats")
	}
	return errors.Wrap(tx.Commit(), "committing associations")
}
