// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package catalog is the persistent per-record metadata store: one file
// beside the sequence file holding everything the slice/fetch engine needs
// to compute byte ranges without re-scanning.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// errCatalog is the base sentinel every catalog error wraps.
var errCatalog = errors.New("catalog")

// ErrNotFound is returned when a name or id lookup has no match.
var ErrNotFound = fmt.Errorf("%w: not found", errCatalog)

// Kind distinguishes a FASTA catalog (table seq) from a FASTQ one (table
// read); both share the meta/gzindex tables.
type Kind int

const (
	KindFasta Kind = iota
	KindFastq
)

const schema = `
CREATE TABLE IF NOT EXISTS seq (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	offset INTEGER NOT NULL,
	blen INTEGER NOT NULL,
	slen INTEGER NOT NULL,
	llen INTEGER NOT NULL,
	elen INTEGER NOT NULL,
	norm INTEGER NOT NULL,
	desc_len INTEGER NOT NULL,
	a INTEGER NOT NULL,
	c INTEGER NOT NULL,
	g INTEGER NOT NULL,
	t INTEGER NOT NULL,
	n INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS read (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	dlen INTEGER NOT NULL,
	rlen INTEGER NOT NULL,
	soff INTEGER NOT NULL,
	qoff INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS meta (
	count INTEGER NOT NULL,
	total_length INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS gzindex (
	blob BLOB
);
CREATE TABLE IF NOT EXISTS qual (
	min_qs INTEGER,
	max_qs INTEGER,
	phred INTEGER
);
CREATE TABLE IF NOT EXISTS base (
	a INTEGER, c INTEGER, g INTEGER, t INTEGER, n INTEGER
);
`

// Store is an open catalog file. The schema covers both FASTA and FASTQ
// layouts; Kind just tells callers which record table is
// populated.
type Store struct {
	db   *sql.DB
	Kind Kind
}

// Create opens (creating if necessary) the catalog file at path and ensures
// its schema exists. Used at the start of an indexing build.
func Create(path string, kind Kind) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening catalog: %w", errCatalog, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %w", errCatalog, err)
	}
	return &Store{db: db, Kind: kind}, nil
}

// Open opens an existing catalog file for read-only queries. The file is
// still opened read-write at the driver level; sqlite's own locking
// already prevents the single build transaction from racing concurrent
// readers in the same process.
func Open(path string, kind Kind) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening catalog: %w", errCatalog, err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, Kind: kind}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
