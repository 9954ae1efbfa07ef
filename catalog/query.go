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

package catalog

import (
	"database/sql"
	"errors"
	"fmt"
)

const fastaCols = `id, name, offset, blen, slen, llen, elen, norm, desc_len, a, c, g, t, n`

func scanFasta(row interface{ Scan(...any) error }) (*FastaRecord, error) {
	var r FastaRecord
	var norm int
	if err := row.Scan(&r.ID, &r.Name, &r.Offset, &r.ByteLength, &r.SeqLength, &r.LineLength,
		&r.EndLength, &norm, &r.DescLength, &r.A, &r.C, &r.G, &r.T, &r.N); err != nil {
		return nil, err
	}
	r.Normalized = norm != 0
	return &r, nil
}

// GetSeqByID looks up a FASTA record by ordinal id.
func (s *Store) GetSeqByID(id int64) (*FastaRecord, error) {
	row := s.db.QueryRow(`SELECT `+fastaCols+` FROM seq WHERE id = ?`, id)
	r, err := scanFasta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying seq id %d: %w", errCatalog, id, err)
	}
	return r, nil
}

// GetSeqByName looks up a FASTA record by name.
func (s *Store) GetSeqByName(name string) (*FastaRecord, error) {
	row := s.db.QueryRow(`SELECT `+fastaCols+` FROM seq WHERE name = ?`, name)
	r, err := scanFasta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying seq name %q: %w", errCatalog, name, err)
	}
	return r, nil
}

const fastqCols = `id, name, dlen, rlen, soff, qoff`

func scanFastq(row interface{ Scan(...any) error }) (*FastqRecord, error) {
	var r FastqRecord
	if err := row.Scan(&r.ID, &r.Name, &r.DescLength, &r.ReadLength, &r.SeqOffset, &r.QualOffset); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetReadByID looks up a FASTQ record by ordinal id.
func (s *Store) GetReadByID(id int64) (*FastqRecord, error) {
	row := s.db.QueryRow(`SELECT `+fastqCols+` FROM read WHERE id = ?`, id)
	r, err := scanFastq(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying read id %d: %w", errCatalog, id, err)
	}
	return r, nil
}

// GetReadByName looks up a FASTQ record by name.
func (s *Store) GetReadByName(name string) (*FastqRecord, error) {
	row := s.db.QueryRow(`SELECT `+fastqCols+` FROM read WHERE name = ?`, name)
	r, err := scanFastq(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying read name %q: %w", errCatalog, name, err)
	}
	return r, nil
}

// GetMeta returns the single meta row.
func (s *Store) GetMeta() (Meta, error) {
	var m Meta
	err := s.db.QueryRow(`SELECT count, total_length FROM meta`).Scan(&m.Count, &m.TotalLength)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, ErrNotFound
	}
	if err != nil {
		return Meta{}, fmt.Errorf("%w: querying meta: %w", errCatalog, err)
	}
	return m, nil
}

// GzindexBlob returns the stored serialized gzip access-point index, or
// (nil, ErrNotFound) if the sequence file is not gzip-compressed.
func (s *Store) GzindexBlob() ([]byte, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT blob FROM gzindex`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: querying gzindex: %w", errCatalog, err)
	}
	return blob, nil
}

// GetQualStats returns the lazily-filled quality-encoding stats row.
func (s *Store) GetQualStats() (QualStats, error) {
	var q QualStats
	err := s.db.QueryRow(`SELECT min_qs, max_qs, phred FROM qual`).Scan(&q.MinQS, &q.MaxQS, &q.Phred)
	if errors.Is(err, sql.ErrNoRows) {
		return QualStats{}, ErrNotFound
	}
	if err != nil {
		return QualStats{}, fmt.Errorf("%w: querying qual: %w", errCatalog, err)
	}
	return q, nil
}

// GetBaseStats returns the lazily-filled corpus-wide base composition row.
func (s *Store) GetBaseStats() (BaseStats, error) {
	var c BaseStats
	err := s.db.QueryRow(`SELECT a, c, g, t, n FROM base`).Scan(&c.A, &c.C, &c.G, &c.T, &c.N)
	if errors.Is(err, sql.ErrNoRows) {
		return BaseStats{}, ErrNotFound
	}
	if err != nil {
		return BaseStats{}, fmt.Errorf("%w: querying base: %w", errCatalog, err)
	}
	return c, nil
}

// AllLengths returns every record's length, in id order, for corpus-wide
// statistics (package fastx's LengthStats).
func (s *Store) AllLengths() ([]float64, error) {
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY id", s.LengthColumn(), s.TableName())
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, fmt.Errorf("%w: querying lengths: %w", errCatalog, err)
	}
	defer rows.Close()
	var lens []float64
	for rows.Next() {
		var l int64
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("%w: scanning length: %w", errCatalog, err)
		}
		lens = append(lens, float64(l))
	}
	return lens, rows.Err()
}

// AllGCContent returns each FASTA record's GC content percentage, in id
// order. It is only meaningful for a FASTA catalog, whose seq table carries
// per-record base composition; a FASTQ catalog only has a corpus-wide
// aggregate (see SumBases), so this returns ErrNotFound for KindFastq.
func (s *Store) AllGCContent() ([]float64, error) {
	if s.Kind == KindFastq {
		return nil, ErrNotFound
	}
	rows, err := s.db.Query(`SELECT a, c, g, t FROM seq ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying base composition: %w", errCatalog, err)
	}
	defer rows.Close()
	var out []float64
	for rows.Next() {
		var a, c, g, t int64
		if err := rows.Scan(&a, &c, &g, &t); err != nil {
			return nil, fmt.Errorf("%w: scanning base composition: %w", errCatalog, err)
		}
		total := a + c + g + t
		if total == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, float64(g+c)/float64(total)*100)
	}
	return out, rows.Err()
}

// SumBases returns the corpus-wide base composition. For a FASTA catalog
// this sums the per-record a/c/g/t/n columns already computed during
// indexing; for a FASTQ catalog it is the single lazily-filled base row
// (see SetBase), since per-read rows do not carry per-base columns.
func (s *Store) SumBases() (BaseStats, error) {
	if s.Kind == KindFastq {
		return s.GetBaseStats()
	}
	var c BaseStats
	err := s.db.QueryRow(`SELECT COALESCE(SUM(a),0), COALESCE(SUM(c),0), COALESCE(SUM(g),0), COALESCE(SUM(t),0), COALESCE(SUM(n),0) FROM seq`).
		Scan(&c.A, &c.C, &c.G, &c.T, &c.N)
	if err != nil {
		return BaseStats{}, fmt.Errorf("%w: summing base composition: %w", errCatalog, err)
	}
	return c, nil
}

// TableName returns the record table this store's Kind populates ("seq" or
// "read"), for building generic projection queries (package view).
func (s *Store) TableName() string {
	if s.Kind == KindFastq {
		return "read"
	}
	return "seq"
}

// LengthColumn returns the column holding per-record length for this
// store's Kind ("slen" or "rlen").
func (s *Store) LengthColumn() string {
	if s.Kind == KindFastq {
		return "rlen"
	}
	return "slen"
}

// QueryNames returns record names from an ordered, optionally filtered
// projection over the record table (package view's sort/filter view).
func (s *Store) QueryNames(orderBy string, desc bool, where string, args []any) ([]string, error) {
	q := fmt.Sprintf("SELECT name FROM %s", s.TableName())
	if where != "" {
		q += " WHERE " + where
	}
	if orderBy != "" {
		q += " ORDER BY " + orderBy
		if desc {
			q += " DESC"
		}
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying projection: %w", errCatalog, err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scanning projection row: %w", errCatalog, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating projection: %w", errCatalog, err)
	}
	return names, nil
}

// NameAt returns the name at a given ordinal position (0-based) within an
// ordered, optionally filtered projection.
func (s *Store) NameAt(orderBy string, desc bool, where string, args []any, offset int) (string, error) {
	q := fmt.Sprintf("SELECT name FROM %s", s.TableName())
	if where != "" {
		q += " WHERE " + where
	}
	if orderBy != "" {
		q += " ORDER BY " + orderBy
		if desc {
			q += " DESC"
		}
	}
	q += " LIMIT 1 OFFSET ?"
	queryArgs := append(append([]any{}, args...), offset)
	var name string
	err := s.db.QueryRow(q, queryArgs...).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: querying projection offset %d: %w", errCatalog, offset, err)
	}
	return name, nil
}

// CountWhere returns the row count for an optionally filtered projection.
func (s *Store) CountWhere(where string, args []any) (int64, error) {
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s", s.TableName())
	if where != "" {
		q += " WHERE " + where
	}
	var n int64
	if err := s.db.QueryRow(q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting projection: %w", errCatalog, err)
	}
	return n, nil
}
