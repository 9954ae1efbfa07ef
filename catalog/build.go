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
	"fmt"
)

// FastaRecord is one row of the seq table.
type FastaRecord struct {
	ID            int64
	Name          string
	Offset        int64
	ByteLength    int64
	SeqLength     int64
	LineLength    int64
	EndLength     int64
	Normalized    bool
	DescLength    int64
	A, C, G, T, N int64
}

// FastqRecord is one row of the read table.
type FastqRecord struct {
	ID         int64
	Name       string
	DescLength int64
	ReadLength int64
	SeqOffset  int64
	QualOffset int64
}

// Meta is the single-row meta table.
type Meta struct {
	Count       int64
	TotalLength int64
}

// QualStats is the single-row qual table, filled lazily for FASTQ.
type QualStats struct {
	MinQS, MaxQS int
	Phred        int
}

// BaseStats is the single-row base table, filled lazily for FASTQ.
type BaseStats struct {
	A, C, G, T, N int64
}

// Build is a single transactional writer over a Store.
// Only one Build may be open on a Store at a time; the caller commits once
// all records have been inserted.
type Build struct {
	store *Store
	tx    *sql.Tx
}

// BeginBuild starts the one build transaction. synchronous=OFF trades
// crash-safety for build speed, the usual arrangement for bulk sqlite
// loads (the catalog is rebuilt from the source file on any corruption, so
// durability mid-build buys nothing).
func (s *Store) BeginBuild() (*Build, error) {
	if _, err := s.db.Exec(`PRAGMA synchronous = OFF`); err != nil {
		return nil, fmt.Errorf("%w: setting synchronous pragma: %w", errCatalog, err)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("%w: beginning build transaction: %w", errCatalog, err)
	}
	return &Build{store: s, tx: tx}, nil
}

// InsertSeq adds one FASTA record row.
func (b *Build) InsertSeq(r FastaRecord) error {
	norm := 0
	if r.Normalized {
		norm = 1
	}
	_, err := b.tx.Exec(`INSERT INTO seq (id, name, offset, blen, slen, llen, elen, norm, desc_len, a, c, g, t, n)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.Offset, r.ByteLength, r.SeqLength, r.LineLength, r.EndLength, norm, r.DescLength,
		r.A, r.C, r.G, r.T, r.N)
	if err != nil {
		return fmt.Errorf("%w: inserting seq row %q: %w", errCatalog, r.Name, err)
	}
	return nil
}

// InsertRead adds one FASTQ record row.
func (b *Build) InsertRead(r FastqRecord) error {
	_, err := b.tx.Exec(`INSERT INTO read (id, name, dlen, rlen, soff, qoff) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, r.DescLength, r.ReadLength, r.SeqOffset, r.QualOffset)
	if err != nil {
		return fmt.Errorf("%w: inserting read row %q: %w", errCatalog, r.Name, err)
	}
	return nil
}

// SetMeta writes the single meta row.
func (b *Build) SetMeta(m Meta) error {
	if _, err := b.tx.Exec(`DELETE FROM meta`); err != nil {
		return fmt.Errorf("%w: clearing meta: %w", errCatalog, err)
	}
	if _, err := b.tx.Exec(`INSERT INTO meta (count, total_length) VALUES (?, ?)`, m.Count, m.TotalLength); err != nil {
		return fmt.Errorf("%w: writing meta: %w", errCatalog, err)
	}
	return nil
}

// SetGzindexBlob stores the serialized gzip access-point index.
func (b *Build) SetGzindexBlob(blob []byte) error {
	if _, err := b.tx.Exec(`DELETE FROM gzindex`); err != nil {
		return fmt.Errorf("%w: clearing gzindex: %w", errCatalog, err)
	}
	if _, err := b.tx.Exec(`INSERT INTO gzindex (blob) VALUES (?)`, blob); err != nil {
		return fmt.Errorf("%w: writing gzindex: %w", errCatalog, err)
	}
	return nil
}

// SetQual writes the lazily-computed quality-encoding stats (FASTQ only).
func (b *Build) SetQual(q QualStats) error {
	if _, err := b.tx.Exec(`DELETE FROM qual`); err != nil {
		return fmt.Errorf("%w: clearing qual: %w", errCatalog, err)
	}
	if _, err := b.tx.Exec(`INSERT INTO qual (min_qs, max_qs, phred) VALUES (?, ?, ?)`, q.MinQS, q.MaxQS, q.Phred); err != nil {
		return fmt.Errorf("%w: writing qual: %w", errCatalog, err)
	}
	return nil
}

// SetBase writes the lazily-computed corpus-wide base composition (FASTQ only).
func (b *Build) SetBase(c BaseStats) error {
	if _, err := b.tx.Exec(`DELETE FROM base`); err != nil {
		return fmt.Errorf("%w: clearing base: %w", errCatalog, err)
	}
	if _, err := b.tx.Exec(`INSERT INTO base (a, c, g, t, n) VALUES (?, ?, ?, ?, ?)`, c.A, c.C, c.G, c.T, c.N); err != nil {
		return fmt.Errorf("%w: writing base: %w", errCatalog, err)
	}
	return nil
}

// Commit finishes the transaction and then creates the name index, so the
// bulk inserts run without index-maintenance overhead.
func (b *Build) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing build: %w", errCatalog, err)
	}
	table := "seq"
	if b.store.Kind == KindFastq {
		table = "read"
	}
	idxSQL := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_name ON %s (name)`, table, table)
	if _, err := b.store.db.Exec(idxSQL); err != nil {
		return fmt.Errorf("%w: creating name index: %w", errCatalog, err)
	}
	return nil
}

// Rollback aborts the build transaction.
func (b *Build) Rollback() error {
	return b.tx.Rollback()
}
