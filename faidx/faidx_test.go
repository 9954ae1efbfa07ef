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

package faidx

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/scanner"
)

// memSource is a minimal in-memory scanner.ByteSource for tests.
type memSource struct {
	data []byte
	pos  int64
}

func (m *memSource) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *memSource) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.data)) + offset
	}
	return m.pos, nil
}

func (m *memSource) Tell() (int64, error) { return m.pos, nil }
func (m *memSource) Eof() bool            { return m.pos >= int64(len(m.data)) }

func buildCatalog(t *testing.T, data string) *catalog.Store {
	t.Helper()
	store, err := catalog.Create(":memory:", catalog.KindFasta)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	b, err := store.BeginBuild()
	if err != nil {
		t.Fatalf("BeginBuild: %v", err)
	}
	sc := scanner.New(&memSource{data: []byte(data)})
	if _, err := Build(sc, b); err != nil {
		b.Rollback()
		t.Fatalf("Build: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return store
}

func TestBuildLFTwoRecords(t *testing.T) {
	store := buildCatalog(t, ">a\nACGT\n>b\nNNN\n")

	a, err := store.GetSeqByName("a")
	if err != nil {
		t.Fatalf("GetSeqByName(a): %v", err)
	}
	want := &catalog.FastaRecord{
		ID: 1, Name: "a", Offset: 3, ByteLength: 5, SeqLength: 4,
		LineLength: 5, EndLength: 1, Normalized: true, DescLength: 1,
		A: 1, C: 1, G: 1, T: 1, N: 0,
	}
	if diff := cmp.Diff(want, a); diff != "" {
		t.Errorf("record a mismatch (-want +got):\n%s", diff)
	}

	meta, err := store.GetMeta()
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if meta.Count != 2 || meta.TotalLength != 7 {
		t.Errorf("meta = %+v, want count=2 total_length=7", meta)
	}
}

func TestBuildCRLFMultiLine(t *testing.T) {
	store := buildCatalog(t, ">chr1\r\nACGTACGT\r\nACGT\r\n")

	rec, err := store.GetSeqByName("chr1")
	if err != nil {
		t.Fatalf("GetSeqByName(chr1): %v", err)
	}
	if rec.LineLength != 10 || rec.EndLength != 2 || rec.SeqLength != 12 || !rec.Normalized {
		t.Errorf("rec = %+v, want line_length=10 end_length=2 seq_length=12 normalized=true", rec)
	}
}

func TestBuildNonNormalized(t *testing.T) {
	store := buildCatalog(t, ">x\nACGT\nAC\nACGTACGT\n")

	rec, err := store.GetSeqByName("x")
	if err != nil {
		t.Fatalf("GetSeqByName(x): %v", err)
	}
	if rec.Normalized {
		t.Errorf("rec.Normalized = true, want false for irregular interior line length")
	}
}
