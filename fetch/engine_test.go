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

package fetch

import (
	"io"
	"testing"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/faidx"
	"github.com/seqidx/fastx/scanner"
	"github.com/seqidx/fastx/seqops"
)

type memRangeSource struct {
	data []byte
}

func (m *memRangeSource) ReadAt(offset, length int64) ([]byte, error) {
	end := offset + length
	if end > int64(len(m.data)) {
		end = int64(len(m.data))
	}
	return m.data[offset:end], nil
}

type memScanSource struct {
	data []byte
	pos  int64
}

func (m *memScanSource) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[m.pos:])
	m.pos += int64(n)
	return n, nil
}
func (m *memScanSource) Seek(offset int64, whence int) (int64, error) { m.pos = offset; return m.pos, nil }
func (m *memScanSource) Tell() (int64, error)                        { return m.pos, nil }
func (m *memScanSource) Eof() bool                                    { return m.pos >= int64(len(m.data)) }

func buildFastaEngine(t *testing.T, data string) *Engine {
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
	sc := scanner.New(&memScanSource{data: []byte(data)})
	if _, err := faidx.Build(sc, b); err != nil {
		t.Fatalf("faidx.Build: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return NewEngine(store, &memRangeSource{data: []byte(data)}, true)
}

func TestFetchSmallFastaLF(t *testing.T) {
	e := buildFastaEngine(t, ">a\nACGT\n>b\nNNN\n")

	got, err := e.Fetch("a", 1, 4, seqops.Forward)
	if err != nil {
		t.Fatalf("Fetch a +: %v", err)
	}
	if string(got) != "ACGT" {
		t.Errorf("Fetch(a,1,4,+) = %q, want ACGT", got)
	}

	got, err = e.Fetch("a", 1, 4, seqops.ReverseStrand)
	if err != nil {
		t.Fatalf("Fetch a -: %v", err)
	}
	if string(got) != "ACGT" {
		t.Errorf("Fetch(a,1,4,-) = %q, want ACGT (palindrome)", got)
	}

	got, err = e.Fetch("b", 2, 3, seqops.Forward)
	if err != nil {
		t.Fatalf("Fetch b: %v", err)
	}
	if string(got) != "NN" {
		t.Errorf("Fetch(b,2,3,+) = %q, want NN", got)
	}
}

func TestFetchCRLFMultiLine(t *testing.T) {
	data := ">chr1\r\nACGTACGT\r\nACGT\r\n"
	e := buildFastaEngine(t, data)

	got, err := e.Fetch("chr1", 5, 10, seqops.Forward)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != "ACGTAC" {
		t.Errorf("Fetch(chr1,5,10,+) = %q, want ACGTAC", got)
	}
}

func TestFetchCacheHitOnRepeatedRange(t *testing.T) {
	e := buildFastaEngine(t, ">a\nACGTACGTACGT\n")

	first, err := e.Fetch("a", 3, 8, seqops.Forward)
	if err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	second, err := e.Fetch("a", 4, 6, seqops.Forward)
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if string(first) != "GTACGT" {
		t.Fatalf("first = %q", first)
	}
	if string(second) != "TAC" {
		t.Errorf("second (from cache) = %q, want TAC", second)
	}
}
