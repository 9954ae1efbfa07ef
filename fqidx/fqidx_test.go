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

package fqidx

import (
	"io"
	"testing"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/scanner"
)

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

const fastqFixture = "@r1 comment\nACGT\n+\nIIII\n@r2\nNNN\n+\n!!!\n"

func TestBuildTwoReads(t *testing.T) {
	store, err := catalog.Create(":memory:", catalog.KindFastq)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer store.Close()

	b, err := store.BeginBuild()
	if err != nil {
		t.Fatalf("BeginBuild: %v", err)
	}
	sc := scanner.New(&memSource{data: []byte(fastqFixture)})
	meta, err := Build(sc, b)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if meta.Count != 2 {
		t.Errorf("meta.Count = %d, want 2", meta.Count)
	}

	r1, err := store.GetReadByName("r1")
	if err != nil {
		t.Fatalf("GetReadByName(r1): %v", err)
	}
	if r1.ReadLength != 4 || r1.DescLength != int64(len("r1 comment")) {
		t.Errorf("r1 = %+v, want read_length=4 desc_length=%d", r1, len("r1 comment"))
	}
}

func TestDetectQualityInfersPhred33(t *testing.T) {
	store, err := catalog.Create(":memory:", catalog.KindFastq)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer store.Close()

	b, err := store.BeginBuild()
	if err != nil {
		t.Fatalf("BeginBuild: %v", err)
	}
	sc := scanner.New(&memSource{data: []byte(fastqFixture)})
	if _, err := Build(sc, b); err != nil {
		t.Fatalf("Build: %v", err)
	}

	sc2 := scanner.New(&memSource{data: []byte(fastqFixture)})
	qs, _, err := DetectQuality(sc2, b)
	if err != nil {
		t.Fatalf("DetectQuality: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if qs.Phred != 33 {
		t.Errorf("qs.Phred = %d, want 33", qs.Phred)
	}
	if qs.MinQS != '!' || qs.MaxQS != 'I' {
		t.Errorf("qs = %+v, want min=%d max=%d", qs, '!', 'I')
	}

	labels := DetectEncoding(qs.MinQS, qs.MaxQS)
	found := false
	for _, l := range labels {
		if l == "Illumina 1.8+" {
			found = true
		}
	}
	if !found {
		t.Errorf("DetectEncoding(%d,%d) = %v, want it to include Illumina 1.8+", qs.MinQS, qs.MaxQS, labels)
	}
}
