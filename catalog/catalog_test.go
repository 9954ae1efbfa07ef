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
	"errors"
	"testing"
)

func TestFastaBuildAndQuery(t *testing.T) {
	store, err := Create(":memory:", KindFasta)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer store.Close()

	b, err := store.BeginBuild()
	if err != nil {
		t.Fatalf("BeginBuild: %v", err)
	}
	recs := []FastaRecord{
		{ID: 0, Name: "chr1", Offset: 6, ByteLength: 9, SeqLength: 8, LineLength: 4, EndLength: 5, A: 2, C: 2, G: 2, T: 2},
		{ID: 1, Name: "chr2", Offset: 20, ByteLength: 4, SeqLength: 3, LineLength: 3, EndLength: 4, N: 3},
	}
	for _, r := range recs {
		if err := b.InsertSeq(r); err != nil {
			t.Fatalf("InsertSeq(%q): %v", r.Name, err)
		}
	}
	if err := b.SetMeta(Meta{Count: 2, TotalLength: 11}); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := store.GetSeqByName("chr1")
	if err != nil {
		t.Fatalf("GetSeqByName: %v", err)
	}
	if got.SeqLength != 8 || got.Offset != 6 {
		t.Errorf("GetSeqByName(chr1) = %+v, want SeqLength=8 Offset=6", got)
	}

	byID, err := store.GetSeqByID(1)
	if err != nil {
		t.Fatalf("GetSeqByID: %v", err)
	}
	if byID.Name != "chr2" {
		t.Errorf("GetSeqByID(1).Name = %q, want chr2", byID.Name)
	}

	if _, err := store.GetSeqByName("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSeqByName(nope) err = %v, want ErrNotFound", err)
	}

	m, err := store.GetMeta()
	if err != nil {
		t.Fatalf("GetMeta: %v", err)
	}
	if m.Count != 2 || m.TotalLength != 11 {
		t.Errorf("GetMeta = %+v, want Count=2 TotalLength=11", m)
	}

	names, err := store.QueryNames("slen", true, "", nil)
	if err != nil {
		t.Fatalf("QueryNames: %v", err)
	}
	if len(names) != 2 || names[0] != "chr1" {
		t.Errorf("QueryNames(desc by slen) = %v, want [chr1 chr2]", names)
	}

	n, err := store.CountWhere("slen > ?", []any{4})
	if err != nil {
		t.Fatalf("CountWhere: %v", err)
	}
	if n != 1 {
		t.Errorf("CountWhere(slen>4) = %d, want 1", n)
	}
}

func TestGzindexBlobRoundTrip(t *testing.T) {
	store, err := Create(":memory:", KindFasta)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer store.Close()

	if _, err := store.GzindexBlob(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GzindexBlob before write: err = %v, want ErrNotFound", err)
	}

	b, err := store.BeginBuild()
	if err != nil {
		t.Fatalf("BeginBuild: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5}
	if err := b.SetGzindexBlob(want); err != nil {
		t.Fatalf("SetGzindexBlob: %v", err)
	}
	if err := b.SetMeta(Meta{}); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	got, err := store.GzindexBlob()
	if err != nil {
		t.Fatalf("GzindexBlob: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("GzindexBlob = %v, want %v", got, want)
	}
}

func TestFastqQualAndBaseStats(t *testing.T) {
	store, err := Create(":memory:", KindFastq)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer store.Close()

	b, err := store.BeginBuild()
	if err != nil {
		t.Fatalf("BeginBuild: %v", err)
	}
	if err := b.InsertRead(FastqRecord{ID: 0, Name: "r1", ReadLength: 4, SeqOffset: 4, QualOffset: 12}); err != nil {
		t.Fatalf("InsertRead: %v", err)
	}
	if err := b.SetQual(QualStats{MinQS: 33, MaxQS: 73, Phred: 33}); err != nil {
		t.Fatalf("SetQual: %v", err)
	}
	if err := b.SetBase(BaseStats{A: 1, C: 1, G: 1, T: 1}); err != nil {
		t.Fatalf("SetBase: %v", err)
	}
	if err := b.SetMeta(Meta{Count: 1, TotalLength: 4}); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	qs, err := store.GetQualStats()
	if err != nil {
		t.Fatalf("GetQualStats: %v", err)
	}
	if qs.Phred != 33 {
		t.Errorf("GetQualStats().Phred = %d, want 33", qs.Phred)
	}

	bs, err := store.SumBases()
	if err != nil {
		t.Fatalf("SumBases: %v", err)
	}
	if bs.A != 1 || bs.T != 1 {
		t.Errorf("SumBases = %+v, want A=1 T=1", bs)
	}

	if _, err := store.AllGCContent(); !errors.Is(err, ErrNotFound) {
		t.Errorf("AllGCContent on FASTQ: err = %v, want ErrNotFound", err)
	}
}
