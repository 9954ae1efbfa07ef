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

package fastx

import (
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/seqidx/fastx/seqops"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func writeGzipFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer f.Close()
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(contents)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip Close: %v", err)
	}
	return path
}

func TestOpenPlainFastaRoundTrip(t *testing.T) {
	path := writeFile(t, "seqs.fa", ">chr1 first chromosome\nACGTACGT\nACGT\n>chr2\nNNNNNN\n")

	inst, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer inst.Close()

	count, err := inst.Count()
	if err != nil || count != 2 {
		t.Fatalf("Count() = %d, %v; want 2, nil", count, err)
	}

	names, err := inst.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 2 || names[0] != "chr1" || names[1] != "chr2" {
		t.Fatalf("Names() = %v, want [chr1 chr2]", names)
	}

	rec, err := inst.ByName("chr1")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	seq, err := rec.Seq()
	if err != nil {
		t.Fatalf("Seq: %v", err)
	}
	if string(seq) != "ACGTACGTACGT" {
		t.Errorf("Seq() = %q, want ACGTACGTACGT", seq)
	}

	desc, err := rec.Description()
	if err != nil {
		t.Fatalf("Description: %v", err)
	}
	if desc != "chr1 first chromosome" {
		t.Errorf("Description() = %q, want %q", desc, "chr1 first chromosome")
	}

	slice, err := rec.Slice(5, 8, seqops.Forward)
	if err != nil {
		t.Fatalf("Slice: %v", err)
	}
	if string(slice) != "ACGT" {
		t.Errorf("Slice(5,8,+) = %q, want ACGT", slice)
	}

	anti, err := rec.Antisense()
	if err != nil {
		t.Fatalf("Antisense: %v", err)
	}
	if string(anti) != "ACGTACGTACGT" {
		t.Errorf("Antisense() = %q, want ACGTACGTACGT (palindrome)", anti)
	}

	ls, err := inst.LengthStats()
	if err != nil {
		t.Fatalf("LengthStats: %v", err)
	}
	if ls.Mean != 9 { // lengths 12 and 6
		t.Errorf("LengthStats().Mean = %v, want 9", ls.Mean)
	}

	gc, err := inst.GCStats()
	if err != nil {
		t.Fatalf("GCStats: %v", err)
	}
	if gc.Mean != 25 { // 50% for chr1, 0 for the all-N chr2
		t.Errorf("GCStats().Mean = %v, want 25", gc.Mean)
	}

	fetched, err := inst.Fetch("chr2", 2, 3, seqops.Forward)
	if err != nil {
		t.Fatalf("Fetch(chr2,2,3,+): %v", err)
	}
	if string(fetched) != "NN" {
		t.Errorf("Fetch(chr2,2,3,+) = %q, want NN", fetched)
	}

	second, err := inst.At(2)
	if err != nil {
		t.Fatalf("At(2): %v", err)
	}
	if second.Name() != "chr2" {
		t.Errorf("At(2).Name() = %q, want chr2", second.Name())
	}

	if _, err := inst.ByName("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ByName(missing) err = %v, want ErrNotFound", err)
	}
}

func TestOpenGzipFastqDetectsPhredAndIterates(t *testing.T) {
	// Quality bytes in the Sanger/Illumina-1.8 range (offset 33).
	data := "@read1 desc\nACGT\n+\nIIII\n@read2\nTTTT\n+\n!!!!\n"
	path := writeGzipFile(t, "reads.fq.gz", data)

	inst, err := Open(path, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer inst.Close()

	rec, err := inst.ByName("read1")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	qual, err := rec.Qual()
	if err != nil {
		t.Fatalf("Qual: %v", err)
	}
	if string(qual) != "IIII" {
		t.Fatalf("Qual() = %q, want IIII", qual)
	}
	quali, err := rec.Quali()
	if err != nil {
		t.Fatalf("Quali: %v", err)
	}
	if quali[0] != int('I')-33 {
		t.Errorf("Quali()[0] = %d, want %d (phred offset 33 detected)", quali[0], int('I')-33)
	}

	encs, err := inst.QualityEncodings()
	if err != nil {
		t.Fatalf("QualityEncodings: %v", err)
	}
	var sawSanger bool
	for _, e := range encs {
		if e == "Sanger" {
			sawSanger = true
		}
	}
	if !sawSanger {
		t.Errorf("QualityEncodings() = %v, want Sanger among them for range [33,73]", encs)
	}

	it, err := inst.Iterate()
	if err != nil {
		t.Fatalf("Iterate: %v", err)
	}
	defer it.Close()

	var got []string
	for {
		r, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, r.Name)
	}
	if len(got) != 2 || got[0] != "read1" || got[1] != "read2" {
		t.Fatalf("Iterate names = %v, want [read1 read2]", got)
	}
}
