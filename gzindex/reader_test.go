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

package gzindex

import (
	"bytes"
	"compress/gzip"
	"testing"
)

// genPlaintext returns deterministic, moderately compressible data long
// enough to force several deflate blocks (and hence several access points
// at a small spacing), so a test exercising it crosses at least one
// mid-byte checkpoint.
func genPlaintext(n int) []byte {
	bases := []byte("ACGT")
	out := make([]byte, n)
	x := uint32(0x2545F491)
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = bases[x%4]
	}
	return out
}

func gzipOf(t *testing.T, plain []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		t.Fatalf("NewWriterLevel: %v", err)
	}
	if _, err := zw.Write(plain); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return buf.Bytes()
}

func TestBuildAndReadAtRandomAccess(t *testing.T) {
	plain := genPlaintext(300_000)
	compressed := gzipOf(t, plain)

	idx, err := Build(bytes.NewReader(compressed), int64(len(compressed)), 40_000, DefaultWindowSize)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(idx.Points) < 2 {
		t.Fatal("Build produced no access points beyond the start-of-file one; test input too small to be meaningful")
	}

	var sawMidByte bool
	for _, p := range idx.Points {
		if p.Bits > 0 {
			sawMidByte = true
		}
	}
	if !sawMidByte {
		t.Fatal("no access point in the built index straddles a byte boundary; test cannot exercise the priming path")
	}

	ir := NewIndexedReader(bytes.NewReader(compressed), int64(len(compressed)), idx, false)
	checkRanges(t, ir, plain)
}

func TestExportImportRoundTripPreservesReads(t *testing.T) {
	plain := genPlaintext(300_000)
	compressed := gzipOf(t, plain)

	idx, err := Build(bytes.NewReader(compressed), int64(len(compressed)), 40_000, DefaultWindowSize)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var blob bytes.Buffer
	if err := idx.Export(&blob); err != nil {
		t.Fatalf("Export: %v", err)
	}

	imported, err := Import(bytes.NewReader(blob.Bytes()), int64(len(compressed)))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	var reExported bytes.Buffer
	if err := imported.Export(&reExported); err != nil {
		t.Fatalf("re-Export: %v", err)
	}
	if !bytes.Equal(blob.Bytes(), reExported.Bytes()) {
		t.Fatal("export(import(export(idx))) != export(idx)")
	}

	ir := NewIndexedReader(bytes.NewReader(compressed), int64(len(compressed)), imported, false)
	checkRanges(t, ir, plain)
}

// checkRanges reads a mix of whole-file, point-aligned, and mid-point
// ranges out of ir and compares every one against the known plaintext,
// covering both straddling and byte-aligned access points.
func checkRanges(t *testing.T, ir *IndexedReader, plain []byte) {
	t.Helper()

	ranges := [][2]int64{
		{0, 10},
		{0, int64(len(plain))},
		{int64(len(plain)) - 5, 5},
	}
	for _, p := range ir.Index().Points {
		ranges = append(ranges,
			[2]int64{p.UncmpOffset, 32},
			[2]int64{p.UncmpOffset - 16, 48},
		)
	}

	for _, r := range ranges {
		offset, length := r[0], r[1]
		if offset < 0 || offset+length > int64(len(plain)) {
			continue
		}
		got, err := ir.ReadAt(offset, length)
		if err != nil {
			t.Fatalf("ReadAt(%d, %d): %v", offset, length, err)
		}
		want := plain[offset : offset+length]
		if !bytes.Equal(got, want) {
			t.Errorf("ReadAt(%d, %d) = %q, want %q", offset, length, got, want)
		}
	}
}

func TestConcatenatedMembersWithPadding(t *testing.T) {
	a := genPlaintext(60_000)
	b := genPlaintext(45_000)

	var file bytes.Buffer
	file.Write(gzipOf(t, a))
	file.Write(make([]byte, 5)) // inter-member padding
	file.Write(gzipOf(t, b))
	plain := append(append([]byte(nil), a...), b...)

	idx, err := Build(bytes.NewReader(file.Bytes()), int64(file.Len()), 40_000, DefaultWindowSize)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if idx.UncompressedSize != int64(len(plain)) {
		t.Fatalf("UncompressedSize = %d, want %d", idx.UncompressedSize, len(plain))
	}

	ir := NewIndexedReader(bytes.NewReader(file.Bytes()), int64(file.Len()), idx, false)
	checkRanges(t, ir, plain)

	// A range straddling the member boundary exercises the trailer/padding/
	// header crossing inside ReadAt.
	got, err := ir.ReadAt(int64(len(a))-100, 200)
	if err != nil {
		t.Fatalf("ReadAt across member boundary: %v", err)
	}
	if !bytes.Equal(got, plain[len(a)-100:len(a)+100]) {
		t.Error("ReadAt across member boundary returned wrong bytes")
	}
}

func TestReadAtPastIndexWithoutAutoBuildFails(t *testing.T) {
	plain := genPlaintext(50_000)
	compressed := gzipOf(t, plain)

	idx, err := Build(bytes.NewReader(compressed), int64(len(compressed)), 40_000, DefaultWindowSize)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx.UncompressedSize = 10 // pretend the index only covers a prefix

	ir := NewIndexedReader(bytes.NewReader(compressed), int64(len(compressed)), idx, false)
	if _, err := ir.ReadAt(0, 20); err == nil {
		t.Fatal("ReadAt past index extent with autoBuild=false: got nil error, want ErrNotCovered")
	}
}

func TestReadAtPastIndexWithAutoBuildExtends(t *testing.T) {
	plain := genPlaintext(50_000)
	compressed := gzipOf(t, plain)

	idx, err := Build(bytes.NewReader(compressed), int64(len(compressed)), 40_000, DefaultWindowSize)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx.UncompressedSize = 10 // pretend the index only covers a prefix

	ir := NewIndexedReader(bytes.NewReader(compressed), int64(len(compressed)), idx, true)
	got, err := ir.ReadAt(0, 20)
	if err != nil {
		t.Fatalf("ReadAt with autoBuild=true: %v", err)
	}
	if !bytes.Equal(got, plain[:20]) {
		t.Errorf("ReadAt after extension = %q, want %q", got, plain[:20])
	}
	if ir.Index().UncompressedSize != int64(len(plain)) {
		t.Errorf("UncompressedSize after extension = %d, want %d", ir.Index().UncompressedSize, len(plain))
	}
}

func TestAutoBuildExtendsFromLastPoint(t *testing.T) {
	plain := genPlaintext(300_000)
	compressed := gzipOf(t, plain)

	idx, err := Build(bytes.NewReader(compressed), int64(len(compressed)), 40_000, DefaultWindowSize)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Truncate the index to a 100 KB prefix, as if it had been built while
	// the file was shorter. A later read must grow it from the last
	// surviving point, not restart at byte 0.
	var kept []Point
	for _, p := range idx.Points {
		if p.UncmpOffset <= 100_000 {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(idx.Points) {
		t.Fatal("test input produced no access points past 100_000; cannot exercise extension")
	}
	idx.Points = kept
	idx.UncompressedSize = 100_000

	ir := NewIndexedReader(bytes.NewReader(compressed), int64(len(compressed)), idx, true)
	got, err := ir.ReadAt(250_000, 64)
	if err != nil {
		t.Fatalf("ReadAt past truncated extent: %v", err)
	}
	if !bytes.Equal(got, plain[250_000:250_064]) {
		t.Error("ReadAt after extension returned wrong bytes")
	}
	if len(ir.Index().Points) <= len(kept) {
		t.Errorf("extension added no access points: %d before, %d after", len(kept), len(ir.Index().Points))
	}
	if ir.Index().UncompressedSize < 250_064 {
		t.Errorf("UncompressedSize after extension = %d, want >= 250064", ir.Index().UncompressedSize)
	}
}
