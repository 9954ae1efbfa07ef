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

package view

import (
	"testing"

	"github.com/seqidx/fastx/catalog"
)

func buildStore(t *testing.T, lengths map[string]int64) *catalog.Store {
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
	var id int64
	for name, length := range lengths {
		id++
		if err := b.InsertSeq(catalog.FastaRecord{
			ID: id, Name: name, Offset: 0, ByteLength: length, SeqLength: length,
			LineLength: length, EndLength: 1, Normalized: true,
		}); err != nil {
			t.Fatalf("InsertSeq: %v", err)
		}
	}
	if err := b.SetMeta(catalog.Meta{Count: id, TotalLength: 0}); err != nil {
		t.Fatalf("SetMeta: %v", err)
	}
	if err := b.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return store
}

func TestFilterAndSortByLength(t *testing.T) {
	lengths := map[string]int64{
		"short": 100,
		"mid":   3000,
		"long1": 6000,
		"long2": 9999,
	}
	store := buildStore(t, lengths)

	v := New(store).Filter(LengthGT(5000)).Sort(ByLength, true)
	n, err := v.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 2 {
		t.Fatalf("Len = %d, want 2", n)
	}
	top, err := v.At(0)
	if err != nil {
		t.Fatalf("At(0): %v", err)
	}
	if top != "long2" {
		t.Errorf("At(0) = %q, want long2 (the longest record)", top)
	}
}

func TestResetRestoresFullView(t *testing.T) {
	store := buildStore(t, map[string]int64{"a": 10, "b": 20, "c": 30})

	v := New(store).Filter(LengthGT(15))
	n, err := v.Len()
	if err != nil {
		t.Fatalf("Len: %v", err)
	}
	if n != 2 {
		t.Fatalf("Len after filter = %d, want 2", n)
	}

	v.Reset()
	n, err = v.Len()
	if err != nil {
		t.Fatalf("Len after reset: %v", err)
	}
	if n != 3 {
		t.Errorf("Len after reset = %d, want 3", n)
	}
}

func TestNaturalSort(t *testing.T) {
	store := buildStore(t, map[string]int64{"chr10": 1, "chr2": 1, "chr1": 1})

	v := New(store).SortNatural(false)
	names, err := v.Names()
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	want := []string{"chr1", "chr2", "chr10"}
	for i, w := range want {
		if names[i] != w {
			t.Errorf("names[%d] = %q, want %q (full: %v)", i, names[i], w, names)
			break
		}
	}
}
