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
	"github.com/seqidx/fastx/catalog"
)

// FastqEngine answers FASTQ seq/qual/description/raw/quali requests.
// Unlike the FASTA Engine, reads are not cached: each FASTQ field lives at its own fixed offset, so there is no
// sliding-window arithmetic to amortize.
type FastqEngine struct {
	store  *catalog.Store
	source RangeSource
	phred  int
}

// NewFastqEngine builds a FastqEngine over a FASTQ catalog and its
// sequence-file byte source. phred is the quality offset to use for Quali;
// pass 0 to default to 33.
func NewFastqEngine(store *catalog.Store, source RangeSource, phred int) *FastqEngine {
	if phred == 0 {
		phred = 33
	}
	return &FastqEngine{store: store, source: source, phred: phred}
}

func (e *FastqEngine) lookup(name string) (*catalog.FastqRecord, error) {
	return e.store.GetReadByName(name)
}

// Seq returns the read's sequence bytes.
func (e *FastqEngine) Seq(name string) ([]byte, error) {
	rec, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.source.ReadAt(rec.SeqOffset, rec.ReadLength)
}

// Qual returns the read's raw quality bytes.
func (e *FastqEngine) Qual(name string) ([]byte, error) {
	rec, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	return e.source.ReadAt(rec.QualOffset, rec.ReadLength)
}

// Description returns the header line's content after '@'.
func (e *FastqEngine) Description(name string) (string, error) {
	rec, err := e.lookup(name)
	if err != nil {
		return "", err
	}
	offset := rec.SeqOffset - rec.DescLength - 1
	b, err := e.source.ReadAt(offset, rec.DescLength)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Raw returns the whole four-line record block, including line terminators.
func (e *FastqEngine) Raw(name string) ([]byte, error) {
	rec, err := e.lookup(name)
	if err != nil {
		return nil, err
	}
	start := rec.SeqOffset - rec.DescLength - 2 // the '@' sigil
	length := (rec.QualOffset + rec.ReadLength) - start + 1
	return e.source.ReadAt(start, length)
}

// Quali returns the read's quality bytes mapped to integer Phred scores.
func (e *FastqEngine) Quali(name string) ([]int, error) {
	q, err := e.Qual(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(q))
	for i, b := range q {
		out[i] = int(b) - e.phred
	}
	return out, nil
}
