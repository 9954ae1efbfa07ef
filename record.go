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
	"fmt"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/seqops"
)

// Record is a non-owning handle to one catalog entry: a back-pointer to the
// Instance plus the record's name. There is no cycle and no shared buffer;
// every method call re-reads through the instance's engines. It is safe to hold
// a Record after further calls on the Instance; it is not safe to use one
// after the Instance has been closed.
type Record struct {
	inst *Instance
	name string
}

// Name returns the record's name (the catalog key it was looked up by).
func (r *Record) Name() string {
	return r.name
}

// Length returns the record's sequence (FASTA) or read (FASTQ) length.
func (r *Record) Length() (int64, error) {
	if r.inst.kind == catalog.KindFasta {
		rec, err := r.inst.store.GetSeqByName(r.name)
		if err != nil {
			return 0, err
		}
		return rec.SeqLength, nil
	}
	rec, err := r.inst.store.GetReadByName(r.name)
	if err != nil {
		return 0, err
	}
	return rec.ReadLength, nil
}

// Description returns the header line's content after the '>' or '@'
// sigil, including the name itself and any trailing comment.
func (r *Record) Description() (string, error) {
	if r.inst.kind == catalog.KindFasta {
		return r.inst.faEngine.Description(r.name)
	}
	return r.inst.fqEngine.Description(r.name)
}

// Raw returns the whole record exactly as it appears in the file, header
// line, terminators, and all.
func (r *Record) Raw() ([]byte, error) {
	if r.inst.kind == catalog.KindFasta {
		return r.inst.faEngine.Raw(r.name)
	}
	return r.inst.fqEngine.Raw(r.name)
}

// Seq returns the record's forward-strand, case-normalized sequence.
func (r *Record) Seq() ([]byte, error) {
	if r.inst.kind == catalog.KindFasta {
		return r.inst.faEngine.FetchRecord(r.name, seqops.Forward)
	}
	return r.inst.fqEngine.Seq(r.name)
}

// Qual returns the read's raw quality bytes. It is only meaningful for
// FASTQ instances; calling it on a FASTA record returns ErrInvalidCoordinates
// wrapping a description of the mismatch.
func (r *Record) Qual() ([]byte, error) {
	if r.inst.kind != catalog.KindFastq {
		return nil, fmt.Errorf("%w: Qual is only defined for FASTQ records", ErrInvalidCoordinates)
	}
	return r.inst.fqEngine.Qual(r.name)
}

// Quali maps the read's quality bytes to integer Phred scores using the
// instance's configured (or detected) offset. FASTQ only, see Qual.
func (r *Record) Quali() ([]int, error) {
	if r.inst.kind != catalog.KindFastq {
		return nil, fmt.Errorf("%w: Quali is only defined for FASTQ records", ErrInvalidCoordinates)
	}
	return r.inst.fqEngine.Quali(r.name)
}

// Slice returns bases [start, end] (1-based inclusive) with strand applied.
// FASTA only: a FASTQ read's coordinates are reachable only as a whole.
func (r *Record) Slice(start, end int64, strand seqops.Strand) ([]byte, error) {
	if r.inst.kind != catalog.KindFasta {
		return nil, fmt.Errorf("%w: Slice is only defined for FASTA records", ErrInvalidCoordinates)
	}
	return r.inst.faEngine.Fetch(r.name, start, end, strand)
}

// Reverse returns the forward sequence reversed (not complemented).
func (r *Record) Reverse() ([]byte, error) {
	seq, err := r.Seq()
	if err != nil {
		return nil, err
	}
	seqops.Reverse(seq)
	return seq, nil
}

// Complement returns the forward sequence complemented in place (not
// reversed).
func (r *Record) Complement() ([]byte, error) {
	seq, err := r.Seq()
	if err != nil {
		return nil, err
	}
	seqops.Complement(seq)
	return seq, nil
}

// Antisense returns the reverse complement of the record's sequence.
func (r *Record) Antisense() ([]byte, error) {
	if r.inst.kind == catalog.KindFasta {
		return r.inst.faEngine.FetchRecord(r.name, seqops.ReverseStrand)
	}
	seq, err := r.inst.fqEngine.Seq(r.name)
	if err != nil {
		return nil, err
	}
	return seqops.ReverseComplement(seq), nil
}

// Search returns the 1-based position of pattern's first occurrence in the
// record (reverse-complemented first when strand is ReverseStrand), or -1.
func (r *Record) Search(pattern []byte, strand seqops.Strand) (int, error) {
	seq, err := r.Seq()
	if err != nil {
		return -1, err
	}
	return seqops.Search(seq, pattern, strand), nil
}

// Composition returns the record's per-letter histogram.
func (r *Record) Composition() (seqops.Composition, error) {
	seq, err := r.Seq()
	if err != nil {
		return nil, err
	}
	return seqops.Compose(seq), nil
}

// GCContent returns (G+C)/(A+C+G+T)*100 for the record. For FASTA it is
// read directly from the catalog's precomputed per-record base counts;
// FASTQ has no per-read composition in the catalog (only a corpus-wide
// aggregate, see catalog.Store.SumBases), so it is computed from the
// decoded sequence instead.
func (r *Record) GCContent() (float64, error) {
	bc, err := r.baseCounts()
	if err != nil {
		return 0, err
	}
	return bc.GCContent(), nil
}

// GCSkew returns (G-C)/(G+C) for the record.
func (r *Record) GCSkew() (float64, error) {
	bc, err := r.baseCounts()
	if err != nil {
		return 0, err
	}
	return bc.GCSkew(), nil
}

func (r *Record) baseCounts() (seqops.BaseCounts, error) {
	if r.inst.kind == catalog.KindFasta {
		rec, err := r.inst.store.GetSeqByName(r.name)
		if err != nil {
			return seqops.BaseCounts{}, err
		}
		return seqops.BaseCounts{A: rec.A, C: rec.C, G: rec.G, T: rec.T, N: rec.N}, nil
	}
	seq, err := r.inst.fqEngine.Seq(r.name)
	if err != nil {
		return seqops.BaseCounts{}, err
	}
	return seqops.Count(seq), nil
}
