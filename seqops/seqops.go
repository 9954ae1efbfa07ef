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

// Package seqops implements the byte-level operations (reverse, complement,
// search, composition) that the fetch engine applies to a decoded sequence
// region.
package seqops

import "bytes"

// complementTable maps each IUPAC nucleotide code to its complement, case
// preserved. Unrecognized bytes pass through unchanged.
var complementTable = buildComplementTable()

func buildComplementTable() [256]byte {
	var t [256]byte
	for i := range t {
		t[i] = byte(i)
	}
	pairs := map[byte]byte{
		'A': 'T', 'T': 'A',
		'C': 'G', 'G': 'C',
		'U': 'A',
		'R': 'Y', 'Y': 'R',
		'M': 'K', 'K': 'M',
		'B': 'V', 'V': 'B',
		'D': 'H', 'H': 'D',
		'N': 'N', 'S': 'S', 'W': 'W',
	}
	for upper, comp := range pairs {
		t[upper] = comp
		lower := upper + ('a' - 'A')
		compLower := comp + ('a' - 'A')
		t[lower] = compLower
	}
	return t
}

// Reverse reverses b in place.
func Reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Complement maps each base in b to its complement in place. Bytes outside
// the IUPAC alphabet pass through unchanged.
func Complement(b []byte) {
	for i, c := range b {
		b[i] = complementTable[c]
	}
}

// ReverseComplement returns the reverse complement of seq as a new slice. The
// input is not modified.
func ReverseComplement(seq []byte) []byte {
	out := make([]byte, len(seq))
	for i, c := range seq {
		out[len(seq)-1-i] = complementTable[c]
	}
	return out
}

// Strand selects which orientation of a sequence a caller wants.
type Strand byte

const (
	// Forward is the strand as stored in the file.
	Forward Strand = '+'
	// ReverseStrand is the reverse-complemented strand.
	ReverseStrand Strand = '-'
)

// Apply returns seq unchanged for Forward, or its reverse complement for
// ReverseStrand.
func Apply(seq []byte, strand Strand) []byte {
	if strand == ReverseStrand {
		return ReverseComplement(seq)
	}
	out := make([]byte, len(seq))
	copy(out, seq)
	return out
}

// Search returns the 1-based position of the first occurrence of pattern in
// seq, or -1 if it does not occur. When strand is ReverseStrand, pattern is
// reverse-complemented before the search.
func Search(seq []byte, pattern []byte, strand Strand) int {
	needle := pattern
	if strand == ReverseStrand {
		needle = ReverseComplement(pattern)
	}
	idx := bytes.Index(seq, needle)
	if idx < 0 {
		return -1
	}
	return idx + 1
}

// Composition is a per-letter histogram over A-Z (case folded to upper).
type Composition map[byte]int

// Compose returns the per-letter histogram of seq.
func Compose(seq []byte) Composition {
	c := make(Composition)
	for _, b := range seq {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		if b >= 'A' && b <= 'Z' {
			c[b]++
		}
	}
	return c
}

// BaseCounts holds the per-base counts used for GC content/skew and
// catalog statistics.
type BaseCounts struct {
	A, C, G, T, N int64
}

// Count tallies seq into a BaseCounts, upper-casing for classification;
// anything that is not A/C/G/T counts as N, matching the FASTA indexer's
// classification rule.
func Count(seq []byte) BaseCounts {
	var bc BaseCounts
	for _, b := range seq {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		switch b {
		case 'A':
			bc.A++
		case 'C':
			bc.C++
		case 'G':
			bc.G++
		case 'T':
			bc.T++
		default:
			bc.N++
		}
	}
	return bc
}

// GCContent returns (G+C)/(A+C+G+T) * 100.
func (bc BaseCounts) GCContent() float64 {
	total := bc.A + bc.C + bc.G + bc.T
	if total == 0 {
		return 0
	}
	return float64(bc.G+bc.C) / float64(total) * 100
}

// GCSkew returns (G-C)/(G+C).
func (bc BaseCounts) GCSkew() float64 {
	denom := bc.G + bc.C
	if denom == 0 {
		return 0
	}
	return float64(bc.G-bc.C) / float64(denom)
}
