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
	"fmt"
	"io"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/scanner"
)

// DetectQuality makes a second pass over sc (which must be rewound to the
// start of the file by the caller first) to compute the corpus-wide
// quality-byte range and base composition, and writes both to the catalog.
func DetectQuality(sc *scanner.Scanner, build *catalog.Build) (catalog.QualStats, catalog.BaseStats, error) {
	minQS, maxQS := -1, -1
	var a, c, g, t, n int64

	for {
		header, _, _, err := sc.GetLine(nil, false)
		if err == io.EOF {
			break
		}
		if err != nil {
			return catalog.QualStats{}, catalog.BaseStats{}, fmt.Errorf("%w: reading header line: %w", errFqidx, err)
		}
		if len(header) == 0 || header[0] != '@' {
			return catalog.QualStats{}, catalog.BaseStats{}, ErrMalformed
		}

		seqLine, _, _, err := sc.GetLine(nil, false)
		if err != nil {
			return catalog.QualStats{}, catalog.BaseStats{}, fmt.Errorf("%w: reading sequence line: %w", ErrTruncated, err)
		}
		if _, _, _, err := sc.GetLine(nil, false); err != nil {
			return catalog.QualStats{}, catalog.BaseStats{}, fmt.Errorf("%w: reading separator line: %w", ErrTruncated, err)
		}
		qualLine, _, _, err := sc.GetLine(nil, false)
		if err != nil {
			return catalog.QualStats{}, catalog.BaseStats{}, fmt.Errorf("%w: reading quality line: %w", ErrTruncated, err)
		}

		for _, ch := range seqLine {
			switch ch {
			case 'A', 'a':
				a++
			case 'C', 'c':
				c++
			case 'G', 'g':
				g++
			case 'T', 't':
				t++
			default:
				n++
			}
		}
		for _, q := range qualLine {
			qi := int(q)
			if minQS == -1 || qi < minQS {
				minQS = qi
			}
			if maxQS == -1 || qi > maxQS {
				maxQS = qi
			}
		}
	}

	qs := catalog.QualStats{MinQS: minQS, MaxQS: maxQS, Phred: inferPhred(minQS, maxQS)}
	bs := catalog.BaseStats{A: a, C: c, G: g, T: t, N: n}
	if err := build.SetQual(qs); err != nil {
		return catalog.QualStats{}, catalog.BaseStats{}, err
	}
	if err := build.SetBase(bs); err != nil {
		return catalog.QualStats{}, catalog.BaseStats{}, err
	}
	return qs, bs, nil
}

// inferPhred infers the phred offset from the observed quality-byte range: 64 if the observed max exceeds 74, 33 if the
// observed min is below 59, else undetermined (reported as 0, since 0 is
// not a valid phred offset).
func inferPhred(minQS, maxQS int) int {
	if maxQS > 74 {
		return 64
	}
	if minQS < 59 {
		return 33
	}
	return 0
}

// DetectEncoding maps an observed [min,max] quality-byte range to every
// platform label whose Phred range contains it.
func DetectEncoding(minQS, maxQS int) []string {
	var labels []string
	if minQS >= 33 && maxQS <= 73 {
		labels = append(labels, "Sanger")
	}
	if minQS >= 33 && maxQS <= 74 {
		labels = append(labels, "Illumina 1.8+")
	}
	if minQS >= 59 && maxQS <= 104 {
		labels = append(labels, "Solexa")
	}
	if minQS >= 64 && maxQS <= 104 {
		labels = append(labels, "Illumina 1.3+")
	}
	if minQS >= 66 && maxQS <= 104 {
		labels = append(labels, "Illumina 1.5+")
	}
	return labels
}
