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

// Package faidx is the single-pass FASTA indexer: it walks a decompressed
// stream once and emits one catalog row per record, with enough line
// geometry and base-composition data for the slice/fetch engine to later
// compute byte ranges without re-scanning.
package faidx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/scanner"
)

// Build walks sc to completion, emitting one seq row per record through
// build. The header/sequence-line state machine is expressed in terms of
// scanner.GetLine, which already strips a trailing CR and reports whether a
// line was terminated: the states are really about line boundaries, and a
// line reader is the natural way to walk them.
func Build(sc *scanner.Scanner, build *catalog.Build) (catalog.Meta, error) {
	var id int64
	var totalCount, totalLength int64

	var haveRecord bool
	var name string
	var recOffset, descLen int64
	var seqLen, byteLen, lineLen, endLen int64
	var badLines, lineCount, prevTotal int64
	var sawLF, sawCRLF bool

	resetRecord := func() {
		seqLen, byteLen, lineLen, endLen = 0, 0, 0, 0
		badLines, lineCount, prevTotal = 0, 0, 0
		sawLF, sawCRLF = false, false
	}
	var a, c, g, t, n int64

	flush := func() error {
		if !haveRecord {
			return nil
		}
		id++
		// Every interior line must match the first line's total byte length,
		// every line must use the same terminator, and the final line is
		// exempt only as long as it is no longer than the rest: the
		// byte-offset arithmetic tolerates a shorter tail but not a longer
		// one.
		normalized := badLines == 0 && !(sawLF && sawCRLF) &&
			(lineCount <= 1 || prevTotal <= lineLen)
		rec := catalog.FastaRecord{
			ID:         id,
			Name:       name,
			Offset:     recOffset,
			ByteLength: byteLen,
			SeqLength:  seqLen,
			LineLength: lineLen,
			EndLength:  endLen,
			Normalized: normalized,
			DescLength: descLen,
			A:          a, C: c, G: g, T: t, N: n,
		}
		if err := build.InsertSeq(rec); err != nil {
			return err
		}
		totalCount++
		totalLength += seqLen
		return nil
	}

	for {
		line, hadCR, terminated, err := sc.GetLine(nil, false)
		if err == io.EOF {
			break
		}
		if err != nil {
			return catalog.Meta{}, fmt.Errorf("%w: reading line: %w", errFaidx, err)
		}

		if len(line) > 0 && line[0] == '>' {
			if err := flush(); err != nil {
				return catalog.Meta{}, err
			}
			haveRecord = true
			resetRecord()
			a, c, g, t, n = 0, 0, 0, 0, 0
			header := line[1:]
			descLen = int64(len(header))
			if i := bytes.IndexAny(header, " \t"); i >= 0 {
				name = string(header[:i])
			} else {
				name = string(header)
			}
			recOffset = sc.Offset()
			continue
		}

		if !haveRecord {
			return catalog.Meta{}, ErrMalformed
		}

		var termLen int64
		if terminated {
			if hadCR {
				termLen = 2
				endLen = 2
				sawCRLF = true
			} else {
				termLen = 1
				if endLen == 0 {
					endLen = 1
				}
				sawLF = true
			}
		}
		total := int64(len(line)) + termLen

		if lineCount > 0 && prevTotal != lineLen {
			badLines++
		}
		lineCount++
		if lineCount == 1 {
			lineLen = total
		}
		prevTotal = total

		seqLen += int64(len(line))
		byteLen += total
		for _, ch := range line {
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
	}

	if err := flush(); err != nil {
		return catalog.Meta{}, err
	}

	meta := catalog.Meta{Count: totalCount, TotalLength: totalLength}
	if err := build.SetMeta(meta); err != nil {
		return catalog.Meta{}, err
	}
	return meta, nil
}
