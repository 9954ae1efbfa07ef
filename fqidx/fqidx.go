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

// Package fqidx is the single-pass FASTQ indexer: it walks four-line record
// blocks, recording just enough geometry (byte offsets and lengths) for the
// slice/fetch engine to later read seq/qual/description directly. Base
// composition and quality-encoding detection are a separate, lazily
// triggered pass.
package fqidx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/scanner"
)

// Build walks sc to completion, emitting one read row per four-line record.
func Build(sc *scanner.Scanner, build *catalog.Build) (catalog.Meta, error) {
	var id int64
	var totalCount, totalLength int64

	for {
		header, _, _, err := sc.GetLine(nil, false)
		if err == io.EOF {
			break
		}
		if err != nil {
			return catalog.Meta{}, fmt.Errorf("%w: reading header line: %w", errFqidx, err)
		}
		if len(header) == 0 || header[0] != '@' {
			return catalog.Meta{}, ErrMalformed
		}
		desc := header[1:]
		descLen := int64(len(desc))
		name := firstToken(desc)

		seqOffset := sc.Offset()
		seqLine, _, _, err := sc.GetLine(nil, false)
		if err != nil {
			return catalog.Meta{}, fmt.Errorf("%w: reading sequence line for %q: %w", ErrTruncated, name, err)
		}
		readLen := int64(len(seqLine))

		plusLine, _, _, err := sc.GetLine(nil, false)
		if err != nil {
			return catalog.Meta{}, fmt.Errorf("%w: reading separator line for %q: %w", ErrTruncated, name, err)
		}
		if len(plusLine) == 0 || plusLine[0] != '+' {
			return catalog.Meta{}, ErrMalformed
		}

		qualOffset := sc.Offset()
		qualLine, _, _, err := sc.GetLine(nil, false)
		if err != nil {
			return catalog.Meta{}, fmt.Errorf("%w: reading quality line for %q: %w", ErrTruncated, name, err)
		}
		if int64(len(qualLine)) != readLen {
			return catalog.Meta{}, fmt.Errorf("%w: record %q", ErrMalformedFastq, name)
		}

		id++
		rec := catalog.FastqRecord{
			ID: id, Name: name, DescLength: descLen, ReadLength: readLen,
			SeqOffset: seqOffset, QualOffset: qualOffset,
		}
		if err := build.InsertRead(rec); err != nil {
			return catalog.Meta{}, err
		}
		totalCount++
		totalLength += readLen
	}

	meta := catalog.Meta{Count: totalCount, TotalLength: totalLength}
	if err := build.SetMeta(meta); err != nil {
		return catalog.Meta{}, err
	}
	return meta, nil
}

func firstToken(b []byte) string {
	if i := bytes.IndexAny(b, " \t"); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
