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

// Package fetch is the slice/fetch engine: it turns a biological
// (name, start, end, strand) coordinate into a byte range, reads it through
// a RangeSource, strips line-ending bytes, and caches the decoded window.
package fetch

import (
	"fmt"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/seqops"
)

// Engine answers FASTA substring and whole-record requests.
type Engine struct {
	store     *catalog.Store
	source    RangeSource
	uppercase bool
	cache     windowCache
}

// NewEngine builds an Engine over a FASTA catalog and its sequence-file
// byte source.
func NewEngine(store *catalog.Store, source RangeSource, uppercase bool) *Engine {
	return &Engine{store: store, source: source, uppercase: uppercase}
}

// Fetch returns bases [start, end] (1-based inclusive) of the named record,
// with strand applied.
func (e *Engine) Fetch(name string, start, end int64, strand seqops.Strand) ([]byte, error) {
	rec, err := e.store.GetSeqByName(name)
	if err != nil {
		return nil, err
	}
	if start < 1 || end < start || end > rec.SeqLength {
		return nil, fmt.Errorf("%w: start=%d end=%d seq_length=%d", ErrInvalidCoordinates, start, end, rec.SeqLength)
	}

	if cached, ok := e.cache.lookup(rec.ID, start, end); ok {
		return e.finish(cached, strand), nil
	}

	decoded, err := e.decodeRange(rec, start, end)
	if err != nil {
		return nil, err
	}
	e.cache.set(rec.ID, start, end, decoded)
	return e.finish(decoded, strand), nil
}

// FetchRecord returns the whole record's sequence, equivalent to
// Fetch(name, 1, seq_length, strand).
func (e *Engine) FetchRecord(name string, strand seqops.Strand) ([]byte, error) {
	rec, err := e.store.GetSeqByName(name)
	if err != nil {
		return nil, err
	}
	return e.Fetch(name, 1, rec.SeqLength, strand)
}

// finish applies strand to a decoded window, purging the cache afterward on
// the minus strand since complement/reverse are logically in-place
// mutations of the decoded buffer.
func (e *Engine) finish(decoded []byte, strand seqops.Strand) []byte {
	if strand == seqops.ReverseStrand {
		e.cache.invalidate()
	}
	return seqops.Apply(decoded, strand)
}

// decodeRange computes the compressed/plain-file byte range for
// [start, end] and returns the decoded (CR/LF-stripped, case-normalized)
// bases.
func (e *Engine) decodeRange(rec *catalog.FastaRecord, start, end int64) ([]byte, error) {
	var offset, nBytes int64
	if rec.Normalized {
		inner := rec.LineLength - rec.EndLength
		sL := (start - 1) / inner
		offset = rec.Offset + (start - 1) + sL*rec.EndLength
		nBytes = (end - start + 1) + ((end-1)/inner-sL)*rec.EndLength
	} else {
		offset = rec.Offset
		nBytes = rec.ByteLength
	}

	raw, err := e.source.ReadAt(offset, nBytes)
	if err != nil {
		return nil, err
	}
	stripped := stripCRLF(raw)
	if e.uppercase {
		toUpperASCII(stripped)
	}

	if !rec.Normalized {
		if end > int64(len(stripped)) {
			return nil, fmt.Errorf("%w: record %q shorter than requested range", ErrInvalidCoordinates, rec.Name)
		}
		stripped = append([]byte(nil), stripped[start-1:end]...)
	}
	return stripped, nil
}

// Description returns the FASTA header line's content after '>' (the name
// plus any trailing comment), following the same fixed LF-terminator
// assumption FastqEngine.Description makes for its header line.
func (e *Engine) Description(name string) (string, error) {
	rec, err := e.store.GetSeqByName(name)
	if err != nil {
		return "", err
	}
	offset := rec.Offset - rec.DescLength - 1
	if offset < 0 {
		offset = 0
	}
	b, err := e.source.ReadAt(offset, rec.DescLength)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Raw returns the whole record, header line and all, exactly as stored.
func (e *Engine) Raw(name string) ([]byte, error) {
	rec, err := e.store.GetSeqByName(name)
	if err != nil {
		return nil, err
	}
	headerLen := rec.DescLength + 2 // '>' + header text + LF
	start := rec.Offset - headerLen
	if start < 0 {
		start = 0
	}
	return e.source.ReadAt(start, headerLen+rec.ByteLength)
}

// stripCRLF removes every CR and LF byte, returning a new slice.
func stripCRLF(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for _, ch := range b {
		if ch == '\r' || ch == '\n' {
			continue
		}
		out = append(out, ch)
	}
	return out
}

func toUpperASCII(b []byte) {
	for i, ch := range b {
		if ch >= 'a' && ch <= 'z' {
			b[i] = ch - ('a' - 'A')
		}
	}
}
