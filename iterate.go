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
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/scanner"
)

// RawRecord is one record as it comes off a forward scan: the catalog
// plays no part in producing it. Qual is nil for a FASTA instance.
type RawRecord struct {
	Name        string
	Description string
	Seq         []byte
	Qual        []byte
}

// Iterator walks every record of an Instance's underlying file in file
// order over a dedicated forward-streaming decompressor, independent of
// the instance's random-access engines and cache.
type Iterator struct {
	kind catalog.Kind
	sc   *scanner.Scanner
	zr   io.Closer // closes the iterator's own file handle/decompressor

	pending      []byte // one line of lookahead, consumed by nextLine
	pendingValid bool
}

// Iterate rewinds to the start of inst's underlying file and returns an
// Iterator over its records. The Instance's own file handle and engines are
// untouched; Iterate opens (and the returned Iterator's Close releases) an
// independent handle.
func (inst *Instance) Iterate() (*Iterator, error) {
	f, err := os.Open(inst.f.Name())
	if err != nil {
		return nil, fmt.Errorf("%w: reopening %q for iteration: %w", ErrFastx, inst.f.Name(), err)
	}

	isGzip, err := detectGzip(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	var src scanner.ByteSource
	var closer io.Closer
	if isGzip {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: opening gzip stream for iteration: %w", ErrFastx, err)
		}
		src = scanner.NewReaderSource(zr)
		closer = zr
	} else {
		src = scanner.NewReaderSource(f)
		closer = f
	}

	return &Iterator{kind: inst.kind, sc: scanner.New(src), zr: closer}, nil
}

// Close releases the iterator's own file handle and decompressor.
func (it *Iterator) Close() error {
	return it.zr.Close()
}

// nextLine returns the next line, preferring a previously pushed-back one.
func (it *Iterator) nextLine() ([]byte, error) {
	if it.pendingValid {
		it.pendingValid = false
		return it.pending, nil
	}
	line, _, _, err := it.sc.GetLine(nil, false)
	return line, err
}

// pushback returns line to be the next one nextLine hands back.
func (it *Iterator) pushback(line []byte) {
	it.pending = line
	it.pendingValid = true
}

// Next returns the next record in file order, or io.EOF once exhausted.
func (it *Iterator) Next() (*RawRecord, error) {
	if it.kind == catalog.KindFasta {
		return it.nextFasta()
	}
	return it.nextFastq()
}

func (it *Iterator) nextFasta() (*RawRecord, error) {
	header, err := it.nextLine()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header line: %w", ErrFastx, err)
	}
	if len(header) == 0 || header[0] != '>' {
		return nil, fmt.Errorf("%w: expected '>' header", ErrMalformedFasta)
	}
	desc := string(header[1:])
	name := desc
	if i := bytes.IndexAny(header[1:], " \t"); i >= 0 {
		name = desc[:i]
	}

	var seq []byte
	for {
		line, err := it.nextLine()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading sequence line for %q: %w", ErrFastx, name, err)
		}
		if len(line) > 0 && line[0] == '>' {
			it.pushback(line)
			break
		}
		seq = append(seq, line...)
	}
	return &RawRecord{Name: name, Description: desc, Seq: seq}, nil
}

func (it *Iterator) nextFastq() (*RawRecord, error) {
	header, _, _, err := it.sc.GetLine(nil, false)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header line: %w", ErrFastx, err)
	}
	if len(header) == 0 || header[0] != '@' {
		return nil, fmt.Errorf("%w: expected '@' header", ErrMalformedFastq)
	}
	desc := string(header[1:])
	name := desc
	if i := bytes.IndexAny(header[1:], " \t"); i >= 0 {
		name = desc[:i]
	}

	seq, _, _, err := it.sc.GetLine(nil, false)
	if err != nil {
		return nil, fmt.Errorf("%w: reading sequence line for %q: %w", ErrFastx, name, err)
	}
	plus, _, _, err := it.sc.GetLine(nil, false)
	if err != nil {
		return nil, fmt.Errorf("%w: reading separator line for %q: %w", ErrFastx, name, err)
	}
	if len(plus) == 0 || plus[0] != '+' {
		return nil, fmt.Errorf("%w: expected '+' separator for %q", ErrMalformedFastq, name)
	}
	qual, _, _, err := it.sc.GetLine(nil, false)
	if err != nil {
		return nil, fmt.Errorf("%w: reading quality line for %q: %w", ErrFastx, name, err)
	}
	if len(qual) != len(seq) {
		return nil, fmt.Errorf("%w: record %q", ErrMalformedFastq, name)
	}

	return &RawRecord{
		Name:        name,
		Description: desc,
		Seq:         append([]byte(nil), seq...),
		Qual:        append([]byte(nil), qual...),
	}, nil
}
