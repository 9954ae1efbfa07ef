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

package scanner

import (
	"bytes"
	"io"
)

// DefaultBufferSize is the scanner's default read-ahead buffer size.
const DefaultBufferSize = 16 * 1024

// Scanner is a bounded read-ahead reader over a ByteSource. It is not safe
// for concurrent use; callers keep one Scanner per live file handle.
type Scanner struct {
	src        ByteSource
	buf        []byte
	pos, n     int
	baseOffset int64
}

// New returns a Scanner with the default buffer size.
func New(src ByteSource) *Scanner {
	return NewSize(src, DefaultBufferSize)
}

// NewSize returns a Scanner with a caller-chosen buffer size.
func NewSize(src ByteSource, size int) *Scanner {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Scanner{src: src, buf: make([]byte, size)}
}

// Offset returns the absolute byte offset of the next unread byte in the
// underlying source.
func (s *Scanner) Offset() int64 {
	return s.baseOffset + int64(s.pos)
}

func (s *Scanner) fill() error {
	if s.pos < s.n {
		return nil
	}
	off, err := s.src.Tell()
	if err != nil {
		return err
	}
	s.baseOffset = off
	n, err := s.src.Read(s.buf)
	s.pos, s.n = 0, n
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return err
	}
	return nil
}

// GetChar returns the next byte, or io.EOF once the source is exhausted.
func (s *Scanner) GetChar() (byte, error) {
	if err := s.fill(); err != nil {
		return 0, err
	}
	b := s.buf[s.pos]
	s.pos++
	return b, nil
}

// Kind selects one of the delimiter families get_until supports.
type Kind int

const (
	// KindLine delimits on LF and additionally strips a trailing CR from
	// the token, tolerating mixed LF/CRLF line endings.
	KindLine Kind = iota
	KindByte
)

// Delim names a delimiter for GetUntil.
type Delim struct {
	Kind Kind
	B    byte
}

// Line delimits on '\n', stripping a trailing '\r'.
var Line = Delim{Kind: KindLine, B: '\n'}

// Space delimits on a literal space byte.
var Space = Delim{Kind: KindByte, B: ' '}

// Tab delimits on a literal tab byte.
var Tab = Delim{Kind: KindByte, B: '\t'}

// ByteDelim delimits on an arbitrary literal byte.
func ByteDelim(b byte) Delim { return Delim{Kind: KindByte, B: b} }

// GetUntil reads bytes up to (but not including) the delimiter, consuming
// the delimiter itself, and appends them to buf (or starts fresh when
// appendTo is false). It returns io.EOF only when no bytes at all were read
// before the source was exhausted; a token terminated by EOF instead of a
// delimiter is still returned without error.
func (s *Scanner) GetUntil(d Delim, buf []byte, appendTo bool) ([]byte, error) {
	out := buf
	if !appendTo {
		out = out[:0]
	}
	sawAny := false
	for {
		if err := s.fill(); err != nil {
			if err == io.EOF && sawAny {
				return out, nil
			}
			return out, err
		}
		i := bytes.IndexByte(s.buf[s.pos:s.n], d.B)
		if i < 0 {
			out = append(out, s.buf[s.pos:s.n]...)
			sawAny = sawAny || s.n > s.pos
			s.pos = s.n
			continue
		}
		out = append(out, s.buf[s.pos:s.pos+i]...)
		s.pos += i + 1
		if d.Kind == KindLine && len(out) > 0 && out[len(out)-1] == '\r' {
			out = out[:len(out)-1]
		}
		return out, nil
	}
}

// GetLine is GetUntil(Line, ...) with the extra bookkeeping the FASTA/FASTQ
// indexers need to compute exact line-geometry byte counts: whether a
// trailing CR was stripped (distinguishing LF from CRLF endings) and
// whether the line was actually terminated by a newline at all (the last
// line of a file may end at EOF with no terminator). It returns io.EOF only
// when the source was already fully exhausted with no line left to return.
func (s *Scanner) GetLine(buf []byte, appendTo bool) (line []byte, hadCR bool, terminated bool, err error) {
	out := buf
	if !appendTo {
		out = out[:0]
	}
	sawAny := false
	for {
		if ferr := s.fill(); ferr != nil {
			if ferr == io.EOF {
				if !sawAny {
					return out, false, false, io.EOF
				}
				return out, false, false, nil
			}
			return out, false, false, ferr
		}
		i := bytes.IndexByte(s.buf[s.pos:s.n], '\n')
		if i < 0 {
			out = append(out, s.buf[s.pos:s.n]...)
			sawAny = sawAny || s.n > s.pos
			s.pos = s.n
			continue
		}
		out = append(out, s.buf[s.pos:s.pos+i]...)
		s.pos += i + 1
		if len(out) > 0 && out[len(out)-1] == '\r' {
			out = out[:len(out)-1]
			return out, true, true, nil
		}
		return out, false, true, nil
	}
}
