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

// Package scanner is a bounded read-ahead token reader over a ByteSource,
// the common front end the FASTA and FASTQ indexers use to walk a
// decompressed byte stream one character or delimited token at a time.
package scanner

import (
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
)

// ByteSource is the common interface a Scanner reads from: a plain
// uncompressed file, or a forward-only decompressor over a gzip one.
// Implementations are not required to be safe for concurrent use.
type ByteSource interface {
	io.Reader
	Seek(offset int64, whence int) (int64, error)
	Tell() (int64, error)
	Eof() bool
}

// FileSource is a ByteSource backed by a memory-mapped plain file, avoiding
// a buffered copy for the common case of an uncompressed FASTA/FASTQ file
// on local disk.
type FileSource struct {
	f    *os.File
	data mmap.MMap
	pos  int64
}

// OpenFileSource maps f (which remains owned by the caller; OpenFileSource
// does not close it) read-only for scanning.
func OpenFileSource(f *os.File) (*FileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return &FileSource{f: f}, nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return &FileSource{f: f, data: m}, nil
}

func (s *FileSource) Read(p []byte) (int, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += int64(n)
	return n, nil
}

func (s *FileSource) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = int64(len(s.data)) + offset
	}
	s.pos = target
	return s.pos, nil
}

func (s *FileSource) Tell() (int64, error) { return s.pos, nil }

func (s *FileSource) Eof() bool { return s.pos >= int64(len(s.data)) }

// Close unmaps the file. It does not close the underlying *os.File.
func (s *FileSource) Close() error {
	if s.data != nil {
		return s.data.Unmap()
	}
	return nil
}

// ReaderSource adapts a forward-only io.Reader (e.g. a pgzip.Reader
// decompressing a member from the start) to ByteSource for record
// iteration, which only ever walks forward from offset 0.
type ReaderSource struct {
	r   io.Reader
	pos int64
	eof bool
}

// NewReaderSource wraps r, which must already be positioned at the logical
// start (uncompressed offset 0) of the stream.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

func (s *ReaderSource) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	s.pos += int64(n)
	if err == io.EOF {
		s.eof = true
	}
	return n, err
}

// Seek succeeds only for Seek(0, io.SeekStart) before anything has been
// read, as a no-op; every other seek returns an error. A caller that needs
// to rewind must build a fresh ReaderSource over a fresh decompressor
// instead, since io.Reader itself cannot rewind.
func (s *ReaderSource) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekStart && s.pos == 0 {
		return 0, nil
	}
	return s.pos, fmt.Errorf("scanner: ReaderSource does not support seeking past its current forward position")
}

func (s *ReaderSource) Tell() (int64, error) { return s.pos, nil }

func (s *ReaderSource) Eof() bool { return s.eof }
