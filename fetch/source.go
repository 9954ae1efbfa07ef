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
	"fmt"
	"io"
	"os"
)

// RangeSource serves an uncompressed byte range given its offset and
// length, regardless of whether the underlying file is plain or
// gzip-indexed. gzindex.IndexedReader already satisfies this interface.
type RangeSource interface {
	ReadAt(offset, length int64) ([]byte, error)
}

// PlainFileRangeSource adapts a plain *os.File to RangeSource.
type PlainFileRangeSource struct {
	f *os.File
}

// NewPlainFileRangeSource wraps f (owned by the caller) for random-access
// byte-range reads.
func NewPlainFileRangeSource(f *os.File) *PlainFileRangeSource {
	return &PlainFileRangeSource{f: f}
}

func (p *PlainFileRangeSource) ReadAt(offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := p.f.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: reading range [%d,%d): %w", errFetch, offset, offset+length, err)
	}
	return buf[:n], nil
}
