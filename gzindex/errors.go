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

package gzindex

import (
	"errors"
	"fmt"
	"io"
)

// errGzindex is the base error every gzindex error wraps.
var errGzindex = errors.New("gzindex")

var (
	// ErrCorruptStream is returned when the underlying deflate stream is
	// invalid.
	ErrCorruptStream = fmt.Errorf("%w: corrupt stream", errGzindex)

	// ErrTruncated is returned when EOF is reached mid-block or
	// mid-record.
	ErrTruncated = fmt.Errorf("%w: truncated stream", errGzindex)

	// ErrChecksumMismatch is returned when the gzip trailer CRC/ISIZE does
	// not match the decompressed data.
	ErrChecksumMismatch = fmt.Errorf("%w: checksum mismatch", errGzindex)

	// ErrNotCovered is returned when a read is requested past the index's
	// extent and auto-build is disabled.
	ErrNotCovered = fmt.Errorf("%w: offset not covered by index", errGzindex)

	// ErrIndexFileMismatch is returned when a serialized index's recorded
	// compressed_size does not match the file it is paired with.
	ErrIndexFileMismatch = fmt.Errorf("%w: index does not match file", errGzindex)

	// ErrUnknownFormat is returned when a serialized index has a bad
	// magic.
	ErrUnknownFormat = fmt.Errorf("%w: unknown index format", errGzindex)

	// ErrUnsupportedVersion is returned when a serialized index has a
	// version this implementation does not understand.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported index version", errGzindex)
)

// mapInflateErr sorts a decode failure into the error taxonomy's
// truncation/corruption split: running out of bytes mid-block is Truncated,
// anything else the decoder rejects is CorruptStream.
func mapInflateErr(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrNoProgress) {
		return fmt.Errorf("%w: %w", ErrTruncated, err)
	}
	return fmt.Errorf("%w: %w", ErrCorruptStream, err)
}
