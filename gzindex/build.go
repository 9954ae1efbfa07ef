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
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/seqidx/fastx/gzindex/internal/inflate"
)

// Build scans a full gzip stream from r and constructs an Index recording
// an access point roughly every spacing uncompressed bytes. r need not be
// seekable; Build consumes it sequentially exactly once. compressedSize is the total size of the file being indexed, used
// only to stamp Index.CompressedSize for later validation by Import.
//
// Concatenated gzip members are handled transparently: uncompressed
// offsets accumulate across member boundaries, and a fresh deflate history
// window is started at each member.
func Build(r io.Reader, compressedSize int64, spacing, windowSize uint32) (*Index, error) {
	if spacing == 0 {
		spacing = DefaultSpacing
	}
	if windowSize == 0 {
		windowSize = DefaultWindowSize
	}
	if windowSize != DefaultWindowSize {
		return nil, fmt.Errorf("%w: window size %d (the deflate history window is fixed at %d)", errGzindex, windowSize, DefaultWindowSize)
	}
	if spacing <= windowSize {
		return nil, fmt.Errorf("%w: spacing %d must exceed window size %d", errGzindex, spacing, windowSize)
	}
	idx := &Index{CompressedSize: compressedSize, Spacing: spacing, WindowSize: windowSize}

	// The first point is the degenerate whole-file checkpoint: resuming it
	// means starting over with a full gzip header parse, so it carries no
	// window and no straddling bits.
	idx.Points = append(idx.Points, Point{CmpOffset: 0, UncmpOffset: 0})

	cur := r
	var absPos int64
	var uncmpTotal int64
	lastPointUncmp := int64(0)

	for {
		peek := make([]byte, 2)
		n, err := io.ReadFull(cur, peek)
		if err != nil {
			if n == 0 && errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: reading gzip member magic: %w", ErrTruncated, err)
		}
		cur = io.MultiReader(bytes.NewReader(peek), cur)
		if peek[0] != gzipID1 || peek[1] != gzipID2 {
			if absPos == 0 {
				return nil, fmt.Errorf("%w: not a gzip stream", ErrCorruptStream)
			}
			// Padding or junk between members: scan forward for the next
			// magic, counting the skipped bytes toward the compressed
			// offset but producing no output.
			padding, rest, found := scanToMagic(cur)
			absPos += padding
			if !found {
				break
			}
			cur = rest
			continue
		}

		hdrLen, err := readMemberHeader(cur)
		if err != nil {
			return nil, err
		}
		absPos += int64(hdrLen)

		dec := inflate.NewDecoder(cur)
		crc := crc32.NewIEEE()
		memberStart := uncmpTotal

		for {
			blkErr := dec.Block()
			chunk := dec.Take()
			if len(chunk) > 0 {
				crc.Write(chunk)
				uncmpTotal += int64(len(chunk))
			}
			if blkErr != nil && blkErr != io.EOF {
				return nil, mapInflateErr(blkErr)
			}
			if blkErr == io.EOF {
				break
			}
			if uncmpTotal-lastPointUncmp >= int64(spacing) {
				cp := dec.Checkpoint()
				idx.Points = append(idx.Points, Point{
					CmpOffset:   absPos + cp.NextByteStart,
					UncmpOffset: uncmpTotal,
					Bits:        uint8(cp.Bits),
					Window:      padWindow(cp.Window, windowSize),
				})
				lastPointUncmp = uncmpTotal
			}
		}

		final := dec.Checkpoint()
		absPos += final.NextByteStart
		cur = dec.Remainder()

		crc32Trailer, isize, err := readTrailer(cur)
		if err != nil {
			return nil, err
		}
		absPos += 8
		if crc32Trailer != crc.Sum32() {
			return nil, fmt.Errorf("%w: member ending at uncompressed offset %d", ErrChecksumMismatch, uncmpTotal)
		}
		if uint32(uncmpTotal-memberStart) != isize {
			return nil, fmt.Errorf("%w: member ending at uncompressed offset %d: size mismatch", ErrChecksumMismatch, uncmpTotal)
		}
	}

	idx.UncompressedSize = uncmpTotal
	return idx, nil
}

// padWindow left-pads w to exactly size bytes. A point recorded within a
// window's worth of a member start has less than a full window of history;
// the wire format carries exactly size bytes per point, and no
// back-reference can reach past the member start, so the padding is
// unreachable.
func padWindow(w []byte, size uint32) []byte {
	if len(w) >= int(size) {
		return w
	}
	padded := make([]byte, size)
	copy(padded[int(size)-len(w):], w)
	return padded
}

// scanToMagic consumes r until a gzip magic pair is found, returning the
// number of bytes skipped before it and a reader re-positioned at the
// magic. found is false once r is exhausted with no further member.
func scanToMagic(r io.Reader) (padding int64, out io.Reader, found bool) {
	buf := make([]byte, 1)
	var consumed int64
	var prev byte
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return consumed, nil, false
		}
		consumed++
		if consumed >= 2 && prev == gzipID1 && buf[0] == gzipID2 {
			return consumed - 2, io.MultiReader(bytes.NewReader([]byte{gzipID1, gzipID2}), r), true
		}
		prev = buf[0]
	}
}
