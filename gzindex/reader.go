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
	"fmt"
	"io"
	"sort"

	"github.com/seqidx/fastx/gzindex/internal/inflate"
)

// IndexedReader serves uncompressed byte ranges out of a gzip file using an
// Index, reading only the compressed bytes between the nearest preceding
// access point and the requested range instead of decompressing from the
// start of the file.
type IndexedReader struct {
	src       io.ReaderAt
	size      int64
	index     *Index
	autoBuild bool
}

// NewIndexedReader wraps src (the compressed file, size bytes long) with an
// already-built or loaded index. When autoBuild is true, reads past the
// index's current extent incrementally extend it from its last point
// instead of returning ErrNotCovered.
func NewIndexedReader(src io.ReaderAt, size int64, index *Index, autoBuild bool) *IndexedReader {
	return &IndexedReader{src: src, size: size, index: index, autoBuild: autoBuild}
}

// Index returns the reader's current index, which may have grown since
// construction if auto-build extended it.
func (ir *IndexedReader) Index() *Index {
	return ir.index
}

// ReadAt decompresses and returns exactly length uncompressed bytes starting
// at offset. It returns ErrNotCovered if offset+length exceeds the index's
// known uncompressed extent and auto-build is disabled.
func (ir *IndexedReader) ReadAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: negative offset or length", errGzindex)
	}
	if length == 0 {
		return nil, nil
	}
	end := offset + length

	if end > ir.index.UncompressedSize {
		if !ir.autoBuild {
			return nil, ErrNotCovered
		}
		if err := ir.extend(end); err != nil {
			return nil, err
		}
		if end > ir.index.UncompressedSize {
			return nil, ErrNotCovered
		}
	}

	p := ir.nearestPoint(offset)
	out := make([]byte, 0, length)

	member, absPos, err := ir.openMember(p)
	if err != nil {
		return nil, err
	}
	uncmpPos := p.UncmpOffset

	for int64(len(out)) < length {
		blkErr := member.Block()
		chunk := member.Take()
		if len(chunk) > 0 {
			start := int64(0)
			if uncmpPos < offset {
				start = offset - uncmpPos
				if start > int64(len(chunk)) {
					start = int64(len(chunk))
				}
			}
			if start < int64(len(chunk)) {
				want := length - int64(len(out))
				avail := int64(len(chunk)) - start
				take := avail
				if take > want {
					take = want
				}
				out = append(out, chunk[start:start+take]...)
			}
			uncmpPos += int64(len(chunk))
		}
		if blkErr != nil && blkErr != io.EOF {
			return nil, mapInflateErr(blkErr)
		}
		if blkErr == io.EOF {
			if int64(len(out)) >= length {
				break
			}
			cp := member.Checkpoint()
			absPos += cp.NextByteStart
			next, nextAbsPos, err := ir.openMemberAt(absPos)
			if err == io.EOF {
				return nil, fmt.Errorf("%w: compressed stream ends before requested range", ErrTruncated)
			}
			if err != nil {
				return nil, fmt.Errorf("%w: crossing gzip member boundary: %w", ErrCorruptStream, err)
			}
			member, absPos = next, nextAbsPos
		}
	}
	return out, nil
}

// nearestPoint returns the access point with the greatest UncmpOffset not
// exceeding offset. The index always has an implicit point at (0, 0) even
// when Points is empty or its first recorded point is further in, since a
// decode can always start at the very beginning of the file.
func (ir *IndexedReader) nearestPoint(offset int64) Point {
	pts := ir.index.Points
	i := sort.Search(len(pts), func(i int) bool { return pts[i].UncmpOffset > offset })
	if i == 0 {
		return Point{CmpOffset: 0, UncmpOffset: 0}
	}
	return pts[i-1]
}

// openMember starts decoding the gzip member containing p, seeking to p's
// compressed offset and priming the bit reader and history window exactly
// as the checkpoint specifies. When p.Bits > 0 the straddling byte at
// CmpOffset-1 is re-read directly from the compressed file rather than
// carried in Point: it is one live byte of src, the same before and after
// an export/import round trip, so there is nothing to serialize.
func (ir *IndexedReader) openMember(p Point) (*inflate.Decoder, int64, error) {
	if p.CmpOffset == 0 {
		// The degenerate first point: decode from scratch, gzip member
		// header and all.
		sr := io.NewSectionReader(ir.src, 0, ir.size)
		hdrLen, err := readMemberHeader(sr)
		if err != nil {
			return nil, 0, err
		}
		body := io.NewSectionReader(ir.src, int64(hdrLen), ir.size-int64(hdrLen))
		return inflate.NewDecoder(body), int64(hdrLen), nil
	}

	var primeBits uint
	var primeValue uint32
	if p.Bits > 0 {
		var straddle [1]byte
		if _, err := ir.src.ReadAt(straddle[:], p.CmpOffset-1); err != nil {
			return nil, 0, fmt.Errorf("%w: reading straddle byte at offset %d: %w", ErrCorruptStream, p.CmpOffset-1, err)
		}
		primeBits = uint(p.Bits)
		primeValue = uint32(straddle[0]) >> (8 - primeBits)
	}
	sr := io.NewSectionReader(ir.src, p.CmpOffset, ir.size-p.CmpOffset)
	dec := inflate.NewResumeDecoder(sr, primeBits, primeValue, p.Window)
	return dec, p.CmpOffset, nil
}

// openMemberAt starts a fresh decoder at absolute compressed offset absPos,
// which must be the start of a gzip member trailer (the boundary crossed
// when a prior member's final block finishes). It parses the trailer and
// the next member's header before handing back a decoder primed with no
// history, matching Build's treatment of concatenated members. It returns
// io.EOF when nothing but padding follows the trailer.
func (ir *IndexedReader) openMemberAt(absPos int64) (*inflate.Decoder, int64, error) {
	sr := io.NewSectionReader(ir.src, absPos, ir.size-absPos)
	if _, _, err := readTrailer(sr); err != nil {
		return nil, 0, err
	}
	absPos += 8
	// Skip any inter-member padding, mirroring Build's forward scan.
	found := false
	for absPos+2 <= ir.size {
		var m [2]byte
		if _, err := ir.src.ReadAt(m[:], absPos); err != nil {
			return nil, 0, err
		}
		if m[0] == gzipID1 && m[1] == gzipID2 {
			found = true
			break
		}
		absPos++
	}
	if !found {
		return nil, absPos, io.EOF
	}
	sr = io.NewSectionReader(ir.src, absPos, ir.size-absPos)
	hdrLen, err := readMemberHeader(sr)
	if err != nil {
		return nil, 0, err
	}
	absPos += int64(hdrLen)
	sr = io.NewSectionReader(ir.src, absPos, ir.size-absPos)
	return inflate.NewDecoder(sr), absPos, nil
}

// extend is the auto-build path taken when a read runs past the index's
// current extent. It resumes decoding from the last recorded point rather
// than restarting at byte 0, appending new points as block boundaries pass
// the spacing threshold. Once it has added at least one point, it stops as
// soon as the decoded extent covers target and the compressed position has
// passed an estimate of where target lives, derived from the last point's
// running cmp/uncmp ratio (2.0 when the index has no ratio to offer), so
// that repeated small overshoots do not each pay a fresh resume. A point is
// added only at a block boundary at least Spacing uncompressed bytes past
// the previous point, so a call over a tail shorter than that adds no point
// and decodes to the end of the compressed stream.
func (ir *IndexedReader) extend(target int64) error {
	idx := ir.index

	var p Point
	if n := len(idx.Points); n > 0 {
		p = idx.Points[n-1]
	}

	ratio := 2.0
	if p.UncmpOffset > 0 {
		ratio = float64(p.CmpOffset) / float64(p.UncmpOffset)
	}
	cmpTarget := int64(ratio * float64(target))
	if cmpTarget > ir.size {
		cmpTarget = ir.size
	}

	member, absPos, err := ir.openMember(p)
	if err != nil {
		return err
	}
	uncmpPos := p.UncmpOffset
	lastPointUncmp := p.UncmpOffset
	added := 0

	for {
		blkErr := member.Block()
		uncmpPos += int64(len(member.Take()))
		if blkErr != nil && blkErr != io.EOF {
			return mapInflateErr(blkErr)
		}
		cp := member.Checkpoint()
		if uncmpPos > idx.UncompressedSize {
			idx.UncompressedSize = uncmpPos
		}

		if blkErr == io.EOF {
			absPos += cp.NextByteStart
			next, nextAbsPos, err := ir.openMemberAt(absPos)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: crossing gzip member boundary: %w", ErrCorruptStream, err)
			}
			member, absPos = next, nextAbsPos
			continue
		}

		if uncmpPos-lastPointUncmp >= int64(idx.Spacing) {
			idx.Points = append(idx.Points, Point{
				CmpOffset:   absPos + cp.NextByteStart,
				UncmpOffset: uncmpPos,
				Bits:        uint8(cp.Bits),
				Window:      padWindow(cp.Window, idx.WindowSize),
			})
			added++
			lastPointUncmp = uncmpPos
		}
		if added > 0 && uncmpPos >= target && absPos+cp.NextByteStart >= cmpTarget {
			return nil
		}
	}
}
