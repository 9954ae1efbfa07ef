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
	"encoding/binary"
	"fmt"
	"io"
)

// magic is the 5-byte ASCII header magic. The normative 7-byte signature
// "G Z I D X 00 00" is this magic followed by the version and reserved
// bytes, both zero in the current format.
var magic = [5]byte{'G', 'Z', 'I', 'D', 'X'}

const formatVersion = 0

// headerSize is the byte size of the fixed header: 5 (magic) + 1 (version)
// + 1 (reserved) + 8 (compressed_size) + 8 (uncompressed_size) + 4
// (spacing) + 4 (window_size) + 4 (npoints) = 35.
const headerSize = 35

// pointRowSize is the byte size of one serialized offset triple: u64
// cmp_offset + u64 uncmp_offset + u8 bits + u8 has_window = 18 bytes.
const pointRowSize = 18

// Index is a built or loaded gzip access-point index together with the
// metadata needed to validate it against a file.
type Index struct {
	CompressedSize   int64
	UncompressedSize int64
	Spacing          uint32
	WindowSize       uint32
	Points           []Point
}

// Export serializes idx in the normative on-disk format.
func (idx *Index) Export(w io.Writer) error {
	var hdr bytes.Buffer
	hdr.Write(magic[:])
	hdr.WriteByte(formatVersion)
	hdr.WriteByte(0) // reserved
	_ = binary.Write(&hdr, binary.LittleEndian, uint64(idx.CompressedSize))
	_ = binary.Write(&hdr, binary.LittleEndian, uint64(idx.UncompressedSize))
	_ = binary.Write(&hdr, binary.LittleEndian, idx.Spacing)
	_ = binary.Write(&hdr, binary.LittleEndian, idx.WindowSize)
	_ = binary.Write(&hdr, binary.LittleEndian, uint32(len(idx.Points)))
	if hdr.Len() != headerSize {
		return fmt.Errorf("%w: internal header size mismatch: got %d want %d", errGzindex, hdr.Len(), headerSize)
	}
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return fmt.Errorf("%w: writing header: %w", errGzindex, err)
	}

	var rows bytes.Buffer
	for _, p := range idx.Points {
		_ = binary.Write(&rows, binary.LittleEndian, uint64(p.CmpOffset))
		_ = binary.Write(&rows, binary.LittleEndian, uint64(p.UncmpOffset))
		rows.WriteByte(p.Bits)
		hasWindow := byte(0)
		if len(p.Window) > 0 {
			hasWindow = 1
		}
		rows.WriteByte(hasWindow)
	}
	if _, err := w.Write(rows.Bytes()); err != nil {
		return fmt.Errorf("%w: writing points: %w", errGzindex, err)
	}

	for _, p := range idx.Points {
		if len(p.Window) == 0 {
			continue
		}
		if _, err := w.Write(p.Window); err != nil {
			return fmt.Errorf("%w: writing window: %w", errGzindex, err)
		}
	}
	return nil
}

// Import parses a serialized index, validating it against the compressed
// file size that will be paired with it. Pass -1 for knownCompressedSize
// to skip that check.
func Import(r io.Reader, knownCompressedSize int64) (*Index, error) {
	hdr := make([]byte, headerSize)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrTruncated, err)
	}
	if !bytes.Equal(hdr[0:5], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrUnknownFormat)
	}
	version := hdr[5]
	if version != formatVersion {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupportedVersion, version)
	}

	idx := &Index{
		CompressedSize:   int64(binary.LittleEndian.Uint64(hdr[7:15])),
		UncompressedSize: int64(binary.LittleEndian.Uint64(hdr[15:23])),
		Spacing:          binary.LittleEndian.Uint32(hdr[23:27]),
		WindowSize:       binary.LittleEndian.Uint32(hdr[27:31]),
	}
	npoints := binary.LittleEndian.Uint32(hdr[31:35])

	if knownCompressedSize >= 0 && idx.CompressedSize != knownCompressedSize {
		return nil, fmt.Errorf("%w: index compressed_size %d != file size %d",
			ErrIndexFileMismatch, idx.CompressedSize, knownCompressedSize)
	}
	if idx.WindowSize < 32768 {
		return nil, fmt.Errorf("%w: window_size %d < 32768", ErrUnknownFormat, idx.WindowSize)
	}
	if idx.Spacing <= idx.WindowSize {
		return nil, fmt.Errorf("%w: spacing %d <= window_size %d", ErrUnknownFormat, idx.Spacing, idx.WindowSize)
	}

	rows := make([]byte, int(npoints)*pointRowSize)
	if _, err := io.ReadFull(r, rows); err != nil {
		return nil, fmt.Errorf("%w: reading points: %w", ErrTruncated, err)
	}

	idx.Points = make([]Point, npoints)
	hasWindow := make([]bool, npoints)
	for i := 0; i < int(npoints); i++ {
		row := rows[i*pointRowSize : (i+1)*pointRowSize]
		idx.Points[i] = Point{
			CmpOffset:   int64(binary.LittleEndian.Uint64(row[0:8])),
			UncmpOffset: int64(binary.LittleEndian.Uint64(row[8:16])),
			Bits:        row[16],
		}
		hasWindow[i] = row[17] == 1
	}

	for i := range idx.Points {
		if !hasWindow[i] {
			continue
		}
		w := make([]byte, idx.WindowSize)
		if _, err := io.ReadFull(r, w); err != nil {
			return nil, fmt.Errorf("%w: reading window %d: %w", ErrTruncated, i, err)
		}
		idx.Points[i].Window = w
	}

	return idx, nil
}
