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
	"encoding/binary"
	"fmt"
	"io"
)

// gzip header flag bits, RFC 1952 §2.3.1.
const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 0x08

	flgText    = 1 << 0
	flgHdrCRC  = 1 << 1
	flgExtra   = 1 << 2
	flgName    = 1 << 3
	flgComment = 1 << 4
)

// readMemberHeader consumes one gzip member header from r (a plain
// io.Reader positioned at a member start) and returns the number of bytes
// consumed. It does not need the header's content for indexing purposes,
// only its length, so name/comment strings are discarded.
func readMemberHeader(r io.Reader) (int, error) {
	var n int
	buf := make([]byte, 10)
	if _, err := io.ReadFull(r, buf); err != nil {
		return n, fmt.Errorf("%w: gzip header: %w", ErrTruncated, err)
	}
	n += 10
	if buf[0] != gzipID1 || buf[1] != gzipID2 || buf[2] != gzipDeflate {
		return n, fmt.Errorf("%w: bad gzip magic", ErrCorruptStream)
	}
	flg := buf[3]

	if flg&flgExtra != 0 {
		lb := make([]byte, 2)
		if _, err := io.ReadFull(r, lb); err != nil {
			return n, fmt.Errorf("%w: gzip extra length: %w", ErrTruncated, err)
		}
		n += 2
		xlen := int(binary.LittleEndian.Uint16(lb))
		if err := discard(r, xlen); err != nil {
			return n, err
		}
		n += xlen
	}
	if flg&flgName != 0 {
		c, err := discardString(r)
		if err != nil {
			return n, err
		}
		n += c
	}
	if flg&flgComment != 0 {
		c, err := discardString(r)
		if err != nil {
			return n, err
		}
		n += c
	}
	if flg&flgHdrCRC != 0 {
		if err := discard(r, 2); err != nil {
			return n, err
		}
		n += 2
	}
	return n, nil
}

func discard(r io.Reader, count int) error {
	if count == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r, int64(count))
	if err != nil {
		return fmt.Errorf("%w: gzip header field: %w", ErrTruncated, err)
	}
	return nil
}

func discardString(r io.Reader) (int, error) {
	b := make([]byte, 1)
	n := 0
	for {
		if _, err := io.ReadFull(r, b); err != nil {
			return n, fmt.Errorf("%w: gzip header string: %w", ErrTruncated, err)
		}
		n++
		if b[0] == 0 {
			return n, nil
		}
	}
}

// readTrailer consumes the 8-byte CRC32+ISIZE gzip trailer.
func readTrailer(r io.Reader) (crc32, isize uint32, err error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, 0, fmt.Errorf("%w: gzip trailer: %w", ErrTruncated, err)
	}
	return binary.LittleEndian.Uint32(buf[0:4]), binary.LittleEndian.Uint32(buf[4:8]), nil
}
