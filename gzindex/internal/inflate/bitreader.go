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

// Package inflate is a minimal, from-scratch RFC 1951 (DEFLATE) decoder built
// for one purpose: random access. Unlike compress/flate, it exposes the exact
// bit position between deflate blocks and lets a caller resume decoding from
// an arbitrary mid-stream bit offset with a primed history window. This is
// the same idea as Mark Adler's zran.c and the vendored, state-exposing flate
// forks used by tools like coreos/pkg/zran and timpalpant/gzran: the standard
// library's compress/flate deliberately does not expose this, so anything
// that needs it has to bring its own bit reader and Huffman decoder.
package inflate

import "io"

// bitReader reads bits least-significant-bit first, as DEFLATE requires. It
// also tracks how many whole bytes have been consumed from the underlying
// reader, which is what an access point's cmp_offset is measured in.
type bitReader struct {
	r    io.Reader
	buf  [4096]byte
	pos  int
	n    int
	hold uint32
	nb   uint // number of valid bits in hold, low-order first
	off  int64
}

func newBitReader(r io.Reader) *bitReader {
	return &bitReader{r: r}
}

// prime preloads n low-order bits of value into the bit accumulator before
// any bytes are read. This reproduces the effect of zlib's inflatePrime: the
// straddling byte at a checkpoint contributes these bits before decoding
// continues with fresh bytes from cmp_offset.
func (b *bitReader) prime(value uint32, n uint) {
	b.hold = value & ((1 << n) - 1)
	b.nb = n
}

// fill ensures at least n bits are available in hold, reading fresh bytes
// from the underlying reader as needed. n must be <= 25: hold is 32 bits
// wide and a fill can overshoot n by up to 7 bits.
func (b *bitReader) fill(n uint) error {
	for b.nb < n {
		if b.pos >= b.n {
			read, err := b.r.Read(b.buf[:])
			if read == 0 {
				if err == nil {
					err = io.ErrNoProgress
				}
				return err
			}
			b.n = read
			b.pos = 0
		}
		b.hold |= uint32(b.buf[b.pos]) << b.nb
		b.pos++
		b.off++
		b.nb += 8
	}
	return nil
}

// bits consumes and returns the next n bits (n <= 16), LSB first.
func (b *bitReader) bits(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if err := b.fill(n); err != nil {
		return 0, err
	}
	v := b.hold & ((1 << n) - 1)
	b.hold >>= n
	b.nb -= n
	return v, nil
}

// align discards any remaining bits in the current byte, as DEFLATE's
// "stored" block type requires.
func (b *bitReader) align() {
	drop := b.nb % 8
	b.hold >>= drop
	b.nb -= drop
}

// byteOffset returns the position of the next byte the bit stream has not
// started consuming: bytes pulled out of buf so far (off, which never
// counts buf's unread read-ahead), minus whole bytes sitting unconsumed in
// the accumulator (fill pulls bytes in eagerly, so hold can hold up to two
// full bytes beyond the current bit position).
func (b *bitReader) byteOffset() int64 {
	return b.off - int64(b.nb/8)
}

// leftoverBits returns the number of bits remaining in the current
// partially-consumed byte (0-7), and the raw byte those bits come from,
// right-justified. This is exactly the "bits"/straddle-byte pair an access
// point records.
func (b *bitReader) leftoverBits() (n uint, value uint32) {
	n = b.nb % 8
	if n == 0 {
		return 0, 0
	}
	return n, b.hold & ((1 << n) - 1)
}

// drainBuffered removes and returns any bytes already read from the
// underlying reader but not yet consumed as bits or raw bytes: whole bytes
// still sitting in the accumulator first (any partial-byte bits are
// discarded, since the stream being handed off resumes at a byte boundary),
// then buf's read-ahead. The caller needs this to keep reading the
// underlying stream (gzip trailer, next member header) right where the
// decoder left off.
func (b *bitReader) drainBuffered() []byte {
	b.align()
	var leftover []byte
	for b.nb >= 8 {
		leftover = append(leftover, byte(b.hold))
		b.hold >>= 8
		b.nb -= 8
	}
	if b.pos < b.n {
		leftover = append(leftover, b.buf[b.pos:b.n]...)
		b.pos = b.n
	}
	return leftover
}

// readByte reads a single raw byte, consuming any whole byte already in the
// accumulator before touching buf. Used for "stored" (uncompressed) blocks,
// which are always byte-aligned (the caller aligns first).
func (b *bitReader) readByte() (byte, error) {
	if b.nb >= 8 {
		v := byte(b.hold)
		b.hold >>= 8
		b.nb -= 8
		return v, nil
	}
	if b.pos >= b.n {
		read, err := b.r.Read(b.buf[:])
		if read == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return 0, err
		}
		b.n = read
		b.pos = 0
	}
	v := b.buf[b.pos]
	b.pos++
	b.off++
	return v, nil
}
