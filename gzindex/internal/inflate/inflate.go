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

package inflate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// WindowSize is the size of the DEFLATE sliding history window (32 KiB),
// per RFC 1951 §2.2.
const WindowSize = 32768

// ErrCorrupt is returned when the deflate stream contains an invalid block
// header, code, or length/distance pair.
var ErrCorrupt = errors.New("inflate: corrupt deflate stream")

var (
	lengthBase = [29]int{3, 4, 5, 6, 7, 8, 9, 10, 11, 13, 15, 17, 19, 23, 27, 31,
		35, 43, 51, 59, 67, 83, 99, 115, 131, 163, 195, 227, 258}
	lengthExtra = [29]int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 2, 2, 2, 2,
		3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 0}
	distBase = [30]int{1, 2, 3, 4, 5, 7, 9, 13, 17, 25, 33, 49, 65, 97, 129, 193,
		257, 385, 513, 769, 1025, 1537, 2049, 3073, 4097, 6145, 8193, 12289, 16385, 24577}
	distExtra = [30]int{0, 0, 0, 0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6,
		7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 12, 12, 13, 13}
	codeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
)

// Decoder is a block-stepping DEFLATE decoder. Unlike compress/flate, it
// stops control flow at every block boundary (each Block call decodes
// exactly one block) and exposes
// enough of its internal bit position and history window to save and
// restore a mid-stream checkpoint, which is what the gzip access-point
// builder (package gzindex) needs.
type Decoder struct {
	br *bitReader

	window    [WindowSize]byte
	windowPos int
	windowLen int // number of valid bytes once the window has filled

	out      []byte // sink for decoded bytes not yet delivered to caller
	final    bool
	finished bool
}

// NewDecoder returns a Decoder that reads a raw (headerless) deflate stream
// from r, with no history window primed, as at the very start of a
// member, right after the gzip header.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{br: newBitReader(r)}
}

// NewResumeDecoder returns a Decoder that resumes a raw deflate stream from
// r, which must start at the first full byte at or after the checkpoint
// (i.e. cmp_offset) regardless of primeBits: the straddling byte those bits
// come from is never part of r, only supplied through primeValue. dict seeds
// the history window exactly as flate.Resetter.Reset's dict parameter does.
func NewResumeDecoder(r io.Reader, primeBits uint, primeValue uint32, dict []byte) *Decoder {
	d := &Decoder{br: newBitReader(r)}
	if primeBits > 0 {
		d.br.prime(primeValue, primeBits)
	}
	if len(dict) > 0 {
		n := copy(d.window[:], dict)
		d.windowPos = n % WindowSize
		d.windowLen = n
	}
	return d
}

// Checkpoint captures everything needed to resume decoding at the current
// block boundary: the number of leftover bits in the partially-consumed
// byte, their value, the byte offset of the *next* unread byte, and a
// snapshot of the last WindowSize decoded bytes.
type Checkpoint struct {
	Bits          uint
	BitValue      uint32
	NextByteStart int64 // relative to the reader given to NewDecoder/Resume
	Window        []byte
}

// Checkpoint returns a checkpoint valid at the current position, which must
// be a block boundary (immediately after NewDecoder, or after Block has
// fully consumed a block).
func (d *Decoder) Checkpoint() Checkpoint {
	n, v := d.br.leftoverBits()
	return Checkpoint{
		Bits:          n,
		BitValue:      v,
		NextByteStart: d.br.byteOffset(),
		Window:        d.windowSnapshot(),
	}
}

func (d *Decoder) windowSnapshot() []byte {
	if d.windowLen < WindowSize {
		w := make([]byte, d.windowLen)
		copy(w, d.window[:d.windowLen])
		return w
	}
	w := make([]byte, WindowSize)
	copy(w, d.window[d.windowPos:])
	copy(w[WindowSize-d.windowPos:], d.window[:d.windowPos])
	return w
}

func (d *Decoder) emit(b byte) {
	d.out = append(d.out, b)
	d.window[d.windowPos] = b
	d.windowPos = (d.windowPos + 1) % WindowSize
	if d.windowLen < WindowSize {
		d.windowLen++
	}
}

// Done reports whether the final block has been fully decoded.
func (d *Decoder) Done() bool {
	return d.finished
}

// Block decodes exactly one deflate block, appending its output to an
// internal buffer retrievable with Take. It returns io.EOF after the final
// block (BFINAL=1) has been decoded.
func (d *Decoder) Block() error {
	if d.finished {
		return io.EOF
	}
	final, err := d.br.bits(1)
	if err != nil {
		return fmt.Errorf("%w: block header: %w", ErrCorrupt, err)
	}
	btype, err := d.br.bits(2)
	if err != nil {
		return fmt.Errorf("%w: block type: %w", ErrCorrupt, err)
	}
	d.final = final == 1

	switch btype {
	case 0:
		if err := d.storedBlock(); err != nil {
			return err
		}
	case 1:
		lit, err := buildHuffman(fixedLiteralLengths())
		if err != nil {
			return err
		}
		dist, err := buildHuffman(fixedDistanceLengths())
		if err != nil {
			return err
		}
		if err := d.compressedBlock(lit, dist); err != nil {
			return err
		}
	case 2:
		lit, dist, err := d.readDynamicTables()
		if err != nil {
			return err
		}
		if err := d.compressedBlock(lit, dist); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: reserved block type", ErrCorrupt)
	}

	if d.final {
		d.finished = true
		return io.EOF
	}
	return nil
}

// Take returns and clears the bytes decoded so far.
func (d *Decoder) Take() []byte {
	b := d.out
	d.out = nil
	return b
}

// Remainder returns a reader that continues exactly where this Decoder left
// off in its underlying input: any bytes the internal buffer already read
// ahead but did not consume, followed by the underlying reader itself. A
// caller that has seen Block return io.EOF uses this to parse the gzip
// trailer and any subsequent concatenated member without losing buffered
// bytes.
func (d *Decoder) Remainder() io.Reader {
	leftover := d.br.drainBuffered()
	if len(leftover) == 0 {
		return d.br.r
	}
	return io.MultiReader(bytes.NewReader(leftover), d.br.r)
}

func (d *Decoder) storedBlock() error {
	d.br.align()
	lenLo, err := d.br.readByte()
	if err != nil {
		return fmt.Errorf("%w: stored block LEN: %w", ErrCorrupt, err)
	}
	lenHi, err := d.br.readByte()
	if err != nil {
		return fmt.Errorf("%w: stored block LEN: %w", ErrCorrupt, err)
	}
	nlenLo, err := d.br.readByte()
	if err != nil {
		return fmt.Errorf("%w: stored block NLEN: %w", ErrCorrupt, err)
	}
	nlenHi, err := d.br.readByte()
	if err != nil {
		return fmt.Errorf("%w: stored block NLEN: %w", ErrCorrupt, err)
	}
	length := int(lenLo) | int(lenHi)<<8
	nlen := int(nlenLo) | int(nlenHi)<<8
	if length != nlen^0xffff {
		return fmt.Errorf("%w: stored block LEN/NLEN mismatch", ErrCorrupt)
	}
	for i := 0; i < length; i++ {
		b, err := d.br.readByte()
		if err != nil {
			return fmt.Errorf("%w: stored block data: %w", ErrCorrupt, err)
		}
		d.emit(b)
	}
	return nil
}

func (d *Decoder) compressedBlock(lit, dist *huffmanTable) error {
	for {
		sym, err := lit.decodeSymbol(d.br)
		if err != nil {
			return fmt.Errorf("%w: literal/length symbol: %w", ErrCorrupt, err)
		}
		switch {
		case sym < 256:
			d.emit(byte(sym))
		case sym == 256:
			return nil
		default:
			idx := sym - 257
			if idx >= len(lengthBase) {
				return fmt.Errorf("%w: length symbol %d out of range", ErrCorrupt, sym)
			}
			extra, err := d.br.bits(uint(lengthExtra[idx]))
			if err != nil {
				return fmt.Errorf("%w: length extra bits: %w", ErrCorrupt, err)
			}
			length := lengthBase[idx] + int(extra)

			dsym, err := dist.decodeSymbol(d.br)
			if err != nil {
				return fmt.Errorf("%w: distance symbol: %w", ErrCorrupt, err)
			}
			if dsym >= len(distBase) {
				return fmt.Errorf("%w: distance symbol %d out of range", ErrCorrupt, dsym)
			}
			dextra, err := d.br.bits(uint(distExtra[dsym]))
			if err != nil {
				return fmt.Errorf("%w: distance extra bits: %w", ErrCorrupt, err)
			}
			distance := distBase[dsym] + int(dextra)
			if distance > d.windowLen {
				return fmt.Errorf("%w: back-reference distance %d exceeds window", ErrCorrupt, distance)
			}
			for i := 0; i < length; i++ {
				pos := (d.windowPos - distance + WindowSize*2) % WindowSize
				d.emit(d.window[pos])
			}
		}
	}
}

func (d *Decoder) readDynamicTables() (lit, dist *huffmanTable, err error) {
	hlit, err := d.br.bits(5)
	if err != nil {
		return nil, nil, err
	}
	hdist, err := d.br.bits(5)
	if err != nil {
		return nil, nil, err
	}
	hclen, err := d.br.bits(4)
	if err != nil {
		return nil, nil, err
	}

	var clLengths [19]int
	for i := 0; i < int(hclen)+4; i++ {
		v, err := d.br.bits(3)
		if err != nil {
			return nil, nil, err
		}
		clLengths[codeLengthOrder[i]] = int(v)
	}
	clTable, err := buildHuffman(clLengths[:])
	if err != nil {
		return nil, nil, err
	}

	total := int(hlit) + 257 + int(hdist) + 1
	lengths := make([]int, total)
	for i := 0; i < total; {
		sym, err := clTable.decodeSymbol(d.br)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case sym < 16:
			lengths[i] = sym
			i++
		case sym == 16:
			if i == 0 {
				return nil, nil, fmt.Errorf("%w: repeat code with no previous length", ErrCorrupt)
			}
			n, err := d.br.bits(2)
			if err != nil {
				return nil, nil, err
			}
			prev := lengths[i-1]
			for c := 0; c < int(n)+3 && i < total; c++ {
				lengths[i] = prev
				i++
			}
		case sym == 17:
			n, err := d.br.bits(3)
			if err != nil {
				return nil, nil, err
			}
			for c := 0; c < int(n)+3 && i < total; c++ {
				lengths[i] = 0
				i++
			}
		case sym == 18:
			n, err := d.br.bits(7)
			if err != nil {
				return nil, nil, err
			}
			for c := 0; c < int(n)+11 && i < total; c++ {
				lengths[i] = 0
				i++
			}
		default:
			return nil, nil, fmt.Errorf("%w: invalid code-length symbol %d", ErrCorrupt, sym)
		}
	}

	lit, err = buildHuffman(lengths[:int(hlit)+257])
	if err != nil {
		return nil, nil, err
	}
	dist, err = buildHuffman(lengths[int(hlit)+257:])
	if err != nil {
		return nil, nil, err
	}
	return lit, dist, nil
}
