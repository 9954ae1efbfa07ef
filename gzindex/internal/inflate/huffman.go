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

import "fmt"

// huffmanTable is a canonical Huffman decoder built from a list of code
// lengths, one per symbol, as RFC 1951 §3.2.2 describes.
type huffmanTable struct {
	// fast is a direct-lookup table keyed by the next fastBits bits (LSB
	// first); entries encode (symbol<<5 | length), or 0 for an unused code.
	fast   [1 << fastBits]uint16
	counts [maxCodeLen + 1]int
}

const (
	// fastBits equals maxCodeLen so every valid DEFLATE code (1-15 bits)
	// resolves directly out of the table; no slow-path fallback is needed.
	fastBits   = 15
	maxCodeLen = 15
)

// buildHuffman constructs a canonical decode table from per-symbol code
// lengths (0 means "symbol unused").
func buildHuffman(lengths []int) (*huffmanTable, error) {
	h := &huffmanTable{}
	for _, l := range lengths {
		if l < 0 || l > maxCodeLen {
			return nil, fmt.Errorf("invalid code length %d", l)
		}
		h.counts[l]++
	}
	h.counts[0] = 0

	var code int
	var nextCode [maxCodeLen + 1]int
	for l := 1; l <= maxCodeLen; l++ {
		code = (code + h.counts[l-1]) << 1
		nextCode[l] = code
	}

	assigned := make([]int, maxCodeLen+1)
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		idx := nextCode[l] + assigned[l]
		assigned[l]++
		// Reverse the idx's low l bits: canonical Huffman codes are
		// assigned MSB-first but DEFLATE bitstreams are read LSB-first.
		rev := reverseBits(idx, l)
		step := 1 << l
		for fill := rev; fill < len(h.fast); fill += step {
			h.fast[fill] = uint16(sym<<5 | l)
		}
	}
	return h, nil
}

func reverseBits(v, n int) int {
	var r int
	for i := 0; i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

// decodeSymbol reads one Huffman symbol from br using h.
func (h *huffmanTable) decodeSymbol(br *bitReader) (int, error) {
	if err := br.fill(fastBits); err != nil && br.nb == 0 {
		return 0, err
	}
	peek := int(br.hold & (1<<fastBits - 1))
	entry := h.fast[peek]
	if entry == 0 {
		return 0, fmt.Errorf("inflate: unsupported or corrupt Huffman code")
	}
	length := uint(entry & 0x1f)
	sym := int(entry >> 5)
	if _, err := br.bits(length); err != nil {
		return 0, err
	}
	return sym, nil
}

// fixedLiteralLengths builds the fixed Huffman literal/length code lengths
// defined by RFC 1951 §3.2.6.
func fixedLiteralLengths() []int {
	lengths := make([]int, 288)
	for i := 0; i < 144; i++ {
		lengths[i] = 8
	}
	for i := 144; i < 256; i++ {
		lengths[i] = 9
	}
	for i := 256; i < 280; i++ {
		lengths[i] = 7
	}
	for i := 280; i < 288; i++ {
		lengths[i] = 8
	}
	return lengths
}

// fixedDistanceLengths builds the fixed Huffman distance code lengths.
func fixedDistanceLengths() []int {
	lengths := make([]int, 30)
	for i := range lengths {
		lengths[i] = 5
	}
	return lengths
}
