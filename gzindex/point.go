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

// Package gzindex builds and serves a zran-style access-point index into a
// gzip stream, letting a caller read an arbitrary uncompressed byte range
// without decompressing from the start of the file.
package gzindex

// DefaultSpacing is the default minimum uncompressed distance between
// access points.
const DefaultSpacing = 1 << 20

// DefaultWindowSize is the size of the deflate history window captured at
// each access point. It must match inflate.WindowSize; it is spelled out
// again here because the on-disk format fixes it independently of the
// decoder implementation.
const DefaultWindowSize = 32768

// Point is one access-point checkpoint into a deflate stream.
type Point struct {
	// CmpOffset is the compressed byte at which this checkpoint sits (the
	// first full byte at or after the checkpoint).
	CmpOffset int64

	// UncmpOffset is the uncompressed byte offset at the same point.
	UncmpOffset int64

	// Bits is 0-7. If non-zero, the checkpoint is mid-byte and the byte
	// at CmpOffset-1 contributes Bits high-order bits that must be primed
	// into the decoder before it resumes at CmpOffset. That byte is not
	// stored here: it is a live byte of the compressed file, so a reader
	// re-reads it directly instead of carrying a redundant copy through
	// the serialized index.
	Bits uint8

	// Window is exactly WindowSize bytes of uncompressed data immediately
	// preceding UncmpOffset, used as the deflate history dictionary on
	// resume. The first point has no window (UncmpOffset is always 0
	// there).
	Window []byte
}
