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

package fastx

import (
	"errors"
	"fmt"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/faidx"
	"github.com/seqidx/fastx/fetch"
	"github.com/seqidx/fastx/fqidx"
	"github.com/seqidx/fastx/gzindex"
	"github.com/seqidx/fastx/view"
)

// ErrFastx is the base sentinel for errors raised directly by this
// package (wrapping from Open/Instance/Record), following the same
// per-package base-sentinel convention as catalog, gzindex, fetch, and view.
var ErrFastx = errors.New("fastx")

// ErrNotFound is returned by ByName/Fetch when no matching record exists;
// those two translate a catalog miss into it. It does not wrap
// catalog.ErrNotFound: a miss surfaced by other Record methods straight
// from the catalog matches ErrCatalogNotFound (re-exported below) instead.
var ErrNotFound = fmt.Errorf("%w: not found", ErrFastx)

// ErrIndexOutOfRange is returned by At for an out-of-bounds position.
var ErrIndexOutOfRange = view.ErrIndexOutOfRange

// ErrInvalidCoordinates is returned by Record.Slice/Search on an
// impossible range.
var ErrInvalidCoordinates = fetch.ErrInvalidCoordinates

// ErrMalformedFasta is returned when Open's indexing pass finds a FASTA
// file that does not match the sequence-file contract.
var ErrMalformedFasta = faidx.ErrMalformed

// ErrMalformedFastq is returned when Open's indexing pass finds a FASTQ
// record whose sequence and quality lines differ in length, and by the
// Iterator for that case and for a missing '@' or '+' sigil line. Open's
// indexing pass reports a missing sigil line with fqidx.ErrMalformed,
// which does not match this sentinel.
var ErrMalformedFastq = fqidx.ErrMalformedFastq

// Gzip/catalog-level sentinels, re-exported so callers never need to
// import the subpackages directly to use errors.Is.
var (
	ErrCorruptStream      = gzindex.ErrCorruptStream
	ErrTruncated          = gzindex.ErrTruncated
	ErrChecksumMismatch   = gzindex.ErrChecksumMismatch
	ErrIndexNotCovered    = gzindex.ErrNotCovered
	ErrUnknownIndexFormat = gzindex.ErrUnknownFormat
	ErrUnsupportedVersion = gzindex.ErrUnsupportedVersion
	ErrIndexFileMismatch  = gzindex.ErrIndexFileMismatch
	ErrCatalogNotFound    = catalog.ErrNotFound
)
