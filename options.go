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

// Options configures Open.
type Options struct {
	// Uppercase case-normalizes fetched bases to upper case. Default true.
	Uppercase bool

	// BuildIndex builds (or rebuilds) the on-disk catalog before Open
	// returns. When false, Open expects an existing, up-to-date catalog
	// file next to path and fails with an error matching
	// ErrCatalogNotFound if one is missing. Default true.
	BuildIndex bool

	// Phred overrides the quality-score offset FASTQ's Quali uses to map
	// quality bytes to integers. Zero means "detect" (the indexing pass's
	// DetectQuality result is used); this only has an effect for FASTQ
	// inputs.
	Phred int

	// GzipSpacing overrides the gzip access-point spacing (uncompressed
	// bytes between index points) used when building a new index over a
	// gzip-compressed input. Zero means use the default of 1 MiB.
	GzipSpacing uint32
}

const (
	defaultGzipSpacing = 1 << 20
	defaultGzipWindow  = 32 * 1024
)

// defaultOptions returns the documented defaults (uppercase on, index
// built eagerly) with every other field zero.
func defaultOptions() Options {
	return Options{Uppercase: true, BuildIndex: true}
}

// withDefaults fills the zero-value fields of an explicitly passed Options
// that have a meaningful non-zero default, leaving an explicit false/zero
// from the caller untouched everywhere that isn't ambiguous with "unset".
// Uppercase's default (true) can't be distinguished from an explicit false
// through a bool field; Open therefore takes *Options so nil unambiguously
// means "use defaultOptions()".
func (o Options) withDefaults() Options {
	if o.GzipSpacing == 0 {
		o.GzipSpacing = defaultGzipSpacing
	}
	return o
}
