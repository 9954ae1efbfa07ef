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

// Package fastx is the public facade for random-access FASTA/FASTQ
// retrieval: Open a file (plain or gzip-compressed) and get back an
// Instance that can iterate, look up, and slice records without
// re-scanning the whole file on every call.
package fastx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"

	"github.com/seqidx/fastx/catalog"
	"github.com/seqidx/fastx/faidx"
	"github.com/seqidx/fastx/fetch"
	"github.com/seqidx/fastx/fqidx"
	"github.com/seqidx/fastx/gzindex"
	"github.com/seqidx/fastx/scanner"
	"github.com/seqidx/fastx/seqops"
	"github.com/seqidx/fastx/view"
)

var gzipMagic = [2]byte{0x1f, 0x8b}

// Instance is an opened FASTA or FASTQ file together with its catalog and
// byte-source plumbing.
type Instance struct {
	f    *os.File
	kind catalog.Kind
	opts Options

	store *catalog.Store
	view  *view.View

	faEngine *fetch.Engine
	fqEngine *fetch.FastqEngine
}

// Open opens path (optionally gzip-compressed), builds or loads its
// catalog, and returns a ready-to-use Instance. Passing nil opts is
// equivalent to passing &Options{Uppercase: true, BuildIndex: true}.
func Open(path string, opts *Options) (*Instance, error) {
	o := defaultOptions()
	if opts != nil {
		o = *opts
	}
	o = o.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %w", ErrFastx, path, err)
	}

	inst, err := open(f, path, o)
	if err != nil {
		f.Close()
		return nil, err
	}
	return inst, nil
}

func open(f *os.File, path string, o Options) (*Instance, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: stat %q: %w", ErrFastx, path, err)
	}
	size := info.Size()

	isGzip, err := detectGzip(f)
	if err != nil {
		return nil, err
	}

	kind, err := detectKind(f, isGzip)
	if err != nil {
		return nil, err
	}

	catalogPath := path + ".db"
	if kind == catalog.KindFastq {
		catalogPath = path + ".fxi"
	}

	var store *catalog.Store
	var rangeSrc fetch.RangeSource
	if o.BuildIndex {
		var idx *gzindex.Index
		if isGzip {
			if _, err := f.Seek(0, 0); err != nil {
				return nil, fmt.Errorf("%w: rewinding %q: %w", ErrFastx, path, err)
			}
			idx, err = gzindex.Build(f, size, o.GzipSpacing, defaultGzipWindow)
			if err != nil {
				return nil, fmt.Errorf("%w: building gzip index for %q: %w", ErrFastx, path, err)
			}
			rangeSrc = gzindex.NewIndexedReader(f, size, idx, true)
		} else {
			rangeSrc = fetch.NewPlainFileRangeSource(f)
		}
		store, err = catalog.Create(catalogPath, kind)
		if err != nil {
			return nil, err
		}
		if err := buildCatalog(store, f, isGzip, kind, idx); err != nil {
			store.Close()
			return nil, err
		}
	} else {
		if _, err := os.Stat(catalogPath); err != nil {
			return nil, fmt.Errorf("%w: catalog %q: %w", catalog.ErrNotFound, catalogPath, err)
		}
		store, err = catalog.Open(catalogPath, kind)
		if err != nil {
			return nil, err
		}
		if isGzip {
			blob, err := store.GzindexBlob()
			if err != nil {
				store.Close()
				return nil, err
			}
			loaded, err := gzindex.Import(bytes.NewReader(blob), size)
			if err != nil {
				store.Close()
				return nil, err
			}
			rangeSrc = gzindex.NewIndexedReader(f, size, loaded, true)
		} else {
			rangeSrc = fetch.NewPlainFileRangeSource(f)
		}
	}

	inst := &Instance{f: f, kind: kind, opts: o, store: store, view: view.New(store)}
	if kind == catalog.KindFasta {
		inst.faEngine = fetch.NewEngine(store, rangeSrc, o.Uppercase)
	} else {
		phred := o.Phred
		if phred == 0 {
			if qs, err := store.GetQualStats(); err == nil {
				phred = qs.Phred
			}
		}
		inst.fqEngine = fetch.NewFastqEngine(store, rangeSrc, phred)
	}
	return inst, nil
}

// newScanSource opens a fresh forward pass over the decompressed stream for
// one indexer run: a parallel pgzip decompressor for gzip inputs, a
// memory-mapped FileSource otherwise. Each indexing pass gets its own
// source because a streaming decompressor cannot rewind; the returned
// closer releases the pass's decompressor or mapping without touching f.
func newScanSource(f *os.File, isGzip bool) (scanner.ByteSource, io.Closer, error) {
	if !isGzip {
		fs, err := scanner.OpenFileSource(f)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: mapping for indexing: %w", ErrFastx, err)
		}
		return fs, fs, nil
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, nil, fmt.Errorf("%w: rewinding for indexing: %w", ErrFastx, err)
	}
	zr, err := pgzip.NewReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: opening gzip stream for indexing: %w", ErrFastx, err)
	}
	return scanner.NewReaderSource(zr), zr, nil
}

// buildCatalog runs the appropriate indexer over f from its start and
// commits the resulting rows, including the gzip index blob (when idx is
// non-nil) and, for FASTQ, the lazily-computed quality/base aggregates.
func buildCatalog(store *catalog.Store, f *os.File, isGzip bool, kind catalog.Kind, idx *gzindex.Index) error {
	build, err := store.BeginBuild()
	if err != nil {
		return err
	}

	src, closer, err := newScanSource(f, isGzip)
	if err != nil {
		build.Rollback()
		return err
	}
	sc := scanner.New(src)

	switch kind {
	case catalog.KindFasta:
		if _, err := faidx.Build(sc, build); err != nil {
			closer.Close()
			build.Rollback()
			return err
		}
		closer.Close()
	case catalog.KindFastq:
		if _, err := fqidx.Build(sc, build); err != nil {
			closer.Close()
			build.Rollback()
			return err
		}
		closer.Close()
		src2, closer2, err := newScanSource(f, isGzip)
		if err != nil {
			build.Rollback()
			return err
		}
		sc2 := scanner.New(src2)
		if _, _, err := fqidx.DetectQuality(sc2, build); err != nil {
			closer2.Close()
			build.Rollback()
			return err
		}
		closer2.Close()
	}

	if idx != nil {
		var buf bytes.Buffer
		if err := idx.Export(&buf); err != nil {
			build.Rollback()
			return err
		}
		if err := build.SetGzindexBlob(buf.Bytes()); err != nil {
			build.Rollback()
			return err
		}
	}

	return build.Commit()
}

// detectGzip reports whether f starts with the gzip magic. It reads with
// ReadAt, so f's read position is left untouched.
func detectGzip(f *os.File) (bool, error) {
	var hdr [2]byte
	n, err := f.ReadAt(hdr[:], 0)
	if n < 2 {
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("%w: reading magic bytes: %w", ErrFastx, err)
		}
		return false, nil
	}
	return hdr == gzipMagic, nil
}

// detectKind inspects the first non-empty character of the (possibly
// just-decompressed) stream to tell FASTA from FASTQ. For gzip inputs a
// throwaway forward decompressor reads just enough of the head; the file's
// own read position is left wherever the caller's next Seek puts it.
func detectKind(f *os.File, isGzip bool) (catalog.Kind, error) {
	if _, err := f.Seek(0, 0); err != nil {
		return 0, fmt.Errorf("%w: rewinding for detection: %w", ErrFastx, err)
	}
	var r io.Reader = f
	if isGzip {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			return 0, fmt.Errorf("%w: opening gzip stream for detection: %w", ErrFastx, err)
		}
		defer zr.Close()
		r = zr
	}

	buf := make([]byte, 512)
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			switch buf[i] {
			case '\r', '\n':
			case '>':
				return catalog.KindFasta, nil
			case '@':
				return catalog.KindFastq, nil
			default:
				return 0, fmt.Errorf("%w: first character %q is neither '>' nor '@'", ErrMalformedFasta, buf[i])
			}
		}
		if err != nil {
			return 0, fmt.Errorf("%w: detecting file kind: %w", ErrFastx, err)
		}
	}
}

// Close releases the instance's catalog and file handles.
func (inst *Instance) Close() error {
	var errs []error
	if err := inst.store.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := inst.f.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Kind reports whether the opened file is FASTA or FASTQ.
func (inst *Instance) Kind() catalog.Kind {
	return inst.kind
}

// Count returns the number of records in the file.
func (inst *Instance) Count() (int64, error) {
	m, err := inst.store.GetMeta()
	if err != nil {
		return 0, err
	}
	return m.Count, nil
}

// Size returns the total sequence (or read) length summed over every
// record.
func (inst *Instance) Size() (int64, error) {
	m, err := inst.store.GetMeta()
	if err != nil {
		return 0, err
	}
	return m.TotalLength, nil
}

// Composition returns the corpus-wide per-base counts.
func (inst *Instance) Composition() (BaseCounts, error) {
	bs, err := inst.store.SumBases()
	if err != nil {
		return BaseCounts{}, err
	}
	return BaseCounts(bs), nil
}

// GCContent returns the corpus-wide GC percentage, (G+C)/(A+C+G+T)*100.
func (inst *Instance) GCContent() (float64, error) {
	bc, err := inst.Composition()
	if err != nil {
		return 0, err
	}
	total := bc.A + bc.C + bc.G + bc.T
	if total == 0 {
		return 0, nil
	}
	return float64(bc.G+bc.C) / float64(total) * 100, nil
}

// BaseCounts mirrors catalog.BaseStats at the public API surface.
type BaseCounts struct {
	A, C, G, T, N int64
}

// Names returns every record name in file (id) order.
func (inst *Instance) Names() ([]string, error) {
	return inst.view.Names()
}

// View returns the catalog query view (sort/filter) over this instance's
// records.
func (inst *Instance) View() *view.View {
	return view.New(inst.store)
}

// At returns the record at 1-based ordinal position i, or
// ErrIndexOutOfRange when i is outside [1, Count()].
func (inst *Instance) At(i int64) (*Record, error) {
	if i < 1 {
		return nil, fmt.Errorf("%w: position %d", ErrIndexOutOfRange, i)
	}
	name, err := inst.store.NameAt("id", false, "", nil, int(i-1))
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("%w: position %d", ErrIndexOutOfRange, i)
	}
	if err != nil {
		return nil, err
	}
	return inst.ByName(name)
}

// Fetch returns bases [start, end] (1-based, inclusive on both ends) of the
// named record with strand applied: '+' as stored, '-' reverse-complemented.
// FASTA instances only.
func (inst *Instance) Fetch(name string, start, end int64, strand seqops.Strand) ([]byte, error) {
	if inst.kind != catalog.KindFasta {
		return nil, fmt.Errorf("%w: Fetch is only defined for FASTA instances", ErrInvalidCoordinates)
	}
	b, err := inst.faEngine.Fetch(name, start, end, strand)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return b, err
}

// QualityEncodings returns every platform label consistent with the file's
// observed quality-byte range (FASTQ only). Overlapping ranges yield
// multiple labels rather than a guess.
func (inst *Instance) QualityEncodings() ([]string, error) {
	if inst.kind != catalog.KindFastq {
		return nil, fmt.Errorf("%w: quality encodings are only defined for FASTQ instances", ErrFastx)
	}
	qs, err := inst.store.GetQualStats()
	if err != nil {
		return nil, err
	}
	return fqidx.DetectEncoding(qs.MinQS, qs.MaxQS), nil
}

// ByName returns the named record, or ErrNotFound if it does not exist.
func (inst *Instance) ByName(name string) (*Record, error) {
	var err error
	if inst.kind == catalog.KindFasta {
		_, err = inst.store.GetSeqByName(name)
	} else {
		_, err = inst.store.GetReadByName(name)
	}
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &Record{inst: inst, name: name}, nil
}
