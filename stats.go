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

import "gonum.org/v1/gonum/stat"

// SummaryStats is a mean/stddev pair over a corpus-wide distribution.
type SummaryStats struct {
	Mean   float64
	StdDev float64
}

// LengthStats returns the mean and standard deviation of record length
// across the whole file, a corpus-wide convenience beyond the
// per-record operations of seqops.
func (inst *Instance) LengthStats() (SummaryStats, error) {
	lens, err := inst.store.AllLengths()
	if err != nil {
		return SummaryStats{}, err
	}
	return summarize(lens), nil
}

// GCStats returns the mean and standard deviation of per-record GC content
// across the file. It is only available for FASTA instances: FASTQ catalogs
// only retain a corpus-wide base composition aggregate, not a per-read one
// (see catalog.Store.SumBases).
func (inst *Instance) GCStats() (SummaryStats, error) {
	gc, err := inst.store.AllGCContent()
	if err != nil {
		return SummaryStats{}, err
	}
	return summarize(gc), nil
}

func summarize(xs []float64) SummaryStats {
	if len(xs) == 0 {
		return SummaryStats{}
	}
	mean := stat.Mean(xs, nil)
	if len(xs) == 1 {
		return SummaryStats{Mean: mean}
	}
	return SummaryStats{Mean: mean, StdDev: stat.StdDev(xs, nil)}
}
