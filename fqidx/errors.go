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

package fqidx

import (
	"errors"
	"fmt"
)

var errFqidx = errors.New("fqidx")

// ErrMalformed is returned when a header or separator line does not start
// with the expected '@' or '+' sigil.
var ErrMalformed = fmt.Errorf("%w: malformed fastq", errFqidx)

// ErrMalformedFastq is returned when a record's sequence and quality
// lengths disagree.
var ErrMalformedFastq = fmt.Errorf("%w: sequence/quality length mismatch", errFqidx)

// ErrTruncated is returned when EOF is reached partway through a
// four-line record.
var ErrTruncated = fmt.Errorf("%w: truncated record", errFqidx)
