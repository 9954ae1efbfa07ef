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

package fetch

// windowCache is the single-slot decoded-region cache:
// (record_id, start, end, bytes), 1-based inclusive biological coordinates.
type windowCache struct {
	valid      bool
	recordID   int64
	start, end int64
	bytes      []byte
}

// lookup returns the cached bytes covering [start, end] for recordID, if
// any: an exact match, or a sub-slice when the request is contained within
// the cached window.
func (c *windowCache) lookup(recordID, start, end int64) ([]byte, bool) {
	if !c.valid || c.recordID != recordID {
		return nil, false
	}
	if start == c.start && end == c.end {
		return c.bytes, true
	}
	if start >= c.start && end <= c.end {
		off := start - c.start
		length := end - start + 1
		return c.bytes[off : off+length], true
	}
	return nil, false
}

func (c *windowCache) set(recordID, start, end int64, b []byte) {
	c.valid = true
	c.recordID = recordID
	c.start, c.end = start, end
	c.bytes = b
}

// invalidate purges the cache. Called after any operation that mutates a
// returned buffer in place (reverse/complement).
func (c *windowCache) invalidate() {
	c.valid = false
	c.bytes = nil
}
