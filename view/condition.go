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

package view

// op names a comparison a Condition applies.
type op int

const (
	opGT op = iota
	opGE
	opLT
	opLE
	opEQ
	opLike
)

// Condition is one comparison in a Filter call; multiple conditions are
// ANDed together.
type Condition struct {
	op      op
	length  int64
	pattern string
}

// LengthGT filters to records longer than n.
func LengthGT(n int64) Condition { return Condition{op: opGT, length: n} }

// LengthGE filters to records at least n long.
func LengthGE(n int64) Condition { return Condition{op: opGE, length: n} }

// LengthLT filters to records shorter than n.
func LengthLT(n int64) Condition { return Condition{op: opLT, length: n} }

// LengthLE filters to records at most n long.
func LengthLE(n int64) Condition { return Condition{op: opLE, length: n} }

// LengthEQ filters to records exactly n long.
func LengthEQ(n int64) Condition { return Condition{op: opEQ, length: n} }

// NameLike filters to names matching a SQL LIKE pattern (LIKE is
// case-insensitive for ASCII in sqlite).
func NameLike(pattern string) Condition { return Condition{op: opLike, pattern: pattern} }

func (c Condition) sql(lengthCol string) (string, any) {
	switch c.op {
	case opGT:
		return lengthCol + " > ?", c.length
	case opGE:
		return lengthCol + " >= ?", c.length
	case opLT:
		return lengthCol + " < ?", c.length
	case opLE:
		return lengthCol + " <= ?", c.length
	case opEQ:
		return lengthCol + " = ?", c.length
	default:
		return "name LIKE ?", c.pattern
	}
}
