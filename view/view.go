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

// Package view is the catalog query view: a typed, chainable, sortable,
// filterable projection over a catalog's record names.
package view

import (
	"fmt"
	"strings"

	"github.com/shenwei356/natsort"

	"github.com/seqidx/fastx/catalog"
)

// SortKey names a field View.Sort can order by.
type SortKey int

const (
	ByID SortKey = iota
	ByName
	ByLength
)

// View is an ordered, optionally filtered projection over a catalog's
// names. Sort/Filter/Reset return the receiver so calls can be chained; the
// underlying query is only re-run, lazily, the next time it is observed
// (Len, At, Contains, Names), and the sequence of Sort/Filter calls before
// that observation does not affect the result.
type View struct {
	store *catalog.Store

	sortKey SortKey
	reverse bool
	natural bool
	conds   []Condition

	dirty bool
	names []string
}

// New wraps a catalog store (either a FASTA or FASTQ store) with a view
// defaulting to unfiltered, id order.
func New(store *catalog.Store) *View {
	return &View{store: store, dirty: true}
}

// Sort rewrites the view's order. by selects the field, ordered by plain
// SQL comparison; it clears any natural ordering set by SortNatural, which
// orders names the way shenwei356/natsort does (numeric runs compared by
// value, so "chr2" sorts before "chr10").
func (v *View) Sort(by SortKey, reverse bool) *View {
	v.sortKey = by
	v.reverse = reverse
	v.natural = false
	v.dirty = true
	return v
}

// SortNatural orders by name using natural sort order.
func (v *View) SortNatural(reverse bool) *View {
	v.sortKey = ByName
	v.reverse = reverse
	v.natural = true
	v.dirty = true
	return v
}

// Filter ANDs additional conditions onto the view.
func (v *View) Filter(conds ...Condition) *View {
	v.conds = append(v.conds, conds...)
	v.dirty = true
	return v
}

// Reset drops all filters and restores id order.
func (v *View) Reset() *View {
	v.conds = nil
	v.sortKey = ByID
	v.reverse = false
	v.natural = false
	v.dirty = true
	return v
}

func (v *View) whereClause() (string, []any) {
	if len(v.conds) == 0 {
		return "", nil
	}
	lengthCol := v.store.LengthColumn()
	parts := make([]string, 0, len(v.conds))
	args := make([]any, 0, len(v.conds))
	for _, c := range v.conds {
		clause, arg := c.sql(lengthCol)
		parts = append(parts, clause)
		args = append(args, arg)
	}
	return strings.Join(parts, " AND "), args
}

func (v *View) orderColumn() string {
	switch v.sortKey {
	case ByName:
		return "name"
	case ByLength:
		return v.store.LengthColumn()
	default:
		return "id"
	}
}

func (v *View) refresh() error {
	if !v.dirty {
		return nil
	}
	where, args := v.whereClause()

	if v.natural {
		names, err := v.store.QueryNames("", false, where, args)
		if err != nil {
			return err
		}
		natsort.Sort(names)
		if v.reverse {
			for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
				names[i], names[j] = names[j], names[i]
			}
		}
		v.names = names
	} else {
		names, err := v.store.QueryNames(v.orderColumn(), v.reverse, where, args)
		if err != nil {
			return err
		}
		v.names = names
	}
	v.dirty = false
	return nil
}

// Len returns the number of names currently visible through the view.
func (v *View) Len() (int, error) {
	if err := v.refresh(); err != nil {
		return 0, err
	}
	return len(v.names), nil
}

// At returns the name at ordinal position i (0-based) within the view.
func (v *View) At(i int) (string, error) {
	if err := v.refresh(); err != nil {
		return "", err
	}
	if i < 0 || i >= len(v.names) {
		return "", fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, i, len(v.names))
	}
	return v.names[i], nil
}

// Contains reports whether name is visible through the view.
func (v *View) Contains(name string) (bool, error) {
	if err := v.refresh(); err != nil {
		return false, err
	}
	for _, n := range v.names {
		if n == name {
			return true, nil
		}
	}
	return false, nil
}

// Names returns a copy of every name currently visible through the view,
// in view order.
func (v *View) Names() ([]string, error) {
	if err := v.refresh(); err != nil {
		return nil, err
	}
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out, nil
}
