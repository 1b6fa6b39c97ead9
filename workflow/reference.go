// deblur: a coordinator for denoising amplicon sequencing reads into a
// feature table.
// Copyright (c) 2021-2024 the deblur authors.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/bingxinhu/deblur/blob/master/LICENSE.txt>.

package workflow

// A ReferenceSet is a named list of reference FASTA files, optionally
// with a parallel list of prebuilt index files. When indexes are given,
// they must match the FASTA list in count and positional order. After
// index building a ReferenceSet is read-only and shared by all samples.
type ReferenceSet struct {
	Name    string
	Fastas  []string
	Indexes []string
}

// NewReferenceSet validates and returns a reference set. A non-empty
// index list whose length differs from the FASTA list is a
// ConfigurationError.
func NewReferenceSet(name string, fastas, indexes []string) (ReferenceSet, error) {
	if len(indexes) > 0 && len(indexes) != len(fastas) {
		return ReferenceSet{}, configErrorf(
			"reference set %v: %v FASTA files but %v indexes",
			name, len(fastas), len(indexes))
	}
	return ReferenceSet{
		Name:    name,
		Fastas:  append([]string(nil), fastas...),
		Indexes: append([]string(nil), indexes...),
	}, nil
}

// Empty reports whether the set contains no references.
func (r *ReferenceSet) Empty() bool {
	return len(r.Fastas) == 0
}

// Indexed reports whether every reference has an index.
func (r *ReferenceSet) Indexed() bool {
	return !r.Empty() && len(r.Indexes) == len(r.Fastas)
}

// EnsureIndexes makes the set queryable: supplied indexes are used
// as-is, otherwise one index per FASTA is built into dir, preserving
// positional order. An indexer failure is fatal for the run, since an
// unindexed reference makes correct filtering impossible.
func (r *ReferenceSet) EnsureIndexes(indexer Indexer, dir string) error {
	if r.Empty() || r.Indexed() {
		return nil
	}
	indexes := make([]string, len(r.Fastas))
	for i, fasta := range r.Fastas {
		index, err := indexer.BuildIndex(fasta, dir)
		if err != nil {
			return err
		}
		indexes[i] = index
	}
	r.Indexes = indexes
	return nil
}
