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

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewReferenceSet(t *testing.T) {
	ref, err := NewReferenceSet("positive", []string{"a.fa", "b.fa"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if ref.Empty() || ref.Indexed() {
		t.Error("unexpected reference state")
	}
	ref, err = NewReferenceSet("positive", []string{"a.fa"}, []string{"a.udb"})
	if err != nil {
		t.Fatal(err)
	}
	if !ref.Indexed() {
		t.Error("prebuilt index not recognized")
	}
}

func TestNewReferenceSetMismatch(t *testing.T) {
	_, err := NewReferenceSet("positive", []string{"a.fa", "b.fa"}, []string{"a.udb"})
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatal("expected a configuration error, got ", err)
	}
	if !strings.Contains(err.Error(), "positive") {
		t.Error("error does not name the reference set: ", err)
	}
}

func TestEnsureIndexes(t *testing.T) {
	tmp := t.TempDir()
	fake := &fakeTools{}
	ref, err := NewReferenceSet("positive", []string{"a.fa", "b.fa"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := ref.EnsureIndexes(fake, tmp); err != nil {
		t.Fatal(err)
	}
	if !ref.Indexed() {
		t.Fatal("reference set not indexed")
	}
	for i, fasta := range ref.Fastas {
		want := filepath.Join(tmp, filepath.Base(fasta)+".udb")
		if ref.Indexes[i] != want {
			t.Error("index order not preserved: ", ref.Indexes[i])
		}
	}
}

func TestEnsureIndexesSkipsPrebuilt(t *testing.T) {
	fake := &fakeTools{}
	ref, err := NewReferenceSet("positive", []string{"a.fa"}, []string{"a.udb"})
	if err != nil {
		t.Fatal(err)
	}
	if err := ref.EnsureIndexes(fake, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if len(fake.recorded()) != 0 {
		t.Error("indexer invoked for a prebuilt index")
	}
	if ref.Indexes[0] != "a.udb" {
		t.Error("prebuilt index replaced")
	}
}

func TestEnsureIndexesEmptySet(t *testing.T) {
	fake := &fakeTools{}
	var ref ReferenceSet
	if err := ref.EnsureIndexes(fake, t.TempDir()); err != nil {
		t.Fatal(err)
	}
	if len(fake.recorded()) != 0 {
		t.Error("indexer invoked for an empty set")
	}
}
