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
	"os"
	"path/filepath"
	"testing"

	"github.com/bingxinhu/deblur/seq"
)

func TestDiscoverSamplesDirectory(t *testing.T) {
	tmp := t.TempDir()
	writeSample(t, filepath.Join(tmp, "sampleB.fasta"), "AAAACCCC")
	writeSample(t, filepath.Join(tmp, "sampleA.fa.gz"), "GGGGCCCC")
	writeSample(t, filepath.Join(tmp, "sampleC.fna"), "CCCCAAAA")
	if err := os.WriteFile(filepath.Join(tmp, "notes.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	units, err := DiscoverSamples(tmp, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 3 {
		t.Fatal("unexpected number of units: ", len(units))
	}
	for i, id := range []string{"sampleA", "sampleB", "sampleC"} {
		if units[i].ID != id {
			t.Error("unexpected unit: ", units[i].ID)
		}
		if units[i].Status != Pending {
			t.Error("unit not pending: ", units[i].ID)
		}
	}
}

func TestDiscoverSamplesEmptyDirectory(t *testing.T) {
	_, err := DiscoverSamples(t.TempDir(), "")
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatal("expected a configuration error, got ", err)
	}
}

func TestDiscoverSamplesMultiplexed(t *testing.T) {
	tmp := t.TempDir()
	combined := filepath.Join(tmp, "combined.fasta")
	records := []*seq.Record{
		{Label: "sampleA_1", Letters: []byte("AAAACCCC")},
		{Label: "sampleB_7 orig_bc=ACGT", Letters: []byte("GGGGCCCC")},
		{Label: "sampleA_2", Letters: []byte("AAAACCCC")},
		{Label: "s_1_42", Letters: []byte("CCCCAAAA")},
	}
	if err := seq.WriteFasta(combined, records); err != nil {
		t.Fatal(err)
	}
	splitDir := filepath.Join(tmp, "split")
	units, err := DiscoverSamples(combined, splitDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(units) != 3 {
		t.Fatal("unexpected number of units: ", len(units))
	}
	for i, id := range []string{"s_1", "sampleA", "sampleB"} {
		if units[i].ID != id {
			t.Error("unexpected unit: ", units[i].ID)
		}
	}
	perSample, err := seq.ReadAll(filepath.Join(splitDir, "sampleA.fasta"))
	if err != nil {
		t.Fatal(err)
	}
	if len(perSample) != 2 {
		t.Error("unexpected sampleA record count: ", len(perSample))
	}
	// splitting again must produce the same layout
	again, err := DiscoverSamples(combined, splitDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != len(units) {
		t.Fatal("split is not idempotent")
	}
	for i := range units {
		if again[i].ID != units[i].ID || again[i].Path != units[i].Path {
			t.Error("split is not idempotent for ", units[i].ID)
		}
	}
}

func TestSplitSamplesBadLabel(t *testing.T) {
	tmp := t.TempDir()
	combined := filepath.Join(tmp, "combined.fasta")
	records := []*seq.Record{{Label: "nounderscore", Letters: []byte("AAAA")}}
	if err := seq.WriteFasta(combined, records); err != nil {
		t.Fatal(err)
	}
	err := SplitSamples(combined, filepath.Join(tmp, "split"))
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatal("expected a configuration error, got ", err)
	}
}

func TestSampleName(t *testing.T) {
	for _, c := range []struct{ in, out string }{
		{"sampleA.fasta", "sampleA"},
		{"sampleA.fq.gz", "sampleA"},
		{"sampleA.FASTQ", "sampleA"},
		{"sampleA.v2.fna", "sampleA.v2"},
		{"sampleA", "sampleA"},
	} {
		if got := sampleName(c.in); got != c.out {
			t.Error("sampleName(", c.in, ") = ", got)
		}
	}
}
