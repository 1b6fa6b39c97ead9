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

package tools

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bingxinhu/deblur/seq"
)

func TestTrim(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "input.fasta")
	records := []*seq.Record{
		{Label: "long", Letters: []byte("AAAACCCCGGGG")},
		{Label: "exact", Letters: []byte("AAAACCCC")},
		{Label: "short", Letters: []byte("AAAA")},
	}
	if err := seq.WriteFasta(input, records); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(tmp, "output.fasta")
	n, err := Trimmer{}.Trim(input, output, 8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatal("unexpected count: ", n)
	}
	trimmed, err := seq.ReadAll(output)
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range trimmed {
		if len(rec.Letters) != 8 {
			t.Error("record not truncated: ", rec.Label)
		}
	}
}

func TestTrimLeft(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "input.fasta")
	records := []*seq.Record{
		{Label: "rec1", Letters: []byte("NNAAAACCCC")},
		{Label: "tooshort", Letters: []byte("NN")},
	}
	if err := seq.WriteFasta(input, records); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(tmp, "output.fasta")
	n, err := Trimmer{}.Trim(input, output, 8, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatal("unexpected count: ", n)
	}
	trimmed, err := seq.ReadAll(output)
	if err != nil {
		t.Fatal(err)
	}
	if string(trimmed[0].Letters) != "AAAACCCC" {
		t.Error("unexpected letters: ", string(trimmed[0].Letters))
	}
}

func TestTrimDisabled(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "input.fasta")
	records := []*seq.Record{
		{Label: "rec1", Letters: []byte("AAAACCCCGGGG")},
		{Label: "rec2", Letters: []byte("AA")},
	}
	if err := seq.WriteFasta(input, records); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(tmp, "output.fasta")
	n, err := Trimmer{}.Trim(input, output, -1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatal("unexpected count: ", n)
	}
}

func TestTrimNormalizesFastq(t *testing.T) {
	tmp := t.TempDir()
	input := filepath.Join(tmp, "input.fastq")
	data := "@rec1\nAAAACCCCGGGG\n+\nIIIIIIIIIIII\n"
	if err := os.WriteFile(input, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	output := filepath.Join(tmp, "output.fasta")
	n, err := Trimmer{}.Trim(input, output, -1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatal("unexpected count: ", n)
	}
	records, err := seq.ReadAll(output)
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Label != "rec1" || string(records[0].Letters) != "AAAACCCCGGGG" {
		t.Error("FASTQ record not normalized to FASTA")
	}
}
