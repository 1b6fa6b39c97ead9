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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bingxinhu/deblur/seq"
	"github.com/bingxinhu/deblur/workflow"
)

// Vsearch wraps the vsearch executable for dereplication, reference
// search (over UDB indexes), de novo chimera removal, and index
// building.
type Vsearch struct {
	// Executable overrides the binary name, default "vsearch".
	Executable string
	// Identity is the minimum global identity for reference matches,
	// default 0.65.
	Identity float64
}

func (v Vsearch) exe() string {
	if v.Executable != "" {
		return v.Executable
	}
	return "vsearch"
}

func (v Vsearch) identity() string {
	if v.Identity > 0 {
		return strconv.FormatFloat(v.Identity, 'g', -1, 64)
	}
	return "0.65"
}

// Dereplicate implements workflow.Dereplicator: identical reads
// collapse into one ";size=N" annotated record, clusters below minSize
// are dropped.
func (v Vsearch) Dereplicate(input, output string, minSize int) (int, error) {
	err := run(v.exe(),
		"--derep_fulllength", input,
		"--output", output,
		"--sizeout",
		"--minuniquesize", strconv.Itoa(minSize),
		"--fasta_width", "0")
	if err != nil {
		return 0, err
	}
	return countSequences(output)
}

// Filter implements workflow.ReferenceFilter. With negate set, records
// matching any reference database are dropped; otherwise only records
// matching at least one database are kept, in input order.
func (v Vsearch) Filter(input, output string, ref workflow.ReferenceSet, negate bool, threads int) (int, error) {
	databases := ref.Indexes
	if len(databases) == 0 {
		databases = ref.Fastas
	}
	if negate {
		return v.dropMatches(input, output, databases, threads)
	}
	return v.keepMatches(input, output, databases, threads)
}

func (v Vsearch) search(input, db string, threads int, role, path string) error {
	return run(v.exe(),
		"--usearch_global", input,
		"--db", db,
		"--id", v.identity(),
		"--threads", strconv.Itoa(threads),
		"--strand", "plus",
		"--sizein", "--sizeout",
		"--fasta_width", "0",
		role, path)
}

// dropMatches chains the not-matched output through every database.
func (v Vsearch) dropMatches(input, output string, databases []string, threads int) (int, error) {
	current := input
	for i, db := range databases {
		next := output
		if i < len(databases)-1 {
			next = fmt.Sprintf("%s.%d", output, i)
		}
		if err := v.search(current, db, threads, "--notmatched", next); err != nil {
			return 0, err
		}
		if current != input {
			_ = os.Remove(current)
		}
		current = next
	}
	return countSequences(output)
}

// keepMatches unions the matches of every database, preserving input
// order.
func (v Vsearch) keepMatches(input, output string, databases []string, threads int) (int, error) {
	matched := make(map[string]bool)
	for i, db := range databases {
		tmp := fmt.Sprintf("%s.match.%d", output, i)
		if err := v.search(input, db, threads, "--matched", tmp); err != nil {
			return 0, err
		}
		records, err := seq.ReadAll(tmp)
		_ = os.Remove(tmp)
		if err != nil {
			return 0, err
		}
		for _, rec := range records {
			matched[firstToken(rec.Label)] = true
		}
	}
	records, err := seq.ReadAll(input)
	if err != nil {
		return 0, err
	}
	var kept []*seq.Record
	for _, rec := range records {
		if matched[firstToken(rec.Label)] {
			kept = append(kept, rec)
		}
	}
	if err := seq.WriteFasta(output, kept); err != nil {
		return 0, err
	}
	return len(kept), nil
}

// RemoveChimeras implements workflow.ChimeraFilter using de novo
// chimera detection on the denoised, abundance-annotated sequences.
func (v Vsearch) RemoveChimeras(input, output string) (int, error) {
	err := run(v.exe(),
		"--uchime3_denovo", input,
		"--nonchimeras", output,
		"--sizein", "--sizeout",
		"--fasta_width", "0")
	if err != nil {
		return 0, err
	}
	return countSequences(output)
}

// BuildIndex implements workflow.Indexer, building a UDB database next
// to the other shared indexes of the run.
func (v Vsearch) BuildIndex(fasta, dir string) (string, error) {
	base := filepath.Base(fasta)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	index := filepath.Join(dir, base+".udb")
	err := run(v.exe(),
		"--makeudb_usearch", fasta,
		"--output", index)
	if err != nil {
		return "", err
	}
	return index, nil
}
