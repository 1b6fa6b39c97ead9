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
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/exascience/pargo/pipeline"
	psort "github.com/exascience/pargo/sort"
	"github.com/willf/bitset"

	"github.com/bingxinhu/deblur/internal"
	"github.com/bingxinhu/deblur/seq"
)

// A FeatureTable holds (sequence, sample) read counts. Sequences are
// deduplicated by exact identity, counts summed per sample.
type FeatureTable struct {
	counts  map[string]map[string]int
	samples map[string]bool
}

// NewFeatureTable returns an empty table.
func NewFeatureTable() *FeatureTable {
	return &FeatureTable{
		counts:  make(map[string]map[string]int),
		samples: make(map[string]bool),
	}
}

// Add adds count reads of sequence in sample.
func (t *FeatureTable) Add(sequence, sample string, count int) {
	t.samples[sample] = true
	row := t.counts[sequence]
	if row == nil {
		row = make(map[string]int)
		t.counts[sequence] = row
	}
	row[sample] += count
}

// Samples returns the sample identifiers in sorted order.
func (t *FeatureTable) Samples() []string {
	samples := make([]string, 0, len(t.samples))
	for sample := range t.samples {
		samples = append(samples, sample)
	}
	sort.Strings(samples)
	return samples
}

// Count returns the reads of sequence in sample.
func (t *FeatureTable) Count(sequence, sample string) int {
	return t.counts[sequence][sample]
}

// Total returns the study-wide reads of sequence.
func (t *FeatureTable) Total(sequence string) (total int) {
	for _, count := range t.counts[sequence] {
		total += count
	}
	return total
}

// NumSequences returns the number of distinct sequences.
func (t *FeatureTable) NumSequences() int {
	return len(t.counts)
}

// RemoveRare drops sequences with fewer than minReads study-wide reads.
func (t *FeatureTable) RemoveRare(minReads int) {
	for sequence := range t.counts {
		if t.Total(sequence) < minReads {
			delete(t.counts, sequence)
		}
	}
}

type stableSequenceSorter struct {
	sequences []string
	table     *FeatureTable
}

func (s stableSequenceSorter) less(a, b string) bool {
	ta, tb := s.table.Total(a), s.table.Total(b)
	if ta != tb {
		return ta > tb
	}
	return a < b
}

func (s stableSequenceSorter) SequentialSort(i, j int) {
	sort.SliceStable(s.sequences[i:j], func(a, b int) bool {
		return s.less(s.sequences[i+a], s.sequences[i+b])
	})
}

func (s stableSequenceSorter) NewTemp() psort.StableSorter {
	return stableSequenceSorter{make([]string, len(s.sequences)), s.table}
}

func (s stableSequenceSorter) Len() int {
	return len(s.sequences)
}

func (s stableSequenceSorter) Less(i, j int) bool {
	return s.less(s.sequences[i], s.sequences[j])
}

func (s stableSequenceSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s.sequences, source.(stableSequenceSorter).sequences
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// Sequences returns the distinct sequences ordered by descending
// study-wide abundance, ties broken lexicographically.
func (t *FeatureTable) Sequences() []string {
	sequences := make([]string, 0, len(t.counts))
	for sequence := range t.counts {
		sequences = append(sequences, sequence)
	}
	psort.StableSort(stableSequenceSorter{sequences, t})
	return sequences
}

// An Aggregator merges the terminal per-sample artifacts of a working
// directory into a feature table and partitions it against the positive
// reference set.
type Aggregator struct {
	WorkingDir string
	OutputDir  string
	MinReads   int
	Threads    int
	PosRef     ReferenceSet
	Filter     ReferenceFilter
}

type sampleCounts struct {
	sample string
	counts map[string]int
}

// Aggregate scans the working directory for terminal-stage files, sums
// their abundance-annotated records into a table, drops sequences below
// the study-wide read minimum, and writes the combined table plus its
// reference-hit and reference-non-hit partitions to the output
// directory. Zero terminal files yield empty but valid outputs.
func (a *Aggregator) Aggregate() (*FeatureTable, error) {
	files, err := internal.Directory(a.WorkingDir)
	if err != nil {
		return nil, err
	}
	var terminal []string
	for _, file := range files {
		if strings.HasSuffix(file, TerminalSuffix) {
			terminal = append(terminal, file)
		}
	}
	sort.Strings(terminal)

	table := NewFeatureTable()
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(strings.NewReader(strings.Join(terminal, "\n"))))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		names := data.([]string)
		results := make([]sampleCounts, 0, len(names))
		for _, name := range names {
			records, err := seq.ReadAll(filepath.Join(a.WorkingDir, name))
			if err != nil {
				p.SetErr(err)
				return results
			}
			counts := make(map[string]int)
			for _, rec := range records {
				counts[string(rec.Letters)] += seq.Size(rec.Label)
			}
			sample := sampleName(strings.TrimSuffix(name, TerminalSuffix))
			results = append(results, sampleCounts{sample, counts})
		}
		return results
	})))
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		for _, sc := range data.([]sampleCounts) {
			for sequence, count := range sc.counts {
				table.Add(sequence, sc.sample, count)
			}
		}
		return data
	})))
	p.Run()
	if err := p.Err(); err != nil {
		return nil, err
	}

	table.RemoveRare(a.MinReads)

	sequences := table.Sequences()
	ids := make([]string, len(sequences))
	for i := range sequences {
		ids[i] = fmt.Sprintf("seq%d", i+1)
	}

	if err := a.writeTable(table, "all", sequences, ids, nil); err != nil {
		return nil, err
	}
	hits, err := a.referenceHits(sequences, ids)
	if err != nil {
		return nil, err
	}
	if err := a.writeTable(table, "reference-hit", sequences, ids, func(i int) bool {
		return hits.Test(uint(i))
	}); err != nil {
		return nil, err
	}
	if err := a.writeTable(table, "reference-non-hit", sequences, ids, func(i int) bool {
		return !hits.Test(uint(i))
	}); err != nil {
		return nil, err
	}
	return table, nil
}

// referenceHits marks the rows whose sequence matches the positive
// reference set. The search runs over temporary FASTA files in the
// working directory, removed after the search; the working directory
// may outlive the run, e.g. when retained for a later merge.
func (a *Aggregator) referenceHits(sequences, ids []string) (*bitset.BitSet, error) {
	hits := bitset.New(uint(len(sequences)))
	if len(sequences) == 0 || a.PosRef.Empty() {
		return hits, nil
	}
	query := filepath.Join(a.WorkingDir, "reference-query.fa")
	matched := filepath.Join(a.WorkingDir, "reference-matched.fa")
	defer func() {
		os.Remove(query)
		os.Remove(matched)
	}()
	records := make([]*seq.Record, len(sequences))
	for i, sequence := range sequences {
		records[i] = &seq.Record{Label: ids[i], Letters: []byte(sequence)}
	}
	if err := seq.WriteFasta(query, records); err != nil {
		return nil, err
	}
	if _, err := a.Filter.Filter(query, matched, a.PosRef, false, a.Threads); err != nil {
		return nil, err
	}
	matchedRecords, err := seq.ReadAll(matched)
	if err != nil {
		return nil, err
	}
	matchedIDs := make(map[string]bool)
	for _, rec := range matchedRecords {
		label := seq.Strip(rec.Label)
		if i := strings.IndexAny(label, " \t"); i >= 0 {
			label = label[:i]
		}
		matchedIDs[label] = true
	}
	for i, id := range ids {
		if matchedIDs[id] {
			hits.Set(uint(i))
		}
	}
	return hits, nil
}

// writeTable writes <name>.tsv and its companion <name>.seqs.fa for the
// rows selected by include (all rows when include is nil).
func (a *Aggregator) writeTable(table *FeatureTable, name string, sequences, ids []string, include func(i int) bool) (err error) {
	f, err := os.Create(filepath.Join(a.OutputDir, name+".tsv"))
	if err != nil {
		return err
	}
	defer func() {
		nerr := f.Close()
		if err == nil {
			err = nerr
		}
	}()
	w := bufio.NewWriter(f)
	samples := table.Samples()
	fmt.Fprint(w, "#OTU ID")
	for _, sample := range samples {
		fmt.Fprint(w, "\t", sample)
	}
	fmt.Fprintln(w)
	var companion []*seq.Record
	for i, sequence := range sequences {
		if include != nil && !include(i) {
			continue
		}
		fmt.Fprint(w, ids[i])
		for _, sample := range samples {
			fmt.Fprint(w, "\t", table.Count(sequence, sample))
		}
		fmt.Fprintln(w)
		companion = append(companion, &seq.Record{Label: ids[i], Letters: []byte(sequence)})
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return seq.WriteFasta(filepath.Join(a.OutputDir, name+".seqs.fa"), companion)
}
