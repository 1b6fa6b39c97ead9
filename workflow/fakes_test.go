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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bingxinhu/deblur/seq"
)

// fakeTools implements every collaborator in-process. Most stages copy
// their input; dereplication collapses identical reads into size
// annotations. A negative reference matches sequences starting with
// "TTTT", a positive reference those starting with "AAAA". failStage
// injects a tool error, emptyStage a clean zero-sequence result, both
// optionally restricted to inputs containing failSample.
type fakeTools struct {
	mu         sync.Mutex
	calls      []string
	failStage  string
	emptyStage string
	failSample string
}

func (f *fakeTools) toolkit() Toolkit {
	return Toolkit{
		Trimmer:      f,
		Dereplicator: f,
		Filter:       f,
		Indexer:      f,
		Aligner:      f,
		Denoiser:     f,
		Chimeras:     f,
	}
}

func (f *fakeTools) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTools) enter(stage, input string) (empty bool, err error) {
	f.mu.Lock()
	f.calls = append(f.calls, stage)
	f.mu.Unlock()
	if f.failSample != "" && !strings.Contains(input, f.failSample) {
		return false, nil
	}
	if f.failStage == stage {
		return false, &ExternalToolError{Tool: stage, Err: errors.New("exit status 1")}
	}
	return f.emptyStage == stage, nil
}

func (f *fakeTools) copyStage(stage, input, output string) (int, error) {
	empty, err := f.enter(stage, input)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, seq.WriteFasta(output, nil)
	}
	return copySequences(input, output)
}

func (f *fakeTools) Trim(input, output string, length, leftLength int) (int, error) {
	return f.copyStage("trim", input, output)
}

func (f *fakeTools) Dereplicate(input, output string, minSize int) (int, error) {
	empty, err := f.enter("dereplicate", input)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, seq.WriteFasta(output, nil)
	}
	records, err := seq.ReadAll(input)
	if err != nil {
		return 0, err
	}
	counts := make(map[string]int)
	var order []string
	for _, rec := range records {
		letters := string(rec.Letters)
		if counts[letters] == 0 {
			order = append(order, letters)
		}
		counts[letters] += seq.Size(rec.Label)
	}
	var derep []*seq.Record
	for i, letters := range order {
		if counts[letters] < minSize {
			continue
		}
		derep = append(derep, &seq.Record{
			Label:   seq.Annotate(fmt.Sprintf("d%d", i+1), counts[letters]),
			Letters: []byte(letters),
		})
	}
	if err := seq.WriteFasta(output, derep); err != nil {
		return 0, err
	}
	return len(derep), nil
}

func (f *fakeTools) refMatch(ref ReferenceSet, letters []byte) bool {
	switch ref.Name {
	case "negative":
		return strings.HasPrefix(string(letters), "TTTT")
	default:
		return strings.HasPrefix(string(letters), "AAAA")
	}
}

func (f *fakeTools) Filter(input, output string, ref ReferenceSet, negate bool, threads int) (int, error) {
	empty, err := f.enter("filter", input)
	if err != nil {
		return 0, err
	}
	if empty {
		return 0, seq.WriteFasta(output, nil)
	}
	records, err := seq.ReadAll(input)
	if err != nil {
		return 0, err
	}
	var kept []*seq.Record
	for _, rec := range records {
		if f.refMatch(ref, rec.Letters) != negate {
			kept = append(kept, rec)
		}
	}
	if err := seq.WriteFasta(output, kept); err != nil {
		return 0, err
	}
	return len(kept), nil
}

func (f *fakeTools) BuildIndex(fasta, dir string) (string, error) {
	if _, err := f.enter("index", fasta); err != nil {
		return "", err
	}
	index := filepath.Join(dir, filepath.Base(fasta)+".udb")
	if err := os.WriteFile(index, nil, 0600); err != nil {
		return "", err
	}
	return index, nil
}

func (f *fakeTools) Align(input, output string, threads int) (int, error) {
	return f.copyStage("align", input, output)
}

func (f *fakeTools) Denoise(input, output string, profile ErrorProfile) (int, error) {
	return f.copyStage("denoise", input, output)
}

func (f *fakeTools) RemoveChimeras(input, output string) (int, error) {
	return f.copyStage("chimera", input, output)
}

func writeSample(t *testing.T, path string, reads ...string) {
	t.Helper()
	records := make([]*seq.Record, len(reads))
	for i, read := range reads {
		records[i] = &seq.Record{Label: fmt.Sprintf("r%d", i+1), Letters: []byte(read)}
	}
	if err := seq.WriteFasta(path, records); err != nil {
		t.Fatal(err)
	}
}

func repeat(read string, n int) []string {
	reads := make([]string, n)
	for i := range reads {
		reads[i] = read
	}
	return reads
}
