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
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bingxinhu/deblur/internal"
	"github.com/bingxinhu/deblur/seq"
)

var inputExtensions = []string{".fa", ".fasta", ".fna", ".fq", ".fastq"}

func recognizedInput(name string) bool {
	name = strings.TrimSuffix(name, ".gz")
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range inputExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// sampleName strips the compression and sequence-file extensions off a
// file name, leaving the sample identifier.
func sampleName(filename string) string {
	filename = strings.TrimSuffix(filename, ".gz")
	if recognizedInput(filename) {
		filename = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return filename
}

// DiscoverSamples resolves the run input into one SampleUnit per sample
// file, ordered by file name. A directory is enumerated directly; a
// single multiplexed file is first split into splitDir by embedded
// sample identifier and the split directory is enumerated instead.
func DiscoverSamples(input, splitDir string) ([]*SampleUnit, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, configErrorf("cannot access input %v: %v", input, err)
	}
	if info.IsDir() {
		return enumerateSamples(input)
	}
	if err := SplitSamples(input, splitDir); err != nil {
		return nil, err
	}
	return enumerateSamples(splitDir)
}

func enumerateSamples(dir string) ([]*SampleUnit, error) {
	files, err := internal.Directory(dir)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	var units []*SampleUnit
	for _, file := range files {
		if recognizedInput(file) {
			units = append(units, &SampleUnit{
				Path: filepath.Join(dir, file),
				ID:   sampleName(file),
			})
		}
	}
	if len(units) == 0 {
		return nil, configErrorf("no sequence files found in %v", dir)
	}
	return units, nil
}

// SplitSamples demultiplexes a combined sequence file into one FASTA
// file per sample in splitDir. The sample identifier is the record
// label up to its final underscore. Splitting the same input again
// produces the same files.
func SplitSamples(input, splitDir string) (err error) {
	if err := os.MkdirAll(splitDir, 0700); err != nil {
		return err
	}
	r, err := seq.Open(input)
	if err != nil {
		return err
	}
	defer func() {
		nerr := r.Close()
		if err == nil {
			err = nerr
		}
	}()
	writers := make(map[string]*seq.Writer)
	defer func() {
		for _, w := range writers {
			if nerr := w.Close(); err == nil {
				err = nerr
			}
		}
	}()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		sample, err := splitSampleID(rec.Label)
		if err != nil {
			return err
		}
		w := writers[sample]
		if w == nil {
			w, err = seq.Create(filepath.Join(splitDir, sample+".fasta"))
			if err != nil {
				return err
			}
			writers[sample] = w
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
}

// splitSampleID derives the sample identifier from a multiplexed record
// label, e.g. "sampleA_1234 orig_bc=..." belongs to sampleA.
func splitSampleID(label string) (string, error) {
	token := label
	if i := strings.IndexAny(token, " \t"); i >= 0 {
		token = token[:i]
	}
	i := strings.LastIndexByte(token, '_')
	if i <= 0 {
		return "", configErrorf("no sample identifier in record label %v", label)
	}
	return token[:i], nil
}
