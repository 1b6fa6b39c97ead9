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

package cmd

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/bingxinhu/deblur/tools"
	"github.com/bingxinhu/deblur/workflow"
)

// MergeHelp is the help string for this command.
const MergeHelp = "\nmerge parameters:\n" +
	"deblur merge working-dir output-dir\n" +
	"[--min-reads n]\n" +
	"[--pos-ref-fp list]\n" +
	"[--pos-ref-db-fp list]\n" +
	"[--threads-per-sample n]\n" +
	"[--log-path path]\n"

// Merge implements the deblur merge command. It aggregates the terminal
// per-sample artifacts of a retained working directory into the feature
// table outputs, e.g. after inspecting a run that used
// --keep-tmp-files.
func Merge() error {
	var (
		minReads             int
		posRefFp, posRefDbFp string
		threadsPerSample     int
		logPath              string
	)

	var flags flag.FlagSet

	flags.IntVar(&minReads, "min-reads", 10, "drop sequences with fewer study-wide reads from the final table")
	flags.StringVar(&posRefFp, "pos-ref-fp", "", "positive reference FASTA files")
	flags.StringVar(&posRefDbFp, "pos-ref-db-fp", "", "prebuilt indexes for the positive references, in the same order")
	flags.IntVar(&threadsPerSample, "threads-per-sample", 1, "number of threads passed to reference search")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, MergeHelp)

	input := getFilename(os.Args[2], MergeHelp)
	output := getFilename(os.Args[3], MergeHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	for _, fasta := range splitList(posRefFp) {
		if !checkExist("--pos-ref-fp", fasta) {
			sanityChecksFailed = true
		}
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, MergeHelp)
		os.Exit(1)
	}

	posRef, err := workflow.NewReferenceSet("positive", splitList(posRefFp), splitList(posRefDbFp))
	if err != nil {
		return err
	}

	if err := os.MkdirAll(output, 0700); err != nil {
		return err
	}
	workingDir, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	log.Println("Aggregating...")
	aggregator := &workflow.Aggregator{
		WorkingDir: workingDir,
		OutputDir:  output,
		MinReads:   minReads,
		Threads:    threadsPerSample,
		PosRef:     posRef,
		Filter:     tools.Vsearch{},
	}
	table, err := aggregator.Aggregate()
	if err != nil {
		return err
	}
	log.Printf("Merged %v samples, %v distinct sequences.",
		len(table.Samples()), table.NumSequences())
	log.Println("Output written to", output)
	return nil
}
