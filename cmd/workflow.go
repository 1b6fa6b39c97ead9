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
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/bingxinhu/deblur/tools"
	"github.com/bingxinhu/deblur/workflow"
)

// WorkflowHelp is the help string for this command.
const WorkflowHelp = "\nworkflow parameters:\n" +
	"deblur workflow input output-dir\n" +
	"[--trim-length n]\n" +
	"[--left-trim-length n]\n" +
	"[--mean-error rate]\n" +
	"[--error-dist list]\n" +
	"[--indel-prob p]\n" +
	"[--indel-max n]\n" +
	"[--min-reads n]\n" +
	"[--min-size n]\n" +
	"[--pos-ref-fp list]\n" +
	"[--pos-ref-db-fp list]\n" +
	"[--neg-ref-fp list]\n" +
	"[--neg-ref-db-fp list]\n" +
	"[--threads-per-sample n]\n" +
	"[--jobs-to-start n]\n" +
	"[--keep-tmp-files]\n" +
	"[--overwrite]\n" +
	"[--log-path path]\n"

// Workflow implements the deblur workflow command.
func Workflow() error {
	var (
		trimLength, leftTrimLength    int
		meanError, indelProb          float64
		errorDist                     string
		indelMax                      int
		minReads, minSize             int
		posRefFp, posRefDbFp          string
		negRefFp, negRefDbFp          string
		threadsPerSample, jobsToStart int
		keepTmpFiles, overwrite       bool
		logPath                       string
	)

	var flags flag.FlagSet

	flags.IntVar(&trimLength, "trim-length", -1, "length reads are truncated to; -1 disables trimming")
	flags.IntVar(&leftTrimLength, "left-trim-length", 0, "number of bases trimmed from the start of each read")
	flags.Float64Var(&meanError, "mean-error", 0.005, "mean per-base error rate for the denoiser")
	flags.StringVar(&errorDist, "error-dist", "", "comma-separated error probabilities per Hamming distance")
	flags.Float64Var(&indelProb, "indel-prob", 0.01, "insertion/deletion probability for the denoiser")
	flags.IntVar(&indelMax, "indel-max", 3, "maximum number of indels considered by the denoiser")
	flags.IntVar(&minReads, "min-reads", 10, "drop sequences with fewer study-wide reads from the final table")
	flags.IntVar(&minSize, "min-size", 2, "drop per-sample clusters below this abundance during dereplication")
	flags.StringVar(&posRefFp, "pos-ref-fp", "", "positive reference FASTA files")
	flags.StringVar(&posRefDbFp, "pos-ref-db-fp", "", "prebuilt indexes for the positive references, in the same order")
	flags.StringVar(&negRefFp, "neg-ref-fp", "", "negative (artifact) reference FASTA files")
	flags.StringVar(&negRefDbFp, "neg-ref-db-fp", "", "prebuilt indexes for the negative references, in the same order")
	flags.IntVar(&threadsPerSample, "threads-per-sample", 1, "number of threads passed to reference search and alignment")
	flags.IntVar(&jobsToStart, "jobs-to-start", 1, "number of samples processed concurrently")
	flags.BoolVar(&keepTmpFiles, "keep-tmp-files", false, "keep the working directory after the run")
	flags.BoolVar(&overwrite, "overwrite", false, "replace an existing output directory")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, WorkflowHelp)

	input := getFilename(os.Args[2], WorkflowHelp)
	output := getFilename(os.Args[3], WorkflowHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if posRefFp == "" {
		log.Println("Error: Missing --pos-ref-fp; a positive reference is required.")
		sanityChecksFailed = true
	}
	for _, fasta := range splitList(posRefFp) {
		if !checkExist("--pos-ref-fp", fasta) {
			sanityChecksFailed = true
		}
	}
	for _, fasta := range splitList(negRefFp) {
		if !checkExist("--neg-ref-fp", fasta) {
			sanityChecksFailed = true
		}
	}

	dist := workflow.DefaultErrorDist()
	if errorDist != "" {
		var err error
		if dist, err = parseFloatList(errorDist); err != nil {
			log.Println("Error: Invalid error-dist: ", err)
			sanityChecksFailed = true
		}
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, WorkflowHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " workflow ", input, " ", output)
	fmt.Fprint(&command, " --trim-length ", trimLength)
	if leftTrimLength > 0 {
		fmt.Fprint(&command, " --left-trim-length ", leftTrimLength)
	}
	fmt.Fprint(&command, " --mean-error ", meanError)
	if errorDist != "" {
		fmt.Fprint(&command, " --error-dist ", errorDist)
	}
	fmt.Fprint(&command, " --indel-prob ", indelProb)
	fmt.Fprint(&command, " --indel-max ", indelMax)
	fmt.Fprint(&command, " --min-reads ", minReads)
	fmt.Fprint(&command, " --min-size ", minSize)
	fmt.Fprint(&command, " --pos-ref-fp ", posRefFp)
	if posRefDbFp != "" {
		fmt.Fprint(&command, " --pos-ref-db-fp ", posRefDbFp)
	}
	if negRefFp != "" {
		fmt.Fprint(&command, " --neg-ref-fp ", negRefFp)
	}
	if negRefDbFp != "" {
		fmt.Fprint(&command, " --neg-ref-db-fp ", negRefDbFp)
	}
	fmt.Fprint(&command, " --threads-per-sample ", threadsPerSample)
	fmt.Fprint(&command, " --jobs-to-start ", jobsToStart)
	if keepTmpFiles {
		fmt.Fprint(&command, " --keep-tmp-files")
	}
	if overwrite {
		fmt.Fprint(&command, " --overwrite")
	}
	if logPath != "" {
		fmt.Fprint(&command, " --log-path ", logPath)
	}

	log.Println("Executing command:\n", command.String())

	posRef, err := workflow.NewReferenceSet("positive", splitList(posRefFp), splitList(posRefDbFp))
	if err != nil {
		return err
	}
	negRef, err := workflow.NewReferenceSet("negative", splitList(negRefFp), splitList(negRefDbFp))
	if err != nil {
		return err
	}

	config := &workflow.Config{
		Input:            input,
		OutputDir:        output,
		TrimLength:       trimLength,
		LeftTrimLength:   leftTrimLength,
		MeanError:        meanError,
		ErrorDist:        dist,
		IndelProb:        indelProb,
		IndelMax:         indelMax,
		MinReads:         minReads,
		MinSize:          minSize,
		PosRef:           posRef,
		NegRef:           negRef,
		ThreadsPerSample: threadsPerSample,
		JobsToStart:      jobsToStart,
		KeepTmpFiles:     keepTmpFiles,
		Overwrite:        overwrite,
	}

	run, err := workflow.NewRun(config, tools.Default())
	if err != nil {
		return err
	}
	if err := run.Execute(); err != nil {
		return err
	}

	succeeded := workflow.SucceededUnits(run.Units)
	log.Printf("%v of %v samples succeeded, %v distinct sequences.",
		len(succeeded), len(run.Units), run.Table.NumSequences())
	for _, unit := range workflow.FailedUnits(run.Units) {
		log.Printf("Sample %v: %v.", unit.ID, unit.Reason)
	}
	log.Println("Output written to", output)
	return nil
}
