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

	"github.com/bingxinhu/deblur/internal"
	"github.com/bingxinhu/deblur/workflow"
)

// SplitHelp is the help string for this command.
const SplitHelp = "\nsplit parameters:\n" +
	"deblur split input-file output-dir\n" +
	"[--log-path path]\n"

// Split implements the deblur split command. It demultiplexes a
// combined sequence file into one FASTA file per sample, the same
// operation the workflow command applies to a single-file input.
func Split() error {
	var logPath string

	var flags flag.FlagSet

	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, SplitHelp)

	input := getFilename(os.Args[2], SplitHelp)
	output := getFilename(os.Args[3], SplitHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	} else if info, err := os.Stat(input); err == nil && info.IsDir() {
		log.Printf("Error: %v is a directory; split expects a combined sequence file.\n", input)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, SplitHelp)
		os.Exit(1)
	}

	log.Println("Splitting...")
	if err := workflow.SplitSamples(input, output); err != nil {
		return err
	}
	files, err := internal.Directory(output)
	if err != nil {
		return err
	}
	log.Printf("Split %v into %v sample files in %v.", input, len(files), output)
	return nil
}
