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

// Package tools provides the executable-backed implementations of the
// workflow collaborator interfaces.
package tools

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bingxinhu/deblur/seq"
	"github.com/bingxinhu/deblur/workflow"
)

// Default returns the standard toolkit: vsearch for dereplication,
// reference search, indexing and chimera removal, mafft for multiple
// sequence alignment, and the external denoiser; trimming runs
// in-process.
func Default() workflow.Toolkit {
	vsearch := Vsearch{}
	return workflow.Toolkit{
		Trimmer:      Trimmer{},
		Dereplicator: vsearch,
		Filter:       vsearch,
		Indexer:      vsearch,
		Aligner:      Mafft{},
		Denoiser:     Denoiser{},
		Chimeras:     vsearch,
	}
}

// run executes a collaborator tool, capturing stderr into the error on
// a non-zero exit.
func run(tool string, args ...string) error {
	cmd := exec.Command(tool, args...)
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return &workflow.ExternalToolError{
			Tool:   tool,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return nil
}

// countSequences counts the records of a tool's output file. A missing
// file counts as zero; some tools skip the output when nothing matched.
func countSequences(path string) (n int, err error) {
	r, err := seq.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer func() {
		nerr := r.Close()
		if err == nil {
			err = nerr
		}
	}()
	for {
		if _, err := r.Next(); err == io.EOF {
			return n, nil
		} else if err != nil {
			return 0, err
		}
		n++
	}
}

// firstToken returns a record label up to the first whitespace, without
// its abundance annotation.
func firstToken(label string) string {
	label = seq.Strip(label)
	if i := strings.IndexAny(label, " \t"); i >= 0 {
		label = label[:i]
	}
	return label
}
