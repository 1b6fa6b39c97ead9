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
	"bytes"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bingxinhu/deblur/workflow"
)

// Mafft wraps the mafft executable for multiple sequence alignment.
// mafft writes the alignment to stdout, which is redirected into the
// stage output file.
type Mafft struct {
	// Executable overrides the binary name, default "mafft".
	Executable string
}

func (m Mafft) exe() string {
	if m.Executable != "" {
		return m.Executable
	}
	return "mafft"
}

// Align implements workflow.Aligner.
func (m Mafft) Align(input, output string, threads int) (n int, err error) {
	f, err := os.Create(output)
	if err != nil {
		return 0, err
	}
	defer func() {
		if nerr := f.Close(); err == nil {
			err = nerr
		}
	}()
	cmd := exec.Command(m.exe(),
		"--retree", "1",
		"--quiet",
		"--thread", strconv.Itoa(threads),
		input)
	cmd.Stdout = f
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return 0, &workflow.ExternalToolError{
			Tool:   m.exe(),
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return countSequences(output)
}
