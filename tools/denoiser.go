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
	"strconv"
	"strings"

	"github.com/bingxinhu/deblur/workflow"
)

// Denoiser invokes the external error-correction algorithm on an
// aligned, abundance-annotated sample file. The algorithm itself is
// outside this module.
type Denoiser struct {
	// Executable overrides the binary name, default "deblur-denoise".
	Executable string
}

func (d Denoiser) exe() string {
	if d.Executable != "" {
		return d.Executable
	}
	return "deblur-denoise"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Denoise implements workflow.Denoiser.
func (d Denoiser) Denoise(input, output string, profile workflow.ErrorProfile) (int, error) {
	dist := make([]string, len(profile.ErrorDist))
	for i, p := range profile.ErrorDist {
		dist[i] = formatFloat(p)
	}
	err := run(d.exe(),
		"--mean-error", formatFloat(profile.MeanError),
		"--error-dist", strings.Join(dist, ","),
		"--indel-prob", formatFloat(profile.IndelProb),
		"--indel-max", strconv.Itoa(profile.IndelMax),
		input, output)
	if err != nil {
		return 0, err
	}
	return countSequences(output)
}
