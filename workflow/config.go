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

import "os"

// A Config is the immutable parameter set of one run. It is validated
// once at construction and passed by reference through every call.
type Config struct {
	// Input is a directory of per-sample files, or one multiplexed file
	// to be split by embedded sample identifier.
	Input string
	// OutputDir receives the feature tables and owns the working
	// directory for the duration of the run.
	OutputDir string

	// TrimLength truncates reads; -1 disables trimming.
	TrimLength int
	// LeftTrimLength removes bases from the start of each read.
	LeftTrimLength int

	// Error model handed to the denoiser.
	MeanError float64
	ErrorDist []float64
	IndelProb float64
	IndelMax  int

	// MinReads drops sequences with fewer study-wide reads from the
	// final table. MinSize drops per-sample clusters below this
	// abundance during dereplication.
	MinReads int
	MinSize  int

	// PosRef partitions the final table into reference-hit and
	// reference-non-hit. NegRef marks artifacts removed per sample.
	PosRef ReferenceSet
	NegRef ReferenceSet

	// ThreadsPerSample is handed to reference search and alignment.
	// JobsToStart is the concurrency width of the dispatcher; below 2
	// samples are processed sequentially in-process.
	ThreadsPerSample int
	JobsToStart      int

	// KeepTmpFiles retains the working directory after the run.
	KeepTmpFiles bool
	// Overwrite allows replacing an existing output directory.
	Overwrite bool
}

// DefaultErrorDist is the standard error-probability distribution per
// Hamming distance.
func DefaultErrorDist() []float64 {
	return []float64{
		1, 0.06, 0.02, 0.02, 0.01,
		0.005, 0.005, 0.005, 0.001,
		0.001, 0.001, 0.0005,
	}
}

// Validate checks the configuration before any work starts.
func (c *Config) Validate() error {
	if c.Input == "" {
		return configErrorf("no input given")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return configErrorf("cannot access input %v: %v", c.Input, err)
	}
	if c.OutputDir == "" {
		return configErrorf("no output directory given")
	}
	if c.TrimLength < -1 || c.TrimLength == 0 {
		return configErrorf("invalid trim length %v", c.TrimLength)
	}
	if c.LeftTrimLength < 0 {
		return configErrorf("invalid left trim length %v", c.LeftTrimLength)
	}
	if c.MeanError <= 0 || c.MeanError >= 1 {
		return configErrorf("invalid mean error %v", c.MeanError)
	}
	if len(c.ErrorDist) == 0 {
		return configErrorf("empty error distribution")
	}
	for _, p := range c.ErrorDist {
		if p < 0 || p > 1 {
			return configErrorf("invalid error distribution entry %v", p)
		}
	}
	if c.IndelProb < 0 || c.IndelProb > 1 {
		return configErrorf("invalid indel probability %v", c.IndelProb)
	}
	if c.IndelMax < 0 {
		return configErrorf("invalid indel maximum %v", c.IndelMax)
	}
	if c.MinReads < 0 {
		return configErrorf("invalid minimum reads %v", c.MinReads)
	}
	if c.MinSize < 1 {
		return configErrorf("invalid minimum size %v", c.MinSize)
	}
	if c.ThreadsPerSample < 1 {
		return configErrorf("invalid threads per sample %v", c.ThreadsPerSample)
	}
	if c.JobsToStart < 1 {
		return configErrorf("invalid jobs to start %v", c.JobsToStart)
	}
	if c.PosRef.Empty() {
		return configErrorf("no positive reference given")
	}
	for _, ref := range []*ReferenceSet{&c.PosRef, &c.NegRef} {
		if n := len(ref.Indexes); n > 0 && n != len(ref.Fastas) {
			return configErrorf("reference set %v: %v FASTA files but %v indexes",
				ref.Name, len(ref.Fastas), n)
		}
		for _, fasta := range ref.Fastas {
			if _, err := os.Stat(fasta); err != nil {
				return configErrorf("cannot access reference %v: %v", fasta, err)
			}
		}
	}
	return nil
}
