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

// The sequence-level transformations are external collaborators behind
// the interfaces below. Each file-to-file operation returns the number
// of sequences written to its output, so the caller can tell a clean
// empty result from real output without reparsing the file.

// An ErrorProfile parameterizes the denoiser.
type ErrorProfile struct {
	// MeanError is the mean per-base error rate.
	MeanError float64
	// ErrorDist is the error probability per Hamming distance, starting
	// at distance 0.
	ErrorDist []float64
	// IndelProb is the insertion/deletion probability, IndelMax the
	// maximum number of indels considered.
	IndelProb float64
	IndelMax  int
}

// A Trimmer truncates reads to a fixed length, dropping shorter reads.
// A trim length of -1 disables the transform.
type Trimmer interface {
	Trim(input, output string, length, leftLength int) (int, error)
}

// A Dereplicator collapses identical reads into abundance-annotated
// records, dropping clusters below minSize.
type Dereplicator interface {
	Dereplicate(input, output string, minSize int) (int, error)
}

// A ReferenceFilter retains the sequences of input that match the given
// reference set, or drops them when negate is set.
type ReferenceFilter interface {
	Filter(input, output string, ref ReferenceSet, negate bool, threads int) (int, error)
}

// An Indexer builds a queryable index for one reference FASTA in dir and
// returns the index path.
type Indexer interface {
	BuildIndex(fasta, dir string) (string, error)
}

// An Aligner computes a multiple sequence alignment, serialized back to
// sequence form.
type Aligner interface {
	Align(input, output string, threads int) (int, error)
}

// A Denoiser removes reads explainable as sequencing errors of a more
// abundant read. The algorithm itself is outside this module.
type Denoiser interface {
	Denoise(input, output string, profile ErrorProfile) (int, error)
}

// A ChimeraFilter writes the non-chimeric subset of input.
type ChimeraFilter interface {
	RemoveChimeras(input, output string) (int, error)
}

// A Toolkit bundles the collaborators consumed by a run. Tests inject
// fakes here; the tools package provides the executable-backed defaults.
type Toolkit struct {
	Trimmer      Trimmer
	Dereplicator Dereplicator
	Filter       ReferenceFilter
	Indexer      Indexer
	Aligner      Aligner
	Denoiser     Denoiser
	Chimeras     ChimeraFilter
}
