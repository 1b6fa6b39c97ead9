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
	"log"
	"path/filepath"

	"github.com/bingxinhu/deblur/seq"
)

// Status is the terminal status of a SampleUnit.
type Status int

const (
	Pending Status = iota
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// A StageOutput records one completed stage of a sample's chain.
type StageOutput struct {
	Stage string
	Path  string
	Count int
}

// A Manifest lists the completed stages of one sample in order. Each
// stage receives its input from the previous entry rather than guessing
// it from file name patterns.
type Manifest []StageOutput

// A SampleUnit is one input file, processed independently. It is
// written only by the single worker that owns it.
type SampleUnit struct {
	Path     string
	ID       string
	Status   Status
	Artifact string
	Reason   string
	Manifest Manifest
}

func (u *SampleUnit) fail(stage string, err error) {
	u.Status = Failed
	if errors.Is(err, ErrEmptyStage) {
		u.Reason = fmt.Sprintf("empty output after %v", stage)
	} else {
		u.Reason = fmt.Sprintf("%v: %v", stage, err)
	}
	log.Printf("Sample %v failed: %v.", u.ID, u.Reason)
}

// Stage name suffixes. Each stage appends its suffix to the name of the
// previous stage's output, so progress is observable on disk and the
// terminal artifact of a sample is findable by name.
const (
	TrimSuffix     = ".trim"
	DerepSuffix    = ".derep"
	ArtifactSuffix = ".no_artifacts"
	MsaSuffix      = ".msa"
	DenoiseSuffix  = ".deblur"
	ChimeraSuffix  = ".no_chimeras"
)

// TerminalSuffix is the accumulated suffix chain of a finished sample.
const TerminalSuffix = TrimSuffix + DerepSuffix + ArtifactSuffix +
	MsaSuffix + DenoiseSuffix + ChimeraSuffix

// A Worker drives single samples through the transformation chain:
// trim, dereplicate, artifact removal, multiple sequence alignment,
// denoising, de novo chimera removal. Beyond the read-only reference
// sets, workers share no state; every stage file is named after the
// sample that owns it.
type Worker struct {
	Toolkit    Toolkit
	WorkingDir string
	NegRef     ReferenceSet

	TrimLength     int
	LeftTrimLength int
	MinSize        int
	Profile        ErrorProfile
	Threads        int
}

type stage struct {
	name   string
	suffix string
	run    func(input, output string) (int, error)
}

func (w *Worker) stages() []stage {
	return []stage{
		{"trim", TrimSuffix, func(in, out string) (int, error) {
			return w.Toolkit.Trimmer.Trim(in, out, w.TrimLength, w.LeftTrimLength)
		}},
		{"dereplicate", DerepSuffix, func(in, out string) (int, error) {
			return w.Toolkit.Dereplicator.Dereplicate(in, out, w.MinSize)
		}},
		{"remove-artifacts", ArtifactSuffix, func(in, out string) (int, error) {
			if w.NegRef.Empty() {
				return copySequences(in, out)
			}
			return w.Toolkit.Filter.Filter(in, out, w.NegRef, true, w.Threads)
		}},
		{"align", MsaSuffix, func(in, out string) (int, error) {
			return w.Toolkit.Aligner.Align(in, out, w.Threads)
		}},
		{"denoise", DenoiseSuffix, func(in, out string) (int, error) {
			return w.Toolkit.Denoiser.Denoise(in, out, w.Profile)
		}},
		{"remove-chimeras", ChimeraSuffix, func(in, out string) (int, error) {
			return w.Toolkit.Chimeras.RemoveChimeras(in, out)
		}},
	}
}

// Process runs one sample to a terminal status. A stage failure, or a
// stage that leaves no sequences, fails the sample without raising; the
// rest of the batch is unaffected.
func (w *Worker) Process(unit *SampleUnit) {
	input := unit.Path
	name := filepath.Base(unit.Path)
	for _, s := range w.stages() {
		name += s.suffix
		output := filepath.Join(w.WorkingDir, name)
		count, err := s.run(input, output)
		if err != nil {
			unit.fail(s.name, err)
			return
		}
		if count == 0 {
			unit.fail(s.name, ErrEmptyStage)
			return
		}
		unit.Manifest = append(unit.Manifest, StageOutput{s.name, output, count})
		input = output
	}
	unit.Status = Succeeded
	unit.Artifact = input
}

func copySequences(input, output string) (int, error) {
	records, err := seq.ReadAll(input)
	if err != nil {
		return 0, err
	}
	if err := seq.WriteFasta(output, records); err != nil {
		return 0, err
	}
	return len(records), nil
}
