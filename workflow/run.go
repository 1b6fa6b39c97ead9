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
	"log"
	"os"
	"path/filepath"

	"github.com/exascience/pargo/parallel"
	"github.com/google/uuid"
)

type state int

const (
	stateInit state = iota
	stateOutputDirPrep
	stateSplit
	stateIndexBuild
	stateDispatch
	stateAggregate
	stateCleanup
	stateDone
)

func (s state) String() string {
	switch s {
	case stateOutputDirPrep:
		return "output-dir-prep"
	case stateSplit:
		return "split"
	case stateIndexBuild:
		return "index-build"
	case stateDispatch:
		return "dispatch"
	case stateAggregate:
		return "aggregate"
	case stateCleanup:
		return "cleanup"
	case stateDone:
		return "done"
	default:
		return "init"
	}
}

// A Run is one coordinator invocation. It owns the working directory
// (and the split directory inside it) until cleanup. Constructed once,
// passed by reference; never a shared singleton.
type Run struct {
	Config  *Config
	Toolkit Toolkit

	// Units and Table are populated as the run advances.
	Units []*SampleUnit
	Table *FeatureTable

	// posRef and negRef carry the indexes built for this run; the
	// Config copies stay untouched.
	posRef, negRef ReferenceSet

	workingDir string
	splitDir   string
	state      state
}

// NewRun validates the configuration and returns a run ready to
// execute. Validation failures abort before any work.
func NewRun(config *Config, toolkit Toolkit) (*Run, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Run{
		Config:  config,
		Toolkit: toolkit,
		posRef:  config.PosRef,
		negRef:  config.NegRef,
	}, nil
}

// WorkingDir returns the working directory, empty before preparation.
func (r *Run) WorkingDir() string {
	return r.workingDir
}

// Execute drives the run through its states: output directory
// preparation, sample discovery (splitting if needed), index building,
// dispatch, aggregation, cleanup. Individual sample failures never fail
// the run; cleanup is attempted whenever the working directory exists.
func (r *Run) Execute() (err error) {
	r.state = stateOutputDirPrep
	if err := r.prepareDirs(); err != nil {
		return err
	}
	defer func() {
		r.state = stateCleanup
		if cerr := r.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
		if err == nil {
			r.state = stateDone
		}
	}()

	r.state = stateSplit
	log.Println("Discovering samples...")
	units, err := DiscoverSamples(r.Config.Input, r.splitDir)
	if err != nil {
		return err
	}
	r.Units = units
	log.Printf("Found %v samples.", len(units))

	r.state = stateIndexBuild
	log.Println("Building reference indexes...")
	if err := r.buildIndexes(); err != nil {
		return err
	}

	r.state = stateDispatch
	log.Println("Processing samples...")
	Dispatch(r.Units, r.worker(), r.Config.JobsToStart)
	if failed := FailedUnits(r.Units); len(failed) > 0 {
		log.Printf("%v of %v samples failed.", len(failed), len(r.Units))
	}

	r.state = stateAggregate
	log.Println("Aggregating...")
	aggregator := &Aggregator{
		WorkingDir: r.workingDir,
		OutputDir:  r.Config.OutputDir,
		MinReads:   r.Config.MinReads,
		Threads:    r.Config.ThreadsPerSample,
		PosRef:     r.posRef,
		Filter:     r.Toolkit.Filter,
	}
	table, err := aggregator.Aggregate()
	if err != nil {
		return err
	}
	r.Table = table
	return nil
}

// prepareDirs fails when the output directory exists without an
// overwrite request, before the working directory or anything else is
// created.
func (r *Run) prepareDirs() error {
	if _, err := os.Stat(r.Config.OutputDir); err == nil {
		if !r.Config.Overwrite {
			return configErrorf("output directory %v exists; pass --overwrite to replace it",
				r.Config.OutputDir)
		}
		if err := os.RemoveAll(r.Config.OutputDir); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}
	workingDir := filepath.Join(r.Config.OutputDir, "deblur-working-"+uuid.New().String())
	if err := os.MkdirAll(workingDir, 0700); err != nil {
		return err
	}
	r.workingDir = workingDir
	r.splitDir = filepath.Join(workingDir, "split")
	return nil
}

// buildIndexes makes both reference sets queryable, exactly once per
// run; workers only ever read the results.
func (r *Run) buildIndexes() error {
	var perr, nerr error
	parallel.Do(
		func() { perr = r.posRef.EnsureIndexes(r.Toolkit.Indexer, r.workingDir) },
		func() { nerr = r.negRef.EnsureIndexes(r.Toolkit.Indexer, r.workingDir) },
	)
	if perr != nil {
		return perr
	}
	return nerr
}

func (r *Run) worker() *Worker {
	c := r.Config
	return &Worker{
		Toolkit:        r.Toolkit,
		WorkingDir:     r.workingDir,
		NegRef:         r.negRef,
		TrimLength:     c.TrimLength,
		LeftTrimLength: c.LeftTrimLength,
		MinSize:        c.MinSize,
		Profile: ErrorProfile{
			MeanError: c.MeanError,
			ErrorDist: c.ErrorDist,
			IndelProb: c.IndelProb,
			IndelMax:  c.IndelMax,
		},
		Threads: c.ThreadsPerSample,
	}
}

// Cleanup removes the split directory, the working directory, and the
// aggregation temporaries inside it, unless retention was requested.
func (r *Run) Cleanup() error {
	if r.Config.KeepTmpFiles {
		log.Printf("Keeping working directory %v.", r.workingDir)
		return nil
	}
	if r.splitDir != "" {
		if err := os.RemoveAll(r.splitDir); err != nil {
			return err
		}
	}
	if r.workingDir != "" {
		return os.RemoveAll(r.workingDir)
	}
	return nil
}
