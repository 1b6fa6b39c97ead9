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
)

// A ConfigurationError reports an invalid run configuration: bad paths,
// an output directory conflict, or a reference/index count mismatch.
// Configuration errors are fatal and abort a run before any work starts.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// An ExternalToolError reports a collaborator tool exiting with a
// non-zero status. It is fatal during index building and non-fatal
// during per-sample processing, where it fails only the affected sample.
type ExternalToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ExternalToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%v: %v: %v", e.Tool, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%v: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error {
	return e.Err
}

// ErrEmptyStage marks a stage that ran cleanly but left no sequences.
// The owning sample is recorded as failed, distinguishable from a tool
// crash by this sentinel.
var ErrEmptyStage = errors.New("stage produced no sequences")
