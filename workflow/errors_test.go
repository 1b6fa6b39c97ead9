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
	"os/exec"
	"strings"
	"testing"
)

func TestConfigurationError(t *testing.T) {
	err := configErrorf("bad value %v", 42)
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatal("not a configuration error")
	}
	if !strings.Contains(err.Error(), "bad value 42") {
		t.Error("unexpected message: ", err)
	}
}

func TestExternalToolError(t *testing.T) {
	cause := &exec.ExitError{}
	err := &ExternalToolError{Tool: "vsearch", Stderr: "boom", Err: cause}
	if !strings.Contains(err.Error(), "vsearch") {
		t.Error("unexpected message: ", err)
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		t.Error("cause not unwrapped")
	}
}
