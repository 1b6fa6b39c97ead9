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
	"io"

	"github.com/bingxinhu/deblur/seq"
)

// Trimmer truncates reads to a fixed length after removing leftLength
// leading bases, dropping reads too short for either cut. It runs
// in-process over seq streams; a length of -1 disables truncation. This
// also normalizes FASTQ input to FASTA for the downstream tools.
type Trimmer struct{}

// Trim implements workflow.Trimmer.
func (Trimmer) Trim(input, output string, length, leftLength int) (n int, err error) {
	r, err := seq.Open(input)
	if err != nil {
		return 0, err
	}
	defer func() {
		if nerr := r.Close(); err == nil {
			err = nerr
		}
	}()
	w, err := seq.Create(output)
	if err != nil {
		return 0, err
	}
	defer func() {
		if nerr := w.Close(); err == nil {
			err = nerr
		}
	}()
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return 0, err
		}
		letters := rec.Letters
		if leftLength > 0 {
			if len(letters) <= leftLength {
				continue
			}
			letters = letters[leftLength:]
		}
		if length >= 0 {
			if len(letters) < length {
				continue
			}
			letters = letters[:length]
		}
		rec.Letters = letters
		if err := w.Write(rec); err != nil {
			return 0, err
		}
		n++
	}
}
