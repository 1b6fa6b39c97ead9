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

import "sync"

// Dispatch runs every unit through the worker and blocks until all of
// them reach a terminal status. A width below 2 processes the units
// sequentially; otherwise up to width samples run concurrently, each
// unit owned by exactly one goroutine. Reference indexes are built
// before dispatch and are read-only here, so units share no mutable
// state and completion order is irrelevant.
func Dispatch(units []*SampleUnit, worker *Worker, width int) {
	if width < 2 {
		for _, unit := range units {
			worker.Process(unit)
		}
		return
	}
	throttle := make(chan struct{}, width)
	var wait sync.WaitGroup
	for _, unit := range units {
		wait.Add(1)
		go func(unit *SampleUnit) {
			defer wait.Done()
			throttle <- struct{}{}
			defer func() { <-throttle }()
			worker.Process(unit)
		}(unit)
	}
	wait.Wait()
}

// SucceededUnits returns the units that reached Succeeded.
func SucceededUnits(units []*SampleUnit) []*SampleUnit {
	var result []*SampleUnit
	for _, unit := range units {
		if unit.Status == Succeeded {
			result = append(result, unit)
		}
	}
	return result
}

// FailedUnits returns the units that reached Failed.
func FailedUnits(units []*SampleUnit) []*SampleUnit {
	var result []*SampleUnit
	for _, unit := range units {
		if unit.Status == Failed {
			result = append(result, unit)
		}
	}
	return result
}
