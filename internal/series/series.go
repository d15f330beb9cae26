// Package series splits a flat timing array into one sample series per cache line.
package series

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
)

// ErrTooFewSamples is returned when there is less than one round per line.
var ErrTooFewSamples = errors.New("too few samples for one round per cache line")

// Rounds returns the number of measurement rounds per line.
func Rounds(total int, lines int) int {
	if lines <= 0 {
		return 0
	}
	return total / lines
}

// Dropped returns the number of trailing samples that do not fill a round.
func Dropped(total int, lines int) int {
	if lines <= 0 {
		return total
	}
	return total - Rounds(total, lines)*lines
}

// Reshape partitions data into lines contiguous series of Rounds(len(data), lines)
// samples each. Series i is data[i*rounds:(i+1)*rounds]; trailing samples are dropped.
func Reshape(data []float64, lines int) ([][]float64, error) {
	if lines <= 0 {
		return nil, fmt.Errorf("number of cache lines must be positive, got %d", lines)
	}
	rounds := Rounds(len(data), lines)
	if rounds == 0 {
		return nil, fmt.Errorf("%w: %d samples, %d lines", ErrTooFewSamples, len(data), lines)
	}
	out := make([][]float64, lines)
	for i := range lines {
		out[i] = data[i*rounds : (i+1)*rounds : (i+1)*rounds]
	}
	return out, nil
}
