// Package score reduces smoothed cache line series to scalar scores and ranks them.
package score

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Line is the ranked result for one cache line.
type Line struct {
	Index     int
	Score     float64
	Candidate bool // line was derived from one of the trace addresses
	Hot       bool // line matched the hot-line rule
}

// Membership reports whether a cache line is a page table walk candidate.
type Membership interface {
	Contains(line int) bool
}

// Mean returns the arithmetic mean of series.
func Mean(series []float64) float64 {
	return stat.Mean(series, nil)
}

// Compute scores every series, keyed by cache line index.
func Compute(smoothed [][]float64) map[int]float64 {
	scores := make(map[int]float64, len(smoothed))
	for i, series := range smoothed {
		scores[i] = Mean(series)
	}
	return scores
}

// Rank orders the scores from slowest to fastest. Equal scores keep ascending
// line order. Lines in candidates are flagged.
func Rank(scores map[int]float64, candidates Membership) []Line {
	indices := make([]int, 0, len(scores))
	for idx := range scores {
		indices = append(indices, idx)
	}
	slices.Sort(indices)
	lines := make([]Line, len(indices))
	for i, idx := range indices {
		lines[i] = Line{
			Index:     idx,
			Score:     scores[idx],
			Candidate: candidates != nil && candidates.Contains(idx),
		}
	}
	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Score > lines[j].Score
	})
	return lines
}

// Summary holds distribution statistics over all line scores.
type Summary struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes the score distribution of lines.
func Summarize(lines []Line) Summary {
	if len(lines) == 0 {
		return Summary{}
	}
	values := make([]float64, len(lines))
	for i, line := range lines {
		values[i] = line.Score
	}
	sort.Float64s(values)
	s := Summary{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		Min:    floats.Min(values),
		Max:    floats.Max(values),
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}
