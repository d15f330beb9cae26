// Package workflow implements the slatfilter flow: load a timing trace, derive
// the candidate cache lines, denoise and score every line, then plot and report.
package workflow

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"slatfilter/internal/config"
	"slatfilter/internal/paging"
	"slatfilter/internal/score"
	"slatfilter/internal/series"
	"slatfilter/internal/trace"
)

// Analysis holds every intermediate and final result of one run.
type Analysis struct {
	Trace         *trace.Trace
	Candidates    *paging.Candidates
	Rounds        int
	Dropped       int // trailing samples that did not fill a round
	MedianWindow  int
	SmoothWindow  int
	Smoothed      [][]float64
	Scores        map[int]float64
	Lines         []score.Line // ranked, slowest first
	Summary       score.Summary
	HotExpression string
	Hot           []score.Line
}

// ScoreByLine returns the scores indexed by cache line.
func (a *Analysis) ScoreByLine() []float64 {
	scores := make([]float64, len(a.Smoothed))
	for idx, s := range a.Scores {
		if idx >= 0 && idx < len(scores) {
			scores[idx] = s
		}
	}
	return scores
}

// Analyze loads the trace at path and runs the filter pipeline over it. Progress
// is written to w in the order the profiler's operators expect.
func Analyze(ctx context.Context, path string, conf config.Config, w io.Writer) (*Analysis, error) {
	t, err := trace.Load(path, conf.HeaderRows)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(w, "Processing entries in file...\n\n")

	candidates := paging.NewCandidates()
	for _, entry := range t.Addresses {
		lines := candidates.Add(entry.Address)
		fmt.Fprintf(w, "%s\t0x%x:\t%d, %d, %d, %d\n", entry.Label, entry.Address, lines[0], lines[1], lines[2], lines[3])
	}
	fmt.Fprintf(w, "\nSLAT cacheline candidates:\n%s\n", candidates)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timings := t.Timings()
	a := &Analysis{
		Trace:         t,
		Candidates:    candidates,
		Rounds:        series.Rounds(len(timings), paging.LinesPerTable),
		Dropped:       series.Dropped(len(timings), paging.LinesPerTable),
		HotExpression: conf.HotExpression,
	}
	if a.Dropped > 0 {
		slog.Warn("dropping trailing samples that do not fill a round", slog.Int("dropped", a.Dropped), slog.Int("samples", len(timings)))
	}
	all, err := series.Reshape(timings, paging.LinesPerTable)
	if err != nil {
		return nil, err
	}
	pipeline := conf.Pipeline()
	a.MedianWindow, a.SmoothWindow = pipeline.Windows(a.Rounds)
	slog.Debug("filter windows", slog.Int("rounds", a.Rounds), slog.Int("median", a.MedianWindow), slog.Int("smooth", a.SmoothWindow), slog.Int("order", pipeline.Order))
	a.Smoothed, err = pipeline.ApplyAll(all)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Scores = score.Compute(a.Smoothed)
	a.Lines = score.Rank(a.Scores, candidates)
	a.Summary = score.Summarize(a.Lines)
	rule, err := score.NewHotRule(conf.HotExpression)
	if err != nil {
		return nil, err
	}
	a.Hot, err = rule.Apply(a.Lines, a.Summary)
	if err != nil {
		return nil, err
	}
	slog.Info("analysis complete", slog.Int("rounds", a.Rounds), slog.Int("candidates", candidates.Len()), slog.Int("hot", len(a.Hot)))
	return a, nil
}
