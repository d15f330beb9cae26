package score

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"

	"github.com/casbin/govaluate"
)

// DefaultHotExpression flags lines more than two standard deviations slower than the mean.
const DefaultHotExpression = "score > mean + 2 * stddev"

// HotRule is a boolean expression evaluated against every ranked line.
// Available variables: score, index, candidate, mean, median, stddev, min, max.
type HotRule struct {
	Expression string
	evaluable  *govaluate.EvaluableExpression
}

// NewHotRule compiles expression.
func NewHotRule(expression string) (*HotRule, error) {
	evaluable, err := govaluate.NewEvaluableExpression(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid hot-line expression %q: %w", expression, err)
	}
	return &HotRule{Expression: expression, evaluable: evaluable}, nil
}

// Apply sets Hot on each line that satisfies the rule and returns the hot lines.
func (r *HotRule) Apply(lines []Line, summary Summary) ([]Line, error) {
	var hot []Line
	for i := range lines {
		parameters := map[string]any{
			"score":     lines[i].Score,
			"index":     float64(lines[i].Index),
			"candidate": lines[i].Candidate,
			"mean":      summary.Mean,
			"median":    summary.Median,
			"stddev":    summary.StdDev,
			"min":       summary.Min,
			"max":       summary.Max,
		}
		result, err := r.evaluable.Evaluate(parameters)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %q for cache line %d: %w", r.Expression, lines[i].Index, err)
		}
		matched, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("expression %q must evaluate to a boolean, got %v", r.Expression, result)
		}
		lines[i].Hot = matched
		if matched {
			slog.Debug("hot cache line", slog.Int("line", lines[i].Index), slog.Float64("score", lines[i].Score))
			hot = append(hot, lines[i])
		}
	}
	return hot, nil
}
