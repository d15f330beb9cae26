package plot

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineSeries(lines, rounds int, hot int) [][]float64 {
	series := make([][]float64, lines)
	for i := range series {
		series[i] = make([]float64, rounds)
		for r := range series[i] {
			series[i][r] = 100
			if i == hot {
				series[i][r] = 500
			}
		}
	}
	return series
}

func TestStep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "step.png")
	scores := make([]float64, 64)
	scores[31] = 500
	require.NoError(t, Step(path, scores))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestStepEmpty(t *testing.T) {
	assert.Error(t, Step(filepath.Join(t.TempDir(), "step.png"), nil))
}

func TestHeatmap(t *testing.T) {
	tests := []struct {
		name   string
		series [][]float64
	}{
		{"one hot line", lineSeries(64, 4, 31)},
		{"flat", lineSeries(64, 1, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "heatmap.svg")
			require.NoError(t, Heatmap(path, tt.series))
			info, err := os.Stat(path)
			require.NoError(t, err)
			assert.Positive(t, info.Size())
		})
	}
}

func TestHeatmapErrors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, Heatmap(filepath.Join(dir, "empty.png"), nil))
	ragged := [][]float64{{1, 2}, {3}}
	assert.Error(t, Heatmap(filepath.Join(dir, "ragged.png"), ragged))
}

func TestLineTicks(t *testing.T) {
	ticks := lineTicks(4)
	require.Len(t, ticks, 65)
	assert.Equal(t, "0", ticks[0].Label)
	assert.Equal(t, "64", ticks[64].Label)
}
