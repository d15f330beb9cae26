package workflow

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slatfilter/internal/app"
	"slatfilter/internal/config"
	"slatfilter/internal/series"
	"slatfilter/internal/table"
	"slatfilter/internal/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTrace writes two header addresses and rounds samples per cache line.
// Every sample of hotLine is 500, all others are 100.
func writeTrace(t *testing.T, dir string, rounds int, hotLine int, extra int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("gVA,0x7fff00001000\n")
	sb.WriteString("gCR3,0x1000\n")
	i := 0
	for line := range 64 {
		for range rounds {
			elapsed := 100
			if line == hotLine {
				elapsed = 500
			}
			fmt.Fprintf(&sb, "%d,%d\n", i, elapsed)
			i++
		}
	}
	for range extra {
		fmt.Fprintf(&sb, "%d,%d\n", i, 900)
		i++
	}
	path := filepath.Join(dir, "slat.csv")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0644))
	return path
}

func testConfig(dir string) config.Config {
	conf := config.Default()
	conf.Output = filepath.Join(dir, "results", "slatfilter.png")
	return conf
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	path := writeTrace(t, dir, 4, 31, 0)
	var out bytes.Buffer
	a, err := Analyze(context.Background(), path, testConfig(dir), &out)
	require.NoError(t, err)

	assert.Equal(t, 4, a.Rounds)
	assert.Equal(t, 0, a.Dropped)
	assert.Equal(t, 3, a.MedianWindow)
	assert.Equal(t, 3, a.SmoothWindow)
	assert.Equal(t, []int{0, 31, 63}, a.Candidates.Sorted())
	require.Len(t, a.Lines, 64)
	assert.Equal(t, 31, a.Lines[0].Index)
	assert.InDelta(t, 500, a.Lines[0].Score, 1e-6)
	assert.True(t, a.Lines[0].Candidate)
	// equal scores keep ascending line order
	assert.Equal(t, 0, a.Lines[1].Index)
	assert.Equal(t, 1, a.Lines[2].Index)
	assert.InDelta(t, 106.25, a.Summary.Mean, 1e-6)
	assert.InDelta(t, 50, a.Summary.StdDev, 1e-6)
	require.Len(t, a.Hot, 1)
	assert.Equal(t, 31, a.Hot[0].Index)

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "Processing entries in file...\n\n"))
	assert.Contains(t, text, "gVA\t0x7fff00001000:\t31, 63, 0, 0\n")
	assert.Contains(t, text, "gCR3\t0x1000:\t0, 0, 0, 0\n")
	assert.Contains(t, text, "\nSLAT cacheline candidates:\n{0, 31, 63}\n")
}

func TestAnalyzeDropsTrailingSamples(t *testing.T) {
	dir := t.TempDir()
	path := writeTrace(t, dir, 2, 5, 10)
	var out bytes.Buffer
	a, err := Analyze(context.Background(), path, testConfig(dir), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, a.Rounds)
	assert.Equal(t, 10, a.Dropped)
	assert.Equal(t, 5, a.Lines[0].Index)
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	_, err := Analyze(context.Background(), filepath.Join(dir, "missing.csv"), testConfig(dir), &out)
	assert.ErrorIs(t, err, trace.ErrNotFound)
	assert.Empty(t, out.String())

	short := filepath.Join(dir, "short.csv")
	require.NoError(t, os.WriteFile(short, []byte("gVA,0x1000\n0,100\n1,100\n"), 0644))
	_, err = Analyze(context.Background(), short, testConfig(dir), &out)
	assert.ErrorIs(t, err, series.ErrTooFewSamples)

	path := writeTrace(t, dir, 4, 31, 0)
	conf := testConfig(dir)
	conf.HotExpression = "score >"
	_, err = Analyze(context.Background(), path, conf, &out)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Analyze(ctx, path, testConfig(dir), &out)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := writeTrace(t, dir, 4, 31, 0)
	conf := testConfig(dir)
	conf.Formats = []string{"txt", "json", "xlsx", "prom"}
	var out bytes.Buffer
	result, err := Run(context.Background(), path, conf, &out)
	require.NoError(t, err)

	assert.FileExists(t, conf.Output)
	resultsDir := filepath.Dir(conf.Output)
	assert.Equal(t, []string{
		filepath.Join(resultsDir, "slatfilter.json"),
		filepath.Join(resultsDir, "slatfilter.xlsx"),
		filepath.Join(resultsDir, "slatfilter.prom"),
	}, result.ReportPaths)
	for _, reportPath := range result.ReportPaths {
		assert.FileExists(t, reportPath)
	}

	text := out.String()
	assert.Contains(t, text, "\nWriting filtered graph to "+conf.Output+"\n\n")
	rankingStart := strings.Index(text, "Cacheline: ")
	require.GreaterOrEqual(t, rankingStart, 0)
	ranking := strings.Split(text[rankingStart:], "\n")
	assert.Equal(t, "Cacheline: 31,\tScore: 500\t[OK]", ranking[0])
	assert.Equal(t, "Cacheline: 0,\tScore: 100\t[OK]", ranking[1])
	assert.Equal(t, "Cacheline: 1,\tScore: 100", ranking[2])
	assert.Contains(t, text, app.TableNameSummary+"\n")
	assert.Contains(t, text, "Cache line 31 is a likely page table walk target.")
	// the scores table is only in the file reports
	assert.NotContains(t, text, app.TableNameScores)

	prom, err := os.ReadFile(filepath.Join(resultsDir, "slatfilter.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `slatfilter_cacheline_score{cacheline="31",candidate="true",hot="true"}`)
}

func TestRunStepPlot(t *testing.T) {
	dir := t.TempDir()
	path := writeTrace(t, dir, 8, 12, 0)
	conf := testConfig(dir)
	conf.Plot = config.PlotStep
	conf.Output = filepath.Join(dir, "step.svg")
	var out bytes.Buffer
	result, err := Run(context.Background(), path, conf, &out)
	require.NoError(t, err)
	assert.FileExists(t, conf.Output)
	assert.Empty(t, result.ReportPaths)
	assert.Equal(t, 12, result.Lines[0].Index)
}

func TestRunMissingFile(t *testing.T) {
	dir := t.TempDir()
	conf := testConfig(dir)
	var out bytes.Buffer
	_, err := Run(context.Background(), filepath.Join(dir, "missing.csv"), conf, &out)
	assert.ErrorIs(t, err, trace.ErrNotFound)
	assert.NoFileExists(t, conf.Output)
	assert.NoDirExists(t, filepath.Dir(conf.Output))
}

func TestTables(t *testing.T) {
	dir := t.TempDir()
	path := writeTrace(t, dir, 4, 31, 0)
	var out bytes.Buffer
	a, err := Analyze(context.Background(), path, testConfig(dir), &out)
	require.NoError(t, err)
	allTableValues := Tables(a)
	require.Len(t, allTableValues, 5)

	addresses, ok := table.FindTable(allTableValues, app.TableNameAddresses)
	require.True(t, ok)
	assert.Equal(t, []string{"gVA", "gCR3"}, addresses.Fields[0].Values)
	assert.Equal(t, []string{"0x7fff00001000", "0x1000"}, addresses.Fields[1].Values)
	assert.Equal(t, "PML4", addresses.Fields[2].Name)
	assert.Equal(t, []string{"31", "0"}, addresses.Fields[2].Values)

	candidates, ok := table.FindTable(allTableValues, app.TableNameCandidates)
	require.True(t, ok)
	assert.Equal(t, []string{"0", "31", "63"}, candidates.Fields[0].Values)

	scores, ok := table.FindTable(allTableValues, app.TableNameScores)
	require.True(t, ok)
	assert.Len(t, scores.Fields[0].Values, 64)
	assert.Equal(t, "500.00", scores.Fields[1].Values[0])
	require.Len(t, scores.Insights, 1)

	summary, ok := table.FindTable(allTableValues, app.TableNameSummary)
	require.True(t, ok)
	idx, err := table.GetFieldIndex("Mean", summary)
	require.NoError(t, err)
	assert.Equal(t, "106.25", summary.Fields[idx].Values[0])
	idx, err = table.GetFieldIndex("Samples", summary)
	require.NoError(t, err)
	assert.Equal(t, "256", summary.Fields[idx].Values[0])

	insights := allTableValues[len(allTableValues)-1]
	assert.Equal(t, app.TableNameInsights, insights.Name)
	assert.Len(t, insights.Fields[0].Values, 1)
}
