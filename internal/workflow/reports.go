package workflow

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"slatfilter/internal/config"
	"slatfilter/internal/plot"
	"slatfilter/internal/report"
	"slatfilter/internal/table"
	"slatfilter/internal/util"
)

// reportBaseName names the report files, e.g. slatfilter.json.
const reportBaseName = "slatfilter"

// Result is a completed run: the analysis plus the files written for it.
type Result struct {
	*Analysis
	ImagePath   string
	ReportPaths []string
}

// Run analyzes the trace at path, writes the image and the file reports next
// to it, and prints the ranking to w.
func Run(ctx context.Context, path string, conf config.Config, w io.Writer) (*Result, error) {
	a, err := Analyze(ctx, path, conf, w)
	if err != nil {
		return nil, err
	}
	outputDir := filepath.Dir(conf.Output)
	if err := util.CreateDirectoryIfNotExists(outputDir, 0755); err != nil { // #nosec G301
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	fmt.Fprintf(w, "\nWriting filtered graph to %s\n\n", conf.Output)
	if err := writePlot(conf, a); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := report.WriteRanking(w, a.Lines, report.ColorEnabled(w)); err != nil {
		return nil, fmt.Errorf("failed to write ranking: %w", err)
	}
	result := &Result{Analysis: a, ImagePath: conf.Output}
	result.ReportPaths, err = createReports(w, outputDir, conf.Formats, Tables(a))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func writePlot(conf config.Config, a *Analysis) error {
	switch conf.Plot {
	case config.PlotStep:
		return plot.Step(conf.Output, a.ScoreByLine())
	case config.PlotHeatmap:
		return plot.Heatmap(conf.Output, a.Smoothed)
	}
	return fmt.Errorf("unknown plot %q", conf.Plot)
}

// createReports renders the txt format to w and every other format to a file in outputDir.
// It returns the paths of the files written.
func createReports(w io.Writer, outputDir string, formats []string, allTableValues []table.TableValues) ([]string, error) {
	var reportPaths []string
	for _, format := range formats {
		if format == report.FormatTxt {
			var tables []table.TableValues
			for _, tableValues := range allTableValues {
				if slices.Contains(stdoutTables, tableValues.Name) {
					tables = append(tables, tableValues)
				}
			}
			reportBytes, err := report.Create(format, tables)
			if err != nil {
				return reportPaths, fmt.Errorf("failed to create %s report: %w", format, err)
			}
			fmt.Fprintf(w, "\n%s", reportBytes)
			continue
		}
		reportBytes, err := report.Create(format, allTableValues)
		if err != nil {
			return reportPaths, fmt.Errorf("failed to create %s report: %w", format, err)
		}
		reportPath := filepath.Join(outputDir, reportBaseName+report.FileExtension(format))
		if err := writeReport(reportBytes, reportPath); err != nil {
			return reportPaths, err
		}
		reportPaths = append(reportPaths, reportPath)
	}
	return reportPaths, nil
}

// writeReport writes the report bytes to the specified path.
func writeReport(reportBytes []byte, reportPath string) error {
	err := os.WriteFile(reportPath, reportBytes, 0644) // #nosec G306
	if err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	slog.Info("report written", slog.String("path", reportPath))
	return nil
}
