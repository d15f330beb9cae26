// Package plot renders the filtered cache line timings to an image file.
package plot

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"image/color"
	"log/slog"
	"strconv"

	"slatfilter/internal/paging"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

var (
	titleColor = color.RGBA{R: 255, A: 255}
	tickColor  = color.RGBA{G: 128, A: 255}
)

const (
	width         = 22 * vg.Inch
	height        = 12 * vg.Inch
	titleSize     = 28
	labelSize     = 20
	tickLabelSize = 14
	heatColors    = 64
)

// Step writes a step plot of one score per cache line to path. The image
// format follows the file extension.
func Step(path string, scores []float64) error {
	if len(scores) == 0 {
		return fmt.Errorf("no scores to plot")
	}
	p := newPlot("CACHELINE vs TIME", "CACHELINE", "TIME")
	p.X.Tick.Marker = lineTicks(len(scores))
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(scores))
	for i, s := range scores {
		pts[i].X = float64(i)
		pts[i].Y = s
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to create line: %w", err)
	}
	line.StepStyle = plotter.PreStep
	line.Width = vg.Points(4)
	line.Color = color.RGBA{B: 200, A: 255}
	p.Add(line)

	return save(p, path)
}

// Heatmap writes the smoothed series of every cache line to path, one row
// per cache line and one column per round.
func Heatmap(path string, smoothed [][]float64) error {
	grid, err := newSeriesGrid(smoothed)
	if err != nil {
		return err
	}
	p := newPlot("CACHELINE vs TIME", "ROUND", "CACHELINE")
	p.Y.Tick.Marker = lineTicks(len(smoothed))

	h := plotter.NewHeatMap(grid, palette.Heat(heatColors, 1))
	if h.Min == h.Max {
		// a flat trace still needs a non-empty color range
		h.Max = h.Min + 1
	}
	p.Add(h)
	p.X.Min, p.X.Max = -0.5, float64(grid.cols)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(grid.rows)-0.5

	return save(p, path)
}

func newPlot(title, xLabel, yLabel string) *gplot.Plot {
	p := gplot.New()
	p.Title.Text = title
	p.Title.TextStyle.Color = titleColor
	p.Title.TextStyle.Font.Size = titleSize
	p.Title.Padding = vg.Points(10)
	for _, axis := range []*gplot.Axis{&p.X, &p.Y} {
		axis.Label.TextStyle.Color = titleColor
		axis.Label.TextStyle.Font.Size = labelSize
		axis.Tick.Label.Color = tickColor
		axis.Tick.Label.Font.Size = tickLabelSize
	}
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	return p
}

// lineTicks labels every cache line up to paging.LinesPerTable.
func lineTicks(n int) gplot.ConstantTicks {
	if n < paging.LinesPerTable {
		n = paging.LinesPerTable
	}
	ticks := make(gplot.ConstantTicks, 0, n+1)
	for i := 0; i <= n; i++ {
		ticks = append(ticks, gplot.Tick{Value: float64(i), Label: strconv.Itoa(i)})
	}
	return ticks
}

func save(p *gplot.Plot, path string) error {
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("failed to save plot to %s: %w", path, err)
	}
	slog.Debug("plot written", slog.String("path", path))
	return nil
}

// seriesGrid adapts equal length series to plotter.GridXYZ.
type seriesGrid struct {
	series [][]float64
	rows   int
	cols   int
}

func newSeriesGrid(series [][]float64) (*seriesGrid, error) {
	if len(series) == 0 || len(series[0]) == 0 {
		return nil, fmt.Errorf("no series to plot")
	}
	cols := len(series[0])
	for i, s := range series {
		if len(s) != cols {
			return nil, fmt.Errorf("series %d has %d values, expected %d", i, len(s), cols)
		}
	}
	return &seriesGrid{series: series, rows: len(series), cols: cols}, nil
}

func (g *seriesGrid) Dims() (c, r int)   { return g.cols, g.rows }
func (g *seriesGrid) Z(c, r int) float64 { return g.series[r][c] }
func (g *seriesGrid) X(c int) float64    { return float64(c) }
func (g *seriesGrid) Y(r int) float64    { return float64(r) }
