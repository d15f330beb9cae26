// Package filter implements the denoising passes applied to each timing series:
// a median filter to suppress spikes followed by Savitzky-Golay smoothing.
package filter

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// DefaultMedianWindow is the median kernel used when none is configured.
const DefaultMedianWindow = 9

// ErrWindow is returned for windows that are even, non-positive or longer than the series.
var ErrWindow = errors.New("invalid filter window")

// OddWindow returns n if it is odd, otherwise n-1.
func OddWindow(n int) int {
	if n%2 == 0 {
		return n - 1
	}
	return n
}

func checkWindow(window int, n int) error {
	if window < 1 || window%2 == 0 {
		return fmt.Errorf("%w: %d must be odd and positive", ErrWindow, window)
	}
	if window > n {
		return fmt.Errorf("%w: %d exceeds series length %d", ErrWindow, window, n)
	}
	return nil
}

// Median applies a running median of the given odd window. Positions beyond the
// ends of x are treated as zero, so the output has the same length as x.
func Median(x []float64, window int) ([]float64, error) {
	if err := checkWindow(window, len(x)); err != nil {
		return nil, err
	}
	half := window / 2
	out := make([]float64, len(x))
	buf := make([]float64, window)
	for i := range x {
		for k := range window {
			j := i - half + k
			if j < 0 || j >= len(x) {
				buf[k] = 0
			} else {
				buf[k] = x[j]
			}
		}
		sort.Float64s(buf)
		out[i] = buf[half]
	}
	return out, nil
}

// SavitzkyGolay smooths x with a least-squares polynomial of the given order fitted
// over a sliding odd window. The first and last window/2 samples take the value of
// the polynomial fitted to the first and last full window.
func SavitzkyGolay(x []float64, window int, order int) ([]float64, error) {
	if err := checkWindow(window, len(x)); err != nil {
		return nil, err
	}
	if order < 0 || order >= window {
		return nil, fmt.Errorf("polynomial order %d must be in [0, %d)", order, window)
	}
	fit, err := fitMatrix(window, order)
	if err != nil {
		return nil, err
	}
	half := window / 2
	n := len(x)
	out := make([]float64, n)
	center := fit.RawRowView(0)
	for i := half; i < n-half; i++ {
		var sum float64
		for k, c := range center {
			sum += c * x[i-half+k]
		}
		out[i] = sum
	}
	head := polyCoefficients(fit, x[:window])
	for i := range half {
		out[i] = evalPoly(head, float64(i-half))
	}
	tailStart := n - window
	tail := polyCoefficients(fit, x[tailStart:])
	for i := n - half; i < n; i++ {
		out[i] = evalPoly(tail, float64(i-tailStart-half))
	}
	return out, nil
}

// fitMatrix returns the (order+1) x window matrix mapping a window of samples to
// the coefficients of the polynomial fitted around the window center.
func fitMatrix(window int, order int) (*mat.Dense, error) {
	half := window / 2
	vandermonde := mat.NewDense(window, order+1, nil)
	for i := range window {
		t := float64(i - half)
		for j := 0; j <= order; j++ {
			vandermonde.Set(i, j, math.Pow(t, float64(j)))
		}
	}
	identity := mat.NewDense(window, window, nil)
	for i := range window {
		identity.Set(i, i, 1)
	}
	var fit mat.Dense
	if err := fit.Solve(vandermonde, identity); err != nil {
		return nil, fmt.Errorf("failed to solve smoothing coefficients: %w", err)
	}
	return &fit, nil
}

func polyCoefficients(fit *mat.Dense, samples []float64) []float64 {
	var coef mat.VecDense
	coef.MulVec(fit, mat.NewVecDense(len(samples), samples))
	return coef.RawVector().Data
}

func evalPoly(coef []float64, t float64) float64 {
	var v float64
	for j := len(coef) - 1; j >= 0; j-- {
		v = v*t + coef[j]
	}
	return v
}

// Pipeline is the canonical denoising applied to every cache line series.
type Pipeline struct {
	MedianWindow int // upper bound; clamped to the largest odd value <= rounds
	Order        int // Savitzky-Golay polynomial order
}

// Windows returns the median and smoothing windows used for series of the given length.
func (p Pipeline) Windows(rounds int) (median int, smooth int) {
	median = p.MedianWindow
	if median > rounds {
		median = OddWindow(rounds)
	}
	return median, OddWindow(rounds)
}

// Apply runs the median filter then the smoothing filter over series.
func (p Pipeline) Apply(series []float64) ([]float64, error) {
	medianWindow, smoothWindow := p.Windows(len(series))
	filtered, err := Median(series, medianWindow)
	if err != nil {
		return nil, fmt.Errorf("median filter: %w", err)
	}
	smoothed, err := SavitzkyGolay(filtered, smoothWindow, p.Order)
	if err != nil {
		return nil, fmt.Errorf("smoothing filter: %w", err)
	}
	return smoothed, nil
}

// ApplyAll runs Apply over every series.
func (p Pipeline) ApplyAll(all [][]float64) ([][]float64, error) {
	out := make([][]float64, len(all))
	for i, series := range all {
		smoothed, err := p.Apply(series)
		if err != nil {
			return nil, fmt.Errorf("cache line %d: %w", i, err)
		}
		out[i] = smoothed
	}
	return out, nil
}
