// Package config holds the analysis settings. Settings come from defaults, an
// optional YAML file and finally command line flags.
package config

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"slatfilter/internal/filter"
	"slatfilter/internal/report"
	"slatfilter/internal/score"

	"gopkg.in/yaml.v2"
)

const (
	PlotHeatmap = "heatmap"
	PlotStep    = "step"
)

// PlotOptions lists the supported visualizations.
var PlotOptions = []string{PlotHeatmap, PlotStep}

// DefaultOutput is the image written when no output is configured.
var DefaultOutput = filepath.Join("results", "slatfilter.png")

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".svg", ".pdf", ".tif", ".tiff", ".eps"}

// Config is the complete set of analysis settings.
type Config struct {
	Output        string   `yaml:"output"`
	Plot          string   `yaml:"plot"`
	Formats       []string `yaml:"formats"`
	MedianWindow  int      `yaml:"median_window"`
	Order         int      `yaml:"order"`
	HeaderRows    int      `yaml:"header_rows"`
	HotExpression string   `yaml:"hot"`
}

// Default returns the canonical pipeline settings.
func Default() Config {
	return Config{
		Output:        DefaultOutput,
		Plot:          PlotHeatmap,
		Formats:       []string{report.FormatTxt},
		MedianWindow:  filter.DefaultMedianWindow,
		Order:         0,
		HeaderRows:    0,
		HotExpression: score.DefaultHotExpression,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	conf := Default()
	rawData, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return conf, fmt.Errorf("cannot load config: %w", err)
	}
	if err := yaml.UnmarshalStrict(rawData, &conf); err != nil {
		return conf, fmt.Errorf("cannot parse config %s: %w", path, err)
	}
	return conf, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if c.Output == "" {
		return fmt.Errorf("output path must not be empty")
	}
	ext := strings.ToLower(filepath.Ext(c.Output))
	if !slices.Contains(imageExtensions, ext) {
		return fmt.Errorf("unsupported image extension %q, choose from: %s", ext, strings.Join(imageExtensions, ", "))
	}
	if !slices.Contains(PlotOptions, c.Plot) {
		return fmt.Errorf("plot must be one of %s, got %q", strings.Join(PlotOptions, ", "), c.Plot)
	}
	if len(c.Formats) == 0 {
		return fmt.Errorf("at least one format is required")
	}
	for _, format := range c.Formats {
		if !slices.Contains(report.FormatOptions, format) {
			return fmt.Errorf("format must be one of %s, got %q", strings.Join(report.FormatOptions, ", "), format)
		}
	}
	if c.MedianWindow < 1 || c.MedianWindow%2 == 0 {
		return fmt.Errorf("median window must be odd and positive, got %d", c.MedianWindow)
	}
	if c.Order < 0 {
		return fmt.Errorf("polynomial order must not be negative, got %d", c.Order)
	}
	if c.HeaderRows < 0 {
		return fmt.Errorf("header rows must not be negative, got %d", c.HeaderRows)
	}
	if strings.TrimSpace(c.HotExpression) == "" {
		return fmt.Errorf("hot-line expression must not be empty")
	}
	return nil
}

// Pipeline returns the denoising settings.
func (c Config) Pipeline() filter.Pipeline {
	return filter.Pipeline{MedianWindow: c.MedianWindow, Order: c.Order}
}
