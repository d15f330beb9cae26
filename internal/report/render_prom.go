package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"bytes"
	"fmt"
	"strconv"

	"slatfilter/internal/app"
	"slatfilter/internal/table"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const promMetricPrefix = "slatfilter_"

// Field names of the scores table read by the Prometheus renderer.
const (
	FieldCacheline = "Cacheline"
	FieldScore     = "Score"
	FieldCandidate = "Candidate"
	FieldHot       = "Hot"
)

// createPromReport renders the scores table in the Prometheus text exposition
// format, suitable for the node_exporter textfile collector.
func createPromReport(allTableValues []table.TableValues) (out []byte, err error) {
	scores, ok := table.FindTable(allTableValues, app.TableNameScores)
	if !ok {
		return nil, fmt.Errorf("table %s is required for the %s format", app.TableNameScores, FormatProm)
	}
	fieldIdx := make(map[string]int)
	for _, name := range []string{FieldCacheline, FieldScore, FieldCandidate, FieldHot} {
		idx, err := table.GetFieldIndex(name, scores)
		if err != nil {
			return nil, err
		}
		fieldIdx[name] = idx
	}
	registry := prometheus.NewRegistry()
	scoreGauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: promMetricPrefix + "cacheline_score",
			Help: "Mean of the denoised access time samples of a page table cache line",
		},
		[]string{"cacheline", "candidate", "hot"},
	)
	if err = registry.Register(scoreGauge); err != nil {
		return nil, err
	}
	for row := range scores.Fields[fieldIdx[FieldScore]].Values {
		value, err := strconv.ParseFloat(scores.Fields[fieldIdx[FieldScore]].Values[row], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score in row %d: %w", row, err)
		}
		scoreGauge.WithLabelValues(
			scores.Fields[fieldIdx[FieldCacheline]].Values[row],
			scores.Fields[fieldIdx[FieldCandidate]].Values[row],
			scores.Fields[fieldIdx[FieldHot]].Values[row],
		).Set(value)
	}
	families, err := registry.Gather()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, family := range families {
		if _, err = expfmt.MetricFamilyToText(&buf, family); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
