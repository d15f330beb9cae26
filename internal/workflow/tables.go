package workflow

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strconv"

	"slatfilter/internal/app"
	"slatfilter/internal/paging"
	"slatfilter/internal/report"
	"slatfilter/internal/table"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var tableDefinitions = []table.Definition[*Analysis]{
	{
		TableDefinition: table.TableDefinition{Name: app.TableNameAddresses, HasRows: true, NoDataFound: "No addresses in trace header."},
		FieldsFunc:      addressesTableValues,
	},
	{
		TableDefinition: table.TableDefinition{Name: app.TableNameCandidates, HasRows: true},
		FieldsFunc:      candidatesTableValues,
	},
	{
		TableDefinition: table.TableDefinition{Name: app.TableNameScores, HasRows: true},
		FieldsFunc:      scoresTableValues,
		InsightsFunc:    hotLineInsights,
	},
	{
		TableDefinition: table.TableDefinition{Name: app.TableNameSummary},
		FieldsFunc:      summaryTableValues,
	},
}

// stdoutTables are rendered after the ranking when the txt format is selected.
var stdoutTables = []string{app.TableNameSummary, app.TableNameInsights}

// Tables returns the report tables for a, with the insights table last.
func Tables(a *Analysis) []table.TableValues {
	allTableValues := table.ProcessTables(tableDefinitions, a)
	return append(allTableValues, insightsTableValues(allTableValues))
}

func addressesTableValues(a *Analysis) []table.Field {
	fields := []table.Field{
		{Name: "Label"},
		{Name: "Address"},
	}
	for _, level := range paging.Levels {
		fields = append(fields, table.Field{Name: level.String()})
	}
	for _, entry := range a.Trace.Addresses {
		fields[0].Values = append(fields[0].Values, entry.Label)
		fields[1].Values = append(fields[1].Values, fmt.Sprintf("0x%x", entry.Address))
		lines := paging.Lines(entry.Address)
		for i := range paging.Levels {
			fields[2+i].Values = append(fields[2+i].Values, strconv.Itoa(lines[i]))
		}
	}
	return fields
}

func candidatesTableValues(a *Analysis) []table.Field {
	field := table.Field{Name: report.FieldCacheline}
	for _, line := range a.Candidates.Sorted() {
		field.Values = append(field.Values, strconv.Itoa(line))
	}
	return []table.Field{field}
}

func scoresTableValues(a *Analysis) []table.Field {
	fields := []table.Field{
		{Name: report.FieldCacheline},
		{Name: report.FieldScore},
		{Name: report.FieldCandidate},
		{Name: report.FieldHot},
	}
	for _, line := range a.Lines {
		fields[0].Values = append(fields[0].Values, strconv.Itoa(line.Index))
		fields[1].Values = append(fields[1].Values, fmt.Sprintf("%.2f", line.Score))
		fields[2].Values = append(fields[2].Values, strconv.FormatBool(line.Candidate))
		fields[3].Values = append(fields[3].Values, strconv.FormatBool(line.Hot))
	}
	return fields
}

func summaryTableValues(a *Analysis) []table.Field {
	p := message.NewPrinter(language.English)
	s := a.Summary
	return []table.Field{
		{Name: "Samples", Values: []string{p.Sprintf("%d", len(a.Trace.Samples))}},
		{Name: "Rounds", Values: []string{p.Sprintf("%d", a.Rounds)}},
		{Name: "Dropped Samples", Values: []string{p.Sprintf("%d", a.Dropped)}},
		{Name: "Median Window", Values: []string{strconv.Itoa(a.MedianWindow)}},
		{Name: "Smoothing Window", Values: []string{strconv.Itoa(a.SmoothWindow)}},
		{Name: "Cache Lines", Values: []string{strconv.Itoa(s.Count)}},
		{Name: "Candidates", Values: []string{a.Candidates.String()}},
		{Name: "Mean", Values: []string{p.Sprintf("%.2f", s.Mean)}},
		{Name: "Median", Values: []string{p.Sprintf("%.2f", s.Median)}},
		{Name: "Std Dev", Values: []string{p.Sprintf("%.2f", s.StdDev)}},
		{Name: "Min", Values: []string{p.Sprintf("%.2f", s.Min)}},
		{Name: "Max", Values: []string{p.Sprintf("%.2f", s.Max)}},
		{Name: "Hot Rule", Values: []string{a.HotExpression}},
		{Name: "Hot Lines", Values: []string{strconv.Itoa(len(a.Hot))}},
	}
}

func hotLineInsights(a *Analysis, _ table.TableValues) []table.Insight {
	var insights []table.Insight
	for _, line := range a.Hot {
		recommendation := fmt.Sprintf("Cache line %d is not derived from the trace addresses, check for interference.", line.Index)
		if line.Candidate {
			recommendation = fmt.Sprintf("Cache line %d is a likely page table walk target.", line.Index)
		}
		insights = append(insights, table.Insight{
			Recommendation: recommendation,
			Justification:  fmt.Sprintf("score %.2f matches %q", line.Score, a.HotExpression),
		})
	}
	return insights
}

// insightsTableValues collects the insights of every table.
func insightsTableValues(allTableValues []table.TableValues) table.TableValues {
	insightsTableValues := table.TableValues{
		TableDefinition: table.TableDefinition{
			Name:        app.TableNameInsights,
			HasRows:     true,
			NoDataFound: "No hot cache lines.",
		},
		Fields: []table.Field{
			{Name: "Recommendation", Values: []string{}},
			{Name: "Justification", Values: []string{}},
		},
	}
	for _, tableValues := range allTableValues {
		for _, insight := range tableValues.Insights {
			insightsTableValues.Fields[0].Values = append(insightsTableValues.Fields[0].Values, insight.Recommendation)
			insightsTableValues.Fields[1].Values = append(insightsTableValues.Fields[1].Values, insight.Justification)
		}
	}
	return insightsTableValues
}
