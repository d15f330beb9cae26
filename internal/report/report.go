// Package report provides functions to generate reports in various formats such as txt, json, xlsx, prom.
package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"strings"

	"slatfilter/internal/table"
)

const (
	FormatTxt  = "txt"
	FormatJson = "json"
	FormatXlsx = "xlsx"
	FormatProm = "prom"
)

const NoDataFound = "No data found."

var FormatOptions = []string{FormatTxt, FormatJson, FormatXlsx, FormatProm}

// Create generates a report in the specified format from the provided table values.
// The function ensures that all fields have the same number of values before generating the report.
//
// Parameters:
// - format: The desired format of the report (txt, json, xlsx, prom).
// - allTableValues: The values for each field in each table.
//
// Returns:
// - out: The generated report as a byte slice.
// - err: An error, if any occurred during report generation.
func Create(format string, allTableValues []table.TableValues) (out []byte, err error) {
	// make sure that all fields have the same number of values
	for _, tableValue := range allTableValues {
		if err = table.Validate(tableValue); err != nil {
			return nil, err
		}
	}
	switch format {
	case FormatTxt:
		return createTextReport(allTableValues)
	case FormatJson:
		return createJsonReport(allTableValues)
	case FormatXlsx:
		return createXlsxReport(allTableValues)
	case FormatProm:
		return createPromReport(allTableValues)
	}
	return nil, fmt.Errorf("expected one of %s, got %s", strings.Join(FormatOptions, ", "), format)
}

// FileExtension returns the file name extension used for a format.
func FileExtension(format string) string {
	return "." + format
}
