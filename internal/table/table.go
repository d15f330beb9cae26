// Package table provides the tabular form of analysis results consumed by the report renderers.
package table

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"log/slog"
)

// Field represents the values for a field in a table
type Field struct {
	Name        string
	Description string // optional description of the field
	Values      []string
}

// TableValues combines the table definition with the resulting fields and their values
type TableValues struct {
	TableDefinition
	Fields   []Field
	Insights []Insight
}

// Insight represents an insight about the data in a table
type Insight struct {
	Recommendation string
	Justification  string
}

// FieldsRetriever returns the fields of a table from the analysis results
type FieldsRetriever[T any] func(T) []Field

// InsightsRetriever returns insights about the data in a table
type InsightsRetriever[T any] func(T, TableValues) []Insight

// TableDefinition defines the structure of a table in the report
type TableDefinition struct {
	Name        string
	HasRows     bool   // table is meant to be displayed in row form, i.e., a field may have multiple values
	NoDataFound string // message to display when no data is found
}

// Definition binds a table definition to the functions that fill it from results of type T.
type Definition[T any] struct {
	TableDefinition
	FieldsFunc   FieldsRetriever[T]
	InsightsFunc InsightsRetriever[T]
}

// ProcessTables fills each definition from results.
func ProcessTables[T any](definitions []Definition[T], results T) (allTableValues []TableValues) {
	for _, definition := range definitions {
		allTableValues = append(allTableValues, GetValuesForTable(definition, results))
	}
	return
}

// GetFieldIndex returns the index of a field with the given name in the TableValues structure.
// Returns:
//   - int: The index of the field if found and valid, -1 otherwise
//   - error: nil if successful, an error describing the issue otherwise
func GetFieldIndex(fieldName string, tableValues TableValues) (int, error) {
	for i, field := range tableValues.Fields {
		if field.Name == fieldName {
			if len(field.Values) == 0 {
				return -1, fmt.Errorf("field [%s] does not have associated value(s)", field.Name)
			}
			return i, nil
		}
	}
	return -1, fmt.Errorf("field [%s] not found in table [%s]", fieldName, tableValues.Name)
}

// FindTable returns the table with the given name, or false if it is absent.
func FindTable(allTableValues []TableValues, name string) (TableValues, bool) {
	for _, tableValues := range allTableValues {
		if tableValues.Name == name {
			return tableValues, true
		}
	}
	return TableValues{}, false
}

// GetValuesForTable returns the fields and their values for the table
func GetValuesForTable[T any](definition Definition[T], results T) TableValues {
	// FieldsFunc can't be nil
	if definition.FieldsFunc == nil {
		panic(fmt.Sprintf("table %s, FieldsFunc cannot be nil", definition.Name))
	}
	tableValues := TableValues{
		TableDefinition: definition.TableDefinition,
		Fields:          definition.FieldsFunc(results),
	}
	// sanity check
	if err := Validate(tableValues); err != nil {
		slog.Error("table validation failed", "table", definition.Name, "error", err)
		return TableValues{
			TableDefinition: definition.TableDefinition,
			Fields:          []Field{},
		}
	}
	if definition.InsightsFunc != nil {
		tableValues.Insights = definition.InsightsFunc(results, tableValues)
	}
	return tableValues
}

// Validate checks that a table has a name, named fields and the same number of values per field.
func Validate(tableValues TableValues) error {
	if tableValues.Name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	// no field values is a valid state
	if len(tableValues.Fields) == 0 {
		return nil
	}
	// field names cannot be empty
	for i, field := range tableValues.Fields {
		if field.Name == "" {
			return fmt.Errorf("table %s, field %d, name cannot be empty", tableValues.Name, i)
		}
	}
	// the number of entries in each field must be the same
	numEntries := len(tableValues.Fields[0].Values)
	for i, field := range tableValues.Fields {
		if len(field.Values) != numEntries {
			return fmt.Errorf("table %s, field %d, %s, number of entries must be the same for all fields, expected %d, got %d", tableValues.Name, i, field.Name, numEntries, len(field.Values))
		}
	}
	return nil
}
