// Package app defines application-wide types, constants, and context
// that are shared across the command and the analysis workflow.
package app

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
)

// Name is the name of the application executable.
var Name = filepath.Base(os.Args[0])

// LongName is the descriptive name of the application.
const LongName = "SLAT Filter"

// Context represents the application context that can be accessed from the command.
type Context struct {
	Timestamp   string // Timestamp is the timestamp when the application was started.
	LogFilePath string // LogFilePath is the path to the log file.
	Version     string // Version is the version of the application.
	Debug       bool   // Debug is true if the application is running in debug mode.
}

// Table name constants used by the workflow and the report renderers.
const (
	TableNameAddresses  = "Page Table Entries"
	TableNameCandidates = "Cacheline Candidates"
	TableNameScores     = "Cacheline Scores"
	TableNameSummary    = "Summary"
	TableNameInsights   = "Insights"
)

// Flag names for flags defined in the root command.
const (
	FlagDebugName        = "debug"
	FlagSyslogName       = "syslog"
	FlagLogStdOutName    = "log-stdout"
	FlagConfigName       = "config"
	FlagOutputName       = "output"
	FlagPlotName         = "plot"
	FlagFormatName       = "format"
	FlagMedianWindowName = "median-window"
	FlagOrderName        = "order"
	FlagHeaderRowsName   = "header-rows"
	FlagHotName          = "hot"
)

// Flag represents a command-line flag with its name and help text.
type Flag struct {
	Name string
	Help string
}

// FlagGroup represents a group of related flags with a group name.
type FlagGroup struct {
	GroupName string
	Flags     []Flag
}
