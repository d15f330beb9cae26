// Package cmd provides the command line interface for the application.
package cmd

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"slatfilter/internal/app"
	"slatfilter/internal/config"
	"slatfilter/internal/report"
	"slatfilter/internal/trace"
	"slatfilter/internal/util"
	"slatfilter/internal/workflow"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var gLogFile *os.File
var gVersion = "9.9.9" // overwritten by ldflags in Makefile

const logFileName = "slatfilter.log"

var examples = []string{
	fmt.Sprintf("  Rank the cache lines of a trace:             $ %s slat.csv", app.Name),
	fmt.Sprintf("  Write a step plot and a JSON report:         $ %s --plot step --format txt,json slat.csv", app.Name),
	fmt.Sprintf("  Use settings from a file:                    $ %s --config slatfilter.yaml slat.csv", app.Name),
	fmt.Sprintf("  Flag lines slower than three sigma as hot:   $ %s --hot \"score > mean + 3 * stddev\" slat.csv", app.Name),
}

var (
	// logging
	flagDebug     bool
	flagSyslog    bool
	flagLogStdOut bool
	// analysis
	flagConfig       string
	flagOutput       string
	flagPlot         string
	flagFormat       []string
	flagMedianWindow int
	flagOrder        int
	flagHeaderRows   int
	flagHot          string
)

// newRootCmd builds the command. Every call rebinds the flags to their defaults.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:                fmt.Sprintf("%s <timing-file>", app.Name),
		Short:              app.Name,
		Long:               fmt.Sprintf(`%s (%s) denoises a guest page table walk timing trace and ranks the cache lines most likely touched by the walk.`, app.LongName, app.Name),
		Example:            strings.Join(examples, "\n"),
		Args:               cobra.ExactArgs(1),
		PersistentPreRunE:  initializeApplication,
		PersistentPostRunE: terminateApplication,
		PreRunE:            validateFlags,
		RunE:               runCmd,
		Version:            gVersion,
	}
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{}) // block the help command

	defaults := config.Default()
	rootCmd.PersistentFlags().BoolVar(&flagDebug, app.FlagDebugName, false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagSyslog, app.FlagSyslogName, false, "write logs to syslog instead of a file")
	rootCmd.PersistentFlags().BoolVar(&flagLogStdOut, app.FlagLogStdOutName, false, "write logs to stdout")
	rootCmd.Flags().StringVar(&flagConfig, app.FlagConfigName, "", "")
	rootCmd.Flags().StringVar(&flagOutput, app.FlagOutputName, defaults.Output, "")
	rootCmd.Flags().StringVar(&flagPlot, app.FlagPlotName, defaults.Plot, "")
	rootCmd.Flags().StringSliceVar(&flagFormat, app.FlagFormatName, defaults.Formats, "")
	rootCmd.Flags().IntVar(&flagMedianWindow, app.FlagMedianWindowName, defaults.MedianWindow, "")
	rootCmd.Flags().IntVar(&flagOrder, app.FlagOrderName, defaults.Order, "")
	rootCmd.Flags().IntVar(&flagHeaderRows, app.FlagHeaderRowsName, defaults.HeaderRows, "")
	rootCmd.Flags().StringVar(&flagHot, app.FlagHotName, defaults.HotExpression, "")
	rootCmd.SetUsageFunc(usageFunc)
	return rootCmd
}

func usageFunc(cmd *cobra.Command) error {
	cmd.Printf("Usage: %s [flags] <timing-file>\n\n", cmd.CommandPath())
	cmd.Printf("Examples:\n%s\n\n", cmd.Example)
	cmd.Println("Flags:")
	for _, group := range getFlagGroups() {
		cmd.Printf("  %s:\n", group.GroupName)
		for _, flag := range group.Flags {
			flagDefault := ""
			if cmd.Flags().Lookup(flag.Name).DefValue != "" {
				flagDefault = fmt.Sprintf(" (default: %s)", cmd.Flags().Lookup(flag.Name).DefValue)
			}
			cmd.Printf("    --%-20s %s%s\n", flag.Name, flag.Help, flagDefault)
		}
	}
	cmd.Println("\nGlobal Flags:")
	cmd.PersistentFlags().VisitAll(func(pf *pflag.Flag) {
		cmd.Printf("  --%-20s %s\n", pf.Name, pf.Usage)
	})
	return nil
}

func getFlagGroups() []app.FlagGroup {
	return []app.FlagGroup{
		{
			GroupName: "Analysis Options",
			Flags: []app.Flag{
				{Name: app.FlagMedianWindowName, Help: "largest median filter window, must be odd"},
				{Name: app.FlagOrderName, Help: "polynomial order of the smoothing filter"},
				{Name: app.FlagHeaderRowsName, Help: fmt.Sprintf("number of address rows before the timings, 0 detects them (the profiler writes %d)", trace.DefaultHeaderRows)},
				{Name: app.FlagHotName, Help: "expression marking hot cache lines, variables: score, index, candidate, mean, median, stddev, min, max"},
			},
		},
		{
			GroupName: "Output Options",
			Flags: []app.Flag{
				{Name: app.FlagOutputName, Help: "image file, the format follows the extension"},
				{Name: app.FlagPlotName, Help: fmt.Sprintf("visualization, choose from: %s", strings.Join(config.PlotOptions, ", "))},
				{Name: app.FlagFormatName, Help: fmt.Sprintf("choose one or more of: %s", strings.Join(report.FormatOptions, ", "))},
			},
		},
		{
			GroupName: "Other Options",
			Flags: []app.Flag{
				{Name: app.FlagConfigName, Help: "YAML file with analysis settings, flags take precedence"},
			},
		},
	}
}

// Execute runs the root command with the process arguments and exits on failure.
// This is called by main.main().
func Execute() {
	cobra.EnableCommandSorting = false
	cobra.EnableCaseInsensitive = true
	if code := executeArgs(os.Args[1:], os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

func executeArgs(args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	if err := rootCmd.Execute(); err != nil {
		terminateErr := terminateApplication(rootCmd, args)
		if terminateErr != nil {
			slog.Error("Error terminating application", slog.String("error", terminateErr.Error()))
			fmt.Fprintf(stderr, "Error: %v\n", terminateErr)
		}
		return 1
	}
	return 0
}

// loadConfig applies the config file, then every flag set on the command line.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	conf := config.Default()
	if flagConfig != "" {
		var err error
		conf, err = config.Load(util.ExpandUser(flagConfig))
		if err != nil {
			return conf, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed(app.FlagOutputName) {
		conf.Output = flagOutput
	}
	conf.Output = util.ExpandUser(conf.Output)
	if flags.Changed(app.FlagPlotName) {
		conf.Plot = flagPlot
	}
	if flags.Changed(app.FlagFormatName) {
		conf.Formats = flagFormat
	}
	if flags.Changed(app.FlagMedianWindowName) {
		conf.MedianWindow = flagMedianWindow
	}
	if flags.Changed(app.FlagOrderName) {
		conf.Order = flagOrder
	}
	if flags.Changed(app.FlagHeaderRowsName) {
		conf.HeaderRows = flagHeaderRows
	}
	if flags.Changed(app.FlagHotName) {
		conf.HotExpression = flagHot
	}
	return conf, conf.Validate()
}

func validateFlags(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return flagValidationError(cmd, err.Error())
	}
	return nil
}

// flagValidationError is used to report an error with a flag
func flagValidationError(cmd *cobra.Command, msg string) error {
	err := fmt.Errorf("%s", msg)
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	fmt.Fprintf(cmd.ErrOrStderr(), "See '%s --help' for usage details.\n", cmd.CommandPath())
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return err
}

func runCmd(cmd *cobra.Command, args []string) error {
	appContext := cmd.Context().Value(app.Context{}).(app.Context)
	conf, err := loadConfig(cmd)
	if err != nil {
		return flagValidationError(cmd, err.Error())
	}
	slog.Info("analyzing trace", slog.String("path", args[0]), slog.String("started", appContext.Timestamp), slog.String("version", appContext.Version))
	if appContext.Debug {
		slog.Debug("configuration", slog.Any("config", conf), slog.String("logFile", appContext.LogFilePath))
	}
	// catch signals to allow for graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cmd.SilenceUsage = true
	_, err = workflow.Run(ctx, util.ExpandUser(args[0]), conf, cmd.OutOrStdout())
	if err != nil {
		if errors.Is(err, trace.ErrNotFound) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[!] File %s not found.\n", args[0])
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		slog.Error(err.Error())
		cmd.SilenceErrors = true
		return err
	}
	return nil
}

func initializeApplication(cmd *cobra.Command, args []string) error {
	timestamp := time.Now().Local().Format("2006-01-02_15-04-05") // app startup time
	// configure logging
	var logOpts slog.HandlerOptions
	if flagDebug {
		logOpts.Level = slog.LevelDebug
		logOpts.AddSource = true
	} else {
		logOpts.Level = slog.LevelInfo
		logOpts.AddSource = false
	}
	if flagSyslog && flagLogStdOut {
		return flagValidationError(cmd, "both syslog handler and stdout output specified. Please pick one only.")
	} else if flagSyslog { // log to syslog
		handler, err := NewSyslogHandler(&logOpts)
		if err != nil {
			return fmt.Errorf("failed to create syslog handler: %w", err)
		}
		slog.SetDefault(slog.New(handler))
	} else if flagLogStdOut {
		handler := slog.NewJSONHandler(cmd.OutOrStdout(), &logOpts)
		slog.SetDefault(slog.New(handler))
	} else { // log to file
		// open log file in current directory
		var err error
		gLogFile, err = os.OpenFile(logFileName, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644) // #nosec G302
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(gLogFile, &logOpts)))
	}
	slog.Info("Starting up", slog.String("app", app.Name), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	var logFilePath string
	if gLogFile != nil {
		var err error
		logFilePath, err = util.AbsPath(gLogFile.Name())
		if err != nil {
			logFilePath = gLogFile.Name()
		}
	}
	// set app context
	cmd.SetContext(
		context.WithValue(
			cmd.Context(),
			app.Context{},
			app.Context{
				Timestamp:   timestamp,
				LogFilePath: logFilePath,
				Version:     gVersion,
				Debug:       flagDebug},
		),
	)
	return nil
}

// terminateApplication closes the log file
func terminateApplication(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		return nil
	}
	if _, ok := ctx.Value(app.Context{}).(app.Context); !ok {
		return nil
	}
	slog.Info("Shutting down", slog.String("app", app.Name), slog.String("version", gVersion), slog.Int("PID", os.Getpid()), slog.String("arguments", strings.Join(os.Args, " ")))
	if gLogFile != nil {
		logFile := gLogFile
		gLogFile = nil
		slog.SetDefault(slog.New(slog.DiscardHandler))
		err := logFile.Close()
		if err != nil {
			slog.Error("error closing log file", slog.String("logFile", logFile.Name()), slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}
