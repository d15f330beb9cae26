package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io"
	"math"
	"os"

	"slatfilter/internal/score"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ColorEnabled reports whether w is a terminal that should receive colored output.
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WriteRanking prints one line per cache line, slowest first. Candidate lines are
// marked "[OK]" and printed in red when colored is set.
func WriteRanking(w io.Writer, lines []score.Line, colored bool) error {
	red := color.New(color.FgRed)
	if colored {
		red.EnableColor()
	} else {
		red.DisableColor()
	}
	for _, line := range lines {
		text := fmt.Sprintf("Cacheline: %d,\tScore: %d", line.Index, truncateScore(line.Score))
		var err error
		if line.Candidate {
			if _, err = red.Fprint(w, text); err == nil {
				_, err = fmt.Fprint(w, "\t[OK]\n")
			}
		} else {
			_, err = fmt.Fprintln(w, text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// truncateScore drops the fractional part of s after removing float noise left by
// the smoothing fit, so 499.99999999999994 prints as 500.
func truncateScore(s float64) int64 {
	return int64(math.Trunc(math.Round(s*1e6) / 1e6))
}
