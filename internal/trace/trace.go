// Package trace loads SLAT timing traces. A trace is a comma separated file with
// a header block of (label, address) rows followed by a block of (index, elapsed)
// timing rows, one row per measurement round.
package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"slatfilter/internal/util"

	"github.com/pkg/errors"
)

// DefaultHeaderRows is the number of header rows written by the SLAT profiler:
// gVA, gCR3, gPML4E, gPDPTE, gPDE, gPTE.
const DefaultHeaderRows = 6

// ErrNotFound is returned by Load when the trace file does not exist.
var ErrNotFound = errors.New("timing file not found")

// AddressEntry is a labelled address from the header block.
type AddressEntry struct {
	Label   string
	Address uint64
}

// Sample is one timing measurement.
type Sample struct {
	Index   int
	Elapsed float64
}

// Trace holds the two regions of a timing file.
type Trace struct {
	Path      string
	Addresses []AddressEntry
	Samples   []Sample
}

// Timings returns the elapsed-time column of the timing block in file order.
func (t *Trace) Timings() []float64 {
	timings := make([]float64, len(t.Samples))
	for i, sample := range t.Samples {
		timings[i] = sample.Elapsed
	}
	return timings
}

// Load reads the trace at path. headerRows is the number of leading header rows;
// zero means the header ends at the first row whose first field is an integer.
func Load(path string, headerRows int) (*Trace, error) {
	exists, err := util.FileExists(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}
	if !exists {
		return nil, errors.Wrapf(ErrNotFound, "%s", path)
	}
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()
	t, err := Parse(f, headerRows)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	t.Path = path
	slog.Debug("loaded trace", slog.String("path", path), slog.Int("addresses", len(t.Addresses)), slog.Int("samples", len(t.Samples)))
	return t, nil
}

// Parse reads a trace from r. See Load for the meaning of headerRows.
func Parse(r io.Reader, headerRows int) (*Trace, error) {
	if headerRows < 0 {
		return nil, errors.Errorf("header rows must not be negative, got %d", headerRows)
	}
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true
	t := &Trace{}
	inHeader := true
	for rowIdx := 0; ; rowIdx++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to read row")
		}
		line, _ := reader.FieldPos(0)
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
		if len(record) < 2 {
			return nil, errors.Errorf("line %d: expected at least 2 fields, found %d", line, len(record))
		}
		if inHeader {
			if headerRows > 0 {
				inHeader = rowIdx < headerRows
			} else {
				_, err := strconv.Atoi(record[0])
				inHeader = err != nil
			}
		}
		if inHeader {
			entry, err := parseAddressEntry(record)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			t.Addresses = append(t.Addresses, entry)
			continue
		}
		sample, err := parseSample(record)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		t.Samples = append(t.Samples, sample)
	}
	return t, nil
}

func parseAddressEntry(record []string) (AddressEntry, error) {
	address, err := ParseAddress(record[1])
	if err != nil {
		return AddressEntry{}, err
	}
	return AddressEntry{Label: record[0], Address: address}, nil
}

func parseSample(record []string) (Sample, error) {
	index, err := strconv.Atoi(record[0])
	if err != nil {
		return Sample{}, errors.Wrapf(err, "invalid sample index %q", record[0])
	}
	elapsed, err := strconv.ParseFloat(record[1], 64)
	if err != nil {
		return Sample{}, errors.Wrapf(err, "invalid elapsed time %q", record[1])
	}
	return Sample{Index: index, Elapsed: elapsed}, nil
}

// ParseAddress parses a hexadecimal (0x prefixed) or decimal address.
func ParseAddress(s string) (uint64, error) {
	address, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid address %q", s)
	}
	return address, nil
}
