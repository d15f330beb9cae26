package trace

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profilerOutput = `gVA,0x7fff00001000
gCR3,0x1a2b3000
gPML4E,0x3c4d5000
gPDPTE,0x3c4d6000
gPDE,0x3c4d7000
gPTE,0x3c4d8000
0,212
0,198
1,305
1,310
`

func TestParseAutoDetectHeader(t *testing.T) {
	tr, err := Parse(strings.NewReader(profilerOutput), 0)
	require.NoError(t, err)
	require.Len(t, tr.Addresses, DefaultHeaderRows)
	assert.Equal(t, AddressEntry{Label: "gVA", Address: 0x7fff00001000}, tr.Addresses[0])
	assert.Equal(t, AddressEntry{Label: "gPTE", Address: 0x3c4d8000}, tr.Addresses[5])
	require.Len(t, tr.Samples, 4)
	assert.Equal(t, Sample{Index: 1, Elapsed: 305}, tr.Samples[2])
	assert.Equal(t, []float64{212, 198, 305, 310}, tr.Timings())
}

func TestParseFixedHeaderRows(t *testing.T) {
	input := "gVA,0x1000\ngCR3,4096\n0,10\n1,20\n"
	tr, err := Parse(strings.NewReader(input), 2)
	require.NoError(t, err)
	assert.Equal(t, []AddressEntry{{"gVA", 0x1000}, {"gCR3", 4096}}, tr.Addresses)
	assert.Equal(t, []float64{10, 20}, tr.Timings())
}

func TestParseSkipsBlankAndCommentLines(t *testing.T) {
	input := "# slat timings\ngVA, 0x1000\n\n0, 10.5\n# trailing\n1,20\n"
	tr, err := Parse(strings.NewReader(input), 0)
	require.NoError(t, err)
	assert.Len(t, tr.Addresses, 1)
	assert.Equal(t, []float64{10.5, 20}, tr.Timings())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		headerRows int
		errText    string
	}{
		{"bad address", "gVA,0xZZZ\n0,10\n", 0, "invalid address"},
		{"bad elapsed time", "gVA,0x1000\n0,fast\n", 0, "invalid elapsed time"},
		{"bad index in fixed mode", "gVA,0x1000\nx,10\n", 1, "invalid sample index"},
		{"too few fields", "gVA,0x1000\n0\n", 0, "expected at least 2 fields"},
		{"negative header rows", "gVA,0x1000\n", -1, "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), tt.headerRows)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestParseErrorNamesLine(t *testing.T) {
	_, err := Parse(strings.NewReader("gVA,0x1000\n0,10\n1,oops\n"), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slat-timings.csv")
	require.NoError(t, os.WriteFile(path, []byte(profilerOutput), 0644))
	tr, err := Load(path, 0)
	require.NoError(t, err)
	assert.Equal(t, path, tr.Path)
	assert.Len(t, tr.Samples, 4)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.csv"), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}
