package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"
)

func TestUint64FromNumLowerBits(t *testing.T) {
	tests := []struct {
		numBits  int
		expected uint64
		wantErr  bool
	}{
		{0, 0, false},
		{1, 1, false},
		{2, 3, false},
		{3, 7, false},
		{9, 0x1FF, false},
		{16, 65535, false},
		{32, 4294967295, false},
		{63, 0x7FFFFFFFFFFFFFFF, false},
		{64, 0xFFFFFFFFFFFFFFFF, false},
		{-1, 0, true},
		{65, 0, true},
	}
	for _, tt := range tests {
		got, err := Uint64FromNumLowerBits(tt.numBits)
		if (err != nil) != tt.wantErr {
			t.Errorf("Uint64FromNumLowerBits(%d) error = %v, wantErr %v", tt.numBits, err, tt.wantErr)
		}
		if !tt.wantErr && got != tt.expected {
			t.Errorf("Uint64FromNumLowerBits(%d) = %d, want %d", tt.numBits, got, tt.expected)
		}
	}
}

func TestExtractBits(t *testing.T) {
	tests := []struct {
		name    string
		x       uint64
		shift   int
		numBits int
		want    uint64
		wantErr bool
	}{
		{"pt index", 0x7fff00001000, 12, 9, 0x001, false},
		{"pd index", 0x7fff00001000, 21, 9, 0x000, false},
		{"pdpt index", 0x7fff00001000, 30, 9, 0x1FC, false},
		{"pml4 index", 0x7fff00001000, 39, 9, 0x0FF, false},
		{"all ones", ^uint64(0), 39, 9, 0x1FF, false},
		{"shift too large", 1, 64, 9, 0, true},
		{"negative shift", 1, -1, 9, 0, true},
		{"width too large", 1, 0, 65, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBits(tt.x, tt.shift, tt.numBits)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractBits(%#x, %d, %d) error = %v, wantErr %v", tt.x, tt.shift, tt.numBits, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ExtractBits(%#x, %d, %d) = %#x, want %#x", tt.x, tt.shift, tt.numBits, got, tt.want)
			}
		})
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "slat-timings.csv")
	if err := os.WriteFile(file, []byte("gVA,0x1000\n"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	exists, err := FileExists(file)
	if err != nil || !exists {
		t.Errorf("expected file to exist, got exists=%v err=%v", exists, err)
	}
	exists, err = FileExists(filepath.Join(dir, "missing.csv"))
	if err != nil || exists {
		t.Errorf("expected missing file, got exists=%v err=%v", exists, err)
	}
	if _, err = FileExists(dir); err == nil {
		t.Errorf("expected error for directory path")
	}
}

func TestCreateDirectoryIfNotExists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results", "nested")
	if err := CreateDirectoryIfNotExists(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	exists, err := DirectoryExists(dir)
	if err != nil || !exists {
		t.Errorf("expected directory to exist, got exists=%v err=%v", exists, err)
	}
	// second call is a no-op
	if err := CreateDirectoryIfNotExists(dir, 0755); err != nil {
		t.Errorf("unexpected error on existing directory: %v", err)
	}
	file := filepath.Join(t.TempDir(), "slatfilter.png")
	if err := os.WriteFile(file, []byte{}, 0644); err != nil {
		t.Fatal(err)
	}
	if err := CreateDirectoryIfNotExists(file, 0755); err == nil {
		t.Errorf("expected error for regular file path")
	}
}

func TestExpandUser(t *testing.T) {
	usr, err := user.Current()
	if err != nil {
		t.Skip("no current user")
	}
	if got := ExpandUser("~/slat.csv"); got != filepath.Join(usr.HomeDir, "slat.csv") {
		t.Errorf("ExpandUser() = %s", got)
	}
	if got := ExpandUser("results/slat.csv"); got != "results/slat.csv" {
		t.Errorf("ExpandUser() changed a relative path: %s", got)
	}
}
