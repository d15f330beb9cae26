/*
Package util includes utility/helper functions that may be useful to other modules.
*/
package util

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandUser expands '~' to user's home directory, if found, otherwise returns original path
func ExpandUser(path string) string {
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	} else if strings.HasPrefix(path, "~"+string(os.PathSeparator)) {
		return filepath.Join(usr.HomeDir, path[2:])
	} else {
		return path
	}
}

// AbsPath returns absolute path after expanding '~' to user's home dir
// Use everywhere in place of filepath.Abs()
func AbsPath(path string) (string, error) {
	return filepath.Abs(ExpandUser(path))
}

// FileExists checks if a file exists at the given path.
// It returns a boolean indicating whether the file exists, and an error if the
// path refers to a non-regular file, e.g., a directory.
func FileExists(path string) (exists bool, err error) {
	var fileInfo fs.FileInfo
	fileInfo, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			exists = false
			err = nil
			return
		}
		return
	}
	if !fileInfo.Mode().IsRegular() {
		err = fmt.Errorf("%s not a file", path)
		return
	}
	exists = true
	return
}

// DirectoryExists checks if the specified directory exists.
// It returns a boolean indicating whether the directory exists and an error if the
// path refers to anything other than a directory, e.g., a regular file.
func DirectoryExists(path string) (exists bool, err error) {
	var fileInfo fs.FileInfo
	fileInfo, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			exists = false
			err = nil
			return
		}
		return
	}
	if !fileInfo.Mode().IsDir() {
		err = fmt.Errorf("%s not a directory", path)
		return
	}
	exists = true
	return
}

// CreateDirectoryIfNotExists creates a directory at the specified path if it does not already exist.
// If the directory already exists, it does nothing and returns nil. A regular file at
// the path is an error.
func CreateDirectoryIfNotExists(dir string, perm os.FileMode) error {
	exists, err := DirectoryExists(dir)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := os.MkdirAll(dir, perm); err != nil {
		return fmt.Errorf("failed to create directory: '%s', error: '%s'", dir, err.Error())
	}
	return nil
}

// Uint64FromNumLowerBits returns a uint64 with the lowest numBits bits set
func Uint64FromNumLowerBits(numBits int) (uint64, error) {
	if numBits < 0 || numBits > 64 {
		return 0, fmt.Errorf("number of bits must be between 0 and 64, got %d", numBits)
	}
	if numBits == 64 {
		return ^uint64(0), nil
	}
	return (uint64(1) << numBits) - 1, nil
}

// ExtractBits returns the numBits wide field of x that starts at bit position shift
func ExtractBits(x uint64, shift int, numBits int) (uint64, error) {
	if shift < 0 || shift > 63 {
		return 0, fmt.Errorf("shift must be between 0 and 63, got %d", shift)
	}
	mask, err := Uint64FromNumLowerBits(numBits)
	if err != nil {
		return 0, err
	}
	return (x >> shift) & mask, nil
}
