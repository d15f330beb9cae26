// Package paging derives page-table-walk cache line candidates from addresses.
//
// A 4-level x86-64 walk indexes four 512-entry tables (PML4, PDPT, PD, PT) with
// 9-bit fields of the address. Eight 8-byte entries share one 64-byte cache line,
// so each index folds into one of 64 cache lines of its table page.
package paging

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import (
	"fmt"
	"slices"
	"strings"

	"slatfilter/internal/util"

	mapset "github.com/deckarep/golang-set/v2"
)

const (
	IndexBits       = 9
	EntriesPerTable = 1 << IndexBits
	EntrySize       = 8
	LineSize        = 64
	EntriesPerLine  = LineSize / EntrySize
	LinesPerTable   = EntriesPerTable / EntriesPerLine
	lineShift       = 3
)

// Level is one level of the page table walk.
type Level int

const (
	PML4 Level = iota
	PDPT
	PD
	PT
)

// Levels lists the walk levels from the root down.
var Levels = []Level{PML4, PDPT, PD, PT}

var levelShifts = map[Level]int{
	PML4: 39,
	PDPT: 30,
	PD:   21,
	PT:   12,
}

func (l Level) String() string {
	switch l {
	case PML4:
		return "PML4"
	case PDPT:
		return "PDPT"
	case PD:
		return "PD"
	case PT:
		return "PT"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Index returns the 9-bit table index this level uses for addr.
func (l Level) Index(addr uint64) int {
	idx, err := util.ExtractBits(addr, levelShifts[l], IndexBits)
	if err != nil {
		// shifts and width are constants
		panic(err)
	}
	return int(idx)
}

func PML4Index(addr uint64) int { return PML4.Index(addr) }
func PDPTIndex(addr uint64) int { return PDPT.Index(addr) }
func PDIndex(addr uint64) int   { return PD.Index(addr) }
func PTIndex(addr uint64) int   { return PT.Index(addr) }

// CacheLine folds a table index into the cache line holding its entry.
func CacheLine(index int) int {
	return index >> lineShift
}

// Lines returns the cache lines touched by a walk of addr, ordered PML4, PDPT, PD, PT.
func Lines(addr uint64) [4]int {
	var lines [4]int
	for i, level := range Levels {
		lines[i] = CacheLine(level.Index(addr))
	}
	return lines
}

// Candidates accumulates the cache lines derived from a set of addresses.
// Every derived line is kept in derivation order; membership ignores duplicates.
type Candidates struct {
	all []int
	set mapset.Set[int]
}

// NewCandidates returns an empty candidate collection.
func NewCandidates() *Candidates {
	return &Candidates{set: mapset.NewThreadUnsafeSet[int]()}
}

// Add derives the four cache lines of addr, records them and returns them.
func (c *Candidates) Add(addr uint64) [4]int {
	lines := Lines(addr)
	c.all = append(c.all, lines[:]...)
	c.set.Append(lines[:]...)
	return lines
}

// Contains reports whether line was derived from any added address.
func (c *Candidates) Contains(line int) bool {
	return c.set.Contains(line)
}

// All returns every derived line, duplicates included.
func (c *Candidates) All() []int {
	return slices.Clone(c.all)
}

// Sorted returns the distinct candidate lines in ascending order.
func (c *Candidates) Sorted() []int {
	lines := c.set.ToSlice()
	slices.Sort(lines)
	return lines
}

// Len returns the number of distinct candidate lines.
func (c *Candidates) Len() int {
	return c.set.Cardinality()
}

func (c *Candidates) String() string {
	lines := c.Sorted()
	parts := make([]string, len(lines))
	for i, line := range lines {
		parts[i] = fmt.Sprintf("%d", line)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
