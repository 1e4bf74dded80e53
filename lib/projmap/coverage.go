// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package projmap

import (
	"fmt"
	"image"

	"github.com/nigeltao/projmap/lib/tile"
)

// Coverage records which columns and rows of a layer hold at least one
// masked-out pixel. Indexes are relative to the layer's top-left corner.
type Coverage struct {
	Cols []bool
	Rows []bool
}

// NewCoverage returns an empty Coverage for a width×height layer.
func NewCoverage(width int, height int) *Coverage {
	return &Coverage{
		Cols: make([]bool, width),
		Rows: make([]bool, height),
	}
}

// Add marks the columns and rows of every masked-out pixel of m within r.
// origin is the layer's top-left corner.
func (c *Coverage) Add(m *image.Alpha, r image.Rectangle, origin image.Point) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := m.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, i = x+1, i+1 {
			if m.Pix[i] == 0x00 {
				c.Cols[x-origin.X] = true
				c.Rows[y-origin.Y] = true
			}
		}
	}
}

// Counts returns the number of touched columns and rows.
func (c *Coverage) Counts() (cols int, rows int) {
	for _, b := range c.Cols {
		if b {
			cols++
		}
	}
	for _, b := range c.Rows {
		if b {
			rows++
		}
	}
	return cols, rows
}

// CoverageScanError is a tile that could not be read while computing
// Coverage.
type CoverageScanError struct {
	Tile tile.Tile
	Err  error
}

func (e *CoverageScanError) Error() string {
	return fmt.Sprintf("projmap: scanning tile %d,%d %v: %v", e.Tile.Col, e.Tile.Row, e.Tile.Rect, e.Err)
}

func (e *CoverageScanError) Unwrap() error { return e.Err }

// Scan computes src's Coverage, reading its mask one tile of g at a time.
//
// A tile that cannot be read is skipped and reported in the returned slice,
// leaving the Coverage partially populated.
func Scan(src Layer, g tile.Grid) (*Coverage, []*CoverageScanError) {
	b := g.Bounds()
	c := NewCoverage(b.Dx(), b.Dy())
	var errs []*CoverageScanError
	for _, t := range g.All() {
		m, err := readMask(src, t)
		if err != nil {
			errs = append(errs, &CoverageScanError{Tile: t, Err: err})
			continue
		}
		c.Add(m, t.Rect, b.Min)
	}
	return c, errs
}

func readMask(src Layer, t tile.Tile) (*image.Alpha, error) {
	m, err := src.MaskTile(t.Rect)
	if err != nil {
		return nil, err
	} else if (m == nil) || !t.Rect.In(m.Bounds()) {
		return nil, ErrBadTile
	}
	return m, nil
}
