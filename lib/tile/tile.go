// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package tile partitions a raster's bounds into a grid of rectangular tiles.
//
// Tiles bound how much of a raster is touched at once. Every tile has the
// grid's nominal size except those in the last column and last row, which are
// clipped to the raster's bounds.
package tile

import (
	"errors"
	"image"
	"iter"
)

var (
	ErrBadArgument = errors.New("tile: bad argument")
)

// Order is the traversal order of a Grid's tiles.
type Order uint8

const (
	// ColumnMajor visits every tile of the first tile column (top to bottom)
	// before moving right to the next column.
	ColumnMajor = Order(0)

	// RowMajor visits every tile of the first tile row (left to right) before
	// moving down to the next row.
	RowMajor = Order(1)
)

// String returns a human readable name for o.
func (o Order) String() string {
	switch o {
	case ColumnMajor:
		return "column-major"
	case RowMajor:
		return "row-major"
	}
	return "invalid"
}

// Tile is one cell of a Grid.
type Tile struct {
	// Col and Row are the tile's indexes along the x and y axes.
	Col int
	Row int

	// Rect is the tile's pixel extent, in the same coordinate space as the
	// Grid's bounds. It is never empty.
	Rect image.Rectangle
}

// Grid is an immutable tiling of a rectangle. The zero value is an empty
// grid.
type Grid struct {
	bounds image.Rectangle
	size   image.Point
	order  Order
	cols   int
	rows   int
}

// NewGrid returns the tiling of bounds into tiles of the given nominal size.
//
// It returns an error if bounds is empty or if either size component is not
// positive.
func NewGrid(bounds image.Rectangle, size image.Point, order Order) (Grid, error) {
	if bounds.Empty() || (size.X <= 0) || (size.Y <= 0) ||
		((order != ColumnMajor) && (order != RowMajor)) {
		return Grid{}, ErrBadArgument
	}
	w, h := bounds.Dx(), bounds.Dy()
	return Grid{
		bounds: bounds,
		size:   size,
		order:  order,
		cols:   (w + size.X - 1) / size.X,
		rows:   (h + size.Y - 1) / size.Y,
	}, nil
}

// Bounds returns the rectangle that g partitions.
func (g Grid) Bounds() image.Rectangle { return g.bounds }

// Size returns the nominal tile size.
func (g Grid) Size() image.Point { return g.size }

// Order returns the traversal order used by At and All.
func (g Grid) Order() Order { return g.order }

// Cols returns the number of tiles along the x axis.
func (g Grid) Cols() int { return g.cols }

// Rows returns the number of tiles along the y axis.
func (g Grid) Rows() int { return g.rows }

// Len returns the total number of tiles.
func (g Grid) Len() int { return g.cols * g.rows }

// Tile returns the tile at the given column and row. It panics if either
// index is out of range.
func (g Grid) Tile(col int, row int) Tile {
	if (col < 0) || (col >= g.cols) || (row < 0) || (row >= g.rows) {
		panic("tile: index out of range")
	}
	p := image.Point{
		X: g.bounds.Min.X + (col * g.size.X),
		Y: g.bounds.Min.Y + (row * g.size.Y),
	}
	r := image.Rectangle{Min: p, Max: p.Add(g.size)}
	return Tile{
		Col:  col,
		Row:  row,
		Rect: r.Intersect(g.bounds),
	}
}

// At returns the k'th tile in g's traversal order, for k in [0, g.Len()).
func (g Grid) At(k int) Tile {
	if (k < 0) || (k >= g.Len()) {
		panic("tile: index out of range")
	}
	if g.order == RowMajor {
		return g.Tile(k%g.cols, k/g.cols)
	}
	return g.Tile(k/g.rows, k%g.rows)
}

// All returns an iterator over g's tiles and their traversal index. Each
// call starts a fresh traversal.
func (g Grid) All() iter.Seq2[int, Tile] {
	return func(yield func(int, Tile) bool) {
		n := g.Len()
		for k := 0; k < n; k++ {
			if !yield(k, g.At(k)) {
				return
			}
		}
	}
}
