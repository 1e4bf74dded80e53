// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package projmap builds projection maps: RGBA layers whose every pixel
// encodes its own (x, y) position and whether the source layer's mask hides
// it.
//
// A map pixel is packed as
//
//	R = ax >> 4          (bits 4..11 of the compacted x)
//	G = ax&0xF | y>>8<<4 (bits 0..3 of the compacted x, bits 8..11 of y)
//	B = y & 0xFF         (bits 0..7 of y)
//	A = 0xFF if the mask byte is 0x00, else 0x00
//
// where ax is x divided by the compaction factor: 2 for layers wider than 4096
// pixels and 1 otherwise. Tools holding only the map image can therefore
// recover each pixel's source coordinates (see Decode).
//
// The host that owns layers, progress bars and user-facing messages is
// abstracted by the Image, Layer, Progress and Messages interfaces. The
// github.com/nigeltao/projmap/lib/canvas package provides an in-memory host.
package projmap

import (
	"errors"
	"image"

	"github.com/nigeltao/projmap/lib/tile"
)

var (
	ErrBadArgument = errors.New("projmap: bad argument")
	ErrBadTile     = errors.New("projmap: tile does not cover the requested rectangle")
)

// NameSuffix is appended to the source layer's name to name its map layer.
const NameSuffix = " MAP"

// DefaultTileSize is used when neither the Options nor the source Layer give
// a tile size.
var DefaultTileSize = image.Point{X: 64, Y: 64}

// Layer is a raster with a mask, readable one tile at a time.
type Layer interface {
	// Name is the layer's user-visible name.
	Name() string

	// Bounds is the layer's extent.
	Bounds() image.Rectangle

	// TileSize is the layer's preferred tile size. A zero value means no
	// preference.
	TileSize() image.Point

	// MaskTile returns the layer's mask over r, which lies within Bounds.
	// The returned image's bounds must contain r. A mask byte of 0x00 means
	// that the pixel is masked out.
	MaskTile(r image.Rectangle) (*image.Alpha, error)
}

// Image is an ordered stack of layers. Index 0 is the top of the stack.
type Image interface {
	Layers() []Layer

	// InsertLayer inserts l at position pos, shifting the layers at and
	// after pos down the stack.
	InsertLayer(l Layer, pos int) error

	// UndoGroupStart and UndoGroupEnd bracket changes that should be undone
	// as a single step.
	UndoGroupStart()
	UndoGroupEnd()
}

// Progress receives progress reports.
type Progress interface {
	Init(label string)
	Update(fraction float64)
	End()
}

// Messages receives user-facing diagnostics.
type Messages interface {
	Message(msg string)
}

// Options are optional arguments to Build. The zero value is valid and means
// to use the default configuration.
type Options struct {
	// If nil, progress is not reported.
	Progress Progress

	// If nil, messages are written to Logger() at the warning level.
	Messages Messages

	// Order is the tile traversal order for both passes.
	Order tile.Order

	// If zero, the source Layer's TileSize is used, falling back to
	// DefaultTileSize.
	TileSize image.Point
}

type nopProgress struct{}

func (nopProgress) Init(string)    {}
func (nopProgress) Update(float64) {}
func (nopProgress) End()           {}

type logMessages struct{}

func (logMessages) Message(msg string) { Logger().Warn(msg) }
