// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package canvas implements projmap's host interfaces in memory: an ordered
// stack of layers, each an image.Image with an optional mask.
package canvas

import (
	"errors"
	"image"
	"slices"

	"github.com/nigeltao/projmap/lib/projmap"
)

var (
	ErrBadArgument = errors.New("canvas: bad argument")
)

// LayerOptions are optional arguments to NewLayer. The zero value is valid
// and means to use the default configuration.
type LayerOptions struct {
	// If zero, the default is projmap.DefaultTileSize.
	TileSize image.Point

	// Mask, if non-nil, must cover the layer's bounds. If nil, the mask is
	// the layer image's alpha channel.
	Mask *image.Alpha
}

// Layer is a projmap.Layer backed by an image.Image.
type Layer struct {
	name     string
	src      image.Image
	mask     *image.Alpha
	tileSize image.Point
	extract  func(dst *image.Alpha)
}

// NewLayer returns a Layer showing src.
//
// options may be nil, which means to use the default configuration.
func NewLayer(name string, src image.Image, options *LayerOptions) (*Layer, error) {
	if src == nil {
		return nil, ErrBadArgument
	}
	l := &Layer{
		name:     name,
		src:      src,
		tileSize: projmap.DefaultTileSize,
	}
	if options != nil {
		if options.TileSize != (image.Point{}) {
			if (options.TileSize.X <= 0) || (options.TileSize.Y <= 0) {
				return nil, ErrBadArgument
			}
			l.tileSize = options.TileSize
		}
		if options.Mask != nil {
			if !src.Bounds().In(options.Mask.Bounds()) {
				return nil, ErrBadArgument
			}
			l.mask = options.Mask
		}
	}
	if l.mask == nil {
		l.extract = makeExtract(src)
	}
	return l, nil
}

func (l *Layer) Name() string            { return l.name }
func (l *Layer) Bounds() image.Rectangle { return l.src.Bounds() }
func (l *Layer) TileSize() image.Point   { return l.tileSize }

// Image returns the layer's pixels.
func (l *Layer) Image() image.Image { return l.src }

// MaskTile returns the mask over r. An explicit mask is returned as a
// sub-image sharing its pixels, which callers must not modify.
func (l *Layer) MaskTile(r image.Rectangle) (*image.Alpha, error) {
	if r.Empty() || !r.In(l.src.Bounds()) {
		return nil, ErrBadArgument
	}
	if l.mask != nil {
		return l.mask.SubImage(r).(*image.Alpha), nil
	}
	m := image.NewAlpha(r)
	l.extract(m)
	return m, nil
}

// Image is a projmap.Image: a stack of layers with index 0 on top.
type Image struct {
	layers     []projmap.Layer
	undoDepth  int
	undoGroups int
}

// NewImage returns an Image holding layers, top first.
func NewImage(layers ...projmap.Layer) *Image {
	return &Image{layers: slices.Clone(layers)}
}

// Layers returns a copy of the layer stack.
func (m *Image) Layers() []projmap.Layer {
	return slices.Clone(m.layers)
}

// Layer returns the top-most layer with the given name, or nil.
func (m *Image) Layer(name string) projmap.Layer {
	for _, l := range m.layers {
		if l.Name() == name {
			return l
		}
	}
	return nil
}

func (m *Image) InsertLayer(l projmap.Layer, pos int) error {
	if (l == nil) || (pos < 0) || (pos > len(m.layers)) {
		return ErrBadArgument
	}
	m.layers = slices.Insert(m.layers, pos, l)
	return nil
}

func (m *Image) UndoGroupStart() {
	m.undoDepth++
}

func (m *Image) UndoGroupEnd() {
	if m.undoDepth == 0 {
		return
	}
	m.undoDepth--
	if m.undoDepth == 0 {
		m.undoGroups++
	}
}

// UndoGroups returns the number of completed top-level undo groups.
func (m *Image) UndoGroups() int { return m.undoGroups }

// UndoDepth returns the number of open undo groups.
func (m *Image) UndoDepth() int { return m.undoDepth }
