// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package projmap

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// MapLayer is the output of Build: an RGBA layer holding one encoded color
// per source pixel.
//
// Writes go to a shadow buffer. They become visible in Image only after
// Flush and MergeShadow, the same way a host editor stages tile writes.
type MapLayer struct {
	name     string
	tileSize image.Point
	pix      *image.NRGBA
	shadow   *image.NRGBA

	// pending is written but not yet flushed; flushed is flushed but not yet
	// merged; dirty is merged but not yet collected by the host.
	pending image.Rectangle
	flushed image.Rectangle
	dirty   image.Rectangle
}

// NewMapLayer returns a fully transparent layer.
func NewMapLayer(name string, bounds image.Rectangle, tileSize image.Point) *MapLayer {
	return &MapLayer{
		name:     name,
		tileSize: tileSize,
		pix:      image.NewNRGBA(bounds),
		shadow:   image.NewNRGBA(bounds),
	}
}

func (l *MapLayer) Name() string            { return l.name }
func (l *MapLayer) Bounds() image.Rectangle { return l.pix.Rect }
func (l *MapLayer) TileSize() image.Point   { return l.tileSize }

// MaskTile returns the committed alpha channel over r.
func (l *MapLayer) MaskTile(r image.Rectangle) (*image.Alpha, error) {
	if !r.In(l.pix.Rect) {
		return nil, ErrBadArgument
	}
	m := image.NewAlpha(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := l.pix.PixOffset(r.Min.X, y) + 3
		j := m.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, i, j = x+1, i+4, j+1 {
			m.Pix[j] = l.pix.Pix[i]
		}
	}
	return m, nil
}

// Image returns the committed pixels. Callers must not modify them.
func (l *MapLayer) Image() *image.NRGBA { return l.pix }

// Clear resets both the committed and shadow buffers to transparent black
// and marks the whole layer dirty.
func (l *MapLayer) Clear() {
	clear(l.pix.Pix)
	clear(l.shadow.Pix)
	l.pending = image.Rectangle{}
	l.flushed = image.Rectangle{}
	l.dirty = l.pix.Rect
}

// set writes c at Pix offset i of the shadow buffer. The caller tracks the
// touched region with touch.
func (l *MapLayer) set(i int, c color.NRGBA) {
	s := l.shadow.Pix[i : i+4 : i+4]
	s[0] = c.R
	s[1] = c.G
	s[2] = c.B
	s[3] = c.A
}

func (l *MapLayer) touch(r image.Rectangle) {
	l.pending = l.pending.Union(r)
}

// Flush marks all pending shadow writes as ready to merge.
func (l *MapLayer) Flush() {
	l.flushed = l.flushed.Union(l.pending)
	l.pending = image.Rectangle{}
}

// MergeShadow copies flushed shadow pixels into the committed buffer. If
// undoable is true, the merged region is also recorded as dirty.
func (l *MapLayer) MergeShadow(undoable bool) {
	r := l.flushed.Intersect(l.pix.Rect)
	if r.Empty() {
		return
	}
	draw.Draw(l.pix, r, l.shadow, r.Min, draw.Src)
	if undoable {
		l.dirty = l.dirty.Union(r)
	}
	l.flushed = image.Rectangle{}
}

// Update marks r as needing a redraw.
func (l *MapLayer) Update(r image.Rectangle) {
	l.dirty = l.dirty.Union(r.Intersect(l.pix.Rect))
}

// Dirty returns and resets the region that needs a redraw.
func (l *MapLayer) Dirty() image.Rectangle {
	r := l.dirty
	l.dirty = image.Rectangle{}
	return r
}
