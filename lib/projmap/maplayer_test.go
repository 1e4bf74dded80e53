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
	"testing"
)

func TestMapLayerStagesWrites(tt *testing.T) {
	r := image.Rect(0, 0, 4, 3)
	l := NewMapLayer("m", r, image.Pt(2, 2))
	l.Clear()
	if got := l.Dirty(); got != r {
		tt.Errorf("Dirty after Clear: got %v, want %v", got, r)
	}

	c := color.NRGBA{R: 1, G: 2, B: 3, A: 0xFF}
	l.set(l.shadow.PixOffset(1, 2), c)
	l.touch(image.Rect(1, 2, 2, 3))

	if got := l.Image().NRGBAAt(1, 2); got != (color.NRGBA{}) {
		tt.Errorf("before Flush: got %v, want transparent", got)
	}
	l.MergeShadow(true)
	if got := l.Image().NRGBAAt(1, 2); got != (color.NRGBA{}) {
		tt.Errorf("MergeShadow before Flush: got %v, want transparent", got)
	}

	l.Flush()
	l.MergeShadow(true)
	if got := l.Image().NRGBAAt(1, 2); got != c {
		tt.Errorf("after MergeShadow: got %v, want %v", got, c)
	}
	if got, want := l.Dirty(), image.Rect(1, 2, 2, 3); got != want {
		tt.Errorf("Dirty: got %v, want %v", got, want)
	}
	if got := l.Dirty(); !got.Empty() {
		tt.Errorf("second Dirty: got %v, want empty", got)
	}

	l.Update(image.Rect(-5, -5, 1, 1))
	if got, want := l.Dirty(), image.Rect(0, 0, 1, 1); got != want {
		tt.Errorf("Dirty after Update: got %v, want %v", got, want)
	}
}

func TestMapLayerMaskTile(tt *testing.T) {
	r := image.Rect(0, 0, 3, 3)
	l := NewMapLayer("m", r, image.Pt(3, 3))
	l.pix.SetNRGBA(2, 1, color.NRGBA{A: 0xFF})

	m, err := l.MaskTile(image.Rect(1, 1, 3, 2))
	if err != nil {
		tt.Fatalf("MaskTile: %v", err)
	}
	if got := m.AlphaAt(2, 1).A; got != 0xFF {
		tt.Errorf("(2, 1): got 0x%02X, want 0xFF", got)
	}
	if got := m.AlphaAt(1, 1).A; got != 0x00 {
		tt.Errorf("(1, 1): got 0x%02X, want 0x00", got)
	}

	if _, err := l.MaskTile(image.Rect(2, 2, 4, 4)); err != ErrBadArgument {
		tt.Errorf("out of bounds: got %v, want %v", err, ErrBadArgument)
	}
}
