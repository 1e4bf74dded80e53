// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package canvas

import (
	"image"
	"image/color"
)

// makeExtract returns a closure that copies src's alpha channel, over dst's
// bounds, into dst.
func makeExtract(src image.Image) func(dst *image.Alpha) {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return func(dst *image.Alpha) {
			for i := range dst.Pix {
				dst.Pix[i] = 0xFF
			}
		}
	}

	switch src := src.(type) {
	case *image.Alpha:
		return func(dst *image.Alpha) {
			r := dst.Rect
			for y := r.Min.Y; y < r.Max.Y; y++ {
				i := src.PixOffset(r.Min.X, y)
				j := dst.PixOffset(r.Min.X, y)
				copy(dst.Pix[j:j+r.Dx()], src.Pix[i:i+r.Dx()])
			}
		}

	case *image.NRGBA:
		return func(dst *image.Alpha) {
			r := dst.Rect
			for y := r.Min.Y; y < r.Max.Y; y++ {
				i := src.PixOffset(r.Min.X, y) + 3
				j := dst.PixOffset(r.Min.X, y)
				for x := r.Min.X; x < r.Max.X; x, i, j = x+1, i+4, j+1 {
					dst.Pix[j] = src.Pix[i]
				}
			}
		}

	case *image.RGBA:
		return func(dst *image.Alpha) {
			r := dst.Rect
			for y := r.Min.Y; y < r.Max.Y; y++ {
				i := src.PixOffset(r.Min.X, y) + 3
				j := dst.PixOffset(r.Min.X, y)
				for x := r.Min.X; x < r.Max.X; x, i, j = x+1, i+4, j+1 {
					dst.Pix[j] = src.Pix[i]
				}
			}
		}

	case *image.NRGBA64:
		return func(dst *image.Alpha) {
			r := dst.Rect
			for y := r.Min.Y; y < r.Max.Y; y++ {
				j := dst.PixOffset(r.Min.X, y)
				for x := r.Min.X; x < r.Max.X; x, j = x+1, j+1 {
					dst.Pix[j] = uint8(src.NRGBA64At(x, y).A >> 8)
				}
			}
		}

	case image.RGBA64Image:
		return func(dst *image.Alpha) {
			r := dst.Rect
			for y := r.Min.Y; y < r.Max.Y; y++ {
				j := dst.PixOffset(r.Min.X, y)
				for x := r.Min.X; x < r.Max.X; x, j = x+1, j+1 {
					dst.Pix[j] = uint8(src.RGBA64At(x, y).A >> 8)
				}
			}
		}
	}

	return func(dst *image.Alpha) {
		r := dst.Rect
		for y := r.Min.Y; y < r.Max.Y; y++ {
			j := dst.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x, j = x+1, j+1 {
				_, _, _, a := src.At(x, y).RGBA()
				dst.Pix[j] = uint8(a >> 8)
			}
		}
	}
}

// MaskFromGray converts a grayscale layer mask, such as one drawn in an image
// editor, to an *image.Alpha. Black (0x00) is fully masked out.
//
// Color images are converted to gray first.
func MaskFromGray(src image.Image) *image.Alpha {
	b := src.Bounds()
	dst := image.NewAlpha(b)

	switch src := src.(type) {
	case *image.Alpha:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			j := dst.PixOffset(b.Min.X, y)
			copy(dst.Pix[j:j+b.Dx()], src.Pix[i:i+b.Dx()])
		}

	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := src.PixOffset(b.Min.X, y)
			j := dst.PixOffset(b.Min.X, y)
			copy(dst.Pix[j:j+b.Dx()], src.Pix[i:i+b.Dx()])
		}

	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			j := dst.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x, j = x+1, j+1 {
				dst.Pix[j] = color.GrayModel.Convert(src.At(x, y)).(color.Gray).Y
			}
		}
	}
	return dst
}
