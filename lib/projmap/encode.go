// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package projmap

import (
	"image/color"
)

const (
	// CompactionThreshold is the widest layer that is encoded without
	// halving its x coordinates.
	CompactionThreshold = 4096

	// MaxCoordinate bounds the compacted x and the y coordinates that
	// survive encoding. Larger values alias.
	MaxCoordinate = 4096
)

// Factor is the divisor applied to x coordinates before packing them. It is
// either 1 or 2.
type Factor uint8

// CompactionFactor returns the Factor for a layer of the given width.
func CompactionFactor(width int) Factor {
	if width > CompactionThreshold {
		return 2
	}
	return 1
}

// Encode packs a pixel's position, relative to its layer's top-left corner,
// and its mask state into a map color.
//
// x / f and y should be in the range [0, MaxCoordinate).
func Encode(x int, y int, maskedOut bool, f Factor) color.NRGBA {
	ax := x
	if f > 1 {
		ax /= int(f)
	}
	c := color.NRGBA{
		R: uint8(ax >> 4),
		G: uint8((ax & 0x0F) | ((y & 0xF00) >> 4)),
		B: uint8(y),
	}
	if maskedOut {
		c.A = 0xFF
	}
	return c
}

// Decode is the inverse of Encode. Under a Factor of 2, the low bit of x is
// lost and the returned x is always even.
func Decode(c color.NRGBA, f Factor) (x int, y int, maskedOut bool) {
	ax := (int(c.R) << 4) | (int(c.G) & 0x0F)
	y = int(c.B) | ((int(c.G) & 0xF0) << 4)
	if f > 1 {
		ax *= int(f)
	}
	return ax, y, c.A == 0xFF
}
