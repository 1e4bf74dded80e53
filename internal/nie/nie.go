// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package nie implements the NIE (Naive) image file format.
//
// It is an incomplete implementation (and hence an internal package), only
// providing the "bn4" variant (BGRA order, non-premultiplied alpha, 8 bits
// per channel) needed to write projection maps losslessly.
//
// NIE is specified at
// https://github.com/google/wuffs/blob/main/doc/spec/nie-spec.md
package nie

import (
	"errors"
	"image"
	"image/color"
	"io"
)

// Magic is the byte string prefix of every NIE file.
const Magic = "\x6E\xC3\xAF\x45"

func init() {
	image.RegisterFormat("nie", Magic, Decode, DecodeConfig)
}

var (
	ErrBadArgument          = errors.New("nie: bad argument")
	ErrNotANIEFile          = errors.New("nie: not a NIE file")
	ErrUnsupportedImageType = errors.New("nie: unsupported image type")
	ErrImageIsTooLarge      = errors.New("nie: image is too large")
)

const maxDimension = 1 << 14

// EncodeBN4 encodes m as a NIE file in BGRA order, non-premultiplied alpha, 4
// bytes per pixel (8 bits per channel).
func EncodeBN4(m image.Image) (ret []byte, retErr error) {
	if m == nil {
		return nil, ErrBadArgument
	}
	b := m.Bounds()
	ret = make([]byte, 0, 16+(4*b.Dx()*b.Dy()))
	ret = append(ret, Magic...)
	ret = append(ret, 0xFF, 'b', 'n', '4')
	ret = appendU32LE(ret, uint32(b.Dx()))
	ret = appendU32LE(ret, uint32(b.Dy()))

	switch m := m.(type) {
	case *image.NRGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			i := m.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x, i = x+1, i+4 {
				ret = append(ret, m.Pix[i+2], m.Pix[i+1], m.Pix[i+0], m.Pix[i+3])
			}
		}
		return ret, nil

	case *image.Paletted:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				at := color.NRGBAModel.Convert(m.Palette[m.ColorIndexAt(x, y)]).(color.NRGBA)
				ret = append(ret, at.B, at.G, at.R, at.A)
			}
		}
		return ret, nil
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			at := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			ret = append(ret, at.B, at.G, at.R, at.A)
		}
	}
	return ret, nil
}

func decodeConfig(r io.Reader) (image.Config, error) {
	buf := [16]byte{}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return image.Config{}, err
	} else if (string(buf[:4]) != Magic) || (buf[4] != 0xFF) {
		return image.Config{}, ErrNotANIEFile
	} else if (buf[5] != 'b') || (buf[6] != 'n') || (buf[7] != '4') {
		return image.Config{}, ErrUnsupportedImageType
	}

	width := readU32LE(buf[8:])
	height := readU32LE(buf[12:])
	if (width > maxDimension) || (height > maxDimension) {
		return image.Config{}, ErrImageIsTooLarge
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(width),
		Height:     int(height),
	}, nil
}

// DecodeConfig reads a NIE bn4 image configuration from r.
func DecodeConfig(r io.Reader) (image.Config, error) {
	return decodeConfig(r)
}

// Decode reads a NIE bn4 image from r. Its concrete type is *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	config, err := decodeConfig(r)
	if err != nil {
		return nil, err
	}
	m := image.NewNRGBA(image.Rect(0, 0, config.Width, config.Height))
	if _, err := io.ReadFull(r, m.Pix); err != nil {
		return nil, err
	}
	for i := 0; i < len(m.Pix); i += 4 {
		m.Pix[i+0], m.Pix[i+2] = m.Pix[i+2], m.Pix[i+0]
	}
	return m, nil
}

func appendU32LE(b []byte, u uint32) []byte {
	return append(b,
		uint8(u>>0),
		uint8(u>>8),
		uint8(u>>16),
		uint8(u>>24),
	)
}

func readU32LE(b []byte) uint32 {
	return (uint32(b[0]) << 0) |
		(uint32(b[1]) << 8) |
		(uint32(b[2]) << 16) |
		(uint32(b[3]) << 24)
}
