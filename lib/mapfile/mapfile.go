// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// Package mapfile implements the PMAP container format for projection maps.
//
// A PMAP file is a 16 byte header followed by a single zstd frame holding the
// map's non-premultiplied R, G, B, A bytes in row-major order. The header is:
//
//	0x00  "PMAP"
//	0x04  version, 0x01
//	0x05  compaction factor, 0x01 or 0x02
//	0x06  two zero bytes
//	0x08  width, big-endian uint32
//	0x0C  height, big-endian uint32
//
// Unlike PNG, the header records the factor needed to decode x coordinates.
package mapfile

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/nigeltao/projmap/lib/projmap"
)

// Magic is the byte string prefix of every PMAP file.
const Magic = "PMAP"

const version = 0x01

// maxDimension keeps W*H*4 within an int on 32-bit platforms.
const maxDimension = 1 << 14

func init() {
	image.RegisterFormat("pmap", Magic, Decode, DecodeConfig)
}

var (
	ErrBadArgument     = errors.New("mapfile: bad argument")
	ErrNotAPMAPFile    = errors.New("mapfile: not a PMAP file")
	ErrImageIsTooLarge = errors.New("mapfile: image is too large")
	ErrTruncated       = errors.New("mapfile: truncated payload")
)

var encoderPool = sync.Pool{
	New: func() any {
		enc, _ := zstd.NewWriter(nil)
		return enc
	},
}

var decoderPool = sync.Pool{
	New: func() any {
		dec, _ := zstd.NewReader(nil)
		return dec
	},
}

// Header is the metadata stored ahead of a PMAP payload.
type Header struct {
	Factor projmap.Factor
	Width  int
	Height int
}

// DecodeHeader reads a PMAP header from r.
func DecodeHeader(r io.Reader) (Header, error) {
	buf := [16]byte{}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, err
	} else if (buf[0] != Magic[0]) ||
		(buf[1] != Magic[1]) ||
		(buf[2] != Magic[2]) ||
		(buf[3] != Magic[3]) ||
		(buf[4] != version) ||
		((buf[5] != 1) && (buf[5] != 2)) ||
		(buf[6] != 0x00) ||
		(buf[7] != 0x00) {
		return Header{}, ErrNotAPMAPFile
	}

	width := readU32BE(buf[0x08:])
	height := readU32BE(buf[0x0C:])
	if (width > maxDimension) || (height > maxDimension) {
		return Header{}, ErrImageIsTooLarge
	}

	return Header{
		Factor: projmap.Factor(buf[5]),
		Width:  int(width),
		Height: int(height),
	}, nil
}

// DecodeConfig reads a PMAP image configuration from r.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      h.Width,
		Height:     h.Height,
	}, nil
}

// Decode reads a PMAP image from r. Its concrete type is *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	_, m, err := DecodeMap(r)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeMap reads a PMAP image and its header from r.
func DecodeMap(r io.Reader) (Header, *image.NRGBA, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return Header{}, nil, err
	}

	dec := decoderPool.Get().(*zstd.Decoder)
	defer decoderPool.Put(dec)
	if err := dec.Reset(r); err != nil {
		return Header{}, nil, err
	}

	m := image.NewNRGBA(image.Rect(0, 0, h.Width, h.Height))
	if _, err := io.ReadFull(dec, m.Pix); (err == io.EOF) || (err == io.ErrUnexpectedEOF) {
		return Header{}, nil, ErrTruncated
	} else if err != nil {
		return Header{}, nil, err
	}
	return h, m, nil
}

// EncodeOptions are optional arguments to Encode. The zero value is valid and
// means to use the default configuration.
type EncodeOptions struct {
	// If zero, the default is 1.
	Factor projmap.Factor

	// If zero, the default is zstd.SpeedDefault.
	Level zstd.EncoderLevel
}

// Encode writes src to w in the PMAP format. src's pixels are written as
// non-premultiplied colors.
//
// options may be nil, which means to use the default configuration.
func Encode(w io.Writer, src image.Image, options *EncodeOptions) error {
	if (w == nil) || (src == nil) {
		return ErrBadArgument
	}
	b := src.Bounds()
	bW, bH := b.Dx(), b.Dy()
	if (bW > maxDimension) || (bH > maxDimension) {
		return ErrImageIsTooLarge
	}

	f := projmap.Factor(1)
	level := zstd.SpeedDefault
	if options != nil {
		if options.Factor != 0 {
			f = options.Factor
		}
		if options.Level != 0 {
			level = options.Level
		}
	}
	if (f != 1) && (f != 2) {
		return ErrBadArgument
	}

	buf := [16]byte{}
	copy(buf[:4], Magic)
	buf[0x04] = version
	buf[0x05] = uint8(f)
	writeU32BE(buf[0x08:], uint32(bW))
	writeU32BE(buf[0x0C:], uint32(bH))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}

	pix := nrgbaPix(src)

	var enc *zstd.Encoder
	if level == zstd.SpeedDefault {
		enc = encoderPool.Get().(*zstd.Encoder)
		defer encoderPool.Put(enc)
		enc.Reset(w)
	} else {
		e, err := zstd.NewWriter(w, zstd.WithEncoderLevel(level))
		if err != nil {
			return err
		}
		enc = e
	}
	if _, err := io.Copy(enc, bytes.NewReader(pix)); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// nrgbaPix returns src's pixels as tightly packed non-premultiplied RGBA.
func nrgbaPix(src image.Image) []byte {
	b := src.Bounds()
	rowLen := 4 * b.Dx()

	if m, ok := src.(*image.NRGBA); ok && (m.Stride == rowLen) {
		i := m.PixOffset(b.Min.X, b.Min.Y)
		return m.Pix[i : i+(rowLen*b.Dy())]
	}

	pix := make([]byte, rowLen*b.Dy())
	j := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			pix[j+0] = c.R
			pix[j+1] = c.G
			pix[j+2] = c.B
			pix[j+3] = c.A
			j += 4
		}
	}
	return pix
}

func readU32BE(b []byte) uint32 {
	return (uint32(b[0]) << 24) |
		(uint32(b[1]) << 16) |
		(uint32(b[2]) << 8) |
		(uint32(b[3]) << 0)
}

func writeU32BE(b []byte, u uint32) {
	b[0] = uint8(u >> 24)
	b[1] = uint8(u >> 16)
	b[2] = uint8(u >> 8)
	b[3] = uint8(u >> 0)
}
