// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package mapfile

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/nigeltao/projmap/lib/projmap"
)

func newTestMap(w int, h int, f projmap.Factor) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, projmap.Encode(x, y, ((x*y)%3) == 0, f))
		}
	}
	return m
}

func TestEncodeDecode(tt *testing.T) {
	testCases := []struct {
		w, h  int
		f     projmap.Factor
		level zstd.EncoderLevel
	}{
		{1, 1, 1, 0},
		{10, 10, 1, 0},
		{37, 5, 1, zstd.SpeedBestCompression},
		{300, 2, 2, zstd.SpeedFastest},
		{0, 0, 1, 0},
	}

	for _, tc := range testCases {
		src := newTestMap(tc.w, tc.h, tc.f)
		buf := &bytes.Buffer{}
		if err := Encode(buf, src, &EncodeOptions{Factor: tc.f, Level: tc.level}); err != nil {
			tt.Errorf("tc=%v: Encode: %v", tc, err)
			continue
		}
		if got := buf.Bytes()[:4]; string(got) != Magic {
			tt.Errorf("tc=%v: magic: got % 02X", tc, got)
		}

		h, got, err := DecodeMap(bytes.NewReader(buf.Bytes()))
		if err != nil {
			tt.Errorf("tc=%v: DecodeMap: %v", tc, err)
			continue
		}
		if want := (Header{Factor: tc.f, Width: tc.w, Height: tc.h}); h != want {
			tt.Errorf("tc=%v: header: got %+v, want %+v", tc, h, want)
		}
		if !bytes.Equal(got.Pix, src.Pix) {
			tt.Errorf("tc=%v: pixels differ", tc)
		}
	}
}

func TestImageDecodeIsRegistered(tt *testing.T) {
	src := newTestMap(6, 4, 1)
	buf := &bytes.Buffer{}
	if err := Encode(buf, src, nil); err != nil {
		tt.Fatalf("Encode: %v", err)
	}

	config, name, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		tt.Fatalf("image.DecodeConfig: %v", err)
	}
	if (name != "pmap") || (config.Width != 6) || (config.Height != 4) {
		tt.Errorf("got %q %dx%d, want \"pmap\" 6x4", name, config.Width, config.Height)
	}

	m, _, err := image.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		tt.Fatalf("image.Decode: %v", err)
	}
	if got, want := m.(*image.NRGBA).NRGBAAt(5, 3), src.NRGBAAt(5, 3); got != want {
		tt.Errorf("pixel (5, 3): got %v, want %v", got, want)
	}
}

func TestEncodeConvertsOtherImageTypes(tt *testing.T) {
	src := image.NewRGBA(image.Rect(2, 2, 4, 3))
	src.SetRGBA(3, 2, color.RGBA{R: 0x40, A: 0x80})

	buf := &bytes.Buffer{}
	if err := Encode(buf, src, nil); err != nil {
		tt.Fatalf("Encode: %v", err)
	}
	_, got, err := DecodeMap(bytes.NewReader(buf.Bytes()))
	if err != nil {
		tt.Fatalf("DecodeMap: %v", err)
	}
	if c, want := got.NRGBAAt(1, 0), (color.NRGBA{R: 0x7F, A: 0x80}); c != want {
		tt.Errorf("got %v, want %v", c, want)
	}
}

func TestDecodeRejectsBadHeaders(tt *testing.T) {
	good := &bytes.Buffer{}
	if err := Encode(good, newTestMap(2, 2, 2), &EncodeOptions{Factor: 2}); err != nil {
		tt.Fatalf("Encode: %v", err)
	}

	testCases := []struct {
		name   string
		offset int
		value  byte
		want   error
	}{
		{"magic", 0, 'Q', ErrNotAPMAPFile},
		{"version", 4, 0x02, ErrNotAPMAPFile},
		{"factor", 5, 0x03, ErrNotAPMAPFile},
		{"reserved", 7, 0x01, ErrNotAPMAPFile},
		{"width", 8, 0x01, ErrImageIsTooLarge},
	}

	for _, tc := range testCases {
		data := bytes.Clone(good.Bytes())
		data[tc.offset] = tc.value
		if _, err := DecodeConfig(bytes.NewReader(data)); err != tc.want {
			tt.Errorf("tc=%q: got %v, want %v", tc.name, err, tc.want)
		}
	}

	if _, _, err := DecodeMap(bytes.NewReader(good.Bytes()[:19])); err == nil {
		tt.Errorf("truncated: got nil error")
	}
}

func TestEncodeBadArgument(tt *testing.T) {
	m := newTestMap(1, 1, 1)
	if err := Encode(&bytes.Buffer{}, m, &EncodeOptions{Factor: 3}); err != ErrBadArgument {
		tt.Errorf("factor 3: got %v, want %v", err, ErrBadArgument)
	}
	if err := Encode(&bytes.Buffer{}, nil, nil); err != ErrBadArgument {
		tt.Errorf("nil image: got %v, want %v", err, ErrBadArgument)
	}
	big := image.NewNRGBA(image.Rect(0, 0, maxDimension+1, 1))
	if err := Encode(&bytes.Buffer{}, big, nil); err != ErrImageIsTooLarge {
		tt.Errorf("too wide: got %v, want %v", err, ErrImageIsTooLarge)
	}
}
