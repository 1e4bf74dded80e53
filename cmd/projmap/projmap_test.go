// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestParsePoint(tt *testing.T) {
	testCases := []struct {
		s    string
		sep  string
		want image.Point
		ok   bool
	}{
		{"3,4", ",", image.Pt(3, 4), true},
		{" 3 , 4 ", ",", image.Pt(3, 4), true},
		{"64x32", "x", image.Pt(64, 32), true},
		{"3", ",", image.Point{}, false},
		{"-1,4", ",", image.Point{}, false},
		{"a,4", ",", image.Point{}, false},
		{"3,", ",", image.Point{}, false},
	}

	for _, tc := range testCases {
		got, err := parsePoint(tc.s, tc.sep)
		if (err == nil) != tc.ok {
			tt.Errorf("tc=%q: err: got %v, want ok=%t", tc.s, err, tc.ok)
			continue
		}
		if got != tc.want {
			tt.Errorf("tc=%q: got %v, want %v", tc.s, got, tc.want)
		}
	}
}

func newSourcePNG(tt *testing.T, w int, h int, hidden image.Point) []byte {
	tt.Helper()
	m := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetNRGBA(x, y, color.NRGBA{R: 0x80, G: 0x40, B: 0x20, A: 0xFF})
		}
	}
	m.SetNRGBA(hidden.X, hidden.Y, color.NRGBA{})
	buf := &bytes.Buffer{}
	if err := png.Encode(buf, m); err != nil {
		tt.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestBuildThenLocate(tt *testing.T) {
	src := newSourcePNG(tt, 12, 9, image.Pt(7, 5))

	for _, output := range []string{"png", "nie-bn4", "pmap"} {
		func() {
			orig := *outputFlag
			defer func() { *outputFlag = orig }()
			*outputFlag = output

			mapBytes := &bytes.Buffer{}
			if err := build(mapBytes, bytes.NewReader(src), "src"); err != nil {
				tt.Errorf("output=%q: build: %v", output, err)
				return
			}

			testCases := []struct {
				p    image.Point
				want string
			}{
				{image.Pt(7, 5), "7,5 masked\n"},
				{image.Pt(0, 0), "0,0 visible\n"},
				{image.Pt(11, 8), "11,8 visible\n"},
			}
			for _, tc := range testCases {
				out := &bytes.Buffer{}
				if err := locate(out, bytes.NewReader(mapBytes.Bytes()), tc.p, 0); err != nil {
					tt.Errorf("output=%q, p=%v: locate: %v", output, tc.p, err)
					continue
				}
				if got := out.String(); got != tc.want {
					tt.Errorf("output=%q, p=%v: got %q, want %q", output, tc.p, got, tc.want)
				}
			}

			if err := locate(&bytes.Buffer{}, bytes.NewReader(mapBytes.Bytes()), image.Pt(12, 0), 0); err == nil {
				tt.Errorf("output=%q: out of bounds: got nil error", output)
			}
		}()
	}
}

func TestBuildBadOutputFlag(tt *testing.T) {
	orig := *outputFlag
	defer func() { *outputFlag = orig }()
	*outputFlag = "jpeg"

	if err := build(&bytes.Buffer{}, bytes.NewReader(nil), "x"); err != ErrBadOutputFlag {
		tt.Errorf("got %v, want %v", err, ErrBadOutputFlag)
	}
}
