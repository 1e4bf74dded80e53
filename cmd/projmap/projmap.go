// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

// ----------------

// projmap builds projection maps, images whose pixels encode their own
// coordinates and mask state, and looks up coordinates in them.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nigeltao/projmap/internal/nie"
	"github.com/nigeltao/projmap/lib/canvas"
	"github.com/nigeltao/projmap/lib/mapfile"
	"github.com/nigeltao/projmap/lib/projmap"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var (
	buildFlag   = flag.Bool("build", false, "whether to build a map from the input")
	locateFlag  = flag.String("locate", "", "map pixel X,Y to decode")
	maskFlag    = flag.String("mask", "", "path to a grayscale mask image")
	outputFlag  = flag.String("output", "", "output format")
	tileFlag    = flag.String("tile", "", "tile size WxH")
	factorFlag  = flag.Int("factor", 0, "compaction factor of a PNG or NIE map")
	verboseFlag = flag.Bool("v", false, "whether to log progress to stderr")
)

const usageStr = `projmap builds projection maps and decodes their pixels.

Usage: choose one of

    projmap -build [path]
    projmap -locate=X,Y [path]

The path to the input image file is optional. If omitted, stdin is read.

When building you can also pass these flags (before the path):

    -mask=path (a grayscale image; black is masked out. The default is the
               input's alpha channel)
    -tile=WxH  (the default is 64x64)
    -output=nie-bn4
    -output=pmap
    -output=png (this is the default)

The map image (in NIE/PMAP/PNG format) is written to stdout.

When locating, the input is a map in NIE, PMAP or PNG format and the source
coordinates and mask state of pixel X,Y are written to stdout. PMAP maps
record their compaction factor. For other formats pass -factor=2 if the
source was wider than 4096 pixels.

Build inputs BMP, GIF, JPEG, PNG, TIFF or WEBP.

Pass -v to log diagnostics to stderr.
`

var ErrBadOutputFlag = errors.New("main: bad -output flag")

func main() {
	if err := main1(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func main1() error {
	flag.Usage = func() { os.Stderr.WriteString(usageStr) }
	flag.Parse()

	if *verboseFlag {
		projmap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	inFile, name := os.Stdin, "stdin"
	switch flag.NArg() {
	case 0:
		// No-op.
	case 1:
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		inFile = f
		name = strings.TrimSuffix(filepath.Base(flag.Arg(0)), filepath.Ext(flag.Arg(0)))
	default:
		return errors.New("too many filenames; the maximum is one")
	}

	if *buildFlag && (*locateFlag == "") {
		return build(os.Stdout, inFile, name)
	}
	if !*buildFlag && (*locateFlag != "") {
		p, err := parsePoint(*locateFlag, ",")
		if err != nil {
			return err
		}
		return locate(os.Stdout, inFile, p, projmap.Factor(*factorFlag))
	}
	return errors.New("must specify exactly one of -build, -locate or -help")
}

// stderrMessages prints user-facing diagnostics.
type stderrMessages struct{}

func (stderrMessages) Message(msg string) {
	os.Stderr.WriteString("projmap: " + msg + "\n")
}

// logProgress reports progress at the debug level.
type logProgress struct {
	label string
}

func (p *logProgress) Init(label string) {
	p.label = label
	projmap.Logger().Debug(label)
}

func (p *logProgress) Update(fraction float64) {
	projmap.Logger().Debug(p.label, "progress", fmt.Sprintf("%.1f%%", 100*fraction))
}

func (p *logProgress) End() {
	projmap.Logger().Debug(p.label, "progress", "done")
}

func build(w io.Writer, r io.Reader, name string) error {
	switch *outputFlag {
	case "", "nie-bn4", "pmap", "png":
		// No-op.
	default:
		return ErrBadOutputFlag
	}

	src, _, err := image.Decode(r)
	if err != nil {
		return err
	}

	layerOpts := &canvas.LayerOptions{}
	if *tileFlag != "" {
		size, err := parsePoint(*tileFlag, "x")
		if err != nil {
			return err
		}
		layerOpts.TileSize = size
	}
	if *maskFlag != "" {
		mask, err := readMask(*maskFlag)
		if err != nil {
			return err
		}
		layerOpts.Mask = mask
	}

	layer, err := canvas.NewLayer(name, src, layerOpts)
	if err != nil {
		return err
	}
	res, err := projmap.Build(canvas.NewImage(layer), layer, &projmap.Options{
		Progress: &logProgress{},
		Messages: stderrMessages{},
	})
	if err != nil {
		return err
	}

	return writeMap(w, res.Layer.Image(), res.Factor)
}

func writeMap(w io.Writer, m *image.NRGBA, f projmap.Factor) error {
	switch *outputFlag {
	case "nie-bn4":
		dst, err := nie.EncodeBN4(m)
		if err != nil {
			return err
		}
		_, err = w.Write(dst)
		return err
	case "pmap":
		return mapfile.Encode(w, m, &mapfile.EncodeOptions{Factor: f})
	}
	return png.Encode(w, m)
}

func readMask(path string) (*image.Alpha, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	return canvas.MaskFromGray(m), nil
}

func locate(w io.Writer, r io.Reader, p image.Point, f projmap.Factor) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	var m image.Image
	if bytes.HasPrefix(data, []byte(mapfile.Magic)) {
		h, pm, err := mapfile.DecodeMap(bytes.NewReader(data))
		if err != nil {
			return err
		}
		m = pm
		if f == 0 {
			f = h.Factor
		}
	} else {
		m, _, err = image.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
	}
	if f == 0 {
		f = 1
	} else if (f != 1) && (f != 2) {
		return errors.New("bad -factor flag; it must be 1 or 2")
	}

	p = p.Add(m.Bounds().Min)
	if !p.In(m.Bounds()) {
		return fmt.Errorf("pixel %d,%d is outside the map's bounds %v", p.X, p.Y, m.Bounds())
	}

	c := color.NRGBAModel.Convert(m.At(p.X, p.Y)).(color.NRGBA)
	x, y, maskedOut := projmap.Decode(c, f)
	state := "visible"
	if maskedOut {
		state = "masked"
	}
	_, err = fmt.Fprintf(w, "%d,%d %s\n", x, y, state)
	return err
}

// parsePoint parses two non-negative integers separated by sep.
func parsePoint(s string, sep string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, sep)
	if !ok {
		return image.Point{}, fmt.Errorf("bad point %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil || (x < 0) {
		return image.Point{}, fmt.Errorf("bad point %q", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil || (y < 0) {
		return image.Point{}, fmt.Errorf("bad point %q", s)
	}
	return image.Point{X: x, Y: y}, nil
}
