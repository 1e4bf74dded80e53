// Copyright 2026 The Projmap Authors.
//
// Licensed under the Apache License, Version 2.0 <LICENSE-APACHE or
// https://www.apache.org/licenses/LICENSE-2.0>. This file may not be copied,
// modified, or distributed except according to those terms.
//
// SPDX-License-Identifier: Apache-2.0

package projmap

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/nigeltao/projmap/lib/tile"
)

// State is a Builder's progress through a run.
type State uint8

const (
	StateInit               = State(0)
	StatePass1Scanning      = State(1)
	StateCompactionComputed = State(2)
	StatePass2Encoding      = State(3)
	StateFinalizing         = State(4)
	StateDone               = State(5)

	// StateErrorReported is never a Builder's current state. It is recorded
	// in Result.States after the state in which a message was reported.
	StateErrorReported = State(6)
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StatePass1Scanning:
		return "pass1-scanning"
	case StateCompactionComputed:
		return "compaction-computed"
	case StatePass2Encoding:
		return "pass2-encoding"
	case StateFinalizing:
		return "finalizing"
	case StateDone:
		return "done"
	case StateErrorReported:
		return "error-reported"
	}
	return "invalid"
}

// EncodingScanError is a failure while encoding a tile. A failed read skips
// the tile. A malformed tile (see ErrBadTile) aborts the encoding pass.
type EncodingScanError struct {
	Tile tile.Tile
	Err  error
}

func (e *EncodingScanError) Error() string {
	return fmt.Sprintf("projmap: encoding tile %d,%d %v: %v", e.Tile.Col, e.Tile.Row, e.Tile.Rect, e.Err)
}

func (e *EncodingScanError) Unwrap() error { return e.Err }

// Result is the outcome of a run.
type Result struct {
	// Layer is the map layer. It is committed even when Errors is non-empty.
	Layer *MapLayer

	// Position is the index at which Layer was inserted into the Image.
	Position int

	// Coverage is diagnostic only. It does not affect the encoding.
	Coverage *Coverage

	Factor Factor

	// Aborted is whether the encoding pass stopped before the last tile.
	Aborted bool

	// Errors holds every reported error, in order. Each element is a
	// *CoverageScanError, an *EncodingScanError or an error from
	// Image.InsertLayer.
	Errors []error

	// States lists the states visited, starting with StateInit.
	States []State
}

// Builder runs the map-building state machine one state at a time. Most
// callers should use Build instead.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	img      Image
	src      Layer
	grid     tile.Grid
	progress Progress
	messages Messages

	state  State
	states []State

	out      *MapLayer
	pos      int
	coverage *Coverage
	factor   Factor
	aborted  bool
	errs     []error

	// failed holds the tiles, by column and row, whose errors were reported.
	failed map[[2]int]bool
}

// NewBuilder returns a Builder, in StateInit, that maps src and inserts the
// result into img.
//
// options may be nil, which means to use the default configuration.
func NewBuilder(img Image, src Layer, options *Options) (*Builder, error) {
	if (img == nil) || (src == nil) {
		return nil, ErrBadArgument
	}
	opts := Options{}
	if options != nil {
		opts = *options
	}

	size := opts.TileSize
	if size == (image.Point{}) {
		size = src.TileSize()
	}
	if size == (image.Point{}) {
		size = DefaultTileSize
	}
	g, err := tile.NewGrid(src.Bounds(), size, opts.Order)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		img:      img,
		src:      src,
		grid:     g,
		progress: opts.Progress,
		messages: opts.Messages,
		state:    StateInit,
		states:   []State{StateInit},
		failed:   map[[2]int]bool{},
	}
	if b.progress == nil {
		b.progress = nopProgress{}
	}
	if b.messages == nil {
		b.messages = logMessages{}
	}
	return b, nil
}

// State returns the current state.
func (b *Builder) State() State { return b.state }

// Step performs the current state's work and moves to the next state. It
// returns false, doing nothing, once StateDone is reached.
func (b *Builder) Step() bool {
	switch b.state {
	case StateInit:
		b.init()
		b.enter(StatePass1Scanning)
	case StatePass1Scanning:
		b.scan()
		b.enter(StateCompactionComputed)
	case StateCompactionComputed:
		b.compact()
		b.enter(StatePass2Encoding)
	case StatePass2Encoding:
		b.encode()
		b.enter(StateFinalizing)
	case StateFinalizing:
		b.finalize()
		b.enter(StateDone)
	default:
		return false
	}
	return true
}

// Run steps until StateDone and returns the Result.
func (b *Builder) Run() *Result {
	for b.Step() {
	}
	return &Result{
		Layer:    b.out,
		Position: b.pos,
		Coverage: b.coverage,
		Factor:   b.factor,
		Aborted:  b.aborted,
		Errors:   slices.Clone(b.errs),
		States:   slices.Clone(b.states),
	}
}

// Build maps src, inserting a new layer named src.Name()+NameSuffix into img
// immediately before src.
//
// Errors reading tiles do not stop the run. They are sent to the Messages
// sink and collected in the Result. The returned error is non-nil only for
// invalid arguments, in which case img is left untouched.
//
// options may be nil, which means to use the default configuration.
func Build(img Image, src Layer, options *Options) (*Result, error) {
	b, err := NewBuilder(img, src, options)
	if err != nil {
		return nil, err
	}
	return b.Run(), nil
}

func (b *Builder) enter(s State) {
	b.state = s
	b.states = append(b.states, s)
	Logger().Debug("projmap: state", "layer", b.src.Name(), "state", s.String())
}

func (b *Builder) report(msg string, err error) {
	b.errs = append(b.errs, err)
	b.messages.Message(msg)
	if b.states[len(b.states)-1] != StateErrorReported {
		b.states = append(b.states, StateErrorReported)
	}
}

func (b *Builder) init() {
	b.img.UndoGroupStart()
	b.progress.Init("Mapping " + b.src.Name() + "...")

	b.pos = max(0, slices.Index(b.img.Layers(), b.src))

	b.out = NewMapLayer(b.src.Name()+NameSuffix, b.grid.Bounds(), b.grid.Size())
	b.out.Clear()
	if err := b.img.InsertLayer(b.out, b.pos); err != nil {
		b.report("Unexpected error: "+err.Error(), err)
	}

	Logger().Debug("projmap: grid",
		"layer", b.src.Name(),
		"bounds", b.grid.Bounds().String(),
		"tile", b.grid.Size().String(),
		"cols", b.grid.Cols(),
		"rows", b.grid.Rows(),
		"order", b.grid.Order().String())
}

func (b *Builder) scan() {
	c, errs := Scan(b.src, b.grid)
	b.coverage = c
	for _, err := range errs {
		b.failed[[2]int{err.Tile.Col, err.Tile.Row}] = true
		b.report("Error calculating map colors: "+err.Error(), err)
	}

	cols, rows := c.Counts()
	Logger().Info("projmap: coverage", "layer", b.src.Name(), "rows", rows, "cols", cols)
}

func (b *Builder) compact() {
	r := b.grid.Bounds()
	b.factor = CompactionFactor(r.Dx())
	Logger().Info("projmap: compaction", "layer", b.src.Name(), "width", r.Dx(), "factor", int(b.factor))

	if (((r.Dx() - 1) / int(b.factor)) >= MaxCoordinate) || ((r.Dy() - 1) >= MaxCoordinate) {
		Logger().Warn("projmap: layer is too large, map coordinates will alias",
			"layer", b.src.Name(), "width", r.Dx(), "height", r.Dy())
	}
}

func (b *Builder) encode() {
	n := float64(b.grid.Len())
	for k, t := range b.grid.All() {
		m, err := readMask(b.src, t)
		if errors.Is(err, ErrBadTile) {
			e := &EncodingScanError{Tile: t, Err: err}
			b.report("Unexpected error: "+e.Error(), e)
			b.aborted = true
			return
		} else if err != nil {
			key := [2]int{t.Col, t.Row}
			if !b.failed[key] {
				b.failed[key] = true
				e := &EncodingScanError{Tile: t, Err: err}
				b.report("Error reading tile: "+e.Error(), e)
			}
		} else {
			b.encodeTile(t.Rect, m)
		}
		b.progress.Update(float64(k) / n)
	}
}

func (b *Builder) encodeTile(r image.Rectangle, m *image.Alpha) {
	origin := b.grid.Bounds().Min
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := b.out.shadow.PixOffset(r.Min.X, y)
		j := m.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, i, j = x+1, i+4, j+1 {
			b.out.set(i, Encode(x-origin.X, y-origin.Y, m.Pix[j] == 0x00, b.factor))
		}
	}
	b.out.touch(r)
}

func (b *Builder) finalize() {
	b.out.Flush()
	b.out.MergeShadow(true)
	b.out.Update(b.out.Bounds())

	b.img.UndoGroupEnd()
	b.progress.End()
}
