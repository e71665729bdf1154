// Package lgt decodes .lgt light and fixture definitions.
//
// Two layouts share the extension. The nested layout defines Light blocks
// and Fixture blocks that reference a light by its header; the flat layout
// simply lists Position, TotalFlux and intensity lines, one of each per
// light. Decode tries the nested layout first and falls back to the flat one
// when the nested pass finds no lights or no fixtures.
package lgt

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"scenenorm/internal/diag"
	"scenenorm/internal/lines"
)

const format = "lgt"

// Dialect identifies which layout a file was decoded with.
type Dialect int

const (
	Nested Dialect = iota
	Flat
)

func (d Dialect) String() string {
	if d == Flat {
		return "flat"
	}
	return "nested"
}

// Light is one output record.
type Light struct {
	Position  []string
	TotalFlux []string
	Intensity []string
}

// Fields returns position, flux and intensity tokens concatenated.
func (l Light) Fields() []string {
	out := make([]string, 0, len(l.Position)+len(l.TotalFlux)+len(l.Intensity))
	out = append(out, l.Position...)
	out = append(out, l.TotalFlux...)
	return append(out, l.Intensity...)
}

// Result holds the decoded lights and the dialect that produced them.
type Result struct {
	Dialect Dialect
	Lights  []Light
}

// Decode reads a .lgt stream.
func Decode(r io.Reader, warn *diag.Collector) (*Result, error) {
	ls, err := lines.All(r)
	if err != nil {
		return nil, fmt.Errorf("lgt: read: %w", err)
	}

	blocks := parseBlocks(ls, warn)
	if !blocks.empty() {
		if err := blocks.unterminated(); err != nil {
			return nil, err
		}
		lights, err := blocks.resolve()
		if err != nil {
			return nil, err
		}
		return &Result{Dialect: Nested, Lights: lights}, nil
	}

	warn.Warn(0, "", "no Light/Fixture pairs found (%d lights, %d fixtures), reading flat layout",
		blocks.lights.len(), blocks.fixtures.len())
	lights, err := parseFlat(ls)
	if err != nil {
		return nil, err
	}
	return &Result{Dialect: Flat, Lights: lights}, nil
}

var flatFields = []string{"Position", "TotalFlux", "intensity"}

// parseFlat collects the flat layout's per-light lines. The i-th light is
// made of the i-th occurrence of each field.
func parseFlat(ls []lines.Line) ([]Light, error) {
	lists := make(map[string][][]string, len(flatFields))
	for _, ln := range ls {
		tokens := ln.Fields()
		for _, f := range flatFields {
			if tokens[0] == f {
				lists[f] = append(lists[f], tokens[1:])
				break
			}
		}
	}

	n := len(lists["Position"])
	for _, f := range flatFields[1:] {
		if len(lists[f]) != n {
			return nil, diag.Errorf(format, 0, diag.ErrMismatch,
				"%d Position lines but %d %s lines", n, len(lists[f]), f)
		}
	}

	out := make([]Light, n)
	for i := range out {
		out[i] = Light{
			Position:  lists["Position"][i],
			TotalFlux: lists["TotalFlux"][i],
			Intensity: lists["intensity"][i],
		}
	}
	return out, nil
}

// Write emits the light count followed by one line per light.
func Write(w io.Writer, lights []Light) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(lights))
	for _, l := range lights {
		fmt.Fprintln(bw, strings.Join(l.Fields(), " "))
	}
	return bw.Flush()
}
