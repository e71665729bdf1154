// Package atr decodes .atr material (surface attribute) definitions.
//
// Definitions are not delimited explicitly. Every vocabulary key collects its
// occurrences in source order and the i-th material takes the i-th
// occurrence of each key; the number of materials is the number of kd
// occurrences. A file that lists keys in inconsistent order across
// definitions therefore yields shifted values rather than an error.
package atr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"scenenorm/internal/diag"
	"scenenorm/internal/lines"
)

const format = "atr"

const (
	openKeyword = "Attr"
	terminator  = "enddef"
)

// Keys in emission order. "color" expands to three components.
var Keys = []string{"kd", "ks", "gs", "ka", "color", "kts", "eta", "ktd"}

// DefaultScalar is emitted for a scalar missing from a material.
const DefaultScalar = "0.0000"

// Material is one output record. Scalars are kept verbatim.
type Material struct {
	KD, KS, GS, KA string
	Color          [3]float64 // normalized to [0,1]
	KTS, ETA, KTD  string
}

// Fields returns the record in emission order.
func (m Material) Fields() []string {
	return []string{
		m.KD, m.KS, m.GS, m.KA,
		formatComponent(m.Color[0]), formatComponent(m.Color[1]), formatComponent(m.Color[2]),
		m.KTS, m.ETA, m.KTD,
	}
}

func formatComponent(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

type occurrence struct {
	line   int
	values []string
}

// Decode reads a .atr stream. Missing scalars are defaulted and reported on
// warn.
func Decode(r io.Reader, warn *diag.Collector) ([]Material, error) {
	seen := make(map[string][]occurrence, len(Keys))
	known := make(map[string]bool, len(Keys))
	for _, k := range Keys {
		known[k] = true
	}

	s := lines.NewScanner(r)
	for s.Scan() {
		ln := s.Line()
		if ln.HasPrefix(openKeyword) || ln.HasPrefix(terminator) {
			continue
		}
		tokens := ln.Fields()
		key := tokens[0]
		if !known[key] {
			continue
		}
		if len(tokens) < 2 {
			return nil, diag.Errorf(format, ln.Num, diag.ErrMalformed, "%s has no value", key)
		}
		seen[key] = append(seen[key], occurrence{line: ln.Num, values: tokens[1:]})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("atr: read: %w", err)
	}

	n := len(seen["kd"])
	out := make([]Material, 0, n)
	for i := 0; i < n; i++ {
		line := seen["kd"][i].line
		scalar := func(key string) string {
			occ := seen[key]
			if i >= len(occ) {
				warn.Warn(line, key, "value missing for material %d, using %s", i+1, DefaultScalar)
				return DefaultScalar
			}
			return occ[i].values[0]
		}

		m := Material{
			KD: scalar("kd"),
			KS: scalar("ks"),
			GS: scalar("gs"),
			KA: scalar("ka"),
		}
		color, err := decodeColor(seen["color"], i, line, warn)
		if err != nil {
			return nil, err
		}
		m.Color = color
		m.KTS = scalar("kts")
		m.ETA = scalar("eta")
		m.KTD = scalar("ktd")
		out = append(out, m)
	}
	return out, nil
}

func decodeColor(occ []occurrence, i, kdLine int, warn *diag.Collector) ([3]float64, error) {
	var c [3]float64
	if i >= len(occ) {
		return c, diag.Errorf(format, kdLine, diag.ErrMismatch, "material %d has no color", i+1)
	}
	o := occ[i]
	if len(o.values) < 3 {
		return c, diag.Errorf(format, o.line, diag.ErrMalformed, "color has %d components, want 3", len(o.values))
	}
	if len(o.values) > 3 {
		warn.Warn(o.line, "color", "ignoring %d extra components", len(o.values)-3)
	}
	for j := 0; j < 3; j++ {
		v, err := strconv.ParseFloat(o.values[j], 64)
		if err != nil {
			return c, diag.Errorf(format, o.line, diag.ErrMalformed, "color component %q", o.values[j])
		}
		c[j] = v / 255.0
	}
	return c, nil
}

// Write emits the record count followed by one line per material.
func Write(w io.Writer, materials []Material) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d\n", len(materials))
	for _, m := range materials {
		fmt.Fprintln(bw, strings.Join(m.Fields(), " "))
	}
	return bw.Flush()
}
