// Package brs decodes .brs mesh descriptions into the renderer's mesh
// format: vertex count, vertex rows, triangle count, triangle rows, then the
// part (surface assignment) lines.
package brs

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"scenenorm/internal/diag"
	"scenenorm/internal/lines"
)

const format = "brs"

// partsMarker flags header noise inside the part section.
const partsMarker = "parts"

var nonCount = regexp.MustCompile(`[^0-9.-]`)

// Mesh holds the decoded tokens. Values are kept verbatim.
type Mesh struct {
	Vertices  [][3]string
	Triangles [][3]string
	Parts     [][]string
}

type state int

const (
	expectVertexCount state = iota
	readVertices
	expectTriangleCount
	readTriangles
	readParts
)

func (s state) String() string {
	switch s {
	case expectVertexCount:
		return "vertex count"
	case readVertices:
		return "vertices"
	case expectTriangleCount:
		return "triangle count"
	case readTriangles:
		return "triangles"
	default:
		return "parts"
	}
}

// Decode reads a .brs stream.
func Decode(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	st := expectVertexCount
	remaining := 0
	lastLine := 0

	s := lines.NewScanner(r)
	for s.Scan() {
		ln := s.Line()
		lastLine = ln.Num

		switch st {
		case expectVertexCount:
			n, err := parseCount(ln)
			if err != nil {
				return nil, err
			}
			m.Vertices = make([][3]string, 0, n)
			remaining = n
			st = readVertices
			if n == 0 {
				st = expectTriangleCount
			}

		case readVertices:
			row, err := triple(ln, "vertex")
			if err != nil {
				return nil, err
			}
			m.Vertices = append(m.Vertices, row)
			remaining--
			if remaining == 0 {
				st = expectTriangleCount
			}

		case expectTriangleCount:
			n, err := parseCount(ln)
			if err != nil {
				return nil, err
			}
			m.Triangles = make([][3]string, 0, n)
			remaining = n
			st = readTriangles
			if n == 0 {
				st = readParts
			}

		case readTriangles:
			row, err := triple(ln, "triangle")
			if err != nil {
				return nil, err
			}
			m.Triangles = append(m.Triangles, row)
			remaining--
			if remaining == 0 {
				// the part budget is one token per triangle
				remaining = len(m.Triangles)
				st = readParts
			}

		case readParts:
			if remaining <= 0 || strings.Contains(ln.Text, partsMarker) {
				continue
			}
			tokens := ln.Fields()
			m.Parts = append(m.Parts, tokens)
			remaining -= len(tokens)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("brs: read: %w", err)
	}

	if st < readParts {
		return nil, diag.Errorf(format, lastLine, diag.ErrTruncated,
			"input ended while reading %s (%d outstanding)", st, remaining)
	}
	return m, nil
}

// parseCount keeps only digits, '.' and '-' and parses the rest as an
// integer count.
func parseCount(ln lines.Line) (int, error) {
	digits := nonCount.ReplaceAllString(ln.Text, "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, diag.Errorf(format, ln.Num, diag.ErrMalformed, "count %q is not an integer", ln.Text)
	}
	if n < 0 {
		return 0, diag.Errorf(format, ln.Num, diag.ErrMalformed, "negative count %d", n)
	}
	return n, nil
}

func triple(ln lines.Line, what string) ([3]string, error) {
	tokens := ln.Fields()
	if len(tokens) != 3 {
		return [3]string{}, diag.Errorf(format, ln.Num, diag.ErrMismatch,
			"%s line has %d values, want 3", what, len(tokens))
	}
	return [3]string{tokens[0], tokens[1], tokens[2]}, nil
}

// Write emits the normalized mesh. bufio.Writer keeps the first write
// error, so only Flush is checked.
func (m *Mesh) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%d\n", len(m.Vertices))
	for _, v := range m.Vertices {
		fmt.Fprintf(bw, "%s %s %s\n", v[0], v[1], v[2])
	}
	fmt.Fprintf(bw, "%d\n", len(m.Triangles))
	for _, t := range m.Triangles {
		fmt.Fprintf(bw, "%s %s %s\n", t[0], t[1], t[2])
	}
	for _, p := range m.Parts {
		fmt.Fprintln(bw, strings.Join(p, " "))
	}
	return bw.Flush()
}

// Records returns the number of vertex and triangle rows.
func (m *Mesh) Records() int {
	return len(m.Vertices) + len(m.Triangles)
}
