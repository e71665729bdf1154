// Package lines turns a raw scene-description stream into cleaned logical
// lines: trimmed, whitespace collapsed, with blank and comment lines removed.
// Every decoder reads its input through this package.
package lines

import (
	"bufio"
	"io"
	"strings"
)

// Comment markers recognized at the start of a trimmed line.
var commentMarkers = []string{";;", "//"}

// Line is one cleaned source line.
type Line struct {
	Num  int    // 1-based line number in the source stream
	Text string // tokens separated by single spaces
}

// Fields returns the line's tokens.
func (l Line) Fields() []string {
	return strings.Split(l.Text, " ")
}

// HasPrefix reports whether the line text starts with prefix.
func (l Line) HasPrefix(prefix string) bool {
	return strings.HasPrefix(l.Text, prefix)
}

// Scanner yields cleaned lines on demand, in source order.
type Scanner struct {
	sc   *bufio.Scanner
	num  int
	line Line
}

// NewScanner returns a Scanner reading from r. Each Scanner is an
// independent pass over r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Scanner{sc: sc}
}

// Scan advances to the next cleaned line. It returns false at end of input
// or on a read error; check Err afterwards.
func (s *Scanner) Scan() bool {
	for s.sc.Scan() {
		s.num++
		text, ok := Clean(s.sc.Text())
		if !ok {
			continue
		}
		s.line = Line{Num: s.num, Text: text}
		return true
	}
	return false
}

// Line returns the line produced by the last successful Scan.
func (s *Scanner) Line() Line {
	return s.line
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.sc.Err()
}

// Clean normalizes a single raw line. ok is false when the line is blank or
// a comment and must be dropped.
func Clean(raw string) (text string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	for _, m := range commentMarkers {
		if strings.HasPrefix(raw, m) {
			return "", false
		}
	}
	return strings.Join(strings.Fields(raw), " "), true
}

// All reads every cleaned line from r.
func All(r io.Reader) ([]Line, error) {
	var out []Line
	s := NewScanner(r)
	for s.Scan() {
		out = append(out, s.Line())
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
