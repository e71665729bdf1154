// Package cam decodes .cam camera definitions. Keywords are inlined with
// their values in this format, so decoding strips every alphabetic run and
// keeps the numbers in source order.
package cam

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"scenenorm/internal/lines"
)

const (
	openKeyword = "Camera"
	terminator  = "enddef"
)

var alpha = regexp.MustCompile(`[A-Za-z]+`)

// Camera is the numeric line stream of one camera file.
type Camera struct {
	Lines []string
}

// Decode reads a .cam stream. Exponent notation does not survive the
// alphabetic strip ("1e-3" becomes "1-3").
func Decode(r io.Reader) (*Camera, error) {
	c := &Camera{}
	s := lines.NewScanner(r)
	for s.Scan() {
		ln := s.Line()
		if ln.HasPrefix(openKeyword) || ln.HasPrefix(terminator) {
			continue
		}
		if text := Strip(ln.Text); text != "" {
			c.Lines = append(c.Lines, text)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("cam: read: %w", err)
	}
	return c, nil
}

// Strip removes alphabetic runs and re-collapses the remaining whitespace.
func Strip(text string) string {
	return strings.Join(strings.Fields(alpha.ReplaceAllString(text, "")), " ")
}

// Write emits the camera lines. There is no leading count.
func (c *Camera) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, l := range c.Lines {
		fmt.Fprintln(bw, l)
	}
	return bw.Flush()
}
