// Package diag holds the two severities a decoder can report: recoverable
// warnings, collected per file, and fatal decode errors that abort one file.
package diag

import (
	"errors"
	"fmt"
)

// Sentinel causes for fatal decode errors. Match with errors.Is.
var (
	ErrMalformed    = errors.New("malformed field")
	ErrTruncated    = errors.New("unexpected end of input")
	ErrUnresolved   = errors.New("unresolved reference")
	ErrUnterminated = errors.New("unterminated block")
	ErrMismatch     = errors.New("record count mismatch")
)

// DecodeError is a fatal, per-file decode failure.
type DecodeError struct {
	Format string // "brs", "atr", "cam" or "lgt"
	Line   int    // source line number, 0 if not tied to a line
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s: %v", e.Format, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Format, e.Msg, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Errorf builds a DecodeError with a formatted message.
func Errorf(format string, line int, cause error, msg string, args ...any) *DecodeError {
	return &DecodeError{
		Format: format,
		Line:   line,
		Msg:    fmt.Sprintf(msg, args...),
		Err:    cause,
	}
}

// Warning is a recoverable anomaly. Decoding of the file continues.
type Warning struct {
	Line  int
	Field string
	Msg   string
}

func (w Warning) String() string {
	var s string
	if w.Line > 0 {
		s = fmt.Sprintf("line %d: ", w.Line)
	}
	if w.Field != "" {
		s += w.Field + ": "
	}
	return s + w.Msg
}

// Collector accumulates warnings for one decode pass.
// The zero value is ready to use. A nil *Collector discards warnings.
type Collector struct {
	warnings []Warning
}

// Warn records a warning.
func (c *Collector) Warn(line int, field, msg string, args ...any) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, Warning{
		Line:  line,
		Field: field,
		Msg:   fmt.Sprintf(msg, args...),
	})
}

// Warnings returns the collected warnings in the order they were raised.
func (c *Collector) Warnings() []Warning {
	if c == nil {
		return nil
	}
	return c.warnings
}

// Len returns the number of collected warnings.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.warnings)
}
