// Package convert dispatches one source file to its decoder by extension and
// writes the normalized result.
package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"

	"scenenorm/internal/atr"
	"scenenorm/internal/brs"
	"scenenorm/internal/cam"
	"scenenorm/internal/diag"
	"scenenorm/internal/lgt"
)

// Kind is a source format, named by its file extension.
type Kind string

const (
	Mesh     Kind = "brs"
	Material Kind = "atr"
	Camera   Kind = "cam"
	Light    Kind = "lgt"
)

// Kinds lists every supported format.
var Kinds = []Kind{Mesh, Material, Camera, Light}

// KindOf returns the format for path, or false for unsupported extensions.
func KindOf(path string) (Kind, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	for _, k := range Kinds {
		if ext == string(k) {
			return k, true
		}
	}
	return "", false
}

// Outcome describes one successful conversion.
type Outcome struct {
	Kind     Kind
	Records  int
	Dialect  string // lgt only
	Warnings []diag.Warning
}

// Decode converts r into w using the decoder for kind. Nothing is written to
// w when decoding fails.
func Decode(kind Kind, r io.Reader, w io.Writer) (Outcome, error) {
	var (
		warn diag.Collector
		buf  bytes.Buffer
		out  = Outcome{Kind: kind}
	)

	switch kind {
	case Mesh:
		m, err := brs.Decode(r)
		if err != nil {
			return out, err
		}
		out.Records = m.Records()
		if err := m.Write(&buf); err != nil {
			return out, err
		}
	case Material:
		mats, err := atr.Decode(r, &warn)
		if err != nil {
			return out, err
		}
		out.Records = len(mats)
		if err := atr.Write(&buf, mats); err != nil {
			return out, err
		}
	case Camera:
		c, err := cam.Decode(r)
		if err != nil {
			return out, err
		}
		out.Records = len(c.Lines)
		if err := c.Write(&buf); err != nil {
			return out, err
		}
	case Light:
		res, err := lgt.Decode(r, &warn)
		if err != nil {
			return out, err
		}
		out.Records = len(res.Lights)
		out.Dialect = res.Dialect.String()
		if err := lgt.Write(&buf, res.Lights); err != nil {
			return out, err
		}
	default:
		return out, fmt.Errorf("convert: unsupported kind %q", kind)
	}

	out.Warnings = warn.Warnings()
	if _, err := buf.WriteTo(w); err != nil {
		return out, fmt.Errorf("convert: write: %w", err)
	}
	return out, nil
}

// Options control a file conversion.
type Options struct {
	// Charset decodes source bytes before normalization. Nil means UTF-8.
	Charset encoding.Encoding
}

// Reader wraps r so that it yields UTF-8 text. A nil charset returns r
// unchanged.
func Reader(r io.Reader, charset encoding.Encoding) io.Reader {
	if charset == nil {
		return r
	}
	return charset.NewDecoder().Reader(r)
}

// File converts src into dst, creating dst's directory. dst is only created
// once decoding has succeeded.
func File(src, dst string, opts Options) (Outcome, error) {
	kind, ok := KindOf(src)
	if !ok {
		return Outcome{}, fmt.Errorf("convert: unsupported file type: %s", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return Outcome{Kind: kind}, fmt.Errorf("convert: open %s: %w", src, err)
	}
	defer in.Close()

	var buf bytes.Buffer
	out, err := Decode(kind, Reader(in, opts.Charset), &buf)
	if err != nil {
		return out, err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return out, fmt.Errorf("convert: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return out, fmt.Errorf("convert: %w", err)
	}
	defer f.Close()

	if _, err := buf.WriteTo(f); err != nil {
		return out, fmt.Errorf("convert: write %s: %w", dst, err)
	}
	return out, f.Close()
}
