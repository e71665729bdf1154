package lgt

import (
	"strings"

	"scenenorm/internal/diag"
	"scenenorm/internal/lines"
)

type blockKind int

const (
	kindOther blockKind = iota
	kindLight
	kindFixture
)

// Header keywords. A header is recognized by prefix;
// the block kind is decided by the exact first token.
const (
	lightKeyword   = "Light"
	fixtureKeyword = "Fixture"
	terminator     = "enddef"
)

// Fields kept after a block closes.
var (
	lightFields   = []string{"TotalFlux", "intensity"}
	fixtureFields = []string{"Light", "Position"}
)

// frame is one open block on the parse stack.
type frame struct {
	kind     blockKind
	key      string
	line     int
	children []lines.Line
}

func newFrame(ln lines.Line) *frame {
	f := &frame{key: ln.Text, line: ln.Num}
	switch ln.Fields()[0] {
	case lightKeyword:
		f.kind = kindLight
	case fixtureKeyword:
		f.kind = kindFixture
	}
	return f
}

// project filters the frame's children down to the fields its kind keeps.
// Blocks of other kinds keep nothing.
func (f *frame) project() []lines.Line {
	var keep []string
	switch f.kind {
	case kindLight:
		keep = lightFields
	case kindFixture:
		keep = fixtureFields
	default:
		return nil
	}
	var out []lines.Line
	for _, c := range f.children {
		if hasKey(c, keep) {
			out = append(out, c)
		}
	}
	return out
}

func hasKey(ln lines.Line, keys []string) bool {
	first := ln.Fields()[0]
	for _, k := range keys {
		if first == k {
			return true
		}
	}
	return false
}

// registry maps a block header key to its projected children, remembering
// the order in which keys were first registered.
type registry struct {
	order   []string
	headers map[string]int
	entries map[string][]lines.Line
}

func newRegistry() *registry {
	return &registry{
		headers: make(map[string]int),
		entries: make(map[string][]lines.Line),
	}
}

// add registers children under key. A key closed twice accumulates.
func (r *registry) add(key string, header int, children []lines.Line) {
	if _, ok := r.entries[key]; !ok {
		r.order = append(r.order, key)
		r.headers[key] = header
		r.entries[key] = []lines.Line{}
	}
	r.entries[key] = append(r.entries[key], children...)
}

func (r *registry) get(key string) ([]lines.Line, bool) {
	c, ok := r.entries[key]
	return c, ok
}

func (r *registry) len() int {
	return len(r.order)
}

// blockResult is the outcome of the nested-block pass.
type blockResult struct {
	lights   *registry
	fixtures *registry
	unclosed *frame // innermost block still open at end of input
}

// empty reports whether the pass found nothing to resolve, which means the
// file is written in the flat dialect.
func (b *blockResult) empty() bool {
	return b.lights.len() == 0 || b.fixtures.len() == 0
}

// unterminated returns an error if a block was left open.
func (b *blockResult) unterminated() error {
	if b.unclosed == nil {
		return nil
	}
	return diag.Errorf(format, b.unclosed.line, diag.ErrUnterminated, "%q has no %s", b.unclosed.key, terminator)
}

// parseBlocks runs the nested-block dialect over ls. A block left open at
// the end is recorded, not rejected: flat files may carry a stray header.
func parseBlocks(ls []lines.Line, warn *diag.Collector) *blockResult {
	res := &blockResult{lights: newRegistry(), fixtures: newRegistry()}
	var stack []*frame

	for _, ln := range ls {
		if len(stack) == 0 {
			if ln.HasPrefix(lightKeyword) || ln.HasPrefix(fixtureKeyword) {
				stack = append(stack, newFrame(ln))
			} else if ln.HasPrefix(terminator) {
				warn.Warn(ln.Num, "", "%s outside of a block ignored", terminator)
			}
			continue
		}

		if ln.HasPrefix(terminator) {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch top.kind {
			case kindLight:
				res.lights.add(top.key, top.line, top.project())
			case kindFixture:
				res.fixtures.add(top.key, top.line, top.project())
			}
			continue
		}

		top := stack[len(stack)-1]
		top.children = append(top.children, ln)
	}

	if len(stack) > 0 {
		res.unclosed = stack[len(stack)-1]
	}
	return res
}

// resolve joins every fixture with the light it references.
func (b *blockResult) resolve() ([]Light, error) {
	out := make([]Light, 0, b.fixtures.len())
	for _, key := range b.fixtures.order {
		children, _ := b.fixtures.get(key)

		var (
			light    *Light
			position []string
			hasPos   bool
		)
		for _, c := range children {
			tokens := c.Fields()
			switch tokens[0] {
			case "Position":
				position = tokens[1:]
				hasPos = true
			case lightKeyword:
				l, err := b.lookupLight(c)
				if err != nil {
					return nil, err
				}
				light = l
			}
		}

		header := b.fixtures.headers[key]
		if !hasPos {
			return nil, diag.Errorf(format, header, diag.ErrMalformed, "fixture %q has no Position", key)
		}
		if light == nil {
			return nil, diag.Errorf(format, header, diag.ErrMalformed, "fixture %q references no Light", key)
		}
		light.Position = position
		out = append(out, *light)
	}
	return out, nil
}

// lookupLight resolves a fixture's Light child. The child line itself is the
// header key of the referenced light block.
func (b *blockResult) lookupLight(ref lines.Line) (*Light, error) {
	children, ok := b.lights.get(ref.Text)
	if !ok {
		name := strings.TrimSpace(strings.TrimPrefix(ref.Text, lightKeyword))
		return nil, diag.Errorf(format, ref.Num, diag.ErrUnresolved, "light %q is not defined", name)
	}

	fields := make(map[string][]string, len(lightFields))
	for _, c := range children {
		tokens := c.Fields()
		fields[tokens[0]] = tokens[1:]
	}
	for _, k := range lightFields {
		if _, ok := fields[k]; !ok {
			return nil, diag.Errorf(format, ref.Num, diag.ErrMalformed, "light %q has no %s", ref.Text, k)
		}
	}
	return &Light{TotalFlux: fields["TotalFlux"], Intensity: fields["intensity"]}, nil
}
