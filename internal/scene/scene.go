// Package scene reads the normalized formats written by the converter, the
// way the downstream renderer consumes them. It is used to verify converter
// output and to feed the preview renderer.
package scene

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"scenenorm/internal/lines"
	"scenenorm/internal/mathutil"
)

// ErrNotEnoughSurfaces is returned when a triangle references a surface id
// beyond the loaded surface list.
var ErrNotEnoughSurfaces = errors.New("scene: not enough surfaces")

// Mesh is a loaded normalized mesh.
type Mesh struct {
	Vertices   []mathutil.Vec3
	Triangles  [][3]int
	SurfaceIDs []int // one per triangle, 0 when unassigned
	Min, Max   mathutil.Vec3
}

// Surface is one material row.
type Surface struct {
	KD, KS, G, KA float64
	Color         [3]float64
	KT, ETA, KR   float64
}

// Light is one point light row.
type Light struct {
	Position mathutil.Vec3
	Flux     float64
	Color    [3]float64
}

// Camera is the observer and screen definition.
type Camera struct {
	Observer   mathutil.Vec3
	UpperLeft  mathutil.Vec3
	BottomLeft mathutil.Vec3
	UpperRight mathutil.Vec3
	Width      int
	Height     int
}

// LoadMesh reads a normalized mesh: vertex count, vertices, triangle count,
// triangles, then surface ids assigned to triangles in order.
func LoadMesh(r io.Reader) (*Mesh, error) {
	ls, err := lines.All(r)
	if err != nil {
		return nil, fmt.Errorf("scene: read mesh: %w", err)
	}
	p := &parser{what: "mesh", ls: ls}

	nv, err := p.count()
	if err != nil {
		return nil, err
	}
	m := &Mesh{Vertices: make([]mathutil.Vec3, nv)}
	for i := range m.Vertices {
		v, err := p.floats(3)
		if err != nil {
			return nil, err
		}
		m.Vertices[i] = mathutil.Vec3{v[0], v[1], v[2]}
	}
	m.Min, m.Max = mathutil.Bounds(m.Vertices)

	nt, err := p.count()
	if err != nil {
		return nil, err
	}
	m.Triangles = make([][3]int, nt)
	for i := range m.Triangles {
		ln, tokens, err := p.next(3)
		if err != nil {
			return nil, err
		}
		for k := 0; k < 3; k++ {
			idx, err := strconv.Atoi(tokens[k])
			if err != nil || idx < 0 || idx >= nv {
				return nil, fmt.Errorf("scene: mesh line %d: bad vertex index %q", ln.Num, tokens[k])
			}
			m.Triangles[i][k] = idx
		}
	}

	m.SurfaceIDs = make([]int, nt)
	assigned := 0
	for assigned < nt && p.more() {
		ln := p.ls[p.pos]
		p.pos++
		for _, tok := range ln.Fields() {
			if assigned == nt {
				break
			}
			sid, err := strconv.Atoi(tok)
			if err != nil || sid < 0 {
				return nil, fmt.Errorf("scene: mesh line %d: bad surface id %q", ln.Num, tok)
			}
			m.SurfaceIDs[assigned] = sid
			assigned++
		}
	}
	return m, nil
}

// AttachSurfaces checks that every triangle's surface id is covered.
func (m *Mesh) AttachSurfaces(surfaces []Surface) error {
	for i, sid := range m.SurfaceIDs {
		if sid >= len(surfaces) {
			return fmt.Errorf("%w: triangle %d uses surface %d of %d", ErrNotEnoughSurfaces, i, sid, len(surfaces))
		}
	}
	return nil
}

// LoadSurfaces reads a normalized material file. Color components above 1
// are taken as 0–255 values.
func LoadSurfaces(r io.Reader) ([]Surface, error) {
	ls, err := lines.All(r)
	if err != nil {
		return nil, fmt.Errorf("scene: read surfaces: %w", err)
	}
	p := &parser{what: "surfaces", ls: ls}
	n, err := p.count()
	if err != nil {
		return nil, err
	}
	out := make([]Surface, n)
	for i := range out {
		v, err := p.floats(10)
		if err != nil {
			return nil, err
		}
		s := Surface{KD: v[0], KS: v[1], G: v[2], KA: v[3], KT: v[7], ETA: v[8], KR: v[9]}
		for k := 0; k < 3; k++ {
			c := v[4+k]
			if c > 1 {
				c /= 255
			}
			s.Color[k] = c
		}
		out[i] = s
	}
	return out, p.done()
}

// LoadLights reads a normalized light file: position, flux, rgb per row.
func LoadLights(r io.Reader) ([]Light, error) {
	ls, err := lines.All(r)
	if err != nil {
		return nil, fmt.Errorf("scene: read lights: %w", err)
	}
	p := &parser{what: "lights", ls: ls}
	n, err := p.count()
	if err != nil {
		return nil, err
	}
	out := make([]Light, n)
	for i := range out {
		v, err := p.floats(7)
		if err != nil {
			return nil, err
		}
		out[i] = Light{
			Position: mathutil.Vec3{v[0], v[1], v[2]},
			Flux:     v[3],
			Color:    [3]float64{v[4], v[5], v[6]},
		}
	}
	return out, p.done()
}

// LoadCamera reads a normalized camera: observer, upper-left, bottom-left
// and upper-right screen corners, then the resolution.
func LoadCamera(r io.Reader) (*Camera, error) {
	ls, err := lines.All(r)
	if err != nil {
		return nil, fmt.Errorf("scene: read camera: %w", err)
	}
	p := &parser{what: "camera", ls: ls}
	c := &Camera{}
	for _, dst := range []*mathutil.Vec3{&c.Observer, &c.UpperLeft, &c.BottomLeft, &c.UpperRight} {
		v, err := p.floats(3)
		if err != nil {
			return nil, err
		}
		*dst = mathutil.Vec3{v[0], v[1], v[2]}
	}
	ln, tokens, err := p.next(2)
	if err != nil {
		return nil, err
	}
	w, errW := strconv.Atoi(tokens[0])
	h, errH := strconv.Atoi(tokens[1])
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return nil, fmt.Errorf("scene: camera line %d: bad resolution %q", ln.Num, ln.Text)
	}
	c.Width, c.Height = w, h
	return c, nil
}

type parser struct {
	what string
	ls   []lines.Line
	pos  int
}

func (p *parser) more() bool {
	return p.pos < len(p.ls)
}

// next returns the next line and its first n tokens.
func (p *parser) next(n int) (lines.Line, []string, error) {
	if !p.more() {
		return lines.Line{}, nil, fmt.Errorf("scene: %s: unexpected end of input", p.what)
	}
	ln := p.ls[p.pos]
	p.pos++
	tokens := ln.Fields()
	if len(tokens) < n {
		return ln, nil, fmt.Errorf("scene: %s line %d: %d values, want %d", p.what, ln.Num, len(tokens), n)
	}
	return ln, tokens[:n], nil
}

func (p *parser) count() (int, error) {
	ln, tokens, err := p.next(1)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(tokens[0])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("scene: %s line %d: bad count %q", p.what, ln.Num, ln.Text)
	}
	return n, nil
}

func (p *parser) floats(n int) ([]float64, error) {
	ln, tokens, err := p.next(n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("scene: %s line %d: bad number %q", p.what, ln.Num, tok)
		}
		out[i] = v
	}
	return out, nil
}

// done fails if rows remain after the declared count.
func (p *parser) done() error {
	if p.more() {
		return fmt.Errorf("scene: %s line %d: %d rows beyond declared count", p.what, p.ls[p.pos].Num, len(p.ls)-p.pos)
	}
	return nil
}
