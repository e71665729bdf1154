// Command inspect prints a summary of one normalized scene file.
package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"scenenorm/internal/mathutil"
	"scenenorm/internal/scene"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: inspect FILE.{brs,atr,cam,lgt}")
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	switch ext := filepath.Ext(path); ext {
	case ".brs":
		m, err := scene.LoadMesh(f)
		if err != nil {
			return err
		}
		printMesh(w, m)
	case ".atr":
		surfaces, err := scene.LoadSurfaces(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Surfaces: %d\n", len(surfaces))
		for i, s := range surfaces {
			fmt.Fprintf(w, "  Surface[%d]: kd=%.3f ks=%.3f g=%.1f ka=%.3f color=(%.4f, %.4f, %.4f) kt=%.3f eta=%.3f kr=%.3f\n",
				i, s.KD, s.KS, s.G, s.KA, s.Color[0], s.Color[1], s.Color[2], s.KT, s.ETA, s.KR)
		}
	case ".cam":
		c, err := scene.LoadCamera(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Observer:    %s\n", vec(c.Observer))
		fmt.Fprintf(w, "UpperLeft:   %s\n", vec(c.UpperLeft))
		fmt.Fprintf(w, "BottomLeft:  %s\n", vec(c.BottomLeft))
		fmt.Fprintf(w, "UpperRight:  %s\n", vec(c.UpperRight))
		fmt.Fprintf(w, "Resolution:  %dx%d\n", c.Width, c.Height)
	case ".lgt":
		lights, err := scene.LoadLights(f)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Lights: %d\n", len(lights))
		total := 0.0
		for i, l := range lights {
			fmt.Fprintf(w, "  Light[%d]: pos=%s flux=%.2f color=(%.3f, %.3f, %.3f)\n",
				i, vec(l.Position), l.Flux, l.Color[0], l.Color[1], l.Color[2])
			total += l.Flux
		}
		fmt.Fprintf(w, "Total flux: %.2f\n", total)
	default:
		return fmt.Errorf("unsupported file type %q", ext)
	}
	return nil
}

func vec(v mathutil.Vec3) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
}

var directions = []string{"-Y(front)", "+Y(back)", "+X(right)", "-X(left)", "+Z(top)", "-Z(bottom)"}

func printMesh(w io.Writer, m *scene.Mesh) {
	fmt.Fprintf(w, "Vertices: %d, Triangles: %d\n", len(m.Vertices), len(m.Triangles))
	if len(m.Vertices) == 0 {
		return
	}
	size := m.Max.Sub(m.Min)
	fmt.Fprintf(w, "  BBox: X[%.1f, %.1f] Y[%.1f, %.1f] Z[%.1f, %.1f]\n",
		m.Min[0], m.Max[0], m.Min[1], m.Max[1], m.Min[2], m.Max[2])
	fmt.Fprintf(w, "  Size: %.1f x %.1f x %.1f\n", size[0], size[1], size[2])

	// Area by dominant normal axis, and triangle count per surface id
	areaByDir := map[string]float64{}
	trisBySurface := map[int]int{}
	maxSurface := -1
	for i, tri := range m.Triangles {
		v0, v1, v2 := m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]]
		c := v1.Sub(v0).Cross(v2.Sub(v0))
		areaByDir[direction(c)] += 0.5 * c.Len()

		sid := m.SurfaceIDs[i]
		trisBySurface[sid]++
		maxSurface = max(maxSurface, sid)
	}

	fmt.Fprintln(w, "  --- Surface area by direction ---")
	for _, d := range directions {
		fmt.Fprintf(w, "  %s: %.1f sq units\n", d, areaByDir[d])
	}
	fmt.Fprintln(w, "  --- Triangles by surface ---")
	for sid := 0; sid <= maxSurface; sid++ {
		if n := trisBySurface[sid]; n > 0 {
			fmt.Fprintf(w, "  surface %d: %d\n", sid, n)
		}
	}
}

func direction(c mathutil.Vec3) string {
	acx, acy, acz := math.Abs(c[0]), math.Abs(c[1]), math.Abs(c[2])
	switch {
	case acx >= acy && acx >= acz:
		if c[0] > 0 {
			return "+X(right)"
		}
		return "-X(left)"
	case acy >= acx && acy >= acz:
		if c[1] > 0 {
			return "+Y(back)"
		}
		return "-Y(front)"
	default:
		if c[2] > 0 {
			return "+Z(top)"
		}
		return "-Z(bottom)"
	}
}
