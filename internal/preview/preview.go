// Package preview renders normalized meshes to small images so converted
// scenes can be checked by eye.
package preview

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"

	"scenenorm/internal/mathutil"
	"scenenorm/internal/postprocess"
	"scenenorm/internal/raster"
	"scenenorm/internal/scene"
)

// Options control a preview render.
type Options struct {
	Format      string // "webp", "tga" or "bmp"
	Size        int
	Supersample int
}

// Render draws mesh colored by surfaces. Triangles whose surface id has no
// entry in surfaces use a neutral gray.
func Render(mesh *scene.Mesh, surfaces []scene.Surface, opts Options) *image.NRGBA {
	colors := make([][3]float64, len(surfaces))
	for i, s := range surfaces {
		colors[i] = s.Color
	}
	ss := max(opts.Supersample, 1)
	img := raster.RenderMesh(mesh, colors, mathutil.PreviewView, opts.Size, ss)
	return postprocess.Downsample(img, ss)
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case "webp":
		return nativewebp.Encode(w, img, nil)
	case "tga":
		return tga.Encode(w, img)
	case "bmp":
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("preview: unknown format %q", format)
	}
}

// PathFor returns the preview path for a normalized mesh at meshPath:
// "<dir>/<stem>.preview.<format>".
func PathFor(meshPath, format string) string {
	stem := strings.TrimSuffix(meshPath, filepath.Ext(meshPath))
	return stem + ".preview." + format
}

// File loads the normalized mesh at meshPath, renders it and writes the
// image to PathFor(meshPath). It returns the written path.
func File(meshPath string, surfaces []scene.Surface, opts Options) (string, error) {
	in, err := os.Open(meshPath)
	if err != nil {
		return "", fmt.Errorf("preview: open %s: %w", meshPath, err)
	}
	defer in.Close()

	mesh, err := scene.LoadMesh(in)
	if err != nil {
		return "", fmt.Errorf("preview: %s: %w", meshPath, err)
	}

	img := Render(mesh, surfaces, opts)

	outPath := PathFor(meshPath, opts.Format)
	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("preview: %w", err)
	}
	defer f.Close()

	if err := Encode(f, img, opts.Format); err != nil {
		return "", fmt.Errorf("preview: encode %s: %w", outPath, err)
	}
	return outPath, f.Close()
}
