package raster

import (
	"image"
	"math"

	"scenenorm/internal/mathutil"
	"scenenorm/internal/scene"
)

// Fallback color for triangles whose surface has no color.
var defaultColor = [3]uint8{160, 160, 170}

// RenderMesh renders a normalized mesh to a square NRGBA image of
// size*supersample pixels. colors holds one [0,1] RGB color per surface id.
func RenderMesh(mesh *scene.Mesh, colors [][3]float64, view mathutil.Mat3, size, supersample int) *image.NRGBA {
	renderSize := size * supersample
	fb := NewFrameBuffer(renderSize, renderSize)
	if len(mesh.Vertices) == 0 || len(mesh.Triangles) == 0 {
		return fb.Image()
	}

	// Transform to view space and compute the bounding box
	tv := make([]mathutil.Vec3, len(mesh.Vertices))
	for i, v := range mesh.Vertices {
		tv[i] = view.MulVec3(v)
	}
	allMin, allMax := mathutil.Bounds(tv)

	center := allMin.Add(allMax).Scale(0.5)
	span := math.Max(allMax[0]-allMin[0], allMax[1]-allMin[1])
	if span < 0.001 {
		span = 0.001
	}
	margin := renderSize / 16
	scale := float64(renderSize-2*margin) / span
	half := float64(renderSize) / 2

	// Screen space: X right, Y down
	screen := make([]mathutil.Vec3, len(tv))
	for i, v := range tv {
		screen[i] = mathutil.Vec3{
			(v[0]-center[0])*scale + half,
			half - (v[1]-center[1])*scale,
			v[2] - center[2],
		}
	}

	lc := DefaultLightConfig()
	for i, tri := range mesh.Triangles {
		normal := mathutil.TriangleNormal(tv[tri[0]], tv[tri[1]], tv[tri[2]])
		if normal == (mathutil.Vec3{}) {
			continue
		}
		r, g, b := surfaceColor(colors, mesh.SurfaceIDs, i)
		RasterizeTriangle(fb, screen[tri[0]], screen[tri[1]], screen[tri[2]], r, g, b, lc.ComputeShade(normal), &lc)
	}

	return fb.Image()
}

func surfaceColor(colors [][3]float64, sids []int, tri int) (uint8, uint8, uint8) {
	if tri >= len(sids) || sids[tri] >= len(colors) {
		return defaultColor[0], defaultColor[1], defaultColor[2]
	}
	c := colors[sids[tri]]
	return clamp255(c[0] * 255), clamp255(c[1] * 255), clamp255(c[2] * 255)
}
