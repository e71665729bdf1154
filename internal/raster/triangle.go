package raster

import (
	"math"

	"scenenorm/internal/mathutil"
)

// RasterizeTriangle fills a screen-space triangle with a flat color, using the
// z-buffer (larger z is nearer), sRGB color space, the given shade and ACES
// tone mapping.
//
// This is the hot path: no allocation inside the pixel loop.
func RasterizeTriangle(fb *FrameBuffer, p0, p1, p2 mathutil.Vec3, r, g, b uint8, shade float64, lc *LightConfig) {
	x0, y0, z0 := p0[0], p0[1], p0[2]
	x1, y1, z1 := p1[0], p1[1], p1[2]
	x2, y2, z2 := p2[0], p2[1], p2[2]

	// Bounding box
	minX := int(math.Min(math.Min(x0, x1), x2))
	maxX := int(math.Max(math.Max(x0, x1), x2)) + 1
	minY := int(math.Min(math.Min(y0, y1), y2))
	maxY := int(math.Max(math.Max(y0, y1), y2)) + 1

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	// Shaded color is constant over the face
	cr := toneMap(srgbToLinear[r], shade, lc)
	cg := toneMap(srgbToLinear[g], shade, lc)
	cb := toneMap(srgbToLinear[b], shade, lc)

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = cr
			fb.Color[pxIdx+1] = cg
			fb.Color[pxIdx+2] = cb
			fb.Color[pxIdx+3] = 255
		}
	}
}

// toneMap applies shading and exposure to a linear channel, then ACES and
// the sRGB encode.
func toneMap(linear, shade float64, lc *LightConfig) uint8 {
	v := ACESTonemap(linear * shade * lc.Exposure)
	return clamp255(math.Pow(v, lc.InvGamma) * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
