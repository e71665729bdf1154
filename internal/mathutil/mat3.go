package mathutil

import "math"

// Mat3 is a 3×3 matrix stored row-major: [r0c0, r0c1, r0c2, r1c0, ...].
type Mat3 [9]float64

func Mat3Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Mat3Mul returns a × b.
func Mat3Mul(a, b Mat3) Mat3 {
	var m Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m[r*3+c] = a[r*3]*b[c] + a[r*3+1]*b[3+c] + a[r*3+2]*b[6+c]
		}
	}
	return m
}

// MulVec3 returns M × v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		Vec3{m[0], m[1], m[2]}.Dot(v),
		Vec3{m[3], m[4], m[5]}.Dot(v),
		Vec3{m[6], m[7], m[8]}.Dot(v),
	}
}

func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// RotX rotates around the X axis by a radians.
func RotX(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{1, 0, 0, 0, c, -s, 0, s, c}
}

// RotY rotates around the Y axis by a radians.
func RotY(a float64) Mat3 {
	c, s := math.Cos(a), math.Sin(a)
	return Mat3{c, 0, s, 0, 1, 0, -s, 0, c}
}

func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}

// Orbit returns the view rotation for a camera circling a Y-up scene:
// yaw degrees around Y, then pitch degrees around X.
func Orbit(yaw, pitch float64) Mat3 {
	return Mat3Mul(RotX(Deg2Rad(pitch)), RotY(Deg2Rad(yaw)))
}

// PreviewView is a three-quarter view from slightly above.
var PreviewView = Orbit(35, -25)
