package main

import "github.com/chewxy/math32"

// Mat4 is a column-major 4x4 matrix: m[col][row]. It is the layout mesh
// submissions carry their transform in.
type Mat4 [4][4]float32

func Mat4Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for col := range 4 {
		for row := range 4 {
			out[col][row] = m[0][row]*o[col][0] +
				m[1][row]*o[col][1] +
				m[2][row]*o[col][2] +
				m[3][row]*o[col][3]
		}
	}
	return out
}

func (m Mat4) MulVec4(x, y, z, w float32) (float32, float32, float32, float32) {
	return m[0][0]*x + m[1][0]*y + m[2][0]*z + m[3][0]*w,
		m[0][1]*x + m[1][1]*y + m[2][1]*z + m[3][1]*w,
		m[0][2]*x + m[1][2]*y + m[2][2]*z + m[3][2]*w,
		m[0][3]*x + m[1][3]*y + m[2][3]*z + m[3][3]*w
}

// Mat4PerspectiveRH is a right-handed OpenGL-style projection mapping depth
// to [-1, 1].
func Mat4PerspectiveRH(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	r := 1 / (near - far)
	return Mat4{
		{f / aspect, 0, 0, 0},
		{0, f, 0, 0},
		{0, 0, (near + far) * r, -1},
		{0, 0, 2 * near * far * r, 0},
	}
}

func Mat4Translation(x, y, z float32) Mat4 {
	m := Mat4Identity()
	m[3][0], m[3][1], m[3][2] = x, y, z
	return m
}

func Mat4Scale(x, y, z float32) Mat4 {
	m := Mat4Identity()
	m[0][0], m[1][1], m[2][2] = x, y, z
	return m
}

// Mat4RotationTranslation rotates angle radians about the unit axis
// (ax, ay, az), then translates.
func Mat4RotationTranslation(ax, ay, az, angle, tx, ty, tz float32) Mat4 {
	s, c := math32.Sincos(angle)
	t := 1 - c
	return Mat4{
		{t*ax*ax + c, t*ax*ay + s*az, t*ax*az - s*ay, 0},
		{t*ax*ay - s*az, t*ay*ay + c, t*ay*az + s*ax, 0},
		{t*ax*az + s*ay, t*ay*az - s*ax, t*az*az + c, 0},
		{tx, ty, tz, 1},
	}
}

// ScreenProjection maps the unit-square scene space used by game code to
// framebuffer pixels: pre-scale to [-1,1], perspective with a 90 degree
// field of view, then the viewport.
func ScreenProjection(width, height int) Mat4 {
	hw := 0.5 * float32(width)
	hh := 0.5 * float32(height)
	post := Mat4{
		{hw, 0, 0, 0},
		{0, hh, 0, 0},
		{0, 0, 1, 0},
		{hw, hh, 0, 1},
	}
	pre := Mat4{
		{2, 0, 0, 0},
		{0, 2, 0, 0},
		{0, 0, 1, 0},
		{-1, -1, 0, 1},
	}
	proj := Mat4PerspectiveRH(math32.Pi/2, 1, 0.01, 1000)
	return post.Mul(proj).Mul(pre)
}

// ScreenVertex is a vertex after transform: pixel coordinates, depth in
// [0, 1] with 0 nearest, texture coordinates and shade colour.
type ScreenVertex struct {
	X, Y  float32
	Z     float32
	S, T  float32
	Shade Color
}

// projectVertex applies the transform and the perspective divide. It
// reports false for vertices on or behind the eye plane.
func projectVertex(m *Mat4, p [3]float32) (x, y, depth float32, ok bool) {
	cx, cy, cz, cw := m.MulVec4(p[0], p[1], p[2], 1)
	if cw <= 0 {
		return 0, 0, 0, false
	}
	inv := 1 / cw
	return cx * inv, cy * inv, clampf(cz*inv*0.5+0.5, 0, 1), true
}

func floor32(v float32) float32 {
	return math32.Floor(v)
}

func clampf(v, minVal, maxVal float32) float32 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
