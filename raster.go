package main

// PixelTarget is anything the rasterizer can draw into: the emulation
// backend's Framebuffer16 or a framebuffer region in RDRAM.
type PixelTarget interface {
	Size() (int, int)
	Pixel(x, y int) Color
	SetPixel(x, y int, c Color)
}

// Rasterizer is the fixed-function pixel pipeline shared by the RDP device
// and the software emulation path. It owns the depth buffer; colour lives
// in the target.
type Rasterizer struct {
	width, height int
	depth         []float32

	pipeline Pipeline
	program  *combinerProgram
	prim     Color
}

func NewRasterizer(width, height int) *Rasterizer {
	r := &Rasterizer{
		width:  width,
		height: height,
		depth:  make([]float32, width*height),
	}
	r.ClearDepth()
	r.Bind(DefaultPipeline(), nil)
	return r
}

// ClearDepth resets every depth sample to the far plane.
func (r *Rasterizer) ClearDepth() {
	for i := range r.depth {
		r.depth[i] = 1.0
	}
}

func (r *Rasterizer) Depth(x, y int) float32 {
	return r.depth[y*r.width+x]
}

// Bind selects the state for subsequent triangles. prog may be nil, in
// which case the combiner is compiled here.
func (r *Rasterizer) Bind(p Pipeline, prog *combinerProgram) {
	if prog == nil {
		prog = compileCombiner(p.Combiner)
	}
	r.pipeline = p
	r.program = prog
	r.prim = p.Primitive()
}

// DrawTriangle fills the pixels whose centres lie inside the triangle,
// edges included. Attributes are interpolated linearly in screen space.
func (r *Rasterizer) DrawTriangle(t PixelTarget, v0, v1, v2 *ScreenVertex) {
	tw, th := t.Size()
	w, h := min(tw, r.width), min(th, r.height)

	minX := int(floor32(min3f(v0.X, v1.X, v2.X)))
	maxX := int(-floor32(-max3f(v0.X, v1.X, v2.X)))
	minY := int(floor32(min3f(v0.Y, v1.Y, v2.Y)))
	maxY := int(-floor32(-max3f(v0.Y, v1.Y, v2.Y)))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, w), min(maxY, h)

	area := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, v2.X, v2.Y)
	if area == 0 {
		return
	}
	// No culling: wind everything the same way.
	if area < 0 {
		v0, v2 = v2, v0
		area = -area
	}
	invArea := 1 / area

	p := &r.pipeline
	sampleTexel := p.Combiner.UsesTexel()
	in := CombineInputs{Texel: ColorWhite, Primitive: r.prim}

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			py := float32(y) + 0.5

			w0 := edgeFunction(v1.X, v1.Y, v2.X, v2.Y, px, py)
			w1 := edgeFunction(v2.X, v2.Y, v0.X, v0.Y, px, py)
			w2 := edgeFunction(v0.X, v0.Y, v1.X, v1.Y, px, py)
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			w0 *= invArea
			w1 *= invArea
			w2 *= invArea

			idx := y*r.width + x
			z := w0*v0.Z + w1*v1.Z + w2*v2.Z
			if p.ZCompare && !(z < r.depth[idx]) {
				continue
			}

			in.Shade = interpolateColor(v0.Shade, v1.Shade, v2.Shade, w0, w1, w2)
			if sampleTexel {
				s := w0*v0.S + w1*v1.S + w2*v2.S
				tc := w0*v0.T + w1*v1.T + w2*v2.T
				in.Texel = p.Texture.Sample(s, tc)
			}

			out := r.program.Run(&in)
			if p.Blend {
				out = BlendOver(out, t.Pixel(x, y))
			}
			t.SetPixel(x, y, out)

			if p.ZUpdate {
				r.depth[idx] = z
			}
		}
	}
}

// FillRect writes c to every pixel in [x0,x1) x [y0,y1), bypassing the
// combiner, blender and depth buffer.
func (r *Rasterizer) FillRect(t PixelTarget, x0, y0, x1, y1 int, c Color) {
	w, h := t.Size()
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, w), min(y1, h)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			t.SetPixel(x, y, c)
		}
	}
}

// FillDepth sets every depth sample in [x0,x1) x [y0,y1) to z.
func (r *Rasterizer) FillDepth(x0, y0, x1, y1 int, z float32) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, r.width), min(y1, r.height)
	for y := y0; y < y1; y++ {
		row := r.depth[y*r.width : (y+1)*r.width]
		for x := x0; x < x1; x++ {
			row[x] = z
		}
	}
}

// DrawMesh transforms and draws every triangle of m with the bound state.
// Triangles with a vertex on or behind the eye plane are dropped.
func (r *Rasterizer) DrawMesh(t PixelTarget, m *MeshSubmission) {
	sv, ok := m.project()
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if !ok[a] || !ok[b] || !ok[c] {
			continue
		}
		r.DrawTriangle(t, &sv[a], &sv[b], &sv[c])
	}
}

func interpolateColor(c0, c1, c2 Color, w0, w1, w2 float32) Color {
	ch := func(a, b, c uint8) uint8 {
		v := w0*float32(a) + w1*float32(b) + w2*float32(c) + 0.5
		return uint8(clampf(v, 0, 255))
	}
	return Color{
		R: ch(c0.R, c1.R, c2.R),
		G: ch(c0.G, c1.G, c2.G),
		B: ch(c0.B, c1.B, c2.B),
		A: ch(c0.A, c1.A, c2.A),
	}
}

// edgeFunction computes the signed area of a parallelogram
func edgeFunction(ax, ay, bx, by, cx, cy float32) float32 {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

func min3f(a, b, c float32) float32 {
	return min(a, b, c)
}

func max3f(a, b, c float32) float32 {
	return max(a, b, c)
}
