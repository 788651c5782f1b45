package main

import (
	"errors"
	"slices"
	"testing"
)

// pixelQuad is a rectangle in pixel space at depth z, for drawing with the
// identity transform. Depth after projection is z*0.5+0.5.
func pixelQuad(cb *CommandBuffer, x0, y0, x1, y1, z float32, rgba uint32) {
	cb.AddMeshIndexed(
		[][3]float32{{x0, y0, z}, {x1, y0, z}, {x1, y1, z}, {x0, y1, z}},
		[][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}},
		[]uint32{rgba, rgba, rgba, rgba},
		[]uint16{0, 1, 2, 0, 2, 3},
		Mat4Identity(),
	)
}

func newSoftwareBackend(t *testing.T) *EmulationBackend {
	t.Helper()
	b, err := NewEmulationBackend(EmulationConfig{
		Width:         SCREEN_WIDTH,
		Height:        SCREEN_HEIGHT,
		Variants:      StandardVariants(),
		ForceSoftware: true,
	})
	if err != nil {
		t.Fatalf("NewEmulationBackend: %v", err)
	}
	t.Cleanup(b.Destroy)
	return b
}

func expectPixel(t *testing.T, fb *Framebuffer16, x, y int, want Color) {
	t.Helper()
	if got := fb.Pixel(x, y); got != want {
		t.Errorf("pixel (%d,%d) = %08X, want %08X", x, y, got.RGBA32(), want.RGBA32())
	}
}

// drawScene records a frame that touches every standard variant.
func drawScene(cb *CommandBuffer, frame int) {
	cb.AddColoredRect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT, 0x202040FF)
	proj := ScreenProjection(SCREEN_WIDTH, SCREEN_HEIGHT)

	quad, _ := BuiltinMesh("quad")
	cb.SetPipeline(TexturedPipeline(CheckerTexture()))
	floor := proj.Mul(Mat4RotationTranslation(1, 0, 0, 1.5708, 0.5, 1.1, -4).Mul(Mat4Scale(1.5, 1.5, 1.5)))
	cb.AddMeshIndexed(quad.Verts, quad.UVs, quad.Colors, quad.Indices, floor)

	cube, _ := BuiltinMesh("cube")
	cb.SetPipeline(MeshPipeline())
	if frame%2 == 1 {
		cb.SetPipeline(DamageFlashPipeline())
	}
	spin := proj.Mul(Mat4RotationTranslation(0, 1, 0, float32(frame)*0.1, 0.5, 0.5, -4).Mul(Mat4Scale(0.5, 0.5, 0.5)))
	cb.AddMeshIndexed(cube.Verts, cube.UVs, cube.Colors, cube.Indices, spin)

	cb.SetPipeline(ShadowPipeline())
	pixelQuad(cb, 100, 180, 220, 200, 0, 0xFFFFFFFF)
}

func TestEmulation_TriangleFootprint(t *testing.T) {
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	cb.AddMeshIndexed(
		[][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		[][2]float32{{0, 0}, {0, 0}, {0, 0}},
		[]uint32{0xFF0000FF, 0xFF0000FF, 0xFF0000FF},
		[]uint16{0, 1, 2},
		Mat4Identity(),
	)
	cb.Flush(b)

	fb := b.Target()
	if fb.Pix[0] != 0xF801 {
		t.Fatalf("pixel (0,0) = %04X, want F801", fb.Pix[0])
	}
	for i, px := range fb.Pix[1:] {
		if px != BACKGROUND_PIXEL {
			t.Fatalf("pixel %d = %04X, only (0,0) should be covered", i+1, px)
		}
	}
}

func TestEmulation_ShadowBlendsOverWhite(t *testing.T) {
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	cb.AddColoredRect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT, 0xFFFFFFFF)
	cb.SetPipeline(ShadowPipeline())
	pixelQuad(cb, 10, 10, 30, 30, 0, 0x00000000)
	cb.Flush(b)

	expectPixel(t, b.Target(), 15, 15, Color{0xA5, 0xA5, 0xA5, 0xFF})
	expectPixel(t, b.Target(), 5, 5, ColorWhite)
}

func TestEmulation_DamageFlashSaturates(t *testing.T) {
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	cb.SetPipeline(DamageFlashPipeline())
	pixelQuad(cb, 0, 0, 16, 16, 0, 0x204080FF)
	cb.Flush(b)

	expectPixel(t, b.Target(), 8, 8, ColorWhite)
	expectPixel(t, b.Target(), 20, 8, ColorBlack)
}

func TestEmulation_DepthTest(t *testing.T) {
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	pixelQuad(cb, 0, 0, 20, 20, 0, 0xFF0000FF)
	// Farther: hidden.
	pixelQuad(cb, 0, 0, 20, 20, 0.5, 0x00FF00FF)
	// Nearer shadow blends but leaves depth alone.
	cb.SetPipeline(ShadowPipeline())
	pixelQuad(cb, 0, 0, 10, 10, -0.5, 0)
	// Behind the shadow, in front of the red quad: drawn.
	cb.SetPipeline(DefaultPipeline())
	pixelQuad(cb, 0, 0, 5, 5, -0.2, 0x0000FFFF)
	cb.Flush(b)

	fb := b.Target()
	expectPixel(t, fb, 15, 15, Quantize5551(Color{0xFF, 0, 0, 0xFF}))
	expectPixel(t, fb, 2, 2, Quantize5551(Color{0, 0, 0xFF, 0xFF}))
	if got := fb.Pixel(7, 7); got.G != 0 || got.R >= 0xF8 {
		t.Errorf("shadowed red pixel = %08X, want darkened red", got.RGBA32())
	}
}

func TestEmulation_DepthClearedEveryFlush(t *testing.T) {
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	pixelQuad(cb, 0, 0, 8, 8, -0.5, 0xFF0000FF)
	cb.Flush(b)
	cb.Clear()

	pixelQuad(cb, 0, 0, 8, 8, 0.5, 0x00FF00FF)
	cb.Flush(b)
	expectPixel(t, b.Target(), 4, 4, Quantize5551(Color{0, 0xFF, 0, 0xFF}))
}

func TestEmulation_EmptyFlushLeavesTarget(t *testing.T) {
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	drawScene(cb, 0)
	cb.Flush(b)
	cb.Clear()

	before := b.Target().Clone()
	cb.Flush(b)
	if !slices.Equal(before.Pix, b.Target().Pix) {
		t.Fatal("empty flush changed the target")
	}
}

func TestEmulation_Deterministic(t *testing.T) {
	a, b := newSoftwareBackend(t), newSoftwareBackend(t)
	for frame := range 3 {
		cb := NewCommandBuffer()
		drawScene(cb, frame)
		cb.Flush(a)
		cb.Flush(b)
		if !slices.Equal(a.Target().Pix, b.Target().Pix) {
			t.Fatalf("frame %d: identical submissions rendered differently", frame)
		}
	}
	if a.VariantMisses() != 0 {
		t.Fatalf("standard scene missed %d variants", a.VariantMisses())
	}
}

func TestEmulation_TexturedQuadSamples(t *testing.T) {
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	cb.SetPipeline(TexturedPipeline(CheckerTexture()))
	pixelQuad(cb, 0, 0, 32, 32, 0, 0xFFFFFFFF)
	cb.Flush(b)

	fb := b.Target()
	a, c := fb.Pixel(2, 2), fb.Pixel(10, 2)
	if a == c {
		t.Fatalf("adjacent checker cells both %08X", a.RGBA32())
	}
	if fb.Pixel(2, 10) != c || fb.Pixel(10, 10) != a {
		t.Fatal("checker does not alternate down the quad")
	}
}

func TestEmulation_UnlistedVariantCompiledOnDemand(t *testing.T) {
	if debugAssertions {
		t.Skip("unlisted variants assert in gfxdebug builds")
	}
	b := newSoftwareBackend(t)
	cb := NewCommandBuffer()
	odd := DefaultPipeline().WithBlend(true).WithDepth(false, false)
	cb.SetPipeline(odd)
	pixelQuad(cb, 0, 0, 4, 4, 0, 0xFFFFFFFF)
	cb.Flush(b)
	cb.Flush(b)

	if b.VariantMisses() != 1 {
		t.Fatalf("VariantMisses = %d, want 1", b.VariantMisses())
	}
	expectPixel(t, b.Target(), 1, 1, ColorWhite)
}

// shaderlessRenderer draws in software but cannot compile new variants.
type shaderlessRenderer struct {
	*softRenderer
}

func (shaderlessRenderer) compile(pipelineKey) error {
	return errors.New("shader rejected")
}

func TestEmulation_FailedVariantSkipsDraws(t *testing.T) {
	if debugAssertions {
		t.Skip("unlisted variants assert in gfxdebug builds")
	}
	sw := newSoftRenderer(SCREEN_WIDTH, SCREEN_HEIGHT)
	sw.compile(DefaultPipeline().variantKey())
	b := &EmulationBackend{
		target:   NewFramebuffer16(SCREEN_WIDTH, SCREEN_HEIGHT),
		renderer: shaderlessRenderer{sw},
	}

	cb := NewCommandBuffer()
	cb.SetPipeline(DefaultPipeline().WithBlend(true).WithDepth(false, false))
	pixelQuad(cb, 0, 0, 4, 4, 0, 0xFFFFFFFF)
	cb.SetPipeline(DefaultPipeline())
	pixelQuad(cb, 10, 10, 14, 14, 0, 0xFF0000FF)
	cb.Flush(b)

	// The failed variant must not fall back to another pipeline.
	expectPixel(t, b.Target(), 1, 1, ColorBlack)
	expectPixel(t, b.Target(), 11, 11, Color{0xFF, 0x00, 0x00, 0xFF})
	if b.VariantMisses() != 1 || b.CompileFailures() != 1 || b.SkippedDraws() != 1 {
		t.Fatalf("misses %d, failures %d, skipped %d; want 1 each",
			b.VariantMisses(), b.CompileFailures(), b.SkippedDraws())
	}
}

func TestTextureCache_ReleasesIdleEntries(t *testing.T) {
	var released []int
	c := newTextureCache(2, func(v int) { released = append(released, v) })
	a, b := &Texture{}, &Texture{}
	made := 0
	create := func(v int) func(*Texture) (int, error) {
		return func(*Texture) (int, error) {
			made++
			return v, nil
		}
	}

	c.get(a, create(1))
	c.get(b, create(2))
	c.endFlush()

	for range 2 {
		if v, _ := c.get(a, create(99)); v != 1 {
			t.Fatalf("cached value %d, want 1", v)
		}
		c.endFlush()
	}
	if made != 2 {
		t.Fatalf("created %d entries, want 2", made)
	}
	if !slices.Equal(released, []int{2}) || c.len() != 1 {
		t.Fatalf("released %v, %d left; want [2] and 1", released, c.len())
	}

	c.releaseAll()
	if !slices.Equal(released, []int{2, 1}) || c.len() != 0 {
		t.Fatalf("after releaseAll: released %v, %d left", released, c.len())
	}
}

func TestEmulation_NameReportsRenderer(t *testing.T) {
	b := newSoftwareBackend(t)
	if b.Name() != "emulation/software" || b.Accelerated() {
		t.Fatalf("forced software backend reports %q, accelerated=%t", b.Name(), b.Accelerated())
	}
}
