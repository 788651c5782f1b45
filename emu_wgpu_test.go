//go:build !headless

package main

import "testing"

func newGPUBackend(t *testing.T) *EmulationBackend {
	t.Helper()
	b, err := NewEmulationBackend(EmulationConfig{
		Width:    SCREEN_WIDTH,
		Height:   SCREEN_HEIGHT,
		Variants: StandardVariants(),
	})
	if err != nil {
		t.Skipf("webgpu backend unavailable: %v", err)
	}
	t.Cleanup(b.Destroy)
	if !b.Accelerated() {
		t.Skip("no GPU adapter")
	}
	return b
}

func TestWebGPU_RectMatchesSoftware(t *testing.T) {
	gpu := newGPUBackend(t)
	sw := newSoftwareBackend(t)

	cb := NewCommandBuffer()
	cb.AddColoredRect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT, 0xFFFFFFFF)
	cb.AddColoredRect(40, 30, 120, 90, 0x3060C0FF)
	cb.Flush(gpu)
	cb.Flush(sw)

	for _, p := range [][2]int{{0, 0}, {40, 30}, {119, 89}, {120, 90}, {319, 239}} {
		if g, s := gpu.Target().Pixel(p[0], p[1]), sw.Target().Pixel(p[0], p[1]); g != s {
			t.Errorf("pixel %v: gpu %08X, software %08X", p, g.RGBA32(), s.RGBA32())
		}
	}
}

func TestWebGPU_GoldenPipelines(t *testing.T) {
	gpu := newGPUBackend(t)

	cb := NewCommandBuffer()
	cb.AddColoredRect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT, 0xFFFFFFFF)
	cb.SetPipeline(ShadowPipeline())
	pixelQuad(cb, 10, 10, 30, 30, 0, 0)
	cb.SetPipeline(DamageFlashPipeline())
	pixelQuad(cb, 100, 100, 120, 120, 0, 0x204080FF)
	cb.Flush(gpu)

	// Interior pixels only; edge coverage may differ from the software
	// rasterizer by a pixel.
	expectPixel(t, gpu.Target(), 20, 20, Color{0xA5, 0xA5, 0xA5, 0xFF})
	expectPixel(t, gpu.Target(), 110, 110, ColorWhite)
	expectPixel(t, gpu.Target(), 60, 60, ColorWhite)
	if gpu.VariantMisses() != 0 {
		t.Fatalf("VariantMisses = %d", gpu.VariantMisses())
	}
}
