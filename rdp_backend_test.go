package main

import (
	"encoding/binary"
	"slices"
	"strings"
	"testing"
)

func readVisible(console *Console, gfx *Graphics) *Framebuffer16 {
	raw := make([]byte, SCREEN_WIDTH*SCREEN_HEIGHT*PIXEL_BYTES)
	console.Bus.ReadBlock(gfx.VI.VisibleBuffer(), raw)
	fb := NewFramebuffer16(SCREEN_WIDTH, SCREEN_HEIGHT)
	fb.CopyFromBytes(raw)
	return fb
}

func TestHardware_DrawsIntoWriteTargetOnly(t *testing.T) {
	console, gfx := newTestGraphics(t)
	hw := NewHardwareBackend(gfx)
	visible, target := gfx.VI.VisibleBuffer(), gfx.VI.WriteTarget()

	cb := NewCommandBuffer()
	cb.AddColoredRect(0, 0, 8, 8, 0xFFFFFFFF)
	cb.Flush(hw)
	gfx.RDP.WaitForDone()

	if got := console.Bus.Read16(target); got != 0xFFFF {
		t.Fatalf("write target pixel 0 = %04X, want FFFF", got)
	}
	if got := console.Bus.Read16(visible); got != BACKGROUND_PIXEL {
		t.Fatalf("visible buffer changed before the swap: %04X", got)
	}

	gfx.SwapBuffers()
	if gfx.VI.VisibleBuffer() != target {
		t.Fatalf("swap showed 0x%08X, want 0x%08X", gfx.VI.VisibleBuffer(), target)
	}
	if got := console.Bus.Read16(gfx.VI.VisibleBuffer()); got != 0xFFFF {
		t.Fatalf("visible pixel after swap = %04X", got)
	}
}

func TestHardware_MatchesEmulation(t *testing.T) {
	console, gfx := newTestGraphics(t)
	hw := NewHardwareBackend(gfx)
	emu := newSoftwareBackend(t)

	for frame := range 2 {
		cb := NewCommandBuffer()
		drawScene(cb, frame)
		cb.Flush(hw)
		cb.Flush(emu)
		gfx.SwapBuffers()

		shown := readVisible(console, gfx)
		if !slices.Equal(shown.Pix, emu.Target().Pix) {
			diff := 0
			for i := range shown.Pix {
				if shown.Pix[i] != emu.Target().Pix[i] {
					diff++
				}
			}
			t.Fatalf("frame %d: %d pixels differ between hardware and emulation (%s)", frame, diff, hw.Stats())
		}
	}
}

func TestHardware_DisplayListShape(t *testing.T) {
	_, gfx := newTestGraphics(t)
	hw := NewHardwareBackend(gfx)

	cb := NewCommandBuffer()
	cb.AddColoredRect(10, 20, 30, 40, 0xFF0000FF)
	cb.SetPipeline(ShadowPipeline())
	pixelQuad(cb, 0, 0, 4, 4, 0, 0)
	cb.Flush(hw)
	gfx.RDP.WaitForDone()

	list := hw.DisplayList()
	if rdpOpcode(list[len(list)-1]) != RDP_CMD_SYNC_FULL {
		t.Fatalf("list does not end in SYNC_FULL:\n%s", DisassembleDisplayList(list))
	}
	dis := DisassembleDisplayList(list)
	for _, want := range []string{
		"SET_Z_IMAGE",
		"FILL_RECTANGLE    (0,0)-(320,240)",
		"FILL_RECTANGLE    (10,20)-(30,40)",
		"SET_PRIM_COLOR    10101060",
		"VERTEX_TRIANGLE",
	} {
		if !strings.Contains(dis, want) {
			t.Errorf("display list missing %q:\n%s", want, dis)
		}
	}
	if n := strings.Count(dis, "VERTEX_TRIANGLE"); n != 2 {
		t.Errorf("%d triangles in list, want 2", n)
	}
	if gfx.RDP.Busy() {
		t.Fatal("RDP still busy after WaitForDone")
	}
}

func TestHardware_BehindEyeTrianglesDropped(t *testing.T) {
	_, gfx := newTestGraphics(t)
	hw := NewHardwareBackend(gfx)

	cb := NewCommandBuffer()
	tri, _ := BuiltinMesh("tri")
	proj := ScreenProjection(SCREEN_WIDTH, SCREEN_HEIGHT)
	cb.AddMeshIndexed(tri.Verts, tri.UVs, tri.Colors, tri.Indices, proj.Mul(Mat4Translation(0.5, 0.5, 5)))
	cb.Flush(hw)
	gfx.RDP.WaitForDone()

	if got := hw.Stats(); !strings.HasPrefix(got, "0 triangles, 1 dropped") {
		t.Fatalf("Stats = %q", got)
	}
}

func TestRDPCommands_Decode(t *testing.T) {
	x0, y0, x1, y1 := decodeRect(rdpFillRectangle(3, 4, 319, 239))
	if x0 != 3 || y0 != 4 || x1 != 319 || y1 != 239 {
		t.Fatalf("decodeRect = (%d,%d)-(%d,%d)", x0, y0, x1, y1)
	}
	w, addr := decodeImage(rdpSetColorImage(SCREEN_WIDTH, FRAME_BUFFER_BASE))
	if w != SCREEN_WIDTH || addr != PhysAddr(FRAME_BUFFER_BASE) {
		t.Fatalf("decodeImage = %d, 0x%08X", w, addr)
	}
	tw, th := decodeTileSize(rdpSetTileSize(32, 16))
	if tw != 32 || th != 16 {
		t.Fatalf("decodeTileSize = %dx%d", tw, th)
	}

	v := [3]ScreenVertex{
		{X: 1.5, Y: 2.25, Z: 0.5, S: 0.25, T: 1, Shade: Color{1, 2, 3, 4}},
		{X: 100, Y: 0, Z: 1, Shade: ColorWhite},
		{X: -3, Y: 7, Z: 0, S: 2, Shade: ColorBlack},
	}
	words := rdpVertexTriangle(&v[0], &v[1], &v[2])
	if got := decodeVertexTriangle(words[:]); got != v {
		t.Fatalf("vertex triangle decoded as %+v", got)
	}
	if !strings.Contains(DisassembleDisplayList([]uint64{rdpOp(0x01)}), "UNKNOWN_01") {
		t.Fatal("unknown opcode not named")
	}
}

// primOverTexel draws an opaque white texel quad, then blends a flat
// primitive colour 0xA0A0A0FF over it.
func primOverTexel(cb *CommandBuffer) Pipeline {
	white := &Texture{Width: 1, Height: 1, Texels: []uint16{0xFFFF}}
	cb.SetPipeline(TexturedPipeline(white))
	pixelQuad(cb, 8, 8, 24, 24, 0, 0xFFFFFFFF)

	prim := DefaultPipeline().
		WithCombiner(SingleCombine(CombinePrimitive)).
		WithPrimColor(0xA0A0A0FF).
		WithBlend(true).
		WithDepth(false, false)
	cb.SetPipeline(prim)
	pixelQuad(cb, 8, 8, 24, 24, 0, 0xFFFFFFFF)
	return prim
}

func TestBlend_PrimOverOpaqueTexelGolden(t *testing.T) {
	golden := Color{0xA5, 0xA5, 0xA5, 0xFF}

	t.Run("emulation", func(t *testing.T) {
		cb := NewCommandBuffer()
		prim := primOverTexel(cb)
		b, err := NewEmulationBackend(EmulationConfig{
			Width:         SCREEN_WIDTH,
			Height:        SCREEN_HEIGHT,
			Variants:      append(StandardVariants(), prim),
			ForceSoftware: true,
		})
		if err != nil {
			t.Fatalf("NewEmulationBackend: %v", err)
		}
		defer b.Destroy()
		cb.Flush(b)

		expectPixel(t, b.Target(), 16, 16, golden)
		expectPixel(t, b.Target(), 4, 4, ColorBlack)
		if b.VariantMisses() != 0 {
			t.Fatalf("VariantMisses = %d", b.VariantMisses())
		}
	})

	t.Run("hardware", func(t *testing.T) {
		console, gfx := newTestGraphics(t)
		hw := NewHardwareBackend(gfx)
		cb := NewCommandBuffer()
		primOverTexel(cb)
		cb.Flush(hw)
		gfx.SwapBuffers()

		shown := readVisible(console, gfx)
		expectPixel(t, shown, 16, 16, golden)
		expectPixel(t, shown, 4, 4, ColorBlack)
	})
}

func TestRDPDevice_SkipsUnknownCommands(t *testing.T) {
	console, gfx := newTestGraphics(t)
	before := console.RDP.ListsExecuted()

	list := []uint64{rdpOp(0x01), rdpSyncFull()}
	raw := make([]byte, len(list)*DOUBLEWORD_SIZE)
	for i, w := range list {
		binary.BigEndian.PutUint64(raw[i*DOUBLEWORD_SIZE:], w)
	}
	console.Bus.WriteBlock(RDP_DL_ADDR, raw)
	gfx.RDP.Submit(RDP_DL_ADDR, RDP_DL_ADDR+uint32(len(raw)))
	gfx.RDP.WaitForDone()

	if got := console.RDP.ListsExecuted() - before; got != 1 {
		t.Fatalf("lists executed = %d, want 1", got)
	}
	if console.RDP.Illegals() != 1 {
		t.Fatalf("illegal commands = %d, want 1", console.RDP.Illegals())
	}
	if s := console.RDP.String(); !strings.Contains(s, "illegal=1") {
		t.Fatalf("String() = %q", s)
	}
}

func TestHardware_DepthWrittenOnlyUnderMesh(t *testing.T) {
	console, gfx := newTestGraphics(t)
	hw := NewHardwareBackend(gfx)
	cb := NewCommandBuffer()
	pixelQuad(cb, 0, 0, 10, 10, 0, 0xFF0000FF)
	cb.Flush(hw)
	gfx.RDP.WaitForDone()

	if d := console.RDP.DepthAt(5, 5); d != 0.5 {
		t.Fatalf("depth under the quad = %v, want 0.5", d)
	}
	if d := console.RDP.DepthAt(50, 50); d != 1 {
		t.Fatalf("depth outside the quad = %v, want the cleared far plane", d)
	}
	if !strings.Contains(hw.Stats(), "2 triangles") {
		t.Fatalf("stats %q", hw.Stats())
	}
}
