package main

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// steppedClock is a VI time source the test moves by hand.
type steppedClock struct {
	base   time.Time
	offset atomic.Int64
}

func (c *steppedClock) now() time.Time {
	return c.base.Add(time.Duration(c.offset.Load()))
}

func (c *steppedClock) set(d time.Duration) {
	c.offset.Store(int64(d))
}

func newTestVI(t *testing.T) (*Console, *VideoInterface, *steppedClock) {
	t.Helper()
	console := NewConsole()
	clock := &steppedClock{base: time.Unix(0, 0)}
	console.VI.SetClock(clock.now)
	vi, err := NewVideoInterface(console.Bus, VideoModeNTSC320x240)
	if err != nil {
		t.Fatalf("NewVideoInterface: %v", err)
	}
	return console, vi, clock
}

func TestVI_InitProgramsRegisters(t *testing.T) {
	console, vi, _ := newTestVI(t)
	regs := NewRegisterFile(console.Bus)

	want := map[Register]uint32{
		VI_STATUS:  VI_NTSC_STATUS,
		VI_H_WIDTH: SCREEN_WIDTH,
		VI_V_SYNC:  VI_NTSC_V_SYNC,
		VI_X_SCALE: VI_NTSC_X_SCALE,
		VI_Y_SCALE: VI_NTSC_Y_SCALE,
		VI_ORIGIN:  vi.VisibleBuffer(),
	}
	for reg, v := range want {
		if got := regs.Read(reg); got != v {
			t.Errorf("register 0x%08X = 0x%08X, want 0x%08X", uint32(reg), got, v)
		}
	}
	if regs.Read(VI_STATUS)&VI_STATUS_TYPE_MASK != VI_STATUS_TYPE_16 {
		t.Errorf("VI_STATUS does not select 16bpp")
	}

	for _, fb := range []uint32{vi.VisibleBuffer(), vi.WriteTarget()} {
		for _, off := range []uint32{0, FRAME_BUFFER_SIZE / 2, FRAME_BUFFER_SIZE - WORD_SIZE} {
			if got := console.Bus.Read32(fb + off); got != FRAME_BUFFER_FILL {
				t.Fatalf("framebuffer 0x%08X+0x%X = 0x%08X, want 0x%08X", fb, off, got, FRAME_BUFFER_FILL)
			}
		}
	}
}

func TestVI_UnsupportedModeIsConfigurationError(t *testing.T) {
	console := NewConsole()
	pal := VideoModeNTSC320x240
	pal.Standard = TVStandardPAL

	for _, mode := range []VideoMode{pal, {Width: 640, Height: 480, BitsPerPixel: 16}, {Width: 320, Height: 240, BitsPerPixel: 32}} {
		vi, err := NewVideoInterface(console.Bus, mode)
		if vi != nil {
			t.Errorf("%s: got a driver, want nil", mode)
		}
		var verr *VideoError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: err = %v, want *VideoError", mode, err)
		}
	}
	if got := console.Bus.Read32(VI_ORIGIN); got != 0 {
		t.Fatalf("failed init wrote VI_ORIGIN = 0x%08X", got)
	}
	if got := console.Bus.Read32(FRAME_BUFFER_BASE); got != 0 {
		t.Fatalf("failed init cleared framebuffer: 0x%08X", got)
	}
}

func TestVI_SwapAlternates(t *testing.T) {
	console, vi, _ := newTestVI(t)
	regs := NewRegisterFile(console.Bus)

	a, b := vi.VisibleBuffer(), vi.WriteTarget()
	if a == b {
		t.Fatalf("visible and write target are both 0x%08X", a)
	}
	for i := range 6 {
		target := vi.WriteTarget()
		if target == regs.ViOrigin() {
			t.Fatalf("swap %d: write target 0x%08X is visible", i, target)
		}
		vi.SwapBuffers()
		if got := regs.ViOrigin(); got != target {
			t.Fatalf("swap %d: VI_ORIGIN = 0x%08X, want 0x%08X", i, got, target)
		}
		want := a
		if i%2 == 1 {
			want = b
		}
		if vi.WriteTarget() != want {
			t.Fatalf("swap %d: write target 0x%08X, want 0x%08X", i, vi.WriteTarget(), want)
		}
	}
	if got := console.VI.FieldsPresented(); got != 7 {
		t.Fatalf("VI_ORIGIN written %d times, want 7", got)
	}
}

func TestVI_WaitForVBlankBlocksUntilBlank(t *testing.T) {
	_, vi, clock := newTestVI(t)

	// Mid-field: roughly half-line 250.
	clock.set(8 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		vi.WaitForVBlank()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("WaitForVBlank returned while scanning the active area")
	case <-time.After(30 * time.Millisecond):
	}

	clock.set(time.Second / VI_NTSC_REFRESH_HZ)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForVBlank did not return after the counter wrapped")
	}
}

func TestVI_WaitForVBlankImmediateAtFieldStart(t *testing.T) {
	_, vi, _ := newTestVI(t)
	done := make(chan struct{})
	go func() {
		vi.WaitForVBlank()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForVBlank blocked at half-line 0")
	}
}

func TestVI_ScanoutReadsOrigin(t *testing.T) {
	console, vi, _ := newTestVI(t)

	red := ColorToRGBA5551(Color{R: 255, A: 255})
	console.Bus.Write16(vi.WriteTarget(), red)
	vi.SwapBuffers()

	dst := make([]byte, SCREEN_WIDTH*SCREEN_HEIGHT*4)
	w, h := console.VI.Scanout(dst)
	if w != SCREEN_WIDTH || h != SCREEN_HEIGHT {
		t.Fatalf("Scanout size %dx%d", w, h)
	}
	if dst[0] != 255 || dst[1] != 0 || dst[2] != 0 || dst[3] != 255 {
		t.Fatalf("pixel 0 = % X, want FF 00 00 FF", dst[:4])
	}
	if dst[4] != 0 || dst[7] != 255 {
		t.Fatalf("pixel 1 = % X, want opaque black", dst[4:8])
	}
}
