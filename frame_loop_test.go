package main

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func newTestLoop(t *testing.T, backend string) *FrameLoop {
	t.Helper()
	scene, err := DemoScene()
	if err != nil {
		t.Fatalf("DemoScene: %v", err)
	}
	return newSceneLoop(t, backend, scene)
}

func newSceneLoop(t *testing.T, backend string, scene *Scene) *FrameLoop {
	t.Helper()
	t.Cleanup(scene.Close)

	cfg := DefaultConfig()
	cfg.Backend = backend
	cfg.Software = true
	loop, err := NewFrameLoop(cfg, scene)
	if err != nil {
		t.Fatalf("NewFrameLoop(%s): %v", backend, err)
	}
	t.Cleanup(loop.Close)
	return loop
}

func TestFrameLoop_BackendsAgree(t *testing.T) {
	hw := newTestLoop(t, BACKEND_HARDWARE)
	emu := newTestLoop(t, BACKEND_EMULATION)

	for frame := range 3 {
		hw.Step()
		emu.Step()
		if !slices.Equal(hw.Shown().Pix, emu.Shown().Pix) {
			t.Fatalf("frame %d: hardware and emulation presented different images", frame)
		}
	}
	if hw.Frames() != 3 || emu.Frames() != 3 {
		t.Fatalf("frames %d / %d", hw.Frames(), emu.Frames())
	}
}

const failingThirdFrame = `
function draw(frame)
	if frame == 0 then
		gfx.rect(0, 0, 320, 240, 0xFF0000FF)
	elseif frame == 1 then
		gfx.rect(0, 0, 320, 240, 0x00FF00FF)
	else
		error("no frame " .. frame)
	end
end
`

func TestFrameLoop_SceneErrorPresentsBackground(t *testing.T) {
	for _, backend := range []string{BACKEND_HARDWARE, BACKEND_EMULATION} {
		t.Run(backend, func(t *testing.T) {
			scene, err := NewScene("failing", failingThirdFrame)
			if err != nil {
				t.Fatalf("NewScene: %v", err)
			}
			loop := newSceneLoop(t, backend, scene)

			loop.Step()
			if got := loop.Shown().Pix[0]; got != ColorToRGBA5551(ColorFromRGBA32(0xFF0000FF)) {
				t.Fatalf("frame 0 pixel %04X, want red", got)
			}
			loop.Step()
			loop.Step()
			if scene.Errors() != 1 {
				t.Fatalf("scene errors = %d, want 1", scene.Errors())
			}
			for i, px := range loop.Shown().Pix {
				if px != BACKGROUND_PIXEL {
					t.Fatalf("pixel %d = %04X after scene error, want background %04X", i, px, BACKGROUND_PIXEL)
				}
			}
		})
	}
}

func TestFrameLoop_Status(t *testing.T) {
	hw := newTestLoop(t, BACKEND_HARDWARE)
	hw.Step()
	s := hw.Status()
	if s.Backend != "hardware" || s.Frame != 1 {
		t.Fatalf("status %+v", s)
	}
	if hw.gfx.VI.VisibleBuffer() == hw.gfx.VI.WriteTarget() {
		t.Fatal("visible buffer handed out as write target")
	}

	emu := newTestLoop(t, BACKEND_EMULATION)
	emu.Step()
	if s := emu.Status(); s.Backend != "emulation/software" || s.Misses != 0 {
		t.Fatalf("status %+v", s)
	}
}

func TestFrameLoop_UnsupportedStandard(t *testing.T) {
	scene, err := DemoScene()
	if err != nil {
		t.Fatal(err)
	}
	defer scene.Close()

	for _, backend := range []string{BACKEND_HARDWARE, BACKEND_EMULATION} {
		cfg := DefaultConfig()
		cfg.Backend = backend
		cfg.Software = true
		cfg.Standard = "pal"
		_, err = NewFrameLoop(cfg, scene)
		var verr *VideoError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: err = %v, want *VideoError", backend, err)
		}
	}
}

func TestFrameLoop_Summary(t *testing.T) {
	hw := newTestLoop(t, BACKEND_HARDWARE)
	hw.Step()
	if s := hw.Summary(); !strings.Contains(s, "rdp: lists=") || !strings.HasSuffix(s, "illegal=0)") {
		t.Fatalf("hardware summary %q", s)
	}
	emu := newTestLoop(t, BACKEND_EMULATION)
	emu.Step()
	if s := emu.Summary(); !strings.HasPrefix(s, "emulation/software, 0 variant misses") {
		t.Fatalf("emulation summary %q", s)
	}
}

func TestRecordFrames_WritesPNGs(t *testing.T) {
	loop := newTestLoop(t, BACKEND_EMULATION)
	dir := filepath.Join(t.TempDir(), "out")
	if err := RecordFrames(loop, dir, 2, false); err != nil {
		t.Fatalf("RecordFrames: %v", err)
	}

	for _, name := range []string{"frame_0000.png", "frame_0001.png"} {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if b := img.Bounds(); b.Dx() != SCREEN_WIDTH || b.Dy() != SCREEN_HEIGHT {
			t.Fatalf("%s is %v", name, b)
		}
	}
	if loop.Frames() != 2 {
		t.Fatalf("loop ran %d frames", loop.Frames())
	}
}
