// frame_loop.go - Frame loop for the Reality Display

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"fmt"
	"time"
)

// FrameLoop drives one backend: each Step runs the scene into the command
// buffer, flushes it, clears it and presents the result.
type FrameLoop struct {
	scene   *Scene
	cb      *CommandBuffer
	backend RenderBackend

	// Hardware path
	console *Console
	gfx     *Graphics
	hw      *HardwareBackend
	raw     []byte

	// Emulation path
	emu *EmulationBackend

	shown    *Framebuffer16
	frame    uint64
	lastWait time.Duration
	dumpDL   bool
}

// NewFrameLoop builds the backend cfg selects. Configuration errors from
// the VI or the emulation backend are returned as is.
func NewFrameLoop(cfg Config, scene *Scene) (*FrameLoop, error) {
	l := &FrameLoop{
		scene:  scene,
		cb:     NewCommandBuffer(),
		shown:  NewFramebuffer16(SCREEN_WIDTH, SCREEN_HEIGHT),
		dumpDL: cfg.DumpDL,
	}

	switch cfg.Backend {
	case BACKEND_HARDWARE:
		l.console = NewConsole()
		gfx, err := NewGraphics(l.console.Bus, cfg.VideoMode())
		if err != nil {
			return nil, err
		}
		l.gfx = gfx
		l.hw = NewHardwareBackend(gfx)
		l.backend = l.hw
		l.raw = make([]byte, SCREEN_WIDTH*SCREEN_HEIGHT*PIXEL_BYTES)
	default:
		if err := CheckVideoMode(cfg.VideoMode()); err != nil {
			return nil, err
		}
		emu, err := NewEmulationBackend(EmulationConfig{
			Width:         SCREEN_WIDTH,
			Height:        SCREEN_HEIGHT,
			Variants:      StandardVariants(),
			ForceSoftware: cfg.Software,
		})
		if err != nil {
			return nil, err
		}
		l.emu = emu
		l.backend = emu
	}
	return l, nil
}

func (l *FrameLoop) Backend() RenderBackend {
	return l.backend
}

// Step renders and presents one frame. Scene errors are printed and the
// frame goes out filled with the background colour.
func (l *FrameLoop) Step() {
	if err := l.scene.Draw(l.cb, l.frame); err != nil {
		fmt.Printf("scene: %v\n", err)
		l.cb.Clear()
		l.cb.AddColoredRect(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT, BACKGROUND_RGBA)
	}
	l.cb.Flush(l.backend)
	l.cb.Clear()

	if l.dumpDL && l.hw != nil && l.frame == 0 {
		fmt.Print(DisassembleDisplayList(l.hw.DisplayList()))
	}

	if l.gfx != nil {
		l.lastWait = l.gfx.SwapBuffers()
		l.console.Bus.ReadBlock(l.gfx.VI.VisibleBuffer(), l.raw)
		l.shown.CopyFromBytes(l.raw)
	} else {
		copy(l.shown.Pix, l.emu.Target().Pix)
	}
	l.frame++
}

// Shown is the last presented frame: the visible framebuffer on hardware,
// the offscreen target under emulation.
func (l *FrameLoop) Shown() *Framebuffer16 {
	return l.shown
}

func (l *FrameLoop) Frames() uint64 {
	return l.frame
}

func (l *FrameLoop) Status() FrameStatus {
	s := FrameStatus{
		Backend:    l.backend.Name(),
		Frame:      l.frame,
		VBlankWait: l.lastWait,
	}
	if l.emu != nil {
		s.Misses = l.emu.VariantMisses()
	}
	return s
}

// Summary reports the backend counters for the end of a run.
func (l *FrameLoop) Summary() string {
	if l.hw != nil {
		return fmt.Sprintf("%s (%s)", l.hw.Stats(), l.console.RDP)
	}
	return fmt.Sprintf("%s, %d variant misses, %d compile failures, %d draws skipped",
		l.emu.Name(), l.emu.VariantMisses(), l.emu.CompileFailures(), l.emu.SkippedDraws())
}

func (l *FrameLoop) Close() {
	if l.emu != nil {
		l.emu.Destroy()
	}
	if l.console != nil {
		l.console.RSP.Wait()
		l.console.RDP.Wait()
	}
}
