// vi_driver.go - Video interface driver for the Reality Display

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

// Video Interface driver.
//
// The driver owns both framebuffers. One is visible (VI_ORIGIN points at
// it), the other is the write target handed to whichever backend draws the
// next frame. The two alternate strictly: the driver never returns the
// visible buffer as a write target.

package main

import (
	"fmt"
	"runtime"
)

type TVStandard int

const (
	TVStandardNTSC TVStandard = iota
	TVStandardPAL
	TVStandardMPAL
)

func (s TVStandard) String() string {
	switch s {
	case TVStandardNTSC:
		return "NTSC"
	case TVStandardPAL:
		return "PAL"
	case TVStandardMPAL:
		return "MPAL"
	}
	return fmt.Sprintf("TVStandard(%d)", int(s))
}

// VideoMode is a requested display configuration.
type VideoMode struct {
	Width        int
	Height       int
	BitsPerPixel int
	Standard     TVStandard
}

var VideoModeNTSC320x240 = VideoMode{
	Width:        SCREEN_WIDTH,
	Height:       SCREEN_HEIGHT,
	BitsPerPixel: 16,
	Standard:     TVStandardNTSC,
}

func (m VideoMode) String() string {
	return fmt.Sprintf("%dx%d %dbpp %s", m.Width, m.Height, m.BitsPerPixel, m.Standard)
}

// viProgramme is the register image written by NewVideoInterface, in
// write order.
type viProgramme []struct {
	reg   Register
	value uint32
}

var supportedModes = map[VideoMode]viProgramme{
	VideoModeNTSC320x240: {
		{VI_STATUS, VI_NTSC_STATUS},
		{VI_H_WIDTH, SCREEN_WIDTH},
		{VI_V_INTR, VI_NTSC_V_INTR},
		{VI_TIMING, VI_NTSC_TIMING},
		{VI_V_SYNC, VI_NTSC_V_SYNC},
		{VI_H_SYNC, VI_NTSC_H_SYNC},
		{VI_H_SYNC_LEAP, VI_NTSC_H_SYNC_LEAP},
		{VI_H_VIDEO, VI_NTSC_H_VIDEO},
		{VI_V_VIDEO, VI_NTSC_V_VIDEO},
		{VI_V_BURST, VI_NTSC_V_BURST},
		{VI_X_SCALE, VI_NTSC_X_SCALE},
		{VI_Y_SCALE, VI_NTSC_Y_SCALE},
	},
}

// CheckVideoMode reports whether the VI can display mode. The emulation
// path presents the same framebuffer and accepts the same modes.
func CheckVideoMode(mode VideoMode) error {
	if _, ok := supportedModes[mode]; !ok {
		return &VideoError{
			Operation: "init",
			Details:   fmt.Sprintf("unsupported video mode %s", mode),
		}
	}
	return nil
}

type VideoInterface struct {
	bus         *SystemBus
	regs        *RegisterFile
	mode        VideoMode
	buffers     [2]uint32
	writeTarget int
}

// NewVideoInterface clears both framebuffers and programs the VI for mode.
// An unsupported mode is a configuration error; nothing is written.
func NewVideoInterface(bus *SystemBus, mode VideoMode) (*VideoInterface, error) {
	if err := CheckVideoMode(mode); err != nil {
		return nil, err
	}
	programme := supportedModes[mode]

	vi := &VideoInterface{
		bus:  bus,
		regs: NewRegisterFile(bus),
		mode: mode,
		buffers: [2]uint32{
			FRAME_BUFFER_BASE,
			FRAME_BUFFER_BASE + FRAME_BUFFER_SIZE,
		},
		writeTarget: 1,
	}

	for _, fb := range vi.buffers {
		bus.Fill32(fb, FRAME_BUFFER_FILL, FRAME_BUFFER_SIZE/WORD_SIZE)
	}

	vi.regs.SetViOrigin(vi.buffers[0])
	for _, w := range programme {
		vi.regs.Write(w.reg, w.value)
	}
	return vi, nil
}

func (vi *VideoInterface) Mode() VideoMode {
	return vi.mode
}

// WaitForVBlank spins until the scan position is inside vertical blank.
// There is no timeout: a stopped display clock blocks forever.
func (vi *VideoInterface) WaitForVBlank() {
	for vi.regs.ViCurrent() > VI_VBLANK_HALFLINE {
		runtime.Gosched()
	}
}

// SwapBuffers publishes the write target and makes the previously visible
// buffer the new write target. Call it inside vblank.
func (vi *VideoInterface) SwapBuffers() {
	next := vi.buffers[vi.writeTarget]
	if debugAssertions {
		assertf(vi.regs.ViOrigin() == vi.buffers[vi.writeTarget^1],
			"vi: origin 0x%08X is not the tracked visible buffer", vi.regs.ViOrigin())
	}
	vi.regs.SetViOrigin(next)
	vi.writeTarget ^= 1
}

// WriteTarget is the framebuffer a backend may draw into this frame.
func (vi *VideoInterface) WriteTarget() uint32 {
	return vi.buffers[vi.writeTarget]
}

func (vi *VideoInterface) VisibleBuffer() uint32 {
	return vi.buffers[vi.writeTarget^1]
}
