// vi_device.go - Video interface device model for the Reality Display

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
	"sync"
	"sync/atomic"
	"time"
)

// VIDevice models the video interface as seen from the register bus: a
// register file, a free-running half-line counter and a scanout that reads
// the framebuffer at VI_ORIGIN.
//
// The scan position is derived from a clock rather than a ticking
// goroutine, so tests can freeze or step it. With VI_STATUS type 0 (blank)
// the clock is stopped and VI_CURRENT stays where it was.
type VIDevice struct {
	mu   sync.Mutex
	bus  *SystemBus
	regs [VI_REG_COUNT]uint32

	now     func() time.Time
	start   time.Time
	frozen  uint32
	origins atomic.Uint64
}

const viFrozenHalfline = 0x200

func NewVIDevice(bus *SystemBus) *VIDevice {
	return &VIDevice{
		bus:    bus,
		now:    time.Now,
		start:  time.Now(),
		frozen: viFrozenHalfline,
	}
}

// SetClock replaces the time source driving the scan counter.
func (vi *VIDevice) SetClock(now func() time.Time) {
	vi.mu.Lock()
	defer vi.mu.Unlock()
	vi.now = now
	vi.start = now()
}

func (vi *VIDevice) Map(bus *SystemBus) {
	bus.MapIO(VI_BASE, VI_END, vi.HandleRead, vi.HandleWrite)
}

func viIndex(addr uint32) int {
	return int((PhysAddr(addr) - PhysAddr(VI_BASE)) / WORD_SIZE)
}

func (vi *VIDevice) HandleRead(addr uint32) uint32 {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	if PhysAddr(addr)&^3 == PhysAddr(VI_CURRENT) {
		return vi.halflineLocked()
	}
	return vi.regs[viIndex(addr)]
}

func (vi *VIDevice) HandleWrite(addr uint32, value uint32) {
	vi.mu.Lock()
	defer vi.mu.Unlock()

	switch PhysAddr(addr) &^ 3 {
	case PhysAddr(VI_CURRENT):
		// Writing VI_CURRENT acknowledges the vertical interrupt; there is
		// no interrupt line to clear.
		return
	case PhysAddr(VI_ORIGIN):
		vi.origins.Add(1)
	case PhysAddr(VI_STATUS):
		wasBlank := vi.regs[0]&VI_STATUS_TYPE_MASK == 0
		if wasBlank && value&VI_STATUS_TYPE_MASK != 0 {
			vi.start = vi.now()
		}
		if !wasBlank && value&VI_STATUS_TYPE_MASK == 0 {
			vi.frozen = vi.halflineLocked()
		}
	}
	vi.regs[viIndex(addr)] = value
}

func (vi *VIDevice) halflineLocked() uint32 {
	vsync := vi.regs[viIndex(VI_V_SYNC)]
	if vi.regs[0]&VI_STATUS_TYPE_MASK == 0 || vsync == 0 {
		return vi.frozen
	}
	field := time.Second / VI_NTSC_REFRESH_HZ
	elapsed := vi.now().Sub(vi.start) % field
	return uint32(uint64(elapsed) * uint64(vsync) / uint64(field))
}

// FieldsPresented counts writes to VI_ORIGIN.
func (vi *VIDevice) FieldsPresented() uint64 {
	return vi.origins.Load()
}

// Scanout converts the framebuffer at VI_ORIGIN to RGBA8 bytes, the way the
// display would see it. dst must hold width*height*4 bytes.
func (vi *VIDevice) Scanout(dst []byte) (width, height int) {
	vi.mu.Lock()
	origin := vi.regs[viIndex(VI_ORIGIN)]
	width = int(vi.regs[viIndex(VI_H_WIDTH)])
	status := vi.regs[0]
	vi.mu.Unlock()

	if width == 0 || status&VI_STATUS_TYPE_MASK != VI_STATUS_TYPE_16 {
		clear(dst)
		return 0, 0
	}
	height = SCREEN_HEIGHT
	raw := make([]byte, width*height*PIXEL_BYTES)
	vi.bus.ReadBlock(origin, raw)
	for i := range width * height {
		px := uint16(raw[i*2])<<8 | uint16(raw[i*2+1])
		c := RGBA5551ToColor(px)
		o := i * 4
		if o+3 >= len(dst) {
			break
		}
		dst[o], dst[o+1], dst[o+2], dst[o+3] = c.R, c.G, c.B, c.A
	}
	return width, height
}
