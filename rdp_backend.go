// rdp_backend.go - Hardware render backend for the Reality Display

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
	"encoding/binary"
	"fmt"
)

// HardwareBackend renders a command buffer on the console model. Vertices
// are transformed on the CPU and each triangle becomes one RDP
// VERTEX_TRIANGLE command in a display list at RDP_DL_ADDR. The list always
// draws into the VI write target.
type HardwareBackend struct {
	gfx *Graphics
	bus *SystemBus

	list     []uint64
	target   uint32
	pipeline Pipeline
	textures map[*Texture]uint32
	texNext  uint32

	triangles int
	dropped   int
	lists     int
}

func NewHardwareBackend(gfx *Graphics) *HardwareBackend {
	return &HardwareBackend{
		gfx:      gfx,
		bus:      gfx.Bus,
		list:     make([]uint64, 0, RDP_DL_SIZE/DOUBLEWORD_SIZE),
		textures: make(map[*Texture]uint32),
	}
}

func (b *HardwareBackend) Name() string {
	return "hardware"
}

func (b *HardwareBackend) Begin() {
	// The list area is reused every frame.
	b.gfx.RDP.WaitForDone()

	b.list = b.list[:0]
	b.target = b.gfx.VI.WriteTarget()
	b.pipeline = DefaultPipeline()
	clear(b.textures)
	b.texNext = TEXTURE_AREA_ADDR
	b.triangles, b.dropped, b.lists = 0, 0, 0

	b.emit(rdpSetZImage(ZBUFFER_ADDR))
	b.emit(rdpSetColorImage(SCREEN_WIDTH, ZBUFFER_ADDR))
	b.emit(rdpSetFillColor(DEPTH_FAR_BITS))
	b.emit(rdpFillRectangle(0, 0, SCREEN_WIDTH, SCREEN_HEIGHT))
	b.emit(rdpSetColorImage(SCREEN_WIDTH, b.target))
}

func (b *HardwareBackend) SetPipeline(p Pipeline) {
	b.pipeline = p
	b.emitPipeline()
}

func (b *HardwareBackend) emitPipeline() {
	p := b.pipeline
	addr, ok := uint32(0), false
	if p.Texture != nil {
		addr, ok = b.uploadTexture(p.Texture)
		if !ok {
			p.Texture = nil
		}
	}
	b.emit(rdpSetOtherModes(p.otherModes()))
	b.emit(rdpSetCombine(p.Combiner))
	b.emit(rdpSetPrimColor(p.Primitive().RGBA32()))
	if ok {
		b.emit(rdpSetTextureImage(p.Texture.Width, addr))
		b.emit(rdpSetTileSize(p.Texture.Width, p.Texture.Height))
	}
}

// uploadTexture copies t into the texture area once per flush and returns
// its RDRAM address.
func (b *HardwareBackend) uploadTexture(t *Texture) (uint32, bool) {
	if addr, ok := b.textures[t]; ok {
		return addr, true
	}
	size := uint32(len(t.Texels) * PIXEL_BYTES)
	if b.texNext+size > TEXTURE_AREA_ADDR+TEXTURE_AREA_SIZE {
		fmt.Printf("rdp: texture area full, drawing %dx%d texture untextured\n", t.Width, t.Height)
		return 0, false
	}
	raw := make([]byte, size)
	for i, px := range t.Texels {
		binary.BigEndian.PutUint16(raw[i*PIXEL_BYTES:], px)
	}
	addr := b.texNext
	b.bus.WriteBlock(addr, raw)
	b.textures[t] = addr
	b.texNext = (addr + size + 7) &^ 7
	return addr, true
}

func (b *HardwareBackend) DrawMesh(m *MeshSubmission) {
	sv, ok := m.project()
	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if !ok[i0] || !ok[i1] || !ok[i2] {
			b.dropped++
			continue
		}
		tri := rdpVertexTriangle(&sv[i0], &sv[i1], &sv[i2])
		b.reserve(len(tri))
		b.list = append(b.list, tri[:]...)
		b.triangles++
	}
}

func (b *HardwareBackend) FillRect(r RectSubmission) {
	px := uint32(ColorToRGBA5551(ColorFromRGBA32(r.Color)))
	b.emit(rdpSetFillColor(px<<16 | px))
	b.emit(rdpFillRectangle(r.X0, r.Y0, r.X1, r.Y1))
}

// End closes the list and kicks the RDP. It does not wait for the RDP;
// Graphics.SwapBuffers does.
func (b *HardwareBackend) End() {
	b.emit(rdpSyncFull())
	b.submit()
}

func (b *HardwareBackend) emit(w uint64) {
	b.reserve(1)
	b.list = append(b.list, w)
}

// reserve makes room for n more words. When the list area is full the
// current list is executed and a new one starts with the same state bound.
func (b *HardwareBackend) reserve(n int) {
	// Leave room for the SYNC_FULL that closes every list.
	if (len(b.list)+n+1)*DOUBLEWORD_SIZE <= RDP_DL_SIZE {
		return
	}
	b.list = append(b.list, rdpSyncFull())
	b.submit()
	b.gfx.RDP.WaitForDone()
	b.list = b.list[:0]
	b.list = append(b.list,
		rdpSetZImage(ZBUFFER_ADDR),
		rdpSetColorImage(SCREEN_WIDTH, b.target))
	b.emitPipeline()
}

func (b *HardwareBackend) submit() {
	raw := make([]byte, len(b.list)*DOUBLEWORD_SIZE)
	for i, w := range b.list {
		binary.BigEndian.PutUint64(raw[i*DOUBLEWORD_SIZE:], w)
	}
	b.bus.WriteBlock(RDP_DL_ADDR, raw)
	b.gfx.RDP.Submit(RDP_DL_ADDR, RDP_DL_ADDR+uint32(len(raw)))
	b.lists++
}

// DisplayList returns the words of the list most recently built.
func (b *HardwareBackend) DisplayList() []uint64 {
	return b.list
}

func (b *HardwareBackend) Stats() string {
	return fmt.Sprintf("%d triangles, %d dropped, %d lists", b.triangles, b.dropped, b.lists)
}
