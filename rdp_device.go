// rdp_device.go - RDP device model for the Reality Display

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
	"math"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
)

// RDPDevice executes display lists from RDRAM. Writing DPC_END starts a
// goroutine that walks [DPC_START, DPC_END) and clears the busy bits in
// DPC_STATUS when it reaches the end.
//
// Colour goes to the colour image in RDRAM. Depth is kept in the device's
// own rasterizer; the z image address only identifies when a fill targets
// the depth buffer.
type RDPDevice struct {
	bus *SystemBus

	mu      sync.Mutex
	start   uint32
	end     uint32
	current uint32
	status  uint32
	running bool
	done    chan struct{}

	clock    atomic.Uint32 // commands executed
	lists    atomic.Uint64
	illegals atomic.Uint64

	// Execution state, owned by the run goroutine
	raster     *Rasterizer
	pipeline   Pipeline
	dirty      bool
	programs   map[ColorCombinerMode]*combinerProgram
	fill       uint32
	colorImage rdramTarget
	zImage     uint32
	texAddr    uint32
	texWidth   int
	textures   map[uint32]*Texture
}

func NewRDPDevice(bus *SystemBus) *RDPDevice {
	return &RDPDevice{
		bus:      bus,
		status:   DPC_STATUS_CBUF_READY,
		raster:   NewRasterizer(SCREEN_WIDTH, SCREEN_HEIGHT),
		pipeline: DefaultPipeline(),
		dirty:    true,
		programs: make(map[ColorCombinerMode]*combinerProgram),
		textures: make(map[uint32]*Texture),
		colorImage: rdramTarget{
			bus:    bus,
			width:  SCREEN_WIDTH,
			height: SCREEN_HEIGHT,
		},
	}
}

func (d *RDPDevice) Map(bus *SystemBus) {
	bus.MapIO(DPC_BASE, DPC_REG_END, d.HandleRead, d.HandleWrite)
}

func (d *RDPDevice) HandleRead(addr uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch PhysAddr(addr) &^ 3 {
	case PhysAddr(DPC_START):
		return d.start
	case PhysAddr(DPC_END):
		return d.end
	case PhysAddr(DPC_CURRENT):
		return d.current
	case PhysAddr(DPC_STATUS):
		return d.status
	case PhysAddr(DPC_CLOCK):
		return d.clock.Load()
	}
	return 0
}

func (d *RDPDevice) HandleWrite(addr uint32, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch PhysAddr(addr) &^ 3 {
	case PhysAddr(DPC_START):
		d.start = PhysAddr(value) &^ 7
		d.status |= DPC_STATUS_START_VALID
	case PhysAddr(DPC_END):
		d.end = PhysAddr(value) &^ 7
		d.status |= DPC_STATUS_END_VALID
		d.kickLocked()
	case PhysAddr(DPC_STATUS):
		if value&DPC_CLR_FREEZE != 0 {
			d.status &^= DPC_STATUS_FREEZE
		}
		if value&DPC_SET_FREEZE != 0 {
			d.status |= DPC_STATUS_FREEZE
		}
		if value&DPC_CLR_FLUSH != 0 {
			d.status &^= DPC_STATUS_FLUSH
		}
		if value&DPC_SET_FLUSH != 0 {
			d.status |= DPC_STATUS_FLUSH
		}
		if value&DPC_CLR_XBUS_DMEM_DMA != 0 {
			d.status &^= DPC_STATUS_XBUS_DMEM_DMA
		}
		if value&DPC_SET_XBUS_DMEM_DMA != 0 {
			d.status |= DPC_STATUS_XBUS_DMEM_DMA
		}
	}
}

// kickLocked starts a list at DPC_START, or extends the running one to the
// new DPC_END.
func (d *RDPDevice) kickLocked() {
	if d.running {
		return
	}
	if d.status&DPC_STATUS_START_VALID != 0 {
		d.current = d.start
		d.status &^= DPC_STATUS_START_VALID
	}
	d.status &^= DPC_STATUS_END_VALID | DPC_STATUS_CBUF_READY
	d.status |= DPC_BUSY_MASK | DPC_STATUS_START_GCLK
	d.running = true
	done := make(chan struct{})
	d.done = done
	d.lists.Add(1)
	go func() {
		defer close(done)
		d.run()
	}()
}

func (d *RDPDevice) run() {
	var words [RDP_VERTEX_TRIANGLE_WORDS]uint64
	var raw [RDP_VERTEX_TRIANGLE_WORDS * DOUBLEWORD_SIZE]byte
	for {
		d.mu.Lock()
		cur, end, frozen := d.current, d.end, d.status&DPC_STATUS_FREEZE != 0
		if cur >= end {
			d.status &^= DPC_BUSY_MASK | DPC_STATUS_START_GCLK
			d.status |= DPC_STATUS_CBUF_READY
			d.running = false
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		if frozen {
			runtime.Gosched()
			continue
		}

		d.bus.ReadBlock(cur, raw[:DOUBLEWORD_SIZE])
		words[0] = binary.BigEndian.Uint64(raw[:])
		n := rdpCommandWords(rdpOpcode(words[0]))
		if cur+uint32(n*DOUBLEWORD_SIZE) > end {
			n = 1 // truncated command: skip its header
		} else if n > 1 {
			d.bus.ReadBlock(cur, raw[:n*DOUBLEWORD_SIZE])
			for i := range n {
				words[i] = binary.BigEndian.Uint64(raw[i*DOUBLEWORD_SIZE:])
			}
		}
		d.execute(words[:n])
		d.clock.Add(1)

		d.mu.Lock()
		d.current = cur + uint32(n*DOUBLEWORD_SIZE)
		d.mu.Unlock()
	}
}

func (d *RDPDevice) execute(cmd []uint64) {
	w := cmd[0]
	switch op := rdpOpcode(w); op {
	case RDP_CMD_SYNC_FULL:
		// Everything before it has already retired.
	case RDP_CMD_SET_OTHER_MODES:
		m := uint32(w)
		d.pipeline.ZCompare = m&RDP_MODE_Z_COMPARE != 0
		d.pipeline.ZUpdate = m&RDP_MODE_Z_UPDATE != 0
		d.pipeline.Blend = m&RDP_MODE_BLEND != 0
		if m&RDP_MODE_TEXTURE == 0 {
			d.pipeline.Texture = nil
		}
		d.dirty = true
	case RDP_CMD_SET_COMBINE:
		d.pipeline.Combiner = UnpackCombine(uint32(w))
		d.dirty = true
	case RDP_CMD_SET_PRIM_COLOR:
		d.pipeline = d.pipeline.WithPrimColor(uint32(w))
		d.dirty = true
	case RDP_CMD_SET_FILL_COLOR:
		d.fill = uint32(w)
	case RDP_CMD_SET_COLOR_IMAGE:
		width, addr := decodeImage(w)
		d.colorImage.addr = addr
		d.colorImage.width = width
	case RDP_CMD_SET_Z_IMAGE:
		d.zImage = uint32(w & 0x3FFFFFF)
	case RDP_CMD_SET_TEXTURE_IMAGE:
		d.texWidth, d.texAddr = decodeImage(w)
	case RDP_CMD_SET_TILE_SIZE:
		// The texture image sets the row pitch; the tile only adds height.
		_, height := decodeTileSize(w)
		d.pipeline.Texture = d.loadTexture(d.texAddr, d.texWidth, height)
		d.dirty = true
	case RDP_CMD_FILL_RECTANGLE:
		x0, y0, x1, y1 := decodeRect(w)
		if d.colorImage.addr == d.zImage {
			d.raster.FillDepth(x0, y0, x1, y1, math.Float32frombits(d.fill))
			return
		}
		d.raster.FillRect(&d.colorImage, x0, y0, x1, y1, RGBA5551ToColor(uint16(d.fill>>16)))
	case RDP_CMD_VERTEX_TRIANGLE:
		if len(cmd) < RDP_VERTEX_TRIANGLE_WORDS {
			return
		}
		d.bind()
		v := decodeVertexTriangle(cmd)
		d.raster.DrawTriangle(&d.colorImage, &v[0], &v[1], &v[2])
	default:
		d.illegals.Add(1)
		fmt.Printf("rdp: unknown command %016X, skipped\n", w)
	}
}

func (d *RDPDevice) bind() {
	if !d.dirty {
		return
	}
	prog, ok := d.programs[d.pipeline.Combiner]
	if !ok {
		prog = compileCombiner(d.pipeline.Combiner)
		d.programs[d.pipeline.Combiner] = prog
	}
	d.raster.Bind(d.pipeline, prog)
	d.dirty = false
}

// loadTexture reads a big-endian RGBA5551 texture out of RDRAM. Decoded
// textures are cached by address until the texels at that address change.
func (d *RDPDevice) loadTexture(addr uint32, width, height int) *Texture {
	raw := make([]byte, width*height*PIXEL_BYTES)
	d.bus.ReadBlock(addr, raw)
	texels := make([]uint16, width*height)
	for i := range texels {
		texels[i] = binary.BigEndian.Uint16(raw[i*PIXEL_BYTES:])
	}
	if t, ok := d.textures[addr]; ok && t.Width == width && t.Height == height && slices.Equal(t.Texels, texels) {
		return t
	}
	t := &Texture{Width: width, Height: height, Texels: texels}
	d.textures[addr] = t
	return t
}

// Wait joins the current list goroutine, if any.
func (d *RDPDevice) Wait() {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (d *RDPDevice) ListsExecuted() uint64 {
	return d.lists.Load()
}

// Illegals counts unknown commands skipped since startup.
func (d *RDPDevice) Illegals() uint64 {
	return d.illegals.Load()
}

func (d *RDPDevice) String() string {
	return fmt.Sprintf("rdp: lists=%d illegal=%d", d.lists.Load(), d.illegals.Load())
}

// DepthAt exposes the device's depth buffer for tests. Only meaningful
// while the RDP is idle.
func (d *RDPDevice) DepthAt(x, y int) float32 {
	return d.raster.Depth(x, y)
}

// rdramTarget is a 16-bit colour image in RDRAM.
type rdramTarget struct {
	bus    *SystemBus
	addr   uint32
	width  int
	height int
}

func (t *rdramTarget) Size() (int, int) {
	return t.width, t.height
}

func (t *rdramTarget) pixelAddr(x, y int) uint32 {
	return t.addr + uint32((y*t.width+x)*PIXEL_BYTES)
}

func (t *rdramTarget) Pixel(x, y int) Color {
	return RGBA5551ToColor(t.bus.Read16(t.pixelAddr(x, y)))
}

func (t *rdramTarget) SetPixel(x, y int, c Color) {
	t.bus.Write16(t.pixelAddr(x, y), ColorToRGBA5551(c))
}
