// command_buffer.go - Command buffer for the Reality Display

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

// RenderBackend consumes a flushed command buffer. The hardware backend
// encodes RDP display lists; the emulation backend draws offscreen.
type RenderBackend interface {
	Name() string
	Begin()
	SetPipeline(p Pipeline)
	DrawMesh(m *MeshSubmission)
	FillRect(r RectSubmission)
	End()
}

// MeshSubmission is one indexed triangle list. The slices are borrowed from
// the caller until the flush that consumes them returns.
type MeshSubmission struct {
	Verts     [][3]float32
	UVs       [][2]float32
	Colors    []uint32 // 0xRRGGBBAA
	Indices   []uint16
	Transform Mat4
}

// project transforms every vertex to screen space. ok[i] is false when
// vertex i is on or behind the eye plane.
func (m *MeshSubmission) project() ([]ScreenVertex, []bool) {
	sv := make([]ScreenVertex, len(m.Verts))
	ok := make([]bool, len(m.Verts))
	for i, p := range m.Verts {
		x, y, z, visible := projectVertex(&m.Transform, p)
		if !visible {
			continue
		}
		v := ScreenVertex{X: x, Y: y, Z: z, Shade: ColorWhite}
		if i < len(m.UVs) {
			v.S, v.T = m.UVs[i][0], m.UVs[i][1]
		}
		if i < len(m.Colors) {
			v.Shade = ColorFromRGBA32(m.Colors[i])
		}
		sv[i] = v
		ok[i] = true
	}
	return sv, ok
}

// RectSubmission is a flat screen-space rectangle, [X0,X1) x [Y0,Y1).
type RectSubmission struct {
	X0, Y0, X1, Y1 int
	Color          uint32 // 0xRRGGBBAA
}

type commandKind uint8

const (
	cmdMesh commandKind = iota
	cmdRect
)

type command struct {
	kind     commandKind
	pipeline Pipeline
	mesh     MeshSubmission
	rect     RectSubmission
}

// CommandBuffer records one frame of submissions. Pipeline state is sticky:
// every submission is tagged with the pipeline most recently set.
type CommandBuffer struct {
	current  Pipeline
	commands []command
}

func NewCommandBuffer() *CommandBuffer {
	return &CommandBuffer{current: DefaultPipeline()}
}

func (cb *CommandBuffer) SetPipeline(p Pipeline) {
	cb.current = p
}

// Pipeline returns the state the next submission will use.
func (cb *CommandBuffer) Pipeline() Pipeline {
	return cb.current
}

// AddMeshIndexed appends a triangle list drawn with the current pipeline.
// verts, uvs and colors are parallel arrays and every index must address
// them; this is only checked in gfxdebug builds.
func (cb *CommandBuffer) AddMeshIndexed(verts [][3]float32, uvs [][2]float32, colors []uint32, indices []uint16, transform Mat4) {
	if debugAssertions {
		assertf(len(uvs) == len(verts) && len(colors) == len(verts),
			"AddMeshIndexed: %d verts, %d uvs, %d colors", len(verts), len(uvs), len(colors))
		assertf(len(indices)%3 == 0, "AddMeshIndexed: %d indices is not a triangle list", len(indices))
		for i, idx := range indices {
			assertf(int(idx) < len(verts), "AddMeshIndexed: index %d = %d out of range (%d verts)", i, idx, len(verts))
		}
	}
	cb.commands = append(cb.commands, command{
		kind:     cmdMesh,
		pipeline: cb.current,
		mesh: MeshSubmission{
			Verts:     verts,
			UVs:       uvs,
			Colors:    colors,
			Indices:   indices,
			Transform: transform,
		},
	})
}

// AddColoredRect appends a filled rectangle. Rectangles ignore the depth
// buffer and the combiner.
func (cb *CommandBuffer) AddColoredRect(x0, y0, x1, y1 int, rgba uint32) {
	cb.commands = append(cb.commands, command{
		kind:     cmdRect,
		pipeline: cb.current,
		rect:     RectSubmission{X0: x0, Y0: y0, X1: x1, Y1: y1, Color: rgba},
	})
}

func (cb *CommandBuffer) Len() int {
	return len(cb.commands)
}

// Flush replays the recorded submissions against backend in order. The
// backend sees SetPipeline only when the state changes between records.
// An empty buffer makes no backend calls at all.
func (cb *CommandBuffer) Flush(backend RenderBackend) {
	if len(cb.commands) == 0 {
		return
	}
	backend.Begin()
	bound := false
	var last Pipeline
	for i := range cb.commands {
		c := &cb.commands[i]
		if !bound || c.pipeline != last {
			backend.SetPipeline(c.pipeline)
			last = c.pipeline
			bound = true
		}
		switch c.kind {
		case cmdMesh:
			backend.DrawMesh(&c.mesh)
		case cmdRect:
			backend.FillRect(c.rect)
		}
	}
	backend.End()
}

// Clear empties the buffer and restores the default pipeline. It is called
// once per frame after Flush.
func (cb *CommandBuffer) Clear() {
	clear(cb.commands)
	cb.commands = cb.commands[:0]
	cb.current = DefaultPipeline()
}
