/*
rdp_commands.go - RDP Display List Encoding

A display list is a sequence of 64-bit big-endian command words in RDRAM.
The opcode lives in bits 56..61 of the first word. Every command is one word
except VERTEX_TRIANGLE, which is followed by three words per vertex.

Command Layouts:

    SYNC_FULL          op
    SET_OTHER_MODES    op | modes                      (RDP_MODE_* flags)
    SET_COMBINE        op | packed selectors           (ColorCombinerMode.Pack)
    SET_PRIM_COLOR     op | 0xRRGGBBAA
    SET_FILL_COLOR     op | fill                       (two RGBA5551 pixels, or float32 depth)
    FILL_RECTANGLE     op | x1<<44 | y1<<32 | x0<<12 | y0   (10.2 fixed point, x1/y1 exclusive)
    SET_TEXTURE_IMAGE  op | fmt<<53 | siz<<51 | (width-1)<<32 | address
    SET_TILE_SIZE      op | (width-1)<<2<<12 | (height-1)<<2
    SET_COLOR_IMAGE    op | fmt<<53 | siz<<51 | (width-1)<<32 | address
    SET_Z_IMAGE        op | address
    VERTEX_TRIANGLE    op, then per vertex:
                           float32 x << 32 | float32 y
                           float32 z << 32 | 0xRRGGBBAA
                           float32 s << 32 | float32 t

Addresses are physical. Coordinates in VERTEX_TRIANGLE are framebuffer
pixels after the perspective divide; z is depth in [0, 1].
*/

package main

import (
	"fmt"
	"math"
	"strings"
)

func rdpOp(op uint64) uint64 {
	return op << 56
}

func rdpOpcode(w uint64) int {
	return int(w >> 56 & 0x3F)
}

// rdpCommandWords is the length in words of the command starting with op.
func rdpCommandWords(op int) int {
	if op == RDP_CMD_VERTEX_TRIANGLE {
		return RDP_VERTEX_TRIANGLE_WORDS
	}
	return 1
}

func rdpSyncFull() uint64 {
	return rdpOp(RDP_CMD_SYNC_FULL)
}

func rdpSetOtherModes(modes uint32) uint64 {
	return rdpOp(RDP_CMD_SET_OTHER_MODES) | uint64(modes)
}

func rdpSetCombine(m ColorCombinerMode) uint64 {
	return rdpOp(RDP_CMD_SET_COMBINE) | uint64(m.Pack())
}

func rdpSetPrimColor(rgba uint32) uint64 {
	return rdpOp(RDP_CMD_SET_PRIM_COLOR) | uint64(rgba)
}

func rdpSetFillColor(fill uint32) uint64 {
	return rdpOp(RDP_CMD_SET_FILL_COLOR) | uint64(fill)
}

func rdpFillRectangle(x0, y0, x1, y1 int) uint64 {
	fx := func(v int) uint64 { return uint64(max(v, 0)<<2) & 0xFFF }
	return rdpOp(RDP_CMD_FILL_RECTANGLE) | fx(x1)<<44 | fx(y1)<<32 | fx(x0)<<12 | fx(y0)
}

func rdpImage(op uint64, width int, addr uint32) uint64 {
	return rdpOp(op) | RDP_FMT_RGBA<<53 | RDP_SIZ_16B<<51 | uint64(width-1)&0x3FF<<32 | uint64(PhysAddr(addr))&0x3FFFFFF
}

func rdpSetColorImage(width int, addr uint32) uint64 {
	return rdpImage(RDP_CMD_SET_COLOR_IMAGE, width, addr)
}

func rdpSetTextureImage(width int, addr uint32) uint64 {
	return rdpImage(RDP_CMD_SET_TEXTURE_IMAGE, width, addr)
}

func rdpSetZImage(addr uint32) uint64 {
	return rdpOp(RDP_CMD_SET_Z_IMAGE) | uint64(PhysAddr(addr))&0x3FFFFFF
}

func rdpSetTileSize(width, height int) uint64 {
	return rdpOp(RDP_CMD_SET_TILE_SIZE) | uint64((width-1)<<2)&0xFFF<<12 | uint64((height-1)<<2)&0xFFF
}

func rdpVertexTriangle(v0, v1, v2 *ScreenVertex) [RDP_VERTEX_TRIANGLE_WORDS]uint64 {
	var out [RDP_VERTEX_TRIANGLE_WORDS]uint64
	out[0] = rdpOp(RDP_CMD_VERTEX_TRIANGLE)
	for i, v := range [3]*ScreenVertex{v0, v1, v2} {
		out[1+i*3] = packFloats(v.X, v.Y)
		out[2+i*3] = uint64(math.Float32bits(v.Z))<<32 | uint64(v.Shade.RGBA32())
		out[3+i*3] = packFloats(v.S, v.T)
	}
	return out
}

func packFloats(hi, lo float32) uint64 {
	return uint64(math.Float32bits(hi))<<32 | uint64(math.Float32bits(lo))
}

func unpackFloats(w uint64) (float32, float32) {
	return math.Float32frombits(uint32(w >> 32)), math.Float32frombits(uint32(w))
}

func decodeVertexTriangle(words []uint64) [3]ScreenVertex {
	var out [3]ScreenVertex
	for i := range out {
		v := &out[i]
		v.X, v.Y = unpackFloats(words[1+i*3])
		v.Z = math.Float32frombits(uint32(words[2+i*3] >> 32))
		v.Shade = ColorFromRGBA32(uint32(words[2+i*3]))
		v.S, v.T = unpackFloats(words[3+i*3])
	}
	return out
}

// decodeRect returns the FILL_RECTANGLE bounds in whole pixels.
func decodeRect(w uint64) (x0, y0, x1, y1 int) {
	field := func(shift uint) int { return int(w>>shift&0xFFF) >> 2 }
	return field(12), field(0), field(44), field(32)
}

func decodeImage(w uint64) (width int, addr uint32) {
	return int(w>>32&0x3FF) + 1, uint32(w & 0x3FFFFFF)
}

func decodeTileSize(w uint64) (width, height int) {
	return int(w>>12&0xFFF)>>2 + 1, int(w&0xFFF)>>2 + 1
}

var rdpCommandNames = map[int]string{
	RDP_CMD_VERTEX_TRIANGLE:   "VERTEX_TRIANGLE",
	RDP_CMD_SYNC_FULL:         "SYNC_FULL",
	RDP_CMD_SET_OTHER_MODES:   "SET_OTHER_MODES",
	RDP_CMD_SET_TILE_SIZE:     "SET_TILE_SIZE",
	RDP_CMD_FILL_RECTANGLE:    "FILL_RECTANGLE",
	RDP_CMD_SET_FILL_COLOR:    "SET_FILL_COLOR",
	RDP_CMD_SET_PRIM_COLOR:    "SET_PRIM_COLOR",
	RDP_CMD_SET_COMBINE:       "SET_COMBINE",
	RDP_CMD_SET_TEXTURE_IMAGE: "SET_TEXTURE_IMAGE",
	RDP_CMD_SET_Z_IMAGE:       "SET_Z_IMAGE",
	RDP_CMD_SET_COLOR_IMAGE:   "SET_COLOR_IMAGE",
}

// DisassembleDisplayList renders a list of command words one command per
// line, for the -dump-dl option and test failure messages.
func DisassembleDisplayList(words []uint64) string {
	var sb strings.Builder
	for i := 0; i < len(words); {
		op := rdpOpcode(words[i])
		n := rdpCommandWords(op)
		name, ok := rdpCommandNames[op]
		if !ok {
			name = fmt.Sprintf("UNKNOWN_%02X", op)
		}
		fmt.Fprintf(&sb, "%04d  %-17s", i, name)
		switch op {
		case RDP_CMD_SET_OTHER_MODES, RDP_CMD_SET_PRIM_COLOR, RDP_CMD_SET_FILL_COLOR:
			fmt.Fprintf(&sb, " %08X", uint32(words[i]))
		case RDP_CMD_SET_COMBINE:
			fmt.Fprintf(&sb, " %s", UnpackCombine(uint32(words[i])))
		case RDP_CMD_FILL_RECTANGLE:
			x0, y0, x1, y1 := decodeRect(words[i])
			fmt.Fprintf(&sb, " (%d,%d)-(%d,%d)", x0, y0, x1, y1)
		case RDP_CMD_SET_COLOR_IMAGE, RDP_CMD_SET_TEXTURE_IMAGE:
			w, addr := decodeImage(words[i])
			fmt.Fprintf(&sb, " width=%d addr=%08X", w, addr)
		case RDP_CMD_SET_Z_IMAGE:
			fmt.Fprintf(&sb, " addr=%08X", uint32(words[i]&0x3FFFFFF))
		case RDP_CMD_SET_TILE_SIZE:
			w, h := decodeTileSize(words[i])
			fmt.Fprintf(&sb, " %dx%d", w, h)
		case RDP_CMD_VERTEX_TRIANGLE:
			if i+n <= len(words) {
				for _, v := range decodeVertexTriangle(words[i : i+n]) {
					fmt.Fprintf(&sb, " (%.1f,%.1f,%.3f #%08X)", v.X, v.Y, v.Z, v.Shade.RGBA32())
				}
			}
		}
		sb.WriteByte('\n')
		i += n
	}
	return sb.String()
}
