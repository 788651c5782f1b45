package main

import "image/color"

// Color is an 8-bit-per-channel RGBA value. All combiner and blender
// arithmetic happens at this precision; framebuffers store RGBA5551.
type Color struct {
	R, G, B, A uint8
}

var (
	ColorWhite = Color{0xFF, 0xFF, 0xFF, 0xFF}
	ColorBlack = Color{0x00, 0x00, 0x00, 0xFF}
)

// ColorFromRGBA32 unpacks 0xRRGGBBAA, the layout used for vertex colours
// and the primitive colour.
func ColorFromRGBA32(v uint32) Color {
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

func (c Color) RGBA32() uint32 {
	return uint32(c.R)<<24 | uint32(c.G)<<16 | uint32(c.B)<<8 | uint32(c.A)
}

func (c Color) channel(i int) uint8 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	case 2:
		return c.B
	}
	return c.A
}

func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// ColorToRGBA5551 truncates to 5 bits per colour channel. Alpha keeps only
// its top bit.
func ColorToRGBA5551(c Color) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>3)<<6 | uint16(c.B>>3)<<1 | uint16(c.A>>7)
}

// RGBA5551ToColor replicates the top bits into the low bits so that 0x1F
// expands to 0xFF and quantising the result again is lossless.
func RGBA5551ToColor(p uint16) Color {
	c := Color{
		R: expand5(uint8(p >> 11 & 0x1F)),
		G: expand5(uint8(p >> 6 & 0x1F)),
		B: expand5(uint8(p >> 1 & 0x1F)),
	}
	if p&1 != 0 {
		c.A = 0xFF
	}
	return c
}

func expand5(v uint8) uint8 {
	return v<<3 | v>>2
}

// Quantize5551 returns the colour a framebuffer read-back would produce.
func Quantize5551(c Color) Color {
	return RGBA5551ToColor(ColorToRGBA5551(c))
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
