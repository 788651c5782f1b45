package main

import (
	"encoding/binary"
	"image"
	"image/png"
	"io"
)

// Framebuffer16 is an offscreen RGBA5551 image with the same geometry and
// pixel format as a console framebuffer, so emulation output compares
// pixel-for-pixel with RDRAM.
type Framebuffer16 struct {
	Width  int
	Height int
	Pix    []uint16
}

func NewFramebuffer16(width, height int) *Framebuffer16 {
	fb := &Framebuffer16{Width: width, Height: height, Pix: make([]uint16, width*height)}
	fb.Fill(BACKGROUND_PIXEL)
	return fb
}

func (fb *Framebuffer16) Size() (int, int) {
	return fb.Width, fb.Height
}

func (fb *Framebuffer16) Pixel(x, y int) Color {
	return RGBA5551ToColor(fb.Pix[y*fb.Width+x])
}

func (fb *Framebuffer16) SetPixel(x, y int, c Color) {
	fb.Pix[y*fb.Width+x] = ColorToRGBA5551(c)
}

func (fb *Framebuffer16) Fill(px uint16) {
	for i := range fb.Pix {
		fb.Pix[i] = px
	}
}

func (fb *Framebuffer16) Clone() *Framebuffer16 {
	c := &Framebuffer16{Width: fb.Width, Height: fb.Height, Pix: make([]uint16, len(fb.Pix))}
	copy(c.Pix, fb.Pix)
	return c
}

// Bytes returns the big-endian RDRAM image of the framebuffer.
func (fb *Framebuffer16) Bytes() []byte {
	out := make([]byte, len(fb.Pix)*PIXEL_BYTES)
	for i, px := range fb.Pix {
		binary.BigEndian.PutUint16(out[i*PIXEL_BYTES:], px)
	}
	return out
}

// CopyFromBytes loads a big-endian RDRAM image, as produced by Bytes.
func (fb *Framebuffer16) CopyFromBytes(raw []byte) {
	for i := range fb.Pix {
		if i*PIXEL_BYTES+1 >= len(raw) {
			return
		}
		fb.Pix[i] = binary.BigEndian.Uint16(raw[i*PIXEL_BYTES:])
	}
}

// RGBA8 expands the framebuffer into dst for display. dst must hold
// Width*Height*4 bytes.
func (fb *Framebuffer16) RGBA8(dst []byte) {
	for i, px := range fb.Pix {
		c := RGBA5551ToColor(px)
		dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = c.R, c.G, c.B, c.A
	}
}

func (fb *Framebuffer16) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	fb.RGBA8(img.Pix)
	return img
}

func (fb *Framebuffer16) WritePNG(w io.Writer) error {
	return png.Encode(w, fb.Image())
}
