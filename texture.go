package main

import (
	"encoding/binary"
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/draw"
)

// Texture holds RGBA5551 texels in row-major order. Textures are immutable
// once built; pipelines refer to them by pointer.
type Texture struct {
	Width  int
	Height int
	Texels []uint16
}

// DecodeTexture reads the asset format produced by the build step: one
// little-endian 16-bit RGBA5551 value per pixel, no header.
func DecodeTexture(data []byte, width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("texture: invalid size %dx%d", width, height)
	}
	want := width * height * 2
	if len(data) != want {
		return nil, fmt.Errorf("texture: %dx%d needs %d bytes, got %d", width, height, want, len(data))
	}
	tex := &Texture{Width: width, Height: height, Texels: make([]uint16, width*height)}
	for i := range tex.Texels {
		tex.Texels[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return tex, nil
}

// Encode is the inverse of DecodeTexture.
func (t *Texture) Encode() []byte {
	out := make([]byte, len(t.Texels)*2)
	for i, px := range t.Texels {
		binary.LittleEndian.PutUint16(out[i*2:], px)
	}
	return out
}

// TextureFromImage converts any image to RGBA5551, the same way the asset
// build step does for PNG sources.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	tex := &Texture{Width: b.Dx(), Height: b.Dy(), Texels: make([]uint16, b.Dx()*b.Dy())}
	for i := range tex.Texels {
		p := nrgba.Pix[i*4 : i*4+4]
		tex.Texels[i] = ColorToRGBA5551(Color{p[0], p[1], p[2], p[3]})
	}
	return tex
}

// Sample does a nearest-neighbour lookup with repeat wrapping. u and v are
// normalised; (0,0) is the top-left texel. A nil texture is opaque white.
func (t *Texture) Sample(u, v float32) Color {
	if t == nil || len(t.Texels) == 0 {
		return ColorWhite
	}
	x := wrapTexel(u, t.Width)
	y := wrapTexel(v, t.Height)
	return RGBA5551ToColor(t.Texels[y*t.Width+x])
}

func wrapTexel(coord float32, size int) int {
	i := int(floor32(coord * float32(size)))
	i %= size
	if i < 0 {
		i += size
	}
	return i
}

// CheckerTexture is the 32x32 two-tone test texture scenes refer to as
// "checker".
var CheckerTexture = sync.OnceValue(func() *Texture {
	const size, cell = 32, 8
	light := ColorToRGBA5551(Color{0xF0, 0xF0, 0xF0, 0xFF})
	dark := ColorToRGBA5551(Color{0x50, 0x50, 0x78, 0xFF})
	tex := &Texture{Width: size, Height: size, Texels: make([]uint16, size*size)}
	for y := range size {
		for x := range size {
			px := dark
			if (x/cell+y/cell)%2 == 0 {
				px = light
			}
			tex.Texels[y*size+x] = px
		}
	}
	return tex
})
