// png2tex - Convert a PNG to the raw RGBA5551 texture format
//
// Usage: go run ./tools/png2tex [-key] in.png out.bin
//
// The output is one little-endian 16-bit RGBA5551 value per pixel, row
// major, no header: what gfx.load_texture reads for non-PNG files. With
// -key, near-black pixels become transparent.

package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

func main() {
	key := flag.Bool("key", false, "make near-black pixels transparent")
	flag.Parse()
	if flag.NArg() != 2 {
		fmt.Println("usage: png2tex [-key] in.png out.bin")
		os.Exit(2)
	}

	in, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Printf("Error opening PNG: %v\n", err)
		os.Exit(1)
	}
	img, err := png.Decode(in)
	in.Close()
	if err != nil {
		fmt.Printf("Error decoding PNG: %v\n", err)
		os.Exit(1)
	}

	data := convert(img, *key)
	if err := os.WriteFile(flag.Arg(1), data, 0o644); err != nil {
		fmt.Printf("Error writing output: %v\n", err)
		os.Exit(1)
	}
	b := img.Bounds()
	fmt.Printf("Written %d bytes to %s (%dx%d)\n", len(data), flag.Arg(1), b.Dx(), b.Dy())
}

// convert packs img as little-endian RGBA5551.
func convert(img image.Image, key bool) []byte {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	out := make([]byte, b.Dx()*b.Dy()*2)
	for i := 0; i < len(nrgba.Pix); i += 4 {
		r, g, bl, a := nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2], nrgba.Pix[i+3]
		if key && r < 16 && g < 16 && bl < 16 {
			a = 0
		}
		px := uint16(r>>3)<<11 | uint16(g>>3)<<6 | uint16(bl>>3)<<1 | uint16(a>>7)
		binary.LittleEndian.PutUint16(out[i/2:], px)
	}
	return out
}
