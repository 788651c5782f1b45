package main

import (
	"image"
	"image/color"
	"testing"
)

func TestConvert(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{0xFF, 0, 0, 0xFF})
	img.SetNRGBA(1, 0, color.NRGBA{4, 4, 4, 0xFF})

	got := convert(img, false)
	want := []byte{0x01, 0xF8, 0x01, 0x00}
	if string(got) != string(want) {
		t.Fatalf("convert = % X, want % X", got, want)
	}

	keyed := convert(img, true)
	if keyed[2] != 0 || keyed[3] != 0 {
		t.Fatalf("near-black pixel not keyed: % X", keyed[2:])
	}
	if keyed[0] != 0x01 || keyed[1] != 0xF8 {
		t.Fatalf("red pixel changed by keying: % X", keyed[:2])
	}
}
