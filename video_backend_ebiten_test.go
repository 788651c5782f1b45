//go:build !headless

package main

import (
	"bytes"
	"image/png"
	"testing"
	"time"
)

func TestStatusTokens(t *testing.T) {
	lines := statusTokens(FrameStatus{Backend: "hardware", Frame: 42, VBlankWait: 1500 * time.Microsecond, Misses: 0}, 59.7)
	if len(lines) != 2 {
		t.Fatalf("%d lines", len(lines))
	}
	if lines[0][0].name != "hardware" || lines[0][2].name != "60 FPS" {
		t.Errorf("gfx line %+v", lines[0])
	}
	want := []string{"frame 42", "|", "vblank 1.5ms", "|", "miss 0"}
	for i, w := range want {
		if lines[1][i].name != w {
			t.Errorf("token %d = %q, want %q", i, lines[1][i].name, w)
		}
	}
	if lines[1][4].enabled {
		t.Error("zero misses highlighted")
	}
	if statusTokens(FrameStatus{}, 0)[0][0].name != "-" {
		t.Error("empty backend not shown as -")
	}
}

func TestEbitenOutput_ScreenshotPNG(t *testing.T) {
	vo, err := NewEbitenOutput()
	if err != nil {
		t.Fatal(err)
	}
	eo := vo.(*EbitenOutput)
	frame := make([]byte, SCREEN_WIDTH*SCREEN_HEIGHT*4)
	frame[0], frame[3] = 0xFF, 0xFF
	eo.UpdateFrame(frame)

	data, err := eo.screenshotPNG()
	if err != nil {
		t.Fatalf("screenshotPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, a := img.At(0, 0).RGBA(); r != 0xFFFF || a != 0xFFFF {
		t.Fatalf("pixel 0 = %v", img.At(0, 0))
	}
}
