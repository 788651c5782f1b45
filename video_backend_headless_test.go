//go:build headless

package main

import "testing"

func TestHeadlessOutput_DisplayConfig(t *testing.T) {
	out, err := NewVideoOutput(DisplayConfig{Width: SCREEN_WIDTH, Height: SCREEN_HEIGHT, Scale: 9, Fullscreen: true})
	if err != nil {
		t.Fatalf("NewVideoOutput: %v", err)
	}
	got := out.GetDisplayConfig()
	if !got.Fullscreen || got.Width != SCREEN_WIDTH {
		t.Fatalf("config %+v", got)
	}
	if out.GetRefreshRate() != 60 {
		t.Fatalf("refresh %d", out.GetRefreshRate())
	}
}

func TestHeadlessOutput_FramesAndStatus(t *testing.T) {
	out := &HeadlessVideoOutput{}
	if err := out.Start(); err != nil || !out.IsStarted() {
		t.Fatalf("Start: %v", err)
	}
	frame := []byte{1, 2, 3, 4}
	out.UpdateFrame(frame)
	frame[0] = 9
	out.UpdateFrame(frame)
	if out.GetFrameCount() != 2 {
		t.Fatalf("frame count %d", out.GetFrameCount())
	}
	if out.last[0] != 9 {
		t.Fatal("last frame not copied")
	}

	out.SetStatus(FrameStatus{Backend: "hardware", Frame: 7})
	if s := out.LastStatus(); s.Backend != "hardware" || s.Frame != 7 {
		t.Fatalf("status %+v", s)
	}
	if out.Done() != nil {
		t.Fatal("headless Done should never fire")
	}
	out.Close()
	if out.IsStarted() {
		t.Fatal("still started after Close")
	}
}

func TestClampScale(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 3: 3, 6: 6, 40: 6, -2: 1} {
		if got := ClampScale(in); got != want {
			t.Errorf("ClampScale(%d) = %d, want %d", in, got, want)
		}
	}
}
