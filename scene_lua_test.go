package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestScene_DemoRecordsFrame(t *testing.T) {
	s, err := DemoScene()
	if err != nil {
		t.Fatalf("DemoScene: %v", err)
	}
	defer s.Close()

	cb := NewCommandBuffer()
	if err := s.Draw(cb, 0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	// background, floor, shadow, cube, tri, health bar
	if cb.Len() != 6 {
		t.Fatalf("demo recorded %d submissions, want 6", cb.Len())
	}

	rec := &recordingBackend{}
	cb.Flush(rec)
	if rec.seen[0] != DefaultPipeline() {
		t.Errorf("background pipeline %+v", rec.seen[0])
	}
	var flash bool
	for _, p := range rec.seen {
		if p == DamageFlashPipeline() {
			flash = true
		}
	}
	if !flash {
		t.Error("frame 0 should flash the cube")
	}
}

func TestScene_ScriptErrorClearsBuffer(t *testing.T) {
	s, err := NewScene("bad.lua", `
function draw(frame)
  gfx.rect(0, 0, 10, 10, 0xFFFFFFFF)
  if frame == 1 then error("boom") end
end`)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	defer s.Close()

	cb := NewCommandBuffer()
	if err := s.Draw(cb, 0); err != nil {
		t.Fatalf("frame 0: %v", err)
	}
	cb.Clear()

	err = s.Draw(cb, 1)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("frame 1 err = %v, want boom", err)
	}
	if cb.Len() != 0 {
		t.Fatalf("failed frame left %d submissions", cb.Len())
	}
	if s.Errors() != 1 {
		t.Fatalf("Errors = %d", s.Errors())
	}

	// The script keeps running on later frames.
	if err := s.Draw(cb, 2); err != nil {
		t.Fatalf("frame 2: %v", err)
	}
}

func TestScene_CompileErrors(t *testing.T) {
	cases := map[string]string{
		"syntax":  "function draw(",
		"no draw": "x = 1",
	}
	for name, src := range cases {
		if _, err := NewScene(name, src); err == nil {
			t.Errorf("%s: compiled", name)
		}
	}
}

func TestScene_BadArgumentsAreScriptErrors(t *testing.T) {
	cases := map[string]string{
		"unknown mesh":    `gfx.mesh("teapot", 0, 0, -4)`,
		"unknown preset":  `gfx.set_pipeline{preset = "glow"}`,
		"unknown combine": `gfx.set_pipeline{combine = "add"}`,
		"unknown texture": `gfx.set_pipeline{texture = "bricks"}`,
		"bad axis":        `gfx.mesh("cube", 0, 0, -4, 1, "w")`,
	}
	for name, body := range cases {
		s, err := NewScene(name, "function draw(frame) "+body+" end")
		if err != nil {
			t.Fatalf("%s: NewScene: %v", name, err)
		}
		if err := s.Draw(NewCommandBuffer(), 0); err == nil {
			t.Errorf("%s: Draw succeeded", name)
		}
		s.Close()
	}
}

func TestScene_SetPipelineFields(t *testing.T) {
	s, err := NewScene("fields.lua", `
function draw(frame)
  gfx.set_pipeline{preset = "shadow", prim = 0x11223344, z_compare = false}
  gfx.rect(0, 0, 1, 1, 0)
  gfx.set_pipeline{combine = "modulate", texture = "checker", blend = true}
  gfx.rect(0, 0, 1, 1, 0)
  gfx.set_pipeline{preset = "flash", prim = false}
  gfx.rect(0, 0, 1, 1, 0)
end`)
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	defer s.Close()

	cb := NewCommandBuffer()
	if err := s.Draw(cb, 0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	rec := &recordingBackend{}
	cb.Flush(rec)

	want := []Pipeline{
		ShadowPipeline().WithPrimColor(0x11223344).WithDepth(false, false),
		DefaultPipeline().
			WithCombiner(SimpleCombine(CombineTexel, CombineZero, CombineShade, CombineZero)).
			WithTexture(CheckerTexture()).
			WithBlend(true),
		DamageFlashPipeline().WithoutPrimColor(),
	}
	if len(rec.seen) != len(want) {
		t.Fatalf("%d pipelines bound, want %d", len(rec.seen), len(want))
	}
	for i := range want {
		if rec.seen[i] != want[i] {
			t.Errorf("pipeline %d = %+v, want %+v", i, rec.seen[i], want[i])
		}
	}
}

func TestScene_LoadTexture(t *testing.T) {
	dir := t.TempDir()
	tex := &Texture{Width: 2, Height: 1, Texels: []uint16{0xF801, 0x07C1}}
	if err := os.WriteFile(filepath.Join(dir, "two.bin"), tex.Encode(), 0o644); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(dir, "tex.lua")
	src := `
gfx.load_texture("two", "two.bin", 2, 1)
function draw(frame)
  gfx.set_pipeline{preset = "textured", texture = "two"}
  gfx.rect(0, 0, 1, 1, 0)
end`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadScene(script)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	defer s.Close()

	got, ok := s.texture("two")
	if !ok || got.Width != 2 || got.Texels[1] != 0x07C1 {
		t.Fatalf("texture = %+v, %t", got, ok)
	}
	if err := s.Draw(NewCommandBuffer(), 0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
}

func TestScene_ReloadSwapsAtFrameStart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "live.lua")
	write := func(n int) {
		t.Helper()
		body := strings.Repeat("gfx.rect(0, 0, 1, 1, 0) ", n)
		if err := os.WriteFile(path, []byte("function draw(frame) "+body+" end"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write(1)
	s, err := LoadScene(path)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	defer s.Close()

	write(3)
	s.reload()
	cb := NewCommandBuffer()
	if err := s.Draw(cb, 0); err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if cb.Len() != 3 || s.Reloads() != 1 {
		t.Fatalf("after reload: %d submissions, %d reloads", cb.Len(), s.Reloads())
	}

	// A broken edit is rejected and the running script stays.
	if err := os.WriteFile(path, []byte("function draw("), 0o644); err != nil {
		t.Fatal(err)
	}
	s.reload()
	cb.Clear()
	if err := s.Draw(cb, 1); err != nil || cb.Len() != 3 {
		t.Fatalf("broken reload replaced the script: %v, %d submissions", err, cb.Len())
	}
}

func TestScene_WatchPicksUpEdits(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.lua")
	if err := os.WriteFile(path, []byte("function draw(frame) end"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadScene(path)
	if err != nil {
		t.Fatalf("LoadScene: %v", err)
	}
	defer s.Close()
	if err := s.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	if err := os.WriteFile(path, []byte("function draw(frame) gfx.rect(0, 0, 1, 1, 0) end"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		cb := NewCommandBuffer()
		if err := s.Draw(cb, 0); err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if cb.Len() == 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("edit was not picked up")
}

func TestScene_EmbeddedCannotBeWatched(t *testing.T) {
	s, err := DemoScene()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Watch(); err == nil {
		t.Fatal("Watch on embedded scene succeeded")
	}
}
