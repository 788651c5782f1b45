package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
)

// RecordFrames steps loop n times and writes every presented frame to dir
// as frame_NNNN.png. The progress bar is shown when progress is set.
func RecordFrames(loop *FrameLoop, dir string, n int, progress bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.Default(int64(n), "recording")
	}
	for i := range n {
		loop.Step()
		if err := writeFramePNG(filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i)), loop.Shown()); err != nil {
			return err
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	if bar != nil {
		bar.Finish()
	}
	return nil
}

func writeFramePNG(path string, fb *Framebuffer16) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fb.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
