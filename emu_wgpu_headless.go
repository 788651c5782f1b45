//go:build headless

package main

func init() {
	compiledFeatures = append(compiledFeatures, "emu:software-only")
}

// Headless builds carry no GPU stack; the emulation backend always uses
// the software renderer.
func newGPURenderer(width, height int) (emuRenderer, error) {
	return nil, errNoAdapter
}
