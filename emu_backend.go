// emu_backend.go - Emulation render backend for the Reality Display

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

/*
emu_backend.go - Emulation Backend

The emulation backend consumes the same command buffer as the hardware
backend and renders it offscreen into a Framebuffer16, the console's own
resolution and pixel format, so its output compares pixel for pixel with a
framebuffer read out of RDRAM.

Renderers:

    WebGPU    one shader module and render pipeline per pipeline variant,
              compiled when the backend is created (emu_wgpu.go)
    Software  the shared Rasterizer with one compiled combiner program per
              variant. Used when no adapter is available, in headless
              builds, or when EmulationConfig.ForceSoftware is set.

Both renderers build their variant cache up front. A pipeline whose variant
was not listed in EmulationConfig.Variants is a contract violation: gfxdebug
builds panic, release builds compile it on first use and print a warning.

Frame State:

    The colour target persists across flushes, as a console framebuffer
    does. Depth is cleared to the far plane at the start of every flush.
*/

package main

import (
	"errors"
	"fmt"
)

// BackendError reports an emulation backend that could not be built.
type BackendError struct {
	Operation string
	Details   string
	Err       error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("emulation %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("emulation %s failed: %s", e.Operation, e.Details)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// errNoAdapter means the GPU path is unavailable and the software renderer
// should be used instead.
var errNoAdapter = errors.New("no GPU adapter")

type EmulationConfig struct {
	Width         int
	Height        int
	Variants      []Pipeline // compiled at startup; DefaultPipeline is always added
	ForceSoftware bool
}

// StandardVariants are the pipelines the demo scenes and tests use.
func StandardVariants() []Pipeline {
	return []Pipeline{
		DefaultPipeline(),
		MeshPipeline(),
		DamageFlashPipeline(),
		ShadowPipeline(),
		TexturedPipeline(CheckerTexture()),
	}
}

// EMU_TEXTURE_IDLE_FLUSHES is how many flushes a GPU texture may go unused
// before it is released.
const EMU_TEXTURE_IDLE_FLUSHES = 120

// fillKey is the variant FillRect draws with on the GPU: flat shade, no
// depth, no blend.
var fillKey = pipelineKey{Combiner: SingleCombine(CombineShade)}

// emuRenderer is one way of executing a flush.
type emuRenderer interface {
	name() string
	has(k pipelineKey) bool
	compile(k pipelineKey) error
	begin(target *Framebuffer16)
	setPipeline(p Pipeline)
	drawMesh(m *MeshSubmission)
	fillRect(r RectSubmission)
	end(target *Framebuffer16) error
	release()
}

type EmulationBackend struct {
	cfg         EmulationConfig
	target      *Framebuffer16
	renderer    emuRenderer
	accelerated bool
	misses      int
	failures    int
	skipped     int
	unavailable bool
	flushes     uint64
}

// NewEmulationBackend builds the offscreen target and compiles every
// variant in cfg. A compile failure on the GPU path is returned; a missing
// adapter selects the software renderer.
func NewEmulationBackend(cfg EmulationConfig) (*EmulationBackend, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = SCREEN_WIDTH, SCREEN_HEIGHT
	}
	keys := variantKeys(cfg.Variants)

	b := &EmulationBackend{
		cfg:    cfg,
		target: NewFramebuffer16(cfg.Width, cfg.Height),
	}

	if !cfg.ForceSoftware {
		gpu, err := newGPURenderer(cfg.Width, cfg.Height)
		switch {
		case err == nil:
			for _, k := range append(keys, fillKey) {
				if err := gpu.compile(k); err != nil {
					gpu.release()
					return nil, &BackendError{Operation: "pipeline compile", Details: k.String(), Err: err}
				}
			}
			b.renderer = gpu
			b.accelerated = true
			return b, nil
		case errors.Is(err, errNoAdapter):
			fmt.Printf("emu: %v, using software renderer\n", err)
		default:
			return nil, &BackendError{Operation: "device setup", Details: "webgpu", Err: err}
		}
	}

	sw := newSoftRenderer(cfg.Width, cfg.Height)
	for _, k := range keys {
		if err := sw.compile(k); err != nil {
			return nil, &BackendError{Operation: "pipeline compile", Details: k.String(), Err: err}
		}
	}
	b.renderer = sw
	return b, nil
}

// variantKeys dedups the configured pipelines, default first.
func variantKeys(ps []Pipeline) []pipelineKey {
	seen := make(map[pipelineKey]bool)
	var keys []pipelineKey
	for _, p := range append([]Pipeline{DefaultPipeline()}, ps...) {
		k := p.variantKey()
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys
}

func (b *EmulationBackend) Name() string {
	return "emulation/" + b.renderer.name()
}

// Target is the offscreen framebuffer. It is only consistent between
// flushes.
func (b *EmulationBackend) Target() *Framebuffer16 {
	return b.target
}

func (b *EmulationBackend) Accelerated() bool {
	return b.accelerated
}

// VariantMisses counts pipelines compiled after startup.
func (b *EmulationBackend) VariantMisses() int {
	return b.misses
}

// CompileFailures counts unlisted variants that could not be compiled.
func (b *EmulationBackend) CompileFailures() int {
	return b.failures
}

// SkippedDraws counts meshes dropped because their variant failed to
// compile.
func (b *EmulationBackend) SkippedDraws() int {
	return b.skipped
}

func (b *EmulationBackend) Begin() {
	b.unavailable = false
	b.renderer.begin(b.target)
}

func (b *EmulationBackend) SetPipeline(p Pipeline) {
	k := p.variantKey()
	if !b.renderer.has(k) {
		if debugAssertions {
			assertf(false, "emu: pipeline variant %s was not compiled at startup", k)
		}
		b.misses++
		fmt.Printf("emu: warning: compiling unlisted pipeline variant %s\n", k)
		if err := b.renderer.compile(k); err != nil {
			b.failures++
			b.unavailable = true
			fmt.Printf("emu: variant %s failed to compile, its draws are skipped: %v\n", k, err)
			return
		}
	}
	b.unavailable = false
	b.renderer.setPipeline(p)
}

func (b *EmulationBackend) DrawMesh(m *MeshSubmission) {
	if b.unavailable {
		b.skipped++
		return
	}
	b.renderer.drawMesh(m)
}

func (b *EmulationBackend) FillRect(r RectSubmission) {
	b.renderer.fillRect(r)
}

func (b *EmulationBackend) End() {
	if err := b.renderer.end(b.target); err != nil {
		fmt.Printf("emu: frame %d: %v\n", b.flushes, err)
	}
	b.flushes++
}

func (b *EmulationBackend) Destroy() {
	if b.renderer != nil {
		b.renderer.release()
	}
}

// textureCache holds renderer-side copies of textures keyed by the
// Texture they were made from. Entries unused for idle flushes are
// released, so textures dropped by a scene reload do not accumulate.
type textureCache[V any] struct {
	entries map[*Texture]*textureEntry[V]
	release func(V)
	idle    uint64
	flush   uint64
}

type textureEntry[V any] struct {
	value    V
	lastUsed uint64
}

func newTextureCache[V any](idle uint64, release func(V)) *textureCache[V] {
	return &textureCache[V]{
		entries: make(map[*Texture]*textureEntry[V]),
		release: release,
		idle:    max(idle, 1),
	}
}

func (c *textureCache[V]) get(t *Texture, create func(*Texture) (V, error)) (V, error) {
	if e, ok := c.entries[t]; ok {
		e.lastUsed = c.flush
		return e.value, nil
	}
	v, err := create(t)
	if err != nil {
		var zero V
		return zero, err
	}
	c.entries[t] = &textureEntry[V]{value: v, lastUsed: c.flush}
	return v, nil
}

// endFlush closes the current flush and releases idle entries. It returns
// how many were released.
func (c *textureCache[V]) endFlush() int {
	released := 0
	for t, e := range c.entries {
		if c.flush-e.lastUsed >= c.idle {
			c.release(e.value)
			delete(c.entries, t)
			released++
		}
	}
	c.flush++
	return released
}

func (c *textureCache[V]) releaseAll() {
	for t, e := range c.entries {
		c.release(e.value)
		delete(c.entries, t)
	}
}

func (c *textureCache[V]) len() int {
	return len(c.entries)
}

// softRenderer draws with the shared Rasterizer straight into the target.
type softRenderer struct {
	raster   *Rasterizer
	programs map[pipelineKey]*combinerProgram
	target   *Framebuffer16
	bound    bool
}

func newSoftRenderer(width, height int) *softRenderer {
	return &softRenderer{
		raster:   NewRasterizer(width, height),
		programs: make(map[pipelineKey]*combinerProgram),
	}
}

func (s *softRenderer) name() string { return "software" }

func (s *softRenderer) has(k pipelineKey) bool {
	_, ok := s.programs[k]
	return ok
}

func (s *softRenderer) compile(k pipelineKey) error {
	s.programs[k] = compileCombiner(k.Combiner)
	return nil
}

func (s *softRenderer) begin(target *Framebuffer16) {
	s.target = target
	s.raster.ClearDepth()
	s.bound = false
}

func (s *softRenderer) setPipeline(p Pipeline) {
	s.raster.Bind(p, s.programs[p.variantKey()])
	s.bound = true
}

func (s *softRenderer) drawMesh(m *MeshSubmission) {
	if !s.bound {
		s.setPipeline(DefaultPipeline())
	}
	s.raster.DrawMesh(s.target, m)
}

func (s *softRenderer) fillRect(r RectSubmission) {
	s.raster.FillRect(s.target, r.X0, r.Y0, r.X1, r.Y1, ColorFromRGBA32(r.Color))
}

func (s *softRenderer) end(*Framebuffer16) error {
	s.target = nil
	return nil
}

func (s *softRenderer) release() {}
