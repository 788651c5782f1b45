// scene_lua.go - Lua scene scripting for the Reality Display

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
scene_lua.go - Lua Scene Scripts

A scene is a Lua script that defines draw(frame) and records one frame of
submissions through the gfx module:

	gfx.set_pipeline{preset=, combine=, z_compare=, z_update=, blend=, prim=, texture=}
	gfx.mesh(name, x, y, z [, angle [, axis [, scale]]])
	gfx.rect(x0, y0, x1, y1, 0xRRGGBBAA)
	gfx.load_texture(name, path, width, height)

Presets: default, mesh, flash, shadow, textured. Combine modes: shade,
prim, texel, modulate, flash. Meshes: cube, quad, tri. Transforms are
ScreenProjection x translate x rotate x scale.

A script error drops whatever the frame had recorded; the next frame runs
the script again. With Watch, edits to the file are compiled in the
background and swapped in at the start of the next frame. A script that
fails to compile leaves the running one in place.
*/

package main

import (
	"bytes"
	_ "embed"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	lua "github.com/yuin/gopher-lua"
)

//go:embed scenes/demo.lua
var demoScene string

type Scene struct {
	name string
	path string // empty for embedded scenes

	L        *lua.LState
	draw     *lua.LFunction
	textures map[string]*Texture

	projection Mat4
	cb         *CommandBuffer

	mu      sync.Mutex
	pending *lua.LState
	watcher *fsnotify.Watcher
	done    chan struct{}

	errors  int
	reloads int
}

// DemoScene returns the scene built into the binary.
func DemoScene() (*Scene, error) {
	return NewScene("demo.lua", demoScene)
}

// LoadScene compiles the script at path.
func LoadScene(path string) (*Scene, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newScene(filepath.Base(path), filepath.Clean(path), string(src))
}

// NewScene compiles src and checks that it defines draw.
func NewScene(name, src string) (*Scene, error) {
	return newScene(name, "", src)
}

// newScene sets path before compiling so top-level load_texture calls
// resolve relative to the script.
func newScene(name, path, src string) (*Scene, error) {
	s := &Scene{
		name:       name,
		path:       path,
		textures:   map[string]*Texture{"checker": CheckerTexture()},
		projection: ScreenProjection(SCREEN_WIDTH, SCREEN_HEIGHT),
	}
	L, err := s.compile(src)
	if err != nil {
		return nil, err
	}
	s.install(L)
	return s, nil
}

func (s *Scene) compile(src string) (*lua.LState, error) {
	L := lua.NewState()
	L.SetGlobal("gfx", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"set_pipeline": s.luaSetPipeline,
		"mesh":         s.luaMesh,
		"rect":         s.luaRect,
		"load_texture": s.luaLoadTexture,
	}))
	if err := L.DoString(src); err != nil {
		L.Close()
		return nil, fmt.Errorf("scene %s: %w", s.name, err)
	}
	if _, ok := L.GetGlobal("draw").(*lua.LFunction); !ok {
		L.Close()
		return nil, fmt.Errorf("scene %s: no draw function", s.name)
	}
	return L, nil
}

func (s *Scene) install(L *lua.LState) {
	if s.L != nil {
		s.L.Close()
	}
	s.L = L
	s.draw = L.GetGlobal("draw").(*lua.LFunction)
}

func (s *Scene) Name() string {
	return s.name
}

// Errors counts frames whose draw call failed.
func (s *Scene) Errors() int {
	return s.errors
}

func (s *Scene) Reloads() int {
	return s.reloads
}

// Draw runs draw(frame) against cb. On a script error cb is cleared and the
// error returned.
func (s *Scene) Draw(cb *CommandBuffer, frame uint64) error {
	s.mu.Lock()
	if s.pending != nil {
		s.install(s.pending)
		s.pending = nil
		s.reloads++
		fmt.Printf("scene: reloaded %s\n", s.name)
	}
	s.mu.Unlock()

	s.cb = cb
	defer func() { s.cb = nil }()
	err := s.L.CallByParam(lua.P{Fn: s.draw, NRet: 0, Protect: true}, lua.LNumber(frame))
	if err != nil {
		s.errors++
		cb.Clear()
		return fmt.Errorf("scene %s frame %d: %w", s.name, frame, err)
	}
	return nil
}

// Watch recompiles the script whenever its file changes. The directory is
// watched rather than the file so editors that save by rename still count.
func (s *Scene) Watch() error {
	if s.path == "" {
		return fmt.Errorf("scene %s: embedded scenes cannot be watched", s.name)
	}
	if s.watcher != nil {
		return nil
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(s.path)); err != nil {
		w.Close()
		return err
	}
	s.watcher = w
	s.done = make(chan struct{})

	go func() {
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					s.reload()
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				fmt.Printf("scene: watch %s: %v\n", s.path, err)
			}
		}
	}()
	return nil
}

func (s *Scene) reload() {
	src, err := os.ReadFile(s.path)
	if err != nil {
		// A rename-save can briefly leave no file; the create that follows
		// triggers another reload.
		return
	}
	L, err := s.compile(string(src))
	if err != nil {
		fmt.Printf("scene: reload rejected: %v\n", err)
		return
	}
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Close()
	}
	s.pending = L
	s.mu.Unlock()
}

func (s *Scene) Close() {
	if s.watcher != nil {
		close(s.done)
		s.watcher.Close()
		s.watcher = nil
	}
	s.mu.Lock()
	if s.pending != nil {
		s.pending.Close()
		s.pending = nil
	}
	s.mu.Unlock()
	if s.L != nil {
		s.L.Close()
		s.L = nil
	}
}

var scenePresets = map[string]func() Pipeline{
	"default":  DefaultPipeline,
	"mesh":     MeshPipeline,
	"flash":    DamageFlashPipeline,
	"shadow":   ShadowPipeline,
	"textured": func() Pipeline { return TexturedPipeline(CheckerTexture()) },
}

var sceneCombiners = map[string]ColorCombinerMode{
	"shade":    SingleCombine(CombineShade),
	"prim":     SingleCombine(CombinePrimitive),
	"texel":    SingleCombine(CombineTexel),
	"modulate": SimpleCombine(CombineTexel, CombineZero, CombineShade, CombineZero),
	"flash":    DamageFlashPipeline().Combiner,
}

// scenePipeline builds a pipeline from a set_pipeline table. Absent keys
// keep the preset's value.
func (s *Scene) scenePipeline(L *lua.LState, t *lua.LTable) Pipeline {
	p := DefaultPipeline()
	if v := t.RawGetString("preset"); v != lua.LNil {
		preset, ok := scenePresets[lua.LVAsString(v)]
		if !ok {
			L.ArgError(1, fmt.Sprintf("unknown preset %q", lua.LVAsString(v)))
		}
		p = preset()
	}
	if v := t.RawGetString("combine"); v != lua.LNil {
		m, ok := sceneCombiners[lua.LVAsString(v)]
		if !ok {
			L.ArgError(1, fmt.Sprintf("unknown combine mode %q", lua.LVAsString(v)))
		}
		p = p.WithCombiner(m)
	}
	zc, zu := p.ZCompare, p.ZUpdate
	if v := t.RawGetString("z_compare"); v != lua.LNil {
		zc = lua.LVAsBool(v)
	}
	if v := t.RawGetString("z_update"); v != lua.LNil {
		zu = lua.LVAsBool(v)
	}
	p = p.WithDepth(zc, zu)
	if v := t.RawGetString("blend"); v != lua.LNil {
		p = p.WithBlend(lua.LVAsBool(v))
	}
	if v := t.RawGetString("prim"); v != lua.LNil {
		if v == lua.LFalse {
			p = p.WithoutPrimColor()
		} else {
			p = p.WithPrimColor(uint32(int64(lua.LVAsNumber(v))))
		}
	}
	if v := t.RawGetString("texture"); v != lua.LNil {
		name := lua.LVAsString(v)
		tex, ok := s.texture(name)
		if !ok {
			L.ArgError(1, fmt.Sprintf("unknown texture %q", name))
		}
		p = p.WithTexture(tex)
	}
	return p
}

func (s *Scene) luaSetPipeline(L *lua.LState) int {
	if s.cb == nil {
		L.RaiseError("gfx.set_pipeline called outside draw")
	}
	s.cb.SetPipeline(s.scenePipeline(L, L.OptTable(1, L.NewTable())))
	return 0
}

func (s *Scene) luaMesh(L *lua.LState) int {
	if s.cb == nil {
		L.RaiseError("gfx.mesh called outside draw")
	}
	name := L.CheckString(1)
	m, ok := BuiltinMesh(name)
	if !ok {
		L.ArgError(1, fmt.Sprintf("unknown mesh %q", name))
	}
	x := float32(L.CheckNumber(2))
	y := float32(L.CheckNumber(3))
	z := float32(L.CheckNumber(4))
	angle := float32(L.OptNumber(5, 0))
	axis := L.OptString(6, "y")
	scale := float32(L.OptNumber(7, 1))

	var ax, ay, az float32
	switch strings.ToLower(axis) {
	case "x":
		ax = 1
	case "y":
		ay = 1
	case "z":
		az = 1
	default:
		L.ArgError(6, fmt.Sprintf("axis must be x, y or z, got %q", axis))
	}
	model := Mat4RotationTranslation(ax, ay, az, angle, x, y, z).Mul(Mat4Scale(scale, scale, scale))
	s.cb.AddMeshIndexed(m.Verts, m.UVs, m.Colors, m.Indices, s.projection.Mul(model))
	return 0
}

func (s *Scene) luaRect(L *lua.LState) int {
	if s.cb == nil {
		L.RaiseError("gfx.rect called outside draw")
	}
	s.cb.AddColoredRect(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4),
		uint32(int64(L.CheckNumber(5))))
	return 0
}

// luaLoadTexture registers a texture under name. PNG files are converted;
// anything else is read as raw little-endian RGBA5551 of the given size.
// Relative paths resolve against the scene's directory.
func (s *Scene) luaLoadTexture(L *lua.LState) int {
	name := L.CheckString(1)
	path := L.CheckString(2)
	if !filepath.IsAbs(path) && s.path != "" {
		path = filepath.Join(filepath.Dir(s.path), path)
	}

	tex, err := loadTextureFile(path, L.OptInt(3, 0), L.OptInt(4, 0))
	if err != nil {
		L.RaiseError("gfx.load_texture %s: %v", name, err)
	}
	s.mu.Lock()
	s.textures[name] = tex
	s.mu.Unlock()
	return 0
}

// texture looks up a registered texture. Scripts being reloaded in the
// background register theirs concurrently with the running frame.
func (s *Scene) texture(name string) (*Texture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.textures[name]
	return t, ok
}

func loadTextureFile(path string, width, height int) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".png") {
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return TextureFromImage(img), nil
	}
	return DecodeTexture(data, width, height)
}
