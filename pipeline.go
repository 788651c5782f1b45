// pipeline.go - Immutable pipeline state for the Reality Display

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

package main

import "fmt"

// Pipeline is the rasterizer state applied to every submission until the
// next SetPipeline. It is a plain value: copy it, compare it with ==, and
// derive variants through the With* methods, which never modify the
// receiver.
type Pipeline struct {
	Combiner     ColorCombinerMode
	ZCompare     bool
	ZUpdate      bool
	Blend        bool
	PrimColor    uint32 // 0xRRGGBBAA, meaningful when HasPrimColor
	HasPrimColor bool
	Texture      *Texture
}

// DefaultPipeline shades with the vertex colour and depth-tests and
// depth-writes. Blending is off.
func DefaultPipeline() Pipeline {
	return Pipeline{
		Combiner: SimpleCombine(CombineZero, CombineZero, CombineZero, CombineShade),
		ZCompare: true,
		ZUpdate:  true,
	}
}

func (p Pipeline) WithCombiner(m ColorCombinerMode) Pipeline {
	p.Combiner = m
	return p
}

func (p Pipeline) WithPrimColor(rgba uint32) Pipeline {
	p.PrimColor = rgba
	p.HasPrimColor = true
	return p
}

func (p Pipeline) WithoutPrimColor() Pipeline {
	p.PrimColor = 0
	p.HasPrimColor = false
	return p
}

func (p Pipeline) WithBlend(on bool) Pipeline {
	p.Blend = on
	return p
}

func (p Pipeline) WithDepth(compare, update bool) Pipeline {
	p.ZCompare = compare
	p.ZUpdate = update
	return p
}

func (p Pipeline) WithTexture(t *Texture) Pipeline {
	p.Texture = t
	return p
}

// Primitive returns the primitive colour, black transparent when unset.
func (p Pipeline) Primitive() Color {
	if !p.HasPrimColor {
		return Color{}
	}
	return ColorFromRGBA32(p.PrimColor)
}

// pipelineKey identifies a compiled pipeline variant. Primitive colour and
// texture contents are uniforms and do not select a variant.
type pipelineKey struct {
	Combiner   ColorCombinerMode
	ZCompare   bool
	ZUpdate    bool
	Blend      bool
	HasTexture bool
}

func (p Pipeline) variantKey() pipelineKey {
	return pipelineKey{
		Combiner:   p.Combiner,
		ZCompare:   p.ZCompare,
		ZUpdate:    p.ZUpdate,
		Blend:      p.Blend,
		HasTexture: p.Texture != nil,
	}
}

func (k pipelineKey) String() string {
	return fmt.Sprintf("cc=%08X zc=%t zu=%t blend=%t tex=%t",
		k.Combiner.Pack(), k.ZCompare, k.ZUpdate, k.Blend, k.HasTexture)
}

// otherModes packs the RDP SET_OTHER_MODES flags for p.
func (p Pipeline) otherModes() uint32 {
	var m uint32
	if p.ZCompare {
		m |= RDP_MODE_Z_COMPARE
	}
	if p.ZUpdate {
		m |= RDP_MODE_Z_UPDATE
	}
	if p.Blend {
		m |= RDP_MODE_BLEND
	}
	if p.Texture != nil {
		m |= RDP_MODE_TEXTURE
	}
	return m
}

// The pipelines below are the shapes game code builds most often.

// MeshPipeline shades with vertex colours.
func MeshPipeline() Pipeline {
	return DefaultPipeline()
}

// DamageFlashPipeline tints a mesh towards the primitive colour for one
// frame after it takes damage.
func DamageFlashPipeline() Pipeline {
	return DefaultPipeline().
		WithCombiner(OneCycleCombine(
			CombineOne, CombineZero, CombineTexel, CombinePrimitive,
			CombineZero, CombineZero, CombineZero, CombineTexelAlpha,
		)).
		WithPrimColor(0xA0A0A0FF)
}

// ShadowPipeline draws a translucent dark silhouette that depth-tests but
// does not occlude.
func ShadowPipeline() Pipeline {
	return DefaultPipeline().
		WithCombiner(SingleCombine(CombinePrimitive)).
		WithPrimColor(0x10101060).
		WithBlend(true).
		WithDepth(true, false)
}

// TexturedPipeline modulates the texture by the vertex colour.
func TexturedPipeline(t *Texture) Pipeline {
	return DefaultPipeline().
		WithCombiner(SimpleCombine(CombineTexel, CombineZero, CombineShade, CombineZero)).
		WithTexture(t)
}
