/*
color_combiner.go - Colour Combiner and Blender

The combiner evaluates one formula per channel:

	out = clamp(D + (A - B) * C, 0, 255)

with the product scaled back to 8 bits by mulSigned. Colour and alpha use
separate selector sets. In a colour slot the *Alpha inputs broadcast the
alpha channel; in an alpha slot every input reads its alpha channel.

The blender composites the combiner output over the framebuffer with the
combined alpha as coverage:

	rgb = (src*a + dst*(255-a) + 127) / 255
	a   = a + (dst.a*(255-a) + 127) / 255
*/

package main

import "fmt"

type CombinerInput uint8

const (
	CombineZero CombinerInput = iota
	CombineOne
	CombineTexel
	CombineShade
	CombinePrimitive
	CombineTexelAlpha
	CombineShadeAlpha
	CombinePrimitiveAlpha
	combineInputCount
)

var combinerInputNames = [...]string{
	CombineZero:           "ZERO",
	CombineOne:            "ONE",
	CombineTexel:          "TEXEL",
	CombineShade:          "SHADE",
	CombinePrimitive:      "PRIMITIVE",
	CombineTexelAlpha:     "TEXEL_ALPHA",
	CombineShadeAlpha:     "SHADE_ALPHA",
	CombinePrimitiveAlpha: "PRIMITIVE_ALPHA",
}

func (in CombinerInput) String() string {
	if int(in) < len(combinerInputNames) {
		return combinerInputNames[in]
	}
	return fmt.Sprintf("CombinerInput(%d)", uint8(in))
}

// alphaOf maps a colour selector onto the selector reading the same
// source's alpha.
func (in CombinerInput) alphaOf() CombinerInput {
	switch in {
	case CombineTexel:
		return CombineTexelAlpha
	case CombineShade:
		return CombineShadeAlpha
	case CombinePrimitive:
		return CombinePrimitiveAlpha
	}
	return in
}

// ColorCombinerMode selects the A, B, C and D inputs for the colour and the
// alpha formula.
type ColorCombinerMode struct {
	A, B, C, D                     CombinerInput
	AlphaA, AlphaB, AlphaC, AlphaD CombinerInput
}

// SimpleCombine uses the same sources for colour and alpha.
func SimpleCombine(a, b, c, d CombinerInput) ColorCombinerMode {
	return ColorCombinerMode{
		A: a, B: b, C: c, D: d,
		AlphaA: a.alphaOf(), AlphaB: b.alphaOf(), AlphaC: c.alphaOf(), AlphaD: d.alphaOf(),
	}
}

// OneCycleCombine sets every selector explicitly.
func OneCycleCombine(a, b, c, d, aa, ba, ca, da CombinerInput) ColorCombinerMode {
	return ColorCombinerMode{
		A: a, B: b, C: c, D: d,
		AlphaA: aa, AlphaB: ba, AlphaC: ca, AlphaD: da,
	}
}

// SingleCombine passes one source straight through.
func SingleCombine(d CombinerInput) ColorCombinerMode {
	return SimpleCombine(CombineZero, CombineZero, CombineZero, d)
}

func (m ColorCombinerMode) selectors() [8]CombinerInput {
	return [8]CombinerInput{m.A, m.B, m.C, m.D, m.AlphaA, m.AlphaB, m.AlphaC, m.AlphaD}
}

// Pack encodes the eight selectors four bits each, A in the top nibble.
// This is the operand of the RDP SET_COMBINE command.
func (m ColorCombinerMode) Pack() uint32 {
	var v uint32
	for _, s := range m.selectors() {
		v = v<<4 | uint32(s&0xF)
	}
	return v
}

func UnpackCombine(v uint32) ColorCombinerMode {
	var s [8]CombinerInput
	for i := 7; i >= 0; i-- {
		s[i] = CombinerInput(v & 0xF)
		v >>= 4
	}
	return OneCycleCombine(s[0], s[1], s[2], s[3], s[4], s[5], s[6], s[7])
}

func (m ColorCombinerMode) UsesTexel() bool {
	for _, s := range m.selectors() {
		if s == CombineTexel || s == CombineTexelAlpha {
			return true
		}
	}
	return false
}

func (m ColorCombinerMode) String() string {
	return fmt.Sprintf("(%s-%s)*%s+%s / (%s-%s)*%s+%s",
		m.A, m.B, m.C, m.D, m.AlphaA, m.AlphaB, m.AlphaC, m.AlphaD)
}

// CombineInputs are the per-pixel values the selectors read.
type CombineInputs struct {
	Texel     Color
	Shade     Color
	Primitive Color
}

// channelFetch reads channel ch (0..3) of one selector.
type channelFetch func(in *CombineInputs, ch int) int

func fetchFor(sel CombinerInput, alphaSlot bool) channelFetch {
	if alphaSlot {
		sel = sel.alphaOf()
	}
	switch sel {
	case CombineOne:
		return func(*CombineInputs, int) int { return 255 }
	case CombineTexel:
		return func(in *CombineInputs, ch int) int { return int(in.Texel.channel(ch)) }
	case CombineShade:
		return func(in *CombineInputs, ch int) int { return int(in.Shade.channel(ch)) }
	case CombinePrimitive:
		return func(in *CombineInputs, ch int) int { return int(in.Primitive.channel(ch)) }
	case CombineTexelAlpha:
		return func(in *CombineInputs, _ int) int { return int(in.Texel.A) }
	case CombineShadeAlpha:
		return func(in *CombineInputs, _ int) int { return int(in.Shade.A) }
	case CombinePrimitiveAlpha:
		return func(in *CombineInputs, _ int) int { return int(in.Primitive.A) }
	}
	return func(*CombineInputs, int) int { return 0 }
}

// combinerProgram is a ColorCombinerMode resolved to fetch functions, built
// once per pipeline variant.
type combinerProgram struct {
	mode  ColorCombinerMode
	color [4]channelFetch
	alpha [4]channelFetch
}

func compileCombiner(m ColorCombinerMode) *combinerProgram {
	p := &combinerProgram{mode: m}
	for i, s := range []CombinerInput{m.A, m.B, m.C, m.D} {
		p.color[i] = fetchFor(s, false)
	}
	for i, s := range []CombinerInput{m.AlphaA, m.AlphaB, m.AlphaC, m.AlphaD} {
		p.alpha[i] = fetchFor(s, true)
	}
	return p
}

func (p *combinerProgram) Run(in *CombineInputs) Color {
	var out [4]uint8
	for ch := range 3 {
		out[ch] = combineChannel(p.color, in, ch)
	}
	out[3] = combineChannel(p.alpha, in, 3)
	return Color{out[0], out[1], out[2], out[3]}
}

func combineChannel(f [4]channelFetch, in *CombineInputs, ch int) uint8 {
	a, b, c, d := f[0](in, ch), f[1](in, ch), f[2](in, ch), f[3](in, ch)
	return clamp8(d + mulSigned(a-b, c))
}

// Combine evaluates the mode directly, without a cached program.
func (m ColorCombinerMode) Combine(in CombineInputs) Color {
	return compileCombiner(m).Run(&in)
}

// mulSigned scales x by c/255 with round-half-up on the magnitude.
func mulSigned(x, c int) int {
	if x < 0 {
		return -((-x*c + 127) / 255)
	}
	return (x*c + 127) / 255
}

// BlendOver composites src over dst using src alpha.
func BlendOver(src, dst Color) Color {
	a := int(src.A)
	inv := 255 - a
	mix := func(s, d uint8) uint8 {
		return uint8((int(s)*a + int(d)*inv + 127) / 255)
	}
	return Color{
		R: mix(src.R, dst.R),
		G: mix(src.G, dst.G),
		B: mix(src.B, dst.B),
		A: clamp8(a + (int(dst.A)*inv+127)/255),
	}
}
