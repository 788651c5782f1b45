/*
emu_shaders.go - WGSL Generation for the Emulation Backend

Every pipeline variant gets its own shader module with the combiner formula
baked in as integer arithmetic, so the GPU path evaluates exactly the same
expression as the RDP model:

	out = clamp(D + mulSigned(A - B, C), 0, 255)

Vertices arrive already transformed to framebuffer pixels with depth in
[0, 1]; the vertex stage only maps pixels to NDC. Attributes use linear
interpolation to match the screen-space interpolation of the rasterizer.
Textures are read with textureLoad and repeat wrapping, which is the
nearest-neighbour lookup Texture.Sample performs.

Bindings (group 0):

	0  uniform  prim colour (0..255 per channel), screen and texture size
	1  texture  RGBA8 expansion of the RGBA5551 texels (textured variants only)
*/

package main

import (
	"fmt"
	"strings"
)

const wgslCommon = `struct Uniforms {
    prim: vec4<f32>,
    // xy: target size in pixels, zw: texture size in texels
    size: vec4<f32>,
};

@group(0) @binding(0) var<uniform> u: Uniforms;
%s
struct VertexIn {
    @location(0) pos: vec3<f32>,
    @location(1) uv: vec2<f32>,
    @location(2) shade: vec4<f32>,
};

struct VertexOut {
    @builtin(position) position: vec4<f32>,
    @location(0) @interpolate(linear) uv: vec2<f32>,
    @location(1) @interpolate(linear) shade: vec4<f32>,
};

@vertex
fn vs_main(in: VertexIn) -> VertexOut {
    var out: VertexOut;
    out.position = vec4<f32>(
        in.pos.x / (u.size.x * 0.5) - 1.0,
        1.0 - in.pos.y / (u.size.y * 0.5),
        in.pos.z,
        1.0);
    out.uv = in.uv;
    out.shade = in.shade;
    return out;
}

fn to_int(v: vec4<f32>) -> vec4<i32> {
    return vec4<i32>(clamp(floor(v + vec4<f32>(0.5)), vec4<f32>(0.0), vec4<f32>(255.0)));
}

fn mul_signed(x: i32, c: i32) -> i32 {
    if (x < 0) {
        return -((-x * c + 127) / 255);
    }
    return (x * c + 127) / 255;
}

fn combine(a: i32, b: i32, c: i32, d: i32) -> i32 {
    return clamp(d + mul_signed(a - b, c), 0, 255);
}

fn wrap(coord: f32, size: i32) -> i32 {
    let i = i32(floor(coord * f32(size)));
    return ((i %% size) + size) %% size;
}
`

const wgslTextureBinding = `@group(0) @binding(1) var tex: texture_2d<f32>;
`

// sampled reports whether the variant binds a texture. A texture the
// combiner never reads is not bound.
func (k pipelineKey) sampled() bool {
	return k.HasTexture && k.Combiner.UsesTexel()
}

// wgslSelector is the i32 expression one combiner input contributes to
// channel ch ("r", "g", "b" or "a").
func wgslSelector(sel CombinerInput, ch string) string {
	if ch == "a" {
		sel = sel.alphaOf()
	}
	switch sel {
	case CombineOne:
		return "255"
	case CombineTexel:
		return "texel." + ch
	case CombineShade:
		return "shade." + ch
	case CombinePrimitive:
		return "prim." + ch
	case CombineTexelAlpha:
		return "texel.a"
	case CombineShadeAlpha:
		return "shade.a"
	case CombinePrimitiveAlpha:
		return "prim.a"
	}
	return "0"
}

// GenerateWGSL returns the shader module source for one pipeline variant.
func GenerateWGSL(k pipelineKey) string {
	var sb strings.Builder
	binding := ""
	if k.sampled() {
		binding = wgslTextureBinding
	}
	fmt.Fprintf(&sb, "// variant: %s\n", k)
	fmt.Fprintf(&sb, wgslCommon, binding)

	sb.WriteString("\n@fragment\nfn fs_main(in: VertexOut) -> @location(0) vec4<f32> {\n")
	sb.WriteString("    let shade = to_int(in.shade);\n")
	sb.WriteString("    let prim = vec4<i32>(u.prim);\n")
	if k.sampled() {
		sb.WriteString("    let tsize = vec2<i32>(u.size.zw);\n")
		sb.WriteString("    let texel = to_int(textureLoad(tex, vec2<i32>(wrap(in.uv.x, tsize.x), wrap(in.uv.y, tsize.y)), 0) * 255.0);\n")
	} else {
		sb.WriteString("    let texel = vec4<i32>(255);\n")
	}

	m := k.Combiner
	for _, ch := range []string{"r", "g", "b"} {
		fmt.Fprintf(&sb, "    let %s = combine(%s, %s, %s, %s);\n", ch,
			wgslSelector(m.A, ch), wgslSelector(m.B, ch), wgslSelector(m.C, ch), wgslSelector(m.D, ch))
	}
	fmt.Fprintf(&sb, "    let a = combine(%s, %s, %s, %s);\n",
		wgslSelector(m.AlphaA, "a"), wgslSelector(m.AlphaB, "a"), wgslSelector(m.AlphaC, "a"), wgslSelector(m.AlphaD, "a"))
	sb.WriteString("    return vec4<f32>(f32(r), f32(g), f32(b), f32(a)) / 255.0;\n}\n")
	return sb.String()
}
