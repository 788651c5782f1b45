//go:build !headless

// emu_wgpu.go - WebGPU offscreen renderer for the Reality Display

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

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

func init() {
	compiledFeatures = append(compiledFeatures, "emu:webgpu")
}

// emuVertex is the interleaved vertex layout: screen position and depth,
// texture coordinate, shade colour in 0..255.
type emuVertex struct {
	X, Y, Z    float32
	S, T       float32
	R, G, B, A float32
}

const emuVertexSize = 9 * 4

type gpuVariant struct {
	module   *wgpu.ShaderModule
	pipeline *wgpu.RenderPipeline
	key      pipelineKey
}

type gpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
}

// gpuDraw is one indexed draw recorded during the flush and encoded at
// end, when the vertex and index buffers are complete.
type gpuDraw struct {
	variant    *gpuVariant
	bindGroup  *wgpu.BindGroup
	firstIndex uint32
	indexCount uint32
}

type gpuRenderer struct {
	width, height int

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	color    *wgpu.Texture
	colorV   *wgpu.TextureView
	depth    *wgpu.Texture
	depthV   *wgpu.TextureView
	readback *wgpu.Buffer
	rowBytes uint32

	variants map[pipelineKey]*gpuVariant
	textures *textureCache[*gpuTexture]

	// Per-flush recording
	verts     []emuVertex
	indices   []uint32
	draws     []gpuDraw
	current   *gpuVariant
	bindGroup *wgpu.BindGroup
	transient []*wgpu.Buffer
	groups    []*wgpu.BindGroup
	upload    []byte
}

func newGPURenderer(width, height int) (emuRenderer, error) {
	r := &gpuRenderer{
		width:    width,
		height:   height,
		variants: make(map[pipelineKey]*gpuVariant),
		textures: newTextureCache(EMU_TEXTURE_IDLE_FLUSHES, func(gt *gpuTexture) {
			gt.view.Release()
			gt.texture.Release()
		}),
	}

	r.instance = wgpu.CreateInstance(nil)
	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil || adapter == nil {
		r.instance.Release()
		return nil, fmt.Errorf("%w: %v", errNoAdapter, err)
	}
	r.adapter = adapter

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		r.release()
		return nil, err
	}
	r.device = device
	r.queue = device.GetQueue()

	size := wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1}
	r.color, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "emu colour",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		r.release()
		return nil, err
	}
	if r.colorV, err = r.color.CreateView(nil); err != nil {
		r.release()
		return nil, err
	}

	r.depth, err = device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "emu depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		r.release()
		return nil, err
	}
	if r.depthV, err = r.depth.CreateView(nil); err != nil {
		r.release()
		return nil, err
	}

	align := uint32(wgpu.CopyBytesPerRowAlignment)
	r.rowBytes = (uint32(width)*4 + align - 1) / align * align
	r.readback, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "emu readback",
		Size:  uint64(r.rowBytes) * uint64(height),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		r.release()
		return nil, err
	}
	r.upload = make([]byte, width*height*4)
	return r, nil
}

func (r *gpuRenderer) name() string { return "webgpu" }

func (r *gpuRenderer) has(k pipelineKey) bool {
	_, ok := r.variants[k]
	return ok
}

// compile builds the shader module and render pipeline for one variant.
func (r *gpuRenderer) compile(k pipelineKey) error {
	module, err := r.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          k.String(),
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: GenerateWGSL(k)},
	})
	if err != nil {
		return err
	}

	var blend *wgpu.BlendState
	if k.Blend {
		blend = &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		}
	}
	compare := wgpu.CompareFunctionAlways
	if k.ZCompare {
		compare = wgpu.CompareFunctionLess
	}

	pipeline, err := r.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: k.String(),
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: emuVertexSize,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2},
				},
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth32Float,
			DepthWriteEnabled: k.ZUpdate,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    wgpu.TextureFormatRGBA8Unorm,
				Blend:     blend,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
	})
	if err != nil {
		module.Release()
		return err
	}
	r.variants[k] = &gpuVariant{module: module, pipeline: pipeline, key: k}
	return nil
}

// begin uploads the current target so the pass draws over it.
func (r *gpuRenderer) begin(target *Framebuffer16) {
	r.verts = r.verts[:0]
	r.indices = r.indices[:0]
	r.draws = r.draws[:0]
	r.current = nil
	r.bindGroup = nil

	target.RGBA8(r.upload)
	size := wgpu.Extent3D{Width: uint32(r.width), Height: uint32(r.height), DepthOrArrayLayers: 1}
	r.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Aspect:   wgpu.TextureAspectAll,
			Texture:  r.color,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		r.upload,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(r.width) * 4,
			RowsPerImage: uint32(r.height),
		},
		&size,
	)
}

func (r *gpuRenderer) setPipeline(p Pipeline) {
	r.bind(p.variantKey(), p.Primitive(), p.Texture)
}

// bind makes k current with its own uniform buffer and bind group. Draws
// recorded later in the flush cannot disturb the uniforms of earlier ones.
func (r *gpuRenderer) bind(k pipelineKey, prim Color, tex *Texture) {
	v, ok := r.variants[k]
	if !ok {
		r.current = nil
		return
	}
	r.current = v

	var texW, texH float32
	if tex != nil {
		texW, texH = float32(tex.Width), float32(tex.Height)
	}
	uniforms := []float32{
		float32(prim.R), float32(prim.G), float32(prim.B), float32(prim.A),
		float32(r.width), float32(r.height), texW, texH,
	}
	buf, err := r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "emu uniforms",
		Contents: wgpu.ToBytes(uniforms),
		Usage:    wgpu.BufferUsageUniform,
	})
	if err != nil {
		fmt.Printf("emu: uniform buffer: %v\n", err)
		r.current = nil
		return
	}
	r.transient = append(r.transient, buf)

	entries := []wgpu.BindGroupEntry{{Binding: 0, Buffer: buf, Offset: 0, Size: wgpu.WholeSize}}
	if k.sampled() {
		gt, err := r.texture(tex)
		if err != nil {
			fmt.Printf("emu: texture upload: %v\n", err)
			r.current = nil
			return
		}
		entries = append(entries, wgpu.BindGroupEntry{Binding: 1, TextureView: gt.view})
	}

	layout := v.pipeline.GetBindGroupLayout(0)
	defer layout.Release()
	group, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "emu bind group",
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		fmt.Printf("emu: bind group: %v\n", err)
		r.current = nil
		return
	}
	r.groups = append(r.groups, group)
	r.bindGroup = group
}

// texture returns the GPU copy of t, uploading it on first use.
func (r *gpuRenderer) texture(t *Texture) (*gpuTexture, error) {
	return r.textures.get(t, r.uploadTexture)
}

func (r *gpuRenderer) uploadTexture(t *Texture) (*gpuTexture, error) {
	size := wgpu.Extent3D{Width: uint32(t.Width), Height: uint32(t.Height), DepthOrArrayLayers: 1}
	tx, err := r.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "emu texture",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, err
	}
	view, err := tx.CreateView(nil)
	if err != nil {
		tx.Release()
		return nil, err
	}

	pix := make([]byte, len(t.Texels)*4)
	for i, px := range t.Texels {
		c := RGBA5551ToColor(px)
		pix[i*4], pix[i*4+1], pix[i*4+2], pix[i*4+3] = c.R, c.G, c.B, c.A
	}
	r.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Aspect: wgpu.TextureAspectAll, Texture: tx},
		pix,
		&wgpu.TextureDataLayout{BytesPerRow: uint32(t.Width) * 4, RowsPerImage: uint32(t.Height)},
		&size,
	)
	return &gpuTexture{texture: tx, view: view}, nil
}

// drawMesh records m with the bound variant. Nothing is bound when the
// variant or its bind group could not be built; the backend has already
// reported that, and the draw is skipped rather than shaded wrongly.
func (r *gpuRenderer) drawMesh(m *MeshSubmission) {
	if r.current == nil {
		return
	}
	sv, ok := m.project()
	base := uint32(len(r.verts))
	for _, v := range sv {
		r.verts = append(r.verts, emuVertex{
			X: v.X, Y: v.Y, Z: v.Z,
			S: v.S, T: v.T,
			R: float32(v.Shade.R), G: float32(v.Shade.G), B: float32(v.Shade.B), A: float32(v.Shade.A),
		})
	}
	first := uint32(len(r.indices))
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		if !ok[a] || !ok[b] || !ok[c] {
			continue
		}
		r.indices = append(r.indices, base+uint32(a), base+uint32(b), base+uint32(c))
	}
	r.record(first)
}

// fillRect draws two flat triangles with the fill variant, then restores
// the pipeline that was bound.
func (r *gpuRenderer) fillRect(rect RectSubmission) {
	saved, savedGroup := r.current, r.bindGroup
	r.bind(fillKey, Color{}, nil)
	if r.current == nil {
		r.current, r.bindGroup = saved, savedGroup
		return
	}
	c := ColorFromRGBA32(rect.Color)
	x0, y0 := float32(max(rect.X0, 0)), float32(max(rect.Y0, 0))
	x1, y1 := float32(min(rect.X1, r.width)), float32(min(rect.Y1, r.height))
	base := uint32(len(r.verts))
	for _, p := range [4][2]float32{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}} {
		r.verts = append(r.verts, emuVertex{
			X: p[0], Y: p[1],
			R: float32(c.R), G: float32(c.G), B: float32(c.B), A: float32(c.A),
		})
	}
	first := uint32(len(r.indices))
	r.indices = append(r.indices, base, base+1, base+2, base, base+2, base+3)
	r.record(first)
	r.current, r.bindGroup = saved, savedGroup
}

func (r *gpuRenderer) record(first uint32) {
	n := uint32(len(r.indices)) - first
	if n == 0 {
		return
	}
	r.draws = append(r.draws, gpuDraw{
		variant:    r.current,
		bindGroup:  r.bindGroup,
		firstIndex: first,
		indexCount: n,
	})
}

// end encodes the whole flush as one render pass, copies the result back
// and stores it in target as RGBA5551.
func (r *gpuRenderer) end(target *Framebuffer16) error {
	defer r.releaseTransient()
	defer r.textures.endFlush()
	if len(r.draws) == 0 {
		return nil
	}

	vbuf, err := r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "emu vertices",
		Contents: wgpu.ToBytes(r.verts),
		Usage:    wgpu.BufferUsageVertex,
	})
	if err != nil {
		return err
	}
	r.transient = append(r.transient, vbuf)
	ibuf, err := r.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    "emu indices",
		Contents: wgpu.ToBytes(r.indices),
		Usage:    wgpu.BufferUsageIndex,
	})
	if err != nil {
		return err
	}
	r.transient = append(r.transient, ibuf)

	cmd, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer cmd.Release()

	rp := cmd.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    r.colorV,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            r.depthV,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})
	rp.SetVertexBuffer(0, vbuf, 0, wgpu.WholeSize)
	rp.SetIndexBuffer(ibuf, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	var last *gpuVariant
	for _, d := range r.draws {
		if d.variant != last {
			rp.SetPipeline(d.variant.pipeline)
			last = d.variant
		}
		rp.SetBindGroup(0, d.bindGroup, nil)
		rp.DrawIndexed(d.indexCount, 1, d.firstIndex, 0, 0)
	}
	if err := rp.End(); err != nil {
		rp.Release()
		return err
	}
	rp.Release()

	size := wgpu.Extent3D{Width: uint32(r.width), Height: uint32(r.height), DepthOrArrayLayers: 1}
	err = cmd.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{Aspect: wgpu.TextureAspectAll, Texture: r.color},
		&wgpu.ImageCopyBuffer{
			Buffer: r.readback,
			Layout: wgpu.TextureDataLayout{BytesPerRow: r.rowBytes, RowsPerImage: uint32(r.height)},
		},
		&size,
	)
	if err != nil {
		return err
	}
	cb, err := cmd.Finish(nil)
	if err != nil {
		return err
	}
	r.queue.Submit(cb)
	cb.Release()

	return r.readBack(target)
}

func (r *gpuRenderer) readBack(target *Framebuffer16) error {
	var status wgpu.BufferMapAsyncStatus
	size := uint64(r.rowBytes) * uint64(r.height)
	err := r.readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
	})
	if err != nil {
		return err
	}
	r.device.Poll(true, nil)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		return fmt.Errorf("readback map failed: %v", status)
	}
	data := r.readback.GetMappedRange(0, uint(size))
	for y := range r.height {
		row := data[uint32(y)*r.rowBytes:]
		for x := range r.width {
			p := row[x*4 : x*4+4]
			target.SetPixel(x, y, Color{p[0], p[1], p[2], p[3]})
		}
	}
	return r.readback.Unmap()
}

func (r *gpuRenderer) releaseTransient() {
	for _, g := range r.groups {
		g.Release()
	}
	for _, b := range r.transient {
		b.Release()
	}
	r.groups = r.groups[:0]
	r.transient = r.transient[:0]
	r.bindGroup = nil
	r.current = nil
}

func (r *gpuRenderer) release() {
	r.releaseTransient()
	for _, v := range r.variants {
		v.pipeline.Release()
		v.module.Release()
	}
	clear(r.variants)
	r.textures.releaseAll()
	if r.readback != nil {
		r.readback.Release()
	}
	if r.depthV != nil {
		r.depthV.Release()
	}
	if r.depth != nil {
		r.depth.Release()
	}
	if r.colorV != nil {
		r.colorV.Release()
	}
	if r.color != nil {
		r.color.Release()
	}
	if r.queue != nil {
		r.queue.Release()
	}
	if r.device != nil {
		r.device.Release()
	}
	if r.adapter != nil {
		r.adapter.Release()
	}
	if r.instance != nil {
		r.instance.Release()
	}
}
