package widget

import (
	"sync"
	"unsafe"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/cardbuf"
)

// quadWGSL is the body every Card widget shares: a fullscreen-quad vertex
// stage positioned by a per-instance rect uniform, sampling a single
// widget-owned texture in the fragment stage. It is deliberately tiny
// next to the terminal grid shader shadermgr assembles — a Card has no
// glyph atlas, no per-cell SSBO, just one texture it repaints itself.
const quadWGSL = `
struct Globals {
	time: f32,
	mouse_x: f32,
	mouse_y: f32,
	screen_width: f32,
	screen_height: f32,
	frame_index: u32,
	_padding: vec2<u32>,
}
struct CardRect {
	origin: vec2<f32>,
	size: vec2<f32>,
}
@group(0) @binding(0) var<uniform> globals: Globals;
@group(1) @binding(0) var<uniform> rect: CardRect;
@group(1) @binding(1) var card_texture: texture_2d<f32>;
@group(1) @binding(2) var card_sampler: sampler;

struct VertexOut {
	@builtin(position) position: vec4<f32>,
	@location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> VertexOut {
	var out: VertexOut;
	let uv = pos * 0.5 + vec2<f32>(0.5, 0.5);
	let px = rect.origin + uv * rect.size;
	let ndc_x = (px.x / globals.screen_width) * 2.0 - 1.0;
	let ndc_y = 1.0 - (px.y / globals.screen_height) * 2.0;
	out.position = vec4<f32>(ndc_x, ndc_y, 0.0, 1.0);
	out.uv = vec2<f32>(uv.x, 1.0 - uv.y);
	return out;
}

@fragment
fn fs_main(in: VertexOut) -> @location(0) vec4<f32> {
	return textureSample(card_texture, card_sampler, in.uv);
}
`

// cardPipeline is the single render pipeline every Card widget on a given
// device shares. It is built once per device and reused by every
// concrete widget instance, mirroring the "shared pipeline" language in
// the glossary's definition of a Card: rendered through the shared card
// machinery, never through a private per-widget pipeline.
type cardPipeline struct {
	layout       core.BindGroupLayoutID
	pipeline     core.RenderPipelineID
	vertexBuffer core.BufferID
	sampler      core.SamplerID
}

var (
	cardPipelinesMu sync.Mutex
	cardPipelines   = map[core.DeviceID]*cardPipeline{}
)

var quadVertices = [6][2]float32{
	{-1, -1}, {1, -1}, {1, 1},
	{-1, -1}, {1, 1}, {-1, 1},
}

func getCardPipeline(device core.DeviceID, shared core.BindGroupLayoutID) (*cardPipeline, error) {
	cardPipelinesMu.Lock()
	defer cardPipelinesMu.Unlock()

	if cp, ok := cardPipelines[device]; ok {
		return cp, nil
	}

	module, err := core.CreateShaderModule(device, &types.ShaderModuleDescriptor{
		Label:  "card quad shader",
		Source: types.ShaderSourceWGSL{Code: quadWGSL},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.ShaderCompileFailed, "failed to compile card quad shader", err)
	}

	layout, err := core.CreateBindGroupLayout(device, &types.BindGroupLayoutDescriptor{
		Label: "card bind group layout",
		Entries: []types.BindGroupLayoutEntry{
			{Binding: 0, Visibility: types.ShaderStageVertex, Buffer: types.BufferBindingLayout{Type: types.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: types.ShaderStageFragment, Texture: types.TextureBindingLayout{SampleType: types.TextureSampleTypeFloat, ViewDimension: types.TextureViewDimension2D}},
			{Binding: 2, Visibility: types.ShaderStageFragment, Sampler: types.SamplerBindingLayout{Type: types.SamplerBindingTypeFiltering}},
		},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create card bind group layout", err)
	}

	pipelineLayout, err := core.CreatePipelineLayout(device, &types.PipelineLayoutDescriptor{
		Label:            "card pipeline layout",
		BindGroupLayouts: []core.BindGroupLayoutID{shared, layout},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create card pipeline layout", err)
	}

	pipeline, err := core.CreateRenderPipeline(device, &types.RenderPipelineDescriptor{
		Label:  "card quad pipeline",
		Layout: pipelineLayout,
		Vertex: types.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []types.VertexBufferLayout{{
				ArrayStride: 8,
				StepMode:    types.VertexStepModeVertex,
				Attributes: []types.VertexAttribute{
					{Format: types.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				},
			}},
		},
		Fragment: &types.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []types.ColorTargetState{{
				Format:    types.TextureFormatBGRA8Unorm,
				WriteMask: types.ColorWriteMaskAll,
				Blend: &types.BlendState{
					Color: types.BlendComponent{SrcFactor: types.BlendFactorSrcAlpha, DstFactor: types.BlendFactorOneMinusSrcAlpha, Operation: types.BlendOperationAdd},
					Alpha: types.BlendComponent{SrcFactor: types.BlendFactorOne, DstFactor: types.BlendFactorOneMinusSrcAlpha, Operation: types.BlendOperationAdd},
				},
			}},
		},
		Primitive: types.PrimitiveState{Topology: types.PrimitiveTopologyTriangleList},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create card quad pipeline", err)
	}

	vbDesc := &types.BufferDescriptor{
		Label:            "card quad vertices",
		Size:             uint64(len(quadVertices) * 8),
		Usage:            types.BufferUsageVertex,
		MappedAtCreation: true,
	}
	vb, err := core.CreateBuffer(device, vbDesc)
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create card quad vertex buffer", err)
	}
	mapped, err := core.GetMappedRange(vb, 0, vbDesc.Size)
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to map card quad vertex buffer", err)
	}
	copy(mapped, (*[48]byte)(unsafe.Pointer(&quadVertices))[:])
	if err := core.UnmapBuffer(vb); err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to unmap card quad vertex buffer", err)
	}

	sampler, err := core.CreateSampler(device, &types.SamplerDescriptor{
		Label:        "card sampler",
		AddressModeU: types.AddressModeClampToEdge,
		AddressModeV: types.AddressModeClampToEdge,
		MagFilter:    types.FilterModeLinear,
		MinFilter:    types.FilterModeLinear,
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create card sampler", err)
	}

	cp := &cardPipeline{layout: layout, pipeline: pipeline, vertexBuffer: vb, sampler: sampler}
	cardPipelines[device] = cp
	return cp, nil
}

// cardRectUniform mirrors quadWGSL's CardRect: 16 bytes, origin+size in
// pixels, the rect the shared vertex stage stretches its quad across.
type cardRectUniform struct {
	OriginX, OriginY float32
	Width, Height    float32
}

func (r cardRectUniform) bytes() []byte {
	return (*[16]byte)(unsafe.Pointer(&r))[:]
}

// CardQuad is the GPU side of a Card widget: one texture it repaints from
// decoded pixels, one small uniform buffer holding its screen rect, and a
// bind group tying both to the shared card pipeline. Concrete widgets
// (image, video, shader, piano, plot, rich text) embed CardQuad and call
// Upload whenever their CPU-side pixels change, then Render once per
// frame from Widget.Render.
type CardQuad struct {
	device core.DeviceID
	queue  core.QueueID
	pipe   *cardPipeline

	rectBuffer core.BufferID
	texture    core.TextureID
	view       *core.TextureView
	bindGroup  core.BindGroupID

	width, height uint32
}

// InitCardQuad acquires (or reuses) the shared card pipeline for device
// and allocates this widget's own rect uniform buffer. Call once from the
// widget's PrepareFrame on-transition, mirroring Base.EnterOn.
func (c *CardQuad) InitCardQuad(device core.DeviceID, queue core.QueueID, sharedLayout core.BindGroupLayoutID) error {
	pipe, err := getCardPipeline(device, sharedLayout)
	if err != nil {
		return err
	}
	c.device, c.queue, c.pipe = device, queue, pipe

	rectDesc := &types.BufferDescriptor{
		Label:            "card rect uniform",
		Size:             16,
		Usage:            types.BufferUsageUniform | types.BufferUsageCopyDst,
		MappedAtCreation: false,
	}
	buf, err := core.CreateBuffer(device, rectDesc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create card rect buffer", err)
	}
	c.rectBuffer = buf
	return nil
}

// SetRect uploads the pixel rect the quad should stretch across this
// frame. Workspace bounds changes call this every time a pane resizes.
func (c *CardQuad) SetRect(x, y, w, h float32) error {
	if c.rectBuffer.IsZero() {
		return yeti.NewError(yeti.FailedPrecondition, "CardQuad.SetRect called before InitCardQuad")
	}
	r := cardRectUniform{OriginX: x, OriginY: y, Width: w, Height: h}
	if err := core.WriteBuffer(c.queue, c.rectBuffer, 0, r.bytes()); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to upload card rect", err)
	}
	return nil
}

// Upload (re)creates the backing texture and its bind group if the
// dimensions changed or no texture exists yet, then writes pixels
// (tightly packed RGBA8, width*height*4 bytes) into it. Called whenever a widget's decoded
// content changes — once for a static image, every decoded frame for
// video, every recompiled pass for a shader widget.
func (c *CardQuad) Upload(pixels []byte, width, height uint32) error {
	if width == 0 || height == 0 {
		return yeti.NewError(yeti.InvalidArgument, "CardQuad.Upload requires non-zero dimensions")
	}
	if uint32(len(pixels)) < width*height*4 {
		return yeti.NewError(yeti.InvalidArgument, "CardQuad.Upload pixel buffer smaller than width*height*4")
	}

	if c.width != width || c.height != height || c.texture.IsZero() {
		if err := c.recreateTexture(width, height); err != nil {
			return err
		}
	}

	if err := core.WriteTexture(c.queue, c.texture, pixels, width*4, types.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to upload card texture", err)
	}
	return nil
}

func (c *CardQuad) recreateTexture(width, height uint32) error {
	if !c.texture.IsZero() {
		core.ReleaseTexture(c.texture)
	}

	texture, err := core.CreateTexture(c.device, &types.TextureDescriptor{
		Label:         "card texture",
		Size:          types.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        types.TextureFormatRGBA8Unorm,
		Usage:         types.TextureUsageTextureBinding | types.TextureUsageCopyDst,
	})
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create card texture", err)
	}
	view, err := core.CreateTextureView(texture, &types.TextureViewDescriptor{
		Label:         "card texture view",
		Format:        types.TextureFormatRGBA8Unorm,
		Dimension:     types.TextureViewDimension2D,
		Aspect:        types.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create card texture view", err)
	}

	group, err := c.buildBindGroup(view)
	if err != nil {
		return err
	}

	if !c.bindGroup.IsZero() {
		core.ReleaseBindGroup(c.bindGroup)
	}
	c.texture, c.view, c.bindGroup = texture, view, group
	c.width, c.height = width, height
	return nil
}

func (c *CardQuad) buildBindGroup(view *core.TextureView) (core.BindGroupID, error) {
	group, err := core.CreateBindGroup(c.device, &types.BindGroupDescriptor{
		Label:  "card bind group",
		Layout: c.pipe.layout,
		Entries: []types.BindGroupEntry{
			{Binding: 0, Resource: types.BufferBinding{Buffer: c.rectBuffer, Offset: 0, Size: 16}},
			{Binding: 1, Resource: types.TextureViewBinding{TextureView: view}},
			{Binding: 2, Resource: types.SamplerBinding{Sampler: c.pipe.sampler}},
		},
	})
	if err != nil {
		return core.BindGroupID{}, yeti.WrapError(yeti.GpuFailure, "failed to create card bind group", err)
	}
	return group, nil
}

// BindExternalView rebuilds the bind group around a texture view this
// CardQuad does not own (a shader widget's own offscreen render target,
// say) rather than one created and written by Upload. The caller is
// responsible for the view's lifetime; Release never touches it.
func (c *CardQuad) BindExternalView(view *core.TextureView, width, height uint32) error {
	group, err := c.buildBindGroup(view)
	if err != nil {
		return err
	}
	if !c.bindGroup.IsZero() {
		core.ReleaseBindGroup(c.bindGroup)
	}
	if !c.texture.IsZero() {
		core.ReleaseTexture(c.texture)
		c.texture = core.TextureID{}
	}
	c.view, c.bindGroup = view, group
	c.width, c.height = width, height
	return nil
}

// Render records the one draw call a Card widget issues into the shared
// frame pass: bind the shared card pipeline, bind sharedGroup (the shared
// globals) as group 0 and this widget's bind group as group 1, and draw
// the shared unit quad.
func (c *CardQuad) Render(pass RenderPass, sharedGroup core.BindGroupID) error {
	if c.bindGroup.IsZero() {
		return yeti.NewError(yeti.FailedPrecondition, "CardQuad.Render called before Upload")
	}
	pipeline, err := core.GetRenderPipeline(c.pipe.pipeline)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to resolve card pipeline", err)
	}
	pass.SetPipeline(pipeline)
	if err := pass.SetBindGroup(0, sharedGroup, nil); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to bind shared globals", err)
	}
	if err := pass.SetBindGroup(1, c.bindGroup, nil); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to bind card resources", err)
	}
	vb, err := core.GetBuffer(c.pipe.vertexBuffer)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to resolve card vertex buffer", err)
	}
	pass.SetVertexBuffer(0, vb, 0)
	pass.Draw(uint32(len(quadVertices)), 1, 0, 0)
	return nil
}

// Release destroys every GPU resource this quad owns. Idempotent: safe
// to call from Dispose even if InitCardQuad or Upload never ran.
func (c *CardQuad) Release() {
	if !c.bindGroup.IsZero() {
		core.ReleaseBindGroup(c.bindGroup)
		c.bindGroup = core.BindGroupID{}
	}
	if !c.texture.IsZero() {
		core.ReleaseTexture(c.texture)
		c.texture = core.TextureID{}
	}
	if !c.rectBuffer.IsZero() {
		core.ReleaseBuffer(c.rectBuffer)
		c.rectBuffer = core.BufferID{}
	}
	c.width, c.height = 0, 0
}

// MetadataSlot is the thin cardbuf wrapper every Card widget uses to
// publish its CPU-side bookkeeping (decode status, frame counters, the
// packed fields particular to its payload kind) to the shared metadata
// pool, per the glossary's "rendered via the shared card buffer" Card
// definition. It is independent of CardQuad: a widget can hold a
// MetadataSlot without ever mapping pixels through a texture (a shader
// widget with no visible output yet, say).
type MetadataSlot struct {
	mgr    *cardbuf.CardBufferManager
	handle cardbuf.MetadataHandle
}

// Allocate reserves a metadata slot of at least size bytes. Re-allocating
// an already-allocated slot first frees the old one.
func (s *MetadataSlot) Allocate(mgr *cardbuf.CardBufferManager, size uint32) error {
	s.Release()
	handle, err := mgr.AllocateMetadata(size)
	if err != nil {
		return err
	}
	s.mgr, s.handle = mgr, handle
	return nil
}

func (s *MetadataSlot) Write(data []byte) error {
	if s.mgr == nil {
		return yeti.NewError(yeti.FailedPrecondition, "MetadataSlot.Write called before Allocate")
	}
	return s.mgr.WriteMetadata(s.handle, data)
}

func (s *MetadataSlot) WriteAt(offset uint32, data []byte) error {
	if s.mgr == nil {
		return yeti.NewError(yeti.FailedPrecondition, "MetadataSlot.WriteAt called before Allocate")
	}
	return s.mgr.WriteMetadataAt(s.handle, offset, data)
}

func (s *MetadataSlot) Handle() cardbuf.MetadataHandle { return s.handle }

// Release frees the slot's metadata allocation. Idempotent.
func (s *MetadataSlot) Release() {
	if s.mgr == nil {
		return
	}
	_ = s.mgr.DeallocateMetadata(s.handle)
	s.mgr, s.handle = nil, cardbuf.MetadataHandle{}
}
