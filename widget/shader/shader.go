// Package shader implements the shader widget: a payload is either a bare
// WGSL fragment body (single-pass) or a Shadertoy-style multipass document
// split by `//--- BufferA`, `//--- BufferB`, `//--- BufferC`, `//--- BufferD`,
// and `//--- Image` section markers. Each buffer section compiles to its
// own offscreen render target that ping-pongs between two textures so a
// pass can sample its own previous frame (a feedback buffer); the Image
// section is the final pass, sampling each enabled buffer's latest output
// at iChannel0..iChannelN-1 in canonical A-D order, and its output becomes
// this widget's displayed card texture via CardQuad.BindExternalView —
// rendered GPU-side the whole way through, never copied back to the CPU.
package shader

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/yeti"
	"github.com/gogpu/yeti/cardbuf"
	"github.com/gogpu/yeti/widget"
)

// bufferSectionNames is the canonical order buffer passes feed the Image
// pass's iChannel0..iChannel3 slots, mirroring kMaxBufferPasses/kMaxChannels
// from the plugin this widget is grounded on.
var bufferSectionNames = [4]string{"BufferA", "BufferB", "BufferC", "BufferD"}

func isSectionName(name string) bool {
	if name == "Image" {
		return true
	}
	for _, n := range bufferSectionNames {
		if n == name {
			return true
		}
	}
	return false
}

// parseSections splits payload into named sections on `//--- Name` marker
// lines. A payload with no recognized markers is treated as a single
// Image-only, non-multipass body.
func parseSections(payload string) (bufferNames []string, sections map[string]string, multipass bool) {
	sections = map[string]string{}
	lines := strings.Split(payload, "\n")
	current := ""
	var body strings.Builder
	found := false

	flush := func() {
		if current != "" {
			sections[current] = body.String()
			body.Reset()
		}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "//---") {
			name := strings.TrimSpace(strings.TrimPrefix(trimmed, "//---"))
			if isSectionName(name) {
				flush()
				current = name
				found = true
				continue
			}
		}
		if current != "" {
			body.WriteString(line)
			body.WriteString("\n")
		}
	}
	flush()

	if !found {
		return nil, map[string]string{"Image": payload}, false
	}
	for _, name := range bufferSectionNames {
		if _, ok := sections[name]; ok {
			bufferNames = append(bufferNames, name)
		}
	}
	return bufferNames, sections, true
}

// vertexWGSL positions a unit quad to fill its target entirely — every
// pass, buffer or Image, renders to its own offscreen texture at full
// resolution, so unlike CardQuad's shared quad there is no per-instance
// rect to apply here.
const vertexWGSL = `
struct VertexOut {
	@builtin(position) position: vec4<f32>,
	@location(0) uv: vec2<f32>,
}

@vertex
fn vs_main(@location(0) pos: vec2<f32>) -> VertexOut {
	var out: VertexOut;
	out.position = vec4<f32>(pos, 0.0, 1.0);
	out.uv = pos * 0.5 + vec2<f32>(0.5, 0.5);
	return out;
}
`

var quadVertices = [6][2]float32{
	{-1, -1}, {1, -1}, {1, 1},
	{-1, -1}, {1, 1}, {-1, 1},
}

// wrapFragment splices userCode into the ShaderToy-compatible accessor
// template, adapted from the plugin's wrapFragmentShader/
// wrapBufferPassShader: accessors read from this pass's own uniform block
// (group 1) plus the engine-wide Globals block (group 0, the same one
// CardQuad's pipeline binds) rather than a shader-widget-private global
// struct, since every Card widget already shares that binding.
func wrapFragment(userCode string, channelCount int) string {
	var b strings.Builder
	b.WriteString(`
struct Globals {
	time: f32,
	mouse_x: f32,
	mouse_y: f32,
	screen_width: f32,
	screen_height: f32,
	frame_index: u32,
	_padding: vec2<u32>,
}
struct PassUniforms {
	resolution: vec2<f32>,
	param: f32,
	zoom: f32,
	mouse: vec4<f32>,
}
@group(0) @binding(0) var<uniform> globals: Globals;
@group(1) @binding(0) var<uniform> pass_uniforms: PassUniforms;
`)
	for i := 0; i < channelCount; i++ {
		fmt.Fprintf(&b, "@group(2) @binding(%d) var iChannel%d: texture_2d<f32>;\n", i*2, i)
		fmt.Fprintf(&b, "@group(2) @binding(%d) var iChannel%dSampler: sampler;\n", i*2+1, i)
	}
	b.WriteString(`
fn iTime() -> f32 { return globals.time; }
fn iFrame() -> u32 { return globals.frame_index; }
fn iResolution() -> vec2<f32> { return pass_uniforms.resolution; }
fn iMouse() -> vec4<f32> { return pass_uniforms.mouse; }
fn iParam() -> f32 { return pass_uniforms.param; }
fn iZoom() -> f32 { return pass_uniforms.zoom; }

`)
	b.WriteString(userCode)
	b.WriteString(`

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	let fragCoord = uv * pass_uniforms.resolution;
	return mainImage(fragCoord);
}
`)
	return b.String()
}

// compiledPass holds the GPU objects behind one compiled WGSL section,
// shared by buffer passes and the Image pass.
type compiledPass struct {
	pipeline       core.RenderPipelineID
	pipelineLayout core.PipelineLayoutID
	passLayout     core.BindGroupLayoutID
	vertexBuffer   core.BufferID
	uniformBuffer  core.BufferID
	uniformGroup   core.BindGroupID
	channelLayout  core.BindGroupLayoutID
	channelGroup   core.BindGroupID
	channelCount   int
}

func (s *Shader) compilePass(label, source string, channelCount int) (*compiledPass, error) {
	fragSrc := wrapFragment(source, channelCount)

	vertModule, err := core.CreateShaderModule(s.device, &types.ShaderModuleDescriptor{
		Label:  label + " vertex",
		Source: types.ShaderSourceWGSL{Code: vertexWGSL},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.ShaderCompileFailed, "failed to compile shader widget vertex stage", err)
	}
	fragModule, err := core.CreateShaderModule(s.device, &types.ShaderModuleDescriptor{
		Label:  label + " fragment",
		Source: types.ShaderSourceWGSL{Code: fragSrc},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.ShaderCompileFailed, "failed to compile shader widget fragment stage: "+label, err)
	}

	passLayout, err := core.CreateBindGroupLayout(s.device, &types.BindGroupLayoutDescriptor{
		Label: label + " pass uniform layout",
		Entries: []types.BindGroupLayoutEntry{
			{Binding: 0, Visibility: types.ShaderStageFragment, Buffer: types.BufferBindingLayout{Type: types.BufferBindingTypeUniform}},
		},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader pass uniform layout", err)
	}

	layouts := []core.BindGroupLayoutID{s.sharedLayout, passLayout}
	var channelLayout core.BindGroupLayoutID
	if channelCount > 0 {
		entries := make([]types.BindGroupLayoutEntry, 0, channelCount*2)
		for i := 0; i < channelCount; i++ {
			entries = append(entries,
				types.BindGroupLayoutEntry{Binding: uint32(i * 2), Visibility: types.ShaderStageFragment, Texture: types.TextureBindingLayout{SampleType: types.TextureSampleTypeFloat, ViewDimension: types.TextureViewDimension2D}},
				types.BindGroupLayoutEntry{Binding: uint32(i*2 + 1), Visibility: types.ShaderStageFragment, Sampler: types.SamplerBindingLayout{Type: types.SamplerBindingTypeFiltering}},
			)
		}
		channelLayout, err = core.CreateBindGroupLayout(s.device, &types.BindGroupLayoutDescriptor{
			Label:   label + " channel layout",
			Entries: entries,
		})
		if err != nil {
			return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader channel layout", err)
		}
		layouts = append(layouts, channelLayout)
	}

	pipelineLayout, err := core.CreatePipelineLayout(s.device, &types.PipelineLayoutDescriptor{
		Label:            label + " pipeline layout",
		BindGroupLayouts: layouts,
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader pipeline layout", err)
	}

	pipeline, err := core.CreateRenderPipeline(s.device, &types.RenderPipelineDescriptor{
		Label:  label + " pipeline",
		Layout: pipelineLayout,
		Vertex: types.VertexState{
			Module:     vertModule,
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
			Module:     fragModule,
			EntryPoint: "fs_main",
			Targets: []types.ColorTargetState{{
				Format:    types.TextureFormatRGBA8Unorm,
				WriteMask: types.ColorWriteMaskAll,
			}},
		},
		Primitive: types.PrimitiveState{Topology: types.PrimitiveTopologyTriangleList},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader widget pipeline: "+label, err)
	}

	vb, err := s.sharedVertexBuffer()
	if err != nil {
		return nil, err
	}

	uniformBuf, err := core.CreateBuffer(s.device, &types.BufferDescriptor{
		Label: label + " uniforms",
		Size:  32,
		Usage: types.BufferUsageUniform | types.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader pass uniform buffer", err)
	}

	uniformGroup, err := core.CreateBindGroup(s.device, &types.BindGroupDescriptor{
		Label:  label + " uniform bind group",
		Layout: passLayout,
		Entries: []types.BindGroupEntry{
			{Binding: 0, Resource: types.BufferBinding{Buffer: uniformBuf, Offset: 0, Size: 32}},
		},
	})
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader pass bind group", err)
	}

	return &compiledPass{
		pipeline:       pipeline,
		pipelineLayout: pipelineLayout,
		passLayout:     passLayout,
		vertexBuffer:   vb,
		uniformBuffer:  uniformBuf,
		uniformGroup:   uniformGroup,
		channelLayout:  channelLayout,
		channelCount:   channelCount,
	}, nil
}

// buildChannelGroup (re)binds this pass's channel textures. Called once
// per frame for the Image pass (its inputs are the just-rendered buffer
// outputs) and once for any buffer pass reading its own previous frame.
func (s *Shader) buildChannelGroup(cp *compiledPass, views []*core.TextureView) error {
	if cp.channelLayout.IsZero() || len(views) == 0 {
		return nil
	}
	entries := make([]types.BindGroupEntry, 0, len(views)*2)
	for i, v := range views {
		entries = append(entries,
			types.BindGroupEntry{Binding: uint32(i * 2), Resource: types.TextureViewBinding{TextureView: v}},
			types.BindGroupEntry{Binding: uint32(i*2 + 1), Resource: types.SamplerBinding{Sampler: s.sampler}},
		)
	}
	group, err := core.CreateBindGroup(s.device, &types.BindGroupDescriptor{
		Label:   "shader channel bind group",
		Layout:  cp.channelLayout,
		Entries: entries,
	})
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create shader channel bind group", err)
	}
	if !cp.channelGroup.IsZero() {
		core.ReleaseBindGroup(cp.channelGroup)
	}
	cp.channelGroup = group
	return nil
}

// passUniformData mirrors wrapFragment's PassUniforms struct: 32 bytes,
// resolution + param + zoom + mouse (vec4: xy position, z button state,
// w always 0).
type passUniformData struct {
	Width, Height  float32
	Param, Zoom    float32
	MouseX, MouseY float32
	MouseDown      float32
	_pad           float32
}

func (u passUniformData) bytes() []byte {
	return (*[32]byte)(unsafe.Pointer(&u))[:]
}

func (cp *compiledPass) updateUniforms(queue core.QueueID, width, height uint32, param, zoom, mouseX, mouseY float32, mouseDown bool) error {
	data := passUniformData{Width: float32(width), Height: float32(height), Param: param, Zoom: zoom, MouseX: mouseX, MouseY: mouseY}
	if mouseDown {
		data.MouseDown = 1
	}
	return core.WriteBuffer(queue, cp.uniformBuffer, 0, data.bytes())
}

// bufferTarget is one multipass buffer's ping-pong pair: front is last
// frame's finished output (read as iChannel0 and fed to the Image pass),
// back is this frame's render target; swap() exchanges them after render.
type bufferTarget struct {
	compiledPass
	texA, texB   core.TextureID
	viewA, viewB *core.TextureView
	useA         bool
}

func (t *bufferTarget) front() *core.TextureView {
	if t.useA {
		return t.viewA
	}
	return t.viewB
}

func (t *bufferTarget) back() (core.TextureID, *core.TextureView) {
	if t.useA {
		return t.texB, t.viewB
	}
	return t.texA, t.viewA
}

func (t *bufferTarget) swap() { t.useA = !t.useA }

// imageTarget is the Image pass's single render target, whose view is
// bound directly into the widget's CardQuad every frame.
type imageTarget struct {
	compiledPass
	tex  core.TextureID
	view *core.TextureView
}

// Shader is a Card widget rendering a single-pass or Shadertoy-style
// multipass WGSL document entirely on the GPU: the Image pass's offscreen
// target is bound straight into CardQuad rather than read back to pixels.
type Shader struct {
	widget.Base
	quad widget.CardQuad
	meta widget.MetadataSlot

	device       core.DeviceID
	queue        core.QueueID
	sharedLayout core.BindGroupLayoutID
	sharedGroup  core.BindGroupID
	sampler      core.SamplerID
	vb           core.BufferID

	multipass   bool
	bufferNames []string
	sections    map[string]string

	buffers map[string]*bufferTarget
	image   *imageTarget

	width, height uint32
	compiled      bool
	failed        bool
	ready         bool

	param, zoom    float32
	mouseX, mouseY float32
	mouseDown      bool
}

// New parses payload (per the package doc) and constructs a Shader
// occupying bounds.
func New(bounds yeti.Bounds, payload []byte) (*Shader, error) {
	sh := &Shader{}
	if err := sh.init(bounds, payload); err != nil {
		return nil, err
	}
	return sh, nil
}

func (sh *Shader) init(bounds yeti.Bounds, payload []byte) error {
	sh.InitBase(bounds)
	text := strings.TrimSpace(string(payload))
	if text == "" {
		return yeti.NewError(yeti.InvalidArgument, "shader payload: empty WGSL source")
	}

	names, sections, multipass := parseSections(text)
	if multipass {
		if _, ok := sections["Image"]; !ok {
			return yeti.NewError(yeti.InvalidArgument, "shader payload: multipass document missing an Image section")
		}
	}
	sh.bufferNames = names
	sh.sections = sections
	sh.multipass = multipass
	sh.buffers = map[string]*bufferTarget{}
	sh.param = 0.5
	sh.zoom = 1
	return nil
}

// WantsMouse reports true: shader widgets forward local mouse state into
// iMouse()/iParam() for interactive demos, mirroring the plugin's
// wantsMouse() override.
func (sh *Shader) WantsMouse() bool { return true }

// SetMouse updates the local-space mouse position (pixels) and button
// state the next compiled pass sees via iMouse().
func (sh *Shader) SetMouse(x, y float32, down bool) {
	sh.mouseX, sh.mouseY, sh.mouseDown = x, y, down
}

// Scroll adjusts the scroll-controlled param in [0, 1], mirroring the
// plugin's mouse-wheel handling of _param.
func (sh *Shader) Scroll(delta float32) {
	sh.param += delta * 0.1
	if sh.param < 0 {
		sh.param = 0
	}
	if sh.param > 1 {
		sh.param = 1
	}
}

// SetZoom sets the zoom uniform exposed to shaders via iZoom().
func (sh *Shader) SetZoom(z float32) { sh.zoom = z }

func (sh *Shader) sharedVertexBuffer() (core.BufferID, error) {
	if !sh.vb.IsZero() {
		return sh.vb, nil
	}
	desc := &types.BufferDescriptor{
		Label:            "shader widget quad vertices",
		Size:             uint64(len(quadVertices) * 8),
		Usage:            types.BufferUsageVertex,
		MappedAtCreation: true,
	}
	vb, err := core.CreateBuffer(sh.device, desc)
	if err != nil {
		return core.BufferID{}, yeti.WrapError(yeti.GpuFailure, "failed to create shader widget vertex buffer", err)
	}
	mapped, err := core.GetMappedRange(vb, 0, desc.Size)
	if err != nil {
		return core.BufferID{}, yeti.WrapError(yeti.GpuFailure, "failed to map shader widget vertex buffer", err)
	}
	copy(mapped, flattenQuad(quadVertices))
	if err := core.UnmapBuffer(vb); err != nil {
		return core.BufferID{}, yeti.WrapError(yeti.GpuFailure, "failed to unmap shader widget vertex buffer", err)
	}
	sh.vb = vb
	return vb, nil
}

// PrepareFrame compiles every pass on the off→on transition, recreates
// offscreen targets on a bounds change, then renders the buffer chain and
// the Image pass into their own textures before the shared frame pass
// begins, per FrameContext's "own pass in PrepareFrame, composite draw in
// Render" contract.
func (sh *Shader) PrepareFrame(ctx *widget.FrameContext) error {
	if sh.failed {
		return yeti.NewError(yeti.FailedPrecondition, "shader widget previously failed to compile")
	}
	sh.sharedGroup = ctx.SharedGroup

	if sh.EnterOn() {
		sh.device, sh.queue, sh.sharedLayout = ctx.Device, ctx.Queue, ctx.SharedLayout
		if err := sh.quad.InitCardQuad(ctx.Device, ctx.Queue, ctx.SharedLayout); err != nil {
			return err
		}
		sampler, err := core.CreateSampler(sh.device, &types.SamplerDescriptor{
			Label:        "shader widget channel sampler",
			AddressModeU: types.AddressModeClampToEdge,
			AddressModeV: types.AddressModeClampToEdge,
			MagFilter:    types.FilterModeLinear,
			MinFilter:    types.FilterModeLinear,
		})
		if err != nil {
			return yeti.WrapError(yeti.GpuFailure, "failed to create shader widget sampler", err)
		}
		sh.sampler = sampler
		if ctx.Cards != nil {
			if err := sh.meta.Allocate(ctx.Cards, 16); err != nil {
				return err
			}
		}
		if err := sh.compileAll(ctx.Cards); err != nil {
			sh.failed = true
			return err
		}
	}

	b := sh.Bounds()
	if err := sh.quad.SetRect(b.X, b.Y, b.Width, b.Height); err != nil {
		return err
	}

	width, height := rasterDimensions(b)
	if width != sh.width || height != sh.height {
		if err := sh.resizeTargets(width, height); err != nil {
			sh.failed = true
			return err
		}
	}

	if err := sh.renderPasses(); err != nil {
		sh.failed = true
		return err
	}
	if err := sh.quad.BindExternalView(sh.image.view, sh.width, sh.height); err != nil {
		return err
	}
	sh.ready = true
	return sh.publishMetadata()
}

func rasterDimensions(b yeti.Bounds) (uint32, uint32) {
	width, height := uint32(b.Width), uint32(b.Height)
	if width == 0 {
		width = 1
	}
	if height == 0 {
		height = 1
	}
	return width, height
}

// compileAll compiles every present section once. Buffer passes always
// get exactly one channel (their own previous frame); the Image pass gets
// one channel per enabled buffer, in canonical A-D order.
func (sh *Shader) compileAll(cards *cardbuf.CardBufferManager) error {
	for _, name := range sh.bufferNames {
		cp, err := sh.compilePass("shader buffer "+name, sh.sections[name], 1)
		if err != nil {
			return err
		}
		sh.buffers[name] = &bufferTarget{compiledPass: *cp}
	}

	imgSrc := sh.sections["Image"]
	cp, err := sh.compilePass("shader image pass", imgSrc, len(sh.bufferNames))
	if err != nil {
		return err
	}
	sh.image = &imageTarget{compiledPass: *cp}

	if cards != nil {
		// Account for each pass's backing store against the shared card
		// buffer's image-data budget even though the bytes live in GPU
		// render targets rather than the CPU arena: the arena exists to
		// track a Card's total footprint regardless of where it's stored.
		for range sh.bufferNames {
			if _, err := cards.AllocateImageData(1); err != nil {
				yeti.Logger().Warn("shader widget: image-data accounting exhausted", "error", err)
				break
			}
		}
	}

	sh.compiled = true
	return nil
}

func (sh *Shader) resizeTargets(width, height uint32) error {
	for _, name := range sh.bufferNames {
		bt := sh.buffers[name]
		texA, viewA, err := sh.createTarget(width, height)
		if err != nil {
			return err
		}
		texB, viewB, err := sh.createTarget(width, height)
		if err != nil {
			return err
		}
		sh.releaseBufferTextures(bt)
		bt.texA, bt.viewA = texA, viewA
		bt.texB, bt.viewB = texB, viewB
		bt.useA = true
	}

	tex, view, err := sh.createTarget(width, height)
	if err != nil {
		return err
	}
	if !sh.image.tex.IsZero() {
		core.ReleaseTexture(sh.image.tex)
	}
	sh.image.tex, sh.image.view = tex, view

	sh.width, sh.height = width, height
	return nil
}

func (sh *Shader) createTarget(width, height uint32) (core.TextureID, *core.TextureView, error) {
	tex, err := core.CreateTexture(sh.device, &types.TextureDescriptor{
		Label:         "shader offscreen target",
		Size:          types.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        types.TextureFormatRGBA8Unorm,
		Usage:         types.TextureUsageRenderAttachment | types.TextureUsageTextureBinding,
	})
	if err != nil {
		return core.TextureID{}, nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader offscreen target", err)
	}
	view, err := core.CreateTextureView(tex, &types.TextureViewDescriptor{
		Label:         "shader offscreen view",
		Format:        types.TextureFormatRGBA8Unorm,
		Dimension:     types.TextureViewDimension2D,
		Aspect:        types.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return core.TextureID{}, nil, yeti.WrapError(yeti.GpuFailure, "failed to create shader offscreen view", err)
	}
	return tex, view, nil
}

func (sh *Shader) releaseBufferTextures(bt *bufferTarget) {
	if !bt.texA.IsZero() {
		core.ReleaseTexture(bt.texA)
	}
	if !bt.texB.IsZero() {
		core.ReleaseTexture(bt.texB)
	}
	bt.texA, bt.texB, bt.viewA, bt.viewB = core.TextureID{}, core.TextureID{}, nil, nil
}

// renderPasses records one offscreen render pass per buffer (reading its
// own previous frame), then the Image pass (reading every buffer's fresh
// output), each in its own command encoder submitted independently so the
// Image pass's channel reads always see this frame's buffer results.
func (sh *Shader) renderPasses() error {
	for _, name := range sh.bufferNames {
		bt := sh.buffers[name]
		if err := sh.buildChannelGroup(&bt.compiledPass, []*core.TextureView{bt.front()}); err != nil {
			return err
		}
		if err := bt.updateUniforms(sh.queue, sh.width, sh.height, sh.param, sh.zoom, sh.mouseX, sh.mouseY, sh.mouseDown); err != nil {
			return err
		}
		_, view := bt.back()
		if err := sh.renderInto(&bt.compiledPass, view); err != nil {
			return err
		}
		bt.swap()
	}

	var channelViews []*core.TextureView
	for _, name := range sh.bufferNames {
		channelViews = append(channelViews, sh.buffers[name].front())
	}
	if err := sh.buildChannelGroup(&sh.image.compiledPass, channelViews); err != nil {
		return err
	}
	if err := sh.image.updateUniforms(sh.queue, sh.width, sh.height, sh.param, sh.zoom, sh.mouseX, sh.mouseY, sh.mouseDown); err != nil {
		return err
	}
	return sh.renderInto(&sh.image.compiledPass, sh.image.view)
}

func (sh *Shader) renderInto(cp *compiledPass, target *core.TextureView) error {
	device, err := core.GetDevice(sh.device)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to resolve device for shader widget pass", err)
	}
	encoder, err := device.CreateCommandEncoder("shader widget pass")
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create shader widget command encoder", err)
	}
	pass, err := encoder.BeginRenderPass(&core.RenderPassDescriptor{
		Label: "shader widget offscreen pass",
		ColorAttachments: []core.RenderPassColorAttachment{
			{View: target, LoadOp: types.LoadOpClear, StoreOp: types.StoreOpStore, ClearValue: types.Color{R: 0, G: 0, B: 0, A: 1}},
		},
	})
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to begin shader widget offscreen pass", err)
	}

	pipeline, err := core.GetRenderPipeline(cp.pipeline)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to resolve shader widget pipeline", err)
	}
	pass.SetPipeline(pipeline)
	if err := pass.SetBindGroup(0, sh.sharedGroup, nil); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to bind shared globals for shader widget pass", err)
	}
	if err := pass.SetBindGroup(1, cp.uniformGroup, nil); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to bind shader widget pass uniforms", err)
	}
	if cp.channelCount > 0 {
		if err := pass.SetBindGroup(2, cp.channelGroup, nil); err != nil {
			return yeti.WrapError(yeti.GpuFailure, "failed to bind shader widget pass channels", err)
		}
	}
	vb, err := core.GetBuffer(cp.vertexBuffer)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to resolve shader widget vertex buffer", err)
	}
	pass.SetVertexBuffer(0, vb, 0)
	pass.Draw(uint32(len(quadVertices)), 1, 0, 0)

	encoder.EndRenderPass(pass)
	cmdBuf, err := encoder.Finish()
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to finish shader widget command buffer", err)
	}
	if err := core.Submit(sh.queue, cmdBuf.Raw()); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to submit shader widget pass", err)
	}
	return nil
}

// publishMetadata writes pass-topology bookkeeping into the shared card
// metadata pool: multipass u8, bufferCount u8, pad u8 x2, width u32,
// height u32.
func (sh *Shader) publishMetadata() error {
	if sh.meta.Handle().Size == 0 {
		return nil
	}
	var buf [16]byte
	if sh.multipass {
		buf[0] = 1
	}
	buf[1] = byte(len(sh.bufferNames))
	le := func(off int, v uint32) {
		buf[off] = byte(v)
		buf[off+1] = byte(v >> 8)
		buf[off+2] = byte(v >> 16)
		buf[off+3] = byte(v >> 24)
	}
	le(4, sh.width)
	le(8, sh.height)
	return sh.meta.Write(buf[:])
}

// Render issues the single textured-quad draw call compositing the
// Image pass's already-rendered output; the heavy lifting happened in
// PrepareFrame's offscreen passes.
func (sh *Shader) Render(pass widget.RenderPass, ctx *widget.FrameContext) error {
	if !sh.ready {
		return nil
	}
	return sh.quad.Render(pass, ctx.SharedGroup)
}

// Dispose releases every GPU resource across every compiled pass.
// Idempotent.
func (sh *Shader) Dispose() error {
	for _, name := range sh.bufferNames {
		if bt, ok := sh.buffers[name]; ok {
			sh.releaseBufferTextures(bt)
			releaseCompiledPass(&bt.compiledPass)
		}
	}
	if sh.image != nil {
		if !sh.image.tex.IsZero() {
			core.ReleaseTexture(sh.image.tex)
		}
		releaseCompiledPass(&sh.image.compiledPass)
	}
	if !sh.vb.IsZero() {
		core.ReleaseBuffer(sh.vb)
		sh.vb = core.BufferID{}
	}
	if !sh.sampler.IsZero() {
		core.ReleaseSampler(sh.sampler)
		sh.sampler = core.SamplerID{}
	}
	sh.quad.Release()
	sh.meta.Release()
	return nil
}

func releaseCompiledPass(cp *compiledPass) {
	if !cp.uniformGroup.IsZero() {
		core.ReleaseBindGroup(cp.uniformGroup)
	}
	if !cp.channelGroup.IsZero() {
		core.ReleaseBindGroup(cp.channelGroup)
	}
	if !cp.uniformBuffer.IsZero() {
		core.ReleaseBuffer(cp.uniformBuffer)
	}
	if !cp.pipeline.IsZero() {
		core.ReleaseRenderPipeline(cp.pipeline)
	}
	if !cp.pipelineLayout.IsZero() {
		core.ReleasePipelineLayout(cp.pipelineLayout)
	}
	if !cp.passLayout.IsZero() {
		core.ReleaseBindGroupLayout(cp.passLayout)
	}
	if !cp.channelLayout.IsZero() {
		core.ReleaseBindGroupLayout(cp.channelLayout)
	}
}

func flattenQuad(v [6][2]float32) []byte {
	return (*[48]byte)(unsafe.Pointer(&v))[:]
}
