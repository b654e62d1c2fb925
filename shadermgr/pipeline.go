package shadermgr

import (
	"unsafe"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"
	"github.com/gogpu/yeti"
)

// createPipelineResources builds every GPU resource the grid pipeline
// needs from scratch: the shared quad vertex buffer, the per-grid bind
// group layout (8 bindings: grid uniforms, font atlas + sampler, glyph
// metadata SSBO, cell buffer SSBO, bitmap atlas + sampler, bitmap
// metadata SSBO), the pipeline layout combining it with the host's shared
// group 0 layout, and finally the render pipeline itself. Called only on
// the first successful Compile; later recompiles call recreatePipeline
// instead and leave these resources alone.
func (m *Manager) createPipelineResources() error {
	quadDesc := &types.BufferDescriptor{
		Label:            "quad vertices",
		Size:             uint64(len(quadVertices) * 4),
		Usage:            types.BufferUsageVertex,
		MappedAtCreation: true,
	}
	quadBuf, err := core.CreateBuffer(m.device, quadDesc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create quad vertex buffer", err)
	}
	mapped, err := core.GetMappedRange(quadBuf, 0, quadDesc.Size)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to map quad vertex buffer", err)
	}
	copy(mapped, (*[48]byte)(unsafe.Pointer(&quadVertices))[:])
	if err := core.UnmapBuffer(quadBuf); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to unmap quad vertex buffer", err)
	}
	m.quadVertexBuffer = quadBuf

	layoutDesc := &types.BindGroupLayoutDescriptor{
		Label: "grid bind group layout",
		Entries: []types.BindGroupLayoutEntry{
			{Binding: 0, Visibility: types.ShaderStageVertex | types.ShaderStageFragment, Buffer: types.BufferBindingLayout{Type: types.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: types.ShaderStageFragment, Texture: types.TextureBindingLayout{SampleType: types.TextureSampleTypeFloat, ViewDimension: types.TextureViewDimension2D}},
			{Binding: 2, Visibility: types.ShaderStageFragment, Sampler: types.SamplerBindingLayout{Type: types.SamplerBindingTypeFiltering}},
			{Binding: 3, Visibility: types.ShaderStageFragment, Buffer: types.BufferBindingLayout{Type: types.BufferBindingTypeReadOnlyStorage}},
			{Binding: 4, Visibility: types.ShaderStageFragment, Buffer: types.BufferBindingLayout{Type: types.BufferBindingTypeReadOnlyStorage}},
			{Binding: 5, Visibility: types.ShaderStageFragment, Texture: types.TextureBindingLayout{SampleType: types.TextureSampleTypeFloat, ViewDimension: types.TextureViewDimension2D}},
			{Binding: 6, Visibility: types.ShaderStageFragment, Sampler: types.SamplerBindingLayout{Type: types.SamplerBindingTypeFiltering}},
			{Binding: 7, Visibility: types.ShaderStageFragment, Buffer: types.BufferBindingLayout{Type: types.BufferBindingTypeReadOnlyStorage}},
		},
	}
	gridLayout, err := core.CreateBindGroupLayout(m.device, layoutDesc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create grid bind group layout", err)
	}
	m.gridBindLayout = gridLayout

	pipelineLayoutDesc := &types.PipelineLayoutDescriptor{
		Label:            "grid pipeline layout",
		BindGroupLayouts: []core.BindGroupLayoutID{m.shared, m.gridBindLayout},
	}
	pipelineLayout, err := core.CreatePipelineLayout(m.device, pipelineLayoutDesc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create pipeline layout", err)
	}
	m.pipelineLayout = pipelineLayout

	return m.buildRenderPipeline()
}

// recreatePipeline rebuilds only the render pipeline, reusing the layouts
// and vertex buffer a prior createPipelineResources call already built.
// The render pipeline is the sole resource here that embeds the shader
// module, so it is the only one invalidated by a shader recompile.
func (m *Manager) recreatePipeline() error {
	return m.buildRenderPipeline()
}

func (m *Manager) buildRenderPipeline() error {
	desc := &types.RenderPipelineDescriptor{
		Label:  "terminal grid pipeline",
		Layout: m.pipelineLayout,
		Vertex: types.VertexState{
			Module:     m.shaderModule,
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
			Module:     m.shaderModule,
			EntryPoint: "fs_main",
			Targets: []types.ColorTargetState{{
				Format:    types.TextureFormatBGRA8Unorm,
				WriteMask: types.ColorWriteMaskAll,
			}},
		},
		Primitive: types.PrimitiveState{Topology: types.PrimitiveTopologyTriangleList},
	}

	pipeline, err := core.CreateRenderPipeline(m.device, desc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create render pipeline", err)
	}
	if !m.pipeline.IsZero() {
		core.ReleaseRenderPipeline(m.pipeline)
	}
	m.pipeline = pipeline
	return nil
}
