package shadermgr

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"
	"github.com/gogpu/yeti"
)

//go:embed shaders/grid.wgsl
var baseGridShader string

// quadVertices is the fullscreen-quad vertex buffer every grid pipeline
// shares, two triangles in clip space.
var quadVertices = [12]float32{
	-1, -1,
	1, -1,
	-1, 1,
	-1, 1,
	1, -1,
	1, 1,
}

// Manager owns the merged WGSL grid shader and the render pipeline built
// from it. AddProvider/AddLibrary/AddEffect register contributors; Compile
// merges and validates the result; Update recompiles only when a provider
// reports itself dirty.
type Manager struct {
	device core.DeviceID
	shared core.BindGroupLayoutID // group 0, owned by the host engine

	baseShader string
	libraries  map[string]string
	providers  []Provider
	preEffects  []Effect
	postEffects []Effect

	mergedSource string

	shaderModule     core.ShaderModuleID
	pipeline         core.RenderPipelineID
	pipelineLayout   core.PipelineLayoutID
	gridBindLayout   core.BindGroupLayoutID
	quadVertexBuffer core.BufferID
}

// New creates a Manager bound to device, sharing sharedLayout (group 0)
// with the rest of the host engine's render pipelines.
func New(device core.DeviceID, sharedLayout core.BindGroupLayoutID) (*Manager, error) {
	m := &Manager{device: device, shared: sharedLayout}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) init() error {
	if strings.TrimSpace(baseGridShader) == "" {
		return yeti.NewError(yeti.InternalBug, "embedded base shader is empty")
	}
	m.baseShader = baseGridShader
	m.libraries = make(map[string]string)
	return nil
}

// AddProvider registers provider's contributed code and dispatch branch.
func (m *Manager) AddProvider(provider Provider) {
	if provider == nil {
		return
	}
	m.providers = append(m.providers, provider)
}

// AddLibrary registers a named WGSL snippet merged before any provider
// code, for shared helper functions multiple providers call into.
func (m *Manager) AddLibrary(name, code string) {
	m.libraries[name] = code
}

// AddPreEffect registers a pre-effect, selected at render time by its
// Index via grid.preEffectIndex. Pre-effects are kept sorted by Index so
// the merged dispatch chain and doc comments always list them in that
// order regardless of registration order.
func (m *Manager) AddPreEffect(effect Effect) {
	m.preEffects = append(m.preEffects, effect)
	sortEffectsByIndex(m.preEffects)
}

// AddPostEffect registers a post-effect, selected at render time by its
// Index via grid.postEffectIndex. Kept sorted by Index for the same
// reason as AddPreEffect.
func (m *Manager) AddPostEffect(effect Effect) {
	m.postEffects = append(m.postEffects, effect)
	sortEffectsByIndex(m.postEffects)
}

func sortEffectsByIndex(effects []Effect) {
	sort.Slice(effects, func(i, j int) bool { return effects[i].Index < effects[j].Index })
}

// NeedsRecompile reports whether any registered provider is dirty, or no
// shader module has been built yet.
func (m *Manager) NeedsRecompile() bool {
	for _, p := range m.providers {
		if p.Dirty() {
			return true
		}
	}
	return m.shaderModule.IsZero()
}

// Update recompiles the shader if NeedsRecompile reports true; otherwise
// it is a no-op. Safe to call once per frame unconditionally.
func (m *Manager) Update() error {
	if !m.NeedsRecompile() {
		return nil
	}
	return m.Compile()
}

// MergedSource returns the most recently merged WGSL source, for
// diagnostics and the compile-failure line dump.
func (m *Manager) MergedSource() string { return m.mergedSource }

// Compile merges every registered provider/library/effect into the base
// shader, validates the result through naga, and (re)builds the render
// pipeline. The first successful compile also builds the shared pipeline
// layout, bind group layout, and quad vertex buffer; later recompiles
// reuse those and only rebuild the render pipeline itself, since it is
// the only resource that embeds the shader module.
func (m *Manager) Compile() error {
	if m.baseShader == "" {
		return yeti.NewError(yeti.FailedPrecondition, "no base shader loaded")
	}

	m.mergedSource = m.mergeShaders()

	if _, err := naga.Compile(m.mergedSource); err != nil {
		return yeti.WrapError(yeti.ShaderCompileFailed, dumpSourceFailure(m.mergedSource), err)
	}

	shaderDesc := &types.ShaderModuleDescriptor{
		Label: "terminal grid shader",
		Source: types.ShaderSourceWGSL{Code: m.mergedSource},
	}
	module, err := core.CreateShaderModule(m.device, shaderDesc)
	if err != nil {
		return yeti.WrapError(yeti.ShaderCompileFailed, dumpSourceFailure(m.mergedSource), err)
	}
	m.shaderModule = module

	for _, p := range m.providers {
		p.ClearDirty()
	}

	firstCompile := m.gridBindLayout.IsZero() || m.pipelineLayout.IsZero() || m.quadVertexBuffer.IsZero()
	if firstCompile {
		if err := m.createPipelineResources(); err != nil {
			return err
		}
	} else if err := m.recreatePipeline(); err != nil {
		return err
	}

	return nil
}

func dumpSourceFailure(source string) string {
	lines := strings.Split(source, "\n")
	var b strings.Builder
	b.WriteString("shader compile failed:\n")
	for i, line := range lines {
		fmt.Fprintf(&b, "%4d: %s\n", i+1, line)
	}
	return b.String()
}

// ShaderModule returns the compiled shader module handle.
func (m *Manager) ShaderModule() core.ShaderModuleID { return m.shaderModule }

// Pipeline returns the grid render pipeline handle.
func (m *Manager) Pipeline() core.RenderPipelineID { return m.pipeline }

// GridBindGroupLayout returns the per-grid (group 1) bind group layout.
func (m *Manager) GridBindGroupLayout() core.BindGroupLayoutID { return m.gridBindLayout }

// QuadVertexBuffer returns the shared fullscreen-quad vertex buffer.
func (m *Manager) QuadVertexBuffer() core.BufferID { return m.quadVertexBuffer }
