package host

import (
	"unsafe"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/yeti"
)

// globalsUniform mirrors the group-0 uniform layout every widget pipeline
// binds (spec.md §4.4 "second bind group"): time, mouse position, surface
// resolution, and the current frame index. 8 × 4 bytes keeps the struct
// 16-byte aligned for std140-style uniform buffer layout.
type globalsUniform struct {
	Time         float32
	MouseX       float32
	MouseY       float32
	ScreenWidth  float32
	ScreenHeight float32
	FrameIndex   uint32
	_padding     [2]uint32
}

func (g globalsUniform) bytes() []byte {
	return (*[32]byte)(unsafe.Pointer(&g))[:]
}

// sharedGlobals owns the group-0 bind group layout, its backing uniform
// buffer, and the bind group wrapping it — created once by Engine and
// shared by every workspace's widget pipelines via
// shadermgr.Manager.createPipelineResources' pipeline layout.
type sharedGlobals struct {
	layout core.BindGroupLayoutID
	buffer core.BufferID
	group  core.BindGroupID
}

func createSharedGlobals(device core.DeviceID) (*sharedGlobals, error) {
	layoutDesc := &types.BindGroupLayoutDescriptor{
		Label: "shared globals bind group layout",
		Entries: []types.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: types.ShaderStageVertex | types.ShaderStageFragment,
				Buffer:     types.BufferBindingLayout{Type: types.BufferBindingTypeUniform},
			},
		},
	}
	layout, err := core.CreateBindGroupLayout(device, layoutDesc)
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shared globals bind group layout", err)
	}

	bufDesc := &types.BufferDescriptor{
		Label:            "shared globals uniform",
		Size:             uint64(globalsUniform{}.size()),
		Usage:            types.BufferUsageUniform | types.BufferUsageCopyDst,
		MappedAtCreation: false,
	}
	buf, err := core.CreateBuffer(device, bufDesc)
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shared globals buffer", err)
	}

	groupDesc := &types.BindGroupDescriptor{
		Label:  "shared globals bind group",
		Layout: layout,
		Entries: []types.BindGroupEntry{
			{Binding: 0, Resource: types.BufferBinding{Buffer: buf, Offset: 0, Size: 0}},
		},
	}
	group, err := core.CreateBindGroup(device, groupDesc)
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to create shared globals bind group", err)
	}

	return &sharedGlobals{layout: layout, buffer: buf, group: group}, nil
}

// size returns the uniform's wire size in bytes.
func (globalsUniform) size() int { return 32 }

// update uploads the current frame's globals to the GPU. Called once per
// frame before the render pass is recorded, so every widget's group-0
// binding sees this frame's values.
func (s *sharedGlobals) update(queue core.QueueID, g globalsUniform) error {
	if err := core.WriteBuffer(queue, s.buffer, 0, g.bytes()); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to upload shared globals", err)
	}
	return nil
}
