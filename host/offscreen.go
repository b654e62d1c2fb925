package host

import (
	"sync"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/yeti"
)

// OffscreenSurface is a minimal Surface with no platform window behind
// it: it renders into a single render-attachment texture it owns and
// recreates on Resize, never presenting to a screen. It is the default
// collaborator for cmd/yeti's demo mode and for tests, mirroring the
// teacher's own choice (cmd/ggdemo) to drive its renderer without a
// real windowing dependency.
type OffscreenSurface struct {
	device core.DeviceID
	queue  core.QueueID
	format types.TextureFormat

	mu      sync.Mutex
	width   uint32
	height  uint32
	texture core.TextureID
	view    *core.TextureView
}

// NewOffscreenSurface creates an OffscreenSurface backed by a
// render-attachment texture of the given size and format.
func NewOffscreenSurface(device core.DeviceID, queue core.QueueID, format types.TextureFormat, width, height uint32) (*OffscreenSurface, error) {
	s := &OffscreenSurface{device: device, queue: queue, format: format}
	if err := s.resize(width, height); err != nil {
		return nil, err
	}
	return s, nil
}

// Format implements Surface.
func (s *OffscreenSurface) Format() types.TextureFormat { return s.format }

// AcquireCurrentView implements Surface, returning the view over the
// current offscreen texture. The same view is reused for every frame
// until the next Resize.
func (s *OffscreenSurface) AcquireCurrentView() (*core.TextureView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view == nil {
		return nil, yeti.NewError(yeti.FailedPrecondition, "offscreen surface has no texture view")
	}
	return s.view, nil
}

// Submit implements Surface by handing the command buffer to the
// device's queue. The offscreen surface has no swapchain of its own,
// so there is nothing further to do beyond the generic submit.
func (s *OffscreenSurface) Submit(buf hal.CommandBuffer) error {
	if err := core.Submit(s.queue, buf); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "queue submit failed", err)
	}
	return nil
}

// Present implements Surface as a no-op: there is no swapchain to
// schedule a present against. A caller that wants the rendered contents
// reads them back from the texture directly.
func (s *OffscreenSurface) Present() error { return nil }

// Resize implements Surface, recreating the backing texture at the new
// size.
func (s *OffscreenSurface) Resize(width, height uint32) error {
	return s.resize(width, height)
}

func (s *OffscreenSurface) resize(width, height uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	texDesc := &types.TextureDescriptor{
		Label:         "offscreen-surface-texture",
		Size:          types.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     types.TextureDimension2D,
		Format:        s.format,
		Usage:         types.TextureUsageRenderAttachment | types.TextureUsageCopySrc,
	}
	texture, err := core.CreateTexture(s.device, texDesc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create offscreen texture", err)
	}

	view, err := core.CreateTextureView(texture, &types.TextureViewDescriptor{
		Label:         "offscreen-surface-view",
		Format:        s.format,
		Dimension:     types.TextureViewDimension2D,
		Aspect:        types.TextureAspectAll,
		BaseMipLevel:  0,
		MipLevelCount: 1,
	})
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create offscreen texture view", err)
	}

	s.width, s.height = width, height
	s.texture, s.view = texture, view
	return nil
}
