package host

import (
	"fmt"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/yeti"
)

// Surface is the WebGPU collaborator contract: the platform window's
// swapchain, supplying the current surface format, a way to acquire this
// frame's texture view, a resize operation, and submit/present. The
// platform window itself is out of scope; Engine only ever talks to it
// through this interface, so a headless build can satisfy it with
// OffscreenSurface and a real build with a windowed implementation.
//
// Submit and Present are split because step 7 of the frame loop releases
// transient resources between them (spec.md §4.6): Submit hands the
// recorded command buffer to the device's queue, Present schedules the
// swapchain image after submission completes.
type Surface interface {
	Format() types.TextureFormat
	AcquireCurrentView() (*core.TextureView, error)
	Submit(buf hal.CommandBuffer) error
	Present() error
	Resize(width, height uint32) error
}

// GPUInfo identifies the adapter Engine acquired, surfaced at startup the
// way the teacher's backend/wgpu/device.go GPUInfo does.
type GPUInfo struct {
	Name       string
	Vendor     string
	DeviceType types.DeviceType
	Backend    types.Backend
	Driver     string
}

// String renders a human-readable one-line summary, e.g. for a startup
// log line.
func (g *GPUInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", g.Name, g.DeviceType, g.Backend)
}

// NewGPUInfo retrieves the adapter's identity.
func NewGPUInfo(adapterID core.AdapterID) (*GPUInfo, error) {
	info, err := core.GetAdapterInfo(adapterID)
	if err != nil {
		return nil, yeti.WrapError(yeti.GpuFailure, "failed to get adapter info", err)
	}
	return &GPUInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType,
		Backend:    info.Backend,
		Driver:     info.Driver,
	}, nil
}

// GPUSample is one point-in-time reading from a GPUMonitor.
type GPUSample struct {
	UtilizationPercent float32
	MemoryUsedBytes    uint64
	TemperatureCelsius float32
}

// GPUMonitor reports live GPU telemetry. Reading real vendor counters
// (NVML, ADLX, igcl) needs OS- and vendor-specific syscalls that are out
// of scope for this module; Engine only depends on this interface, so a
// caller that does have those bindings can plug in a real implementation.
type GPUMonitor interface {
	Sample() (GPUSample, error)
}

// NoopMonitor always reports a zeroed sample. It is Engine's default
// GPUMonitor.
type NoopMonitor struct{}

// Sample implements GPUMonitor.
func (NoopMonitor) Sample() (GPUSample, error) { return GPUSample{}, nil }
