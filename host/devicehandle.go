package host

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/core"
)

// DeviceHandle adapts Engine's acquired adapter/device/queue IDs to
// gpucontext.DeviceProvider, letting a host application or a widget's
// external collaborator receive this engine's GPU handles without
// importing gogpu/wgpu/core itself.
type DeviceHandle struct {
	adapter core.AdapterID
	device  core.DeviceID
	queue   core.QueueID
}

var _ gpucontext.DeviceProvider = DeviceHandle{}

// Device implements gpucontext.DeviceProvider.
func (h DeviceHandle) Device() gpucontext.Device { return h.device }

// Queue implements gpucontext.DeviceProvider.
func (h DeviceHandle) Queue() gpucontext.Queue { return h.queue }

// Adapter implements gpucontext.DeviceProvider.
func (h DeviceHandle) Adapter() gpucontext.Adapter { return h.adapter }
