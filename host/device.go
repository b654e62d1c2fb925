package host

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"

	"github.com/gogpu/yeti"
)

// acquireDevice requests an adapter, creates a logical device from it,
// and retrieves its queue — the same Instance → Adapter → Device → Queue
// sequence as the teacher's NativeBackend.Init, logging the chosen
// adapter's identity instead of discarding it.
func acquireDevice(instance *core.Instance, opts *gputypes.RequestAdapterOptions, label string) (core.AdapterID, core.DeviceID, core.QueueID, error) {
	adapterID, err := instance.RequestAdapter(opts)
	if err != nil {
		return core.AdapterID{}, core.DeviceID{}, core.QueueID{}, yeti.WrapError(yeti.GpuFailure, "failed to request adapter", err)
	}

	if info, infoErr := NewGPUInfo(adapterID); infoErr == nil {
		yeti.Logger().Info("gpu adapter acquired", "name", info.Name, "backend", info.Backend, "driver", info.Driver)
	}

	deviceID, err := createDevice(adapterID, label)
	if err != nil {
		_ = releaseAdapter(adapterID)
		return core.AdapterID{}, core.DeviceID{}, core.QueueID{}, err
	}

	queueID, err := getDeviceQueue(deviceID)
	if err != nil {
		_ = releaseDevice(deviceID)
		_ = releaseAdapter(adapterID)
		return core.AdapterID{}, core.DeviceID{}, core.QueueID{}, err
	}

	return adapterID, deviceID, queueID, nil
}

// createDevice creates a logical device from adapterID with default
// limits and no optional features.
func createDevice(adapterID core.AdapterID, label string) (core.DeviceID, error) {
	desc := &types.DeviceDescriptor{
		Label:            label,
		RequiredFeatures: nil,
		RequiredLimits:   types.DefaultLimits(),
	}
	deviceID, err := core.RequestDevice(adapterID, desc)
	if err != nil {
		return core.DeviceID{}, yeti.WrapError(yeti.GpuFailure, "failed to create device", err)
	}
	return deviceID, nil
}

// getDeviceQueue retrieves the queue backing deviceID.
func getDeviceQueue(deviceID core.DeviceID) (core.QueueID, error) {
	queueID, err := core.GetDeviceQueue(deviceID)
	if err != nil {
		return core.QueueID{}, yeti.WrapError(yeti.GpuFailure, "failed to get device queue", err)
	}
	return queueID, nil
}

// releaseDevice drops deviceID. Safe to call with a zero ID.
func releaseDevice(deviceID core.DeviceID) error {
	if deviceID.IsZero() {
		return nil
	}
	if err := core.DeviceDrop(deviceID); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to release device", err)
	}
	return nil
}

// releaseAdapter drops adapterID. Safe to call with a zero ID.
func releaseAdapter(adapterID core.AdapterID) error {
	if adapterID.IsZero() {
		return nil
	}
	if err := core.AdapterDrop(adapterID); err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to release adapter", err)
	}
	return nil
}
