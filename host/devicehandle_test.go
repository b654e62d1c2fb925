package host

import (
	"testing"

	"github.com/gogpu/gpucontext"
)

func TestDeviceHandleSatisfiesDeviceProvider(t *testing.T) {
	var h DeviceHandle
	var _ gpucontext.DeviceProvider = h
}

func TestDeviceHandleMethodsReturnTheWrappedIDs(t *testing.T) {
	h := DeviceHandle{}
	if h.Device() != h.device {
		t.Fatal("Device() should return the wrapped device ID")
	}
	if h.Queue() != h.queue {
		t.Fatal("Queue() should return the wrapped queue ID")
	}
	if h.Adapter() != h.adapter {
		t.Fatal("Adapter() should return the wrapped adapter ID")
	}
}
