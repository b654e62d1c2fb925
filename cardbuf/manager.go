package cardbuf

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/core"
	"github.com/gogpu/wgpu/types"
	"github.com/gogpu/yeti"
)

// Config tunes the sub-pool and arena sizes a CardBufferManager allocates
// up front. The zero Config is not usable; use DefaultConfig.
type Config struct {
	MetadataPool32Count  uint32
	MetadataPool64Count  uint32
	MetadataPool128Count uint32
	MetadataPool256Count uint32
	StorageCapacity      uint32
	ImageDataCapacity    uint32
}

// DefaultConfig mirrors the original desktop client's tuning: generous
// headroom for small per-cell metadata records and a 16 MiB storage arena
// shared by every widget's variable-length payloads.
func DefaultConfig() Config {
	return Config{
		MetadataPool32Count:  256,
		MetadataPool64Count:  128,
		MetadataPool128Count: 64,
		MetadataPool256Count: 32,
		StorageCapacity:      16 * 1024 * 1024,
		ImageDataCapacity:    64 * 1024 * 1024,
	}
}

// Stats summarizes a CardBufferManager's current allocation pressure, for
// diagnostics and tests.
type Stats struct {
	MetadataUsed              uint32
	MetadataCapacity          uint32
	StorageUsed               uint32
	StorageCapacity           uint32
	PendingMetadataUploads    int
	PendingStorageUploads     int
	ImageDataUsed             uint32
	ImageDataCapacity         uint32
}

// CardBufferManager owns the CPU-side mirror and GPU buffers backing every
// widget's card metadata and variable-size storage. Callers write through
// Write*/WriteStorage* and call Flush once per frame to push the dirty
// ranges to the device.
type CardBufferManager struct {
	device core.DeviceID
	config Config

	// Strict controls double-free handling: false (the default) logs the
	// offending double-free via yeti.Logger() and ignores it, matching a
	// C++ release build; true panics, matching a C++ debug build's abort.
	Strict bool

	metadataCPU []byte
	storageCPU  []byte

	metadataGPU core.BufferID
	storageGPU  core.BufferID

	metadataAlloc *MetadataAllocator
	storageAlloc  *StorageAllocator
	imageAlloc    *imageDataAllocator

	metadataDirty DirtyTracker
	storageDirty  DirtyTracker
}

// New allocates CPU mirrors and GPU buffers sized per config and returns a
// ready-to-use manager.
func New(device core.DeviceID, config Config) (*CardBufferManager, error) {
	m := &CardBufferManager{device: device, config: config}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *CardBufferManager) init() error {
	m.metadataAlloc = NewMetadataAllocator(
		m.config.MetadataPool32Count,
		m.config.MetadataPool64Count,
		m.config.MetadataPool128Count,
		m.config.MetadataPool256Count,
	)
	m.storageAlloc = NewStorageAllocator(m.config.StorageCapacity)
	m.imageAlloc = newImageDataAllocator(m.config.ImageDataCapacity)

	m.metadataCPU = make([]byte, m.metadataAlloc.TotalSize())
	m.storageCPU = make([]byte, m.config.StorageCapacity)

	return m.createGPUBuffers()
}

func (m *CardBufferManager) createGPUBuffers() error {
	metaDesc := &types.BufferDescriptor{
		Label:            "cardbuf.metadata",
		Size:             uint64(len(m.metadataCPU)),
		Usage:            types.BufferUsageStorage | types.BufferUsageCopyDst,
		MappedAtCreation: false,
	}
	metaBuf, err := core.CreateBuffer(m.device, metaDesc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create metadata buffer", err)
	}
	m.metadataGPU = metaBuf

	storageDesc := &types.BufferDescriptor{
		Label:            "cardbuf.storage",
		Size:             uint64(len(m.storageCPU)),
		Usage:            types.BufferUsageStorage | types.BufferUsageCopyDst,
		MappedAtCreation: false,
	}
	storageBuf, err := core.CreateBuffer(m.device, storageDesc)
	if err != nil {
		return yeti.WrapError(yeti.GpuFailure, "failed to create storage buffer", err)
	}
	m.storageGPU = storageBuf

	return nil
}

// MetadataBuffer returns the GPU-resident metadata buffer handle.
func (m *CardBufferManager) MetadataBuffer() core.BufferID { return m.metadataGPU }

// StorageBuffer returns the GPU-resident storage buffer handle.
func (m *CardBufferManager) StorageBuffer() core.BufferID { return m.storageGPU }

// AllocateMetadata reserves a fixed-size slot and returns its handle.
func (m *CardBufferManager) AllocateMetadata(size uint32) (MetadataHandle, error) {
	return m.metadataAlloc.Allocate(size)
}

// DeallocateMetadata releases handle back to its sub-pool. A double-free
// is reported rather than silently merged: see handleDoubleFree.
func (m *CardBufferManager) DeallocateMetadata(handle MetadataHandle) error {
	return m.handleDoubleFree(m.metadataAlloc.Deallocate(handle))
}

// WriteMetadata overwrites handle's entire slot with data and marks it
// dirty for the next flush.
func (m *CardBufferManager) WriteMetadata(handle MetadataHandle, data []byte) error {
	return m.WriteMetadataAt(handle, 0, data)
}

// WriteMetadataAt overwrites data at offset bytes into handle's slot.
func (m *CardBufferManager) WriteMetadataAt(handle MetadataHandle, offset uint32, data []byte) error {
	if !handle.IsValid() {
		return yeti.NewError(yeti.InvalidArgument, "invalid metadata handle")
	}
	if offset+uint32(len(data)) > handle.Size {
		return yeti.NewError(yeti.InvalidArgument, "write exceeds slot bounds")
	}
	copy(m.metadataCPU[handle.Offset+offset:], data)
	m.metadataDirty.MarkDirty(handle.Offset+offset, uint32(len(data)))
	return nil
}

// AllocateStorage reserves size bytes from the variable-size arena.
func (m *CardBufferManager) AllocateStorage(size uint32) (StorageHandle, error) {
	return m.storageAlloc.Allocate(size)
}

// DeallocateStorage returns handle's block to the free list. A
// double-free is reported rather than silently merged: see
// handleDoubleFree.
func (m *CardBufferManager) DeallocateStorage(handle StorageHandle) error {
	return m.handleDoubleFree(m.storageAlloc.Deallocate(handle))
}

// handleDoubleFree lets ordinary allocator errors through unchanged. An
// ErrDoubleFree is always logged; under Strict it then panics (mirroring a
// C++ debug build's abort on a corrupt free list), otherwise it is
// swallowed so a caller that double-frees in production keeps running.
func (m *CardBufferManager) handleDoubleFree(err error) error {
	if !errors.Is(err, ErrDoubleFree) {
		return err
	}
	yeti.Logger().Warn("cardbuf: double-free detected", "error", err)
	if m.Strict {
		panic(err)
	}
	return nil
}

// WriteStorage overwrites handle's entire block with data and marks it
// dirty for the next flush.
func (m *CardBufferManager) WriteStorage(handle StorageHandle, data []byte) error {
	return m.WriteStorageAt(handle, 0, data)
}

// WriteStorageAt overwrites data at offset bytes into handle's block.
func (m *CardBufferManager) WriteStorageAt(handle StorageHandle, offset uint32, data []byte) error {
	if !handle.IsValid() {
		return yeti.NewError(yeti.InvalidArgument, "invalid storage handle")
	}
	if offset+uint32(len(data)) > handle.Size {
		return yeti.NewError(yeti.InvalidArgument, "write exceeds block bounds")
	}
	copy(m.storageCPU[handle.Offset+offset:], data)
	m.storageDirty.MarkDirty(handle.Offset+offset, uint32(len(data)))
	return nil
}

// AllocateStorageAndLink allocates storageSize bytes of storage and writes
// the resulting block's offset as a little-endian uint32 into the
// metadata slot metaHandle at metaFieldOffset — the standard way a card's
// fixed-size metadata record points at its variable-size payload.
func (m *CardBufferManager) AllocateStorageAndLink(metaHandle MetadataHandle, metaFieldOffset uint32, storageSize uint32) (StorageHandle, error) {
	handle, err := m.storageAlloc.Allocate(storageSize)
	if err != nil {
		return InvalidStorageHandle, err
	}
	var buf [4]byte
	putUint32LE(buf[:], handle.Offset)
	if err := m.WriteMetadataAt(metaHandle, metaFieldOffset, buf[:]); err != nil {
		_ = m.storageAlloc.Deallocate(handle)
		return InvalidStorageHandle, err
	}
	return handle, nil
}

// AllocateImageData reserves size bytes from the linear image-data arena.
func (m *CardBufferManager) AllocateImageData(size uint32) (ImageDataHandle, error) {
	return m.imageAlloc.allocate(size)
}

// ResetImageData discards every image-data allocation at once, reused
// when a widget holding decoded image/video frames is torn down.
func (m *CardBufferManager) ResetImageData() { m.imageAlloc.reset() }

// Flush uploads every coalesced dirty range to the GPU buffers via queue
// and clears the dirty trackers. Calling Flush with nothing dirty is a
// no-op, so per-frame callers can call it unconditionally.
func (m *CardBufferManager) Flush(queue core.QueueID) error {
	for _, r := range m.metadataDirty.CoalescedRanges(DefaultMaxGap) {
		if err := core.WriteBuffer(queue, m.metadataGPU, uint64(r.Offset), m.metadataCPU[r.Offset:r.Offset+r.Size]); err != nil {
			return yeti.WrapError(yeti.GpuFailure, fmt.Sprintf("metadata upload at offset %d failed", r.Offset), err)
		}
	}
	for _, r := range m.storageDirty.CoalescedRanges(DefaultMaxGap) {
		if err := core.WriteBuffer(queue, m.storageGPU, uint64(r.Offset), m.storageCPU[r.Offset:r.Offset+r.Size]); err != nil {
			return yeti.WrapError(yeti.GpuFailure, fmt.Sprintf("storage upload at offset %d failed", r.Offset), err)
		}
	}
	m.metadataDirty.Clear()
	m.storageDirty.Clear()
	return nil
}

// GetStats reports current allocation pressure across every sub-allocator.
func (m *CardBufferManager) GetStats() Stats {
	return Stats{
		MetadataUsed:           m.metadataAlloc.Used(),
		MetadataCapacity:       m.metadataAlloc.TotalSize(),
		StorageUsed:            m.storageAlloc.Used(),
		StorageCapacity:        m.storageAlloc.Capacity(),
		PendingMetadataUploads: len(m.metadataDirty.CoalescedRanges(DefaultMaxGap)),
		PendingStorageUploads:  len(m.storageDirty.CoalescedRanges(DefaultMaxGap)),
		ImageDataUsed:          m.imageAlloc.used(),
		ImageDataCapacity:      m.config.ImageDataCapacity,
	}
}

func putUint32LE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
