package cardbuf

import (
	"errors"

	"github.com/gogpu/yeti"
)

// Fixed slot sizes the metadata allocator serves, in bytes.
const (
	Slot32  = 32
	Slot64  = 64
	Slot128 = 128
	Slot256 = 256
)

// ErrMetadataTooLarge is returned when a requested metadata size exceeds
// the largest configured slot.
var ErrMetadataTooLarge = errors.New("cardbuf: metadata request exceeds the largest slot size")

// ErrDoubleFree is returned when a deallocate call names an offset that is
// already on the free list, rather than silently corrupting the allocator
// by handing the same slot out twice.
var ErrDoubleFree = errors.New("cardbuf: offset is already free")

// metadataPool is a LIFO free-list pool of fixed-size slots starting at
// baseOffset within the metadata arena.
type metadataPool struct {
	slotSize   uint32
	baseOffset uint32
	slotCount  uint32
	freeSlots  []uint32 // stack of free slot indices, LIFO reuse
	nextFresh  uint32   // slots [0, nextFresh) have been handed out at least once
	isFree     []bool   // isFree[idx] tracks membership for double-free detection
}

func newMetadataPool(slotSize, baseOffset, slotCount uint32) *metadataPool {
	return &metadataPool{slotSize: slotSize, baseOffset: baseOffset, slotCount: slotCount}
}

func (p *metadataPool) allocate() (uint32, error) {
	if n := len(p.freeSlots); n > 0 {
		idx := p.freeSlots[n-1]
		p.freeSlots = p.freeSlots[:n-1]
		p.isFree[idx] = false
		return p.baseOffset + idx*p.slotSize, nil
	}
	if p.nextFresh >= p.slotCount {
		return 0, yeti.NewError(yeti.ResourceExhausted, "metadata pool exhausted")
	}
	idx := p.nextFresh
	p.nextFresh++
	p.isFree = append(p.isFree, false)
	return p.baseOffset + idx*p.slotSize, nil
}

func (p *metadataPool) deallocate(offset uint32) error {
	if offset < p.baseOffset || (offset-p.baseOffset)%p.slotSize != 0 {
		return yeti.NewError(yeti.InvalidArgument, "offset does not belong to this pool")
	}
	idx := (offset - p.baseOffset) / p.slotSize
	if idx >= p.nextFresh {
		return yeti.NewError(yeti.InvalidArgument, "offset was never allocated")
	}
	if p.isFree[idx] {
		return ErrDoubleFree
	}
	p.isFree[idx] = true
	p.freeSlots = append(p.freeSlots, idx)
	return nil
}

func (p *metadataPool) used() uint32 {
	return p.nextFresh - uint32(len(p.freeSlots))
}

// MetadataAllocator serves fixed-size slots from four sub-pools (32, 64,
// 128, 256 bytes), routing each request to the smallest pool that fits.
type MetadataAllocator struct {
	pool32, pool64, pool128, pool256 *metadataPool
	totalSize                        uint32
}

// NewMetadataAllocator lays out four contiguous sub-pools back to back,
// sized pool32Count/pool64Count/pool128Count/pool256Count slots
// respectively.
func NewMetadataAllocator(pool32Count, pool64Count, pool128Count, pool256Count uint32) *MetadataAllocator {
	var offset uint32
	p32 := newMetadataPool(Slot32, offset, pool32Count)
	offset += Slot32 * pool32Count
	p64 := newMetadataPool(Slot64, offset, pool64Count)
	offset += Slot64 * pool64Count
	p128 := newMetadataPool(Slot128, offset, pool128Count)
	offset += Slot128 * pool128Count
	p256 := newMetadataPool(Slot256, offset, pool256Count)
	offset += Slot256 * pool256Count

	return &MetadataAllocator{pool32: p32, pool64: p64, pool128: p128, pool256: p256, totalSize: offset}
}

// TotalSize returns the combined byte size of all four sub-pools.
func (a *MetadataAllocator) TotalSize() uint32 { return a.totalSize }

func (a *MetadataAllocator) findPool(size uint32) *metadataPool {
	switch {
	case size <= Slot32:
		return a.pool32
	case size <= Slot64:
		return a.pool64
	case size <= Slot128:
		return a.pool128
	case size <= Slot256:
		return a.pool256
	default:
		return nil
	}
}

func (a *MetadataAllocator) findPoolBySlotSize(slotSize uint32) *metadataPool {
	switch slotSize {
	case Slot32:
		return a.pool32
	case Slot64:
		return a.pool64
	case Slot128:
		return a.pool128
	case Slot256:
		return a.pool256
	default:
		return nil
	}
}

// Allocate returns a handle to a slot large enough for size bytes.
func (a *MetadataAllocator) Allocate(size uint32) (MetadataHandle, error) {
	if size == 0 {
		return InvalidMetadataHandle, yeti.NewError(yeti.InvalidArgument, "metadata size must be positive")
	}
	pool := a.findPool(size)
	if pool == nil {
		return InvalidMetadataHandle, ErrMetadataTooLarge
	}
	offset, err := pool.allocate()
	if err != nil {
		return InvalidMetadataHandle, err
	}
	return MetadataHandle{Offset: offset, Size: pool.slotSize}, nil
}

// Deallocate returns handle's slot to its owning pool's free list.
func (a *MetadataAllocator) Deallocate(handle MetadataHandle) error {
	if !handle.IsValid() {
		return yeti.NewError(yeti.InvalidArgument, "invalid metadata handle")
	}
	pool := a.findPoolBySlotSize(handle.Size)
	if pool == nil {
		return yeti.NewError(yeti.InvalidArgument, "handle size does not match any pool's slot size")
	}
	return pool.deallocate(handle.Offset)
}

// Used returns the total bytes currently allocated across all sub-pools.
func (a *MetadataAllocator) Used() uint32 {
	return a.pool32.used()*Slot32 +
		a.pool64.used()*Slot64 +
		a.pool128.used()*Slot128 +
		a.pool256.used()*Slot256
}
