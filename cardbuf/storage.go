package cardbuf

import (
	"sort"

	"github.com/gogpu/yeti"
)

type freeBlock struct {
	offset uint32
	size   uint32
}

// StorageAllocator is a first-fit free-list allocator over a fixed-size
// arena, used for the variable-length payloads (plot series, image rows,
// rich-text spans) that don't fit the metadata pool's fixed slots.
// Adjacent free blocks are coalesced on every deallocation so long-running
// sessions don't fragment the arena into unusably small gaps.
type StorageAllocator struct {
	capacity   uint32
	used       uint32
	freeBlocks []freeBlock // sorted by offset
}

// NewStorageAllocator creates an allocator over a capacity-byte arena.
func NewStorageAllocator(capacity uint32) *StorageAllocator {
	a := &StorageAllocator{capacity: capacity}
	if capacity > 0 {
		a.freeBlocks = []freeBlock{{offset: 0, size: capacity}}
	}
	return a
}

// Capacity returns the arena's total size in bytes.
func (a *StorageAllocator) Capacity() uint32 { return a.capacity }

// Used returns the number of bytes currently allocated.
func (a *StorageAllocator) Used() uint32 { return a.used }

// FragmentCount returns the number of distinct free blocks, a proxy for
// fragmentation.
func (a *StorageAllocator) FragmentCount() int { return len(a.freeBlocks) }

// Allocate finds the first free block large enough for size bytes, splits
// off the remainder back into the free list, and returns a handle to the
// allocated prefix.
func (a *StorageAllocator) Allocate(size uint32) (StorageHandle, error) {
	if size == 0 {
		return InvalidStorageHandle, yeti.NewError(yeti.InvalidArgument, "storage size must be positive")
	}
	for i, b := range a.freeBlocks {
		if b.size < size {
			continue
		}
		if b.size == size {
			a.freeBlocks = append(a.freeBlocks[:i], a.freeBlocks[i+1:]...)
		} else {
			a.freeBlocks[i] = freeBlock{offset: b.offset + size, size: b.size - size}
		}
		a.used += size
		return StorageHandle{Offset: b.offset, Size: size}, nil
	}
	return InvalidStorageHandle, yeti.NewError(yeti.ResourceExhausted, "storage arena has no block large enough")
}

// Deallocate returns handle's block to the free list and coalesces it
// with any adjacent free neighbors. Returns ErrDoubleFree, without
// touching any state, if handle's range already overlaps an existing free
// block.
func (a *StorageAllocator) Deallocate(handle StorageHandle) error {
	if !handle.IsValid() {
		return yeti.NewError(yeti.InvalidArgument, "invalid storage handle")
	}
	if handle.Offset+handle.Size > a.capacity {
		return yeti.NewError(yeti.InvalidArgument, "handle lies outside the storage arena")
	}
	for _, b := range a.freeBlocks {
		if b.offset < handle.Offset+handle.Size && handle.Offset < b.offset+b.size {
			return ErrDoubleFree
		}
	}
	a.freeBlocks = append(a.freeBlocks, freeBlock{offset: handle.Offset, size: handle.Size})
	a.used -= handle.Size
	a.mergeFreeBlocks()
	return nil
}

func (a *StorageAllocator) mergeFreeBlocks() {
	sort.Slice(a.freeBlocks, func(i, j int) bool { return a.freeBlocks[i].offset < a.freeBlocks[j].offset })
	merged := a.freeBlocks[:0]
	for _, b := range a.freeBlocks {
		if n := len(merged); n > 0 && merged[n-1].offset+merged[n-1].size == b.offset {
			merged[n-1].size += b.size
			continue
		}
		merged = append(merged, b)
	}
	a.freeBlocks = merged
}
