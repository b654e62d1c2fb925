// Package cardbuf implements the two-tier GPU buffer allocator backing
// widget card storage: a fixed-size metadata pool (four sub-pools sized
// 32/64/128/256 bytes), a variable-size storage free-list allocator, a
// linear image-data bump allocator, and a dirty-range tracker that
// coalesces writes before a GPU upload flush.
package cardbuf

// MetadataHandle addresses a fixed-size slot inside the metadata pool.
type MetadataHandle struct {
	Offset uint32
	Size   uint32
}

// IsValid reports whether h refers to an allocated slot.
func (h MetadataHandle) IsValid() bool { return h.Size > 0 }

// InvalidMetadataHandle is the zero-value sentinel returned on allocation
// failure.
var InvalidMetadataHandle = MetadataHandle{}

// StorageHandle addresses a variable-size block inside the storage arena.
type StorageHandle struct {
	Offset uint32
	Size   uint32
}

// IsValid reports whether h refers to an allocated block.
func (h StorageHandle) IsValid() bool { return h.Size > 0 }

// InvalidStorageHandle is the zero-value sentinel returned on allocation
// failure.
var InvalidStorageHandle = StorageHandle{}

// ImageDataHandle addresses a region inside the linear image-data arena.
// Unlike Metadata/StorageHandle, image data is never freed individually —
// the whole arena resets when its owning card is released — so it carries
// no deallocate path.
type ImageDataHandle struct {
	Offset uint32
	Size   uint32
}

// IsValid reports whether h refers to an allocated region.
func (h ImageDataHandle) IsValid() bool { return h.Size > 0 }
