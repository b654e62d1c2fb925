package cardbuf

import "github.com/gogpu/yeti"

// imageDataAllocator is a linear bump allocator for decoded image/video
// frame bytes. Individual regions are never freed — the arena is reset in
// one shot (reset, exposed as CardBufferManager.ResetImageData) when its owning card's widget is torn down, since image
// payloads are write-once per frame and never partially reused.
type imageDataAllocator struct {
	capacity uint32
	offset   uint32
}

func newImageDataAllocator(capacity uint32) *imageDataAllocator {
	return &imageDataAllocator{capacity: capacity}
}

func (a *imageDataAllocator) allocate(size uint32) (ImageDataHandle, error) {
	if size == 0 {
		return ImageDataHandle{}, yeti.NewError(yeti.InvalidArgument, "image data size must be positive")
	}
	if a.offset+size > a.capacity {
		return ImageDataHandle{}, yeti.NewError(yeti.ResourceExhausted, "image data arena exhausted")
	}
	h := ImageDataHandle{Offset: a.offset, Size: size}
	a.offset += size
	return h, nil
}

func (a *imageDataAllocator) used() uint32 { return a.offset }

func (a *imageDataAllocator) reset() { a.offset = 0 }
