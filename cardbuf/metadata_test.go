package cardbuf

import "testing"

func TestMetadataAllocatorRoutesToSmallestFittingPool(t *testing.T) {
	a := NewMetadataAllocator(4, 4, 4, 4)

	cases := []struct {
		request  uint32
		wantSlot uint32
	}{
		{1, Slot32},
		{32, Slot32},
		{33, Slot64},
		{128, Slot128},
		{200, Slot256},
	}
	for _, c := range cases {
		h, err := a.Allocate(c.request)
		if err != nil {
			t.Fatalf("Allocate(%d): %v", c.request, err)
		}
		if h.Size != c.wantSlot {
			t.Fatalf("Allocate(%d) slot = %d, want %d", c.request, h.Size, c.wantSlot)
		}
	}
}

func TestMetadataAllocatorTooLarge(t *testing.T) {
	a := NewMetadataAllocator(1, 1, 1, 1)
	if _, err := a.Allocate(257); err != ErrMetadataTooLarge {
		t.Fatalf("got %v, want ErrMetadataTooLarge", err)
	}
}

func TestMetadataAllocatorExhaustionAndReuse(t *testing.T) {
	a := NewMetadataAllocator(2, 0, 0, 0)

	h1, err := a.Allocate(32)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := a.Allocate(32)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Allocate(32); err == nil {
		t.Fatal("expected ResourceExhausted on the third 32-byte allocation")
	}

	if err := a.Deallocate(h1); err != nil {
		t.Fatal(err)
	}
	h3, err := a.Allocate(32)
	if err != nil {
		t.Fatalf("expected reuse of freed slot: %v", err)
	}
	if h3.Offset != h1.Offset {
		t.Fatalf("LIFO reuse should return the most recently freed slot first")
	}
	_ = h2
}

func TestMetadataAllocatorUsedTracksLiveBytes(t *testing.T) {
	a := NewMetadataAllocator(4, 0, 0, 0)
	if a.Used() != 0 {
		t.Fatalf("fresh allocator should report 0 used bytes")
	}
	h, _ := a.Allocate(32)
	if a.Used() != Slot32 {
		t.Fatalf("Used() = %d, want %d", a.Used(), uint32(Slot32))
	}
	a.Deallocate(h)
	if a.Used() != 0 {
		t.Fatalf("Used() after deallocate = %d, want 0", a.Used())
	}
}

func TestMetadataDeallocateDetectsDoubleFree(t *testing.T) {
	a := NewMetadataAllocator(2, 0, 0, 0)
	h, err := a.Allocate(32)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Deallocate(h); err != nil {
		t.Fatal(err)
	}
	if err := a.Deallocate(h); err != ErrDoubleFree {
		t.Fatalf("second Deallocate of the same handle = %v, want ErrDoubleFree", err)
	}
}

func TestMetadataDeallocateRejectsForeignOffset(t *testing.T) {
	a := NewMetadataAllocator(2, 2, 0, 0)
	bogus := MetadataHandle{Offset: 9999, Size: Slot32}
	if err := a.Deallocate(bogus); err == nil {
		t.Fatal("expected error deallocating an offset that was never allocated")
	}
}
