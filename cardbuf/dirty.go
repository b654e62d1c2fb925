package cardbuf

import "sort"

// DefaultMaxGap is the default byte gap below which two dirty ranges are
// coalesced into one GPU upload, trading a few wasted bytes of re-upload
// for fewer, larger writeBuffer calls.
const DefaultMaxGap = 64

// UseDefaultMaxGap tells CoalescedRanges to use DefaultMaxGap. It is a
// distinct sentinel from 0 so a caller benchmarking fragmentation can
// still request true adjacent-only coalescing (maxGap == 0) instead of
// always falling back to the default.
const UseDefaultMaxGap = ^uint32(0)

// dirtyRange is a half-open [Start, End) byte range.
type dirtyRange struct {
	start, end uint32
}

// DirtyTracker accumulates byte ranges written on the CPU side since the
// last flush and coalesces them into a minimal set of upload spans.
type DirtyTracker struct {
	ranges []dirtyRange
}

// MarkDirty records that [offset, offset+size) has been written.
func (t *DirtyTracker) MarkDirty(offset, size uint32) {
	if size == 0 {
		return
	}
	t.ranges = append(t.ranges, dirtyRange{start: offset, end: offset + size})
}

// HasDirty reports whether any range is pending.
func (t *DirtyTracker) HasDirty() bool { return len(t.ranges) > 0 }

// Clear discards all pending ranges, called after a successful flush.
func (t *DirtyTracker) Clear() { t.ranges = nil }

// CoalescedRanges merges overlapping and near-adjacent (within maxGap
// bytes) ranges, sorted by start offset, returning the minimal set of
// [offset, size) spans to upload. Pass UseDefaultMaxGap for DefaultMaxGap;
// maxGap of 0 coalesces only overlapping or directly adjacent ranges.
func (t *DirtyTracker) CoalescedRanges(maxGap uint32) []Range {
	if maxGap == UseDefaultMaxGap {
		maxGap = DefaultMaxGap
	}
	if len(t.ranges) == 0 {
		return nil
	}
	sorted := append([]dirtyRange(nil), t.ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })

	merged := []dirtyRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end+maxGap {
			if r.end > last.end {
				last.end = r.end
			}
			continue
		}
		merged = append(merged, r)
	}

	out := make([]Range, len(merged))
	for i, r := range merged {
		out[i] = Range{Offset: r.start, Size: r.end - r.start}
	}
	return out
}

// Range is a coalesced [Offset, Offset+Size) upload span.
type Range struct {
	Offset uint32
	Size   uint32
}
