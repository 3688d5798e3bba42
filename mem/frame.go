package mem

import "fmt"

// FrameAllocator is the single-HART stack allocator of spec.md 4.1,
// ported from original_source/kernel/src/memory/frame_allocator.rs's
// StackFrameAllocator. It owns the half-open PPN range [start, current)
// plus [current, end) unallocated, and a LIFO stack of recycled PPNs.
type FrameAllocator struct {
	current  PhysPageNum
	end      PhysPageNum
	recycled []PhysPageNum
}

// NewFrameAllocator creates an allocator over the half-open PPN range
// [start, end).
func NewFrameAllocator(start, end PhysPageNum) *FrameAllocator {
	return &FrameAllocator{current: start, end: end}
}

// alloc pops a free PPN, preferring the recycle stack (LIFO) over the
// bump pointer. It returns (0, false) when exhausted.
func (f *FrameAllocator) alloc() (PhysPageNum, bool) {
	if n := len(f.recycled); n > 0 {
		ppn := f.recycled[n-1]
		f.recycled = f.recycled[:n-1]
		return ppn, true
	}
	if f.current == f.end {
		return 0, false
	}
	ppn := f.current
	f.current++
	return ppn, true
}

// dealloc returns ppn to the recycle stack. It panics on a double-free:
// ppn at or above current, or already present in the recycle stack.
func (f *FrameAllocator) dealloc(ppn PhysPageNum) {
	if ppn >= f.current {
		panic(fmt.Sprintf("frame ppn=%#x has not been allocated", ppn))
	}
	for _, r := range f.recycled {
		if r == ppn {
			panic(fmt.Sprintf("frame ppn=%#x already deallocated", ppn))
		}
	}
	f.recycled = append(f.recycled, ppn)
}

// FrameTracker owns exactly one allocated frame (spec.md 3's "Frame
// Tracker") and zero-initializes it on allocation, matching the
// teacher's refcounted Refpg_new (which likewise zeroes new pages)
// simplified to the spec's single-owner model. Call Drop exactly once
// when the frame is no longer needed; there is no finalizer, because
// relying on the Go garbage collector to return physical pages on time
// would violate spec.md's exactly-one-owner invariant.
type FrameTracker struct {
	PPN     PhysPageNum
	alloc   *FrameAllocator
	dropped bool
}

// Alloc allocates a zero-filled frame, or returns (nil, false) when the
// allocator is exhausted (spec.md 7: "frame-allocator exhaustion
// currently panics; implementations should surface this as -1" — here
// callers decide, since Alloc itself must be usable from contexts, like
// boot, where panicking is correct).
func (f *FrameAllocator) Alloc(arena *Arena) (*FrameTracker, bool) {
	ppn, ok := f.alloc()
	if !ok {
		return nil, false
	}
	page := arena.Page(ppn)
	for i := range page {
		page[i] = 0
	}
	return &FrameTracker{PPN: ppn, alloc: f}, true
}

// Drop returns the frame to its allocator's recycle stack. It panics if
// called twice on the same tracker.
func (t *FrameTracker) Drop() {
	if t.dropped {
		panic("double drop of FrameTracker")
	}
	t.dropped = true
	t.alloc.dealloc(t.PPN)
}

// Bytes returns the 4 KiB slice backing this frame.
func (t *FrameTracker) Bytes(arena *Arena) []byte {
	return arena.Page(t.PPN)
}
