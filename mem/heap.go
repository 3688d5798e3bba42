package mem

import "ekernel/defs"

// HeapStats describes the statically-sized kernel heap region of
// spec.md 4.1 ("a buddy-style allocator initialized at boot, used for
// all kernel-side dynamic containers"). A hosted Go process already has
// a real garbage-collected heap, so there is nothing to allocate here;
// this type exists so boot can report the modeled heap size the way the
// teacher's mem package reports dmap/kpages bookkeeping at init time.
type HeapStats struct {
	SizeBytes int
}

// InitHeap returns the heap stats for the fixed-size kernel heap region.
// Grounded on original_source/kernel/src/memory.rs's init_heap, which
// hands a static HEAP_SPACE array to buddy_system_allocator::LockedHeap.
func InitHeap() HeapStats {
	return HeapStats{SizeBytes: defs.KernelHeapSize}
}
