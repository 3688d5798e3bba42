package mem

import (
	"testing"

	"ekernel/defs"
)

// Mirrors original_source's embedded frame_allocator_test: alloc 5,
// drop them, alloc 5 more, and check the recycle stack is LIFO.
func TestFrameAllocatorRecycleIsLIFO(t *testing.T) {
	arena := NewArena(64 * defs.PageSize)
	fa := NewFrameAllocator(0, 64)

	var first []*FrameTracker
	for i := 0; i < 5; i++ {
		tr, ok := fa.Alloc(arena)
		if !ok {
			t.Fatalf("alloc %d failed", i)
		}
		first = append(first, tr)
	}

	var ppns []PhysPageNum
	for i := len(first) - 1; i >= 0; i-- {
		ppns = append(ppns, first[i].PPN)
		first[i].Drop()
	}

	for i := 0; i < 5; i++ {
		tr, ok := fa.Alloc(arena)
		if !ok {
			t.Fatalf("realloc %d failed", i)
		}
		want := ppns[len(ppns)-1-i]
		if tr.PPN != want {
			t.Fatalf("realloc %d = ppn %#x, want %#x (LIFO order)", i, tr.PPN, want)
		}
	}
}

func TestFrameAllocatorExhaustion(t *testing.T) {
	arena := NewArena(2 * defs.PageSize)
	fa := NewFrameAllocator(0, 2)
	if _, ok := fa.Alloc(arena); !ok {
		t.Fatal("expected first alloc to succeed")
	}
	if _, ok := fa.Alloc(arena); !ok {
		t.Fatal("expected second alloc to succeed")
	}
	if _, ok := fa.Alloc(arena); ok {
		t.Fatal("expected allocator to be exhausted")
	}
}

func TestFrameAllocatorDoubleDropPanics(t *testing.T) {
	arena := NewArena(4 * defs.PageSize)
	fa := NewFrameAllocator(0, 4)
	tr, _ := fa.Alloc(arena)
	tr.Drop()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double drop")
		}
	}()
	tr.Drop()
}

func TestFrameZeroedOnAlloc(t *testing.T) {
	arena := NewArena(2 * defs.PageSize)
	fa := NewFrameAllocator(0, 2)
	tr, _ := fa.Alloc(arena)
	page := tr.Bytes(arena)
	for i := range page {
		page[i] = 0xAB
	}
	tr.Drop()
	tr2, _ := fa.Alloc(arena)
	if tr2.PPN != tr.PPN {
		t.Fatalf("expected to reuse recycled ppn")
	}
	page2 := tr2.Bytes(arena)
	for i, b := range page2 {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %#x", i, b)
		}
	}
}
