package vm

import (
	"testing"

	"ekernel/defs"
	"ekernel/mem"
)

func newTestSpace(t *testing.T) (*MemorySpace, *mem.FrameAllocator, *mem.Arena, mem.PhysPageNum) {
	t.Helper()
	arena := mem.NewArena(4096 * defs.PageSize)
	fa := mem.NewFrameAllocator(1, 4096)
	tramp, ok := fa.Alloc(arena)
	if !ok {
		t.Fatal("alloc trampoline frame failed")
	}
	ms := NewBare(fa, arena)
	ms.MapTrampoline(tramp.PPN)
	return ms, fa, arena, tramp.PPN
}

func TestInsertFramedAreaAndUserBufferRoundTrip(t *testing.T) {
	ms, _, _, _ := newTestSpace(t)
	start := mem.VirtAddr(0x10000)
	end := start + mem.VirtAddr(3*defs.PageSize)
	ms.InsertFramedArea(start, end, mem.PTER|mem.PTEW|mem.PTEU, nil)

	ub := NewUserBuffer(ms, start, int(end-start))
	payload := make([]byte, int(end-start))
	for i := range payload {
		payload[i] = byte(i)
	}
	if n := ub.Write(payload); n != len(payload) {
		t.Fatalf("Write returned %d, want %d", n, len(payload))
	}

	got := make([]byte, len(payload))
	ub2 := NewUserBuffer(ms, start, len(payload))
	if n := ub2.Read(got); n != len(payload) {
		t.Fatalf("Read returned %d, want %d", n, len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d = %#x, want %#x", i, got[i], payload[i])
		}
	}
}

// spec.md 8: "Address space clone: for every VPN v mapped in the
// source, the clone has v mapped to a distinct frame whose bytes equal
// the source's frame bytes."
func TestCloneProducesDistinctFramesWithEqualBytes(t *testing.T) {
	ms, fa, arena, tramp := newTestSpace(t)
	start := mem.VirtAddr(0x20000)
	end := start + mem.VirtAddr(2*defs.PageSize)
	data := []byte("clone me please, across two pages of data!!")
	ms.InsertFramedArea(start, end, mem.PTER|mem.PTEW|mem.PTEU, data)

	clone := Clone(ms, fa, arena, tramp)

	for vpn := start.Floor(); vpn < end.Ceil(); vpn++ {
		srcPTE, ok := ms.Translate(vpn)
		if !ok {
			t.Fatalf("source vpn %#x not mapped", vpn)
		}
		dstPTE, ok := clone.Translate(vpn)
		if !ok {
			t.Fatalf("clone vpn %#x not mapped", vpn)
		}
		if srcPTE.PPN() == dstPTE.PPN() {
			t.Fatalf("clone vpn %#x shares frame with source", vpn)
		}
		srcBytes := arena.Page(srcPTE.PPN())
		dstBytes := arena.Page(dstPTE.PPN())
		for i := range srcBytes {
			if srcBytes[i] != dstBytes[i] {
				t.Fatalf("byte %d differs: src=%#x dst=%#x", i, srcBytes[i], dstBytes[i])
			}
		}
	}
}

func TestClearEmptiesAreasButKeepsRoot(t *testing.T) {
	ms, _, _, _ := newTestSpace(t)
	start := mem.VirtAddr(0x30000)
	end := start + mem.VirtAddr(defs.PageSize)
	ms.InsertFramedArea(start, end, mem.PTER|mem.PTEW|mem.PTEU, nil)
	root := ms.PageTable.RootPPN

	ms.Clear()

	if len(ms.Areas) != 0 {
		t.Fatalf("expected Areas to be empty after Clear, got %d", len(ms.Areas))
	}
	if ms.PageTable.RootPPN != root {
		t.Fatal("expected page-table root to survive Clear")
	}
	if _, ok := ms.Translate(start.Floor()); ok {
		t.Fatal("expected cleared area's vpn to be unmapped")
	}
}

func TestFromELFRejectsGarbage(t *testing.T) {
	fa := mem.NewFrameAllocator(1, 64)
	arena := mem.NewArena(64 * defs.PageSize)
	tramp, _ := fa.Alloc(arena)
	if _, _, _, err := FromELF(fa, arena, tramp.PPN, []byte("not an elf file")); err == nil {
		t.Fatal("expected error parsing non-ELF data")
	}
}
