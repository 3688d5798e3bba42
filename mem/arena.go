package mem

import (
	"fmt"

	"ekernel/defs"
)

// Arena is this repo's stand-in for physical RAM: a flat byte slice
// addressed by PhysAddr, covering [0, defs.MemoryEnd). There is no real
// MMU backing a hosted Go process (see SPEC_FULL.md 1.1), so every
// "physical access" in vm and fs ultimately reads or writes through this
// arena instead of dereferencing a raw pointer the way the teacher's
// mem.Dmaplen does via the direct map.
type Arena struct {
	bytes []byte
}

// NewArena allocates an arena of size bytes, zero-initialized.
func NewArena(size int) *Arena {
	return &Arena{bytes: make([]byte, size)}
}

// Page returns a mutable 4 KiB slice backing ppn. It panics if ppn is
// out of range, mirroring the teacher's Dmaplen bounds panics.
func (a *Arena) Page(ppn PhysPageNum) []byte {
	start := int(ppn) * defs.PageSize
	end := start + defs.PageSize
	if start < 0 || end > len(a.bytes) {
		panic(fmt.Sprintf("ppn %#x out of arena bounds", ppn))
	}
	return a.bytes[start:end]
}

// Bytes returns an n-byte slice at the given physical address.
func (a *Arena) Bytes(addr PhysAddr, n int) []byte {
	start := int(addr)
	end := start + n
	if start < 0 || n < 0 || end > len(a.bytes) {
		panic(fmt.Sprintf("addr %#x..%#x out of arena bounds", start, end))
	}
	return a.bytes[start:end]
}

// Len returns the arena's total size in bytes.
func (a *Arena) Len() int {
	return len(a.bytes)
}
