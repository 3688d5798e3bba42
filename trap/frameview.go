package trap

import (
	"unsafe"

	"ekernel/mem"
)

// FrameAt returns a live pointer to the TrapFrame resident in physical
// page ppn, reinterpreting the arena page's bytes in place rather than
// marshaling into a separate struct — the trap frame's true home for
// this hosted simulation is the mapped physical page, not a Go-heap
// struct, matching spec.md 4.4's "resolve the trap-frame PPN via
// translation of TRAP_FRAME".
func FrameAt(arena *mem.Arena, ppn mem.PhysPageNum) *TrapFrame {
	page := arena.Page(ppn)
	return (*TrapFrame)(unsafe.Pointer(&page[0]))
}
