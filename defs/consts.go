package defs

// Page geometry and memory-map constants, ported from
// original_source/kernel/src/config.rs. All addresses are in the 39-bit
// Sv39 virtual address space unless noted.
const (
	PageSize     = 0x1000 // 4 KiB
	PageSizeBits = 12

	// KernelHeapSize is the size of the statically-sized kernel heap
	// region used by all kernel-side dynamic containers (spec.md 4.1).
	KernelHeapSize = 8 * 1024 * 1024

	// MemoryEnd is the highest physical address managed by the frame
	// allocator (exclusive).
	MemoryEnd = 0x8800_0000

	UserStackSize   = PageSize * 2
	KernelStackSize = PageSize * 2

	ClockFreq    = 12_500_000
	TicksPerSec  = 100
	TimerTickLen = ClockFreq / TicksPerSec
)

// Trampoline is the fixed virtual address of the identity-mapped
// trampoline code page: the top page of the 64-bit address space.
const Trampoline = ^uint64(0) - PageSize + 1

// TrapFrame is the fixed virtual address of a process's trap frame: the
// page immediately below the trampoline.
const TrapFrame = Trampoline - PageSize

// VirtAddrWidth / PhysAddrWidth are the Sv39 address widths.
const (
	VirtAddrWidth = 39
	PhysAddrWidth = 56
	VPNWidth      = VirtAddrWidth - PageSizeBits // 27, 9 bits per level
	PPNWidth      = PhysAddrWidth - PageSizeBits // 44
)
