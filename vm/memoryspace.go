// Package vm implements per-process address spaces (spec.md 4.3): the
// kernel space, ELF-loaded user spaces, and fork's deep-copy clone. It
// is the RISC-V64 Sv39 analogue of the teacher's vm package (Vm_t), cut
// down to spec.md's non-goals (no COW, no demand paging, no mmap).
package vm

import (
	"bytes"
	"debug/elf"
	"fmt"

	"ekernel/defs"
	"ekernel/mem"
)

// AreaKind is a Map Area's mapping strategy (spec.md 3).
type AreaKind int

const (
	Identical AreaKind = iota
	Framed
)

// MapArea is a contiguous VPN range with a mapping kind and permission
// bits. Framed areas own one FrameTracker per VPN in range.
type MapArea struct {
	StartVPN mem.VirtPageNum
	EndVPN   mem.VirtPageNum
	Kind     AreaKind
	Perm     mem.PTEFlags
	frames   map[mem.VirtPageNum]*mem.FrameTracker
}

func newMapArea(start, end mem.VirtAddr, kind AreaKind, perm mem.PTEFlags) *MapArea {
	return &MapArea{
		StartVPN: start.Floor(),
		EndVPN:   end.Ceil(),
		Kind:     kind,
		Perm:     perm,
		frames:   make(map[mem.VirtPageNum]*mem.FrameTracker),
	}
}

func (a *MapArea) mapOne(pt *mem.PageTable, fa *mem.FrameAllocator, arena *mem.Arena, vpn mem.VirtPageNum) {
	var ppn mem.PhysPageNum
	switch a.Kind {
	case Identical:
		ppn = mem.PhysPageNum(vpn)
	case Framed:
		frame, ok := fa.Alloc(arena)
		if !ok {
			panic("oom mapping framed area")
		}
		a.frames[vpn] = frame
		ppn = frame.PPN
	}
	pt.Map(vpn, ppn, a.Perm)
}

func (a *MapArea) unmapOne(pt *mem.PageTable, vpn mem.VirtPageNum) {
	if a.Kind == Framed {
		if frame, ok := a.frames[vpn]; ok {
			frame.Drop()
			delete(a.frames, vpn)
		}
	}
	pt.Unmap(vpn)
}

// mapAll installs every VPN in the area's range.
func (a *MapArea) mapAll(pt *mem.PageTable, fa *mem.FrameAllocator, arena *mem.Arena) {
	for vpn := a.StartVPN; vpn < a.EndVPN; vpn++ {
		a.mapOne(pt, fa, arena, vpn)
	}
}

// unmapAll tears down every VPN in the area's range, dropping Framed
// frames.
func (a *MapArea) unmapAll(pt *mem.PageTable) {
	for vpn := a.StartVPN; vpn < a.EndVPN; vpn++ {
		a.unmapOne(pt, vpn)
	}
}

// copyData copies data into the area's frames starting at its first
// VPN, page by page. Only valid for Framed areas already mapped.
func (a *MapArea) copyData(pt *mem.PageTable, arena *mem.Arena, data []byte) {
	vpn := a.StartVPN
	off := 0
	for off < len(data) {
		src := data[off:]
		if len(src) > defs.PageSize {
			src = src[:defs.PageSize]
		}
		frame := a.frames[vpn]
		page := frame.Bytes(arena)
		copy(page, src)
		off += len(src)
		vpn++
	}
}

// MemorySpace is a page table plus an ordered collection of Map Areas
// (spec.md 3). The trampoline entry is installed directly and is not
// tracked as an area, matching spec.md's carve-out.
type MemorySpace struct {
	PageTable *mem.PageTable
	Areas     []*MapArea

	fa    *mem.FrameAllocator
	arena *mem.Arena
}

// NewBare returns an empty address space with a fresh page table.
func NewBare(fa *mem.FrameAllocator, arena *mem.Arena) *MemorySpace {
	return &MemorySpace{PageTable: mem.NewPageTable(fa, arena), fa: fa, arena: arena}
}

// InsertFramedArea maps a new Framed area covering [start, end) with
// perm, optionally initialized with data.
func (ms *MemorySpace) InsertFramedArea(start, end mem.VirtAddr, perm mem.PTEFlags, data []byte) *MapArea {
	area := newMapArea(start, end, Framed, perm)
	area.mapAll(ms.PageTable, ms.fa, ms.arena)
	if data != nil {
		area.copyData(ms.PageTable, ms.arena, data)
	}
	ms.Areas = append(ms.Areas, area)
	return area
}

func (ms *MemorySpace) insertIdenticalArea(start, end mem.VirtAddr, perm mem.PTEFlags) {
	area := newMapArea(start, end, Identical, perm)
	area.mapAll(ms.PageTable, ms.fa, ms.arena)
	ms.Areas = append(ms.Areas, area)
}

// MapTrampoline installs the identity-virtual trampoline code page at
// defs.Trampoline, mapped RX but not U, and not tracked as an area
// (spec.md 4.3 / 9: "trampoline entry... is identical-mapped directly
// at construction and not tracked as an area").
func (ms *MemorySpace) MapTrampoline(trampolinePPN mem.PhysPageNum) {
	ms.PageTable.Map(mem.VirtAddr(defs.Trampoline).Floor(), trampolinePPN, mem.PTER|mem.PTEX)
}

// KernelSegment describes one identity-mapped region of kernel memory,
// supplied by the linker in a real boot and by the caller here.
type KernelSegment struct {
	Start, End mem.VirtAddr
	Perm       mem.PTEFlags
}

// NewKernelSpace builds the kernel's own address space: identity maps
// for .text/.rodata/.data/.bss/remaining-physical-memory (spec.md 4.3),
// plus the trampoline.
func NewKernelSpace(fa *mem.FrameAllocator, arena *mem.Arena, trampolinePPN mem.PhysPageNum, segments []KernelSegment) *MemorySpace {
	ms := NewBare(fa, arena)
	ms.MapTrampoline(trampolinePPN)
	for _, seg := range segments {
		ms.insertIdenticalArea(seg.Start, seg.End, seg.Perm)
	}
	return ms
}

// elfFlagsToPerm converts ELF program-header flags to Sv39 PTE
// permission bits, always adding U since this path only loads user
// segments.
func elfFlagsToPerm(f elf.ProgFlag) mem.PTEFlags {
	perm := mem.PTEU
	if f&elf.PF_R != 0 {
		perm |= mem.PTER
	}
	if f&elf.PF_W != 0 {
		perm |= mem.PTEW
	}
	if f&elf.PF_X != 0 {
		perm |= mem.PTEX
	}
	return perm
}

// FromELF parses an ELF image and builds a user address space: one
// Framed area per PT_LOAD segment, a guard page, a framed user stack,
// and a framed trap-frame page below the trampoline (spec.md 4.3).
// Returns the space, the top of the user stack, and the entry point.
func FromELF(fa *mem.FrameAllocator, arena *mem.Arena, trampolinePPN mem.PhysPageNum, elfData []byte) (*MemorySpace, mem.VirtAddr, mem.VirtAddr, error) {
	f, err := elf.NewFile(bytes.NewReader(elfData))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("parse elf: %w", err)
	}

	ms := NewBare(fa, arena)
	ms.MapTrampoline(trampolinePPN)

	var maxEnd mem.VirtAddr
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		start := mem.VirtAddr(prog.Vaddr)
		end := start + mem.VirtAddr(prog.Memsz)
		perm := elfFlagsToPerm(prog.Flags)
		data := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(data, 0); err != nil {
			return nil, 0, 0, fmt.Errorf("read segment: %w", err)
		}
		ms.InsertFramedArea(start, end, perm, data)
		if end.Ceil().Addr() > maxEnd {
			maxEnd = end.Ceil().Addr()
		}
	}

	// One guard page below the user stack.
	stackBottom := maxEnd + defs.PageSize
	stackTop := stackBottom + defs.UserStackSize
	ms.InsertFramedArea(stackBottom, stackTop, mem.PTER|mem.PTEW|mem.PTEU, nil)

	// Trap-frame page, between TRAMPOLINE-PAGE_SIZE and TRAMPOLINE.
	ms.InsertFramedArea(mem.VirtAddr(defs.TrapFrame), mem.VirtAddr(defs.Trampoline), mem.PTER|mem.PTEW, nil)

	return ms, stackTop, mem.VirtAddr(f.Entry), nil
}

// Clone deep-copies src for fork: fresh bare space, fresh trampoline,
// and for every area a fresh area with identical range/kind/perm. A
// Framed area gets new frames whose bytes are copied from the source
// frames; an Identical area is mapped to the same physical pages again
// (spec.md 4.3).
func Clone(src *MemorySpace, fa *mem.FrameAllocator, arena *mem.Arena, trampolinePPN mem.PhysPageNum) *MemorySpace {
	dst := NewBare(fa, arena)
	dst.MapTrampoline(trampolinePPN)
	for _, area := range src.Areas {
		startAddr := area.StartVPN.Addr()
		endAddr := area.EndVPN.Addr()
		newArea := newMapArea(startAddr, endAddr, area.Kind, area.Perm)
		newArea.mapAll(dst.PageTable, dst.fa, dst.arena)
		if area.Kind == Framed {
			for vpn := area.StartVPN; vpn < area.EndVPN; vpn++ {
				srcFrame := area.frames[vpn]
				dstFrame := newArea.frames[vpn]
				copy(dstFrame.Bytes(dst.arena), srcFrame.Bytes(src.arena))
			}
		}
		dst.Areas = append(dst.Areas, newArea)
	}
	return dst
}

// Arena returns the physical-memory arena this space's frames are
// allocated from, for callers (UserBuffer) that need raw byte access.
func (ms *MemorySpace) Arena() *mem.Arena {
	return ms.arena
}

// Translate looks up the valid leaf PTE for a virtual page number.
func (ms *MemorySpace) Translate(vpn mem.VirtPageNum) (mem.PageTableEntry, bool) {
	return ms.PageTable.Translate(vpn)
}

// Token returns the SATP value for this space.
func (ms *MemorySpace) Token() uint64 {
	return ms.PageTable.Token()
}

// RemoveAreaWithStartVPN finds the area starting at vpn, unmaps every
// VPN in its range, drops its frames, and removes it from Areas.
func (ms *MemorySpace) RemoveAreaWithStartVPN(vpn mem.VirtPageNum) {
	for i, area := range ms.Areas {
		if area.StartVPN == vpn {
			area.unmapAll(ms.PageTable)
			ms.Areas = append(ms.Areas[:i], ms.Areas[i+1:]...)
			return
		}
	}
}

// Clear drops every area's frames, emptying the area list while leaving
// the page-table root intact (spec.md 4.3: "used on process exit to
// drop user frames while leaving the page-table root intact").
func (ms *MemorySpace) Clear() {
	for _, area := range ms.Areas {
		area.unmapAll(ms.PageTable)
	}
	ms.Areas = nil
}
