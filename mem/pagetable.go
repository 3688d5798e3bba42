package mem

import (
	"fmt"

	"ekernel/defs"
)

// PTEFlags are the Sv39 page-table-entry flag bits (spec.md 3: "V/R/W/X/
// U/G/A/D"), ported from original_source/kernel/src/memory/page_table.rs.
type PTEFlags uint8

const (
	PTEV PTEFlags = 1 << 0
	PTER PTEFlags = 1 << 1
	PTEW PTEFlags = 1 << 2
	PTEX PTEFlags = 1 << 3
	PTEU PTEFlags = 1 << 4
	PTEG PTEFlags = 1 << 5
	PTEA PTEFlags = 1 << 6
	PTED PTEFlags = 1 << 7
)

// PageTableEntry is a single Sv39 leaf or intermediate entry.
type PageTableEntry struct {
	Bits uint64
}

// NewPTE packs ppn and flags into an entry.
func NewPTE(ppn PhysPageNum, flags PTEFlags) PageTableEntry {
	return PageTableEntry{Bits: uint64(ppn)<<10 | uint64(flags)}
}

// PPN extracts the physical page number from the entry.
func (e PageTableEntry) PPN() PhysPageNum {
	return PhysPageNum((e.Bits >> 10) & ((1 << 44) - 1))
}

// Flags extracts the flag bits from the entry.
func (e PageTableEntry) Flags() PTEFlags {
	return PTEFlags(e.Bits & 0xff)
}

func (e PageTableEntry) IsValid() bool      { return e.Flags()&PTEV != 0 }
func (e PageTableEntry) Readable() bool     { return e.Flags()&PTER != 0 }
func (e PageTableEntry) Writable() bool     { return e.Flags()&PTEW != 0 }
func (e PageTableEntry) Executable() bool   { return e.Flags()&PTEX != 0 }
func (e PageTableEntry) UserAccessible() bool { return e.Flags()&PTEU != 0 }

// PageTable is a three-level Sv39 page table (spec.md 4.2). It owns the
// root frame and every interior frame allocated while building walk
// paths. A table constructed by FromToken for translation-only use owns
// no frames (Frames is nil) and must not be mutated.
type PageTable struct {
	RootPPN PhysPageNum
	Frames  []*FrameTracker
	alloc   *FrameAllocator
	arena   *Arena
}

// NewPageTable allocates a fresh root frame and returns an empty table.
func NewPageTable(alloc *FrameAllocator, arena *Arena) *PageTable {
	root, ok := alloc.Alloc(arena)
	if !ok {
		panic("oom allocating page table root")
	}
	return &PageTable{RootPPN: root.PPN, Frames: []*FrameTracker{root}, alloc: alloc, arena: arena}
}

// FromToken builds a readonly page table view over an existing root,
// as decoded from a SATP token. It owns no frames: IsReadonly is true.
func FromToken(token uint64, arena *Arena) *PageTable {
	return &PageTable{RootPPN: PhysPageNum(token & ((1 << 44) - 1)), arena: arena}
}

// IsReadonly reports whether this table owns no frames (built via
// FromToken).
func (pt *PageTable) IsReadonly() bool {
	return pt.Frames == nil
}

func (pt *PageTable) entries(ppn PhysPageNum) []PageTableEntry {
	raw := pt.arena.Page(ppn)
	out := make([]PageTableEntry, 512)
	for i := range out {
		var bits uint64
		for b := 0; b < 8; b++ {
			bits |= uint64(raw[i*8+b]) << (8 * b)
		}
		out[i] = PageTableEntry{Bits: bits}
	}
	return out
}

func (pt *PageTable) writeEntry(ppn PhysPageNum, idx int, e PageTableEntry) {
	raw := pt.arena.Page(ppn)
	for b := 0; b < 8; b++ {
		raw[idx*8+b] = byte(e.Bits >> (8 * b))
	}
}

// findPTE walks the three levels, allocating intermediate frames along
// the way when create is true. It returns (nil, ppn-holding-level) —
// in Go terms, the containing page's ppn and index — or ok=false if an
// intermediate is invalid and create is false.
func (pt *PageTable) findPTE(vpn VirtPageNum, create bool) (containerPPN PhysPageNum, idx int, ok bool) {
	idxs := vpn.Indexes()
	ppn := pt.RootPPN
	for level := 0; level < 3; level++ {
		i := int(idxs[level])
		entries := pt.entries(ppn)
		pte := entries[i]
		if level == 2 {
			return ppn, i, true
		}
		if !pte.IsValid() {
			if !create {
				return 0, 0, false
			}
			frame, allocated := pt.alloc.Alloc(pt.arena)
			if !allocated {
				panic("oom extending page table")
			}
			pt.Frames = append(pt.Frames, frame)
			pte = NewPTE(frame.PPN, PTEV)
			pt.writeEntry(ppn, i, pte)
		}
		ppn = pte.PPN()
	}
	panic("unreachable")
}

// FindPTE returns the leaf PTE for vpn, or ok=false if any intermediate
// level is invalid.
func (pt *PageTable) FindPTE(vpn VirtPageNum) (PageTableEntry, bool) {
	container, idx, ok := pt.findPTE(vpn, false)
	if !ok {
		return PageTableEntry{}, false
	}
	return pt.entries(container)[idx], true
}

// Map installs vpn -> ppn with flags|V. It panics if the leaf is
// currently valid (spec.md 4.2: "asserts the target leaf is currently
// invalid").
func (pt *PageTable) Map(vpn VirtPageNum, ppn PhysPageNum, flags PTEFlags) {
	if pt.IsReadonly() {
		panic("map on readonly page table")
	}
	container, idx, _ := pt.findPTE(vpn, true)
	if pt.entries(container)[idx].IsValid() {
		panic(fmt.Sprintf("vpn %#x is mapped before mapping", vpn))
	}
	pt.writeEntry(container, idx, NewPTE(ppn, flags|PTEV))
}

// Unmap clears the leaf PTE for vpn. It panics if the leaf is currently
// invalid.
func (pt *PageTable) Unmap(vpn VirtPageNum) {
	if pt.IsReadonly() {
		panic("unmap on readonly page table")
	}
	container, idx, ok := pt.findPTE(vpn, false)
	if !ok || !pt.entries(container)[idx].IsValid() {
		panic(fmt.Sprintf("vpn %#x is invalid before unmapping", vpn))
	}
	pt.writeEntry(container, idx, PageTableEntry{})
}

// Translate returns the leaf PTE mapped for vpn, if any.
func (pt *PageTable) Translate(vpn VirtPageNum) (PageTableEntry, bool) {
	pte, ok := pt.FindPTE(vpn)
	if !ok || !pte.IsValid() {
		return PageTableEntry{}, false
	}
	return pte, true
}

// TranslateVA translates a virtual address to its physical address.
func (pt *PageTable) TranslateVA(va VirtAddr) (PhysAddr, bool) {
	pte, ok := pt.Translate(va.Floor())
	if !ok || !pte.IsValid() {
		return 0, false
	}
	paddr := pte.PPN().Addr()
	return PhysAddr(uint64(paddr) + va.PageOffset()), true
}

// Token computes the SATP value: mode 8 (Sv39) in the top 4 bits, root
// PPN in the low 44 bits.
func (pt *PageTable) Token() uint64 {
	return uint64(8)<<60 | uint64(pt.RootPPN)
}

// CopyOut writes data into the page range [startVPN, startVPN+len) of
// this address space, splitting across page boundaries as needed.
// Mirrors original_source's PageTable::copy_out.
func (pt *PageTable) CopyOut(startVPN VirtPageNum, data []byte) {
	vpn := startVPN
	off := 0
	for off < len(data) {
		pte, ok := pt.Translate(vpn)
		if !ok {
			panic(fmt.Sprintf("copy_out: vpn %#x not mapped", vpn))
		}
		page := pt.arena.Page(pte.PPN())
		n := copy(page, data[off:])
		off += n
		vpn++
	}
}

// CopyIn reads length bytes starting at virtual address va out of this
// address space into a freshly allocated slice.
func (pt *PageTable) CopyIn(va VirtAddr, length int) []byte {
	out := make([]byte, 0, length)
	for len(out) < length {
		pa, ok := pt.TranslateVA(va)
		if !ok {
			panic(fmt.Sprintf("copy_in: va %#x not mapped", va))
		}
		pageOff := int(pa) % defs.PageSize
		avail := defs.PageSize - pageOff
		need := length - len(out)
		n := avail
		if need < n {
			n = need
		}
		out = append(out, pt.arena.Bytes(pa, n)...)
		va += VirtAddr(n)
	}
	return out
}

// ReadCString walks byte by byte from va, translating through the page
// table, until a NUL terminator.
func (pt *PageTable) ReadCString(va VirtAddr) string {
	var out []byte
	for {
		pa, ok := pt.TranslateVA(va)
		if !ok {
			panic(fmt.Sprintf("read_c_str: va %#x not mapped", va))
		}
		b := pt.arena.Bytes(pa, 1)[0]
		if b == 0 {
			break
		}
		out = append(out, b)
		va++
	}
	return string(out)
}
