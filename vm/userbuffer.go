package vm

import (
	"ekernel/defs"
	"ekernel/mem"
)

// UserBuffer is a logical concatenation of kernel-visible physical-page
// slices covering a user virtual range (spec.md 3). It is the Sv39
// analogue of the teacher's Userbuf_t, simplified to single-range use:
// spec.md names no iovec syscall, so Useriovec_t's multi-range variant
// is not ported.
type UserBuffer struct {
	space *MemorySpace
	va    mem.VirtAddr
	len   int
}

// NewUserBuffer builds a buffer over [va, va+length) in space.
func NewUserBuffer(space *MemorySpace, va mem.VirtAddr, length int) *UserBuffer {
	return &UserBuffer{space: space, va: va, len: length}
}

// Len returns the total size of the buffer in bytes.
func (u *UserBuffer) Len() int {
	return u.len
}

// Read copies up to len(dst) bytes from the user buffer into dst,
// stopping at the buffer's end, and returns the number of bytes copied.
func (u *UserBuffer) Read(dst []byte) int {
	n := u.len
	if len(dst) < n {
		n = len(dst)
	}
	got := u.space.PageTable.CopyIn(u.va, n)
	return copy(dst, got)
}

// Write copies up to u.Len() bytes from src into the user buffer and
// returns the number of bytes copied.
func (u *UserBuffer) Write(src []byte) int {
	n := u.len
	if len(src) < n {
		n = len(src)
	}
	off := 0
	for _, s := range NewUserBuffer(u.space, u.va, n).Slices() {
		off += copy(s, src[off:n])
	}
	return n
}

// Slices splits the buffer into one []byte per physical page it spans,
// matching the teacher's Fakeubuf/Userbuf per-slice iteration.
func (u *UserBuffer) Slices() [][]byte {
	var out [][]byte
	remaining := u.len
	va := u.va
	for remaining > 0 {
		pa, ok := u.space.PageTable.TranslateVA(va)
		if !ok {
			panic("UserBuffer.Slices: unmapped va")
		}
		pageOff := int(va.PageOffset())
		chunk := defs.PageSize - pageOff
		if chunk > remaining {
			chunk = remaining
		}
		out = append(out, u.space.Arena().Bytes(pa, chunk))
		remaining -= chunk
		va += mem.VirtAddr(chunk)
	}
	return out
}
