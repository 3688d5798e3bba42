// Package fdtable implements the per-process file-descriptor table
// (spec.md 3, 4.10), adapted from the shape of the teacher's
// _teacher_ref/fd/fd.go Fd_t/Cwd_t pair, cut down to spec.md's
// non-goals (no path/cwd tracking — no filesystem namespace operations
// beyond open-by-name on the root directory are specified).
package fdtable

import (
	"ekernel/defs"
	"ekernel/file"
)

// FDTable is a process's open-file table: a dense slice of slots, nil
// where closed. New slots reuse the lowest free index, matching the
// POSIX convention spec.md's syscall table assumes (open returns the
// lowest unused fd).
type FDTable struct {
	slots []file.File
}

// NewDefault returns a table pre-populated as spec.md 4.4 specifies:
// "file-descriptor table [stdin, stdout, stdout]".
func NewDefault(yield func()) *FDTable {
	return &FDTable{slots: []file.File{
		file.Stdin{Yield: yield},
		file.Stdout{},
		file.Stdout{},
	}}
}

// Alloc installs f at the lowest free slot and returns its fd.
func (t *FDTable) Alloc(f file.File) int {
	for i, s := range t.slots {
		if s == nil {
			t.slots[i] = f
			return i
		}
	}
	t.slots = append(t.slots, f)
	return len(t.slots) - 1
}

// Get returns the File at fd, or ok=false for an out-of-range or closed
// slot (spec.md 9: "User API errors (bad fd...): the handler returns
// -1").
func (t *FDTable) Get(fd int) (file.File, bool) {
	if fd < 0 || fd >= len(t.slots) || t.slots[fd] == nil {
		return nil, false
	}
	return t.slots[fd], true
}

// Close clears fd, returning EBADF if it was already closed or
// out-of-range.
func (t *FDTable) Close(fd int) defs.Err_t {
	if fd < 0 || fd >= len(t.slots) || t.slots[fd] == nil {
		return defs.EBADF
	}
	t.slots[fd] = nil
	return 0
}

// Clone returns a new table sharing every slot by reference (spec.md 9:
// "the source duplicates the file-descriptor table by pointer, which
// implies... does not deep-copy offset state" — fork preserves this
// aliasing, not a deep copy).
func (t *FDTable) Clone() *FDTable {
	dup := make([]file.File, len(t.slots))
	copy(dup, t.slots)
	return &FDTable{slots: dup}
}
