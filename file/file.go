// Package file implements the File capability (spec.md 3, 4.10): the
// common read/write surface shared by regular files, pipe ends, and
// stdio, ported from the shape of the teacher's fdops.Fdops_i interface
// and fd.Fd_t wrapper (_teacher_ref/fd/fd.go), adapted from the
// teacher's syscall-table dispatch style down to spec.md's narrower
// four-method File trait.
package file

import "ekernel/defs"

// File is the capability every fd table slot holds (spec.md 3): "{
// readable(), writable(), read(buf) -> n, write(buf) -> n }". Read and
// Write receive a kernel-side staging slice that the syscall handlers
// copy to or from user memory through the caller's page table
// (vm.UserBuffer), matching spec.md 4.10's "handlers translate user
// pointers... before dereferencing".
type File interface {
	Readable() bool
	Writable() bool
	Read(buf []byte) (int, defs.Err_t)
	Write(buf []byte) (int, defs.Err_t)
}
