// Package defs holds the constants and small value types shared across
// every kernel package: error codes, page geometry, and the fixed
// addresses of the memory map.
package defs

// Err_t is a kernel error code. Zero means success; negative values name
// a specific failure. Syscall handlers return Err_t instead of a Go
// error so the value can be written directly into a trap frame's a0.
type Err_t int

// Error codes returned by syscalls and VFS operations. Numbering follows
// no external ABI; only the sign (negative) and the syscall-level
// conventions documented per handler matter.
const (
	EPERM  Err_t = -1
	ENOENT Err_t = -2
	ESRCH  Err_t = -3
	EBADF  Err_t = -9
	ENOMEM Err_t = -12
	EFAULT Err_t = -14
	EEXIST Err_t = -17
	EINVAL Err_t = -22
	ENOSPC Err_t = -28
	EPIPE  Err_t = -32
)

// Pid_t is a process id. PID 0 is reserved for the INIT process.
type Pid_t int
