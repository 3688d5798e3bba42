// Package syscall implements the numeric syscall dispatch table
// (spec.md 4.11, 6), ported in spirit from
// original_source/kernel/src/syscall/mod.rs's match-on-id dispatcher,
// expressed as a Go switch on the id in Table.Dispatch.
package syscall

// Syscall numbers: the fixed ABI spec.md 4.11 specifies.
const (
	SysOpen    = 56
	SysClose   = 57
	SysPipe    = 59
	SysRead    = 63
	SysWrite   = 64
	SysExit    = 93
	SysYield   = 124
	SysFork    = 220
	SysExec    = 221
	SysWaitPid = 260
)

// Open flag bits (spec.md 6).
const (
	ORDONLY = 0
	OWRONLY = 1
	ORDWR   = 2
	OCREATE = 1 << 9
	OTRUNC  = 1 << 10
)
