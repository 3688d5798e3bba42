package syscall

import (
	"ekernel/fs"
	"ekernel/klog"
	"ekernel/proc"
)

// Table is the syscall dispatcher (spec.md 4.11): "a table maps numeric
// ids to handlers; unknown ids log a warning and return." It closes
// over the System and the file system root, the way the teacher wires
// its fops tables against a process's fd table and the mounted fs.
type Table struct {
	Sys  *proc.System
	Root *fs.Inode
}

// NewTable builds a dispatcher over sys and the given root directory
// inode.
func NewTable(sys *proc.System, root *fs.Inode) *Table {
	return &Table{Sys: sys, Root: root}
}

// Dispatch is installed as trap.Hooks.Syscall: it looks up pcb from
// Sys.Cpu.Current (set by the scheduler before any trap can occur) and
// routes to the numbered handler.
func (t *Table) Dispatch(id, a0, a1, a2 uint64) uint64 {
	pcb := t.Sys.Cpu.Current
	if pcb == nil {
		panic("syscall dispatch with no current process")
	}
	switch id {
	case SysOpen:
		return errU64(t.sysOpen(pcb, a0, a1))
	case SysClose:
		return errU64(t.sysClose(pcb, int(a0)))
	case SysPipe:
		return errU64(t.sysPipe(pcb, a0))
	case SysRead:
		return errU64(t.sysRead(pcb, int(a0), a1, int(a2)))
	case SysWrite:
		return errU64(t.sysWrite(pcb, int(a0), a1, int(a2)))
	case SysExit:
		t.sysExit(int(int32(a0)))
		return 0
	case SysYield:
		t.Sys.SuspendCurrentAndRunNext()
		return 0
	case SysFork:
		return errU64(t.sysFork(pcb))
	case SysExec:
		return errU64(t.sysExec(pcb, a0))
	case SysWaitPid:
		return errU64(t.sysWaitPid(pcb, int(int32(a0)), a1))
	default:
		klog.Printf("[kernel] unsupported syscall id %d, ignoring", id)
		return 0
	}
}

// errU64 reinterprets an int return (which may be -1, -2, -3, etc.) as
// the uint64 a0 a real trap frame would carry, via the same two's
// complement bit pattern an `sd`/`ld` round trip would produce.
func errU64(v int) uint64 {
	return uint64(int64(v))
}
