package syscall

import (
	"ekernel/defs"
	"ekernel/file"
	"ekernel/mem"
	"ekernel/proc"
	"ekernel/trap"
	"ekernel/vm"
)

func userBuf(pcb *proc.PCB, va uint64, length int) *vm.UserBuffer {
	return vm.NewUserBuffer(pcb.MemorySpace, mem.VirtAddr(va), length)
}

// sysOpen resolves path (a user C-string) against the fs root, creating
// it when OCREATE is set and it does not exist, and installs a
// RegularFile at the lowest free fd (spec.md 6, 4.11).
func (t *Table) sysOpen(pcb *proc.PCB, pathVA, flags uint64) int {
	path := pcb.MemorySpace.PageTable.ReadCString(mem.VirtAddr(pathVA))

	inode := t.Root.Find(path)
	if inode == nil {
		if flags&OCREATE == 0 {
			return -1
		}
		inode = t.Root.Create(path)
		if inode == nil {
			return -1
		}
	} else if flags&OTRUNC != 0 {
		inode.Clear()
	}

	readable := flags&0b11 != OWRONLY
	writable := flags&0b11 != ORDONLY
	f := file.NewRegularFile(inode, readable, writable)
	return pcb.FDTable.Alloc(f)
}

func (t *Table) sysClose(pcb *proc.PCB, fd int) int {
	if pcb.FDTable.Close(fd) != 0 {
		return -1
	}
	return 0
}

// sysPipe creates a connected pipe pair, installs both ends as fds, and
// writes the pair into the user-supplied pipefd[2] array (spec.md 6).
func (t *Table) sysPipe(pcb *proc.PCB, pipefdVA uint64) int {
	r, w := file.NewPipe(t.Sys.Yield)
	rfd := pcb.FDTable.Alloc(r)
	wfd := pcb.FDTable.Alloc(w)

	buf := make([]byte, 8)
	putU32(buf[0:], uint32(rfd))
	putU32(buf[4:], uint32(wfd))
	userBuf(pcb, pipefdVA, len(buf)).Write(buf)
	return 0
}

func putU32(buf []byte, v uint32) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
}

// sysRead reads up to length bytes from fd into a staging buffer and
// copies it out through the caller's page table (spec.md 4.10, 4.11).
func (t *Table) sysRead(pcb *proc.PCB, fd int, bufVA uint64, length int) int {
	f, ok := pcb.FDTable.Get(fd)
	if !ok || !f.Readable() {
		return -1
	}
	staging := make([]byte, length)
	n, errc := f.Read(staging)
	if errc != 0 {
		return -1
	}
	ub := userBuf(pcb, bufVA, n)
	ub.Write(staging[:n])
	return n
}

// sysWrite copies length bytes in from the caller's page table and
// writes them to fd (spec.md 4.10, 4.11).
func (t *Table) sysWrite(pcb *proc.PCB, fd int, bufVA uint64, length int) int {
	f, ok := pcb.FDTable.Get(fd)
	if !ok || !f.Writable() {
		return -1
	}
	staging := make([]byte, length)
	ub := userBuf(pcb, bufVA, length)
	ub.Read(staging)
	n, errc := f.Write(staging)
	if errc != 0 {
		return -1
	}
	return n
}

// sysExit hands off to the scheduler's exit path; it never returns to
// the caller (spec.md 4.11: "exit code | never returns").
func (t *Table) sysExit(code int) {
	t.Sys.ExitCurrentAndRunNext(code)
}

// sysFork forks the current process, clearing the child's trap-frame a0
// so the child observes fork returning 0; the parent's return value is
// the child's PID (spec.md 4.4, 4.11).
func (t *Table) sysFork(pcb *proc.PCB) int {
	child := t.Sys.Fork(pcb)
	tf := trap.FrameAt(child.MemorySpace.Arena(), child.TrapFramePPN)
	tf.SetA0(0)
	return int(child.PID())
}

// sysExec rebuilds pcb's memory space from the named file and rewrites
// its trap frame to enter the new program (spec.md 4.4, 4.11). Returns
// -1 if path is not found.
func (t *Table) sysExec(pcb *proc.PCB, pathVA uint64) int {
	path := pcb.MemorySpace.PageTable.ReadCString(mem.VirtAddr(pathVA))
	inode := t.Root.Find(path)
	if inode == nil {
		return -1
	}
	elfData := make([]byte, inode.Size())
	inode.ReadAt(0, elfData)

	old := trap.FrameAt(pcb.MemorySpace.Arena(), pcb.TrapFramePPN)
	kernelSATP, kernelSP, trapHandlerVA := old.KernelSATP, old.KernelSP, old.TrapHandlerVA
	userSP, entry := t.Sys.Exec(pcb, elfData)
	tf := trap.FrameAt(pcb.MemorySpace.Arena(), pcb.TrapFramePPN)
	*tf = trap.NewTrapFrame(uint64(entry), uint64(userSP), kernelSATP, kernelSP, trapHandlerVA)
	return 0
}

// sysWaitPid delegates to the manager's child-reaping logic and writes
// the exit code to the caller-supplied user pointer when a zombie child
// is reaped (spec.md 4.4, 4.11).
func (t *Table) sysWaitPid(pcb *proc.PCB, pid int, statusVA uint64) int {
	resultPID, exitCode, status := t.Sys.WaitPid(pcb, defs.Pid_t(pid))
	if status != 0 {
		return status
	}
	buf := make([]byte, 4)
	putU32(buf, uint32(int32(exitCode)))
	userBuf(pcb, statusVA, len(buf)).Write(buf)
	return int(resultPID)
}
