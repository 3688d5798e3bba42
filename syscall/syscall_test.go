package syscall

import (
	"path/filepath"
	"testing"

	"ekernel/accnt"
	"ekernel/defs"
	"ekernel/fdtable"
	"ekernel/fs"
	"ekernel/mem"
	"ekernel/proc"
	"ekernel/vm"
)

const (
	testUserBase = mem.VirtAddr(0x1000)
	testUserSize = 4 * defs.PageSize
)

func newTestSystem(t *testing.T) *proc.System {
	t.Helper()
	arena := mem.NewArena(4096 * defs.PageSize)
	fa := mem.NewFrameAllocator(1, 4096)
	tramp, ok := fa.Alloc(arena)
	if !ok {
		t.Fatal("alloc trampoline frame failed")
	}
	kernelSpace := vm.NewKernelSpace(fa, arena, tramp.PPN, nil)
	return proc.NewSystem(arena, fa, kernelSpace)
}

// newUserPCB gives the process one framed, read/write/user-accessible
// area at testUserBase so handlers can CopyOut/CopyIn/ReadCString
// against it, plus a mapped trampoline and trap-frame page mirroring
// what vm.FromELF builds, standing in for a process's loaded ELF image
// and its fork's deep-copied trap frame.
func newUserPCB(t *testing.T, sys *proc.System) *proc.PCB {
	t.Helper()
	pidTracker := sys.Pids.Alloc()
	trampolinePTE, ok := sys.KernelSpace.Translate(mem.VirtAddr(defs.Trampoline).Floor())
	if !ok {
		t.Fatal("trampoline not mapped in kernel space")
	}

	ms := vm.NewBare(sys.FrameAlloc, sys.Arena)
	ms.MapTrampoline(trampolinePTE.PPN())
	ms.InsertFramedArea(testUserBase, testUserBase+testUserSize,
		mem.PTER|mem.PTEW|mem.PTEU, nil)
	ms.InsertFramedArea(mem.VirtAddr(defs.TrapFrame), mem.VirtAddr(defs.Trampoline),
		mem.PTER|mem.PTEW, nil)

	tfPTE, ok := ms.Translate(mem.VirtAddr(defs.TrapFrame).Floor())
	if !ok {
		t.Fatal("trap frame page not mapped")
	}

	return &proc.PCB{
		Pid:          pidTracker,
		Status:       proc.Ready,
		MemorySpace:  ms,
		TrapFramePPN: tfPTE.PPN(),
		FDTable:      fdtable.NewDefault(sys.Yield),
		Accnt:        &accnt.Accnt{},
	}
}

func newTestTable(t *testing.T) (*Table, *proc.System, *fs.Inode) {
	t.Helper()
	sys := newTestSystem(t)
	path := filepath.Join(t.TempDir(), "fs.img")
	dev, err := fs.NewFileBlockDevice(path)
	if err != nil {
		t.Fatalf("NewFileBlockDevice: %v", err)
	}
	t.Cleanup(func() { dev.Close() })
	efs := fs.Create(dev, 4096, 1)
	root := efs.RootInode()
	return NewTable(sys, root), sys, root
}

func writeUserString(t *testing.T, pcb *proc.PCB, va mem.VirtAddr, s string) {
	t.Helper()
	b := append([]byte(s), 0)
	vm.NewUserBuffer(pcb.MemorySpace, va, len(b)).Write(b)
}

// TestOpenWriteReadClose exercises spec.md 9's file round trip: open
// with OCREATE, write bytes, close, reopen read-only, read them back.
func TestOpenWriteReadClose(t *testing.T) {
	table, sys, _ := newTestTable(t)
	pcb := newUserPCB(t, sys)
	sys.Cpu.Current = pcb

	pathVA := testUserBase
	writeUserString(t, pcb, pathVA, "hello.txt")

	fd := int(errU64ToInt(table.Dispatch(SysOpen, uint64(pathVA), uint64(OCREATE|ORDWR), 0)))
	if fd < 0 {
		t.Fatalf("open returned %d", fd)
	}

	dataVA := pathVA + 0x100
	msg := "ping"
	vm.NewUserBuffer(pcb.MemorySpace, dataVA, len(msg)).Write([]byte(msg))
	n := int(errU64ToInt(table.Dispatch(SysWrite, uint64(fd), uint64(dataVA), uint64(len(msg)))))
	if n != len(msg) {
		t.Fatalf("write = %d, want %d", n, len(msg))
	}

	if rc := int(errU64ToInt(table.Dispatch(SysClose, uint64(fd), 0, 0))); rc != 0 {
		t.Fatalf("close = %d, want 0", rc)
	}

	fd2 := int(errU64ToInt(table.Dispatch(SysOpen, uint64(pathVA), uint64(ORDONLY), 0)))
	if fd2 < 0 {
		t.Fatalf("reopen returned %d", fd2)
	}
	readVA := dataVA + 0x100
	n2 := int(errU64ToInt(table.Dispatch(SysRead, uint64(fd2), uint64(readVA), uint64(len(msg)))))
	if n2 != len(msg) {
		t.Fatalf("read = %d, want %d", n2, len(msg))
	}
	got := pcb.MemorySpace.PageTable.CopyIn(readVA, len(msg))
	if string(got) != msg {
		t.Fatalf("read back %q, want %q", got, msg)
	}
}

// TestPipeForkWaitPid is spec.md 9's acceptance scenario #4: parent
// creates a pipe, forks; child writes "ping" into the write end and
// exits; parent reads from the read end until the writer closes;
// parent observes exactly "ping" and waitpid returns the child's PID
// with exit code 0.
func TestPipeForkWaitPid(t *testing.T) {
	table, sys, _ := newTestTable(t)
	parent := newUserPCB(t, sys)
	sys.Init = parent
	sys.Cpu.Current = parent

	pipefdVA := testUserBase
	if rc := int(errU64ToInt(table.Dispatch(SysPipe, uint64(pipefdVA), 0, 0))); rc != 0 {
		t.Fatalf("pipe = %d, want 0", rc)
	}
	raw := parent.MemorySpace.PageTable.CopyIn(pipefdVA, 8)
	rfd := int(getU32(raw[0:]))
	wfd := int(getU32(raw[4:]))

	childPID := int(errU64ToInt(table.Dispatch(SysFork, 0, 0, 0)))
	if childPID <= 0 {
		t.Fatalf("fork returned %d", childPID)
	}

	var child *proc.PCB
	for _, c := range parent.Children {
		if int(c.PID()) == childPID {
			child = c
		}
	}
	if child == nil {
		t.Fatal("fork did not register a child with the returned PID")
	}

	// Simulate the child running: close its read end, write "ping" to
	// the write end, exit 0.
	sys.Cpu.Current = child
	table.Dispatch(SysClose, uint64(rfd), 0, 0)
	msgVA := testUserBase + 0x100
	vm.NewUserBuffer(child.MemorySpace, msgVA, 4).Write([]byte("ping"))
	n := int(errU64ToInt(table.Dispatch(SysWrite, uint64(wfd), uint64(msgVA), 4)))
	if n != 4 {
		t.Fatalf("child write = %d, want 4", n)
	}
	table.Dispatch(SysExit, 0, 0, 0)
	if child.Status != proc.Zombie {
		t.Fatalf("child status after exit = %v, want Zombie", child.Status)
	}

	// Parent closes its own write end so the pipe's writer count drops
	// to zero once the child's end is also gone, then drains the read
	// end and reaps the child via waitpid.
	sys.Cpu.Current = parent
	table.Dispatch(SysClose, uint64(wfd), 0, 0)

	readVA := testUserBase + 0x200
	got := make([]byte, 0, 4)
	for len(got) < 4 {
		n := int(errU64ToInt(table.Dispatch(SysRead, uint64(rfd), uint64(readVA), 4)))
		if n == 0 {
			break
		}
		got = append(got, parent.MemorySpace.PageTable.CopyIn(readVA, n)...)
	}
	if string(got) != "ping" {
		t.Fatalf("parent read %q, want %q", got, "ping")
	}

	statusVA := testUserBase + 0x300
	anyChild := int32(-1)
	resultPID := int(errU64ToInt(table.Dispatch(SysWaitPid, uint64(uint32(anyChild)), uint64(statusVA), 0)))
	if resultPID != childPID {
		t.Fatalf("waitpid returned pid %d, want %d", resultPID, childPID)
	}
	exitBuf := parent.MemorySpace.PageTable.CopyIn(statusVA, 4)
	if getU32(exitBuf) != 0 {
		t.Fatalf("exit code = %d, want 0", getU32(exitBuf))
	}
}

func errU64ToInt(v uint64) int64 { return int64(v) }

func getU32(buf []byte) uint32 {
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24
}
