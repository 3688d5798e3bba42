package proc

import (
	"testing"

	"ekernel/accnt"
	"ekernel/defs"
	"ekernel/fdtable"
	"ekernel/mem"
	"ekernel/vm"
)

func newTestSystem(t *testing.T) *System {
	t.Helper()
	arena := mem.NewArena(4096 * defs.PageSize)
	fa := mem.NewFrameAllocator(1, 4096)
	tramp, ok := fa.Alloc(arena)
	if !ok {
		t.Fatal("alloc trampoline frame failed")
	}
	kernelSpace := vm.NewKernelSpace(fa, arena, tramp.PPN, nil)
	return NewSystem(arena, fa, kernelSpace)
}

// newTestPCB builds a bare PCB without going through ELF loading, for
// tests that only exercise scheduler/manager bookkeeping.
func newTestPCB(t *testing.T, sys *System) *PCB {
	t.Helper()
	pidTracker := sys.Pids.Alloc()
	ms := vm.NewBare(sys.FrameAlloc, sys.Arena)
	return &PCB{
		Pid:         pidTracker,
		Context:     NewContext(trapReturnVA, 0),
		Status:      Ready,
		MemorySpace: ms,
		FDTable:     fdtable.NewDefault(func() {}),
		Accnt:       &accnt.Accnt{},
	}
}

func TestPidAllocatorStartsAtOneAndRecyclesLIFO(t *testing.T) {
	pa := NewPidAllocator()
	first := pa.Alloc()
	if first.PID != 1 {
		t.Fatalf("first PID = %d, want 1 (0 reserved for INIT)", first.PID)
	}
	second := pa.Alloc()
	first.Drop()
	third := pa.Alloc()
	if third.PID != first.PID {
		t.Fatalf("recycled PID = %d, want %d", third.PID, first.PID)
	}
	_ = second
}

func TestCellPanicsOnReentrantBorrow(t *testing.T) {
	var c cell
	c.lock("test")
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on re-entrant borrow")
		}
	}()
	c.lock("test")
}

func TestKernelStackPositionDescendsByPID(t *testing.T) {
	b1, t1 := KernelStackPosition(1)
	_, t2 := KernelStackPosition(2)
	if t2 >= b1 {
		t.Fatalf("pid 2's stack (top %#x) must sit below pid 1's stack (bottom %#x)", t2, b1)
	}
	if t1-b1 != defs.KernelStackSize {
		t.Fatalf("stack size = %d, want %d", t1-b1, defs.KernelStackSize)
	}
}

func TestSchedulerFIFOOrderAndSuspendRequeues(t *testing.T) {
	sys := newTestSystem(t)
	a := newTestPCB(t, sys)
	b := newTestPCB(t, sys)
	sys.Ready = append(sys.Ready, a, b)

	got := sys.RunOne()
	if got != a {
		t.Fatal("expected FIFO order: a scheduled before b")
	}
	if got.Status != Running {
		t.Fatalf("status = %v, want Running", got.Status)
	}

	sys.SuspendCurrentAndRunNext()
	if a.Status != Ready {
		t.Fatalf("status after suspend = %v, want Ready", a.Status)
	}
	if sys.Ready[len(sys.Ready)-1] != a {
		t.Fatal("suspended process must be re-enqueued at the tail")
	}

	next := sys.RunOne()
	if next != b {
		t.Fatal("expected b to run next")
	}
}

func TestExitReparentsChildrenToInit(t *testing.T) {
	sys := newTestSystem(t)
	init := newTestPCB(t, sys)
	sys.Init = init

	parent := newTestPCB(t, sys)
	child := newTestPCB(t, sys)
	child.Parent = parent
	parent.Children = append(parent.Children, child)

	sys.Ready = append(sys.Ready, parent)
	sys.RunOne()
	sys.ExitCurrentAndRunNext(7)

	if parent.Status != Zombie {
		t.Fatalf("status = %v, want Zombie", parent.Status)
	}
	if parent.ExitCode != 7 {
		t.Fatalf("exit code = %d, want 7", parent.ExitCode)
	}
	if child.Parent != init {
		t.Fatal("child must be reparented to init")
	}
	if len(parent.Children) != 0 {
		t.Fatal("parent's children list must be cleared on exit")
	}
	found := false
	for _, c := range init.Children {
		if c == child {
			found = true
		}
	}
	if !found {
		t.Fatal("init must adopt the reparented child")
	}
}

func TestWaitPidReturnsMinusTwoBeforeExitAndPIDAfter(t *testing.T) {
	sys := newTestSystem(t)
	parent := newTestPCB(t, sys)
	child := newTestPCB(t, sys)
	child.Parent = parent
	parent.Children = append(parent.Children, child)

	if pid, _, status := sys.WaitPid(parent, -1); status != -2 {
		t.Fatalf("WaitPid before exit = (%d, status %d), want status -2", pid, status)
	}

	child.Status = Zombie
	child.ExitCode = 5
	pid, code, status := sys.WaitPid(parent, -1)
	if status != 0 || pid != child.PID() || code != 5 {
		t.Fatalf("WaitPid after exit = (%d, %d, status %d), want (%d, 5, 0)", pid, code, status, child.PID())
	}
	if len(parent.Children) != 0 {
		t.Fatal("reaped child must be removed from Children")
	}
}

func TestWaitPidNoMatchingChildReturnsMinusOne(t *testing.T) {
	sys := newTestSystem(t)
	parent := newTestPCB(t, sys)
	if pid, _, status := sys.WaitPid(parent, 999); pid != -1 || status != -1 {
		t.Fatalf("WaitPid with no matching child = (%d, status %d), want (-1, -1)", pid, status)
	}
}
