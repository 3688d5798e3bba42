// Package proc implements the process control block, PID allocator,
// scheduler, and process manager (spec.md 4.4, 4.5), ported in spirit
// from original_source/kernel/src/proc/{manager.rs,cpu.rs,mod.rs}. The
// teacher contributes no process-manager source (biscuit's proc package
// under _teacher_ref/proc held only stub files in the retrieved tree),
// so this package's control flow follows the original directly,
// expressed through the teacher's panicking-cell and plain-struct
// idiom rather than Rust's Rc<RefCell<...>>.
package proc

import (
	"ekernel/accnt"
	"ekernel/defs"
	"ekernel/fdtable"
	"ekernel/mem"
	"ekernel/trap"
	"ekernel/vm"
)

// trapReturnVA is the (simulated) virtual address a fresh process's
// context resumes at: the trap_return entry point baked into the
// trampoline page, which is mapped at the same VA in every address
// space (spec.md 4.4, 4.6). This hosted simulation never actually jumps
// through it — see Context's doc comment — it exists only so
// NewContext receives a spec-accurate entry value.
const trapReturnVA = uint64(defs.Trampoline)

// System bundles every process-wide table spec.md 5 requires to be
// guarded by a single-HART-safe cell: the frame allocator, PID
// allocator, kernel address space, ready queue, INIT PCB, and current
// Cpu. One System exists per kernel instance.
type System struct {
	Arena       *mem.Arena
	FrameAlloc  *mem.FrameAllocator
	KernelSpace *vm.MemorySpace

	Pids  *PidAllocator
	Ready []*PCB
	Init  *PCB
	Cpu   Cpu

	cell cell
}

// NewSystem wires a System over an already-built kernel address space
// (spec.md 4.1's boot sequence: heap, frame allocator, and kernel space
// are constructed before any process exists).
func NewSystem(arena *mem.Arena, fa *mem.FrameAllocator, kernelSpace *vm.MemorySpace) *System {
	return &System{
		Arena:       arena,
		FrameAlloc:  fa,
		KernelSpace: kernelSpace,
		Pids:        NewPidAllocator(),
	}
}

// Yield is the hook file.Stdin and file.Pipe call to block (spec.md
// 4.10): it immediately invokes SuspendCurrentAndRunNext, so a blocking
// read/write in this single-HART cooperative model simply hands off to
// whichever process is next in the ready queue.
func (s *System) Yield() {
	s.SuspendCurrentAndRunNext()
}

// newTrapFramePPN resolves the physical frame backing TRAP_FRAME within
// a freshly built memory space (spec.md 4.4: "resolve the trap-frame
// PPN via translation of TRAP_FRAME").
func newTrapFramePPN(ms *vm.MemorySpace) mem.PhysPageNum {
	pte, ok := ms.Translate(mem.VirtAddr(defs.TrapFrame).Floor())
	if !ok {
		panic("trap frame page not mapped")
	}
	return pte.PPN()
}

func kernelTrampolinePPN(s *System) mem.PhysPageNum {
	pte, ok := s.KernelSpace.Translate(mem.VirtAddr(defs.Trampoline).Floor())
	if !ok {
		panic("trampoline not mapped in kernel space")
	}
	return pte.PPN()
}

// newPCBFromELF builds a fresh PCB with the given PID from an ELF image,
// for NewInitProcess (spec.md 4.4).
func (s *System) newPCBFromELF(elfData []byte, parent *PCB, pidTracker *PidTracker) *PCB {
	trampolinePPN := kernelTrampolinePPN(s)
	ms, userSP, entry, err := vm.FromELF(s.FrameAlloc, s.Arena, trampolinePPN, elfData)
	if err != nil {
		panic("newPCBFromELF: " + err.Error())
	}
	trapFramePPN := newTrapFramePPN(ms)

	kstack := NewKernelStack(s.KernelSpace, pidTracker.PID)

	pcb := &PCB{
		Pid:          pidTracker,
		KernelStack:  kstack,
		Context:      NewContext(trapReturnVA, uint64(kstack.Top)),
		Status:       Ready,
		MemorySpace:  ms,
		TrapFramePPN: trapFramePPN,
		Parent:       parent,
		FDTable:      fdtable.NewDefault(s.Yield),
		Accnt:        &accnt.Accnt{},
	}

	tf := trap.FrameAt(ms.Arena(), trapFramePPN)
	*tf = trap.NewTrapFrame(uint64(entry), uint64(userSP), s.KernelSpace.Token(), uint64(kstack.Top), trapReturnVA)

	return pcb
}

// NewInitProcess builds the INIT process (PID 0, the PID the allocator
// never issues) from its ELF image and pushes it onto the ready queue
// (spec.md 4.1, 4.4).
func (s *System) NewInitProcess(elfData []byte) *PCB {
	pcb := s.newPCBFromELF(elfData, nil, &PidTracker{PID: 0, alloc: s.Pids})
	s.Init = pcb
	s.Ready = append(s.Ready, pcb)
	return pcb
}

// Fork clones parent's memory space, allocates a fresh PID/kernel
// stack/trap-frame PPN, duplicates the fd table by reference, links the
// child into parent.Children, and pushes it onto the ready queue
// (spec.md 4.4). Returns the child PCB; the caller is responsible for
// clearing the child's trap-frame a0 so fork appears to return 0 there.
func (s *System) Fork(parent *PCB) *PCB {
	trampolinePPN := kernelTrampolinePPN(s)
	ms := vm.Clone(parent.MemorySpace, s.FrameAlloc, s.Arena, trampolinePPN)
	trapFramePPN := newTrapFramePPN(ms)

	pidTracker := s.Pids.Alloc()
	kstack := NewKernelStack(s.KernelSpace, pidTracker.PID)

	child := &PCB{
		Pid:          pidTracker,
		KernelStack:  kstack,
		Context:      NewContext(trapReturnVA, uint64(kstack.Top)),
		Status:       Ready,
		MemorySpace:  ms,
		TrapFramePPN: trapFramePPN,
		Parent:       parent,
		FDTable:      parent.FDTable.Clone(),
		Accnt:        &accnt.Accnt{},
	}
	parent.Children = append(parent.Children, child)
	s.Ready = append(s.Ready, child)
	return child
}

// Exec rebuilds pcb's memory space from a new ELF image, preserving PID,
// kernel stack, fd table, and parent/child relations (spec.md 4.4). It
// records the new trap-frame PPN in pcb.TrapFramePPN and returns the
// user-stack top and entry point the caller writes into the trap frame.
func (s *System) Exec(pcb *PCB, elfData []byte) (userSP, entry mem.VirtAddr) {
	trampolinePPN := kernelTrampolinePPN(s)
	ms, sp, ep, err := vm.FromELF(s.FrameAlloc, s.Arena, trampolinePPN, elfData)
	if err != nil {
		panic("Exec: " + err.Error())
	}
	pcb.MemorySpace = ms
	pcb.TrapFramePPN = newTrapFramePPN(ms)
	return sp, ep
}

// WaitPid selects a Zombie child matching pid (or any child when
// pid==-1), removes it from Children, and returns its PID, exit code,
// and status 0. Returns pid -1 with status -1 if no child matches, or
// pid -2 with status -2 if a matching child exists but hasn't exited
// yet (spec.md 4.4).
func (s *System) WaitPid(parent *PCB, pid defs.Pid_t) (resultPID defs.Pid_t, exitCode int, status int) {
	found := false
	for i, child := range parent.Children {
		if pid != -1 && child.PID() != pid {
			continue
		}
		found = true
		if child.Status != Zombie {
			continue
		}
		parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
		return child.PID(), child.ExitCode, 0
	}
	if !found {
		return -1, 0, -1
	}
	return -2, 0, -2
}
