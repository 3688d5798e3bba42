package proc

import (
	"ekernel/accnt"
	"ekernel/defs"
	"ekernel/fdtable"
	"ekernel/mem"
	"ekernel/vm"
)

// ProcStatus is a PCB's scheduling state (spec.md 3). Named Zombie, not
// Terminated: original_source's ProcStatus enumerates {Ready, Running,
// Terminated}, but spec.md explicitly renames the terminal state to
// Zombie (to match the reap-by-waitpid semantics of spec.md 4.4) and
// spec.md is authoritative over an ambiguity with the source it was
// distilled from.
type ProcStatus int

const (
	Ready ProcStatus = iota
	Running
	Zombie
)

func (s ProcStatus) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Zombie:
		return "Zombie"
	default:
		return "Unknown"
	}
}

// PCB is a process control block (spec.md 3): immutable PID and
// kernel-stack descriptor, plus the mutable inner record. Parent is a
// plain pointer, not a Rust Weak<T> — Go's tracing garbage collector
// reclaims parent/child reference cycles on its own, so there is no
// analogue of the teacher/original's manual weak-reference bookkeeping
// to port; what matters for spec.md 9's invariant is only that Parent
// must not be treated as the thing keeping a PCB alive (Children and the
// ready queue do that).
type PCB struct {
	Pid          *PidTracker
	KernelStack  *KernelStack
	cell         cell
	Context      Context
	Status       ProcStatus
	MemorySpace  *vm.MemorySpace
	TrapFramePPN mem.PhysPageNum
	Parent       *PCB
	Children     []*PCB
	FDTable      *fdtable.FDTable
	ExitCode     int
	Accnt        *accnt.Accnt
}

// Borrow and Unborrow implement spec.md 5's single-HART cell convention
// for the PCB's mutable inner state. Callers must Unborrow before
// invoking any suspension point.
func (p *PCB) Borrow()   { p.cell.lock("pcb inner") }
func (p *PCB) Unborrow() { p.cell.unlock() }

// PID returns the process id.
func (p *PCB) PID() defs.Pid_t {
	return p.Pid.PID
}
