package proc

import (
	"ekernel/console"
	"ekernel/defs"
)

// RunOne pops the head of the ready queue, marks it Running, and
// records it as Cpu.Current (spec.md 4.5: "pops a PCB, sets its status
// to Running, records it as current, and invokes the context-switch
// primitive"). The actual context-switch primitive (proc.contextSwitch)
// is a real but never-invoked riscv64 assembly routine in this hosted
// simulation; RunOne stops at the point a real kernel would call it,
// since there is no user-mode instruction stream for the switched-to
// process to execute. Callers drive a "running" process purely through
// the syscall/trap layer until it suspends or exits. Returns nil if the
// ready queue is empty.
func (s *System) RunOne() *PCB {
	if len(s.Ready) == 0 {
		return nil
	}
	pcb := s.Ready[0]
	s.Ready = s.Ready[1:]
	pcb.Status = Running
	s.Cpu.Current = pcb
	return pcb
}

// SuspendCurrentAndRunNext sets the current process back to Ready and
// re-enqueues it at the tail of the FIFO ready queue (spec.md 4.5: "the
// current's status Ready and pushes it back on the queue"), then clears
// Cpu.Current. Called from yield, pipe waits, console blocking reads,
// and the timer interrupt (spec.md 5).
func (s *System) SuspendCurrentAndRunNext() {
	pcb := s.Cpu.Current
	if pcb == nil {
		panic("suspend with no current process")
	}
	pcb.Status = Ready
	s.Ready = append(s.Ready, pcb)
	s.Cpu.Current = nil
}

// ExitCurrentAndRunNext marks the current process Zombie, records its
// exit code, reparents its children to INIT, and drops its memory
// space's user frames (spec.md 4.4: "page-table structure is
// deliberately retained until the PCB itself is reaped"). If the exiting
// process is INIT, the kernel shuts down — failure iff the exit code is
// nonzero (spec.md 4.4, 6).
func (s *System) ExitCurrentAndRunNext(exitCode int) {
	pcb := s.Cpu.Current
	if pcb == nil {
		panic("exit with no current process")
	}
	pcb.Status = Zombie
	pcb.ExitCode = exitCode

	for _, child := range pcb.Children {
		child.Parent = s.Init
		if s.Init != nil {
			s.Init.Children = append(s.Init.Children, child)
		}
	}
	pcb.Children = nil
	pcb.MemorySpace.Clear()
	s.Cpu.Current = nil

	if pcb == s.Init {
		console.Shutdown(exitCode != 0)
	}
}

// SetNextTrigger arms the next timer interrupt (spec.md 4.4, 4.5, 4.6).
func (s *System) SetNextTrigger() {
	console.SetNextTrigger(defs.TimerTickLen)
}
