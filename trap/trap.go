package trap

import "ekernel/klog"

// Cause enumerates the scause values trap_handler dispatches on
// (spec.md 4.6). Named for readability; a real kernel would decode
// these from the scause CSR.
type Cause int

const (
	UserEcall Cause = iota
	StorePageFault
	LoadPageFault
	InstructionPageFault
	StoreFault
	LoadFault
	InstructionFault
	IllegalInstruction
	SupervisorTimer
	Other
)

// Hooks decouples trap dispatch from the scheduler and syscall table,
// avoiding an import cycle (proc would otherwise need to import trap,
// and trap would need to import proc's exit/suspend calls). The
// scheduler wires these at boot.
type Hooks struct {
	Syscall func(id, a0, a1, a2 uint64) uint64
	// ExitCurrent is invoked for fatal user-process faults (spec.md 4.6,
	// 7): illegal instruction -> code -3, everything else fault-shaped
	// -> code -1.
	ExitCurrent func(code int)
	// SuspendCurrent is invoked for a timer interrupt after arming the
	// next one.
	SuspendCurrent func()
	SetNextTrigger func()
}

// Handle dispatches one trap (spec.md 4.6 step 2): advances sepc by 4
// and invokes the syscall hook on ecall; logs and exits the process on
// a fault; arms the next timer tick and suspends on a timer interrupt;
// panics otherwise.
func Handle(tf *TrapFrame, cause Cause, stval uint64, hooks Hooks) {
	switch cause {
	case UserEcall:
		tf.Sepc += 4
		ret := hooks.Syscall(tf.X[17], tf.A0(), tf.A1(), tf.A2())
		tf.SetA0(ret)
	case StorePageFault, LoadPageFault, InstructionPageFault, StoreFault, LoadFault, InstructionFault:
		klog.Printf("[kernel] fault at va %#x, killing process", stval)
		hooks.ExitCurrent(-1)
	case IllegalInstruction:
		klog.Printf("[kernel] illegal instruction at sepc %#x, killing process", tf.Sepc)
		hooks.ExitCurrent(-3)
	case SupervisorTimer:
		hooks.SetNextTrigger()
		hooks.SuspendCurrent()
	default:
		panic("trap from kernel")
	}
}
