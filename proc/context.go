package proc

// Context is a saved kernel-mode register set used by the
// context-switch primitive (spec.md 3: "Process Context"): return
// address, stack pointer, and the 12 callee-saved registers s0..s11.
//
// A real RISC-V kernel switches contexts with raw assembly (see
// switch_riscv64.s alongside this file, ported from the teacher's
// register-saving conventions and original_source's global_asm! switch
// routine). This repo runs as a hosted Go process, so System.RunOne
// (scheduler.go) stands in for the switch with ordinary Go control
// flow and never loads or saves this struct; the assembly file is kept for textural fidelity and is never
// invoked by Go code or tests, since driving raw register-switch
// assembly against the Go runtime's own goroutine stacks is unsafe and
// out of scope for a hosted simulation (see SPEC_FULL.md 1.1).
type Context struct {
	RA  uint64
	SP  uint64
	S   [12]uint64
}

// NewContext returns a zero context with RA set to entry and SP set to
// sp, as original_source's ProcContext::goto_trap_return constructs a
// fresh context that resumes execution in trap_return.
func NewContext(entry, sp uint64) Context {
	return Context{RA: entry, SP: sp}
}
