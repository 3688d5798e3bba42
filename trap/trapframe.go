// Package trap implements the user/supervisor trap path (spec.md 4.6):
// the trampoline, the per-process trap frame, and trap_handler's
// dispatch to syscalls, faults, and the timer. Grounded on
// original_source/kernel/src/trap/{context.rs,mod.rs} and trampoline.S;
// the teacher contributes no trap-path code (biscuit's trap entry lives
// in assembly unavailable to the retrieved Go tree), so the register
// layout and dispatch shape follow the original directly, expressed in
// the teacher's panic-on-programmer-error idiom.
//
// This is a hosted simulation (SPEC_FULL.md 1.1): there is no real
// RISC-V `ecall`/trap hardware beneath this Go process, so nothing here
// actually traps. TrapFrame is a plain addressable record the test
// harness and syscall layer populate directly, and Handle is invoked
// as an ordinary Go call standing in for the trampoline-to-trap_handler
// jump.
package trap

// TrapFrame mirrors the original's saved-register layout: 32
// general-purpose registers, sstatus, sepc, and three kernel-context
// fields the trampoline needs to re-enter the kernel (spec.md 3, 4.6).
type TrapFrame struct {
	X          [32]uint64 // x0..x31; x10 is a0, x11 is a1, x12 is a2
	Sstatus    uint64
	Sepc       uint64
	KernelSATP uint64
	KernelSP   uint64
	TrapHandlerVA uint64
}

// SPP bit position within sstatus (spec.md 4.4: "sstatus.SPP=User").
const sstatusSPP = 1 << 8

// SetUserMode clears sstatus.SPP so an sret returns to user mode.
func (tf *TrapFrame) SetUserMode() {
	tf.Sstatus &^= sstatusSPP
}

// A0..A2 name the syscall argument registers for readability at call
// sites (spec.md 6: "args in a0..a2, return in a0").
func (tf *TrapFrame) A0() uint64  { return tf.X[10] }
func (tf *TrapFrame) A1() uint64  { return tf.X[11] }
func (tf *TrapFrame) A2() uint64  { return tf.X[12] }
func (tf *TrapFrame) SetA0(v uint64) { tf.X[10] = v }
func (tf *TrapFrame) SetA1(v uint64) { tf.X[11] = v }

// NewTrapFrame builds the initial trap frame for a freshly created
// process (spec.md 4.4): "sepc=entry, user sp=user_sp_top,
// sstatus.SPP=User, kernel SATP, kernel SP, trap-handler virtual
// address."
func NewTrapFrame(entry, userSP, kernelSATP, kernelSP, trapHandlerVA uint64) TrapFrame {
	tf := TrapFrame{
		Sepc:          entry,
		KernelSATP:    kernelSATP,
		KernelSP:      kernelSP,
		TrapHandlerVA: trapHandlerVA,
	}
	tf.X[2] = userSP // sp is x2
	tf.SetUserMode()
	return tf
}
