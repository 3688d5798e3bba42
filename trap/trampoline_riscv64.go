//go:build riscv64

package trap

// trampolineUserVec and trampolineRestore are the two entry points of
// the identity-mapped trampoline page (spec.md 4.6, 9): "mapped RX into
// both kernel and every user space". Like proc.contextSwitch, these are
// real RISC-V primitives kept for textural fidelity under a riscv64
// build tag; this hosted simulation drives trap.Handle directly as an
// ordinary Go call instead of an actual `ecall`/`sret` round trip, so
// neither function is ever linked into a test binary (GOOS/GOARCH here
// is never riscv64).
func trampolineUserVec()
func trampolineRestore(trapFrameVA, userSATP uint64)
