package proc

import (
	"ekernel/defs"
	"ekernel/mem"
	"ekernel/vm"
)

// KernelStackPosition computes the [bottom, top) virtual range for the
// kernel stack of the process with the given PID, descending from the
// trampoline in (stack + guard) strides (spec.md 3, 6): "top =
// TRAMPOLINE - pid*(KERNEL_STACK_SIZE+PAGE_SIZE); bottom = top -
// KERNEL_STACK_SIZE".
func KernelStackPosition(pid defs.Pid_t) (bottom, top mem.VirtAddr) {
	top = mem.VirtAddr(defs.Trampoline) - mem.VirtAddr(int(pid)*(defs.KernelStackSize+defs.PageSize))
	bottom = top - defs.KernelStackSize
	return
}

// KernelStack is a fixed-size framed region in kernel space, indexed by
// PID (spec.md 3: "Kernel Stack"). Mapped during PCB creation; per
// spec.md 9's retained-semantics note, it is not explicitly unmapped on
// process exit (mirrors original_source's commented-out Drop impl).
type KernelStack struct {
	PID defs.Pid_t
	Top mem.VirtAddr
}

// NewKernelStack maps the kernel stack for pid into kernelSpace and
// returns its descriptor.
func NewKernelStack(kernelSpace *vm.MemorySpace, pid defs.Pid_t) *KernelStack {
	bottom, top := KernelStackPosition(pid)
	kernelSpace.InsertFramedArea(bottom, top, mem.PTER|mem.PTEW, nil)
	return &KernelStack{PID: pid, Top: top}
}
