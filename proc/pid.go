// Package proc implements the process control block, PID allocator,
// ready-queue manager, and round-robin scheduler (spec.md 4.4, 4.5).
// Grounded directly on original_source/kernel/src/proc/{pid,manager,
// cpu,switch,kernel_stack}.rs, since the teacher's own proc package is
// an empty stub in the retrieved corpus — there is no teacher Go source
// to adapt here, so this is authored fresh from the Rust original in the
// surrounding packages' Go idiom (doc-comment density, Err_t-style
// returns, panic-on-invariant-violation).
package proc

import "ekernel/defs"

// PidAllocator is a monotonically increasing counter plus a recycle
// stack, matching spec.md 4.4: "next-id counter starts at 1 (0 reserved
// for INIT) with recycle stack".
type PidAllocator struct {
	next     defs.Pid_t
	recycled []defs.Pid_t
}

// NewPidAllocator returns an allocator whose first issued PID is 1.
func NewPidAllocator() *PidAllocator {
	return &PidAllocator{next: 1}
}

func (a *PidAllocator) alloc() defs.Pid_t {
	if n := len(a.recycled); n > 0 {
		pid := a.recycled[n-1]
		a.recycled = a.recycled[:n-1]
		return pid
	}
	pid := a.next
	a.next++
	return pid
}

func (a *PidAllocator) dealloc(pid defs.Pid_t) {
	for _, p := range a.recycled {
		if p == pid {
			panic("pid already deallocated")
		}
	}
	a.recycled = append(a.recycled, pid)
}

// PidTracker owns one allocated PID. Call Drop exactly once when the
// owning PCB is reaped.
type PidTracker struct {
	PID     defs.Pid_t
	alloc   *PidAllocator
	dropped bool
}

// Alloc issues a fresh PID.
func (a *PidAllocator) Alloc() *PidTracker {
	return &PidTracker{PID: a.alloc(), alloc: a}
}

// Drop returns the PID to the allocator's recycle stack.
func (t *PidTracker) Drop() {
	if t.dropped {
		panic("double drop of PidTracker")
	}
	t.dropped = true
	t.alloc.dealloc(t.PID)
}
