// Package accnt accumulates per-process CPU accounting, the way the
// teacher's accnt package backs getrusage. spec.md names no rusage-style
// syscall, so it is not part of the syscall ABI. Every PCB carries an
// Accnt, but the scheduler does not update it and nothing in the kernel
// reads it.
package accnt

import (
	"sync"
	"sync/atomic"
	"time"
)

// Accnt tracks user and system time consumed by a single process, in
// nanoseconds. The embedded mutex lets callers take a consistent
// snapshot when exporting usage data.
type Accnt struct {
	Userns int64
	Sysns  int64
	sync.Mutex
}

// Utadd adds delta nanoseconds to the user-time counter.
func (a *Accnt) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

// Systadd adds delta nanoseconds to the system-time counter.
func (a *Accnt) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

// Now returns the current time in nanoseconds since the Unix epoch.
func (a *Accnt) Now() int64 {
	return time.Now().UnixNano()
}

// Add merges another accounting record into this one.
func (a *Accnt) Add(n *Accnt) {
	a.Lock()
	a.Userns += atomic.LoadInt64(&n.Userns)
	a.Sysns += atomic.LoadInt64(&n.Sysns)
	a.Unlock()
}

// Snapshot returns a consistent copy of the current counters.
func (a *Accnt) Snapshot() (userns, sysns int64) {
	a.Lock()
	userns, sysns = a.Userns, a.Sysns
	a.Unlock()
	return
}
