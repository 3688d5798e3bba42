package console

import "sync/atomic"

// This hosted simulation has no mtime CSR to read, so GetTime is backed
// by a monotonically incrementing software counter advanced by the
// scheduler's timer-interrupt simulation, not by real elapsed time.

var ticks atomic.Uint64
var nextTrigger atomic.Uint64

// GetTime is the SBI-adjacent timer read (spec.md 8), returning the
// current software tick count.
func GetTime() uint64 {
	return ticks.Load()
}

// AdvanceTime advances the software clock by n ticks, simulating
// elapsed hardware time between scheduler iterations.
func AdvanceTime(n uint64) {
	ticks.Add(n)
}

// SetNextTrigger arms the next timer interrupt at TicksPerSec/100-style
// deadlines (spec.md 4.4: "set_next_trigger then suspend-current-and-
// run-next").
func SetNextTrigger(intervalTicks uint64) {
	nextTrigger.Store(ticks.Load() + intervalTicks)
}

// TimerDue reports whether the armed deadline has passed.
func TimerDue() bool {
	return ticks.Load() >= nextTrigger.Load()
}
