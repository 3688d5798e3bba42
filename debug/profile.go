// Package debug provides scheduler-sampling diagnostics built on
// github.com/google/pprof/profile (SPEC_FULL.md 2.2): a developer
// aid for seeing which PIDs accumulate the most scheduled time,
// emitted in pprof's standard profile.proto format so it can be
// inspected with `go tool pprof` like any other Go profile.
package debug

import (
	"io"
	"strconv"
	"time"

	"github.com/google/pprof/profile"

	"ekernel/defs"
)

// Sample is one scheduler quantum attributed to a PID.
type Sample struct {
	PID      defs.Pid_t
	Command  string
	Duration time.Duration
}

// Scheduler accumulates the Samples passed to Record and can Write
// them out as a pprof profile.
type Scheduler struct {
	samples []Sample
}

// Record appends one scheduled quantum (called by a test harness or an
// instrumented scheduler loop, not by the production RunOne path,
// which spec.md's non-goals exclude from the core scheduling logic).
func (s *Scheduler) Record(smp Sample) {
	s.samples = append(s.samples, smp)
}

// Write encodes the accumulated samples as a pprof CPU-style profile,
// one sample per scheduled quantum, labeled by PID and command name.
func (s *Scheduler) Write(w io.Writer) error {
	pidFn := &profile.Function{ID: 1, Name: "scheduled_quantum"}
	loc := &profile.Location{ID: 1, Line: []profile.Line{{Function: pidFn}}}
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "cpu", Unit: "nanoseconds"}},
		Function:   []*profile.Function{pidFn},
		Location:   []*profile.Location{loc},
		TimeNanos:  time.Now().UnixNano(),
	}
	for _, smp := range s.samples {
		prof.Sample = append(prof.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{smp.Duration.Nanoseconds()},
			Label: map[string][]string{
				"pid":     {strconv.Itoa(int(smp.PID))},
				"command": {smp.Command},
			},
		})
	}
	return prof.Write(w)
}
