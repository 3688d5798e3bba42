package proc

// Cpu is the single HART's scheduler-local state (spec.md 4.5):
// "{current: optional PCB, scheduler_context}". This kernel targets one
// HART, so there is exactly one Cpu, embedded in System.
type Cpu struct {
	Current      *PCB
	SchedulerCtx Context
}
