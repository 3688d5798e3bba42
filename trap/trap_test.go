package trap

import (
	"testing"

	"ekernel/defs"
	"ekernel/mem"
)

func TestNewTrapFrameSetsUserModeAndSP(t *testing.T) {
	tf := NewTrapFrame(0x1000, 0x2000, 0x8000000000000abc, 0xf000, defs.Trampoline)
	if tf.Sstatus&sstatusSPP != 0 {
		t.Fatal("expected SPP clear (User) on a freshly built trap frame")
	}
	if tf.Sepc != 0x1000 {
		t.Fatalf("Sepc = %#x, want 0x1000", tf.Sepc)
	}
	if tf.X[2] != 0x2000 {
		t.Fatalf("sp (x2) = %#x, want 0x2000", tf.X[2])
	}
}

func TestFrameAtRoundTripsThroughArenaBytes(t *testing.T) {
	arena := mem.NewArena(4 * defs.PageSize)
	ppn := mem.PhysPageNum(1)
	tf := FrameAt(arena, ppn)
	*tf = NewTrapFrame(0x10000, 0x20000, 0, 0, 0)
	tf.SetA0(42)

	reread := FrameAt(arena, ppn)
	if reread.A0() != 42 {
		t.Fatalf("A0 = %d, want 42", reread.A0())
	}
	if reread.Sepc != 0x10000 {
		t.Fatalf("Sepc = %#x, want 0x10000", reread.Sepc)
	}
}

func TestHandleEcallAdvancesSepcAndDispatchesSyscall(t *testing.T) {
	tf := NewTrapFrame(0x1000, 0x2000, 0, 0, 0)
	tf.X[17] = 64 // a7: syscall id
	tf.X[10] = 7  // a0

	var gotID, gotA0 uint64
	hooks := Hooks{
		Syscall: func(id, a0, a1, a2 uint64) uint64 {
			gotID, gotA0 = id, a0
			return 99
		},
	}
	Handle(&tf, UserEcall, 0, hooks)

	if tf.Sepc != 0x1004 {
		t.Fatalf("Sepc = %#x, want 0x1004 (advanced by 4)", tf.Sepc)
	}
	if gotID != 64 || gotA0 != 7 {
		t.Fatalf("Syscall hook got (%d, %d), want (64, 7)", gotID, gotA0)
	}
	if tf.A0() != 99 {
		t.Fatalf("A0 after dispatch = %d, want 99 (return value written back)", tf.A0())
	}
}

func TestHandleFaultExitsWithCodeMinusOne(t *testing.T) {
	tf := NewTrapFrame(0, 0, 0, 0, 0)
	var exitCode int
	called := false
	hooks := Hooks{ExitCurrent: func(code int) { called = true; exitCode = code }}
	Handle(&tf, LoadPageFault, 0xdead0000, hooks)
	if !called || exitCode != -1 {
		t.Fatalf("ExitCurrent called=%v code=%d, want called=true code=-1", called, exitCode)
	}
}

func TestHandleIllegalInstructionExitsWithCodeMinusThree(t *testing.T) {
	tf := NewTrapFrame(0, 0, 0, 0, 0)
	var exitCode int
	hooks := Hooks{ExitCurrent: func(code int) { exitCode = code }}
	Handle(&tf, IllegalInstruction, 0, hooks)
	if exitCode != -3 {
		t.Fatalf("exit code = %d, want -3", exitCode)
	}
}

func TestHandleTimerArmsNextTriggerThenSuspends(t *testing.T) {
	tf := NewTrapFrame(0, 0, 0, 0, 0)
	order := ""
	hooks := Hooks{
		SetNextTrigger: func() { order += "arm;" },
		SuspendCurrent: func() { order += "suspend;" },
	}
	Handle(&tf, SupervisorTimer, 0, hooks)
	if order != "arm;suspend;" {
		t.Fatalf("order = %q, want %q", order, "arm;suspend;")
	}
}

func TestHandleOtherCausePanics(t *testing.T) {
	tf := NewTrapFrame(0, 0, 0, 0, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for an unrecognized trap cause")
		}
	}()
	Handle(&tf, Other, 0, Hooks{})
}
