package fdtable

import (
	"testing"

	"ekernel/defs"
	"ekernel/file"
)

func TestNewDefaultHasStdinStdoutStdout(t *testing.T) {
	tbl := NewDefault(func() {})
	for fd := 0; fd < 3; fd++ {
		if _, ok := tbl.Get(fd); !ok {
			t.Fatalf("fd %d missing from default table", fd)
		}
	}
	if _, ok := tbl.Get(3); ok {
		t.Fatal("expected fd 3 to be unallocated")
	}
}

func TestAllocReusesLowestFreedSlot(t *testing.T) {
	tbl := NewDefault(func() {})
	fd := tbl.Alloc(file.Stdout{})
	if fd != 3 {
		t.Fatalf("Alloc = %d, want 3", fd)
	}
	if err := tbl.Close(1); err != 0 {
		t.Fatalf("Close(1) = %d, want 0", err)
	}
	reused := tbl.Alloc(file.Stdout{})
	if reused != 1 {
		t.Fatalf("Alloc after close = %d, want 1 (lowest free slot)", reused)
	}
}

func TestCloseUnknownFdReturnsEBADF(t *testing.T) {
	tbl := NewDefault(func() {})
	if err := tbl.Close(99); err != defs.EBADF {
		t.Fatalf("Close(99) = %d, want EBADF", err)
	}
}

func TestCloneSharesUnderlyingFilesByReference(t *testing.T) {
	tbl := NewDefault(func() {})
	clone := tbl.Clone()
	f1, _ := tbl.Get(1)
	f2, _ := clone.Get(1)
	if f1 != f2 {
		t.Fatal("Clone must alias the same File values (fork shares fd ownership)")
	}

	// Closing in the clone must not affect the original (spec.md 9:
	// duplicated by pointer to the underlying File, not a shared slice).
	clone.Close(1)
	if _, ok := tbl.Get(1); !ok {
		t.Fatal("closing fd in the clone must not close it in the original")
	}
}
