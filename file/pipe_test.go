package file

import (
	"runtime"
	"testing"
)

// TestPipeWriteThenReadRoundTrip mirrors spec.md 9's pipe property: for
// any writer byte sequence W and reader buffer capacity C repeatedly
// invoked until writer closes, the concatenated read output equals W.
func TestPipeWriteThenReadRoundTrip(t *testing.T) {
	yielded := 0
	yield := func() { yielded++ }
	r, w := NewPipe(yield)

	msg := []byte("ping")
	if n, errc := w.Write(msg); n != len(msg) || errc != 0 {
		t.Fatalf("Write = (%d, %d), want (%d, 0)", n, errc, len(msg))
	}

	buf := make([]byte, 2)
	got := make([]byte, 0, len(msg))
	for len(got) < len(msg) {
		n, errc := r.Read(buf)
		if errc != 0 {
			t.Fatalf("Read errc = %d", errc)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "ping" {
		t.Fatalf("got %q, want %q", got, "ping")
	}
	if yielded != 0 {
		t.Fatalf("expected no yields while data was available, got %d", yielded)
	}
}

// TestPipeReadBlocksUntilWriterGC verifies Read keeps yielding while
// empty and the writer is still reachable, and returns once the writer
// end has been collected (spec.md 3: "reader end holds a weak reference
// to the writer to detect EOF").
func TestPipeReadBlocksUntilWriterGC(t *testing.T) {
	yields := 0
	var w *PipeWriteEnd
	var r *PipeReadEnd
	r, w = NewPipe(func() {
		yields++
		if yields == 3 {
			w = nil
			runtime.GC()
		}
	})
	_ = w

	buf := make([]byte, 4)
	n, errc := r.Read(buf)
	if errc != 0 {
		t.Fatalf("Read errc = %d", errc)
	}
	if n != 0 {
		t.Fatalf("Read n = %d, want 0 once writer is gone", n)
	}
	if yields < 3 {
		t.Fatalf("expected at least 3 yields before writer collection, got %d", yields)
	}
}

func TestPipeRingFullAtCapacityAndFreesOnRead(t *testing.T) {
	reads := 0
	r, w := NewPipe(func() {})
	full := make([]byte, pipeRingSize-1)
	for i := range full {
		full[i] = byte(i)
	}
	// Fill the ring in a goroutine-free, single-step fashion: write
	// exactly capacity, which must not block.
	if n, _ := w.Write(full); n != len(full) {
		t.Fatalf("filling write returned %d, want %d", n, len(full))
	}
	if !r.ring.isFull() {
		t.Fatal("expected ring to report full after filling it to capacity")
	}
	// Draining one byte must unblock exactly one more byte of capacity.
	one := make([]byte, 1)
	r.Read(one)
	reads++
	if r.ring.isFull() {
		t.Fatal("expected ring to have room after one byte drained")
	}
	_ = reads
}
