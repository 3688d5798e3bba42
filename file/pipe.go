package file

import (
	"weak"

	"ekernel/defs"
)

// pipeRingSize is the pipe's fixed capacity (spec.md 3, 4.10): "a
// 32-byte ring buffer shared by two file ends". Fixed-size, no lazy
// growth — unlike the teacher's circbuf.Circbuf_t, which lazily
// allocates a backing page and supports arbitrary sizes up to PGSIZE.
const pipeRingSize = 32 + 1 // +1 so head==tail means empty, matching spec.md's is_full formula

type pipeRing struct {
	buf        [pipeRingSize]byte
	head, tail int
}

func (r *pipeRing) isEmpty() bool { return r.head == r.tail }
func (r *pipeRing) isFull() bool  { return (r.head+1)%pipeRingSize == r.tail }

// PipeReadEnd is a pipe's read end (spec.md 3): it holds only a weak
// reference to the write end, so the write end's reachability (via the
// writer process's fd table) is what keeps the pipe open; once every
// strong reference to the writer is dropped and it is collected, Value
// returns nil and Read treats that as EOF.
type PipeReadEnd struct {
	ring   *pipeRing
	writer weak.Pointer[PipeWriteEnd]
	yield  func()
}

// PipeWriteEnd is a pipe's write end; it owns the ring directly (the
// strong reference).
type PipeWriteEnd struct {
	ring  *pipeRing
	yield func()
}

// NewPipe creates a connected pipe pair. yield is called whenever
// Read/Write must block (spec.md 4.10: "Read blocks by yielding to the
// scheduler whenever empty... Write blocks by yielding when full"); it
// is the scheduler's suspend_current_and_run_next, injected so this
// package has no dependency on proc.
func NewPipe(yield func()) (*PipeReadEnd, *PipeWriteEnd) {
	ring := &pipeRing{}
	w := &PipeWriteEnd{ring: ring, yield: yield}
	r := &PipeReadEnd{ring: ring, writer: weak.Make(w), yield: yield}
	return r, w
}

func (r *PipeReadEnd) Readable() bool { return true }
func (r *PipeReadEnd) Writable() bool { return false }

// Read blocks while the ring is empty and the writer is still alive,
// yielding each iteration; it returns as soon as any bytes are
// available (up to len(buf)), or 0 once the writer is gone and the ring
// is drained (spec.md 4.10).
func (r *PipeReadEnd) Read(buf []byte) (int, defs.Err_t) {
	if len(buf) == 0 {
		return 0, 0
	}
	for {
		if !r.ring.isEmpty() {
			n := 0
			for n < len(buf) && !r.ring.isEmpty() {
				buf[n] = r.ring.buf[r.ring.tail]
				r.ring.tail = (r.ring.tail + 1) % pipeRingSize
				n++
			}
			return n, 0
		}
		if r.writer.Value() == nil {
			return 0, 0
		}
		r.yield()
	}
}

func (r *PipeReadEnd) Write(buf []byte) (int, defs.Err_t) {
	return 0, defs.EINVAL
}

func (w *PipeWriteEnd) Readable() bool { return false }
func (w *PipeWriteEnd) Writable() bool { return true }

func (w *PipeWriteEnd) Read(buf []byte) (int, defs.Err_t) {
	return 0, defs.EINVAL
}

// Write blocks while the ring is full, yielding each iteration, writing
// as many bytes as fit each time the ring has room, until buf is fully
// written.
func (w *PipeWriteEnd) Write(buf []byte) (int, defs.Err_t) {
	n := 0
	for n < len(buf) {
		wrote := false
		for n < len(buf) && !w.ring.isFull() {
			w.ring.buf[w.ring.head] = buf[n]
			w.ring.head = (w.ring.head + 1) % pipeRingSize
			n++
			wrote = true
		}
		if n < len(buf) && !wrote {
			w.yield()
		}
	}
	return n, 0
}
