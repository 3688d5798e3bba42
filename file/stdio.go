package file

import (
	"ekernel/console"
	"ekernel/defs"
)

// Stdin is the blocking SBI-backed console reader (spec.md 4.10:
// "Stdin uses a blocking SBI-backed console read").
type Stdin struct{ Yield func() }

func (Stdin) Readable() bool { return true }
func (Stdin) Writable() bool { return false }

func (s Stdin) Read(buf []byte) (int, defs.Err_t) {
	if len(buf) == 0 {
		return 0, 0
	}
	for {
		c, ok := console.GetChar()
		if ok {
			buf[0] = c
			return 1, 0
		}
		s.Yield()
	}
}

func (Stdin) Write(buf []byte) (int, defs.Err_t) {
	return 0, defs.EINVAL
}

// Stdout writes each byte to the console (spec.md 4.10: "stdout writes
// each byte to SBI").
type Stdout struct{}

func (Stdout) Readable() bool { return false }
func (Stdout) Writable() bool { return true }

func (Stdout) Read(buf []byte) (int, defs.Err_t) {
	return 0, defs.EINVAL
}

func (Stdout) Write(buf []byte) (int, defs.Err_t) {
	for _, b := range buf {
		console.PutChar(b)
	}
	return len(buf), 0
}
