package proc

// cell is a single-HART-safe interior-mutable cell (spec.md 5, 9): a
// single-owner value whose borrow fails loudly on re-entry, rather than
// blocking. It stands in for Rust's RefCell<T> wrapped in a single-HART
// "unsafe cell" the original kernel uses for its process-wide tables.
// Convention: callers must drop the borrow (call unlock) before
// invoking System.Yield or any other suspension point.
type cell struct {
	borrowed bool
}

func (c *cell) lock(what string) {
	if c.borrowed {
		panic("cell: " + what + " borrowed twice")
	}
	c.borrowed = true
}

func (c *cell) unlock() {
	if !c.borrowed {
		panic("cell: unlocking a cell that was not borrowed")
	}
	c.borrowed = false
}
