package defs

// Device identifiers for the small set of device-backed files this
// kernel knows about. Trimmed from the teacher's much larger device
// table (sockets, raw disk, stat/prof pseudo-devices) down to what
// stdio and the block-backed file system actually need.
const (
	DConsole int = 1 // console device, backs stdin/stdout
	DRawdisk int = 2 // raw block device
)
