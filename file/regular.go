package file

import (
	"ekernel/defs"
	"ekernel/fs"
)

// RegularFile wraps a VFS inode with a per-open byte offset (spec.md
// 4.10: "Regular file: wraps a VFS inode, tracks a per-open offset,
// reads/writes via read_at/write_at").
type RegularFile struct {
	inode    *fs.Inode
	readable bool
	writable bool
	offset   uint32
}

// NewRegularFile opens inode with the given access mode.
func NewRegularFile(inode *fs.Inode, readable, writable bool) *RegularFile {
	return &RegularFile{inode: inode, readable: readable, writable: writable}
}

func (f *RegularFile) Readable() bool { return f.readable }
func (f *RegularFile) Writable() bool { return f.writable }

func (f *RegularFile) Read(buf []byte) (int, defs.Err_t) {
	if !f.readable {
		return 0, defs.EINVAL
	}
	n := f.inode.ReadAt(f.offset, buf)
	f.offset += uint32(n)
	return n, 0
}

func (f *RegularFile) Write(buf []byte) (int, defs.Err_t) {
	if !f.writable {
		return 0, defs.EINVAL
	}
	n := f.inode.WriteAt(f.offset, buf)
	f.offset += uint32(n)
	return n, 0
}
