package fs

import "sync"

// Inode is the VFS-level handle syscalls consume (spec.md 3, 6): a
// location (block id + in-block offset) of a DiskInode plus the owning
// filesystem. All operations serialize on efs's lock (spec.md 6: "all
// serialized by the filesystem lock").
type Inode struct {
	efs         *EasyFileSystem
	blockID     int
	blockOffset int
}

var fsLock sync.Mutex

func (ino *Inode) readDisk(fn func(d *DiskInode)) {
	ino.efs.cache.Read(ino.blockID, func(buf []byte) {
		d := decodeInode(buf[ino.blockOffset : ino.blockOffset+diskInodeSize])
		fn(&d)
	})
}

func (ino *Inode) modifyDisk(fn func(d *DiskInode)) {
	ino.efs.cache.Modify(ino.blockID, func(buf []byte) {
		d := decodeInode(buf[ino.blockOffset : ino.blockOffset+diskInodeSize])
		fn(&d)
		encodeInode(&d, buf[ino.blockOffset:ino.blockOffset+diskInodeSize])
	})
}

func (ino *Inode) findInode(name string, dir *DiskInode) (uint32, bool) {
	count := dir.Size / dirEntrySize
	buf := make([]byte, dirEntrySize)
	for i := uint32(0); i < count; i++ {
		dir.readAt(i*dirEntrySize, buf, ino.efs.cache)
		e := decodeDirEntry(buf)
		if e.Name == name {
			return e.InodeID, true
		}
	}
	return 0, false
}

// Find scans the directory's entries for name and returns its VFS
// handle (spec.md 6: "find(name) -> inode? scans directory entries").
func (ino *Inode) Find(name string) *Inode {
	fsLock.Lock()
	defer fsLock.Unlock()
	var result *Inode
	ino.readDisk(func(d *DiskInode) {
		if !d.isDirectory() {
			return
		}
		if id, ok := ino.findInode(name, d); ok {
			block, offset := ino.efs.layoutBlockID(id)
			result = &Inode{efs: ino.efs, blockID: block, blockOffset: offset}
		}
	})
	return result
}

// increaseSizeLocked grows d to newSize, pre-allocating exactly the
// blocks blocksNumNeeded reports (spec.md 6).
func (ino *Inode) increaseSizeLocked(newSize uint32, d *DiskInode) {
	if newSize <= d.Size {
		return
	}
	need := blocksNumNeeded(d.Size, newSize)
	blocks := make([]uint32, need)
	for i := range blocks {
		blocks[i] = ino.efs.allocData()
	}
	d.increaseSize(newSize, blocks, ino.efs.cache)
}

// Create allocates a fresh file inode, appends a directory entry named
// name pointing to it, and returns its VFS handle, or nil if name
// already exists. The new file starts empty with no data block
// allocated; only the directory grows, by one entry.
func (ino *Inode) Create(name string) *Inode {
	fsLock.Lock()
	defer fsLock.Unlock()

	var exists bool
	ino.readDisk(func(d *DiskInode) {
		if _, ok := ino.findInode(name, d); ok {
			exists = true
		}
	})
	if exists {
		return nil
	}

	newInodeID := ino.efs.allocInode()
	block, offset := ino.efs.layoutBlockID(newInodeID)
	ino.efs.cache.Modify(block, func(buf []byte) {
		var d DiskInode
		d.initialize(TypeFile)
		encodeInode(&d, buf[offset:offset+diskInodeSize])
	})

	ino.modifyDisk(func(dir *DiskInode) {
		count := dir.Size / dirEntrySize
		newSize := (count + 1) * dirEntrySize
		ino.increaseSizeLocked(newSize, dir)
		entry := DirEntry{Name: name, InodeID: newInodeID}
		dir.writeAt(count*dirEntrySize, entry.encode(), ino.efs.cache)
	})

	return &Inode{efs: ino.efs, blockID: block, blockOffset: offset}
}

// Ls returns the names of every directory entry.
func (ino *Inode) Ls() []string {
	fsLock.Lock()
	defer fsLock.Unlock()
	var names []string
	ino.readDisk(func(d *DiskInode) {
		count := d.Size / dirEntrySize
		buf := make([]byte, dirEntrySize)
		for i := uint32(0); i < count; i++ {
			d.readAt(i*dirEntrySize, buf, ino.efs.cache)
			names = append(names, decodeDirEntry(buf).Name)
		}
	})
	return names
}

// ReadAt reads into buf starting at offset, returning the byte count
// read (spec.md 6: "read_at/write_at delegate to the disk inode").
func (ino *Inode) ReadAt(offset uint32, buf []byte) int {
	fsLock.Lock()
	defer fsLock.Unlock()
	var n int
	ino.readDisk(func(d *DiskInode) {
		n = d.readAt(offset, buf, ino.efs.cache)
	})
	return n
}

// WriteAt writes buf at offset, growing the inode first if offset+len
// exceeds the current size (spec.md 6: "growing on write past end,
// calling increase_size with a pre-allocated block vector").
func (ino *Inode) WriteAt(offset uint32, buf []byte) int {
	fsLock.Lock()
	defer fsLock.Unlock()
	var n int
	ino.modifyDisk(func(d *DiskInode) {
		end := offset + uint32(len(buf))
		ino.increaseSizeLocked(end, d)
		n = d.writeAt(offset, buf, ino.efs.cache)
	})
	return n
}

// Clear truncates the inode to zero, freeing every block it held back
// to the data bitmap (spec.md 6: "clear truncates to zero and frees
// blocks").
func (ino *Inode) Clear() {
	fsLock.Lock()
	defer fsLock.Unlock()
	ino.modifyDisk(func(d *DiskInode) {
		freed := d.clearSize(ino.efs.cache)
		for _, blk := range freed {
			ino.efs.deallocData(blk)
		}
	})
}

// Size returns the inode's current byte size.
func (ino *Inode) Size() uint32 {
	fsLock.Lock()
	defer fsLock.Unlock()
	var size uint32
	ino.readDisk(func(d *DiskInode) { size = d.Size })
	return size
}
