package fs

import "fmt"

// EasyFileSystem ties the superblock, bitmaps, and block cache together
// (spec.md 6): "create computes a balanced partition between inode area
// and data area... open validates the magic... root_inode returns the
// VFS handle for inode 0."
type EasyFileSystem struct {
	cache *BlockCacheManager
	sb    Superblock

	inodeBitmap *Bitmap
	dataBitmap  *Bitmap

	inodeAreaStart int
	dataAreaStart  int
}

// layoutBlockID returns the absolute block containing disk inode id,
// and the byte offset of its 128-byte record within that block.
func (efs *EasyFileSystem) layoutBlockID(inodeID uint32) (int, int) {
	block := int(inodeID)/inodesPerBlock + efs.inodeAreaStart
	offset := (int(inodeID) % inodesPerBlock) * diskInodeSize
	return block, offset
}

// Create partitions totalBlocks into superblock + inode bitmap/area +
// data bitmap/area, zeroes every bitmap block, writes the superblock,
// and allocates inode 0 as the root directory (spec.md 6).
func Create(dev BlockDevice, totalBlocks, inodeBitmapBlocks uint32) *EasyFileSystem {
	cache := NewBlockCacheManager(dev)

	inodeBitmap := NewBitmap(1, int(inodeBitmapBlocks))
	inodeNumMax := inodeBitmap.MaximumBits()
	inodeAreaBlocks := uint32((inodeNumMax*diskInodeSize + BlockSize - 1) / BlockSize)
	inodeTotalBlocks := inodeBitmapBlocks + inodeAreaBlocks

	remaining := totalBlocks - 1 - inodeTotalBlocks
	dataBitmapBlocks := (remaining + 4*BlockSize - 1) / (4*BlockSize + 1)
	dataAreaBlocks := remaining - dataBitmapBlocks

	dataBitmap := NewBitmap(int(1+inodeTotalBlocks), int(dataBitmapBlocks))

	efs := &EasyFileSystem{
		cache:           cache,
		inodeBitmap:     inodeBitmap,
		dataBitmap:      dataBitmap,
		inodeAreaStart:  int(1 + inodeBitmapBlocks),
		dataAreaStart:   int(1 + inodeTotalBlocks + dataBitmapBlocks),
	}

	for i := 0; i < int(1+inodeTotalBlocks+dataBitmapBlocks+dataAreaBlocks); i++ {
		cache.Modify(i, func(buf []byte) {
			for j := range buf {
				buf[j] = 0
			}
		})
	}

	rootInodeID := efs.allocInode()
	if rootInodeID != 0 {
		panic("fs.Create: root inode must be id 0")
	}
	block, offset := efs.layoutBlockID(0)
	cache.Modify(block, func(buf []byte) {
		var di DiskInode
		di.initialize(TypeDirectory)
		encodeInode(&di, buf[offset:offset+diskInodeSize])
	})

	efs.sb = Superblock{
		Magic:             efsMagic,
		TotalBlocks:       totalBlocks,
		InodeBitmapBlocks: inodeBitmapBlocks,
		InodeAreaBlocks:   inodeAreaBlocks,
		DataBitmapBlocks:  dataBitmapBlocks,
		DataAreaBlocks:    dataAreaBlocks,
	}
	cache.Modify(0, func(buf []byte) { efs.sb.encode(buf) })
	cache.SyncAll()
	return efs
}

// Open validates the superblock magic and reconstructs the filesystem
// view over dev (spec.md 6).
func Open(dev BlockDevice) (*EasyFileSystem, error) {
	cache := NewBlockCacheManager(dev)
	var sb Superblock
	cache.Read(0, func(buf []byte) { sb = decodeSuperblock(buf) })
	if !sb.Valid() {
		return nil, fmt.Errorf("fs.Open: bad superblock magic %#x", sb.Magic)
	}
	inodeTotalBlocks := sb.InodeBitmapBlocks + sb.InodeAreaBlocks
	return &EasyFileSystem{
		cache:          cache,
		sb:             sb,
		inodeBitmap:    NewBitmap(1, int(sb.InodeBitmapBlocks)),
		dataBitmap:     NewBitmap(int(1+inodeTotalBlocks), int(sb.DataBitmapBlocks)),
		inodeAreaStart: int(1 + sb.InodeBitmapBlocks),
		dataAreaStart:  int(1 + inodeTotalBlocks + sb.DataBitmapBlocks),
	}, nil
}

func (efs *EasyFileSystem) allocInode() uint32 {
	bit := efs.inodeBitmap.Alloc(efs.cache)
	if bit < 0 {
		panic("fs: inode bitmap exhausted")
	}
	return uint32(bit)
}

// allocData allocates one data block and returns its absolute block id.
func (efs *EasyFileSystem) allocData() uint32 {
	bit := efs.dataBitmap.Alloc(efs.cache)
	if bit < 0 {
		panic("fs: data bitmap exhausted")
	}
	return uint32(bit + efs.dataAreaStart)
}

func (efs *EasyFileSystem) deallocData(blockID uint32) {
	efs.cache.Modify(int(blockID), func(buf []byte) {
		for i := range buf {
			buf[i] = 0
		}
	})
	efs.dataBitmap.Dealloc(efs.cache, int(blockID)-efs.dataAreaStart)
}

// RootInode returns the VFS handle for inode 0 (spec.md 6).
func (efs *EasyFileSystem) RootInode() *Inode {
	block, offset := efs.layoutBlockID(0)
	return &Inode{efs: efs, blockID: block, blockOffset: offset}
}

func encodeInode(d *DiskInode, buf []byte) {
	// A DiskInode is encoded as a plain fixed-width record: the Go
	// struct layout already matches spec.md's field order, so the cache
	// buffer doubles as storage via direct field copies below.
	off := 0
	putU32(buf, off, d.Size)
	off += 4
	for _, v := range d.Direct {
		putU32(buf, off, v)
		off += 4
	}
	putU32(buf, off, d.Indirect1)
	off += 4
	putU32(buf, off, d.Indirect2)
	off += 4
	typ := uint32(0)
	if d.Type == TypeDirectory {
		typ = 1
	}
	putU32(buf, off, typ)
}

func decodeInode(buf []byte) DiskInode {
	var d DiskInode
	off := 0
	d.Size = getU32(buf, off)
	off += 4
	for i := range d.Direct {
		d.Direct[i] = getU32(buf, off)
		off += 4
	}
	d.Indirect1 = getU32(buf, off)
	off += 4
	d.Indirect2 = getU32(buf, off)
	off += 4
	if getU32(buf, off) == 1 {
		d.Type = TypeDirectory
	} else {
		d.Type = TypeFile
	}
	return d
}

func putU32(buf []byte, off int, v uint32) {
	buf[off] = byte(v)
	buf[off+1] = byte(v >> 8)
	buf[off+2] = byte(v >> 16)
	buf[off+3] = byte(v >> 24)
}

func getU32(buf []byte, off int) uint32 {
	return uint32(buf[off]) | uint32(buf[off+1])<<8 | uint32(buf[off+2])<<16 | uint32(buf[off+3])<<24
}
