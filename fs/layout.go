package fs

import (
	"encoding/binary"

	"ekernel/util"
)

// On-disk layout constants (spec.md 3, 6), ported verbatim from
// original_source/easy_fs/src/layout.rs.
const (
	inodeDirectCount   = 28
	indirect1Bound     = inodeDirectCount + blockIDsPerBlock
	indirect2Bound     = indirect1Bound + blockIDsPerBlock*blockIDsPerBlock
	blockIDsPerBlock   = BlockSize / 4 // 128 uint32 block ids per indirect block
	diskInodeSize      = 128
	inodesPerBlock     = BlockSize / diskInodeSize
	nameLength         = 28
	dirEntrySize       = 32
	efsMagic           = 0x12454653 // 0x12 'E' 'F' 'S'
)

// InodeType distinguishes a regular file from a directory (spec.md 3).
type InodeType int

const (
	TypeFile InodeType = iota
	TypeDirectory
)

// Superblock is block 0 of the image (spec.md 3, 6).
type Superblock struct {
	Magic             uint32
	TotalBlocks       uint32
	InodeBitmapBlocks uint32
	InodeAreaBlocks   uint32
	DataBitmapBlocks  uint32
	DataAreaBlocks    uint32
}

func (s *Superblock) encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:], s.Magic)
	binary.LittleEndian.PutUint32(buf[4:], s.TotalBlocks)
	binary.LittleEndian.PutUint32(buf[8:], s.InodeBitmapBlocks)
	binary.LittleEndian.PutUint32(buf[12:], s.InodeAreaBlocks)
	binary.LittleEndian.PutUint32(buf[16:], s.DataBitmapBlocks)
	binary.LittleEndian.PutUint32(buf[20:], s.DataAreaBlocks)
}

func decodeSuperblock(buf []byte) Superblock {
	return Superblock{
		Magic:             binary.LittleEndian.Uint32(buf[0:]),
		TotalBlocks:       binary.LittleEndian.Uint32(buf[4:]),
		InodeBitmapBlocks: binary.LittleEndian.Uint32(buf[8:]),
		InodeAreaBlocks:   binary.LittleEndian.Uint32(buf[12:]),
		DataBitmapBlocks:  binary.LittleEndian.Uint32(buf[16:]),
		DataAreaBlocks:    binary.LittleEndian.Uint32(buf[20:]),
	}
}

// Valid reports whether the magic matches spec.md's `0x12 'E' 'F' 'S'`.
func (s *Superblock) Valid() bool { return s.Magic == efsMagic }

// DiskInode is the on-disk metadata for one file or directory (spec.md
// 3, 6): {size, direct[28], indirect1, indirect2, type}.
type DiskInode struct {
	Size      uint32
	Direct    [inodeDirectCount]uint32
	Indirect1 uint32
	Indirect2 uint32
	Type      InodeType
}

func (d *DiskInode) initialize(t InodeType) {
	*d = DiskInode{Type: t}
}

func (d *DiskInode) isDirectory() bool { return d.Type == TypeDirectory }

// dataBlocks returns the number of data blocks currently used at the
// inode's size.
func (d *DiskInode) dataBlocks() uint32 {
	return blocksNeededForSize(d.Size)
}

func blocksNeededForSize(size uint32) uint32 {
	return util.Roundup(size, uint32(BlockSize)) / BlockSize
}

// totalBlocks returns data blocks plus the indirect index blocks needed
// to address them, per original_source's total_blocks.
func totalBlocksForSize(size uint32) uint32 {
	data := blocksNeededForSize(size)
	total := data
	if data > inodeDirectCount {
		total++ // indirect1 block
	}
	if data > indirect1Bound {
		extra := data - indirect1Bound
		total += 1 + util.Roundup(extra, uint32(blockIDsPerBlock))/blockIDsPerBlock
	}
	return total
}

// blocksNumNeeded returns how many additional blocks (data + newly
// crossed indirect index blocks) growing from oldSize to newSize
// requires (spec.md 6: "in the exact count returned by
// blocks_num_needed").
func blocksNumNeeded(oldSize, newSize uint32) uint32 {
	return totalBlocksForSize(newSize) - totalBlocksForSize(oldSize)
}

// getBlockID resolves the inner-index'th data block id of the inode,
// walking direct/indirect1/indirect2 as needed (spec.md 6).
func (d *DiskInode) getBlockID(cache *BlockCacheManager, innerID uint32) uint32 {
	idx := int(innerID)
	switch {
	case idx < inodeDirectCount:
		return d.Direct[idx]
	case idx < indirect1Bound:
		var id uint32
		cache.Read(int(d.Indirect1), func(buf []byte) {
			id = readBlockIDs(buf)[idx-inodeDirectCount]
		})
		return id
	default:
		idx -= indirect1Bound
		first, second := idx/blockIDsPerBlock, idx%blockIDsPerBlock
		var indirect2Block uint32
		cache.Read(int(d.Indirect2), func(buf []byte) {
			indirect2Block = readBlockIDs(buf)[first]
		})
		var id uint32
		cache.Read(int(indirect2Block), func(buf []byte) {
			id = readBlockIDs(buf)[second]
		})
		return id
	}
}

func readBlockIDs(buf []byte) []uint32 {
	ids := make([]uint32, blockIDsPerBlock)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return ids
}

func writeBlockID(buf []byte, idx int, id uint32) {
	binary.LittleEndian.PutUint32(buf[idx*4:], id)
}

// increaseSize grows the inode to newSize, consuming exactly
// blocksNumNeeded(Size, newSize) freshly allocated block ids from
// newBlocks in order: direct slots, then the indirect1 index block (and
// its entries), then indirect2 index blocks (and their entries),
// allocating index blocks lazily as each boundary is crossed (spec.md
// 6). Mirrors original_source's DiskInode::increase_size exactly.
func (d *DiskInode) increaseSize(newSize uint32, newBlocks []uint32, cache *BlockCacheManager) {
	pos := 0
	take := func() uint32 {
		id := newBlocks[pos]
		pos++
		return id
	}

	currentBlocks := d.dataBlocks()
	d.Size = newSize
	total := d.dataBlocks()

	idx := currentBlocks
	// Fill remaining direct slots.
	for idx < total && idx < inodeDirectCount {
		d.Direct[idx] = take()
		idx++
	}
	if total <= inodeDirectCount {
		return
	}

	if currentBlocks <= inodeDirectCount {
		d.Indirect1 = take()
	}
	indirect1End := total
	if indirect1End > indirect1Bound {
		indirect1End = indirect1Bound
	}
	cache.Modify(int(d.Indirect1), func(buf []byte) {
		for i := idx; i < indirect1End; i++ {
			writeBlockID(buf, int(i-inodeDirectCount), take())
		}
	})
	idx = indirect1End
	if total <= indirect1Bound {
		return
	}

	if currentBlocks <= indirect1Bound {
		d.Indirect2 = take()
	}
	idx -= indirect1Bound
	total2 := total - indirect1Bound
	a0, b0 := idx/blockIDsPerBlock, idx%blockIDsPerBlock
	a1, b1 := total2/blockIDsPerBlock, total2%blockIDsPerBlock

	for a0 < a1 || (a0 == a1 && b0 < b1) {
		if b0 == 0 {
			var newSub uint32
			cache.Modify(int(d.Indirect2), func(buf []byte) {
				newSub = take()
				writeBlockID(buf, int(a0), newSub)
			})
		}
		var subBlock uint32
		cache.Read(int(d.Indirect2), func(buf []byte) {
			subBlock = readBlockIDs(buf)[a0]
		})
		end := uint32(blockIDsPerBlock)
		if a0 == a1 {
			end = b1
		}
		cache.Modify(int(subBlock), func(buf []byte) {
			for i := b0; i < end; i++ {
				writeBlockID(buf, int(i), take())
			}
		})
		b0 = 0
		a0++
	}
}

// clearSize truncates the inode to zero, returning every data and index
// block id that must be freed (spec.md 6: "clear_size returns the list
// of every block to be freed").
func (d *DiskInode) clearSize(cache *BlockCacheManager) []uint32 {
	var freed []uint32
	dataTotal := d.dataBlocks()
	d.Size = 0

	n := dataTotal
	if n > inodeDirectCount {
		n = inodeDirectCount
	}
	for i := uint32(0); i < n; i++ {
		freed = append(freed, d.Direct[i])
		d.Direct[i] = 0
	}
	if dataTotal <= inodeDirectCount {
		return freed
	}

	indirect1Count := dataTotal - inodeDirectCount
	if indirect1Count > blockIDsPerBlock {
		indirect1Count = blockIDsPerBlock
	}
	cache.Read(int(d.Indirect1), func(buf []byte) {
		ids := readBlockIDs(buf)
		for i := uint32(0); i < indirect1Count; i++ {
			freed = append(freed, ids[i])
		}
	})
	freed = append(freed, d.Indirect1)
	d.Indirect1 = 0
	if dataTotal <= indirect1Bound {
		return freed
	}

	remaining := dataTotal - indirect1Bound
	full := remaining / blockIDsPerBlock
	last := remaining % blockIDsPerBlock

	cache.Read(int(d.Indirect2), func(buf []byte) {
		ids := readBlockIDs(buf)
		for a := uint32(0); a < full; a++ {
			sub := ids[a]
			cache.Read(int(sub), func(sbuf []byte) {
				subIDs := readBlockIDs(sbuf)
				for b := 0; b < blockIDsPerBlock; b++ {
					freed = append(freed, subIDs[b])
				}
			})
			freed = append(freed, sub)
		}
		if last > 0 {
			sub := ids[full]
			cache.Read(int(sub), func(sbuf []byte) {
				subIDs := readBlockIDs(sbuf)
				for b := uint32(0); b < last; b++ {
					freed = append(freed, subIDs[b])
				}
			})
			freed = append(freed, sub)
		}
	})
	freed = append(freed, d.Indirect2)
	d.Indirect2 = 0
	return freed
}

// readAt copies min(len(buf), Size-offset) bytes starting at offset into
// buf and returns the count read.
func (d *DiskInode) readAt(offset uint32, buf []byte, cache *BlockCacheManager) int {
	if offset >= d.Size {
		return 0
	}
	end := util.Min(offset+uint32(len(buf)), d.Size)
	readSize := 0
	start := offset
	for start < end {
		blockIdx := start / BlockSize
		blockEnd := util.Min((blockIdx+1)*BlockSize, end)
		n := int(blockEnd - start)
		blockID := d.getBlockID(cache, blockIdx)
		cache.Read(int(blockID), func(bbuf []byte) {
			off := start % BlockSize
			copy(buf[readSize:readSize+n], bbuf[off:int(off)+n])
		})
		readSize += n
		start = blockEnd
	}
	return readSize
}

// writeAt writes buf at offset, which the caller must have already
// grown the inode to accommodate via increaseSize.
func (d *DiskInode) writeAt(offset uint32, buf []byte, cache *BlockCacheManager) int {
	end := util.Min(offset+uint32(len(buf)), d.Size)
	writeSize := 0
	start := offset
	for start < end {
		blockIdx := start / BlockSize
		blockEnd := util.Min((blockIdx+1)*BlockSize, end)
		n := int(blockEnd - start)
		blockID := d.getBlockID(cache, blockIdx)
		cache.Modify(int(blockID), func(bbuf []byte) {
			off := start % BlockSize
			copy(bbuf[off:int(off)+n], buf[writeSize:writeSize+n])
		})
		writeSize += n
		start = blockEnd
	}
	return writeSize
}

// DirEntry is a packed 32-byte directory entry (spec.md 3, 6): 28-byte
// NUL-terminated name + 4-byte inode index.
type DirEntry struct {
	Name    string
	InodeID uint32
}

func (e DirEntry) encode() []byte {
	buf := make([]byte, dirEntrySize)
	copy(buf[:nameLength], e.Name)
	binary.LittleEndian.PutUint32(buf[nameLength:], e.InodeID)
	return buf
}

func decodeDirEntry(buf []byte) DirEntry {
	nul := nameLength
	for i, b := range buf[:nameLength] {
		if b == 0 {
			nul = i
			break
		}
	}
	return DirEntry{
		Name:    string(buf[:nul]),
		InodeID: binary.LittleEndian.Uint32(buf[nameLength:]),
	}
}
