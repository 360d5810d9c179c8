// Package buddy implements a power-of-two buddy system allocator over a
// single contiguous buffer.
package buddy

import (
	"unsafe"

	"github.com/zyuery/icmemory/internal/bitset"
	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/errs"
	"github.com/zyuery/icmemory/mem/sysmem"
)

// DefaultMinBlockSize is used by New when no block size is given.
const DefaultMinBlockSize = uintptr(16)

// Allocator is a power-of-two buddy system allocator over one buffer of
// N = minBlock * 2^(levels-1) bytes.
type Allocator struct {
	buf      mem.Buffer
	release  func() error
	parent   mem.Allocator
	minBlock uintptr
	levels   int

	freeList [][]uintptr    // per level, LIFO stack of block-start offsets
	allocated []bitset.Set  // per level, one bit per block index
	split     []bitset.Set  // per level, whether that level's block has been split into two children
	blockLevel map[uintptr]int // live allocation's pointer -> level it was served at
}

// New creates a BuddyAllocator backed by a freshly mapped buffer of at
// least bufferSize bytes, using DefaultMinBlockSize blocks.
func New(bufferSize uintptr) (*Allocator, error) {
	return NewSized(bufferSize, DefaultMinBlockSize)
}

// NewSized is New with an explicit minimum block size.
func NewSized(bufferSize, minBlockSize uintptr) (*Allocator, error) {
	a, totalSize, err := newUnbacked(bufferSize, minBlockSize)
	if err != nil {
		return nil, err
	}
	region, buf, err := sysmem.AcquireAligned(totalSize, totalSize)
	if err != nil {
		return nil, err
	}
	a.buf = buf
	a.release = region.Release
	a.initLevels(totalSize)
	return a, nil
}

// NewFrom creates a BuddyAllocator whose buffer is requested from parent,
// using DefaultMinBlockSize blocks.
func NewFrom(parent mem.Allocator, bufferSize uintptr) (*Allocator, error) {
	return NewFromSized(parent, bufferSize, DefaultMinBlockSize)
}

// NewFromSized is NewFrom with an explicit minimum block size.
func NewFromSized(parent mem.Allocator, bufferSize, minBlockSize uintptr) (*Allocator, error) {
	a, totalSize, err := newUnbacked(bufferSize, minBlockSize)
	if err != nil {
		return nil, err
	}
	p, err := parent.Allocate(totalSize, totalSize)
	if err != nil {
		return nil, err
	}
	a.buf = mem.Buffer{Base: p, Size: totalSize}
	a.parent = parent
	a.initLevels(totalSize)
	return a, nil
}

// newUnbacked validates the configuration and computes the rounded total
// buffer size, without touching any memory yet.
func newUnbacked(bufferSize, minBlockSize uintptr) (*Allocator, uintptr, error) {
	if bufferSize == 0 || minBlockSize == 0 || !mem.IsPowerOfTwo(minBlockSize) {
		return nil, 0, errs.ErrBadArgument
	}
	blocks := mem.NextPowerOfTwo((bufferSize + minBlockSize - 1) / minBlockSize)
	totalSize := minBlockSize * blocks
	return &Allocator{minBlock: minBlockSize}, totalSize, nil
}

func (a *Allocator) initLevels(totalSize uintptr) {
	blocks := totalSize / a.minBlock
	a.levels = int(mem.Log2(blocks)) + 1

	a.freeList = make([][]uintptr, a.levels)
	a.allocated = make([]bitset.Set, a.levels)
	a.split = make([]bitset.Set, a.levels)
	for l := 0; l < a.levels; l++ {
		n := 1 << uint(a.levels-1-l)
		a.allocated[l] = bitset.New(n)
		a.split[l] = bitset.New(n)
	}
	a.blockLevel = make(map[uintptr]int)
	a.freeList[a.levels-1] = append(a.freeList[a.levels-1], 0)
}

// Close releases the allocator's buffer. It is a programmer error to call
// Close while any allocation is still live.
func (a *Allocator) Close() error {
	mem.Assert(len(a.blockLevel) == 0, "buddy: Close with live allocations")
	if a.parent != nil {
		a.parent.Deallocate(a.buf.Base, a.buf.Size)
		return nil
	}
	if a.release != nil {
		return a.release()
	}
	return nil
}

func (a *Allocator) blockSize(level int) uintptr {
	return a.minBlock << uint(level)
}

// levelFor returns the smallest level whose block size fits need.
func (a *Allocator) levelFor(need uintptr) int {
	if need < a.minBlock {
		need = a.minBlock
	}
	blocks := mem.NextPowerOfTwo((need + a.minBlock - 1) / a.minBlock)
	return int(mem.Log2(blocks))
}

// Allocate implements mem.Allocator.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	mem.Assert(size >= 1, "allocate: size must be >= 1")
	mem.Assert(mem.IsPowerOfTwo(align), "allocate: align must be a power of two")
	need := size
	if align > need {
		need = align
	}
	level := a.levelFor(need)
	if level >= a.levels {
		return nil, errs.ErrOutOfMemory
	}
	offset, ok := a.obtainFreeBlock(level)
	if !ok {
		return nil, errs.ErrOutOfMemory
	}
	idx := int(offset / a.blockSize(level))
	a.allocated[level].Set(idx, true)
	p := a.buf.At(offset)
	a.blockLevel[uintptr(p)] = level
	return p, nil
}

// obtainFreeBlock returns the offset of a whole, free block at level,
// splitting a larger block if none is directly available. It does not
// mark the block allocated; the caller does that for the level it
// actually wants, since a block obtained here for splitting is never
// itself handed out.
func (a *Allocator) obtainFreeBlock(level int) (uintptr, bool) {
	if level >= a.levels {
		return 0, false
	}
	if n := len(a.freeList[level]); n > 0 {
		offset := a.freeList[level][n-1]
		a.freeList[level] = a.freeList[level][:n-1]
		return offset, true
	}
	parentOffset, ok := a.obtainFreeBlock(level + 1)
	if !ok {
		return 0, false
	}
	blockSize := a.blockSize(level)
	parentIdx := int(parentOffset / (blockSize << 1))
	a.split[level+1].Set(parentIdx, true)
	rightOffset := parentOffset + blockSize
	a.freeList[level] = append(a.freeList[level], rightOffset)
	return parentOffset, true
}

// Deallocate implements mem.Allocator.
func (a *Allocator) Deallocate(p unsafe.Pointer, size uintptr) {
	level, ok := a.blockLevel[uintptr(p)]
	mem.Assert(ok, "deallocate of a pointer not owned by this allocator")
	delete(a.blockLevel, uintptr(p))

	blockSize := a.blockSize(level)
	offset := a.buf.Offset(p)
	idx := int(offset / blockSize)
	a.allocated[level].Set(idx, false)

	for level < a.levels-1 {
		buddyIdx := idx ^ 1
		if a.allocated[level].Get(buddyIdx) || a.split[level].Get(buddyIdx) {
			break
		}
		buddyOffset := uintptr(buddyIdx) * blockSize
		a.freeList[level] = removeOffset(a.freeList[level], buddyOffset)

		parentIdx := idx / 2
		a.split[level+1].Set(parentIdx, false)
		idx = parentIdx
		level++
		blockSize <<= 1
	}
	offset = uintptr(idx) * blockSize
	a.freeList[level] = append(a.freeList[level], offset)
}

func removeOffset(list []uintptr, v uintptr) []uintptr {
	for i, o := range list {
		if o == v {
			return append(list[:i], list[i+1:]...)
		}
	}
	mem.Assert(false, "buddy: coalescing buddy missing from its free list")
	return list
}
