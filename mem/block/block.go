// Package block implements BlockAllocator: a fixed-size free-list
// allocator over a single buffer of numBlocks blocks of blockSize bytes
// each. Free blocks are threaded together in place (internal/freelist);
// there is no per-block bookkeeping outside the buffer itself.
package block

import (
	"unsafe"

	"github.com/zyuery/icmemory/internal/freelist"
	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/errs"
	"github.com/zyuery/icmemory/mem/sysmem"
)

// Allocator hands out fixed-size blocks from a single buffer. Every
// block is the same size; Allocate ignores the caller's requested size
// once it has checked that it fits.
type Allocator struct {
	buf       mem.Buffer
	release   func() error
	parent    mem.Allocator
	blockSize uintptr
	numBlocks uintptr
	free      freelist.List
	live      int
}

// New creates a BlockAllocator backed by a freshly mapped buffer of
// blockSize*numBlocks bytes, taken from the OS heap.
func New(blockSize, numBlocks uintptr) (*Allocator, error) {
	a, total, err := newUnbacked(blockSize, numBlocks)
	if err != nil {
		return nil, err
	}
	region, buf, err := sysmem.AcquireAligned(total, mem.WordAlign)
	if err != nil {
		return nil, err
	}
	a.buf = buf
	a.release = region.Release
	a.seedFreeList()
	return a, nil
}

// NewFrom creates a BlockAllocator whose buffer is requested from
// parent.
func NewFrom(parent mem.Allocator, blockSize, numBlocks uintptr) (*Allocator, error) {
	a, total, err := newUnbacked(blockSize, numBlocks)
	if err != nil {
		return nil, err
	}
	p, err := parent.Allocate(total, mem.WordAlign)
	if err != nil {
		return nil, err
	}
	a.buf = mem.Buffer{Base: p, Size: total}
	a.parent = parent
	a.seedFreeList()
	return a, nil
}

// newUnbacked rounds blockSize up to a multiple of mem.WordAlign so that
// every block in the buffer starts at a word-aligned offset from a
// word-aligned base, without requiring blockSize itself to be a power of
// two the way BuddyAllocator's block sizes must be.
func newUnbacked(blockSize, numBlocks uintptr) (*Allocator, uintptr, error) {
	if blockSize == 0 || numBlocks == 0 {
		return nil, 0, errs.ErrBadArgument
	}
	blockSize = mem.AlignUpSize(blockSize, mem.WordAlign)
	if blockSize < freelist.HeaderSize {
		return nil, 0, errs.ErrBadArgument
	}
	return &Allocator{blockSize: blockSize, numBlocks: numBlocks}, blockSize * numBlocks, nil
}

func (a *Allocator) seedFreeList() {
	for i := a.numBlocks; i > 0; i-- {
		a.free.Push(a.buf.At((i - 1) * a.blockSize))
	}
}

// BlockSize returns the fixed size of every block this allocator hands
// out.
func (a *Allocator) BlockSize() uintptr { return a.blockSize }

// Capacity returns the total number of blocks, free or allocated.
func (a *Allocator) Capacity() uintptr { return a.numBlocks }

// Owns reports whether p falls within this allocator's buffer, for
// PagedBlockAllocator's page lookup on Deallocate.
func (a *Allocator) Owns(p unsafe.Pointer) bool {
	return a.buf.Contains(p, a.blockSize)
}

// Allocate implements mem.Allocator. size must be no larger than the
// allocator's fixed block size; align must be no stricter than it.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	mem.Assert(size >= 1, "allocate: size must be >= 1")
	mem.Assert(mem.IsPowerOfTwo(align), "allocate: align must be a power of two")
	mem.Assert(size <= a.blockSize && align <= a.blockSize, "allocate: request exceeds the allocator's fixed block size")
	p := a.free.Pop()
	if p == nil {
		return nil, errs.ErrOutOfMemory
	}
	a.live++
	return p, nil
}

// Deallocate implements mem.Allocator. The size argument is ignored:
// every block from this allocator is the same size.
func (a *Allocator) Deallocate(p unsafe.Pointer, _ uintptr) {
	mem.Assert(a.buf.Contains(p, a.blockSize), "deallocate of a pointer not owned by this allocator")
	a.free.Push(p)
	a.live--
}

// Empty reports whether every block is currently free, for
// PagedBlockAllocator's page-release policy.
func (a *Allocator) Empty() bool { return a.live == 0 }

// Close releases the allocator's buffer. It is a programmer error to
// call Close while any block is still live.
func (a *Allocator) Close() error {
	mem.Assert(a.live == 0, "block: Close with live allocations")
	if a.parent != nil {
		a.parent.Deallocate(a.buf.Base, a.buf.Size)
		return nil
	}
	if a.release != nil {
		return a.release()
	}
	return nil
}
