// Package pagedblock implements PagedBlockAllocator: a dynamic list of
// BlockAllocator pages, each holding blocksPerPage fixed-size blocks.
// A page is added lazily the first time every existing page is full, and
// released the moment it becomes completely empty again.
package pagedblock

import (
	"unsafe"

	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/block"
	"github.com/zyuery/icmemory/mem/errs"
)

// Allocator is a growable collection of block.Allocator pages sharing
// one fixed block size.
type Allocator struct {
	parent        mem.Allocator
	blockSize     uintptr
	blocksPerPage uintptr
	pages         []*block.Allocator
}

// New creates a PagedBlockAllocator whose pages are mapped from the OS
// heap as needed.
func New(blockSize, blocksPerPage uintptr) (*Allocator, error) {
	if blockSize == 0 || blocksPerPage == 0 {
		return nil, errs.ErrBadArgument
	}
	return &Allocator{blockSize: blockSize, blocksPerPage: blocksPerPage}, nil
}

// NewFrom creates a PagedBlockAllocator whose pages are requested from
// parent.
func NewFrom(parent mem.Allocator, blockSize, blocksPerPage uintptr) (*Allocator, error) {
	a, err := New(blockSize, blocksPerPage)
	if err != nil {
		return nil, err
	}
	a.parent = parent
	return a, nil
}

// BlockSize returns the fixed block size shared by every page.
func (a *Allocator) BlockSize() uintptr { return a.blockSize }

// PageCount returns the number of live pages.
func (a *Allocator) PageCount() int { return len(a.pages) }

func (a *Allocator) newPage() (*block.Allocator, error) {
	if a.parent != nil {
		return block.NewFrom(a.parent, a.blockSize, a.blocksPerPage)
	}
	return block.New(a.blockSize, a.blocksPerPage)
}

// Allocate implements mem.Allocator. Every existing page is tried in
// order before a new one is appended.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	mem.Assert(size >= 1, "allocate: size must be >= 1")
	mem.Assert(mem.IsPowerOfTwo(align), "allocate: align must be a power of two")
	if size > a.blockSize || align > a.blockSize {
		return nil, errs.ErrBadArgument
	}
	for _, page := range a.pages {
		if p, err := page.Allocate(size, align); err == nil {
			return p, nil
		}
	}
	page, err := a.newPage()
	if err != nil {
		return nil, errs.ErrOutOfMemory
	}
	a.pages = append(a.pages, page)
	return page.Allocate(size, align)
}

// Deallocate implements mem.Allocator. It finds the page that owns p,
// returns the block to it, and releases the page itself if that leaves
// it completely empty.
func (a *Allocator) Deallocate(p unsafe.Pointer, size uintptr) {
	for i, page := range a.pages {
		if !page.Owns(p) {
			continue
		}
		page.Deallocate(p, size)
		if page.Empty() {
			_ = page.Close()
			a.pages = append(a.pages[:i], a.pages[i+1:]...)
		}
		return
	}
	mem.Assert(false, "deallocate of a pointer not owned by any page")
}

// Close releases every page.
func (a *Allocator) Close() error {
	var firstErr error
	for _, page := range a.pages {
		if err := page.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.pages = nil
	return firstErr
}
