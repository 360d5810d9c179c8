// Package pagedlinear implements a LinearAllocator that grows by adding
// pages instead of failing once its first buffer is exhausted. It is the
// shared engine behind both PagedLinearAllocator and FrameAllocator (see
// mem/frame): the two differ only in which constructors they expose.
package pagedlinear

import (
	"unsafe"

	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/errs"
	"github.com/zyuery/icmemory/mem/linear"
)

// DefaultPageSize is used by New when no page size is given.
const DefaultPageSize = uintptr(4096)

// Allocator is a list of LinearAllocator pages. Allocation tries the
// current (most recently added) page first; on failure it adds a new
// page sized either pageSize or, for an allocation too large to fit any
// page, the requested size plus align-1 bytes of alignment slack.
type Allocator struct {
	parent   mem.Allocator
	pageSize uintptr
	pages    []*linear.Allocator
}

// New creates a PagedLinearAllocator with DefaultPageSize pages, each
// obtained from the OS heap.
func New() (*Allocator, error) {
	return NewSized(DefaultPageSize)
}

// NewSized is New with an explicit page size.
func NewSized(pageSize uintptr) (*Allocator, error) {
	a, err := newUnbacked(pageSize)
	if err != nil {
		return nil, err
	}
	return a, a.appendPage(pageSize)
}

// NewFrom creates a PagedLinearAllocator whose pages are requested from
// parent.
func NewFrom(parent mem.Allocator, pageSize uintptr) (*Allocator, error) {
	a, err := newUnbacked(pageSize)
	if err != nil {
		return nil, err
	}
	a.parent = parent
	return a, a.appendPage(pageSize)
}

func newUnbacked(pageSize uintptr) (*Allocator, error) {
	if pageSize == 0 {
		return nil, errs.ErrBadArgument
	}
	return &Allocator{pageSize: pageSize}, nil
}

func (a *Allocator) newPage(capacity uintptr) (*linear.Allocator, error) {
	if a.parent != nil {
		return linear.NewFrom(a.parent, capacity)
	}
	return linear.New(capacity)
}

func (a *Allocator) appendPage(capacity uintptr) error {
	p, err := a.newPage(capacity)
	if err != nil {
		return err
	}
	a.pages = append(a.pages, p)
	return nil
}

func (a *Allocator) current() *linear.Allocator {
	return a.pages[len(a.pages)-1]
}

// PageCount returns the number of live pages, for tests asserting on the
// page-growth behavior.
func (a *Allocator) PageCount() int { return len(a.pages) }

// Allocate implements mem.Allocator.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	mem.Assert(size >= 1, "allocate: size must be >= 1")
	mem.Assert(mem.IsPowerOfTwo(align), "allocate: align must be a power of two")

	if p, err := a.current().Allocate(size, align); err == nil {
		return p, nil
	}

	capacity := a.pageSize
	if needed := size + align - 1; needed > capacity {
		capacity = needed
	}
	if err := a.appendPage(capacity); err != nil {
		return nil, errs.ErrOutOfMemory
	}
	return a.current().Allocate(size, align)
}

// Deallocate implements mem.Allocator. Every page is a LinearAllocator,
// which only reclaims space on Reset.
func (a *Allocator) Deallocate(unsafe.Pointer, uintptr) {}

// Reset retains the first page and releases the rest, per the paged
// allocator page release policy: this keeps the hot path allocation-free
// across repeated reset/reuse cycles instead of reacquiring a page every
// time.
func (a *Allocator) Reset() {
	for _, p := range a.pages[1:] {
		_ = p.Close()
	}
	a.pages = a.pages[:1]
	a.pages[0].Reset()
}

// Close releases every page.
func (a *Allocator) Close() error {
	var firstErr error
	for _, p := range a.pages {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.pages = nil
	return firstErr
}
