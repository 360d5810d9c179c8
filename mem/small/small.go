// Package small implements SmallObjectAllocator and SmallObjectPool: a
// size-class dispatcher that routes small allocations to one of a fixed
// set of PagedBlockAllocator sub-pools, one per class.
package small

import (
	"unsafe"

	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/errs"
	"github.com/zyuery/icmemory/mem/handle"
	"github.com/zyuery/icmemory/mem/pagedblock"
)

// DefaultClassCeiling is the largest size class SmallObjectAllocator
// serves when no ceiling is given: classes are power-of-two bins from 8
// up to this value.
const DefaultClassCeiling = uintptr(64)

// DefaultPageSize controls how many blocks each class's PagedBlockAllocator
// packs into one page, independent of the class's own block size.
const DefaultPageSize = uintptr(64)

// Allocator dispatches allocate/deallocate to the smallest size class
// that fits the request.
type Allocator struct {
	classes []*pagedblock.Allocator // ascending by block size
}

// New creates a SmallObjectAllocator with size classes {8, 16, 32, ...}
// up to totalSize (rounded up to a power of two), each class's pages
// backed by the OS heap.
func New(totalSize uintptr) (*Allocator, error) {
	return newWithPages(nil, totalSize, DefaultPageSize)
}

// NewFrom creates a SmallObjectAllocator whose class pages are requested
// from parent, with DefaultClassCeiling classes sized pageSize blocks per
// page.
func NewFrom(parent mem.Allocator, pageSize uintptr) (*Allocator, error) {
	return newWithPages(parent, DefaultClassCeiling, pageSize)
}

func newWithPages(parent mem.Allocator, ceiling, pageSize uintptr) (*Allocator, error) {
	if ceiling == 0 || pageSize == 0 {
		return nil, errs.ErrBadArgument
	}
	ceiling = mem.NextPowerOfTwo(ceiling)
	a := &Allocator{}
	for size := uintptr(8); size <= ceiling; size <<= 1 {
		var pb *pagedblock.Allocator
		var err error
		if parent != nil {
			pb, err = pagedblock.NewFrom(parent, size, pageSize)
		} else {
			pb, err = pagedblock.New(size, pageSize)
		}
		if err != nil {
			return nil, err
		}
		a.classes = append(a.classes, pb)
	}
	return a, nil
}

// classFor returns the index of the smallest class whose block size is
// >= need, or -1 if need exceeds every class.
func (a *Allocator) classFor(need uintptr) int {
	for i, c := range a.classes {
		if c.BlockSize() >= need {
			return i
		}
	}
	return -1
}

// Allocate implements mem.Allocator.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	mem.Assert(size >= 1, "allocate: size must be >= 1")
	mem.Assert(mem.IsPowerOfTwo(align), "allocate: align must be a power of two")
	need := size
	if align > need {
		need = align
	}
	i := a.classFor(need)
	if i < 0 {
		return nil, errs.ErrOutOfMemory
	}
	return a.classes[i].Allocate(size, align)
}

// Deallocate implements mem.Allocator. size must be the same value
// passed to the matching Allocate call; it selects the owning class the
// same way Allocate's size argument did.
func (a *Allocator) Deallocate(p unsafe.Pointer, size uintptr) {
	i := a.classFor(size)
	mem.Assert(i >= 0, "deallocate: size exceeds every configured class")
	a.classes[i].Deallocate(p, size)
}

// Close releases every class's pages.
func (a *Allocator) Close() error {
	var firstErr error
	for _, c := range a.classes {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Pool is the typed-factory counterpart to Allocator: the caller
// supplies T at Create time rather than at construction time.
type Pool struct {
	alloc *Allocator
}

// NewPool creates a SmallObjectPool with DefaultClassCeiling classes and
// DefaultPageSize blocks per page, backed by the OS heap.
func NewPool() (*Pool, error) {
	return NewPoolSized(DefaultPageSize)
}

// NewPoolSized is NewPool with an explicit page size.
func NewPoolSized(pageSize uintptr) (*Pool, error) {
	a, err := newWithPages(nil, DefaultClassCeiling, pageSize)
	if err != nil {
		return nil, err
	}
	return &Pool{alloc: a}, nil
}

// NewPoolFrom creates a SmallObjectPool whose class pages are requested
// from parent.
func NewPoolFrom(parent mem.Allocator, pageSize uintptr) (*Pool, error) {
	a, err := newWithPages(parent, DefaultClassCeiling, pageSize)
	if err != nil {
		return nil, err
	}
	return &Pool{alloc: a}, nil
}

// Create constructs a T in place from init, dispatching to the smallest
// class that fits sizeof(T), and returns a handle that owns it. Go does
// not allow methods to carry their own type parameters, so Create is a
// free function taking the pool explicitly rather than p.Create[T](...).
func Create[T any](p *Pool, init T) (handle.Unique[T], error) {
	return handle.MakeUnique[T](p.alloc, init)
}

// Close releases every class's pages.
func (p *Pool) Close() error { return p.alloc.Close() }
