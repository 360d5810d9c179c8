// Package linear implements a monotonic bump allocator over a single
// buffer: allocation only ever advances a cursor, and the only way to
// reclaim space is Reset.
package linear

import (
	"unsafe"

	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/errs"
	"github.com/zyuery/icmemory/mem/sysmem"
)

// Allocator is a bump/arena allocator: Allocate advances a cursor through
// a fixed buffer, Deallocate is a no-op, and Reset rewinds the cursor to
// the start.
type Allocator struct {
	buf     mem.Buffer
	release func() error
	parent  mem.Allocator
	cursor  uintptr
}

// New creates a LinearAllocator backed by a freshly mapped buffer of
// exactly bufferSize bytes.
func New(bufferSize uintptr) (*Allocator, error) {
	if bufferSize == 0 {
		return nil, errs.ErrBadArgument
	}
	region, buf, err := sysmem.AcquireAligned(bufferSize, mem.WordAlign)
	if err != nil {
		return nil, err
	}
	return &Allocator{buf: buf, release: region.Release}, nil
}

// NewFrom creates a LinearAllocator whose buffer is requested from
// parent.
func NewFrom(parent mem.Allocator, bufferSize uintptr) (*Allocator, error) {
	if bufferSize == 0 {
		return nil, errs.ErrBadArgument
	}
	p, err := parent.Allocate(bufferSize, mem.WordAlign)
	if err != nil {
		return nil, err
	}
	return &Allocator{buf: mem.Buffer{Base: p, Size: bufferSize}, parent: parent}, nil
}

// Capacity returns the total size of the allocator's buffer.
func (a *Allocator) Capacity() uintptr { return a.buf.Size }

// Cursor returns the current bump offset, for tests that need to observe
// pointer-identity round trips across Reset.
func (a *Allocator) Cursor() uintptr { return a.cursor }

// Allocate implements mem.Allocator.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	mem.Assert(size >= 1, "allocate: size must be >= 1")
	mem.Assert(mem.IsPowerOfTwo(align), "allocate: align must be a power of two")
	start := mem.AlignUp(a.cursor, align)
	end := start + size
	if end > a.buf.Size {
		return nil, errs.ErrOutOfMemory
	}
	a.cursor = end
	return a.buf.At(start), nil
}

// Deallocate implements mem.Allocator. Linear allocators only reclaim
// space on Reset; a single deallocation is a no-op.
func (a *Allocator) Deallocate(unsafe.Pointer, uintptr) {}

// Reset rewinds the cursor to the start of the buffer. The caller must
// have already destroyed every object constructed since the allocator
// was created or last reset.
func (a *Allocator) Reset() { a.cursor = 0 }

// Close releases the allocator's buffer.
func (a *Allocator) Close() error {
	if a.parent != nil {
		a.parent.Deallocate(a.buf.Base, a.buf.Size)
		return nil
	}
	if a.release != nil {
		return a.release()
	}
	return nil
}
