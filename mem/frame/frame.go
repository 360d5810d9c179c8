// Package frame implements FrameAllocator: a LinearAllocator intended to
// be reset once per simulation frame. The FrameAllocator test suite and
// the PagedLinearAllocator test suite exercise equivalent behavior, so
// FrameAllocator is implemented here as a thin,
// intent-revealing wrapper around the same paged-linear engine that backs
// PagedLinearAllocator (mem/pagedlinear), rather than a second copy of it.
package frame

import (
	"unsafe"

	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/pagedlinear"
)

// Allocator is a per-frame scratch allocator. It always takes its pages
// from a parent allocator, matching the one constructor spec'd for it.
type Allocator struct {
	engine *pagedlinear.Allocator
}

// New creates a FrameAllocator whose pages of pageSize bytes are
// requested from parent as needed.
func New(parent mem.Allocator, pageSize uintptr) (*Allocator, error) {
	engine, err := pagedlinear.NewFrom(parent, pageSize)
	if err != nil {
		return nil, err
	}
	return &Allocator{engine: engine}, nil
}

// Allocate implements mem.Allocator.
func (a *Allocator) Allocate(size, align uintptr) (unsafe.Pointer, error) {
	return a.engine.Allocate(size, align)
}

// Deallocate implements mem.Allocator. No-op, like the linear engine it
// wraps; all storage is reclaimed by Reset.
func (a *Allocator) Deallocate(p unsafe.Pointer, size uintptr) {
	a.engine.Deallocate(p, size)
}

// Reset returns every byte allocated this frame to the allocator. The
// caller must have already destroyed every object built on top of it.
func (a *Allocator) Reset() { a.engine.Reset() }

// Close releases every page back to the parent.
func (a *Allocator) Close() error { return a.engine.Close() }
