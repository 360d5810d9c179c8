// Package sysmem obtains the page-aligned, GC-invisible regions that
// every heap-backed root allocator (Buddy, Linear, Block, PagedBlock,
// PagedLinear, SmallObjectAllocator) uses as its buffer, instead of a
// bare make([]byte, n). The region is anonymous, process-private memory:
// nothing is ever written to disk and nothing is shared with another
// process, but because it comes from the OS rather than the Go heap the
// GC never scans it and it can be handed straight back to the OS on
// Release.
package sysmem

import (
	"fmt"
	"unsafe"

	"github.com/zyuery/icmemory/mem"
)

// Region is a single OS-level memory mapping obtained by Acquire.
type Region struct {
	buf []byte
}

// Acquire reserves size bytes (rounded up to the page granularity the
// platform requires) and returns the Region owning them plus the backing
// byte slice. The slice's length is exactly size; any rounding is
// invisible to the caller.
func Acquire(size uintptr) (Region, []byte, error) {
	if size == 0 {
		return Region{}, nil, fmt.Errorf("sysmem: zero-sized region")
	}
	buf, err := mmapAnonymous(size)
	if err != nil {
		return Region{}, nil, fmt.Errorf("sysmem: acquire %d bytes: %w", size, err)
	}
	return Region{buf: buf}, buf, nil
}

// Release returns the region's memory to the OS. The region must not be
// used afterwards.
func (r Region) Release() error {
	if r.buf == nil {
		return nil
	}
	return munmapAnonymous(r.buf)
}

// AcquireAligned reserves enough memory to carve out a mem.Buffer of
// exactly size bytes aligned to align, which must be a power of two.
// Every heap-backed allocator constructor in this module goes through
// this one entry point to get its root buffer.
func AcquireAligned(size, align uintptr) (Region, mem.Buffer, error) {
	if !mem.IsPowerOfTwo(align) {
		return Region{}, mem.Buffer{}, fmt.Errorf("sysmem: align %d is not a power of two", align)
	}
	region, raw, err := Acquire(size + align - 1)
	if err != nil {
		return Region{}, mem.Buffer{}, err
	}
	start := uintptr(unsafe.Pointer(&raw[0]))
	base := mem.AlignUp(start, align)
	return region, mem.Buffer{Base: unsafe.Add(unsafe.Pointer(&raw[0]), base-start), Size: size}, nil
}
