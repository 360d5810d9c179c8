// Package errs collects the sentinel errors shared by every allocator
// package, mirroring the single package of sentinel errors the rest of
// the allocator stack builds on.
package errs

import "errors"

var (
	// ErrOutOfMemory is returned when an allocator cannot satisfy a
	// request from its own buffer or pages and has no parent (or its
	// parent also failed) to grow into.
	ErrOutOfMemory = errors.New("mem: out of memory")

	// ErrBadArgument is returned for malformed constructor arguments
	// (zero sizes, a non-power-of-two minimum block size, and the like)
	// that a caller can in principle recover from, and by
	// PagedBlockAllocator for a request larger than its block size.
	// A zero size or non-power-of-two alignment passed to Allocate is a
	// programmer error and panics via mem.Assert instead.
	ErrBadArgument = errors.New("mem: bad argument")

	// ErrClosed names the condition of an allocator that has already
	// released its backing buffer. No allocator in this module returns
	// it: use after Close is not detected.
	ErrClosed = errors.New("mem: allocator closed")
)
