package mem

import "unsafe"

// Buffer is a contiguous byte range an allocator owns or borrows, per the
// Buffer data model: a base address and a total capacity, nothing else.
type Buffer struct {
	Base unsafe.Pointer
	Size uintptr
}

// Bytes views the buffer as a byte slice, mainly for tests that want to
// index it with slice syntax.
func (b Buffer) Bytes() []byte {
	if b.Size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(b.Base), int(b.Size))
}

// Contains reports whether [p, p+size) lies entirely within b.
func (b Buffer) Contains(p unsafe.Pointer, size uintptr) bool {
	base := uintptr(b.Base)
	addr := uintptr(p)
	return addr >= base && addr+size <= base+b.Size
}

// Offset returns the distance in bytes from the buffer's base to p. The
// caller must already know p lies within the buffer.
func (b Buffer) Offset(p unsafe.Pointer) uintptr {
	return uintptr(p) - uintptr(b.Base)
}

// At returns the address offset bytes into the buffer.
func (b Buffer) At(offset uintptr) unsafe.Pointer {
	return unsafe.Add(b.Base, offset)
}
