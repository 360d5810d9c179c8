// Package freelist implements the free-list header the data model
// describes: a singly linked list of free nodes threaded through the
// free memory itself, rather than through a side table. Each free block
// spends its first word as a "next" pointer for as long as it stays
// free; the bytes are reclaimed the moment the block is handed back out.
package freelist

import "unsafe"

// HeaderSize is the number of bytes every free block donates to the
// intrusive "next" pointer. Callers must only thread blocks of at least
// this size onto a List.
const HeaderSize = unsafe.Sizeof(uintptr(0))

// List is a LIFO stack of free blocks, threaded through their own bytes.
// The zero value is an empty list.
type List struct {
	head unsafe.Pointer
}

// Empty reports whether the list has no free blocks.
func (l *List) Empty() bool { return l.head == nil }

// Push threads p onto the front of the list. p must point at a block of
// at least HeaderSize bytes that the caller no longer needs.
func (l *List) Push(p unsafe.Pointer) {
	*(*unsafe.Pointer)(p) = l.head
	l.head = p
}

// Pop removes and returns the block at the front of the list, or nil if
// the list is empty.
func (l *List) Pop() unsafe.Pointer {
	p := l.head
	if p == nil {
		return nil
	}
	l.head = *(*unsafe.Pointer)(p)
	return p
}
