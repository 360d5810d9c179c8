// Package pool implements ObjectPool[T] and PagedObjectPool[T]: typed
// wrappers over BlockAllocator and PagedBlockAllocator respectively,
// each sized to sizeof(T) rounded up to alignof(T), exposing a single
// Create factory that returns a UniqueHandle[T].
package pool

import (
	"unsafe"

	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/block"
	"github.com/zyuery/icmemory/mem/handle"
	"github.com/zyuery/icmemory/mem/pagedblock"
)

func blockSizeFor[T any]() uintptr {
	var zero T
	size, align := unsafe.Sizeof(zero), unsafe.Alignof(zero)
	return mem.AlignUpSize(size, align)
}

// Object is a fixed-capacity pool of T, backed by one BlockAllocator.
type Object[T any] struct {
	blocks *block.Allocator
}

// NewObject creates an Object pool holding up to count T, backed by the
// OS heap.
func NewObject[T any](count uintptr) (*Object[T], error) {
	b, err := block.New(blockSizeFor[T](), count)
	if err != nil {
		return nil, err
	}
	return &Object[T]{blocks: b}, nil
}

// NewObjectFrom creates an Object pool whose buffer is requested from
// parent.
func NewObjectFrom[T any](parent mem.Allocator, count uintptr) (*Object[T], error) {
	b, err := block.NewFrom(parent, blockSizeFor[T](), count)
	if err != nil {
		return nil, err
	}
	return &Object[T]{blocks: b}, nil
}

// Create constructs a T in place from init and returns a handle that
// owns it.
func (p *Object[T]) Create(init T) (handle.Unique[T], error) {
	return handle.MakeUnique[T](p.blocks, init)
}

// Close releases the pool's buffer. It is a programmer error to call
// Close while any object from the pool is still live.
func (p *Object[T]) Close() error { return p.blocks.Close() }

// PagedObject is a growable pool of T, backed by a PagedBlockAllocator:
// pages are added as needed and released once completely empty.
type PagedObject[T any] struct {
	pages *pagedblock.Allocator
}

// DefaultPageCapacity is used by NewPagedObject when no page capacity is
// given.
const DefaultPageCapacity = uintptr(64)

// NewPagedObject creates a PagedObject pool with DefaultPageCapacity
// objects per page, backed by the OS heap.
func NewPagedObject[T any]() (*PagedObject[T], error) {
	return NewPagedObjectSized[T](DefaultPageCapacity)
}

// NewPagedObjectSized is NewPagedObject with an explicit page capacity.
func NewPagedObjectSized[T any](pageCapacity uintptr) (*PagedObject[T], error) {
	pb, err := pagedblock.New(blockSizeFor[T](), pageCapacity)
	if err != nil {
		return nil, err
	}
	return &PagedObject[T]{pages: pb}, nil
}

// NewPagedObjectFrom creates a PagedObject pool whose pages are
// requested from parent.
func NewPagedObjectFrom[T any](parent mem.Allocator, pageCapacity uintptr) (*PagedObject[T], error) {
	pb, err := pagedblock.NewFrom(parent, blockSizeFor[T](), pageCapacity)
	if err != nil {
		return nil, err
	}
	return &PagedObject[T]{pages: pb}, nil
}

// Create constructs a T in place from init and returns a handle that
// owns it.
func (p *PagedObject[T]) Create(init T) (handle.Unique[T], error) {
	return handle.MakeUnique[T](p.pages, init)
}

// PageCount returns the number of live pages.
func (p *PagedObject[T]) PageCount() int { return p.pages.PageCount() }

// Close releases every page.
func (p *PagedObject[T]) Close() error { return p.pages.Close() }
