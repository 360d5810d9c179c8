// Package handle implements the ownership adapters: UniqueHandle,
// SharedHandle, and UniqueArrayHandle, plus their MakeUnique / MakeShared
// / MakeUniqueArray factories. Every handle carries a back-reference to
// the allocator that served it so its deleter can release the right
// bytes on drop, per the "deleter carries a back-reference" design note.
//
// Go has no user-defined destructors, so placing a value with pointer
// fields into a manually managed buffer would leave the garbage
// collector unable to see (and therefore free) whatever those pointers
// reference, or worse, reclaim it out from under the buffer. Every
// factory here therefore refuses T types that contain pointer-like
// fields before writing a value's raw bytes anywhere the GC cannot
// follow.
package handle

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/zyuery/icmemory/mem"
	"github.com/zyuery/icmemory/mem/errs"
)

func assertNoPointers[T any]() error {
	var zero T
	return typeNoPointers(reflect.TypeOf(zero))
}

func typeNoPointers(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Array:
		return typeNoPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if err := typeNoPointers(t.Field(i).Type); err != nil {
				return fmt.Errorf("field %s: %w", t.Field(i).Name, err)
			}
		}
		return nil
	case reflect.String, reflect.Slice, reflect.Map, reflect.Pointer,
		reflect.Interface, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Errorf("type %s contains pointer-like data, unsafe to place in manually managed memory", t.String())
	default:
		return fmt.Errorf("unsupported kind %s (%s)", t.Kind(), t.String())
	}
}

func sizeAndAlign[T any]() (uintptr, uintptr) {
	var zero T
	return unsafe.Sizeof(zero), unsafe.Alignof(zero)
}

// Unique is exclusive ownership of one in-place-constructed T. The zero
// value is an empty handle: Get returns nil and Reset is a no-op.
type Unique[T any] struct {
	p     *T
	alloc mem.Allocator
	size  uintptr
}

// MakeUnique allocates room for one T from alloc, copies init into place,
// and returns a handle that owns it. init plays the role of "forward
// args to T's constructor": the caller builds the value with an
// ordinary composite literal and hands it over.
func MakeUnique[T any](alloc mem.Allocator, init T) (Unique[T], error) {
	if err := assertNoPointers[T](); err != nil {
		return Unique[T]{}, err
	}
	size, align := sizeAndAlign[T]()
	p, err := alloc.Allocate(size, align)
	if err != nil {
		return Unique[T]{}, err
	}
	typed := (*T)(p)
	*typed = init
	return Unique[T]{p: typed, alloc: alloc, size: size}, nil
}

// Get returns a borrowed raw pointer to the owned value, or nil for an
// empty handle.
func (u Unique[T]) Get() *T { return u.p }

// Valid reports whether the handle currently owns an object.
func (u Unique[T]) Valid() bool { return u.p != nil }

// Reset runs the deleter, if any, and clears the handle.
func (u *Unique[T]) Reset() {
	if u.p == nil {
		return
	}
	*u.p = *new(T)
	u.alloc.Deallocate(unsafe.Pointer(u.p), u.size)
	u.p = nil
	u.alloc = nil
}

type sharedBox[T any] struct {
	value T
	refs  int
}

// Shared is reference-counted ownership of one in-place-constructed T.
// The count lives adjacent to the object in the same allocation, per the
// design note's preferred placement.
type Shared[T any] struct {
	box   *sharedBox[T]
	alloc mem.Allocator
	size  uintptr
}

// MakeShared allocates a control block holding T and a reference count,
// copies init into place, and returns a handle with one reference.
func MakeShared[T any](alloc mem.Allocator, init T) (Shared[T], error) {
	if err := assertNoPointers[T](); err != nil {
		return Shared[T]{}, err
	}
	var zero sharedBox[T]
	size, align := unsafe.Sizeof(zero), unsafe.Alignof(zero)
	p, err := alloc.Allocate(size, align)
	if err != nil {
		return Shared[T]{}, err
	}
	box := (*sharedBox[T])(p)
	box.value = init
	box.refs = 1
	return Shared[T]{box: box, alloc: alloc, size: size}, nil
}

// Get returns a borrowed raw pointer to the owned value, or nil for an
// empty handle.
func (s Shared[T]) Get() *T {
	if s.box == nil {
		return nil
	}
	return &s.box.value
}

// Valid reports whether the handle currently owns a reference.
func (s Shared[T]) Valid() bool { return s.box != nil }

// Clone returns a new handle sharing the same object, incrementing the
// reference count.
func (s Shared[T]) Clone() Shared[T] {
	if s.box != nil {
		s.box.refs++
	}
	return s
}

// Release drops this reference. The last release destroys the value and
// deallocates the control block.
func (s *Shared[T]) Release() {
	if s.box == nil {
		return
	}
	s.box.refs--
	mem.Assert(s.box.refs >= 0, "shared handle: released more times than it was retained")
	if s.box.refs == 0 {
		s.box.value = *new(T)
		s.alloc.Deallocate(unsafe.Pointer(s.box), s.size)
	}
	s.box = nil
	s.alloc = nil
}

// UniqueArray is exclusive ownership of n contiguously constructed T.
type UniqueArray[T any] struct {
	p     *T
	n     int
	alloc mem.Allocator
	size  uintptr
}

// MakeUniqueArray allocates room for n contiguous T (rounded up to
// alignof(T)), zero-constructs each element, and returns a handle that
// owns the whole block.
func MakeUniqueArray[T any](alloc mem.Allocator, n int) (UniqueArray[T], error) {
	if n < 1 {
		return UniqueArray[T]{}, errs.ErrBadArgument
	}
	if err := assertNoPointers[T](); err != nil {
		return UniqueArray[T]{}, err
	}
	elemSize, align := sizeAndAlign[T]()
	size := elemSize * uintptr(n)
	p, err := alloc.Allocate(size, align)
	if err != nil {
		return UniqueArray[T]{}, err
	}
	elems := unsafe.Slice((*T)(p), n)
	for i := range elems {
		elems[i] = *new(T)
	}
	return UniqueArray[T]{p: (*T)(p), n: n, alloc: alloc, size: size}, nil
}

// Len returns the number of elements.
func (u UniqueArray[T]) Len() int { return u.n }

// Slice returns a borrowed view over all n elements.
func (u UniqueArray[T]) Slice() []T {
	if u.p == nil {
		return nil
	}
	return unsafe.Slice(u.p, u.n)
}

// At returns a borrowed pointer to element i.
func (u UniqueArray[T]) At(i int) *T {
	mem.Assert(i >= 0 && i < u.n, "unique array index out of range")
	return (*T)(unsafe.Add(unsafe.Pointer(u.p), uintptr(i)*unsafe.Sizeof(*u.p)))
}

// Reset destroys every element in reverse order and deallocates the
// block.
func (u *UniqueArray[T]) Reset() {
	if u.p == nil {
		return
	}
	s := u.Slice()
	for i := len(s) - 1; i >= 0; i-- {
		s[i] = *new(T)
	}
	u.alloc.Deallocate(unsafe.Pointer(u.p), u.size)
	u.p = nil
	u.alloc = nil
}
