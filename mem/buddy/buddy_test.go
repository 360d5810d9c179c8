package buddy

import (
	"testing"
	"unsafe"
)

func mustNew(t *testing.T, bufferSize, minBlockSize uintptr) *Allocator {
	t.Helper()
	a, err := NewSized(bufferSize, minBlockSize)
	if err != nil {
		t.Fatalf("NewSized(%d,%d): %v", bufferSize, minBlockSize, err)
	}
	return a
}

func TestAllocateAlignedWithinBuffer(t *testing.T) {
	a := mustNew(t, 256, 16)
	p, err := a.Allocate(4, 4)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if uintptr(p)%4 != 0 {
		t.Fatalf("pointer %p not aligned to 4", p)
	}
	if !a.buf.Contains(p, 4) {
		t.Fatal("pointer escapes buffer")
	}
	a.Deallocate(p, 4)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestVaryingSizes(t *testing.T) {
	a := mustNew(t, 256, 16)
	defer a.Close()

	type large struct{ buffer [64]byte }
	type medium struct{ x, y, z int64 }

	pa, err := a.Allocate(unsafe.Sizeof(int(0)), unsafe.Alignof(int(0)))
	if err != nil {
		t.Fatalf("alloc int: %v", err)
	}
	*(*int)(pa) = 1

	pb, err := a.Allocate(unsafe.Sizeof(large{}), unsafe.Alignof(large{}))
	if err != nil {
		t.Fatalf("alloc large: %v", err)
	}
	lg := (*large)(pb)
	want := "GVFuEQyRi*wIn#LAVl@5LWTLqKitenElz#EKiSMf#DW!wsa5Ev#xLxs(LH&IZku"
	copy(lg.buffer[:], want)

	a.Deallocate(pa, unsafe.Sizeof(int(0)))
	pa, err = a.Allocate(unsafe.Sizeof(int(0)), unsafe.Alignof(int(0)))
	if err != nil {
		t.Fatalf("realloc int: %v", err)
	}
	*(*int)(pa) = 2

	pc, err := a.Allocate(unsafe.Sizeof(medium{}), unsafe.Alignof(medium{}))
	if err != nil {
		t.Fatalf("alloc medium: %v", err)
	}
	m := (*medium)(pc)
	m.x, m.y, m.z = 5, 10, 15

	a.Deallocate(pa, unsafe.Sizeof(int(0)))
	pa, err = a.Allocate(unsafe.Sizeof(int(0)), unsafe.Alignof(int(0)))
	if err != nil {
		t.Fatalf("realloc int again: %v", err)
	}
	*(*int)(pa) = 3

	if got := *(*int)(pa); got != 3 {
		t.Errorf("int = %d, want 3", got)
	}
	if got := string(lg.buffer[:len(want)]); got != want {
		t.Errorf("large.buffer = %q, want %q", got, want)
	}
	if m.x != 5 || m.y != 10 || m.z != 15 {
		t.Errorf("medium = {%d,%d,%d}, want {5,10,15}", m.x, m.y, m.z)
	}

	a.Deallocate(pa, unsafe.Sizeof(int(0)))
	a.Deallocate(pb, unsafe.Sizeof(large{}))
	a.Deallocate(pc, unsafe.Sizeof(medium{}))
}

func TestDeallocateIsolatesOtherAllocations(t *testing.T) {
	a := mustNew(t, 256, 16)
	defer a.Close()

	ia, _ := a.Allocate(unsafe.Sizeof(int(0)), unsafe.Alignof(int(0)))
	*(*int)(ia) = 1
	ib, _ := a.Allocate(unsafe.Sizeof(int(0)), unsafe.Alignof(int(0)))
	*(*int)(ib) = 2

	a.Deallocate(ib, unsafe.Sizeof(int(0)))

	ic, _ := a.Allocate(unsafe.Sizeof(int(0)), unsafe.Alignof(int(0)))
	*(*int)(ic) = 3

	ib, _ = a.Allocate(unsafe.Sizeof(int(0)), unsafe.Alignof(int(0)))
	*(*int)(ib) = 4

	if *(*int)(ia) != 1 || *(*int)(ib) != 4 || *(*int)(ic) != 3 {
		t.Fatalf("a=%d b=%d c=%d, want 1,4,3", *(*int)(ia), *(*int)(ib), *(*int)(ic))
	}

	a.Deallocate(ia, unsafe.Sizeof(int(0)))
	a.Deallocate(ib, unsafe.Sizeof(int(0)))
	a.Deallocate(ic, unsafe.Sizeof(int(0)))
}

// TestCoalesceRestoresState is P6: after allocate then deallocate of the
// same request, the allocator can satisfy the same request again from the
// exact same offset, proving the free-level state returned to what it was
// before the allocation.
func TestCoalesceRestoresState(t *testing.T) {
	a := mustNew(t, 256, 16)
	defer a.Close()

	p1, err := a.Allocate(200, 16)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	a.Deallocate(p1, 200)

	p2, err := a.Allocate(200, 16)
	if err != nil {
		t.Fatalf("Allocate after coalesce: %v", err)
	}
	if p1 != p2 {
		t.Fatalf("p1=%p p2=%p, coalescing did not restore top-level free block", p1, p2)
	}
	a.Deallocate(p2, 200)
}

func TestOutOfMemory(t *testing.T) {
	a := mustNew(t, 64, 16)
	defer a.Close()

	if _, err := a.Allocate(65, 8); err == nil {
		t.Fatal("expected OutOfMemory for an allocation larger than the buffer")
	}
}
