package small

import "testing"

type vec8 struct {
	D0, D1, D2, D3, D4, D5, D6, D7 float64
}

// TestPoolDispatchesAcrossPageGrowth implements the small-object
// dispatch scenario: three 64-byte structs constructed through the pool
// must all read back intact, including once the 64-byte class has grown
// past its first page.
func TestPoolDispatchesAcrossPageGrowth(t *testing.T) {
	p, err := NewPoolSized(2)
	if err != nil {
		t.Fatalf("NewPoolSized: %v", err)
	}
	defer p.Close()

	want := []vec8{
		{0, 1, 2, 3, 4, 5, 6, 7},
		{0, 1, 2, 3, 4, 5, 6, 7},
		{0, 1, 2, 3, 4, 5, 6, 7},
	}
	var got []vec8
	var handles []handleLike
	for _, v := range want {
		h, err := Create(p, v)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		got = append(got, *h.Get())
		handles = append(handles, &h)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("struct %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	for _, h := range handles {
		h.Reset()
	}
}

type handleLike interface{ Reset() }

func TestAllocatorRejectsBeyondCeiling(t *testing.T) {
	a, err := New(64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if _, err := a.Allocate(128, 8); err == nil {
		t.Fatal("expected an error allocating past the top class")
	}
}

func TestAllocatorDispatchesToSmallestClass(t *testing.T) {
	a, err := New(64)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	p, err := a.Allocate(3, 1)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	*(*byte)(p) = 42
	if got := *(*byte)(p); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
	a.Deallocate(p, 3)
}
