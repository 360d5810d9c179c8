package pagedlinear

import (
	"testing"

	"github.com/zyuery/icmemory/mem/buddy"
)

func TestGrowsAcrossPages(t *testing.T) {
	a, err := NewSized(32)
	if err != nil {
		t.Fatalf("NewSized: %v", err)
	}
	defer a.Close()

	var ptrs []*int
	for i := 0; i < 20; i++ {
		p, err := a.Allocate(8, 8)
		if err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
		v := (*int)(p)
		*v = i
		ptrs = append(ptrs, v)
	}
	if a.PageCount() < 2 {
		t.Fatalf("PageCount = %d, want >= 2 after exceeding one page", a.PageCount())
	}
	for i, v := range ptrs {
		if *v != i {
			t.Fatalf("ptrs[%d] = %d, want %d", i, *v, i)
		}
	}
}

func TestVaryingSizedObjectsGetsDedicatedPage(t *testing.T) {
	a, err := NewSized(64)
	if err != nil {
		t.Fatalf("NewSized: %v", err)
	}
	defer a.Close()

	p, err := a.Allocate(1024, 8)
	if err != nil {
		t.Fatalf("Allocate oversized: %v", err)
	}
	buf := (*[1024]byte)(p)
	for i := range buf {
		buf[i] = byte(i)
	}
	for i := range buf {
		if buf[i] != byte(i) {
			t.Fatalf("buf[%d] = %d, want %d", i, buf[i], byte(i))
		}
	}
}

func TestResetRetainsFirstPage(t *testing.T) {
	a, err := NewSized(32)
	if err != nil {
		t.Fatalf("NewSized: %v", err)
	}
	defer a.Close()

	for i := 0; i < 10; i++ {
		if _, err := a.Allocate(8, 8); err != nil {
			t.Fatalf("Allocate %d: %v", i, err)
		}
	}
	a.Reset()
	if a.PageCount() != 1 {
		t.Fatalf("PageCount = %d after Reset, want 1", a.PageCount())
	}
	p, err := a.Allocate(8, 8)
	if err != nil {
		t.Fatalf("Allocate after reset: %v", err)
	}
	*(*uint64)(p) = 9
}

func TestComposesOverBuddyParent(t *testing.T) {
	parent, err := buddy.New(4096)
	if err != nil {
		t.Fatalf("buddy.New: %v", err)
	}
	defer parent.Close()

	a, err := NewFrom(parent, 256)
	if err != nil {
		t.Fatalf("NewFrom: %v", err)
	}
	defer a.Close()

	p, err := a.Allocate(16, 8)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	*(*uint64)(p) = 99
	if got := *(*uint64)(p); got != 99 {
		t.Fatalf("got %d, want 99", got)
	}
}
