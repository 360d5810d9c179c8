package container

import (
	"testing"

	"github.com/zyuery/icmemory/mem/linear"
)

func TestVectorPushPopAndCopyFrom(t *testing.T) {
	a, err := linear.New(1024)
	if err != nil {
		t.Fatalf("linear.New: %v", err)
	}
	defer a.Close()

	v, err := MakeVector[int](a)
	if err != nil {
		t.Fatalf("MakeVector: %v", err)
	}
	defer v.Close()

	for i := 0; i < 5; i++ {
		v.PushBack(i)
	}
	if v.Len() != 5 {
		t.Fatalf("Len = %d, want 5", v.Len())
	}
	if got := v.PopBack(); got != 4 {
		t.Fatalf("PopBack = %d, want 4", got)
	}

	v2, err := MakeVectorFrom[int](a, v.Slice())
	if err != nil {
		t.Fatalf("MakeVectorFrom: %v", err)
	}
	defer v2.Close()
	if v2.Len() != v.Len() {
		t.Fatalf("copy length = %d, want %d", v2.Len(), v.Len())
	}
	*v2.At(0) = 99
	if *v.At(0) == 99 {
		t.Fatal("MakeVectorFrom should copy, not alias, the source slice")
	}
}

func TestDequeStackQueue(t *testing.T) {
	a, err := linear.New(1024)
	if err != nil {
		t.Fatalf("linear.New: %v", err)
	}
	defer a.Close()

	d, err := MakeDeque[int](a)
	if err != nil {
		t.Fatalf("MakeDeque: %v", err)
	}
	defer d.Close()
	d.PushBack(1)
	d.PushFront(0)
	d.PushBack(2)
	if got := d.PopFront(); got != 0 {
		t.Fatalf("PopFront = %d, want 0", got)
	}
	if got := d.PopBack(); got != 2 {
		t.Fatalf("PopBack = %d, want 2", got)
	}

	s, err := MakeStack[string](a)
	if err != nil {
		t.Fatalf("MakeStack: %v", err)
	}
	defer s.Close()
	s.Push("a")
	s.Push("b")
	if got := s.Pop(); got != "b" {
		t.Fatalf("Pop = %q, want b", got)
	}

	q, err := MakeQueue[string](a)
	if err != nil {
		t.Fatalf("MakeQueue: %v", err)
	}
	defer q.Close()
	q.Enqueue("x")
	q.Enqueue("y")
	if got := q.Dequeue(); got != "x" {
		t.Fatalf("Dequeue = %q, want x", got)
	}
}

func TestUnorderedMapAndSet(t *testing.T) {
	a, err := linear.New(1024)
	if err != nil {
		t.Fatalf("linear.New: %v", err)
	}
	defer a.Close()

	m, err := MakeUnorderedMap[string, int](a)
	if err != nil {
		t.Fatalf("MakeUnorderedMap: %v", err)
	}
	defer m.Close()
	m.Set("a", 1)
	if got, ok := m.Get("a"); !ok || got != 1 {
		t.Fatalf("Get(a) = %d,%v, want 1,true", got, ok)
	}
	m.Delete("a")
	if _, ok := m.Get("a"); ok {
		t.Fatal("expected a to be gone after Delete")
	}

	set, err := MakeUnorderedSetFrom(a, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("MakeUnorderedSetFrom: %v", err)
	}
	defer set.Close()
	if !set.Contains(2) {
		t.Fatal("expected set to contain 2")
	}
	if set.Len() != 3 {
		t.Fatalf("Len = %d, want 3", set.Len())
	}
}

func TestStringUTF16RoundTrip(t *testing.T) {
	a, err := linear.New(1024)
	if err != nil {
		t.Fatalf("linear.New: %v", err)
	}
	defer a.Close()

	s, err := MakeStringFromUTF8(a, "hello")
	if err != nil {
		t.Fatalf("MakeStringFromUTF8: %v", err)
	}
	defer s.Close()

	units := s.UTF16LE()
	s2, err := MakeStringFromUTF16LE(a, units)
	if err != nil {
		t.Fatalf("MakeStringFromUTF16LE: %v", err)
	}
	defer s2.Close()

	if s2.String() != "hello" {
		t.Fatalf("got %q, want hello", s2.String())
	}
}
