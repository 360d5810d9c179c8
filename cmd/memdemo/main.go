// Command memdemo exercises a small composition of allocators end to
// end: a BuddyAllocator backs an ObjectPool[Player] per worker, and each
// worker constructs and reads back its own players independently. Every
// allocator instance here is owned by exactly one goroutine, matching
// the single-threaded contract every engine in mem/ relies on.
package main

import (
	"fmt"
	"sync"

	"github.com/zyuery/icmemory/mem/buddy"
	"github.com/zyuery/icmemory/mem/pool"
)

type Player struct {
	ID   uint64
	HP   uint32
	MP   uint32
	Name [32]byte
}

func newPlayer(id uint64, hp, mp uint32, name string) Player {
	var p Player
	p.ID, p.HP, p.MP = id, hp, mp
	copy(p.Name[:], []byte(name))
	return p
}

func worker(tag string, n int) []Player {
	arena, err := buddy.New(1 << 16)
	if err != nil {
		fmt.Println(tag, "buddy.New:", err)
		return nil
	}
	defer arena.Close()

	players, err := pool.NewObjectFrom[Player](arena, uintptr(n))
	if err != nil {
		fmt.Println(tag, "NewObjectFrom:", err)
		return nil
	}
	defer players.Close()

	out := make([]Player, 0, n)
	handles := make([]interface{ Reset() }, 0, n)
	for i := 0; i < n; i++ {
		h, err := players.Create(newPlayer(uint64(i), uint32(i), uint32(i), fmt.Sprintf("%s%d", tag, i)))
		if err != nil {
			fmt.Println(tag, "Create:", err)
			break
		}
		out = append(out, *h.Get())
		handles = append(handles, &h)
	}
	for _, h := range handles {
		h.Reset()
	}
	return out
}

func main() {
	var wg sync.WaitGroup
	results := make([][]Player, 2)
	tags := []string{"player", "master"}

	wg.Add(len(tags))
	for i, tag := range tags {
		i, tag := i, tag
		go func() {
			defer wg.Done()
			results[i] = worker(tag, 16)
		}()
	}
	wg.Wait()

	for i, tag := range tags {
		for _, p := range results[i] {
			fmt.Println(tag, p.ID, p.HP, string(p.Name[:]))
		}
	}
}
