// demo builds a B+Tree from the integers given on the command line,
// prints the iterator's in-order sequence, and reports buffer pool
// counters — the Go rendition of the original's visual/long-run test
// drivers (SPEC_FULL.md section 13), grounded on the teacher's own
// one-tool-per-directory cmd/ pattern.
//
// Usage: go run ./cmd/demo 12 6 18 3 9 15 21 1 4 7
package main

import (
	"fmt"
	"os"
	"strconv"

	"arcbtree/internal/bpm"
	"arcbtree/internal/bptree"
	"arcbtree/internal/diskscheduler"
	"arcbtree/internal/diskstore"
	"arcbtree/internal/types"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: demo <int> [int...]")
		os.Exit(1)
	}

	keys := make([]int32, 0, len(args))
	for _, a := range args {
		n, err := strconv.ParseInt(a, 10, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid key %q: %v\n", a, err)
			os.Exit(1)
		}
		keys = append(keys, int32(n))
	}

	store := diskstore.New()
	sched := diskscheduler.New(store, 16)
	defer sched.Close()

	pool := bpm.New(32, sched, store)
	tree := bptree.NewTree(pool, 0, 0)

	for _, k := range keys {
		if !tree.Insert(types.Key(k), types.RID{PageID: types.PageID(k), Slot: 0}) {
			fmt.Printf("insert %d: already present\n", k)
		}
	}

	fmt.Print("in-order: ")
	count := 0
	for it := tree.Begin(); !it.IsEnd(); it.Next() {
		k, _, ok := it.Get()
		if !ok {
			break
		}
		if count > 0 {
			fmt.Print(" ")
		}
		fmt.Print(k)
		count++
	}
	fmt.Println()
	fmt.Printf("count: %d\n", count)

	reads, writes, hits, misses := pool.Counters()
	fmt.Printf("bpm: reads=%d writes=%d hits=%d misses=%d\n", reads, writes, hits, misses)
	fmt.Printf("disk scheduler: reads=%d writes=%d\n", sched.ScheduledReads(), sched.ScheduledWrites())
}
