package join_test

import (
	"testing"

	"arcbtree/internal/bpm"
	"arcbtree/internal/bptree"
	"arcbtree/internal/diskscheduler"
	"arcbtree/internal/diskstore"
	"arcbtree/internal/join"
	"arcbtree/internal/types"
)

func newJoinTestTree(t *testing.T) *bptree.Tree {
	t.Helper()
	store := diskstore.New()
	sched := diskscheduler.New(store, 8)
	t.Cleanup(sched.Close)
	b := bpm.New(16, sched, store)
	return bptree.NewTree(b, 4, 4)
}

func TestNestedLoopJoinMatchesEqualKeys(t *testing.T) {
	left := newJoinTestTree(t)
	right := newJoinTestTree(t)

	for _, k := range []int32{1, 2, 3, 4, 5} {
		left.Insert(types.Key(k), types.RID{PageID: types.PageID(100 + k), Slot: 0})
	}
	for _, k := range []int32{3, 4, 5, 6, 7} {
		right.Insert(types.Key(k), types.RID{PageID: types.PageID(200 + k), Slot: 0})
	}

	pairs := join.NestedLoopJoin(
		left.Begin(),
		func() join.Source { return right.Begin() },
		2,
		func(a, b types.Key) bool { return a == b },
	)

	if len(pairs) != 3 {
		t.Fatalf("len(pairs) = %d, want 3 (keys 3,4,5 match)", len(pairs))
	}
	for _, p := range pairs {
		if p.Outer.PageID-100 != p.Inner.PageID-200 {
			t.Fatalf("mismatched pair: outer=%v inner=%v", p.Outer, p.Inner)
		}
	}
}
