// Package join declares the block-nested-loop join executor's interface
// as an external collaborator of the core index (SPEC_FULL.md section 1
// places the executor itself out of scope; only its shape is specified).
// It is grounded on original_source/src/bnlj.cpp's
// BlockNestedLoopJoinExecutor, adapted from that file's row-page scan to
// iterate over two ordered B+Tree cursors instead: this module has no
// heap-file row layer, so the join operates directly on the (key, RID)
// pairs the tree's own Iterator already yields.
package join

import "arcbtree/internal/types"

// Source is anything a join side can scan forward, matching
// *bptree.Iterator's shape without importing it (avoids a dependency
// from this peripheral package back onto the tree).
type Source interface {
	Get() (types.Key, types.RID, bool)
	Next()
	IsEnd() bool
}

// Pair is one matched (outer RID, inner RID) result.
type Pair struct {
	Outer types.RID
	Inner types.RID
}

// NestedLoopJoin runs a block-nested-loop equality join between outer and
// a fresh inner cursor produced by newInner, calling pred(outerKey,
// innerKey) to decide whether a pair matches. newInner is invoked once
// per outer block to re-scan the inner side from its start, since a
// cursor that has reached IsEnd() cannot rewind — mirroring the reference
// implementation's re-acquisition of a fresh ReadPageGuard at the top of
// its inner loop. blockSize caps how many outer rows are buffered before
// the inner side is rescanned; a blockSize of 0 is treated as 1.
//
// This is the single-threaded, whole-result-in-memory rendition the spec
// calls for (SPEC_FULL.md section 13): it exists to show the join
// executor composes against the real iterator, not to be a performant
// join strategy.
func NestedLoopJoin(outer Source, newInner func() Source, blockSize int, pred func(outerKey, innerKey types.Key) bool) []Pair {
	if blockSize <= 0 {
		blockSize = 1
	}

	var results []Pair
	type outerRow struct {
		key types.Key
		rid types.RID
	}

	for !outer.IsEnd() {
		block := make([]outerRow, 0, blockSize)
		for len(block) < blockSize && !outer.IsEnd() {
			k, rid, ok := outer.Get()
			if !ok {
				break
			}
			block = append(block, outerRow{key: k, rid: rid})
			outer.Next()
		}
		if len(block) == 0 {
			break
		}

		inner := newInner()
		for !inner.IsEnd() {
			ik, irid, ok := inner.Get()
			if !ok {
				break
			}
			for _, row := range block {
				if pred(row.key, ik) {
					results = append(results, Pair{Outer: row.rid, Inner: irid})
				}
			}
			inner.Next()
		}
	}
	return results
}
