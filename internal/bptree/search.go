package bptree

import (
	"arcbtree/internal/bpm"
	"arcbtree/internal/types"
)

// GetValue looks up key and returns its RID. The second return is false if
// the tree is empty or key is absent — a miss is not an error
// (SPEC_FULL.md section 2).
func (t *Tree) GetValue(key types.Key) (types.RID, bool) {
	hg := t.bpm.ReadPage(t.headerPageID)
	rootID := NewHeaderView(hg.Data()).RootPageID()
	hg.Close()
	if rootID == types.InvalidPageID {
		return types.RID{}, false
	}

	cur := t.bpm.ReadPage(rootID)
	for {
		h := t.headerCache.getInternal(cur.PageID(), cur.Revision(), NewInternalView(cur.Data()))
		if h.typ != PageTypeLeaf {
			v := NewInternalView(cur.Data())
			numKeys := int(h.size) - 1
			idx := internalChildIndex(v, numKeys, key)
			childID := v.Child(idx)
			next := t.bpm.ReadPage(childID)
			cur.Close()
			cur = next
			continue
		}
		break
	}

	lv := NewLeafView(cur.Data())
	n := int(lv.Size())
	idx, found := leafFind(lv, n, key)
	if !found {
		cur.Close()
		return types.RID{}, false
	}
	rid := lv.Value(idx)
	cur.Close()
	return rid, true
}

// walkToLeaf descends with read latches, releasing the parent as soon as
// the child is latched (standard B+Tree read crabbing — safe because
// readers never mutate structure). Returns the leaf's read guard.
func walkToLeaf(b *bpm.BufferPoolManager, hc *headerCache, rootID types.PageID, key types.Key) *bpm.ReadPageGuard {
	cur := b.ReadPage(rootID)
	for {
		h := hc.getInternal(cur.PageID(), cur.Revision(), NewInternalView(cur.Data()))
		if h.typ == PageTypeLeaf {
			return cur
		}
		v := NewInternalView(cur.Data())
		idx := internalChildIndex(v, int(h.size)-1, key)
		next := b.ReadPage(v.Child(idx))
		cur.Close()
		cur = next
	}
}
