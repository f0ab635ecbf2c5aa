package bptree

import (
	"arcbtree/internal/types"
)

// Iterator is a forward cursor over the tree's leaf chain, in ascending
// key order (SPEC_FULL.md section 11). It stores only a (leaf page id,
// slot) pair and re-acquires a read guard on every access rather than
// holding one across calls — so a long-lived iterator never pins a page
// between Next() calls. Whether this makes concurrent structural changes
// visible mid-iteration is left unspecified; callers must not depend on
// it either way.
type Iterator struct {
	tree       *Tree
	leafPageID types.PageID
	slot       int
	empty      bool // true only for an iterator over an empty tree
}

// Begin returns an iterator positioned at the tree's first (smallest) key.
func (t *Tree) Begin() *Iterator {
	rootID := t.rootPageID()
	if rootID == types.InvalidPageID {
		return &Iterator{tree: t, empty: true}
	}
	leafID := t.descendToLeaf(rootID, func(v InternalView) int { return 0 })
	return &Iterator{tree: t, leafPageID: leafID, slot: 0}
}

// BeginAt returns an iterator positioned at key, if present, or at the
// first key greater than it otherwise.
func (t *Tree) BeginAt(key types.Key) *Iterator {
	rootID := t.rootPageID()
	if rootID == types.InvalidPageID {
		return &Iterator{tree: t, empty: true}
	}
	leafGuard := walkToLeaf(t.bpm, t.headerCache, rootID, key)
	lv := NewLeafView(leafGuard.Data())
	n := int(lv.Size())
	idx, _ := leafFind(lv, n, key)
	pid := leafGuard.PageID()
	if idx == n && lv.NextPageID() != types.InvalidPageID {
		// Every key in this leaf is smaller than key: the first greater
		// key is the next leaf's first entry.
		pid, idx = lv.NextPageID(), 0
	}
	leafGuard.Close()
	return &Iterator{tree: t, leafPageID: pid, slot: idx}
}

// End returns an iterator positioned one past the tree's last key: the
// rightmost leaf with slot == size.
func (t *Tree) End() *Iterator {
	rootID := t.rootPageID()
	if rootID == types.InvalidPageID {
		return &Iterator{tree: t, empty: true}
	}
	var slot int
	leafID := t.descendToLeaf(rootID, func(v InternalView) int { return int(v.Size()) - 1 })
	g := t.bpm.ReadPage(leafID)
	slot = int(NewLeafView(g.Data()).Size())
	g.Close()
	return &Iterator{tree: t, leafPageID: leafID, slot: slot}
}

func (t *Tree) rootPageID() types.PageID {
	hg := t.bpm.ReadPage(t.headerPageID)
	defer hg.Close()
	return NewHeaderView(hg.Data()).RootPageID()
}

// descendToLeaf walks from rootID to a leaf, using pick to choose which
// child index to follow at each internal page, and returns the leaf's
// page id.
func (t *Tree) descendToLeaf(rootID types.PageID, pick func(InternalView) int) types.PageID {
	cur := t.bpm.ReadPage(rootID)
	for {
		h := t.headerCache.getInternal(cur.PageID(), cur.Revision(), NewInternalView(cur.Data()))
		if h.typ == PageTypeLeaf {
			pid := cur.PageID()
			cur.Close()
			return pid
		}
		v := NewInternalView(cur.Data())
		childID := v.Child(pick(v))
		next := t.bpm.ReadPage(childID)
		cur.Close()
		cur = next
	}
}

// IsEnd reports whether the iterator has advanced past the last entry.
func (it *Iterator) IsEnd() bool {
	if it.empty {
		return true
	}
	g := it.tree.bpm.ReadPage(it.leafPageID)
	defer g.Close()
	h := it.tree.headerCache.getLeaf(g.PageID(), g.Revision(), NewLeafView(g.Data()))
	return it.slot >= int(h.size) && h.nextPageID == types.InvalidPageID
}

// Get returns the (key, value) pair at the iterator's current position.
// The second return is false if the iterator is at end.
func (it *Iterator) Get() (types.Key, types.RID, bool) {
	if it.IsEnd() {
		return types.Key(0), types.RID{}, false
	}
	g := it.tree.bpm.ReadPage(it.leafPageID)
	defer g.Close()
	lv := NewLeafView(g.Data())
	return lv.Key(it.slot), lv.Value(it.slot), true
}

// Next advances the iterator by one entry. Calling Next at end is a
// programmer error and panics, matching the "accessing past end fails"
// contract in SPEC_FULL.md section 11.
func (it *Iterator) Next() {
	if it.IsEnd() {
		panic("bptree: Iterator.Next called at end")
	}
	g := it.tree.bpm.ReadPage(it.leafPageID)
	h := it.tree.headerCache.getLeaf(g.PageID(), g.Revision(), NewLeafView(g.Data()))
	n := int(h.size)
	nextPageID := h.nextPageID
	g.Close()

	it.slot++
	if it.slot >= n && nextPageID != types.InvalidPageID {
		it.leafPageID = nextPageID
		it.slot = 0
	}
}
