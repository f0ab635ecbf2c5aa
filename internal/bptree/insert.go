package bptree

import (
	"arcbtree/internal/bpm"
	"arcbtree/internal/types"
)

// Insert adds (key, value) to the tree. Returns false without modifying
// the tree if key is already present — duplicate insert is an expected
// outcome, not an error (SPEC_FULL.md section 2).
//
// The descent takes a write latch on every page from the header down to
// the target leaf and holds all of them until the operation completes —
// the pessimistic write-latch-coupling policy SPEC_FULL.md section 11
// specifies in place of optimistic latch-crabbing.
func (t *Tree) Insert(key types.Key, value types.RID) bool {
	hg := t.bpm.WritePage(t.headerPageID)
	rootID := NewHeaderView(hg.Data()).RootPageID()

	if rootID == types.InvalidPageID {
		lg := t.bpm.NewPage()
		lv := NewLeafView(lg.DataMut())
		lv.Init(t.maxLeafSize)
		lv.SetSize(1)
		lv.SetKey(0, key)
		lv.SetValue(0, value)
		NewHeaderView(hg.DataMut()).SetRootPageID(lg.PageID())
		lg.Close()
		hg.Close()
		log.Printf("INSERT key=%v created root leaf", key)
		return true
	}

	guards := []*bpm.WritePageGuard{hg}
	childIdx := make([]int, 0, 8)

	cur := t.bpm.WritePage(rootID)
	guards = append(guards, cur)
	for {
		v := NewInternalView(cur.Data())
		if v.Type() != PageTypeInternal {
			break
		}
		idx := internalChildIndex(v, int(v.Size())-1, key)
		childIdx = append(childIdx, idx)
		next := t.bpm.WritePage(v.Child(idx))
		guards = append(guards, next)
		cur = next
	}

	defer func() {
		for _, g := range guards {
			g.Close()
		}
	}()

	leafGuard := guards[len(guards)-1]
	lv := NewLeafView(leafGuard.Data())
	n := int(lv.Size())
	idx, found := leafFind(lv, n, key)
	if found {
		return false
	}

	if n < int(lv.MaxSize()) {
		lvm := NewLeafView(leafGuard.DataMut())
		shiftLeafRight(lvm, n, idx)
		lvm.SetKey(idx, key)
		lvm.SetValue(idx, value)
		lvm.SetSize(int32(n + 1))
		return true
	}

	sep, newLeafID := splitLeafAndInsert(t, leafGuard, idx, key, value)
	t.propagateSplit(guards, childIdx, sep, newLeafID)
	return true
}

func shiftLeafRight(v LeafView, n, idx int) {
	for i := n; i > idx; i-- {
		v.SetKey(i, v.Key(i-1))
		v.SetValue(i, v.Value(i-1))
	}
}

// shiftInternalRight opens up a new child slot at insertPos (and the real
// key slot at the same index, since a child at position i>0 is always
// preceded by its separator at slot i; slot 0 never holds a real key).
func shiftInternalRight(v InternalView, numChildren, insertPos int) {
	for i := numChildren; i > insertPos; i-- {
		v.SetChild(i, v.Child(i-1))
	}
	for i := numChildren; i > insertPos; i-- {
		v.SetKey(i, v.Key(i-1))
	}
}

// splitLeafAndInsert splits a full leaf, inserting the new entry into
// whichever half it belongs in before either half is written back —
// the leaf's fixed-size array has no slack for a transient overflow entry
// (SPEC_FULL.md section 11).
func splitLeafAndInsert(t *Tree, leafGuard *bpm.WritePageGuard, idx int, key types.Key, value types.RID) (types.Key, types.PageID) {
	lv := NewLeafView(leafGuard.Data())
	maxSize := int(lv.MaxSize())

	keys := make([]types.Key, 0, maxSize+1)
	values := make([]types.RID, 0, maxSize+1)
	for i := 0; i < maxSize; i++ {
		keys = append(keys, lv.Key(i))
		values = append(values, lv.Value(i))
	}
	keys = insertKey(keys, idx, key)
	values = insertRID(values, idx, value)

	total := maxSize + 1
	leftCount := (total + 1) / 2
	rightCount := total - leftCount

	lvm := NewLeafView(leafGuard.DataMut())
	for i := 0; i < leftCount; i++ {
		lvm.SetKey(i, keys[i])
		lvm.SetValue(i, values[i])
	}
	lvm.SetSize(int32(leftCount))

	newGuard := t.bpm.NewPage()
	nv := NewLeafView(newGuard.DataMut())
	nv.Init(int32(maxSize))
	for i := 0; i < rightCount; i++ {
		nv.SetKey(i, keys[leftCount+i])
		nv.SetValue(i, values[leftCount+i])
	}
	nv.SetSize(int32(rightCount))
	nv.SetNextPageID(lvm.NextPageID())
	lvm.SetNextPageID(newGuard.PageID())

	newPageID := newGuard.PageID()
	newGuard.Close()
	return keys[leftCount], newPageID
}

// splitInternalAndInsert splits a full internal node, inserting a new
// (separator key, child) pair produced by a child-level split. The
// separator of the split itself is pulled up rather than kept on either
// side, per standard B+Tree internal-node splitting.
func splitInternalAndInsert(t *Tree, guard *bpm.WritePageGuard, insertChildAt int, key types.Key, childPageID types.PageID) (types.Key, types.PageID) {
	v := NewInternalView(guard.Data())
	maxSize := int(v.MaxSize())
	oldNumChildren := int(v.Size())

	keys := make([]types.Key, 0, oldNumChildren)
	children := make([]types.PageID, 0, oldNumChildren+1)
	for i := 0; i < oldNumChildren; i++ {
		children = append(children, v.Child(i))
		if i < oldNumChildren-1 {
			keys = append(keys, v.Key(i+1))
		}
	}
	children = insertPageID(children, insertChildAt, childPageID)
	keys = insertKey(keys, insertChildAt-1, key)

	total := oldNumChildren + 1
	leftChildCount := (total + 1) / 2
	rightChildCount := total - leftChildCount
	sep := keys[leftChildCount-1]

	vm := NewInternalView(guard.DataMut())
	vm.SetSize(int32(leftChildCount))
	for i := 0; i < leftChildCount; i++ {
		vm.SetChild(i, children[i])
	}
	for i := 0; i < leftChildCount-1; i++ {
		vm.SetKey(i+1, keys[i])
	}

	newGuard := t.bpm.NewPage()
	nv := NewInternalView(newGuard.DataMut())
	nv.Init(int32(maxSize))
	nv.SetSize(int32(rightChildCount))
	for i := 0; i < rightChildCount; i++ {
		nv.SetChild(i, children[leftChildCount+i])
	}
	for i := 0; i < rightChildCount-1; i++ {
		nv.SetKey(i+1, keys[leftChildCount+i])
	}
	newPageID := newGuard.PageID()
	newGuard.Close()
	return sep, newPageID
}

// propagateSplit walks back up guards (header at index 0, then each
// descended internal page, the leaf last) inserting (sep, newChildID) into
// the parent of the node that just split, splitting that parent in turn if
// it is itself full, until an ancestor has room or the root splits.
func (t *Tree) propagateSplit(guards []*bpm.WritePageGuard, childIdx []int, sep types.Key, newChildID types.PageID) {
	level := len(guards) - 1 // index of the node that just split

	for level >= 1 {
		if level == 1 {
			oldRootID := guards[1].PageID()
			newRootGuard := t.bpm.NewPage()
			rv := NewInternalView(newRootGuard.DataMut())
			rv.Init(t.maxInternalSize)
			rv.SetSize(2)
			rv.SetChild(0, oldRootID)
			rv.SetKey(1, sep)
			rv.SetChild(1, newChildID)
			NewHeaderView(guards[0].DataMut()).SetRootPageID(newRootGuard.PageID())
			newRootGuard.Close()
			return
		}

		parent := guards[level-1]
		idx := childIdx[level-2] // childIdx is indexed starting at the root's choice
		pv := NewInternalView(parent.Data())
		insertPos := idx + 1

		if int(pv.Size()) < int(pv.MaxSize()) {
			pvm := NewInternalView(parent.DataMut())
			shiftInternalRight(pvm, int(pv.Size()), insertPos)
			pvm.SetChild(insertPos, newChildID)
			pvm.SetKey(insertPos, sep)
			pvm.SetSize(pv.Size() + 1)
			return
		}

		sep, newChildID = splitInternalAndInsert(t, parent, insertPos, sep, newChildID)
		level--
	}
}
