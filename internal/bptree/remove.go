package bptree

import (
	"arcbtree/internal/bpm"
	"arcbtree/internal/types"
)

// Remove deletes key from the tree. Returns false without modifying the
// tree if key is absent — an expected outcome, not an error.
//
// Like Insert, Remove takes a write latch on the entire path from the
// header down to the target leaf before making any change, and holds
// sibling latches only transiently while redistributing or merging
// (SPEC_FULL.md section 11). Determinism: redistribute is always tried
// before merge, and a left neighbor is always tried before a right one.
func (t *Tree) Remove(key types.Key) bool {
	hg := t.bpm.WritePage(t.headerPageID)
	rootID := NewHeaderView(hg.Data()).RootPageID()
	if rootID == types.InvalidPageID {
		hg.Close()
		return false
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
			if g != nil {
				g.Close()
			}
		}
	}()

	leafGuard := guards[len(guards)-1]
	lv := NewLeafView(leafGuard.Data())
	n := int(lv.Size())
	idx, found := leafFind(lv, n, key)
	if !found {
		return false
	}

	lvm := NewLeafView(leafGuard.DataMut())
	removeLeafEntry(lvm, n, idx)
	lvm.SetSize(int32(n - 1))
	log.Printf("REMOVE key=%v", key)

	t.fixUnderflow(guards, childIdx)
	return true
}

func removeLeafEntry(v LeafView, n, idx int) {
	for i := idx; i < n-1; i++ {
		v.SetKey(i, v.Key(i+1))
		v.SetValue(i, v.Value(i+1))
	}
}

// nodeHeader reads the type/size/max_size triple shared by both page
// layouts (their first 12 bytes have identical meaning).
func nodeHeader(g *bpm.WritePageGuard) (PageType, int32, int32) {
	v := NewInternalView(g.Data())
	return v.Type(), v.Size(), v.MaxSize()
}

// fixUnderflow walks back up from the node just modified (guards[last]),
// rebalancing or collapsing ancestors as needed.
func (t *Tree) fixUnderflow(guards []*bpm.WritePageGuard, childIdx []int) {
	level := len(guards) - 1

	for level >= 1 {
		node := guards[level]

		if level == 1 {
			typ, size, _ := nodeHeader(node)
			if typ == PageTypeLeaf {
				if size == 0 {
					pid := node.PageID()
					node.Close()
					guards[level] = nil
					t.bpm.DeletePage(pid)
					NewHeaderView(guards[0].DataMut()).SetRootPageID(types.InvalidPageID)
				}
			} else if size == 1 {
				v := NewInternalView(node.Data())
				onlyChild := v.Child(0)
				pid := node.PageID()
				node.Close()
				guards[level] = nil
				t.bpm.DeletePage(pid)
				NewHeaderView(guards[0].DataMut()).SetRootPageID(onlyChild)
			}
			return
		}

		_, size, maxSize := nodeHeader(node)
		if size >= MinSize(maxSize) {
			return
		}

		parent := guards[level-1]
		myIdx := childIdx[level-2]
		mergedAway := t.rebalance(parent, myIdx, node)
		if !mergedAway {
			return
		}
		level--
	}
}

// rebalance resolves an underflow in node, which sits at index myIdx among
// parent's children. Returns true if node was merged away (parent lost a
// child and must itself be checked for underflow), false if a
// redistribution sufficed. A sibling lends one entry when it holds more
// than minSize entries, or when its entries and node's together would not
// fit in one page, so a merge never overflows max_size.
func (t *Tree) rebalance(parent *bpm.WritePageGuard, myIdx int, node *bpm.WritePageGuard) bool {
	pv := NewInternalView(parent.Data())
	numChildren := int(pv.Size())
	isLeaf, nodeSize, maxSize := nodeHeader(node)
	minSize := MinSize(maxSize)
	leaf := isLeaf == PageTypeLeaf

	if myIdx > 0 {
		leftID := pv.Child(myIdx - 1)
		leftSib := t.bpm.WritePage(leftID)
		_, lsSize, _ := nodeHeader(leftSib)
		if lsSize-1 >= minSize || lsSize+nodeSize > maxSize {
			if leaf {
				leafBorrowFromLeft(parent, myIdx, leftSib, node)
			} else {
				internalBorrowFromLeft(parent, myIdx, leftSib, node)
			}
			leftSib.Close()
			return false
		}
		leftSib.Close()
	}

	if myIdx < numChildren-1 {
		rightID := pv.Child(myIdx + 1)
		rightSib := t.bpm.WritePage(rightID)
		_, rsSize, _ := nodeHeader(rightSib)
		if rsSize-1 >= minSize || rsSize+nodeSize > maxSize {
			if leaf {
				leafBorrowFromRight(parent, myIdx, rightSib, node)
			} else {
				internalBorrowFromRight(parent, myIdx, rightSib, node)
			}
			rightSib.Close()
			return false
		}
		rightSib.Close()
	}

	if myIdx > 0 {
		leftID := pv.Child(myIdx - 1)
		leftSib := t.bpm.WritePage(leftID)
		if leaf {
			leafMergeIntoLeft(t, parent, myIdx, leftSib, node)
		} else {
			internalMergeIntoLeft(t, parent, myIdx, leftSib, node)
		}
		leftSib.Close()
		return true
	}

	rightID := pv.Child(myIdx + 1)
	rightSib := t.bpm.WritePage(rightID)
	if leaf {
		leafMergeRightIntoNode(t, parent, myIdx, node, rightSib)
	} else {
		internalMergeRightIntoNode(t, parent, myIdx, node, rightSib)
	}
	return true
}

// removeChildFromParent drops the child at childIdx and the separator that
// sat between it and its left neighbor (old slot keyIdx, i.e. new slot
// keyIdx+1 — slot 0 never holds a real key), shifting everything after
// left by one.
func removeChildFromParent(parent *bpm.WritePageGuard, keyIdx, childIdx int) {
	pv := NewInternalView(parent.Data())
	size := int(pv.Size())
	pvm := NewInternalView(parent.DataMut())
	for i := childIdx; i < size-1; i++ {
		pvm.SetChild(i, pv.Child(i+1))
	}
	for i := keyIdx + 1; i < size-1; i++ {
		pvm.SetKey(i, pv.Key(i+1))
	}
	pvm.SetSize(int32(size - 1))
}

func leafBorrowFromLeft(parent *bpm.WritePageGuard, myIdx int, leftSib, node *bpm.WritePageGuard) {
	ls := NewLeafView(leftSib.Data())
	lsN := int(ls.Size())
	k, v := ls.Key(lsN-1), ls.Value(lsN-1)

	NewLeafView(leftSib.DataMut()).SetSize(int32(lsN - 1))

	nv := NewLeafView(node.Data())
	n := int(nv.Size())
	nvm := NewLeafView(node.DataMut())
	shiftLeafRight(nvm, n, 0)
	nvm.SetKey(0, k)
	nvm.SetValue(0, v)
	nvm.SetSize(int32(n + 1))

	NewInternalView(parent.DataMut()).SetKey(myIdx, k)
}

func leafBorrowFromRight(parent *bpm.WritePageGuard, myIdx int, rightSib, node *bpm.WritePageGuard) {
	rs := NewLeafView(rightSib.Data())
	rsN := int(rs.Size())
	k, v := rs.Key(0), rs.Value(0)

	rsm := NewLeafView(rightSib.DataMut())
	removeLeafEntry(rsm, rsN, 0)
	rsm.SetSize(int32(rsN - 1))

	nv := NewLeafView(node.Data())
	n := int(nv.Size())
	nvm := NewLeafView(node.DataMut())
	nvm.SetKey(n, k)
	nvm.SetValue(n, v)
	nvm.SetSize(int32(n + 1))

	newRightFirst := NewLeafView(rightSib.Data()).Key(0)
	NewInternalView(parent.DataMut()).SetKey(myIdx+1, newRightFirst)
}

func leafMergeIntoLeft(t *Tree, parent *bpm.WritePageGuard, myIdx int, leftSib, node *bpm.WritePageGuard) {
	ls := NewLeafView(leftSib.Data())
	lsN := int(ls.Size())
	nv := NewLeafView(node.Data())
	n := int(nv.Size())

	lsm := NewLeafView(leftSib.DataMut())
	for i := 0; i < n; i++ {
		lsm.SetKey(lsN+i, nv.Key(i))
		lsm.SetValue(lsN+i, nv.Value(i))
	}
	lsm.SetSize(int32(lsN + n))
	lsm.SetNextPageID(nv.NextPageID())

	removeChildFromParent(parent, myIdx-1, myIdx)

	pid := node.PageID()
	node.Close()
	t.bpm.DeletePage(pid)
}

func leafMergeRightIntoNode(t *Tree, parent *bpm.WritePageGuard, myIdx int, node, rightSib *bpm.WritePageGuard) {
	nv := NewLeafView(node.Data())
	n := int(nv.Size())
	rs := NewLeafView(rightSib.Data())
	rsN := int(rs.Size())

	nvm := NewLeafView(node.DataMut())
	for i := 0; i < rsN; i++ {
		nvm.SetKey(n+i, rs.Key(i))
		nvm.SetValue(n+i, rs.Value(i))
	}
	nvm.SetSize(int32(n + rsN))
	nvm.SetNextPageID(rs.NextPageID())

	removeChildFromParent(parent, myIdx, myIdx+1)

	pid := rightSib.PageID()
	rightSib.Close()
	t.bpm.DeletePage(pid)
}

func internalBorrowFromLeft(parent *bpm.WritePageGuard, myIdx int, leftSib, node *bpm.WritePageGuard) {
	ls := NewInternalView(leftSib.Data())
	lsSize := int(ls.Size())
	lastChild := ls.Child(lsSize - 1)

	pv := NewInternalView(parent.Data())
	sepDown := pv.Key(myIdx)
	newSep := ls.Key(lsSize - 1)

	NewInternalView(leftSib.DataMut()).SetSize(int32(lsSize - 1))

	nv := NewInternalView(node.Data())
	n := int(nv.Size())
	nvm := NewInternalView(node.DataMut())
	shiftInternalRight(nvm, n, 0)
	nvm.SetChild(0, lastChild)
	nvm.SetKey(1, sepDown)
	nvm.SetSize(int32(n + 1))

	NewInternalView(parent.DataMut()).SetKey(myIdx, newSep)
}

func internalBorrowFromRight(parent *bpm.WritePageGuard, myIdx int, rightSib, node *bpm.WritePageGuard) {
	rs := NewInternalView(rightSib.Data())
	rsSize := int(rs.Size())
	firstChild := rs.Child(0)

	pv := NewInternalView(parent.Data())
	sepDown := pv.Key(myIdx + 1)
	newSep := rs.Key(1)

	nv := NewInternalView(node.Data())
	n := int(nv.Size())
	nvm := NewInternalView(node.DataMut())
	nvm.SetChild(n, firstChild)
	nvm.SetKey(n, sepDown)
	nvm.SetSize(int32(n + 1))

	rsm := NewInternalView(rightSib.DataMut())
	for i := 0; i < rsSize-1; i++ {
		rsm.SetChild(i, rs.Child(i+1))
	}
	for i := 1; i < rsSize-1; i++ {
		rsm.SetKey(i, rs.Key(i+1))
	}
	rsm.SetSize(int32(rsSize - 1))

	NewInternalView(parent.DataMut()).SetKey(myIdx+1, newSep)
}

func internalMergeIntoLeft(t *Tree, parent *bpm.WritePageGuard, myIdx int, leftSib, node *bpm.WritePageGuard) {
	ls := NewInternalView(leftSib.Data())
	lsSize := int(ls.Size())
	pv := NewInternalView(parent.Data())
	sepDown := pv.Key(myIdx)
	nv := NewInternalView(node.Data())
	n := int(nv.Size())

	lsm := NewInternalView(leftSib.DataMut())
	for i := 0; i < n; i++ {
		lsm.SetChild(lsSize+i, nv.Child(i))
	}
	lsm.SetKey(lsSize, sepDown)
	for i := 0; i < n-1; i++ {
		lsm.SetKey(lsSize+i+1, nv.Key(i+1))
	}
	lsm.SetSize(int32(lsSize + n))

	removeChildFromParent(parent, myIdx-1, myIdx)

	pid := node.PageID()
	node.Close()
	t.bpm.DeletePage(pid)
}

func internalMergeRightIntoNode(t *Tree, parent *bpm.WritePageGuard, myIdx int, node, rightSib *bpm.WritePageGuard) {
	pv := NewInternalView(parent.Data())
	sepDown := pv.Key(myIdx + 1)
	nv := NewInternalView(node.Data())
	n := int(nv.Size())
	rs := NewInternalView(rightSib.Data())
	rsSize := int(rs.Size())

	nvm := NewInternalView(node.DataMut())
	nvm.SetKey(n, sepDown)
	for i := 0; i < rsSize; i++ {
		nvm.SetChild(n+i, rs.Child(i))
	}
	for i := 0; i < rsSize-1; i++ {
		nvm.SetKey(n+i+1, rs.Key(i+1))
	}
	nvm.SetSize(int32(n + rsSize))

	removeChildFromParent(parent, myIdx, myIdx+1)

	pid := rightSib.PageID()
	rightSib.Close()
	t.bpm.DeletePage(pid)
}
