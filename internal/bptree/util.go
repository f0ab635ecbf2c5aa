package bptree

import "arcbtree/internal/types"

// leafFind returns (index, true) if key is present among the leaf's first
// n entries, else (insertion index, false).
func leafFind(v LeafView, n int, key types.Key) (int, bool) {
	lo, hi := 0, n
	for lo < hi {
		mid := (lo + hi) / 2
		if types.Compare(v.Key(mid), key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < n && types.Compare(v.Key(lo), key) == 0 {
		return lo, true
	}
	return lo, false
}

// internalChildIndex returns the index of the child subtree that must
// contain key, given numKeys separator keys (children count = numKeys+1).
// Separators live at slots [1..numKeys]; slot 0 is never a real key.
func internalChildIndex(v InternalView, numKeys int, key types.Key) int {
	lo, hi := 0, numKeys
	for lo < hi {
		mid := (lo + hi) / 2
		if types.Compare(key, v.Key(mid+1)) < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

func insertKey(s []types.Key, idx int, k types.Key) []types.Key {
	s = append(s, types.Key(0))
	copy(s[idx+1:], s[idx:len(s)-1])
	s[idx] = k
	return s
}

func insertPageID(s []types.PageID, idx int, p types.PageID) []types.PageID {
	s = append(s, types.InvalidPageID)
	copy(s[idx+1:], s[idx:len(s)-1])
	s[idx] = p
	return s
}

func insertRID(s []types.RID, idx int, r types.RID) []types.RID {
	s = append(s, types.RID{})
	copy(s[idx+1:], s[idx:len(s)-1])
	s[idx] = r
	return s
}
