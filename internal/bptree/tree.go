package bptree

import (
	"arcbtree/internal/bpm"
	"arcbtree/internal/tracelog"
	"arcbtree/internal/types"
)

var log = tracelog.New("BTREE")

// Tree is a concurrent, unique-key B+Tree index over a buffer pool
// manager. A Tree owns one fixed header page, allocated at construction,
// whose sole content is the current root page id (SPEC_FULL.md section 10).
type Tree struct {
	bpm             *bpm.BufferPoolManager
	headerPageID    types.PageID
	maxInternalSize int32
	maxLeafSize     int32
	headerCache     *headerCache
}

// NewTree allocates a fresh, empty tree. maxInternalSize/maxLeafSize of 0
// select the page-size-derived defaults.
func NewTree(b *bpm.BufferPoolManager, maxInternalSize, maxLeafSize int32) *Tree {
	if maxInternalSize <= 0 {
		maxInternalSize = DefaultMaxInternalSize()
	}
	if maxLeafSize <= 0 {
		maxLeafSize = DefaultMaxLeafSize()
	}
	hg := b.NewPage()
	hpid := hg.PageID()
	NewHeaderView(hg.DataMut()).SetRootPageID(types.InvalidPageID)
	hg.Close()

	return &Tree{
		bpm:             b,
		headerPageID:    hpid,
		maxInternalSize: maxInternalSize,
		maxLeafSize:     maxLeafSize,
		headerCache:     newHeaderCache(),
	}
}

// IsEmpty reports whether the tree currently has no root.
func (t *Tree) IsEmpty() bool {
	hg := t.bpm.ReadPage(t.headerPageID)
	defer hg.Close()
	return NewHeaderView(hg.Data()).RootPageID() == types.InvalidPageID
}
