// Package bptree implements a unique-key, ordered B+Tree index over a
// buffer pool manager. Page layouts are fixed-size binary structures
// (SPEC_FULL.md section 10), decoded in place via typed views over a page
// guard's byte slice — the same decode/serialize-to-a-struct idiom the
// teacher's bplustree package uses, adapted from variable-length []byte
// slices to fixed binary layouts.
package bptree

import (
	"encoding/binary"

	"arcbtree/internal/frame"
	"arcbtree/internal/types"
)

// PageType distinguishes internal and leaf B+Tree pages. The header page
// has no type tag of its own; it is addressed by a tree's fixed
// headerPageID.
type PageType int32

const (
	PageTypeInvalid  PageType = 0
	PageTypeLeaf     PageType = 1
	PageTypeInternal PageType = 2
)

const (
	keySize   = 4 // int32
	childSize = 4 // int32 page id
	ridSize   = 8 // PageID int32 + Slot int32

	headerPageSize   = 4  // root_page_id int32
	internalHdrSize  = 12 // type, size, max_size
	leafHdrSize      = 16 // type, size, max_size, next_page_id
)

// DefaultMaxInternalSize returns the largest max_size that fits an
// internal page's key+child arrays within one disk page.
func DefaultMaxInternalSize() int32 {
	return int32((frame.PageSize - internalHdrSize) / (keySize + childSize))
}

// DefaultMaxLeafSize returns the largest max_size that fits a leaf page's
// key+value arrays within one disk page.
func DefaultMaxLeafSize() int32 {
	return int32((frame.PageSize - leafHdrSize) / (keySize + ridSize))
}

// MinSize is the B+Tree occupancy floor for a node sized maxSize:
// ceil((maxSize+1)/2).
func MinSize(maxSize int32) int32 {
	return (maxSize + 2) / 2
}

// HeaderView decodes the single fixed header page holding the tree's root
// page id.
type HeaderView struct{ buf []byte }

func NewHeaderView(buf []byte) HeaderView { return HeaderView{buf} }

func (h HeaderView) RootPageID() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(h.buf[0:4])))
}

func (h HeaderView) SetRootPageID(id types.PageID) {
	binary.LittleEndian.PutUint32(h.buf[0:4], uint32(int32(id)))
}

// InternalView decodes an internal page: size children and size-1
// separator keys. Keys occupy slots [1, size-1]; slot 0 is never a real
// key (SPEC_FULL.md section 10). children[0] holds keys less than
// keys[1]; for 1 <= i <= size-2, children[i] holds keys in
// [keys[i], keys[i+1]); children[size-1] holds keys >= keys[size-1].
type InternalView struct{ buf []byte }

func NewInternalView(buf []byte) InternalView { return InternalView{buf} }

func (v InternalView) Type() PageType {
	return PageType(int32(binary.LittleEndian.Uint32(v.buf[0:4])))
}

func (v InternalView) setType(t PageType) {
	binary.LittleEndian.PutUint32(v.buf[0:4], uint32(t))
}

func (v InternalView) Size() int32 {
	return int32(binary.LittleEndian.Uint32(v.buf[4:8]))
}

func (v InternalView) SetSize(n int32) {
	binary.LittleEndian.PutUint32(v.buf[4:8], uint32(n))
}

func (v InternalView) MaxSize() int32 {
	return int32(binary.LittleEndian.Uint32(v.buf[8:12]))
}

func (v InternalView) setMaxSize(n int32) {
	binary.LittleEndian.PutUint32(v.buf[8:12], uint32(n))
}

// Init formats the page as an empty internal node.
func (v InternalView) Init(maxSize int32) {
	v.setType(PageTypeInternal)
	v.SetSize(0)
	v.setMaxSize(maxSize)
}

func (v InternalView) keyOffset(i int) int {
	return internalHdrSize + i*keySize
}

func (v InternalView) childOffset(i int) int {
	maxSize := int(v.MaxSize())
	return internalHdrSize + maxSize*keySize + i*childSize
}

func (v InternalView) Key(i int) types.Key {
	off := v.keyOffset(i)
	return types.Key(int32(binary.LittleEndian.Uint32(v.buf[off : off+4])))
}

func (v InternalView) SetKey(i int, k types.Key) {
	off := v.keyOffset(i)
	binary.LittleEndian.PutUint32(v.buf[off:off+4], uint32(int32(k)))
}

func (v InternalView) Child(i int) types.PageID {
	off := v.childOffset(i)
	return types.PageID(int32(binary.LittleEndian.Uint32(v.buf[off : off+4])))
}

func (v InternalView) SetChild(i int, p types.PageID) {
	off := v.childOffset(i)
	binary.LittleEndian.PutUint32(v.buf[off:off+4], uint32(int32(p)))
}

// LeafView decodes a leaf page: size (key, value) pairs in sorted key
// order, plus the next leaf's page id for forward iteration.
type LeafView struct{ buf []byte }

func NewLeafView(buf []byte) LeafView { return LeafView{buf} }

func (v LeafView) Type() PageType {
	return PageType(int32(binary.LittleEndian.Uint32(v.buf[0:4])))
}

func (v LeafView) setType(t PageType) {
	binary.LittleEndian.PutUint32(v.buf[0:4], uint32(t))
}

func (v LeafView) Size() int32 {
	return int32(binary.LittleEndian.Uint32(v.buf[4:8]))
}

func (v LeafView) SetSize(n int32) {
	binary.LittleEndian.PutUint32(v.buf[4:8], uint32(n))
}

func (v LeafView) MaxSize() int32 {
	return int32(binary.LittleEndian.Uint32(v.buf[8:12]))
}

func (v LeafView) setMaxSize(n int32) {
	binary.LittleEndian.PutUint32(v.buf[8:12], uint32(n))
}

func (v LeafView) NextPageID() types.PageID {
	return types.PageID(int32(binary.LittleEndian.Uint32(v.buf[12:16])))
}

func (v LeafView) SetNextPageID(id types.PageID) {
	binary.LittleEndian.PutUint32(v.buf[12:16], uint32(int32(id)))
}

// Init formats the page as an empty leaf node.
func (v LeafView) Init(maxSize int32) {
	v.setType(PageTypeLeaf)
	v.SetSize(0)
	v.setMaxSize(maxSize)
	v.SetNextPageID(types.InvalidPageID)
}

func (v LeafView) keyOffset(i int) int {
	return leafHdrSize + i*keySize
}

func (v LeafView) valueOffset(i int) int {
	maxSize := int(v.MaxSize())
	return leafHdrSize + maxSize*keySize + i*ridSize
}

func (v LeafView) Key(i int) types.Key {
	off := v.keyOffset(i)
	return types.Key(int32(binary.LittleEndian.Uint32(v.buf[off : off+4])))
}

func (v LeafView) SetKey(i int, k types.Key) {
	off := v.keyOffset(i)
	binary.LittleEndian.PutUint32(v.buf[off:off+4], uint32(int32(k)))
}

func (v LeafView) Value(i int) types.RID {
	off := v.valueOffset(i)
	pid := int32(binary.LittleEndian.Uint32(v.buf[off : off+4]))
	slot := int32(binary.LittleEndian.Uint32(v.buf[off+4 : off+8]))
	return types.RID{PageID: types.PageID(pid), Slot: slot}
}

func (v LeafView) SetValue(i int, r types.RID) {
	off := v.valueOffset(i)
	binary.LittleEndian.PutUint32(v.buf[off:off+4], uint32(int32(r.PageID)))
	binary.LittleEndian.PutUint32(v.buf[off+4:off+8], uint32(r.Slot))
}
