package bptree

import (
	"strconv"

	"github.com/dgraph-io/ristretto/v2"

	"arcbtree/internal/types"
)

// decodedHeader is the small, hot quad read on every descent step: a
// page's type, occupancy, capacity, and (for leaves) next-page pointer.
// It is cheap to decode from a page guard directly, but every descent step
// of every concurrent reader re-decodes it, so caching pays off under
// contention (SPEC_FULL.md section 3).
type decodedHeader struct {
	typ         PageType
	size        int32
	maxSize     int32
	nextPageID  types.PageID
	hasNextPage bool
}

// headerKey packs a page id and its owning frame's revision counter into a
// single string so it can be used as a ristretto.Key (ristretto's generic
// Cache only accepts ~uint64 | ~string | ~[]byte | ~byte | ~int | ~uint |
// ~int32 | ~uint32 | ~int64, not arbitrary structs).
func headerKey(pageID types.PageID, revision uint64) string {
	return strconv.FormatInt(int64(pageID), 10) + ":" + strconv.FormatUint(revision, 10)
}

// headerCache is a read-through lookaside over decoded page headers,
// keyed by page id plus the owning frame's revision counter so a header
// decoded for one page incarnation is never served for another. It sits
// above the buffer pool manager: a miss just means re-decoding four
// int32s from bytes already resident in the BPM's own frame cache, never
// a disk fault.
type headerCache struct {
	cache *ristretto.Cache[string, decodedHeader]
}

func newHeaderCache() *headerCache {
	c, err := ristretto.NewCache(&ristretto.Config[string, decodedHeader]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		// Config above is static and valid; a construction error here
		// would mean ristretto itself is broken.
		panic("bptree: failed to construct header cache: " + err.Error())
	}
	return &headerCache{cache: c}
}

func (hc *headerCache) getInternal(pageID types.PageID, revision uint64, v InternalView) decodedHeader {
	key := headerKey(pageID, revision)
	if h, ok := hc.cache.Get(key); ok {
		return h
	}
	h := decodedHeader{typ: v.Type(), size: v.Size(), maxSize: v.MaxSize()}
	hc.cache.Set(key, h, 1)
	return h
}

func (hc *headerCache) getLeaf(pageID types.PageID, revision uint64, v LeafView) decodedHeader {
	key := headerKey(pageID, revision)
	// An entry cached by getInternal for the same page carries no next-page
	// pointer; decode afresh rather than serve it.
	if h, ok := hc.cache.Get(key); ok && h.hasNextPage {
		return h
	}
	h := decodedHeader{typ: v.Type(), size: v.Size(), maxSize: v.MaxSize(), nextPageID: v.NextPageID(), hasNextPage: true}
	hc.cache.Set(key, h, 1)
	return h
}
