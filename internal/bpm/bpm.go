// Package bpm implements the buffer pool manager: a fixed-capacity cache of
// disk pages backed by an ARC replacer and a disk scheduler, exposing
// scoped read/write page guards as its only page-access surface (see
// SPEC_FULL.md sections 8 and 9). The fault-in algorithm and the guard
// pin/latch protocol are grounded on original_source/src/buffer_pool_manager.cpp
// and original_source/src/page_guard.cpp.
package bpm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"arcbtree/internal/diskscheduler"
	"arcbtree/internal/diskstore"
	"arcbtree/internal/frame"
	"arcbtree/internal/replacer"
	"arcbtree/internal/tracelog"
	"arcbtree/internal/types"
)

var log = tracelog.New("BPM")

// BufferPoolManager caches disk pages in a fixed number of in-memory
// frames. All exported page access goes through ReadPage/WritePage/NewPage,
// which return scoped guards; there is no direct frame access.
type BufferPoolManager struct {
	mu sync.Mutex

	frames      []*frame.Frame
	pageTable   map[types.PageID]types.FrameID
	frameToPage map[types.FrameID]types.PageID
	freeList    []types.FrameID

	replacer *replacer.Replacer
	sched    *diskscheduler.Scheduler
	store    *diskstore.Store

	nextPageID atomic.Int32

	diskReads   atomic.Int64
	diskWrites  atomic.Int64
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// New returns a buffer pool manager with capacity frames, backed by
// sched/store for page I/O.
func New(capacity int, sched *diskscheduler.Scheduler, store *diskstore.Store) *BufferPoolManager {
	frames := make([]*frame.Frame, capacity)
	free := make([]types.FrameID, capacity)
	for i := 0; i < capacity; i++ {
		frames[i] = frame.New()
		free[i] = types.FrameID(i)
	}
	return &BufferPoolManager{
		frames:      frames,
		pageTable:   make(map[types.PageID]types.FrameID),
		frameToPage: make(map[types.FrameID]types.PageID),
		freeList:    free,
		replacer:    replacer.New(capacity),
		sched:       sched,
		store:       store,
	}
}

// Capacity returns the number of frame slots.
func (b *BufferPoolManager) Capacity() int { return len(b.frames) }

// victimLocked returns a free or evicted frame id ready to receive a page.
// Callers must hold mu. Panics if the pool is exhausted (no free frame and
// nothing evictable), a programmer-error condition per SPEC_FULL.md
// section 2.
func (b *BufferPoolManager) victimLocked() types.FrameID {
	if n := len(b.freeList); n > 0 {
		fid := b.freeList[n-1]
		b.freeList = b.freeList[:n-1]
		return fid
	}
	fid, ok := b.replacer.Evict()
	if !ok {
		panic("bpm: buffer pool exhausted: no evictable frame")
	}
	if oldPageID, has := b.frameToPage[fid]; has {
		fr := b.frames[fid]
		if fr.IsDirty() {
			b.flushFrameLocked(oldPageID, fid)
		}
		delete(b.pageTable, oldPageID)
		delete(b.frameToPage, fid)
	}
	return fid
}

// flushFrameLocked synchronously writes frame fid's contents for pageID to
// the disk scheduler. Callers must hold mu.
func (b *BufferPoolManager) flushFrameLocked(pageID types.PageID, fid types.FrameID) {
	fr := b.frames[fid]
	buf := make([]byte, frame.PageSize)
	copy(buf, fr.Data())
	if err := b.sched.Schedule(&diskscheduler.Request{IsWrite: true, PageID: pageID, Buffer: buf}); err != nil {
		panic(fmt.Sprintf("bpm: flush of page %d failed: %v", pageID, err))
	}
	b.diskWrites.Add(1)
	fr.SetDirty(false)
}

// faultIn loads pageID into a frame and returns the frame id, already
// pinned and marked non-evictable. When isNew is true the page's storage
// has just been allocated by NewPage, so the page id range check and the
// disk read are skipped and the frame is left zeroed.
// On the cache-hit path, Pin and SetEvictable(false) are done inside the
// same b.mu critical section as the lookup itself, never split across a
// mu.Unlock() — a resident frame's replacer bookkeeping can still say
// evictable=true from the last time it was unpinned, and victimLocked()
// only ever consults that flag, never the frame's own pin count. Releasing
// b.mu between the pin and the SetEvictable(false) call would let a
// concurrent victimLocked()/replacer.Evict() pick this exact frame as a
// victim while we still believe we own it for pageID (SPEC_FULL.md
// section 8, BPM3). replacer.RecordAccess still runs after b.mu is
// released, matching spec's step 5: it only reorders T1/T2 membership,
// never the evictable flag, so it carries none of that risk.
func (b *BufferPoolManager) faultIn(pageID types.PageID, isNew bool) (types.FrameID, *frame.Frame) {
	if !isNew && (pageID < 0 || int32(pageID) >= b.nextPageID.Load()) {
		panic(fmt.Sprintf("bpm: invalid page id %d", pageID))
	}

	b.mu.Lock()

	if fid, ok := b.pageTable[pageID]; ok {
		fr := b.frames[fid]
		fr.Pin()
		b.replacer.SetEvictable(fid, false)
		b.cacheHits.Add(1)
		b.mu.Unlock()
		b.replacer.RecordAccess(fid, pageID)
		return fid, fr
	}

	b.cacheMisses.Add(1)
	fid := b.victimLocked()
	fr := b.frames[fid]
	fr.Reset()

	if !isNew {
		buf := make([]byte, frame.PageSize)
		if err := b.sched.Schedule(&diskscheduler.Request{IsWrite: false, PageID: pageID, Buffer: buf}); err != nil {
			b.mu.Unlock()
			panic(fmt.Sprintf("bpm: read of page %d failed: %v", pageID, err))
		}
		b.diskReads.Add(1)
		copy(fr.DataMut(), buf)
		fr.SetDirty(false)
	}

	b.pageTable[pageID] = fid
	b.frameToPage[fid] = pageID
	fr.Pin()
	// fid has just been taken from the free list or evicted (ghostify
	// removes the alive entry), so the replacer has no bookkeeping for it
	// at all right now; it cannot be chosen as a victim until
	// RecordAccess below re-adds it, which always does so as non-evictable
	// (a new or ghost-hit entry per spec §4.4 cases 3-5). So, unlike the
	// cache-hit path above, no SetEvictable call is needed before the
	// unlock; the one after RecordAccess only restates that state.
	b.mu.Unlock()

	b.replacer.RecordAccess(fid, pageID)
	b.replacer.SetEvictable(fid, false)
	return fid, fr
}

// NewPage allocates a fresh zeroed page and returns it pinned under a write
// guard.
func (b *BufferPoolManager) NewPage() *WritePageGuard {
	pageID := types.PageID(b.nextPageID.Add(1) - 1)
	if err := b.store.Allocate(pageID); err != nil {
		panic(fmt.Sprintf("bpm: allocate page %d: %v", pageID, err))
	}
	fid, fr := b.faultIn(pageID, true)
	log.Printf("NEW  pageID=%d frameID=%d", pageID, fid)
	return newWritePageGuard(b, pageID, fid, fr)
}

// ReadPage returns pageID under a shared read guard, faulting it in from
// disk if necessary.
func (b *BufferPoolManager) ReadPage(pageID types.PageID) *ReadPageGuard {
	fid, fr := b.faultIn(pageID, false)
	log.Printf("READ pageID=%d frameID=%d", pageID, fid)
	return newReadPageGuard(b, pageID, fid, fr)
}

// WritePage returns pageID under an exclusive write guard, faulting it in
// from disk if necessary.
func (b *BufferPoolManager) WritePage(pageID types.PageID) *WritePageGuard {
	fid, fr := b.faultIn(pageID, false)
	log.Printf("WRITE pageID=%d frameID=%d", pageID, fid)
	return newWritePageGuard(b, pageID, fid, fr)
}

// FlushPage forces pageID's frame to disk, if it is currently resident.
// Returns false if pageID is not in the pool.
func (b *BufferPoolManager) FlushPage(pageID types.PageID) bool {
	b.mu.Lock()
	fid, ok := b.pageTable[pageID]
	if !ok {
		b.mu.Unlock()
		return false
	}
	fr := b.frames[fid]
	b.mu.Unlock()

	fr.Latch.RLock()
	buf := make([]byte, frame.PageSize)
	copy(buf, fr.Data())
	fr.Latch.RUnlock()

	if err := b.sched.Schedule(&diskscheduler.Request{IsWrite: true, PageID: pageID, Buffer: buf}); err != nil {
		panic(fmt.Sprintf("bpm: flush of page %d failed: %v", pageID, err))
	}
	b.diskWrites.Add(1)
	fr.SetDirty(false)
	return true
}

// FlushAllPages flushes every resident page.
func (b *BufferPoolManager) FlushAllPages() {
	b.mu.Lock()
	ids := make([]types.PageID, 0, len(b.pageTable))
	for id := range b.pageTable {
		ids = append(ids, id)
	}
	b.mu.Unlock()
	for _, id := range ids {
		b.FlushPage(id)
	}
}

// GetPinCount returns pageID's pin count and whether it is resident.
func (b *BufferPoolManager) GetPinCount(pageID types.PageID) (int, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fid, ok := b.pageTable[pageID]
	if !ok {
		return 0, false
	}
	return int(b.frames[fid].PinCount()), true
}

// DeletePage removes pageID from the pool and deallocates its storage. It
// refuses (returning false) if the page is currently pinned.
func (b *BufferPoolManager) DeletePage(pageID types.PageID) bool {
	b.mu.Lock()
	fid, ok := b.pageTable[pageID]
	if !ok {
		b.mu.Unlock()
		if err := b.store.Deallocate(pageID); err != nil {
			panic(fmt.Sprintf("bpm: deallocate page %d: %v", pageID, err))
		}
		return true
	}
	fr := b.frames[fid]
	if fr.PinCount() > 0 {
		b.mu.Unlock()
		return false
	}
	delete(b.pageTable, pageID)
	delete(b.frameToPage, fid)
	b.mu.Unlock()

	b.replacer.Remove(fid)
	fr.Reset()
	b.mu.Lock()
	b.freeList = append(b.freeList, fid)
	b.mu.Unlock()
	if err := b.store.Deallocate(pageID); err != nil {
		panic(fmt.Sprintf("bpm: deallocate page %d: %v", pageID, err))
	}
	return true
}

// Counters returns (diskReads, diskWrites, cacheHits, cacheMisses).
func (b *BufferPoolManager) Counters() (int64, int64, int64, int64) {
	return b.diskReads.Load(), b.diskWrites.Load(), b.cacheHits.Load(), b.cacheMisses.Load()
}

// unpin releases one pin on fid, marking it evictable again once the pin
// count reaches zero. Called from guard Close/Drop.
func (b *BufferPoolManager) unpin(fid types.FrameID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fr := b.frames[fid]
	if fr.Unpin() == 0 {
		b.replacer.SetEvictable(fid, true)
	}
}
