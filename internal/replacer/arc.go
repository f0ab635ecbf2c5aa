// Package replacer implements an Adaptive Replacement Cache (ARC) eviction
// policy over buffer pool frames (see SPEC_FULL.md section 7). The list
// bookkeeping follows the container/list + map[id]*list.Element idiom used
// by the corpus's other LRU replacers; the replacement algorithm itself is
// Megiddo & Modha's ARC(c), adapted so that only frames the buffer pool
// manager has marked evictable (unpinned) are ever chosen as victims.
//
// T1/T2 hold the FrameIDs of resident pages; B1/B2 hold the PageIDs of
// pages recently evicted (a ghost entry has no frame). A frame slot is
// reused for many different pages over its lifetime, so ghost-hit
// detection must key on PageID, never on the FrameID that happened to be
// carrying the page when it was evicted.
package replacer

import (
	"container/list"
	"fmt"
	"sync"

	"arcbtree/internal/types"
)

type location int

const (
	locNone location = iota
	locT1
	locT2
	locB1
	locB2
)

type aliveEntry struct {
	pageID types.PageID
	loc    location
	elem   *list.Element // element in t1 or t2, holding FrameID
}

// Replacer tracks up to capacity resident frames across T1 (recency) and
// T2 (frequency), plus ghost histories B1 and B2 bounded at capacity
// entries each (ARC1).
type Replacer struct {
	mu       sync.Mutex
	capacity int
	p        int // target size of T1

	t1, t2 *list.List // elements are types.FrameID
	b1, b2 *list.List // elements are types.PageID

	alive     map[types.FrameID]*aliveEntry
	ghostElem map[types.PageID]*list.Element // in b1 or b2
	ghostLoc  map[types.PageID]location
	evictable map[types.FrameID]bool
}

// New returns an ARC replacer over capacity frame slots.
func New(capacity int) *Replacer {
	return &Replacer{
		capacity:  capacity,
		t1:        list.New(),
		t2:        list.New(),
		b1:        list.New(),
		b2:        list.New(),
		alive:     make(map[types.FrameID]*aliveEntry),
		ghostElem: make(map[types.PageID]*list.Element),
		ghostLoc:  make(map[types.PageID]location),
		evictable: make(map[types.FrameID]bool),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (r *Replacer) residentList(l location) *list.List {
	switch l {
	case locT1:
		return r.t1
	case locT2:
		return r.t2
	default:
		return nil
	}
}

func (r *Replacer) ghostList(l location) *list.List {
	switch l {
	case locB1:
		return r.b1
	case locB2:
		return r.b2
	default:
		return nil
	}
}

// pushResidentMRU adds frameID to the head (MRU end) of list l, replacing
// any prior resident membership it had.
func (r *Replacer) pushResidentMRU(l location, frameID types.FrameID, pageID types.PageID) {
	if ent, ok := r.alive[frameID]; ok {
		r.residentList(ent.loc).Remove(ent.elem)
	}
	e := r.residentList(l).PushBack(frameID)
	r.alive[frameID] = &aliveEntry{pageID: pageID, loc: l, elem: e}
}

// removeGhost drops pageID from whichever ghost list holds it.
func (r *Replacer) removeGhost(pageID types.PageID) {
	if e, ok := r.ghostElem[pageID]; ok {
		if l, has := r.ghostLoc[pageID]; has {
			r.ghostList(l).Remove(e)
		}
		delete(r.ghostElem, pageID)
		delete(r.ghostLoc, pageID)
	}
}

func (r *Replacer) pushGhostMRU(l location, pageID types.PageID) {
	e := r.ghostList(l).PushBack(pageID)
	r.ghostElem[pageID] = e
	r.ghostLoc[pageID] = l
}

func (r *Replacer) trimGhost(l location) {
	lst := r.ghostList(l)
	for lst.Len() > r.capacity {
		front := lst.Front()
		pid := front.Value.(types.PageID)
		lst.Remove(front)
		delete(r.ghostElem, pid)
		delete(r.ghostLoc, pid)
	}
}

func (r *Replacer) cacheSize() int {
	return r.t1.Len() + r.t2.Len()
}

// RecordAccess notes that frameID now holds pageID, following a pin for an
// access (a page-table hit or a fresh fault-in). It is the only entry
// point that may trigger a replacement, and it does so by calling
// evictLocked directly while still holding mu, never the public,
// self-locking Evict — this is the non-reentrant fix called out in
// SPEC_FULL.md section 15 (the reference implementation's RecordAccess
// re-enters its own mutex by calling the public Evict).
func (r *Replacer) RecordAccess(frameID types.FrameID, pageID types.PageID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ent, ok := r.alive[frameID]; ok && ent.pageID == pageID {
		// Case I/II: resident frame re-accessed (cache hit). Demote
		// recency into frequency, or refresh frequency recency.
		r.pushResidentMRU(locT2, frameID, pageID)
		return
	}

	switch r.ghostLoc[pageID] {
	case locB1:
		delta := 1
		if r.b1.Len() > 0 {
			delta = maxInt(1, r.b2.Len()/r.b1.Len())
		}
		r.p = minInt(r.capacity, r.p+delta)
		r.removeGhost(pageID)
		r.pushResidentMRU(locT2, frameID, pageID)
		if r.cacheSize() > r.capacity {
			r.evictLocked()
		}
		return
	case locB2:
		delta := 1
		if r.b2.Len() > 0 {
			delta = maxInt(1, r.b1.Len()/r.b2.Len())
		}
		r.p = maxInt(0, r.p-delta)
		r.removeGhost(pageID)
		r.pushResidentMRU(locT2, frameID, pageID)
		if r.cacheSize() > r.capacity {
			r.evictLocked()
		}
		return
	}

	// Case V: pageID is in none of T1, T2, B1, B2 — a genuinely new entry.
	r.pushResidentMRU(locT1, frameID, pageID)
	if r.cacheSize() > r.capacity {
		r.evictLocked()
	}
}

// evictLocked runs ARC's REPLACE step: it evicts one resident frame from
// T1 or T2 (preferring T1 once it has grown past the target size p, per
// the algorithm) and moves its page id to the corresponding ghost list.
// Unlike textbook ARC, a resident frame may be pinned (non-evictable);
// evictLocked walks from the LRU end of the preferred list looking for an
// evictable entry, falling back to the other list if the preferred one
// has none. Callers must hold mu.
func (r *Replacer) evictLocked() (types.FrameID, bool) {
	preferT1 := r.t1.Len() > maxInt(r.p, 0)

	first, second := locT2, locT1
	if preferT1 {
		first, second = locT1, locT2
	}

	if fid, ok := r.evictFromListLocked(first); ok {
		return r.ghostify(first, fid), true
	}
	if fid, ok := r.evictFromListLocked(second); ok {
		return r.ghostify(second, fid), true
	}
	return types.InvalidFrameID, false
}

// ghostify removes frameID from alive bookkeeping (it has already been
// unlinked from its resident list by evictFromListLocked) and pushes its
// page id onto the matching ghost list.
func (r *Replacer) ghostify(from location, frameID types.FrameID) types.FrameID {
	ent := r.alive[frameID]
	delete(r.alive, frameID)
	delete(r.evictable, frameID)

	dest := locB2
	if from == locT1 {
		dest = locB1
	}
	r.pushGhostMRU(dest, ent.pageID)
	r.trimGhost(dest)
	return frameID
}

// evictFromListLocked scans l from its LRU end for the first evictable
// frame and unlinks it from the resident list (alive bookkeeping is left
// to the caller, ghostify). Callers must hold mu.
func (r *Replacer) evictFromListLocked(l location) (types.FrameID, bool) {
	lst := r.residentList(l)
	for e := lst.Front(); e != nil; e = e.Next() {
		fid := e.Value.(types.FrameID)
		if r.evictable[fid] {
			lst.Remove(e)
			return fid, true
		}
	}
	return types.InvalidFrameID, false
}

// SetEvictable marks whether frameID may currently be chosen as a victim.
// Frames with an outstanding pin must be marked non-evictable. frameID must
// already be tracked by RecordAccess; calling this on an unknown frame is a
// caller contract violation, not an expected outcome, and panics.
func (r *Replacer) SetEvictable(frameID types.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.alive[frameID]; !ok {
		panic(fmt.Sprintf("replacer: SetEvictable on unknown frame %d", frameID))
	}
	if evictable {
		r.evictable[frameID] = true
	} else {
		delete(r.evictable, frameID)
	}
}

// Evict chooses and removes one evictable resident frame, returning its id
// and true, or (InvalidFrameID, false) if nothing is evictable.
func (r *Replacer) Evict() (types.FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictLocked()
}

// Remove drops frameID from all ARC bookkeeping (resident state only; a
// page explicitly deleted leaves no ghost behind). Used when a page is
// deleted outright rather than merely evicted. frameID must be resident;
// an unknown frame is a caller contract violation and panics.
func (r *Replacer) Remove(frameID types.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.alive[frameID]
	if !ok {
		panic(fmt.Sprintf("replacer: Remove on unknown frame %d", frameID))
	}
	r.residentList(ent.loc).Remove(ent.elem)
	delete(r.alive, frameID)
	delete(r.evictable, frameID)
}

// Size returns the number of frames currently evictable.
func (r *Replacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.evictable)
}
