package bpm

import (
	"arcbtree/internal/frame"
	"arcbtree/internal/types"
)

// ReadPageGuard is a scoped, single-owner handle to a page held under a
// shared read latch. Zero value must not be used; once Close is called the
// guard is no longer valid, except Close itself, which is an idempotent
// no-op on an already-closed guard (SPEC_FULL.md section 9).
type ReadPageGuard struct {
	bpm     *BufferPoolManager
	pageID  types.PageID
	frameID types.FrameID
	frame   *frame.Frame
	valid   bool
}

func newReadPageGuard(b *BufferPoolManager, pageID types.PageID, fid types.FrameID, fr *frame.Frame) *ReadPageGuard {
	fr.Latch.RLock()
	return &ReadPageGuard{bpm: b, pageID: pageID, frameID: fid, frame: fr, valid: true}
}

// PageID returns the guarded page's id.
func (g *ReadPageGuard) PageID() types.PageID {
	if !g.valid {
		panic("bpm: PageID called on a closed ReadPageGuard")
	}
	return g.pageID
}

// Data returns the page's bytes for reading.
func (g *ReadPageGuard) Data() []byte {
	if !g.valid {
		panic("bpm: Data called on a closed ReadPageGuard")
	}
	return g.frame.Data()
}

// Revision returns the owning frame's revision counter, bumped every time
// the frame is reassigned to a different page and every time a
// WritePageGuard on it is closed. Callers use it to key caches of decoded
// page state.
func (g *ReadPageGuard) Revision() uint64 {
	if !g.valid {
		panic("bpm: Revision called on a closed ReadPageGuard")
	}
	return g.frame.Revision()
}

// Close releases the read latch and unpins the page. Safe to call more
// than once.
func (g *ReadPageGuard) Close() {
	if !g.valid {
		return
	}
	g.valid = false
	g.frame.Latch.RUnlock()
	g.bpm.unpin(g.frameID)
}

// WritePageGuard is a scoped, single-owner handle to a page held under an
// exclusive write latch.
type WritePageGuard struct {
	bpm     *BufferPoolManager
	pageID  types.PageID
	frameID types.FrameID
	frame   *frame.Frame
	valid   bool
}

func newWritePageGuard(b *BufferPoolManager, pageID types.PageID, fid types.FrameID, fr *frame.Frame) *WritePageGuard {
	fr.Latch.Lock()
	return &WritePageGuard{bpm: b, pageID: pageID, frameID: fid, frame: fr, valid: true}
}

// PageID returns the guarded page's id.
func (g *WritePageGuard) PageID() types.PageID {
	if !g.valid {
		panic("bpm: PageID called on a closed WritePageGuard")
	}
	return g.pageID
}

// Data returns the page's bytes for reading.
func (g *WritePageGuard) Data() []byte {
	if !g.valid {
		panic("bpm: Data called on a closed WritePageGuard")
	}
	return g.frame.Data()
}

// DataMut returns the page's bytes for writing and marks the page dirty.
func (g *WritePageGuard) DataMut() []byte {
	if !g.valid {
		panic("bpm: DataMut called on a closed WritePageGuard")
	}
	return g.frame.DataMut()
}

// Revision returns the owning frame's revision counter, bumped every time
// the frame is reassigned to a different page and every time a
// WritePageGuard on it is closed.
func (g *WritePageGuard) Revision() uint64 {
	if !g.valid {
		panic("bpm: Revision called on a closed WritePageGuard")
	}
	return g.frame.Revision()
}

// Flush writes the page to disk immediately without releasing the guard.
func (g *WritePageGuard) Flush() {
	if !g.valid {
		panic("bpm: Flush called on a closed WritePageGuard")
	}
	// FlushPage would take the read latch this guard already holds
	// exclusively; write the frame directly instead.
	g.bpm.mu.Lock()
	defer g.bpm.mu.Unlock()
	g.bpm.flushFrameLocked(g.pageID, g.frameID)
}

// Close releases the write latch and unpins the page. Safe to call more
// than once.
//
// A write guard always bumps the frame's revision before releasing the
// latch, even if the caller only ever read through Data(): any decoded
// cache keyed on (pageID, revision) — internal/bptree's header cache among
// them — must never serve a decode taken before this guard's writes to a
// reader that acquires the latch after it (SPEC_FULL.md section 3).
// Bumping after the unlock would let such a reader observe the new bytes
// under the old revision.
func (g *WritePageGuard) Close() {
	if !g.valid {
		return
	}
	g.valid = false
	g.frame.BumpRevision()
	g.frame.Latch.Unlock()
	g.bpm.unpin(g.frameID)
}
