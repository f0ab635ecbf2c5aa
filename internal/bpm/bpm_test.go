package bpm

import (
	"testing"

	"arcbtree/internal/diskscheduler"
	"arcbtree/internal/diskstore"
	"arcbtree/internal/types"
)

func newTestBPM(capacity int) (*BufferPoolManager, *diskscheduler.Scheduler) {
	store := diskstore.New()
	sched := diskscheduler.New(store, 4)
	return New(capacity, sched, store), sched
}

func TestNewPageThenReadRoundTrips(t *testing.T) {
	b, sched := newTestBPM(2)
	defer sched.Close()

	g := b.NewPage()
	pageID := g.PageID()
	buf := g.DataMut()
	buf[0] = 77
	g.Close()

	rg := b.ReadPage(pageID)
	if rg.Data()[0] != 77 {
		t.Fatalf("Data()[0] = %d, want 77", rg.Data()[0])
	}
	rg.Close()
}

// BPM1: pin count reflects outstanding guards.
func TestPinCountTracksOutstandingGuards(t *testing.T) {
	b, sched := newTestBPM(2)
	defer sched.Close()

	g := b.NewPage()
	pageID := g.PageID()
	if pc, ok := b.GetPinCount(pageID); !ok || pc != 1 {
		t.Fatalf("GetPinCount = %d,%v want 1,true", pc, ok)
	}
	g.Close()
	if pc, ok := b.GetPinCount(pageID); !ok || pc != 0 {
		t.Fatalf("GetPinCount after Close = %d,%v want 0,true", pc, ok)
	}
}

// BPM2: evicting a dirty frame flushes it before reuse.
func TestEvictionFlushesDirtyPage(t *testing.T) {
	b, sched := newTestBPM(1)
	defer sched.Close()

	g1 := b.NewPage()
	p1 := g1.PageID()
	g1.DataMut()[0] = 5
	g1.Close()

	// Forcing a second distinct page with capacity 1 evicts page 1.
	g2 := b.NewPage()
	g2.Close()

	rg := b.ReadPage(p1)
	if rg.Data()[0] != 5 {
		t.Fatalf("evicted page lost its dirty write: got %d, want 5", rg.Data()[0])
	}
	rg.Close()
}

// BPM3: a pinned page is never chosen as an eviction victim.
func TestPinnedPageBlocksEviction(t *testing.T) {
	b, sched := newTestBPM(1)
	defer sched.Close()

	g1 := b.NewPage()
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic: pool exhausted because the only frame is pinned")
		}
	}()
	_ = g1.PageID()
	// Pool has 1 frame, already pinned by g1; requesting another page with
	// nothing evictable must panic per SPEC_FULL.md section 2.
	b.NewPage()
}

func TestDeletePageRefusesWhilePinned(t *testing.T) {
	b, sched := newTestBPM(2)
	defer sched.Close()

	g := b.NewPage()
	pageID := g.PageID()
	if ok := b.DeletePage(pageID); ok {
		t.Fatalf("DeletePage on a pinned page should return false")
	}
	g.Close()
	if ok := b.DeletePage(pageID); !ok {
		t.Fatalf("DeletePage on an unpinned page should return true")
	}
	if _, ok := b.GetPinCount(pageID); ok {
		t.Fatalf("deleted page should no longer be resident")
	}
}

func TestFlushAllPagesClearsDirtyBit(t *testing.T) {
	b, sched := newTestBPM(2)
	defer sched.Close()

	g := b.NewPage()
	g.DataMut()[0] = 1
	g.Close()

	b.FlushAllPages()

	if _, w, _, _ := b.Counters(); w == 0 {
		t.Fatalf("expected at least one disk write after FlushAllPages")
	}
	for fid, fr := range b.frames {
		if fr.IsDirty() {
			t.Fatalf("frame %d still dirty after FlushAllPages", fid)
		}
	}
}

// A write guard's in-place mutations must invalidate any decode cached
// against the frame's revision, even when the page stays resident in the
// same frame across the two guard sessions (SPEC_FULL.md section 3).
func TestWriteGuardCloseBumpsRevision(t *testing.T) {
	b, sched := newTestBPM(2)
	defer sched.Close()

	g := b.NewPage()
	pageID := g.PageID()
	before := g.Revision()
	g.DataMut()[0] = 1
	g.Close()

	g2 := b.WritePage(pageID)
	after := g2.Revision()
	g2.Close()

	if after == before {
		t.Fatalf("Revision() unchanged across a WritePageGuard Close: before=%d after=%d", before, after)
	}
}

func TestFreeFrameReusedBeforeEviction(t *testing.T) {
	b, sched := newTestBPM(2)
	defer sched.Close()

	g1 := b.NewPage()
	g1.Close()
	g2 := b.NewPage()
	g2.Close()

	if _, _, _, misses := b.Counters(); misses != 2 {
		t.Fatalf("misses = %d, want 2 (both NewPage faults)", misses)
	}

	p1 := types.PageID(0)
	rg := b.ReadPage(p1)
	rg.Close()
	if _, _, hits, _ := b.Counters(); hits < 1 {
		t.Fatalf("expected a cache hit re-reading resident page 0")
	}
}
