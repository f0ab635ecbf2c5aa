package diskscheduler

import (
	"sync"
	"testing"

	"arcbtree/internal/diskstore"
	"arcbtree/internal/types"
)

func TestScheduleWriteThenRead(t *testing.T) {
	store := diskstore.New()
	sched := New(store, 4)
	defer sched.Close()

	in := make([]byte, diskstore.PageSize)
	in[0] = 42
	if err := sched.Schedule(&Request{IsWrite: true, PageID: 1, Buffer: in}); err != nil {
		t.Fatalf("write: %v", err)
	}

	out := make([]byte, diskstore.PageSize)
	if err := sched.Schedule(&Request{IsWrite: false, PageID: 1, Buffer: out}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out[0] != 42 {
		t.Fatalf("out[0] = %d, want 42", out[0])
	}
	if sched.ScheduledReads() != 1 || sched.ScheduledWrites() != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", sched.ScheduledReads(), sched.ScheduledWrites())
	}
}

func TestScheduleConcurrentCallers(t *testing.T) {
	store := diskstore.New()
	sched := New(store, 8)
	defer sched.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(id types.PageID) {
			defer wg.Done()
			buf := make([]byte, diskstore.PageSize)
			buf[0] = byte(id)
			if err := sched.Schedule(&Request{IsWrite: true, PageID: id, Buffer: buf}); err != nil {
				t.Errorf("write(%d): %v", id, err)
			}
			out := make([]byte, diskstore.PageSize)
			if err := sched.Schedule(&Request{IsWrite: false, PageID: id, Buffer: out}); err != nil {
				t.Errorf("read(%d): %v", id, err)
			}
			if out[0] != byte(id) {
				t.Errorf("page %d: out[0] = %d, want %d", id, out[0], byte(id))
			}
		}(types.PageID(i))
	}
	wg.Wait()
}

func TestCloseDrainsQueue(t *testing.T) {
	store := diskstore.New()
	sched := New(store, 4)
	buf := make([]byte, diskstore.PageSize)
	if err := sched.Schedule(&Request{IsWrite: true, PageID: 9, Buffer: buf}); err != nil {
		t.Fatalf("write: %v", err)
	}
	sched.Close()
	if store.NumPages() != 1 {
		t.Fatalf("NumPages() = %d, want 1", store.NumPages())
	}
}
