// Package diskscheduler serializes page I/O through a single background
// worker, the Go translation of the reference implementation's
// Channel<optional<DiskRequest>> plus one background thread (see
// SPEC_FULL.md section 5). A buffered Go channel stands in for the
// reference's mutex+condvar queue, and the worker goroutine stands in for
// its single std::thread; Request.Done is the promise/future.
package diskscheduler

import (
	"sync/atomic"

	"arcbtree/internal/types"
)

// Request is one scheduled disk operation. Done is closed (after being sent
// an error, possibly nil) once the operation completes.
type Request struct {
	IsWrite bool
	PageID  types.PageID
	Buffer  []byte
	Done    chan error
}

// Backend performs the actual page I/O; *diskstore.Store satisfies it.
type Backend interface {
	Read(pageID types.PageID, out []byte) error
	Write(pageID types.PageID, in []byte) error
}

// Scheduler runs a single worker goroutine draining a FIFO queue of
// requests against a Backend.
type Scheduler struct {
	backend Backend
	queue   chan *Request
	done    chan struct{}

	scheduledReads  atomic.Int64
	scheduledWrites atomic.Int64
}

// New starts a scheduler backed by backend, with a queue depth of
// queueCapacity buffered requests.
func New(backend Backend, queueCapacity int) *Scheduler {
	if queueCapacity <= 0 {
		queueCapacity = 1
	}
	s := &Scheduler{
		backend: backend,
		queue:   make(chan *Request, queueCapacity),
		done:    make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *Scheduler) worker() {
	defer close(s.done)
	for req := range s.queue {
		if req.IsWrite {
			req.Done <- s.backend.Write(req.PageID, req.Buffer)
		} else {
			req.Done <- s.backend.Read(req.PageID, req.Buffer)
		}
		close(req.Done)
	}
}

// Schedule enqueues req and blocks until the worker has serviced it,
// mirroring the reference's synchronous promise.get_future().get() call
// pattern used by the buffer pool manager (see SPEC_FULL.md section 8).
func (s *Scheduler) Schedule(req *Request) error {
	req.Done = make(chan error, 1)
	if req.IsWrite {
		s.scheduledWrites.Add(1)
	} else {
		s.scheduledReads.Add(1)
	}
	s.queue <- req
	return <-req.Done
}

// ScheduledReads returns the number of read requests scheduled so far.
func (s *Scheduler) ScheduledReads() int64 { return s.scheduledReads.Load() }

// ScheduledWrites returns the number of write requests scheduled so far.
func (s *Scheduler) ScheduledWrites() int64 { return s.scheduledWrites.Load() }

// Close stops accepting new requests and waits for the worker to drain the
// queue and exit.
func (s *Scheduler) Close() {
	close(s.queue)
	<-s.done
}
