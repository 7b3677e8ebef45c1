// Package bytesource implements the chunked byte-sequence buffer from
// spec §4.2: a single-producer (the dispatcher), single-consumer (a worker
// task) push-based byte source. It bridges the dispatcher's synchronous,
// never-blocking frame loop to a worker that blocks on Read until more
// data, EOF, or an error terminator arrives.
//
// The pending-chunk queue is backed by github.com/eapache/queue, a ring
// buffer that avoids the repeated slice reallocation a plain append-based
// FIFO would incur under sustained multi-frame payload traffic. The queue
// has no size limit: Push never blocks and never refuses a chunk while the
// source is open.
package bytesource

import (
	"io"
	"sync"

	"github.com/eapache/queue"
)

// ReleaseFunc returns a consumed chunk's backing buffer to whatever pool
// allocated it. It is called exactly once per chunk, after that chunk has
// been fully read.
type ReleaseFunc func([]byte)

// Source is a lazy, ordered byte sequence fed by Push/PushEOF/PushErr and
// drained by Read. It is safe for concurrent use by exactly one producer
// and one consumer at a time.
type Source struct {
	mu       sync.Mutex
	cond     *sync.Cond
	chunks   *queue.Queue
	release  ReleaseFunc
	head     []byte // the chunk currently being drained by Read
	headRel  []byte // the chunk to release once head is fully drained
	eof      bool
	err      error
	closed   bool
	onDrain  func() // called once per chunk fully consumed, for ack emission
}

type chunk struct {
	data []byte
	orig []byte
}

// New creates an empty Source. release, if non-nil, is invoked once per
// chunk after it has been fully drained by the consumer, returning its
// backing buffer to the transport's pool. onDrain, if non-nil, is invoked
// at the same point, for ack-chunk emission (spec §4.2's "ack-emitting
// wrapper").
func New(release ReleaseFunc, onDrain func()) *Source {
	s := &Source{
		chunks:  queue.New(),
		release: release,
		onDrain: onDrain,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push enqueues a chunk of data. It never blocks: if no consumer is
// attached yet, the chunk simply waits in the queue (spec §4.2: "must
// handle the case where the consumer is not yet attached when the first
// push occurs").
func (s *Source) Push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.eof || s.err != nil {
		return
	}
	s.chunks.Add(chunk{data: data, orig: data})
	s.cond.Signal()
}

// PushEOF marks the sequence as cleanly terminated. Reads after all queued
// chunks are drained return io.EOF.
func (s *Source) PushEOF() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.eof || s.err != nil {
		return
	}
	s.eof = true
	s.cond.Signal()
}

// PushErr terminates the sequence with err, unblocking any pending
// consumer. Chunks already queued are still read first; once they are
// drained, every read returns err.
func (s *Source) PushErr(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.err != nil {
		return
	}
	s.err = err
	s.cond.Broadcast()
}

// Read implements io.Reader. It blocks until at least one byte is
// available, EOF is reached, or an error has been pushed.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.head) == 0 {
		if s.chunks.Length() == 0 {
			if s.err != nil {
				return 0, s.err
			}
			if s.eof {
				return 0, io.EOF
			}
			s.cond.Wait()
			continue
		}
		c := s.chunks.Remove().(chunk)
		s.head = c.data
		s.headRel = c.orig
	}
	n := copy(p, s.head)
	s.head = s.head[n:]
	if len(s.head) == 0 {
		released := s.headRel
		s.headRel = nil
		s.mu.Unlock()
		if s.release != nil && released != nil {
			s.release(released)
		}
		if s.onDrain != nil {
			s.onDrain()
		}
		s.mu.Lock()
	}
	return n, nil
}

// Close marks the source closed and releases any still-queued chunks. A
// non-nil err becomes the terminal error unless one was already pushed via
// PushErr, and a pending consumer is then unblocked with it. It is
// idempotent.
func (s *Source) Close(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if err != nil && s.err == nil {
		s.err = err
	}
	for s.chunks.Length() > 0 {
		c := s.chunks.Remove().(chunk)
		if s.release != nil {
			s.release(c.orig)
		}
	}
	if s.headRel != nil && s.release != nil {
		s.release(s.headRel)
		s.headRel = nil
	}
	s.cond.Broadcast()
}
