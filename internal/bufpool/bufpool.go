// Package bufpool is the default collab.BufferPool: a sync.Pool of
// fixed-capacity byte slices, falling back to a fresh allocation when the
// pool is empty. Grounded on the pack's momentics/hioload-ws pool.BytePool,
// adapted from its NUMA-aware variant to a plain sync.Pool since wiremuxd
// has no NUMA placement concerns.
package bufpool

import "sync"

// Pool is a collab.BufferPool backed by sync.Pool.
type Pool struct {
	size int
	pool sync.Pool
}

// New constructs a Pool whose Allocate returns slices with cap == size
// (len 0, ready for append) and length 0.
func New(size int) *Pool {
	p := &Pool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Allocate returns a zero-length, size-capacity slice, reused from the
// pool when available.
func (p *Pool) Allocate() []byte {
	buf := p.pool.Get().(*[]byte)
	return (*buf)[:0]
}

// Free returns buf to the pool for reuse. Buffers whose capacity exceeds
// twice the pool's size (grown by a caller's append) are discarded rather
// than pooled, to keep the pool's average buffer size bounded.
func (p *Pool) Free(buf []byte) {
	if cap(buf) > p.size*2 {
		return
	}
	buf = buf[:0]
	p.pool.Put(&buf)
}
