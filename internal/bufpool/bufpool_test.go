package bufpool

import "testing"

func TestAllocateReturnsZeroLengthSlice(t *testing.T) {
	p := New(64)
	buf := p.Allocate()
	if len(buf) != 0 {
		t.Fatalf("expected zero length, got %d", len(buf))
	}
	if cap(buf) < 64 {
		t.Fatalf("expected capacity >= 64, got %d", cap(buf))
	}
}

func TestFreeAllowsReuse(t *testing.T) {
	p := New(64)
	buf := p.Allocate()
	buf = append(buf, 1, 2, 3)
	p.Free(buf)

	reused := p.Allocate()
	if len(reused) != 0 {
		t.Fatalf("expected reused buffer to report zero length, got %d", len(reused))
	}
}

func TestFreeDiscardsOversizedBuffers(t *testing.T) {
	p := New(8)
	oversized := make([]byte, 0, 1024)
	p.Free(oversized) // must not panic; oversized buffers are simply dropped
}
