package registry

import "testing"

func TestPutGetRemove(t *testing.T) {
	r := New[string]()
	r.Put(1, "a")
	v, ok := r.Get(1)
	if !ok || v != "a" {
		t.Fatalf("expected a, got %q ok=%v", v, ok)
	}
	removed, ok := r.Remove(1)
	if !ok || removed != "a" {
		t.Fatalf("expected removed a, got %q ok=%v", removed, ok)
	}
	if _, ok := r.Get(1); ok {
		t.Fatalf("expected id 1 to be gone after remove")
	}
}

func TestPutIfAbsentRejectsDuplicate(t *testing.T) {
	r := New[string]()
	v, first := r.PutIfAbsent(1, "a")
	if !first || v != "a" {
		t.Fatalf("expected first insert to succeed with a, got %q first=%v", v, first)
	}
	v, first = r.PutIfAbsent(1, "b")
	if first || v != "a" {
		t.Fatalf("expected duplicate insert to return existing a, got %q first=%v", v, first)
	}
}

func TestDrainEmptiesRegistry(t *testing.T) {
	r := New[int]()
	r.Put(1, 10)
	r.Put(2, 20)
	drained := r.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 drained entries, got %d", len(drained))
	}
	if r.Len() != 0 {
		t.Fatalf("expected registry empty after drain, got %d", r.Len())
	}
}

func TestGetMissingReturnsFalse(t *testing.T) {
	r := New[int]()
	if _, ok := r.Get(42); ok {
		t.Fatalf("expected missing id to report not-found")
	}
}
