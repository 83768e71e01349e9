package engine

import "testing"

func TestRNG_SameSeedSameStream(t *testing.T) {
	a := NewRNG(42)
	b := NewRNG(42)
	for i := 0; i < 50; i++ {
		if av, bv := a.PickIndex(3), b.PickIndex(3); av != bv {
			t.Fatalf("draw %d diverged: %d vs %d", i, av, bv)
		}
	}
	if a.Position() != 50 {
		t.Errorf("position = %d, want 50", a.Position())
	}
}

func TestRNG_RestoreResumesStream(t *testing.T) {
	orig := NewRNG(7)
	for i := 0; i < 10; i++ {
		orig.PickIndex(4)
	}

	restored := RestoreRNG(orig.Seed(), orig.Position())
	if restored.Position() != 10 {
		t.Fatalf("restored position = %d, want 10", restored.Position())
	}
	for i := 0; i < 20; i++ {
		if ov, rv := orig.PickIndex(4), restored.PickIndex(4); ov != rv {
			t.Fatalf("draw %d after restore diverged: %d vs %d", i, ov, rv)
		}
	}
}

func TestRNG_PickIndexInRange(t *testing.T) {
	r := NewRNG(1)
	for i := 0; i < 100; i++ {
		if v := r.PickIndex(5); v < 0 || v >= 5 {
			t.Fatalf("pick out of range: %d", v)
		}
	}
}
