package layout

import (
	"math/rand"
	"testing"
)

func TestSamplerEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	sa := NewSampler(nil)
	if !sa.Empty() {
		t.Fatalf("nil weights: Expected Empty")
	}

	if got := sa.Pick(rng); got != -1 {
		t.Fatalf("empty Pick: Expected -1 != Got %d", got)
	}

	// All zero weights is just as empty.
	sa = NewSampler([]int{0, 0, 0})
	if !sa.Empty() {
		t.Fatalf("zero weights: Expected Empty")
	}
}

func TestSamplerCoversAll(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	weights := []int{1, 3, 1, 7, 2}

	seen := make(map[int]int, len(weights))

	for i := 0; i < 10000; i++ {
		got := sa(t, weights).Pick(rng)
		if got < 0 || got >= len(weights) {
			t.Fatalf("Pick out of range: %d", got)
		}

		seen[got]++
	}

	for i := range weights {
		if seen[i] < 1 {
			t.Fatalf("item %d never drawn (seen %v)", i, seen)
		}
	}

	// The weight 7 item has to dominate the weight 1 items by a wide
	// margin - no exact distribution check, just the obvious ordering.
	if seen[3] < seen[0]*3 {
		t.Fatalf("weighting not applied: %v", seen)
	}
}

func TestSamplerSkipsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	weights := []int{5, 0, 5}

	for i := 0; i < 1000; i++ {
		if got := sa(t, weights).Pick(rng); got == 1 {
			t.Fatalf("zero weight item drawn on iteration %d", i)
		}
	}
}

func sa(t *testing.T, weights []int) *Sampler {
	t.Helper()

	s := NewSampler(weights)
	if s.Empty() {
		t.Fatalf("unexpected empty sampler for %v", weights)
	}

	return s
}
