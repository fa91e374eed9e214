package accel

import (
	"sync/atomic"
	"testing"
)

// runCounting runs a batch of n emitters and returns how often each
// index was evaluated.
func runCounting(p *evalPool, n int) []int64 {
	hits := make([]atomic.Int64, n)
	p.run(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			hits[i].Add(1)
		}
	})
	out := make([]int64, n)
	for i := range hits {
		out[i] = hits[i].Load()
	}
	return out
}

func TestEvalPoolCoversEveryEmitterOnce(t *testing.T) {
	p := newEvalPool(4)
	defer p.close()

	for _, n := range []int{1, chunkSize, chunkSize + 3, 100} {
		for i, got := range runCounting(p, n) {
			if got != 1 {
				t.Fatalf("n=%d: emitter %d evaluated %d times, want 1", n, i, got)
			}
		}
	}
}

func TestEvalPoolManyMoreSpansThanWorkers(t *testing.T) {
	// Exercises the stealing path: a single worker's queue cannot hold
	// the batch, so idle workers must drain their peers.
	p := newEvalPool(2)
	defer p.close()

	for i, got := range runCounting(p, 1000) {
		if got != 1 {
			t.Fatalf("emitter %d evaluated %d times, want 1", i, got)
		}
	}
}

func TestEvalPoolDefaultSize(t *testing.T) {
	p := newEvalPool(0)
	defer p.close()
	if p.size() <= 0 {
		t.Errorf("size() = %d, want > 0", p.size())
	}
}

func TestEvalPoolCloseIdempotent(t *testing.T) {
	p := newEvalPool(2)
	p.close()
	p.close()

	// Work after close is a no-op, not a panic.
	var ran atomic.Bool
	p.run(1, func(lo, hi int) { ran.Store(true) })
	if ran.Load() {
		t.Error("closed pool evaluated a span")
	}
}

func TestEvalPoolEmptyBatch(t *testing.T) {
	p := newEvalPool(2)
	defer p.close()
	p.run(0, func(lo, hi int) { t.Error("empty batch evaluated a span") })
}
