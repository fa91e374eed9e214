package accel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// chunkSize is the number of emitters in one pool span. Small enough
// to keep workers stealing, large enough to amortize dispatch
// overhead against the per-ROI kernel cost.
const chunkSize = 8

// span is one unit of pool work: a half-open emitter index range
// [lo, hi) handed to the batch kernel.
type span struct {
	lo, hi int
	eval   func(lo, hi int)
	done   *sync.WaitGroup
}

func (s span) run() {
	if s.eval != nil {
		s.eval(s.lo, s.hi)
	}
	if s.done != nil {
		s.done.Done()
	}
}

// evalPool spreads emitter spans across goroutines, one queue per
// worker. Idle workers steal spans from their peers, which balances
// load when some ROIs are slower than others (edge clamping, cold
// caches).
//
// Thread safety: evalPool is safe for concurrent use.
type evalPool struct {
	workers int
	queues  []chan span
	quit    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// newEvalPool creates a pool with the given number of workers. If
// workers is 0 or negative, GOMAXPROCS is used. Workers start
// immediately and wait for spans.
func newEvalPool(workers int) *evalPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	depth := workers * 4
	if depth < 8 {
		depth = 8
	}

	p := &evalPool{
		workers: workers,
		queues:  make([]chan span, workers),
		quit:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan span, depth)
	}

	p.running.Store(true)
	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *evalPool) worker(id int) {
	defer p.wg.Done()

	mine := p.queues[id]
	for {
		select {
		case <-p.quit:
			p.drain(mine)
			return

		case s := <-mine:
			s.run()

		default:
			if s, ok := p.steal(id); ok {
				s.run()
			} else {
				select {
				case <-p.quit:
					p.drain(mine)
					return
				case s := <-mine:
					s.run()
				}
			}
		}
	}
}

func (p *evalPool) drain(queue chan span) {
	for {
		select {
		case s := <-queue:
			s.run()
		default:
			return
		}
	}
}

// steal attempts to take a span from another worker's queue.
func (p *evalPool) steal(myID int) (span, bool) {
	for i := range p.workers {
		if i == myID {
			continue
		}
		select {
		case s := <-p.queues[i]:
			return s, true
		default:
		}
	}
	return span{}, false
}

// run partitions emitters [0, n) into spans of chunkSize, distributes
// them round-robin across the workers, and blocks until every span has
// been evaluated. On a closed pool run is a no-op.
func (p *evalPool) run(n int, eval func(lo, hi int)) {
	if n <= 0 || !p.running.Load() {
		return
	}

	var done sync.WaitGroup
	next := 0
	for lo := 0; lo < n; lo += chunkSize {
		hi := min(lo+chunkSize, n)
		done.Add(1)

		select {
		case p.queues[next%p.workers] <- span{lo: lo, hi: hi, eval: eval, done: &done}:
		case <-p.quit:
			done.Done()
		}
		next++
	}

	done.Wait()
}

// close gracefully shuts down the pool: stops accepting spans, lets
// queued spans finish, then stops all workers. Safe to call multiple
// times.
func (p *evalPool) close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.quit)
	p.wg.Wait()
}

// size returns the number of workers in the pool.
func (p *evalPool) size() int { return p.workers }
