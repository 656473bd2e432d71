package palm

import "sync"

// barrier is a reusable (cyclic) rendezvous point for the pool's
// workers: the stages of the PALM algorithm (search, leaf-apply,
// per-level internal-apply, root-handler) are separated by a barrier
// so that no worker starts stage N+1 before every worker has finished
// stage N (spec.md §4.10, §5). Each apply stage's redistributeWork
// call runs at the start of that stage; in the leaf-apply stage no
// barrier separates it from the apply, while in each internal-apply
// stage a barrier follows it.
//
// The standard library has no barrier primitive (sync.WaitGroup is
// single-use and doesn't rendezvous workers for a next round), so this
// is hand-rolled on sync.Mutex/sync.Cond — the one piece of core
// algorithmic plumbing in this package with no home in the example
// pack's third-party stack (see DESIGN.md).
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	n          int
	count      int
	generation uint64
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// wait blocks until n goroutines have called wait for the current
// generation, then releases all of them and advances to the next
// generation so the barrier can be reused on the next stage.
func (b *barrier) wait() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.count++
	if b.count == b.n {
		b.count = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}
