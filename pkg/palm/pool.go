package palm

import (
	"cmp"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Pool is the long-lived worker pool that drives batches of queries
// through a shared Tree (spec.md §4.10, §5, C10). Workers are started
// once in NewPool and block on their own channel until Close, mirroring
// original_source/src/palm/worker.rs's PalmWrapper/Worker::start
// thread-and-channel design — generalized from its explicit
// Message::{Query,Terminate} enum to the idiomatic Go equivalent of
// closing the input channel to signal shutdown (spec.md §9's redesign
// note: "standard message passing pool").
type Pool[K cmp.Ordered, V any] struct {
	tree       *Tree[K, V]
	numWorkers int

	in []chan *batchState[K, V]
	wg sync.WaitGroup

	// submitMu serializes batches: the tree, its depth, and the
	// boundary-sync slots are shared, single-batch-at-a-time state,
	// same as the source's run_batch being called on &mut self.
	submitMu sync.Mutex

	// seqNanos/parNanos accumulate the two timings the reference
	// driver reports (spec.md §6): time spent sorting/partitioning a
	// batch versus time spent in the parallel worker stages.
	seqNanos int64
	parNanos int64

	// steals counts items redistributeWork has moved from one worker's
	// queue into a neighbor's across every stage of every batch, for
	// the driver's palmbench_redistribution_steals_total metric.
	steals int64

	// splits counts every node split produced by leaf-apply and
	// internal-apply across every batch, for the driver's
	// palmbench_splits_total metric. Splits made by the root handler
	// (handleRoot) are not counted.
	splits int64
}

// Steals returns the cumulative number of items redistributeWork has
// moved between neighboring workers' queues across every batch
// submitted so far.
func (p *Pool[K, V]) Steals() int64 {
	return atomic.LoadInt64(&p.steals)
}

// Splits returns the cumulative number of node splits produced by
// leaf-apply and internal-apply across every batch submitted so far;
// splits made by the root handler are not included.
func (p *Pool[K, V]) Splits() int64 {
	return atomic.LoadInt64(&p.splits)
}

// Timings returns the cumulative sequential (sort/partition) and
// parallel (worker-stage) time spent across every batch submitted so
// far, matching the two numbers the reference driver prints.
func (p *Pool[K, V]) Timings() (sequential, parallel time.Duration) {
	return time.Duration(atomic.LoadInt64(&p.seqNanos)), time.Duration(atomic.LoadInt64(&p.parNanos))
}

// NewPool starts numWorkers persistent goroutines bound to a fresh,
// empty Tree. Returns an error only for the documented zero-workers
// misuse.
func NewPool[K cmp.Ordered, V any](numWorkers int) (*Pool[K, V], error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("palm: pool requires at least one worker, got %d", numWorkers)
	}

	p := &Pool[K, V]{
		tree:       NewTree[K, V](),
		numWorkers: numWorkers,
		in:         make([]chan *batchState[K, V], numWorkers),
	}
	for i := range p.in {
		p.in[i] = make(chan *batchState[K, V])
	}

	p.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go p.workerLoop(i)
	}
	return p, nil
}

func (p *Pool[K, V]) workerLoop(i int) {
	defer p.wg.Done()
	for st := range p.in[i] {
		p.runWorker(i, st)
		st.done.Done()
	}
}

// Close signals every worker to exit after it finishes any in-flight
// batch, then waits for them to drain. Submitting a batch after Close
// panics, matching a closed-channel send.
func (p *Pool[K, V]) Close() {
	for _, ch := range p.in {
		close(ch)
	}
	p.wg.Wait()
}

// Depth reports the tree's current depth (number of levels, leaf = 1).
func (p *Pool[K, V]) Depth() int {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	return p.tree.Depth()
}

// batchState is the shared, per-batch coordination object every
// worker goroutine reads and mutates its own slice of (spec.md §4.10).
type batchState[K cmp.Ordered, V any] struct {
	tree       *Tree[K, V]
	numWorkers int
	chunks     [][]indexedQuery[K, V]
	results    []Result[K, V]

	barrier *barrier
	slots   *boundarySlots[K, V]

	leafQueues []*workQueue[K, V, indexedQuery[K, V]]
	modQueues  []*workQueue[K, V, Split[K, V]]

	done *sync.WaitGroup
}

// SubmitBatch sorts and partitions queries across the pool's workers,
// drives them through the PALM stage sequence, and returns one Result
// per query in the query's original order (spec.md §6).
func (p *Pool[K, V]) SubmitBatch(queries []Query[K, V]) []Result[K, V] {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	results := make([]Result[K, V], len(queries))
	if len(queries) == 0 {
		return results
	}

	seqStart := time.Now()
	indexed := make([]indexedQuery[K, V], len(queries))
	for i, q := range queries {
		indexed[i] = indexedQuery[K, V]{Query: q, Index: i}
	}
	sort.SliceStable(indexed, func(a, b int) bool {
		return indexed[a].Query.Key < indexed[b].Query.Key
	})
	chunks := partition(indexed, p.numWorkers)
	atomic.AddInt64(&p.seqNanos, int64(time.Since(seqStart)))

	st := &batchState[K, V]{
		tree:       p.tree,
		numWorkers: p.numWorkers,
		chunks:     chunks,
		results:    results,
		barrier:    newBarrier(p.numWorkers),
		slots:      newBoundarySlots[K, V](p.numWorkers),
		leafQueues: make([]*workQueue[K, V, indexedQuery[K, V]], p.numWorkers),
		modQueues:  make([]*workQueue[K, V, Split[K, V]], p.numWorkers),
		done:       &sync.WaitGroup{},
	}
	st.done.Add(p.numWorkers)

	parStart := time.Now()
	for i := 0; i < p.numWorkers; i++ {
		p.in[i] <- st
	}
	st.done.Wait()
	atomic.AddInt64(&p.parNanos, int64(time.Since(parStart)))

	return results
}

// partition splits a sorted slice into numWorkers contiguous, near-
// equal chunks (spec.md §4.10: "partitions the sorted batch across
// workers").
func partition[T any](items []T, numWorkers int) [][]T {
	chunks := make([][]T, numWorkers)
	n := len(items)
	base, rem := n/numWorkers, n%numWorkers
	start := 0
	for i := 0; i < numWorkers; i++ {
		size := base
		if i < rem {
			size++
		}
		chunks[i] = items[start : start+size]
		start += size
	}
	return chunks
}

// runWorker executes one worker's share of every stage of a single
// batch, synchronizing with the rest of the pool via the shared
// barrier (global rendezvous between stages) and boundarySlots
// (point-to-point handshake on each newly built work queue's
// boundary, spec.md §4.6) before the next stage's redistributeWork
// call may safely inspect neighboring queues. Ported stage-for-stage
// from original_source/src/palm/worker.rs's Worker::execute.
//
// The source relies on point-to-point sync alone to avoid a full
// barrier between levels. This port keeps an explicit barrier at
// every stage boundary as well: point-to-point sync only guarantees
// agreement between immediate neighbors, and stage 4's single-
// threaded root handler needs every worker's final modQueue, not just
// its neighbors', to be complete. The extra barriers trade a little of
// the source's barrier-avoidance optimization for a synchronization
// story that's straightforward to verify by inspection; pointToPointSync
// itself still runs at each of the points spec.md §4.6 names, so the
// primitive is real and exercised, not vestigial.
func (p *Pool[K, V]) runWorker(idx int, st *batchState[K, V]) {
	tree := st.tree
	chunk := st.chunks[idx]
	// Read once, before any barrier: worker 0's root handler changes
	// tree.depth at the end of the batch, while the other workers may
	// still be evaluating the internal-apply loop's condition.
	depth := tree.depth

	st.leafQueues[idx] = searchPhase(tree.root, chunk, func(iq indexedQuery[K, V]) K { return iq.Query.Key })
	st.barrier.wait()

	skip, stolen := redistributeWork(idx, st.leafQueues)
	if stolen > 0 {
		atomic.AddInt64(&p.steals, int64(stolen))
	}

	var mySplits []Split[K, V]
	leafQ := st.leafQueues[idx]
	for i := range leafQ.entries {
		e := &leafQ.entries[i]
		if e.node == skip || len(e.items) == 0 {
			continue
		}
		mySplits = append(mySplits, applyLeaf(e, st.results)...)
	}
	if len(mySplits) > 0 {
		atomic.AddInt64(&p.splits, int64(len(mySplits)))
	}

	st.modQueues[idx] = groupSplitsByParent(mySplits)
	first, last := boundaryNodes(st.modQueues[idx])
	pointToPointSync(idx, 0, st.numWorkers, first, last, st.slots)
	st.barrier.wait()

	stage := 1
	for lvl := 2; lvl < depth; lvl++ {
		mqSkip, mqStolen := redistributeWork(idx, st.modQueues)
		if mqStolen > 0 {
			atomic.AddInt64(&p.steals, int64(mqStolen))
		}
		// This level ends by replacing st.modQueues[idx]; no worker may
		// do so while a neighbor's redistributeWork still reads it.
		st.barrier.wait()

		var levelSplits []Split[K, V]
		mq := st.modQueues[idx]
		for i := range mq.entries {
			e := &mq.entries[i]
			if e.node == mqSkip || len(e.items) == 0 {
				continue
			}
			levelSplits = append(levelSplits, applyInternal(e)...)
		}
		if len(levelSplits) > 0 {
			atomic.AddInt64(&p.splits, int64(len(levelSplits)))
		}

		st.modQueues[idx] = groupSplitsByParent(levelSplits)
		first, last := boundaryNodes(st.modQueues[idx])
		pointToPointSync(idx, stage, st.numWorkers, first, last, st.slots)
		st.barrier.wait()
		stage++
	}

	if idx == 0 {
		var rootSplits []Split[K, V]
		for _, mq := range st.modQueues {
			for _, e := range mq.entries {
				rootSplits = append(rootSplits, e.items...)
			}
		}
		handleRoot(tree, rootSplits)
	}
}

// groupSplitsByParent folds a worker's freshly produced splits into a
// work queue keyed by the parent node each split's separator/sibling
// is destined for, merging consecutive splits bound for the same
// parent exactly as pushOrMerge does for queries.
func groupSplitsByParent[K cmp.Ordered, V any](splits []Split[K, V]) *workQueue[K, V, Split[K, V]] {
	q := &workQueue[K, V, Split[K, V]]{}
	for _, sp := range splits {
		q.pushOrMerge(sp.Sibling.parent, sp)
	}
	return q
}

// boundaryNodes reports the first and last node this worker still has
// non-empty work for, skipping any entry whose items were fully
// drained by redistributeWork's merge step.
func boundaryNodes[K cmp.Ordered, V any, T any](q *workQueue[K, V, T]) (first, last *Node[K, V]) {
	for i := range q.entries {
		if len(q.entries[i].items) == 0 {
			continue
		}
		if first == nil {
			first = q.entries[i].node
		}
		last = q.entries[i].node
	}
	return first, last
}
