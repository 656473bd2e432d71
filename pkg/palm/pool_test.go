package palm

import (
	"cmp"
	"math/rand/v2"
	"sort"
	"testing"
)

// validateNode recursively checks invariants I1-I5 (spec.md §8): node
// length bounds except at the root, strictly ascending keys per node,
// correct parent back-pointers, and uniform leaf depth. Collected leaf
// keys are appended to keys in left-to-right order so the caller can
// additionally check global ascending order (which subsumes I3/I4
// across node boundaries).
func validateNode[K cmp.Ordered, V any](t *testing.T, n *Node[K, V], isRoot bool, depth int, leafDepth *int, keys *[]K) {
	t.Helper()

	if !isRoot && (n.Len() < MinLen || n.Len() > MaxLen) {
		t.Errorf("non-root node length %d outside [%d, %d]", n.Len(), MinLen, MaxLen)
	}
	nodeKeys := n.Keys()
	for i := 1; i < len(nodeKeys); i++ {
		if !(nodeKeys[i-1] < nodeKeys[i]) {
			t.Errorf("node keys not strictly ascending: %v", nodeKeys)
		}
	}

	if n.IsLeaf() {
		if *leafDepth == -1 {
			*leafDepth = depth
		} else if *leafDepth != depth {
			t.Errorf("leaf at depth %d, want %d (all leaves must be equal depth)", depth, *leafDepth)
		}
		*keys = append(*keys, nodeKeys...)
		return
	}

	children := n.Children()
	if len(children) != len(nodeKeys)+1 {
		t.Errorf("internal node has %d children, want %d (keys+1)", len(children), len(nodeKeys)+1)
	}
	for _, c := range children {
		if c.Parent() != n {
			t.Error("child's parent pointer does not reference its actual parent")
		}
		validateNode(t, c, false, depth+1, leafDepth, keys)
	}
}

func validateTree[K cmp.Ordered, V any](t *testing.T, tree *Tree[K, V]) {
	t.Helper()
	leafDepth := -1
	var keys []K
	validateNode(t, tree.Root(), true, 1, &leafDepth, &keys)
	for i := 1; i < len(keys); i++ {
		if !(keys[i-1] < keys[i]) {
			t.Errorf("global leaf key order violated around index %d: %v", i, keys)
		}
	}
}

func TestPoolEmptyBatchIsNoop(t *testing.T) {
	p, err := NewPool[int, int](4)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	results := p.SubmitBatch(nil)
	if len(results) != 0 {
		t.Fatalf("SubmitBatch(nil) returned %d results, want 0", len(results))
	}
	if p.Depth() != 1 || !p.tree.Root().IsEmpty() {
		t.Fatal("empty batch mutated the tree")
	}
}

func TestNewPoolRejectsZeroWorkers(t *testing.T) {
	if _, err := NewPool[int, int](0); err == nil {
		t.Fatal("NewPool(0) did not return an error")
	}
}

// TestPoolDuplicateKeyInsertions covers spec.md §8 scenario S3: many
// workers, all queries targeting the same key in one batch.
func TestPoolDuplicateKeyInsertions(t *testing.T) {
	p, err := NewPool[int, int](4)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	const n = 64
	queries := make([]Query[int, int], n)
	for i := 0; i < n; i++ {
		queries[i] = Query[int, int]{Kind: Insertion, Key: 7, Value: i}
	}

	results := p.SubmitBatch(queries)
	if len(results) != n {
		t.Fatalf("got %d results, want %d", len(results), n)
	}

	notFound := 0
	for i, r := range results {
		if !r.Found {
			notFound++
			continue
		}
		if r.Value != i-1 {
			t.Errorf("result[%d].Value = %d, want %d (immediately preceding value)", i, r.Value, i-1)
		}
	}
	if notFound != 1 {
		t.Fatalf("%d results had Found == false, want exactly 1", notFound)
	}

	final := p.SubmitBatch([]Query[int, int]{{Kind: Retrieval, Key: 7}})
	if !final[0].Found || final[0].Value != n-1 {
		t.Fatalf("final value for key 7 = (%d, %v), want (%d, true)", final[0].Value, final[0].Found, n-1)
	}
	validateTree(t, p.tree)
}

// TestPoolCrossBatchRetrieval covers spec.md §8 scenario S4: values
// inserted in one batch must be visible to retrievals in the next.
func TestPoolCrossBatchRetrieval(t *testing.T) {
	p, err := NewPool[int, int](2)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	const n = 50
	inserts := make([]Query[int, int], n)
	for i := 0; i < n; i++ {
		inserts[i] = Query[int, int]{Kind: Insertion, Key: i, Value: i * 10}
	}
	if res := p.SubmitBatch(inserts); len(res) != n {
		t.Fatalf("insert batch returned %d results, want %d", len(res), n)
	}
	validateTree(t, p.tree)

	retrievals := make([]Query[int, int], n)
	for i := 0; i < n; i++ {
		retrievals[i] = Query[int, int]{Kind: Retrieval, Key: i}
	}
	results := p.SubmitBatch(retrievals)
	for i, r := range results {
		if !r.Found || r.Value != i*10 {
			t.Errorf("retrieval[%d] = (%d, %v), want (%d, true)", i, r.Value, r.Found, i*10)
		}
	}
}

// TestPoolRandomWorkloadMatchesReference is a scaled-down form of
// spec.md §8 scenario S1/S5: many workers, many batches, a mixed
// insertion/retrieval workload over a bounded key range, checked
// against a plain Go map as the reference serial implementation and
// against invariants I1-I5 after every batch.
func TestPoolRandomWorkloadMatchesReference(t *testing.T) {
	p, err := NewPool[int32, int32](8)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	defer p.Close()

	const (
		numBatches = 32
		batchSize  = 256
		keyRange   = 10000
	)

	rng := rand.NewChaCha8([32]byte{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	reference := make(map[int32]int32)

	for b := 0; b < numBatches; b++ {
		queries := make([]Query[int32, int32], batchSize)
		for i := 0; i < batchSize; i++ {
			key := int32(int(rng.Uint64() % keyRange))
			if b%2 == 0 {
				value := int32(b*batchSize + i)
				queries[i] = Query[int32, int32]{Kind: Insertion, Key: key, Value: value}
			} else {
				queries[i] = Query[int32, int32]{Kind: Retrieval, Key: key}
			}
		}

		results := p.SubmitBatch(queries)
		if len(results) != batchSize {
			t.Fatalf("batch %d: got %d results, want %d", b, len(results), batchSize)
		}

		sort.SliceStable(results, func(i, j int) bool { return results[i].Query.Key < results[j].Query.Key })
		for _, r := range results {
			prev, existed := reference[r.Query.Key]
			if r.Query.IsInsertion() {
				if r.Found != existed || (existed && r.Value != prev) {
					t.Errorf("batch %d: insert key %d reported (found=%v, prior=%d), want (found=%v, prior=%d)",
						b, r.Query.Key, r.Found, r.Value, existed, prev)
				}
				reference[r.Query.Key] = r.Query.Value
			} else {
				if r.Found != existed || (existed && r.Value != prev) {
					t.Errorf("batch %d: retrieve key %d reported (found=%v, value=%d), want (found=%v, value=%d)",
						b, r.Query.Key, r.Found, r.Value, existed, prev)
				}
			}
		}

		validateTree(t, p.tree)
	}
}
