package palm

import "cmp"

// Tree is the PALM B+tree container (spec.md §4.2/§4.4, C4). It holds
// only the root pointer and depth; all concurrency machinery lives in
// Pool, which owns a Tree and drives batches through it. Ported from
// original_source/src/palm/tree.rs's Palm<K,V> struct, minus the
// thread-pool fields (PalmWrapper in the source conflates tree state
// and worker lifecycle; this port separates them into Tree and Pool,
// matching spec.md §2's C4/C10 split).
type Tree[K cmp.Ordered, V any] struct {
	root  *Node[K, V]
	depth int
}

// NewTree returns an empty single-leaf tree at depth 1.
func NewTree[K cmp.Ordered, V any]() *Tree[K, V] {
	return &Tree[K, V]{root: NewLeaf[K, V](nil), depth: 1}
}

func (t *Tree[K, V]) Depth() int { return t.depth }

func (t *Tree[K, V]) Root() *Node[K, V] { return t.root }
