package palm

import "cmp"

// searchPhase descends the tree once per distinct root-to-child edge
// a worker's (already sorted) chunk of items needs, grouping
// contiguous same-destination items together at each level and
// recursing, until every item has been routed to its destination
// leaf. The result is a workQueue whose entries are already in
// ascending node order, ready for redistributeWork (spec.md §4.4, C5).
// keyOf extracts the routing key from T, so this same routine serves
// both the query stage-1 search and, generalized the same way the
// source's own T is generic, any future item shape with an orderable
// key.
//
// original_source/src/palm/tree.rs's Palm::search instead walks the
// tree breadth-first in fixed-width (Q=64) batches with explicit
// software prefetch issued one level ahead of the batch being
// processed, reusing a scratch deque across levels to avoid
// reallocating. Go has no prefetch intrinsic and no portable way to
// hint the allocator, so this port uses plain depth-first recursion
// over contiguous key ranges instead: because the chunk is sorted and
// a node's children partition the key space in order, grouping
// contiguous equal-destination items and recursing produces exactly
// the same (node, items) groupings the source's BFS pass does, just
// without the prefetch-driven batching. Documented here rather than
// chasing the batching structure for its own sake (see DESIGN.md).
func searchPhase[K cmp.Ordered, V any, T any](root *Node[K, V], items []T, keyOf func(T) K) *workQueue[K, V, T] {
	q := &workQueue[K, V, T]{}
	if len(items) == 0 {
		return q
	}
	descendSearch(root, items, keyOf, q)
	return q
}

func descendSearch[K cmp.Ordered, V any, T any](node *Node[K, V], items []T, keyOf func(T) K, out *workQueue[K, V, T]) {
	if node.IsLeaf() {
		out.pushOrMerge(node, items...)
		return
	}

	keys := node.keys.Slice()
	start := 0
	for start < len(items) {
		idx := upperBound(keys, keyOf(items[start]))
		end := start + 1
		for end < len(items) && upperBound(keys, keyOf(items[end])) == idx {
			end++
		}
		descendSearch(node.children.At(idx), items[start:end], keyOf, out)
		start = end
	}
}
