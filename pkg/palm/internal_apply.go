package palm

import "cmp"

// applyInternal inserts one internal node's incoming splits (each a
// separator key promoted from a child split, paired with the new
// sibling child) at their sorted positions, then returns any further
// splits produced if the node itself overflowed (spec.md §4.8, C7).
// Ported from original_source/src/palm/tree.rs's apply_to_internal_nodes.
//
// An internal node absorbing many child splits in one batch can need
// far more room than its fixed-capacity storage (MaxLen+1) allows, so
// the insertions build up in plain unbounded scratch slices, seeded
// from node's current contents, and are only written back into node
// once (via trySplitInternal) after the whole batch is folded in.
func applyInternal[K cmp.Ordered, V any](e *entry[K, V, Split[K, V]]) []Split[K, V] {
	node := e.node

	keys := append([]K(nil), node.keys.Slice()...)
	children := append([]*Node[K, V](nil), node.children.Slice()...)

	for _, sp := range e.items {
		idx := lowerBound(keys, sp.Separator)
		keys = insertAt(keys, idx, sp.Separator)
		children = insertAt(children, idx+1, sp.Sibling)
		sp.Sibling.parent = node
	}

	return trySplitInternal(node, keys, children)
}
