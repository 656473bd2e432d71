package palm

import "cmp"

// handleRoot is stage 4 of a batch (spec.md §4.9, C8): run single-
// threaded, by worker 0 only, after every other level has been
// applied and synced. It consumes the splits destined for the root:
// for an internal root, splits of the root's children, which it
// absorbs into the root itself (the internal-apply passes never touch
// the root level); for a tree that is still just one leaf, the splits
// leaf-apply made of the root leaf directly. The tree grows by one
// level each time the root overflows (or the root leaf split), so a
// call may add no level or several. Ported from
// original_source/src/palm/tree.rs's Palm::handle_root.
func handleRoot[K cmp.Ordered, V any](tree *Tree[K, V], splits []Split[K, V]) {
	if len(splits) == 0 {
		return
	}

	if !tree.root.IsLeaf() {
		further := applyInternal(&entry[K, V, Split[K, V]]{node: tree.root, items: splits})
		if len(further) == 0 {
			return
		}
		splits = further
	}

	// A single new level is not always enough: absorbing splits can
	// itself overflow the freshly built root, which needs another level
	// on top, and so on. Mirrors handle_root's `while
	// !collected.is_empty()` loop.
	for len(splits) > 0 {
		splits = growRoot(tree, splits)
	}
}

// growRoot builds a new internal root whose leftmost child is the
// current root and whose remaining keys/children come from splits, at
// their sorted positions, then installs it and increments the tree's
// depth. Returns any further splits produced if the new root itself
// overflowed — a batch can promote more than MaxLen separators to the
// root in one pass.
func growRoot[K cmp.Ordered, V any](tree *Tree[K, V], splits []Split[K, V]) []Split[K, V] {
	oldRoot := tree.root
	newRoot := NewInternal[K, V](tree.depth+1, nil)
	oldRoot.parent = newRoot
	tree.root = newRoot
	tree.depth++

	keys := make([]K, 0, len(splits))
	children := []*Node[K, V]{oldRoot}
	for _, sp := range splits {
		idx := lowerBound(keys, sp.Separator)
		keys = insertAt(keys, idx, sp.Separator)
		children = insertAt(children, idx+1, sp.Sibling)
		sp.Sibling.parent = newRoot
	}

	return trySplitInternal(newRoot, keys, children)
}
