package palm

import "cmp"

// applyLeaf applies one leaf entry's queries to its node in order and
// returns the splits produced if the node overflowed (spec.md §4.7,
// C6). Results are written into results by each query's stable
// original-batch index.
//
// Ported from original_source/src/palm/tree.rs's apply_to_leaf_nodes.
// The source's fast (no-split-needed) path appends new keys to the
// end of the backing vector unconditionally and only re-sorts the
// node when a split is about to happen, leaving it transiently
// unsorted/unsearchable between batches whenever the fast path is
// taken without a split — a correctness bug (spec.md §9 REDESIGN
// FLAGS, Open Question resolved in DESIGN.md). This port always
// inserts at its sorted position, keeping the node sorted after every
// batch regardless of whether a split follows.
//
// A batch can hand one leaf far more new distinct keys than its
// fixed-capacity storage (MaxLen+1) can ever legally hold — the first
// batch into an empty tree routes everything to a single root leaf.
// So new keys accumulate in scratchKeys/scratchValues, a plain
// unbounded slice, rather than growing node's own storage on every
// insertion; node is only touched again once (via trySplitLeaf) after
// the whole batch has been folded in and the result is known to fit
// the split policy.
func applyLeaf[K cmp.Ordered, V any](e *entry[K, V, indexedQuery[K, V]], results []Result[K, V]) []Split[K, V] {
	node := e.node

	var scratchKeys []K
	var scratchValues []V

	for _, iq := range e.items {
		q := iq.Query
		idx := lowerBound(node.keys.Slice(), q.Key)
		hit := idx < node.Len() && node.keys.At(idx) == q.Key

		switch {
		case hit && q.IsInsertion():
			prev := node.values.At(idx)
			node.values.Set(idx, q.Value)
			results[iq.Index] = Result[K, V]{Query: q, Value: prev, Found: true}

		case hit:
			results[iq.Index] = Result[K, V]{Query: q, Value: node.values.At(idx), Found: true}

		case q.IsInsertion():
			// Entries in e.items arrive in non-decreasing key order, so
			// a duplicate of a key just buffered (but not yet written
			// back into node) can only be the scratch buffer's last
			// entry.
			if n := len(scratchKeys); n > 0 && scratchKeys[n-1] == q.Key {
				prev := scratchValues[n-1]
				scratchValues[n-1] = q.Value
				results[iq.Index] = Result[K, V]{Query: q, Value: prev, Found: true}
			} else {
				scratchKeys = append(scratchKeys, q.Key)
				scratchValues = append(scratchValues, q.Value)
				var zero V
				results[iq.Index] = Result[K, V]{Query: q, Value: zero, Found: false}
			}

		default:
			if n := len(scratchKeys); n > 0 && scratchKeys[n-1] == q.Key {
				results[iq.Index] = Result[K, V]{Query: q, Value: scratchValues[n-1], Found: true}
			} else {
				var zero V
				results[iq.Index] = Result[K, V]{Query: q, Value: zero, Found: false}
			}
		}
	}

	if len(scratchKeys) == 0 {
		return nil
	}

	keys, values := mergeSortedPairs(node.keys.Slice(), node.values.Slice(), scratchKeys, scratchValues)
	return trySplitLeaf(node, keys, values)
}

// mergeSortedPairs merges two disjoint, individually-sorted (key,
// value) sequences into one sorted sequence. node.keys/scratchKeys are
// disjoint by construction: a key only ever lands in scratchKeys after
// a miss against node's own keys.
func mergeSortedPairs[K cmp.Ordered, V any](aKeys []K, aValues []V, bKeys []K, bValues []V) ([]K, []V) {
	keys := make([]K, 0, len(aKeys)+len(bKeys))
	values := make([]V, 0, len(aKeys)+len(bKeys))

	i, j := 0, 0
	for i < len(aKeys) && j < len(bKeys) {
		if aKeys[i] < bKeys[j] {
			keys = append(keys, aKeys[i])
			values = append(values, aValues[i])
			i++
		} else {
			keys = append(keys, bKeys[j])
			values = append(values, bValues[j])
			j++
		}
	}
	keys = append(keys, aKeys[i:]...)
	values = append(values, aValues[i:]...)
	keys = append(keys, bKeys[j:]...)
	values = append(values, bValues[j:]...)
	return keys, values
}
