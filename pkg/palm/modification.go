package palm

import "cmp"

// Split is one (separator_key, new_sibling) pair produced by a node
// split, consumed by the parent level's internal-apply (spec.md §3,
// §4.7, §4.8).
type Split[K cmp.Ordered, V any] struct {
	Separator K
	Sibling   *Node[K, V]
}

// Modification is the structural change a lower level's apply step
// emits for its parent to consume (GLOSSARY: "Modification").
//
// original_source/src/palm/modification.rs models this as an enum
// with Overflow and Underflow variants; Underflow is never
// constructed anywhere in the source because deletion is out of scope
// (spec.md §1 Non-goals, and SPEC_FULL.md §C.5). A plain struct
// carrying only a splits list is behaviorally identical and simpler.
type Modification[K cmp.Ordered, V any] struct {
	Splits []Split[K, V]
}
