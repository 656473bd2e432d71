package palm

import "cmp"

// QueryKind distinguishes the two query variants (spec.md §3).
type QueryKind uint8

const (
	Retrieval QueryKind = iota
	Insertion
)

// Query is a single point operation submitted as part of a batch:
// Retrieval(k) returns the value previously associated with k, if
// any; Insertion(k, v) installs v and returns the prior value, if any.
// Ported from original_source/src/palm/query.rs's Query enum,
// flattened to a plain struct since Go lacks Rust's data-carrying enums
// and there are only ever two shapes.
type Query[K cmp.Ordered, V any] struct {
	Kind  QueryKind
	Key   K
	Value V // only meaningful when Kind == Insertion
}

func (q Query[K, V]) IsInsertion() bool { return q.Kind == Insertion }

// Less orders queries by key. SubmitBatch sorts a batch by the same
// key comparison (spec.md §4.10: "sorts the batch"), written inline
// rather than through Less, with a stable sort so ties keep submission
// order.
func (q Query[K, V]) Less(other Query[K, V]) bool { return q.Key < other.Key }

// Result pairs a query with the value it resolved to, if any —
// equivalent to the source's (Query<K,V>, Option<V>).
type Result[K cmp.Ordered, V any] struct {
	Query Query[K, V]
	Value V
	Found bool
}

// indexedQuery tags a query with its position in the original
// (pre-sort) batch. Redistribution can hand a query off from the
// worker it was originally partitioned to over to a neighbor, so
// results are written back by this stable index rather than by the
// position the query happens to end up at after sorting/partitioning.
type indexedQuery[K cmp.Ordered, V any] struct {
	Query Query[K, V]
	Index int
}

