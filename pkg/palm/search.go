package palm

import "cmp"

// linearSearch, lowerBound and upperBound are the three sorted-search
// primitives (spec.md §4.3), ported from the scalar default arm of
// original_source/src/palm/util.rs's SortedSearch/LinearSearch traits.
//
// linearSearch performs an equality search and returns len(s) on a miss.
func linearSearch[K cmp.Ordered](s []K, key K) int {
	if fast, ok := int32LinearSearch(s, key); ok {
		return fast
	}
	for i, k := range s {
		if k == key {
			return i
		}
	}
	return len(s)
}

// lowerBound returns the first index i with s[i] >= key.
func lowerBound[K cmp.Ordered](s []K, key K) int {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBound returns the first index i with s[i] > key.
func upperBound[K cmp.Ordered](s []K, key K) int {
	lo, hi := 0, len(s)
	for lo < hi {
		mid := (lo + hi) / 2
		if s[mid] <= key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
