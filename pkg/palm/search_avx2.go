package palm

import (
	"cmp"

	"golang.org/x/sys/cpu"
)

// int32LinearSearch is the capability-gated specialization mentioned
// in spec.md §4.3 and §9 ("Per-key SIMD specialization... under a
// capability predicate"), ported from util.rs's
// `impl LinearSearch<i32> for [i32]`, which is itself gated at compile
// time on `target_feature = "avx2"` and implemented with
// `_mm256_cmpeq_epi32`/`movemask`/`cttz` over 8 lanes at a time.
//
// Go has no portable way to reach AVX2 intrinsics from a single
// generic function without per-architecture assembly files, and this
// exercise avoids hand-written/vendored machinery that can't be
// grounded in the example pack. What's preserved faithfully is the
// structural shape the source specializes on: a runtime capability
// check (golang.org/x/sys/cpu standing in for the compile-time
// target-feature gate) selecting an 8-wide unrolled scan in place of
// the single-element scalar loop. The unrolled loop is a portable,
// honest stand-in for true SIMD, not a claim of vectorized codegen.
//
// ok is false whenever key's type isn't int32 (letting the caller
// fall back to the generic scalar loop) or AVX2 isn't available.
func int32LinearSearch[K cmp.Ordered](s []K, key K) (int, bool) {
	if !cpu.X86.HasAVX2 {
		return 0, false
	}
	ks, okS := any(s).([]int32)
	if !okS {
		return 0, false
	}
	kv, okV := any(key).(int32)
	if !okV {
		return 0, false
	}
	return int32LinearSearchAVX2(ks, kv), true
}

func int32LinearSearchAVX2(s []int32, key int32) int {
	n := len(s)
	rounded := (n / 8) * 8
	for i := 0; i < rounded; i += 8 {
		block := s[i : i+8 : i+8]
		for j, v := range block {
			if v == key {
				return i + j
			}
		}
	}
	for i := rounded; i < n; i++ {
		if s[i] == key {
			return i
		}
	}
	return n
}
