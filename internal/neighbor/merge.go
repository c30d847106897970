package neighbor

import "sort"

// MergeInto merges two sorted-by-distance length-k neighbor rows for the
// same query point into the k smallest by distance: it concatenates them
// (length 2k), stable-sorts by distance, and keeps the first k pairs,
// skipping any pair whose global index was already kept (sentinel empty
// pairs are never skipped). Neither old nor new is mutated; the result is
// a freshly allocated row the caller assigns back to its own "old" slot.
//
// merge_into(A, A, k) is idempotent: each pair of A appears twice in the
// concatenation, and the second copy is skipped as a repeated index, so
// the k kept pairs are A's own in A's order.
func MergeInto(old, new []Pair, k int) []Pair {
	both := make([]Pair, 0, len(old)+len(new))
	both = append(both, old...)
	both = append(both, new...)

	sort.SliceStable(both, func(i, j int) bool {
		return CmpByDistance(both[i], both[j]) < 0
	})

	out := make([]Pair, 0, k)
	seen := make(map[int32]bool, len(both))
	for _, pr := range both {
		if len(out) == k {
			break
		}
		if pr.Index != EmptyIndex {
			if seen[pr.Index] {
				continue
			}
			seen[pr.Index] = true
		}
		out = append(out, pr)
	}
	return out
}

// SortByIndex stably sorts a row ascending by global index, used once per
// row before label lookup so each arriving label chunk's window can be
// located by binary search.
func SortByIndex(row []Pair) {
	sort.SliceStable(row, func(i, j int) bool {
		return CmpByIndex(row[i], row[j]) < 0
	})
}
