// Package neighbor implements the neighbor-pair type, the fixed-width
// per-row top-k table, and the merge/sort operators used to assemble and
// combine top-k results as they arrive from multiple ranks.
package neighbor

import "math"

// EmptyIndex is the sentinel index value for a not-yet-filled pair.
const EmptyIndex int32 = -1

// Pair is a (distance, global-index) tuple.
type Pair struct {
	Distance float64
	Index    int32
}

// Empty returns the sentinel empty pair. Its distance is +Inf, not 0, so
// that a merge or sort by ascending distance always places real pairs
// ahead of not-yet-filled ones (relevant when a chunk smaller than k+1
// rows cannot supply a full row of self-iteration neighbors; later ring
// iterations fill the remaining slots in).
func Empty() Pair { return Pair{Distance: math.Inf(1), Index: EmptyIndex} }

// Table is an N x k neighbor table, one sorted row of k pairs per query
// point the owning rank holds locally.
type Table struct {
	K    int
	Rows [][]Pair
}

// NewTable allocates an n x k table filled with sentinel empty pairs.
func NewTable(n, k int) Table {
	rows := make([][]Pair, n)
	for i := range rows {
		row := make([]Pair, k)
		for j := range row {
			row[j] = Empty()
		}
		rows[i] = row
	}
	return Table{K: k, Rows: rows}
}

// CmpByDistance orders ascending by distance: negative if a comes before
// b, positive if after, zero if equal.
func CmpByDistance(a, b Pair) int {
	switch {
	case a.Distance < b.Distance:
		return -1
	case a.Distance > b.Distance:
		return 1
	default:
		return 0
	}
}

// CmpByIndex orders ascending by global index.
func CmpByIndex(a, b Pair) int {
	return int(a.Index) - int(b.Index)
}
