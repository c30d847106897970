package neighbor

import "testing"

func rowOf(pairs ...Pair) []Pair { return pairs }

func TestMergeIntoKeepsKSmallest(t *testing.T) {
	old := rowOf(Pair{Distance: 1, Index: 1}, Pair{Distance: 3, Index: 3})
	newRow := rowOf(Pair{Distance: 2, Index: 2}, Pair{Distance: 4, Index: 4})

	merged := MergeInto(old, newRow, 2)
	if len(merged) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(merged))
	}
	if merged[0].Index != 1 || merged[1].Index != 2 {
		t.Errorf("expected [1,2], got [%d,%d]", merged[0].Index, merged[1].Index)
	}
	for i := 1; i < len(merged); i++ {
		if merged[i].Distance < merged[i-1].Distance {
			t.Errorf("merged row not ascending: %+v", merged)
		}
	}
}

func TestMergeIntoIdempotent(t *testing.T) {
	a := rowOf(Pair{Distance: 1, Index: 1}, Pair{Distance: 2, Index: 2})
	merged := MergeInto(a, a, 2)
	if len(merged) != len(a) {
		t.Fatalf("expected same length, got %d", len(merged))
	}
	for i := range a {
		if merged[i] != a[i] {
			t.Errorf("merge_into(A,A,k) changed row: want %+v got %+v", a, merged)
		}
	}
}

func TestMergeIntoStableOnTies(t *testing.T) {
	old := rowOf(Pair{Distance: 5, Index: 10})
	newRow := rowOf(Pair{Distance: 5, Index: 20})

	merged := MergeInto(old, newRow, 1)
	if merged[0].Index != 10 {
		t.Errorf("expected stable tie-break keeping old's index 10, got %d", merged[0].Index)
	}
}

func TestMergeIntoDoesNotMutateInputs(t *testing.T) {
	old := rowOf(Pair{Distance: 3, Index: 1})
	newRow := rowOf(Pair{Distance: 1, Index: 2})

	_ = MergeInto(old, newRow, 1)

	if old[0].Distance != 3 || old[0].Index != 1 {
		t.Errorf("old row mutated: %+v", old)
	}
	if newRow[0].Distance != 1 || newRow[0].Index != 2 {
		t.Errorf("new row mutated: %+v", newRow)
	}
}

func TestSortByIndex(t *testing.T) {
	row := rowOf(Pair{Distance: 1, Index: 5}, Pair{Distance: 2, Index: 1}, Pair{Distance: 3, Index: 3})
	SortByIndex(row)
	want := []int32{1, 3, 5}
	for i, w := range want {
		if row[i].Index != w {
			t.Errorf("position %d: expected index %d, got %d", i, w, row[i].Index)
		}
	}
}
