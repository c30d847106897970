// Package knnsearch implements the local brute-force k-NN kernel: for
// every row of a query chunk, the k nearest rows of a data chunk by
// Euclidean distance, data-parallel across query rows via a bounded
// max-heap per row.
package knnsearch

import (
	"container/heap"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnerr"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/matrixio"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/neighbor"
)

// candidate is an entry in a query row's bounded max-heap: the top of the
// heap (largest distance) is always the first one to be evicted when a
// closer candidate is found.
type candidate struct {
	distance float64
	index    int32
}

type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].distance > h[j].distance }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Search computes, for every row of query, its k nearest rows of data by
// Euclidean distance, tagging each neighbor with its global index via
// data's ChunkOffset. Work is partitioned across a bounded worker pool
// over query rows, fed through a channel of row indices.
func Search(data, query matrixio.Chunk, k int) (neighbor.Table, error) {
	if k < 1 {
		return neighbor.Table{}, fmt.Errorf("knnsearch.Search: k=%d: %w", k, knnerr.ErrInvalidArgument)
	}
	if data.Cols != query.Cols {
		return neighbor.Table{}, fmt.Errorf("knnsearch.Search: data cols=%d, query cols=%d: %w", data.Cols, query.Cols, knnerr.ErrInvalidArgument)
	}
	if data.Rows < 1 {
		return neighbor.Table{}, fmt.Errorf("knnsearch.Search: data has %d rows: %w", data.Rows, knnerr.ErrInvalidArgument)
	}

	// A chunk smaller than k (or, for the self-iteration caller, smaller
	// than k+1) cannot supply a full row of real candidates on its own;
	// searchRow pads the remainder with neighbor.Empty() sentinels, which
	// a later ring iteration's merge then overwrites with real pairs.
	table := neighbor.NewTable(int(query.Rows), k)

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > int(query.Rows) {
		numWorkers = int(query.Rows)
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	jobs := make(chan int32, query.Rows)
	var wg sync.WaitGroup

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				table.Rows[p] = searchRow(data, query.Row(p), k)
			}
		}()
	}

	for p := int32(0); p < query.Rows; p++ {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	return table, nil
}

// searchRow finds the k nearest rows in data to the query vector q,
// maintaining a bounded max-heap of size k so each candidate insertion
// costs O(log k) instead of a full resort.
func searchRow(data matrixio.Chunk, q []float64, k int) []neighbor.Pair {
	h := make(maxHeap, 0, k)

	for d := int32(0); d < data.Rows; d++ {
		dist := euclidean(q, data.Row(d))
		idx := data.ChunkOffset + d

		if h.Len() < k {
			heap.Push(&h, candidate{distance: dist, index: idx})
		} else if dist < h[0].distance {
			heap.Pop(&h)
			heap.Push(&h, candidate{distance: dist, index: idx})
		}
	}

	row := make([]neighbor.Pair, h.Len())
	for i, c := range h {
		row[i] = neighbor.Pair{Distance: c.distance, Index: c.index}
	}
	// Ascending by distance, ties broken by earlier global index for
	// determinism independent of heap-internal ordering.
	sort.Slice(row, func(i, j int) bool {
		if row[i].Distance != row[j].Distance {
			return row[i].Distance < row[j].Distance
		}
		return row[i].Index < row[j].Index
	})
	for len(row) < k {
		row = append(row, neighbor.Empty())
	}
	return row
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
