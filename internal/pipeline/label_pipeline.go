package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnerr"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/matrixio"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/neighbor"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/ring"
)

// unlabeled marks a labeled-matrix cell that no arriving chunk has
// written yet; every cell must be overwritten by the time the pipeline
// completes, or a neighbor index fell outside every chunk's window.
const unlabeled = -1

// Label orchestrates worldSize ring iterations of label chunks to fill in
// the class label of every neighbor in knns. Each row of knns is sorted
// once by ascending global index, and for every arriving label chunk with
// offset o and L.Rows rows, the contiguous window [o, o+L.Rows) within
// the row is located by binary search and every matching cell is written
// directly — no stateful cursor is carried across iterations, so the
// result is correct regardless of the order or size of chunks as they
// rotate through the ring.
func Label(ctx context.Context, t ring.Transport, knns neighbor.Table, localLabels matrixio.Chunk, worldSize int, reporter StatusReporter) (matrixio.Chunk, error) {
	if worldSize < 1 {
		return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: worldSize=%d: %w", worldSize, knnerr.ErrInvalidArgument)
	}

	n := len(knns.Rows)
	k := knns.K
	for _, row := range knns.Rows {
		neighbor.SortByIndex(row)
	}

	labeled, err := matrixio.NewChunk(int32(n), int32(k), localLabels.ChunkOffset)
	if err != nil {
		return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: %w", err)
	}
	for i := range labeled.Data {
		labeled.Data[i] = unlabeled
	}

	curLabels := localLabels

	reportPhase(reporter, "labeling")

	for i := 0; i < worldSize; i++ {
		if aborted(reporter) {
			return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: iteration %d: %w", i, knnerr.ErrAborted)
		}
		reportIteration(reporter, i)

		var sendH ring.SendHandle
		var recvH ring.RecvHandle
		var err error

		if i < worldSize-1 {
			out := matrixio.Encode(curLabels)
			sendH, err = t.SendAsync(ctx, out)
			if err != nil {
				return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: iteration %d: %w", i, err)
			}
			recvH, err = t.RecvAsync(ctx)
			if err != nil {
				return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: iteration %d: %w", i, err)
			}
		}

		labelPass(curLabels, knns, labeled)

		if i < worldSize-1 {
			if err := sendH.Wait(ctx); err != nil {
				return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: iteration %d: send wait: %w", i, err)
			}
			in, err := recvH.Wait(ctx)
			if err != nil {
				return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: iteration %d: recv wait: %w", i, err)
			}
			nextLabels, err := matrixio.Decode(in)
			if err != nil {
				return matrixio.Chunk{}, fmt.Errorf("pipeline.Label: iteration %d: %w", i, err)
			}
			curLabels = nextLabels
		}
	}

	return labeled, nil
}

// labelPass writes every cell of labeled whose neighbor index falls
// within L's [o, o+L.Rows) window. For each row it binary-searches the
// lower and upper bounds of that window among the row's ascending
// indices, then writes the contiguous slice of matches in one pass.
func labelPass(L matrixio.Chunk, knns neighbor.Table, labeled matrixio.Chunk) {
	o := L.ChunkOffset
	upper := o + L.Rows

	for p, row := range knns.Rows {
		lo := sort.Search(len(row), func(i int) bool { return row[i].Index >= o })
		hi := sort.Search(len(row), func(i int) bool { return row[i].Index >= upper })

		for i := lo; i < hi; i++ {
			idx := row[i].Index
			if idx == neighbor.EmptyIndex {
				continue
			}
			local := idx - o
			labeled.Set(int32(p), int32(i), L.At(local, 0))
		}
	}
}
