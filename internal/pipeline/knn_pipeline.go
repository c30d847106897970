// Package pipeline implements the distributed k-NN search and labeling
// pipelines: each rotates a rank's local chunk once around the ring,
// computing against every other rank's chunk in turn and merging the
// running top-k as each chunk passes through, via a double-buffered
// send/receive so the next chunk is in flight while the current one is
// being searched.
package pipeline

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnerr"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnsearch"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/matrixio"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/neighbor"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/ring"
)

// KNNSearch orchestrates worldSize ring iterations to compute the exact
// global top-k neighbors of every row in localData against the entire
// distributed dataset. t.Rank()/NextRank()/PrevRank() describe this
// rank's position in the ring.
// reporter may be nil; when non-nil it is kept current with the
// in-flight iteration and phase for the admin status surface, and
// checked each iteration so an operator-requested abort unwinds the
// ring promptly instead of running to completion.
func KNNSearch(ctx context.Context, t ring.Transport, localData matrixio.Chunk, k, worldSize int, reporter StatusReporter) (neighbor.Table, error) {
	if k < 1 {
		return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: k=%d: %w", k, knnerr.ErrInvalidArgument)
	}
	if worldSize < 1 {
		return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: worldSize=%d: %w", worldSize, knnerr.ErrInvalidArgument)
	}

	knns := neighbor.NewTable(int(localData.Rows), k)
	curBlock := localData

	reportPhase(reporter, "knn")

	for i := 0; i < worldSize; i++ {
		if aborted(reporter) {
			return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: iteration %d: %w", i, knnerr.ErrAborted)
		}
		reportIteration(reporter, i)

		var sendH ring.SendHandle
		var recvH ring.RecvHandle
		var err error

		if i < worldSize-1 {
			out := matrixio.Encode(curBlock)
			sendH, err = t.SendAsync(ctx, out)
			if err != nil {
				return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: iteration %d: %w", i, err)
			}
			recvH, err = t.RecvAsync(ctx)
			if err != nil {
				return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: iteration %d: %w", i, err)
			}
		}

		if i == 0 {
			table, err := knnsearch.Search(curBlock, localData, k+1)
			if err != nil {
				return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: local search: %w", err)
			}
			for p := range knns.Rows {
				selfIdx := localData.ChunkOffset + int32(p)
				knns.Rows[p] = dropSelf(table.Rows[p], selfIdx, k)
			}
		} else {
			table, err := knnsearch.Search(curBlock, localData, k)
			if err != nil {
				return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: iteration %d search: %w", i, err)
			}
			for p := range knns.Rows {
				knns.Rows[p] = neighbor.MergeInto(knns.Rows[p], table.Rows[p], k)
			}
		}

		if i < worldSize-1 {
			if err := sendH.Wait(ctx); err != nil {
				return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: iteration %d: send wait: %w", i, err)
			}
			in, err := recvH.Wait(ctx)
			if err != nil {
				return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: iteration %d: recv wait: %w", i, err)
			}
			nextBlock, err := matrixio.Decode(in)
			if err != nil {
				return neighbor.Table{}, fmt.Errorf("pipeline.KNNSearch: iteration %d: %w", i, err)
			}
			// curBlock is discarded here (it was never localData after
			// iteration 0); nextBlock becomes the chunk searched against on
			// the next iteration. No explicit free is needed; Go's GC
			// retires the transient buffer once curBlock is reassigned.
			curBlock = nextBlock
		}
	}

	return knns, nil
}

// dropSelf removes the first occurrence of selfIndex from a sorted
// (ascending distance) row of length k+1, returning a row of length k.
// Filtering by index, rather than blindly dropping column 0, keeps the
// self-exclusion invariant correct even when a duplicate point at distance
// 0 sorts ahead of the query's own index.
func dropSelf(row []neighbor.Pair, selfIndex int32, k int) []neighbor.Pair {
	out := make([]neighbor.Pair, 0, k)
	dropped := false
	for _, pr := range row {
		if !dropped && pr.Index == selfIndex {
			dropped = true
			continue
		}
		out = append(out, pr)
		if len(out) == k {
			break
		}
	}
	return out
}
