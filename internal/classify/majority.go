// Package classify implements majority-vote classification: from a
// points×k matrix of neighbor labels, produce a points×1 matrix of
// predicted class ids.
package classify

import (
	"fmt"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnerr"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/matrixio"
)

// Predict computes, for every row of labeled, the 1-based class id with
// the highest vote count among its k label columns, breaking ties by the
// smallest class id. Labels are truncated toward zero; cells holding a
// non-positive value (e.g. an unfilled labeling cell) do not contribute a
// vote.
func Predict(labeled matrixio.Chunk) (matrixio.Chunk, error) {
	if labeled.Cols < 1 {
		return matrixio.Chunk{}, fmt.Errorf("classify.Predict: labeled has %d columns: %w", labeled.Cols, knnerr.ErrInvalidArgument)
	}

	maxLabel := 0
	for _, v := range labeled.Data {
		lbl := int(v)
		if lbl > maxLabel {
			maxLabel = lbl
		}
	}
	if maxLabel < 1 {
		return matrixio.Chunk{}, fmt.Errorf("classify.Predict: no positive labels present: %w", knnerr.ErrInvalidArgument)
	}

	out, err := matrixio.NewChunk(labeled.Rows, 1, labeled.ChunkOffset)
	if err != nil {
		return matrixio.Chunk{}, fmt.Errorf("classify.Predict: %w", err)
	}

	counts := make([]int, maxLabel)
	for p := int32(0); p < labeled.Rows; p++ {
		for i := range counts {
			counts[i] = 0
		}
		for _, v := range labeled.Row(p) {
			lbl := int(v)
			if lbl >= 1 && lbl <= maxLabel {
				counts[lbl-1]++
			}
		}

		best := 0
		for i := 1; i < maxLabel; i++ {
			if counts[i] > counts[best] {
				best = i
			}
		}
		out.Set(p, 0, float64(best+1))
	}

	return out, nil
}
