// Package verify implements tri-state (Pass/Fail/Skip) oracle checks:
// comparing a rank's computed classification accuracy and neighbor
// indexes against optional reference files. A check Skips when its
// oracle file path is empty, rather than failing a run that was never
// given anything to check against.
package verify

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/matrixio"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/neighbor"
)

// Status is the outcome of one verification check.
type Status int

const (
	Skip Status = iota
	Pass
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	default:
		return "SKIP"
	}
}

// Result reports the outcome of one named check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// ComputeAccuracy counts how many of predicted's rows agree with actual's
// column 0, mirroring testing.c's per-rank valid/total counters.
func ComputeAccuracy(predicted, actual matrixio.Chunk) (correct, total int, err error) {
	if predicted.Rows != actual.Rows {
		return 0, 0, fmt.Errorf("verify.ComputeAccuracy: predicted has %d rows, actual has %d", predicted.Rows, actual.Rows)
	}
	total = int(predicted.Rows)
	for i := int32(0); i < predicted.Rows; i++ {
		if predicted.At(i, 0) == actual.At(i, 0) {
			correct++
		}
	}
	return correct, total, nil
}

// CheckAccuracy compares a computed accuracy percentage against the
// value stored in expectedFile (plain text, one float). Skips when
// expectedFile is empty. tolerancePct bounds the allowed absolute
// difference in percentage points.
func CheckAccuracy(accuracyPct float64, expectedFile string, tolerancePct float64) Result {
	if expectedFile == "" {
		return Result{Name: "accuracy", Status: Skip, Detail: "no expected accuracy file configured"}
	}

	raw, err := os.ReadFile(expectedFile)
	if err != nil {
		return Result{Name: "accuracy", Status: Fail, Detail: fmt.Sprintf("reading %s: %v", expectedFile, err)}
	}

	expected, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return Result{Name: "accuracy", Status: Fail, Detail: fmt.Sprintf("parsing %s: %v", expectedFile, err)}
	}

	diff := accuracyPct - expected
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerancePct {
		return Result{
			Name:   "accuracy",
			Status: Fail,
			Detail: fmt.Sprintf("got %.4f%%, expected %.4f%% (tolerance %.4f)", accuracyPct, expected, tolerancePct),
		}
	}
	return Result{
		Name:   "accuracy",
		Status: Pass,
		Detail: fmt.Sprintf("got %.4f%%, expected %.4f%% (tolerance %.4f)", accuracyPct, expected, tolerancePct),
	}
}

// CheckIndexes compares this rank's computed neighbor indexes against an
// oracle file holding the same chunked-matrix wire format as data/labels
// files, loaded with the same (worldSize, rank) split so row p of the
// oracle lines up with knns.Rows[p]. Comparison is set-based per row,
// not order-sensitive, since tied distances may legitimately resolve in
// a different order than a reference implementation's.
func CheckIndexes(knns neighbor.Table, expectedFile string, worldSize, rank int32) Result {
	if expectedFile == "" {
		return Result{Name: "indexes", Status: Skip, Detail: "no expected indexes file configured"}
	}

	oracle, err := matrixio.LoadChunk(expectedFile, worldSize, rank)
	if err != nil {
		return Result{Name: "indexes", Status: Fail, Detail: fmt.Sprintf("loading %s: %v", expectedFile, err)}
	}
	if int(oracle.Rows) != len(knns.Rows) {
		return Result{
			Name:   "indexes",
			Status: Fail,
			Detail: fmt.Sprintf("oracle has %d rows, computed table has %d", oracle.Rows, len(knns.Rows)),
		}
	}

	for p, row := range knns.Rows {
		got := make(map[int32]bool, len(row))
		for _, pr := range row {
			if pr.Index != neighbor.EmptyIndex {
				got[pr.Index] = true
			}
		}
		for c := int32(0); c < oracle.Cols; c++ {
			want := int32(oracle.At(int32(p), c))
			if !got[want] {
				return Result{
					Name:   "indexes",
					Status: Fail,
					Detail: fmt.Sprintf("row %d: expected neighbor index %d not found among computed neighbors", p, want),
				}
			}
		}
	}

	return Result{Name: "indexes", Status: Pass, Detail: fmt.Sprintf("%d rows matched", len(knns.Rows))}
}
