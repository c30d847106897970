package verify

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/matrixio"
	"github.com/therealutkarshpriyadarshi/ringknn/internal/neighbor"
)

func chunkOf(offset int32, rows [][]float64) matrixio.Chunk {
	c, err := matrixio.NewChunk(int32(len(rows)), int32(len(rows[0])), offset)
	if err != nil {
		panic(err)
	}
	for r, row := range rows {
		for col, v := range row {
			c.Set(int32(r), int32(col), v)
		}
	}
	return c
}

func TestComputeAccuracy(t *testing.T) {
	predicted := chunkOf(0, [][]float64{{1}, {2}, {1}, {2}})
	actual := chunkOf(0, [][]float64{{1}, {1}, {1}, {2}})

	correct, total, err := ComputeAccuracy(predicted, actual)
	if err != nil {
		t.Fatalf("ComputeAccuracy: %v", err)
	}
	if total != 4 || correct != 3 {
		t.Errorf("expected 3/4, got %d/%d", correct, total)
	}
}

func TestCheckAccuracySkipsWhenNoFile(t *testing.T) {
	result := CheckAccuracy(80.0, "", 0.01)
	if result.Status != Skip {
		t.Errorf("expected Skip, got %v", result.Status)
	}
}

func TestCheckAccuracyPassesWithinTolerance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accuracy.txt")
	if err := os.WriteFile(path, []byte("75.0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := CheckAccuracy(75.0005, path, 0.01)
	if result.Status != Pass {
		t.Errorf("expected Pass, got %v: %s", result.Status, result.Detail)
	}
}

func TestCheckAccuracyFailsOutsideTolerance(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accuracy.txt")
	if err := os.WriteFile(path, []byte("75.0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := CheckAccuracy(50.0, path, 0.01)
	if result.Status != Fail {
		t.Errorf("expected Fail, got %v", result.Status)
	}
}

func writeOracleMatrix(t *testing.T, rows [][]float64) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "oracle.bin")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	header := make([]byte, 8)
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(rows)))
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(rows[0])))
	if _, err := f.Write(header); err != nil {
		t.Fatalf("write header: %v", err)
	}
	for _, row := range rows {
		for _, v := range row {
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			if _, err := f.Write(buf); err != nil {
				t.Fatalf("write cell: %v", err)
			}
		}
	}
	return path
}

func TestCheckIndexesSkipsWhenNoFile(t *testing.T) {
	result := CheckIndexes(neighbor.Table{}, "", 1, 0)
	if result.Status != Skip {
		t.Errorf("expected Skip, got %v", result.Status)
	}
}

func TestCheckIndexesPassesOnMatch(t *testing.T) {
	path := writeOracleMatrix(t, [][]float64{{1, 2}, {0, 2}})

	table := neighbor.Table{Rows: [][]neighbor.Pair{
		{{Index: 2, Distance: 1}, {Index: 1, Distance: 2}},
		{{Index: 0, Distance: 1}, {Index: 2, Distance: 2}},
	}}

	result := CheckIndexes(table, path, 1, 0)
	if result.Status != Pass {
		t.Errorf("expected Pass, got %v: %s", result.Status, result.Detail)
	}
}

func TestCheckIndexesFailsOnMismatch(t *testing.T) {
	path := writeOracleMatrix(t, [][]float64{{1, 2}})

	table := neighbor.Table{Rows: [][]neighbor.Pair{
		{{Index: 3, Distance: 1}, {Index: 4, Distance: 2}},
	}}

	result := CheckIndexes(table, path, 1, 0)
	if result.Status != Fail {
		t.Errorf("expected Fail, got %v", result.Status)
	}
}
