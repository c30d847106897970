package matrixio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnerr"
)

// fileHeaderSize is the on-disk header: rows:int32 || cols:int32.
const fileHeaderSize = 2 * 4

// LoadChunk reads the r-th of p row chunks from a matrix file, stamping
// the result with its chunk_offset. The file format is rows:int32 ||
// cols:int32 followed by rows*cols row-major float64 cells. When total
// rows aren't evenly divisible by p, the first (total_rows mod p) chunks
// each get one extra row so every row is assigned to exactly one rank.
func LoadChunk(path string, p, r int32) (Chunk, error) {
	if p <= 0 || r < 0 || r >= p {
		return Chunk{}, fmt.Errorf("matrixio.LoadChunk: p=%d r=%d: %w", p, r, knnerr.ErrInvalidArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return Chunk{}, fmt.Errorf("matrixio.LoadChunk: open %s: %w", path, wrapIO(err))
	}
	defer f.Close()

	header := make([]byte, fileHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return Chunk{}, fmt.Errorf("matrixio.LoadChunk: read header of %s: %w", path, wrapIO(err))
	}
	totalRows := int32(binary.LittleEndian.Uint32(header[0:4]))
	cols := int32(binary.LittleEndian.Uint32(header[4:8]))

	rows := totalRows / p
	remaining := totalRows % p
	var offset int32
	if r < remaining {
		rows++
		offset = r * rows
	} else {
		offset = (rows+1)*remaining + rows*(r-remaining)
	}

	if _, err := f.Seek(int64(fileHeaderSize)+int64(offset)*int64(cols)*8, io.SeekStart); err != nil {
		return Chunk{}, fmt.Errorf("matrixio.LoadChunk: seek in %s: %w", path, wrapIO(err))
	}

	chunk, err := NewChunk(rows, cols, offset)
	if err != nil {
		return Chunk{}, fmt.Errorf("matrixio.LoadChunk: %w", err)
	}

	payload := make([]byte, 8*int64(rows)*int64(cols))
	if _, err := io.ReadFull(f, payload); err != nil {
		return Chunk{}, fmt.Errorf("matrixio.LoadChunk: read %d rows from %s: %w", rows, path, wrapIO(err))
	}
	for i := range chunk.Data {
		chunk.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8 : i*8+8]))
	}

	return chunk, nil
}

func wrapIO(err error) error {
	return fmt.Errorf("%w: %v", knnerr.ErrIOFailure, err)
}
