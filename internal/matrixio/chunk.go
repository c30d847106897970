// Package matrixio implements the matrix-chunk value type and its wire
// codec: a row-major slab of float64 cells tagged with its shape and its
// global row offset, serializable to a fixed little-endian frame for
// transport between ranks.
package matrixio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/therealutkarshpriyadarshi/ringknn/internal/knnerr"
)

// headerSize is the three int32 header fields: rows, cols, chunk_offset.
const headerSize = 3 * 4

// Chunk is a contiguous row-range of the global matrix, row-major.
// chunk_offset is the global row index of Data's first row. Chunk is a
// value type: callers that need to retain it across a ring rotation must
// copy it (see internal/pipeline for lifecycle notes).
type Chunk struct {
	Rows, Cols   int32
	ChunkOffset  int32
	Data         []float64 // len == Rows*Cols, row-major
}

// NewChunk allocates a zero-valued chunk of the given shape.
func NewChunk(rows, cols, chunkOffset int32) (Chunk, error) {
	if rows < 0 || cols < 0 {
		return Chunk{}, fmt.Errorf("matrixio.NewChunk: rows=%d cols=%d: %w", rows, cols, knnerr.ErrInvalidArgument)
	}
	data := make([]float64, int64(rows)*int64(cols))
	return Chunk{Rows: rows, Cols: cols, ChunkOffset: chunkOffset, Data: data}, nil
}

// At returns the cell at (row, col), both 0-indexed within the chunk.
func (c Chunk) At(row, col int32) float64 {
	return c.Data[int64(row)*int64(c.Cols)+int64(col)]
}

// Set writes the cell at (row, col).
func (c Chunk) Set(row, col int32, v float64) {
	c.Data[int64(row)*int64(c.Cols)+int64(col)] = v
}

// Row returns a view of row r's columns, without copying.
func (c Chunk) Row(r int32) []float64 {
	start := int64(r) * int64(c.Cols)
	return c.Data[start : start+int64(c.Cols)]
}

// Equal reports bit-exact equality of shape, offset, and every cell.
func (c Chunk) Equal(o Chunk) bool {
	if c.Rows != o.Rows || c.Cols != o.Cols || c.ChunkOffset != o.ChunkOffset {
		return false
	}
	if len(c.Data) != len(o.Data) {
		return false
	}
	for i := range c.Data {
		if math.Float64bits(c.Data[i]) != math.Float64bits(o.Data[i]) {
			return false
		}
	}
	return true
}

// EncodedSize returns the exact wire size of Encode(c).
func (c Chunk) EncodedSize() int {
	return headerSize + 8*int(c.Rows)*int(c.Cols)
}

// Encode serializes the chunk to a little-endian wire layout:
// rows:int32 || cols:int32 || chunk_offset:int32 ||
// data[rows*cols]:f64 row-major.
func Encode(c Chunk) []byte {
	buf := make([]byte, c.EncodedSize())
	binary.LittleEndian.PutUint32(buf[0:4], uint32(c.Rows))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(c.Cols))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(c.ChunkOffset))
	off := headerSize
	for _, v := range c.Data {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
		off += 8
	}
	return buf
}

// Decode parses a byte buffer produced by Encode. It fails with
// ErrMalformedFrame if the declared header disagrees with the actual
// buffer length.
func Decode(buf []byte) (Chunk, error) {
	if len(buf) < headerSize {
		return Chunk{}, fmt.Errorf("matrixio.Decode: short buffer (%d bytes): %w", len(buf), knnerr.ErrMalformedFrame)
	}
	rows := int32(binary.LittleEndian.Uint32(buf[0:4]))
	cols := int32(binary.LittleEndian.Uint32(buf[4:8]))
	offset := int32(binary.LittleEndian.Uint32(buf[8:12]))

	want := headerSize + 8*int(rows)*int(cols)
	if len(buf) != want {
		return Chunk{}, fmt.Errorf("matrixio.Decode: declared size %d, got %d bytes: %w", want, len(buf), knnerr.ErrMalformedFrame)
	}

	data := make([]float64, int64(rows)*int64(cols))
	off := headerSize
	for i := range data {
		data[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	return Chunk{Rows: rows, Cols: cols, ChunkOffset: offset, Data: data}, nil
}
