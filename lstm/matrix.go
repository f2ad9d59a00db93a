package lstm

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix(rows, cols int) Matrix {
	return Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// MatrixFromRows builds a matrix from nested rows. All rows must have the same length.
func MatrixFromRows(rows [][]float32) (Matrix, error) {
	if len(rows) == 0 {
		return Matrix{}, nil
	}
	cols := len(rows[0])
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		if len(r) != cols {
			return Matrix{}, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(r), cols)
		}
		copy(m.Data[i*cols:], r)
	}
	return m, nil
}

// Row returns row i as a slice sharing the matrix storage.
func (m Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns the element at (i, j).
func (m Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// RowSlice returns rows [from, to) sharing the matrix storage.
func (m Matrix) RowSlice(from, to int) Matrix {
	return Matrix{Rows: to - from, Cols: m.Cols, Data: m.Data[from*m.Cols : to*m.Cols]}
}

func (m Matrix) general() blas32.General {
	return blas32.General{Rows: m.Rows, Cols: m.Cols, Stride: m.Cols, Data: m.Data}
}

// VecMul accumulates x·m into out. len(x) must equal m.Rows and len(out) m.Cols.
func (m Matrix) VecMul(x, out []float32) {
	if m.Rows == 0 || m.Cols == 0 {
		return
	}
	blas32.Gemv(blas.Trans, 1, m.general(),
		blas32.Vector{N: len(x), Inc: 1, Data: x}, 1,
		blas32.Vector{N: len(out), Inc: 1, Data: out})
}

// ndarray is the serde layout used by published weight files:
// {"v":1,"dim":[r,c],"data":[...]}.
type ndarray struct {
	V    int       `json:"v"`
	Dim  []int     `json:"dim"`
	Data []float32 `json:"data"`
}

// MarshalJSON writes the matrix in ndarray form.
func (m Matrix) MarshalJSON() ([]byte, error) {
	data := m.Data
	if data == nil {
		data = []float32{}
	}
	return json.Marshal(ndarray{V: 1, Dim: []int{m.Rows, m.Cols}, Data: data})
}

// UnmarshalJSON accepts either ndarray form or nested arrays.
func (m *Matrix) UnmarshalJSON(b []byte) error {
	var nested [][]float32
	if err := json.Unmarshal(b, &nested); err == nil {
		mm, err := MatrixFromRows(nested)
		if err != nil {
			return err
		}
		*m = mm
		return nil
	}

	var nd ndarray
	if err := json.Unmarshal(b, &nd); err != nil {
		return err
	}
	if len(nd.Dim) != 2 {
		return fmt.Errorf("%w: matrix has %d dimensions, want 2", ErrShape, len(nd.Dim))
	}
	if nd.Dim[0]*nd.Dim[1] != len(nd.Data) {
		return fmt.Errorf("%w: dim %v does not match %d values", ErrShape, nd.Dim, len(nd.Data))
	}
	*m = Matrix{Rows: nd.Dim[0], Cols: nd.Dim[1], Data: nd.Data}
	return nil
}

// Vector is a dense float32 vector.
type Vector []float32

// MarshalJSON writes the vector in ndarray form.
func (v Vector) MarshalJSON() ([]byte, error) {
	data := []float32(v)
	if data == nil {
		data = []float32{}
	}
	return json.Marshal(ndarray{V: 1, Dim: []int{len(v)}, Data: data})
}

// UnmarshalJSON accepts either ndarray form or a flat array.
func (v *Vector) UnmarshalJSON(b []byte) error {
	var flat []float32
	if err := json.Unmarshal(b, &flat); err == nil {
		*v = flat
		return nil
	}

	var nd ndarray
	if err := json.Unmarshal(b, &nd); err != nil {
		return err
	}
	if len(nd.Dim) != 1 || nd.Dim[0] != len(nd.Data) {
		return fmt.Errorf("%w: vector dim %v does not match %d values", ErrShape, nd.Dim, len(nd.Data))
	}
	*v = nd.Data
	return nil
}
