package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major float64 matrix. Unlike mat.Dense, matrices with
// zero rows or columns are valid values, which happens for problems without
// LP rows.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix returns a zero-filled rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("tensor: negative dimension %dx%d", rows, cols))
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// NewMatrixFilled returns a rows×cols matrix with every cell set to v.
func NewMatrixFilled(rows, cols int, v float64) *Matrix {
	m := NewMatrix(rows, cols)
	Fill(m.data, v)
	return m
}

// NewMatrixFrom wraps data, laid out row-major, without copying.
func NewMatrixFrom(rows, cols int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 || len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %dx%d with %d values", ErrShape, rows, cols, len(data))
	}
	return &Matrix{rows: rows, cols: cols, data: data}, nil
}

// Dims returns the number of rows and columns. A nil matrix is 0×0.
func (m *Matrix) Dims() (int, int) {
	if m == nil {
		return 0, 0
	}
	return m.rows, m.cols
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int {
	r, _ := m.Dims()
	return r
}

// Cols returns the number of columns.
func (m *Matrix) Cols() int {
	_, c := m.Dims()
	return c
}

// At returns the cell at row i, column j.
func (m *Matrix) At(i, j int) float64 {
	m.check(i, j)
	return m.data[i*m.cols+j]
}

// Set assigns the cell at row i, column j.
func (m *Matrix) Set(i, j int, v float64) {
	m.check(i, j)
	m.data[i*m.cols+j] = v
}

func (m *Matrix) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("tensor: index (%d,%d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
}

// Row returns row i as a view into the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("tensor: row %d out of range for %d rows", i, m.rows))
	}
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Col returns a copy of column j.
func (m *Matrix) Col(j int) []float64 {
	if j < 0 || j >= m.cols {
		panic(fmt.Sprintf("tensor: column %d out of range for %d columns", j, m.cols))
	}
	out := make([]float64, m.rows)
	for i := range out {
		out[i] = m.data[i*m.cols+j]
	}
	return out
}

// RawData returns the row-major backing slice.
func (m *Matrix) RawData() []float64 {
	if m == nil {
		return nil
	}
	return m.data
}

// Clone returns a deep copy. The clone of nil is nil.
func (m *Matrix) Clone() *Matrix {
	if m == nil {
		return nil
	}
	out := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data))}
	copy(out.data, m.data)
	return out
}

// Equal reports whether both matrices have the same shape and bit-identical
// cells, treating NA cells as equal.
func (m *Matrix) Equal(o *Matrix) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.rows == o.rows && m.cols == o.cols && floatsEqual(m.data, o.data)
}

// Dense copies the matrix into a gonum matrix. It returns nil for an empty
// matrix, which gonum cannot represent.
func (m *Matrix) Dense() *mat.Dense {
	if m.Rows() == 0 || m.Cols() == 0 {
		return nil
	}
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return mat.NewDense(m.rows, m.cols, data)
}

// MarshalBinary encodes the matrix as a KindMatrix frame.
func (m *Matrix) MarshalBinary() ([]byte, error) {
	enc := NewEncoder(KindMatrix)
	enc.Matrix(m)
	return enc.Bytes(), nil
}

// UnmarshalBinary decodes a KindMatrix frame.
func (m *Matrix) UnmarshalBinary(data []byte) error {
	dec, err := NewDecoder("tensor: decode matrix", data, KindMatrix)
	if err != nil {
		return err
	}
	out := dec.Matrix()
	if err := dec.Finish(); err != nil {
		return err
	}
	*m = *out
	return nil
}
