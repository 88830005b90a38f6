package tensor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// COO is a sparse matrix in coordinate format.
//
// Indices holds one slice per dimension: Indices[0][k] and Indices[1][k] are
// the row and column of Values[k]. There are as many entries as non-zero
// coefficients, and Shape is the size of the matrix as if it were dense.
type COO struct {
	Values  []float64
	Indices [2][]int
	Shape   [2]int
}

// NewCOO returns an empty rows×cols sparse matrix with room for nnz entries.
func NewCOO(rows, cols, nnz int) COO {
	return COO{
		Values:  make([]float64, 0, nnz),
		Indices: [2][]int{make([]int, 0, nnz), make([]int, 0, nnz)},
		Shape:   [2]int{rows, cols},
	}
}

// Append adds the entry (row, col) = v.
func (c *COO) Append(row, col int, v float64) {
	c.Values = append(c.Values, v)
	c.Indices[0] = append(c.Indices[0], row)
	c.Indices[1] = append(c.Indices[1], col)
}

// NNZ returns the number of stored entries.
func (c COO) NNZ() int {
	return len(c.Values)
}

// Validate checks that every index slice has one entry per value and that all
// indices lie within the shape.
func (c COO) Validate() error {
	if c.Shape[0] < 0 || c.Shape[1] < 0 {
		return fmt.Errorf("%w: negative shape %v", ErrShape, c.Shape)
	}
	nnz := len(c.Values)
	if len(c.Indices[0]) != nnz || len(c.Indices[1]) != nnz {
		return fmt.Errorf("%w: %d values with %d row and %d column indices",
			ErrShape, nnz, len(c.Indices[0]), len(c.Indices[1]))
	}
	for dim := 0; dim < 2; dim++ {
		for k, idx := range c.Indices[dim] {
			if idx < 0 || idx >= c.Shape[dim] {
				return fmt.Errorf("%w: entry %d has index %d in dimension %d of size %d",
					ErrIndexRange, k, idx, dim, c.Shape[dim])
			}
		}
	}
	return nil
}

// At returns the sum of all entries stored at (row, col).
func (c COO) At(row, col int) float64 {
	var sum float64
	for k, v := range c.Values {
		if c.Indices[0][k] == row && c.Indices[1][k] == col {
			sum += v
		}
	}
	return sum
}

// Clone returns a deep copy.
func (c COO) Clone() COO {
	out := COO{
		Values:  make([]float64, len(c.Values)),
		Indices: [2][]int{make([]int, len(c.Indices[0])), make([]int, len(c.Indices[1]))},
		Shape:   c.Shape,
	}
	copy(out.Values, c.Values)
	copy(out.Indices[0], c.Indices[0])
	copy(out.Indices[1], c.Indices[1])
	return out
}

// Equal reports whether shape, indices and values are identical.
func (c COO) Equal(o COO) bool {
	if c.Shape != o.Shape || !floatsEqual(c.Values, o.Values) {
		return false
	}
	for dim := 0; dim < 2; dim++ {
		if len(c.Indices[dim]) != len(o.Indices[dim]) {
			return false
		}
		for k := range c.Indices[dim] {
			if c.Indices[dim][k] != o.Indices[dim][k] {
				return false
			}
		}
	}
	return true
}

// Dense expands the matrix into a gonum matrix, summing duplicate entries.
// It returns nil when the shape is empty.
func (c COO) Dense() *mat.Dense {
	if c.Shape[0] == 0 || c.Shape[1] == 0 {
		return nil
	}
	d := mat.NewDense(c.Shape[0], c.Shape[1], nil)
	for k, v := range c.Values {
		r, col := c.Indices[0][k], c.Indices[1][k]
		d.Set(r, col, d.At(r, col)+v)
	}
	return d
}

// MarshalBinary encodes the sparse matrix as a KindCOO frame.
func (c COO) MarshalBinary() ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	enc := NewEncoder(KindCOO)
	enc.COO(c)
	return enc.Bytes(), nil
}

// UnmarshalBinary decodes a KindCOO frame, rejecting inconsistent shapes.
func (c *COO) UnmarshalBinary(data []byte) error {
	dec, err := NewDecoder("tensor: decode coo", data, KindCOO)
	if err != nil {
		return err
	}
	out := dec.COO()
	if err := dec.Finish(); err != nil {
		return err
	}
	*c = out
	return nil
}
