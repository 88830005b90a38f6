package tensor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// JSON cannot represent NaN or infinities, so cells are encoded as:
// NA -> null, +Inf -> "+Inf", -Inf -> "-Inf", anything else as a number.

func appendFloat(buf []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(buf, "null"...)
	case math.IsInf(v, 1):
		return append(buf, `"+Inf"`...)
	case math.IsInf(v, -1):
		return append(buf, `"-Inf"`...)
	default:
		return strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
}

func appendFloats(buf []byte, xs []float64) []byte {
	buf = append(buf, '[')
	for i, x := range xs {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloat(buf, x)
	}
	return append(buf, ']')
}

// Float is a float64 with the NA-aware JSON encoding used by this package.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	return appendFloat(nil, float64(f)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*f = Float(math.NaN())
		return nil
	case `"+Inf"`:
		*f = Float(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("tensor: invalid number %q: %w", data, err)
	}
	*f = Float(v)
	return nil
}

func decodeFloats(raw []Float) []float64 {
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v)
	}
	return out
}

type matrixJSON struct {
	Shape [2]int    `json:"shape"`
	Data  [][]Float `json:"data"`
}

// MarshalJSON encodes the matrix as its shape and a list of rows.
func (m *Matrix) MarshalJSON() ([]byte, error) {
	rows, cols := m.Dims()
	buf := []byte(fmt.Sprintf(`{"shape":[%d,%d],"data":[`, rows, cols))
	for i := 0; i < rows; i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloats(buf, m.Row(i))
	}
	return append(buf, "]}"...), nil
}

// UnmarshalJSON decodes a matrix, rejecting rows whose length differs from the shape.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	const op = "tensor: decode matrix json"

	var raw matrixJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return decodeError(op, err)
	}
	rows, cols := raw.Shape[0], raw.Shape[1]
	if rows < 0 || cols < 0 || len(raw.Data) != rows {
		return decodeError(op, fmt.Errorf("%w: %d rows for shape %dx%d", ErrShape, len(raw.Data), rows, cols))
	}
	out := NewMatrix(rows, cols)
	for i, row := range raw.Data {
		if len(row) != cols {
			return decodeError(op, fmt.Errorf("%w: row %d has %d values for %d columns", ErrShape, i, len(row), cols))
		}
		copy(out.Row(i), decodeFloats(row))
	}
	*m = *out
	return nil
}

// MarshalJSON encodes the vector as a list of cells.
func (v Vector) MarshalJSON() ([]byte, error) {
	return appendFloats(nil, v), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Vector) UnmarshalJSON(data []byte) error {
	var raw []Float
	if err := json.Unmarshal(data, &raw); err != nil {
		return decodeError("tensor: decode vector json", err)
	}
	*v = decodeFloats(raw)
	return nil
}

type cooJSON struct {
	Values  []Float  `json:"values"`
	Indices [2][]int `json:"indices"`
	Shape   [2]int   `json:"shape"`
}

// MarshalJSON encodes values, indices and shape.
func (c COO) MarshalJSON() ([]byte, error) {
	raw := cooJSON{
		Values:  make([]Float, len(c.Values)),
		Indices: [2][]int{nonNil(c.Indices[0]), nonNil(c.Indices[1])},
		Shape:   c.Shape,
	}
	for i, v := range c.Values {
		raw.Values[i] = Float(v)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes and validates a sparse matrix.
func (c *COO) UnmarshalJSON(data []byte) error {
	const op = "tensor: decode coo json"

	var raw cooJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return decodeError(op, err)
	}
	out := COO{
		Values:  decodeFloats(raw.Values),
		Indices: [2][]int{nonNil(raw.Indices[0]), nonNil(raw.Indices[1])},
		Shape:   raw.Shape,
	}
	if err := out.Validate(); err != nil {
		return decodeError(op, err)
	}
	*c = out
	return nil
}

func nonNil(xs []int) []int {
	if xs == nil {
		return []int{}
	}
	return xs
}
