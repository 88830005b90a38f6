package tensor

// Vector is a dense float64 vector, one cell per entity.
type Vector []float64

// NewVectorFilled returns a vector of length n with every cell set to v.
func NewVectorFilled(n int, v float64) Vector {
	out := make(Vector, n)
	Fill(out, v)
	return out
}

// Clone returns a deep copy.
func (v Vector) Clone() Vector {
	if v == nil {
		return nil
	}
	out := make(Vector, len(v))
	copy(out, v)
	return out
}

// Equal reports whether both vectors have bit-identical cells, treating NA
// cells as equal.
func (v Vector) Equal(o Vector) bool {
	return floatsEqual(v, o)
}

// MarshalBinary encodes the vector as a KindVector frame.
func (v Vector) MarshalBinary() ([]byte, error) {
	enc := NewEncoder(KindVector)
	enc.Floats(v)
	return enc.Bytes(), nil
}

// UnmarshalBinary decodes a KindVector frame.
func (v *Vector) UnmarshalBinary(data []byte) error {
	dec, err := NewDecoder("tensor: decode vector", data, KindVector)
	if err != nil {
		return err
	}
	out := dec.Floats()
	if err := dec.Finish(); err != nil {
		return err
	}
	*v = out
	return nil
}
