// Package tensor provides the numeric value types carried by observations:
// dense row-major matrices, vectors, and coordinate-format sparse matrices.
//
// Undefined cells hold the NA sentinel (NaN). Equality on these types compares
// bit patterns, so two NA cells are equal while NA never equals zero.
//
// Every type round-trips losslessly through MarshalBinary/UnmarshalBinary using
// the framed wire format described in codec.go.
package tensor
